package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"betamax-recon/recon"
)

var csvHeader = []string{"Display_Name", "Package_ID", "Version_Label", "Intel_Snippet"}

// WriteCSV writes candidates with a header row, in scan order.
func WriteCSV(w io.Writer, candidates []recon.DetectedCandidate) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, c := range candidates {
		row := []string{c.DisplayName, c.PackageID, c.VersionLabel, c.IntelSnippet}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteJSON writes candidates as an indented JSON array ("[]" when empty).
func WriteJSON(w io.Writer, candidates []recon.DetectedCandidate) error {
	if candidates == nil {
		candidates = []recon.DetectedCandidate{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(candidates); err != nil {
		return fmt.Errorf("failed to encode candidates: %w", err)
	}
	return nil
}
