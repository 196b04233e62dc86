package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"betamax-recon/recon"
)

// Summary renders a scan as Markdown.
type Summary struct {
	Inventory  int
	Candidates []recon.DetectedCandidate
	Now        func() time.Time
}

func (s Summary) String() string {
	var sb strings.Builder

	sb.WriteString("# Recon Scan\n\n")
	switch n := len(s.Candidates); n {
	case 0:
		sb.WriteString(fmt.Sprintf("0 signals found across %d installed apps.\n", s.Inventory))
	case 1:
		sb.WriteString(fmt.Sprintf("1 signal found across %d installed apps.\n", s.Inventory))
	default:
		sb.WriteString(fmt.Sprintf("%d signals found across %d installed apps.\n", n, s.Inventory))
	}

	if len(s.Candidates) > 0 {
		sb.WriteString("\n| App | Package | Version | Intel |\n")
		sb.WriteString("| :--- | :--- | :--- | :--- |\n")
		for _, c := range s.Candidates {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				cell(c.DisplayName), cell(c.PackageID), cell(c.VersionLabel), cell(c.IntelSnippet)))
		}
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	sb.WriteString(fmt.Sprintf("\n_Last Updated: %s_\n", now().UTC().Format(time.RFC1123)))
	return sb.String()
}

// Publish appends the summary to $GITHUB_STEP_SUMMARY when it is set and
// writes it to fallback otherwise.
func (s Summary) Publish(fallback io.Writer) error {
	summary := s.String()

	stepSummaryPath := os.Getenv("GITHUB_STEP_SUMMARY")
	if stepSummaryPath == "" {
		_, err := io.WriteString(fallback, summary)
		return err
	}

	f, err := os.OpenFile(stepSummaryPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open step summary file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(summary); err != nil {
		return fmt.Errorf("failed to write to step summary file: %w", err)
	}
	return nil
}

// cell keeps free text from breaking the table.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
