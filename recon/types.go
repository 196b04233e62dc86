package recon

import (
	"context"

	"betamax-recon/intel"
)

// AppMetadata describes one installed application as reported by the device.
type AppMetadata struct {
	PackageID    string `json:"package_id" yaml:"package_id"`
	DisplayLabel string `json:"label" yaml:"label"`
	VersionLabel string `json:"version" yaml:"version"`
	IsSystemApp  bool   `json:"system" yaml:"system"`
}

// DetectedCandidate is an application that looks like a beta build, enriched
// with whatever intel the store page gave up.
type DetectedCandidate struct {
	DisplayName  string `json:"display_name" yaml:"display_name"`
	PackageID    string `json:"package_id" yaml:"package_id"`
	VersionLabel string `json:"version_label" yaml:"version_label"`
	IntelSnippet string `json:"intel_snippet" yaml:"intel_snippet"`
}

// InventoryProvider supplies the installed-application list. Implementations
// are read-only views of the device.
type InventoryProvider interface {
	Inventory(ctx context.Context) ([]AppMetadata, error)
}

// IntelSource enriches a package with store intel. Implementations must not panic
// and must always return a usable snippet.
type IntelSource interface {
	FetchIntel(ctx context.Context, packageID string) intel.Result
}

const noIntel = intel.NoIntel
