package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"betamax-recon/recon"
)

// StaticProvider serves a fixed inventory.
type StaticProvider []recon.AppMetadata

func (p StaticProvider) Inventory(context.Context) ([]recon.AppMetadata, error) {
	return append([]recon.AppMetadata(nil), p...), nil
}

// FileProvider reads an inventory export. The format follows the extension:
// .json, or .yaml/.yml.
type FileProvider struct {
	Path string
}

func (p FileProvider) Inventory(ctx context.Context) ([]recon.AppMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open inventory file: %w", err)
	}

	var apps []recon.AppMetadata
	switch ext := strings.ToLower(filepath.Ext(p.Path)); ext {
	case ".json":
		err = json.Unmarshal(data, &apps)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &apps)
	default:
		return nil, fmt.Errorf("unsupported inventory format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode inventory %s: %w", p.Path, err)
	}

	out := apps[:0]
	for _, app := range apps {
		app.PackageID = strings.TrimSpace(app.PackageID)
		if app.PackageID == "" {
			continue
		}
		out = append(out, app)
	}
	return out, nil
}
