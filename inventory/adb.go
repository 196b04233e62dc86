package inventory

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"betamax-recon/logging"
	"betamax-recon/recon"
)

// Runner executes a command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands on the host.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
		}
		return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

// ADBProvider lists the packages installed on an Android device over adb.
// Labels are not exposed by pm, so the package ID stands in for them.
type ADBProvider struct {
	Binary string
	Serial string
	Runner Runner
	Logger logging.Logger
}

// NewADBProvider returns a provider for the device with the given serial
// (empty selects the only attached device).
func NewADBProvider(serial string, logger logging.Logger) *ADBProvider {
	if logger == nil {
		logger = logging.Discard()
	}
	return &ADBProvider{Binary: "adb", Serial: serial, Runner: ExecRunner{}, Logger: logger}
}

func (p *ADBProvider) Inventory(ctx context.Context) ([]recon.AppMetadata, error) {
	all, err := p.listPackages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	system, err := p.listPackages(ctx, "-s")
	if err != nil {
		return nil, fmt.Errorf("failed to list system packages: %w", err)
	}
	isSystem := make(map[string]bool, len(system))
	for _, pkg := range system {
		isSystem[pkg] = true
	}

	apps := make([]recon.AppMetadata, 0, len(all))
	for _, pkg := range all {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		version, err := p.versionName(ctx, pkg)
		if err != nil {
			p.logger().WithError(err).WithField("package_id", pkg).Warn("Failed to read version")
		}
		apps = append(apps, recon.AppMetadata{
			PackageID:    pkg,
			DisplayLabel: pkg,
			VersionLabel: version,
			IsSystemApp:  isSystem[pkg],
		})
	}
	return apps, nil
}

func (p *ADBProvider) listPackages(ctx context.Context, flags ...string) ([]string, error) {
	out, err := p.shell(ctx, append([]string{"pm", "list", "packages"}, flags...)...)
	if err != nil {
		return nil, err
	}
	return ParsePackageList(out), nil
}

func (p *ADBProvider) versionName(ctx context.Context, pkg string) (string, error) {
	out, err := p.shell(ctx, "dumpsys", "package", pkg)
	if err != nil {
		return "", err
	}
	return ParseVersionName(out), nil
}

func (p *ADBProvider) shell(ctx context.Context, args ...string) ([]byte, error) {
	var full []string
	if p.Serial != "" {
		full = append(full, "-s", p.Serial)
	}
	full = append(full, "shell")
	full = append(full, args...)

	bin := p.Binary
	if bin == "" {
		bin = "adb"
	}
	runner := p.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	return runner.Run(ctx, bin, full...)
}

func (p *ADBProvider) logger() logging.Logger {
	if p.Logger == nil {
		return logging.Discard()
	}
	return p.Logger
}

// ParsePackageList parses `pm list packages` output, keeping device order.
func ParsePackageList(out []byte) []string {
	var pkgs []string
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "package:") {
			continue
		}
		pkg := strings.TrimPrefix(line, "package:")
		// `pm list packages -f` prints path=package
		if idx := strings.LastIndex(pkg, "="); idx != -1 {
			pkg = pkg[idx+1:]
		}
		if pkg != "" && !seen[pkg] {
			seen[pkg] = true
			pkgs = append(pkgs, pkg)
		}
	}
	return pkgs
}

// ParseVersionName returns the first versionName in `dumpsys package` output.
func ParseVersionName(out []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if v, ok := strings.CutPrefix(line, "versionName="); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
