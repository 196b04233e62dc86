package track

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Platforms a community signal can point at.
const (
	PlatformAndroid = "Android"
	PlatformIOS     = "iOS"
	PlatformWeb     = "Web"
)

const unknownPackage = "unknown.package"

var packageIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_.]+$`)

// Signal is a beta program reported by a scout from a store link.
type Signal struct {
	Name        string `json:"name"`
	PackageID   string `json:"package_id"`
	Platform    string `json:"platform"`
	StoreURL    string `json:"store_url"`
	IssuesURL   string `json:"external_issues_url,omitempty"`
	Description string `json:"description"`
	OpenIssues  *int   `json:"open_issues,omitempty"`
}

// ParseStoreURL turns a Google Play or TestFlight link into a Signal.
// Anything else is recorded as a web beta with an unknown package.
func ParseStoreURL(raw string) (Signal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Signal{}, errors.New("empty store url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Signal{}, fmt.Errorf("invalid store url %q: %w", raw, err)
	}
	if u.Host == "" {
		return Signal{}, fmt.Errorf("invalid store url %q: missing host", raw)
	}

	sig := Signal{
		Name:        "Unknown App",
		PackageID:   unknownPackage,
		Platform:    PlatformWeb,
		StoreURL:    raw,
		Description: "Community detected beta signal.",
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "play.google.com":
		sig.Platform = PlatformAndroid
		if id := u.Query().Get("id"); packageIDPattern.MatchString(id) {
			sig.PackageID = id
		}
		sig.Name = nameFromPackage(sig.PackageID)
		sig.Description = "Public access beta detected on Google Play. Testing parameters unknown. Scout discretion advised."
	case "testflight.apple.com":
		sig.Platform = PlatformIOS
		sig.Name = "iOS Beta"
		sig.Description = "TestFlight signal intercepted."
	}
	return sig, nil
}

func nameFromPackage(packageID string) string {
	if packageID == unknownPackage {
		return "Android App"
	}
	parts := strings.Split(packageID, ".")
	last := parts[len(parts)-1]
	if last == "" {
		return "Android App"
	}
	return strings.ToUpper(last[:1]) + last[1:]
}
