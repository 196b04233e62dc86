package probe

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"betamax-recon/config"
	"betamax-recon/logging"
)

// Indicators are the phrases a store listing shows around its testing program.
var Indicators = []string{
	"Join the beta",
	"You're a beta tester",
	"Beta program is full",
	"Leave the beta",
	"Become a tester",
}

// Report is what a probe saw on a listing.
type Report struct {
	PackageID string
	URL       string
	Signals   []string
}

// Enrolled reports whether the listing offers or confirms a testing program.
func (r Report) Enrolled() bool {
	return len(r.Signals) > 0
}

// Probe renders store listings in headless Chrome, where the testing-program
// widgets only appear after scripts run.
type Probe struct {
	BaseURL   string
	UserAgent string
	Settle    time.Duration
	Timeout   time.Duration
	Headless  bool
	Logger    logging.Logger
}

// New returns a Probe configured from cfg.
func New(cfg config.Config, logger logging.Logger) *Probe {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Probe{
		BaseURL:   cfg.StoreBaseURL,
		UserAgent: cfg.UserAgent,
		Settle:    3 * time.Second,
		Timeout:   60 * time.Second,
		Headless:  true,
		Logger:    logger,
	}
}

// ListingURL is the store page that gets rendered for packageID.
func (p *Probe) ListingURL(packageID string) string {
	base := strings.TrimSuffix(p.BaseURL, "/")
	if base == "" {
		base = config.DefaultStoreBaseURL
	}
	return fmt.Sprintf("%s/store/apps/details?id=%s&hl=en_US&gl=US", base, url.QueryEscape(packageID))
}

// Run renders the listing for packageID and looks for enrollment indicators.
func (p *Probe) Run(ctx context.Context, packageID string) (Report, error) {
	target := p.ListingURL(packageID)
	report := Report{PackageID: packageID, URL: target}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(p.UserAgent),
		chromedp.Flag("headless", p.Headless),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	if p.Timeout > 0 {
		browserCtx, cancel = context.WithTimeout(browserCtx, p.Timeout)
		defer cancel()
	}

	log := p.Logger
	if log == nil {
		log = logging.Discard()
	}
	log.WithField("url", target).Info("Rendering store listing")

	var content string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(target),
		chromedp.Sleep(p.Settle),
		chromedp.OuterHTML("html", &content, chromedp.ByQuery),
	)
	if err != nil {
		return report, fmt.Errorf("chromedp failed to render %s: %w", target, err)
	}

	report.Signals = MatchIndicators(content)
	log.WithFields(logging.Fields{
		"package_id": packageID,
		"signals":    len(report.Signals),
	}).Info("Probe finished")
	return report, nil
}

// MatchIndicators returns the indicators present in content, in Indicators order.
// Matching ignores case and the curly apostrophe the store sometimes renders.
func MatchIndicators(content string) []string {
	haystack := normalise(content)
	var found []string
	for _, indicator := range Indicators {
		if strings.Contains(haystack, normalise(indicator)) {
			found = append(found, indicator)
		}
	}
	return found
}

func normalise(s string) string {
	s = strings.ReplaceAll(s, "’", "'")
	s = strings.ReplaceAll(s, "&#39;", "'")
	return strings.ToLower(s)
}
