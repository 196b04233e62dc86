package intel

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly"

	"betamax-recon/config"
	"betamax-recon/logging"
)

// Fetcher scrapes the public store listing of a package for its release notes.
type Fetcher struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Extractor Extractor
	Logger    logging.Logger
}

// NewFetcher builds a Fetcher from cfg. A nil logger discards output.
func NewFetcher(cfg config.Config, logger logging.Logger) *Fetcher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Fetcher{
		BaseURL:   cfg.StoreBaseURL,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.IntelTimeout,
		Extractor: NewWhatsNewExtractor(),
		Logger:    logger,
	}
}

// ListingURL returns the store page for packageID with locale pinned to en_US.
func (f *Fetcher) ListingURL(packageID string) string {
	base := strings.TrimSuffix(f.BaseURL, "/")
	if base == "" {
		base = config.DefaultStoreBaseURL
	}
	return fmt.Sprintf("%s/store/apps/details?id=%s&hl=en_US&gl=US", base, url.QueryEscape(packageID))
}

// FetchIntel performs a single GET of the listing and extracts the snippet.
// It never returns an empty snippet and never panics.
func (f *Fetcher) FetchIntel(ctx context.Context, packageID string) (res Result) {
	log := f.logger().WithField("package_id", packageID)

	defer func() {
		if r := recover(); r != nil {
			res = Failure(fmt.Errorf("%v", r))
			log.WithField("panic", r).Error("Intel fetch panicked")
		}
	}()

	if err := ctx.Err(); err != nil {
		return Failure(err)
	}

	body, err := f.get(f.ListingURL(packageID))
	if err != nil {
		log.WithError(err).Warn("Intel fetch failed")
		return Failure(err)
	}

	extractor := f.Extractor
	if extractor == nil {
		extractor = NewWhatsNewExtractor()
	}

	snippet, found, err := extractor.Extract(bytes.NewReader(body))
	if err != nil {
		log.WithError(err).Debug("Store page could not be parsed")
		return Missing()
	}
	if !found {
		log.Debug("No What's New section on store page")
		return Missing()
	}

	res = Found(snippet)
	if res.Outcome == OutcomeEmpty {
		log.Debug("What's New section was empty")
	} else {
		log.WithField("chars", len(snippet)).Debug("Intel extracted")
	}
	return res
}

func (f *Fetcher) get(target string) ([]byte, error) {
	ua := f.UserAgent
	if ua == "" {
		ua = config.DefaultUserAgent
	}
	c := colly.NewCollector(
		colly.UserAgent(ua),
		colly.AllowURLRevisit(),
	)
	if f.Timeout > 0 {
		c.SetRequestTimeout(f.Timeout)
	}

	var body []byte
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	if err := c.Visit(target); err != nil {
		return nil, err
	}
	return body, nil
}

func (f *Fetcher) logger() logging.Logger {
	if f.Logger == nil {
		return logging.Discard()
	}
	return f.Logger
}
