package recon

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"betamax-recon/logging"
)

// Scanner runs the recon pipeline: classify every inventory entry, fetch intel
// for the ones that pass, and return them in inventory order.
type Scanner struct {
	Classifier *Classifier
	Intel      IntelSource
	// Concurrency bounds in-flight intel fetches. Values below 2 scan sequentially.
	Concurrency int
	// OnCandidate, when set, receives each candidate in inventory order as soon
	// as it and everything before it is finished.
	OnCandidate func(DetectedCandidate)
	Logger      logging.Logger
}

// NewScanner wires a Scanner with a sequential fetch policy.
func NewScanner(classifier *Classifier, source IntelSource, logger logging.Logger) *Scanner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Scanner{
		Classifier:  classifier,
		Intel:       source,
		Concurrency: 1,
		Logger:      logger,
	}
}

// Scan reads the inventory from provider and scans it. Only a failed inventory
// read is returned as an error.
func (s *Scanner) Scan(ctx context.Context, provider InventoryProvider) ([]DetectedCandidate, error) {
	apps, err := provider.Inventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory: %w", err)
	}
	return s.ScanInventory(ctx, apps), nil
}

// ScanInventory scans apps in a single pass. Entries failing classification are
// dropped. Cancelling ctx abandons entries that have not started yet; the
// candidates finished so far are returned in order.
func (s *Scanner) ScanInventory(ctx context.Context, apps []AppMetadata) []DetectedCandidate {
	log := s.logger()
	classifier := s.Classifier
	if classifier == nil {
		classifier = NewClassifier()
	}

	limit := s.Concurrency
	if limit < 1 {
		limit = 1
	}

	out := newOrderedResults(len(apps), s.OnCandidate)

	var g errgroup.Group
	g.SetLimit(limit)

	passed := 0
	for i, app := range apps {
		if ctx.Err() != nil {
			log.WithField("remaining", len(apps)-i).Warn("Scan cancelled, abandoning remaining entries")
			break
		}

		verdict := classifier.Explain(app)
		if !verdict.Pass {
			out.complete(i, nil)
			continue
		}
		passed++
		log.WithFields(logging.Fields{
			"package_id": app.PackageID,
			"version":    app.VersionLabel,
			"rule":       verdict.String(),
		}).Debug("Beta signal detected")

		i, app := i, app
		g.Go(func() error {
			if ctx.Err() != nil {
				out.abandon(i)
				return nil
			}
			cand := s.enrich(ctx, app)
			out.complete(i, &cand)
			return nil
		})
	}
	_ = g.Wait()

	candidates := out.candidates()
	log.WithFields(logging.Fields{
		"inventory":  len(apps),
		"classified": passed,
		"detected":   len(candidates),
	}).Info("Recon scan finished")
	return candidates
}

func (s *Scanner) enrich(ctx context.Context, app AppMetadata) DetectedCandidate {
	snippet := ""
	if s.Intel != nil {
		snippet = s.Intel.FetchIntel(ctx, app.PackageID).String()
	}
	if snippet == "" {
		snippet = noIntel
	}

	name := app.DisplayLabel
	if name == "" {
		name = app.PackageID
	}
	return DetectedCandidate{
		DisplayName:  name,
		PackageID:    app.PackageID,
		VersionLabel: app.VersionLabel,
		IntelSnippet: snippet,
	}
}

func (s *Scanner) logger() logging.Logger {
	if s.Logger == nil {
		return logging.Discard()
	}
	return s.Logger
}

// orderedResults collects per-index results from concurrent workers and
// releases them to emit strictly in index order.
type orderedResults struct {
	mu    sync.Mutex
	slots []*DetectedCandidate
	done  []bool
	next  int
	emit  func(DetectedCandidate)
}

func newOrderedResults(n int, emit func(DetectedCandidate)) *orderedResults {
	return &orderedResults{
		slots: make([]*DetectedCandidate, n),
		done:  make([]bool, n),
		emit:  emit,
	}
}

func (o *orderedResults) complete(i int, c *DetectedCandidate) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.slots[i] = c
	o.done[i] = true
	o.flush()
}

// abandon marks i finished without a candidate so later entries can still be emitted.
func (o *orderedResults) abandon(i int) {
	o.complete(i, nil)
}

func (o *orderedResults) flush() {
	for o.next < len(o.done) && o.done[o.next] {
		if c := o.slots[o.next]; c != nil && o.emit != nil {
			o.emit(*c)
		}
		o.next++
	}
}

func (o *orderedResults) candidates() []DetectedCandidate {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]DetectedCandidate, 0, len(o.slots))
	for _, c := range o.slots {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out
}
