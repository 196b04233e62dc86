package recon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betamax-recon/intel"
)

type fakeIntel struct {
	mu      sync.Mutex
	calls   []string
	delay   func(pkg string) time.Duration
	results map[string]intel.Result
}

func (f *fakeIntel) FetchIntel(ctx context.Context, pkg string) intel.Result {
	f.mu.Lock()
	f.calls = append(f.calls, pkg)
	f.mu.Unlock()
	if f.delay != nil {
		time.Sleep(f.delay(pkg))
	}
	if r, ok := f.results[pkg]; ok {
		return r
	}
	return intel.Found("notes for " + pkg)
}

func (f *fakeIntel) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type staticInventory struct {
	apps []AppMetadata
	err  error
}

func (s staticInventory) Inventory(context.Context) ([]AppMetadata, error) {
	return s.apps, s.err
}

func TestScanInventoryScenario(t *testing.T) {
	source := &fakeIntel{}
	s := NewScanner(NewClassifier(), source, nil)

	got := s.ScanInventory(context.Background(), []AppMetadata{
		{PackageID: "com.example.app", DisplayLabel: "Example", VersionLabel: "2.0"},
		{PackageID: "com.betamax.core", DisplayLabel: "Beta Max", VersionLabel: "1.0", IsSystemApp: true},
		{PackageID: "com.sys.clock", DisplayLabel: "Clock", VersionLabel: "1.0", IsSystemApp: true},
	})

	require.Len(t, got, 1)
	assert.Equal(t, DetectedCandidate{
		DisplayName:  "Beta Max",
		PackageID:    "com.betamax.core",
		VersionLabel: "1.0",
		IntelSnippet: "notes for com.betamax.core",
	}, got[0])
	assert.Equal(t, []string{"com.betamax.core"}, source.called())
}

func TestScanInventoryKeepsFailedIntel(t *testing.T) {
	source := &fakeIntel{results: map[string]intel.Result{
		"com.a": intel.Failure(errors.New("timeout")),
		"com.b": intel.Missing(),
		"com.c": intel.Found(""),
	}}
	s := NewScanner(NewClassifier(), source, nil)

	got := s.ScanInventory(context.Background(), []AppMetadata{
		{PackageID: "com.a", VersionLabel: "beta"},
		{PackageID: "com.b", VersionLabel: "beta"},
		{PackageID: "com.c", VersionLabel: "beta"},
	})

	require.Len(t, got, 3)
	assert.Equal(t, "Connection failed: timeout", got[0].IntelSnippet)
	assert.Equal(t, intel.IntelUnavailable, got[1].IntelSnippet)
	assert.Equal(t, intel.EncryptedSignal, got[2].IntelSnippet)
	assert.Equal(t, "com.a", got[0].DisplayName)
}

func TestScanInventoryWithoutIntelSource(t *testing.T) {
	s := NewScanner(NewClassifier(), nil, nil)
	got := s.ScanInventory(context.Background(), []AppMetadata{{PackageID: "com.betamax.core"}})
	require.Len(t, got, 1)
	assert.Equal(t, intel.NoIntel, got[0].IntelSnippet)
}

func syntheticInventory(n int) []AppMetadata {
	apps := make([]AppMetadata, n)
	for i := range apps {
		version := "1.0"
		if i%3 != 0 {
			version = fmt.Sprintf("1.%d-beta", i)
		}
		apps[i] = AppMetadata{PackageID: fmt.Sprintf("com.app%02d", i), VersionLabel: version, IsSystemApp: i%5 == 0}
	}
	return apps
}

func assertSubsequence(t *testing.T, apps []AppMetadata, got []DetectedCandidate) {
	t.Helper()
	require.LessOrEqual(t, len(got), len(apps))
	j := 0
	for _, app := range apps {
		if j < len(got) && got[j].PackageID == app.PackageID {
			j++
		}
	}
	assert.Equal(t, len(got), j, "output is not a subsequence of the inventory")
}

func TestScanInventoryConcurrentPreservesOrder(t *testing.T) {
	apps := syntheticInventory(30)
	source := &fakeIntel{delay: func(pkg string) time.Duration {
		// uneven delays so workers finish out of order
		return time.Duration('9'-pkg[len(pkg)-1]) * time.Millisecond
	}}

	var streamed []string
	s := NewScanner(NewClassifier(), source, nil)
	s.Concurrency = 8
	s.OnCandidate = func(c DetectedCandidate) { streamed = append(streamed, c.PackageID) }

	got := s.ScanInventory(context.Background(), apps)

	sequential := NewScanner(NewClassifier(), &fakeIntel{}, nil).ScanInventory(context.Background(), apps)
	assert.Equal(t, sequential, got)
	assertSubsequence(t, apps, got)

	var ids []string
	for _, c := range got {
		ids = append(ids, c.PackageID)
	}
	assert.Equal(t, ids, streamed)
}

func TestScanInventoryConcurrencyIsBounded(t *testing.T) {
	var inFlight, peak atomic.Int32
	source := &boundedIntel{inFlight: &inFlight, peak: &peak}

	s := NewScanner(NewClassifier(), source, nil)
	s.Concurrency = 3
	got := s.ScanInventory(context.Background(), syntheticInventory(20))

	assert.NotEmpty(t, got)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

type boundedIntel struct {
	inFlight *atomic.Int32
	peak     *atomic.Int32
}

func (b *boundedIntel) FetchIntel(context.Context, string) intel.Result {
	n := b.inFlight.Add(1)
	for {
		p := b.peak.Load()
		if n <= p || b.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	b.inFlight.Add(-1)
	return intel.Found("ok")
}

func TestScanInventoryCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	apps := []AppMetadata{
		{PackageID: "com.betamax.one"},
		{PackageID: "com.betamax.two"},
		{PackageID: "com.betamax.three"},
	}
	source := &cancellingIntel{cancel: cancel, after: "com.betamax.one"}

	got := NewScanner(NewClassifier(), source, nil).ScanInventory(ctx, apps)

	require.Len(t, got, 1)
	assert.Equal(t, "com.betamax.one", got[0].PackageID)
	assert.Equal(t, "ok", got[0].IntelSnippet)
}

type cancellingIntel struct {
	cancel context.CancelFunc
	after  string
}

func (c *cancellingIntel) FetchIntel(_ context.Context, pkg string) intel.Result {
	if pkg == c.after {
		c.cancel()
	}
	return intel.Found("ok")
}

func TestScan(t *testing.T) {
	s := NewScanner(NewClassifier(), &fakeIntel{}, nil)

	got, err := s.Scan(context.Background(), staticInventory{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, err = s.Scan(context.Background(), staticInventory{err: errors.New("adb: no devices")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read inventory")
}
