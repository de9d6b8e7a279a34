package behavior

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/carfin/carreco/config"
	"github.com/carfin/carreco/core"
	"github.com/carfin/carreco/store"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

type stubSink struct {
	mu       sync.Mutex
	fail     bool
	payloads []*Payload
}

func (s *stubSink) Deliver(_ context.Context, payload *Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("sink unavailable")
	}
	s.payloads = append(s.payloads, payload)
	return nil
}

func newTestRecorder(sink Sink, opts *Options) (*Recorder, *fakeClock) {
	if opts == nil {
		opts = &Options{}
	}
	opts.DisableAutoFlush = true
	r := NewRecorder("u1", sink, opts)
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	r.now = clock.now
	r.session.startedAt = clock.t
	return r, clock
}

func TestViewDurationConfidence(t *testing.T) {
	cases := []struct {
		seconds int
		want    float64
	}{
		{3, 0.1},
		{10, 0.3},
		{20, 0.5},
		{45, 0.7},
		{90, 0.9},
	}

	for _, c := range cases {
		r, clock := newTestRecorder(nil, nil)
		r.StartView("v1", nil)
		clock.advance(time.Duration(c.seconds) * time.Second)
		r.EndView()

		it := r.log[0]
		if it.Duration != c.seconds {
			t.Errorf("duration for %ds view = %d", c.seconds, it.Duration)
		}
		if it.Confidence != c.want {
			t.Errorf("confidence for %ds view = %v, want %v", c.seconds, it.Confidence, c.want)
		}
	}
}

func TestStartViewClosesOpenView(t *testing.T) {
	r, clock := newTestRecorder(nil, nil)

	r.StartView("v1", nil)
	clock.advance(20 * time.Second)
	r.StartView("v2", nil)

	if len(r.log) != 2 {
		t.Fatalf("log size = %d, want 2", len(r.log))
	}
	first := r.log[0]
	if first.Duration != 20 || first.Confidence != 0.5 {
		t.Errorf("first view finalized as duration=%d confidence=%v", first.Duration, first.Confidence)
	}
	if r.openIdx != 1 {
		t.Errorf("open view index = %d, want 1", r.openIdx)
	}
}

func TestExplicitInteractionConfidence(t *testing.T) {
	r, _ := newTestRecorder(nil, nil)

	r.RecordLike("v1")
	r.RecordInquiry("v2", "phone")
	r.RecordTestDrive("v3")
	r.RecordShare("v4")

	want := []struct {
		typ        core.InteractionType
		confidence float64
	}{
		{core.InteractionLike, 0.8},
		{core.InteractionInquiry, 0.9},
		{core.InteractionTestDrive, 0.95},
		{core.InteractionShare, 0.6},
	}
	for i, w := range want {
		if r.log[i].Type != w.typ {
			t.Errorf("log[%d].Type = %s, want %s", i, r.log[i].Type, w.typ)
		}
		if r.log[i].Confidence != w.confidence {
			t.Errorf("log[%d].Confidence = %v, want %v", i, r.log[i].Confidence, w.confidence)
		}
	}
	if r.log[1].Context.Source != "phone" {
		t.Errorf("inquiry source = %q, want phone", r.log[1].Context.Source)
	}
}

func TestEngagementLevels(t *testing.T) {
	cases := []struct {
		name     string
		views    int
		explicit int
		want     string
	}{
		{"very high", 8, 4, EngagementVeryHigh}, // 4/12 > 0.3
		{"high", 10, 2, EngagementHigh},         // 2/12 > 0.1
		{"medium", 10, 1, EngagementMedium},     // 1/11 <= 0.1, total > 10
		{"low", 5, 0, EngagementLow},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, clock := newTestRecorder(nil, nil)
			for i := 0; i < c.views; i++ {
				r.StartView("v1", nil)
				clock.advance(time.Second)
				r.EndView()
			}
			for i := 0; i < c.explicit; i++ {
				r.RecordLike("v1")
			}

			prefs := r.AnalyzePreferences()
			if prefs.Engagement != c.want {
				t.Errorf("engagement = %s, want %s", prefs.Engagement, c.want)
			}
			if prefs.TotalInteractions != c.views+c.explicit {
				t.Errorf("total = %d, want %d", prefs.TotalInteractions, c.views+c.explicit)
			}
			if prefs.ExplicitActions != c.explicit {
				t.Errorf("explicit = %d, want %d", prefs.ExplicitActions, c.explicit)
			}
		})
	}
}

func TestAnalyzeTopVehicles(t *testing.T) {
	r, clock := newTestRecorder(nil, nil)
	for i := 0; i < 3; i++ {
		r.StartView("v1", nil)
		clock.advance(10 * time.Second)
		r.EndView()
	}
	r.StartView("v2", nil)
	clock.advance(10 * time.Second)
	r.EndView()

	prefs := r.AnalyzePreferences()
	if prefs.UniqueVehicles != 2 {
		t.Errorf("unique vehicles = %d, want 2", prefs.UniqueVehicles)
	}
	if len(prefs.TopVehicles) == 0 || prefs.TopVehicles[0].VehicleID != "v1" {
		t.Fatalf("top vehicle = %+v, want v1 first", prefs.TopVehicles)
	}
	if prefs.TopVehicles[0].Views != 3 || prefs.TopVehicles[0].Score != 0.75 {
		t.Errorf("top vehicle stats = %+v", prefs.TopVehicles[0])
	}
	if prefs.AvgViewDuration != 10 {
		t.Errorf("avg view duration = %v, want 10", prefs.AvgViewDuration)
	}
}

func TestFlushSuccessAdvancesWatermark(t *testing.T) {
	sink := &stubSink{}
	r, _ := newTestRecorder(sink, nil)

	r.RecordLike("v1")
	r.RecordLike("v2")
	if err := r.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}

	r.RecordLike("v3")
	if err := r.Flush(context.Background()); err != nil {
		t.Fatalf("second flush: %v", err)
	}

	if len(sink.payloads) != 2 {
		t.Fatalf("deliveries = %d, want 2", len(sink.payloads))
	}
	if len(sink.payloads[0].Interactions) != 2 {
		t.Errorf("first batch size = %d, want 2", len(sink.payloads[0].Interactions))
	}
	if len(sink.payloads[1].Interactions) != 1 {
		t.Errorf("second batch size = %d, want 1", len(sink.payloads[1].Interactions))
	}
	if sink.payloads[1].Interactions[0].VehicleID != "v3" {
		t.Errorf("second batch carries %s, want v3", sink.payloads[1].Interactions[0].VehicleID)
	}
}

func TestFlushPayloadIsolatedFromOpenView(t *testing.T) {
	sink := &stubSink{}
	r, clock := newTestRecorder(sink, nil)

	r.StartView("v1", nil)
	if err := r.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}

	// finalizing the view after flush must not reach into the delivered payload
	clock.advance(20 * time.Second)
	r.EndView()

	delivered := sink.payloads[0].Interactions[0]
	if delivered == r.log[0] {
		t.Fatal("payload aliases the live interaction record")
	}
	if delivered.Duration != 0 || delivered.Confidence != 0.2 {
		t.Errorf("delivered snapshot mutated: duration=%d confidence=%v", delivered.Duration, delivered.Confidence)
	}
	if r.log[0].Duration != 20 || r.log[0].Confidence != 0.5 {
		t.Errorf("live record not finalized: %+v", r.log[0])
	}
}

func TestFlushEmptyBufferIsNoop(t *testing.T) {
	sink := &stubSink{}
	r, _ := newTestRecorder(sink, nil)

	if err := r.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if len(sink.payloads) != 0 {
		t.Errorf("deliveries = %d, want 0", len(sink.payloads))
	}
}

func TestFlushFailureKeepsBufferAndSpills(t *testing.T) {
	fallback := store.NewMemoryStore()
	defer fallback.Close()

	sink := &stubSink{fail: true}
	r, _ := newTestRecorder(sink, &Options{Fallback: fallback})

	r.RecordLike("v1")
	r.RecordLike("v2")
	if err := r.Flush(context.Background()); err == nil {
		t.Fatal("expected flush error")
	}

	// buffer intact, nothing marked delivered
	if r.delivered != 0 {
		t.Errorf("delivered = %d, want 0", r.delivered)
	}

	n, err := fallback.LLen(context.Background(), "behavior:fallback:u1")
	if err != nil {
		t.Fatalf("llen: %v", err)
	}
	if n != 2 {
		t.Errorf("fallback size = %d, want 2", n)
	}

	// after the sink recovers the same batch goes through
	sink.fail = false
	if err := r.Flush(context.Background()); err != nil {
		t.Fatalf("retry flush: %v", err)
	}
	if len(sink.payloads) != 1 || len(sink.payloads[0].Interactions) != 2 {
		t.Fatalf("retry delivery = %+v", sink.payloads)
	}
}

func TestFallbackCapped(t *testing.T) {
	fallback := store.NewMemoryStore()
	defer fallback.Close()

	cfg := config.Default()
	cfg.Flush.FallbackCap = 5

	sink := &stubSink{fail: true}
	r, _ := newTestRecorder(sink, &Options{Config: cfg, Fallback: fallback})

	for i := 0; i < 8; i++ {
		r.RecordLike("v1")
	}
	_ = r.Flush(context.Background())

	n, err := fallback.LLen(context.Background(), "behavior:fallback:u1")
	if err != nil {
		t.Fatalf("llen: %v", err)
	}
	if n != 5 {
		t.Errorf("fallback size = %d, want cap 5", n)
	}
}

func TestClickPatternRingCap(t *testing.T) {
	cfg := config.Default()
	cfg.Session.ClickPatternCap = 5

	r, _ := newTestRecorder(nil, &Options{Config: cfg})
	for i := 0; i < 8; i++ {
		r.RecordLike("v1")
	}

	sc := r.RealtimeContext()
	if len(sc.ClickPattern) != 5 {
		t.Errorf("click pattern size = %d, want 5", len(sc.ClickPattern))
	}
}

func TestRealtimeContextSnapshot(t *testing.T) {
	r, clock := newTestRecorder(nil, nil)
	r.SetCurrentPage("detail")
	r.StartView("v1", &core.InteractionContext{Source: "homepage", Position: 2})
	clock.advance(90 * time.Second)
	r.RecordSearch(context.Background(), "suv under 4000", nil, 12)

	sc := r.RealtimeContext()
	if sc.CurrentPage != "detail" {
		t.Errorf("current page = %q", sc.CurrentPage)
	}
	if len(sc.ViewedVehicles) != 1 || sc.ViewedVehicles[0] != "v1" {
		t.Errorf("viewed = %v", sc.ViewedVehicles)
	}
	if len(sc.SearchQueries) != 1 || sc.SearchQueries[0] != "suv under 4000" {
		t.Errorf("queries = %v", sc.SearchQueries)
	}
	if sc.TimeSpent != 90 {
		t.Errorf("time spent = %d, want 90", sc.TimeSpent)
	}

	// mutating the snapshot must not leak back
	sc.ViewedVehicles[0] = "mutated"
	if r.RealtimeContext().ViewedVehicles[0] != "v1" {
		t.Error("snapshot aliases internal state")
	}
}

func TestCloseFinalizesOpenViewAndFlushes(t *testing.T) {
	sink := &stubSink{}
	r, clock := newTestRecorder(sink, nil)

	r.StartView("v1", nil)
	clock.advance(45 * time.Second)
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if len(sink.payloads) != 1 {
		t.Fatalf("deliveries = %d, want 1", len(sink.payloads))
	}
	it := sink.payloads[0].Interactions[0]
	if it.Duration != 45 || it.Confidence != 0.7 {
		t.Errorf("final view duration=%d confidence=%v", it.Duration, it.Confidence)
	}

	// Close is safe to call twice
	if err := r.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
