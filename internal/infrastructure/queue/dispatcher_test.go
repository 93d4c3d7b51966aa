package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/partnerdesk/console/internal/core/ports"
)

// ─── Stubs ────────────────────────────────────────────────────────────────────

type recordingMirror struct {
	mu     sync.Mutex
	seen   []ports.BrandingSavedEvent
	block  chan struct{}
	err    error
	called chan struct{}
}

func newRecordingMirror() *recordingMirror {
	return &recordingMirror{called: make(chan struct{}, 1024)}
}

func (m *recordingMirror) Process(ctx context.Context, ev ports.BrandingSavedEvent) error {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.Lock()
	m.seen = append(m.seen, ev)
	m.mu.Unlock()
	m.called <- struct{}{}
	return m.err
}

func (m *recordingMirror) events() []ports.BrandingSavedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.BrandingSavedEvent(nil), m.seen...)
}

func waitCalls(t *testing.T, m *recordingMirror, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-m.called:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d of %d mirror calls", i, n)
		}
	}
}

// ─── Tests ────────────────────────────────────────────────────────────────────

func TestDispatcher_PreservesOrderPerPartner(t *testing.T) {
	m := newRecordingMirror()
	d := NewDispatcher(4, m, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	for i := 0; i < 10; i++ {
		d.Enqueue(ports.BrandingSavedEvent{PartnerID: "partner-1", SavedBy: string(rune('a' + i))})
	}
	waitCalls(t, m, 10)
	cancel()
	d.Wait()

	got := m.events()
	for i, ev := range got {
		if want := string(rune('a' + i)); ev.SavedBy != want {
			t.Fatalf("event %d saved_by = %q, want %q", i, ev.SavedBy, want)
		}
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, newRecordingMirror(), zerolog.Nop())

	first := d.shardIndex("partner-42")
	for i := 0; i < 5; i++ {
		if got := d.shardIndex("partner-42"); got != first {
			t.Fatalf("shardIndex changed: %d vs %d", got, first)
		}
	}
	if first < 0 || first >= 8 {
		t.Errorf("shardIndex out of range: %d", first)
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	m := newRecordingMirror()
	m.block = make(chan struct{})
	d := NewDispatcher(1, m, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	done := make(chan struct{})
	go func() {
		// one job in flight plus a full buffer, then overflow
		for i := 0; i < channelBuffer+10; i++ {
			d.Enqueue(ports.BrandingSavedEvent{PartnerID: "partner-1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked on a full worker")
	}
	close(m.block)
}

func TestDispatcher_ErrorsDoNotStopWorker(t *testing.T) {
	m := newRecordingMirror()
	m.err = errors.New("license table locked")
	d := NewDispatcher(1, m, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	d.Enqueue(ports.BrandingSavedEvent{PartnerID: "p1"})
	d.Enqueue(ports.BrandingSavedEvent{PartnerID: "p2"})
	waitCalls(t, m, 2)

	cancel()
	d.Wait()
}

func TestNewDispatcher_DefaultWorkers(t *testing.T) {
	d := NewDispatcher(0, newRecordingMirror(), zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Errorf("workers = %d, want %d", len(d.workers), defaultWorkers)
	}
}
