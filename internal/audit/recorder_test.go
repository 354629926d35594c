package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/solarpool-core/internal/infrastructure/logging"
)

// memorySink collects written events.
type memorySink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (m *memorySink) Write(_ context.Context, ev *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, *ev)
	return nil
}

func (m *memorySink) snapshot() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

func TestRecorder_FansOutToAllSinks(t *testing.T) {
	a, b := &memorySink{}, &memorySink{}
	r := NewRecorder(RecorderOptions{Logger: logging.Discard().Logger}, a, nil, b)
	r.Start(context.Background())

	r.Record(Event{Action: ActionLogin, Actor: "op"})
	r.Record(Event{Action: ActionLogout, Actor: "op"})
	r.Stop()

	for name, sink := range map[string]*memorySink{"a": a, "b": b} {
		got := sink.snapshot()
		if len(got) != 2 {
			t.Fatalf("sink %s got %d events, want 2", name, len(got))
		}
		if got[0].Action != ActionLogin || got[1].Action != ActionLogout {
			t.Errorf("sink %s order = %s, %s", name, got[0].Action, got[1].Action)
		}
		if got[0].ID == "" || got[0].CreatedAt.IsZero() {
			t.Errorf("sink %s event missing generated fields: %+v", name, got[0])
		}
	}

	if a.snapshot()[0].ID != b.snapshot()[0].ID {
		t.Error("every sink should see the same event ID")
	}
}

func TestRecorder_FailingSinkDoesNotBlockOthers(t *testing.T) {
	bad := &memorySink{err: errors.New("broker down")}
	good := &memorySink{}
	r := NewRecorder(RecorderOptions{Logger: logging.Discard().Logger}, bad, good)
	r.Start(context.Background())

	r.Record(Event{Action: ActionReboot})
	r.Stop()

	if len(good.snapshot()) != 1 {
		t.Error("healthy sink should still receive the event")
	}
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	sink := &memorySink{}
	r := NewRecorder(RecorderOptions{QueueSize: 2, Logger: logging.Discard().Logger}, sink)

	// Not started, so nothing drains the queue.
	for range 5 {
		r.Record(Event{Action: ActionLoginFailed})
	}

	r.Start(context.Background())
	r.Stop()

	if got := len(sink.snapshot()); got != 2 {
		t.Errorf("written = %d, want 2 (queue size)", got)
	}
}

func TestRecorder_IgnoresRecordAfterStop(t *testing.T) {
	sink := &memorySink{}
	r := NewRecorder(RecorderOptions{Logger: logging.Discard().Logger}, sink)
	r.Start(context.Background())
	r.Stop()
	r.Stop() // idempotent

	r.Record(Event{Action: ActionLogin})

	if got := len(sink.snapshot()); got != 0 {
		t.Errorf("written = %d, want 0 after Stop", got)
	}
}

func TestRecorder_OutlivesStartContext(t *testing.T) {
	sink := &memorySink{}
	r := NewRecorder(RecorderOptions{Logger: logging.Discard().Logger}, sink)

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)
	cancel()
	time.Sleep(20 * time.Millisecond)

	r.Record(Event{Action: ActionLogout})
	r.Stop()

	if got := len(sink.snapshot()); got != 1 {
		t.Errorf("written = %d, want 1 after the start context ended", got)
	}
}

func TestRecorder_InjectedClock(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sink := &memorySink{}
	r := NewRecorder(RecorderOptions{
		Logger: logging.Discard().Logger,
		Now:    func() time.Time { return at },
	}, sink)
	r.Start(context.Background())

	r.Record(Event{Action: ActionFactoryReset})
	r.Stop()

	got := sink.snapshot()
	if len(got) != 1 || !got[0].CreatedAt.Equal(at) {
		t.Errorf("events = %+v, want one stamped %v", got, at)
	}
}

func TestRecorder_WritesToSQLite(t *testing.T) {
	repo := NewSQLiteRepository(testDB(t).DB)
	r := NewRecorder(RecorderOptions{Logger: logging.Discard().Logger}, repo)
	r.Start(context.Background())

	r.Record(Event{Action: ActionPasswordChange, Actor: "op"})
	r.Stop()

	got, err := repo.List(context.Background(), Filter{Action: ActionPasswordChange})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if got.Total != 1 {
		t.Errorf("Total = %d, want 1", got.Total)
	}
}

func TestSinkFunc(t *testing.T) {
	var seen string
	s := SinkFunc(func(_ context.Context, ev *Event) error {
		seen = ev.Action
		return nil
	})
	if err := s.Write(context.Background(), &Event{Action: ActionWiFiSave}); err != nil {
		t.Fatal(err)
	}
	if seen != ActionWiFiSave {
		t.Errorf("seen = %q, want %q", seen, ActionWiFiSave)
	}
}
