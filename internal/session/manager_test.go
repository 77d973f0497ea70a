package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/reportlens/backend/internal/models"
)

func TestManager_Lifecycle(t *testing.T) {
	m := NewManager()

	sess := m.Begin("report.png", 123)
	if sess.Status != models.SessionStatusAnalyzing {
		t.Errorf("expected analyzing, got %s", sess.Status)
	}

	m.Complete(sess.ID, &models.AnalysisResult{Success: true, Explanation: "E"})

	got, ok := m.Get(sess.ID)
	if !ok {
		t.Fatal("session vanished")
	}
	if got.Status != models.SessionStatusComplete {
		t.Errorf("expected complete, got %s", got.Status)
	}
	if got.Result == nil || got.Result.Explanation != "E" {
		t.Error("result not recorded")
	}
	if got.CompletedAt == nil {
		t.Error("completion time not recorded")
	}
}

func TestManager_Fail(t *testing.T) {
	m := NewManager()

	sess := m.Begin("report.png", 1)
	m.Fail(sess.ID, "boom")

	got, _ := m.Get(sess.ID)
	if got.Status != models.SessionStatusError {
		t.Errorf("expected error status, got %s", got.Status)
	}
	if got.Error != "boom" {
		t.Errorf("error = %q, want %q", got.Error, "boom")
	}
}

func TestManager_RecentOrdering(t *testing.T) {
	m := NewManager()

	first := m.Begin("first.png", 1)
	time.Sleep(time.Millisecond)
	second := m.Begin("second.png", 1)

	recent := m.Recent(10)
	if len(recent) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(recent))
	}
	if recent[0].ID != second.ID || recent[1].ID != first.ID {
		t.Error("expected newest first")
	}

	limited := m.Recent(1)
	if len(limited) != 1 || limited[0].ID != second.ID {
		t.Error("limit should keep the newest session")
	}
}

func TestManager_Cleanup(t *testing.T) {
	m := NewManager()

	old := m.Begin("old.png", 1)
	m.Complete(old.ID, &models.AnalysisResult{Success: true})
	// Backdate completion past the cutoff on the live record.
	past := time.Now().Add(-time.Hour)
	m.mu.Lock()
	m.sessions[old.ID].CompletedAt = &past
	m.mu.Unlock()

	inflight := m.Begin("inflight.png", 1)

	removed := m.CleanupOldSessions(30 * time.Minute)
	if removed != 1 {
		t.Errorf("expected 1 removal, got %d", removed)
	}
	if _, ok := m.Get(old.ID); ok {
		t.Error("old session should be gone")
	}
	if _, ok := m.Get(inflight.ID); !ok {
		t.Error("in-flight session must survive cleanup")
	}
}

func TestManager_SubscriberEvents(t *testing.T) {
	m := NewManager()
	events := m.Subscribe()
	defer m.Unsubscribe(events)

	sess := m.Begin("report.png", 1)
	m.Complete(sess.ID, &models.AnalysisResult{Success: true})

	ev := <-events
	if ev.Type != EventStarted || ev.Session.ID != sess.ID {
		t.Errorf("unexpected first event: %+v", ev)
	}

	ev = <-events
	if ev.Type != EventComplete {
		t.Errorf("expected complete event, got %s", ev.Type)
	}
}

func TestManager_SlowSubscriberDoesNotBlock(t *testing.T) {
	m := NewManager()
	events := m.Subscribe()
	defer m.Unsubscribe(events)

	// Overflow the buffer; publishes must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 64; i++ {
			m.Begin("report.png", 1)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestManager_EventsCarryCopies(t *testing.T) {
	m := NewManager()
	events := m.Subscribe()
	defer m.Unsubscribe(events)

	sess := m.Begin("report.png", 1)
	started := <-events

	m.Complete(sess.ID, &models.AnalysisResult{Success: true, Highlights: []string{"h"}})

	// The started event must still describe the in-flight session.
	if started.Session.Status != models.SessionStatusAnalyzing {
		t.Errorf("started event mutated after completion: %s", started.Session.Status)
	}

	// Mutating a returned session must not leak into the manager.
	got, _ := m.Get(sess.ID)
	got.Status = models.SessionStatusError
	got.Result.Highlights[0] = "changed"

	again, _ := m.Get(sess.ID)
	if again.Status != models.SessionStatusComplete {
		t.Errorf("caller mutation leaked into manager: %s", again.Status)
	}
	if again.Result.Highlights[0] != "h" {
		t.Errorf("caller mutation leaked into result: %q", again.Result.Highlights[0])
	}
}

func TestManager_ConcurrentMarshalAndFinish(t *testing.T) {
	m := NewManager()
	events := m.Subscribe()
	defer m.Unsubscribe(events)

	sess := m.Begin("report.png", 1)
	started := <-events

	// Marshal the received event while the session finishes, as the
	// websocket writer does. Races here show up under -race.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			if _, err := json.Marshal(started.Session); err != nil {
				t.Errorf("marshal: %v", err)
				return
			}
		}
	}()

	m.Complete(sess.ID, &models.AnalysisResult{Success: true, RawText: "text"})
	<-done
}
