package notify

import (
	"testing"
	"time"
)

func TestPushMovesCountdownToTail(t *testing.T) {
	q := NewQueue(time.Hour)
	defer q.Close()

	first := q.Info("a", "")
	second := q.Info("b", "")

	if q.hasArmedTimer(first.ID) {
		t.Fatal("old tail must be suspended")
	}
	if !q.hasArmedTimer(second.ID) {
		t.Fatal("new tail must count down")
	}
}

func TestRemoveTailReArmsNewTail(t *testing.T) {
	q := NewQueue(time.Hour)
	defer q.Close()

	first := q.Info("a", "")
	second := q.Info("b", "")

	if !q.Remove(second.ID) {
		t.Fatal("Remove() = false")
	}
	if !q.hasArmedTimer(first.ID) {
		t.Fatal("new tail must resume counting down")
	}
}

func TestRemoveMiddleLeavesTimerOnTail(t *testing.T) {
	q := NewQueue(time.Hour)
	defer q.Close()

	q.Info("a", "")
	middle := q.Info("b", "")
	tail := q.Info("c", "")

	q.Remove(middle.ID)
	if !q.hasArmedTimer(tail.ID) {
		t.Fatal("tail countdown must be untouched")
	}
	if q.Len() != 2 {
		t.Fatalf("len=%d", q.Len())
	}
}

func TestRemoveUnknownID(t *testing.T) {
	q := NewQueue(time.Hour)
	defer q.Close()
	q.Info("a", "")

	if q.Remove("missing") {
		t.Fatal("Remove() must report unknown ids")
	}
	if q.Len() != 1 {
		t.Fatalf("len=%d", q.Len())
	}
}

func TestTailExpiresAndHandsOff(t *testing.T) {
	q := NewQueue(20 * time.Millisecond)
	defer q.Close()

	first := q.Error("a", "")
	q.Error("b", "")

	// Only the tail counts down; after one TTL the tail is gone and the
	// first toast's countdown has restarted.
	deadline := time.After(time.Second)
	for q.Len() != 1 {
		select {
		case <-deadline:
			t.Fatalf("len=%d, tail never expired", q.Len())
		case <-time.After(5 * time.Millisecond):
		}
	}
	if got := q.Toasts(); len(got) != 1 || got[0].ID != first.ID {
		t.Fatalf("toasts = %+v, want the first toast surviving", got)
	}
	if !q.hasArmedTimer(first.ID) {
		t.Fatal("surviving toast must take over the countdown")
	}

	for q.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("queue never drained")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestLevelsAndOrder(t *testing.T) {
	q := NewQueue(time.Hour)
	defer q.Close()

	q.Success("s", "1")
	q.Warning("w", "2")

	got := q.Toasts()
	if len(got) != 2 || got[0].Level != LevelSuccess || got[1].Level != LevelWarning {
		t.Fatalf("toasts = %+v", got)
	}
	if got[0].ID == got[1].ID || got[0].ID == "" {
		t.Fatal("toast ids must be unique and non-empty")
	}
}
