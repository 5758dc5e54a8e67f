package watcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"whatsapp-agent/internal/agent"
	"whatsapp-agent/internal/config"
	"whatsapp-agent/internal/conversation"
	"whatsapp-agent/internal/models"
)

func setupTestRuntime(t *testing.T, now *time.Time) *agent.Runtime {
	t.Helper()

	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return *now
	}

	r := agent.NewRuntime(conversation.WithClock(clock))
	r.ApplyAccount(&config.DefaultAccountsFile().Accounts[0])
	r.SetActive(true)
	return r
}

func TestIdleWatcher_Disabled(t *testing.T) {
	now := time.Now()
	r := setupTestRuntime(t, &now)
	w := NewIdleWatcher(r.Directory(), 0, time.Millisecond)

	if w.Enabled() {
		t.Error("expected watcher to be disabled")
	}
	w.Start(context.Background())
	if w.Running() {
		t.Error("disabled watcher should not start")
	}
	if n := w.Check(context.Background()); n != 0 {
		t.Errorf("expected 0 ended, got %d", n)
	}
}

func TestIdleWatcher_CheckEndsIdleConversations(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	r := setupTestRuntime(t, &now)
	ctx := context.Background()

	if _, err := r.ProcessTestMessage(ctx, "+15550000001", "hello"); err != nil {
		t.Fatalf("ProcessTestMessage failed: %v", err)
	}

	w := NewIdleWatcher(r.Directory(), 10*time.Minute, time.Minute)
	w.now = func() time.Time { return now.Add(5 * time.Minute) }

	if n := w.Check(ctx); n != 0 {
		t.Errorf("conversation is not idle yet, ended %d", n)
	}

	w.now = func() time.Time { return now.Add(11 * time.Minute) }
	if n := w.Check(ctx); n != 1 {
		t.Fatalf("expected 1 ended, got %d", n)
	}

	if _, ok := r.Directory().FindActiveByPhone("+15550000001"); ok {
		t.Error("idle conversation should be completed")
	}

	list := r.Directory().List()
	if len(list) != 1 || list[0].Status != models.StatusCompleted {
		t.Errorf("unexpected conversations %+v", list)
	}
	if len(r.Notifier().Outbox()) != 1 {
		t.Errorf("expected transcript email, got %d", len(r.Notifier().Outbox()))
	}

	if n := w.Check(ctx); n != 0 {
		t.Errorf("completed conversations are not ended twice, ended %d", n)
	}
}

func TestIdleWatcher_StartStop(t *testing.T) {
	now := time.Now().Add(-time.Hour)
	r := setupTestRuntime(t, &now)

	if _, err := r.ProcessTestMessage(context.Background(), "+15550000002", "hello"); err != nil {
		t.Fatalf("ProcessTestMessage failed: %v", err)
	}

	w := NewIdleWatcher(r.Directory(), time.Minute, 10*time.Millisecond)
	w.Start(context.Background())
	w.Start(context.Background())
	if !w.Running() {
		t.Fatal("expected watcher to be running")
	}

	deadline := time.After(2 * time.Second)
	for {
		if _, ok := r.Directory().FindActiveByPhone("+15550000002"); !ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for idle conversation to end")
		case <-time.After(5 * time.Millisecond):
		}
	}

	w.Stop()
	w.Stop()
	if w.Running() {
		t.Error("expected watcher to be stopped")
	}
}
