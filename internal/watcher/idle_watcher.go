package watcher

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// ConversationCloser is the part of the conversation directory the watcher needs
type ConversationCloser interface {
	IdleSince(cutoff time.Time) []string
	EndConversation(ctx context.Context, conversationID string) (string, error)
}

// IdleWatcher periodically ends active conversations that have been idle longer than a timeout
type IdleWatcher struct {
	closer   ConversationCloser
	timeout  time.Duration
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewIdleWatcher creates a watcher. A zero or negative timeout disables it.
func NewIdleWatcher(closer ConversationCloser, timeout, interval time.Duration) *IdleWatcher {
	if interval <= 0 {
		interval = time.Minute
	}
	return &IdleWatcher{
		closer:   closer,
		timeout:  timeout,
		interval: interval,
		now:      time.Now,
	}
}

// Enabled reports whether the watcher has a timeout
func (w *IdleWatcher) Enabled() bool {
	return w.timeout > 0
}

// Start begins the check loop. It does nothing when disabled or already running.
func (w *IdleWatcher) Start(parentCtx context.Context) {
	if !w.Enabled() {
		log.Printf("[Watcher] Idle watcher disabled")
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}

	ctx, cancel := context.WithCancel(parentCtx)
	w.cancel = cancel
	w.running = true

	w.wg.Add(1)
	go w.run(ctx)
}

// Stop stops the check loop and waits for it to finish
func (w *IdleWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.cancel()
	w.running = false
	w.mu.Unlock()

	w.wg.Wait()
}

// Running reports whether the check loop is active
func (w *IdleWatcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *IdleWatcher) run(ctx context.Context) {
	defer w.wg.Done()

	log.Printf("[Watcher] Started timeout=%v interval=%v", w.timeout, w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[Watcher] Stopped")
			return
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}

// Check ends every conversation idle past the timeout and returns how many were ended
func (w *IdleWatcher) Check(ctx context.Context) int {
	if !w.Enabled() {
		return 0
	}

	ids := w.closer.IdleSince(w.now().Add(-w.timeout))
	ended := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		if _, err := w.closer.EndConversation(ctx, id); err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Printf("[Watcher] Failed to end idle conversation conversation_id=%s err=%v", id, err)
			}
			continue
		}
		ended++
		log.Printf("[Watcher] Idle conversation ended conversation_id=%s", id)
	}

	if len(ids) > 0 {
		log.Printf("[Watcher] Check completed idle=%d ended=%d", len(ids), ended)
	}
	return ended
}
