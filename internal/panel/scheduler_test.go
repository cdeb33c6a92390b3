package panel

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type renderLog struct {
	mu    sync.Mutex
	calls []string
}

func (r *renderLog) render(_ context.Context, target string) {
	r.mu.Lock()
	r.calls = append(r.calls, target)
	r.mu.Unlock()
}

func (r *renderLog) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func startScheduler(t *testing.T, delay time.Duration) (*Scheduler, *renderLog) {
	t.Helper()
	log := &renderLog{}
	s := NewScheduler(delay, log.render, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return s, log
}

func TestScheduler_OpenRendersAfterDelay(t *testing.T) {
	s, log := startScheduler(t, 50*time.Millisecond)

	s.Open("note.md")
	assert.Empty(t, log.snapshot(), "render must wait for the settle delay")

	assert.Eventually(t, func() bool {
		return len(log.snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"note.md"}, log.snapshot())
}

func TestScheduler_CoalescesBurst(t *testing.T) {
	s, log := startScheduler(t, 80*time.Millisecond)

	s.Open("note.md")
	for i := 0; i < 5; i++ {
		s.Trigger(TriggerLinksResolved, "")
		s.Trigger(TriggerActiveLeafChange, "note.md")
	}

	assert.Eventually(t, func() bool {
		return len(log.snapshot()) >= 1
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, []string{"note.md"}, log.snapshot())
}

func TestScheduler_GlobalTriggerRendersAllOpenViews(t *testing.T) {
	s, log := startScheduler(t, 30*time.Millisecond)

	s.Open("b.md")
	s.Open("a.md")
	assert.Eventually(t, func() bool {
		return len(log.snapshot()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	s.Trigger(TriggerLayoutChange, "")
	assert.Eventually(t, func() bool {
		return len(log.snapshot()) == 4
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"a.md", "b.md", "a.md", "b.md"}, log.snapshot())
}

func TestScheduler_ClosedViewNotRendered(t *testing.T) {
	s, log := startScheduler(t, 50*time.Millisecond)

	s.Open("gone.md")
	s.Close("gone.md")
	s.Trigger(TriggerActiveLeafChange, "never-opened.md")

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, log.snapshot())
	assert.Empty(t, s.OpenTargets(context.Background()))
}

func TestScheduler_RefcountedViews(t *testing.T) {
	s, _ := startScheduler(t, time.Hour)

	s.Open("x.md")
	s.Open("x.md")
	s.Close("x.md")
	assert.Equal(t, []string{"x.md"}, s.OpenTargets(context.Background()))

	s.Close("x.md")
	assert.Empty(t, s.OpenTargets(context.Background()))
}
