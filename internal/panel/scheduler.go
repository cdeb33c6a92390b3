package panel

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Trigger names the host event that asked for a re-render.
type Trigger string

// Triggers understood by the Scheduler.
const (
	TriggerFileOpen         Trigger = "file-open"
	TriggerActiveLeafChange Trigger = "active-leaf-change"
	TriggerLinksResolved    Trigger = "resolved"
	TriggerLayoutChange     Trigger = "layout-change"
)

// RenderFunc recomputes and publishes the panel for target. It must fully
// replace whatever was rendered for target before.
type RenderFunc func(ctx context.Context, target string)

type triggerReq struct {
	trigger Trigger
	target  string
}

// Scheduler decides when open panels are recomputed.
//
// Triggers mark targets pending and (re)arm a single settle timer; when the
// timer fires every pending target that still has an open view is rendered,
// one after another. The settle delay gives the link index time to catch up
// with the edit that caused the trigger. Like the SSE broker, all mutable
// state is owned by the Run loop.
type Scheduler struct {
	delay  time.Duration
	render RenderFunc
	logger *slog.Logger

	// Unbuffered: Open and Close take effect in call order.
	openCh    chan string
	closeCh   chan string
	triggerCh chan triggerReq
	openReqCh chan chan []string
	done      chan struct{}
}

// NewScheduler creates a Scheduler; call Run to start it.
func NewScheduler(delay time.Duration, render RenderFunc, logger *slog.Logger) *Scheduler {
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	return &Scheduler{
		delay:     delay,
		render:    render,
		logger:    logger,
		openCh:    make(chan string),
		closeCh:   make(chan string),
		triggerCh: make(chan triggerReq, 256),
		openReqCh: make(chan chan []string),
		done:      make(chan struct{}),
	}
}

// Open registers a view on target and schedules its first render.
func (s *Scheduler) Open(target string) {
	select {
	case s.openCh <- target:
	case <-s.done:
	}
}

// Close releases a view previously registered with Open.
func (s *Scheduler) Close(target string) {
	select {
	case s.closeCh <- target:
	case <-s.done:
	}
}

// Trigger schedules a re-render of target, or of every open view when
// target is empty.
func (s *Scheduler) Trigger(t Trigger, target string) {
	select {
	case s.triggerCh <- triggerReq{trigger: t, target: target}:
	case <-s.done:
	}
}

// OpenTargets returns the targets that currently have at least one view.
func (s *Scheduler) OpenTargets(ctx context.Context) []string {
	resp := make(chan []string, 1)
	select {
	case s.openReqCh <- resp:
	case <-ctx.Done():
		return nil
	case <-s.done:
		return nil
	}
	select {
	case out := <-resp:
		return out
	case <-ctx.Done():
		return nil
	}
}

// Run processes view and trigger events until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	defer close(s.done)

	views := make(map[string]int)
	pending := make(map[string]struct{})

	timer := time.NewTimer(s.delay)
	timer.Stop()

	mark := func(req triggerReq) {
		if req.target == "" {
			for t := range views {
				pending[t] = struct{}{}
			}
		} else {
			pending[req.target] = struct{}{}
		}
		timer.Reset(s.delay)
		s.logger.Debug("panel: trigger",
			slog.String("trigger", string(req.trigger)),
			slog.String("target", req.target))
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case target := <-s.openCh:
			views[target]++
			mark(triggerReq{trigger: TriggerFileOpen, target: target})

		case target := <-s.closeCh:
			if views[target] <= 1 {
				delete(views, target)
			} else {
				views[target]--
			}

		case req := <-s.triggerCh:
			mark(req)

		case resp := <-s.openReqCh:
			out := make([]string, 0, len(views))
			for t := range views {
				out = append(out, t)
			}
			sort.Strings(out)
			resp <- out

		case <-timer.C:
			targets := make([]string, 0, len(pending))
			for t := range pending {
				if _, open := views[t]; open {
					targets = append(targets, t)
				}
			}
			pending = make(map[string]struct{})
			sort.Strings(targets)

			pass := uuid.NewString()
			for _, t := range targets {
				start := time.Now()
				s.render(ctx, t)
				s.logger.Debug("panel: rendered",
					slog.String("render_id", pass),
					slog.String("target", t),
					slog.Duration("took", time.Since(start)))
			}
		}
	}
}
