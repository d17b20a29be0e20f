// Package dispatch – the scheduled dispatcher.
//
// Two dispatch patterns are supported. Queue-driven: every scheduled queue
// item whose time has come gets one publish attempt, with success and
// failure written back through the queue service's transition methods.
// Sequence-driven: the recurring tip feed publishes strictly its first
// unposted entry, so the daily job can be re-run at will: a failure leaves
// the feed untouched and the same tip is retried next time, and an
// exhausted feed is a reported no-op.
//
// Failures are isolated per item: one platform rejecting a post never
// aborts the rest of the batch. Every attempt lands in the rolling dispatch
// log document for diagnosis.
package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/courtlab/go-publish-backend/internal/domain"
	"github.com/courtlab/go-publish-backend/internal/publish"
	"github.com/courtlab/go-publish-backend/internal/repo"
	"github.com/courtlab/go-publish-backend/internal/services"
)

// Result is the outcome of one publish attempt within a run.
type Result struct {
	PostID   string          `json:"postId"`
	Platform domain.Platform `json:"platform"`
	Success  bool            `json:"success"`
	URL      string          `json:"url,omitempty"`
	Error    string          `json:"error,omitempty"`
	DryRun   bool            `json:"dryRun,omitempty"`
}

// RunSummary aggregates one queue-driven dispatch run.
type RunSummary struct {
	Posted  int      `json:"posted"`
	Failed  int      `json:"failed"`
	Results []Result `json:"results"`
}

// TipOutcome reports one sequence-driven run. Number is 0 when the feed had
// nothing left to do.
type TipOutcome struct {
	Number    int    `json:"number,omitempty"`
	Title     string `json:"title,omitempty"`
	Posted    bool   `json:"posted"`
	Error     string `json:"error,omitempty"`
	Remaining int    `json:"remaining"`
	Total     int    `json:"total"`
}

// Dispatcher coordinates publish attempts across the queue and the tip feed.
type Dispatcher struct {
	Queue      *services.QueueService
	Tips       *services.TipService
	Publishers publish.Registry
	Store      *repo.Store

	// DryRun reports would-post results without calling any platform or
	// mutating any collection. It is an explicit configuration flag, on by
	// default; flipping to live posting is a deliberate operator action.
	DryRun bool
	// Timeout bounds each outbound publish call so a slow platform cannot
	// hang a run. A timed-out call is a retryable failure.
	Timeout time.Duration

	Log zerolog.Logger
	// Now returns the current time; overridable in tests.
	Now func() time.Time
}

// New constructs a Dispatcher with the given collaborators.
func New(queue *services.QueueService, tips *services.TipService, pubs publish.Registry, store *repo.Store, dryRun bool, timeout time.Duration, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		Queue:      queue,
		Tips:       tips,
		Publishers: pubs,
		Store:      store,
		DryRun:     dryRun,
		Timeout:    timeout,
		Log:        log,
		Now:        time.Now,
	}
}

// RunQueue attempts to publish due scheduled items. When postID is non-empty
// only that item is dispatched (it must exist and be scheduled); otherwise
// every scheduled item whose scheduledTime is at or before now is attempted.
// dryRunOverride forces a dry run for this invocation regardless of the
// dispatcher-wide flag.
func (d *Dispatcher) RunQueue(ctx context.Context, postID string, dryRunOverride bool) (*RunSummary, error) {
	now := d.Now().UTC()

	var batch []domain.Post
	if postID != "" {
		post, err := d.Queue.Get(ctx, postID)
		if err != nil {
			return nil, err
		}
		if post.Status != domain.StatusScheduled {
			return nil, &domain.InvalidTransitionError{From: post.Status, Action: domain.ActionDispatchOK}
		}
		batch = []domain.Post{*post}
	} else {
		due, err := d.Queue.DueScheduled(ctx, now)
		if err != nil {
			return nil, err
		}
		batch = due
	}

	dryRun := d.DryRun || dryRunOverride
	summary := &RunSummary{Results: make([]Result, 0, len(batch))}

	for _, post := range batch {
		res := d.attempt(ctx, post, dryRun)
		if res.Success {
			summary.Posted++
		} else {
			summary.Failed++
		}
		summary.Results = append(summary.Results, res)

		if dryRun {
			continue
		}
		d.record(res)
	}
	return summary, nil
}

// attempt publishes one post and applies the matching transition. Dry runs
// touch nothing and report success as "would post".
func (d *Dispatcher) attempt(ctx context.Context, post domain.Post, dryRun bool) Result {
	res := Result{PostID: post.ID, Platform: post.Platform, DryRun: dryRun}

	if dryRun {
		res.Success = true
		return res
	}

	pub, err := d.Publishers.For(post.Platform)
	if err != nil {
		res.Error = err.Error()
		d.fail(ctx, &res, err.Error())
		return res
	}

	callCtx, cancel := context.WithTimeout(ctx, d.Timeout)
	start := time.Now()
	out, err := pub.Publish(callCtx, publish.Content{
		Kind:      post.Kind,
		Caption:   post.Caption,
		MediaURLs: post.MediaURLs,
		Hashtags:  post.Hashtags,
		Link:      post.Link,
	})
	cancel()
	publishDuration.WithLabelValues(string(post.Platform)).Observe(time.Since(start).Seconds())

	if err != nil {
		msg := err.Error()
		var pe *publish.PublishError
		if errors.As(err, &pe) {
			msg = pe.Message
		}
		d.fail(ctx, &res, msg)
		return res
	}

	if _, err := d.Queue.MarkPosted(ctx, post.ID, out.PlatformPostID, out.PlatformURL); err != nil {
		// The platform accepted the post but the transition could not be
		// recorded; surface it as a failure so the operator investigates.
		d.Log.Error().Err(err).Str("post_id", post.ID).Msg("publish succeeded but state update failed")
		res.Error = err.Error()
		publishTotal.WithLabelValues(string(post.Platform), "error").Inc()
		return res
	}

	res.Success = true
	res.URL = out.PlatformURL
	publishTotal.WithLabelValues(string(post.Platform), "success").Inc()
	d.Log.Info().Str("post_id", post.ID).Str("platform", string(post.Platform)).Str("url", out.PlatformURL).Msg("post published")
	return res
}

// fail records a publish failure on the item and in the metrics; the item
// stays scheduled and retryable.
func (d *Dispatcher) fail(ctx context.Context, res *Result, msg string) {
	res.Error = msg
	publishTotal.WithLabelValues(string(res.Platform), "failure").Inc()
	if _, err := d.Queue.MarkFailed(ctx, res.PostID, msg); err != nil {
		d.Log.Error().Err(err).Str("post_id", res.PostID).Msg("could not record publish failure")
	}
	d.Log.Warn().Str("post_id", res.PostID).Str("platform", string(res.Platform)).Str("error", msg).Msg("publish failed")
}

// record appends one attempt to the rolling dispatch log. Log failures are
// diagnostic-only and never fail the run.
func (d *Dispatcher) record(res Result) {
	rec := domain.DispatchRecord{
		Timestamp: d.Now().UTC(),
		PostID:    res.PostID,
		Platform:  res.Platform,
		Success:   res.Success,
		URL:       res.URL,
		Error:     res.Error,
		DryRun:    res.DryRun,
	}
	if err := repo.AppendLog(d.Store, rec); err != nil {
		d.Log.Warn().Err(err).Msg("could not append dispatch log")
	}
}

// RunFeed publishes the next unposted tip to twitter. The feed is consumed
// strictly in stored order; a failure leaves it unchanged so the same tip is
// retried next run, and an exhausted feed reports "nothing to do" without
// erroring.
func (d *Dispatcher) RunFeed(ctx context.Context) (*TipOutcome, error) {
	tip, err := d.Tips.NextUnposted(ctx)
	if err != nil {
		return nil, err
	}

	out := &TipOutcome{}
	defer func() {
		if unposted, total, err := d.Tips.Remaining(ctx); err == nil {
			out.Remaining, out.Total = unposted, total
		}
	}()

	if tip == nil {
		d.Log.Info().Msg("tip feed exhausted, nothing to publish")
		return out, nil
	}
	out.Number = tip.Number
	out.Title = tip.Title

	if d.DryRun {
		d.Log.Info().Int("tip", tip.Number).Msg("dry run, tip left unposted")
		return out, nil
	}

	pub, err := d.Publishers.For(domain.PlatformTwitter)
	if err != nil {
		out.Error = err.Error()
		return out, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()
	if _, err := pub.Publish(callCtx, publish.Content{Kind: domain.KindFeed, Caption: tip.Content}); err != nil {
		msg := err.Error()
		var pe *publish.PublishError
		if errors.As(err, &pe) {
			msg = pe.Message
		}
		out.Error = msg
		publishTotal.WithLabelValues(string(domain.PlatformTwitter), "failure").Inc()
		d.Log.Warn().Int("tip", tip.Number).Str("error", msg).Msg("tip publish failed, feed unchanged")
		return out, nil
	}

	if err := d.Tips.MarkPosted(ctx, tip.Number); err != nil {
		out.Error = err.Error()
		return out, nil
	}
	out.Posted = true
	publishTotal.WithLabelValues(string(domain.PlatformTwitter), "success").Inc()
	d.Log.Info().Int("tip", tip.Number).Str("title", tip.Title).Msg("tip published")
	return out, nil
}

// Loop runs queue and feed dispatch on a fixed interval until the context is
// canceled. Errors are logged and the loop keeps going; one bad run must not
// stop the schedule.
func (d *Dispatcher) Loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.Log.Info().Dur("interval", interval).Bool("dry_run", d.DryRun).Msg("dispatch loop started")
	for {
		select {
		case <-ctx.Done():
			d.Log.Info().Msg("dispatch loop stopped")
			return
		case <-ticker.C:
			if summary, err := d.RunQueue(ctx, "", false); err != nil {
				d.Log.Error().Err(err).Msg("queue dispatch run failed")
			} else if len(summary.Results) > 0 {
				d.Log.Info().Int("posted", summary.Posted).Int("failed", summary.Failed).Msg("queue dispatch run complete")
			}
			if _, err := d.RunFeed(ctx); err != nil {
				d.Log.Error().Err(err).Msg("feed dispatch run failed")
			}
		}
	}
}
