// Package pipeline runs the parse-validate-reconcile sequence as one
// cancelable unit of work. It is strictly sequential inside; the whole
// run is meant to execute off the caller's main flow, with the result
// handed over through a deliver-once listener.
package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/openconf/schedtrack/pkg/logging"
	"github.com/openconf/schedtrack/pkg/metrics"
	"github.com/openconf/schedtrack/pkg/schedule"
	"github.com/openconf/schedtrack/pkg/schedule/reconcile"
	"github.com/openconf/schedtrack/pkg/schedule/store"
	"github.com/openconf/schedtrack/pkg/schedule/validate"
)

// Listener receives the outcome of a pipeline run. On success
// OnScheduleUpdate fires first with the reconciled schedule, then
// OnParseDone; on failure only OnParseDone fires, still carrying the
// version string gathered before the failure. A canceled run notifies
// nothing.
type Listener interface {
	OnScheduleUpdate(sessions []*schedule.Session, meta schedule.Meta)
	OnParseDone(ok bool, version string)
}

// Outcome is the result of one pipeline run.
type Outcome struct {
	OK       bool
	Version  string
	Sessions []*schedule.Session
	Meta     schedule.Meta
	Changed  bool
	Issues   []validate.Issue
	Err      error
}

// ChangeCounts tallies the reconciliation result by kind.
type ChangeCounts struct {
	New      int
	Canceled int
	Updated  int
}

// Counts summarizes the change flags across the outcome's sessions.
func (o *Outcome) Counts() ChangeCounts {
	var c ChangeCounts
	for _, s := range o.Sessions {
		switch {
		case s.Changes.New:
			c.New++
		case s.Changes.Canceled:
			c.Canceled++
		case s.Changes.Any():
			c.Updated++
		}
	}
	return c
}

// Runner executes pipeline runs and delivers their outcome exactly once
// to an optionally late-attached listener.
type Runner struct {
	logger  logging.Logger
	store   store.SessionStore
	prefs   store.PrefStore
	metrics *metrics.Metrics

	mu        sync.Mutex
	listener  Listener
	outcome   *Outcome
	delivered bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics attaches Prometheus instrumentation to the runner.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner creates a pipeline runner. The session store is only read;
// persisting the reconciled schedule stays the caller's decision.
func NewRunner(sessions store.SessionStore, prefs store.PrefStore, logger logging.Logger, opts ...Option) *Runner {
	r := &Runner{
		logger: logger.With(logging.F("component", "pipeline")),
		store:  sessions,
		prefs:  prefs,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetListener attaches the listener. If a run has already completed,
// its outcome is delivered immediately; either way each outcome is
// delivered at most once.
func (r *Runner) SetListener(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listener = l
	r.deliverLocked()
}

// Run parses document, validates the result, reconciles it against the
// stored schedule, and clears the "changes seen" preference when
// anything changed. etag is attached to the metadata verbatim.
//
// A canceled ctx aborts promptly with ctx.Err(); nothing is delivered
// to the listener and no preference is touched. Parse failures produce
// an Outcome with OK false and the attempted version string.
func (r *Runner) Run(ctx context.Context, document, etag string) (*Outcome, error) {
	sessions, meta, err := schedule.Parse(ctx, document, etag)
	if canceled(ctx, err) {
		r.count(metrics.OutcomeCanceled)
		return nil, ctx.Err()
	}
	if err != nil {
		r.count(parseOutcome(err))
		r.logger.Error("Schedule parse failed",
			logging.Err(err),
			logging.F("version", meta.Version))
		outcome := &Outcome{Version: meta.Version, Err: err}
		r.complete(outcome)
		return outcome, err
	}

	issues := validate.Validate(sessions)
	for _, issue := range issues {
		r.logger.Warn("Schedule validation issue",
			logging.F("session", issue.SessionID),
			logging.F("field", issue.Field),
			logging.F("detail", issue.Message))
	}

	prior, err := r.store.LoadAll(ctx)
	if err != nil {
		// Best effort: with no prior schedule every session simply
		// parses as-is and nothing is flagged.
		r.logger.Warn("Could not load stored schedule", logging.Err(err))
		prior = nil
	}

	sessions, changed := reconcile.Apply(sessions, prior)
	if err := ctx.Err(); err != nil {
		r.count(metrics.OutcomeCanceled)
		return nil, err
	}

	if changed {
		if err := r.prefs.SetChangesSeen(ctx, false); err != nil {
			r.logger.Error("Could not flag unseen changes", logging.Err(err))
		}
	}

	outcome := &Outcome{
		OK:       true,
		Version:  meta.Version,
		Sessions: sessions,
		Meta:     meta,
		Changed:  changed,
		Issues:   issues,
	}

	r.count(metrics.OutcomeSuccess)
	if r.metrics != nil {
		r.metrics.SessionsParsed.Add(float64(len(sessions)))
		counts := outcome.Counts()
		r.metrics.ChangesDetected.WithLabelValues(metrics.ChangeNew).Add(float64(counts.New))
		r.metrics.ChangesDetected.WithLabelValues(metrics.ChangeCanceled).Add(float64(counts.Canceled))
		r.metrics.ChangesDetected.WithLabelValues(metrics.ChangeUpdated).Add(float64(counts.Updated))
	}

	r.logger.Info("Schedule parsed",
		logging.F("version", meta.Version),
		logging.F("sessions", len(sessions)),
		logging.F("days", meta.NumDays),
		logging.F("changed", changed))

	r.complete(outcome)
	return outcome, nil
}

// complete records the outcome and delivers it if a listener is
// already attached.
func (r *Runner) complete(outcome *Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcome = outcome
	r.delivered = false
	r.deliverLocked()
}

func (r *Runner) deliverLocked() {
	if r.outcome == nil || r.listener == nil || r.delivered {
		return
	}
	r.delivered = true
	outcome, listener := r.outcome, r.listener
	if outcome.OK {
		listener.OnScheduleUpdate(outcome.Sessions, outcome.Meta)
	}
	listener.OnParseDone(outcome.OK, outcome.Version)
}

func (r *Runner) count(outcome string) {
	if r.metrics != nil {
		r.metrics.ParseTotal.WithLabelValues(outcome).Inc()
	}
}

func canceled(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (err == nil || errors.Is(err, ctx.Err()))
}

func parseOutcome(err error) string {
	switch {
	case schedule.IsMissingAttribute(err):
		return metrics.OutcomeMissingAttribute
	case errors.Is(err, schedule.ErrIncomplete):
		return metrics.OutcomeIncomplete
	default:
		return metrics.OutcomeMalformed
	}
}
