// Package run orchestrates one backup run: it drives the synchronizer,
// classifies failures, and notifies the operator when something needs
// attention.
package run

import (
	"time"

	"smbak/internal/common"
	"smbak/internal/sync"
)

// Syncer executes the backup pipeline. Satisfied by sync.Synchronizer.
type Syncer interface {
	Run() (*sync.Outcome, error)
}

// Result records what one run did.
type Result struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Outcome  *sync.Outcome
	Err      *RunError
}

// Duration is the wall-clock run time.
func (r *Result) Duration() time.Duration { return r.Finished.Sub(r.Started) }

// Orchestrator ties the pipeline to logging, run identity, and operator
// notification. Runs are strictly sequential; the scheduler must not
// overlap invocations.
type Orchestrator struct {
	syncer   Syncer
	clock    common.Clock
	ids      common.IDGenerator
	log      common.Logger
	notifier Notifier
}

func NewOrchestrator(syncer Syncer, clock common.Clock, ids common.IDGenerator, log common.Logger, notifier Notifier) *Orchestrator {
	if clock == nil {
		clock = common.RealClock{}
	}
	if ids == nil {
		ids = &common.UUIDGenerator{}
	}
	if log == nil {
		log = common.NewNopLogger()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Orchestrator{syncer: syncer, clock: clock, ids: ids, log: log, notifier: notifier}
}

// Execute performs one run. The returned Result always carries timing and
// the run ID; Err is set when the run failed.
func (o *Orchestrator) Execute() *Result {
	res := &Result{RunID: o.ids.New(), Started: o.clock.Now()}
	o.log.Info("backup run starting", "run", res.RunID)

	outcome, err := o.syncer.Run()
	res.Outcome = outcome
	res.Finished = o.clock.Now()

	if err != nil {
		res.Err = classify(err)
		o.log.Error("backup run failed",
			"run", res.RunID,
			"kind", res.Err.Kind.String(),
			"error", err,
			"duration", res.Duration().String())
		o.log.Debug("failure stack", "run", res.RunID, "stack", res.Err.Stack())
		if nerr := o.notifier.Notify("Backup failed", res.Err.Error()); nerr != nil {
			o.log.Warn("notification failed", "error", nerr)
		}
		return res
	}

	o.log.Info("backup run finished",
		"run", res.RunID,
		"copied", outcome.Copied,
		"skipped", outcome.Skipped,
		"changed", outcome.Changed,
		"committed", outcome.Committed,
		"pushed", outcome.Pushed,
		"duration", res.Duration().String())
	return res
}
