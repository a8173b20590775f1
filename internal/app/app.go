package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"smbak/internal/common"
	"smbak/internal/config"
	"smbak/internal/digest"
	"smbak/internal/run"
	"smbak/internal/schedule"
	"smbak/internal/sync"
)

// App is the application layer between the CLI and the backup pipeline.
// It constructs all dependencies from config and owns the log file
// lifecycle. The caller must call Close when done.
type App struct {
	Cfg *config.Config
	// ConfigPath is where the configuration was loaded from. Empty when the
	// App was wired from an in-memory config.
	ConfigPath string

	log          common.Logger
	logFile      *os.File
	orchestrator *run.Orchestrator
	clock        common.Clock
}

// fixedID hands the orchestrator the run ID already baked into the log
// handler, so log lines and the run result agree.
type fixedID struct{ id string }

func (f fixedID) New() string { return f.id }

// logPointingNotifier appends the log file location to every notice, so the
// operator of an unattended machine knows where to look.
type logPointingNotifier struct {
	inner   run.Notifier
	logPath string
}

func (n logPointingNotifier) Notify(title, message string) error {
	return n.inner.Notify(title, message+" (log: "+n.logPath+")")
}

// New locates and loads the configuration, then wires a ready App.
// explicitConfig may be empty to use the default search locations.
func New(explicitConfig string) (*App, error) {
	path, err := config.Locate(explicitConfig)
	if err != nil {
		return nil, run.NewConfigurationError(err)
	}
	cfg, err := config.ReadFromFile(path)
	if err != nil {
		return nil, run.NewConfigurationError(err)
	}
	a, err := NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	a.ConfigPath = path
	return a, nil
}

// NewFromConfig wires a ready App from an already validated config.
func NewFromConfig(cfg *config.Config) (*App, error) {
	clock := common.RealClock{}
	runID := common.UUIDGenerator{}.New()

	logger, logFile, err := newLogger(cfg.LogDir, runID, clock.Now())
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	log := &slogAdapter{l: logger}

	var notifier run.Notifier = run.NopNotifier{}
	if cfg.NotifyCommand != "" {
		notifier = logPointingNotifier{
			inner:   run.NewExecNotifier(cfg.NotifyCommand, cfg.NotifyArgs...),
			logPath: logFile.Name(),
		}
	}

	syncer := sync.New(cfg, nil, clock, log)
	orch := run.NewOrchestrator(syncer, clock, fixedID{id: runID}, log, notifier)

	return &App{
		Cfg:          cfg,
		log:          log,
		logFile:      logFile,
		orchestrator: orch,
		clock:        clock,
	}, nil
}

// RunBackup executes one full backup run.
func (a *App) RunBackup() *run.Result {
	return a.orchestrator.Execute()
}

// NextRun reports when the configured schedule next fires.
func (a *App) NextRun() (time.Time, error) {
	expr := a.Cfg.Schedule.Expression
	if expr == "" {
		return time.Time{}, fmt.Errorf("no schedule configured")
	}
	return schedule.NextRun(expr, a.Cfg.Schedule.Timezone, a.clock.Now())
}

// RepairDigests regroups historical digest entries under the packs the
// current song library knows, then reports the rewritten files. present is
// false when no staging checkout holds a digest collection, which is the
// normal state after a successful run has cleaned up.
func (a *App) RepairDigests() (changed []string, present bool, err error) {
	dir := filepath.Join(a.Cfg.StagingDir, digest.DirName)
	if _, statErr := os.Stat(dir); statErr != nil {
		if os.IsNotExist(statErr) {
			return nil, false, nil
		}
		return nil, false, statErr
	}

	primary, additional := a.Cfg.SongRoots()
	lookup := digest.BuildLookup(primary, additional)
	changed, err = digest.Repair(dir, lookup)
	if err != nil {
		return nil, true, err
	}
	for _, p := range changed {
		a.log.Info("digest regrouped", "file", filepath.Base(p))
	}
	return changed, true, nil
}

// LastDigest returns the newest digest file name in the staging tree, if
// any.
func (a *App) LastDigest() (string, bool) {
	files, err := digest.NewWindow(filepath.Join(a.Cfg.StagingDir, digest.DirName)).Files()
	if err != nil || len(files) == 0 {
		return "", false
	}
	return filepath.Base(files[len(files)-1]), true
}

// Close releases the log file.
func (a *App) Close() error {
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}
