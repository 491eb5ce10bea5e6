package uninstaller

import (
	"context"
	"fmt"
	"time"

	"nordvpn-uninstall/internal/data"
	apperrors "nordvpn-uninstall/internal/errors"
	errlogging "nordvpn-uninstall/internal/errors/logging"
	"nordvpn-uninstall/internal/logger"
	"nordvpn-uninstall/internal/menu"
	"nordvpn-uninstall/internal/pkgmgr"
	"nordvpn-uninstall/internal/system"
	"nordvpn-uninstall/internal/ui"
	"nordvpn-uninstall/internal/vpn"
)

// Options carries the collaborators of a Sequencer. Zero-value fields fall
// back to the real system implementations.
type Options struct {
	Manifest  *system.Manifest
	Confirmer menu.Confirmer
	Executor  pkgmgr.Executor
	Journal   data.Repository
	Console   *ui.Console
	Logger    logger.Logger
}

// Sequencer runs the uninstall steps in their fixed order, exactly once each,
// with no rollback. A failing step never stops the run; every outcome is
// logged, journaled and reported in the final summary.
type Sequencer struct {
	manifest  *system.Manifest
	cleaner   *system.Cleaner
	packages  *pkgmgr.Manager
	vpnClient *vpn.Client
	confirmer menu.Confirmer
	journal   data.Repository
	console   *ui.Console
	logger    logger.Logger
}

// Summary aggregates the outcomes of a full run.
type Summary struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []Result
}

// Failed reports whether any step failed.
func (s Summary) Failed() bool {
	for _, result := range s.Results {
		if result.Outcome == OutcomeFailed {
			return true
		}
	}
	return false
}

// NewSequencer constructs a Sequencer from the supplied options.
func NewSequencer(opts Options) (*Sequencer, error) {
	if opts.Manifest == nil {
		return nil, apperrors.ValidationError(apperrors.CodeValidationGeneric, "uninstall manifest is required", nil).
			WithModule("uninstaller").
			WithOperation("uninstaller.new")
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStandardLogger()
	}

	confirmer := opts.Confirmer
	if confirmer == nil {
		confirmer = menu.NewPromptConfirmer()
	}

	console := opts.Console
	if console == nil {
		console = ui.NewConsole(log, nil)
	}

	return &Sequencer{
		manifest:  opts.Manifest,
		cleaner:   system.NewCleaner(opts.Manifest),
		packages:  pkgmgr.NewManager(opts.Executor),
		vpnClient: vpn.NewClient(opts.Manifest.VPNCommand, opts.Executor),
		confirmer: confirmer,
		journal:   opts.Journal,
		console:   console,
		logger:    log,
	}, nil
}

// Run executes every step in order and returns the aggregated summary.
func (s *Sequencer) Run(ctx context.Context) Summary {
	summary := Summary{StartedAt: time.Now()}

	if !s.cleaner.CanRemoveInstallDir() {
		s.logger.Warn("Insufficient privileges to remove %s; run with sudo for a complete uninstall", s.manifest.InstallDir)
	}

	for _, step := range s.buildSteps() {
		summary.Results = append(summary.Results, s.runStep(ctx, step))
	}

	summary.FinishedAt = time.Now()

	// Journal with a fresh context so a cancelled run still gets recorded.
	s.recordRun(context.Background(), summary)
	return summary
}

func (s *Sequencer) buildSteps() []Step {
	targets := s.manifest.Packages

	return []Step{
		{
			Name:      "Remove autostart entry",
			Operation: "uninstaller.removeAutostart",
			Category:  apperrors.ErrCategoryFilesystem,
			Fn:        s.cleaner.RemoveAutostartEntry,
		},
		{
			Name:      "Remove installation directory",
			Operation: "uninstaller.removeInstallDir",
			Category:  apperrors.ErrCategoryFilesystem,
			Fn:        s.cleaner.RemoveInstallDir,
		},
		{
			Name:      fmt.Sprintf("Remove package %s", targets.Indicator),
			Operation: "uninstaller.removeIndicatorLibrary",
			Category:  apperrors.ErrCategoryDependency,
			Question:  fmt.Sprintf("Remove the AppIndicator support library (%s)", targets.Indicator),
			Fn:        func() error { return s.removePackage(targets.Indicator) },
		},
		{
			Name:      fmt.Sprintf("Remove package %s", targets.PythonBindings),
			Operation: "uninstaller.removePythonBindings",
			Category:  apperrors.ErrCategoryDependency,
			Question:  fmt.Sprintf("Remove the Python GObject bindings (%s)", targets.PythonBindings),
			Fn:        func() error { return s.removePackage(targets.PythonBindings) },
		},
		{
			Name:      fmt.Sprintf("Remove package %s", targets.VPNClient),
			Operation: "uninstaller.removeVPNClient",
			Category:  apperrors.ErrCategoryVPN,
			Question:  fmt.Sprintf("Remove the NordVPN client (%s)", targets.VPNClient),
			Fn:        s.removeVPNClient,
		},
	}
}

func (s *Sequencer) runStep(ctx context.Context, step Step) Result {
	if ctx.Err() != nil {
		s.logger.Warn("Skipping step after cancellation: %s", step.Name)
		return Result{Step: step.Name, Outcome: OutcomeSkipped}
	}

	if step.Question != "" {
		confirmed, err := s.confirmer.Confirm(step.Question)
		if err != nil {
			s.logger.Warn("Could not read confirmation for %q, skipping: %v", step.Name, err)
			return Result{Step: step.Name, Outcome: OutcomeSkipped}
		}
		if !confirmed {
			s.logger.Info("Skipped by user: %s", step.Name)
			return Result{Step: step.Name, Outcome: OutcomeSkipped}
		}
	}

	s.logger.Debug("Executing step: %s", step.Name)
	s.console.StartProgress(step.Name)

	if err := step.Fn(); err != nil {
		s.console.FailProgress(step.Name)
		s.logStepFailure(ctx, step, err)
		return Result{Step: step.Name, Outcome: OutcomeFailed, Err: err}
	}

	s.console.StopProgress(step.Name)
	return Result{Step: step.Name, Outcome: OutcomeCompleted}
}

func (s *Sequencer) removePackage(name string) error {
	installed, err := s.packages.Installed(name)
	if err != nil {
		s.logger.Debug("Could not determine install state of %s: %v", name, err)
	} else if !installed {
		s.logger.Warn("Package %s does not appear to be installed, attempting removal anyway", name)
	}

	return s.packages.Remove(name)
}

// removeVPNClient disconnects the VPN before removing the client package.
// The disconnect is issued regardless of connection state; its failure is
// reported but does not abort the package removal.
func (s *Sequencer) removeVPNClient() error {
	if status, err := s.vpnClient.Status(); err == nil {
		s.logger.Info("NordVPN client status: %s", status)
	} else {
		s.logger.Debug("Could not determine NordVPN client status: %v", err)
	}

	if err := s.vpnClient.Disconnect(); err != nil {
		s.logger.Warn("VPN disconnect failed, continuing with package removal: %v", err)
	}

	return s.removePackage(s.manifest.Packages.VPNClient)
}

func (s *Sequencer) logStepFailure(ctx context.Context, step Step, err error) {
	if appErr, ok := apperrors.As(err); ok {
		errlogging.Error(ctx, s.logger, fmt.Sprintf("Step failed: %s", step.Name), appErr)
		return
	}

	wrapped := apperrors.New(step.Category, apperrors.CodeSystemGeneric, "step execution failed", err).
		WithModule("uninstaller").
		WithOperation(step.Operation)
	errlogging.Error(ctx, s.logger, fmt.Sprintf("Step failed: %s", step.Name), wrapped)
}

func (s *Sequencer) recordRun(ctx context.Context, summary Summary) {
	if s.journal == nil {
		return
	}

	record := data.RunRecord{
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
	}
	for _, result := range summary.Results {
		record.Steps = append(record.Steps, data.StepRecord{
			Name:    result.Step,
			Outcome: result.Outcome.String(),
			Detail:  result.Detail(),
		})
	}

	if err := s.journal.RecordRun(ctx, record); err != nil {
		if appErr, ok := apperrors.As(err); ok {
			errlogging.Error(ctx, s.logger, "Failed to journal run outcomes", appErr)
			return
		}
		s.logger.Warn("Failed to journal run outcomes: %v", err)
	}
}

// SummaryRows converts a summary into printable rows.
func SummaryRows(summary Summary) []ui.SummaryRow {
	rows := make([]ui.SummaryRow, 0, len(summary.Results))
	for _, result := range summary.Results {
		rows = append(rows, ui.SummaryRow{
			Step:    result.Step,
			Outcome: result.Outcome.String(),
			Detail:  result.Detail(),
		})
	}
	return rows
}
