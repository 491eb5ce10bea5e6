package uninstaller

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nordvpn-uninstall/internal/data"
	"nordvpn-uninstall/internal/logger"
	"nordvpn-uninstall/internal/system"
	"nordvpn-uninstall/internal/ui"
)

type fakeExecutor struct {
	calls   [][]string
	queries [][]string

	// runHook can fail selected Run invocations.
	runHook func(cmd []string) error
	// statusErr fails the VPN status query.
	statusErr error
}

func (f *fakeExecutor) Run(name string, args ...string) error {
	cmd := append([]string{name}, args...)
	f.calls = append(f.calls, cmd)
	if f.runHook != nil {
		return f.runHook(cmd)
	}
	return nil
}

func (f *fakeExecutor) Output(name string, args ...string) ([]byte, error) {
	cmd := append([]string{name}, args...)
	f.queries = append(f.queries, cmd)

	switch name {
	case "dpkg-query":
		return []byte("gir1.2-appindicator3-0.1\npython3-gi\nnordvpn\n"), nil
	case "nordvpn":
		if f.statusErr != nil {
			return nil, f.statusErr
		}
		return []byte("Status: Connected\n"), nil
	default:
		return nil, errors.New("unexpected command: " + name)
	}
}

func (f *fakeExecutor) commandIndex(prefix string) int {
	for i, cmd := range f.calls {
		if strings.HasPrefix(strings.Join(cmd, " "), prefix) {
			return i
		}
	}
	return -1
}

type scriptedConfirmer struct {
	answers   []bool
	err       error
	questions []string
}

func (s *scriptedConfirmer) Confirm(question string) (bool, error) {
	s.questions = append(s.questions, question)
	if s.err != nil {
		return false, s.err
	}
	if len(s.answers) == 0 {
		return false, nil
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}

type fakeJournal struct {
	runs []data.RunRecord
	err  error
}

func (f *fakeJournal) Bootstrap(context.Context) error { return nil }
func (f *fakeJournal) Close() error                    { return nil }
func (f *fakeJournal) RecordRun(_ context.Context, run data.RunRecord) error {
	f.runs = append(f.runs, run)
	return f.err
}

func testManifest(t *testing.T) *system.Manifest {
	t.Helper()
	home := t.TempDir()

	m := &system.Manifest{
		AutostartEntry: ".config/autostart/nordvpn_indicator.desktop",
		InstallDir:     filepath.Join(home, "opt", "nordvpn_indicator"),
		Packages: system.PackageTargets{
			Indicator:      "gir1.2-appindicator3-0.1",
			PythonBindings: "python3-gi",
			VPNClient:      "nordvpn",
		},
		VPNCommand: "nordvpn",
		JournalDir: ".local/state/nordvpn-indicator",
	}
	m.SetHomeDir(home)
	return m
}

func seedArtifacts(t *testing.T, m *system.Manifest) {
	t.Helper()

	entry := m.AutostartEntryPath()
	require.NoError(t, os.MkdirAll(filepath.Dir(entry), 0o755))
	require.NoError(t, os.WriteFile(entry, []byte("[Desktop Entry]\n"), 0o644))
	require.NoError(t, os.MkdirAll(m.InstallDir, 0o755))
}

func newTestSequencer(t *testing.T, m *system.Manifest, exec *fakeExecutor, confirmer *scriptedConfirmer, journal data.Repository) *Sequencer {
	t.Helper()

	log := logger.NewMockLogger()
	seq, err := NewSequencer(Options{
		Manifest:  m,
		Confirmer: confirmer,
		Executor:  exec,
		Journal:   journal,
		Console:   ui.NewConsole(log, io.Discard),
		Logger:    log,
	})
	require.NoError(t, err)
	return seq
}

func TestNewSequencerRequiresManifest(t *testing.T) {
	_, err := NewSequencer(Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifest is required")
}

func TestRunAllDeclined(t *testing.T) {
	m := testManifest(t)
	seedArtifacts(t, m)

	exec := &fakeExecutor{}
	confirmer := &scriptedConfirmer{answers: []bool{false, false, false}}
	seq := newTestSequencer(t, m, exec, confirmer, nil)

	summary := seq.Run(context.Background())

	// No package manager or VPN CLI invocations at all.
	assert.Empty(t, exec.calls)
	assert.Empty(t, exec.queries)

	// The unconditional deletions still happened.
	_, err := os.Stat(m.AutostartEntryPath())
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(m.InstallDir)
	assert.True(t, os.IsNotExist(err))

	require.Len(t, summary.Results, 5)
	assert.Equal(t, OutcomeCompleted, summary.Results[0].Outcome)
	assert.Equal(t, OutcomeCompleted, summary.Results[1].Outcome)
	for _, result := range summary.Results[2:] {
		assert.Equal(t, OutcomeSkipped, result.Outcome)
	}
	assert.False(t, summary.Failed())
}

func TestRunAllConfirmed(t *testing.T) {
	m := testManifest(t)
	seedArtifacts(t, m)

	exec := &fakeExecutor{}
	confirmer := &scriptedConfirmer{answers: []bool{true, true, true}}
	seq := newTestSequencer(t, m, exec, confirmer, nil)

	summary := seq.Run(context.Background())

	require.Len(t, summary.Results, 5)
	for _, result := range summary.Results {
		assert.Equal(t, OutcomeCompleted, result.Outcome, result.Step)
	}

	indicator := exec.commandIndex("apt remove --purge -y gir1.2-appindicator3-0.1")
	bindings := exec.commandIndex("apt remove --purge -y python3-gi")
	disconnect := exec.commandIndex("nordvpn disconnect")
	vpnRemove := exec.commandIndex("apt remove --purge -y nordvpn")

	require.NotEqual(t, -1, indicator)
	require.NotEqual(t, -1, bindings)
	require.NotEqual(t, -1, disconnect)
	require.NotEqual(t, -1, vpnRemove)

	// Fixed removal order, and disconnect strictly before the VPN package removal.
	assert.Less(t, indicator, bindings)
	assert.Less(t, bindings, disconnect)
	assert.Less(t, disconnect, vpnRemove)
}

func TestRunStepOrderIsFixed(t *testing.T) {
	m := testManifest(t)

	exec := &fakeExecutor{}
	confirmer := &scriptedConfirmer{answers: []bool{true, true, true}}
	seq := newTestSequencer(t, m, exec, confirmer, nil)

	summary := seq.Run(context.Background())

	require.Len(t, summary.Results, 5)
	assert.Equal(t, "Remove autostart entry", summary.Results[0].Step)
	assert.Equal(t, "Remove installation directory", summary.Results[1].Step)
	assert.Equal(t, "Remove package gir1.2-appindicator3-0.1", summary.Results[2].Step)
	assert.Equal(t, "Remove package python3-gi", summary.Results[3].Step)
	assert.Equal(t, "Remove package nordvpn", summary.Results[4].Step)
}

func TestRunPromptQuestions(t *testing.T) {
	m := testManifest(t)

	exec := &fakeExecutor{}
	confirmer := &scriptedConfirmer{answers: []bool{false, false, false}}
	seq := newTestSequencer(t, m, exec, confirmer, nil)

	seq.Run(context.Background())

	require.Len(t, confirmer.questions, 3)
	assert.Contains(t, confirmer.questions[0], "gir1.2-appindicator3-0.1")
	assert.Contains(t, confirmer.questions[1], "python3-gi")
	assert.Contains(t, confirmer.questions[2], "nordvpn")
}

func TestRunContinuesPastFailures(t *testing.T) {
	m := testManifest(t)

	exec := &fakeExecutor{
		runHook: func(cmd []string) error {
			if strings.Join(cmd, " ") == "apt remove --purge -y gir1.2-appindicator3-0.1" {
				return errors.New("exit status 100")
			}
			return nil
		},
	}
	confirmer := &scriptedConfirmer{answers: []bool{true, true, true}}
	seq := newTestSequencer(t, m, exec, confirmer, nil)

	summary := seq.Run(context.Background())

	require.Len(t, summary.Results, 5)
	assert.Equal(t, OutcomeFailed, summary.Results[2].Outcome)
	assert.Equal(t, OutcomeCompleted, summary.Results[3].Outcome)
	assert.Equal(t, OutcomeCompleted, summary.Results[4].Outcome)
	assert.True(t, summary.Failed())

	// The later steps still ran their commands.
	assert.NotEqual(t, -1, exec.commandIndex("apt remove --purge -y python3-gi"))
	assert.NotEqual(t, -1, exec.commandIndex("apt remove --purge -y nordvpn"))
}

func TestRunDisconnectFailureDoesNotStopRemoval(t *testing.T) {
	m := testManifest(t)

	exec := &fakeExecutor{
		runHook: func(cmd []string) error {
			if strings.Join(cmd, " ") == "nordvpn disconnect" {
				return errors.New("exit status 1")
			}
			return nil
		},
	}
	confirmer := &scriptedConfirmer{answers: []bool{false, false, true}}
	seq := newTestSequencer(t, m, exec, confirmer, nil)

	summary := seq.Run(context.Background())

	require.Len(t, summary.Results, 5)
	assert.Equal(t, OutcomeCompleted, summary.Results[4].Outcome)
	assert.NotEqual(t, -1, exec.commandIndex("apt remove --purge -y nordvpn"))
}

func TestRunLogsStatusCheckFailure(t *testing.T) {
	m := testManifest(t)

	exec := &fakeExecutor{statusErr: errors.New("exit status 1")}
	log := logger.NewMockLogger()
	seq, err := NewSequencer(Options{
		Manifest:  m,
		Confirmer: &scriptedConfirmer{answers: []bool{false, false, true}},
		Executor:  exec,
		Console:   ui.NewConsole(log, io.Discard),
		Logger:    log,
	})
	require.NoError(t, err)

	summary := seq.Run(context.Background())

	// A failed status query is logged and never blocks the removal.
	assert.True(t, log.HasEntry(logger.LevelDebug, "Could not determine NordVPN client status"))
	assert.False(t, log.HasEntry(logger.LevelInfo, "NordVPN client status"))
	assert.Equal(t, OutcomeCompleted, summary.Results[4].Outcome)
	assert.NotEqual(t, -1, exec.commandIndex("apt remove --purge -y nordvpn"))
}

func TestRunIsIdempotent(t *testing.T) {
	m := testManifest(t)
	seedArtifacts(t, m)

	exec := &fakeExecutor{}
	seq := newTestSequencer(t, m, exec, &scriptedConfirmer{answers: []bool{false, false, false}}, nil)
	first := seq.Run(context.Background())
	assert.False(t, first.Failed())

	// Second run over the already cleaned system produces no new failures.
	seq = newTestSequencer(t, m, exec, &scriptedConfirmer{answers: []bool{false, false, false}}, nil)
	second := seq.Run(context.Background())
	assert.False(t, second.Failed())
	assert.Equal(t, OutcomeCompleted, second.Results[0].Outcome)
	assert.Equal(t, OutcomeCompleted, second.Results[1].Outcome)
}

func TestRunRecordsJournal(t *testing.T) {
	m := testManifest(t)

	journal := &fakeJournal{}
	confirmer := &scriptedConfirmer{answers: []bool{true, false, true}}
	seq := newTestSequencer(t, m, &fakeExecutor{}, confirmer, journal)

	seq.Run(context.Background())

	require.Len(t, journal.runs, 1)
	run := journal.runs[0]
	require.Len(t, run.Steps, 5)
	assert.Equal(t, "completed", run.Steps[0].Outcome)
	assert.Equal(t, "completed", run.Steps[2].Outcome)
	assert.Equal(t, "skipped", run.Steps[3].Outcome)
	assert.Equal(t, "completed", run.Steps[4].Outcome)
	assert.False(t, run.FinishedAt.Before(run.StartedAt))
}

func TestRunJournalFailureIsNonFatal(t *testing.T) {
	m := testManifest(t)

	journal := &fakeJournal{err: errors.New("disk full")}
	seq := newTestSequencer(t, m, &fakeExecutor{}, &scriptedConfirmer{answers: []bool{false, false, false}}, journal)

	summary := seq.Run(context.Background())
	assert.False(t, summary.Failed())
}

func TestRunSkipsAfterCancellation(t *testing.T) {
	m := testManifest(t)
	seedArtifacts(t, m)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExecutor{}
	seq := newTestSequencer(t, m, exec, &scriptedConfirmer{answers: []bool{true, true, true}}, nil)

	summary := seq.Run(ctx)

	require.Len(t, summary.Results, 5)
	for _, result := range summary.Results {
		assert.Equal(t, OutcomeSkipped, result.Outcome)
	}
	assert.Empty(t, exec.calls)

	// Cancelled before the first step: nothing was deleted.
	_, err := os.Stat(m.AutostartEntryPath())
	assert.NoError(t, err)
}

func TestRunConfirmerErrorSkipsStep(t *testing.T) {
	m := testManifest(t)

	exec := &fakeExecutor{}
	confirmer := &scriptedConfirmer{err: errors.New("stdin closed")}
	seq := newTestSequencer(t, m, exec, confirmer, nil)

	summary := seq.Run(context.Background())

	for _, result := range summary.Results[2:] {
		assert.Equal(t, OutcomeSkipped, result.Outcome)
	}
	assert.Empty(t, exec.calls)
	assert.False(t, summary.Failed())
}

func TestSummaryRows(t *testing.T) {
	summary := Summary{
		Results: []Result{
			{Step: "Remove autostart entry", Outcome: OutcomeCompleted},
			{Step: "Remove package nordvpn", Outcome: OutcomeFailed, Err: errors.New("exit status 100")},
		},
	}

	rows := SummaryRows(summary)
	require.Len(t, rows, 2)
	assert.Equal(t, "completed", rows[0].Outcome)
	assert.Equal(t, "", rows[0].Detail)
	assert.Equal(t, "failed", rows[1].Outcome)
	assert.Equal(t, "exit status 100", rows[1].Detail)
}
