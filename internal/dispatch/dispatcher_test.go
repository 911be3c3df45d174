package dispatch_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"crashnotify/internal/config"
	"crashnotify/internal/dispatch"
	"crashnotify/internal/inotify"
	"crashnotify/internal/logging"
	"crashnotify/internal/testsupport"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	mu    sync.Mutex
	calls []call
	err   error
	code  int
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (dispatch.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{name: name, args: append([]string(nil), args...)})
	return dispatch.Result{ExitCode: f.code}, f.err
}

func newDispatcher(t *testing.T, cfg *config.Config, runner dispatch.Runner) (*dispatch.Dispatcher, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	d, err := dispatch.New(cfg, logger, runner)
	if err != nil {
		t.Fatalf("dispatch.New: %v", err)
	}
	return d, &buf
}

func noticeLines(buf *bytes.Buffer) []string {
	var out []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if strings.Contains(line, `"level":"INFO+2"`) {
			out = append(out, line)
		}
	}
	return out
}

func TestHandleDispatchesCloseWrite(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := &fakeRunner{}
	d, logs := newDispatcher(t, cfg, runner)

	ok, err := d.Handle(context.Background(), inotify.Event{Wd: 1, Mask: inotify.CloseWrite, Name: "report.1234.crash"})
	if err != nil || !ok {
		t.Fatalf("expected dispatch, got ok=%v err=%v", ok, err)
	}

	if len(runner.calls) != 1 {
		t.Fatalf("expected one reporter call, got %+v", runner.calls)
	}
	wantPath := filepath.Join(cfg.Watch.Dir, "report.1234.crash")
	if runner.calls[0].name != "apport-bug" || len(runner.calls[0].args) != 1 || runner.calls[0].args[0] != wantPath {
		t.Fatalf("unexpected invocation: %+v", runner.calls[0])
	}

	notices := noticeLines(logs)
	if len(notices) != 1 {
		t.Fatalf("expected one notice line, got %d:\n%s", len(notices), logs.String())
	}
	for _, want := range []string{`"mask":"IN_CLOSE_WRITE"`, `"mask_value":8`, `"dispatch_id":"`, `"component":"dispatch"`} {
		if !strings.Contains(notices[0], want) {
			t.Fatalf("notice line missing %s: %s", want, notices[0])
		}
	}
	if stats := d.Stats(); stats.Dispatched != 1 || stats.Failed != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestHandleIgnoresIneligibleEvents(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := &fakeRunner{}
	d, _ := newDispatcher(t, cfg, runner)

	events := []inotify.Event{
		{Mask: inotify.Create, Name: "bug.crash"},
		{Mask: inotify.CloseWrite, Name: "bug.crasH"},
		{Mask: inotify.CloseWrite, Name: "x"},
		{Mask: inotify.CloseWrite | inotify.IsDir, Name: "dir.crash"},
		{Mask: inotify.Ignored},
		{Mask: inotify.QOverflow},
	}
	for _, ev := range events {
		ok, err := d.Handle(context.Background(), ev)
		if ok || err != nil {
			t.Fatalf("event %+v should be ignored, got ok=%v err=%v", ev, ok, err)
		}
	}
	if len(runner.calls) != 0 {
		t.Fatalf("expected no reporter calls, got %+v", runner.calls)
	}
}

func TestHandleRepeatsForRepeatedEvents(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := &fakeRunner{}
	d, _ := newDispatcher(t, cfg, runner)

	ev := inotify.Event{Mask: inotify.CloseWrite, Name: "same.crash"}
	for i := 0; i < 3; i++ {
		if ok, err := d.Handle(context.Background(), ev); !ok || err != nil {
			t.Fatalf("dispatch %d: ok=%v err=%v", i, ok, err)
		}
	}
	if len(runner.calls) != 3 {
		t.Fatalf("expected three reporter calls, got %d", len(runner.calls))
	}
}

func TestHandleUsesConfiguredTriggerAndArgs(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithEvents("create", "moved_to"))
	cfg.Reporter.Command = "ubuntu-bug"
	cfg.Reporter.Args = []string{"--window"}
	runner := &fakeRunner{}
	d, _ := newDispatcher(t, cfg, runner)

	if d.Policy().Trigger != inotify.Create|inotify.MovedTo {
		t.Fatalf("unexpected trigger: %s", d.Policy().Trigger)
	}
	if ok, _ := d.Handle(context.Background(), inotify.Event{Mask: inotify.CloseWrite, Name: "a.crash"}); ok {
		t.Fatal("close_write should not trigger with create,moved_to policy")
	}
	if ok, _ := d.Handle(context.Background(), inotify.Event{Mask: inotify.MovedTo, Name: "a.crash"}); !ok {
		t.Fatal("moved_to should trigger")
	}
	want := []string{"--window", filepath.Join(cfg.Watch.Dir, "a.crash")}
	if got := runner.calls[0].args; strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("unexpected args: %v", got)
	}
}

func TestHandleSkipsSeenReports(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Reporter.SkipSeen = true
	runner := &fakeRunner{}
	d, _ := newDispatcher(t, cfg, runner)

	seen := testsupport.WriteReport(t, cfg.Watch.Dir, "seen.crash", 10)
	testsupport.MarkSeen(t, seen)
	fresh := testsupport.WriteReport(t, cfg.Watch.Dir, "fresh.crash", 10)
	testsupport.MarkUnseen(t, fresh)

	for _, name := range []string{"seen.crash", "fresh.crash", "gone.crash"} {
		if _, err := d.Handle(context.Background(), inotify.Event{Mask: inotify.CloseWrite, Name: name}); err != nil {
			t.Fatalf("Handle(%s): %v", name, err)
		}
	}
	if len(runner.calls) != 1 || runner.calls[0].args[0] != fresh {
		t.Fatalf("expected only fresh report to dispatch, got %+v", runner.calls)
	}
	if stats := d.Stats(); stats.Skipped != 2 {
		t.Fatalf("expected two skipped reports, got %+v", stats)
	}
}

func TestHandleReportsRunnerFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := &fakeRunner{err: errors.New("apport-bug: exit status 2"), code: 2}
	d, logs := newDispatcher(t, cfg, runner)

	ok, err := d.Handle(context.Background(), inotify.Event{Mask: inotify.CloseWrite, Name: "a.crash"})
	if !ok || err == nil {
		t.Fatalf("expected started dispatch with error, got ok=%v err=%v", ok, err)
	}
	if !strings.Contains(logs.String(), `"event_type":"dispatch_failed"`) {
		t.Fatalf("expected failure warning, got %s", logs.String())
	}
	if stats := d.Stats(); stats.Failed != 1 || stats.Dispatched != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestHandlePassesDispatchIDToRunner(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	var ids []string
	runner := dispatch.RunnerFunc(func(ctx context.Context, name string, args ...string) (dispatch.Result, error) {
		id, ok := logging.DispatchIDFromContext(ctx)
		if !ok {
			t.Errorf("runner context has no dispatch id")
		}
		ids = append(ids, id)
		return dispatch.Result{}, nil
	})
	d, logs := newDispatcher(t, cfg, runner)

	for i := 0; i < 2; i++ {
		if _, err := d.Handle(context.Background(), inotify.Event{Mask: inotify.CloseWrite, Name: "a.crash"}); err != nil {
			t.Fatalf("Handle: %v", err)
		}
	}
	if len(ids) != 2 || ids[0] == "" || ids[0] == ids[1] {
		t.Fatalf("expected two distinct dispatch ids, got %v", ids)
	}
	notices := noticeLines(logs)
	if len(notices) != 2 {
		t.Fatalf("expected two notices, got %v", notices)
	}
	for i, line := range notices {
		if !strings.Contains(line, `"dispatch_id":"`+ids[i]+`"`) {
			t.Fatalf("notice %d does not carry id %s: %s", i, ids[i], line)
		}
	}
}

func TestCatchUpDispatchesUnseenOldestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := &fakeRunner{}
	d, _ := newDispatcher(t, cfg, runner)

	older := testsupport.WriteReport(t, cfg.Watch.Dir, "b.crash", 10)
	testsupport.MarkUnseen(t, older)
	newer := testsupport.WriteReport(t, cfg.Watch.Dir, "a.crash", 10)
	testsupport.MarkUnseen(t, newer)
	testsupport.SetTimes(t, newer, timeAfter(t, older, -1), timeAfter(t, older, 60))
	seen := testsupport.WriteReport(t, cfg.Watch.Dir, "c.crash", 10)
	testsupport.MarkSeen(t, seen)
	testsupport.WriteReport(t, cfg.Watch.Dir, "notes.txt", 10)

	started, err := d.CatchUp(context.Background())
	if err != nil {
		t.Fatalf("CatchUp: %v", err)
	}
	if started != 2 || len(runner.calls) != 2 {
		t.Fatalf("expected two dispatches, got %d (%+v)", started, runner.calls)
	}
	if runner.calls[0].args[0] != older || runner.calls[1].args[0] != newer {
		t.Fatalf("unexpected order: %+v", runner.calls)
	}
}

func TestNewRejectsUnknownEvent(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithEvents("explode"))
	if _, err := dispatch.New(cfg, nil, nil); err == nil {
		t.Fatal("expected error for unknown event")
	}
}
