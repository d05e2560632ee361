package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *recorder) onChange(changed []string) {
	r.mu.Lock()
	r.calls = append(r.calls, changed)
	r.mu.Unlock()
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.calls...)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestNewWatcher_requiresFiles(t *testing.T) {
	if _, err := NewWatcher(nil, nil); err == nil {
		t.Error("expected error for empty file list")
	}
}

func TestWatcher_Files(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "b.pdf"), filepath.Join(dir, "a.docx")
	w, err := NewWatcher([]string{a, b, a}, nil)
	if err != nil {
		t.Fatal(err)
	}
	files := w.Files()
	if len(files) != 2 || files[0] != b || files[1] != a {
		t.Errorf("Files() = %v", files)
	}
	if dirs := w.dirsLocked(); len(dirs) != 1 || dirs[0] != dir {
		t.Errorf("dirs = %v", dirs)
	}
}

func TestWatcher_DebounceCoalescesWrites(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pdf")
	b := filepath.Join(dir, "b.pdf")
	other := filepath.Join(dir, "unrelated.txt")
	writeFile(t, a, "1")
	writeFile(t, b, "1")

	rec := &recorder{}
	w, err := NewWatcher([]string{a, b}, rec.onChange, WithDebounce(150*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	writeFile(t, a, "2")
	writeFile(t, b, "2")
	writeFile(t, a, "3")
	writeFile(t, other, "ignored")

	if !waitFor(t, 2*time.Second, func() bool { return len(rec.snapshot()) > 0 }) {
		t.Fatal("onChange was not called")
	}
	time.Sleep(300 * time.Millisecond)
	calls := rec.snapshot()
	if len(calls) != 1 {
		t.Fatalf("expected one coalesced call, got %v", calls)
	}
	if len(calls[0]) != 2 || calls[0][0] != a || calls[0][1] != b {
		t.Errorf("changed = %v, want [%s %s]", calls[0], a, b)
	}
}

func TestWatcher_ReplaceByRename(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "report.docx")
	writeFile(t, target, "v1")

	rec := &recorder{}
	w, err := NewWatcher([]string{target}, rec.onChange, WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	tmp := filepath.Join(dir, ".report.docx.tmp")
	writeFile(t, tmp, "v2")
	if err := os.Rename(tmp, target); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return len(rec.snapshot()) == 1 }) {
		t.Errorf("expected a change after atomic replace, got %v", rec.snapshot())
	}
}

func TestWatcher_StopDropsPending(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a.pdf")
	writeFile(t, target, "1")

	rec := &recorder{}
	w, err := NewWatcher([]string{target}, rec.onChange, WithDebounce(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	writeFile(t, target, "2")
	time.Sleep(100 * time.Millisecond)
	w.Stop()
	w.Stop()
	if len(rec.snapshot()) != 0 {
		t.Error("no callback expected after Stop")
	}
}

func TestWatcher_StartMissingDirectory(t *testing.T) {
	w, err := NewWatcher([]string{filepath.Join(t.TempDir(), "missing", "a.pdf")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Error("expected error when the parent directory does not exist")
	}
}

func TestWatcher_ContextCancelStops(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a.pdf")
	writeFile(t, target, "1")
	w, err := NewWatcher([]string{target}, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	if !waitFor(t, time.Second, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return !w.started
	}) {
		t.Error("watcher still running after context cancel")
	}
}

func TestWatcher_FlushNeverOverlaps(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.pdf"), filepath.Join(dir, "b.pdf")
	var (
		mu      sync.Mutex
		running int
		maxRun  int
		batches [][]string
	)
	entered := make(chan struct{}, 4)
	onChange := func(changed []string) {
		mu.Lock()
		running++
		if running > maxRun {
			maxRun = running
		}
		batches = append(batches, changed)
		mu.Unlock()
		entered <- struct{}{}
		time.Sleep(200 * time.Millisecond)
		mu.Lock()
		running--
		mu.Unlock()
	}
	w, err := NewWatcher([]string{a, b}, onChange)
	if err != nil {
		t.Fatal(err)
	}

	w.mu.Lock()
	w.pending[a] = true
	w.mu.Unlock()
	done := make(chan struct{}, 3)
	go func() { w.flush(); done <- struct{}{} }()
	<-entered

	w.mu.Lock()
	w.pending[b] = true
	w.mu.Unlock()
	go func() { w.flush(); done <- struct{}{} }()
	go func() { w.flush(); done <- struct{}{} }()
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(3 * time.Second):
			t.Fatal("flush did not return")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if maxRun != 1 {
		t.Errorf("onChange ran %d at once, want 1", maxRun)
	}
	if len(batches) != 2 || batches[0][0] != a || batches[1][0] != b {
		t.Errorf("batches = %v, want [[%s] [%s]]", batches, a, b)
	}
}
