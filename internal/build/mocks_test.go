package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vvka-141/pgbundle/internal/gitsource"
	"github.com/vvka-141/pgbundle/internal/manifest"
)

// fakeRunner records commands instead of executing them.
type fakeRunner struct {
	commands []Command
	// failOn makes the first command whose string form contains it fail.
	failOn string
}

func (r *fakeRunner) Run(ctx context.Context, cmd Command) error {
	r.commands = append(r.commands, cmd)
	if r.failOn != "" && strings.Contains(cmd.String(), r.failOn) {
		return &CommandError{Command: cmd, Err: errors.New("exit status 2")}
	}
	return nil
}

func (r *fakeRunner) lines() []string {
	out := make([]string, 0, len(r.commands))
	for _, c := range r.commands {
		out = append(out, c.String())
	}
	return out
}

func (r *fakeRunner) count(substr string) int {
	n := 0
	for _, l := range r.lines() {
		if strings.Contains(l, substr) {
			n++
		}
	}
	return n
}

// fakeFetcher materializes checkouts from an in-memory file map per entry.
type fakeFetcher struct {
	files   map[string]map[string]string
	fail    map[string]error
	fetched []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, entry *manifest.Entry, dest string) (*gitsource.Checkout, error) {
	f.fetched = append(f.fetched, entry.Name)
	if err := f.fail[entry.Name]; err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, err
	}
	for rel, content := range f.files[entry.Name] {
		p := filepath.Join(dest, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			return nil, err
		}
	}
	return &gitsource.Checkout{Dir: dest, Commit: "0123456789abcdef0123456789abcdef01234567"}, nil
}

// recordingLogger keeps warnings for assertions.
type recordingLogger struct {
	mu    sync.Mutex
	warns []string
	infos []string
}

func (l *recordingLogger) Verbose(format string, args ...interface{}) {}

func (l *recordingLogger) Info(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Warn(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Error(format string, args ...interface{}) {}
