package typeresolve

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"sync"
)

// MypyBackend drives mypy's persistent type-checking daemon (dmypy):
// check whether a daemon is already listening, start one if not, then
// issue one-shot queries against it. Unlike
// PyrightBackend this backend has no long-lived stdio pipe of its own —
// each query is a fresh dmypy subprocess invocation against the shared
// daemon process dmypy itself manages.
type MypyBackend struct {
	Command string // defaults to "dmypy"

	mu      sync.Mutex
	started bool
}

func NewMypyBackend() *MypyBackend {
	return &MypyBackend{Command: "dmypy"}
}

func (b *MypyBackend) Name() string { return "mypy" }

func (b *MypyBackend) command() string {
	if b.Command == "" {
		return "dmypy"
	}
	return b.Command
}

func (b *MypyBackend) Open(ctx context.Context, path string, text []byte) (Session, error) {
	if err := b.ensureRunning(ctx); err != nil {
		return nil, err
	}
	return &mypySession{backend: b, path: path, text: text}, nil
}

// ensureRunning checks "dmypy status" and, if the daemon is not up,
// starts one with "dmypy start". Both are idempotent: calling start when
// a daemon already runs is a harmless no-op per dmypy's own contract.
func (b *MypyBackend) ensureRunning(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return nil
	}
	statusCmd := exec.CommandContext(ctx, b.command(), "status")
	if err := statusCmd.Run(); err == nil {
		b.started = true
		return nil
	}
	startCmd := exec.CommandContext(ctx, b.command(), "start")
	var stderr bytes.Buffer
	startCmd.Stderr = &stderr
	if err := startCmd.Run(); err != nil {
		return fmt.Errorf("mypy: dmypy start: %w: %s", err, stderr.String())
	}
	b.started = true
	return nil
}

// restart tears down the daemon's "started" bit so the next query
// re-checks status/start, used after a query fails in a way that
// suggests the daemon itself died mid-session.
func (b *MypyBackend) restart() {
	b.mu.Lock()
	b.started = false
	b.mu.Unlock()
}

type mypySession struct {
	backend *MypyBackend
	path    string
	text    []byte
}

var dmypyTypeRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_.]*)$`)

// Resolve queries "dmypy inspect PATH:LINE:COL --show type" for the
// declared type at offset, retrying once (per mypy_lsp.rs's own
// retry-on-crash policy) if the first attempt looks like a dead daemon.
func (s *mypySession) Resolve(ctx context.Context, offset uint32, receiverText string) (string, bool) {
	line, col := offsetToLine1Col1(s.text, offset)
	class, err := s.inspect(ctx, line, col)
	if err != nil && looksLikeDeadDaemon(err) {
		s.backend.restart()
		if rerr := s.backend.ensureRunning(ctx); rerr == nil {
			class, err = s.inspect(ctx, line, col)
		}
	}
	if err != nil || class == "" {
		return "", false
	}
	return class, true
}

func (s *mypySession) inspect(ctx context.Context, line, col int) (string, error) {
	target := fmt.Sprintf("%s:%d:%d", s.path, line, col)
	cmd := exec.CommandContext(ctx, s.backend.command(), "inspect", target, "--show", "type")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("mypy: dmypy inspect: %w: %s", err, stderr.String())
	}
	return parseDmypyInspectOutput(stdout.String()), nil
}

// parseDmypyInspectOutput picks the first line of dmypy inspect's output
// that looks like a bare dotted class name, ignoring builtin types
// (int, str, ...) which are never deprecated constructs by construction.
func parseDmypyInspectOutput(out string) string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, `"`)
		line = strings.TrimSuffix(line, `"`)
		if line == "" {
			continue
		}
		if dmypyTypeRe.MatchString(line) && strings.Contains(line, ".") {
			return line
		}
	}
	return ""
}

func looksLikeDeadDaemon(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "No status file found") ||
		strings.Contains(msg, "Daemon has died") ||
		strings.Contains(msg, "Command not found")
}

func (s *mypySession) Close() error { return nil }

// offsetToLine1Col1 converts a byte offset into mypy's expected 1-based
// line/column pair.
func offsetToLine1Col1(text []byte, offset uint32) (line, col int) {
	if offset > uint32(len(text)) {
		offset = uint32(len(text))
	}
	line = 1
	lineStart := 0
	for i := 0; i < int(offset); i++ {
		if text[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	col = int(offset) - lineStart + 1
	return line, col
}
