// Package pty provides the pseudo-terminal transport: spawning a child
// process attached to a PTY and exposing its byte-stream endpoints.
package pty

import (
	"errors"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	creackpty "github.com/creack/pty"
)

const (
	defaultCols = 80
	defaultRows = 24
)

// SpawnOptions describes the child process to start.
type SpawnOptions struct {
	Argv []string
	Dir  string
	// Env entries override the inherited environment ("KEY=value").
	// The terminal type must be injected here before spawn so the child
	// negotiates capabilities correctly.
	Env  []string
	Cols uint16
	Rows uint16
}

// Pty wraps a child process running inside a pseudo-terminal. It is the
// exclusive owner of the PTY file descriptor for its lifetime.
type Pty struct {
	cmd  *exec.Cmd
	ptmx *os.File

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

// Spawn starts a command inside a new PTY.
func Spawn(opts SpawnOptions) (*Pty, error) {
	if len(opts.Argv) == 0 {
		return nil, errors.New("pty: argv must not be empty")
	}

	cols, rows := opts.Cols, opts.Rows
	if cols == 0 {
		cols = defaultCols
	}
	if rows == 0 {
		rows = defaultRows
	}

	cmd := exec.Command(opts.Argv[0], opts.Argv[1:]...)
	cmd.Dir = opts.Dir
	cmd.Env = mergeEnv(os.Environ(), opts.Env)

	ptmx, err := creackpty.StartWithSize(cmd, &creackpty.Winsize{
		Cols: cols,
		Rows: rows,
	})
	if err != nil {
		return nil, err
	}

	return &Pty{cmd: cmd, ptmx: ptmx}, nil
}

// Read reads output produced by the child process.
func (p *Pty) Read(b []byte) (int, error) {
	return p.ptmx.Read(b)
}

// Write sends input to the child process.
func (p *Pty) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, errors.New("pty: closed")
	}
	return p.ptmx.Write(b)
}

// Resize changes the PTY window size.
func (p *Pty) Resize(cols, rows uint16) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New("pty: closed")
	}
	return creackpty.Setsize(p.ptmx, &creackpty.Winsize{
		Cols: cols,
		Rows: rows,
	})
}

// Wait blocks until the child process exits.
func (p *Pty) Wait() error {
	return p.cmd.Wait()
}

// Close terminates the child process (SIGTERM) and closes the PTY fd.
// It is safe to call Close multiple times.
func (p *Pty) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		if p.cmd.Process != nil {
			_ = p.cmd.Process.Signal(syscall.SIGTERM)
		}
		err = p.ptmx.Close()
	})
	return err
}

// mergeEnv overlays overrides onto base, replacing same-named variables.
func mergeEnv(base, overrides []string) []string {
	if len(overrides) == 0 {
		return base
	}

	out := make([]string, 0, len(base)+len(overrides))
	replaced := make(map[string]string, len(overrides))
	for _, kv := range overrides {
		if i := strings.IndexByte(kv, '='); i > 0 {
			replaced[kv[:i]] = kv
		}
	}
	for _, kv := range base {
		name := kv
		if i := strings.IndexByte(kv, '='); i > 0 {
			name = kv[:i]
		}
		if _, ok := replaced[name]; ok {
			continue
		}
		out = append(out, kv)
	}
	for _, kv := range overrides {
		if strings.IndexByte(kv, '=') > 0 {
			out = append(out, kv)
		}
	}
	return out
}
