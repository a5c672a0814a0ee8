// Package notify delivers short user-facing notices, the terminal stand-in
// for toast messages.
package notify

import (
	"fmt"
	"io"
	"sync"
)

// Level orders notices by severity.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notifier shows notices to the user.
type Notifier interface {
	Info(msg string)
	Success(msg string)
	Warning(msg string)
	Error(msg string)
}

// Terminal writes styled notices to w.
type Terminal struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTerminal returns a Terminal writing to w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

func (t *Terminal) Info(msg string)    { t.write(LevelInfo, msg) }
func (t *Terminal) Success(msg string) { t.write(LevelSuccess, msg) }
func (t *Terminal) Warning(msg string) { t.write(LevelWarning, msg) }
func (t *Terminal) Error(msg string)   { t.write(LevelError, msg) }

func (t *Terminal) write(level Level, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, Render(level, msg))
}

// Notice is one recorded notification.
type Notice struct {
	Level   Level
	Message string
}

// Recorder keeps every notice in memory.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Info(msg string)    { r.add(LevelInfo, msg) }
func (r *Recorder) Success(msg string) { r.add(LevelSuccess, msg) }
func (r *Recorder) Warning(msg string) { r.add(LevelWarning, msg) }
func (r *Recorder) Error(msg string)   { r.add(LevelError, msg) }

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, Notice{Level: level, Message: msg})
}

// Notices returns a copy of everything recorded so far.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Count returns how many notices of level were recorded.
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, nt := range r.notices {
		if nt.Level == level {
			n++
		}
	}
	return n
}

// Messages returns the recorded messages of level.
func (r *Recorder) Messages(level Level) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, nt := range r.notices {
		if nt.Level == level {
			out = append(out, nt.Message)
		}
	}
	return out
}

// Discard drops every notice.
type Discard struct{}

func (Discard) Info(string)    {}
func (Discard) Success(string) {}
func (Discard) Warning(string) {}
func (Discard) Error(string)   {}
