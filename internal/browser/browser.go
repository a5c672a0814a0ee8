// Package browser opens URLs in the user's default browser.
package browser

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
)

// ErrUnsupported is returned on platforms without a known opener.
var ErrUnsupported = errors.New("no browser opener for this platform")

// Start launches name with args and returns once the process has started.
// The child gets no stdio pipes, so a browser it forks cannot hold the
// caller open. The process is reaped in the background.
func Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// Command returns the program and arguments that open url on goos.
func Command(goos, url string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{url}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}, nil
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly":
		return "xdg-open", []string{url}, nil
	default:
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupported, goos)
	}
}

// System opens URLs with the platform opener. The zero value uses the
// running platform.
type System struct {
	GOOS  string
	Start func(name string, args ...string) error
}

// Open implements oauth.Opener.
func (s System) Open(url string) error {
	goos := s.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	start := s.Start
	if start == nil {
		start = Start
	}
	name, args, err := Command(goos, url)
	if err != nil {
		return err
	}
	if err := start(name, args...); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Printer asks the user to open the URL themselves.
type Printer struct {
	W io.Writer
}

func (p Printer) Open(url string) error {
	_, err := fmt.Fprintf(p.W, "Open this URL in your browser to continue:\n\n  %s\n\n", url)
	return err
}

// Opener is anything that can show a URL to the user.
type Opener interface {
	Open(url string) error
}

// Fallback tries Primary and falls back to Secondary when it fails.
type Fallback struct {
	Primary   Opener
	Secondary Opener
}

func (f Fallback) Open(url string) error {
	if err := f.Primary.Open(url); err != nil {
		return f.Secondary.Open(url)
	}
	return nil
}
