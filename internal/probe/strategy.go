package probe

import (
	"context"
	"fmt"
	"net/http"
)

// Strategy is one way of asking the backend whether it is up.
type Strategy interface {
	Name() string
	Probe(ctx context.Context) error
}

// Pinger is the subset of the API client the HTTP strategies need.
type Pinger interface {
	Ping(ctx context.Context, path string) (int, error)
	Head(ctx context.Context, path string) (int, error)
}

// GetStrategy treats any 2xx on GET path as up.
type GetStrategy struct {
	Client Pinger
	Path   string
}

func (s GetStrategy) Name() string { return "GET " + s.Path }

func (s GetStrategy) Probe(ctx context.Context) error {
	status, err := s.Client.Ping(ctx, s.Path)
	return checkStatus(status, err)
}

// HeadStrategy treats any 2xx on HEAD path as up.
type HeadStrategy struct {
	Client Pinger
	Path   string
}

func (s HeadStrategy) Name() string { return "HEAD " + s.Path }

func (s HeadStrategy) Probe(ctx context.Context) error {
	status, err := s.Client.Head(ctx, s.Path)
	return checkStatus(status, err)
}

// DefaultStrategies returns GET then HEAD for every path.
func DefaultStrategies(c Pinger, paths ...string) []Strategy {
	if len(paths) == 0 {
		paths = []string{"/"}
	}
	var out []Strategy
	for _, p := range paths {
		out = append(out, GetStrategy{Client: c, Path: p})
	}
	for _, p := range paths {
		out = append(out, HeadStrategy{Client: c, Path: p})
	}
	return out
}

func checkStatus(status int, err error) error {
	if err != nil {
		return err
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return fmt.Errorf("status %d", status)
	}
	return nil
}
