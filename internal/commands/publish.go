package commands

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// PublishOutcome is the result of publishing one resource.
type PublishOutcome struct {
	Resource string
	OK       bool
	Message  string
}

// PublishAllResult collects the outcome of every resource publish.
type PublishAllResult struct {
	Locations PublishOutcome
	Catalog   PublishOutcome
}

// Failed returns the outcomes that did not succeed.
func (r *PublishAllResult) Failed() []PublishOutcome {
	var out []PublishOutcome
	for _, o := range []PublishOutcome{r.Locations, r.Catalog} {
		if !o.OK {
			out = append(out, o)
		}
	}
	return out
}

// PublishAll publishes locations and the catalog concurrently. They are
// unrelated resources, so one failing does not stop the other.
func (a *App) PublishAll(ctx context.Context) (*PublishAllResult, error) {
	res := &PublishAllResult{
		Locations: PublishOutcome{Resource: "locations"},
		Catalog:   PublishOutcome{Resource: "catalog"},
	}

	// Group.Wait reports only the first error, so each goroutine also
	// records its own failure and the caller gets all of them joined.
	var (
		g    errgroup.Group
		errs [2]error
	)
	g.Go(func() error {
		res.Locations.OK, res.Locations.Message = a.Profiles.PublishLocations(ctx)
		errs[0] = res.Locations.err()
		return errs[0]
	})
	g.Go(func() error {
		res.Catalog.OK, res.Catalog.Message = a.Profiles.PublishCatalog(ctx)
		errs[1] = res.Catalog.err()
		return errs[1]
	})
	if err := g.Wait(); err != nil {
		return res, errors.Join(errs[:]...)
	}
	return res, nil
}

func (o PublishOutcome) err() error {
	if o.OK {
		return nil
	}
	return fmt.Errorf("%s: %s", o.Resource, o.Message)
}
