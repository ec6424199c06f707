package capture

import (
	"context"
	"fmt"
	"time"

	"geostaff-client/internal/model"
)

// Locator resolves a geolocation fix.
type Locator interface {
	Locate(ctx context.Context) (model.Location, error)
}

type LocatorFunc func(ctx context.Context) (model.Location, error)

func (f LocatorFunc) Locate(ctx context.Context) (model.Location, error) { return f(ctx) }

// StaticLocator answers with a configured fix, e.g. coordinates passed on
// the command line. With no fix it behaves like a device without
// geolocation support.
type StaticLocator struct {
	Fix *model.Location
	Err error
}

func (s StaticLocator) Locate(ctx context.Context) (model.Location, error) {
	if err := ctx.Err(); err != nil {
		return model.Location{}, err
	}
	if s.Err != nil {
		return model.Location{}, s.Err
	}
	if s.Fix == nil {
		return model.Location{}, fmt.Errorf("geolocation: %w", ErrUnsupported)
	}
	if s.Fix.Latitude < -90 || s.Fix.Latitude > 90 || s.Fix.Longitude < -180 || s.Fix.Longitude > 180 {
		return model.Location{}, fmt.Errorf("geolocation: coordinates out of range (%.5f, %.5f)", s.Fix.Latitude, s.Fix.Longitude)
	}
	return *s.Fix, nil
}

// WithTimeout bounds every Locate call to d, whether or not the wrapped
// locator honours its context.
func WithTimeout(l Locator, d time.Duration) Locator {
	if d <= 0 {
		return l
	}
	return LocatorFunc(func(ctx context.Context) (model.Location, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		type result struct {
			loc model.Location
			err error
		}
		ch := make(chan result, 1)
		go func() {
			loc, err := l.Locate(ctx)
			ch <- result{loc, err}
		}()

		select {
		case r := <-ch:
			return r.loc, r.err
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return model.Location{}, fmt.Errorf("geolocation after %s: %w", d, ErrTimeout)
			}
			return model.Location{}, ctx.Err()
		}
	})
}
