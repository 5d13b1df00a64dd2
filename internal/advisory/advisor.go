package advisory

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const UnavailableNote = "AI advisor unavailable"

// Remote produces advice from an external service.
type Remote interface {
	Advise(ctx context.Context, req Request) (*Response, error)
}

// Advisor fronts a Remote with a response cache and a local fallback.
// Concurrent requests for the same service set share one remote call.
type Advisor struct {
	remote  Remote
	cache   *Cache
	timeout time.Duration
	group   singleflight.Group
	logger  zerolog.Logger
}

type Option func(*Advisor)

func WithTimeout(d time.Duration) Option {
	return func(a *Advisor) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// New returns an Advisor. A nil remote disables remote advice; a nil cache
// gets the default size and TTL.
func New(remote Remote, cache *Cache, logger zerolog.Logger, opts ...Option) *Advisor {
	if cache == nil {
		cache = NewCache(DefaultCacheSize, DefaultCacheTTL)
	}
	a := &Advisor{
		remote:  remote,
		cache:   cache,
		timeout: DefaultTimeout,
		logger:  logger.With().Str("component", "advisor").Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Advisor) Enabled() bool {
	return a.remote != nil
}

func (a *Advisor) CacheSize() int {
	return a.cache.Len()
}

type flight struct {
	resp   *Response
	cached bool
}

// Advise always returns a usable Response. Remote failures of any kind
// degrade to Fallback, which is never cached.
func (a *Advisor) Advise(ctx context.Context, req Request) Result {
	if a.remote == nil {
		return Result{Response: Fallback(req), Source: SourceFallback, Note: UnavailableNote, Err: ErrDisabled}
	}

	key := CacheKey(req.Services)
	if resp, ok := a.cache.Get(key); ok {
		a.logger.Debug().Str("key", key[:12]).Msg("advisory cache hit")
		return Result{Response: resp, Source: SourceCache}
	}

	// The shared call outlives any single caller; each caller stops waiting
	// on its own context instead.
	flightCtx := context.WithoutCancel(ctx)
	ch := a.group.DoChan(key, func() (any, error) {
		if resp, ok := a.cache.Get(key); ok {
			return flight{resp: resp, cached: true}, nil
		}
		resp, err := a.call(flightCtx, req)
		if err != nil {
			return nil, err
		}
		a.cache.Put(key, resp)
		return flight{resp: resp}, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		res = singleflight.Result{Err: waitError(ctx.Err())}
	}
	v, err, shared := res.Val, res.Err, res.Shared
	if err != nil {
		a.logger.Warn().Err(err).Msg("advisory service failed, using local fallback")
		return Result{Response: Fallback(req), Source: SourceFallback, Note: UnavailableNote, Err: err}
	}

	f := v.(flight)
	if f.cached {
		return Result{Response: f.resp, Source: SourceCache}
	}
	a.logger.Debug().Bool("shared", shared).Int("recommendations", len(f.resp.Recommendations)).Msg("advisory response received")
	return Result{Response: f.resp, Source: SourceRemote}
}

func (a *Advisor) call(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type outcome struct {
		resp *Response
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		resp, err := a.remote.Advise(ctx, req)
		done <- outcome{resp, err}
	}()

	select {
	case o := <-done:
		if o.err == nil && o.resp == nil {
			return nil, errors.Wrap(ErrMalformedPayload, "empty response")
		}
		return o.resp, o.err
	case <-ctx.Done():
		return nil, waitError(ctx.Err())
	}
}

func waitError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(err, "advisory request timed out")
	}
	return errors.Wrap(err, "advisory request cancelled")
}
