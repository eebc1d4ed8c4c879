package query

import (
	"context"
	"strconv"
	"sync"
	"time"

	"treasury_dashboard/internal/pkg/metrics"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Status of a cached read.
type Status string

const (
	StatusPending Status = "pending"
	StatusError   Status = "error"
	StatusSuccess Status = "success"
)

// State is a snapshot of one cached read. Data is the zero value until the first
// successful fetch; a failed refetch keeps the last good Data and reports the error.
type State[T any] struct {
	Data      T
	Status    Status
	Err       error
	UpdatedAt time.Time
	Stale     bool
	Fetching  bool
}

// IsPending reports that no data has arrived yet.
func (s State[T]) IsPending() bool { return s.Status == StatusPending }

// IsError reports that the latest fetch failed.
func (s State[T]) IsError() bool { return s.Status == StatusError }

// IsSuccess reports that Data holds the latest successful fetch.
func (s State[T]) IsSuccess() bool { return s.Status == StatusSuccess }

// Result returns Data and Err, for callers that only want the value.
func (s State[T]) Result() (T, error) { return s.Data, s.Err }

// Fetcher loads the value behind a key.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Options configures a Client.
type Options struct {
	// StaleTime is how long fetched data is served without refetching.
	StaleTime time.Duration
	// GCTime is how long an untouched entry is kept.
	GCTime        time.Duration
	QueryRetry    RetryPolicy
	MutationRetry RetryPolicy
	Now           func() time.Time
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
}

type entry struct {
	key         Key
	data        any
	hasData     bool
	err         error
	updatedAt   time.Time
	invalidated bool
	fetching    int
	gen         uint64
	staleTime   time.Duration
	fetch       func(context.Context) (any, error)

	// flightKey is unique per entry, so a fetch started for a removed entry is never
	// joined by its replacement.
	flightKey string
}

// Client is a keyed cache of reads. Concurrent fetches of one key share a single call,
// entries go stale after StaleTime, and invalidation marks entries stale and refetches
// them in the background.
type Client struct {
	opts   Options
	store  *cache.Cache
	mu     sync.Mutex // guards entry fields and seq
	seq    uint64
	flight singleflight.Group
	bg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
}

// NewClient creates a Client. Zero durations fall back to 30s stale time and 5m gc time.
func NewClient(opts Options) *Client {
	if opts.StaleTime <= 0 {
		opts.StaleTime = 30 * time.Second
	}
	if opts.GCTime <= 0 {
		opts.GCTime = 5 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	cleanup := opts.GCTime / 2
	if cleanup < time.Second {
		cleanup = time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		opts:   opts,
		store:  cache.New(opts.GCTime, cleanup),
		ctx:    ctx,
		cancel: cancel,
		logger: opts.Logger.Named("QueryClient"),
	}
	c.store.OnEvicted(func(k string, _ interface{}) {
		c.opts.Metrics.ObserveEviction()
		c.logger.Debug("Cache entry collected", zap.String("key", k))
	})
	return c
}

// Close cancels background refetches and waits for them to return.
func (c *Client) Close() {
	c.cancel()
	c.bg.Wait()
}

// Wait blocks until every background refetch started so far has finished.
func (c *Client) Wait() {
	c.bg.Wait()
}

// entryFor returns the entry for key, creating it. The gc timer restarts on each access.
func (c *Client) entryFor(key Key) (string, *entry) {
	k := key.String()
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.store.Get(k); ok {
		e := v.(*entry)
		c.store.SetDefault(k, e)
		return k, e
	}
	c.seq++
	e := &entry{key: key, flightKey: k + "#" + strconv.FormatUint(c.seq, 10), staleTime: c.opts.StaleTime}
	c.store.SetDefault(k, e)
	return k, e
}

func (c *Client) existing(key Key) (*entry, bool) {
	v, ok := c.store.Get(key.String())
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

// isStale must be called with c.mu held.
func (c *Client) isStale(e *entry) bool {
	return !e.hasData || e.invalidated || c.opts.Now().Sub(e.updatedAt) >= e.staleTime
}

func snapshot[T any](c *Client, e *entry) State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := State[T]{
		UpdatedAt: e.updatedAt,
		Err:       e.err,
		Fetching:  e.fetching > 0,
	}
	if e.hasData {
		st.Data, _ = e.data.(T)
		st.Stale = c.isStale(e)
	}
	switch {
	case e.err != nil:
		st.Status = StatusError
	case e.hasData:
		st.Status = StatusSuccess
	default:
		st.Status = StatusPending
	}
	return st
}

// load runs the entry's fetcher once for all concurrent callers. The fetch itself runs
// on the client's context; ctx only bounds how long this caller waits.
func (c *Client) load(ctx context.Context, k string, e *entry) error {
	ch := c.flight.DoChan(e.flightKey, func() (interface{}, error) {
		c.mu.Lock()
		fetch := e.fetch
		startGen := e.gen
		e.fetching++
		c.mu.Unlock()

		var out any
		err := c.opts.QueryRetry.Do(c.ctx, func(ctx context.Context) error {
			v, err := fetch(ctx)
			if err == nil {
				out = v
			}
			return err
		})

		c.mu.Lock()
		e.fetching--
		switch {
		case err != nil:
			e.err = err
		case startGen == e.gen:
			e.data, e.hasData, e.err = out, true, nil
			e.updatedAt = c.opts.Now()
			e.invalidated = false
		case !e.hasData:
			// Invalidated mid-flight: keep the result but leave the entry stale.
			e.data, e.hasData, e.err = out, true, nil
			e.updatedAt = c.opts.Now()
		}
		c.mu.Unlock()

		if err != nil {
			c.logger.Warn("Query fetch failed", zap.String("key", k), zap.Error(err))
		}
		return out, err
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case r := <-ch:
		return r.Err
	}
}

// FetchOption customizes a single Fetch.
type FetchOption func(*fetchOptions)

type fetchOptions struct {
	staleTime time.Duration
}

// WithStaleTime overrides the client stale time for this key.
func WithStaleTime(d time.Duration) FetchOption {
	return func(o *fetchOptions) {
		if d > 0 {
			o.staleTime = d
		}
	}
}

func (c *Client) register(key Key, fetch func(context.Context) (any, error), opts []FetchOption) (string, *entry, bool) {
	o := fetchOptions{staleTime: c.opts.StaleTime}
	for _, opt := range opts {
		opt(&o)
	}
	k, e := c.entryFor(key)
	c.mu.Lock()
	e.fetch = fetch
	e.staleTime = o.staleTime
	stale := c.isStale(e)
	hasData := e.hasData
	c.mu.Unlock()

	result := "hit"
	switch {
	case !hasData:
		result = "miss"
	case stale:
		result = "stale"
	}
	c.opts.Metrics.ObserveLookup(key.Resource(), result)
	return k, e, stale
}

func erase[T any](fn Fetcher[T]) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		return fn(ctx)
	}
}

// Fetch returns the cached value for key when it is fresh, otherwise loads it with fn
// (shared with any concurrent Fetch of the same key) and returns the new state.
func Fetch[T any](ctx context.Context, c *Client, key Key, fn Fetcher[T], opts ...FetchOption) State[T] {
	k, e, stale := c.register(key, erase(fn), opts)
	if stale {
		if err := c.load(ctx, k, e); err != nil && ctx.Err() != nil {
			st := snapshot[T](c, e)
			st.Err, st.Status = ctx.Err(), StatusError
			return st
		}
	}
	return snapshot[T](c, e)
}

// Prefetch starts loading key in the background when it is missing or stale.
func Prefetch[T any](c *Client, key Key, fn Fetcher[T], opts ...FetchOption) {
	k, e, stale := c.register(key, erase(fn), opts)
	if !stale {
		return
	}
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		_ = c.load(c.ctx, k, e)
	}()
}

// Peek returns the current state of key without fetching.
func Peek[T any](c *Client, key Key) State[T] {
	e, ok := c.existing(key)
	if !ok {
		return State[T]{Status: StatusPending}
	}
	return snapshot[T](c, e)
}

// SetData stores v as fresh data for key, as if it had just been fetched.
func SetData[T any](c *Client, key Key, v T) {
	_, e := c.entryFor(key)
	c.mu.Lock()
	e.data, e.hasData, e.err = v, true, nil
	e.updatedAt = c.opts.Now()
	e.invalidated = false
	e.gen++
	c.mu.Unlock()
}

func (c *Client) matching(prefixes []Key) map[string]*entry {
	out := make(map[string]*entry)
	for k, item := range c.store.Items() {
		e := item.Object.(*entry)
		for _, prefix := range prefixes {
			if e.key.HasPrefix(prefix) {
				out[k] = e
				break
			}
		}
	}
	return out
}

// Invalidate marks every entry under any of the prefixes stale. Entries that have been
// fetched before are refetched in the background, once each; Invalidate does not wait
// for them.
func (c *Client) Invalidate(prefixes ...Key) {
	for k, e := range c.matching(prefixes) {
		c.mu.Lock()
		e.invalidated = true
		e.gen++
		active := e.fetch != nil
		c.mu.Unlock()

		c.logger.Debug("Query invalidated", zap.String("key", k), zap.Bool("refetch", active))
		if !active {
			continue
		}
		c.opts.Metrics.ObserveRefetch(e.key.Resource())
		c.bg.Add(1)
		go func(k string, e *entry) {
			defer c.bg.Done()
			c.flight.Forget(e.flightKey)
			_ = c.load(c.ctx, k, e)
		}(k, e)
	}
}

// Remove drops every entry under any of the prefixes. A fetch still in flight for a
// removed entry completes into the dropped entry only.
func (c *Client) Remove(prefixes ...Key) {
	for k, e := range c.matching(prefixes) {
		c.store.Delete(k)
		c.flight.Forget(e.flightKey)
	}
}

// Len is the number of cached entries.
func (c *Client) Len() int {
	return c.store.ItemCount()
}
