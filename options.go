package kbnsearch

import "time"

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	mongoURI      string
	mongoDatabase string

	cacheAddrs    []string
	cacheUsername string
	cachePassword string
	cacheDB       int

	limits       SearchLimits
	denyUnscoped bool

	optionTTL        time.Duration
	readinessTimeout time.Duration
}

// SearchLimits are the cascade tuning parameters. Zero values fall back to
// the production defaults (cap 50, thresholds 15/5, 100-record 90-day
// recency scan, 2-character minimum term).
type SearchLimits struct {
	ResultCap           int
	NamePrefixThreshold int
	RecentScanThreshold int
	RecentFetchLimit    int
	MinTermLength       int
	RecentWindow        time.Duration
}

// WithMongo configures the MongoDB connection. Required.
func WithMongo(uri, database string) Option {
	return optionFunc(func(c *clientConfig) {
		c.mongoURI = uri
		c.mongoDatabase = database
	})
}

// WithCache enables the Redis option cache for selectors.
// Without it selectors query the store on every fetch.
func WithCache(addrs []string, username, password string, db int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheAddrs = addrs
		c.cacheUsername = username
		c.cachePassword = password
		c.cacheDB = db
	})
}

// WithSearchLimits overrides the cascade tuning parameters.
func WithSearchLimits(limits SearchLimits) Option {
	return optionFunc(func(c *clientConfig) {
		c.limits = limits
	})
}

// WithUnscopedDeny makes searches by restricted callers with no configured
// province or branch scope return empty instead of unfiltered results.
func WithUnscopedDeny() Option {
	return optionFunc(func(c *clientConfig) {
		c.denyUnscoped = true
	})
}

// WithOptionTTL sets the selector option cache TTL. Default 30s.
func WithOptionTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.optionTTL = ttl
	})
}

// WithReadinessTimeout bounds the startup wait for the document store.
// Default 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}
