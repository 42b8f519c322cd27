package linernotes

import (
	"github.com/LavishGent/linernotes/internal/catalog"
	"github.com/LavishGent/linernotes/internal/config"
	"github.com/LavishGent/linernotes/internal/resilience"
)

// New creates a client that resolves and fetches through the given
// collaborators. A nil cfg uses the default configuration.
func New(cfg *config.Config, resolver EntityResolver, fetcher ContentFetcher, opts ...Option) (*Client, error) {
	o := applyOptions(opts)
	c, err := newClient(cfg, o)
	if err != nil {
		return nil, err
	}
	if err := c.init(resolver, fetcher, c.cfg.Connectivity.ProbeAddress, o); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// NewWithCatalog creates a client backed by the HTTP catalog service named in
// cfg.Catalog. Catalog calls run behind a bulkhead and circuit breaker unless
// WithoutResilience is given.
func NewWithCatalog(cfg *config.Config, opts ...Option) (*Client, error) {
	o := applyOptions(opts)
	c, err := newClient(cfg, o)
	if err != nil {
		return nil, err
	}

	catCfg := c.cfg.Catalog
	if !o.CatalogAPIKey.IsEmpty() {
		catCfg.APIKey = o.CatalogAPIKey
	}
	if !o.DisableResilience {
		c.guard = resilience.NewGuard("catalog", c.cfg, c.metrics, c.logger)
	}
	cat, err := catalog.New(catCfg, c.guard, c.logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	probe := c.cfg.Connectivity.ProbeAddress
	if probe == "" {
		probe = cat.Host()
	}
	if err := c.init(cat, cat, probe, o); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// NewFromFile loads a JSON or YAML config file, applies environment
// overrides, and creates a catalog-backed client.
func NewFromFile(path string, opts ...Option) (*Client, error) {
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, err
	}
	return NewWithCatalog(cfg, opts...)
}

// Config returns a default configuration that can be modified before creating a client.
func Config() *config.Config {
	return config.DefaultConfig()
}

// TestConfig returns a configuration suitable for unit tests.
func TestConfig() *config.Config {
	return config.ForTesting()
}
