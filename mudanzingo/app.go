// Package mudanzingo wires the back office together: slot storage, the
// per-kind record stores, the session cache, the identity provider and the
// products client.
package mudanzingo

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mudanzingo/backoffice/internal/validation"
	"github.com/mudanzingo/backoffice/mudanzingo/auth"
	"github.com/mudanzingo/backoffice/mudanzingo/cache"
	"github.com/mudanzingo/backoffice/mudanzingo/products"
	"github.com/mudanzingo/backoffice/mudanzingo/records"
	"github.com/mudanzingo/backoffice/mudanzingo/slots"
	"github.com/mudanzingo/backoffice/types"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

// Config is the application configuration.
type Config struct {
	Storage     slots.Config `mapstructure:"storage"`
	Auth        auth.Config  `mapstructure:"auth"`
	ProductsURL string       `mapstructure:"products_url"`
	// NoLatency skips the artificial read and mutation delays.
	NoLatency bool `mapstructure:"no_latency"`
}

// App is an open back office session.
type App struct {
	Categories *Collection[types.Category]
	Inventory  *Collection[types.InventoryItem]
	Providers  *Collection[types.Provider]
	Products   *Collection[types.Product]
	Sellers    *Collection[types.Seller]
	Services   *Collection[types.Service]
	Quotes     *Collection[types.Quote]

	Auth *auth.Provider

	slots   slots.Slots
	session *cache.Session
	logger  *slog.Logger
}

type options struct {
	logger     *slog.Logger
	slots      slots.Slots
	sleep      cache.SleepFunc
	registerer prometheus.Registerer
	httpClient *http.Client
	now        func() time.Time
}

// Option configures Open.
type Option func(*options)

// WithLogger sets the logger of every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSlots uses s instead of opening Config.Storage. App.Close closes it.
func WithSlots(s slots.Slots) Option {
	return func(o *options) {
		o.slots = s
	}
}

// WithSleep replaces the function used for artificial delays.
func WithSleep(fn cache.SleepFunc) Option {
	return func(o *options) {
		o.sleep = fn
	}
}

// WithRegisterer registers the cache metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithHTTPClient sets the client used by the identity provider and the
// products API.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithClock replaces the clock used by provider validation and token expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Open opens the storage backend and builds every collection.
func Open(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	o := options{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sleep == nil {
		o.sleep = cache.Sleep
		if cfg.NoLatency {
			o.sleep = cache.NoSleep
		}
	}

	s := o.slots
	if s == nil {
		var err error
		s, err = slots.Open(ctx, cfg.Storage, o.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
	}

	session := cache.NewSession(
		cache.WithSleep(o.sleep),
		cache.WithMetrics(cache.NewMetrics(o.registerer)),
		cache.WithLogger(o.logger),
	)

	authOpts := []auth.Option{auth.WithLogger(o.logger), auth.WithClock(o.now)}
	productOpts := []products.Option{products.WithLogger(o.logger)}
	if o.httpClient != nil {
		authOpts = append(authOpts, auth.WithHTTPClient(o.httpClient))
		productOpts = append(productOpts, products.WithHTTPClient(o.httpClient))
	}
	provider := auth.New(cfg.Auth, s, authOpts...)
	if cfg.Auth.Enabled() {
		productOpts = append(productOpts, products.WithToken(provider.AccessToken))
	}

	ro := records.WithLogger(o.logger)
	app := &App{
		Categories: newCollection[types.Category](session, types.KindCategories, records.New(types.KindCategories, s, validation.Categories(), ro), o.logger),
		Inventory:  newCollection[types.InventoryItem](session, types.KindInventory, records.New(types.KindInventory, s, validation.Inventory(), ro), o.logger),
		Providers:  newCollection[types.Provider](session, types.KindProviders, records.New(types.KindProviders, s, validation.Providers(o.now), ro), o.logger),
		Products:   newCollection[types.Product](session, types.KindProducts, products.New(cfg.ProductsURL, productOpts...), o.logger),
		Sellers:    newCollection[types.Seller](session, types.KindSellers, records.New(types.KindSellers, s, validation.Sellers(), ro), o.logger),
		Services:   newCollection[types.Service](session, types.KindServices, records.New(types.KindServices, s, validation.Services(), ro), o.logger),
		Quotes:     newCollection[types.Quote](session, types.KindQuotes, records.New(types.KindQuotes, s, validation.Quotes(), ro), o.logger),
		Auth:       provider,
		slots:      s,
		session:    session,
		logger:     o.logger,
	}
	o.logger.Debug("application opened", "driver", cfg.Storage.Driver, "products_api", cfg.ProductsURL != "")
	return app, nil
}

// Collection returns the collection of kind.
func (a *App) Collection(kind types.Kind) (AnyCollection, error) {
	switch kind {
	case types.KindCategories:
		return a.Categories, nil
	case types.KindInventory:
		return a.Inventory, nil
	case types.KindProviders:
		return a.Providers, nil
	case types.KindProducts:
		return a.Products, nil
	case types.KindSellers:
		return a.Sellers, nil
	case types.KindServices:
		return a.Services, nil
	case types.KindQuotes:
		return a.Quotes, nil
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
}

// Metrics returns the cache and mutation metrics.
func (a *App) Metrics() *cache.Metrics { return a.session.Metrics() }

// Close discards the session cache and closes the storage backend.
func (a *App) Close() error {
	return multierr.Combine(a.session.Close(), a.slots.Close())
}
