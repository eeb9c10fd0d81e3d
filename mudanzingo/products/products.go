// Package products is the network-backed product catalog. With a base URL it
// talks to the products HTTP API; without one it serves a fixed placeholder
// catalog so the back office stays usable before the API exists.
package products

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/mudanzingo/backoffice/internal/validation"
	"github.com/mudanzingo/backoffice/mudanzingo/records"
	"github.com/mudanzingo/backoffice/types"
)

// ErrUnsupported is returned by operations the placeholder catalog cannot
// perform.
var ErrUnsupported = errors.New("operation not supported without a products API")

// ErrMissingID is returned when the API accepts a new product without
// answering with its id.
var ErrMissingID = errors.New("POST /products: response carried no product id")

// TokenFunc returns the bearer token for the current user.
type TokenFunc func(ctx context.Context) (string, error)

// HTTPError is a non-2xx response from the products API.
type HTTPError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	return e.Message
}

// Placeholder returns the catalog served when no API is configured.
func Placeholder() []types.Product {
	return []types.Product{
		{ID: "1", Name: "Caja", Price: 10},
		{ID: "2", Name: "Palet", Price: 55},
	}
}

// Client reads and writes products.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenFunc
	schema  validation.Schema[types.Product]
	newID   func() string
	logger  *slog.Logger
}

// New creates a client for the API rooted at baseURL. An empty baseURL
// selects the placeholder catalog.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		schema:  validation.Products(),
		newID:   uuid.NewString,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Kind returns types.KindProducts.
func (c *Client) Kind() types.Kind { return types.KindProducts }

// Remote reports whether the client talks to an API.
func (c *Client) Remote() bool { return c.baseURL != "" }

// ReadAll lists every product.
func (c *Client) ReadAll(ctx context.Context) ([]types.Product, error) {
	if !c.Remote() {
		return Placeholder(), nil
	}
	var list []types.Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []types.Product{}
	}
	return list, nil
}

// Get returns the product with the given id.
func (c *Client) Get(ctx context.Context, id string) (types.Product, error) {
	list, err := c.ReadAll(ctx)
	if err != nil {
		return types.Product{}, err
	}
	for _, p := range list {
		if p.ID == id {
			return p, nil
		}
	}
	return types.Product{}, fmt.Errorf("product %q: %w", id, records.ErrNotFound)
}

// Create validates in and creates a product. Without an API the product is
// given an id but not kept anywhere.
func (c *Client) Create(ctx context.Context, in validation.Input) (types.Product, error) {
	in = in.Clone()
	delete(in, "id")
	p, err := c.schema.Parse(in)
	if err != nil {
		return types.Product{}, err
	}
	if !c.Remote() {
		p.ID = c.newID()
		return p, nil
	}
	var created types.Product
	if err := c.do(ctx, http.MethodPost, "/products", p, &created); err != nil {
		return types.Product{}, err
	}
	if created.ID == "" {
		return types.Product{}, ErrMissingID
	}
	return created, nil
}

// Update validates in and replaces the product with the same id.
func (c *Client) Update(ctx context.Context, in validation.Input) (types.Product, error) {
	if !c.Remote() {
		return types.Product{}, ErrUnsupported
	}
	p, err := c.schema.Parse(in)
	if err != nil {
		return types.Product{}, err
	}
	if p.ID == "" {
		return types.Product{}, fmt.Errorf("update without id: %w", records.ErrNotFound)
	}
	var updated types.Product
	if err := c.do(ctx, http.MethodPut, "/products/"+url.PathEscape(p.ID), p, &updated); err != nil {
		var he *HTTPError
		if errors.As(err, &he) && he.StatusCode == http.StatusNotFound {
			return types.Product{}, fmt.Errorf("product %q: %w", p.ID, records.ErrNotFound)
		}
		return types.Product{}, err
	}
	if updated.ID == "" {
		updated = p
	}
	return updated, nil
}

// Delete removes the product with the given id. Deleting an unknown id
// reports false.
func (c *Client) Delete(ctx context.Context, id string) (bool, error) {
	if !c.Remote() {
		return false, ErrUnsupported
	}
	if id == "" {
		return false, nil
	}
	err := c.do(ctx, http.MethodDelete, "/products/"+url.PathEscape(id), nil, nil)
	var he *HTTPError
	if errors.As(err, &he) && he.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// do sends one request. JSON responses are decoded into out when it is not
// nil; other bodies are ignored.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != nil {
		token, err := c.token(ctx)
		switch {
		case err != nil:
			c.logger.Debug("sending request without token", "error", err)
		case token != "":
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	c.logger.Debug("products request", "method", method, "path", path)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: msg}
	}
	if out == nil || !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}
	return nil
}
