package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"gridstack/internal/models"
)

// DefaultLimit caps product lists when the caller passes no limit.
const DefaultLimit = 50

// maxResponseSize bounds how much of an upstream body is read.
const maxResponseSize = 16 << 20

// Gateway is the read surface the rest of the service uses.
type Gateway interface {
	Products(ctx context.Context, typeIDs []string, limit int) ([]models.Product, error)
	Product(ctx context.Context, id string) (models.Product, error)
	Relationships(ctx context.Context, ids []string) ([]models.Product, error)
}

// Options configures a Client.
type Options struct {
	URL          string
	HTTP         *http.Client // optional; built from Timeout when nil
	Timeout      time.Duration
	DefaultLimit int
	CacheTTL     time.Duration // zero disables caching
}

// Client talks GraphQL over HTTP to the upstream catalog.
type Client struct {
	url          string
	http         *http.Client
	defaultLimit int
	cache        *listCache
}

var _ Gateway = (*Client)(nil)

// New builds a Client from opts.
func New(opts Options) *Client {
	httpClient := opts.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	limit := opts.DefaultLimit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Client{
		url:          opts.URL,
		http:         httpClient,
		defaultLimit: limit,
		cache:        newListCache(opts.CacheTTL),
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// Products lists products whose type is any of typeIDs, highest connection
// score first. A limit of zero or less uses the default limit.
func (c *Client) Products(ctx context.Context, typeIDs []string, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = c.defaultLimit
	}
	key := listKey(typeIDs, limit)
	if cached, ok := c.cache.get(key); ok {
		logrus.WithField("key", key).Debug("catalog cache hit")
		return cached, nil
	}

	var data productsData
	vars := map[string]any{"productTypeIds": typeIDs, "limit": limit}
	if err := c.query(ctx, "products", productsByTypeQuery, vars, &data); err != nil {
		return nil, err
	}
	products := SortByConnectionScore(normalizeAll(data.Products))
	c.cache.put(key, products)
	return products, nil
}

// Product fetches one product with its extended detail fields.
func (c *Client) Product(ctx context.Context, id string) (models.Product, error) {
	var data productsData
	if err := c.query(ctx, "product", productDetailsQuery, map[string]any{"productId": id}, &data); err != nil {
		return models.Product{}, err
	}
	if len(data.Products) == 0 {
		return models.Product{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return normalize(data.Products[0]), nil
}

// Relationships fetches the relationship fields of the given products.
func (c *Client) Relationships(ctx context.Context, ids []string) ([]models.Product, error) {
	var data productsData
	if err := c.query(ctx, "relationships", productRelationshipsQuery, map[string]any{"productIds": ids}, &data); err != nil {
		return nil, err
	}
	return normalizeAll(data.Products), nil
}

// PurgeCache drops every cached product list.
func (c *Client) PurgeCache() { c.cache.purge() }

func (c *Client) query(ctx context.Context, op, query string, vars map[string]any, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(graphQLRequest{Query: query, Variables: vars}); err != nil {
		return fmt.Errorf("catalog %s: encode request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, buf)
	if err != nil {
		return fmt.Errorf("catalog %s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logrus.WithError(err).WithField("op", op).Warn("catalog request failed")
		return &UpstreamUnavailableError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	logrus.WithFields(logrus.Fields{
		"op":       op,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("catalog request")

	if resp.StatusCode/100 != 2 {
		logrus.WithFields(logrus.Fields{"op": op, "status": resp.Status}).Warn("catalog upstream returned an error status")
		return &UpstreamUnavailableError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &UpstreamUnavailableError{Op: op, Err: err}
	}

	var gr graphQLResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return &UpstreamDataError{Op: op, Err: err}
	}
	if len(gr.Errors) > 0 {
		msgs := make([]string, 0, len(gr.Errors))
		for _, e := range gr.Errors {
			msgs = append(msgs, e.Message)
		}
		logrus.WithFields(logrus.Fields{"op": op, "errors": msgs}).Warn("catalog upstream reported graphql errors")
		return &UpstreamDataError{Op: op, Messages: msgs}
	}
	if len(gr.Data) == 0 || string(gr.Data) == "null" {
		return &UpstreamDataError{Op: op, Err: errors.New("response has no data")}
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return &UpstreamDataError{Op: op, Err: err}
	}
	return nil
}
