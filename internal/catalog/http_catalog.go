package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/abgdnv/procurehub/internal/config"
	"github.com/abgdnv/procurehub/internal/inventory"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxResponseBytes = 10 << 20

var _ inventory.RemoteCatalog = (*HTTPCatalog)(nil)

// HTTPCatalog talks to a PostgREST endpoint such as the Supabase REST API.
type HTTPCatalog struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

// NewHTTPCatalog builds a client for <baseURL>/rest/v1/<table>.
func NewHTTPCatalog(cfg config.HTTPCatalogConfig) *HTTPCatalog {
	return &HTTPCatalog{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/rest/v1/" + cfg.Table,
		apiKey:   cfg.APIKey,
	}
}

func (c *HTTPCatalog) FetchAll(ctx context.Context) ([]inventory.Product, error) {
	q := url.Values{"select": {"*"}, "order": {"createdAt.asc"}}
	body, err := c.do(ctx, http.MethodGet, q, nil)
	if err != nil {
		return nil, err
	}
	return decodeProducts(body)
}

func (c *HTTPCatalog) Insert(ctx context.Context, in inventory.ProductInput) (inventory.Product, error) {
	body, err := c.do(ctx, http.MethodPost, nil, in)
	if err != nil {
		return inventory.Product{}, err
	}
	return decodeSingle(body)
}

// Update patches the row with the given id. Locally synthesized ids never exist remotely
// and yield ErrNotInCatalog without a request.
func (c *HTTPCatalog) Update(ctx context.Context, id string, patch inventory.ProductPatch) error {
	if inventory.IsLocalID(id) {
		return ErrNotInCatalog
	}
	body, err := c.do(ctx, http.MethodPatch, byID(id), patch)
	if err != nil {
		return err
	}
	return expectRows(body)
}

func (c *HTTPCatalog) Delete(ctx context.Context, id string) error {
	if inventory.IsLocalID(id) {
		return ErrNotInCatalog
	}
	body, err := c.do(ctx, http.MethodDelete, byID(id), nil)
	if err != nil {
		return err
	}
	return expectRows(body)
}

func byID(id string) url.Values {
	return url.Values{"id": {"eq." + id}}
}

// expectRows turns an empty representation into ErrNotInCatalog.
func expectRows(body []byte) error {
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return fmt.Errorf("%w: %v", inventory.ErrMalformedPayload, err)
	}
	if len(rows) == 0 {
		return ErrNotInCatalog
	}
	return nil
}

// do sends one request and returns the response body of a 2xx answer.
func (c *HTTPCatalog) do(ctx context.Context, method string, query url.Values, payload any) ([]byte, error) {
	target := c.endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}
