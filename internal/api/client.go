// Package api implements the REST transport for authenticated collection
// sync. The endpoints it consumes are owned by the storefront backend; this
// client only attaches the bearer credential it is handed and tolerates
// loosely-shaped responses.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/renmeer/cartsync/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const defaultTimeout = 15 * time.Second

// TokenSource supplies the bearer token attached to each request. An empty
// token sends the request unauthenticated.
type TokenSource interface {
	Token() string
}

// Client talks to the storefront collection endpoints. Requests are rate
// limited client-side so rapid UI interactions cannot stampede the server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
}

// Ensure Client implements domain.Remote
var _ domain.Remote = (*Client)(nil)

// NewClient creates a Client. requestsPerMinute and burst bound the outbound
// request rate.
func NewClient(baseURL string, tokens TokenSource, requestsPerMinute, burst int) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		tokens:     tokens,
		limiter:    rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst),
	}
}

// FetchCollection retrieves the authoritative collection for the session.
func (c *Client) FetchCollection(ctx context.Context, kind domain.Kind) (domain.RemoteResult, error) {
	return c.do(ctx, http.MethodGet, "/api/v1/"+string(kind), nil)
}

// AddItem mirrors an optimistic add to the server.
func (c *Client) AddItem(ctx context.Context, kind domain.Kind, item domain.Item) (domain.RemoteResult, error) {
	return c.do(ctx, http.MethodPost, "/api/v1/"+string(kind), item)
}

// RemoveItem mirrors an optimistic remove to the server.
func (c *Client) RemoveItem(ctx context.Context, kind domain.Kind, id string) (domain.RemoteResult, error) {
	return c.do(ctx, http.MethodDelete, "/api/v1/"+string(kind)+"/"+url.PathEscape(id), nil)
}

// UpdateQuantity sets the quantity of a cart line.
func (c *Client) UpdateQuantity(ctx context.Context, kind domain.Kind, id string, qty int) (domain.RemoteResult, error) {
	body := map[string]int{"quantity": qty}
	return c.do(ctx, http.MethodPatch, "/api/v1/"+string(kind)+"/"+url.PathEscape(id)+"/quantity", body)
}

// Clear empties the server-side collection.
func (c *Client) Clear(ctx context.Context, kind domain.Kind) (domain.RemoteResult, error) {
	return c.do(ctx, http.MethodDelete, "/api/v1/"+string(kind), nil)
}

// MoveToCart moves a wishlist entry into the cart server-side.
func (c *Client) MoveToCart(ctx context.Context, id string) (domain.RemoteResult, error) {
	return c.do(ctx, http.MethodPost, "/api/v1/wishlist/"+url.PathEscape(id)+"/move-to-cart", nil)
}

// collectionEnvelope tolerates the response shapes the backend is known to
// emit. Any of the collection fields may be absent; count may be absent.
type collectionEnvelope struct {
	Cart     *[]domain.Item `json:"cart"`
	Wishlist *[]domain.Item `json:"wishlist"`
	Items    *[]domain.Item `json:"items"`
	Count    *int           `json:"count"`
}

func (c *Client) do(ctx context.Context, method, path string, body any) (domain.RemoteResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.RemoteResult{}, fmt.Errorf("%w: %v", domain.ErrRemote, err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return domain.RemoteResult{}, fmt.Errorf("%w: encode request: %v", domain.ErrRemote, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return domain.RemoteResult{}, fmt.Errorf("%w: %v", domain.ErrRemote, err)
	}
	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("method", method).Str("path", path).Str("request_id", requestID).Msg("Sync request failed")
		return domain.RemoteResult{}, fmt.Errorf("%w: %v", domain.ErrRemote, err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Str("request_id", requestID).
		Msg("sync request")

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.RemoteResult{}, fmt.Errorf("%w: status %d", domain.ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return domain.RemoteResult{}, fmt.Errorf("%w: %s %s returned status %d", domain.ErrRemote, method, path, resp.StatusCode)
	}

	return decodeResult(resp.Body)
}

// decodeResult folds a loosely-shaped response into a RemoteResult. When the
// server omits count it is recomputed from the returned items.
func decodeResult(r io.Reader) (domain.RemoteResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.RemoteResult{}, fmt.Errorf("%w: read response: %v", domain.ErrRemote, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.RemoteResult{}, nil
	}

	var env collectionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return domain.RemoteResult{}, fmt.Errorf("%w: decode response: %v", domain.ErrRemote, err)
	}

	var res domain.RemoteResult
	for _, candidate := range []*[]domain.Item{env.Cart, env.Wishlist, env.Items} {
		if candidate != nil {
			items := *candidate
			if items == nil {
				items = []domain.Item{}
			}
			res.Items = items
			res.HasItems = true
			break
		}
	}

	if env.Count != nil {
		res.Count = env.Count
	} else if res.HasItems {
		n := len(res.Items)
		res.Count = &n
	}

	return res, nil
}
