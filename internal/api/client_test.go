package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/renmeer/cartsync/internal/domain"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, handler func(e *echo.Echo), token string) *Client {
	t.Helper()
	e := echo.New()
	handler(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, staticToken(token), 600, 100)
}

func TestFetchCollection_FullEnvelope(t *testing.T) {
	client := newTestClient(t, func(e *echo.Echo) {
		e.GET("/api/v1/cart", func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") != "Bearer tok" {
				return c.NoContent(http.StatusUnauthorized)
			}
			if c.Request().Header.Get("X-Request-ID") == "" {
				t.Error("expected X-Request-ID header")
			}
			return c.JSON(http.StatusOK, map[string]any{
				"cart":  []map[string]any{{"id": "p1", "name": "A", "price": "499", "quantity": 1}},
				"count": 1,
			})
		})
	}, "tok")

	res, err := client.FetchCollection(context.Background(), domain.KindCart)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !res.HasItems || len(res.Items) != 1 || res.Items[0].ID != "p1" {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.Count == nil || *res.Count != 1 {
		t.Errorf("count = %v, want 1", res.Count)
	}
}

func TestFetchCollection_CountRecomputedWhenAbsent(t *testing.T) {
	client := newTestClient(t, func(e *echo.Echo) {
		e.GET("/api/v1/wishlist", func(c echo.Context) error {
			return c.JSON(http.StatusOK, map[string]any{
				"wishlist": []map[string]any{
					{"id": "p1", "name": "A", "price": "10"},
					{"id": "p2", "name": "B", "price": "20"},
				},
			})
		})
	}, "tok")

	res, err := client.FetchCollection(context.Background(), domain.KindWishlist)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Count == nil || *res.Count != 2 {
		t.Errorf("count = %v, want recomputed 2", res.Count)
	}
}

func TestFetchCollection_EmptyBodyTolerated(t *testing.T) {
	client := newTestClient(t, func(e *echo.Echo) {
		e.GET("/api/v1/cart", func(c echo.Context) error {
			return c.NoContent(http.StatusNoContent)
		})
	}, "tok")

	res, err := client.FetchCollection(context.Background(), domain.KindCart)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.HasItems {
		t.Error("empty body must not claim an authoritative collection")
	}
	if res.Count != nil {
		t.Errorf("count = %v, want nil", res.Count)
	}
}

func TestUnauthorized_MapsToSentinel(t *testing.T) {
	client := newTestClient(t, func(e *echo.Echo) {
		e.GET("/api/v1/cart", func(c echo.Context) error {
			return c.NoContent(http.StatusUnauthorized)
		})
	}, "expired")

	_, err := client.FetchCollection(context.Background(), domain.KindCart)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestServerError_WrapsErrRemote(t *testing.T) {
	client := newTestClient(t, func(e *echo.Echo) {
		e.POST("/api/v1/cart", func(c echo.Context) error {
			return c.NoContent(http.StatusInternalServerError)
		})
	}, "tok")

	_, err := client.AddItem(context.Background(), domain.KindCart, domain.Item{ID: "p1", Name: "A", Quantity: 1})
	if !errors.Is(err, domain.ErrRemote) {
		t.Errorf("expected ErrRemote, got %v", err)
	}
	if errors.Is(err, domain.ErrUnauthorized) {
		t.Error("500 must not map to ErrUnauthorized")
	}
}

func TestRemoveItem_EscapesIdentity(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(e *echo.Echo) {
		e.DELETE("/api/v1/wishlist/:id", func(c echo.Context) error {
			gotPath = c.Request().URL.EscapedPath()
			return c.JSON(http.StatusOK, map[string]any{"wishlist": []any{}})
		})
	}, "tok")

	_, err := client.RemoveItem(context.Background(), domain.KindWishlist, "p 1/x")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotPath != "/api/v1/wishlist/p%201%2Fx" {
		t.Errorf("path = %s", gotPath)
	}
}

func TestContextCancellation(t *testing.T) {
	client := newTestClient(t, func(e *echo.Echo) {
		e.GET("/api/v1/cart", func(c echo.Context) error {
			<-c.Request().Context().Done()
			return c.NoContent(http.StatusOK)
		})
	}, "tok")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.FetchCollection(ctx, domain.KindCart)
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
