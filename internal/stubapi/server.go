// Package stubapi is an in-memory implementation of the storefront
// collection API consumed by this module. The production API is owned by the
// backend team; this server exists so the sync engine can be exercised in
// tests and local development, websocket change feed included.
package stubapi

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/renmeer/cartsync/internal/domain"
	ws "github.com/renmeer/cartsync/internal/websocket"
	"github.com/rs/zerolog/log"
)

// Server holds authoritative collections keyed by bearer token. Unknown
// tokens are rejected with 401 unless AllowAnyToken is set.
type Server struct {
	echo *echo.Echo
	hub  *ws.Hub

	mu       sync.Mutex
	accounts map[string]map[domain.Kind][]domain.Item

	// AllowAnyToken auto-creates an account for any non-empty bearer token.
	AllowAnyToken bool
}

// NewServer creates a Server with its routes registered.
func NewServer() *Server {
	s := &Server{
		echo:     echo.New(),
		hub:      ws.NewHub(),
		accounts: make(map[string]map[domain.Kind][]domain.Item),
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true

	s.echo.Use(echomiddleware.RequestID())
	s.echo.Use(zerologMiddleware())
	s.echo.Use(echomiddleware.Recover())

	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := s.echo.Group("/api/v1")
	api.Use(s.authenticate)
	api.GET("/:kind", s.getCollection)
	api.POST("/:kind", s.addItem)
	api.DELETE("/:kind", s.clearCollection)
	api.DELETE("/:kind/:id", s.removeItem)
	api.PATCH("/cart/:id/quantity", s.updateQuantity)
	api.POST("/wishlist/:id/move-to-cart", s.moveToCart)

	feed := s.echo.Group("/ws")
	feed.Use(s.authenticate)
	feed.GET("", s.changeFeed)

	return s
}

// Handler returns the http.Handler for test servers.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until Shutdown.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Echo exposes the underlying echo instance for graceful shutdown.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// RegisterToken creates an empty account for token.
func (s *Server) RegisterToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[token]; !ok {
		s.accounts[token] = map[domain.Kind][]domain.Item{
			domain.KindCart:     {},
			domain.KindWishlist: {},
		}
	}
}

// SeedCollection replaces the authoritative collection for a token, as if
// another device had mutated it, and broadcasts the change.
func (s *Server) SeedCollection(token string, kind domain.Kind, items []domain.Item) {
	s.RegisterToken(token)
	s.mu.Lock()
	s.accounts[token][kind] = domain.CloneItems(items)
	count := len(items)
	s.mu.Unlock()
	s.hub.Publish(token, ws.CollectionChanged(kind, count))
}

// Collection returns a copy of the authoritative collection for a token.
func (s *Server) Collection(token string, kind domain.Kind) []domain.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acct, ok := s.accounts[token]; ok {
		return domain.CloneItems(acct[kind])
	}
	return nil
}

const tokenKey = "stubapi.token"

func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return NewUnauthorizedError(c, "Bearer token required")
		}

		s.mu.Lock()
		_, known := s.accounts[token]
		s.mu.Unlock()
		if !known {
			if !s.AllowAnyToken {
				return NewUnauthorizedError(c, "Unknown token")
			}
			s.RegisterToken(token)
		}

		c.Set(tokenKey, token)
		return next(c)
	}
}

func token(c echo.Context) string {
	t, _ := c.Get(tokenKey).(string)
	return t
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Debug().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("stub request")

			return nil
		}
	}
}
