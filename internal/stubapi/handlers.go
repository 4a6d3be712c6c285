package stubapi

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/renmeer/cartsync/internal/domain"
	ws "github.com/renmeer/cartsync/internal/websocket"
	"github.com/rs/zerolog/log"
)

func parseKind(c echo.Context) (domain.Kind, error) {
	kind := domain.Kind(c.Param("kind"))
	if !kind.Valid() {
		return "", NewNotFoundError(c, "Unknown collection")
	}
	return kind, nil
}

// payload builds the response envelope the client expects: the collection
// under its kind-named field plus a count.
func payload(kind domain.Kind, items []domain.Item) map[string]any {
	return map[string]any{
		string(kind): items,
		"count":      len(items),
	}
}

func (s *Server) getCollection(c echo.Context) error {
	kind, err := parseKind(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payload(kind, s.Collection(token(c), kind)))
}

func (s *Server) addItem(c echo.Context) error {
	kind, err := parseKind(c)
	if err != nil {
		return err
	}

	var item domain.Item
	if err := c.Bind(&item); err != nil {
		return NewValidationError(c, "Invalid request body")
	}
	if kind == domain.KindCart && item.Quantity == 0 {
		item.Quantity = 1
	}
	if err := item.Validate(kind); err != nil {
		return NewValidationError(c, err.Error())
	}

	tok := token(c)
	s.mu.Lock()
	items := s.accounts[tok][kind]
	if next, _, added := domain.Add(items, item); added {
		s.accounts[tok][kind] = next
		items = next
	}
	out := domain.CloneItems(items)
	s.mu.Unlock()

	s.hub.Publish(tok, ws.CollectionChanged(kind, len(out)))
	return c.JSON(http.StatusOK, payload(kind, out))
}

func (s *Server) removeItem(c echo.Context) error {
	kind, err := parseKind(c)
	if err != nil {
		return err
	}
	id := c.Param("id")

	tok := token(c)
	s.mu.Lock()
	items := s.accounts[tok][kind]
	next, _, removed := domain.Remove(items, id)
	if removed {
		s.accounts[tok][kind] = next
		items = next
	}
	out := domain.CloneItems(items)
	s.mu.Unlock()

	if !removed {
		return NewNotFoundError(c, "Item not in collection")
	}

	s.hub.Publish(tok, ws.CollectionChanged(kind, len(out)))
	return c.JSON(http.StatusOK, payload(kind, out))
}

func (s *Server) clearCollection(c echo.Context) error {
	kind, err := parseKind(c)
	if err != nil {
		return err
	}

	tok := token(c)
	s.mu.Lock()
	s.accounts[tok][kind] = []domain.Item{}
	s.mu.Unlock()

	s.hub.Publish(tok, ws.NewEvent(ws.EventTypeCleared, ws.EntityForKind(kind), 0))
	return c.JSON(http.StatusOK, payload(kind, []domain.Item{}))
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (s *Server) updateQuantity(c echo.Context) error {
	id := c.Param("id")

	var req quantityRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}

	tok := token(c)
	s.mu.Lock()
	items := s.accounts[tok][domain.KindCart]
	next, _, err := domain.SetQuantity(items, id, req.Quantity)
	if err == nil {
		s.accounts[tok][domain.KindCart] = next
		items = next
	}
	out := domain.CloneItems(items)
	s.mu.Unlock()

	switch err {
	case nil:
	case domain.ErrItemNotFound:
		return NewNotFoundError(c, "Item not in cart")
	default:
		return NewValidationError(c, err.Error())
	}

	s.hub.Publish(tok, ws.CartChanged(len(out)))
	return c.JSON(http.StatusOK, payload(domain.KindCart, out))
}

func (s *Server) moveToCart(c echo.Context) error {
	id := c.Param("id")

	tok := token(c)
	s.mu.Lock()
	wishlist := s.accounts[tok][domain.KindWishlist]
	idx := domain.IndexOf(wishlist, id)
	if idx < 0 {
		s.mu.Unlock()
		return NewNotFoundError(c, "Item not in wishlist")
	}
	item := wishlist[idx]
	item.Quantity = domain.MinQuantity

	next, _, _ := domain.Remove(wishlist, id)
	s.accounts[tok][domain.KindWishlist] = next

	cart := s.accounts[tok][domain.KindCart]
	if cartNext, _, added := domain.Add(cart, item); added {
		s.accounts[tok][domain.KindCart] = cartNext
		cart = cartNext
	}
	wishlistOut := domain.CloneItems(next)
	cartCount := len(cart)
	s.mu.Unlock()

	s.hub.Publish(tok, ws.WishlistChanged(len(wishlistOut)))
	s.hub.Publish(tok, ws.CartChanged(cartCount))

	// The envelope carries one collection; the move returns the wishlist it
	// came from and the client refreshes the cart.
	return c.JSON(http.StatusOK, payload(domain.KindWishlist, wishlistOut))
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Server) changeFeed(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return nil
	}

	client := ws.NewClient(conn, token(c), s.hub)
	s.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
	return nil
}
