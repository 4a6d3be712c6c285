package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/renmeer/cartsync/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	reconnectBase = time.Second
	reconnectMax  = 30 * time.Second
)

// Refresher re-fetches a collection from the server. Satisfied by
// service.Manager.
type Refresher interface {
	Kind() domain.Kind
	Refresh(ctx context.Context) error
}

// Watcher subscribes to the server's change feed and refreshes the local
// collections when another device mutates them. A dropped connection is
// retried with exponential backoff until the context is cancelled.
type Watcher struct {
	url        string
	token      string
	refreshers map[domain.Kind]Refresher
}

// NewWatcher creates a Watcher for the given feed URL and bearer token.
// Each Refresher handles events for its own kind.
func NewWatcher(url, token string, refreshers ...Refresher) *Watcher {
	byKind := make(map[domain.Kind]Refresher, len(refreshers))
	for _, r := range refreshers {
		byKind[r.Kind()] = r
	}
	return &Watcher{url: url, token: token, refreshers: byKind}
}

// Run connects and dispatches events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	backoff := reconnectBase
	for {
		if err := w.listen(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("Change feed disconnected")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > reconnectMax {
			backoff = reconnectMax
		}
	}
}

func (w *Watcher) listen(ctx context.Context) error {
	header := http.Header{}
	if w.token != "" {
		header.Set("Authorization", "Bearer "+w.token)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, w.url, header)
	if err != nil {
		return err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	log.Info().Str("url", w.url).Msg("Change feed connected")

	// Close the connection when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		w.dispatch(ctx, data)
	}
}

func (w *Watcher) dispatch(ctx context.Context, data []byte) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		log.Warn().Err(err).Msg("Discarding malformed change-feed event")
		return
	}

	refresher, ok := w.refreshers[event.Entity.Kind()]
	if !ok {
		return
	}
	if err := refresher.Refresh(ctx); err != nil {
		log.Warn().Err(err).Str("event_type", event.Type).Msg("Refresh after change-feed event failed")
	}
}
