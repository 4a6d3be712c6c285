package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/renmeer/cartsync/internal/domain"
	"github.com/renmeer/cartsync/internal/stubapi"
	ws "github.com/renmeer/cartsync/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// loginCmd installs a bearer token and merges the guest snapshots into the
// account collections.
var loginCmd = &cobra.Command{
	Use:   "login TOKEN",
	Short: "Sign in and merge guest items into the account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		token := strings.TrimSpace(args[0])
		if token == "" {
			return fmt.Errorf("token must not be empty")
		}
		a.sess.SetToken(token)

		mergeErr := errors.Join(
			a.cart.Login(cmd.Context()),
			a.wishlist.Login(cmd.Context()),
		)
		if mergeErr != nil {
			// The session is still usable; unmerged items stay in the
			// guest snapshot for the next attempt.
			fmt.Fprintln(os.Stderr, "! some guest items could not be merged:", mergeErr)
		}
		if err := writeSessionToken(a.cfg.StorageDir, token); err != nil {
			return fmt.Errorf("persist session: %w", err)
		}

		fmt.Println("Signed in.")
		printCollection(domain.KindCart, a.cart)
		printCollection(domain.KindWishlist, a.wishlist)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and return to the guest collections",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		a.sess.Clear()
		clearSessionToken(a.cfg.StorageDir)
		a.cart.Logout()
		a.wishlist.Logout()
		fmt.Println("Signed out.")
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch the server copies of both collections",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if !a.sess.Authenticated() {
			return fmt.Errorf("refresh requires a signed-in session")
		}
		err = errors.Join(
			a.cart.Refresh(cmd.Context()),
			a.wishlist.Refresh(cmd.Context()),
		)
		if err != nil {
			return err
		}
		printCollection(domain.KindCart, a.cart)
		printCollection(domain.KindWishlist, a.wishlist)
		return nil
	},
}

// watchCmd follows the change feed and refreshes on remote mutations.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the change feed and mirror remote changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if !a.sess.Authenticated() {
			return fmt.Errorf("watch requires a signed-in session")
		}

		wsURL := a.cfg.WSURL
		if wsURL == "" {
			wsURL = strings.Replace(a.cfg.APIBaseURL, "http", "ws", 1) + "/ws"
		}

		if err := errors.Join(a.cart.Bootstrap(cmd.Context()), a.wishlist.Bootstrap(cmd.Context())); err != nil {
			return err
		}
		printCollection(domain.KindCart, a.cart)
		printCollection(domain.KindWishlist, a.wishlist)

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		watcher := ws.NewWatcher(wsURL, a.sess.Token(), a.cart, a.wishlist)
		log.Info().Str("url", wsURL).Msg("Watching change feed")
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

var stubToken string

// stubCmd runs the in-memory storefront API for local development.
var stubCmd = &cobra.Command{
	Use:   "stub",
	Short: "Run a local in-memory storefront API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		server := stubapi.NewServer()
		if stubToken != "" {
			server.RegisterToken(stubToken)
		} else {
			server.AllowAnyToken = true
		}

		go func() {
			log.Info().Str("port", a.cfg.Port).Msg("Starting stub API")
			if err := server.Start(":" + a.cfg.Port); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("Stub API failed")
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Info().Msg("Shutting down stub API...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Echo().Shutdown(ctx)
	},
}

func init() {
	stubCmd.Flags().StringVar(&stubToken, "token", "", "only accept this bearer token (default: accept any)")
}
