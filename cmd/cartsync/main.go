package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/renmeer/cartsync/internal/api"
	"github.com/renmeer/cartsync/internal/config"
	"github.com/renmeer/cartsync/internal/domain"
	"github.com/renmeer/cartsync/internal/repository/localstore"
	"github.com/renmeer/cartsync/internal/service"
	"github.com/renmeer/cartsync/internal/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var verbose bool

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cartsync",
	Short: "Storefront cart and wishlist sync client",
	Long: `cartsync keeps a storefront cart and wishlist consistent across guest
and signed-in sessions: mutations apply instantly, guests persist to a local
snapshot, and signed-in sessions mirror every change to the storefront API
with automatic rollback when the server rejects it.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		level := zerolog.WarnLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		zerolog.SetGlobalLevel(level)
		if os.Getenv("ENV") != "production" {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		}
	},
}

// app wires the sync engine the way the storefront client does: one shared
// session gate, one snapshot store, one API client, a manager per collection.
type app struct {
	cfg      *config.Config
	sess     *session.Session
	store    *localstore.Store
	client   *api.Client
	cart     *service.Manager
	wishlist *service.Manager
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	sess := session.New()
	if token := readSessionToken(cfg.StorageDir); token != "" {
		sess.SetToken(token)
	}

	store := localstore.New(cfg.StorageDir)
	client := api.NewClient(cfg.APIBaseURL, sess, cfg.SyncRateLimit, cfg.SyncBurst)
	shipping := domain.ShippingPolicy{FreeThreshold: cfg.FreeShippingThreshold, Fee: cfg.ShippingFee}
	notifier := &consoleNotifier{}

	return &app{
		cfg:      cfg,
		sess:     sess,
		store:    store,
		client:   client,
		cart:     service.NewManagerWithConfig(domain.KindCart, sess, store, client, notifier, shipping),
		wishlist: service.NewManagerWithConfig(domain.KindWishlist, sess, store, client, notifier, shipping),
	}, nil
}

func (a *app) manager(kind domain.Kind) *service.Manager {
	if kind == domain.KindCart {
		return a.cart
	}
	return a.wishlist
}

func sessionPath(dir string) string {
	return filepath.Join(dir, "session")
}

func readSessionToken(dir string) string {
	data, err := os.ReadFile(sessionPath(dir))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func writeSessionToken(dir, token string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(sessionPath(dir), []byte(token+"\n"), 0o600)
}

func clearSessionToken(dir string) {
	if err := os.Remove(sessionPath(dir)); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Failed to remove session file")
	}
}

// consoleNotifier renders sync outcomes as transient console messages, the
// CLI stand-in for toast notifications.
type consoleNotifier struct{}

func (n *consoleNotifier) SyncFailed(kind domain.Kind, op string, itemID string, err error) {
	fmt.Fprintf(os.Stderr, "! %s %s failed for %s, change reverted: %v\n", kind, op, itemID, err)
}

func (n *consoleNotifier) RefreshFailed(kind domain.Kind, err error) {
	fmt.Fprintf(os.Stderr, "! could not refresh %s, showing last known state: %v\n", kind, err)
}

func (n *consoleNotifier) CollectionChanged(kind domain.Kind, summary domain.Summary) {
	log.Debug().Str("kind", string(kind)).Int("count", summary.Count).Msg("Collection updated from server")
}

func printCollection(kind domain.Kind, m *service.Manager) {
	items := m.Items()
	if len(items) == 0 {
		fmt.Printf("%s is empty\n", kind)
		return
	}
	for _, it := range items {
		line := fmt.Sprintf("  %-12s %-24s %8s", it.ID, it.Name, it.Price.StringFixed(2))
		if it.Quantity > 0 {
			line += fmt.Sprintf("  x%d", it.Quantity)
		}
		if it.Size != "" {
			line += "  size=" + it.Size
		}
		if it.Color != "" {
			line += "  color=" + it.Color
		}
		fmt.Println(line)
	}
	s := m.Summary()
	fmt.Printf("%d item(s), subtotal %s, shipping %s, total %s\n",
		s.Count, s.Subtotal.StringFixed(2), s.Shipping.StringFixed(2), s.Total.StringFixed(2))
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		newCollectionCmd(domain.KindCart),
		newCollectionCmd(domain.KindWishlist),
		loginCmd,
		logoutCmd,
		refreshCmd,
		watchCmd,
		stubCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
