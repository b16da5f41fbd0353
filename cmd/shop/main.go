// Command shop is a terminal storefront client: browse products, keep a
// local cart, and place or cancel orders against the remote gateway.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"storefront/internal/api"
	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/storage"
)

var (
	// Global flags
	cfgPath string
	apiURL  string
	verbose bool
	timeout time.Duration

	// Logger
	logger *zap.Logger

	// Shared wiring, built once per invocation
	app *appContext
)

// appContext holds the wired client services the commands share.
type appContext struct {
	cfg    *config.Config
	store  *storage.FileStore
	auth   *auth.Manager
	api    *api.Client
	cart   *cart.Manager
	locale string
}

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "shop",
	Short: "shop - terminal storefront client",
	Long: `shop is a storefront client for the terminal.

It talks to the remote e-commerce gateway for products and orders, and keeps
your cart and session in a durable local store under ~/.shop, so the cart
survives between invocations exactly like a browser cart would.

Typical session:
  shop login --email you@example.com --password ...
  shop products --search mug
  shop cart add <product-id>
  shop checkout --address "1 Long Street, Springfield" ...
  shop orders

Run 'shop browse' for an interactive storefront session.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return initApp()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func initApp() error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	if timeout > 0 {
		cfg.API.Timeout = timeout.String()
	}

	store, err := storage.NewFileStore(cfg.Storage.Dir)
	if err != nil {
		return fmt.Errorf("failed to open local store: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.GetAPITimeout()}
	authMgr := auth.NewManager(store, cfg.API.BaseURL+"/api/v1", httpClient, logger)
	client := api.New(cfg.API.BaseURL, authMgr, logger)
	client.SetHTTPClient(httpClient)

	app = &appContext{
		cfg:    cfg,
		store:  store,
		auth:   authMgr,
		api:    client,
		cart:   cart.NewManager(store),
		locale: cfg.Display.Locale,
	}
	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath(), "config file")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "gateway base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "request timeout (overrides config)")

	rootCmd.AddCommand(productsCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(cartCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(ordersCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(browseCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
