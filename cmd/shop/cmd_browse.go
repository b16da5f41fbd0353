package main

import (
	"github.com/spf13/cobra"

	"storefront/cmd/shop/browse"
	"storefront/internal/storage"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the storefront interactively",
	Long: `Open an interactive storefront session. Navigate products with the
arrow keys, press / to search, and a to add the selected product to the
cart. The cart summary stays in sync with other shop commands run in
parallel.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cartPath := app.store.Path(storage.KeyCart)
		return browse.Run(app.api, app.cart, cartPath, app.locale, logger)
	},
}
