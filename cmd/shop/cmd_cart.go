package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"storefront/cmd/shop/ui"
	"storefront/internal/cart"
	"storefront/internal/money"
)

var cartQty int

// cartCmd groups the local cart operations.
var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Manage the local shopping cart",
	Long: `Manage the client-local shopping cart.

The cart lives in the local store and survives between invocations. Prices
shown here are the catalog prices at the time the product was added; the
server recomputes authoritative pricing when the order is placed.

Available subcommands:
  show   - Show cart lines and total (default)
  add    - Add a product by id
  set    - Set a line's quantity (0 removes it)
  remove - Remove a line
  clear  - Empty the cart`,
	RunE: runCartShow,
}

var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show cart lines and total",
	RunE:  runCartShow,
}

var cartAddCmd = &cobra.Command{
	Use:   "add <product-id>",
	Short: "Add a product to the cart",
	Args:  cobra.ExactArgs(1),
	RunE:  runCartAdd,
}

var cartSetCmd = &cobra.Command{
	Use:   "set <product-id> <quantity>",
	Short: "Set a line's quantity; 0 removes the line",
	Args:  cobra.ExactArgs(2),
	RunE:  runCartSet,
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove <product-id>",
	Short: "Remove a line from the cart",
	Args:  cobra.ExactArgs(1),
	RunE:  runCartRemove,
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.cart.Clear(); err != nil {
			return err
		}
		fmt.Println("Cart cleared.")
		return nil
	},
}

func runCartShow(cmd *cobra.Command, args []string) error {
	items := app.cart.Items()
	printCart(items)
	return nil
}

func printCart(items []cart.Item) {
	if len(items) == 0 {
		fmt.Println("Your cart is empty. Add some products to get started!")
		return
	}

	styles := ui.NewStyles(ui.DetectTheme())
	table := ui.NewTable("Shopping Cart", "PRODUCT", "UNIT PRICE", "QTY", "LINE TOTAL")
	for _, it := range items {
		line := it.Price.Mul(int64(it.Quantity))
		table.AddRow(
			it.ProductName,
			money.FormatMinorLocale(it.Price.Amount, it.Price.Currency, app.locale),
			strconv.Itoa(it.Quantity),
			money.FormatMinorLocale(line.Amount, line.Currency, app.locale),
		)
	}
	fmt.Print(table.View(styles))

	total := cart.Total(items)
	fmt.Println(styles.Bold.Render("Total: " +
		money.FormatMinorLocale(total.AmountMinor, total.Currency, app.locale)))
	if _, err := cart.TotalStrict(items); err != nil {
		fmt.Println(styles.Warning.Render("Warning: cart mixes currencies; checkout will refuse it."))
	}
}

func runCartAdd(cmd *cobra.Command, args []string) error {
	product, err := app.api.Product(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to look up product: %w", err)
	}
	if product.StockQuantity == 0 {
		return fmt.Errorf("%s is out of stock", product.Name)
	}

	items, err := app.cart.Add(product, cartQty)
	if err != nil {
		return err
	}
	fmt.Printf("Added %s to cart.\n", product.Name)
	printCart(items)
	return nil
}

func runCartSet(cmd *cobra.Command, args []string) error {
	qty, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("quantity must be a number: %w", err)
	}
	items, err := app.cart.SetQuantity(args[0], qty)
	if err != nil {
		return err
	}
	printCart(items)
	return nil
}

func runCartRemove(cmd *cobra.Command, args []string) error {
	items, err := app.cart.Remove(args[0])
	if err != nil {
		return err
	}
	printCart(items)
	return nil
}

func init() {
	cartAddCmd.Flags().IntVar(&cartQty, "qty", 1, "quantity to add")
	cartCmd.AddCommand(cartShowCmd)
	cartCmd.AddCommand(cartAddCmd)
	cartCmd.AddCommand(cartSetCmd)
	cartCmd.AddCommand(cartRemoveCmd)
	cartCmd.AddCommand(cartClearCmd)
}
