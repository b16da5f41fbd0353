package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"storefront/cmd/shop/ui"
	"storefront/internal/money"
	"storefront/internal/types"
)

// ordersCmd lists the user's orders.
var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List your orders",
	Long: `List your orders with their current status.

The order lifecycle (PENDING, CONFIRMED, PROCESSING, SHIPPED, DELIVERED,
CANCELLED) is owned by the remote order service; only PENDING orders can be
cancelled.

Available subcommands:
  cancel - Request cancellation of a PENDING order`,
	RunE: runOrders,
}

var ordersCancelCmd = &cobra.Command{
	Use:   "cancel <order-id>",
	Short: "Request cancellation of a PENDING order",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrdersCancel,
}

func runOrders(cmd *cobra.Command, args []string) error {
	if !app.auth.Authenticated() {
		fmt.Println("Log in to see your orders: shop login")
		return nil
	}

	orders, err := app.api.Orders(cmd.Context())
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Println("No orders found. You haven't placed any orders yet.")
		return nil
	}

	styles := ui.NewStyles(ui.DetectTheme())
	for _, order := range orders {
		printOrder(styles, order)
	}
	return nil
}

func printOrder(styles ui.Styles, order types.Order) {
	badge := styles.StatusBadge.Foreground(lipgloss.Color("#ffffff")).
		Background(ui.StatusColor(order.Status)).
		Render(order.Status)
	fmt.Printf("%s %s\n", styles.Subtitle.Render("Order "+order.ID), badge)
	if order.CreatedAt != "" {
		fmt.Println(styles.Muted.Render("Placed: " + order.CreatedAt))
	}
	if order.ShippingAddress != "" {
		fmt.Println(styles.Muted.Render("Ship to: " + order.ShippingAddress))
	}

	for _, it := range order.Items {
		fmt.Printf("  %dx %s  %s\n", it.Quantity, it.ProductName,
			money.FormatMinorLocale(it.Total.Amount, it.Total.Currency, app.locale))
	}
	fmt.Println(styles.Bold.Render("  Total: " +
		money.FormatMinorLocale(order.TotalAmount.Amount, order.TotalAmount.Currency, app.locale)))
	if order.Cancellable() {
		fmt.Println(styles.Muted.Render("  Cancel with: shop orders cancel " + order.ID))
	}
	fmt.Println()
}

func runOrdersCancel(cmd *cobra.Command, args []string) error {
	order, err := app.api.CancelOrder(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}
	styles := ui.NewStyles(ui.DetectTheme())
	fmt.Println(styles.Success.Render("Order cancelled successfully"))
	printOrder(styles, order)
	return nil
}

func init() {
	ordersCmd.AddCommand(ordersCancelCmd)
}
