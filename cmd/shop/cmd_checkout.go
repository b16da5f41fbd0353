package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"storefront/cmd/shop/ui"
	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/money"
	"storefront/internal/types"
)

var (
	checkoutAddress string
	checkoutMethod  string
	checkoutHolder  string
	checkoutCard    string
	checkoutMonth   string
	checkoutYear    string
	checkoutCVV     string
)

// checkoutCmd places an order from the current cart.
var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Place an order from the current cart",
	Long: `Place an order from the current cart.

Cart lines travel as product references only; the server recomputes the
authoritative price for the charge. On success the local cart is cleared;
on failure it is left untouched so you can retry.

Requires a session (shop login).`,
	RunE: runCheckout,
}

func runCheckout(cmd *cobra.Command, args []string) error {
	user, err := app.auth.CurrentUser()
	if err != nil {
		return err
	}

	form := checkout.Form{
		ShippingAddress: checkoutAddress,
		PaymentMethod:   checkoutMethod,
		Payment: types.PaymentDetails{
			CardNumber:  checkoutCard,
			CardHolder:  checkoutHolder,
			ExpiryMonth: checkoutMonth,
			ExpiryYear:  checkoutYear,
			CVV:         checkoutCVV,
		},
	}

	items := app.cart.Items()
	styles := ui.NewStyles(ui.DetectTheme())
	if total, terr := cart.TotalStrict(items); terr == nil && len(items) > 0 {
		fmt.Println(styles.Bold.Render("Placing order - " +
			money.FormatMinorLocale(total.AmountMinor, total.Currency, app.locale)))
	}

	co := checkout.New(app.api, app.cart, logger)
	order, err := co.Submit(cmd.Context(), form, user.ID)
	if err != nil {
		return err
	}

	fmt.Println(styles.Success.Render("Order placed successfully"))
	fmt.Printf("Order %s is %s. Track it with 'shop orders'.\n", order.ID, order.Status)
	return nil
}

func init() {
	checkoutCmd.Flags().StringVar(&checkoutAddress, "address", "", "shipping address")
	checkoutCmd.Flags().StringVar(&checkoutMethod, "method", "credit_card", "payment method")
	checkoutCmd.Flags().StringVar(&checkoutHolder, "card-holder", "", "card holder name")
	checkoutCmd.Flags().StringVar(&checkoutCard, "card-number", "", "card number")
	checkoutCmd.Flags().StringVar(&checkoutMonth, "expiry-month", "", "card expiry month (MM)")
	checkoutCmd.Flags().StringVar(&checkoutYear, "expiry-year", "", "card expiry year (YY)")
	checkoutCmd.Flags().StringVar(&checkoutCVV, "cvv", "", "card verification value")
	_ = checkoutCmd.MarkFlagRequired("address")
	_ = checkoutCmd.MarkFlagRequired("card-holder")
	_ = checkoutCmd.MarkFlagRequired("card-number")
}
