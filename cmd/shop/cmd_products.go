package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront/cmd/shop/ui"
	"storefront/internal/api"
	"storefront/internal/catalog"
	"storefront/internal/money"
	"storefront/internal/types"
)

var (
	productsCategory string
	productsSearch   string
	productsOffline  bool
)

// productsCmd lists the catalog.
var productsCmd = &cobra.Command{
	Use:   "products [product-id]",
	Short: "List products, or show one in detail",
	Long: `List catalog products, optionally narrowed by category or search term.

Listings are mirrored into a local SQLite cache so --offline keeps browsing
and searching working without the gateway. With a product id argument the
full product detail is shown instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProducts,
}

// categoriesCmd lists active categories.
var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List product categories",
	RunE:  runCategories,
}

func openCatalog() (*catalog.Cache, error) {
	return catalog.Open(app.cfg.Storage.CatalogDB, logger)
}

func runProducts(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return showProduct(cmd, args[0])
	}

	cache, err := openCatalog()
	if err != nil {
		logger.Warn("catalog cache unavailable", zap.Error(err))
		cache = nil
	} else {
		defer cache.Close()
	}

	var products []types.Product
	if productsOffline {
		if cache == nil {
			return fmt.Errorf("offline listing requires the catalog cache")
		}
		if products, err = cache.Products(productsCategory, productsSearch); err != nil {
			return err
		}
	} else {
		products, err = app.api.Products(cmd.Context(), api.ProductQuery{
			CategoryID: productsCategory,
			Search:     productsSearch,
		})
		if err != nil {
			return err
		}
		products = filterProducts(products, productsSearch)
		if cache != nil && productsCategory == "" && productsSearch == "" {
			if err := cache.ReplaceProducts(products); err != nil {
				logger.Warn("failed to refresh catalog cache", zap.Error(err))
			}
		}
	}

	if len(products) == 0 {
		fmt.Println("No products found. Try changing filters or search query.")
		return nil
	}

	styles := ui.NewStyles(ui.DetectTheme())
	table := ui.NewTable("Products", "ID", "NAME", "PRICE", "STOCK")
	for _, p := range products {
		stock := strconv.Itoa(p.StockQuantity)
		if p.StockQuantity == 0 {
			stock = "out of stock"
		}
		table.AddRow(p.ID, p.Name, money.FormatMinorLocale(p.Price.Amount, p.Price.Currency, app.locale), stock)
	}
	fmt.Print(table.View(styles))
	return nil
}

// filterProducts applies the client-side name/description substring filter
// on top of whatever the server returned.
func filterProducts(products []types.Product, term string) []types.Product {
	query := strings.ToLower(strings.TrimSpace(term))
	if query == "" {
		return products
	}
	filtered := make([]types.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), query) ||
			strings.Contains(strings.ToLower(p.Description), query) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

func showProduct(cmd *cobra.Command, id string) error {
	p, err := app.api.Product(cmd.Context(), id)
	if err != nil {
		return err
	}

	styles := ui.NewStyles(ui.DetectTheme())
	fmt.Println(styles.Title.Render(p.Name))
	fmt.Println(styles.Price.Render(money.FormatMinorLocale(p.Price.Amount, p.Price.Currency, app.locale)))
	if p.CategoryName != "" {
		fmt.Println(styles.Muted.Render("Category: " + p.CategoryName))
	}
	fmt.Println(styles.Muted.Render(fmt.Sprintf("Stock: %d", p.StockQuantity)))

	if p.Description != "" {
		out, err := renderMarkdown(p.Description, styles.Theme.IsDark)
		if err != nil {
			fmt.Println(p.Description)
		} else {
			fmt.Print(out)
		}
	}
	return nil
}

func renderMarkdown(md string, dark bool) (string, error) {
	style := "light"
	if dark {
		style = "dark"
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(md)
}

func runCategories(cmd *cobra.Command, args []string) error {
	categories, err := app.api.Categories(cmd.Context())
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		fmt.Println("No categories found.")
		return nil
	}

	if cache, cerr := openCatalog(); cerr == nil {
		if err := cache.ReplaceCategories(categories); err != nil {
			logger.Warn("failed to refresh category cache", zap.Error(err))
		}
		cache.Close()
	}

	styles := ui.NewStyles(ui.DetectTheme())
	table := ui.NewTable("Categories", "ID", "NAME", "DESCRIPTION")
	for _, c := range categories {
		table.AddRow(c.ID, c.Name, c.Description)
	}
	fmt.Print(table.View(styles))
	return nil
}

func init() {
	productsCmd.Flags().StringVar(&productsCategory, "category", "", "filter by category id")
	productsCmd.Flags().StringVar(&productsSearch, "search", "", "filter by name or description")
	productsCmd.Flags().BoolVar(&productsOffline, "offline", false, "list from the local catalog cache")
}
