// Package browse implements the interactive storefront session: a product
// list with incremental search, add-to-cart, and a live cart summary that
// follows external changes to the cart file.
package browse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"storefront/cmd/shop/ui"
	"storefront/internal/api"
	"storefront/internal/cart"
	"storefront/internal/money"
	"storefront/internal/types"
)

const requestTimeout = 30 * time.Second

// Catalog is the slice of the API client the session needs.
type Catalog interface {
	Products(ctx context.Context, q api.ProductQuery) ([]types.Product, error)
}

type (
	productsLoadedMsg struct {
		products []types.Product
		err      error
	}
	cartChangedMsg struct{}
	statusMsg      string
	watchClosedMsg struct{}
)

// Model is the bubbletea model for the browse session.
type Model struct {
	catalog Catalog
	cart    *cart.Manager
	watch   *cartWatcher
	styles  ui.Styles
	locale  string
	log     *zap.Logger

	spinner   spinner.Model
	search    textinput.Model
	searching bool
	loading   bool

	products []types.Product
	cursor   int
	items    []cart.Item
	status   string
	errMsg   string
}

// NewModel builds the session model. watch may be nil when the cart file
// cannot be observed; everything else keeps working.
func NewModel(catalog Catalog, cartMgr *cart.Manager, watch *cartWatcher, locale string, log *zap.Logger) Model {
	if log == nil {
		log = zap.NewNop()
	}
	styles := ui.NewStyles(ui.DetectTheme())

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Subtitle

	search := textinput.New()
	search.Placeholder = "search products..."
	search.CharLimit = 64

	return Model{
		catalog: catalog,
		cart:    cartMgr,
		watch:   watch,
		styles:  styles,
		locale:  locale,
		log:     log,
		spinner: sp,
		search:  search,
		loading: true,
		items:   cartMgr.Items(),
	}
}

// Init starts the product load, the spinner, and the cart watcher.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.loadProducts()}
	if m.watch != nil {
		cmds = append(cmds, m.watch.next())
	}
	return tea.Batch(cmds...)
}

func (m Model) loadProducts() tea.Cmd {
	term := strings.TrimSpace(m.search.Value())
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		products, err := m.catalog.Products(ctx, api.ProductQuery{Search: term})
		return productsLoadedMsg{products: products, err: err}
	}
}

// Update is the event loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case productsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.products = msg.products
		if m.cursor >= len(m.products) {
			m.cursor = 0
		}
		return m, nil

	case cartChangedMsg:
		// Another shop invocation touched the cart; re-read it.
		m.items = m.cart.Items()
		if m.watch != nil {
			return m, m.watch.next()
		}
		return m, nil

	case watchClosedMsg:
		return m, nil

	case statusMsg:
		m.status = string(msg)
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.Type {
		case tea.KeyEnter:
			m.searching = false
			m.search.Blur()
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.loadProducts())
		case tea.KeyEsc:
			m.searching = false
			m.search.Blur()
			return m, nil
		default:
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			return m, cmd
		}
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.products)-1 {
			m.cursor++
		}
	case "/":
		m.searching = true
		m.search.Focus()
		return m, textinput.Blink
	case "r":
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.loadProducts())
	case "a", "enter":
		return m.addSelected()
	}
	return m, nil
}

func (m Model) addSelected() (tea.Model, tea.Cmd) {
	if m.cursor >= len(m.products) {
		return m, nil
	}
	p := m.products[m.cursor]
	if p.StockQuantity == 0 {
		m.status = p.Name + " is out of stock"
		return m, nil
	}
	items, err := m.cart.Add(p, 1)
	if err != nil {
		m.errMsg = err.Error()
		return m, nil
	}
	m.items = items
	m.status = "Added " + p.Name + " to cart"
	return m, nil
}

// View renders the session.
func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("Storefront"))
	sb.WriteString("\n")

	if m.searching {
		sb.WriteString(m.search.View())
		sb.WriteString("\n\n")
	} else if term := strings.TrimSpace(m.search.Value()); term != "" {
		sb.WriteString(m.styles.Muted.Render("filter: " + term))
		sb.WriteString("\n\n")
	}

	switch {
	case m.loading:
		sb.WriteString(m.spinner.View() + " loading products...\n")
	case m.errMsg != "":
		sb.WriteString(m.styles.Error.Render(m.errMsg) + "\n")
	case len(m.products) == 0:
		sb.WriteString("No products found. Try changing the search query.\n")
	default:
		for i, p := range m.products {
			cursor := "  "
			if i == m.cursor {
				cursor = m.styles.Subtitle.Render("> ")
			}
			price := money.FormatMinorLocale(p.Price.Amount, p.Price.Currency, m.locale)
			line := fmt.Sprintf("%s%s  %s", cursor, p.Name, m.styles.Price.Render(price))
			if p.StockQuantity == 0 {
				line += m.styles.Muted.Render("  (out of stock)")
			}
			sb.WriteString(line + "\n")
		}
	}

	sb.WriteString("\n" + m.cartSummary() + "\n")
	if m.status != "" {
		sb.WriteString(m.styles.Success.Render(m.status) + "\n")
	}
	sb.WriteString(m.styles.Help.Render("↑/↓ move · a add to cart · / search · r reload · q quit"))
	return sb.String()
}

func (m Model) cartSummary() string {
	if len(m.items) == 0 {
		return m.styles.Muted.Render("Cart: empty")
	}
	count := 0
	for _, it := range m.items {
		count += it.Quantity
	}
	total := cart.Total(m.items)
	return m.styles.Bold.Render(fmt.Sprintf("Cart: %d items, %s", count,
		money.FormatMinorLocale(total.AmountMinor, total.Currency, m.locale)))
}

// Run starts the interactive session and blocks until the user quits.
func Run(catalog Catalog, cartMgr *cart.Manager, cartPath string, locale string, log *zap.Logger) error {
	watch, err := newCartWatcher(cartPath)
	if err != nil {
		if log != nil {
			log.Warn("cart watcher unavailable", zap.Error(err))
		}
		watch = nil
	} else {
		defer watch.Close()
	}

	model := NewModel(catalog, cartMgr, watch, locale, log)
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
