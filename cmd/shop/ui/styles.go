// Package ui provides the terminal styling shared by the shop commands
// and the interactive browse session.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Light mode colors (default)
	LightForeground = lipgloss.Color("#1a1a2e")
	LightPrimary    = lipgloss.Color("#0f3460")
	LightAccent     = lipgloss.Color("#e94560")
	LightMuted      = lipgloss.Color("#8d99ae")
	LightBorder     = lipgloss.Color("#d6dae0")

	// Dark mode colors
	DarkForeground = lipgloss.Color("#f2f2f2")
	DarkPrimary    = lipgloss.Color("#7ec8e3")
	DarkAccent     = lipgloss.Color("#e94560")
	DarkMuted      = lipgloss.Color("#6c757d")
	DarkBorder     = lipgloss.Color("#2a3850")

	// Semantic colors (same in both modes)
	Success = lipgloss.Color("#8BC34A")
	Danger  = lipgloss.Color("#e53935")
	Warning = lipgloss.Color("#FFC107")
)

// Theme holds the current color scheme.
type Theme struct {
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme.
func LightTheme() Theme {
	return Theme{
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Muted:      LightMuted,
		Border:     LightBorder,
	}
}

// DarkTheme returns the dark mode theme.
func DarkTheme() Theme {
	return Theme{
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		IsDark:     true,
	}
}

// DetectTheme picks a theme from terminal hints, defaulting to light.
func DetectTheme() Theme {
	if colorTerm := os.Getenv("COLORFGBG"); colorTerm != "" {
		// Format is usually "foreground;background".
		parts := strings.Split(colorTerm, ";")
		if len(parts) == 2 {
			if bgIdx, err := strconv.Atoi(parts[1]); err == nil {
				if (bgIdx >= 0 && bgIdx <= 6) || bgIdx == 8 {
					return DarkTheme()
				}
			}
		}
	}
	if os.Getenv("SHOP_DARK_MODE") == "1" {
		return DarkTheme()
	}
	return LightTheme()
}

// Styles holds the styled components.
type Styles struct {
	Theme Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style
	Price    lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style

	StatusBadge lipgloss.Style
	Divider     lipgloss.Style
	Help        lipgloss.Style
}

// NewStyles creates a Styles instance for the given theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			MarginBottom(1),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Price: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		Success: lipgloss.NewStyle().
			Foreground(Success).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(Danger).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(Warning),

		StatusBadge: lipgloss.NewStyle().
			Padding(0, 1).
			Bold(true),

		Divider: lipgloss.NewStyle().
			Foreground(theme.Border),

		Help: lipgloss.NewStyle().
			Foreground(theme.Muted).
			MarginTop(1),
	}
}

// StatusColor maps an order status to its badge color.
func StatusColor(status string) lipgloss.Color {
	switch status {
	case "PENDING":
		return Warning
	case "CONFIRMED", "PROCESSING", "SHIPPED":
		return LightPrimary
	case "DELIVERED":
		return Success
	case "CANCELLED":
		return Danger
	default:
		return LightMuted
	}
}
