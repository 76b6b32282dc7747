package formatter

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Kitrop/workflow/internal/domain"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// FormatNumber drops a zero fraction: 4 instead of 4.00, 2.5 stays 2.5.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatFixed prints v with two decimals.
func FormatFixed(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "--"
	}
	return t.Format(domain.DateLayout)
}

// FormatWindow describes a date window for report headings.
func FormatWindow(w domain.DateWindow) string {
	from, to := "…", "…"
	if w.From != nil {
		from = w.From.Format(domain.DateLayout)
	}
	if w.To != nil {
		to = w.To.Format(domain.DateLayout)
	}
	if w.From == nil && w.To == nil {
		return "all dates"
	}
	return from + " .. " + to
}

func orDash(s string) string {
	if s == "" {
		return StyleDim.Render("--")
	}
	return s
}
