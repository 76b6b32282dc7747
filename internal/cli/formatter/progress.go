package formatter

import "strings"

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderBar renders value as a share of maxValue in width cells. A zero or
// negative maxValue renders an empty bar.
func RenderBar(value, maxValue float64, width int) string {
	if width < 1 {
		width = 1
	}
	filled := 0
	if maxValue > 0 && value > 0 {
		filled = int(value / maxValue * float64(width))
		if filled == 0 {
			filled = 1
		}
		filled = min(filled, width)
	}
	return strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)
}
