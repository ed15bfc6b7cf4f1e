package domain

import "fmt"

// Style enumerates the tattoo styles the generator understands.
type Style string

const (
	StyleCyberpunk   Style = "Cyberpunk"
	StyleTraditional Style = "Traditional"
	StyleMinimalist  Style = "Minimalist"
	StyleGeometric   Style = "Geometric"
	StyleWatercolor  Style = "Watercolor"
	StyleTribal      Style = "Tribal"
	StyleJapanese    Style = "Japanese"
)

// DefaultStyle is selected when a session starts.
const DefaultStyle = StyleCyberpunk

var styles = []Style{
	StyleCyberpunk,
	StyleTraditional,
	StyleMinimalist,
	StyleGeometric,
	StyleWatercolor,
	StyleTribal,
	StyleJapanese,
}

// Styles returns every style in display order.
func Styles() []Style {
	return append([]Style(nil), styles...)
}

// Valid reports whether s is one of the known styles.
func (s Style) Valid() bool {
	for _, known := range styles {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStyle converts user input into a Style. Matching is exact.
func ParseStyle(v string) (Style, error) {
	s := Style(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, v)
	}
	return s, nil
}
