package generator

import (
	"fmt"
	"net/url"

	"inksynth/internal/domain"
)

const (
	placeholderHost = "https://placehold.co"
	placeholderSize = "400x400"
	captionRunes    = 20
)

type palette struct {
	background string
	foreground string
}

var stylePalettes = map[domain.Style]palette{
	domain.StyleCyberpunk:   {"0a0a1f", "00f3ff"},
	domain.StyleTraditional: {"1a0a0f", "ff3366"},
	domain.StyleMinimalist:  {"0f0f0f", "ffffff"},
	domain.StyleGeometric:   {"1a1a2f", "b026ff"},
	domain.StyleWatercolor:  {"0f1a2f", "ff9500"},
	domain.StyleTribal:      {"0a0a0a", "00f3ff"},
	domain.StyleJapanese:    {"1f0a1a", "ff3366"},
}

var fallbackPalette = palette{"0a0a0f", "ffffff"}

// PlaceholderURL builds the placeholder image reference for an artifact.
// The caption is the style followed by the first 20 characters of the prompt.
func PlaceholderURL(prompt string, style domain.Style) string {
	p, ok := stylePalettes[style]
	if !ok {
		p = fallbackPalette
	}
	caption := string(style) + ": " + truncate(prompt, captionRunes)
	return fmt.Sprintf("%s/%s/%s/%s?text=%s", placeholderHost, placeholderSize, p.background, p.foreground, url.QueryEscape(caption))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
