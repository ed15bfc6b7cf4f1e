// Package catalog holds the read-only showcase data: demo designs, style
// presets, calibration presets and curated collections.
package catalog

import (
	"sort"

	"inksynth/internal/domain"
)

// DefaultPopularLimit is used when no limit is given for popular designs.
const DefaultPopularLimit = 6

// Catalog is immutable after Load; accessors return copies.
type Catalog struct {
	designs      []domain.DemoDesign
	stylePresets []domain.StylePreset
	calibration  []domain.CalibrationPreset
	collections  []domain.DemoCollection
}

// Designs returns every design in catalog order.
func (c *Catalog) Designs() []domain.DemoDesign {
	return cloneDesigns(c.designs)
}

// DesignByID looks a design up by id.
func (c *Catalog) DesignByID(id string) (domain.DemoDesign, bool) {
	for _, d := range c.designs {
		if d.ID == id {
			return cloneDesign(d), true
		}
	}
	return domain.DemoDesign{}, false
}

// DesignsByStyle filters designs by style, preserving catalog order.
func (c *Catalog) DesignsByStyle(style domain.Style) []domain.DemoDesign {
	out := make([]domain.DemoDesign, 0)
	for _, d := range c.designs {
		if d.Style == style {
			out = append(out, cloneDesign(d))
		}
	}
	return out
}

// PopularDesigns returns at most limit designs ordered by popularity,
// highest first. Equal popularity keeps catalog order. A non-positive
// limit yields no designs; callers without a preference pass
// DefaultPopularLimit.
func (c *Catalog) PopularDesigns(limit int) []domain.DemoDesign {
	if limit <= 0 {
		return []domain.DemoDesign{}
	}
	sorted := cloneDesigns(c.designs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Popularity > sorted[j].Popularity
	})
	if limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted
}

// StylePresets returns one preset per style, in style order.
func (c *Catalog) StylePresets() []domain.StylePreset {
	out := make([]domain.StylePreset, len(c.stylePresets))
	for i, p := range c.stylePresets {
		out[i] = cloneStylePreset(p)
	}
	return out
}

// StylePreset returns the preset describing style.
func (c *Catalog) StylePreset(style domain.Style) (domain.StylePreset, bool) {
	for _, p := range c.stylePresets {
		if p.Style == style {
			return cloneStylePreset(p), true
		}
	}
	return domain.StylePreset{}, false
}

// CalibrationPresets returns the machine calibration presets.
func (c *Catalog) CalibrationPresets() []domain.CalibrationPreset {
	out := make([]domain.CalibrationPreset, len(c.calibration))
	for i, p := range c.calibration {
		p.BestFor = append([]string(nil), p.BestFor...)
		out[i] = p
	}
	return out
}

// CalibrationPreset looks a calibration preset up by id.
func (c *Catalog) CalibrationPreset(id string) (domain.CalibrationPreset, bool) {
	for _, p := range c.calibration {
		if p.ID == id {
			p.BestFor = append([]string(nil), p.BestFor...)
			return p, true
		}
	}
	return domain.CalibrationPreset{}, false
}

// Collections returns the curated collections.
func (c *Catalog) Collections() []domain.DemoCollection {
	out := make([]domain.DemoCollection, len(c.collections))
	for i, col := range c.collections {
		col.Designs = cloneDesigns(col.Designs)
		out[i] = col
	}
	return out
}

func cloneDesign(d domain.DemoDesign) domain.DemoDesign {
	d.Tags = append([]string(nil), d.Tags...)
	return d
}

func cloneDesigns(in []domain.DemoDesign) []domain.DemoDesign {
	out := make([]domain.DemoDesign, len(in))
	for i, d := range in {
		out[i] = cloneDesign(d)
	}
	return out
}

func cloneStylePreset(p domain.StylePreset) domain.StylePreset {
	p.SamplePrompts = append([]string(nil), p.SamplePrompts...)
	p.Characteristics = append([]string(nil), p.Characteristics...)
	return p
}
