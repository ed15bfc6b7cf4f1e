package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"inksynth/internal/domain"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

const (
	minSamplePrompts   = 3
	minCharacteristics = 3
)

type collectionRule struct {
	ID            string         `yaml:"id"`
	Name          string         `yaml:"name"`
	Description   string         `yaml:"description"`
	MinPopularity int            `yaml:"minPopularity"`
	Styles        []domain.Style `yaml:"styles"`
	Tags          []string       `yaml:"tags"`
}

type document struct {
	Designs            []domain.DemoDesign        `yaml:"designs"`
	Collections        []collectionRule           `yaml:"collections"`
	StylePresets       []domain.StylePreset       `yaml:"stylePresets"`
	CalibrationPresets []domain.CalibrationPreset `yaml:"calibrationPresets"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the catalog compiled into the binary. It is parsed once.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(embeddedCatalog)
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded data invalid: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Load reads a catalog from path, or returns Default when path is empty.
func Load(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if err := validate(doc); err != nil {
		return nil, err
	}
	c := &Catalog{
		designs:      doc.Designs,
		stylePresets: orderPresets(doc.StylePresets),
		calibration:  doc.CalibrationPresets,
	}
	for _, rule := range doc.Collections {
		c.collections = append(c.collections, domain.DemoCollection{
			ID:          rule.ID,
			Name:        rule.Name,
			Description: rule.Description,
			Designs:     rule.apply(doc.Designs),
		})
	}
	return c, nil
}

// apply selects designs at or above MinPopularity that match any listed
// style or tag. A rule without styles and tags matches on popularity alone.
func (r collectionRule) apply(designs []domain.DemoDesign) []domain.DemoDesign {
	out := make([]domain.DemoDesign, 0)
	for _, d := range designs {
		if d.Popularity < r.MinPopularity {
			continue
		}
		if len(r.Styles) == 0 && len(r.Tags) == 0 {
			out = append(out, cloneDesign(d))
			continue
		}
		if r.matchesStyle(d) || r.matchesTag(d) {
			out = append(out, cloneDesign(d))
		}
	}
	return out
}

func (r collectionRule) matchesStyle(d domain.DemoDesign) bool {
	for _, s := range r.Styles {
		if d.Style == s {
			return true
		}
	}
	return false
}

func (r collectionRule) matchesTag(d domain.DemoDesign) bool {
	for _, t := range r.Tags {
		if d.HasTag(t) {
			return true
		}
	}
	return false
}

func orderPresets(in []domain.StylePreset) []domain.StylePreset {
	out := make([]domain.StylePreset, 0, len(in))
	for _, s := range domain.Styles() {
		for _, p := range in {
			if p.Style == s {
				out = append(out, p)
			}
		}
	}
	return out
}

func validate(doc document) error {
	var errs []error

	seen := make(map[string]bool, len(doc.Designs))
	for i, d := range doc.Designs {
		where := fmt.Sprintf("designs[%d]", i)
		if d.ID == "" {
			errs = append(errs, fmt.Errorf("%s: id is required", where))
		} else if seen[d.ID] {
			errs = append(errs, fmt.Errorf("%s: duplicate id %q", where, d.ID))
		}
		seen[d.ID] = true
		if !d.Style.Valid() {
			errs = append(errs, fmt.Errorf("%s: unknown style %q", where, d.Style))
		}
		if len(d.Tags) == 0 {
			errs = append(errs, fmt.Errorf("%s: tags must not be empty", where))
		}
		if d.CreatedAt.IsZero() {
			errs = append(errs, fmt.Errorf("%s: createdAt is required", where))
		}
		if d.Popularity < 0 || d.Popularity > 100 {
			errs = append(errs, fmt.Errorf("%s: popularity %d not in [0, 100]", where, d.Popularity))
		}
	}

	perStyle := make(map[domain.Style]int)
	for i, p := range doc.StylePresets {
		where := fmt.Sprintf("stylePresets[%d]", i)
		if !p.Style.Valid() {
			errs = append(errs, fmt.Errorf("%s: unknown style %q", where, p.Style))
		}
		perStyle[p.Style]++
		if len(p.SamplePrompts) < minSamplePrompts {
			errs = append(errs, fmt.Errorf("%s: needs at least %d sample prompts", where, minSamplePrompts))
		}
		if len(p.Characteristics) < minCharacteristics {
			errs = append(errs, fmt.Errorf("%s: needs at least %d characteristics", where, minCharacteristics))
		}
	}
	for _, s := range domain.Styles() {
		if perStyle[s] != 1 {
			errs = append(errs, fmt.Errorf("stylePresets: want exactly one preset for %s, got %d", s, perStyle[s]))
		}
	}

	presetIDs := make(map[string]bool, len(doc.CalibrationPresets))
	for i, p := range doc.CalibrationPresets {
		where := fmt.Sprintf("calibrationPresets[%d]", i)
		if p.ID == "" || presetIDs[p.ID] {
			errs = append(errs, fmt.Errorf("%s: missing or duplicate id %q", where, p.ID))
		}
		presetIDs[p.ID] = true
		if err := p.Settings().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", where, err))
		}
	}

	return errors.Join(errs...)
}
