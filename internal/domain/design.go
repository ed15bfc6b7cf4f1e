package domain

import "time"

// DemoDesign is a read-only showcase design.
type DemoDesign struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Prompt      string    `json:"prompt" yaml:"prompt"`
	Style       Style     `json:"style" yaml:"style"`
	ImageURL    string    `json:"imageUrl" yaml:"imageUrl"`
	Description string    `json:"description" yaml:"description"`
	Tags        []string  `json:"tags" yaml:"tags"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
	Popularity  int       `json:"popularity" yaml:"popularity"`
}

// HasTag reports whether the design carries tag.
func (d DemoDesign) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// StylePreset describes a style with sample prompts.
type StylePreset struct {
	ID              string   `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	Style           Style    `json:"style" yaml:"style"`
	Description     string   `json:"description" yaml:"description"`
	SamplePrompts   []string `json:"samplePrompts" yaml:"samplePrompts"`
	Characteristics []string `json:"characteristics" yaml:"characteristics"`
}

// CalibrationPreset is a named bundle of machine settings applied atomically.
type CalibrationPreset struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Voltage     float64  `json:"voltage" yaml:"voltage"`
	Frequency   float64  `json:"frequency" yaml:"frequency"`
	Depth       float64  `json:"depth" yaml:"depth"`
	Description string   `json:"description" yaml:"description"`
	BestFor     []string `json:"bestFor" yaml:"bestFor"`
}

// Settings returns the machine settings the preset applies.
func (p CalibrationPreset) Settings() MachineSettings {
	return MachineSettings{Voltage: p.Voltage, Frequency: p.Frequency, Depth: p.Depth}
}

// DemoCollection groups designs under a curated heading.
type DemoCollection struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Designs     []DemoDesign `json:"designs"`
}
