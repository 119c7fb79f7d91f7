package rig

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/spaghettifunk/labrig/engine/core"
	"github.com/spaghettifunk/labrig/engine/math"
)

// DefaultColorRate is how fast displayed colours follow a new pick, per second.
const DefaultColorRate float32 = 4

// PartColor is the starting colour of a part.
type PartColor struct {
	Part string
	Hex  string
}

// ColorSection groups parts that are painted together.
type ColorSection struct {
	Name  string
	Parts []string
}

// Preset is a named swatch.
type Preset struct {
	Name string
	Hex  string
}

// Palette holds the picked and displayed colour of every part. Displayed
// colours blend toward the picks on Update.
type Palette struct {
	parts    []string
	index    map[string]int
	current  []colorful.Color
	target   []colorful.Color
	sections map[string][]string
	rate     float32
}

func NewPalette(defaults []PartColor, sections []ColorSection, rate float32) (*Palette, error) {
	if rate <= 0 || !math.IsFinite(rate) {
		rate = DefaultColorRate
	}
	p := &Palette{
		index:    make(map[string]int, len(defaults)),
		sections: make(map[string][]string, len(sections)),
		rate:     rate,
	}
	for _, d := range defaults {
		c, err := colorful.Hex(d.Hex)
		if err != nil {
			return nil, fmt.Errorf("part %s: %w", d.Part, err)
		}
		if _, dup := p.index[d.Part]; dup {
			return nil, fmt.Errorf("part %s declared twice", d.Part)
		}
		p.index[d.Part] = len(p.parts)
		p.parts = append(p.parts, d.Part)
		p.current = append(p.current, c)
		p.target = append(p.target, c)
	}
	for _, s := range sections {
		for _, part := range s.Parts {
			if _, ok := p.index[part]; !ok {
				return nil, fmt.Errorf("section %s: %w: %s", s.Name, core.ErrUnknownPart, part)
			}
		}
		p.sections[s.Name] = append([]string(nil), s.Parts...)
	}
	return p, nil
}

func (p *Palette) Parts() []string {
	return p.parts
}

// Set picks a new colour for part.
func (p *Palette) Set(part, hex string) error {
	i, ok := p.index[part]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrUnknownPart, part)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return fmt.Errorf("part %s: %w", part, err)
	}
	p.target[i] = c
	return nil
}

// SetSection picks a colour for every part of a section.
func (p *Palette) SetSection(section, hex string) error {
	parts, ok := p.sections[section]
	if !ok {
		return fmt.Errorf("%w: section %s", core.ErrUnknownPart, section)
	}
	for _, part := range parts {
		if err := p.Set(part, hex); err != nil {
			return err
		}
	}
	return nil
}

// Picked returns the chosen colour of part as hex.
func (p *Palette) Picked(part string) (string, bool) {
	i, ok := p.index[part]
	if !ok {
		return "", false
	}
	return p.target[i].Hex(), true
}

// Displayed returns the colour currently shown for part.
func (p *Palette) Displayed(part string) (colorful.Color, bool) {
	i, ok := p.index[part]
	if !ok {
		return colorful.Color{}, false
	}
	return p.current[i], true
}

// Update blends the displayed colours toward the picks by min(dt*rate, 1).
func (p *Palette) Update(dt float32) {
	if !math.IsFinite(dt) || dt <= 0 {
		return
	}
	alpha := float64(math.Clamp(dt*p.rate, 0, 1))
	for i := range p.current {
		p.current[i] = p.current[i].BlendRgb(p.target[i], alpha).Clamped()
	}
}

// Snapshot returns the picked colour of every part.
func (p *Palette) Snapshot() map[string]string {
	out := make(map[string]string, len(p.parts))
	for i, part := range p.parts {
		out[part] = p.target[i].Hex()
	}
	return out
}
