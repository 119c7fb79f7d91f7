package rig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/labrig/engine/core"
)

func newShoePalette(t *testing.T) *Palette {
	t.Helper()
	p, err := NewPalette(
		[]PartColor{
			{Part: "Base", Hex: "#f0f0f0"},
			{Part: "Swoosh", Hex: "#C8102E"},
			{Part: "Laces", Hex: "#1a1a1a"},
		},
		[]ColorSection{{Name: "Accents", Parts: []string{"Swoosh", "Laces"}}},
		4,
	)
	require.NoError(t, err)
	return p
}

func TestPaletteSetAndBlend(t *testing.T) {
	p := newShoePalette(t)
	require.NoError(t, p.Set("Base", "#000000"))

	hex, ok := p.Picked("Base")
	require.True(t, ok)
	assert.Equal(t, "#000000", hex)

	before, _ := p.Displayed("Base")
	p.Update(0.1)
	mid, _ := p.Displayed("Base")
	assert.InDelta(t, before.R*0.6, mid.R, 1e-6)

	p.Update(1)
	after, _ := p.Displayed("Base")
	assert.Equal(t, "#000000", after.Hex())

	p.Update(0)
	same, _ := p.Displayed("Base")
	assert.Equal(t, after, same)
}

func TestPaletteSections(t *testing.T) {
	p := newShoePalette(t)
	require.NoError(t, p.SetSection("Accents", "#FFD700"))

	snap := p.Snapshot()
	assert.Equal(t, "#ffd700", snap["Swoosh"])
	assert.Equal(t, "#ffd700", snap["Laces"])
	assert.Equal(t, "#f0f0f0", snap["Base"])

	assert.ErrorIs(t, p.SetSection("Sole", "#ffffff"), core.ErrUnknownPart)
	assert.ErrorIs(t, p.Set("Tongue", "#ffffff"), core.ErrUnknownPart)
	assert.Error(t, p.Set("Base", "not-a-colour"))
}

func TestNewPaletteRejectsUnknownSectionPart(t *testing.T) {
	_, err := NewPalette(
		[]PartColor{{Part: "Base", Hex: "#ffffff"}},
		[]ColorSection{{Name: "Sole", Parts: []string{"Sole"}}},
		0,
	)
	assert.ErrorIs(t, err, core.ErrUnknownPart)
}
