package testbed

import (
	"fmt"

	"github.com/spaghettifunk/labrig/engine/assets"
	"github.com/spaghettifunk/labrig/engine/core"
	"github.com/spaghettifunk/labrig/engine/math"
	"github.com/spaghettifunk/labrig/engine/rig"
	"github.com/spaghettifunk/labrig/engine/scene"
)

const shoeRigName = "shoe"

var shoeDefaults = []rig.PartColor{
	{Part: "Base", Hex: "#f0f0f0"},
	{Part: "Collar", Hex: "#f0f0f0"},
	{Part: "Insole", Hex: "#1a1a1a"},
	{Part: "Overlay", Hex: "#1a1a1a"},
	{Part: "Straps", Hex: "#1a1a1a"},
	{Part: "Swoosh", Hex: "#C8102E"},
	{Part: "Eyelets", Hex: "#C8102E"},
	{Part: "Laces", Hex: "#1a1a1a"},
	{Part: "Sole", Hex: "#ffffff"},
}

var shoeSections = []rig.ColorSection{
	{Name: "Base", Parts: []string{"Base", "Collar", "Insole"}},
	{Name: "Overlays", Parts: []string{"Overlay", "Straps"}},
	{Name: "Accents", Parts: []string{"Swoosh", "Laces", "Eyelets"}},
	{Name: "Sole", Parts: []string{"Sole"}},
}

var ShoePresets = []rig.Preset{
	{Name: "Midnight", Hex: "#1a1a1a"},
	{Name: "Phantom", Hex: "#f0f0f0"},
	{Name: "Crimson", Hex: "#C8102E"},
	{Name: "Volt", Hex: "#DFFF00"},
	{Name: "Royal", Hex: "#4169E1"},
	{Name: "Orange", Hex: "#FF5F00"},
	{Name: "Emerald", Hex: "#50C878"},
	{Name: "Gold", Hex: "#FFD700"},
}

// ShoeExperience is the sneaker configurator: pick a section, paint it with
// a preset, and scroll to orbit the camera around the shoe.
type ShoeExperience struct {
	env     *Env
	nodes   []scene.Handle
	sub     *core.Subscription
	scroll  *rig.ScrollTracker
	driver  *rig.Driver
	palette *rig.Palette
	frame   rig.Frame

	section int
	preset  int
}

func NewShoeExperience() *ShoeExperience {
	return &ShoeExperience{preset: -1}
}

func (s *ShoeExperience) Name() string {
	return shoeRigName
}

func (s *ShoeExperience) Setup(env *Env) error {
	s.env = env
	r, err := requireRig(env.Library, shoeRigName)
	if err != nil {
		return err
	}
	s.nodes, err = addNodes(env.Graph, []nodeSpec{{name: "Shoe", position: math.NewVec3(0, -0.08, 0)}})
	if err != nil {
		return err
	}
	s.palette, err = rig.NewPalette(shoeDefaults, shoeSections, rig.DefaultColorRate)
	if err != nil {
		return err
	}
	s.driver = rig.NewDriver(env.Graph, rig.WithLogger(env.Log.With("experience", shoeRigName)))
	if err := s.driver.Configure(r.Track); err != nil {
		return err
	}

	s.scroll = rig.NewScrollTracker(viewportHeight, rig.DefaultScrollSmoothing)
	s.sub = core.NewSubscription(env.Bus)
	s.scroll.Bind(s.sub)
	s.sub.On(core.EVENT_CODE_KEY_PRESSED, s.onKey)
	return nil
}

// onKey: left/right choose the section, P paints it with the next preset.
func (s *ShoeExperience) onKey(ctx core.EventContext) bool {
	ev, ok := ctx.Data.(*core.KeyEvent)
	if !ok {
		return false
	}
	switch ev.KeyCode {
	case core.KEY_RIGHT, core.KEY_D:
		s.section = (s.section + 1) % len(shoeSections)
	case core.KEY_LEFT, core.KEY_A:
		s.section = (s.section + len(shoeSections) - 1) % len(shoeSections)
	case core.KEY_P:
		s.preset = (s.preset + 1) % len(ShoePresets)
		if err := s.Paint(shoeSections[s.section].Name, ShoePresets[s.preset].Name); err != nil {
			s.env.Log.Error("paint failed", "err", err)
		}
	default:
		return false
	}
	return true
}

// Paint applies a named preset to a section.
func (s *ShoeExperience) Paint(section, preset string) error {
	for _, p := range ShoePresets {
		if p.Name == preset {
			if err := s.palette.SetSection(section, p.Hex); err != nil {
				return err
			}
			s.env.Log.Info("painted", "section", section, "preset", p.Name, "hex", p.Hex)
			return nil
		}
	}
	return fmt.Errorf("%w: preset %s", core.ErrUnknownTarget, preset)
}

func (s *ShoeExperience) Palette() *rig.Palette {
	return s.palette
}

func (s *ShoeExperience) Frame() rig.Frame {
	return s.frame
}

func (s *ShoeExperience) Update(dt float32) error {
	s.frame = s.driver.Update(s.scroll.Update(dt), dt)
	s.palette.Update(dt)
	return nil
}

func (s *ShoeExperience) Render() error {
	return s.driver.Apply(s.frame, s.env.Camera, s.env.Graph)
}

func (s *ShoeExperience) Reload(r *assets.Rig) error {
	if r.Name != shoeRigName {
		return nil
	}
	pose := s.frame.Pose
	if err := s.driver.Configure(r.Track); err != nil {
		return err
	}
	s.driver.Reset(pose)
	return nil
}

func (s *ShoeExperience) Dispose() {
	if s.env == nil {
		return
	}
	if s.sub != nil {
		s.sub.Close()
	}
	if s.driver != nil {
		s.driver.Dispose()
	}
	removeNodes(s.env.Graph, s.nodes)
	s.nodes = nil
}
