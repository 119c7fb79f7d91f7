package testbed

import (
	"sort"

	"github.com/spaghettifunk/labrig/engine/core"
)

// Step is one scripted input at a point in time, in seconds since start.
type Step struct {
	At     float64
	Name   string
	Action func(in *core.Input, bus *core.EventBus)
}

// Script replays input through the same path a window would use, so demo
// runs exercise the listeners without a user.
type Script struct {
	steps []Step
	next  int
}

func NewScript(steps ...Step) *Script {
	s := &Script{steps: append([]Step(nil), steps...)}
	sort.SliceStable(s.steps, func(i, j int) bool {
		return s.steps[i].At < s.steps[j].At
	})
	return s
}

// Advance runs every step due at elapsed and returns how many ran.
func (s *Script) Advance(elapsed float64, in *core.Input, bus *core.EventBus) int {
	n := 0
	for s.next < len(s.steps) && s.steps[s.next].At <= elapsed {
		step := s.steps[s.next]
		core.LogDebug("script step %q at %.2fs", step.Name, elapsed)
		step.Action(in, bus)
		s.next++
		n++
	}
	return n
}

func (s *Script) Done() bool {
	return s.next >= len(s.steps)
}

func (s *Script) Len() int {
	return len(s.steps)
}

func tap(key core.KeyCode) func(*core.Input, *core.EventBus) {
	return func(in *core.Input, _ *core.EventBus) {
		in.ProcessKey(key, true)
		in.ProcessKey(key, false)
	}
}

func wheel(delta float32) func(*core.Input, *core.EventBus) {
	return func(in *core.Input, _ *core.EventBus) {
		in.ProcessMouseWheel(delta)
	}
}

// drag presses the left button mid-screen and moves dx pixels sideways.
func drag(dx int) func(*core.Input, *core.EventBus) {
	return func(in *core.Input, _ *core.EventBus) {
		const x, y = 640, 360
		in.ProcessMouseMove(x, y)
		in.ProcessButton(core.BUTTON_LEFT, true)
		in.ProcessMouseMove(uint16(x+dx), y)
		in.ProcessButton(core.BUTTON_LEFT, false)
	}
}

func fire(code core.EventCode, data interface{}) func(*core.Input, *core.EventBus) {
	return func(_ *core.Input, bus *core.EventBus) {
		bus.Fire(core.EventContext{Type: code, Data: data})
	}
}

// DemoScript walks through an experience and quits at the end.
func DemoScript(experience string) *Script {
	quit := fire(core.EVENT_CODE_APPLICATION_QUIT, nil)
	switch experience {
	case hubRigName:
		return NewScript(
			Step{At: 0.5, Name: "enter the lab", Action: tap(core.KEY_ENTER)},
			Step{At: 1.5, Name: "wheel", Action: wheel(400)},
			Step{At: 2.5, Name: "next slot", Action: tap(core.KEY_RIGHT)},
			Step{At: 3.5, Name: "open watch", Action: fire(core.EVENT_CODE_TARGET_SELECTED, &core.SelectEvent{Target: "watch"})},
			Step{At: 6.0, Name: "back", Action: tap(core.KEY_ESCAPE)},
			Step{At: 7.0, Name: "drag", Action: drag(-200)},
			Step{At: 8.0, Name: "open shoe", Action: fire(core.EVENT_CODE_TARGET_SELECTED, &core.SelectEvent{Target: "shoe"})},
			Step{At: 10.0, Name: "quit", Action: quit},
		)
	case watchRigName:
		steps := []Step{{At: 10.0, Name: "quit", Action: quit}}
		for i := 0; i < 12; i++ {
			steps = append(steps, Step{At: 0.5 + 0.6*float64(i), Name: "scroll", Action: wheel(600)})
		}
		return NewScript(steps...)
	case shoeRigName:
		return NewScript(
			Step{At: 1.0, Name: "paint base", Action: tap(core.KEY_P)},
			Step{At: 2.0, Name: "next section", Action: tap(core.KEY_RIGHT)},
			Step{At: 2.5, Name: "paint overlays", Action: tap(core.KEY_P)},
			Step{At: 3.0, Name: "orbit", Action: wheel(360)},
			Step{At: 6.0, Name: "quit", Action: quit},
		)
	case flightRigName:
		steps := []Step{{At: 8.0, Name: "quit", Action: quit}}
		for i := 0; i < 8; i++ {
			steps = append(steps, Step{At: 0.5 + 0.8*float64(i), Name: "scroll", Action: wheel(360)})
		}
		return NewScript(steps...)
	default:
		return NewScript(Step{At: 1.0, Name: "quit", Action: quit})
	}
}
