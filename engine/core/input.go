package core

type Button uint16

const (
	BUTTON_LEFT Button = iota
	BUTTON_RIGHT
	BUTTON_MIDDLE
	BUTTON_MAX_BUTTONS
)

// Key code definitions
type KeyCode uint16

const (
	KEY_BACKSPACE KeyCode = 0x08
	KEY_ENTER     KeyCode = 0x0D
	KEY_ESCAPE    KeyCode = 0x1B
	KEY_SPACE     KeyCode = 0x20
	KEY_LEFT      KeyCode = 0x25
	KEY_UP        KeyCode = 0x26
	KEY_RIGHT     KeyCode = 0x27
	KEY_DOWN      KeyCode = 0x28
	KEY_A         KeyCode = 0x41
	KEY_D         KeyCode = 0x44
	KEY_P         KeyCode = 0x50
	KEY_Q         KeyCode = 0x51
	KEYS_MAX_KEYS KeyCode = 0xFF
)

// Mouse state structure
type MouseState struct {
	X       uint16
	Y       uint16
	Buttons [BUTTON_MAX_BUTTONS]bool // button states (pressed/released)
}

// Keyboard state structure
type KeyboardState struct {
	Keys [256]bool
}

// Input holds current and previous states for keyboard and mouse and turns
// raw platform callbacks into bus events.
type Input struct {
	bus              *EventBus
	KeyboardCurrent  KeyboardState
	KeyboardPrevious KeyboardState
	MouseCurrent     MouseState
	MousePrevious    MouseState
}

func NewInput(bus *EventBus) *Input {
	return &Input{bus: bus}
}

// Update copies current states to previous states. Call once per frame after
// the game has read input.
func (in *Input) Update(deltaTime float64) {
	in.KeyboardPrevious = in.KeyboardCurrent
	in.MousePrevious = in.MouseCurrent
}

// keyboard input
func (in *Input) IsKeyDown(key KeyCode) bool {
	return in.KeyboardCurrent.Keys[key]
}

func (in *Input) IsKeyUp(key KeyCode) bool {
	return !in.KeyboardCurrent.Keys[key]
}

func (in *Input) WasKeyDown(key KeyCode) bool {
	return in.KeyboardPrevious.Keys[key]
}

func (in *Input) WasKeyUp(key KeyCode) bool {
	return !in.KeyboardPrevious.Keys[key]
}

func (in *Input) ProcessKey(key KeyCode, pressed bool) {
	// Only handle this if the state actually changed.
	if in.KeyboardCurrent.Keys[key] == pressed {
		return
	}
	in.KeyboardCurrent.Keys[key] = pressed

	code := EVENT_CODE_KEY_RELEASED
	if pressed {
		code = EVENT_CODE_KEY_PRESSED
	}

	// Fire off an event for immediate processing.
	in.bus.Fire(EventContext{
		Type: code,
		Data: &KeyEvent{KeyCode: key},
	})
}

// mouse input
func (in *Input) IsButtonDown(button Button) bool {
	return in.MouseCurrent.Buttons[button]
}

func (in *Input) IsButtonUp(button Button) bool {
	return !in.MouseCurrent.Buttons[button]
}

func (in *Input) WasButtonDown(button Button) bool {
	return in.MousePrevious.Buttons[button]
}

func (in *Input) MousePosition() (int32, int32) {
	return int32(in.MouseCurrent.X), int32(in.MouseCurrent.Y)
}

func (in *Input) ProcessButton(button Button, pressed bool) {
	// If the state changed, fire an event.
	if in.MouseCurrent.Buttons[button] == pressed {
		return
	}
	in.MouseCurrent.Buttons[button] = pressed

	code := EVENT_CODE_BUTTON_RELEASED
	if pressed {
		code = EVENT_CODE_BUTTON_PRESSED
	}
	in.bus.Fire(EventContext{
		Type: code,
		Data: &MouseEvent{
			Button: button,
			PosX:   in.MouseCurrent.X,
			PosY:   in.MouseCurrent.Y,
		},
	})
}

func (in *Input) ProcessMouseMove(x uint16, y uint16) {
	// Only process if actually different
	if in.MouseCurrent.X == x && in.MouseCurrent.Y == y {
		return
	}
	deltaX := float32(int32(x) - int32(in.MouseCurrent.X))

	in.MouseCurrent.X = x
	in.MouseCurrent.Y = y

	in.bus.Fire(EventContext{
		Type: EVENT_CODE_MOUSE_MOVED,
		Data: &MouseEvent{PosX: x, PosY: y},
	})

	// A move with the left button held is a drag.
	if in.MouseCurrent.Buttons[BUTTON_LEFT] && deltaX != 0 {
		in.bus.Fire(EventContext{
			Type: EVENT_CODE_POINTER_DRAG,
			Data: &DragEvent{DeltaX: deltaX},
		})
	}
}

func (in *Input) ProcessMouseWheel(delta float32) {
	in.bus.Fire(EventContext{
		Type: EVENT_CODE_MOUSE_WHEEL,
		Data: &MouseEvent{Scroll: delta},
	})
}
