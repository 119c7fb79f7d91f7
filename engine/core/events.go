package core

import (
	"github.com/google/uuid"
)

// System internal event codes. Application should use codes beyond 255.
type EventCode uint16

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT EventCode = 0x01

	// Keyboard key pressed.
	/* Context usage:
	 * key := ctx.Data.(*KeyEvent).KeyCode
	 */
	EVENT_CODE_KEY_PRESSED EventCode = 0x02

	// Keyboard key released.
	EVENT_CODE_KEY_RELEASED EventCode = 0x03

	// Mouse button pressed.
	/* Context usage:
	 * ev := ctx.Data.(*MouseEvent) // Button, PosX, PosY
	 */
	EVENT_CODE_BUTTON_PRESSED EventCode = 0x04

	// Mouse button released.
	EVENT_CODE_BUTTON_RELEASED EventCode = 0x05

	// Mouse moved.
	/* Context usage:
	 * ev := ctx.Data.(*MouseEvent) // PosX, PosY
	 */
	EVENT_CODE_MOUSE_MOVED EventCode = 0x06

	// Mouse wheel.
	/* Context usage:
	 * ev := ctx.Data.(*MouseEvent) // Scroll
	 */
	EVENT_CODE_MOUSE_WHEEL EventCode = 0x07

	// Resized/resolution changed from the OS.
	EVENT_CODE_RESIZED EventCode = 0x08

	// Horizontal pointer drag while a button is held.
	/* Context usage:
	 * ev := ctx.Data.(*DragEvent) // DeltaX
	 */
	EVENT_CODE_POINTER_DRAG EventCode = 0x09

	MAX_EVENT_CODE EventCode = 0xFF

	// The user left the intro screen.
	EVENT_CODE_EXPERIENCE_START EventCode = 0x100

	// A hitbox was picked.
	/* Context usage:
	 * target := ctx.Data.(*SelectEvent).Target
	 */
	EVENT_CODE_TARGET_SELECTED EventCode = 0x101

	// Return from a focused target to the hub.
	EVENT_CODE_BACK EventCode = 0x102

	// Carousel navigation buttons.
	EVENT_CODE_SLOT_NEXT EventCode = 0x103
	EVENT_CODE_SLOT_PREV EventCode = 0x104

	// A rig file was reloaded from disk.
	/* Context usage:
	 * name := ctx.Data.(*ReloadEvent).Name
	 */
	EVENT_CODE_RIG_RELOADED EventCode = 0x105
)

// This should be more than enough codes...
const MAX_MESSAGE_CODES = 16384

type EventContext struct {
	Type EventCode
	Data interface{}
}

type KeyEvent struct {
	KeyCode KeyCode
}

type MouseEvent struct {
	Button Button
	PosX   uint16
	PosY   uint16
	Scroll float32
}

type DragEvent struct {
	DeltaX float32
}

type SelectEvent struct {
	Target string
}

type ReloadEvent struct {
	Name string
	Path string
}

// Should return true if handled.
type FnOnEvent func(ctx EventContext) bool

// ListenerID identifies one registration and is what Unregister needs back.
type ListenerID = uuid.UUID

type registeredEvent struct {
	id       ListenerID
	callback FnOnEvent
}

// EventBus dispatches events synchronously on the calling goroutine. It is
// owned by the engine and handed to whoever needs to listen, there is no
// global instance.
type EventBus struct {
	registered map[EventCode][]*registeredEvent
}

func NewEventBus() *EventBus {
	return &EventBus{
		registered: make(map[EventCode][]*registeredEvent),
	}
}

/**
 * Register to listen for when events are sent with the provided code.
 * @param code The event code to listen for.
 * @param onEvent The callback invoked when the event code is fired.
 * @returns The id to pass to Unregister.
 */
func (b *EventBus) Register(code EventCode, onEvent FnOnEvent) ListenerID {
	id := uuid.New()
	b.registered[code] = append(b.registered[code], &registeredEvent{
		id:       id,
		callback: onEvent,
	})
	return id
}

/**
 * Unregister from listening for when events are sent with the provided code.
 * @returns true if the registration was found and removed.
 */
func (b *EventBus) Unregister(code EventCode, id ListenerID) bool {
	events := b.registered[code]
	for i, e := range events {
		if e.id == id {
			b.registered[code] = append(events[:i:i], events[i+1:]...)
			if len(b.registered[code]) == 0 {
				delete(b.registered, code)
			}
			return true
		}
	}
	// Not found.
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * true, the event is considered handled and is not passed on to any more listeners.
 * @returns true if handled, otherwise false.
 */
func (b *EventBus) Fire(ctx EventContext) bool {
	// Copy so callbacks may unregister themselves while we iterate.
	events := append([]*registeredEvent(nil), b.registered[ctx.Type]...)
	for _, e := range events {
		if e.callback(ctx) {
			// Message has been handled, do not send to other listeners.
			return true
		}
	}
	return false
}

// ListenerCount reports how many callbacks are registered for code.
func (b *EventBus) ListenerCount(code EventCode) int {
	return len(b.registered[code])
}

// Subscription groups registrations so a view can release all of them at once.
type Subscription struct {
	bus     *EventBus
	entries []subscriptionEntry
}

type subscriptionEntry struct {
	code EventCode
	id   ListenerID
}

func NewSubscription(bus *EventBus) *Subscription {
	return &Subscription{bus: bus}
}

func (s *Subscription) On(code EventCode, onEvent FnOnEvent) {
	id := s.bus.Register(code, onEvent)
	s.entries = append(s.entries, subscriptionEntry{code: code, id: id})
}

// Close unregisters every listener added through On.
func (s *Subscription) Close() {
	for _, e := range s.entries {
		s.bus.Unregister(e.code, e.id)
	}
	s.entries = nil
}

func (s *Subscription) Len() int {
	return len(s.entries)
}
