package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// GamepadState is a snapshot of the analog sticks of the first connected gamepad.
// Axes are in [-1, 1] with +X right and +Y down.
type GamepadState struct {
	LeftX  float64
	LeftY  float64
	RightX float64
	RightY float64
}

// PointerPhase is the stage of a left-button gesture of the free cursor.
type PointerPhase int

const (
	PointerDown PointerPhase = iota
	PointerMove
	PointerUp
	// PointerCancel ends a gesture that was interrupted, e.g. by focus loss or pointer lock.
	PointerCancel
)

// PointerEvent is a left-button press, drag step or release of the unlocked cursor, in
// window coordinates.
type PointerEvent struct {
	Phase PointerPhase
	X     float64
	Y     float64
}

// Window provides platform windowing and first-person input event handling.
// Wraps platform-specific window implementations with a common interface.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetKeyDownCallback sets the callback for key press events.
	//
	// Parameters:
	//   - callback: function receiving the virtual key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the callback for key release events.
	//
	// Parameters:
	//   - callback: function receiving the virtual key code
	SetKeyUpCallback(callback func(keyCode uint32))

	// SetMouseDeltaCallback sets the callback for relative mouse motion. Deltas are only
	// reported while the pointer is locked.
	//
	// Parameters:
	//   - callback: function receiving motion in pixels since the previous event
	SetMouseDeltaCallback(callback func(dx, dy float64))

	// SetPointerCallback sets the callback for left-button gestures while the pointer is not
	// locked. Moves are only reported between a down and its up or cancel.
	//
	// Parameters:
	//   - callback: function receiving each pointer event
	SetPointerCallback(callback func(ev PointerEvent))

	// SetPointerLockCallback sets the callback for pointer-lock changes, whether requested
	// through SetPointerLock or released by Escape or focus loss.
	//
	// Parameters:
	//   - callback: function receiving the new lock state
	SetPointerLockCallback(callback func(locked bool))

	// SetFocusLostCallback sets the callback for the window losing input focus.
	//
	// Parameters:
	//   - callback: function to call when focus is lost
	SetFocusLostCallback(callback func())

	// SetPointerLock captures (hides and confines) or releases the cursor.
	//
	// Parameters:
	//   - locked: true to capture
	SetPointerLock(locked bool)

	// PointerLocked reports whether the cursor is captured.
	//
	// Returns:
	//   - bool: true when captured
	PointerLocked() bool

	// PollGamepad reads the first connected gamepad.
	//
	// Returns:
	//   - GamepadState: stick axes
	//   - bool: false if no gamepad is connected
	PollGamepad() (GamepadState, bool)

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is platform-appropriate (Windows HWND, X11 Xlib, Wayland, macOS Metal, etc.)
	// and is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// RequestClose asks the message loop to stop after the current iteration.
	RequestClose()

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// ProcessMessages runs the window message loop.
	// Blocks until the window is closed. Calls OnUpdate callback each iteration.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current framebuffer height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, GLFW state, and event callbacks.
type engineWindow struct {
	title string

	minWidth  int
	minHeight int
	width     int
	height    int

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	pointerLocked bool

	onUpdate      func()
	onResize      func(width, height int)
	onKeyDown     func(keyCode uint32)
	onKeyUp       func(keyCode uint32)
	onMouseDelta  func(dx, dy float64)
	onPointer     func(ev PointerEvent)
	onPointerLock func(locked bool)
	onFocusLost   func()
}

var _ Window = &engineWindow{}

// NewWindow creates a new Window with the specified options.
// Applies default values first, then each option in order.
// Must be called from the main goroutine; the calling OS thread is locked for GLFW.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the configured window
func NewWindow(options ...WindowBuilderOption) Window {
	w := &engineWindow{
		title:     "oxy-walk",
		minWidth:  320,
		minHeight: 240,
		width:     1280,
		height:    720,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("failed to create platform window: %v", err))
	}
	return w
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.onKeyUp = callback
}

func (w *engineWindow) SetMouseDeltaCallback(callback func(dx, dy float64)) {
	w.onMouseDelta = callback
}

func (w *engineWindow) SetPointerCallback(callback func(ev PointerEvent)) {
	w.onPointer = callback
}

// emitPointer forwards a pointer event if a callback is set.
func (w *engineWindow) emitPointer(phase PointerPhase, x, y float64) {
	if w.onPointer != nil {
		w.onPointer(PointerEvent{Phase: phase, X: x, Y: y})
	}
}

func (w *engineWindow) SetPointerLockCallback(callback func(locked bool)) {
	w.onPointerLock = callback
}

func (w *engineWindow) SetFocusLostCallback(callback func()) {
	w.onFocusLost = callback
}

func (w *engineWindow) SetPointerLock(locked bool) {
	if w.pointerLocked == locked {
		return
	}
	platformSetPointerLock(w, locked)
	w.pointerLocked = locked
	if w.onPointerLock != nil {
		w.onPointerLock(locked)
	}
}

func (w *engineWindow) PointerLocked() bool {
	return w.pointerLocked
}

func (w *engineWindow) PollGamepad() (GamepadState, bool) {
	return platformPollGamepad()
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) RequestClose() {
	platformRequestClose(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}
