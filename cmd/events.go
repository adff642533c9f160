package main

import (
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/irfansharif/iconwire/internal/app"
)

// EventHandlers forwards GLFW window events to the editor.
type EventHandlers struct {
	application *app.App
	window      *glfw.Window
}

// NewEventHandlers creates the handlers and installs their callbacks.
func NewEventHandlers(application *app.App, window *glfw.Window) *EventHandlers {
	eh := &EventHandlers{
		application: application,
		window:      window,
	}
	eh.SetupCallbacks(window)
	return eh
}

// SetupCallbacks configures all GLFW event callbacks.
func (eh *EventHandlers) SetupCallbacks(window *glfw.Window) {
	window.SetKeyCallback(func(wnd *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		eh.handleKey(key, action) // tool switching
	})
	window.SetMouseButtonCallback(func(wnd *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		eh.handleMouseButton(button, action)
	})
	window.SetCursorPosCallback(func(wnd *glfw.Window, xpos, ypos float64) {
		eh.application.Dispatcher.MouseMove(eh.framebufferPos(xpos, ypos))
	})
	window.SetCursorEnterCallback(func(wnd *glfw.Window, entered bool) {
		eh.handleCursorEnter(entered)
	})
	window.SetFramebufferSizeCallback(func(wnd *glfw.Window, newW, newH int) {
		eh.application.Resize(newW, newH)
	})
}

// handleKey switches tools on 1/2/3 or S/A/C; escape closes the window.
func (eh *EventHandlers) handleKey(key glfw.Key, action glfw.Action) {
	if action != glfw.Press {
		return
	}
	if key == glfw.KeyEscape {
		eh.window.SetShouldClose(true)
		return
	}
	// GLFW key codes for digits and letters are their ASCII values.
	if kind, ok := app.ToolForKey(rune(key)); ok {
		eh.application.SetTool(kind)
	}
}

// handleMouseButton forwards left button presses and releases.
func (eh *EventHandlers) handleMouseButton(button glfw.MouseButton, action glfw.Action) {
	if button != glfw.MouseButtonLeft {
		return // nothing to do
	}

	x, y := eh.framebufferPos(eh.window.GetCursorPos())
	switch action {
	case glfw.Press:
		eh.application.Dispatcher.MouseDown(x, y)
	case glfw.Release:
		eh.application.Dispatcher.MouseUp(x, y)
	}
}

// handleCursorEnter forwards the pointer entering or leaving the canvas.
func (eh *EventHandlers) handleCursorEnter(entered bool) {
	x, y := eh.framebufferPos(eh.window.GetCursorPos())
	if entered {
		eh.application.Dispatcher.MouseOver(x, y)
	} else {
		eh.application.Dispatcher.MouseOut(x, y)
	}
}

// framebufferPos converts window coordinates to framebuffer pixels, the
// space the canvas is sized in.
func (eh *EventHandlers) framebufferPos(x, y float64) (float64, float64) {
	scaleX, scaleY := eh.window.GetContentScale()
	return x * float64(scaleX), y * float64(scaleY)
}
