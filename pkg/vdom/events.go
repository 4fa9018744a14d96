package vdom

// Handler is a callback bound to a live node by the render target.
// The differ never compares or patches handlers.
type Handler func()

// EventHandler pairs an event name with its handler.
type EventHandler struct {
	Event   string // "onclick", "oninput", etc.
	Handler Handler
}

// event creates an EventHandler with the given name and handler.
// The name is prefixed with "on" (e.g., "click" becomes "onclick").
func event(name string, handler Handler) EventHandler {
	return EventHandler{Event: "on" + name, Handler: handler}
}

// On binds a handler to an arbitrary event name.
func On(name string, handler Handler) EventHandler { return event(name, handler) }

// OnClick handles click events.
func OnClick(handler Handler) EventHandler { return event("click", handler) }

// OnInput handles input events.
func OnInput(handler Handler) EventHandler { return event("input", handler) }

// OnChange handles change events.
func OnChange(handler Handler) EventHandler { return event("change", handler) }

// OnSubmit handles form submit events.
func OnSubmit(handler Handler) EventHandler { return event("submit", handler) }

// OnKeyDown handles keydown events.
func OnKeyDown(handler Handler) EventHandler { return event("keydown", handler) }

// OnFocus handles focus events.
func OnFocus(handler Handler) EventHandler { return event("focus", handler) }

// OnBlur handles blur events.
func OnBlur(handler Handler) EventHandler { return event("blur", handler) }
