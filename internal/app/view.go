package app

import (
	"fmt"
	"strings"

	"github.com/irfansharif/iconwire/internal/tool"
)

// View is the host's toolbar and viewport state.
type View struct {
	Tool          tool.Kind
	Width, Height int
}

// NewView creates a view with the select tool active.
func NewView(width, height int) *View {
	return &View{
		Tool:   tool.Select,
		Width:  width,
		Height: height,
	}
}

// SetViewport updates the viewport dimensions.
func (v *View) SetViewport(width, height int) {
	v.Width = width
	v.Height = height
}

// Minimized is true when there is nothing to draw into.
func (v *View) Minimized() bool { return v.Width <= 0 || v.Height <= 0 }

// Toolbar renders the tool row shown in the window title, with the active
// tool bracketed.
func (v *View) Toolbar() string {
	labels := make([]string, len(tool.Kinds))
	for i, k := range tool.Kinds {
		labels[i] = fmt.Sprintf("%d:%s", i+1, k)
		if k == v.Tool {
			labels[i] = "[" + labels[i] + "]"
		}
	}
	return strings.Join(labels, " ")
}

// ToolForKey maps a toolbar shortcut to a tool: digits by toolbar position,
// letters by the tool's initial.
func ToolForKey(r rune) (tool.Kind, bool) {
	switch r {
	case '1', 's', 'S':
		return tool.Select, true
	case '2', 'a', 'A':
		return tool.Add, true
	case '3', 'c', 'C':
		return tool.Connect, true
	}
	return 0, false
}
