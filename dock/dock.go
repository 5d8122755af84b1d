// Package dock classifies drop points against the directional dock zones of
// a task switcher and computes the bounds a docked task snaps to.
//
// Zones are normalized rectangles scaled to the container size on each
// query. Scaled bounds are truncated to whole pixels and containment is
// inclusive on every edge.
package dock

import "fmt"

// CreateMode tells the window manager which half of a split a docked task
// takes.
type CreateMode int

const (
	CreateModeNone CreateMode = iota - 1
	CreateModeTopOrLeft
	CreateModeBottomOrRight
)

func (m CreateMode) String() string {
	switch m {
	case CreateModeTopOrLeft:
		return "top_or_left"
	case CreateModeBottomOrRight:
		return "bottom_or_right"
	}
	return "none"
}

// Alpha values of the dock area overlay.
const (
	DockAreaAlpha     = 192
	NoneDockAreaAlpha = 96
)

// RectF is a normalized rectangle.
type RectF struct {
	Left, Top, Right, Bottom float64
}

// Rect is a pixel rectangle.
type Rect struct {
	Left, Top, Right, Bottom int
}

// Width returns Right - Left.
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns Bottom - Top.
func (r Rect) Height() int { return r.Bottom - r.Top }

func (r Rect) String() string {
	return fmt.Sprintf("Rect(%d, %d - %d, %d)", r.Left, r.Top, r.Right, r.Bottom)
}

func (r RectF) scale(width, height int) Rect {
	return Rect{
		Left:   int(r.Left * float64(width)),
		Top:    int(r.Top * float64(height)),
		Right:  int(r.Right * float64(width)),
		Bottom: int(r.Bottom * float64(height)),
	}
}

// State is one dock target.
type State struct {
	name       string
	createMode CreateMode
	alpha      int
	touchArea  *RectF
	dockArea   *RectF
}

// The dock states. None has no zones and never accepts a drop.
var (
	None   = &State{name: "none", createMode: CreateModeNone, alpha: NoneDockAreaAlpha}
	Left   = newState("left", CreateModeTopOrLeft, RectF{0, 0, 0.25, 1})
	Top    = newState("top", CreateModeTopOrLeft, RectF{0, 0, 1, 0.25})
	Right  = newState("right", CreateModeBottomOrRight, RectF{0.75, 0, 1, 1})
	Bottom = newState("bottom", CreateModeBottomOrRight, RectF{0, 0.75, 1, 1})
)

// Directional lists the states that own a zone, in classification order.
var Directional = []*State{Left, Top, Right, Bottom}

func newState(name string, mode CreateMode, area RectF) *State {
	touch, dock := area, area
	return &State{
		name:       name,
		createMode: mode,
		alpha:      DockAreaAlpha,
		touchArea:  &touch,
		dockArea:   &dock,
	}
}

func (s *State) String() string { return s.name }

// CreateMode returns the split mode for tasks docked through this state.
func (s *State) CreateMode() CreateMode { return s.createMode }

// DockAreaAlpha returns the overlay alpha shown while this state is targeted.
func (s *State) DockAreaAlpha() int { return s.alpha }

// TouchAreaContainsPoint reports whether (x, y) falls inside the touch zone
// scaled to width x height.
func (s *State) TouchAreaContainsPoint(width, height int, x, y float64) bool {
	if s.touchArea == nil {
		return false
	}
	r := s.touchArea.scale(width, height)
	return x >= float64(r.Left) && y >= float64(r.Top) &&
		x <= float64(r.Right) && y <= float64(r.Bottom)
}

// AcceptsDrop is TouchAreaContainsPoint for integer drop coordinates.
func (s *State) AcceptsDrop(x, y, width, height int) bool {
	return s.TouchAreaContainsPoint(width, height, float64(x), float64(y))
}

// DockedBounds returns the area a task docked through this state occupies.
// None yields the zero Rect.
func (s *State) DockedBounds(width, height int) Rect {
	if s.dockArea == nil {
		return Rect{}
	}
	return s.dockArea.scale(width, height)
}

// Classify returns the first directional state whose touch zone contains
// the point, or None.
func Classify(width, height int, x, y float64) *State {
	for _, s := range Directional {
		if s.TouchAreaContainsPoint(width, height, x, y) {
			return s
		}
	}
	return None
}
