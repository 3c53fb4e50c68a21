package demo

import "github.com/okian/wikiline/internal/domain/geometry"

// Measurements is what the sequencer needs to know about the page. Cards are
// screen rectangles; Content holds the same cards in scroll-content
// coordinates.
type Measurements struct {
	List       geometry.Rect
	Cards      []geometry.Rect
	Content    []geometry.Rect
	View       geometry.Viewport
	Dragged    geometry.Rect
	CardHeight float64
}

// Surface measures the timeline holding count cards scrolled to scrollTop.
type Surface interface {
	Measure(count int, scrollTop float64) Measurements
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(count int, scrollTop float64) Measurements

// Measure calls f.
func (f SurfaceFunc) Measure(count int, scrollTop float64) Measurements { return f(count, scrollTop) }

// dropZoneGap separates the bottom of the list from the waiting card.
const dropZoneGap = 40

// StackSurface measures a StackLayout with the waiting card below the list.
type StackSurface struct {
	Layout   geometry.StackLayout
	DropZone geometry.Point
}

// NewStackSurface places the drop zone under the visible list.
func NewStackSurface(layout geometry.StackLayout) StackSurface {
	return StackSurface{
		Layout:   layout,
		DropZone: geometry.Point{X: layout.Left, Y: layout.Top + layout.ViewHeight + dropZoneGap},
	}
}

// Measure implements Surface.
func (s StackSurface) Measure(count int, scrollTop float64) Measurements {
	content := s.Layout.Cards(count)
	list, screen := s.Layout.Screen(content, scrollTop)
	return Measurements{
		List:       list,
		Cards:      screen,
		Content:    content,
		View:       s.Layout.Viewport(count, scrollTop),
		Dragged:    s.Layout.Card(s.DropZone),
		CardHeight: s.Layout.CardHeight,
	}
}
