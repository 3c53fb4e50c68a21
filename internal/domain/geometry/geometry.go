// Package geometry resolves pointer positions over the two drop surfaces into
// insertion targets. Every function works on rectangles the host has already
// measured; nothing here touches a live display.
package geometry

import "math"

// Layout constants shared with the host.
const (
	demoInset     = 12 // landing offset from the list edge when inserting first
	demoAppendGap = 8  // landing offset below the last card when appending
)

// Point is a screen position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle in screen coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Width of the rectangle.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height of the rectangle.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// CenterY is the vertical midpoint.
func (r Rect) CenterY() float64 { return r.Top + r.Height()/2 }

// ContainsX reports whether x lies within the horizontal extent, edges included.
func (r Rect) ContainsX(x float64) bool { return x >= r.Left && x <= r.Right }

// Contains reports whether p lies within r, edges included.
func (r Rect) Contains(p Point) bool {
	return r.ContainsX(p.X) && p.Y >= r.Top && p.Y <= r.Bottom
}

// Hover is an insertion target: the gap index and the indicator offset in
// pixels from the top of the list.
type Hover struct {
	Index int     `json:"index"`
	TopPx float64 `json:"topPx"`
}

// Viewport describes a scrollable list. Card rectangles passed alongside a
// Viewport are in content coordinates (offset from the top of the content).
type Viewport struct {
	ScrollTop    float64 `json:"scrollTop"`
	ClientHeight float64 `json:"clientHeight"`
	ScrollHeight float64 `json:"scrollHeight"`
}

// MaxScroll is the largest valid ScrollTop.
func (v Viewport) MaxScroll() float64 {
	return math.Max(0, v.ScrollHeight-v.ClientHeight)
}

// RailHoverIndex maps a pointer over the compact year rail to a gap index.
// The rail is split into count+1 equal vertical bands, one per gap. It
// returns false when the pointer is outside the rail.
func RailHoverIndex(p Point, rail Rect, count int) (int, bool) {
	if !rail.Contains(p) {
		return 0, false
	}
	count = max(0, count)
	ratio := 0.0
	if h := rail.Height(); h > 0 {
		ratio = clamp((p.Y-rail.Top)/h, 0, 1)
	}
	idx := int(math.Floor(ratio * float64(count+1)))
	return clampInt(idx, 0, count), true
}

// TimelineHover maps a pointer over the full card list to a gap index and an
// indicator offset. Gap i's hit region runs from the centre of card i-1 to the
// centre of card i, so the regions cover the whole list without holes: a
// pointer above every card resolves to 0 and one below every card to
// len(cards). It returns false only when the pointer is outside the list's
// horizontal extent.
func TimelineHover(p Point, list Rect, cards []Rect, cardHeight float64) (Hover, bool) {
	if !list.ContainsX(p.X) {
		return Hover{}, false
	}
	if len(cards) == 0 {
		return Hover{Index: 0, TopPx: 0}, true
	}
	idx := bandAt(p.Y, cards)
	return Hover{Index: idx, TopPx: InsertTopPx(list, cards, idx, cardHeight)}, true
}

// bandAt finds the gap whose hit region contains y. Unmatched values fall
// back to the gap after the last card.
func bandAt(y float64, cards []Rect) int {
	n := len(cards)
	if math.IsNaN(y) {
		return n
	}
	for i, c := range cards {
		if y < c.CenterY() {
			return i
		}
	}
	return n
}

// band returns the vertical extent of gap index within the list.
func band(list Rect, cards []Rect, index int) (top, bottom float64) {
	n := len(cards)
	switch {
	case index <= 0:
		return list.Top, cards[0].Top
	case index >= n:
		return cards[n-1].Bottom, list.Bottom
	default:
		return cards[index-1].Bottom, cards[index].Top
	}
}

// InsertTopPx is the indicator offset, relative to the list top, for a known
// gap index. The indicator is centred in the gap when the gap is taller than
// cardHeight and pinned to the gap top otherwise. Never negative.
func InsertTopPx(list Rect, cards []Rect, index int, cardHeight float64) float64 {
	if len(cards) == 0 {
		return 0
	}
	top, bottom := band(list, cards, index)
	var y float64
	if bottom-top > cardHeight {
		centred := (top+bottom)/2 - cardHeight/2
		y = clamp(centred, top, bottom-cardHeight)
	} else {
		y = top
	}
	return math.Max(0, math.Round(y-list.Top))
}

// DemoTargetPoint picks the screen point a scripted drag should release at so
// the card lands in gap index. dragged is the rectangle of the card being
// moved.
func DemoTargetPoint(list Rect, cards []Rect, index int, dragged Rect) Point {
	x := list.Left + demoInset
	if len(cards) > 0 {
		x = cards[0].Left
	}
	var y float64
	switch {
	case len(cards) == 0 || index <= 0:
		y = list.Top + demoInset
	case index >= len(cards):
		y = cards[len(cards)-1].Bottom + demoAppendGap
	default:
		top, bottom := band(list, cards, index)
		y = (top+bottom)/2 - dragged.Height()/2
	}
	return Point{X: math.Round(x), Y: math.Round(y)}
}

// EnsureInsertVisible returns the scroll offset that brings gap index into
// view and whether it differs from the current one. cards are in content
// coordinates. The list only scrolls when the gap lies outside the visible
// window; it is then centred, clamped to the scrollable range.
func EnsureInsertVisible(view Viewport, cards []Rect, index int) (float64, bool) {
	if len(cards) == 0 {
		return 0, view.ScrollTop != 0
	}
	var target float64
	switch {
	case index <= 0:
		target = 0
	case index >= len(cards):
		target = cards[len(cards)-1].Bottom
	default:
		target = (cards[index-1].Bottom + cards[index].Top) / 2
	}

	visibleTop := view.ScrollTop
	visibleBottom := visibleTop + view.ClientHeight
	if target >= visibleTop && target <= visibleBottom {
		return view.ScrollTop, false
	}
	next := clamp(target-view.ClientHeight/2, 0, view.MaxScroll())
	return next, next != view.ScrollTop
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Min(hi, math.Max(lo, v))
}

func clampInt(v, lo, hi int) int {
	return min(hi, max(lo, v))
}
