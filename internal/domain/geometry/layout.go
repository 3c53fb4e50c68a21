package geometry

// StackLayout produces deterministic measurements for a vertical stack of
// equally sized cards. It stands in for host measurements when none have
// been reported.
type StackLayout struct {
	Left       float64 `json:"left"`
	Top        float64 `json:"top"`
	Width      float64 `json:"width"`
	CardHeight float64 `json:"cardHeight"`
	Gap        float64 `json:"gap"`
	// Padding is the space between the list edge and the first or last card.
	Padding float64 `json:"padding"`
	// ViewHeight is the visible height of the list. Zero means the whole stack is visible.
	ViewHeight float64 `json:"viewHeight"`
}

// DefaultStackLayout matches the card size of the standard front end.
func DefaultStackLayout() StackLayout {
	return StackLayout{
		Left:       24,
		Top:        160,
		Width:      360,
		CardHeight: 72,
		Gap:        12,
		Padding:    12,
		ViewHeight: 480,
	}
}

// ContentHeight is the full height of a stack of n cards.
func (l StackLayout) ContentHeight(n int) float64 {
	if n <= 0 {
		return 2 * l.Padding
	}
	return 2*l.Padding + float64(n)*l.CardHeight + float64(n-1)*l.Gap
}

// Cards returns the content-coordinate rectangles of n stacked cards.
func (l StackLayout) Cards(n int) []Rect {
	out := make([]Rect, 0, max(0, n))
	y := l.Padding
	for i := 0; i < n; i++ {
		out = append(out, Rect{Left: 0, Top: y, Right: l.Width, Bottom: y + l.CardHeight})
		y += l.CardHeight + l.Gap
	}
	return out
}

// Viewport describes the list scrolled to scrollTop.
func (l StackLayout) Viewport(n int, scrollTop float64) Viewport {
	content := l.ContentHeight(n)
	client := l.ViewHeight
	if client <= 0 || client > content {
		client = content
	}
	return Viewport{ScrollTop: scrollTop, ClientHeight: client, ScrollHeight: content}
}

// Screen converts content-coordinate cards into screen rectangles for the
// given scroll offset, along with the visible list rectangle.
func (l StackLayout) Screen(cards []Rect, scrollTop float64) (list Rect, screen []Rect) {
	view := l.Viewport(len(cards), scrollTop)
	list = Rect{Left: l.Left, Top: l.Top, Right: l.Left + l.Width, Bottom: l.Top + view.ClientHeight}
	screen = make([]Rect, len(cards))
	for i, c := range cards {
		screen[i] = Rect{
			Left:   l.Left + c.Left,
			Top:    l.Top + c.Top - scrollTop,
			Right:  l.Left + c.Right,
			Bottom: l.Top + c.Bottom - scrollTop,
		}
	}
	return list, screen
}

// Card returns the screen rectangle of a detached card, such as the one
// waiting in the drop zone, placed at origin.
func (l StackLayout) Card(origin Point) Rect {
	return Rect{Left: origin.X, Top: origin.Y, Right: origin.X + l.Width, Bottom: origin.Y + l.CardHeight}
}
