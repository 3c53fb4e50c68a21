package round

// Kind classifies a toast.
type Kind string

// Toast kinds.
const (
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
)

// Notifier shows short messages to the player. Fire and forget.
type Notifier interface {
	Notify(message string, kind Kind)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string, kind Kind)

// Notify calls f.
func (f NotifierFunc) Notify(message string, kind Kind) { f(message, kind) }

type nopNotifier struct{}

func (nopNotifier) Notify(string, Kind) {}

// Topic names what part of the game state changed.
type Topic string

// Change topics.
const (
	TopicLoad       Topic = "load"
	TopicRound      Topic = "round"
	TopicPlacement  Topic = "placement"
	TopicSlots      Topic = "slots"
	TopicTimer      Topic = "timer"
	TopicScoreboard Topic = "scoreboard"
	TopicDemo       Topic = "demo"
)

// Change is delivered to listeners after each mutation.
type Change struct {
	Topic Topic `json:"topic"`
	// Placement is set for TopicPlacement.
	Placement *Placement `json:"placement,omitempty"`
}

type listener struct {
	id int
	fn func(Change)
}

// OnChange registers fn to be called synchronously after every mutation.
// The returned function removes it.
func (g *Game) OnChange(fn func(Change)) func() {
	g.nextListener++
	id := g.nextListener
	g.listeners = append(g.listeners, listener{id: id, fn: fn})
	return func() {
		for i, l := range g.listeners {
			if l.id == id {
				g.listeners = append(g.listeners[:i:i], g.listeners[i+1:]...)
				return
			}
		}
	}
}

func (g *Game) emit(c Change) {
	// Listeners may register or remove listeners while being called.
	ls := append([]listener(nil), g.listeners...)
	for _, l := range ls {
		l.fn(c)
	}
}

// Notify passes a toast to the configured notifier.
func (g *Game) Notify(message string, kind Kind) {
	g.notifier.Notify(message, kind)
}
