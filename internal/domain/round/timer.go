package round

import (
	"fmt"
	"time"
)

// startTimer restarts the elapsed clock. Only one tick chain is ever live.
func (g *Game) startTimer() {
	g.stopTimer()
	g.roundStart = g.sched.Now()
	g.elapsed = 0
	g.emit(Change{Topic: TopicTimer})
	g.armTick()
}

func (g *Game) armTick() {
	g.timer = g.sched.AfterFunc(g.tick, func() {
		g.timer = 0
		g.elapsed = g.sched.Now().Sub(g.roundStart)
		g.emit(Change{Topic: TopicTimer})
		g.armTick()
	})
}

func (g *Game) stopTimer() {
	if g.timer == 0 {
		return
	}
	g.sched.Cancel(g.timer)
	g.timer = 0
}

// TimerRunning reports whether the round timer is ticking.
func (g *Game) TimerRunning() bool {
	return g.timer != 0
}

// FormatElapsed renders d as m:ss.
func FormatElapsed(d time.Duration) string {
	total := max(0, int(d/time.Second))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
