// Package phase maps wall-clock dates onto the four-week newsletter rhythm.
//
// A cycle spans four week buckets: two collecting questions, one collecting
// answers, and one publishing the finished issue. The state is recomputed
// from the current date on every request; nothing is persisted here.
package phase

import "time"

// State is the portion of the publication cycle a date falls in.
type State int

const (
	// CollectQuestions covers the first two weeks of a cycle, when
	// participants submit questions for the upcoming issue.
	CollectQuestions State = iota
	// CollectAnswers covers the third week, when participants answer.
	CollectAnswers
	// Publish covers the fourth week, when the issue is rendered and mailed.
	Publish
)

func (s State) String() string {
	switch s {
	case CollectQuestions:
		return "collect-questions"
	case CollectAnswers:
		return "collect-answers"
	case Publish:
		return "publish"
	default:
		return "unknown"
	}
}

// WeekIndex numbers the weeks of the year with Sunday as the first day of
// each week. Days before the year's first Sunday fall in week zero. This is
// the load-bearing week policy: a Sunday counts toward the week it opens,
// not the ISO week that ends on it.
func WeekIndex(t time.Time) int {
	return (t.YearDay() + 6 - int(t.Weekday())) / 7
}

// Slot returns the position of t within the four-week cycle, in [0, 3].
// Slot zero is the first questions week and the only window in which the
// issue counter advances.
func Slot(t time.Time) int {
	slot := (WeekIndex(t) - 1) % 4
	if slot < 0 {
		slot += 4
	}
	return slot
}

// StateAt resolves the cycle state for an arbitrary date.
func StateAt(t time.Time) State {
	switch Slot(t) {
	case 0, 1:
		return CollectQuestions
	case 2:
		return CollectAnswers
	default:
		return Publish
	}
}

// Now resolves the cycle state for the current date.
func Now() State {
	return StateAt(time.Now())
}
