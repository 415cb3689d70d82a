package reporting

import "time"

// Schedule is the delay series between flushes: each Initial delay once, in
// order, then Recurring forever. Every delay counts from the previous flush.
type Schedule struct {
	Initial   []time.Duration
	Recurring time.Duration
}

// Next returns the delay before flush number i (zero based), or false when
// the series is exhausted.
func (s Schedule) Next(i int) (time.Duration, bool) {
	if i < len(s.Initial) {
		return s.Initial[i], true
	}
	if s.Recurring > 0 {
		return s.Recurring, true
	}
	return 0, false
}

// Millis builds a Schedule from millisecond values.
func Millis(initial []int, recurring int) Schedule {
	s := Schedule{Recurring: time.Duration(recurring) * time.Millisecond}
	for _, ms := range initial {
		s.Initial = append(s.Initial, time.Duration(ms)*time.Millisecond)
	}
	return s
}
