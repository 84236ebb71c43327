package alert

import (
	"fmt"
	"time"
)

// Window is a daily quiet period given as time-of-day bounds. A start later
// than the end wraps past midnight. Both bounds are inside the window. The
// zero Window has no quiet hours.
type Window struct {
	Start time.Duration
	End   time.Duration
}

// ParseWindow parses "HH:MM" bounds.
func ParseWindow(start, end string) (Window, error) {
	s, err := parseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := parseClock(end)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: s, End: e}, nil
}

func parseClock(v string) (time.Duration, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("parse quiet hour %q: %w", v, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Contains reports whether t's wall clock falls in the window.
func (w Window) Contains(t time.Time) bool {
	if w.Start == w.End && w.Start == 0 {
		return false
	}
	h, m, sec := t.Clock()
	tod := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second + time.Duration(t.Nanosecond())
	if w.Start > w.End {
		return tod >= w.Start || tod <= w.End
	}
	return w.Start <= tod && tod <= w.End
}

func (w Window) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d",
		int(w.Start.Hours()), int(w.Start.Minutes())%60,
		int(w.End.Hours()), int(w.End.Minutes())%60)
}
