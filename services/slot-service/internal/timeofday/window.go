package timeofday

import "fmt"

// Window is a span of the day, Start inclusive. It is the Slot of the booking domain
// and also describes service-day windows and breaks.
type Window struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

func NewWindow(start, end TimeOfDay) (Window, error) {
	w := Window{Start: start, End: end}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

func (w Window) Validate() error {
	if !w.Start.Before(w.End) {
		return fmt.Errorf("%w: window %s must start before it ends", ErrInvalid, w)
	}
	return nil
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// Contains reports whether other lies fully inside w, both bounds inclusive.
func (w Window) Contains(other Window) bool {
	return other.Start.m >= w.Start.m && other.End.m <= w.End.m
}

// ContainsPoint reports whether t falls in [Start, End].
func (w Window) ContainsPoint(t TimeOfDay) bool {
	return t.m >= w.Start.m && t.m <= w.End.m
}

// Minutes is the length of the window.
func (w Window) Minutes() int {
	return w.End.m - w.Start.m
}
