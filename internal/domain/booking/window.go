package booking

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidWindow   = errors.New("booking: invalid stay window")
	ErrWindowInverted  = fmt.Errorf("%w: check-out must be after check-in", ErrInvalidWindow)
	ErrBadCheckInDay   = fmt.Errorf("%w: check-in is not on the designated weekday", ErrInvalidWindow)
	ErrBadCheckOutDay  = fmt.Errorf("%w: check-out is not on the designated weekday", ErrInvalidWindow)
	ErrNotExactlyWeeks = fmt.Errorf("%w: stay must span exactly one week", ErrInvalidWindow)
)

// Window is the half-open interval [CheckIn, CheckOut). Both bounds are
// UTC day-aligned: CheckIn is the first night, CheckOut the morning the
// house is free again.
type Window struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

// WeekPolicy is the business rule for admissible stays. The Tuesday-to-Monday
// one-week rhythm is policy, not structure, so it is threaded in from
// configuration rather than hard-coded.
type WeekPolicy struct {
	CheckInWeekday  time.Weekday
	CheckOutWeekday time.Weekday
	WeekLength      time.Duration
}

// DefaultWeekPolicy matches the house rules: arrive Tuesday, leave the
// following Monday, exactly one week per booking.
func DefaultWeekPolicy() WeekPolicy {
	return WeekPolicy{
		CheckInWeekday:  time.Tuesday,
		CheckOutWeekday: time.Monday,
		WeekLength:      7 * 24 * time.Hour,
	}
}

// NormalizeWindow canonicalizes a raw date pair into a policy-valid Window.
// The raw start collapses to the start of its UTC day; the raw end is treated
// as an inclusive last day, so the exclusive CheckOut becomes the start of the
// following day. Pure function, no I/O.
func NormalizeWindow(rawStart, rawEnd time.Time, policy WeekPolicy) (Window, error) {
	checkIn := startOfDay(rawStart)
	lastDay := startOfDay(rawEnd)
	checkOut := lastDay.Add(24 * time.Hour)

	if !checkOut.After(checkIn) {
		return Window{}, ErrWindowInverted
	}
	if checkIn.Weekday() != policy.CheckInWeekday {
		return Window{}, ErrBadCheckInDay
	}
	if lastDay.Weekday() != policy.CheckOutWeekday {
		return Window{}, ErrBadCheckOutDay
	}
	if checkOut.Sub(checkIn) != policy.WeekLength {
		return Window{}, ErrNotExactlyWeeks
	}
	return Window{CheckIn: checkIn, CheckOut: checkOut}, nil
}

// Overlaps reports whether two half-open windows share at least one night.
func (w Window) Overlaps(other Window) bool {
	return w.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(w.CheckOut)
}

func (w Window) Nights() int {
	return int(w.CheckOut.Sub(w.CheckIn).Hours()/24) - 1
}

// Weeks is the credit cost of the window: the duration in policy weeks,
// rounded up. An exact one-week window always costs 1.
func (w Window) Weeks(policy WeekPolicy) int {
	length := policy.WeekLength
	if length <= 0 {
		length = DefaultWeekPolicy().WeekLength
	}
	span := w.CheckOut.Sub(w.CheckIn)
	if span <= 0 {
		return 0
	}
	weeks := int(span / length)
	if span%length != 0 {
		weeks++
	}
	return weeks
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
