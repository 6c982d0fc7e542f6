package schedule

import "fmt"

// DayOutOfRangeError is returned when a day is requested that the resolved
// month does not contain.
type DayOutOfRangeError struct {
	Requested   int
	DaysInMonth int
	Month       int
	Year        int
}

func (e *DayOutOfRangeError) Error() string {
	return fmt.Sprintf("day %d out of range for %02d/%d (month has %d days)",
		e.Requested, e.Month, e.Year, e.DaysInMonth)
}
