// internal/domain/timetable/grid.go
package timetable

import (
	"strings"
	"time"
)

// PeriodsPerDay is the fixed number of lecture slots in every day of a grid.
const PeriodsPerDay = 7

// Day is a lower-case weekday name used as a grid key.
type Day string

const (
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
	Saturday  Day = "saturday"
)

// Days lists the six teaching days in week order. There is no Sunday.
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// Subjects that occupy a slot without being a teaching assignment.
const (
	SubjectShortBreak = "Short Break"
	SubjectLunchBreak = "Lunch Break"
)

// ParseDay normalizes a day name and reports whether it is one of Days.
func ParseDay(raw string) (Day, bool) {
	d := Day(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Days {
		if d == known {
			return d, true
		}
	}
	return "", false
}

// DayOf maps a calendar weekday to its grid key. Sunday has no key.
func DayOf(w time.Weekday) (Day, bool) {
	switch w {
	case time.Monday:
		return Monday, true
	case time.Tuesday:
		return Tuesday, true
	case time.Wednesday:
		return Wednesday, true
	case time.Thursday:
		return Thursday, true
	case time.Friday:
		return Friday, true
	case time.Saturday:
		return Saturday, true
	default:
		return "", false
	}
}

// LectureSlot is one lecture placed in a grid position.
type LectureSlot struct {
	ID        string `json:"id"`
	Subject   string `json:"subject"`
	Room      string `json:"room"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// IsBreak reports whether the slot is a break placeholder.
func (l *LectureSlot) IsBreak() bool {
	return l.Subject == SubjectShortBreak || l.Subject == SubjectLunchBreak
}

// Slots is one day's fixed-length sequence; a nil entry is an empty period.
type Slots [PeriodsPerDay]*LectureSlot

// Grid is a teacher's weekly layout, keyed by the teacher's email.
type Grid struct {
	TeacherEmail string         `json:"teacherEmail"`
	Week         map[Day]*Slots `json:"timetable"`
}

// NewGrid builds a grid with every day present and every period empty.
func NewGrid(teacherEmail string) *Grid {
	g := &Grid{TeacherEmail: teacherEmail, Week: make(map[Day]*Slots, len(Days))}
	for _, d := range Days {
		g.Week[d] = &Slots{}
	}
	return g
}

// Normalize restores missing day keys after decoding from storage.
func (g *Grid) Normalize() {
	if g.Week == nil {
		g.Week = make(map[Day]*Slots, len(Days))
	}
	for _, d := range Days {
		if g.Week[d] == nil {
			g.Week[d] = &Slots{}
		}
	}
}

// Clone returns a deep copy; slot values are not shared with the receiver.
func (g *Grid) Clone() *Grid {
	c := NewGrid(g.TeacherEmail)
	for d, slots := range g.Week {
		if slots == nil {
			continue
		}
		copied := &Slots{}
		for i, l := range slots {
			if l != nil {
				lc := *l
				copied[i] = &lc
			}
		}
		c.Week[d] = copied
	}
	return c
}

// Place writes lecture at (day, period). Any other position in the grid
// holding the same id is emptied, so ids stay unique within the grid.
func (g *Grid) Place(day Day, period int, lecture LectureSlot) {
	for _, d := range Days {
		for i, l := range g.Week[d] {
			if l != nil && l.ID == lecture.ID && (d != day || i != period) {
				g.Week[d][i] = nil
			}
		}
	}
	g.Week[day][period] = &lecture
}

// Remove empties the first position on day holding lectureID.
func (g *Grid) Remove(day Day, lectureID string) bool {
	slots, ok := g.Week[day]
	if !ok || slots == nil {
		return false
	}
	for i, l := range slots {
		if l != nil && l.ID == lectureID {
			slots[i] = nil
			return true
		}
	}
	return false
}

// ValidPeriod reports whether idx addresses a slot.
func ValidPeriod(idx int) bool {
	return idx >= 0 && idx < PeriodsPerDay
}
