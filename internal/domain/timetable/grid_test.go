package timetable

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGridHasEveryDayAndPeriod(t *testing.T) {
	g := NewGrid("ann@school.edu")

	require.Len(t, g.Week, len(Days))
	for _, d := range Days {
		require.NotNil(t, g.Week[d], d)
		assert.Len(t, g.Week[d], PeriodsPerDay)
		for _, slot := range g.Week[d] {
			assert.Nil(t, slot)
		}
	}
	_, hasSunday := g.Week["sunday"]
	assert.False(t, hasSunday)
}

func TestParseDay(t *testing.T) {
	d, ok := ParseDay("  Monday ")
	assert.True(t, ok)
	assert.Equal(t, Monday, d)

	_, ok = ParseDay("sunday")
	assert.False(t, ok)
	_, ok = ParseDay("funday")
	assert.False(t, ok)
}

func TestDayOf(t *testing.T) {
	d, ok := DayOf(time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC).Weekday())
	assert.True(t, ok)
	assert.Equal(t, Monday, d)

	d, ok = DayOf(time.Saturday)
	assert.True(t, ok)
	assert.Equal(t, Saturday, d)

	_, ok = DayOf(time.Sunday)
	assert.False(t, ok)
}

func TestPlaceMovesLectureWithSameID(t *testing.T) {
	g := NewGrid("ann@school.edu")
	g.Place(Monday, 0, LectureSlot{ID: "l1", Subject: "Math"})
	g.Place(Wednesday, 3, LectureSlot{ID: "l1", Subject: "Math II"})

	assert.Nil(t, g.Week[Monday][0])
	require.NotNil(t, g.Week[Wednesday][3])
	assert.Equal(t, "Math II", g.Week[Wednesday][3].Subject)
}

func TestPlaceOverwritesInPlace(t *testing.T) {
	g := NewGrid("ann@school.edu")
	g.Place(Monday, 1, LectureSlot{ID: "l1", Subject: "Math"})
	g.Place(Monday, 1, LectureSlot{ID: "l1", Subject: "Algebra", Room: "B2"})

	assert.Equal(t, "Algebra", g.Week[Monday][1].Subject)
	assert.Equal(t, "B2", g.Week[Monday][1].Room)
}

func TestRemove(t *testing.T) {
	g := NewGrid("ann@school.edu")
	g.Place(Tuesday, 2, LectureSlot{ID: "l1", Subject: "Math"})

	assert.False(t, g.Remove(Monday, "l1"))
	assert.True(t, g.Remove(Tuesday, "l1"))
	assert.Nil(t, g.Week[Tuesday][2])
	assert.Len(t, g.Week[Tuesday], PeriodsPerDay)
	assert.False(t, g.Remove(Tuesday, "l1"))
}

func TestCloneIsDeep(t *testing.T) {
	g := NewGrid("ann@school.edu")
	g.Place(Friday, 6, LectureSlot{ID: "l1", Subject: "Art"})

	c := g.Clone()
	c.Week[Friday][6].Subject = "Music"
	c.Week[Friday][0] = &LectureSlot{ID: "l2"}

	assert.Equal(t, "Art", g.Week[Friday][6].Subject)
	assert.Nil(t, g.Week[Friday][0])
}

func TestValidPeriod(t *testing.T) {
	assert.True(t, ValidPeriod(0))
	assert.True(t, ValidPeriod(PeriodsPerDay-1))
	assert.False(t, ValidPeriod(-1))
	assert.False(t, ValidPeriod(PeriodsPerDay))
}

func TestGridJSONKeepsFixedShape(t *testing.T) {
	g := NewGrid("ann@school.edu")
	g.Place(Monday, 0, LectureSlot{ID: "l1", Subject: "Math", Room: "101", StartTime: "09:00", EndTime: "09:45"})

	raw, err := json.Marshal(g)
	require.NoError(t, err)

	var decoded struct {
		TeacherEmail string                       `json:"teacherEmail"`
		Timetable    map[string][]json.RawMessage `json:"timetable"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "ann@school.edu", decoded.TeacherEmail)
	assert.Len(t, decoded.Timetable, len(Days))
	assert.Len(t, decoded.Timetable["monday"], PeriodsPerDay)
	assert.JSONEq(t, `{"id":"l1","subject":"Math","room":"101","startTime":"09:00","endTime":"09:45"}`, string(decoded.Timetable["monday"][0]))
	assert.Equal(t, "null", string(decoded.Timetable["monday"][1]))
}

func TestNormalizeRestoresMissingDays(t *testing.T) {
	g := &Grid{TeacherEmail: "ann@school.edu", Week: map[Day]*Slots{Monday: {}}}
	g.Normalize()
	assert.Len(t, g.Week, len(Days))
}
