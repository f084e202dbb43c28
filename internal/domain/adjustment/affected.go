// internal/domain/adjustment/affected.go
package adjustment

import (
	"time"

	"teacher_timetable/internal/domain/timetable"
)

// DeriveAffectedLectures lists the teaching slots on the weekday of leaveDate,
// in period order. Empty periods and breaks are skipped; a Sunday yields none.
func DeriveAffectedLectures(grid *timetable.Grid, leaveDate time.Time) []AffectedLecture {
	affected := make([]AffectedLecture, 0)
	if grid == nil {
		return affected
	}
	day, ok := timetable.DayOf(leaveDate.Weekday())
	if !ok {
		return affected
	}
	slots := grid.Week[day]
	if slots == nil {
		return affected
	}
	for idx, l := range slots {
		if l == nil || l.IsBreak() {
			continue
		}
		affected = append(affected, AffectedLecture{
			PeriodIndex: idx,
			Subject:     l.Subject,
			Room:        l.Room,
			StartTime:   l.StartTime,
			EndTime:     l.EndTime,
			LectureID:   l.ID,
		})
	}
	return affected
}
