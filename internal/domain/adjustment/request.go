// internal/domain/adjustment/request.go
package adjustment

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a Request.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
	StatusResolved Status = "Resolved"
)

// legacyPending is the label older clients send for StatusPending.
const legacyPending = "Pending Admin Action"

var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusResolved}

// ParseStatus matches raw case-insensitively against Statuses.
func ParseStatus(raw string) (Status, bool) {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, legacyPending) {
		return StatusPending, true
	}
	for _, s := range Statuses {
		if strings.EqualFold(raw, string(s)) {
			return s, true
		}
	}
	return "", false
}

// AffectedLecture is a copy of a grid slot taken when the request was created.
type AffectedLecture struct {
	PeriodIndex int    `json:"periodIndex"`
	Subject     string `json:"subject"`
	Room        string `json:"room"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	LectureID   string `json:"lectureId"`
}

// Request is a leave-driven request to cover a teacher's lectures.
type Request struct {
	ID                string            `json:"id"`
	TeacherEmail      string            `json:"teacherEmail"`
	TeacherName       string            `json:"teacherName"`
	LeaveDate         time.Time         `json:"leaveDate"`
	Reason            string            `json:"reason"`
	Lectures          []AffectedLecture `json:"lectures"`
	Status            Status            `json:"status"`
	SubstituteTeacher *string           `json:"substituteTeacher"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// Clone returns a copy sharing no slices or pointers with r.
func (r *Request) Clone() *Request {
	c := *r
	c.Lectures = make([]AffectedLecture, len(r.Lectures))
	copy(c.Lectures, r.Lectures)
	if r.SubstituteTeacher != nil {
		sub := *r.SubstituteTeacher
		c.SubstituteTeacher = &sub
	}
	return &c
}

// SubstituteUpdate distinguishes "leave as is" (Set=false) from
// "overwrite" (Set=true); Value nil with Set=true clears the assignment.
type SubstituteUpdate struct {
	Set   bool
	Value *string
}

// KeepSubstitute leaves the current substitute untouched.
func KeepSubstitute() SubstituteUpdate { return SubstituteUpdate{} }

// ClearSubstitute unassigns the substitute.
func ClearSubstitute() SubstituteUpdate { return SubstituteUpdate{Set: true} }

// AssignSubstitute sets the substitute to email.
func AssignSubstitute(email string) SubstituteUpdate {
	return SubstituteUpdate{Set: true, Value: &email}
}

// Apply overwrites status and, when requested, the substitute.
func (r *Request) Apply(status Status, sub SubstituteUpdate, now time.Time) {
	r.Status = status
	if sub.Set {
		if sub.Value == nil {
			r.SubstituteTeacher = nil
		} else {
			v := *sub.Value
			r.SubstituteTeacher = &v
		}
	}
	r.UpdatedAt = now
}
