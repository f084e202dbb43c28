// internal/domain/access/policy.go
package access

import "teacher_timetable/internal/domain/user"

// Operation names a guarded action.
type Operation string

const (
	OpViewOwnTimetable   Operation = "timetable.view_own"
	OpViewAnyTimetable   Operation = "timetable.view_any"
	OpEditLecture        Operation = "timetable.edit_lecture"
	OpListTeachers       Operation = "users.list_teachers"
	OpSubmitLeave        Operation = "adjustment.submit_leave"
	OpListOwnAdjustments Operation = "adjustment.list_own"
	OpListAdjustments    Operation = "adjustment.list"
	OpUpdateAdjustment   Operation = "adjustment.update"
	OpSendMessage        Operation = "message.send"
	OpListMessages       Operation = "message.list"
	OpMarkMessageRead    Operation = "message.mark_read"
)

// Actor is the authenticated caller as supplied by the identity layer.
type Actor struct {
	Email string
	Name  string
	Role  user.Role
}

// Authenticated reports whether the identity layer resolved a caller.
func (a Actor) Authenticated() bool {
	return a.Email != "" && a.Role != ""
}

var rules = map[user.Role]map[Operation]bool{
	user.RoleAdmin: {
		OpViewAnyTimetable: true,
		OpEditLecture:      true,
		OpListTeachers:     true,
		OpListAdjustments:  true,
		OpUpdateAdjustment: true,
		OpSendMessage:      true,
		OpListMessages:     true,
		OpMarkMessageRead:  true,
	},
	user.RoleTeacher: {
		OpViewOwnTimetable:   true,
		OpSubmitLeave:        true,
		OpListOwnAdjustments: true,
		OpSendMessage:        true,
		OpListMessages:       true,
		OpMarkMessageRead:    true,
	},
}

// Allowed is the single role/operation predicate used by every service.
func Allowed(role user.Role, op Operation) bool {
	return rules[role][op]
}

// Policy adapts Allowed to the Authorizer interface consumed by services.
type Policy struct{}

// NewPolicy returns the static role policy.
func NewPolicy() Policy { return Policy{} }

// Allowed reports whether role may perform op.
func (Policy) Allowed(role user.Role, op Operation) bool {
	return Allowed(role, op)
}
