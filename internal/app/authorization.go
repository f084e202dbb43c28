package app

import (
	"teacher_timetable/internal/domain/access"
	"teacher_timetable/internal/domain/user"
)

// Authorizer answers role/operation questions; access.Policy implements it.
type Authorizer interface {
	Allowed(role user.Role, op access.Operation) bool
}

func authorize(p Authorizer, actor access.Actor, op access.Operation) error {
	if !actor.Authenticated() {
		return ErrNotAuthenticated
	}
	if !p.Allowed(actor.Role, op) {
		return newError(KindForbidden, "role "+string(actor.Role)+" may not perform "+string(op))
	}
	return nil
}
