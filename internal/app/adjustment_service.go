package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"teacher_timetable/internal/domain/access"
	"teacher_timetable/internal/domain/adjustment"
	"teacher_timetable/internal/domain/timetable"
)

// LeaveDateLayout is the calendar-date format accepted for leave requests.
const LeaveDateLayout = "2006-01-02"

// LeaveInput is what a teacher submits when requesting leave.
type LeaveInput struct {
	LeaveDate string `json:"leaveDate" validate:"notblank"`
	Reason    string `json:"reason" validate:"notblank"`
}

// UpdateAdjustmentInput is an admin decision on an adjustment.
type UpdateAdjustmentInput struct {
	ID         string                      `json:"adjustmentId" validate:"notblank"`
	Status     string                      `json:"status" validate:"notblank"`
	Substitute adjustment.SubstituteUpdate `json:"-"`
}

type AdjustmentService struct {
	grids       timetable.Repository
	adjustments adjustment.Repository
	policy      Authorizer
	notifier    Notifier
	logger      *logrus.Entry
	now         func() time.Time
	newID       func() string
}

func NewAdjustmentService(
	grids timetable.Repository,
	adjustments adjustment.Repository,
	policy Authorizer,
	notifier Notifier,
	logger *logrus.Entry,
) *AdjustmentService {
	return &AdjustmentService{
		grids:       grids,
		adjustments: adjustments,
		policy:      policy,
		notifier:    notifier,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

func parseLeaveDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if d, err := time.Parse(LeaveDateLayout, raw); err == nil {
		return d, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), nil
}

// SubmitLeaveRequest snapshots the caller's lectures on the leave day and
// records a Pending adjustment. Repeated submissions create separate records.
func (s *AdjustmentService) SubmitLeaveRequest(ctx context.Context, actor access.Actor, in LeaveInput) (*adjustment.Request, error) {
	if err := authorize(s.policy, actor, access.OpSubmitLeave); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	leaveDate, err := parseLeaveDate(in.LeaveDate)
	if err != nil {
		return nil, &Error{
			Kind:   KindValidation,
			Reason: "leaveDate must be a date in YYYY-MM-DD format",
			Fields: []FieldError{{Field: "leaveDate", Error: "invalid date"}},
			Err:    err,
		}
	}

	grid, err := s.grids.Get(ctx, actor.Email)
	if err != nil {
		if errors.Is(err, timetable.ErrGridNotFound) {
			return nil, wrapError(KindNotFound, "timetable not found", err)
		}
		return nil, fmt.Errorf("failed to load timetable for %s: %w", actor.Email, err)
	}

	now := s.now()
	req := &adjustment.Request{
		ID:           s.newID(),
		TeacherEmail: actor.Email,
		TeacherName:  actor.Name,
		LeaveDate:    leaveDate,
		Reason:       strings.TrimSpace(in.Reason),
		Lectures:     adjustment.DeriveAffectedLectures(grid, leaveDate),
		Status:       adjustment.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.adjustments.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create adjustment: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"adjustment_id":  req.ID,
		"teacher_email":  req.TeacherEmail,
		"leave_date":     leaveDate.Format(LeaveDateLayout),
		"affected_count": len(req.Lectures),
	}).Info("Leave request submitted")
	s.notifier.LeaveRequestSubmitted(ctx, req)
	return req, nil
}

// ListPending returns the adjustments still awaiting an admin decision.
func (s *AdjustmentService) ListPending(ctx context.Context, actor access.Actor) ([]*adjustment.Request, error) {
	if err := authorize(s.policy, actor, access.OpListAdjustments); err != nil {
		return nil, err
	}
	pending, err := s.adjustments.ListByStatus(ctx, adjustment.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending adjustments: %w", err)
	}
	return pending, nil
}

// ListAll returns every adjustment in creation order.
func (s *AdjustmentService) ListAll(ctx context.Context, actor access.Actor) ([]*adjustment.Request, error) {
	if err := authorize(s.policy, actor, access.OpListAdjustments); err != nil {
		return nil, err
	}
	all, err := s.adjustments.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list adjustments: %w", err)
	}
	return all, nil
}

// ListMine returns the caller's own leave requests.
func (s *AdjustmentService) ListMine(ctx context.Context, actor access.Actor) ([]*adjustment.Request, error) {
	if err := authorize(s.policy, actor, access.OpListOwnAdjustments); err != nil {
		return nil, err
	}
	mine, err := s.adjustments.ListByTeacher(ctx, actor.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to list adjustments for %s: %w", actor.Email, err)
	}
	return mine, nil
}

// UpdateAdjustment overwrites the status and, if supplied, the substitute.
// Any of the four statuses may follow any other.
func (s *AdjustmentService) UpdateAdjustment(ctx context.Context, actor access.Actor, in UpdateAdjustmentInput) (*adjustment.Request, error) {
	if err := authorize(s.policy, actor, access.OpUpdateAdjustment); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	status, ok := adjustment.ParseStatus(in.Status)
	if !ok {
		return nil, newError(KindInvalidArgument, "unknown status "+in.Status)
	}
	sub := in.Substitute
	if sub.Set && sub.Value != nil {
		trimmed := strings.TrimSpace(*sub.Value)
		if trimmed == "" {
			sub = adjustment.ClearSubstitute()
		} else {
			sub = adjustment.AssignSubstitute(trimmed)
		}
	}

	now := s.now()
	updated, err := s.adjustments.Update(ctx, strings.TrimSpace(in.ID), func(r *adjustment.Request) error {
		r.Apply(status, sub, now)
		return nil
	})
	if err != nil {
		if errors.Is(err, adjustment.ErrNotFound) {
			return nil, wrapError(KindNotFound, "adjustment not found", err)
		}
		return nil, fmt.Errorf("failed to update adjustment %s: %w", in.ID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"adjustment_id": updated.ID,
		"status":        updated.Status,
		"admin":         actor.Email,
	}).Info("Adjustment updated")
	s.notifier.AdjustmentUpdated(ctx, updated)
	return updated, nil
}
