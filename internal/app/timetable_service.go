package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"teacher_timetable/internal/domain/access"
	"teacher_timetable/internal/domain/timetable"
)

var errLectureNotFound = errors.New("lecture not found")

// SlotInput carries the lecture fields an admin supplies for a period.
type SlotInput struct {
	Subject   string `json:"subject" validate:"notblank"`
	Room      string `json:"room" validate:"notblank"`
	StartTime string `json:"startTime" validate:"notblank"`
	EndTime   string `json:"endTime" validate:"notblank"`
}

// UpsertSlotRequest places a lecture in a teacher's grid. A non-empty
// LectureID keeps that id (edit); otherwise a fresh one is generated.
type UpsertSlotRequest struct {
	TeacherEmail string `json:"teacherEmail" validate:"notblank"`
	Day          string `json:"day" validate:"notblank"`
	PeriodIndex  *int   `json:"periodIndex" validate:"required"`
	LectureID    string `json:"lectureId"`
	SlotInput
}

type TimetableService struct {
	grids  timetable.Repository
	policy Authorizer
	logger *logrus.Entry
	newID  func() string
}

func NewTimetableService(grids timetable.Repository, policy Authorizer, logger *logrus.Entry) *TimetableService {
	return &TimetableService{
		grids:  grids,
		policy: policy,
		logger: logger,
		newID:  uuid.NewString,
	}
}

// CreateDefault stores an all-empty grid for a newly registered teacher.
func (s *TimetableService) CreateDefault(ctx context.Context, teacherEmail string) (*timetable.Grid, error) {
	teacherEmail = cleanEmail(teacherEmail)
	if teacherEmail == "" {
		return nil, newError(KindValidation, "teacher email is required")
	}
	grid := timetable.NewGrid(teacherEmail)
	if err := s.grids.Create(ctx, grid); err != nil {
		if errors.Is(err, timetable.ErrGridExists) {
			return nil, wrapError(KindDuplicateKey, "timetable already exists for "+teacherEmail, err)
		}
		return nil, fmt.Errorf("failed to create default timetable: %w", err)
	}
	s.logger.WithField("teacher_email", teacherEmail).Info("Default timetable created")
	return grid, nil
}

// GetGrid returns the stored grid or, when none exists, an unsaved default.
func (s *TimetableService) GetGrid(ctx context.Context, teacherEmail string) (*timetable.Grid, error) {
	teacherEmail = cleanEmail(teacherEmail)
	grid, err := s.grids.Get(ctx, teacherEmail)
	if err != nil {
		if errors.Is(err, timetable.ErrGridNotFound) {
			return timetable.NewGrid(teacherEmail), nil
		}
		return nil, fmt.Errorf("failed to get timetable for %s: %w", teacherEmail, err)
	}
	return grid, nil
}

// MyGrid is the teacher's own view.
func (s *TimetableService) MyGrid(ctx context.Context, actor access.Actor) (*timetable.Grid, error) {
	if err := authorize(s.policy, actor, access.OpViewOwnTimetable); err != nil {
		return nil, err
	}
	return s.GetGrid(ctx, actor.Email)
}

// TeacherGrid lets an admin inspect any teacher's grid.
func (s *TimetableService) TeacherGrid(ctx context.Context, actor access.Actor, teacherEmail string) (*timetable.Grid, error) {
	if err := authorize(s.policy, actor, access.OpViewAnyTimetable); err != nil {
		return nil, err
	}
	return s.GetGrid(ctx, teacherEmail)
}

// ListGrids returns every stored grid keyed by teacher email.
func (s *TimetableService) ListGrids(ctx context.Context, actor access.Actor) (map[string]*timetable.Grid, error) {
	if err := authorize(s.policy, actor, access.OpViewAnyTimetable); err != nil {
		return nil, err
	}
	grids, err := s.grids.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list timetables: %w", err)
	}
	byTeacher := make(map[string]*timetable.Grid, len(grids))
	for _, g := range grids {
		byTeacher[g.TeacherEmail] = g
	}
	return byTeacher, nil
}

func (s *TimetableService) UpsertSlot(ctx context.Context, actor access.Actor, req UpsertSlotRequest) (*timetable.LectureSlot, error) {
	if err := authorize(s.policy, actor, access.OpEditLecture); err != nil {
		return nil, err
	}
	if err := validateInput(req); err != nil {
		return nil, err
	}
	day, ok := timetable.ParseDay(req.Day)
	if !ok {
		return nil, newError(KindInvalidArgument, "unknown day "+req.Day)
	}
	period := *req.PeriodIndex
	if !timetable.ValidPeriod(period) {
		return nil, newError(KindInvalidPeriod, fmt.Sprintf("period index %d outside [0,%d)", period, timetable.PeriodsPerDay))
	}

	lecture := timetable.LectureSlot{
		ID:        strings.TrimSpace(req.LectureID),
		Subject:   strings.TrimSpace(req.Subject),
		Room:      strings.TrimSpace(req.Room),
		StartTime: strings.TrimSpace(req.StartTime),
		EndTime:   strings.TrimSpace(req.EndTime),
	}
	if lecture.ID == "" {
		lecture.ID = s.newID()
	}

	teacherEmail := cleanEmail(req.TeacherEmail)
	_, err := s.grids.Mutate(ctx, teacherEmail, func(g *timetable.Grid) error {
		g.Place(day, period, lecture)
		return nil
	})
	if err != nil {
		if errors.Is(err, timetable.ErrGridNotFound) {
			return nil, wrapError(KindNotFound, "teacher timetable not found", err)
		}
		return nil, fmt.Errorf("failed to save lecture: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"teacher_email": teacherEmail,
		"day":           day,
		"period":        period,
		"lecture_id":    lecture.ID,
		"admin":         actor.Email,
	}).Info("Lecture saved")
	return &lecture, nil
}

func (s *TimetableService) RemoveSlot(ctx context.Context, actor access.Actor, teacherEmail, rawDay, lectureID string) error {
	if err := authorize(s.policy, actor, access.OpEditLecture); err != nil {
		return err
	}
	day, ok := timetable.ParseDay(rawDay)
	if !ok {
		return newError(KindNotFound, "day not found: "+rawDay)
	}
	teacherEmail = cleanEmail(teacherEmail)
	_, err := s.grids.Mutate(ctx, teacherEmail, func(g *timetable.Grid) error {
		if !g.Remove(day, lectureID) {
			return errLectureNotFound
		}
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, timetable.ErrGridNotFound):
		return wrapError(KindNotFound, "teacher timetable not found", err)
	case errors.Is(err, errLectureNotFound):
		return wrapError(KindNotFound, "lecture not found", err)
	default:
		return fmt.Errorf("failed to delete lecture: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"teacher_email": teacherEmail,
		"day":           day,
		"lecture_id":    lectureID,
		"admin":         actor.Email,
	}).Info("Lecture removed")
	return nil
}
