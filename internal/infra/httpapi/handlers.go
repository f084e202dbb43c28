package httpapi

import (
	"encoding/json"
	"net/http"

	"teacher_timetable/internal/app"
	"teacher_timetable/internal/domain/adjustment"
	"teacher_timetable/internal/domain/user"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

// optionalString tells an absent JSON field apart from an explicit null.
type optionalString struct {
	Set   bool
	Value *string
}

func (o *optionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

type updateAdjustmentRequest struct {
	ID                string         `json:"adjustmentId"`
	Status            string         `json:"status"`
	SubstituteTeacher optionalString `json:"substituteTeacher"`
}

func (req updateAdjustmentRequest) input() app.UpdateAdjustmentInput {
	in := app.UpdateAdjustmentInput{ID: req.ID, Status: req.Status}
	if req.SubstituteTeacher.Set {
		in.Substitute = adjustment.SubstituteUpdate{Set: true, Value: req.SubstituteTeacher.Value}
	}
	return in
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var in app.NewAccount
	if err := decodeJSON(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.accounts.Register(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	token, err := s.tokens.NewAccessToken(u)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: u})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.accounts.Lookup(r.Context(), actorFromContext(r.Context()).Email)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleMyTimetable(w http.ResponseWriter, r *http.Request) {
	grid, err := s.timetables.MyGrid(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grid)
}

func (s *Server) handleSubmitLeave(w http.ResponseWriter, r *http.Request) {
	var in app.LeaveInput
	if err := decodeJSON(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	req, err := s.adjustments.SubmitLeaveRequest(r.Context(), actorFromContext(r.Context()), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (s *Server) handleMyAdjustments(w http.ResponseWriter, r *http.Request) {
	list, err := s.adjustments.ListMine(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleListTimetables(w http.ResponseWriter, r *http.Request) {
	grids, err := s.timetables.ListGrids(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grids)
}

func (s *Server) handleTeacherTimetable(w http.ResponseWriter, r *http.Request) {
	grid, err := s.timetables.TeacherGrid(r.Context(), actorFromContext(r.Context()), pathParam(r, "teacherEmail"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grid)
}

func (s *Server) handleListTeachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := s.accounts.ListTeachers(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, teachers)
}

func (s *Server) handleUpsertLecture(w http.ResponseWriter, r *http.Request) {
	var req app.UpsertSlotRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	lecture, err := s.timetables.UpsertSlot(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lecture)
}

func (s *Server) handleDeleteLecture(w http.ResponseWriter, r *http.Request) {
	err := s.timetables.RemoveSlot(r.Context(), actorFromContext(r.Context()),
		pathParam(r, "teacherEmail"), pathParam(r, "day"), pathParam(r, "lectureId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListAdjustments(w http.ResponseWriter, r *http.Request) {
	list, err := s.adjustments.ListAll(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleListPendingAdjustments(w http.ResponseWriter, r *http.Request) {
	list, err := s.adjustments.ListPending(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleUpdateAdjustment(w http.ResponseWriter, r *http.Request) {
	var req updateAdjustmentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	updated, err := s.adjustments.UpdateAdjustment(r.Context(), actorFromContext(r.Context()), req.input())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var in app.SendMessageInput
	if err := decodeJSON(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	msg, err := s.messaging.Send(r.Context(), actorFromContext(r.Context()), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	list, err := s.messaging.ListFor(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	msg, err := s.messaging.MarkRead(r.Context(), actorFromContext(r.Context()), pathParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}
