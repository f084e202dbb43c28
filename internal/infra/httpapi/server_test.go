package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teacher_timetable/internal/app"
	"teacher_timetable/internal/domain/access"
	"teacher_timetable/internal/infra/auth"
	"teacher_timetable/internal/infra/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)
	log := logrus.NewEntry(l)

	users := memory.NewUserRepository()
	grids := memory.NewTimetableRepository()
	adjustments := memory.NewAdjustmentRepository()
	messages := memory.NewMessageRepository()
	policy := access.NewPolicy()

	timetables := app.NewTimetableService(grids, policy, log)
	server := NewServer(
		app.NewAccountService(users, grids, timetables, policy, log),
		timetables,
		app.NewAdjustmentService(grids, adjustments, policy, app.NewLogNotificationService(adjustments, log), log),
		app.NewMessagingService(messages, users, policy, log),
		auth.NewTokenIssuer("test-secret", "test-issuer", time.Hour),
		log,
	)
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return ts
}

func doReq(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(payload)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func signupAndLogin(t *testing.T, ts *httptest.Server, name, email, role string) string {
	t.Helper()
	resp := doReq(t, http.MethodPost, ts.URL+"/auth/signup", "", map[string]any{
		"name": name, "email": email, "password": "password123", "role": role,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doReq(t, http.MethodPost, ts.URL+"/auth/login", "", map[string]any{"email": email, "password": "password123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[map[string]any](t, resp)
	token, _ := out["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp := doReq(t, http.MethodGet, ts.URL+"/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthErrors(t *testing.T) {
	ts := newTestServer(t)
	signupAndLogin(t, ts, "Ann", "ann@school.edu", "teacher")

	resp := doReq(t, http.MethodPost, ts.URL+"/auth/signup", "", map[string]any{
		"name": "Ann", "email": "ann@school.edu", "password": "password123", "role": "teacher",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DuplicateKey", decode[map[string]any](t, resp)["error"])

	resp = doReq(t, http.MethodPost, ts.URL+"/auth/login", "", map[string]any{"email": "ann@school.edu", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doReq(t, http.MethodGet, ts.URL+"/timetable", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Unauthenticated", decode[map[string]any](t, resp)["error"])

	resp = doReq(t, http.MethodGet, ts.URL+"/timetable", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doReq(t, http.MethodPost, ts.URL+"/auth/signup", "", `{"name": "X", "unknown": true}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "ValidationError", decode[map[string]any](t, resp)["error"])
}

func TestTeacherCannotUseAdminRoutes(t *testing.T) {
	ts := newTestServer(t)
	teacher := signupAndLogin(t, ts, "Ann", "ann@school.edu", "teacher")

	cases := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/admin/timetables", nil},
		{http.MethodGet, "/admin/timetables/ann@school.edu", nil},
		{http.MethodGet, "/admin/teachers", nil},
		{http.MethodGet, "/admin/adjustments", nil},
		{http.MethodGet, "/admin/adjustments/pending", nil},
		{http.MethodPost, "/admin/lectures", map[string]any{
			"teacherEmail": "ann@school.edu", "day": "monday", "periodIndex": 0,
			"subject": "Math", "room": "101", "startTime": "09:00", "endTime": "09:45",
		}},
		{http.MethodDelete, "/admin/lectures/ann@school.edu/monday/l1", nil},
		{http.MethodPost, "/admin/adjustments/update", map[string]any{"adjustmentId": "a1", "status": "Approved"}},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			resp := doReq(t, tc.method, ts.URL+tc.path, teacher, tc.body)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			assert.Equal(t, "Forbidden", decode[map[string]any](t, resp)["error"])
		})
	}
}

func TestTimetableAndAdjustmentFlow(t *testing.T) {
	ts := newTestServer(t)
	admin := signupAndLogin(t, ts, "Boss", "boss@school.edu", "admin")
	teacher := signupAndLogin(t, ts, "Ann", "ann@school.edu", "teacher")

	// Default grid is visible right after signup.
	resp := doReq(t, http.MethodGet, ts.URL+"/timetable", teacher, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	grid := decode[map[string]any](t, resp)
	week, _ := grid["timetable"].(map[string]any)
	assert.Len(t, week, 6)

	resp = doReq(t, http.MethodPost, ts.URL+"/admin/lectures", admin, map[string]any{
		"teacherEmail": "ann@school.edu", "day": "monday", "periodIndex": 9,
		"subject": "Math", "room": "101", "startTime": "09:00", "endTime": "09:45",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "InvalidPeriod", decode[map[string]any](t, resp)["error"])

	resp = doReq(t, http.MethodPost, ts.URL+"/admin/lectures", admin, map[string]any{
		"teacherEmail": "ann@school.edu", "day": "monday", "periodIndex": 0,
		"subject": "Math", "room": "101", "startTime": "09:00", "endTime": "09:45",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	lecture := decode[map[string]any](t, resp)
	lectureID, _ := lecture["id"].(string)
	require.NotEmpty(t, lectureID)

	resp = doReq(t, http.MethodGet, ts.URL+"/admin/timetables/ann@school.edu", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doReq(t, http.MethodPost, ts.URL+"/timetable/leave-requests", teacher, map[string]any{
		"leaveDate": "2024-06-03", "reason": "Conference",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[map[string]any](t, resp)
	assert.Equal(t, "Pending", created["status"])
	assert.Nil(t, created["substituteTeacher"])
	lectures, _ := created["lectures"].([]any)
	assert.Len(t, lectures, 1)
	adjID, _ := created["id"].(string)

	resp = doReq(t, http.MethodGet, ts.URL+"/admin/adjustments/pending", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]any](t, resp), 1)

	resp = doReq(t, http.MethodPost, ts.URL+"/admin/adjustments/update", admin, map[string]any{
		"adjustmentId": adjID, "status": "Approved", "substituteTeacher": "bob@school.edu",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "bob@school.edu", decode[map[string]any](t, resp)["substituteTeacher"])

	// Absent substitute keeps the assignment.
	resp = doReq(t, http.MethodPost, ts.URL+"/admin/adjustments/update", admin, map[string]any{
		"adjustmentId": adjID, "status": "Resolved",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "bob@school.edu", decode[map[string]any](t, resp)["substituteTeacher"])

	// Explicit null clears it.
	resp = doReq(t, http.MethodPost, ts.URL+"/admin/adjustments/update", admin,
		`{"adjustmentId": "`+adjID+`", "status": "Resolved", "substituteTeacher": null}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, decode[map[string]any](t, resp)["substituteTeacher"])

	resp = doReq(t, http.MethodPost, ts.URL+"/admin/adjustments/update", admin, map[string]any{
		"adjustmentId": adjID, "status": "Cancelled",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "InvalidArgument", decode[map[string]any](t, resp)["error"])

	resp = doReq(t, http.MethodGet, ts.URL+"/timetable/adjustments", teacher, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]any](t, resp), 1)

	resp = doReq(t, http.MethodDelete, ts.URL+"/admin/lectures/ann@school.edu/funday/"+lectureID, admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doReq(t, http.MethodDelete, ts.URL+"/admin/lectures/ann@school.edu/monday/"+lectureID, admin, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doReq(t, http.MethodDelete, ts.URL+"/admin/lectures/ann@school.edu/monday/"+lectureID, admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMessagingFlow(t *testing.T) {
	ts := newTestServer(t)
	admin := signupAndLogin(t, ts, "Boss", "boss@school.edu", "admin")
	teacher := signupAndLogin(t, ts, "Ann", "ann@school.edu", "teacher")

	resp := doReq(t, http.MethodPost, ts.URL+"/messages", teacher, map[string]any{
		"recipient": "boss@school.edu", "subject": "Hi", "body": "Hello",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doReq(t, http.MethodPost, ts.URL+"/messages", teacher, map[string]any{
		"recipient": "admin", "subject": "Room change", "body": "Can I swap rooms?",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	msg := decode[map[string]any](t, resp)
	msgID, _ := msg["id"].(string)
	assert.Equal(t, false, msg["read"])

	resp = doReq(t, http.MethodPut, ts.URL+"/messages/"+msgID+"/read", teacher, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doReq(t, http.MethodPut, ts.URL+"/messages/"+msgID+"/read", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decode[map[string]any](t, resp)["read"])

	resp = doReq(t, http.MethodGet, ts.URL+"/messages", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]any](t, resp), 1)

	resp = doReq(t, http.MethodPut, ts.URL+"/messages/missing/read", admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOptionalStringDistinguishesNullFromAbsent(t *testing.T) {
	var absent updateAdjustmentRequest
	require.NoError(t, json.Unmarshal([]byte(`{"adjustmentId":"a","status":"Approved"}`), &absent))
	assert.False(t, absent.input().Substitute.Set)

	var null updateAdjustmentRequest
	require.NoError(t, json.Unmarshal([]byte(`{"adjustmentId":"a","status":"Approved","substituteTeacher":null}`), &null))
	assert.True(t, null.input().Substitute.Set)
	assert.Nil(t, null.input().Substitute.Value)

	var set updateAdjustmentRequest
	require.NoError(t, json.Unmarshal([]byte(`{"adjustmentId":"a","status":"Approved","substituteTeacher":"x@school.edu"}`), &set))
	require.NotNil(t, set.input().Substitute.Value)
	assert.Equal(t, "x@school.edu", *set.input().Substitute.Value)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer  abc "))
	assert.Empty(t, bearerToken("Basic abc"))
	assert.Empty(t, bearerToken(""))
}

func TestStatusForUnknownKind(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(app.Kind("Weird")))
	assert.Equal(t, http.StatusConflict, statusFor(app.KindDuplicateKey))
}
