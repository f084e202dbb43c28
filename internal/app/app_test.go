package app

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"teacher_timetable/internal/domain/access"
	"teacher_timetable/internal/domain/adjustment"
	"teacher_timetable/internal/domain/user"
	"teacher_timetable/internal/infra/memory"
)

var (
	adminActor   = access.Actor{Email: "boss@school.edu", Name: "Boss", Role: user.RoleAdmin}
	teacherActor = access.Actor{Email: "ann@school.edu", Name: "Ann", Role: user.RoleTeacher}
	otherTeacher = access.Actor{Email: "bob@school.edu", Name: "Bob", Role: user.RoleTeacher}
)

type recordingNotifier struct {
	mu        sync.Mutex
	submitted []*adjustment.Request
	updated   []*adjustment.Request
}

func (n *recordingNotifier) LeaveRequestSubmitted(_ context.Context, req *adjustment.Request) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.submitted = append(n.submitted, req)
}

func (n *recordingNotifier) AdjustmentUpdated(_ context.Context, req *adjustment.Request) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updated = append(n.updated, req)
}

type fixture struct {
	users       *memory.UserRepository
	grids       *memory.TimetableRepository
	adjRepo     *memory.AdjustmentRepository
	msgRepo     *memory.MessageRepository
	notifier    *recordingNotifier
	policy      access.Policy
	timetables  *TimetableService
	adjustments *AdjustmentService
	messaging   *MessagingService
	accounts    *AccountService
	clock       time.Time
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// newFixture wires every service over in-memory storage and registers
// boss (admin), ann and bob (teachers).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:    memory.NewUserRepository(),
		grids:    memory.NewTimetableRepository(),
		adjRepo:  memory.NewAdjustmentRepository(),
		msgRepo:  memory.NewMessageRepository(),
		notifier: &recordingNotifier{},
		clock:    time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
	}
	f.policy = access.NewPolicy()
	log := quietLogger()
	f.timetables = NewTimetableService(f.grids, f.policy, log)
	f.adjustments = NewAdjustmentService(f.grids, f.adjRepo, f.policy, f.notifier, log)
	f.messaging = NewMessagingService(f.msgRepo, f.users, f.policy, log)
	f.accounts = NewAccountService(f.users, f.grids, f.timetables, f.policy, log)

	tick := func() time.Time {
		f.clock = f.clock.Add(time.Second)
		return f.clock
	}
	f.adjustments.now = tick
	f.messaging.now = tick
	f.accounts.now = tick

	ctx := context.Background()
	for _, a := range []access.Actor{adminActor, teacherActor, otherTeacher} {
		_, err := f.accounts.Register(ctx, NewAccount{
			Name:     a.Name,
			Email:    a.Email,
			Password: "password123",
			Role:     string(a.Role),
		})
		require.NoError(t, err)
	}
	return f
}

func intPtr(i int) *int { return &i }

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "error: %v", err)
}

func anonymous() access.Actor { return access.Actor{} }
