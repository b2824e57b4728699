package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	clockMocks "github.com/rgeorgiev/clockin/internal/common/clock/mocks"
	"github.com/rgeorgiev/clockin/internal/models"
	sessionRepo "github.com/rgeorgiev/clockin/internal/repositories/session"
	sessionMocks "github.com/rgeorgiev/clockin/internal/repositories/session/mocks"
)

type StatsServiceTestSuite struct {
	suite.Suite
	mockCtrl        *gomock.Controller
	mockSessionRepo *sessionMocks.MockRepository
	mockClock       *clockMocks.MockClock
	statsService    Service
	ctx             context.Context

	testTime    time.Time
	testGuildID string
}

func (s *StatsServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockSessionRepo = sessionMocks.NewMockRepository(s.mockCtrl)
	s.mockClock = clockMocks.NewMockClock(s.mockCtrl)

	s.ctx = context.Background()
	s.testTime = time.Date(2025, 4, 19, 12, 0, 0, 0, time.UTC)
	s.testGuildID = "test-guild-id"

	s.mockClock.EXPECT().Now().Return(s.testTime).AnyTimes()

	svc, err := New(&Config{
		SessionRepo: s.mockSessionRepo,
		Clock:       s.mockClock,
	})
	s.Require().NoError(err)
	s.statsService = svc
}

func (s *StatsServiceTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestStatsServiceTestSuite(t *testing.T) {
	suite.Run(t, new(StatsServiceTestSuite))
}

func (s *StatsServiceTestSuite) session(id, userID string, status models.SessionStatus) *models.Session {
	return &models.Session{
		ID:      id,
		UserID:  userID,
		GuildID: s.testGuildID,
		Status:  status,
	}
}

func (s *StatsServiceTestSuite) event(sessionID string, t models.EventType, at time.Time) *models.SessionEvent {
	return &models.SessionEvent{
		ID:        sessionID + "-" + string(t),
		SessionID: sessionID,
		Type:      t,
		Timestamp: at,
	}
}

// expectUserSessions wires up the repository calls GetUserStats makes for one user
func (s *StatsServiceTestSuite) expectUserSessions(userID string, sessions []*models.Session, events map[string][]*models.SessionEvent) {
	s.mockSessionRepo.EXPECT().ListSessionsForUser(s.ctx, &sessionRepo.ListSessionsForUserInput{
		UserID:  userID,
		GuildID: s.testGuildID,
	}).Return(sessions, nil)

	for _, session := range sessions {
		s.mockSessionRepo.EXPECT().ListEvents(s.ctx, &sessionRepo.ListEventsInput{
			SessionID: session.ID,
		}).Return(events[session.ID], nil)
	}
}

func (s *StatsServiceTestSuite) TestGetUserStats() {
	base := s.testTime.Add(-time.Hour)

	completed := s.session("completed-session", "test-user-id", models.SessionStatusCompleted)
	open := s.session("open-session", "test-user-id", models.SessionStatusActive)

	s.expectUserSessions("test-user-id",
		[]*models.Session{completed, open},
		map[string][]*models.SessionEvent{
			// 10 minutes of active time, closed
			"completed-session": {
				s.event("completed-session", models.EventTypeStart, base),
				s.event("completed-session", models.EventTypeStop, base.Add(10*time.Minute)),
			},
			// started 5 minutes before now and still running
			"open-session": {
				s.event("open-session", models.EventTypeStart, s.testTime.Add(-5*time.Minute)),
			},
		})

	output, err := s.statsService.GetUserStats(s.ctx, &GetUserStatsInput{
		UserID:  "test-user-id",
		GuildID: s.testGuildID,
	})
	s.Require().NoError(err)

	s.Equal(15*time.Minute, output.Stats.TotalActive)
	s.Equal(2, output.Stats.Sessions)
	s.Equal(s.testTime.Add(-5*time.Minute), output.Stats.LastActivity)
}

func (s *StatsServiceTestSuite) TestGetUserStatsCountsZeroDurationSessions() {
	zero := s.session("zero-session", "test-user-id", models.SessionStatusCompleted)
	at := s.testTime.Add(-time.Hour)

	s.expectUserSessions("test-user-id",
		[]*models.Session{zero},
		map[string][]*models.SessionEvent{
			"zero-session": {
				s.event("zero-session", models.EventTypeStart, at),
				s.event("zero-session", models.EventTypeStop, at),
			},
		})

	output, err := s.statsService.GetUserStats(s.ctx, &GetUserStatsInput{
		UserID:  "test-user-id",
		GuildID: s.testGuildID,
	})
	s.Require().NoError(err)
	s.Equal(time.Duration(0), output.Stats.TotalActive)
	s.Equal(1, output.Stats.Sessions)
	s.Equal(at, output.Stats.LastActivity)
}

func (s *StatsServiceTestSuite) TestGetUserStatsNoSessions() {
	s.mockSessionRepo.EXPECT().ListSessionsForUser(s.ctx, gomock.Any()).
		Return([]*models.Session{}, nil)

	output, err := s.statsService.GetUserStats(s.ctx, &GetUserStatsInput{
		UserID:  "test-user-id",
		GuildID: s.testGuildID,
	})
	s.Require().NoError(err)
	s.Equal(time.Duration(0), output.Stats.TotalActive)
	s.Equal(0, output.Stats.Sessions)
	s.True(output.Stats.LastActivity.IsZero())
}

func (s *StatsServiceTestSuite) TestGetLeaderboard() {
	base := s.testTime.Add(-time.Hour)

	s.mockSessionRepo.EXPECT().ListUsers(s.ctx, &sessionRepo.ListUsersInput{
		GuildID: s.testGuildID,
	}).Return([]string{"user-a", "user-b", "user-c"}, nil)

	// user-a: zero total, must be filtered out
	a := s.session("a-session", "user-a", models.SessionStatusCompleted)
	s.expectUserSessions("user-a",
		[]*models.Session{a},
		map[string][]*models.SessionEvent{
			"a-session": {
				s.event("a-session", models.EventTypeStart, base),
				s.event("a-session", models.EventTypeStop, base),
			},
		})

	// user-b: 5 seconds
	b := s.session("b-session", "user-b", models.SessionStatusCompleted)
	s.expectUserSessions("user-b",
		[]*models.Session{b},
		map[string][]*models.SessionEvent{
			"b-session": {
				s.event("b-session", models.EventTypeStart, base),
				s.event("b-session", models.EventTypeStop, base.Add(5*time.Second)),
			},
		})

	// user-c: 2 seconds
	c := s.session("c-session", "user-c", models.SessionStatusCompleted)
	s.expectUserSessions("user-c",
		[]*models.Session{c},
		map[string][]*models.SessionEvent{
			"c-session": {
				s.event("c-session", models.EventTypeStart, base),
				s.event("c-session", models.EventTypeStop, base.Add(2*time.Second)),
			},
		})

	output, err := s.statsService.GetLeaderboard(s.ctx, &GetLeaderboardInput{
		GuildID: s.testGuildID,
		Limit:   10,
	})
	s.Require().NoError(err)

	s.Require().Len(output.Entries, 2)
	s.Equal("user-b", output.Entries[0].UserID)
	s.Equal(5*time.Second, output.Entries[0].TotalActive)
	s.Equal("user-c", output.Entries[1].UserID)
	s.Equal(2*time.Second, output.Entries[1].TotalActive)
}

func (s *StatsServiceTestSuite) TestGetLeaderboardTieBreakAndLimit() {
	base := s.testTime.Add(-time.Hour)

	// Returned out of order on purpose; redis sets have no stable order
	s.mockSessionRepo.EXPECT().ListUsers(s.ctx, gomock.Any()).
		Return([]string{"user-z", "user-a", "user-m"}, nil)

	for _, userID := range []string{"user-z", "user-a", "user-m"} {
		sessionID := userID + "-session"
		session := s.session(sessionID, userID, models.SessionStatusCompleted)
		s.expectUserSessions(userID,
			[]*models.Session{session},
			map[string][]*models.SessionEvent{
				sessionID: {
					s.event(sessionID, models.EventTypeStart, base),
					s.event(sessionID, models.EventTypeStop, base.Add(time.Minute)),
				},
			})
	}

	output, err := s.statsService.GetLeaderboard(s.ctx, &GetLeaderboardInput{
		GuildID: s.testGuildID,
		Limit:   2,
	})
	s.Require().NoError(err)

	// Equal totals fall back to user ID ascending, then the limit applies
	s.Require().Len(output.Entries, 2)
	s.Equal("user-a", output.Entries[0].UserID)
	s.Equal("user-m", output.Entries[1].UserID)
}
