package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	clockMocks "github.com/rgeorgiev/clockin/internal/common/clock/mocks"
	"github.com/rgeorgiev/clockin/internal/models"
	sessionRepo "github.com/rgeorgiev/clockin/internal/repositories/session"
	sessionMocks "github.com/rgeorgiev/clockin/internal/repositories/session/mocks"
)

type TrackerServiceTestSuite struct {
	suite.Suite
	mockCtrl        *gomock.Controller
	mockSessionRepo *sessionMocks.MockRepository
	mockClock       *clockMocks.MockClock
	trackerService  Service
	ctx             context.Context

	// Test data
	testTime      time.Time
	testUserID    string
	testGuildID   string
	testSessionID string

	// Reusable test fixtures
	expectedActiveSession *models.Session
	expectedPausedSession *models.Session
}

func (s *TrackerServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockSessionRepo = sessionMocks.NewMockRepository(s.mockCtrl)
	s.mockClock = clockMocks.NewMockClock(s.mockCtrl)

	s.ctx = context.Background()

	// Initialize test data
	s.testTime = time.Date(2025, 4, 19, 12, 0, 0, 0, time.UTC)
	s.testUserID = "test-user-id"
	s.testGuildID = "test-guild-id"
	s.testSessionID = "test-session-id"

	// Set up the clock mock to return our test time
	s.mockClock.EXPECT().Now().Return(s.testTime).AnyTimes()

	s.expectedActiveSession = &models.Session{
		ID:        s.testSessionID,
		UserID:    s.testUserID,
		GuildID:   s.testGuildID,
		Status:    models.SessionStatusActive,
		CreatedAt: s.testTime.Add(-time.Hour),
		UpdatedAt: s.testTime.Add(-time.Hour),
	}

	s.expectedPausedSession = &models.Session{
		ID:        s.testSessionID,
		UserID:    s.testUserID,
		GuildID:   s.testGuildID,
		Status:    models.SessionStatusPaused,
		CreatedAt: s.testTime.Add(-time.Hour),
		UpdatedAt: s.testTime.Add(-30 * time.Minute),
	}

	svc, err := New(&Config{
		SessionRepo: s.mockSessionRepo,
		Clock:       s.mockClock,
	})
	s.Require().NoError(err)
	s.trackerService = svc
}

func (s *TrackerServiceTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestTrackerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TrackerServiceTestSuite))
}

func (s *TrackerServiceTestSuite) event(t models.EventType, at time.Time) *models.SessionEvent {
	return &models.SessionEvent{
		ID:        "event-" + string(t),
		SessionID: s.testSessionID,
		Type:      t,
		Timestamp: at,
	}
}

func (s *TrackerServiceTestSuite) TestNewValidatesConfig() {
	_, err := New(nil)
	s.ErrorIs(err, ErrNilConfig)

	_, err = New(&Config{Clock: s.mockClock})
	s.ErrorIs(err, ErrNilSessionRepo)

	_, err = New(&Config{SessionRepo: s.mockSessionRepo})
	s.ErrorIs(err, ErrNilClock)
}

func (s *TrackerServiceTestSuite) TestStartSessionNew() {
	s.mockSessionRepo.EXPECT().GetOpenSession(s.ctx, &sessionRepo.GetOpenSessionInput{
		UserID:  s.testUserID,
		GuildID: s.testGuildID,
	}).Return(nil, sessionRepo.ErrSessionNotFound)

	created := &models.Session{
		ID:        s.testSessionID,
		UserID:    s.testUserID,
		GuildID:   s.testGuildID,
		Status:    models.SessionStatusActive,
		CreatedAt: s.testTime,
		UpdatedAt: s.testTime,
	}
	s.mockSessionRepo.EXPECT().CreateSession(s.ctx, &sessionRepo.CreateSessionInput{
		UserID:  s.testUserID,
		GuildID: s.testGuildID,
		StartAt: s.testTime,
	}).Return(&sessionRepo.CreateSessionOutput{Session: created}, nil)

	output, err := s.trackerService.StartSession(s.ctx, &StartSessionInput{
		UserID:  s.testUserID,
		GuildID: s.testGuildID,
	})
	s.Require().NoError(err)
	s.True(output.IsNew)
	s.Equal(time.Duration(0), output.Elapsed)
	s.Equal(created, output.Session)
}

func (s *TrackerServiceTestSuite) TestStartSessionAlreadyOpen() {
	// Starting while started is not an error; the caller gets the open
	// session back with its live duration
	s.mockSessionRepo.EXPECT().GetOpenSession(s.ctx, &sessionRepo.GetOpenSessionInput{
		UserID:  s.testUserID,
		GuildID: s.testGuildID,
	}).Return(s.expectedActiveSession, nil)

	s.mockSessionRepo.EXPECT().ListEvents(s.ctx, &sessionRepo.ListEventsInput{
		SessionID: s.testSessionID,
	}).Return([]*models.SessionEvent{
		s.event(models.EventTypeStart, s.testTime.Add(-5*time.Second)),
	}, nil)

	output, err := s.trackerService.StartSession(s.ctx, &StartSessionInput{
		UserID:  s.testUserID,
		GuildID: s.testGuildID,
	})
	s.Require().NoError(err)
	s.False(output.IsNew)
	s.Equal(5*time.Second, output.Elapsed)
	s.Equal(s.expectedActiveSession, output.Session)
}

func (s *TrackerServiceTestSuite) TestStartSessionLosesCreateRace() {
	// The open-session read misses, the create loses the claim, and the
	// winner's session is reported instead of an error
	s.mockSessionRepo.EXPECT().GetOpenSession(s.ctx, gomock.Any()).
		Return(nil, sessionRepo.ErrSessionNotFound)

	s.mockSessionRepo.EXPECT().CreateSession(s.ctx, gomock.Any()).
		Return(nil, sessionRepo.ErrOpenSessionExists)

	s.mockSessionRepo.EXPECT().GetOpenSession(s.ctx, gomock.Any()).
		Return(s.expectedActiveSession, nil)

	s.mockSessionRepo.EXPECT().ListEvents(s.ctx, gomock.Any()).
		Return([]*models.SessionEvent{
			s.event(models.EventTypeStart, s.testTime),
		}, nil)

	output, err := s.trackerService.StartSession(s.ctx, &StartSessionInput{
		UserID:  s.testUserID,
		GuildID: s.testGuildID,
	})
	s.Require().NoError(err)
	s.False(output.IsNew)
	s.Equal(time.Duration(0), output.Elapsed)
}

func (s *TrackerServiceTestSuite) TestPauseSession() {
	s.mockSessionRepo.EXPECT().GetOpenSession(s.ctx, &sessionRepo.GetOpenSessionInput{
		UserID:  s.testUserID,
		GuildID: s.testGuildID,
	}).Return(s.expectedActiveSession, nil)

	s.mockSessionRepo.EXPECT().ListEvents(s.ctx, &sessionRepo.ListEventsInput{
		SessionID: s.testSessionID,
	}).Return([]*models.SessionEvent{
		s.event(models.EventTypeStart, s.testTime.Add(-10*time.Second)),
	}, nil)

	s.mockSessionRepo.EXPECT().AppendEvent(s.ctx, &sessionRepo.AppendEventInput{
		SessionID: s.testSessionID,
		Type:      models.EventTypePause,
		Timestamp: s.testTime,
	}).Return(&sessionRepo.AppendEventOutput{Session: s.expectedPausedSession}, nil)

	output, err := s.trackerService.PauseSession(s.ctx, &PauseSessionInput{
		UserID:  s.testUserID,
		GuildID: s.testGuildID,
	})
	s.Require().NoError(err)
	s.Equal(10*time.Second, output.Elapsed)
	s.Equal(models.SessionStatusPaused, output.Session.Status)
}

func (s *TrackerServiceTestSuite) TestPauseSessionAlreadyPaused() {
	// No event is appended when the session is already paused
	s.mockSessionRepo.EXPECT().GetOpenSession(s.ctx, gomock.Any()).
		Return(s.expectedPausedSession, nil)

	_, err := s.trackerService.PauseSession(s.ctx, &PauseSessionInput{
		UserID:  s.testUserID,
		GuildID: s.testGuildID,
	})
	s.ErrorIs(err, ErrAlreadyPaused)
}

func (s *TrackerServiceTestSuite) TestPauseSessionNoOpenSession() {
	s.mockSessionRepo.EXPECT().GetOpenSession(s.ctx, gomock.Any()).
		Return(nil, sessionRepo.ErrSessionNotFound)

	_, err := s.trackerService.PauseSession(s.ctx, &PauseSessionInput{
		UserID:  s.testUserID,
		GuildID: s.testGuildID,
	})
	s.ErrorIs(err, ErrNoOpenSession)
}

func (s *TrackerServiceTestSuite) TestResumeSession() {
	s.mockSessionRepo.EXPECT().GetOpenSession(s.ctx, gomock.Any()).
		Return(s.expectedPausedSession, nil)

	s.mockSessionRepo.EXPECT().AppendEvent(s.ctx, &sessionRepo.AppendEventInput{
		SessionID: s.testSessionID,
		Type:      models.EventTypeResume,
		Timestamp: s.testTime,
	}).Return(&sessionRepo.AppendEventOutput{Session: s.expectedActiveSession}, nil)

	// 30s active, 20s paused, resumed at the reference time
	s.mockSessionRepo.EXPECT().ListEvents(s.ctx, gomock.Any()).
		Return([]*models.SessionEvent{
			s.event(models.EventTypeStart, s.testTime.Add(-50*time.Second)),
			s.event(models.EventTypePause, s.testTime.Add(-20*time.Second)),
			s.event(models.EventTypeResume, s.testTime),
		}, nil)

	output, err := s.trackerService.ResumeSession(s.ctx, &ResumeSessionInput{
		UserID:  s.testUserID,
		GuildID: s.testGuildID,
	})
	s.Require().NoError(err)
	s.Equal(30*time.Second, output.Elapsed)
}

func (s *TrackerServiceTestSuite) TestResumeSessionNotPaused() {
	s.mockSessionRepo.EXPECT().GetOpenSession(s.ctx, gomock.Any()).
		Return(s.expectedActiveSession, nil)

	_, err := s.trackerService.ResumeSession(s.ctx, &ResumeSessionInput{
		UserID:  s.testUserID,
		GuildID: s.testGuildID,
	})
	s.ErrorIs(err, ErrNotPaused)
}

func (s *TrackerServiceTestSuite) TestStopSession() {
	s.mockSessionRepo.EXPECT().GetOpenSession(s.ctx, gomock.Any()).
		Return(s.expectedActiveSession, nil)

	// 1s active, 2s paused, 1s active again at the stop point
	s.mockSessionRepo.EXPECT().ListEvents(s.ctx, gomock.Any()).
		Return([]*models.SessionEvent{
			s.event(models.EventTypeStart, s.testTime.Add(-4*time.Second)),
			s.event(models.EventTypePause, s.testTime.Add(-3*time.Second)),
			s.event(models.EventTypeResume, s.testTime.Add(-time.Second)),
		}, nil)

	stopped := &models.Session{
		ID:      s.testSessionID,
		UserID:  s.testUserID,
		GuildID: s.testGuildID,
		Status:  models.SessionStatusCompleted,
	}
	s.mockSessionRepo.EXPECT().AppendEvent(s.ctx, &sessionRepo.AppendEventInput{
		SessionID: s.testSessionID,
		Type:      models.EventTypeStop,
		Timestamp: s.testTime,
	}).Return(&sessionRepo.AppendEventOutput{Session: stopped}, nil)

	output, err := s.trackerService.StopSession(s.ctx, &StopSessionInput{
		UserID:  s.testUserID,
		GuildID: s.testGuildID,
	})
	s.Require().NoError(err)
	s.Equal(2*time.Second, output.Elapsed)
	s.Equal(models.SessionStatusCompleted, output.Session.Status)
}

func (s *TrackerServiceTestSuite) TestStopSessionNoOpenSession() {
	// Nothing is created and nothing is appended
	s.mockSessionRepo.EXPECT().GetOpenSession(s.ctx, gomock.Any()).
		Return(nil, sessionRepo.ErrSessionNotFound)

	_, err := s.trackerService.StopSession(s.ctx, &StopSessionInput{
		UserID:  s.testUserID,
		GuildID: s.testGuildID,
	})
	s.ErrorIs(err, ErrNoOpenSession)
}

func (s *TrackerServiceTestSuite) TestStorageErrorsPropagate() {
	storageErr := errors.New("connection refused")
	s.mockSessionRepo.EXPECT().GetOpenSession(s.ctx, gomock.Any()).
		Return(nil, storageErr)

	_, err := s.trackerService.StopSession(s.ctx, &StopSessionInput{
		UserID:  s.testUserID,
		GuildID: s.testGuildID,
	})
	s.ErrorIs(err, storageErr)
}
