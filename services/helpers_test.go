package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Pallinder/go-randomdata"
	"github.com/stretchr/testify/require"

	"github.com/parentplanner/server/models"
	"github.com/parentplanner/server/store"
	"github.com/parentplanner/server/store/memstore"
)

var errBackend = errors.New("backend unavailable")

// flakyStore fails selected operations on demand.
type flakyStore struct {
	*memstore.Store
	mu        sync.Mutex
	failQuery  bool
	failGet    map[string]bool
	failCreate map[string]bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{Store: memstore.New(), failGet: map[string]bool{}, failCreate: map[string]bool{}}
}

func (s *flakyStore) Create(ctx context.Context, collection string, doc store.Document) (store.Document, error) {
	s.mu.Lock()
	fail := s.failCreate[collection]
	s.mu.Unlock()
	if fail {
		return nil, errBackend
	}
	return s.Store.Create(ctx, collection, doc)
}

func (s *flakyStore) Query(ctx context.Context, collection string, q store.Query) ([]store.Document, error) {
	s.mu.Lock()
	fail := s.failQuery
	s.mu.Unlock()
	if fail {
		return nil, errBackend
	}
	return s.Store.Query(ctx, collection, q)
}

func (s *flakyStore) Get(ctx context.Context, collection, id string) (store.Document, error) {
	s.mu.Lock()
	fail := s.failGet[id]
	s.mu.Unlock()
	if fail {
		return nil, errBackend
	}
	return s.Store.Get(ctx, collection, id)
}

// tickingClock advances one millisecond per call so time-based ids stay unique.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Millisecond)
		return t
	}
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

type sentMail struct {
	Address, Subject, Body string
}

func (m *recordingMailer) Send(address, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{address, subject, body})
	return m.err
}

type fixture struct {
	store      *flakyStore
	users      *UserService
	activities *ActivityService
	mailer     *recordingMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := newFlakyStore()
	mailer := &recordingMailer{}
	users := NewUserService(st, nil, mailer, "https://planner.example/")
	users.now = tickingClock()
	activities := NewActivityService(st, users)
	activities.now = tickingClock()
	return &fixture{store: st, users: users, activities: activities, mailer: mailer}
}

func (f *fixture) createUser(t *testing.T, id string, friends ...string) models.User {
	t.Helper()
	if friends == nil {
		friends = []string{}
	}
	user, err := f.users.CreateUser(context.Background(), models.User{
		ID:            id,
		Email:         randomdata.Email(),
		ChildNickname: randomdata.FirstName(randomdata.RandomGender),
		Friends:       friends,
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) createActivity(t *testing.T, creator, date string) models.Activity {
	t.Helper()
	activity, err := f.activities.CreateActivity(context.Background(), models.ActivityInput{
		CreatedBy: creator,
		Name:      "Playground " + randomdata.City(),
		Date:      date,
		Time:      "10:00",
		Location:  randomdata.Street(),
	})
	require.NoError(t, err)
	return activity
}
