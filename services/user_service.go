package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/parentplanner/server/models"
	"github.com/parentplanner/server/store"
	apierrors "github.com/parentplanner/server/utils/errors"
)

// UserService is the user directory: profiles, friends and invitations.
type UserService struct {
	store      store.Store
	cache      UserCache
	mailer     Mailer
	appBaseURL string
	now        func() time.Time
}

// NewUserService wires the directory. cache and mailer may be nil.
func NewUserService(st store.Store, cache UserCache, mailer Mailer, appBaseURL string) *UserService {
	if cache == nil {
		cache = noCache{}
	}
	if mailer == nil {
		mailer = NoMail{}
	}
	return &UserService{
		store:      st,
		cache:      cache,
		mailer:     mailer,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
		now:        time.Now,
	}
}

// UserLookup is the outcome of loading a user by id. When Err is set, User is
// the placeholder from models.DefaultUser, so callers that prefer
// availability can use it directly while others check Err.
type UserLookup struct {
	User models.User
	Err  error
}

// Found reports whether the user record was loaded.
func (l UserLookup) Found() bool {
	return l.Err == nil
}

// FriendsResult holds the resolved friends of a user. Missing lists friend ids
// whose records couldn't be loaded; Err is set when the user itself couldn't be
// loaded.
type FriendsResult struct {
	Friends []models.User
	Missing []string
	Err     error
}

// IDs returns the ids of the resolved friends.
func (r FriendsResult) IDs() []string {
	ids := make([]string, 0, len(r.Friends))
	for _, f := range r.Friends {
		ids = append(ids, f.ID)
	}
	return ids
}

// CreateUser persists a new profile. Email uniqueness is not checked here.
func (s *UserService) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if user.Friends == nil {
		user.Friends = []string{}
	}
	doc, err := store.Encode(user)
	if err != nil {
		return models.User{}, err
	}

	created, err := s.store.Create(ctx, store.Users, doc)
	if err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	log.WithField("user_id", created.ID()).Info("user created")
	return userFromDoc(created.ID(), created), nil
}

// LookupUser loads a user from the cache or the store.
func (s *UserService) LookupUser(ctx context.Context, id string) UserLookup {
	if user, ok := s.cache.Get(ctx, id); ok {
		return UserLookup{User: user}
	}

	doc, err := s.store.Get(ctx, store.Users, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = apierrors.ErrUserNotFound.WithCause(err)
		} else {
			err = fmt.Errorf("get user %s: %w", id, err)
		}
		return UserLookup{User: models.DefaultUser(id), Err: err}
	}

	user := userFromDoc(id, doc)
	s.cache.Set(ctx, user)
	return UserLookup{User: user}
}

// GetUserByID returns the stored user, or an empty placeholder carrying id if
// the lookup fails. The failure is logged, not returned; use LookupUser to
// see it.
func (s *UserService) GetUserByID(ctx context.Context, id string) models.User {
	lookup := s.LookupUser(ctx, id)
	if lookup.Err != nil {
		log.WithError(lookup.Err).WithField("user_id", id).Warn("user lookup failed, using default user")
	}
	return lookup.User
}

// GetUserByEmail returns the first user with an exactly matching email.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	docs, err := s.store.Query(ctx, store.Users, store.Where("email", email))
	if err != nil {
		return models.User{}, fmt.Errorf("query user by email: %w", err)
	}
	if len(docs) == 0 {
		return models.User{}, apierrors.ErrUserNotFound.WithCause(store.ErrNotFound)
	}
	return userFromDoc(docs[0].ID(), docs[0]), nil
}

// UpdateUser writes every field of user over the stored record.
func (s *UserService) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	if user.Friends == nil {
		user.Friends = []string{}
	}
	doc, err := store.Encode(user)
	if err != nil {
		return models.User{}, err
	}

	updated, err := s.store.Update(ctx, store.Users, user.ID, doc)
	s.cache.Invalidate(ctx, user.ID)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, apierrors.ErrUserNotFound.WithCause(err)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("update user %s: %w", user.ID, err)
	}
	return userFromDoc(user.ID, updated), nil
}

// GetUserFriends resolves the friend ids of userID into user records. Friends
// that fail to load are logged and left out.
func (s *UserService) GetUserFriends(ctx context.Context, userID string) FriendsResult {
	result := FriendsResult{Friends: []models.User{}}

	lookup := s.LookupUser(ctx, userID)
	if lookup.Err != nil {
		log.WithError(lookup.Err).WithField("user_id", userID).Warn("failed to load user for friends list")
		result.Err = lookup.Err
		return result
	}

	for _, friendID := range lookup.User.Friends {
		friend := s.LookupUser(ctx, friendID)
		if friend.Err != nil {
			log.WithError(friend.Err).WithFields(log.Fields{
				"user_id":   userID,
				"friend_id": friendID,
			}).Warn("failed to load friend")
			result.Missing = append(result.Missing, friendID)
			continue
		}
		result.Friends = append(result.Friends, friend.User)
	}
	return result
}
