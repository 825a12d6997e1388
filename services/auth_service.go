package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/parentplanner/server/models"
	"github.com/parentplanner/server/store"
	apierrors "github.com/parentplanner/server/utils/errors"
)

// AuthService owns sign-up and sign-in and maps an authenticated identity to
// a directory user.
type AuthService struct {
	store     store.Store
	users     *UserService
	jwtSecret string
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewAuthService(st store.Store, users *UserService, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		store:     st,
		users:     users,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// Session is returned by sign-up and sign-in.
type Session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// SignUp registers credentials and creates the matching directory user.
func (s *AuthService) SignUp(ctx context.Context, email, password, childNickname string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || len(password) < 6 {
		return Session{}, apierrors.ErrInvalidInput
	}

	if _, err := s.credentialByEmail(ctx, email); err == nil {
		return Session{}, apierrors.ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return Session{}, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, apierrors.Wrap(err, "HASH_ERROR", "failed to hash password", http.StatusInternalServerError)
	}

	uid := uuid.NewString()
	cred, err := store.Encode(models.Credential{ID: uid, Email: email, PasswordHash: string(passwordHash)})
	if err != nil {
		return Session{}, err
	}
	if _, err := s.store.Create(ctx, store.Credentials, cred); err != nil {
		return Session{}, fmt.Errorf("create credentials: %w", err)
	}

	user, err := s.users.CreateUser(ctx, models.User{
		ID:            uid,
		Email:         email,
		ChildNickname: childNickname,
		Friends:       []string{},
	})
	if err != nil {
		if delErr := s.store.Delete(ctx, store.Credentials, uid); delErr != nil {
			log.WithError(delErr).WithField("user_id", uid).Error("failed to remove credentials after sign-up failure")
		}
		return Session{}, err
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return Session{}, err
	}
	log.WithField("user_id", uid).Info("user signed up")
	return Session{Token: token, User: user}, nil
}

// SignIn verifies the password and issues a token.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	cred, err := s.credentialByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, apierrors.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return Session{}, apierrors.ErrInvalidCredentials
	}

	user := s.CurrentUser(ctx, cred.ID, cred.Email)
	token, err := s.IssueToken(user)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user}, nil
}

// CurrentUser resolves the directory record for an authenticated identity:
// by email first, then by id, and finally a minimal user built from the
// identity itself.
func (s *AuthService) CurrentUser(ctx context.Context, userID, email string) models.User {
	if email != "" {
		user, err := s.users.GetUserByEmail(ctx, email)
		if err == nil {
			return user
		}
		log.WithError(err).WithField("user_id", userID).Warn("failed to get user by email, trying by id")
	}

	lookup := s.users.LookupUser(ctx, userID)
	if lookup.Err == nil {
		return lookup.User
	}
	log.WithError(lookup.Err).WithField("user_id", userID).Error("failed to load current user")

	user := models.DefaultUser(userID)
	user.Email = email
	return user
}

// IssueToken signs a session token carrying the user id and email.
func (s *AuthService) IssueToken(user models.User) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userID": user.ID,
		"email":  user.Email,
		"jti":    uuid.NewString(),
		"iat":    now.Unix(),
		"exp":    now.Add(s.tokenTTL).Unix(),
	})
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", apierrors.Wrap(err, "JWT_ERROR", "Failed to generate token", http.StatusInternalServerError)
	}
	return tokenString, nil
}

func (s *AuthService) credentialByEmail(ctx context.Context, email string) (models.Credential, error) {
	docs, err := s.store.Query(ctx, store.Credentials, store.Where("email", email))
	if err != nil {
		return models.Credential{}, fmt.Errorf("query credentials: %w", err)
	}
	if len(docs) == 0 {
		return models.Credential{}, store.ErrNotFound
	}
	var cred models.Credential
	if err := store.Decode(docs[0], &cred); err != nil {
		return models.Credential{}, err
	}
	return cred, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
