package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/parentplanner/server/models"
	"github.com/parentplanner/server/store"
	apierrors "github.com/parentplanner/server/utils/errors"
)

// maxCodeAttempts bounds regeneration when a new code collides with an
// existing invitation.
const maxCodeAttempts = 5

var errCodeSpaceExhausted = errors.New("could not generate an unused invitation code")

// CreateInvitation records a pending invitation from fromUserID to email and
// mails the code when a mailer is configured.
func (s *UserService) CreateInvitation(ctx context.Context, fromUserID, email string) (models.FriendInvitation, error) {
	email = strings.TrimSpace(email)
	if fromUserID == "" || email == "" {
		return models.FriendInvitation{}, apierrors.ErrInvalidInput
	}

	code, err := s.unusedCode(ctx)
	if err != nil {
		return models.FriendInvitation{}, err
	}

	invitation := models.FriendInvitation{
		ID:         fmt.Sprintf("%d-%s", s.now().UnixMilli(), fromUserID),
		FromUserID: fromUserID,
		Code:       code,
		Email:      email,
		Status:     models.InvitationPending,
	}
	doc, err := store.Encode(invitation)
	if err != nil {
		return models.FriendInvitation{}, err
	}
	created, err := s.store.Create(ctx, store.Invitations, doc)
	if err != nil {
		return models.FriendInvitation{}, fmt.Errorf("create invitation: %w", err)
	}
	invitation = invitationFromDoc(created)

	logger := log.WithFields(log.Fields{"invitation_id": invitation.ID, "from_user_id": fromUserID})
	logger.Info("invitation created")

	if err := s.mailInvitation(ctx, invitation); err != nil {
		logger.WithError(err).Warn("failed to send invitation email")
	}
	return invitation, nil
}

func (s *UserService) unusedCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := GenerateRandomCode(InvitationCodeLength)
		if err != nil {
			return "", err
		}
		docs, err := s.store.Query(ctx, store.Invitations, store.Where("code", code))
		if err != nil {
			return "", fmt.Errorf("check invitation code: %w", err)
		}
		if len(docs) == 0 {
			return code, nil
		}
		log.WithField("attempt", attempt+1).Debug("invitation code collision, regenerating")
	}
	return "", errCodeSpaceExhausted
}

// InvitationLink is the shareable URL that redeems code.
func (s *UserService) InvitationLink(code string) string {
	return s.appBaseURL + "/friends?code=" + url.QueryEscape(code)
}

func (s *UserService) mailInvitation(ctx context.Context, invitation models.FriendInvitation) error {
	inviter := s.GetUserByID(ctx, invitation.FromUserID)
	name := inviter.Email
	if inviter.ChildNickname != "" {
		name = fmt.Sprintf("%s (%s's parent)", inviter.Email, inviter.ChildNickname)
	}
	if name == "" {
		name = "A parent"
	}

	body := fmt.Sprintf(
		"%s invited you to be friends on ParentPlanner.\n\nYour invitation code: %s\nOr open: %s\n",
		name, invitation.Code, s.InvitationLink(invitation.Code),
	)
	return s.mailer.Send(invitation.Email, "You're invited to ParentPlanner", body)
}

// GetInvitationByCode returns the invitation with the given code. Codes
// issued before collisions were checked may be shared, so a pending
// invitation wins over processed ones, and the newest wins after that.
func (s *UserService) GetInvitationByCode(ctx context.Context, code string) (models.FriendInvitation, error) {
	q := store.Where("code", strings.ToUpper(strings.TrimSpace(code))).OrderByDesc(store.FieldCreatedAt)
	docs, err := s.store.Query(ctx, store.Invitations, q)
	if err != nil {
		return models.FriendInvitation{}, fmt.Errorf("query invitation by code: %w", err)
	}
	if len(docs) == 0 {
		return models.FriendInvitation{}, apierrors.ErrInvitationNotFound.WithCause(store.ErrNotFound)
	}
	for _, doc := range docs {
		if invitation := invitationFromDoc(doc); invitation.IsPending() {
			return invitation, nil
		}
	}
	return invitationFromDoc(docs[0]), nil
}

// AcceptInvitation redeems code for acceptingUserID and makes the two users
// friends of each other. The status change and the two friend list writes are
// separate store writes; a failure part way leaves the invitation accepted.
func (s *UserService) AcceptInvitation(ctx context.Context, code, acceptingUserID string) error {
	invitation, err := s.GetInvitationByCode(ctx, code)
	if err != nil {
		return err
	}
	if !invitation.IsPending() {
		return apierrors.ErrInvitationProcessed
	}
	if invitation.FromUserID == acceptingUserID {
		return apierrors.ErrSelfInvitation
	}

	if err := s.setInvitationStatus(ctx, invitation, models.InvitationAccepted); err != nil {
		return err
	}

	inviting := s.LookupUser(ctx, invitation.FromUserID)
	if inviting.Err != nil {
		return inviting.Err
	}
	accepting := s.LookupUser(ctx, acceptingUserID)
	if accepting.Err != nil {
		return accepting.Err
	}

	if inviting.User.AddFriend(acceptingUserID) {
		if _, err := s.UpdateUser(ctx, inviting.User); err != nil {
			return err
		}
	}
	if accepting.User.AddFriend(invitation.FromUserID) {
		if _, err := s.UpdateUser(ctx, accepting.User); err != nil {
			return err
		}
	}

	log.WithFields(log.Fields{
		"invitation_id": invitation.ID,
		"from_user_id":  invitation.FromUserID,
		"user_id":       acceptingUserID,
	}).Info("invitation accepted")
	return nil
}

// RejectInvitation moves a pending invitation to rejected.
func (s *UserService) RejectInvitation(ctx context.Context, code string) error {
	invitation, err := s.GetInvitationByCode(ctx, code)
	if err != nil {
		return err
	}
	if !invitation.IsPending() {
		return apierrors.ErrInvitationProcessed
	}
	if err := s.setInvitationStatus(ctx, invitation, models.InvitationRejected); err != nil {
		return err
	}
	log.WithField("invitation_id", invitation.ID).Info("invitation rejected")
	return nil
}

func (s *UserService) setInvitationStatus(ctx context.Context, invitation models.FriendInvitation, status models.InvitationStatus) error {
	invitation.Status = status
	doc, err := store.Encode(invitation)
	if err != nil {
		return err
	}
	if _, err := s.store.Update(ctx, store.Invitations, invitation.ID, doc); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apierrors.ErrInvitationNotFound.WithCause(err)
		}
		return fmt.Errorf("update invitation %s: %w", invitation.ID, err)
	}
	return nil
}
