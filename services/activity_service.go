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

// FriendResolver resolves a user's friends list.
type FriendResolver interface {
	GetUserFriends(ctx context.Context, userID string) FriendsResult
}

// ActivityService is the activity registry.
type ActivityService struct {
	store   store.Store
	friends FriendResolver
	now     func() time.Time
}

func NewActivityService(st store.Store, friends FriendResolver) *ActivityService {
	return &ActivityService{store: st, friends: friends, now: time.Now}
}

// ActivityFeed is the result of a combined feed query. On failure Activities
// is empty and Err says why, so callers can tell an empty feed from a broken
// one.
type ActivityFeed struct {
	Activities []models.Activity
	Err        error
}

func validateInput(input models.ActivityInput) error {
	if strings.TrimSpace(input.CreatedBy) == "" || strings.TrimSpace(input.Name) == "" {
		return apierrors.ErrInvalidInput
	}
	if _, err := models.ParseDate(input.Date); err != nil {
		return apierrors.ErrInvalidInput.WithCause(fmt.Errorf("date must be formatted as YYYY-MM-DD: %w", err))
	}
	return nil
}

// CreateActivity schedules a new activity. The creator is its only
// participant.
func (s *ActivityService) CreateActivity(ctx context.Context, input models.ActivityInput) (models.Activity, error) {
	if err := validateInput(input); err != nil {
		return models.Activity{}, err
	}

	activity := models.Activity{
		ID:              fmt.Sprintf("%d-%s", s.now().UnixMilli(), input.CreatedBy),
		CreatedBy:       input.CreatedBy,
		Name:            input.Name,
		Date:            input.Date,
		Time:            input.Time,
		Location:        input.Location,
		Participants:    []string{input.CreatedBy},
		InterestedUsers: []string{},
	}
	doc, err := store.Encode(activity)
	if err != nil {
		return models.Activity{}, err
	}

	created, err := s.store.Create(ctx, store.Activities, doc)
	if err != nil {
		return models.Activity{}, fmt.Errorf("create activity: %w", err)
	}

	log.WithFields(log.Fields{"activity_id": activity.ID, "user_id": input.CreatedBy}).Info("activity created")
	return activityFromDoc(created), nil
}

// GetActivityByID loads an activity, filling missing fields with empty values.
func (s *ActivityService) GetActivityByID(ctx context.Context, id string) (models.Activity, error) {
	doc, err := s.store.Get(ctx, store.Activities, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Activity{}, apierrors.ErrActivityNotFound.WithCause(err)
	}
	if err != nil {
		return models.Activity{}, fmt.Errorf("get activity %s: %w", id, err)
	}
	activity := activityFromDoc(doc)
	if activity.ID == "" {
		activity.ID = id
	}
	return activity, nil
}

// UpdateActivity writes every field of activity over the stored record. The
// creator is put back into the participants if a caller dropped them.
func (s *ActivityService) UpdateActivity(ctx context.Context, activity models.Activity) (models.Activity, error) {
	if activity.Participants == nil {
		activity.Participants = []string{}
	}
	if activity.InterestedUsers == nil {
		activity.InterestedUsers = []string{}
	}
	if activity.CreatedBy != "" && !activity.IsParticipant(activity.CreatedBy) {
		activity.Participants = append([]string{activity.CreatedBy}, activity.Participants...)
	}

	doc, err := store.Encode(activity)
	if err != nil {
		return models.Activity{}, err
	}
	updated, err := s.store.Update(ctx, store.Activities, activity.ID, doc)
	if errors.Is(err, store.ErrNotFound) {
		return models.Activity{}, apierrors.ErrActivityNotFound.WithCause(err)
	}
	if err != nil {
		return models.Activity{}, fmt.Errorf("update activity %s: %w", activity.ID, err)
	}
	return activityFromDoc(updated), nil
}

// EditActivity changes the descriptive fields of an activity. Only its
// creator may edit it; membership lists are left alone.
func (s *ActivityService) EditActivity(ctx context.Context, id, userID string, input models.ActivityInput) (models.Activity, error) {
	activity, err := s.GetActivityByID(ctx, id)
	if err != nil {
		return models.Activity{}, err
	}
	if activity.CreatedBy != userID {
		return models.Activity{}, apierrors.ErrForbidden
	}
	input.CreatedBy = activity.CreatedBy
	if err := validateInput(input); err != nil {
		return models.Activity{}, err
	}

	activity.Name = input.Name
	activity.Date = input.Date
	activity.Time = input.Time
	activity.Location = input.Location
	return s.UpdateActivity(ctx, activity)
}

// DeleteActivity removes the activity. Unknown ids are ErrActivityNotFound.
func (s *ActivityService) DeleteActivity(ctx context.Context, id string) error {
	if _, err := s.GetActivityByID(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, store.Activities, id); err != nil {
		return fmt.Errorf("delete activity %s: %w", id, err)
	}
	log.WithField("activity_id", id).Info("activity deleted")
	return nil
}

// GetUserActivities returns the activities userID created, newest date first.
func (s *ActivityService) GetUserActivities(ctx context.Context, userID string) ([]models.Activity, error) {
	docs, err := s.store.Query(ctx, store.Activities, store.Where("createdBy", userID).OrderByDesc("date"))
	if err != nil {
		return nil, fmt.Errorf("query activities for %s: %w", userID, err)
	}
	return activitiesFromDocs(docs), nil
}

// GetUserAndFriendsActivities returns the activities created by userID or
// any of their friends, newest date first. The store has no OR over
// createdBy, so each creator is queried separately and the results merged.
func (s *ActivityService) GetUserAndFriendsActivities(ctx context.Context, userID string) ActivityFeed {
	logger := log.WithField("user_id", userID)

	friends := s.friends.GetUserFriends(ctx, userID)
	if friends.Err != nil {
		logger.WithError(friends.Err).Warn("friends unavailable, showing own activities only")
	}

	ids := uniqueIDs(append([]string{userID}, friends.IDs()...))
	if len(ids) == 0 {
		logger.Warn("no valid user ids for activity query")
		return ActivityFeed{Activities: []models.Activity{}}
	}

	if len(ids) == 1 {
		activities, err := s.GetUserActivities(ctx, ids[0])
		if err != nil {
			logger.WithError(err).Error("failed to load activities")
			return ActivityFeed{Activities: []models.Activity{}, Err: err}
		}
		return ActivityFeed{Activities: activities}
	}

	seen := make(map[string]bool)
	combined := []models.Activity{}
	for _, id := range ids {
		activities, err := s.GetUserActivities(ctx, id)
		if err != nil {
			logger.WithError(err).WithField("creator_id", id).Error("failed to load activities")
			return ActivityFeed{Activities: []models.Activity{}, Err: err}
		}
		for _, a := range activities {
			if seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			combined = append(combined, a)
		}
	}

	models.SortActivitiesByDateDesc(combined)
	return ActivityFeed{Activities: combined}
}

// GetActivitiesOnDate narrows the combined feed to one calendar date.
func (s *ActivityService) GetActivitiesOnDate(ctx context.Context, userID, date string) ActivityFeed {
	feed := s.GetUserAndFriendsActivities(ctx, userID)
	feed.Activities = models.FilterActivitiesOnDate(feed.Activities, date)
	return feed
}

// ExpressInterest marks userID as interested. Existing interest or
// participation makes it a no-op.
func (s *ActivityService) ExpressInterest(ctx context.Context, activityID, userID string) (models.Activity, error) {
	activity, err := s.GetActivityByID(ctx, activityID)
	if err != nil {
		return models.Activity{}, err
	}
	if activity.IsParticipant(userID) || !activity.ExpressInterest(userID) {
		return activity, nil
	}
	return s.UpdateActivity(ctx, activity)
}

// JoinActivity adds userID to the participants, clearing their interest.
func (s *ActivityService) JoinActivity(ctx context.Context, activityID, userID string) (models.Activity, error) {
	activity, err := s.GetActivityByID(ctx, activityID)
	if err != nil {
		return models.Activity{}, err
	}
	if !activity.Join(userID) {
		return activity, nil
	}
	return s.UpdateActivity(ctx, activity)
}

// LeaveActivity removes userID from the participants. The creator can't leave.
func (s *ActivityService) LeaveActivity(ctx context.Context, activityID, userID string) (models.Activity, error) {
	activity, err := s.GetActivityByID(ctx, activityID)
	if err != nil {
		return models.Activity{}, err
	}
	if activity.CreatedBy == userID {
		return models.Activity{}, apierrors.ErrCreatorCannotLeave
	}
	if !activity.Leave(userID) {
		return activity, nil
	}
	return s.UpdateActivity(ctx, activity)
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
