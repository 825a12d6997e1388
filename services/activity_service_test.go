package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parentplanner/server/models"
	"github.com/parentplanner/server/store"
	apierrors "github.com/parentplanner/server/utils/errors"
)

func activityIDs(activities []models.Activity) []string {
	ids := make([]string, 0, len(activities))
	for _, a := range activities {
		ids = append(ids, a.ID)
	}
	return ids
}

func TestCreateActivity(t *testing.T) {
	f := newFixture(t)

	activity := f.createActivity(t, "u1", "2024-05-01")
	assert.True(t, strings.HasSuffix(activity.ID, "-u1"), activity.ID)
	assert.Equal(t, "u1", activity.CreatedBy)
	assert.Equal(t, []string{"u1"}, activity.Participants)
	assert.Equal(t, []string{}, activity.InterestedUsers)
	assert.NotNil(t, activity.CreatedAt)

	got, err := f.activities.GetActivityByID(context.Background(), activity.ID)
	require.NoError(t, err)
	assert.Equal(t, activity.Name, got.Name)
	assert.Equal(t, activity.Location, got.Location)
}

func TestCreateActivity_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]models.ActivityInput{
		"no name":    {CreatedBy: "u1", Date: "2024-05-01"},
		"no creator": {Name: "Park", Date: "2024-05-01"},
		"bad date":   {CreatedBy: "u1", Name: "Park", Date: "May 1st"},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.activities.CreateActivity(ctx, input)
			assert.ErrorIs(t, err, apierrors.ErrInvalidInput)
		})
	}
}

func TestGetActivityByID_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.activities.GetActivityByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apierrors.ErrActivityNotFound)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetActivityByID_NormalizesPartialRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.Create(ctx, store.Activities, store.Document{"id": "old", "name": "Swim", "participants": []any{"u1", 7}})
	require.NoError(t, err)

	activity, err := f.activities.GetActivityByID(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, "old", activity.ID)
	assert.Equal(t, "Swim", activity.Name)
	assert.Equal(t, "", activity.Date)
	assert.Equal(t, []string{"u1"}, activity.Participants)
	assert.Equal(t, []string{}, activity.InterestedUsers)
}

func TestLeaveActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	activity := f.createActivity(t, "u1", "2024-05-01")

	_, err := f.activities.LeaveActivity(ctx, activity.ID, "u1")
	assert.ErrorIs(t, err, apierrors.ErrCreatorCannotLeave)
	assert.True(t, apierrors.IsInvalidTransition(err))
	unchanged, err := f.activities.GetActivityByID(ctx, activity.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, unchanged.Participants)

	_, err = f.activities.JoinActivity(ctx, activity.ID, "u2")
	require.NoError(t, err)
	left, err := f.activities.LeaveActivity(ctx, activity.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, left.Participants)

	again, err := f.activities.LeaveActivity(ctx, activity.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, again.Participants)
}

func TestJoinActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	activity := f.createActivity(t, "u1", "2024-05-01")

	interested, err := f.activities.ExpressInterest(ctx, activity.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, interested.InterestedUsers)

	joined, err := f.activities.JoinActivity(ctx, activity.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, joined.Participants)
	assert.Equal(t, []string{}, joined.InterestedUsers)

	again, err := f.activities.JoinActivity(ctx, activity.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, again.Participants)

	stored, err := f.activities.GetActivityByID(ctx, activity.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, stored.Participants)
}

func TestExpressInterest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	activity := f.createActivity(t, "u1", "2024-05-01")

	for i := 0; i < 2; i++ {
		got, err := f.activities.ExpressInterest(ctx, activity.ID, "u2")
		require.NoError(t, err)
		assert.Equal(t, []string{"u2"}, got.InterestedUsers)
	}

	participant, err := f.activities.ExpressInterest(ctx, activity.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, participant.InterestedUsers)

	_, err = f.activities.ExpressInterest(ctx, "missing", "u2")
	assert.ErrorIs(t, err, apierrors.ErrActivityNotFound)
}

func TestUpdateActivity_KeepsCreator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	activity := f.createActivity(t, "u1", "2024-05-01")

	activity.Participants = []string{"u2"}
	activity.InterestedUsers = nil
	updated, err := f.activities.UpdateActivity(ctx, activity)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, updated.Participants)
	assert.Equal(t, []string{}, updated.InterestedUsers)

	_, err = f.activities.UpdateActivity(ctx, models.Activity{ID: "missing"})
	assert.ErrorIs(t, err, apierrors.ErrActivityNotFound)
}

func TestEditActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	activity := f.createActivity(t, "u1", "2024-05-01")
	_, err := f.activities.JoinActivity(ctx, activity.ID, "u2")
	require.NoError(t, err)

	input := models.ActivityInput{Name: "Zoo", Date: "2024-06-02", Time: "14:00", Location: "City Zoo"}

	_, err = f.activities.EditActivity(ctx, activity.ID, "u2", input)
	assert.ErrorIs(t, err, apierrors.ErrForbidden)

	edited, err := f.activities.EditActivity(ctx, activity.ID, "u1", input)
	require.NoError(t, err)
	assert.Equal(t, "Zoo", edited.Name)
	assert.Equal(t, "2024-06-02", edited.Date)
	assert.Equal(t, "u1", edited.CreatedBy)
	assert.Equal(t, []string{"u1", "u2"}, edited.Participants)

	input.Date = "tomorrow"
	_, err = f.activities.EditActivity(ctx, activity.ID, "u1", input)
	assert.ErrorIs(t, err, apierrors.ErrInvalidInput)
}

func TestDeleteActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	activity := f.createActivity(t, "u1", "2024-05-01")

	require.NoError(t, f.activities.DeleteActivity(ctx, activity.ID))
	_, err := f.activities.GetActivityByID(ctx, activity.ID)
	assert.ErrorIs(t, err, apierrors.ErrActivityNotFound)

	err = f.activities.DeleteActivity(ctx, activity.ID)
	assert.ErrorIs(t, err, apierrors.ErrActivityNotFound)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetUserActivities(t *testing.T) {
	f := newFixture(t)
	older := f.createActivity(t, "u1", "2024-04-01")
	newer := f.createActivity(t, "u1", "2024-05-01")
	f.createActivity(t, "u2", "2024-05-02")

	activities, err := f.activities.GetUserActivities(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{newer.ID, older.ID}, activityIDs(activities))
}

func TestGetUserAndFriendsActivities(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "u1", "u2")
	f.createUser(t, "u2", "u1")
	f.createUser(t, "u3")

	mine := f.createActivity(t, "u1", "2024-05-01")
	friends := f.createActivity(t, "u2", "2024-05-03")
	f.createActivity(t, "u3", "2024-05-04")

	feed := f.activities.GetUserAndFriendsActivities(context.Background(), "u1")
	require.NoError(t, feed.Err)
	assert.Equal(t, []string{friends.ID, mine.ID}, activityIDs(feed.Activities))
}

func TestGetUserAndFriendsActivities_NoFriends(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "u1")
	a := f.createActivity(t, "u1", "2024-05-01")
	b := f.createActivity(t, "u1", "2024-05-09")

	feed := f.activities.GetUserAndFriendsActivities(context.Background(), "u1")
	require.NoError(t, feed.Err)
	assert.Equal(t, []string{b.ID, a.ID}, activityIDs(feed.Activities))
}

func TestGetUserAndFriendsActivities_UnknownUserSeesOwn(t *testing.T) {
	f := newFixture(t)
	a := f.createActivity(t, "ghost", "2024-05-01")

	feed := f.activities.GetUserAndFriendsActivities(context.Background(), "ghost")
	require.NoError(t, feed.Err)
	assert.Equal(t, []string{a.ID}, activityIDs(feed.Activities))
}

func TestGetUserAndFriendsActivities_QueryFailure(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "u1", "u2")
	f.createUser(t, "u2")
	f.createActivity(t, "u1", "2024-05-01")

	f.store.failQuery = true
	feed := f.activities.GetUserAndFriendsActivities(context.Background(), "u1")
	assert.ErrorIs(t, feed.Err, errBackend)
	assert.NotNil(t, feed.Activities)
	assert.Empty(t, feed.Activities)
}

func TestGetActivitiesOnDate(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "u1", "u2")
	f.createUser(t, "u2")

	a := f.createActivity(t, "u1", "2024-05-01")
	b := f.createActivity(t, "u2", "2024-05-01")
	f.createActivity(t, "u2", "2024-05-02")

	feed := f.activities.GetActivitiesOnDate(context.Background(), "u1", "2024-05-01")
	require.NoError(t, feed.Err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, activityIDs(feed.Activities))
}
