package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/parentplanner/server/middleware"
	"github.com/parentplanner/server/models"
	"github.com/parentplanner/server/services"
	"github.com/parentplanner/server/utils/errors"
)

type ActivityHandler struct {
	activityService *services.ActivityService
}

// FeedResponse is the combined activity feed. Degraded is set when the feed
// couldn't be loaded, so an empty list isn't mistaken for "nothing planned".
type FeedResponse struct {
	Activities []models.Activity `json:"activities"`
	Count      int               `json:"count"`
	Degraded   bool              `json:"degraded,omitempty"`
}

func NewActivityHandler(activityService *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

func (h *ActivityHandler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}
	var input models.ActivityInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	input.CreatedBy = userID

	activity, err := h.activityService.CreateActivity(r.Context(), input)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, activity)
}

// GetFeed lists the activities of the user and their friends, optionally
// narrowed to ?date=YYYY-MM-DD.
func (h *ActivityHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	var feed services.ActivityFeed
	if date := r.URL.Query().Get("date"); date != "" {
		if _, err := models.ParseDate(date); err != nil {
			middleware.WriteError(w, errors.ErrInvalidInput)
			return
		}
		feed = h.activityService.GetActivitiesOnDate(r.Context(), userID, date)
	} else {
		feed = h.activityService.GetUserAndFriendsActivities(r.Context(), userID)
	}

	middleware.WriteJSON(w, http.StatusOK, FeedResponse{
		Activities: feed.Activities,
		Count:      len(feed.Activities),
		Degraded:   feed.Err != nil,
	})
}

func (h *ActivityHandler) GetMyActivities(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}
	activities, err := h.activityService.GetUserActivities(r.Context(), userID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, FeedResponse{Activities: activities, Count: len(activities)})
}

func (h *ActivityHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	activity, err := h.activityService.GetActivityByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, activity)
}

func (h *ActivityHandler) EditActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}
	var input models.ActivityInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	activity, err := h.activityService.EditActivity(r.Context(), mux.Vars(r)["id"], userID, input)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, activity)
}

// DeleteActivity removes an activity. Only the creator may delete it.
func (h *ActivityHandler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}
	id := mux.Vars(r)["id"]

	activity, err := h.activityService.GetActivityByID(r.Context(), id)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if activity.CreatedBy != userID {
		middleware.WriteError(w, errors.ErrForbidden)
		return
	}
	if err := h.activityService.DeleteActivity(r.Context(), id); err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type membershipFunc func(ctx context.Context, activityID, userID string) (models.Activity, error)

func (h *ActivityHandler) membership(fn membershipFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			middleware.WriteError(w, errors.ErrUnauthorized)
			return
		}
		activity, err := fn(r.Context(), mux.Vars(r)["id"], userID)
		if err != nil {
			middleware.WriteError(w, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, activity)
	}
}

func (h *ActivityHandler) JoinActivity(w http.ResponseWriter, r *http.Request) {
	h.membership(h.activityService.JoinActivity)(w, r)
}

func (h *ActivityHandler) LeaveActivity(w http.ResponseWriter, r *http.Request) {
	h.membership(h.activityService.LeaveActivity)(w, r)
}

func (h *ActivityHandler) ExpressInterest(w http.ResponseWriter, r *http.Request) {
	h.membership(h.activityService.ExpressInterest)(w, r)
}
