package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/parentplanner/server/middleware"
	"github.com/parentplanner/server/models"
	"github.com/parentplanner/server/services"
	"github.com/parentplanner/server/utils/errors"
)

type UserHandler struct {
	userService *services.UserService
}

type FriendsResponse struct {
	Friends []models.User `json:"friends"`
	Missing []string      `json:"missing,omitempty"`
	Count   int           `json:"count"`
}

type InvitationResponse struct {
	Invitation models.FriendInvitation `json:"invitation"`
	Link       string                  `json:"link"`
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) GetFriends(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	result := h.userService.GetUserFriends(r.Context(), userID)
	if result.Err != nil {
		middleware.WriteError(w, result.Err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, FriendsResponse{
		Friends: result.Friends,
		Missing: result.Missing,
		Count:   len(result.Friends),
	})
}

func (h *UserHandler) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}
	var input struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	invitation, err := h.userService.CreateInvitation(r.Context(), userID, input.Email)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, InvitationResponse{
		Invitation: invitation,
		Link:       h.userService.InvitationLink(invitation.Code),
	})
}

func (h *UserHandler) GetInvitation(w http.ResponseWriter, r *http.Request) {
	invitation, err := h.userService.GetInvitationByCode(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, InvitationResponse{
		Invitation: invitation,
		Link:       h.userService.InvitationLink(invitation.Code),
	})
}

func (h *UserHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}
	if err := h.userService.AcceptInvitation(r.Context(), mux.Vars(r)["code"], userID); err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Invitation accepted"})
}

func (h *UserHandler) RejectInvitation(w http.ResponseWriter, r *http.Request) {
	if err := h.userService.RejectInvitation(r.Context(), mux.Vars(r)["code"]); err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Invitation rejected"})
}
