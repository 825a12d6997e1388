package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/parentplanner/server/middleware"
	"github.com/parentplanner/server/services"
	"github.com/parentplanner/server/utils/errors"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type credentialsInput struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	ChildNickname string `json:"childNickname"`
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var input credentialsInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	session, err := h.authService.SignUp(r.Context(), input.Email, input.Password, input.ChildNickname)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, session)
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var input credentialsInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	session, err := h.authService.SignIn(r.Context(), input.Email, input.Password)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, session)
}

// Me returns the directory record of the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}
	user := h.authService.CurrentUser(r.Context(), userID, middleware.EmailFromContext(r.Context()))
	middleware.WriteJSON(w, http.StatusOK, user)
}
