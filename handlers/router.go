package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/parentplanner/server/middleware"
	"github.com/parentplanner/server/services"
)

// RouterConfig carries what NewRouter needs to build the HTTP API.
type RouterConfig struct {
	Users          *services.UserService
	Activities     *services.ActivityService
	Auth           *services.AuthService
	JWTSecret      string
	AllowedOrigins []string
	RateLimiter    *middleware.RateLimiter
}

func NewRouter(cfg RouterConfig) *mux.Router {
	authHandler := NewAuthHandler(cfg.Auth)
	userHandler := NewUserHandler(cfg.Users)
	activityHandler := NewActivityHandler(cfg.Activities)

	r := mux.NewRouter()
	r.Use(middleware.ErrorMiddleware())
	r.Use(middleware.RequestLogger)
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Middleware)
	}

	r.HandleFunc("/health", Health).Methods("GET")

	// Auth routes
	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/signup", authHandler.SignUp).Methods("POST", "OPTIONS")
	authRouter.HandleFunc("/signin", authHandler.SignIn).Methods("POST", "OPTIONS")

	// Everything below needs a token
	api := r.PathPrefix("/").Subrouter()
	api.Use(middleware.JWTMiddleware(cfg.JWTSecret))
	api.HandleFunc("/me", authHandler.Me).Methods("GET", "OPTIONS")

	api.HandleFunc("/friends", userHandler.GetFriends).Methods("GET", "OPTIONS")
	api.HandleFunc("/invitations", userHandler.CreateInvitation).Methods("POST", "OPTIONS")
	api.HandleFunc("/invitations/{code}", userHandler.GetInvitation).Methods("GET", "OPTIONS")
	api.HandleFunc("/invitations/{code}/accept", userHandler.AcceptInvitation).Methods("POST", "OPTIONS")
	api.HandleFunc("/invitations/{code}/reject", userHandler.RejectInvitation).Methods("POST", "OPTIONS")

	api.HandleFunc("/activities", activityHandler.CreateActivity).Methods("POST", "OPTIONS")
	api.HandleFunc("/activities", activityHandler.GetFeed).Methods("GET", "OPTIONS")
	api.HandleFunc("/activities/mine", activityHandler.GetMyActivities).Methods("GET", "OPTIONS")
	api.HandleFunc("/activities/{id}", activityHandler.GetActivity).Methods("GET", "OPTIONS")
	api.HandleFunc("/activities/{id}", activityHandler.EditActivity).Methods("PUT", "OPTIONS")
	api.HandleFunc("/activities/{id}", activityHandler.DeleteActivity).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/activities/{id}/join", activityHandler.JoinActivity).Methods("POST", "OPTIONS")
	api.HandleFunc("/activities/{id}/leave", activityHandler.LeaveActivity).Methods("POST", "OPTIONS")
	api.HandleFunc("/activities/{id}/interest", activityHandler.ExpressInterest).Methods("POST", "OPTIONS")

	return r
}

func Health(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
