package auth

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/ad-verify/internal/api"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=150"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by both register and login.
type TokenResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// RegisterRoutes mounts the unauthenticated account endpoints.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Post("/api/register/", handleRegister(store))
	r.Post("/api/login/", handleLogin(store))
}

func handleRegister(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := api.Decode(w, r, &req); err != nil {
			api.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		u, token, err := store.Register(r.Context(), req.Username, req.Email, req.Password)
		if errors.Is(err, ErrUsernameTaken) {
			api.Error(w, http.StatusBadRequest, "A user with that username already exists.")
			return
		}
		if err != nil {
			log.Printf("auth: register: %v", err)
			api.Error(w, http.StatusInternalServerError, "registration failed")
			return
		}
		api.JSON(w, http.StatusCreated, TokenResponse{Token: token, UserID: u.ID, Email: u.Email})
	}
}

func handleLogin(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := api.Decode(w, r, &req); err != nil {
			api.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		u, token, err := store.Login(r.Context(), req.Username, req.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			api.Error(w, http.StatusBadRequest, "Unable to log in with provided credentials.")
			return
		}
		if err != nil {
			log.Printf("auth: login: %v", err)
			api.Error(w, http.StatusInternalServerError, "login failed")
			return
		}
		api.JSON(w, http.StatusOK, TokenResponse{Token: token, UserID: u.ID, Email: u.Email})
	}
}
