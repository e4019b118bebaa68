package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eadshop/ecommerce-services/internal/user"
	"github.com/gofrs/uuid"
)

type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

type signupRequest struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string     `json:"token"`
	User    *user.User `json:"user"`
	Message string     `json:"message"`
}

func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u := &user.User{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	}

	created, err := h.svc.Register(r.Context(), u, req.Password)
	if err != nil {
		respondWithError(w, mapUserErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, token, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondWithError(w, mapUserErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, loginResponse{
		Token:   token,
		User:    u,
		Message: "Welcome back, " + u.FirstName + "!",
	})
}

type updateUserRequest struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == uuid.Nil {
		respondWithError(w, http.StatusBadRequest, "id is required")
		return
	}

	existing, err := h.svc.GetUserByID(r.Context(), req.ID)
	if err != nil {
		respondWithError(w, mapUserErrorToStatusCode(err), err.Error())
		return
	}

	existing.Username = req.Username
	existing.FirstName = req.FirstName
	existing.LastName = req.LastName
	existing.Email = req.Email

	if err := h.svc.UpdateUser(r.Context(), existing, req.Password); err != nil {
		respondWithError(w, mapUserErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, existing)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteUser(r.Context(), id); err != nil {
		respondWithError(w, mapUserErrorToStatusCode(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) GetUserByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	u, err := h.svc.GetUserByID(r.Context(), id)
	if err != nil {
		respondWithError(w, mapUserErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, u)
}

func mapUserErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, user.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, user.ErrEmailExists), errors.Is(err, user.ErrUsernameExists):
		return http.StatusConflict
	case errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
