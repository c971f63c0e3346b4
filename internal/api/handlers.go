package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/campusconnect/campus-connect/internal/database"
	"github.com/campusconnect/campus-connect/internal/types"
)

const maxPageLimit = 100

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User  types.User `json:"user"`
	Token string     `json:"token"`
}

func (s *App) writeJson(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *App) writeError(w http.ResponseWriter, errResp *ApiError) {
	if errResp.StatusCode >= http.StatusInternalServerError && errResp.Err != nil {
		s.log.Printf("%d: %v", errResp.StatusCode, errResp.Err)
	}

	s.writeJson(w, errResp.StatusCode, errResp)
}

// decodeRequest decodes a JSON body into v and validates it.
func (s *App) decodeRequest(r *http.Request, v any) *ApiError {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return NewBadRequestError()
	}

	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return NewValidationError(errors.New(verrs[0].Field() + " failed " + verrs[0].Tag()))
		}
		return NewBadRequestError()
	}

	return nil
}

// pageParams reads page and limit from the query string. Missing or
// invalid values fall back to page 1 and defaultLimit.
func pageParams(r *http.Request, defaultLimit int) (int, int) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	// keeps (page-1)*limit within int
	page = min(page, math.MaxInt/maxPageLimit)

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}

	return page, min(limit, maxPageLimit)
}

func (s *App) healthCheck(w http.ResponseWriter, _ *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.Println("health check failed:", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(http.StatusText(http.StatusInternalServerError)))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *App) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if errResp := s.decodeRequest(r, &req); errResp != nil {
		s.writeError(w, errResp)
		return
	}

	pwdHash, err := hashPassword(req.Password)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	user, err := s.db.CreateUser(database.CreateUserParams{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: pwdHash,
		Role:         database.RoleStudent,
	})
	if err != nil {
		s.writeError(w, dbError(err))
		return
	}

	s.startSession(w, http.StatusCreated, user)
}

func (s *App) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if errResp := s.decodeRequest(r, &req); errResp != nil {
		s.writeError(w, errResp)
		return
	}

	user, err := s.db.GetUserByEmail(req.Email)
	if err != nil {
		errResp := dbError(err)
		if errResp.StatusCode == http.StatusNotFound {
			errResp = NewUnauthorizedError()
		}
		s.writeError(w, errResp)
		return
	}

	if !verifyPassword(user.PasswordHash, req.Password) {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	if err := s.db.SetUserOnline(user.Id, true); err != nil {
		s.log.Printf("set user %q online: %v", user.Id, err)
	} else {
		user.IsOnline = true
	}

	s.startSession(w, http.StatusOK, user)
}

func (s *App) startSession(w http.ResponseWriter, statusCode int, user database.User) {
	token, err := s.createJwtForSession(user.Id)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	http.SetCookie(w, createJwtCookie(token, s.tokenTTL))
	s.writeJson(w, statusCode, AuthResponse{User: toUser(user), Token: token})
}

func (s *App) logout(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	if err := s.db.SetUserOnline(userId, false); err != nil {
		s.log.Printf("set user %q offline: %v", userId, err)
	}

	http.SetCookie(w, expiredJwtCookie())
	w.WriteHeader(http.StatusNoContent)
}

func (s *App) me(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	user, err := s.db.GetUserById(userId)
	if err != nil {
		s.writeError(w, dbError(err))
		return
	}

	s.writeJson(w, http.StatusOK, toUser(user))
}

func (s *App) onlineUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.hub.OnlineUsers(r.Context())
	if err != nil {
		s.writeError(w, NewServiceUnavailableError(err))
		return
	}

	s.writeJson(w, http.StatusOK, types.OnlineUsers{Users: users})
}
