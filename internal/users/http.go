package users

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"MiniShop/pkg/kit"
)

const defaultTokenTTL = 15 * time.Minute

type Server struct {
	Log      *zap.Logger
	Store    UserStore
	JWT      *TokenMaker
	TokenTTL time.Duration
}

type signUpReq struct {
	Name       string `json:"name" validate:"required,max=64"`
	Lastname   string `json:"lastname" validate:"required,max=64"`
	Username   string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	Email      string `json:"email" validate:"required,email"`
	Gender     Gender `json:"gender" validate:"omitempty,oneof=m w indeterminate"`
	CreditCard string `json:"credit_card" validate:"omitempty,numeric,len=16"`
	Bio        string `json:"bio" validate:"max=1024"`
}

type signUpResp struct {
	Result int `json:"result"`
	UserID int `json:"user_id"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpReq
	if !s.decode(w, r, &req) {
		return
	}

	id, ok := s.Store.Create(SignUp{
		Name:       strings.TrimSpace(req.Name),
		Lastname:   strings.TrimSpace(req.Lastname),
		Username:   req.Username,
		Password:   req.Password,
		Email:      normalizeEmail(req.Email),
		Gender:     req.Gender,
		CreditCard: req.CreditCard,
		Bio:        req.Bio,
	})
	if !ok {
		kit.WriteError(w, r, http.StatusConflict, "user already exists", nil)
		return
	}

	kit.WriteJSON(w, http.StatusCreated, signUpResp{Result: 1, UserID: id})
}

type signInReq struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Username string `json:"username" validate:"required_without=Email"`
	Password string `json:"password" validate:"required"`
}

type signInResp struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInReq
	if !s.decode(w, r, &req) {
		return
	}

	email := normalizeEmail(req.Email)
	if email == "" {
		e, ok := s.Store.EmailForUsername(req.Username)
		if !ok {
			kit.WriteError(w, r, http.StatusUnauthorized, "invalid credentials", nil)
			return
		}
		email = e
	}

	id, ok := s.Store.LookupUserID(email, req.Password)
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	u, ok := s.Store.Read(id)
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	tok, err := s.JWT.New(u.ID, u.Email, s.tokenTTL())
	if err != nil {
		s.Log.Error("token issue", zap.Error(err), zap.Int("user_id", u.ID))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, signInResp{AccessToken: tok, User: u})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	c, _ := ClaimsFromContext(r.Context())

	u, ok := s.Store.Read(c.UserID)
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"user_id": c.UserID})
		return
	}
	kit.WriteJSON(w, http.StatusOK, u)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	c, _ := ClaimsFromContext(r.Context())

	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	if id != c.UserID && !s.Store.IsAdmin(c.UserID) {
		kit.WriteError(w, r, http.StatusForbidden, "forbidden", nil)
		return
	}

	u, ok := s.Store.Read(id)
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"user_id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, u)
}

type editProfileReq struct {
	OldPassword *string `json:"old_password" validate:"omitempty,max=72"`
	NewPassword *string `json:"new_password" validate:"omitempty,min=8,max=72"`
	Email       string  `json:"email" validate:"omitempty,email"`
	Name        string  `json:"name" validate:"max=64"`
	Lastname    string  `json:"lastname" validate:"max=64"`
	Username    string  `json:"username" validate:"omitempty,min=3,max=32,alphanum"`
	Gender      Gender  `json:"gender" validate:"omitempty,oneof=m w indeterminate"`
	CreditCard  string  `json:"credit_card" validate:"omitempty,numeric,len=16"`
	Bio         string  `json:"bio" validate:"max=1024"`
}

func (s *Server) handleEditProfile(w http.ResponseWriter, r *http.Request) {
	c, _ := ClaimsFromContext(r.Context())

	var req editProfileReq
	if !s.decode(w, r, &req) {
		return
	}

	ok := s.Store.Update(ProfilePatch{
		UserID:      c.UserID,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
		Email:       normalizeEmail(req.Email),
		Name:        strings.TrimSpace(req.Name),
		Lastname:    strings.TrimSpace(req.Lastname),
		Username:    req.Username,
		Bio:         req.Bio,
		CreditCard:  req.CreditCard,
		Gender:      req.Gender,
	})
	if !ok {
		kit.WriteError(w, r, http.StatusConflict, "profile update rejected", nil)
		return
	}

	u, found := s.Store.Read(c.UserID)
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"user_id": c.UserID})
		return
	}
	kit.WriteJSON(w, http.StatusOK, u)
}

type credentialsReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if !s.decode(w, r, &req) {
		return
	}

	if !s.Store.Delete(normalizeEmail(req.Email), req.Password) {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if !s.decode(w, r, &req) {
		return
	}

	id, ok := s.Store.DeleteAllExceptCaller(normalizeEmail(req.Email), req.Password)
	if !ok {
		kit.WriteError(w, r, http.StatusForbidden, "forbidden", nil)
		return
	}
	s.Log.Info("all users deleted by admin", zap.Int("user_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGrantAdmin(w http.ResponseWriter, r *http.Request) {
	c, _ := ClaimsFromContext(r.Context())

	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	if !s.Store.IsAdmin(c.UserID) {
		kit.WriteError(w, r, http.StatusForbidden, "forbidden", nil)
		return
	}
	found, granted := s.Store.Promote(id)
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"user_id": id})
		return
	}
	if !granted {
		kit.WriteError(w, r, http.StatusConflict, "already admin", map[string]any{"user_id": id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRevokeAdmin(w http.ResponseWriter, r *http.Request) {
	c, _ := ClaimsFromContext(r.Context())

	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	if !s.Store.RevokeAdmin(c.UserID, id) {
		kit.WriteError(w, r, http.StatusForbidden, "revoke denied", map[string]any{"user_id": id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	c, _ := ClaimsFromContext(r.Context())

	kit.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id":  c.UserID,
		"email":    c.Email,
		"is_admin": s.Store.IsAdmin(c.UserID),
	})
}

// decode parses and validates the body, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := kit.DecodeJSON(w, r, dst); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return false
	}
	if err := validate.Struct(dst); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "validation failed", validationDetails(err))
		return false
	}
	return true
}

func (s *Server) tokenTTL() time.Duration {
	if s.TokenTTL > 0 {
		return s.TokenTTL
	}
	return defaultTokenTTL
}

type ctxKey string

const claimsKey ctxKey = "claims"

func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey).(Claims)
	return c, ok
}

// RequireToken rejects requests without a valid bearer token and stores the
// parsed claims in the request context.
func RequireToken(jwt *TokenMaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := kit.BearerToken(r)
			if !ok {
				kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
				return
			}
			claims, err := jwt.Parse(tok)
			if err != nil {
				kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func userIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "bad user id", map[string]any{"id": raw})
		return 0, false
	}
	return id, true
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
