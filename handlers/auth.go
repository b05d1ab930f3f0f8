package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"p9e.in/fieldreport/pkg/apperr"
	"p9e.in/fieldreport/pkg/session"
)

type loginReq struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type userPayload struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id,omitempty"`
	OrgID      string `json:"org_id,omitempty"`
	Name       string `json:"name"`
	Phone      string `json:"phone,omitempty"`
	Role       string `json:"role,omitempty"`
}

type loginResp struct {
	session.TokenPair
	User userPayload `json:"user"`
}

func newUserPayload(id session.Identity) userPayload {
	p := userPayload{ID: id.UserID.String(), Name: id.Name, Phone: id.Phone, Role: id.Role}
	if id.EmployeeID != uuid.Nil {
		p.EmployeeID = id.EmployeeID.String()
		p.OrgID = id.OrgID.String()
	}
	return p
}

// AuthHandler issues, rotates and revokes session tokens
type AuthHandler struct {
	accounts Accounts
	tokens   *session.Manager
	log      *zap.Logger
}

func NewAuthHandler(accounts Accounts, tokens *session.Manager, log *zap.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, tokens: tokens, log: log.Named("auth")}
}

// Login godoc
// @Summary      Sign in with email or phone and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginReq  true  "credentials"
// @Success      200   {object}  loginResp
// @Failure      401   {object}  map[string]string
// @Router       /auth/v1/token [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}
	login := strings.TrimSpace(req.Email)
	if login == "" {
		login = strings.TrimSpace(req.Phone)
	}
	if login == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email or phone and password are required")
		return
	}

	ctx := r.Context()
	u, err := h.accounts.FindByLogin(ctx, login)
	if apperr.IsNotFound(err) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	id, err := h.accounts.Identity(ctx, u.ID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	pair, err := h.tokens.Issue(ctx, id)
	if err != nil {
		h.log.Error("issue tokens", zap.String("user_id", u.ID.String()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "couldn't create token")
		return
	}
	if err := h.accounts.TouchLogin(ctx, u.ID, time.Now().UTC()); err != nil {
		h.log.Warn("record login time", zap.String("user_id", u.ID.String()), zap.Error(err))
	}

	h.log.Info("login", zap.String("user_id", u.ID.String()), zap.Bool("has_employee", id.OrgID != uuid.Nil))
	writeJSON(w, http.StatusOK, loginResp{TokenPair: pair, User: newUserPayload(id)})
}

// Refresh rotates a refresh token. The old token stops working.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}
	pair, err := h.tokens.Refresh(r.Context(), req.RefreshToken, h.accounts.Identity)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, pair)
	case isSessionError(err), apperr.IsNotFound(err):
		writeError(w, http.StatusUnauthorized, "invalid or expired refresh token")
	default:
		writeAppError(w, r, err)
	}
}

// Logout deletes the session behind a refresh token
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}
	err := h.tokens.Revoke(r.Context(), req.RefreshToken)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case isSessionError(err):
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
	default:
		writeAppError(w, r, err)
	}
}

func isSessionError(err error) bool {
	return errors.Is(err, session.ErrInvalidToken) ||
		errors.Is(err, session.ErrWrongTokenType) ||
		errors.Is(err, session.ErrSessionNotFound)
}
