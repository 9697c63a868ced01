package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wanderblog/apiserver/internal/apperr"
	"github.com/wanderblog/apiserver/internal/services"
	"github.com/wanderblog/apiserver/types"
)

// AuthHandler provides the session lifecycle endpoints.
type AuthHandler struct {
	users   *services.UserService
	cookies CookieConfig
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(users *services.UserService, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{users: users, cookies: cookies}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, users *services.UserService, cookies CookieConfig, requireAuth func(http.Handler) http.Handler) {
	handler := NewAuthHandler(users, cookies)

	r.Route("/email-password", func(r chi.Router) {
		r.Post("/signup", handler.SignUp)
		r.Post("/signin", handler.SignIn)
	})
	r.With(requireAuth).Post("/signout", handler.SignOut)
	r.Get("/check/{userID}", handler.Check)
	r.Post("/forgot-password", handler.ForgotPassword)
}

type SignUpRequest struct {
	UserName string `json:"userName"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInRequest struct {
	UserNameOrEmail string `json:"userNameOrEmail"`
	Password        string `json:"password"`
}

type ForgotPasswordRequest struct {
	UserNameOrEmail string `json:"userNameOrEmail"`
}

// SessionResponse is the data payload returned on signup and signin.
type SessionResponse struct {
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
	User         types.User `json:"user"`
}

// SignUp registers a user and opens a session, setting both token cookies.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("invalid request body"))
		return
	}

	user, pair, err := h.users.SignUp(r.Context(), req.UserName, req.FullName, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.set(w, cookieAccessToken, pair.AccessToken)
	h.cookies.set(w, cookieRefreshToken, pair.RefreshToken)
	writeData(w, http.StatusOK, SessionResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user,
	}, "signed up successfully")
}

// SignIn authenticates by username or email, setting both token cookies.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("invalid request body"))
		return
	}

	user, pair, err := h.users.SignIn(r.Context(), req.UserNameOrEmail, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.set(w, cookieAccessToken, pair.AccessToken)
	h.cookies.set(w, cookieRefreshToken, pair.RefreshToken)
	writeData(w, http.StatusOK, SessionResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user,
	}, "signed in successfully")
}

// SignOut ends the session. The stored refresh token is cleared before
// any cookie is touched; cookies are cleared only on success.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, apperr.Unauthorized("unauthorized access denied"))
		return
	}

	if err := h.users.SignOut(r.Context(), user.ID); err != nil {
		writeError(w, err)
		return
	}

	h.cookies.clear(w, cookieAccessToken)
	h.cookies.clear(w, cookieRefreshToken)
	h.cookies.clear(w, cookieLegacyJWT)
	writeData(w, http.StatusOK, "", "signed out successfully")
}

// Check verifies or refreshes the session for a user, setting cookies for
// whichever tokens were freshly issued.
func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID < 1 {
		writeError(w, apperr.Validation("user id is required"))
		return
	}

	result, err := h.users.VerifyOrRefresh(
		r.Context(),
		userID,
		cookieValue(r, cookieAccessToken),
		cookieValue(r, cookieRefreshToken),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	if result.IssuedAccess {
		h.cookies.set(w, cookieAccessToken, result.AccessToken)
	}
	if result.IssuedRefresh {
		h.cookies.set(w, cookieRefreshToken, result.RefreshToken)
	}
	writeData(w, http.StatusOK, result.AccessToken, "token is valid")
}

// ForgotPassword generates a password-reset token for the account.
// Delivery of the token is handled out of band.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("invalid request body"))
		return
	}
	if req.UserNameOrEmail == "" {
		writeError(w, apperr.Validation("all fields are required"))
		return
	}

	if _, err := h.users.GenerateResetToken(r.Context(), req.UserNameOrEmail); err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, "", "password reset token generated")
}
