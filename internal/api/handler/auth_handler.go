package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"citylog/internal/api/middleware"
	"citylog/internal/app/service"
	"citylog/internal/common"
	"citylog/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

const tokenCookieName = "jwt"

type AuthHandler struct {
	authService *service.AuthService
	respond     *common.Responder

	cookieTTL    time.Duration
	secureCookie bool
}

func NewAuthHandler(authService *service.AuthService, respond *common.Responder, cookieTTL time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		respond:      respond,
		cookieTTL:    cookieTTL,
		secureCookie: secureCookie,
	}
}

func (h *AuthHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/signup", h.signup)
	r.Post("/login", h.login)
	r.Get("/logout", h.logout)
	r.Post("/forgotPassword", h.forgotPassword)
	r.Patch("/resetPassword/{token}", h.resetPassword)
}

func (h *AuthHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Patch("/updateMyPassword", h.updatePassword)
}

type authResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Token   string      `json:"token"`
	User    *model.User `json:"user"`
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, common.NewError(common.ErrBadRequest, "Invalid request payload"))
		return
	}

	result, err := h.authService.Signup(r.Context(), req)
	if err != nil {
		h.respond.Error(w, err)
		return
	}

	h.setTokenCookie(w, result.Token)
	h.respond.JSON(w, http.StatusCreated, authResponse{
		Success: true,
		Message: "Your account has been created successfully.",
		Token:   result.Token,
		User:    result.User,
	})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, common.NewError(common.ErrBadRequest, "Invalid request payload"))
		return
	}

	result, err := h.authService.Login(r.Context(), req)
	if err != nil {
		h.respond.Error(w, err)
		return
	}

	h.setTokenCookie(w, result.Token)
	h.respond.JSON(w, http.StatusOK, authResponse{
		Success: true,
		Token:   result.Token,
		User:    result.User,
	})
}

// logout overwrites the session cookie with one that expires immediately.
// There is no server-side revocation list; a leaked token stays valid until
// its natural expiry unless the password changes.
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    "logged-out",
		Expires:  time.Now().Add(1 * time.Second),
		HttpOnly: true,
		Secure:   h.secureCookie,
		Path:     "/",
	})
	h.respond.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "You have been successfully logged out",
	})
}

func (h *AuthHandler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, common.NewError(common.ErrBadRequest, "Invalid request payload"))
		return
	}

	if err := h.authService.ForgotPassword(r.Context(), req.Email, resetURLBase(r)); err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Check your email for an instruction",
	})
}

func (h *AuthHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, common.NewError(common.ErrBadRequest, "Invalid request payload"))
		return
	}

	token := chi.URLParam(r, "token")
	if err := h.authService.ResetPassword(r.Context(), token, req.Password, req.ConfirmPassword); err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Your password reset was successful. Now login",
	})
}

func (h *AuthHandler) updatePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		h.respond.Error(w, common.ErrNotAuthenticated)
		return
	}

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, common.NewError(common.ErrBadRequest, "Invalid request payload"))
		return
	}

	result, err := h.authService.UpdatePassword(r.Context(), user.ID, req.CurrentPassword, req.Password, req.ConfirmPassword)
	if err != nil {
		h.respond.Error(w, err)
		return
	}

	h.setTokenCookie(w, result.Token)
	h.respond.JSON(w, http.StatusOK, authResponse{
		Success: true,
		Message: "Your password has been updated successfully",
		Token:   result.Token,
		User:    result.User,
	})
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		MaxAge:   int(h.cookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		Path:     "/",
	})
}

func resetURLBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/api/v1/users/resetPassword"
}
