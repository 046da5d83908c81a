package handler

import (
	"encoding/json"
	"net/http"

	"citylog/internal/api/middleware"
	"citylog/internal/app/service"
	"citylog/internal/common"
	"citylog/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	userService *service.UserService
	respond     *common.Responder
}

func NewUserHandler(userService *service.UserService, respond *common.Responder) *UserHandler {
	return &UserHandler{userService: userService, respond: respond}
}

func (h *UserHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Patch("/updateMe", h.updateMe)
	r.Delete("/deleteMe", h.deleteMe)
}

func (h *UserHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/allUsers", h.listUsers)
	r.Get("/allUsers/{id}", h.getUser)
	r.Patch("/updateRole/{id}", h.updateRole)
}

func (h *UserHandler) updateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		h.respond.Error(w, common.ErrNotAuthenticated)
		return
	}

	// Decode past the allow-list once to catch password-change attempts on
	// this route.
	var req struct {
		service.UpdateProfileRequest
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, common.NewError(common.ErrBadRequest, "Invalid request payload"))
		return
	}
	if req.Password != "" || req.ConfirmPassword != "" {
		h.respond.Error(w, common.NewError(common.ErrBadRequest,
			"This route is not for password updates, please use /updateMyPassword"))
		return
	}

	updated, err := h.userService.UpdateProfile(r.Context(), user.ID, req.UpdateProfileRequest)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Information updated successfully",
		"user":    updated,
	})
}

func (h *UserHandler) deleteMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		h.respond.Error(w, common.ErrNotAuthenticated)
		return
	}

	if err := h.userService.Delete(r.Context(), user.ID); err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Your account was successfully deleted",
	})
}

func (h *UserHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"results": len(users),
		"users":   users,
	})
}

func (h *UserHandler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

func (h *UserHandler) updateRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role model.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, common.NewError(common.ErrBadRequest, "Invalid request payload"))
		return
	}

	user, err := h.userService.UpdateRole(r.Context(), chi.URLParam(r, "id"), req.Role)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "User role has been updated",
		"user":    user,
	})
}
