package handler

import (
	"encoding/json"
	"net/http"

	"citylog/internal/api/middleware"
	"citylog/internal/app/service"
	"citylog/internal/common"

	"github.com/go-chi/chi/v5"
)

type CityHandler struct {
	cityService *service.CityService
	respond     *common.Responder
}

func NewCityHandler(cityService *service.CityService, respond *common.Responder) *CityHandler {
	return &CityHandler{cityService: cityService, respond: respond}
}

func (h *CityHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listCities)
	r.Post("/", h.createCity)
	r.Get("/{id}", h.getCity)
	r.Patch("/{id}", h.updateCity)
	r.Delete("/{id}", h.deleteCity)
}

func (h *CityHandler) createCity(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		h.respond.Error(w, common.ErrNotAuthenticated)
		return
	}

	var req service.CreateCityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, common.NewError(common.ErrBadRequest, "Invalid request payload"))
		return
	}

	city, err := h.cityService.Create(r.Context(), user.ID, req)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.JSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "City added",
		"city":    city,
	})
}

func (h *CityHandler) listCities(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		h.respond.Error(w, common.ErrNotAuthenticated)
		return
	}

	cities, err := h.cityService.List(r.Context(), user.ID, r.URL.Query())
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"results": len(cities),
		"cities":  cities,
	})
}

func (h *CityHandler) getCity(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		h.respond.Error(w, common.ErrNotAuthenticated)
		return
	}

	city, err := h.cityService.Get(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"city":    city,
	})
}

// updateCity always answers 501 regardless of payload; the operation is part
// of the route surface but intentionally unsupported.
func (h *CityHandler) updateCity(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		h.respond.Error(w, common.ErrNotAuthenticated)
		return
	}
	h.respond.Error(w, h.cityService.Update(r.Context(), user, chi.URLParam(r, "id")))
}

func (h *CityHandler) deleteCity(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		h.respond.Error(w, common.ErrNotAuthenticated)
		return
	}

	if err := h.cityService.Delete(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "City deleted",
	})
}
