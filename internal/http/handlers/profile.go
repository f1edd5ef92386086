package handlers

import (
	"log/slog"
	"net/http"

	"github.com/nutricare/server/internal/middleware"
	"github.com/nutricare/server/internal/model"
	"github.com/nutricare/server/internal/profile"
)

// ProfileHandler serves /api/profile
type ProfileHandler struct {
	profiles *profile.Service
	log      *slog.Logger
}

func NewProfileHandler(profiles *profile.Service, log *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, log: log}
}

// HandleGet handles GET /api/profile
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.GetAccount(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	view, err := h.profiles.Get(r.Context(), account)
	if err != nil {
		respondWithAppError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// HandleUpdatePersonal handles PUT /api/profile/personal
func (h *ProfileHandler) HandleUpdatePersonal(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetAccountID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var upd model.PersonalInfoUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}

	personal, err := h.profiles.UpdatePersonal(r.Context(), id, upd)
	if err != nil {
		respondWithAppError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, personal)
}

// HandleUpdateMedical handles PUT /api/profile/medical
func (h *ProfileHandler) HandleUpdateMedical(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetAccountID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var upd model.MedicalInfoUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}

	medical, err := h.profiles.UpdateMedical(r.Context(), id, upd)
	if err != nil {
		respondWithAppError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, medical)
}
