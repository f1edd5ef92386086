package handlers

import (
	"log/slog"
	"net/http"

	"github.com/nutricare/server/internal/dietplan"
	"github.com/nutricare/server/internal/middleware"
	"github.com/nutricare/server/internal/model"
)

// DietPlanHandler serves /api/diet-plan
type DietPlanHandler struct {
	plans *dietplan.Service
	log   *slog.Logger
}

func NewDietPlanHandler(plans *dietplan.Service, log *slog.Logger) *DietPlanHandler {
	return &DietPlanHandler{plans: plans, log: log}
}

type dietPlanResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    *model.DietPlan `json:"data"`
}

type analysisResponse struct {
	Success  bool   `json:"success"`
	Analysis string `json:"analysis"`
	IsMock   bool   `json:"isMock,omitempty"`
	Error    string `json:"error,omitempty"`
	Details  string `json:"details,omitempty"`
}

// HandleSubmit handles POST /api/diet-plan
func (h *DietPlanHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetAccountID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var in dietplan.SubmitInput
	if !decodeJSON(w, r, &in) {
		return
	}

	plan, err := h.plans.Submit(r.Context(), id, in)
	if err != nil {
		respondWithAppError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, dietPlanResponse{
		Success: true,
		Message: "Diet plan submitted successfully",
		Data:    plan,
	})
}

// HandleLatest handles GET /api/diet-plan
func (h *DietPlanHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetAccountID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	plan, err := h.plans.Latest(r.Context(), id)
	if err != nil {
		respondWithAppError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, dietPlanResponse{Success: true, Data: plan})
}

// HandleAnalyze handles POST /api/diet-plan/analyze
func (h *DietPlanHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetAccountID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var in dietplan.AnalyzeInput
	if !decodeJSON(w, r, &in) {
		return
	}

	res, err := h.plans.Analyze(r.Context(), id, in)
	if err != nil {
		respondWithAppError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, analysisResponse{
		Success:  true,
		Analysis: res.Text,
		IsMock:   res.IsMock,
		Error:    res.Notice,
		Details:  res.Detail,
	})
}
