// Package dietplan stores submitted meal plans and has them analysed.
package dietplan

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/nutricare/server/internal/analysis"
	"github.com/nutricare/server/internal/apperr"
	"github.com/nutricare/server/internal/model"
	"github.com/nutricare/server/internal/repo"
)

const mockAnalysis = "<b>Mock Analysis:</b> Unable to reach the nutrition analysis service.<br><br>" +
	"This is a placeholder analysis for local development. Please check your internet connection or API configuration."

// Generator produces model text for a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ProfileSource supplies the stored profile used as analysis context
type ProfileSource interface {
	Profile(ctx context.Context, accountID uuid.UUID) (model.Profile, error)
}

// SubmitInput is a new meal plan
type SubmitInput struct {
	Morning   string `json:"morning"`
	Afternoon string `json:"afternoon"`
	Evening   string `json:"evening"`
	Night     string `json:"night"`
	Snacks    string `json:"snacks"`
	DietType  string `json:"dietType"`
}

// AnalyzeInput is a meal plan plus optional profile overrides
type AnalyzeInput struct {
	analysis.Meals
	analysis.Overrides
}

// Analysis is the model's review of a plan. IsMock marks the placeholder
// returned while the service cannot be resolved.
type Analysis struct {
	Text   string
	IsMock bool
	Notice string
	Detail string
}

type Service struct {
	plans    repo.DietPlanRepo
	profiles ProfileSource
	gen      Generator
	log      *slog.Logger
}

func NewService(plans repo.DietPlanRepo, profiles ProfileSource, gen Generator, log *slog.Logger) *Service {
	return &Service{plans: plans, profiles: profiles, gen: gen, log: log}
}

// Submit stores a plan; the four main meals are required
func (s *Service) Submit(ctx context.Context, accountID uuid.UUID, in SubmitInput) (*model.DietPlan, error) {
	plan := &model.DietPlan{
		AccountID: accountID,
		Morning:   strings.TrimSpace(in.Morning),
		Afternoon: strings.TrimSpace(in.Afternoon),
		Evening:   strings.TrimSpace(in.Evening),
		Night:     strings.TrimSpace(in.Night),
		Snacks:    strings.TrimSpace(in.Snacks),
		DietType:  strings.TrimSpace(in.DietType),
	}

	missing := map[string]bool{
		"morning":   plan.Morning == "",
		"afternoon": plan.Afternoon == "",
		"evening":   plan.Evening == "",
		"night":     plan.Night == "",
	}
	for _, m := range missing {
		if m {
			return nil, apperr.MissingFields("Morning, afternoon, evening and night meals are required", missing)
		}
	}

	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, apperr.Dependency("Error submitting diet plan", err)
	}
	s.log.Info("diet plan submitted", "account_id", accountID, "plan_id", plan.ID)
	return plan, nil
}

// Latest returns the most recent plan of the account
func (s *Service) Latest(ctx context.Context, accountID uuid.UUID) (*model.DietPlan, error) {
	plan, err := s.plans.Latest(ctx, accountID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.NotFound("No diet plan found")
		}
		return nil, apperr.Dependency("Error fetching diet plan", err)
	}
	return &plan, nil
}

// Analyze reviews the meals against the stored profile merged with the
// submitted overrides
func (s *Service) Analyze(ctx context.Context, accountID uuid.UUID, in AnalyzeInput) (*Analysis, error) {
	stored, err := s.profiles.Profile(ctx, accountID)
	if err != nil {
		return nil, err
	}

	subject := analysis.Merge(stored, in.Overrides)
	prompt := analysis.BuildPrompt(subject, in.Meals)

	text, err := s.gen.Generate(ctx, prompt)
	switch {
	case err == nil:
		return &Analysis{Text: text}, nil
	case errors.Is(err, analysis.ErrUnreachable):
		s.log.Warn("analysis service unreachable, returning placeholder", "error", err)
		return &Analysis{
			Text:   mockAnalysis,
			IsMock: true,
			Notice: "Nutrition analysis service is currently unreachable.",
			Detail: err.Error(),
		}, nil
	case errors.Is(err, analysis.ErrMissingAPIKey):
		return nil, apperr.Dependency("Nutrition analysis is not configured", err)
	default:
		s.log.Error("diet plan analysis failed", "account_id", accountID, "error", err)
		return nil, apperr.Dependency("Failed to analyze diet plan", err)
	}
}
