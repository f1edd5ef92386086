package handlers

import (
	"log/slog"
	"net/http"

	"github.com/nutricare/server/internal/auth"
	"github.com/nutricare/server/internal/logging"
	"github.com/nutricare/server/internal/middleware"
	"github.com/nutricare/server/internal/model"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *auth.AuthService
	log         *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.AuthService, log *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Mobile   string `json:"mobile"`
}

type registerResponse struct {
	Message     string `json:"message"`
	RequiresOTP bool   `json:"requiresOtp"`
	Email       string `json:"email"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type resendOTPRequest struct {
	Email string `json:"email"`
}

// userResponse is the account object in API responses
type userResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Verified bool   `json:"verified"`
}

type sessionResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
	Token   string       `json:"token"`
}

type pendingResponse struct {
	Message     string `json:"message"`
	RequiresOTP bool   `json:"requiresOtp"`
	Email       string `json:"email"`
}

func newUserResponse(a *model.Account) userResponse {
	return userResponse{
		ID:       a.ID.String(),
		Name:     a.Name,
		Email:    a.Email,
		Mobile:   a.Mobile,
		Verified: a.Verified,
	}
}

// HandleRegister handles POST /api/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	email, err := h.authService.Register(r.Context(), auth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Mobile:   req.Mobile,
	})
	if err != nil {
		h.log.Info("registration rejected", "email", logging.MaskEmail(req.Email), "error", err)
		respondWithAppError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, registerResponse{
		Message:     "Registration successful. Please verify your email with the OTP sent.",
		RequiresOTP: true,
		Email:       email,
	})
}

// HandleLogin handles POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.log.Info("login rejected", "email", logging.MaskEmail(req.Email), "error", err)
		respondWithAppError(w, h.log, err)
		return
	}

	if res.RequiresOTP {
		respondJSON(w, http.StatusOK, pendingResponse{
			Message:     "Please verify your email. A new OTP has been sent.",
			RequiresOTP: true,
			Email:       res.Email,
		})
		return
	}

	respondJSON(w, http.StatusOK, sessionResponse{
		Message: "Login successful",
		User:    newUserResponse(res.Account),
		Token:   res.Token,
	})
}

// HandleVerifyOTP handles POST /api/auth/verify-otp
func (h *AuthHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.authService.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		h.log.Info("otp verification failed", "email", logging.MaskEmail(req.Email), "error", err)
		respondWithAppError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, sessionResponse{
		Message: "Email verified successfully",
		User:    newUserResponse(session.Account),
		Token:   session.Token,
	})
}

// HandleResendOTP handles POST /api/auth/resend-otp
func (h *AuthHandler) HandleResendOTP(w http.ResponseWriter, r *http.Request) {
	var req resendOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	email, err := h.authService.ResendOTP(r.Context(), req.Email)
	if err != nil {
		respondWithAppError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "OTP sent successfully",
		"email":   email,
	})
}

// HandleMe handles GET /api/auth/me (protected). Returns the authenticated account.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.GetAccount(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authorized")
		return
	}
	respondJSON(w, http.StatusOK, newUserResponse(account))
}
