package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	domainerrors "rapex.backend/internal/domain/errors"
	"rapex.backend/internal/interfaces/http/response"
	"rapex.backend/internal/usecases"
)

// PasswordResetHandler handles the OTP password reset endpoints
type PasswordResetHandler struct {
	resetUsecase *usecases.PasswordResetUsecase
}

// NewPasswordResetHandler creates a new password reset handler
func NewPasswordResetHandler(resetUsecase *usecases.PasswordResetUsecase) *PasswordResetHandler {
	return &PasswordResetHandler{resetUsecase: resetUsecase}
}

type sendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// SendOTP issues a reset code to the account's email
// POST /api/v1/merchants/forgot-password/send-otp
func (h *PasswordResetHandler) SendOTP(c *gin.Context) {
	var req sendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	sent, err := h.resetUsecase.RequestReset(c.Request.Context(), req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"message":    "verification code issued",
		"email_sent": sent,
	})
}

type verifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required"`
}

// VerifyOTP checks a submitted reset code
// POST /api/v1/merchants/forgot-password/verify-otp
func (h *PasswordResetHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	if err := h.resetUsecase.VerifyCode(c.Request.Context(), req.Email, req.OTP); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "code verified"})
}

type resetPasswordRequest struct {
	Email           string `json:"email" binding:"required,email"`
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// ResetPassword sets a new password after a verified code
// POST /api/v1/merchants/forgot-password/reset
func (h *PasswordResetHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	if err := h.resetUsecase.ResetPassword(c.Request.Context(), req.Email,
		req.NewPassword, req.ConfirmPassword); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "password reset"})
}
