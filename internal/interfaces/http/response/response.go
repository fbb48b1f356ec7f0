package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	domainerrors "rapex.backend/internal/domain/errors"
	"rapex.backend/pkg/jwt"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error maps an error onto the wire shape. AppErrors carry their own status
// and field attribution; bare sentinels get a fixed mapping; anything else
// is a 500 whose internal text never reaches the client.
func Error(c *gin.Context, err error) {
	var appErr *domainerrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.Status, errorBody(appErr.Message, appErr.Fields))
		return
	}

	status, message := sentinelStatus(err)
	c.JSON(status, errorBody(message, nil))
}

func sentinelStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domainerrors.ErrNotFound):
		return http.StatusNotFound, "resource not found"
	case errors.Is(err, domainerrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domainerrors.ErrAccountInactive):
		return http.StatusForbidden, "account is not active"
	case errors.Is(err, domainerrors.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domainerrors.ErrTokenExpired), errors.Is(err, jwt.ErrExpiredToken):
		return http.StatusUnauthorized, "token has expired"
	case errors.Is(err, jwt.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, domainerrors.ErrOTPInvalid):
		return http.StatusBadRequest, "invalid or expired code"
	case errors.Is(err, domainerrors.ErrOTPNotVerified):
		return http.StatusBadRequest, "code not verified"
	case errors.Is(err, domainerrors.ErrAlreadyExists):
		return http.StatusConflict, "resource already exists"
	case errors.Is(err, domainerrors.ErrInvalidInput), errors.Is(err, domainerrors.ErrBadRequest):
		return http.StatusBadRequest, "invalid input"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func errorBody(message string, fields map[string]string) gin.H {
	body := gin.H{"message": message}
	if len(fields) > 0 {
		body["fields"] = fields
	}
	return body
}
