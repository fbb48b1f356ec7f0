package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"rapex.backend/pkg/jwt"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// MerchantIDKey is the context key for the authenticated merchant ID
	MerchantIDKey = "merchantId"
	// MerchantEmailKey is the context key for the authenticated merchant email
	MerchantEmailKey = "merchantEmail"
	// MerchantUsernameKey is the context key for the authenticated merchant username
	MerchantUsernameKey = "merchantUsername"
)

// AuthMiddleware validates the bearer token and loads the merchant claims
// into the gin context
func AuthMiddleware(jwtService *jwt.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeader)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Authorization header is required",
			})
			return
		}

		if !strings.HasPrefix(authHeader, BearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid authorization format. Use: Bearer <token>",
			})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			log.Printf("[AuthMiddleware] Request to %s failed: %v", c.Request.URL.Path, err)
			if err == jwt.ErrExpiredToken {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"message": "Token has expired",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid token",
			})
			return
		}

		c.Set(MerchantIDKey, claims.MerchantID)
		c.Set(MerchantEmailKey, claims.Email)
		c.Set(MerchantUsernameKey, claims.Username)

		c.Next()
	}
}

// GetMerchantID gets the authenticated merchant ID from context
func GetMerchantID(c *gin.Context) (uint, bool) {
	id, exists := c.Get(MerchantIDKey)
	if !exists {
		return 0, false
	}
	merchantID, ok := id.(uint)
	return merchantID, ok
}

// GetMerchantEmail gets the authenticated merchant email from context
func GetMerchantEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(MerchantEmailKey)
	if !exists {
		return "", false
	}
	return email.(string), true
}
