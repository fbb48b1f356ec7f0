package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rapex.backend/internal/interfaces/http/handlers"
)

type routeDeps struct {
	registrationHandler  *handlers.RegistrationHandler
	authHandler          *handlers.AuthHandler
	passwordResetHandler *handlers.PasswordResetHandler
	authMiddleware       gin.HandlerFunc
}

func applyCORSMiddleware(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "rapex-merchant-backend",
			"version": "1.0.0",
		})
	})
}

func registerMetricsRoute(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		merchants := v1.Group("/merchants")
		{
			// Registration routes (public)
			register := merchants.Group("/register")
			{
				register.POST("/step1", d.registrationHandler.SaveStep1)
				register.POST("/step2", d.registrationHandler.SaveStep2)
				register.POST("/step3", d.registrationHandler.SaveStep3)
				register.GET("/progress/:id", d.registrationHandler.GetProgress)
				register.POST("/check-uniqueness", d.registrationHandler.CheckUniqueness)
			}

			// Auth routes (public)
			merchants.POST("/login", d.authHandler.Login)
			merchants.POST("/refresh", d.authHandler.RefreshToken)

			// Password reset routes (public)
			forgot := merchants.Group("/forgot-password")
			{
				forgot.POST("/send-otp", d.passwordResetHandler.SendOTP)
				forgot.POST("/verify-otp", d.passwordResetHandler.VerifyOTP)
				forgot.POST("/reset", d.passwordResetHandler.ResetPassword)
			}

			// Account routes (protected)
			merchants.POST("/change-password", d.authMiddleware, d.authHandler.ChangePassword)
			merchants.GET("/me", d.authMiddleware, d.authHandler.Me)
		}
	}
}
