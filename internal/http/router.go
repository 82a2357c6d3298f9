package httpx

import (
	"github.com/gin-gonic/gin"
	"github.com/you/chainguard/domain"
	"github.com/you/chainguard/internal/http/handlers"
	"github.com/you/chainguard/internal/http/middleware"
)

func BuildRouter(fh *handlers.FlowHandlers, auth domain.AuthService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	screen := r.Group("/flow")
	screen.GET("", fh.View)
	screen.POST("/boot", fh.Boot)
	screen.POST("/login", fh.ShowLogin)
	screen.POST("/signup", fh.ShowSignup)
	screen.POST("/back", fh.Back)
	screen.POST("/cancel", fh.Cancel)
	screen.DELETE("/errors/:field", fh.EditField)

	a := r.Group("/auth")
	a.POST("/login", fh.Login)
	a.POST("/signup", fh.Signup)
	a.POST("/otp/digit", fh.EnterDigit)
	a.POST("/otp/backspace", fh.Backspace)
	a.POST("/otp/verify", fh.VerifyOTP)
	a.POST("/otp/resend", fh.ResendOTP)

	v := r.Group("/").Use(middleware.RequireSession(auth))
	v.GET("/auth/me", fh.Me)
	v.POST("/auth/logout", fh.Logout)

	return r
}
