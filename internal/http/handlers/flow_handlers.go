package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/chainguard/domain"
	"github.com/you/chainguard/internal/flow"
	"github.com/you/chainguard/internal/validation"
)

// FlowHandlers exposes the screen flow controller over HTTP
type FlowHandlers struct {
	flow *flow.Controller
	auth domain.AuthService
}

// NewFlowHandlers creates new flow handlers
func NewFlowHandlers(controller *flow.Controller, auth domain.AuthService) *FlowHandlers {
	return &FlowHandlers{flow: controller, auth: auth}
}

// DigitRequest carries text typed or pasted into one code slot
type DigitRequest struct {
	Index *int   `json:"index" binding:"required"`
	Value string `json:"value"`
}

// BackspaceRequest carries the slot the delete key was pressed in
type BackspaceRequest struct {
	Index *int `json:"index" binding:"required"`
}

// View returns the active screen
func (h *FlowHandlers) View(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.flow.View()})
}

// Boot leaves the loading screen
func (h *FlowHandlers) Boot(c *gin.Context) {
	h.transition(c, h.flow.Boot)
}

// ShowLogin opens the login screen
func (h *FlowHandlers) ShowLogin(c *gin.Context) {
	h.transition(c, h.flow.GoToLogin)
}

// ShowSignup opens the signup screen
func (h *FlowHandlers) ShowSignup(c *gin.Context) {
	h.transition(c, h.flow.GoToSignup)
}

// Back returns to the previous screen
func (h *FlowHandlers) Back(c *gin.Context) {
	h.transition(c, h.flow.Back)
}

// Cancel abandons login or signup
func (h *FlowHandlers) Cancel(c *gin.Context) {
	h.transition(c, h.flow.Cancel)
}

// EditField clears the inline error of one form field
func (h *FlowHandlers) EditField(c *gin.Context) {
	h.flow.EditField(c.Param("field"))
	c.JSON(http.StatusOK, gin.H{"data": h.flow.View()})
}

// Login handles the login form
func (h *FlowHandlers) Login(c *gin.Context) {
	var form validation.LoginForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.flow.SubmitLogin(c.Request.Context(), form)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"user": userJSON(session.User),
			"view": h.flow.View(),
		},
	})
}

// Signup handles the signup form
func (h *FlowHandlers) Signup(c *gin.Context) {
	var form validation.SignupForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pending, err := h.flow.SubmitSignup(c.Request.Context(), form)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"data": gin.H{
			"message": "Verification code sent",
			"email":   pending.Email,
			"view":    h.flow.View(),
		},
	})
}

// EnterDigit applies typed or pasted code text; a completed code is
// verified in the same request.
func (h *FlowHandlers) EnterDigit(c *gin.Context) {
	var req DigitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.flow.EnterDigit(c.Request.Context(), *req.Index, req.Value)
	if err != nil {
		writeError(c, err)
		return
	}

	body := gin.H{"view": h.flow.View()}
	if session != nil {
		body["user"] = userJSON(session.User)
	}
	c.JSON(http.StatusOK, gin.H{"data": body})
}

// Backspace moves focus back from an empty slot
func (h *FlowHandlers) Backspace(c *gin.Context) {
	var req BackspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.flow.Backspace(*req.Index); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.flow.View()})
}

// VerifyOTP submits the entered code
func (h *FlowHandlers) VerifyOTP(c *gin.Context) {
	session, err := h.flow.SubmitOTP(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"user": userJSON(session.User),
			"view": h.flow.View(),
		},
	})
}

// ResendOTP requests a fresh code after the countdown ran out
func (h *FlowHandlers) ResendOTP(c *gin.Context) {
	challenge, err := h.flow.Resend(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"message":    "Verification code resent",
			"expires_at": challenge.ExpiresAt,
			"view":       h.flow.View(),
		},
	})
}

// Me returns the signed-in user
func (h *FlowHandlers) Me(c *gin.Context) {
	session := h.auth.Session()
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"user":           userJSON(session.User),
			"established_at": session.EstablishedAt,
		},
	})
}

// Logout ends the session
func (h *FlowHandlers) Logout(c *gin.Context) {
	h.transition(c, h.flow.Logout)
}

func (h *FlowHandlers) transition(c *gin.Context, fn func() error) {
	if err := fn(); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.flow.View()})
}

func userJSON(u *domain.User) gin.H {
	if u == nil {
		return nil
	}
	return gin.H{
		"id":        u.ID,
		"email":     u.Email,
		"full_name": u.FullName,
		"phone":     u.Phone,
	}
}
