package handlers

import (
	"errors"
	"net/http"

	"aquadash/internal/service"

	"github.com/gin-gonic/gin"
)

// loginRequest matches the browser client's payload; the password field is
// named "pass" on the wire.
type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"pass" binding:"required"`
}

type signUpRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("bad_request_body", "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// @Summary      Log in
// @Description  Checks the admin pair (or an operator account) and issues a token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "success, token"
// @Failure      401  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]interface{}
// @Router       /api/login [post]
func (h *Handler) login(c *gin.Context) {
	var input loginRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	token, err := h.services.Login(input.Username, input.Password)
	if err != nil {
		if errors.Is(err, service.ErrAuthMisconfigured) {
			if h.log != nil {
				h.log.Errorw("login_misconfigured", "err", err)
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "server misconfiguration"})
			return
		}
		if h.log != nil {
			h.log.Infow("login_failed", "username", input.Username)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

// @Summary      Create operator account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]int
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/users [post]
// @Security     BearerAuth
func (h *Handler) signUp(c *gin.Context) {
	var input signUpRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	id, err := h.services.SignUp(input.Username, input.Password)
	if err != nil {
		if h.log != nil {
			h.log.Infow("sign_up_failed", "username", input.Username, "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id})
}
