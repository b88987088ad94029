package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"weekstay/internal/app/dto"
	authsvc "weekstay/internal/app/services/auth"
	usersvc "weekstay/internal/app/services/user"
	domainuser "weekstay/internal/domain/user"
)

type AuthHandler struct {
	Auth  *authsvc.Service
	Users *usersvc.Service
}

type loginRequest struct {
	Login    string `json:"login"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginName accepts the credential under any of the three historical field
// names; username and email clients both keep working.
func (r loginRequest) loginName() string {
	if r.Login != "" {
		return r.Login
	}
	if r.Username != "" {
		return r.Username
	}
	return r.Email
}

func (h AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.Auth.Login(c.Request.Context(), authsvc.LoginParams{
		Login:    req.loginName(),
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, authsvc.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credentials"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": result.Token,
		"user":  dto.MapUserProfile(result.User),
	})
}

func (h AuthHandler) Me(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	u, err := h.Users.Get(c.Request.Context(), domainuser.ID(p.ID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapUserProfile(u))
}

var _ AuthHTTP = AuthHandler{}
