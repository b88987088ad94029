package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"weekstay/internal/app/dto"
	usersvc "weekstay/internal/app/services/user"
	domainhouse "weekstay/internal/domain/house"
	domainuser "weekstay/internal/domain/user"
)

type UserHandler struct {
	Users *usersvc.Service
}

func (h UserHandler) List(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}
	items, err := h.Users.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapUserList(items))
}

// Get serves the caller's own profile, or any profile for administrators.
func (h UserHandler) Get(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if id != p.ID && !p.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
		return
	}
	u, err := h.Users.Get(c.Request.Context(), domainuser.ID(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapUserProfile(u))
}

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

func (h UserHandler) Create(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.Users.Create(c.Request.Context(), usersvc.CreateParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     domainuser.Role(req.Role),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.MapUserProfile(u))
}

type updateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Role     string `json:"role"`
}

func (h UserHandler) Update(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.Users.Update(c.Request.Context(), domainuser.ID(c.Param("id")), usersvc.UpdateParams{
		Username: req.Username,
		Email:    req.Email,
		Role:     domainuser.Role(req.Role),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapUserProfile(u))
}

func (h UserHandler) Delete(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}
	if err := h.Users.Delete(c.Request.Context(), domainuser.ID(c.Param("id"))); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type assignHousesRequest struct {
	HouseIDs []string `json:"house_ids"`
}

// AssignHouses replaces the user's whole assignment set.
func (h UserHandler) AssignHouses(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}
	var req assignHousesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ids := make([]domainhouse.HouseID, 0, len(req.HouseIDs))
	for _, id := range req.HouseIDs {
		ids = append(ids, domainhouse.HouseID(id))
	}
	u, err := h.Users.AssignHouses(c.Request.Context(), domainuser.ID(c.Param("id")), ids)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapUserProfile(u))
}

type singleHouseRequest struct {
	HouseID string `json:"house_id" binding:"required"`
}

func (h UserHandler) AssignHouse(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}
	var req singleHouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.Users.AssignHouse(c.Request.Context(), domainuser.ID(c.Param("id")), domainhouse.HouseID(req.HouseID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapUserProfile(u))
}

func (h UserHandler) RemoveHouse(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}
	var req singleHouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.Users.RemoveHouse(c.Request.Context(), domainuser.ID(c.Param("id")), domainhouse.HouseID(req.HouseID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapUserProfile(u))
}

type grantCreditsRequest struct {
	Amount int `json:"amount" binding:"required"`
}

func (h UserHandler) GrantCredits(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}
	var req grantCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.Users.GrantCredits(c.Request.Context(), domainuser.ID(c.Param("id")), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapUserProfile(u))
}

// Credits serves the caller's own balance, or any balance for administrators.
func (h UserHandler) Credits(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if id != p.ID && !p.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
		return
	}
	credits, err := h.Users.Credits(c.Request.Context(), domainuser.ID(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"credits": credits})
}

var _ UserHTTP = UserHandler{}
