package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"weekstay/internal/app/dto"
	housesvc "weekstay/internal/app/services/house"
	domainhouse "weekstay/internal/domain/house"
	domainuser "weekstay/internal/domain/user"
)

type HouseHandler struct {
	Houses *housesvc.Service
}

type houseRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (h HouseHandler) List(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	houses, err := h.Houses.ListFor(c.Request.Context(), domainuser.ID(p.ID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapHouseList(houses))
}

func (h HouseHandler) Get(c *gin.Context) {
	if _, ok := requireAuth(c); !ok {
		return
	}
	hse, err := h.Houses.Get(c.Request.Context(), domainhouse.HouseID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapHouseProfile(hse))
}

func (h HouseHandler) Create(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}
	var req houseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	hse, err := h.Houses.Create(c.Request.Context(), housesvc.CreateParams{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.MapHouseProfile(hse))
}

func (h HouseHandler) Update(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}
	var req houseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	hse, err := h.Houses.Update(c.Request.Context(), domainhouse.HouseID(c.Param("id")), housesvc.CreateParams{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapHouseProfile(hse))
}

func (h HouseHandler) Delete(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}
	if err := h.Houses.Delete(c.Request.Context(), domainhouse.HouseID(c.Param("id"))); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// AddPhoto accepts a multipart upload under the "photo" field, stores it in
// object storage, and returns the house with the new URL appended.
func (h HouseHandler) AddPhoto(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read photo file"})
		return
	}
	defer file.Close()

	hse, err := h.Houses.AddPhoto(
		c.Request.Context(),
		domainhouse.HouseID(c.Param("id")),
		fileHeader.Filename,
		file,
		fileHeader.Header.Get("Content-Type"),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapHouseProfile(hse))
}

var _ HouseHTTP = HouseHandler{}
