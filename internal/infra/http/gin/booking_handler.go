package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"weekstay/internal/app/dto"
	bookingsvc "weekstay/internal/app/services/booking"
	domainbooking "weekstay/internal/domain/booking"
	domainhouse "weekstay/internal/domain/house"
	domainuser "weekstay/internal/domain/user"
)

type BookingHandler struct {
	Bookings *bookingsvc.Service
}

type createBookingRequest struct {
	HouseID   string    `json:"house_id" binding:"required"`
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date" binding:"required"`
}

func (h BookingHandler) Create(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, err := h.Bookings.Create(c.Request.Context(), bookingsvc.CreateParams{
		HouseID:  domainhouse.HouseID(req.HouseID),
		RenterID: domainuser.ID(p.ID),
		RawStart: req.StartDate,
		RawEnd:   req.EndDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.MapBookingSummary(b))
}

// ListForHouse returns the house's non-cancelled bookings, the data clients
// render as the availability calendar.
func (h BookingHandler) ListForHouse(c *gin.Context) {
	if _, ok := requireAuth(c); !ok {
		return
	}
	bookings, err := h.Bookings.ListForHouse(c.Request.Context(), domainhouse.HouseID(c.Param("houseID")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapBookings(bookings))
}

func (h BookingHandler) ListMine(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	items, err := h.Bookings.ListForRenter(c.Request.Context(), domainuser.ID(p.ID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapRenterBookings(items))
}

func (h BookingHandler) Cancel(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	b, err := h.Bookings.Cancel(c.Request.Context(), domainbooking.BookingID(c.Param("id")), domainuser.ID(p.ID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapBookingSummary(b))
}

func (h BookingHandler) ListAll(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}
	items, err := h.Bookings.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapAdminBookings(items))
}

func (h BookingHandler) Delete(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}
	if err := h.Bookings.Delete(c.Request.Context(), domainbooking.BookingID(c.Param("id"))); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

var _ BookingHTTP = BookingHandler{}
