package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	usersvc "weekstay/internal/app/services/user"
	domainbooking "weekstay/internal/domain/booking"
	domainhouse "weekstay/internal/domain/house"
	domainuser "weekstay/internal/domain/user"
)

// respondError maps domain sentinels to HTTP statuses. Anything unmapped is a
// 500 with a generic body so internals never leak to clients.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainbooking.ErrBookingNotFound),
		errors.Is(err, domainhouse.ErrNotFound),
		errors.Is(err, domainuser.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domainbooking.ErrInvalidWindow),
		errors.Is(err, domainbooking.ErrDateConflict),
		errors.Is(err, domainbooking.ErrAlreadyCancelled),
		errors.Is(err, domainuser.ErrInsufficientCredits),
		errors.Is(err, domainuser.ErrAlreadyExists),
		errors.Is(err, domainuser.ErrLastAdmin),
		errors.Is(err, domainuser.ErrUsernameRequired),
		errors.Is(err, domainuser.ErrEmailRequired),
		errors.Is(err, domainuser.ErrInvalidRole),
		errors.Is(err, domainhouse.ErrNameRequired),
		errors.Is(err, domainhouse.ErrActiveBookings),
		errors.Is(err, usersvc.ErrInvalidCreditAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
