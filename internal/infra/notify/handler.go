package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"weekstay/internal/domain/booking"
	"weekstay/internal/domain/house"
	"weekstay/internal/domain/user"
)

type EmailSender interface {
	Send(ctx context.Context, toEmail, toName, subject, text, html string) error
}

// BookingEventHandler turns booking lifecycle events from the event topic
// into renter emails. Lookups go through the repositories so a deleted
// renter or house simply drops the notification.
type BookingEventHandler struct {
	Users  user.Repository
	Houses house.Repository
	Sender EmailSender
	Logger *slog.Logger
}

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type bookingPayload struct {
	BookingID string         `json:"booking_id"`
	HouseID   string         `json:"house_id"`
	RenterID  string         `json:"renter_id"`
	Window    booking.Window `json:"window"`
}

func (h *BookingEventHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var env envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return fmt.Errorf("decode event envelope: %w", err)
	}

	switch env.Type {
	case "booking.confirmed.v1":
		return h.notify(ctx, env.Data, confirmedTemplate)
	case "booking.cancelled.v1":
		return h.notify(ctx, env.Data, cancelledTemplate)
	default:
		return nil
	}
}

type emailTemplate func(houseName string, w booking.Window) (subject, text, html string)

func (h *BookingEventHandler) notify(ctx context.Context, data json.RawMessage, tmpl emailTemplate) error {
	var p bookingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode booking event: %w", err)
	}

	renter, err := h.Users.ByID(ctx, user.ID(p.RenterID))
	if err != nil {
		h.logger().Info("skipping booking notification, renter unavailable",
			"booking_id", p.BookingID, "renter_id", p.RenterID, "error", err)
		return nil
	}

	houseName := p.HouseID
	if hse, err := h.Houses.ByID(ctx, house.HouseID(p.HouseID)); err == nil {
		houseName = hse.Name
	}

	subject, text, html := tmpl(houseName, p.Window)
	if err := h.Sender.Send(ctx, renter.Email, renter.Username, subject, text, html); err != nil {
		return fmt.Errorf("send booking email: %w", err)
	}
	h.logger().Info("booking notification sent",
		"booking_id", p.BookingID, "renter_id", p.RenterID, "subject", subject)
	return nil
}

func (h *BookingEventHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func confirmedTemplate(houseName string, w booking.Window) (string, string, string) {
	subject := fmt.Sprintf("Booking confirmed: %s", houseName)
	stay := stayRange(w)
	text := fmt.Sprintf("Your stay at %s is confirmed for %s.", houseName, stay)
	html := fmt.Sprintf("<p>Your stay at <b>%s</b> is confirmed for %s.</p>", houseName, stay)
	return subject, text, html
}

func cancelledTemplate(houseName string, w booking.Window) (string, string, string) {
	subject := fmt.Sprintf("Booking cancelled: %s", houseName)
	stay := stayRange(w)
	text := fmt.Sprintf("Your stay at %s for %s has been cancelled and your credits refunded.", houseName, stay)
	html := fmt.Sprintf("<p>Your stay at <b>%s</b> for %s has been cancelled and your credits refunded.</p>", houseName, stay)
	return subject, text, html
}

func stayRange(w booking.Window) string {
	lastDay := w.CheckOut.Add(-24 * time.Hour)
	return fmt.Sprintf("%s to %s", w.CheckIn.Format("Mon, 02 Jan 2006"), lastDay.Format("Mon, 02 Jan 2006"))
}
