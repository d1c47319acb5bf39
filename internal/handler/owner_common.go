package handler // handler defines http handlers

import (
	"errors"  // errors provides sentinel values used in getUserID
	"strconv" // strconv converts strings to numeric types

	"github.com/arlenko/bookery/internal/repository" // repository holds data access layer
	"github.com/arlenko/bookery/internal/service"    // service publishes queue events
	"github.com/labstack/echo/v4"                    // echo defines request context types
)

// OwnerHandler bundles repositories for owners to manage their catalog
// and operate the booking ledger.
type OwnerHandler struct {
	BusinessRepo   *repository.BusinessRepo   // BusinessRepo provides business persistence
	ExperienceRepo *repository.ExperienceRepo // ExperienceRepo provides experience persistence
	EventRepo      *repository.EventRepo      // EventRepo provides event persistence
	SessionRepo    *repository.SessionRepo    // SessionRepo provides session persistence
	GuestRepo      *repository.GuestRepo      // GuestRepo provides guest persistence
	AddOnRepo      *repository.AddOnRepo      // AddOnRepo provides add-on persistence
	BookingRepo    *repository.BookingRepo    // BookingRepo provides booking persistence
	Publisher      *service.QueuePublisher    // Publisher emits post-commit notification events, may be nil
}

// NewOwnerHandler constructs a new OwnerHandler and panics if any
// repository is nil. The publisher is optional: without a broker the
// ledger still works, confirmations are simply not emitted.
func NewOwnerHandler(
	businessRepo *repository.BusinessRepo,
	experienceRepo *repository.ExperienceRepo,
	eventRepo *repository.EventRepo,
	sessionRepo *repository.SessionRepo,
	guestRepo *repository.GuestRepo,
	addOnRepo *repository.AddOnRepo,
	bookingRepo *repository.BookingRepo,
	publisher *service.QueuePublisher,
) *OwnerHandler {
	if businessRepo == nil || experienceRepo == nil || eventRepo == nil || sessionRepo == nil ||
		guestRepo == nil || addOnRepo == nil || bookingRepo == nil {
		panic("nil repository passed to NewOwnerHandler")
	}
	return &OwnerHandler{
		BusinessRepo:   businessRepo,
		ExperienceRepo: experienceRepo,
		EventRepo:      eventRepo,
		SessionRepo:    sessionRepo,
		GuestRepo:      guestRepo,
		AddOnRepo:      addOnRepo,
		BookingRepo:    bookingRepo,
		Publisher:      publisher,
	}
}

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}
