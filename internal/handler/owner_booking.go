// Package handler: booking ledger endpoints. Every mutation runs in a
// transaction that locks the session row first, so capacity decisions
// on one session serialize. When MySQL aborts the transaction because
// of a deadlock or lock wait timeout, the whole operation is retried
// once before giving up with 409.
package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"

	"github.com/arlenko/bookery/internal/model"
	"github.com/arlenko/bookery/internal/queue"
	"github.com/arlenko/bookery/internal/repository"
)

// isRetryableConflict reports whether the error is a MySQL deadlock
// (1213) or lock wait timeout (1205), both of which abort the
// transaction and are safe to retry from the top.
func isRetryableConflict(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1213 || me.Number == 1205
	}
	return false
}

// runLedgerTx executes fn inside a transaction, retrying exactly once
// when the transaction was aborted by a lock conflict. The second
// failure surfaces ErrCapacityConflict to the caller.
func runLedgerTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	for attempt := 0; attempt < 2; attempt++ {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		committed := false
		err = func() error {
			defer func() {
				if !committed {
					_ = tx.Rollback()
				}
			}()
			if err := fn(tx); err != nil {
				return err
			}
			if err := tx.Commit(); err != nil {
				return err
			}
			committed = true
			return nil
		}()
		if err == nil {
			return nil
		}
		if isRetryableConflict(err) {
			if attempt == 0 {
				continue
			}
			return repository.ErrCapacityConflict
		}
		return err
	}
	return repository.ErrCapacityConflict
}

// CreateBooking handles POST /v1/sessions/:id/bookings. It prices the
// booking from the current catalog, admits it through the capacity
// gate and commits booking, line items and counter adjustment
// atomically. A capacity rejection reports the remaining spots.
func (h *OwnerHandler) CreateBooking(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sessionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || sessionID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	var body struct {
		GuestID  uint64   `json:"guest_id"`
		Quantity int      `json:"quantity"`
		AddOnIDs []uint64 `json:"add_on_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.GuestID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "guest_id is required"})
	}
	if body.Quantity <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must be positive"})
	}
	// dedupe add-on ids so one add-on yields one line
	addOnIDs := make([]uint64, 0, len(body.AddOnIDs))
	seen := make(map[uint64]struct{})
	for _, id := range body.AddOnIDs {
		if id == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid add-on id"})
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			addOnIDs = append(addOnIDs, id)
		}
	}

	ctx := c.Request().Context()
	var (
		booking  repository.BookingRecord
		items    []repository.BookingItemRecord
		decision model.CapacityDecision
		sp       *repository.SessionPricing
	)
	err = runLedgerTx(ctx, h.BookingRepo.DB(), func(tx *sql.Tx) error {
		var err error
		sp, err = h.SessionRepo.LockForUpdateTx(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if sp.OwnerUserID != ownerID {
			return repository.ErrForbidden
		}
		// the guest must belong to the session's business
		var guestBiz uint64
		err = tx.QueryRowContext(ctx, `SELECT business_id FROM guests WHERE id = ?`, body.GuestID).Scan(&guestBiz)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return repository.ErrGuestNotFound
			}
			return err
		}
		if guestBiz != sp.BusinessID {
			return repository.ErrGuestNotFound
		}
		ceiling := model.EffectiveCapacity(sp.Session.MaxCapacity, sp.EventCapacity, sp.ExperienceCap)
		decision = model.CheckCapacity(sp.Session.CommittedQty, body.Quantity, ceiling)
		if !decision.Admitted {
			return errCapacityExceeded
		}
		prices, err := h.AddOnRepo.ResolveForBookingTx(ctx, tx, addOnIDs, sp.BusinessID, sp.Session.EventID)
		if err != nil {
			return err
		}
		charges := make([]model.AddOnCharge, 0, len(addOnIDs))
		for _, id := range addOnIDs {
			charges = append(charges, model.AddOnCharge{AddOnID: id, UnitPriceCents: prices[id]})
		}
		basePrice := model.EffectivePriceCents(sp.Session.PriceCents, sp.EventPriceCents)
		lines, total := model.BuildLines(basePrice, body.Quantity, charges)

		booking = repository.BookingRecord{
			SessionID:       sessionID,
			GuestID:         body.GuestID,
			Quantity:        body.Quantity,
			Status:          string(model.StatusConfirmed),
			TotalPriceCents: total,
		}
		if err := h.BookingRepo.CreateTx(ctx, tx, &booking); err != nil {
			return err
		}
		items = linesToItems(booking.ID, lines)
		if err := h.BookingRepo.CreateItemsTx(ctx, tx, items); err != nil {
			return err
		}
		return h.SessionRepo.AdjustCommittedTx(ctx, tx, sessionID, body.Quantity)
	})
	if err != nil {
		return h.ledgerError(c, err, &decision)
	}
	h.publishConfirmed(&booking, sp)
	return c.JSON(http.StatusCreated, bookingResp(&booking, items))
}

// errCapacityExceeded is an internal marker distinguishing a gate
// rejection from storage failures inside the ledger closure.
var errCapacityExceeded = errors.New("capacity exceeded")

// ChangeBookingQuantity handles PATCH /v1/bookings/:id/quantity. An
// increase passes the delta through the capacity gate; a decrease is
// always admitted. Every line is rescaled from the unit price captured
// when the booking was created. Cancelled bookings refuse the edit.
func (h *OwnerHandler) ChangeBookingQuantity(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Quantity <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must be positive"})
	}

	ctx := c.Request().Context()
	var (
		booking  *repository.BookingRecord
		items    []repository.BookingItemRecord
		decision model.CapacityDecision
	)
	err = runLedgerTx(ctx, h.BookingRepo.DB(), func(tx *sql.Tx) error {
		// first read locates the session; the authoritative re-read
		// happens after the session lock is held
		probe, err := h.BookingRepo.GetForOwnerTx(ctx, tx, bookingID, ownerID)
		if err != nil {
			return err
		}
		sp, err := h.SessionRepo.LockForUpdateTx(ctx, tx, probe.SessionID)
		if err != nil {
			return err
		}
		booking, err = h.BookingRepo.GetForOwnerTx(ctx, tx, bookingID, ownerID)
		if err != nil {
			return err
		}
		// COMPLETED bookings may still be resized (headcount corrections
		// after the fact); only cancellation freezes the quantity.
		if model.BookingStatus(booking.Status) == model.StatusCancelled {
			return errBookingCancelled
		}
		delta := body.Quantity - booking.Quantity
		if delta == 0 {
			items, err = h.BookingRepo.ItemsByBookingTx(ctx, tx, bookingID)
			return err
		}
		ceiling := model.EffectiveCapacity(sp.Session.MaxCapacity, sp.EventCapacity, sp.ExperienceCap)
		decision = model.CheckCapacity(sp.Session.CommittedQty, delta, ceiling)
		if !decision.Admitted {
			return errCapacityExceeded
		}
		oldItems, err := h.BookingRepo.ItemsByBookingTx(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		_, total := model.ScaleLines(itemsToLines(oldItems), body.Quantity)
		if err := h.BookingRepo.RescaleItemsTx(ctx, tx, bookingID, body.Quantity); err != nil {
			return err
		}
		if err := h.BookingRepo.UpdateQuantityTx(ctx, tx, bookingID, body.Quantity, total); err != nil {
			return err
		}
		if err := h.SessionRepo.AdjustCommittedTx(ctx, tx, probe.SessionID, delta); err != nil {
			return err
		}
		booking.Quantity = body.Quantity
		booking.TotalPriceCents = total
		items, err = h.BookingRepo.ItemsByBookingTx(ctx, tx, bookingID)
		return err
	})
	if err != nil {
		return h.ledgerError(c, err, &decision)
	}
	return c.JSON(http.StatusOK, bookingResp(booking, items))
}

// errBookingCancelled marks an attempted quantity edit of a cancelled
// booking.
var errBookingCancelled = errors.New("booking is cancelled")

// ChangeBookingStatus handles PATCH /v1/bookings/:id/status. Moving to
// CANCELLED releases the booking's quantity back to the session in the
// same transaction; terminal states accept no further transitions.
func (h *OwnerHandler) ChangeBookingStatus(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	target, ok := model.ParseBookingStatus(body.Status)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	ctx := c.Request().Context()
	var (
		booking   *repository.BookingRecord
		items     []repository.BookingItemRecord
		sp        *repository.SessionPricing
		confirmed bool
	)
	err = runLedgerTx(ctx, h.BookingRepo.DB(), func(tx *sql.Tx) error {
		probe, err := h.BookingRepo.GetForOwnerTx(ctx, tx, bookingID, ownerID)
		if err != nil {
			return err
		}
		sp, err = h.SessionRepo.LockForUpdateTx(ctx, tx, probe.SessionID)
		if err != nil {
			return err
		}
		booking, err = h.BookingRepo.GetForOwnerTx(ctx, tx, bookingID, ownerID)
		if err != nil {
			return err
		}
		from := model.BookingStatus(booking.Status)
		if !model.CanTransition(from, target) {
			return errIllegalTransition
		}
		if target == model.StatusCancelled {
			if err := h.SessionRepo.AdjustCommittedTx(ctx, tx, probe.SessionID, -booking.Quantity); err != nil {
				return err
			}
		}
		if err := h.BookingRepo.UpdateStatusTx(ctx, tx, bookingID, string(target)); err != nil {
			return err
		}
		booking.Status = string(target)
		confirmed = from == model.StatusPending && target == model.StatusConfirmed
		items, err = h.BookingRepo.ItemsByBookingTx(ctx, tx, bookingID)
		return err
	})
	if err != nil {
		return h.ledgerError(c, err, nil)
	}
	if confirmed {
		h.publishConfirmed(booking, sp)
	}
	return c.JSON(http.StatusOK, bookingResp(booking, items))
}

// errIllegalTransition marks a status move the machine does not allow.
var errIllegalTransition = errors.New("illegal status transition")

// ListSessionBookings handles GET /v1/sessions/:id/bookings.
func (h *OwnerHandler) ListSessionBookings(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sessionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || sessionID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	items, err := h.BookingRepo.ListBySessionForOwner(c.Request().Context(), sessionID, ownerID)
	if err != nil {
		switch err {
		case repository.ErrSessionNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
	}
	// aggregate alongside the list so operators can reconcile the
	// session counter against the sum of live bookings
	committed, err := h.BookingRepo.CommittedQuantity(c.Request().Context(), sessionID, 0)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "committed_quantity": committed})
}

// GetBooking handles GET /v1/bookings/:id and returns the booking with
// its schedule context and line items.
func (h *OwnerHandler) GetBooking(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	detail, err := h.BookingRepo.GetDetailForOwner(c.Request().Context(), bookingID, ownerID)
	if err != nil {
		switch err {
		case repository.ErrBookingNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"item":  detail,
		"items": itemMaps(detail.Items),
	})
}

// ledgerError maps the sentinel errors of a ledger transaction onto
// HTTP responses. Capacity rejections carry the remaining spots so the
// caller can offer a smaller quantity.
func (h *OwnerHandler) ledgerError(c echo.Context, err error, decision *model.CapacityDecision) error {
	switch {
	case errors.Is(err, errCapacityExceeded):
		resp := echo.Map{"error": "not enough spots available"}
		if decision != nil {
			resp["spots_available"] = decision.SpotsAvailable
		}
		return c.JSON(http.StatusBadRequest, resp)
	case errors.Is(err, errIllegalTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "illegal status transition"})
	case errors.Is(err, errBookingCancelled):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking is cancelled"})
	case errors.Is(err, repository.ErrCapacityConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflicting concurrent booking, please retry"})
	case errors.Is(err, repository.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, repository.ErrGuestNotFound):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "guest not found for this business"})
	case errors.Is(err, repository.ErrAddOnUnavailable):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "add-on not available for this session"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking operation failed"})
	}
}

// publishConfirmed emits a best-effort booking.confirmed event after
// the transaction committed. Publish failures never affect the
// response; the publisher logs them.
func (h *OwnerHandler) publishConfirmed(b *repository.BookingRecord, sp *repository.SessionPricing) {
	if h.Publisher == nil || sp == nil {
		return
	}
	h.Publisher.PublishBookingConfirmed(queue.BookingConfirmedEvent{
		BookingID:       b.ID,
		SessionID:       b.SessionID,
		GuestID:         b.GuestID,
		Quantity:        b.Quantity,
		TotalPriceCents: b.TotalPriceCents,
		EventTitle:      sp.EventTitle,
		ExperienceTitle: sp.ExperienceTitle,
		StartsAt:        dbTimeToRFC3339(sp.Session.StartsAt),
	})
}

// linesToItems converts priced lines into persistable item records.
func linesToItems(bookingID uint64, lines []model.Line) []repository.BookingItemRecord {
	out := make([]repository.BookingItemRecord, 0, len(lines))
	for _, ln := range lines {
		out = append(out, repository.BookingItemRecord{
			BookingID:       bookingID,
			ItemType:        string(ln.Type),
			AddOnID:         ln.AddOnID,
			Quantity:        ln.Quantity,
			UnitPriceCents:  ln.UnitPriceCents,
			TotalPriceCents: ln.TotalPriceCents,
		})
	}
	return out
}

// itemsToLines is the inverse used when rescaling an existing booking.
func itemsToLines(items []repository.BookingItemRecord) []model.Line {
	out := make([]model.Line, 0, len(items))
	for _, it := range items {
		out = append(out, model.Line{
			Type:            model.ItemType(it.ItemType),
			AddOnID:         it.AddOnID,
			Quantity:        it.Quantity,
			UnitPriceCents:  it.UnitPriceCents,
			TotalPriceCents: it.TotalPriceCents,
		})
	}
	return out
}

func itemMaps(items []repository.BookingItemRecord) []echo.Map {
	out := make([]echo.Map, 0, len(items))
	for _, it := range items {
		out = append(out, echo.Map{
			"item_type":         it.ItemType,
			"add_on_id":         it.AddOnID,
			"quantity":          it.Quantity,
			"unit_price_cents":  it.UnitPriceCents,
			"total_price_cents": it.TotalPriceCents,
		})
	}
	return out
}

// bookingResp shapes a booking plus lines for JSON output.
func bookingResp(b *repository.BookingRecord, items []repository.BookingItemRecord) echo.Map {
	return echo.Map{
		"id":                b.ID,
		"session_id":        b.SessionID,
		"guest_id":          b.GuestID,
		"quantity":          b.Quantity,
		"status":            b.Status,
		"total_price_cents": b.TotalPriceCents,
		"created_at":        b.CreatedAt,
		"updated_at":        b.UpdatedAt,
		"items":             itemMaps(items),
	}
}
