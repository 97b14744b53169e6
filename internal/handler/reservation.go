package handler

import (
    "context"
    "fmt"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/resort-reservation/internal/middleware"
    "github.com/iliyamo/resort-reservation/internal/model"
    "github.com/iliyamo/resort-reservation/internal/repository"
    "github.com/iliyamo/resort-reservation/internal/service"
    "github.com/iliyamo/resort-reservation/internal/utils"
)

// BookingAPI is the part of service.BookingService used over HTTP.
type BookingAPI interface {
    CreateReservation(ctx context.Context, in service.CreateReservationInput) (*model.Reservation, error)
    EditReservation(ctx context.Context, in service.EditReservationInput) (*model.Reservation, error)
    DeleteReservation(ctx context.Context, id uint64, actor string) error
    AddRoom(ctx context.Context, link model.ReservationRoom, actor string) (*model.Reservation, error)
    RemoveRoom(ctx context.Context, link model.ReservationRoom, actor string) (*model.Reservation, error)
    FindConflict(ctx context.Context, roomID uint64, checkIn, checkOut time.Time, excludeID *uint64) (bool, error)
    ListAvailableRooms(ctx context.Context, checkIn, checkOut time.Time) ([]model.Room, error)
}

// ReservationReader serves the read-only reservation listings.
type ReservationReader interface {
    GetReservation(ctx context.Context, id uint64) (*repository.ReservationDetail, error)
    ListReservations(ctx context.Context) ([]repository.ReservationDetail, error)
}

// ReservationHandler exposes the booking lifecycle under /v1/reservations.
type ReservationHandler struct {
    Booking BookingAPI
    Reads   ReservationReader
}

// NewReservationHandler panics if a dependency is nil.
func NewReservationHandler(booking BookingAPI, reads ReservationReader) *ReservationHandler {
    if booking == nil || reads == nil {
        panic("nil dependency passed to NewReservationHandler")
    }
    return &ReservationHandler{Booking: booking, Reads: reads}
}

type createReservationRequest struct {
    Code     string `json:"code" validate:"required,min=3,max=10"`
    CheckIn  string `json:"check_in" validate:"required,yyyymmdd"`
    CheckOut string `json:"check_out" validate:"required,yyyymmdd"`
    ClientID uint64 `json:"client_id" validate:"required"`
    RoomID   uint64 `json:"room_id" validate:"required"`
}

type editReservationRequest struct {
    Code     string  `json:"code" validate:"required,min=3,max=10"`
    CheckIn  string  `json:"check_in" validate:"required,yyyymmdd"`
    CheckOut string  `json:"check_out" validate:"required,yyyymmdd"`
    Status   string  `json:"status" validate:"required"`
    ClientID uint64  `json:"client_id" validate:"required"`
    Version  *uint32 `json:"version"`
}

type reservationRoomRequest struct {
    RoomID uint64 `json:"room_id" validate:"required"`
}

type reservationResponse struct {
    ID               uint64     `json:"id"`
    Code             string     `json:"code"`
    CheckInDate      string     `json:"check_in_date"`
    CheckOutDate     string     `json:"check_out_date"`
    Nights           int        `json:"nights"`
    Status           string     `json:"status"`
    ClientID         uint64     `json:"client_id"`
    RoomIDs          []uint64   `json:"room_ids"`
    RegistrationDate time.Time  `json:"registration_date"`
    UpdateDate       *time.Time `json:"update_date,omitempty"`
    Version          uint32     `json:"version"`
}

func toReservationResponse(r *model.Reservation) reservationResponse {
    return reservationResponse{
        ID:               r.ID,
        Code:             r.Code,
        CheckInDate:      utils.FormatDate(r.CheckInDate),
        CheckOutDate:     utils.FormatDate(r.CheckOutDate),
        Nights:           r.Range().Nights(),
        Status:           string(r.Status),
        ClientID:         r.ClientID,
        RoomIDs:          r.RoomIDs,
        RegistrationDate: r.RegistrationDate,
        UpdateDate:       r.UpdateDate,
        Version:          r.Version,
    }
}

func stayDates(checkIn, checkOut string) (time.Time, time.Time, error) {
    in, err := parseDateField("check_in", checkIn)
    if err != nil {
        return time.Time{}, time.Time{}, err
    }
    out, err := parseDateField("check_out", checkOut)
    if err != nil {
        return time.Time{}, time.Time{}, err
    }
    return in, out, nil
}

// Create handles POST /v1/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
    var body createReservationRequest
    if err := bindAndValidate(c, &body); err != nil {
        return writeError(c, err)
    }
    in, out, err := stayDates(body.CheckIn, body.CheckOut)
    if err != nil {
        return writeError(c, err)
    }
    res, err := h.Booking.CreateReservation(c.Request().Context(), service.CreateReservationInput{
        Code:     body.Code,
        CheckIn:  in,
        CheckOut: out,
        ClientID: body.ClientID,
        RoomID:   body.RoomID,
        Actor:    middleware.Actor(c),
    })
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, toReservationResponse(res))
}

// Update handles PUT /v1/reservations/:id.
func (h *ReservationHandler) Update(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return writeError(c, err)
    }
    var body editReservationRequest
    if err := bindAndValidate(c, &body); err != nil {
        return writeError(c, err)
    }
    status, err := model.ParseReservationStatus(body.Status)
    if err != nil {
        return writeError(c, fmt.Errorf("%w: %v", service.ErrValidation, err))
    }
    in, out, err := stayDates(body.CheckIn, body.CheckOut)
    if err != nil {
        return writeError(c, err)
    }
    res, err := h.Booking.EditReservation(c.Request().Context(), service.EditReservationInput{
        ID:       id,
        Code:     body.Code,
        CheckIn:  in,
        CheckOut: out,
        Status:   status,
        ClientID: body.ClientID,
        Version:  body.Version,
        Actor:    middleware.Actor(c),
    })
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, toReservationResponse(res))
}

// Delete handles DELETE /v1/reservations/:id.
func (h *ReservationHandler) Delete(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return writeError(c, err)
    }
    if err := h.Booking.DeleteReservation(c.Request().Context(), id, middleware.Actor(c)); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// AddRoom handles POST /v1/reservations/:id/rooms.
func (h *ReservationHandler) AddRoom(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return writeError(c, err)
    }
    var body reservationRoomRequest
    if err := bindAndValidate(c, &body); err != nil {
        return writeError(c, err)
    }
    link := model.ReservationRoom{ReservationID: id, RoomID: body.RoomID}
    res, err := h.Booking.AddRoom(c.Request().Context(), link, middleware.Actor(c))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, toReservationResponse(res))
}

// RemoveRoom handles DELETE /v1/reservations/:id/rooms/:room_id.
func (h *ReservationHandler) RemoveRoom(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return writeError(c, err)
    }
    roomID, err := parseID(c, "room_id")
    if err != nil {
        return writeError(c, err)
    }
    link := model.ReservationRoom{ReservationID: id, RoomID: roomID}
    res, err := h.Booking.RemoveRoom(c.Request().Context(), link, middleware.Actor(c))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, toReservationResponse(res))
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return writeError(c, err)
    }
    d, err := h.Reads.GetReservation(c.Request().Context(), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, d)
}

// List handles GET /v1/reservations.
func (h *ReservationHandler) List(c echo.Context) error {
    list, err := h.Reads.ListReservations(c.Request().Context())
    if err != nil {
        return writeError(c, err)
    }
    if list == nil {
        list = []repository.ReservationDetail{}
    }
    return c.JSON(http.StatusOK, map[string]any{"reservations": list})
}
