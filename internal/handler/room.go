package handler

import (
    "context"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/resort-reservation/internal/middleware"
    "github.com/iliyamo/resort-reservation/internal/model"
    "github.com/iliyamo/resort-reservation/internal/service"
    "github.com/iliyamo/resort-reservation/internal/utils"
)

// RoomCatalog is the room part of service.Catalog.
type RoomCatalog interface {
    CreateRoom(ctx context.Context, in service.RoomInput, ac service.AuditContext) (*model.Room, error)
    GetRoom(ctx context.Context, id uint64) (*model.Room, error)
    ListRooms(ctx context.Context) ([]model.Room, error)
    UpdateRoom(ctx context.Context, id uint64, in service.RoomInput, ac service.AuditContext) (*model.Room, error)
    DeleteRoom(ctx context.Context, id uint64, ac service.AuditContext) error
    RoomAudit(ctx context.Context, id uint64) ([]model.RoomAuditLog, error)
}

// RoomHandler serves /v1/rooms: the catalog plus the availability
// queries answered by the booking service.
type RoomHandler struct {
    Rooms   RoomCatalog
    Booking BookingAPI
}

func NewRoomHandler(rooms RoomCatalog, booking BookingAPI) *RoomHandler {
    if rooms == nil || booking == nil {
        panic("nil dependency passed to NewRoomHandler")
    }
    return &RoomHandler{Rooms: rooms, Booking: booking}
}

type roomRequest struct {
    RoomNumber         string  `json:"room_number" validate:"required,max=10"`
    RoomTypeID         *uint64 `json:"room_type_id"`
    RoomType           string  `json:"room_type" validate:"max=30"`
    Description        *string `json:"description"`
    Capacity           uint8   `json:"capacity" validate:"required,max=10"`
    Beds               uint8   `json:"beds" validate:"max=10"`
    PricePerNightCents uint32  `json:"price_per_night_cents"`
    IsAvailable        *bool   `json:"is_available"`
}

func (r roomRequest) input() service.RoomInput {
    avail := true
    if r.IsAvailable != nil {
        avail = *r.IsAvailable
    }
    return service.RoomInput{
        RoomNumber:         r.RoomNumber,
        RoomTypeID:         r.RoomTypeID,
        RoomType:           r.RoomType,
        Description:        optionalString(r.Description),
        Capacity:           r.Capacity,
        Beds:               r.Beds,
        PricePerNightCents: r.PricePerNightCents,
        IsAvailable:        avail,
    }
}

type roomResponse struct {
    ID                 uint64     `json:"id"`
    RoomNumber         string     `json:"room_number"`
    RoomTypeID         *uint64    `json:"room_type_id,omitempty"`
    RoomType           string     `json:"room_type"`
    Description        *string    `json:"description,omitempty"`
    Capacity           uint8      `json:"capacity"`
    Beds               uint8      `json:"beds"`
    PricePerNightCents uint32     `json:"price_per_night_cents"`
    IsAvailable        bool       `json:"is_available"`
    Status             string     `json:"status"`
    CreatedBy          string     `json:"created_by"`
    ModifiedBy         *string    `json:"modified_by,omitempty"`
    CreatedAt          time.Time  `json:"created_at"`
    UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}

func toRoomResponse(r model.Room) roomResponse {
    return roomResponse{
        ID:                 r.RoomID,
        RoomNumber:         r.RoomNumber,
        RoomTypeID:         r.RoomTypeID,
        RoomType:           r.RoomType,
        Description:        r.Description,
        Capacity:           r.Capacity,
        Beds:               r.Beds,
        PricePerNightCents: r.PricePerNightCents,
        IsAvailable:        r.IsAvailable,
        Status:             string(r.Status),
        CreatedBy:          r.CreatedBy,
        ModifiedBy:         r.ModifiedBy,
        CreatedAt:          r.CreatedAt,
        UpdatedAt:          r.UpdatedAt,
    }
}

func toRoomResponses(rooms []model.Room) []roomResponse {
    out := make([]roomResponse, 0, len(rooms))
    for _, r := range rooms {
        out = append(out, toRoomResponse(r))
    }
    return out
}

type auditEntry struct {
    ID                uint64    `json:"id"`
    ModifiedBy        string    `json:"modified_by"`
    ModifiedDate      time.Time `json:"modified_date"`
    Operation         string    `json:"operation"`
    FieldName         *string   `json:"field_name,omitempty"`
    OldValue          *string   `json:"old_value,omitempty"`
    NewValue          *string   `json:"new_value,omitempty"`
    ChangeDescription *string   `json:"change_description,omitempty"`
    IPAddress         *string   `json:"ip_address,omitempty"`
}

func auditContext(c echo.Context) service.AuditContext {
    return service.AuditContext{Actor: middleware.Actor(c), IP: c.RealIP()}
}

// Create handles POST /v1/rooms.
func (h *RoomHandler) Create(c echo.Context) error {
    var body roomRequest
    if err := bindAndValidate(c, &body); err != nil {
        return writeError(c, err)
    }
    room, err := h.Rooms.CreateRoom(c.Request().Context(), body.input(), auditContext(c))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, toRoomResponse(*room))
}

// Get handles GET /v1/rooms/:id.
func (h *RoomHandler) Get(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return writeError(c, err)
    }
    room, err := h.Rooms.GetRoom(c.Request().Context(), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, toRoomResponse(*room))
}

// List handles GET /v1/rooms.
func (h *RoomHandler) List(c echo.Context) error {
    rooms, err := h.Rooms.ListRooms(c.Request().Context())
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, map[string]any{"rooms": toRoomResponses(rooms)})
}

// Update handles PUT /v1/rooms/:id.  Status is not accepted here.
func (h *RoomHandler) Update(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return writeError(c, err)
    }
    var body roomRequest
    if err := bindAndValidate(c, &body); err != nil {
        return writeError(c, err)
    }
    room, err := h.Rooms.UpdateRoom(c.Request().Context(), id, body.input(), auditContext(c))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, toRoomResponse(*room))
}

// Delete handles DELETE /v1/rooms/:id.
func (h *RoomHandler) Delete(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return writeError(c, err)
    }
    if err := h.Rooms.DeleteRoom(c.Request().Context(), id, auditContext(c)); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Audit handles GET /v1/rooms/:id/audit.
func (h *RoomHandler) Audit(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return writeError(c, err)
    }
    logs, err := h.Rooms.RoomAudit(c.Request().Context(), id)
    if err != nil {
        return writeError(c, err)
    }
    entries := make([]auditEntry, 0, len(logs))
    for _, l := range logs {
        entries = append(entries, auditEntry{
            ID:                l.AuditLogID,
            ModifiedBy:        l.ModifiedBy,
            ModifiedDate:      l.ModifiedDate,
            Operation:         l.Operation,
            FieldName:         l.FieldName,
            OldValue:          l.OldValue,
            NewValue:          l.NewValue,
            ChangeDescription: l.ChangeDescription,
            IPAddress:         l.IPAddress,
        })
    }
    return c.JSON(http.StatusOK, map[string]any{"room_id": id, "entries": entries})
}

// Available handles GET /v1/rooms/available?check_in=&check_out=.
func (h *RoomHandler) Available(c echo.Context) error {
    in, err := parseDateParam(c, "check_in")
    if err != nil {
        return writeError(c, err)
    }
    out, err := parseDateParam(c, "check_out")
    if err != nil {
        return writeError(c, err)
    }
    rooms, err := h.Booking.ListAvailableRooms(c.Request().Context(), in, out)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, map[string]any{
        "check_in":  utils.FormatDate(in),
        "check_out": utils.FormatDate(out),
        "rooms":     toRoomResponses(rooms),
    })
}

// Conflicts handles GET /v1/rooms/:id/conflicts?check_in=&check_out=&exclude=.
func (h *RoomHandler) Conflicts(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return writeError(c, err)
    }
    in, err := parseDateParam(c, "check_in")
    if err != nil {
        return writeError(c, err)
    }
    out, err := parseDateParam(c, "check_out")
    if err != nil {
        return writeError(c, err)
    }
    var exclude *uint64
    if raw := c.QueryParam("exclude"); raw != "" {
        v, err := strconv.ParseUint(raw, 10, 64)
        if err != nil {
            return c.JSON(http.StatusBadRequest, map[string]string{"error": "validation_failed", "message": "invalid exclude"})
        }
        exclude = &v
    }
    conflict, err := h.Booking.FindConflict(c.Request().Context(), id, in, out, exclude)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, map[string]any{"room_id": id, "conflict": conflict})
}
