package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/resort-reservation/internal/model"
)

// RoomTypeCatalog is the room type part of service.Catalog.
type RoomTypeCatalog interface {
    CreateRoomType(ctx context.Context, rt *model.RoomType) error
    GetRoomType(ctx context.Context, id uint64) (*model.RoomType, error)
    ListRoomTypes(ctx context.Context) ([]model.RoomType, error)
    UpdateRoomType(ctx context.Context, rt *model.RoomType) error
    DeleteRoomType(ctx context.Context, id uint64) error
}

type RoomTypeHandler struct {
    Types RoomTypeCatalog
}

func NewRoomTypeHandler(types RoomTypeCatalog) *RoomTypeHandler {
    return &RoomTypeHandler{Types: types}
}

type roomTypeRequest struct {
    Name            string  `json:"name" validate:"required,min=3,max=30"`
    Description     *string `json:"description"`
    BasePriceCents  uint32  `json:"base_price_cents"`
    DefaultCapacity uint8   `json:"default_capacity" validate:"required,max=10"`
    DefaultBeds     uint8   `json:"default_beds" validate:"required,max=10"`
}

type roomTypeResponse struct {
    ID               uint64     `json:"id"`
    Name             string     `json:"name"`
    Description      *string    `json:"description,omitempty"`
    BasePriceCents   uint32     `json:"base_price_cents"`
    DefaultCapacity  uint8      `json:"default_capacity"`
    DefaultBeds      uint8      `json:"default_beds"`
    RegistrationDate time.Time  `json:"registration_date"`
    UpdateDate       *time.Time `json:"update_date,omitempty"`
}

func toRoomTypeResponse(rt model.RoomType) roomTypeResponse {
    return roomTypeResponse{
        ID:               rt.RoomTypeID,
        Name:             rt.Name,
        Description:      rt.Description,
        BasePriceCents:   rt.BasePriceCents,
        DefaultCapacity:  rt.DefaultCapacity,
        DefaultBeds:      rt.DefaultBeds,
        RegistrationDate: rt.RegistrationDate,
        UpdateDate:       rt.UpdateDate,
    }
}

func (r roomTypeRequest) model(id uint64) *model.RoomType {
    return &model.RoomType{
        RoomTypeID:      id,
        Name:            r.Name,
        Description:     optionalString(r.Description),
        BasePriceCents:  r.BasePriceCents,
        DefaultCapacity: r.DefaultCapacity,
        DefaultBeds:     r.DefaultBeds,
    }
}

func (h *RoomTypeHandler) Create(c echo.Context) error {
    var body roomTypeRequest
    if err := bindAndValidate(c, &body); err != nil {
        return writeError(c, err)
    }
    rt := body.model(0)
    if err := h.Types.CreateRoomType(c.Request().Context(), rt); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, toRoomTypeResponse(*rt))
}

func (h *RoomTypeHandler) Get(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return writeError(c, err)
    }
    rt, err := h.Types.GetRoomType(c.Request().Context(), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, toRoomTypeResponse(*rt))
}

func (h *RoomTypeHandler) List(c echo.Context) error {
    list, err := h.Types.ListRoomTypes(c.Request().Context())
    if err != nil {
        return writeError(c, err)
    }
    out := make([]roomTypeResponse, 0, len(list))
    for _, rt := range list {
        out = append(out, toRoomTypeResponse(rt))
    }
    return c.JSON(http.StatusOK, map[string]any{"room_types": out})
}

func (h *RoomTypeHandler) Update(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return writeError(c, err)
    }
    var body roomTypeRequest
    if err := bindAndValidate(c, &body); err != nil {
        return writeError(c, err)
    }
    rt := body.model(id)
    if err := h.Types.UpdateRoomType(c.Request().Context(), rt); err != nil {
        return writeError(c, err)
    }
    fresh, err := h.Types.GetRoomType(c.Request().Context(), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, toRoomTypeResponse(*fresh))
}

// Delete refuses with 409 while rooms still reference the type.
func (h *RoomTypeHandler) Delete(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return writeError(c, err)
    }
    if err := h.Types.DeleteRoomType(c.Request().Context(), id); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
