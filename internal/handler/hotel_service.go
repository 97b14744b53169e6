package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/resort-reservation/internal/model"
)

// ServiceCatalog manages the resort amenities.
type ServiceCatalog interface {
    CreateService(ctx context.Context, sv *model.Service) error
    GetService(ctx context.Context, id uint64) (*model.Service, error)
    ListServices(ctx context.Context) ([]model.Service, error)
    DeleteService(ctx context.Context, id uint64) error
}

type HotelServiceHandler struct {
    Services ServiceCatalog
}

func NewHotelServiceHandler(services ServiceCatalog) *HotelServiceHandler {
    return &HotelServiceHandler{Services: services}
}

type serviceRequest struct {
    Name          string  `json:"name" validate:"required,min=3,max=50"`
    Description   *string `json:"description" validate:"omitempty,max=150"`
    OpeningTime   string  `json:"opening_time" validate:"required,hhmm"`
    ClosingTime   string  `json:"closing_time" validate:"required,hhmm"`
    BaseCostCents uint32  `json:"base_cost_cents"`
}

type serviceResponse struct {
    ID               uint64    `json:"id"`
    Name             string    `json:"name"`
    Description      *string   `json:"description,omitempty"`
    OpeningTime      string    `json:"opening_time"`
    ClosingTime      string    `json:"closing_time"`
    BaseCostCents    uint32    `json:"base_cost_cents"`
    RegistrationDate time.Time `json:"registration_date"`
}

func toServiceResponse(sv model.Service) serviceResponse {
    return serviceResponse{
        ID:               sv.ServiceID,
        Name:             sv.Name,
        Description:      sv.Description,
        OpeningTime:      sv.OpeningTime,
        ClosingTime:      sv.ClosingTime,
        BaseCostCents:    sv.BaseCostCents,
        RegistrationDate: sv.RegistrationDate,
    }
}

func (h *HotelServiceHandler) Create(c echo.Context) error {
    var body serviceRequest
    if err := bindAndValidate(c, &body); err != nil {
        return writeError(c, err)
    }
    sv := &model.Service{
        Name:          body.Name,
        Description:   optionalString(body.Description),
        OpeningTime:   body.OpeningTime,
        ClosingTime:   body.ClosingTime,
        BaseCostCents: body.BaseCostCents,
    }
    if err := h.Services.CreateService(c.Request().Context(), sv); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, toServiceResponse(*sv))
}

func (h *HotelServiceHandler) Get(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return writeError(c, err)
    }
    sv, err := h.Services.GetService(c.Request().Context(), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, toServiceResponse(*sv))
}

func (h *HotelServiceHandler) List(c echo.Context) error {
    list, err := h.Services.ListServices(c.Request().Context())
    if err != nil {
        return writeError(c, err)
    }
    out := make([]serviceResponse, 0, len(list))
    for _, sv := range list {
        out = append(out, toServiceResponse(sv))
    }
    return c.JSON(http.StatusOK, map[string]any{"services": out})
}

func (h *HotelServiceHandler) Delete(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return writeError(c, err)
    }
    if err := h.Services.DeleteService(c.Request().Context(), id); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
