package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/resort-reservation/internal/model"
)

// GuestCatalog manages guest accounts.  Guests are the clients that
// reservations belong to.
type GuestCatalog interface {
    CreateGuest(ctx context.Context, u *model.User, password string) error
    GetGuest(ctx context.Context, id uint64) (*model.User, error)
    ListGuests(ctx context.Context) ([]model.User, error)
    SetGuestStatus(ctx context.Context, id uint64, status model.UserStatus) error
}

type GuestHandler struct {
    Guests GuestCatalog
}

func NewGuestHandler(guests GuestCatalog) *GuestHandler {
    return &GuestHandler{Guests: guests}
}

type guestRequest struct {
    Name           string  `json:"name" validate:"required,max=50"`
    LastName       string  `json:"last_name" validate:"required,max=50"`
    SecondLastName *string `json:"second_last_name" validate:"omitempty,max=50"`
    Email          string  `json:"email" validate:"required,email"`
    Password       string  `json:"password" validate:"required,min=8"`
}

type guestStatusRequest struct {
    Status string `json:"status" validate:"required,oneof=ACTIVE DISABLED"`
}

// guestResponse never carries the password hash.
type guestResponse struct {
    ID               uint64    `json:"id"`
    Name             string    `json:"name"`
    LastName         string    `json:"last_name"`
    SecondLastName   *string   `json:"second_last_name,omitempty"`
    Email            string    `json:"email"`
    Status           string    `json:"status"`
    RegistrationDate time.Time `json:"registration_date"`
}

func toGuestResponse(u model.User) guestResponse {
    return guestResponse{
        ID:               u.ID,
        Name:             u.Name,
        LastName:         u.LastName,
        SecondLastName:   u.SecondLastName,
        Email:            u.Email,
        Status:           string(u.Status),
        RegistrationDate: u.RegistrationDate,
    }
}

func (h *GuestHandler) Create(c echo.Context) error {
    var body guestRequest
    if err := bindAndValidate(c, &body); err != nil {
        return writeError(c, err)
    }
    u := &model.User{
        Name:           strings.TrimSpace(body.Name),
        LastName:       strings.TrimSpace(body.LastName),
        SecondLastName: optionalString(body.SecondLastName),
        Email:          strings.ToLower(strings.TrimSpace(body.Email)),
        Status:         model.UserActive,
    }
    if err := h.Guests.CreateGuest(c.Request().Context(), u, body.Password); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, toGuestResponse(*u))
}

func (h *GuestHandler) Get(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return writeError(c, err)
    }
    u, err := h.Guests.GetGuest(c.Request().Context(), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, toGuestResponse(*u))
}

func (h *GuestHandler) List(c echo.Context) error {
    list, err := h.Guests.ListGuests(c.Request().Context())
    if err != nil {
        return writeError(c, err)
    }
    out := make([]guestResponse, 0, len(list))
    for _, u := range list {
        out = append(out, toGuestResponse(u))
    }
    return c.JSON(http.StatusOK, map[string]any{"guests": out})
}

// SetStatus handles PATCH /v1/guests/:id/status.
func (h *GuestHandler) SetStatus(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return writeError(c, err)
    }
    var body guestStatusRequest
    if err := bindAndValidate(c, &body); err != nil {
        return writeError(c, err)
    }
    if err := h.Guests.SetGuestStatus(c.Request().Context(), id, model.UserStatus(body.Status)); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
