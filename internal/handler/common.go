package handler // handler defines http handlers

import (
    "errors"
    "fmt"
    "net/http"
    "reflect"
    "strconv"
    "strings"
    "time"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/resort-reservation/internal/service"
    "github.com/iliyamo/resort-reservation/internal/utils"
)

// Validator adapts go-playground/validator to echo.Validator.  Failures
// are reported with JSON field names and wrap service.ErrValidation so
// they map to 400 like every other validation error.
type Validator struct {
    v *validator.Validate
}

// NewValidator registers the custom tags used by the request types.
func NewValidator() *Validator {
    v := validator.New(validator.WithRequiredStructEnabled())
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
        if name == "-" {
            return ""
        }
        return name
    })
    // yyyymmdd: a stay date in YYYY-MM-DD form.
    _ = v.RegisterValidation("yyyymmdd", func(fl validator.FieldLevel) bool {
        _, err := time.Parse(utils.DateLayout, fl.Field().String())
        return err == nil
    })
    // hhmm: a wall clock time in HH:MM form.
    _ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
        _, err := time.Parse("15:04", fl.Field().String())
        return err == nil
    })
    return &Validator{v: v}
}

// Validate implements echo.Validator.
func (cv *Validator) Validate(i interface{}) error {
    err := cv.v.Struct(i)
    if err == nil {
        return nil
    }
    var verrs validator.ValidationErrors
    if !errors.As(err, &verrs) {
        return fmt.Errorf("%w: %v", service.ErrValidation, err)
    }
    msgs := make([]string, 0, len(verrs))
    for _, fe := range verrs {
        msgs = append(msgs, describeFieldError(fe))
    }
    return fmt.Errorf("%w: %s", service.ErrValidation, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
    switch fe.Tag() {
    case "required":
        return fe.Field() + " is required"
    case "min", "max", "len":
        return fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
    case "oneof":
        return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
    case "yyyymmdd":
        return fe.Field() + " must be a date in YYYY-MM-DD form"
    case "hhmm":
        return fe.Field() + " must be a time in HH:MM form"
    }
    return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
}

// bindAndValidate decodes the request body into dst and runs the
// registered validator on it.
func bindAndValidate(c echo.Context, dst interface{}) error {
    if err := c.Bind(dst); err != nil {
        return fmt.Errorf("%w: invalid request body", service.ErrValidation)
    }
    return c.Validate(dst)
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, fmt.Errorf("%w: invalid %s", service.ErrValidation, name)
    }
    return id, nil
}

// parseDateParam reads a required YYYY-MM-DD query parameter.
func parseDateParam(c echo.Context, name string) (time.Time, error) {
    raw := c.QueryParam(name)
    if raw == "" {
        return time.Time{}, fmt.Errorf("%w: %s is required", service.ErrValidation, name)
    }
    return parseDateField(name, raw)
}

// parseDateField parses a YYYY-MM-DD value, reporting failures as
// validation errors.
func parseDateField(name, raw string) (time.Time, error) {
    t, err := utils.ParseDate(raw)
    if err != nil {
        return time.Time{}, fmt.Errorf("%w: %s: %v", service.ErrValidation, name, err)
    }
    return t, nil
}

// writeError maps service errors onto HTTP responses.  Unexpected errors
// are handed back to echo as a 500 carrying the cause, so the request
// logger records it without leaking it to the client.
func writeError(c echo.Context, err error) error {
    var ce *service.ConflictError
    switch {
    case errors.Is(err, service.ErrValidation):
        return c.JSON(http.StatusBadRequest, map[string]string{"error": "validation_failed", "message": err.Error()})
    case errors.Is(err, service.ErrNotFound):
        return c.JSON(http.StatusNotFound, map[string]string{"error": "not_found", "message": err.Error()})
    case errors.As(err, &ce):
        return c.JSON(http.StatusConflict, map[string]any{
            "error":       "booking_conflict",
            "message":     ce.Error(),
            "room_id":     ce.RoomID,
            "room_number": ce.RoomNumber,
        })
    case errors.Is(err, service.ErrConcurrency):
        return c.JSON(http.StatusConflict, map[string]string{"error": "concurrent_modification", "message": err.Error()})
    case errors.Is(err, service.ErrConflict):
        return c.JSON(http.StatusConflict, map[string]string{"error": "conflict", "message": err.Error()})
    }
    return echo.NewHTTPError(http.StatusInternalServerError, "internal_error").SetInternal(err)
}

func optionalString(s *string) *string {
    if s == nil {
        return nil
    }
    v := strings.TrimSpace(*s)
    if v == "" {
        return nil
    }
    return &v
}
