package router // package router defines how HTTP routes are registered for the API

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/resort-reservation/internal/config"
	"github.com/iliyamo/resort-reservation/internal/handler"
	"github.com/iliyamo/resort-reservation/internal/middleware"
)

// Handlers bundles the HTTP handlers mounted under /v1.
type Handlers struct {
	Reservations *handler.ReservationHandler
	Rooms        *handler.RoomHandler
	RoomTypes    *handler.RoomTypeHandler
	Services     *handler.HotelServiceHandler
	Guests       *handler.GuestHandler
}

// Options carries the cross-cutting configuration of the API group.
// Redis may be nil, in which case caching and rate limiting are off.
type Options struct {
	JWTSecret string
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Redis     *redis.Client
	Log       logrus.FieldLogger
}

// New builds the echo instance with the error handler and validator
// every route relies on.
func New(log logrus.FieldLogger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = errorHandler(log)
	return e
}

// errorHandler renders errors that reach echo as {"error": message}.
// Internal causes are logged, never returned to the client.
func errorHandler(log logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := "internal_error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if s, ok := he.Message.(string); ok {
				msg = s
			} else {
				msg = http.StatusText(code)
			}
			if he.Internal != nil && code >= 500 {
				log.WithError(he.Internal).WithField("path", c.Path()).Error("request failed")
			}
		} else {
			log.WithError(err).WithField("path", c.Path()).Error("unhandled error")
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, map[string]string{"error": msg})
	}
}

// RegisterRoutes mounts the health check and the /v1 API.  Catalog reads
// are cached; every successful write purges the cache since reservation
// changes move room statuses.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, h Handlers, opts Options) {
	e.GET("/healthz", handler.Health(db))

	v1 := e.Group("/v1",
		middleware.RequestLogger(opts.Log),
		middleware.Identity(opts.JWTSecret),
		middleware.NewTokenBucket(opts.RateLimit, opts.Redis, opts.Log),
		middleware.PurgeOnWrite(opts.Cache, opts.Redis, opts.Log),
	)
	cached := middleware.NewRedisCache(opts.Cache, opts.Redis)

	// ---- Rooms ----
	v1.GET("/rooms", h.Rooms.List, cached)
	v1.GET("/rooms/available", h.Rooms.Available)
	v1.GET("/rooms/:id", h.Rooms.Get, cached)
	v1.GET("/rooms/:id/conflicts", h.Rooms.Conflicts)
	v1.GET("/rooms/:id/audit", h.Rooms.Audit)
	v1.POST("/rooms", h.Rooms.Create)
	v1.PUT("/rooms/:id", h.Rooms.Update)
	v1.DELETE("/rooms/:id", h.Rooms.Delete)

	// ---- Room types ----
	v1.GET("/room-types", h.RoomTypes.List, cached)
	v1.GET("/room-types/:id", h.RoomTypes.Get, cached)
	v1.POST("/room-types", h.RoomTypes.Create)
	v1.PUT("/room-types/:id", h.RoomTypes.Update)
	v1.DELETE("/room-types/:id", h.RoomTypes.Delete)

	// ---- Services ----
	v1.GET("/services", h.Services.List, cached)
	v1.GET("/services/:id", h.Services.Get, cached)
	v1.POST("/services", h.Services.Create)
	v1.DELETE("/services/:id", h.Services.Delete)

	// ---- Guests ----
	v1.GET("/guests", h.Guests.List)
	v1.GET("/guests/:id", h.Guests.Get)
	v1.POST("/guests", h.Guests.Create)
	v1.PATCH("/guests/:id/status", h.Guests.SetStatus)

	// ---- Reservations ----
	v1.GET("/reservations", h.Reservations.List)
	v1.GET("/reservations/:id", h.Reservations.Get)
	v1.POST("/reservations", h.Reservations.Create)
	v1.PUT("/reservations/:id", h.Reservations.Update)
	v1.DELETE("/reservations/:id", h.Reservations.Delete)
	v1.POST("/reservations/:id/rooms", h.Reservations.AddRoom)
	v1.DELETE("/reservations/:id/rooms/:room_id", h.Reservations.RemoveRoom)
}
