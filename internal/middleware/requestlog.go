package middleware

import (
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"
)

// RequestLogger assigns an X-Request-ID (keeping one supplied by the
// client) and logs one line per request with its outcome and latency.
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            req := c.Request()
            rid := req.Header.Get(echo.HeaderXRequestID)
            if rid == "" {
                rid = uuid.NewString()
            }
            c.Response().Header().Set(echo.HeaderXRequestID, rid)

            err := next(c)
            if err != nil {
                // Let echo write the error response so the status is final.
                c.Error(err)
            }

            fields := logrus.Fields{
                "request_id": rid,
                "method":     req.Method,
                "path":       req.URL.Path,
                "route":      c.Path(),
                "status":     c.Response().Status,
                "latency_ms": time.Since(start).Milliseconds(),
                "ip":         c.RealIP(),
                "actor":      Actor(c),
            }
            entry := log.WithFields(fields)
            switch s := c.Response().Status; {
            case s >= 500:
                entry.WithError(err).Error("request failed")
            case s >= 400:
                entry.Warn("request rejected")
            default:
                entry.Info("request handled")
            }
            return nil
        }
    }
}
