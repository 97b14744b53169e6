package middleware

// identity.go resolves who is acting on a request so that audit rows and
// events can name them.  It makes no authorization decisions: requests
// without a valid token proceed as the "system" actor.

import (
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/resort-reservation/internal/utils"
)

const (
    actorKey     = "actor"
    defaultActor = "system"
)

// Identity parses an optional "Authorization: Bearer" token signed with
// secret and stores its subject as the actor.  With an empty secret every
// request acts as "system".
func Identity(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            actor := defaultActor
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            if secret != "" && strings.HasPrefix(auth, "Bearer ") {
                if sub, err := utils.ParseSubject(secret, strings.TrimPrefix(auth, "Bearer ")); err == nil {
                    actor = sub
                } else {
                    c.Logger().Debugf("identity: ignoring bearer token: %v", err)
                }
            }
            c.Set(actorKey, actor)
            return next(c)
        }
    }
}

// Actor returns the actor resolved by Identity, or "system".
func Actor(c echo.Context) string {
    if s, ok := c.Get(actorKey).(string); ok && s != "" {
        return s
    }
    return defaultActor
}
