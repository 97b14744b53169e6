package utils // package utils provides small helpers shared by handlers and middleware

import (
    "errors"
    "fmt"

    "github.com/golang-jwt/jwt/v5"
)

// ErrNoSubject is returned when a valid token carries no usable sub claim.
var ErrNoSubject = errors.New("token has no subject")

// ParseSubject verifies an HS256 token signed with secret and returns its
// subject claim.  Numeric subjects are rendered in decimal.
func ParseSubject(secret, raw string) (string, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
        }
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
    if err != nil {
        return "", err
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return "", ErrNoSubject
    }
    switch v := claims["sub"].(type) {
    case string:
        if v != "" {
            return v, nil
        }
    case float64:
        return fmt.Sprintf("%.0f", v), nil
    }
    return "", ErrNoSubject
}
