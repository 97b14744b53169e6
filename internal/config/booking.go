package config

import "strings"

// BookingConfig controls booking behaviour that is a policy choice rather
// than a fixed rule.
type BookingConfig struct {
    // DeletePolicy is "unconditional" (default) or "recheck".
    DeletePolicy string
    // ReconcileCron is the cron schedule for releasing stale rooms.
    // Empty disables the job.
    ReconcileCron string
}

// LoadBookingConfig reads BOOKING_* variables.  Unknown delete policies
// fall back to "unconditional".
func LoadBookingConfig() BookingConfig {
    policy := strings.ToLower(strings.TrimSpace(envStr("BOOKING_DELETE_POLICY", "unconditional")))
    if policy != "unconditional" && policy != "recheck" {
        policy = "unconditional"
    }
    return BookingConfig{
        DeletePolicy:  policy,
        ReconcileCron: strings.TrimSpace(envStr("BOOKING_RECONCILE_CRON", "0 3 * * *")),
    }
}
