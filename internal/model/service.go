package model

import "time"

// Service is an amenity offered by the resort (spa, restaurant, tours).
// OpeningTime and ClosingTime are wall-clock times formatted as HH:MM.
type Service struct {
    ServiceID        uint64    // services.id
    Name             string    // services.name
    Description      *string   // services.description (nullable)
    OpeningTime      string    // services.opening_time
    ClosingTime      string    // services.closing_time
    BaseCostCents    uint32    // services.base_cost_cents
    RegistrationDate time.Time // services.registration_date
}
