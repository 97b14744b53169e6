package model

import "time"

// RoomType groups rooms sharing a base price and default layout.
//
// Fields:
//  RoomTypeID       – primary key identifier.
//  Name             – unique display name (letters and spaces only).
//  Description      – optional description.
//  BasePriceCents   – reference nightly price in cents.
//  DefaultCapacity  – default guest capacity for new rooms.
//  DefaultBeds      – default number of beds for new rooms.
//  RegistrationDate – creation timestamp.
//  UpdateDate       – last update timestamp (nil until first edit).
type RoomType struct {
    RoomTypeID       uint64     // room_types.id
    Name             string     // room_types.name
    Description      *string    // room_types.description (nullable)
    BasePriceCents   uint32     // room_types.base_price_cents
    DefaultCapacity  uint8      // room_types.default_capacity
    DefaultBeds      uint8      // room_types.default_beds
    RegistrationDate time.Time  // room_types.registration_date
    UpdateDate       *time.Time // room_types.update_date (nullable)
}
