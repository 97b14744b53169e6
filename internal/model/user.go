package model

import "time"

// UserStatus is the account state of a guest.
type UserStatus string

const (
    UserActive   UserStatus = "ACTIVE"
    UserDisabled UserStatus = "DISABLED"
)

// User represents a guest record as stored in the `users` table.  The
// json tags are omitted because these structs are used internally by
// the repository layer; handlers define their own response types.
//
// Fields:
//  ID               – primary key identifier of the guest.
//  Name             – given name.
//  LastName         – first surname.
//  SecondLastName   – optional second surname.
//  Email            – unique email address (stored lower case).
//  PasswordHash     – bcrypt hashed password.
//  Status           – ACTIVE or DISABLED.
//  RegistrationDate – timestamp of creation.
type User struct {
    ID               uint64     // users.id
    Name             string     // users.name
    LastName         string     // users.last_name
    SecondLastName   *string    // users.second_last_name (nullable)
    Email            string     // users.email
    PasswordHash     string     // users.password_hash
    Status           UserStatus // users.status
    RegistrationDate time.Time  // users.registration_date
}
