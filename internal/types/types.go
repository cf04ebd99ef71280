// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// handlers, the service, storage, and utils can all import types without
// depending on each other.
package types

// Gender is the fixed set of categories a student can be registered with.
// It travels over the wire as its upper-case string value.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

// Valid reports whether g is one of the known categories.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale:
		return true
	default:
		return false
	}
}

// Student represents a student record in our system.
//
// Struct tags serve two purposes:
//
//  1. json:"..."  controls how the field appears when encoded to JSON
//     (lowercase names match REST API conventions).
//     ID is omitted on create payloads; the storage layer assigns it.
//
//  2. validate:"..." rules checked by the go-playground/validator
//     package. "required" means the field must be non-zero / non-empty,
//     "email" checks the address format and "oneof" pins the gender to
//     the enumeration above.
type Student struct {
	ID     int64  `json:"id,omitempty"`
	Name   string `json:"name"   validate:"required"`
	Email  string `json:"email"  validate:"required,email"`
	Gender Gender `json:"gender" validate:"required,oneof=MALE FEMALE"`
}
