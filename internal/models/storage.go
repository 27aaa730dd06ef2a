package models

// Scope is the lifetime class of a persisted key.
type Scope string

const (
	// ScopeSession keys are private to one execution context and vanish with it.
	ScopeSession Scope = "session"
	// ScopeDevice keys are durable and shared by every context on the device.
	ScopeDevice Scope = "device"
)

// Valid reports whether the scope is known.
func (s Scope) Valid() bool {
	return s == ScopeSession || s == ScopeDevice
}

// Persisted keys.
const (
	KeyClassrooms    = "classrooms"
	KeyJoinedClasses = "joinedClasses"
)

// StorageChange announces that Origin wrote Key in Scope.
type StorageChange struct {
	Origin string `json:"origin"`
	Scope  Scope  `json:"scope"`
	Key    string `json:"key"`
}
