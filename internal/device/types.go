package device

import (
	"strings"
	"time"
)

// DeviceState is the lifecycle state of a device.
//
// The set of states is closed: AVAILABLE, IN_USE and INACTIVE. Any state may
// transition to any other state.
type DeviceState string //nolint:revive // device.DeviceState reads better than device.State next to Device

// Lifecycle states.
const (
	StateAvailable DeviceState = "AVAILABLE"
	StateInUse     DeviceState = "IN_USE"
	StateInactive  DeviceState = "INACTIVE"
)

// AllStates returns every valid device state.
func AllStates() []DeviceState {
	return []DeviceState{StateAvailable, StateInUse, StateInactive}
}

// ParseState converts a string to a DeviceState, ignoring letter case and
// surrounding whitespace. The boolean is false for unknown values.
//
// Example:
//
//	state, ok := device.ParseState("in_use") // StateInUse, true
//	_, ok = device.ParseState("broken")       // "", false
func ParseState(value string) (DeviceState, bool) {
	candidate := DeviceState(strings.ToUpper(strings.TrimSpace(value)))
	if candidate.IsValid() {
		return candidate, true
	}
	return "", false
}

// IsValid reports whether s is one of the known states.
func (s DeviceState) IsValid() bool {
	switch s {
	case StateAvailable, StateInUse, StateInactive:
		return true
	default:
		return false
	}
}

func (s DeviceState) String() string {
	return string(s)
}

// Device is a named, branded asset tracked by the inventory.
//
// Devices are treated as values: the With* methods return modified copies
// and never change the receiver.
type Device struct {
	// ID is assigned by the store on first save. Zero means not yet persisted.
	ID int64 `json:"id"`

	Name  string      `json:"name"`
	Brand string      `json:"brand"`
	State DeviceState `json:"state"`

	// CreatedAt is set once at creation (UTC) and never changes.
	CreatedAt time.Time `json:"createdAt"`
}

// NewDevice returns an unsaved device in the AVAILABLE state.
func NewDevice(name, brand string, createdAt time.Time) Device {
	return Device{
		Name:      name,
		Brand:     brand,
		State:     StateAvailable,
		CreatedAt: createdAt.UTC(),
	}
}

// WithName returns a copy of d with the name replaced.
func (d Device) WithName(name string) Device {
	d.Name = name
	return d
}

// WithBrand returns a copy of d with the brand replaced.
func (d Device) WithBrand(brand string) Device {
	d.Brand = brand
	return d
}

// WithState returns a copy of d with the state replaced.
func (d Device) WithState(state DeviceState) Device {
	d.State = state
	return d
}

// IsPersisted reports whether the store has assigned an ID.
func (d Device) IsPersisted() bool {
	return d.ID != 0
}

// IsInUse reports whether the device is currently IN_USE.
// Name and brand are frozen while this is true.
func (d Device) IsInUse() bool {
	return d.State == StateInUse
}

// IsDeletable reports whether the device may be removed.
// Only AVAILABLE devices can be deleted.
func (d Device) IsDeletable() bool {
	return d.State == StateAvailable
}

// Filter narrows a device listing. Zero-value fields are ignored.
//
// Brand and State are exclusive: when both are set, Brand is applied and
// State is ignored.
type Filter struct {
	Brand string
	State DeviceState
}

// Patch describes a partial update. Unset fields keep their stored values.
type Patch struct {
	Name  Optional[string]      `json:"name"`
	Brand Optional[string]      `json:"brand"`
	State Optional[DeviceState] `json:"state"`
}

// TouchesIdentity reports whether the patch changes name or brand.
func (p Patch) TouchesIdentity() bool {
	return p.Name.IsSet() || p.Brand.IsSet()
}
