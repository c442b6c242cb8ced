package activity

import (
	"fmt"

	"github.com/EchoPBX/activity-gateway/internal/events"
)

// Payload is the data carried by an event. The set of payloads is closed:
// Login, Logout, Purchase and ProfileChange, passed by value. Pointers to
// them satisfy the interface too, so Emit and Aggregator.Record reject them.
type Payload interface {
	Kind() Kind
	payload()
}

type Login struct {
	Username string `json:"username"`
}

type Logout struct {
	Username string `json:"username"`
}

type Purchase struct {
	Username string `json:"username"`
	Item     string `json:"item"`
}

type ProfileChange struct {
	Username string `json:"username"`
	Field    string `json:"field"`
}

func (Login) Kind() Kind         { return UserLogin }
func (Logout) Kind() Kind        { return UserLogout }
func (Purchase) Kind() Kind      { return UserPurchase }
func (ProfileChange) Kind() Kind { return ProfileUpdate }

func (Login) payload()         {}
func (Logout) payload()        {}
func (Purchase) payload()      {}
func (ProfileChange) payload() {}

// Bus is the event bus specialised for user actions.
type Bus = events.Bus[Kind, Payload]

func NewBus() *Bus { return events.NewBus[Kind, Payload]() }

// Emit publishes p under its own kind.
func Emit(bus *Bus, p Payload) error {
	if err := checkPayload(p); err != nil {
		return err
	}
	return bus.Publish(p.Kind(), p)
}

func checkPayload(p Payload) error {
	switch p.(type) {
	case Login, Logout, Purchase, ProfileChange:
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnknownPayload, p)
	}
}
