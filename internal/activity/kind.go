package activity

import "fmt"

// Kind is one of the user actions tracked by the aggregator.
type Kind uint8

const (
	UserLogin Kind = iota
	UserLogout
	UserPurchase
	ProfileUpdate

	kindCount = int(ProfileUpdate) + 1
)

var kindNames = [kindCount]string{
	UserLogin:     "user-login",
	UserLogout:    "user-logout",
	UserPurchase:  "user-purchase",
	ProfileUpdate: "profile-update",
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	return []Kind{UserLogin, UserLogout, UserPurchase, ProfileUpdate}
}

func (k Kind) Valid() bool { return int(k) < kindCount }

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return kindNames[k]
}

func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown event kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("unknown event kind %d", uint8(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
