package housing

import (
	"openshard.dev/internal/world"
)

// SecureLevel is the access grade required to open a secure container.
type SecureLevel int

const (
	SecureOwner SecureLevel = iota
	SecureCoOwners
	SecureFriends
	SecureAnyone
	SecureGuild
)

func ParseSecureLevel(s string) (SecureLevel, bool) {
	switch s {
	case "owner", "":
		return SecureOwner, true
	case "coowners":
		return SecureCoOwners, true
	case "friends":
		return SecureFriends, true
	case "anyone":
		return SecureAnyone, true
	case "guild":
		return SecureGuild, true
	}
	return SecureOwner, false
}

// SecureInfo pairs a secured container with its access level. The
// container's Secure flag mirrors list membership.
type SecureInfo struct {
	Item  *world.Item
	Level SecureLevel
}

// RelocatedEntity remembers an entity displaced by resizing or
// customization, with its offset from the house origin so a later restore
// can put it back.
type RelocatedEntity struct {
	Item   *world.Item
	Mobile *world.Mobile
	Offset world.Point3D
}
