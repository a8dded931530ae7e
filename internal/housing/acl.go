package housing

import (
	"openshard.dev/internal/world"
)

// Role predicates. Privilege is strictly layered: the owner is always also
// a co-owner, every co-owner is also a friend. Bans are checked separately
// and never overlap friendship.

func sameAccount(a, b *world.Mobile) bool {
	return a != nil && b != nil && a.Account != nil && a.Account == b.Account
}

func (h *House) IsOwner(m *world.Mobile) bool {
	if m == nil {
		return false
	}
	if m == h.Owner || m.AccessLevel >= world.AccessGameMaster {
		return true
	}
	return sameAccount(m, h.Owner)
}

func (h *House) IsCoOwner(m *world.Mobile) bool {
	if m == nil {
		return false
	}
	if h.IsOwner(m) {
		return true
	}
	return containsMobile(h.CoOwners, m)
}

func (h *House) IsFriend(m *world.Mobile) bool {
	if m == nil {
		return false
	}
	if h.IsCoOwner(m) {
		return true
	}
	return containsMobile(h.Friends, m)
}

func (h *House) IsBanned(m *world.Mobile) bool {
	return containsMobile(h.Bans, m)
}

func (h *House) IsGuildMember(m *world.Mobile) bool {
	if m == nil || h.Owner == nil || h.Owner.Guild == "" {
		return false
	}
	return m.Guild == h.Owner.Guild
}

func (h *House) HasExplicitAccess(m *world.Mobile) bool {
	return containsMobile(h.Access, m)
}

// HasAccess reports whether a mobile may enter the house.
func (h *House) HasAccess(m *world.Mobile) bool {
	if m == nil {
		return false
	}
	if m.AccessLevel >= world.AccessGameMaster {
		return true
	}
	if h.IsBanned(m) {
		return false
	}
	return h.Public || h.IsFriend(m) || h.HasExplicitAccess(m) || h.IsGuildMember(m)
}

// HasSecureAccess reports whether a mobile may open a container secured at
// the given level.
func (h *House) HasSecureAccess(m *world.Mobile, level SecureLevel) bool {
	if m != nil && m.AccessLevel >= world.AccessGameMaster {
		return true
	}
	switch level {
	case SecureOwner:
		return h.IsOwner(m)
	case SecureCoOwners:
		return h.IsCoOwner(m)
	case SecureFriends:
		return h.IsFriend(m)
	case SecureAnyone:
		return !h.IsBanned(m)
	case SecureGuild:
		return h.IsGuildMember(m) || h.IsOwner(m)
	}
	return false
}

func containsMobile(s []*world.Mobile, m *world.Mobile) bool {
	for _, v := range s {
		if v == m {
			return true
		}
	}
	return false
}

func removeMobileFrom(s []*world.Mobile, m *world.Mobile) []*world.Mobile {
	for i, v := range s {
		if v == m {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// --- ACL mutation entry points ---
// Each operation re-checks the caller's own privilege; there is no shared
// gate. Rejections go to the caller's message channel, never as errors.

func (h *House) AddCoOwner(from, target *world.Mobile) bool {
	if !h.IsOwner(from) {
		from.SendMessage("Only the house owner may add co-owners.")
		return false
	}
	if target == nil || !target.Player() {
		from.SendMessage("That can't be a co-owner of the house.")
		return false
	}
	if h.IsOwner(target) {
		from.SendMessage("The owner cannot be made a co-owner.")
		return false
	}
	if containsMobile(h.CoOwners, target) {
		from.SendMessage("That person is already a co-owner of this house.")
		return false
	}
	if h.IsBanned(target) {
		from.SendMessage("Someone banned from the house cannot be a co-owner.")
		return false
	}
	if len(h.CoOwners) >= h.registry.Rules.MaxCoOwners {
		from.SendMessage("The co-owner list for this house is full.")
		return false
	}
	h.Friends = removeMobileFrom(h.Friends, target)
	h.CoOwners = append(h.CoOwners, target)
	target.SendMessage("You have been made a co-owner of this house.")
	return true
}

func (h *House) RemoveCoOwner(from, target *world.Mobile) bool {
	if !h.IsOwner(from) {
		from.SendMessage("Only the house owner may remove co-owners.")
		return false
	}
	if !containsMobile(h.CoOwners, target) {
		from.SendMessage("That person is not a co-owner of this house.")
		return false
	}
	h.CoOwners = removeMobileFrom(h.CoOwners, target)
	target.SendMessage("You are no longer a co-owner of this house.")
	return true
}

func (h *House) AddFriend(from, target *world.Mobile) bool {
	if !h.IsCoOwner(from) {
		from.SendMessage("Only a co-owner may add friends to the house.")
		return false
	}
	if target == nil || !target.Player() {
		from.SendMessage("That can't be a friend of the house.")
		return false
	}
	if h.IsCoOwner(target) {
		from.SendMessage("That person is already on the house's owner lists.")
		return false
	}
	if containsMobile(h.Friends, target) {
		from.SendMessage("That person is already a friend of this house.")
		return false
	}
	if h.IsBanned(target) {
		from.SendMessage("Someone banned from the house cannot be a friend.")
		return false
	}
	if len(h.Friends) >= h.registry.Rules.MaxFriends {
		from.SendMessage("The friend list for this house is full.")
		return false
	}
	h.Friends = append(h.Friends, target)
	target.SendMessage("You have been made a friend of this house.")
	return true
}

func (h *House) RemoveFriend(from, target *world.Mobile) bool {
	if !h.IsCoOwner(from) {
		from.SendMessage("Only a co-owner may remove friends from the house.")
		return false
	}
	if !containsMobile(h.Friends, target) {
		from.SendMessage("That person is not a friend of this house.")
		return false
	}
	h.Friends = removeMobileFrom(h.Friends, target)
	target.SendMessage("You are no longer a friend of this house.")
	return true
}

func (h *House) Ban(from, target *world.Mobile) bool {
	if !h.IsFriend(from) {
		from.SendMessage("Only friends of the house may ban from it.")
		return false
	}
	if target == nil {
		return false
	}
	if target.AccessLevel > world.AccessPlayer {
		from.SendMessage("Staff cannot be banned from a house.")
		return false
	}
	if h.IsFriend(target) {
		from.SendMessage("Friends of the house cannot be banned; remove them from the list first.")
		return false
	}
	if h.IsBanned(target) {
		from.SendMessage("That person is already banned from this house.")
		return false
	}
	if len(h.Bans) >= h.registry.Rules.MaxBans {
		from.SendMessage("The ban list for this house is full.")
		return false
	}
	h.Bans = append(h.Bans, target)
	h.Access = removeMobileFrom(h.Access, target)
	h.Kick(from, target)
	return true
}

func (h *House) RemoveBan(from, target *world.Mobile) bool {
	if !h.IsFriend(from) {
		from.SendMessage("Only friends of the house may lift bans.")
		return false
	}
	if !containsMobile(h.Bans, target) {
		from.SendMessage("That person is not banned from this house.")
		return false
	}
	h.Bans = removeMobileFrom(h.Bans, target)
	return true
}

func (h *House) GrantAccess(from, target *world.Mobile) bool {
	if !h.IsFriend(from) {
		from.SendMessage("Only friends of the house may grant access.")
		return false
	}
	if target == nil || !target.Player() {
		return false
	}
	if h.HasExplicitAccess(target) {
		from.SendMessage("That person already has access to this house.")
		return false
	}
	if h.IsBanned(target) {
		from.SendMessage("Someone banned from the house cannot be granted access.")
		return false
	}
	h.Access = append(h.Access, target)
	target.SendMessage("You have been granted access to this house.")
	return true
}

func (h *House) RemoveAccess(from, target *world.Mobile) bool {
	if !h.IsFriend(from) {
		from.SendMessage("Only friends of the house may revoke access.")
		return false
	}
	if !h.HasExplicitAccess(target) {
		return false
	}
	h.Access = removeMobileFrom(h.Access, target)
	return true
}

// Kick ejects a non-friend from inside the house to the sign post.
func (h *House) Kick(from, target *world.Mobile) bool {
	if !h.IsFriend(from) {
		from.SendMessage("Only friends of the house may eject someone from it.")
		return false
	}
	if target == nil || target.AccessLevel > world.AccessPlayer {
		return false
	}
	if h.IsFriend(target) {
		from.SendMessage("Friends of the house cannot be ejected.")
		return false
	}
	if target.Map != h.Map || !h.Contains(target.Location) {
		from.SendMessage("That person is not inside the house.")
		return false
	}
	h.Map.MoveMobile(target, h.SignLocation())
	target.SendMessage("You have been ejected from this house.")
	return true
}
