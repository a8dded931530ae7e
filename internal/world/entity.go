package world

import (
	"sync/atomic"
	"time"
)

// Serial identifies an entity for the wire protocol and the house store.
type Serial uint32

var nextSerial atomic.Uint32

// NewSerial allocates a fresh entity serial. Serial 0 is reserved (null).
func NewSerial() Serial {
	return Serial(nextSerial.Add(1))
}

// SeedSerials moves the allocator past serials already in use by loaded
// state. Called once during world load.
func SeedSerials(max Serial) {
	for {
		cur := nextSerial.Load()
		if cur >= uint32(max) || nextSerial.CompareAndSwap(cur, uint32(max)) {
			return
		}
	}
}

// AccessLevel mirrors the staff hierarchy the housing rules check against.
type AccessLevel int

const (
	AccessPlayer AccessLevel = iota
	AccessCounselor
	AccessGameMaster
	AccessSeer
	AccessAdmin
)

// Account is the login identity a mobile belongs to. House decay policy is
// derived from account standing, not from the mobile.
type Account struct {
	Username    string
	AccessLevel AccessLevel
	LastLogin   time.Time
	Inactive    bool
}

// Item is any world object with a graphic. Containers are items whose
// Items slice is in use.
type Item struct {
	Serial   Serial
	ItemID   int
	Name     string
	Location Point3D
	Map      *Map

	Movable bool
	Visible bool

	Parent *Item
	Items  []*Item

	// Housing flags, mirrored by lockdown/secure membership.
	LockedDown bool
	Secure     bool

	// Amount of gold, for currency piles.
	Gold int
}

func NewItem(itemID int) *Item {
	return &Item{Serial: NewSerial(), ItemID: itemID, Movable: true, Visible: true}
}

func (it *Item) ItemData(td *TileData) ItemData { return td.Item(it.ItemID) }

// AddItem parents child into this container.
func (it *Item) AddItem(child *Item) {
	if child.Parent != nil {
		child.Parent.RemoveItem(child)
	}
	if child.Map != nil {
		child.Map.RemoveItem(child)
	}
	child.Parent = it
	it.Items = append(it.Items, child)
}

func (it *Item) RemoveItem(child *Item) {
	for i, v := range it.Items {
		if v == child {
			it.Items = append(it.Items[:i], it.Items[i+1:]...)
			child.Parent = nil
			return
		}
	}
}

// TotalItems counts contained items recursively, excluding the container
// itself. This is the quantity AOS storage accounting charges for secures.
func (it *Item) TotalItems() int {
	n := 0
	for _, c := range it.Items {
		n += 1 + c.TotalItems()
	}
	return n
}

// RootParent walks to the outermost container.
func (it *Item) RootParent() *Item {
	p := it
	for p.Parent != nil {
		p = p.Parent
	}
	return p
}

// Delete detaches the item from map and parent. Contained items are
// orphaned with it.
func (it *Item) Delete() {
	if it.Parent != nil {
		it.Parent.RemoveItem(it)
	}
	if it.Map != nil {
		it.Map.RemoveItem(it)
	}
}

// Mobile is a player or creature. Only what the housing core needs.
type Mobile struct {
	Serial      Serial
	Name        string
	AccessLevel AccessLevel
	Account     *Account
	Guild       string

	Location Point3D
	Map      *Map

	Hidden bool
	Alive  bool

	bank *Item

	// Messages delivered to the owning session; nil for NPCs.
	Messages chan string
}

func NewMobile(name string) *Mobile {
	return &Mobile{Serial: NewSerial(), Name: name, Alive: true}
}

// BankBox lazily creates the mobile's bank container.
func (m *Mobile) BankBox() *Item {
	if m.bank == nil {
		m.bank = NewItem(0x0E7C)
		m.bank.Name = "bank box"
		m.bank.Movable = false
	}
	return m.bank
}

// BankGold totals gold piles in the bank box.
func (m *Mobile) BankGold() int {
	total := 0
	for _, it := range m.BankBox().Items {
		total += it.Gold
	}
	return total
}

// WithdrawGold consumes the given amount from the bank, failing without
// partial withdrawal if the balance is short.
func (m *Mobile) WithdrawGold(amount int) bool {
	if amount <= 0 {
		return true
	}
	if m.BankGold() < amount {
		return false
	}
	box := m.BankBox()
	left := amount
	for _, it := range box.Items {
		if it.Gold <= 0 {
			continue
		}
		take := it.Gold
		if take > left {
			take = left
		}
		it.Gold -= take
		left -= take
		if left == 0 {
			break
		}
	}
	return true
}

// DepositGold adds the given amount to the bank box.
func (m *Mobile) DepositGold(amount int) bool {
	if amount < 0 {
		return false
	}
	if amount == 0 {
		return true
	}
	pile := NewItem(0x0EED)
	pile.Name = "gold"
	pile.Gold = amount
	m.BankBox().AddItem(pile)
	return true
}

// SendMessage delivers a user-facing system message; dropped when no
// session is attached or the channel is full.
func (m *Mobile) SendMessage(text string) {
	if m.Messages == nil {
		return
	}
	select {
	case m.Messages <- text:
	default:
	}
}

// Player reports whether the mobile is a player character.
func (m *Mobile) Player() bool { return m.Account != nil }
