package housing

// HouseKind tags the structural variant of a house. Decay, ACL and storage
// behave identically across kinds; only customization is kind-specific, so
// the foundation data rides along as a component instead of a subtype.
type HouseKind int

const (
	// KindClassic is a fixed-shape house: its layout is the multi art and
	// never changes.
	KindClassic HouseKind = iota
	// KindFoundation is a customizable plot carrying three design states.
	KindFoundation
)

// FoundationState is the customization component of a foundation house.
// The three design states are lazily non-nil: Current is what everyone
// sees, Design is the work in progress, Backup the last explicit backup.
type FoundationState struct {
	Current *DesignState
	Design  *DesignState
	Backup  *DesignState

	// SignpostGraphic and Type are cosmetic choices persisted with the
	// foundation.
	SignpostGraphic int
	Type            FoundationType

	lastRevision int
}

// FoundationType selects the foundation skirt art.
type FoundationType int

const (
	FoundationStone FoundationType = iota
	FoundationDarkWood
	FoundationLightWood
	FoundationDungeon
	FoundationBrick
)
