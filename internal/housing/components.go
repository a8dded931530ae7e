package housing

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Era selects which building-component generation is legal on the shard.
type Era int

const (
	EraT2A Era = iota
	EraLBR
	EraAOS
	EraSE
	EraML
)

func ParseEra(s string) (Era, error) {
	switch s {
	case "t2a":
		return EraT2A, nil
	case "lbr":
		return EraLBR, nil
	case "", "aos":
		return EraAOS, nil
	case "se":
		return EraSE, nil
	case "ml":
		return EraML, nil
	}
	return EraAOS, fmt.Errorf("unknown era %q", s)
}

// idRange is an inclusive [Lo,Hi] tile-ID span.
type idRange struct {
	Lo int `yaml:"lo"`
	Hi int `yaml:"hi"`
}

// ComponentVerification is the server-side allow-list for customization
// tile IDs. The client UI pre-filters, but every design op re-checks here.
type ComponentVerification struct {
	walls  []eraRange
	floors []eraRange
	doors  []eraRange
	stairs []eraRange
	roofs  []eraRange
	misc   []eraRange
}

type eraRange struct {
	idRange
	era Era
}

type componentFile struct {
	Walls  []componentRange `yaml:"walls"`
	Floors []componentRange `yaml:"floors"`
	Doors  []componentRange `yaml:"doors"`
	Stairs []componentRange `yaml:"stairs"`
	Roofs  []componentRange `yaml:"roofs"`
	Misc   []componentRange `yaml:"misc"`
}

type componentRange struct {
	Lo  int    `yaml:"lo"`
	Hi  int    `yaml:"hi"`
	Era string `yaml:"era"`
}

// LoadComponents reads the component allow-list catalog.
func LoadComponents(path string) (*ComponentVerification, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f componentFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("components.yaml: %w", err)
	}
	cv := &ComponentVerification{}
	load := func(dst *[]eraRange, src []componentRange, section string) error {
		for _, r := range src {
			era, err := ParseEra(r.Era)
			if err != nil {
				return fmt.Errorf("components.yaml: %s: %w", section, err)
			}
			if r.Hi < r.Lo {
				return fmt.Errorf("components.yaml: %s: inverted range %#x..%#x", section, r.Lo, r.Hi)
			}
			*dst = append(*dst, eraRange{idRange{r.Lo, r.Hi}, era})
		}
		sort.Slice(*dst, func(i, j int) bool { return (*dst)[i].Lo < (*dst)[j].Lo })
		return nil
	}
	if err := load(&cv.walls, f.Walls, "walls"); err != nil {
		return nil, err
	}
	if err := load(&cv.floors, f.Floors, "floors"); err != nil {
		return nil, err
	}
	if err := load(&cv.doors, f.Doors, "doors"); err != nil {
		return nil, err
	}
	if err := load(&cv.stairs, f.Stairs, "stairs"); err != nil {
		return nil, err
	}
	if err := load(&cv.roofs, f.Roofs, "roofs"); err != nil {
		return nil, err
	}
	if err := load(&cv.misc, f.Misc, "misc"); err != nil {
		return nil, err
	}
	return cv, nil
}

// DefaultComponents is the built-in allow-list used when the shard runs
// without a catalog file; it matches the default configs/components.yaml.
func DefaultComponents() *ComponentVerification {
	return &ComponentVerification{
		walls:  []eraRange{{idRange{0x0064, 0x03FF}, EraT2A}},
		floors: []eraRange{{idRange{0x0400, 0x058F}, EraT2A}},
		doors:  []eraRange{{idRange{0x0675, 0x06F4}, EraT2A}},
		stairs: []eraRange{{idRange{0x0730, 0x076F}, EraT2A}},
		roofs:  []eraRange{{idRange{0x1560, 0x15FF}, EraLBR}},
		misc:   []eraRange{{idRange{0x181D, 0x1828}, EraAOS}},
	}
}

func matchEra(ranges []eraRange, id int, era Era) bool {
	for _, r := range ranges {
		if id >= r.Lo && id <= r.Hi {
			return era >= r.era
		}
	}
	return false
}

// IsBuildable reports whether a tile ID may be placed by the build op.
func (cv *ComponentVerification) IsBuildable(id int, era Era) bool {
	return matchEra(cv.walls, id, era) ||
		matchEra(cv.floors, id, era) ||
		matchEra(cv.doors, id, era) ||
		matchEra(cv.misc, id, era)
}

// IsStair reports whether a tile ID is a legal stair piece.
func (cv *ComponentVerification) IsStair(id int, era Era) bool {
	return matchEra(cv.stairs, id, era)
}

// IsRoof reports whether a tile ID is a legal roof piece.
func (cv *ComponentVerification) IsRoof(id int, era Era) bool {
	return matchEra(cv.roofs, id, era)
}

// Fixture tile-ID ranges: door and teleporter graphics that melt out of a
// committed design into real entities. Authoritative table; the groupings
// track client art IDs, not any semantic rule.
var fixtureRanges = []idRange{
	{0x00E8, 0x00F7},
	{0x0314, 0x0363},
	{0x0675, 0x06F4},
	{0x0824, 0x0833},
	{0x0839, 0x0848},
	{0x084C, 0x085B},
	{0x0866, 0x0875},
	{0x1FED, 0x1FFC},
	{0x181D, 0x1828},
	{0x241F, 0x2420},
	{0x2423, 0x2424},
	{0x2A05, 0x2A1C},
	{0x2D46, 0x2D49},
	{0x2D63, 0x2D6F},
	{0x2FE2, 0x2FE5},
	{0x319C, 0x31AF},
	{0x367B, 0x369A},
	{0x409B, 0x40A2},
}

// IsFixtureID reports whether a tile ID is a fixture graphic.
func IsFixtureID(id int) bool {
	for _, r := range fixtureRanges {
		if id >= r.Lo && id <= r.Hi {
			return true
		}
	}
	return false
}

// Road land-tile ID ranges, paired [lo,hi]. Placement rule five: no
// foundation tile may rest on these.
var roadRanges = []idRange{
	{0x0071, 0x0078},
	{0x00E8, 0x00EB},
	{0x07AE, 0x07B1},
	{0x3FF4, 0x3FF4},
	{0x3FF8, 0x3FFB},
}

// IsRoadID reports whether a land tile ID is road surface.
func IsRoadID(landID int) bool {
	for _, r := range roadRanges {
		if landID >= r.Lo && landID <= r.Hi {
			return true
		}
	}
	return false
}
