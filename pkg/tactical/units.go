package tactical

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// UnitKind partitions unit types into the variants the rules care about.
// Kind-specific stack fields (cargo, aircraft, damage) are only valid for
// the matching variant.
type UnitKind int

const (
	KindLand     UnitKind = iota // ground forces, move over land only
	KindAir                      // aircraft, ignore terrain and ownership en route
	KindSea                      // surface ships, move over sea zones only
	KindCarrier                  // sea unit with a flight deck
	KindBuilding                 // static installations, never move
)

func (k UnitKind) String() string {
	switch k {
	case KindLand:
		return "land"
	case KindAir:
		return "air"
	case KindSea:
		return "sea"
	case KindCarrier:
		return "carrier"
	case KindBuilding:
		return "building"
	}
	return "unknown"
}

// UnmarshalYAML parses the kind from its lowercase name in the unit table.
func (k *UnitKind) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch s {
	case "land":
		*k = KindLand
	case "air":
		*k = KindAir
	case "sea":
		*k = KindSea
	case "carrier":
		*k = KindCarrier
	case "building":
		*k = KindBuilding
	default:
		return fmt.Errorf("unknown unit kind %q", s)
	}
	return nil
}

// UnitType identifies a unit definition in the catalog.
type UnitType string

const (
	Infantry   UnitType = "infantry"
	Artillery  UnitType = "artillery"
	Armor      UnitType = "armor"
	AAGun      UnitType = "aaGun"
	Fighter    UnitType = "fighter"
	Bomber     UnitType = "bomber"
	Transport  UnitType = "transport"
	Submarine  UnitType = "submarine"
	Destroyer  UnitType = "destroyer"
	Carrier    UnitType = "carrier"
	Battleship UnitType = "battleship"
	Factory    UnitType = "factory"
)

// UnitDef is one immutable row of the unit stat table.
type UnitDef struct {
	Type             UnitType `yaml:"type"`
	Kind             UnitKind `yaml:"kind"`
	Cost             int      `yaml:"cost"`
	Attack           int      `yaml:"attack"`
	Defense          int      `yaml:"defense"`
	Movement         int      `yaml:"movement"`
	CargoSlots       int      `yaml:"cargoSlots,omitempty"`       // transports
	AircraftCapacity int      `yaml:"aircraftCapacity,omitempty"` // carriers
	HitPoints        int      `yaml:"hitPoints,omitempty"`        // defaults to 1
	Blitz            bool     `yaml:"blitz,omitempty"`
	AntiAir          bool     `yaml:"antiAir,omitempty"`
}

//go:embed data/units.yaml
var unitTableYAML []byte

var (
	unitCatalogOnce sync.Once
	unitCatalog     map[UnitType]UnitDef
)

// Catalog returns the unit definition table, loaded once from the embedded
// stat file.
func Catalog() map[UnitType]UnitDef {
	unitCatalogOnce.Do(func() {
		var table struct {
			Units []UnitDef `yaml:"units"`
		}
		if err := yaml.Unmarshal(unitTableYAML, &table); err != nil {
			panic("tactical: embedded unit table is invalid: " + err.Error())
		}
		unitCatalog = make(map[UnitType]UnitDef, len(table.Units))
		for _, def := range table.Units {
			if def.HitPoints == 0 {
				def.HitPoints = 1
			}
			unitCatalog[def.Type] = def
		}
	})
	return unitCatalog
}

// DefOf looks up the definition for a unit type.
func DefOf(t UnitType) (UnitDef, bool) {
	def, ok := Catalog()[t]
	return def, ok
}

// cheapestFirst returns the given unit types sorted by purchase cost
// ascending, with type name as tiebreak so casualty auto-selection is
// deterministic.
func cheapestFirst(types []UnitType) []UnitType {
	out := make([]UnitType, len(types))
	copy(out, types)
	sort.Slice(out, func(i, j int) bool {
		di, _ := DefOf(out[i])
		dj, _ := DefOf(out[j])
		if di.Cost != dj.Cost {
			return di.Cost < dj.Cost
		}
		return out[i] < out[j]
	})
	return out
}
