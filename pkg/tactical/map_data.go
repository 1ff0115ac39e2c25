package tactical

import "sync"

// Static world data for the standard scenario. Production values are
// IPCs per turn for land territories; sea zones produce nothing.

type territoryRow struct {
	name       string
	isWater    bool
	production int
}

var standardTerritories = []territoryRow{
	// North America
	{"Alaska", false, 2},
	{"Western Canada", false, 1},
	{"Eastern Canada", false, 2},
	{"Western United States", false, 4},
	{"Eastern United States", false, 6},
	{"Central America", false, 1},
	// South America
	{"Venezuela", false, 1},
	{"Brazil", false, 3},
	{"Argentina", false, 2},
	// Europe
	{"United Kingdom", false, 6},
	{"Western Europe", false, 4},
	{"Germany", false, 8},
	{"Southern Europe", false, 3},
	{"Eastern Europe", false, 3},
	{"Scandinavia", false, 2},
	// Africa
	{"North Africa", false, 2},
	{"Egypt", false, 2},
	{"South Africa", false, 2},
	// Asia
	{"Russia", false, 8},
	{"Caucasus", false, 3},
	{"Middle East", false, 2},
	{"India", false, 3},
	{"China", false, 4},
	{"Southeast Asia", false, 2},
	{"Manchuria", false, 3},
	{"Siberia", false, 1},
	{"Kamchatka", false, 1},
	{"Japan", false, 8},
	// Oceania
	{"Indonesia", false, 2},
	{"Australia", false, 3},
	// Sea zones
	{"North Atlantic", true, 0},
	{"Mid Atlantic", true, 0},
	{"South Atlantic", true, 0},
	{"North Sea", true, 0},
	{"Baltic Sea", true, 0},
	{"Mediterranean Sea", true, 0},
	{"Indian Ocean", true, 0},
	{"South China Sea", true, 0},
	{"Sea of Japan", true, 0},
	{"North Pacific", true, 0},
	{"Central Pacific", true, 0},
	{"South Pacific", true, 0},
}

var standardBorders = [][2]string{
	// North America
	{"Alaska", "Western Canada"},
	{"Western Canada", "Eastern Canada"},
	{"Western Canada", "Western United States"},
	{"Eastern Canada", "Eastern United States"},
	{"Western United States", "Eastern United States"},
	{"Western United States", "Central America"},
	{"Eastern United States", "Central America"},
	// South America
	{"Central America", "Venezuela"},
	{"Venezuela", "Brazil"},
	{"Brazil", "Argentina"},
	// Europe
	{"Western Europe", "Germany"},
	{"Western Europe", "Southern Europe"},
	{"Germany", "Southern Europe"},
	{"Germany", "Eastern Europe"},
	{"Southern Europe", "Eastern Europe"},
	{"Eastern Europe", "Russia"},
	{"Eastern Europe", "Caucasus"},
	{"Scandinavia", "Russia"},
	// Africa
	{"North Africa", "Egypt"},
	{"North Africa", "South Africa"},
	{"Egypt", "South Africa"},
	{"Egypt", "Middle East"},
	// Asia
	{"Russia", "Caucasus"},
	{"Russia", "Siberia"},
	{"Caucasus", "Middle East"},
	{"Middle East", "India"},
	{"India", "China"},
	{"India", "Southeast Asia"},
	{"China", "Southeast Asia"},
	{"China", "Manchuria"},
	{"China", "Siberia"},
	{"Manchuria", "Siberia"},
	{"Siberia", "Kamchatka"},

	// Sea zone to coast
	{"North Atlantic", "Eastern Canada"},
	{"North Atlantic", "Eastern United States"},
	{"North Atlantic", "United Kingdom"},
	{"Mid Atlantic", "Eastern United States"},
	{"Mid Atlantic", "Central America"},
	{"Mid Atlantic", "Venezuela"},
	{"Mid Atlantic", "Brazil"},
	{"Mid Atlantic", "North Africa"},
	{"Mid Atlantic", "Western Europe"},
	{"South Atlantic", "Brazil"},
	{"South Atlantic", "Argentina"},
	{"South Atlantic", "South Africa"},
	{"North Sea", "United Kingdom"},
	{"North Sea", "Western Europe"},
	{"North Sea", "Germany"},
	{"North Sea", "Scandinavia"},
	{"Baltic Sea", "Germany"},
	{"Baltic Sea", "Scandinavia"},
	{"Baltic Sea", "Russia"},
	{"Mediterranean Sea", "Southern Europe"},
	{"Mediterranean Sea", "North Africa"},
	{"Mediterranean Sea", "Egypt"},
	{"Indian Ocean", "Egypt"},
	{"Indian Ocean", "South Africa"},
	{"Indian Ocean", "Middle East"},
	{"Indian Ocean", "India"},
	{"Indian Ocean", "Southeast Asia"},
	{"Indian Ocean", "Indonesia"},
	{"Indian Ocean", "Australia"},
	{"South China Sea", "Southeast Asia"},
	{"South China Sea", "China"},
	{"South China Sea", "Indonesia"},
	{"Sea of Japan", "Japan"},
	{"Sea of Japan", "Manchuria"},
	{"Sea of Japan", "Siberia"},
	{"North Pacific", "Alaska"},
	{"North Pacific", "Kamchatka"},
	{"North Pacific", "Japan"},
	{"North Pacific", "Western Canada"},
	{"Central Pacific", "Western United States"},
	{"Central Pacific", "Central America"},
	{"South Pacific", "Australia"},
	{"South Pacific", "Indonesia"},

	// Sea zone to sea zone
	{"North Atlantic", "Mid Atlantic"},
	{"North Atlantic", "North Sea"},
	{"Mid Atlantic", "South Atlantic"},
	{"Mid Atlantic", "Mediterranean Sea"},
	{"North Sea", "Baltic Sea"},
	{"Mediterranean Sea", "Indian Ocean"},
	{"South Atlantic", "Indian Ocean"},
	{"Indian Ocean", "South China Sea"},
	{"Indian Ocean", "South Pacific"},
	{"South China Sea", "Sea of Japan"},
	{"South China Sea", "Central Pacific"},
	{"Sea of Japan", "North Pacific"},
	{"North Pacific", "Central Pacific"},
	{"Central Pacific", "South Pacific"},
}

// Land bridges: ground units may cross these despite the water gap.
var standardLandBridges = [][2]string{
	{"Alaska", "Kamchatka"},
	{"Southeast Asia", "Indonesia"},
	{"Indonesia", "Australia"},
}

type continentRow struct {
	name    string
	bonus   int
	members []string
}

var standardContinents = []continentRow{
	{"North America", 5, []string{"Alaska", "Western Canada", "Eastern Canada", "Western United States", "Eastern United States", "Central America"}},
	{"South America", 2, []string{"Venezuela", "Brazil", "Argentina"}},
	{"Europe", 5, []string{"United Kingdom", "Western Europe", "Germany", "Southern Europe", "Eastern Europe", "Scandinavia"}},
	{"Africa", 3, []string{"North Africa", "Egypt", "South Africa"}},
	{"Asia", 7, []string{"Russia", "Caucasus", "Middle East", "India", "China", "Southeast Asia", "Manchuria", "Siberia", "Kamchatka", "Japan"}},
	{"Oceania", 2, []string{"Indonesia", "Australia"}},
}

var (
	standardMapOnce sync.Once
	standardMap     *WorldMap
)

// StandardMap returns the built-in world map, constructed once.
func StandardMap() *WorldMap {
	standardMapOnce.Do(func() {
		m := NewWorldMap()
		for _, row := range standardTerritories {
			m.AddTerritory(row.name, row.isWater, row.production)
		}
		for _, b := range standardBorders {
			m.Connect(b[0], b[1])
		}
		for _, b := range standardLandBridges {
			m.ConnectLandBridge(b[0], b[1])
		}
		for _, c := range standardContinents {
			m.AddContinent(c.name, c.bonus, c.members...)
		}
		standardMap = m
	})
	return standardMap
}
