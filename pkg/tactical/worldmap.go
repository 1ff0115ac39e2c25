package tactical

// Territory is one node of the static world graph. Sea zones are
// territories with IsWater set and no production.
type Territory struct {
	Name        string
	IsWater     bool
	Production  int
	Connections []string
}

// Continent is a named territory group worth a full-control income bonus.
type Continent struct {
	Name    string
	Bonus   int
	Members []string
}

// WorldMap holds the immutable territory/continent tables. It is shared
// by every GameState of a session and never mutated after construction.
type WorldMap struct {
	Territories map[string]*Territory
	Continents  []Continent
	landBridges map[string]map[string]bool
}

// NewWorldMap returns an empty map for builders and tests.
func NewWorldMap() *WorldMap {
	return &WorldMap{
		Territories: make(map[string]*Territory),
		landBridges: make(map[string]map[string]bool),
	}
}

// AddTerritory registers a territory. Adding the same name twice is a
// programming error and panics.
func (m *WorldMap) AddTerritory(name string, isWater bool, production int) {
	if _, ok := m.Territories[name]; ok {
		panic("tactical: duplicate territory " + name)
	}
	m.Territories[name] = &Territory{Name: name, IsWater: isWater, Production: production}
}

// Connect adds a bidirectional border between two territories.
func (m *WorldMap) Connect(a, b string) {
	ta, tb := m.Territories[a], m.Territories[b]
	if ta == nil || tb == nil {
		panic("tactical: connecting unknown territory " + a + "-" + b)
	}
	if !containsString(ta.Connections, b) {
		ta.Connections = append(ta.Connections, b)
	}
	if !containsString(tb.Connections, a) {
		tb.Connections = append(tb.Connections, a)
	}
}

// ConnectLandBridge adds a border between two land territories that are
// separated by water but traversable by ground units.
func (m *WorldMap) ConnectLandBridge(a, b string) {
	m.Connect(a, b)
	if m.landBridges[a] == nil {
		m.landBridges[a] = make(map[string]bool)
	}
	if m.landBridges[b] == nil {
		m.landBridges[b] = make(map[string]bool)
	}
	m.landBridges[a][b] = true
	m.landBridges[b][a] = true
}

// AddContinent registers a continent bonus group.
func (m *WorldMap) AddContinent(name string, bonus int, members ...string) {
	for _, t := range members {
		if _, ok := m.Territories[t]; !ok {
			panic("tactical: continent " + name + " references unknown territory " + t)
		}
	}
	m.Continents = append(m.Continents, Continent{Name: name, Bonus: bonus, Members: members})
}

// Exists reports whether the named territory is on the map.
func (m *WorldMap) Exists(name string) bool {
	_, ok := m.Territories[name]
	return ok
}

// IsWater reports whether the named territory is a sea zone. Unknown
// territories report false.
func (m *WorldMap) IsWater(name string) bool {
	t := m.Territories[name]
	return t != nil && t.IsWater
}

// Neighbors returns the territories adjacent to name.
func (m *WorldMap) Neighbors(name string) []string {
	t := m.Territories[name]
	if t == nil {
		return nil
	}
	return t.Connections
}

// AreAdjacent reports whether two territories share a border.
func (m *WorldMap) AreAdjacent(a, b string) bool {
	return containsString(m.Neighbors(a), b)
}

// IsLandBridge reports whether the border between a and b is a land
// bridge crossing water.
func (m *WorldMap) IsLandBridge(a, b string) bool {
	return m.landBridges[a][b]
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
