package tactical

// UnitStack is a homogeneous group of units of one type and owner in a
// single territory. Kind-specific fields are only populated for the
// matching variant: Cargo for transports, Aircraft for carriers, Damaged
// for two-hit ships.
//
// Invariant: Quantity > 0. Stacks that reach zero are removed from their
// territory immediately after the mutation that emptied them.
type UnitStack struct {
	Type     UnitType    `json:"type"`
	Owner    string      `json:"owner"`
	Quantity int         `json:"quantity"`
	Moved    bool        `json:"moved,omitempty"`
	Cargo    []UnitStack `json:"cargo,omitempty"`
	Aircraft []UnitStack `json:"aircraft,omitempty"`
	Damaged  int         `json:"damaged,omitempty"` // hulls that die on the next hit
}

// Clone deep-copies the stack including cargo and deck contents.
func (s *UnitStack) Clone() *UnitStack {
	c := *s
	c.Cargo = cloneStackValues(s.Cargo)
	c.Aircraft = cloneStackValues(s.Aircraft)
	return &c
}

func cloneStackValues(in []UnitStack) []UnitStack {
	if in == nil {
		return nil
	}
	out := make([]UnitStack, len(in))
	for i := range in {
		c := in[i].Clone()
		out[i] = *c
	}
	return out
}

// CargoUsed counts occupied transport slots. Every carried land unit
// occupies one slot; only one non-infantry unit may be aboard, which
// loadCargo enforces separately.
func (s *UnitStack) CargoUsed() int {
	n := 0
	for _, c := range s.Cargo {
		n += c.Quantity
	}
	return n
}

// AircraftAboard counts planes parked on a carrier stack.
func (s *UnitStack) AircraftAboard() int {
	n := 0
	for _, a := range s.Aircraft {
		n += a.Quantity
	}
	return n
}

// stackList operations. Territory unit lists are kept normalized: one
// stack per (type, owner, moved) combination, no zero-quantity entries.

func findStack(stacks []*UnitStack, t UnitType, owner string, moved bool) *UnitStack {
	for _, s := range stacks {
		if s.Type == t && s.Owner == owner && s.Moved == moved {
			return s
		}
	}
	return nil
}

func countUnits(stacks []*UnitStack, owner string) int {
	n := 0
	for _, s := range stacks {
		if owner == "" || s.Owner == owner {
			n += s.Quantity
		}
	}
	return n
}

// addUnits merges quantity into an existing matching stack or appends a
// new one.
func addUnits(stacks []*UnitStack, t UnitType, owner string, qty int, moved bool) []*UnitStack {
	if qty <= 0 {
		return stacks
	}
	if s := findStack(stacks, t, owner, moved); s != nil {
		s.Quantity += qty
		return stacks
	}
	return append(stacks, &UnitStack{Type: t, Owner: owner, Quantity: qty, Moved: moved})
}

// addUnitValues is addUnits for the value-typed cargo and deck lists.
func addUnitValues(list []UnitStack, t UnitType, owner string, qty int, moved bool) []UnitStack {
	if qty <= 0 {
		return list
	}
	for i := range list {
		if list[i].Type == t && list[i].Owner == owner && list[i].Moved == moved {
			list[i].Quantity += qty
			return list
		}
	}
	return append(list, UnitStack{Type: t, Owner: owner, Quantity: qty, Moved: moved})
}

// pruneStacks drops zero-quantity stacks, preserving order.
func pruneStacks(stacks []*UnitStack) []*UnitStack {
	out := stacks[:0]
	for _, s := range stacks {
		if s.Quantity > 0 {
			out = append(out, s)
		}
	}
	return out
}

func cloneStacks(stacks []*UnitStack) []*UnitStack {
	if stacks == nil {
		return nil
	}
	out := make([]*UnitStack, len(stacks))
	for i, s := range stacks {
		out[i] = s.Clone()
	}
	return out
}
