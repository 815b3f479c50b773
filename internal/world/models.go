package world

import "sort"

// Account is a player's economy: currency, income bookkeeping and the
// production building level that drives income.
type Account struct {
	Balance          int64 `json:"balance"`
	LastAccrualBlock int64 `json:"last_accrual_block"`
	BuildingLevel    int64 `json:"building_level"`
}

// Fleet is a player's single fleet. Position is the id of the player whose
// territory the fleet occupies or is heading to.
type Fleet struct {
	Position     string `json:"position"`
	Size         int64  `json:"size"`
	OrbitingTime int64  `json:"orbiting_time"`
	LandingTime  int64  `json:"landing_time"`
}

// Idle reports whether the fleet may take a new command at block.
func (f *Fleet) Idle(block int64) bool {
	return f.OrbitingTime <= block
}

// PresentAt reports whether the fleet counts as being at position at block.
func (f *Fleet) PresentAt(position string, block int64) bool {
	return f.Position == position && f.LandingTime >= block
}

// World is the whole game document. Accounts and Fleets share one key space.
type World struct {
	Accounts map[string]*Account `json:"accounts"`
	Fleets   map[string]*Fleet   `json:"fleets"`
}

func New() *World {
	return &World{
		Accounts: make(map[string]*Account),
		Fleets:   make(map[string]*Fleet),
	}
}

// Normalize replaces nil maps, which appear when decoding documents written
// with empty mappings as null.
func (w *World) Normalize() {
	if w.Accounts == nil {
		w.Accounts = make(map[string]*Account)
	}
	if w.Fleets == nil {
		w.Fleets = make(map[string]*Fleet)
	}
}

func (w *World) Clone() *World {
	c := &World{
		Accounts: make(map[string]*Account, len(w.Accounts)),
		Fleets:   make(map[string]*Fleet, len(w.Fleets)),
	}
	for id, a := range w.Accounts {
		if a == nil {
			continue
		}
		acc := *a
		c.Accounts[id] = &acc
	}
	for id, f := range w.Fleets {
		if f == nil {
			continue
		}
		fleet := *f
		c.Fleets[id] = &fleet
	}
	return c
}

// PlayerIDs returns registered player ids in lexical order.
func (w *World) PlayerIDs() []string {
	ids := make([]string, 0, len(w.Accounts))
	for id := range w.Accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
