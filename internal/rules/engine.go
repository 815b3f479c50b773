// Package rules holds the game rules: accrual, building prices, fleet
// movement and battle resolution. Every operation works on a *world.World
// the caller owns exclusively for the duration of the call.
package rules

import (
	"math"

	"fleets-server/internal/rules/tuning"
	"fleets-server/internal/world"
)

type Engine struct {
	tuning    tuning.Tuning
	priceBase float64
}

func NewEngine(t tuning.Tuning) *Engine {
	return &Engine{tuning: t, priceBase: t.PriceBase()}
}

func (e *Engine) Tuning() tuning.Tuning {
	return e.tuning
}

// BuildingPrice is floor(1.2^level) with the default tuning.
func BuildingPrice(level int64) int64 {
	return floorPow(tuning.Default().PriceBase(), level)
}

func (e *Engine) BuildingPrice(level int64) int64 {
	return floorPow(e.priceBase, level)
}

func floorPow(base float64, level int64) int64 {
	if level <= 0 {
		return 1
	}
	p := math.Floor(math.Pow(base, float64(level)))
	if p >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(p)
}

// Start registers sender, resetting any existing account and fleet.
func (e *Engine) Start(w *world.World, sender string, block int64) error {
	if sender == "" {
		return missingSender("sender")
	}
	w.Accounts[sender] = &world.Account{
		Balance:          0,
		LastAccrualBlock: block,
		BuildingLevel:    e.tuning.InitialBuildingLevel,
	}
	w.Fleets[sender] = &world.Fleet{Position: sender}
	return nil
}

// Accrue credits income for every block since the last accrual and returns
// the new balance. A block earlier than the last accrual credits nothing.
func (e *Engine) Accrue(w *world.World, sender string, block int64) (int64, error) {
	acc, err := account(w, sender)
	if err != nil {
		return 0, err
	}
	accrue(acc, block)
	return acc.Balance, nil
}

func accrue(acc *world.Account, block int64) {
	if block <= acc.LastAccrualBlock {
		return
	}
	acc.Balance += (block - acc.LastAccrualBlock) * acc.BuildingLevel
	acc.LastAccrualBlock = block
}

// TrySpend accrues and then deducts price if the balance covers it.
// Insufficient funds is reported as false, not as an error.
func (e *Engine) TrySpend(w *world.World, sender string, price, block int64) (bool, error) {
	if price < 0 {
		return false, invalidArgument("price must not be negative, got %d", price)
	}
	acc, err := account(w, sender)
	if err != nil {
		return false, err
	}
	accrue(acc, block)
	if price > acc.Balance {
		return false, nil
	}
	acc.Balance -= price
	return true, nil
}

// Build upgrades the sender's building by one level if affordable.
func (e *Engine) Build(w *world.World, sender string, block int64) (bool, error) {
	acc, err := account(w, sender)
	if err != nil {
		return false, err
	}
	ok, err := e.TrySpend(w, sender, e.BuildingPrice(acc.BuildingLevel), block)
	if err != nil || !ok {
		return false, err
	}
	acc.BuildingLevel++
	return true, nil
}

// SummonFleet buys size ships for a fleet that is home and idle.
func (e *Engine) SummonFleet(w *world.World, sender string, size, block int64) (bool, error) {
	if size < 0 {
		return false, invalidArgument("fleet size must not be negative, got %d", size)
	}
	if _, err := account(w, sender); err != nil {
		return false, err
	}
	f, err := fleet(w, sender)
	if err != nil {
		return false, err
	}
	if f.Position != sender {
		return false, fleetNotHome(sender, f.Position)
	}
	if !f.Idle(block) {
		return false, fleetBusy(sender, f.OrbitingTime)
	}

	cost := size * e.tuning.ShipCost
	if size != 0 && cost/size != e.tuning.ShipCost {
		return false, invalidArgument("fleet size %d is too large", size)
	}
	ok, err := e.TrySpend(w, sender, cost, block)
	if err != nil || !ok {
		return false, err
	}
	f.Size += size
	e.dispatch(f, sender, block)
	return true, nil
}

// SendFleet moves the sender's idle fleet towards target at no cost.
func (e *Engine) SendFleet(w *world.World, sender, target string, block int64) error {
	if target == "" {
		return invalidArgument("target is required")
	}
	if _, err := account(w, sender); err != nil {
		return err
	}
	f, err := fleet(w, sender)
	if err != nil {
		return err
	}
	if !f.Idle(block) {
		return fleetBusy(sender, f.OrbitingTime)
	}
	e.dispatch(f, target, block)
	return nil
}

// Transfer accrues both accounts and moves min(from balance, limit) from
// one to the other, returning the amount moved.
func (e *Engine) Transfer(w *world.World, from, to string, limit, block int64) (int64, error) {
	if limit < 0 {
		return 0, invalidArgument("transfer limit must not be negative, got %d", limit)
	}
	src, err := account(w, from)
	if err != nil {
		return 0, err
	}
	dst, err := account(w, to)
	if err != nil {
		return 0, err
	}
	return transfer(src, dst, limit, block), nil
}

func transfer(src, dst *world.Account, limit, block int64) int64 {
	accrue(src, block)
	accrue(dst, block)
	amount := min(src.Balance, limit)
	if amount <= 0 {
		return 0
	}
	src.Balance -= amount
	dst.Balance += amount
	return amount
}

// dispatch sends f to position and opens its busy and presence windows.
func (e *Engine) dispatch(f *world.Fleet, position string, block int64) {
	f.Position = position
	f.OrbitingTime = block + e.tuning.OrbitWindowBlocks
	f.LandingTime = block + e.tuning.LandingWindowBlocks
}

func account(w *world.World, id string) (*world.Account, error) {
	if id == "" {
		return nil, missingSender("sender")
	}
	acc, ok := w.Accounts[id]
	if !ok || acc == nil {
		return nil, unknownPlayer(id)
	}
	return acc, nil
}

func fleet(w *world.World, id string) (*world.Fleet, error) {
	if id == "" {
		return nil, missingSender("sender")
	}
	f, ok := w.Fleets[id]
	if !ok || f == nil {
		return nil, unknownPlayer(id)
	}
	return f, nil
}
