package rules

import (
	"errors"
	"math"
	"testing"

	"fleets-server/internal/rules/tuning"
	"fleets-server/internal/world"
)

func newEngine() *Engine {
	return NewEngine(tuning.Default())
}

// startAll registers every id at block.
func startAll(t *testing.T, e *Engine, block int64, ids ...string) *world.World {
	t.Helper()
	w := world.New()
	for _, id := range ids {
		if err := e.Start(w, id, block); err != nil {
			t.Fatalf("Start(%s): %v", id, err)
		}
	}
	return w
}

func TestBuildingPrice(t *testing.T) {
	if got := BuildingPrice(0); got != 1 {
		t.Errorf("BuildingPrice(0) = %d", got)
	}
	if got := BuildingPrice(20); got != 38 {
		t.Errorf("BuildingPrice(20) = %d", got)
	}
	for level := int64(0); level < 300; level++ {
		if BuildingPrice(level) > BuildingPrice(level+1) {
			t.Fatalf("price decreases at level %d", level)
		}
	}
	if got := BuildingPrice(10_000); got != math.MaxInt64 {
		t.Errorf("huge level = %d, want saturation", got)
	}
}

func TestEngineBuildingPriceUsesTuning(t *testing.T) {
	tn := tuning.Default()
	tn.PriceBaseNumerator, tn.PriceBaseDenominator = 2, 1
	e := NewEngine(tn)
	if got := e.BuildingPrice(10); got != 1024 {
		t.Errorf("price = %d", got)
	}
}

func TestStartResetsPlayer(t *testing.T) {
	e := newEngine()
	w := startAll(t, e, 3, "alice")
	w.Accounts["alice"].Balance = 500
	w.Fleets["alice"].Size = 7

	if err := e.Start(w, "alice", 9); err != nil {
		t.Fatal(err)
	}
	acc := w.Accounts["alice"]
	if *acc != (world.Account{Balance: 0, LastAccrualBlock: 9, BuildingLevel: 20}) {
		t.Errorf("account = %+v", *acc)
	}
	if *w.Fleets["alice"] != (world.Fleet{Position: "alice"}) {
		t.Errorf("fleet = %+v", *w.Fleets["alice"])
	}
}

func TestStartRequiresSender(t *testing.T) {
	e := newEngine()
	err := e.Start(world.New(), "", 0)
	if !errors.Is(err, ErrMissingSender) {
		t.Fatalf("err = %v", err)
	}
}

func TestAccrueIsAdditive(t *testing.T) {
	e := newEngine()
	stepped := startAll(t, e, 0, "alice")
	single := startAll(t, e, 0, "alice")

	for _, b := range []int64{3, 3, 7, 12} {
		if _, err := e.Accrue(stepped, "alice", b); err != nil {
			t.Fatal(err)
		}
	}
	got, err := e.Accrue(single, "alice", 12)
	if err != nil {
		t.Fatal(err)
	}
	if got != 240 || stepped.Accounts["alice"].Balance != got {
		t.Errorf("stepped = %d, single = %d", stepped.Accounts["alice"].Balance, got)
	}
	if stepped.Accounts["alice"].LastAccrualBlock != 12 {
		t.Errorf("last accrual = %d", stepped.Accounts["alice"].LastAccrualBlock)
	}
}

func TestAccrueNeverMovesBackwards(t *testing.T) {
	e := newEngine()
	w := startAll(t, e, 10, "alice")

	got, err := e.Accrue(w, "alice", 4)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 || w.Accounts["alice"].LastAccrualBlock != 10 {
		t.Errorf("balance = %d, last = %d", got, w.Accounts["alice"].LastAccrualBlock)
	}
}

func TestAccrueUnknownPlayer(t *testing.T) {
	e := newEngine()
	_, err := e.Accrue(world.New(), "ghost", 1)
	if !errors.Is(err, ErrUnknownPlayer) {
		t.Fatalf("err = %v", err)
	}
	if kind, ok := KindOf(err); !ok || kind != KindUnknownPlayer {
		t.Errorf("kind = %q", kind)
	}
}

func TestTrySpend(t *testing.T) {
	e := newEngine()
	w := startAll(t, e, 0, "alice")

	ok, err := e.TrySpend(w, "alice", 50, 2)
	if err != nil || ok {
		t.Fatalf("ok = %v, err = %v", ok, err)
	}
	if got := w.Accounts["alice"].Balance; got != 40 {
		t.Errorf("failed spend changed balance beyond accrual: %d", got)
	}

	ok, err = e.TrySpend(w, "alice", 60, 3)
	if err != nil || !ok {
		t.Fatalf("ok = %v, err = %v", ok, err)
	}
	if got := w.Accounts["alice"].Balance; got != 0 {
		t.Errorf("balance = %d", got)
	}

	if _, err := e.TrySpend(w, "alice", -1, 3); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("negative price err = %v", err)
	}
}

func TestBuild(t *testing.T) {
	e := newEngine()
	w := startAll(t, e, 0, "alice")

	ok, err := e.Build(w, "alice", 1)
	if err != nil || ok {
		t.Fatalf("early build ok = %v, err = %v", ok, err)
	}
	if acc := w.Accounts["alice"]; acc.Balance != 20 || acc.BuildingLevel != 20 {
		t.Errorf("after failed build: %+v", *acc)
	}

	ok, err = e.Build(w, "alice", 5)
	if err != nil || !ok {
		t.Fatalf("build ok = %v, err = %v", ok, err)
	}
	if acc := w.Accounts["alice"]; acc.Balance != 62 || acc.BuildingLevel != 21 {
		t.Errorf("after build: %+v", *acc)
	}
}

func TestSummonFleet(t *testing.T) {
	e := newEngine()
	w := startAll(t, e, 0, "alice")

	ok, err := e.SummonFleet(w, "alice", 100, 5)
	if err != nil || !ok {
		t.Fatalf("ok = %v, err = %v", ok, err)
	}
	want := world.Fleet{Position: "alice", Size: 100, OrbitingTime: 15, LandingTime: 25}
	if *w.Fleets["alice"] != want {
		t.Errorf("fleet = %+v", *w.Fleets["alice"])
	}
	if w.Accounts["alice"].Balance != 0 {
		t.Errorf("balance = %d", w.Accounts["alice"].Balance)
	}

	_, err = e.SummonFleet(w, "alice", 1, 14)
	if !errors.Is(err, ErrFleetBusy) {
		t.Fatalf("busy err = %v", err)
	}
	if *w.Fleets["alice"] != want {
		t.Errorf("busy summon mutated fleet: %+v", *w.Fleets["alice"])
	}

	ok, err = e.SummonFleet(w, "alice", 1_000, 15)
	if err != nil || ok {
		t.Fatalf("unaffordable ok = %v, err = %v", ok, err)
	}
	if *w.Fleets["alice"] != want {
		t.Errorf("unaffordable summon mutated fleet: %+v", *w.Fleets["alice"])
	}
}

func TestSummonFleetRejects(t *testing.T) {
	e := newEngine()
	w := startAll(t, e, 0, "alice", "bob")
	if err := e.SendFleet(w, "alice", "bob", 0); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		sender string
		size   int64
		want   error
	}{
		{name: "away", sender: "alice", size: 1, want: ErrFleetNotHome},
		{name: "negative", sender: "bob", size: -3, want: ErrInvalidArgument},
		{name: "unaffordable", sender: "bob", size: math.MaxInt64, want: nil},
		{name: "unknown", sender: "carol", size: 1, want: ErrUnknownPlayer},
		{name: "missing", sender: "", size: 1, want: ErrMissingSender},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.SummonFleet(w, tt.sender, tt.size, 50)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("err = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSendFleet(t *testing.T) {
	e := newEngine()
	w := startAll(t, e, 0, "alice", "bob")

	if err := e.SendFleet(w, "alice", "bob", 7); err != nil {
		t.Fatal(err)
	}
	want := world.Fleet{Position: "bob", OrbitingTime: 17, LandingTime: 27}
	if *w.Fleets["alice"] != want {
		t.Errorf("fleet = %+v", *w.Fleets["alice"])
	}

	err := e.SendFleet(w, "alice", "alice", 16)
	if !errors.Is(err, ErrFleetBusy) {
		t.Fatalf("err = %v", err)
	}
	if *w.Fleets["alice"] != want {
		t.Errorf("busy send mutated fleet: %+v", *w.Fleets["alice"])
	}

	if err := e.SendFleet(w, "alice", "", 20); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty target err = %v", err)
	}
	if w.Accounts["alice"].Balance != 0 {
		t.Error("sending must not cost anything")
	}
}

func TestTransfer(t *testing.T) {
	e := newEngine()
	w := startAll(t, e, 0, "alice", "bob")

	moved, err := e.Transfer(w, "bob", "alice", 30, 1)
	if err != nil {
		t.Fatal(err)
	}
	if moved != 20 {
		t.Errorf("moved = %d, want source balance 20", moved)
	}
	if w.Accounts["alice"].Balance != 40 || w.Accounts["bob"].Balance != 0 {
		t.Errorf("alice = %d, bob = %d", w.Accounts["alice"].Balance, w.Accounts["bob"].Balance)
	}

	if _, err := e.Transfer(w, "bob", "ghost", 1, 1); !errors.Is(err, ErrUnknownPlayer) {
		t.Errorf("err = %v", err)
	}
}
