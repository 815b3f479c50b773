package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"fleets-server/internal/clock"
	"fleets-server/internal/rules"
	"fleets-server/internal/rules/tuning"
	apperrors "fleets-server/internal/shared/errors"
	"fleets-server/internal/storage"
	"fleets-server/internal/world"
)

type recordingPublisher struct {
	mu     sync.Mutex
	worlds []*world.World
}

func (p *recordingPublisher) Publish(w *world.World) {
	p.mu.Lock()
	p.worlds = append(p.worlds, w)
	p.mu.Unlock()
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.worlds)
}

// failingStore wraps a store and fails Replace on demand.
type failingStore struct {
	storage.Store
	failReplace bool
}

func (s *failingStore) Replace(ctx context.Context, w *world.World) error {
	if s.failReplace {
		return errors.New("disk full")
	}
	return s.Store.Replace(ctx, w)
}

type fixture struct {
	svc   *Service
	store storage.Store
	clock *clock.Manual
	pub   *recordingPublisher
}

// newFixture returns a seeded service whose clock sits at block 0.
func newFixture(t *testing.T, store storage.Store) *fixture {
	t.Helper()
	clk := clock.NewManual(time.UnixMilli(0))
	pub := &recordingPublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(store, rules.NewEngine(tuning.Default()), clk, pub, logger)
	if err := svc.Seed(context.Background()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return &fixture{svc: svc, store: store, clock: clk, pub: pub}
}

func (f *fixture) atBlock(b int64) {
	f.clock.Set(time.UnixMilli(b * 10_000))
}

func TestServiceBuildScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemoryStore())

	if _, err := f.svc.Start(ctx, "alice"); err != nil {
		t.Fatal(err)
	}
	f.atBlock(5)
	w, err := f.svc.Build(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if acc := w.Accounts["alice"]; acc.Balance != 62 || acc.BuildingLevel != 21 {
		t.Errorf("returned account = %+v", *acc)
	}

	stored, err := f.store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Accounts["alice"].BuildingLevel != 21 {
		t.Error("build was not persisted")
	}
	if f.pub.count() != 2 {
		t.Errorf("published %d worlds", f.pub.count())
	}
}

func TestServiceRaidScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemoryStore())

	for _, id := range []string{"alice", "bob"} {
		if _, err := f.svc.Start(ctx, id); err != nil {
			t.Fatal(err)
		}
	}
	f.atBlock(5)
	if _, err := f.svc.SummonFleet(ctx, "alice", 100); err != nil {
		t.Fatal(err)
	}
	f.atBlock(15)
	if _, err := f.svc.SendFleet(ctx, "alice", "bob"); err != nil {
		t.Fatal(err)
	}
	f.atBlock(25)
	w, err := f.svc.Battle(ctx, "alice", "", "bob")
	if err != nil {
		t.Fatal(err)
	}
	if w.Accounts["alice"].Balance != 500 || w.Accounts["bob"].Balance != 400 {
		t.Errorf("alice = %d, bob = %d", w.Accounts["alice"].Balance, w.Accounts["bob"].Balance)
	}
	if w.Fleets["alice"].Position != "alice" {
		t.Errorf("attacker did not return home: %+v", *w.Fleets["alice"])
	}
}

func TestServiceErrorsAreTyped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemoryStore())
	if _, err := f.svc.Start(ctx, "alice"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.SendFleet(ctx, "alice", "bob"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		call     func() error
		wantType apperrors.ErrorType
		wantKind rules.ErrorKind
	}{
		{
			name:     "missing sender",
			call:     func() error { _, err := f.svc.Build(ctx, "  "); return err },
			wantType: apperrors.ErrorTypeValidation,
			wantKind: rules.KindMissingSender,
		},
		{
			name:     "unknown player",
			call:     func() error { _, err := f.svc.Build(ctx, "ghost"); return err },
			wantType: apperrors.ErrorTypeNotFound,
			wantKind: rules.KindUnknownPlayer,
		},
		{
			name:     "busy fleet",
			call:     func() error { _, err := f.svc.SendFleet(ctx, "alice", "alice"); return err },
			wantType: apperrors.ErrorTypePrecondition,
			wantKind: rules.KindFleetBusy,
		},
		{
			name:     "fleet away",
			call:     func() error { _, err := f.svc.SummonFleet(ctx, "alice", 1); return err },
			wantType: apperrors.ErrorTypePrecondition,
			wantKind: rules.KindFleetNotHome,
		},
		{
			name:     "negative level",
			call:     func() error { _, err := f.svc.BuildingPrice(-1); return err },
			wantType: apperrors.ErrorTypeValidation,
			wantKind: rules.KindInvalidArgument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if got := apperrors.GetType(err); got != tt.wantType {
				t.Errorf("type = %q (%v)", got, err)
			}
			if got := apperrors.GetKind(err); got != string(tt.wantKind) {
				t.Errorf("kind = %q", got)
			}
		})
	}
}

func TestServiceFailedOperationIsNotPersisted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemoryStore())
	if _, err := f.svc.Start(ctx, "alice"); err != nil {
		t.Fatal(err)
	}
	published := f.pub.count()

	f.atBlock(9)
	_, err := f.svc.Mutate(ctx, "half_done", "alice", func(e *rules.Engine, w *world.World, block int64) error {
		if _, err := e.Accrue(w, "alice", block); err != nil {
			return err
		}
		return e.SendFleet(w, "alice", "", block)
	})
	if err == nil {
		t.Fatal("expected error")
	}

	stored, err := f.store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Accounts["alice"].Balance != 0 || stored.Accounts["alice"].LastAccrualBlock != 0 {
		t.Errorf("partial mutation leaked: %+v", *stored.Accounts["alice"])
	}
	if f.pub.count() != published {
		t.Error("failed operation was published")
	}
}

func TestServiceStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Store: storage.NewMemoryStore()}
	f := newFixture(t, store)

	store.failReplace = true
	_, err := f.svc.Start(ctx, "alice")
	if apperrors.GetType(err) != apperrors.ErrorTypeInternal {
		t.Fatalf("err = %v", err)
	}
	w, err := f.svc.State(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(w.Accounts) != 0 {
		t.Error("world changed despite failed replace")
	}
}

func TestServiceUnseededWorld(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(storage.NewMemoryStore(), rules.NewEngine(tuning.Default()), clock.System{}, nil, logger)

	_, err := svc.State(context.Background())
	if !errors.Is(err, storage.ErrWorldNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestServiceStateDoesNotAccrue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemoryStore())
	if _, err := f.svc.Start(ctx, "alice"); err != nil {
		t.Fatal(err)
	}
	f.atBlock(100)

	first, err := f.svc.State(ctx)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.svc.State(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if *first.Accounts["alice"] != *second.Accounts["alice"] || first.Accounts["alice"].Balance != 0 {
		t.Errorf("state query changed the world: %+v vs %+v", *first.Accounts["alice"], *second.Accounts["alice"])
	}
}

func TestServiceSerializesMutations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemoryStore())

	const players = 40
	var wg sync.WaitGroup
	errs := make(chan error, players)
	for i := 0; i < players; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := f.svc.Start(ctx, fmt.Sprintf("player-%d", i)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	ids, err := f.svc.Players(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != players {
		t.Errorf("got %d players, lost updates", len(ids))
	}
}

func TestServiceStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemoryStore())
	if _, err := f.svc.Start(ctx, "alice"); err != nil {
		t.Fatal(err)
	}
	f.atBlock(42)

	st, err := f.svc.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Block != 42 || st.PlayerCount != 1 || st.BlockDuration != "10s" || st.Game != GameName {
		t.Errorf("status = %+v", st)
	}
}
