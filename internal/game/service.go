package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"fleets-server/internal/clock"
	"fleets-server/internal/rules"
	apperrors "fleets-server/internal/shared/errors"
	"fleets-server/internal/storage"
	"fleets-server/internal/world"
)

// Publisher receives every world state that was successfully persisted.
type Publisher interface {
	Publish(w *world.World)
}

// Operation is one engine call against a world the service owns exclusively.
type Operation func(e *rules.Engine, w *world.World, block int64) error

// Service serializes every world access behind one lock: load, run one
// engine operation, replace, publish.
type Service struct {
	mu        sync.Mutex
	store     storage.Store
	engine    *rules.Engine
	clock     clock.Clock
	publisher Publisher
	logger    *slog.Logger
}

func NewService(store storage.Store, engine *rules.Engine, clk clock.Clock, publisher Publisher, logger *slog.Logger) *Service {
	logger.Debug("Initializing game service")

	return &Service{
		store:     store,
		engine:    engine,
		clock:     clk,
		publisher: publisher,
		logger:    logger,
	}
}

// CurrentBlock is the block number for the service clock's current time.
func (s *Service) CurrentBlock() int64 {
	return clock.BlockAt(s.clock.Now(), s.engine.Tuning().BlockDuration())
}

// Seed creates the empty world unless one already exists.
func (s *Service) Seed(ctx context.Context) error {
	logger := s.logger.With("component", "game_service", "operation", "seed")

	s.mu.Lock()
	defer s.mu.Unlock()

	created, err := s.store.Seed(ctx)
	if err != nil {
		logger.Error("Failed to seed world", "error", err)
		return fmt.Errorf("failed to seed world: %w", err)
	}
	if created {
		logger.Info("Seeded empty world")
	} else {
		logger.Debug("World already exists, not seeding")
	}
	return nil
}

// State returns the stored world without accruing anything.
func (s *Service) State(ctx context.Context) (*world.World, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.store.Load(ctx)
	if err != nil {
		return nil, translate(err)
	}
	return w, nil
}

// BuildingPrice is the pure price query.
func (s *Service) BuildingPrice(level int64) (int64, error) {
	if level < 0 {
		return 0, apperrors.ValidationKind(string(rules.KindInvalidArgument), "level must not be negative")
	}
	return s.engine.BuildingPrice(level), nil
}

// Mutate runs op for sender inside the critical section and persists the
// result. Nothing is stored when op fails.
func (s *Service) Mutate(ctx context.Context, name, sender string, op Operation) (*world.World, error) {
	sender = strings.TrimSpace(sender)
	if sender == "" {
		return nil, translate(&rules.Error{Kind: rules.KindMissingSender, Message: "sender is required"})
	}
	logger := s.logger.With("component", "game_service", "operation", name, "sender", sender)

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.store.Load(ctx)
	if err != nil {
		logger.Error("Failed to load world", "error", err)
		return nil, translate(err)
	}

	block := s.CurrentBlock()
	next := stored.Clone()
	if err := op(s.engine, next, block); err != nil {
		return nil, translate(err)
	}

	if err := s.store.Replace(ctx, next); err != nil {
		logger.Error("Failed to persist world", "error", err)
		return nil, translate(err)
	}

	logger.Debug("Operation applied", "block", block)
	if s.publisher != nil {
		s.publisher.Publish(next)
	}
	return next, nil
}

func (s *Service) Start(ctx context.Context, sender string) (*world.World, error) {
	sender = strings.TrimSpace(sender)
	return s.Mutate(ctx, "start", sender, func(e *rules.Engine, w *world.World, block int64) error {
		return e.Start(w, sender, block)
	})
}

func (s *Service) Build(ctx context.Context, sender string) (*world.World, error) {
	sender = strings.TrimSpace(sender)
	return s.Mutate(ctx, "build", sender, func(e *rules.Engine, w *world.World, block int64) error {
		ok, err := e.Build(w, sender, block)
		if err == nil && !ok {
			s.logger.Debug("Build not affordable", "sender", sender, "block", block)
		}
		return err
	})
}

func (s *Service) UpdateBalance(ctx context.Context, sender string) (*world.World, error) {
	sender = strings.TrimSpace(sender)
	return s.Mutate(ctx, "update_balance", sender, func(e *rules.Engine, w *world.World, block int64) error {
		_, err := e.Accrue(w, sender, block)
		return err
	})
}

func (s *Service) SummonFleet(ctx context.Context, sender string, size int64) (*world.World, error) {
	sender = strings.TrimSpace(sender)
	return s.Mutate(ctx, "summon_fleet", sender, func(e *rules.Engine, w *world.World, block int64) error {
		ok, err := e.SummonFleet(w, sender, size, block)
		if err == nil && !ok {
			s.logger.Debug("Fleet not affordable", "sender", sender, "size", size, "block", block)
		}
		return err
	})
}

func (s *Service) SendFleet(ctx context.Context, sender, target string) (*world.World, error) {
	sender = strings.TrimSpace(sender)
	target = strings.TrimSpace(target)
	return s.Mutate(ctx, "send_fleet", sender, func(e *rules.Engine, w *world.World, block int64) error {
		return e.SendFleet(w, sender, target, block)
	})
}

// Battle resolves attacker against defender. An empty attacker means the
// sender's own fleet.
func (s *Service) Battle(ctx context.Context, sender, attacker, defender string) (*world.World, error) {
	sender = strings.TrimSpace(sender)
	attacker = strings.TrimSpace(attacker)
	defender = strings.TrimSpace(defender)
	if attacker == "" {
		attacker = sender
	}
	return s.Mutate(ctx, "battle", sender, func(e *rules.Engine, w *world.World, block int64) error {
		report, err := e.Battle(w, attacker, defender, block)
		if err != nil {
			return err
		}
		s.logger.Info("Battle resolved",
			"component", "game_service",
			"block", block,
			"attacker", report.Attacker,
			"defender", report.Defender,
			"defender_present", report.DefenderPresent,
			"attacker_size", fmt.Sprintf("%d->%d", report.AttackerSizeBefore, report.AttackerSizeAfter),
			"defender_size", fmt.Sprintf("%d->%d", report.DefenderSizeBefore, report.DefenderSizeAfter),
			"looted", report.Looted,
		)
		return nil
	})
}

// Status summarizes the world for the status endpoint.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	w, err := s.State(ctx)
	if err != nil {
		return nil, err
	}
	return &Status{
		Game:          GameName,
		Block:         s.CurrentBlock(),
		BlockDuration: s.engine.Tuning().BlockDuration().String(),
		PlayerCount:   len(w.Accounts),
	}, nil
}

// Players lists registered player ids.
func (s *Service) Players(ctx context.Context) ([]string, error) {
	w, err := s.State(ctx)
	if err != nil {
		return nil, err
	}
	return w.PlayerIDs(), nil
}

// Ping checks the backing store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// translate maps engine and storage errors onto application errors.
func translate(err error) error {
	if kind, ok := rules.KindOf(err); ok {
		switch kind {
		case rules.KindMissingSender, rules.KindInvalidArgument:
			return apperrors.ValidationKind(string(kind), err.Error())
		case rules.KindUnknownPlayer:
			return apperrors.NotFound(string(kind), err.Error())
		default:
			return apperrors.Precondition(string(kind), err.Error())
		}
	}
	if errors.Is(err, storage.ErrWorldNotFound) {
		return apperrors.WrapInternal("world has not been seeded", err)
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.WrapInternal("world store failure", err)
}
