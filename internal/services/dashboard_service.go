package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"carteira/internal/cache"
	"carteira/internal/core"
	"carteira/internal/finance"
	"carteira/internal/insights"
)

// DashboardService loads a family's data for a month, runs the summary
// engine and caches the result until the family's data changes or the day
// rolls over.
type DashboardService struct {
	store  DashboardStore
	engine *finance.Engine
	cache  cache.Cache[finance.Summary]
	now    func() time.Time

	// generations counts invalidations per family. A summary is cached only
	// if its family's generation did not move while it was being built.
	mu          sync.Mutex
	generations map[int64]uint64
}

// NewDashboardService wires the service. c may be nil to disable caching.
func NewDashboardService(store DashboardStore, engine *finance.Engine, c cache.Cache[finance.Summary]) *DashboardService {
	return &DashboardService{
		store:       store,
		engine:      engine,
		cache:       c,
		now:         time.Now,
		generations: make(map[int64]uint64),
	}
}

// Summary returns the dashboard summary of caller's family for year/month.
func (s *DashboardService) Summary(ctx context.Context, caller core.User, year int, month time.Month) (finance.Summary, error) {
	if month < time.January || month > time.December {
		return finance.Summary{}, core.Invalid(core.ErrInvalidMonth)
	}
	if year < 1970 || year > 9999 {
		return finance.Summary{}, core.Invalid(fmt.Errorf("invalid year %d", year))
	}

	now := s.now()
	key := summaryKey(caller.FamilyID, year, month, core.DateOf(now))
	if s.cache != nil {
		if sum, ok := s.cache.Get(key); ok {
			slog.DebugContext(ctx, "Dashboard summary served from cache", "family_id", caller.FamilyID, "key", key)
			return sum, nil
		}
	}

	gen := s.generation(caller.FamilyID)
	in, err := s.load(ctx, caller.FamilyID, year, month)
	if err != nil {
		return finance.Summary{}, err
	}
	in.Now = now

	start := time.Now()
	sum := s.engine.Summarize(in)
	sum.Insights = insights.Generate(sum)
	slog.DebugContext(ctx, "Dashboard summary computed",
		"family_id", caller.FamilyID,
		"transactions", len(in.Transactions),
		"duration", time.Since(start))

	if s.cache != nil {
		s.storeIfCurrent(ctx, caller.FamilyID, gen, key, sum)
	}
	return sum, nil
}

func (s *DashboardService) generation(familyID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[familyID]
}

// storeIfCurrent caches sum unless the family was invalidated after gen was
// read. The check and the write share the lock Invalidate bumps under.
func (s *DashboardService) storeIfCurrent(ctx context.Context, familyID int64, gen uint64, key string, sum finance.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[familyID] != gen {
		slog.DebugContext(ctx, "Dashboard summary not cached, family changed during load", "family_id", familyID)
		return
	}
	s.cache.Set(key, sum)
}

// load fetches every input of the engine concurrently.
func (s *DashboardService) load(ctx context.Context, familyID int64, year int, month time.Month) (finance.Input, error) {
	in := finance.Input{Year: year, Month: month}
	from, to := finance.Window(year, month)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		in.Members, err = s.store.ListFamilyMembers(gctx, familyID)
		return wrap(err, "load family members")
	})
	g.Go(func() (err error) {
		in.Transactions, err = s.store.ListFamilyTransactions(gctx, familyID, from, to)
		return wrap(err, "load transactions")
	})
	g.Go(func() (err error) {
		in.Subscriptions, err = s.store.ListFamilySubscriptions(gctx, familyID)
		return wrap(err, "load subscriptions")
	})
	g.Go(func() (err error) {
		in.Profiles, err = s.store.ListFamilyProfiles(gctx, familyID)
		return wrap(err, "load profiles")
	})
	g.Go(func() (err error) {
		in.Goals, err = s.store.ListFamilyGoals(gctx, familyID)
		return wrap(err, "load goals")
	})
	if err := g.Wait(); err != nil {
		return finance.Input{}, err
	}
	return in, nil
}

// Invalidate drops every cached summary of the family.
func (s *DashboardService) Invalidate(familyID int64) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	s.generations[familyID]++
	s.mu.Unlock()
	if n := s.cache.DeletePrefix(familyPrefix(familyID)); n > 0 {
		slog.Debug("Dashboard cache invalidated", "family_id", familyID, "entries", n)
	}
}

func familyPrefix(familyID int64) string {
	return fmt.Sprintf("family:%d:", familyID)
}

func summaryKey(familyID int64, year int, month time.Month, today core.Date) string {
	return fmt.Sprintf("%s%04d-%02d@%s", familyPrefix(familyID), year, int(month), today)
}

func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
