package service_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/tourcheck/internal/app"
	"github.com/okian/tourcheck/internal/adapters/repository"
	"github.com/okian/tourcheck/internal/adapters/rows"
	"github.com/okian/tourcheck/internal/adapters/source"
	"github.com/okian/tourcheck/internal/config"
	"github.com/okian/tourcheck/internal/domain/inference"
	"github.com/okian/tourcheck/internal/domain/model"
	"github.com/okian/tourcheck/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type countingSource struct {
	names []string
	calls atomic.Int32
}

func (c *countingSource) Fetch(context.Context) ([]string, error) {
	c.calls.Add(1)
	return c.names, nil
}

type countingMethod struct {
	inner inference.Method
	calls atomic.Int32
}

func (c *countingMethod) Name() string { return c.inner.Name() }

func (c *countingMethod) Infer(n string) (model.InferenceResult, error) {
	c.calls.Add(1)
	return c.inner.Infer(n)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newService(t *testing.T, opts ...service.Option) (*service.Service, *countingSource, *countingMethod) {
	t.Helper()
	lex, err := inference.NewLexicon()
	if err != nil {
		t.Fatal(err)
	}
	src := &countingSource{}
	m := &countingMethod{inner: lex}
	base := []service.Option{
		service.WithRosterSource(src),
		service.WithInferenceMethods(m),
		service.WithPlayerBatch(5, 0),
		service.WithMatchBatch(3, 0),
		service.WithRowBatch(10, 0),
	}
	svc, err := service.New(append(base, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return svc, src, m
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		svc, src, _ := newService(t, service.WithStore(store))
		src.names = []string{"Iga Swiatek"}

		Convey("When it is started and stopped", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats(ctx).Started, ShouldBeTrue)
			svc.Stop(ctx)

			Convey("Then the roster was warmed and the cache persisted", func() {
				So(src.calls.Load(), ShouldEqual, 1)
				So(svc.GetStats(ctx).Started, ShouldBeFalse)
				So(store.Saves(), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestService_Validation(t *testing.T) {
	Convey("Given a service", t, func() {
		ctx := context.Background()
		svc, src, m := newService(t)
		defer func() { _ = svc.Close() }()

		Convey("When 51 names are submitted in bulk", func() {
			names := make([]string, 51)
			for i := range names {
				names[i] = fmt.Sprintf("Player Number%d", i)
			}
			_, err := svc.CheckPlayersBulk(ctx, names)

			Convey("Then it is rejected with no lookups", func() {
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
				So(model.Message(err), ShouldEqual, "Maximum 50 players per request")
				So(src.calls.Load(), ShouldEqual, 0)
				So(m.calls.Load(), ShouldEqual, 0)
				So(svc.GetStats(ctx).Cache.TotalEntries, ShouldEqual, 0)
			})
		})

		Convey("When 26 matches are submitted in bulk", func() {
			_, err := svc.CheckMatchesBulk(ctx, make([]model.MatchInput, 26))
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			So(m.calls.Load(), ShouldEqual, 0)
		})

		Convey("When required fields are missing", func() {
			_, err := svc.CheckPlayer(ctx, " ")
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			_, err = svc.CheckMatch(ctx, "Serena Williams", "")
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			_, err = svc.Status(ctx, "", "Serena Williams")
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			_, err = svc.CheckPlayersBulk(ctx, nil)
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			_, err = svc.CheckMatchesBulk(ctx, []model.MatchInput{{HomePlayer: "Serena Williams"}})
			So(model.Message(err), ShouldEqual, "Each match must have homePlayer and awayPlayer")
			_, _, err = svc.ProcessRows(ctx, nil)
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			_, _, err = svc.ProcessRows(ctx, make([]rows.Row, 201))
			So(model.Message(err), ShouldEqual, "Maximum 200 records per request")
			_, err = svc.ExplainInference(ctx, "")
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			So(m.calls.Load(), ShouldEqual, 0)
		})
	})
}

func TestService_Scenarios(t *testing.T) {
	Convey("Given a service with no roster", t, func() {
		ctx := context.Background()
		svc, _, _ := newService(t)
		defer func() { _ = svc.Close() }()

		Convey("Then Serena Williams against Maria Sharapova is eligible", func() {
			c, err := svc.CheckMatch(ctx, "Serena Williams", "Maria Sharapova")
			So(err, ShouldBeNil)
			So(c.IsEligible, ShouldBeTrue)
			So(c.Rule, ShouldEqual, model.RuleSingles)
		})

		Convey("Then Rafael Nadal against Novak Djokovic has no status", func() {
			st, err := svc.Status(ctx, "Rafael Nadal", "Novak Djokovic")
			So(err, ShouldBeNil)
			So(st, ShouldEqual, "")
		})

		Convey("Then four female players have status WTA", func() {
			st, err := svc.Status(ctx, "Serena Williams,Venus Williams", "Maria Sharapova,Caroline Wozniacki")
			So(err, ShouldBeNil)
			So(st, ShouldEqual, "WTA")
		})

		Convey("Then a repeated check is served from the cache", func() {
			first, _ := svc.CheckPlayer(ctx, "Serena Williams")
			second, _ := svc.CheckPlayer(ctx, "Serena Williams")
			So(second.IsEligible, ShouldEqual, first.IsEligible)
			So(second.Confidence, ShouldEqual, first.Confidence)
			So(second.Details.Cached, ShouldBeTrue)
		})

		Convey("Then an override wins until the cache is cleared", func() {
			_, err := svc.Override(ctx, "Rafael Nadal", true, "exhibition")
			So(err, ShouldBeNil)
			v, _ := svc.CheckPlayer(ctx, "Rafael Nadal")
			So(v.IsEligible, ShouldBeTrue)
			So(v.Confidence, ShouldEqual, 1.0)

			svc.ClearCache(ctx)
			v, _ = svc.CheckPlayer(ctx, "Rafael Nadal")
			So(v.IsEligible, ShouldBeFalse)
		})

		Convey("Then bulk players keep input order", func() {
			out, err := svc.CheckPlayersBulk(ctx, []string{"Serena Williams", "Rafael Nadal", "Bad"})
			So(err, ShouldBeNil)
			So(out[0].Name, ShouldEqual, "Serena Williams")
			So(out[0].IsEligible, ShouldBeTrue)
			So(out[1].IsEligible, ShouldBeFalse)
			So(out[2].Reason, ShouldEqual, "Invalid player name")
		})

		Convey("Then rows get a status column and summary", func() {
			out, sum, err := svc.ProcessRows(ctx, []rows.Row{
				{"homeopponent": "Serena Williams", "awayopponent": "Maria Sharapova"},
				{"homeopponent": "Rafael Nadal", "awayopponent": "Novak Djokovic"},
			})
			So(err, ShouldBeNil)
			So(out[0][svc.StatusField()], ShouldEqual, "WTA")
			So(out[1][svc.StatusField()], ShouldEqual, "")
			So(sum.EligibleMatches, ShouldEqual, 1)
		})

		Convey("Then stats report the classifier and the inference setup", func() {
			_, _ = svc.CheckMatch(ctx, "Serena Williams", "Maria Sharapova")
			st := svc.GetStats(ctx)
			So(st.Matches.TotalClassified, ShouldEqual, 1)
			So(st.Inference.Methods, ShouldResemble, []string{inference.MethodLexicon, inference.MethodHeuristic})
			So(st.Limits, ShouldResemble, service.Limits{Players: 50, Matches: 25, Rows: 200})
			So(st.Roster.LastUpdate, ShouldBeNil)

			svc.ResetMatchStats()
			So(svc.GetStats(ctx).Matches.TotalClassified, ShouldEqual, 0)
		})
	})
}

func TestService_CacheExpiry(t *testing.T) {
	Convey("Given a service on a controlled clock", t, func() {
		ctx := context.Background()
		clk := &clock{now: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
		svc, _, m := newService(t, service.WithClock(clk.Now), service.WithCache(time.Hour, 10, 0))
		defer func() { _ = svc.Close() }()

		_, _ = svc.CheckPlayer(ctx, "Serena Williams")
		calls := m.calls.Load()
		total := svc.GetStats(ctx).Cache.TotalEntries
		So(total, ShouldBeGreaterThan, 0)

		Convey("When the entries outlive the max age", func() {
			clk.Advance(2 * time.Hour)

			Convey("Then stats count them expired and cleanup removes them", func() {
				st := svc.GetStats(ctx).Cache
				So(st.ExpiredEntries, ShouldEqual, total)
				So(svc.CleanupCache(ctx), ShouldEqual, total)
				So(svc.GetStats(ctx).Cache.TotalEntries, ShouldEqual, 0)
			})

			Convey("Then the next check recomputes", func() {
				v, _ := svc.CheckPlayer(ctx, "Serena Williams")
				So(v.Details.Cached, ShouldBeFalse)
				So(m.calls.Load(), ShouldBeGreaterThan, calls)
			})
		})
	})
}

func TestService_OverridesFile(t *testing.T) {
	Convey("Given an overrides file", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "overrides.yaml")
		So(os.WriteFile(path, []byte("overrides:\n  - name: Rafael Nadal\n    eligible: true\n    reason: seeded\n"), 0o600), ShouldBeNil)
		svc, _, _ := newService(t, service.WithOverridesFile(path))

		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop(ctx)

		Convey("Then its entries are applied at start", func() {
			v, err := svc.CheckPlayer(ctx, "Rafael Nadal")
			So(err, ShouldBeNil)
			So(v.IsEligible, ShouldBeTrue)
			So(v.Details.ManualOverride, ShouldBeTrue)
		})
	})
}

func TestService_FromConfig(t *testing.T) {
	Convey("Given a configuration with a sqlite store and a static roster", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		cfg.CacheStore = repository.BackendSQLite
		cfg.CachePath = filepath.Join(t.TempDir(), "cache.db")
		cfg.RosterSource = config.SourceStatic
		cfg.RosterStaticNames = []string{"Aryna Sabalenka"}
		cfg.PlayerBulkMax = 3
		cfg.PlayerBatchPause = 0
		So(cfg.Validate(), ShouldBeNil)

		svc, err := service.New(service.FromConfig(cfg, nil)...)
		So(err, ShouldBeNil)
		defer svc.Stop(ctx)

		Convey("Then the roster and ceilings follow the configuration", func() {
			v, err := svc.CheckPlayer(ctx, "Aryna Sabalenka")
			So(err, ShouldBeNil)
			So(v.Details.Source, ShouldEqual, model.SourceRoster)
			So(svc.GetStats(ctx).Limits.Players, ShouldEqual, 3)

			_, err = svc.CheckPlayersBulk(ctx, []string{"a b", "c d", "e f", "g h"})
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})
	})

	Convey("Given the http roster source kind", t, func() {
		cfg := config.New(context.Background())

		Convey("Then a scraper is built", func() {
			_, ok := service.RosterSource(cfg, nil).(*source.HTTPSource)
			So(ok, ShouldBeTrue)
		})
	})
}

func TestService_FromEnvironment(t *testing.T) {
	Convey("Given roster names configured through the environment", t, func() {
		t.Setenv("TOURCHECK_CACHE_STORE", "memory")
		t.Setenv("TOURCHECK_ROSTER_SOURCE", "static")
		t.Setenv("TOURCHECK_ROSTER_STATIC_NAMES", "Serena Williams,Coco Gauff")
		ctx := context.Background()

		cfg, err := config.Load(ctx)
		So(err, ShouldBeNil)
		svc, err := service.New(service.FromConfig(cfg, nil)...)
		So(err, ShouldBeNil)
		defer svc.Stop(ctx)

		Convey("Then each listed name is a separate roster entry", func() {
			for _, name := range []string{"Serena Williams", "Coco Gauff"} {
				v, err := svc.CheckPlayer(ctx, name)
				So(err, ShouldBeNil)
				So(v.Details.Source, ShouldEqual, model.SourceRoster)
			}
			So(svc.GetStats(ctx).Roster.Size, ShouldEqual, 2)
		})
	})
}

type closeCountingStore struct {
	repository.Store
	closes atomic.Int32
}

func (s *closeCountingStore) Close() error {
	if s.closes.Add(1) > 1 {
		return errors.New("store already closed")
	}
	return nil
}

func TestService_StopThenClose(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		ctx := context.Background()
		st := &closeCountingStore{Store: repository.NewMemoryStore()}
		svc, _, _ := newService(t, service.WithStore(st))

		Convey("When it is stopped and then closed", func() {
			svc.Stop(ctx)
			err := svc.Close()

			Convey("Then the store is closed once and Close reports no error", func() {
				So(err, ShouldBeNil)
				So(st.closes.Load(), ShouldEqual, 1)
			})
		})
	})
}
