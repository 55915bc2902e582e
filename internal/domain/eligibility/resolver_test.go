package eligibility

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tourcheck/internal/domain/cache"
	"github.com/okian/tourcheck/internal/domain/inference"
	"github.com/okian/tourcheck/internal/domain/model"
	"github.com/okian/tourcheck/internal/domain/names"
)

type fakeRoster struct {
	members  map[string]bool
	refreshs atomic.Int32
}

func (f *fakeRoster) RefreshIfStale(context.Context) { f.refreshs.Add(1) }

func (f *fakeRoster) Contains(name string) bool { return f.members[names.Normalize(name).Full] }

type countingInferrer struct {
	inner model.InferenceResult
	calls atomic.Int32
}

func (c *countingInferrer) Infer(_ context.Context, _ string) model.InferenceResult {
	c.calls.Add(1)
	return c.inner
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string, any) bool { return false }
func (brokenCache) Set(context.Context, string, any) error {
	return errors.New("disk full")
}

func TestResolve(t *testing.T) {
	Convey("Given a resolver with an empty roster", t, func() {
		ctx := context.Background()
		c := cache.New()
		roster := &fakeRoster{members: map[string]bool{}}
		inf := &countingInferrer{inner: model.InferenceResult{Gender: model.GenderFemale, Confidence: 0.85, Source: "lexicon_en"}}
		r := New(c, roster, inf)

		Convey("When the name is invalid", func() {
			v := r.Resolve(ctx, "Serena")

			Convey("Then it is rejected without a lookup or cache write", func() {
				So(v.IsEligible, ShouldBeFalse)
				So(v.Confidence, ShouldEqual, 0)
				So(v.Reason, ShouldEqual, ReasonInvalidName)
				So(v.Details.Input, ShouldEqual, "Serena")
				So(inf.calls.Load(), ShouldEqual, 0)
				So(c.Stats(ctx).TotalEntries, ShouldEqual, 0)
			})
		})

		Convey("When no first name survives normalization", func() {
			v := r.Resolve(ctx, "Ωμέγα Άλφα")

			Convey("Then it is reported unparsable and not cached", func() {
				So(v.Reason, ShouldEqual, ReasonUnparsable)
				So(v.Confidence, ShouldEqual, 0)
				So(c.Stats(ctx).TotalEntries, ShouldEqual, 0)
			})
		})

		Convey("When inference decides", func() {
			v := r.Resolve(ctx, "Serena Williams")

			Convey("Then the verdict follows the inferred gender", func() {
				So(v.IsEligible, ShouldBeTrue)
				So(v.Confidence, ShouldEqual, 0.85)
				So(v.Reason, ShouldEqual, "Gender inference: female (lexicon_en)")
				So(v.Details.Source, ShouldEqual, model.SourceInference)
				So(v.Details.GenderDetection.Gender, ShouldEqual, model.GenderFemale)
				So(v.Details.Parsed.First, ShouldEqual, "serena")
				So(roster.refreshs.Load(), ShouldEqual, 1)
			})

			Convey("Then a second call is an identical cache hit", func() {
				again := r.Resolve(ctx, "  serena   WILLIAMS ")
				So(inf.calls.Load(), ShouldEqual, 1)
				So(again.IsEligible, ShouldEqual, v.IsEligible)
				So(again.Confidence, ShouldEqual, v.Confidence)
				So(again.Details.Source, ShouldEqual, v.Details.Source)
				So(again.Details.Cached, ShouldBeTrue)
				So(again.Reason, ShouldEqual, "Cached result: "+v.Reason)

				third := r.Resolve(ctx, "Serena Williams")
				So(third.Reason, ShouldEqual, again.Reason)
			})
		})

		Convey("When the player is on the roster", func() {
			roster.members["iga swiatek"] = true
			v := r.Resolve(ctx, "Iga Świątek")

			Convey("Then the roster wins over inference", func() {
				So(v.IsEligible, ShouldBeTrue)
				So(v.Confidence, ShouldEqual, 1.0)
				So(v.Reason, ShouldEqual, "official roster match")
				So(v.Details.Source, ShouldEqual, model.SourceRoster)
				So(v.Details.GenderDetection, ShouldBeNil)
				So(inf.calls.Load(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a cache that cannot store", t, func() {
		inf := &countingInferrer{inner: model.InferenceResult{Gender: model.GenderMale, Confidence: 0.9, Source: "frequency"}}
		r := New(brokenCache{}, &fakeRoster{}, inf)

		Convey("Then verdicts are still returned", func() {
			v := r.Resolve(context.Background(), "Rafael Nadal")
			So(v.IsEligible, ShouldBeFalse)
			So(v.Confidence, ShouldEqual, 0.9)
		})
	})
}

func TestOverride(t *testing.T) {
	Convey("Given a resolver whose inference says male", t, func() {
		ctx := context.Background()
		c := cache.New()
		inf := &countingInferrer{inner: model.InferenceResult{Gender: model.GenderMale, Confidence: 0.95, Source: "lexicon_other"}}
		at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		r := New(c, &fakeRoster{}, inf, WithClock(func() time.Time { return at }))

		So(r.Resolve(ctx, "Andrea Petkovic").IsEligible, ShouldBeFalse)

		Convey("When an override marks the player eligible", func() {
			ov, err := r.Override(ctx, "ANDREA petkovic", true, "<b>Confirmed</b> by tour office")
			So(err, ShouldBeNil)

			Convey("Then the override is recorded with its provenance", func() {
				So(ov.Confidence, ShouldEqual, 1.0)
				So(ov.Reason, ShouldEqual, "Confirmed by tour office")
				So(ov.Details.ManualOverride, ShouldBeTrue)
				So(ov.Details.Source, ShouldEqual, model.SourceManualOverride)
				So(ov.Details.Timestamp.Equal(at), ShouldBeTrue)
			})

			Convey("Then resolve returns it regardless of inference", func() {
				v := r.Resolve(ctx, "Andrea Petkovic")
				So(v.IsEligible, ShouldBeTrue)
				So(v.Confidence, ShouldEqual, 1.0)
				So(v.Details.ManualOverride, ShouldBeTrue)
				So(inf.calls.Load(), ShouldEqual, 1)
			})

			Convey("Then clearing the cache restores inference", func() {
				c.Clear(ctx)
				So(r.Resolve(ctx, "Andrea Petkovic").IsEligible, ShouldBeFalse)
			})
		})

		Convey("When the reason is blank", func() {
			ov, err := r.Override(ctx, "Coco Gauff", false, "  ")
			So(err, ShouldBeNil)
			So(ov.Reason, ShouldEqual, ReasonManualOverride)
		})

		Convey("When the reason is oversized", func() {
			ov, err := r.Override(ctx, "Coco Gauff", true, strings.Repeat("x", 800))
			So(err, ShouldBeNil)
			So(len(ov.Reason), ShouldEqual, 500)
		})

		Convey("When the name is blank", func() {
			_, err := r.Override(ctx, "   ", true, "")
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})

		Convey("When the name has no usable characters", func() {
			_, err := r.Override(ctx, "???", true, "")
			So(errors.Is(err, model.ErrUnresolvableName), ShouldBeTrue)
		})
	})

	Convey("Given a cache that cannot store", t, func() {
		r := New(brokenCache{}, &fakeRoster{}, &countingInferrer{})

		Convey("Then an override reports a persistence error", func() {
			_, err := r.Override(context.Background(), "Coco Gauff", true, "")
			So(errors.Is(err, model.ErrPersistence), ShouldBeTrue)
		})
	})
}

func TestResolveWithEmbeddedInference(t *testing.T) {
	Convey("Given the embedded inference data", t, func() {
		ctx := context.Background()
		c := cache.New()
		inf, err := inference.New(inference.WithCache(c))
		So(err, ShouldBeNil)
		r := New(c, &fakeRoster{}, inf)

		Convey("Then well-known players resolve by gender", func() {
			So(r.Resolve(ctx, "Serena Williams").IsEligible, ShouldBeTrue)
			So(r.Resolve(ctx, "Maria Sharapova").IsEligible, ShouldBeTrue)
			So(r.Resolve(ctx, "Rafael Nadal").IsEligible, ShouldBeFalse)
			So(r.Resolve(ctx, "Novak Djokovic").IsEligible, ShouldBeFalse)
		})
	})
}
