package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRun(t *testing.T) {
	Convey("Given a list of items", t, func() {
		ctx := context.Background()
		items := []int{1, 2, 3, 4, 5, 6, 7}

		Convey("When run in batches of three", func() {
			var (
				mu       sync.Mutex
				inFlight int
				peak     int
			)
			out := Run(ctx, Config{Size: 3, Pause: 5 * time.Millisecond, Name: "test"}, items,
				func(_ context.Context, n int) (int, error) {
					mu.Lock()
					inFlight++
					peak = max(peak, inFlight)
					mu.Unlock()
					time.Sleep(2 * time.Millisecond)
					mu.Lock()
					inFlight--
					mu.Unlock()
					return n * 10, nil
				})

			Convey("Then results keep input order and concurrency stays within a batch", func() {
				So(len(out), ShouldEqual, len(items))
				for i, r := range out {
					So(r.Err, ShouldBeNil)
					So(r.Value, ShouldEqual, items[i]*10)
				}
				So(peak, ShouldBeLessThanOrEqualTo, 3)
			})
		})

		Convey("When pauses are configured", func() {
			start := time.Now()
			Run(ctx, Config{Size: 2, Pause: 20 * time.Millisecond}, []int{1, 2, 3, 4, 5},
				func(context.Context, int) (struct{}, error) { return struct{}{}, nil })

			Convey("Then there is one pause between each pair of batches", func() {
				So(time.Since(start), ShouldBeGreaterThanOrEqualTo, 40*time.Millisecond)
			})
		})

		Convey("When some items fail or panic", func() {
			out := Run(ctx, Config{Size: 3}, items, func(_ context.Context, n int) (int, error) {
				switch n {
				case 2:
					return 0, errors.New("lookup failed")
				case 5:
					panic("bad item")
				}
				return n, nil
			})

			Convey("Then failures stay isolated to their item", func() {
				So(out[1].Err, ShouldNotBeNil)
				So(errors.Is(out[4].Err, ErrItemPanic), ShouldBeTrue)
				So(out[0].Value, ShouldEqual, 1)
				So(out[6].Value, ShouldEqual, 7)
				So(out[6].Err, ShouldBeNil)
			})
		})

		Convey("When the context is cancelled after the first batch", func() {
			cctx, cancel := context.WithCancel(ctx)
			var calls atomic.Int32
			out := Run(cctx, Config{Size: 2, Pause: time.Second}, items, func(context.Context, int) (int, error) {
				if calls.Add(1) == 2 {
					cancel()
				}
				return 1, nil
			})

			Convey("Then remaining items carry the context error and are not processed", func() {
				So(calls.Load(), ShouldEqual, 2)
				So(out[0].Err, ShouldBeNil)
				So(out[1].Err, ShouldBeNil)
				for _, r := range out[2:] {
					So(errors.Is(r.Err, context.Canceled), ShouldBeTrue)
				}
			})
		})

		Convey("When the size is not positive", func() {
			out := Run(ctx, Config{}, []string{"a", "b"}, func(_ context.Context, s string) (string, error) { return s + s, nil })
			So(out[1].Value, ShouldEqual, "bb")
		})

		Convey("When there are no items", func() {
			So(Run(ctx, Config{Size: 3}, []int{}, func(context.Context, int) (int, error) { return 0, nil }), ShouldBeEmpty)
		})
	})
}
