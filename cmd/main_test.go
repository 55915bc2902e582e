package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/tourcheck/internal/adapters/http/api"
	"github.com/okian/tourcheck/internal/adapters/http/swagger"
	app "github.com/okian/tourcheck/internal/app"
	"github.com/okian/tourcheck/internal/config"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given a static-roster configuration", t, func() {
		setEnv(t, map[string]string{
			"TOURCHECK_CACHE_STORE":         "memory",
			"TOURCHECK_ROSTER_SOURCE":       "static",
			"TOURCHECK_ROSTER_STATIC_NAMES": "Serena Williams,Coco Gauff",
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg, err := config.Load(ctx)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When the service and routes are wired as in main", func() {
			svc, err := app.New(app.FromConfig(cfg, nil)...)
			convey.So(err, convey.ShouldBeNil)
			defer svc.Stop(context.Background())
			convey.So(svc.Start(ctx), convey.ShouldBeNil)

			mux := http.NewServeMux()
			swagger.Register(ctx, mux)
			api.NewServer(svc).Register(ctx, mux)

			convey.Convey("Then a rostered player is eligible over HTTP", func() {
				req := httptest.NewRequest(http.MethodPost, api.Prefix+"/check-player",
					strings.NewReader(`{"playerName":"Coco Gauff"}`))
				rr := httptest.NewRecorder()
				mux.ServeHTTP(rr, req)
				convey.So(rr.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(rr.Body.String(), convey.ShouldContainSubstring, `"isEligible":true`)
			})

			convey.Convey("Then the docs are served", func() {
				rr := httptest.NewRecorder()
				mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody))
				convey.So(rr.Code, convey.ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When the system metrics updater runs until cancelled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})

		convey.Convey("When the service metrics updater runs until cancelled", func() {
			svc, err := app.New()
			convey.So(err, convey.ShouldBeNil)
			defer svc.Stop(context.Background())

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("When system metrics are sampled", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given an invalid configuration", t, func() {
		t.Setenv("TOURCHECK_ROSTER_SOURCE", "carrier-pigeon")

		convey.Convey("Then run exits non-zero before serving", func() {
			convey.So(run(), convey.ShouldEqual, 1)
		})
	})

	convey.Convey("Given an empty listen address", t, func() {
		t.Setenv("TOURCHECK_ADDR", "")
		_ = os.Unsetenv("TOURCHECK_CONFIG")

		convey.Convey("Then configuration loading fails", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}
