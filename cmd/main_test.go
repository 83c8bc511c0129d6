package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/okian/pulse/internal/config"
	"github.com/okian/pulse/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestNewApplication(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)

		convey.Convey("When no redis address is set", func() {
			a := newApplication(ctx, cfg, logger.Nop())
			defer a.Close()

			convey.Convey("Then caching is disabled and health says so", func() {
				convey.So(a.policy.Enabled(), convey.ShouldBeFalse)
				rec := httptest.NewRecorder()
				a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(rec.Body.String(), convey.ShouldContainSubstring, `"cache":"disabled"`)
			})

			convey.Convey("Then bad years are rejected before any upstream call", func() {
				rec := httptest.NewRecorder()
				a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/activity?year=1999", nil))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusBadRequest)
			})

			convey.Convey("Then OAuth bootstrap explains the missing client id", func() {
				rec := httptest.NewRecorder()
				a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/strava/auth", nil))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusInternalServerError)
			})
		})

		convey.Convey("When redis is reachable", func() {
			mr := miniredis.RunT(t)
			cfg.RedisAddr = mr.Addr()
			a := newApplication(ctx, cfg, logger.Nop())
			defer a.Close()

			convey.Convey("Then caching and the request budget are enabled", func() {
				convey.So(a.policy.Enabled(), convey.ShouldBeTrue)
				rec := httptest.NewRecorder()
				a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/activity/github?year=x", nil))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusBadRequest)
				convey.So(rec.Header().Get("X-RateLimit-Remaining"), convey.ShouldEqual, "59")
			})
		})
	})
}
