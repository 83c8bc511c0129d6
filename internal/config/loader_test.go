package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/pulse/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"ACTIVITY_CONFIG",
	"ACTIVITY_ADDR",
	"ACTIVITY_REDIS_ADDR",
	"ACTIVITY_GITHUB_TOKEN",
	"ACTIVITY_GITHUB_USERNAME",
	"ACTIVITY_STRAVA_PAGES_PER_SECOND",
	"ACTIVITY_UPSTREAM_TIMEOUT_MS",
	"ACTIVITY_RATE_LIMIT_MAX",
	"ACTIVITY_TRUST_PROXY",
	"ACTIVITY_OSRS_API_KEY",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.GithubToken, convey.ShouldBeEmpty)
				convey.So(cfg.RateLimitMax, convey.ShouldEqual, 60)
				convey.So(cfg.TrustProxy, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("ACTIVITY_ADDR", ":9090")
			_ = os.Setenv("ACTIVITY_REDIS_ADDR", "localhost:6379")
			_ = os.Setenv("ACTIVITY_GITHUB_TOKEN", "ghp_x")
			_ = os.Setenv("ACTIVITY_STRAVA_PAGES_PER_SECOND", "2.5")
			_ = os.Setenv("ACTIVITY_RATE_LIMIT_MAX", "0")
			_ = os.Setenv("ACTIVITY_TRUST_PROXY", "true")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "localhost:6379")
				convey.So(cfg.GithubToken, convey.ShouldEqual, "ghp_x")
				convey.So(cfg.StravaPagesPerSecond, convey.ShouldEqual, 2.5)
				convey.So(cfg.RateLimitMax, convey.ShouldEqual, 0)
				convey.So(cfg.TrustProxy, convey.ShouldBeTrue)
				convey.So(cfg.GithubUsername, convey.ShouldEqual, "austinmrobinson")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			path := filepath.Join(t.TempDir(), "config.yaml")
			yaml := "addr: \":7070\"\ngithub_username: octocat\nupstream_timeout_ms: 2500\n"
			convey.So(os.WriteFile(path, []byte(yaml), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("ACTIVITY_CONFIG", path)
			_ = os.Setenv("ACTIVITY_GITHUB_USERNAME", "from-env")

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values apply and env wins over the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.UpstreamTimeoutMS, convey.ShouldEqual, 2500)
				convey.So(cfg.GithubUsername, convey.ShouldEqual, "from-env")
			})
		})

		convey.Convey("When the YAML file does not exist", func() {
			_ = os.Setenv("ACTIVITY_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a value fails validation", func() {
			_ = os.Setenv("ACTIVITY_UPSTREAM_TIMEOUT_MS", "-1")
			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestLoadDotEnv(t *testing.T) {
	convey.Convey("Given .env files", t, func() {
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		dir := t.TempDir()
		local := filepath.Join(dir, ".env.local")
		shared := filepath.Join(dir, ".env")
		convey.So(os.WriteFile(local, []byte("ACTIVITY_GITHUB_TOKEN=local\n"), 0o600), convey.ShouldBeNil)
		convey.So(os.WriteFile(shared, []byte("ACTIVITY_GITHUB_TOKEN=shared\nACTIVITY_OSRS_API_KEY=wom\n"), 0o600), convey.ShouldBeNil)

		err := config.LoadDotEnv(local, shared, filepath.Join(dir, "absent.env"))

		convey.Convey("Then earlier files win and missing files are skipped", func() {
			convey.So(err, convey.ShouldBeNil)
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.GithubToken, convey.ShouldEqual, "local")
			convey.So(cfg.OsrsAPIKey, convey.ShouldEqual, "wom")
		})

		convey.Convey("Then variables already set are kept", func() {
			clearConfigEnvVars()
			_ = os.Setenv("ACTIVITY_GITHUB_TOKEN", "preset")
			convey.So(config.LoadDotEnv(shared), convey.ShouldBeNil)
			convey.So(os.Getenv("ACTIVITY_GITHUB_TOKEN"), convey.ShouldEqual, "preset")
		})
	})
}
