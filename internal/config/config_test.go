package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/fantasyfamily/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Store, convey.ShouldEqual, config.StoreFile)
			convey.So(cfg.StorePath, convey.ShouldNotBeEmpty)
			convey.So(cfg.SaveDebounce(), convey.ShouldEqual, 500*time.Millisecond)
			convey.So(cfg.SaveQueueSize, convey.ShouldEqual, 64)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.MaxFeedLimit, convey.ShouldEqual, 200)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_AllowedOrigins(t *testing.T) {
	convey.Convey("Given a comma-separated origin list", t, func() {
		cfg := config.New()
		cfg.CORSAllowedOrigins = " http://a.test , ,http://b.test"

		convey.So(cfg.AllowedOrigins(), convey.ShouldResemble, []string{"http://a.test", "http://b.test"})
	})

	convey.Convey("Given an empty origin list", t, func() {
		cfg := config.New()
		cfg.CORSAllowedOrigins = ""

		convey.So(cfg.AllowedOrigins(), convey.ShouldBeEmpty)
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("When the store is unknown", func() {
			cfg.Store = "redis"
			err := cfg.Validate()

			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "unknown store")
		})

		convey.Convey("When sqlite has no path", func() {
			cfg.Store = config.StoreSQLite
			cfg.StorePath = " "

			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When postgres has no DSN", func() {
			cfg.Store = config.StorePostgres

			convey.So(cfg.Validate(), convey.ShouldNotBeNil)

			cfg.DatabaseURL = "postgres://localhost/fantasy"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When the memory store is chosen no path is needed", func() {
			cfg.Store = config.StoreMemory
			cfg.StorePath = ""

			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When numeric limits are out of range", func() {
			cfg.SaveQueueSize = 0
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)

			cfg.SaveQueueSize = 1
			cfg.SaveDebounceMS = -1
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)

			cfg.SaveDebounceMS = 0
			cfg.MaxFeedLimit = 0
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})
	})
}
