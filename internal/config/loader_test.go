package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	config "github.com/okian/charades/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	Convey("Given a clean environment", t, func() {
		for _, kv := range os.Environ() {
			if strings.HasPrefix(kv, "CHARADES_") {
				So(os.Unsetenv(strings.SplitN(kv, "=", 2)[0]), ShouldBeNil)
			}
		}

		ctx := context.Background()

		Convey("When loading without overrides", func() {
			cfg, err := config.Load(ctx)

			Convey("Then defaults come through", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":9080")
				So(cfg.StoreDriver, ShouldEqual, config.StoreDriverMemory)
			})
		})

		Convey("When environment variables override settings", func() {
			t.Setenv("CHARADES_ADDR", ":8123")
			t.Setenv("CHARADES_LOG_LEVEL", "debug")
			t.Setenv("CHARADES_QUEUE_SIZE", "64")

			cfg, err := config.Load(ctx)

			Convey("Then the overrides win", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":8123")
				So(cfg.LogLevel, ShouldEqual, "debug")
				So(cfg.QueueSize, ShouldEqual, 64)
			})
		})

		Convey("When a YAML file is provided", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			So(os.WriteFile(path, []byte("addr: \":7070\"\nstore_driver: sqlite\nstore_path: /tmp/test.db\n"), 0600), ShouldBeNil)
			t.Setenv("CHARADES_CONFIG", path)

			cfg, err := config.Load(ctx)

			Convey("Then file values layer over the defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":7070")
				So(cfg.StoreDriver, ShouldEqual, config.StoreDriverSQLite)
				So(cfg.StorePath, ShouldEqual, "/tmp/test.db")
			})

			Convey("And environment still beats the file", func() {
				t.Setenv("CHARADES_ADDR", ":6060")
				cfg, err := config.Load(ctx)
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":6060")
			})
		})

		Convey("When the config file does not exist", func() {
			t.Setenv("CHARADES_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(ctx)

			Convey("Then loading fails with a load error", func() {
				So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
			})
		})

		Convey("When the store driver is unknown", func() {
			t.Setenv("CHARADES_STORE_DRIVER", "postgres")

			_, err := config.Load(ctx)

			Convey("Then validation rejects it", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When the platform fee is out of range", func() {
			t.Setenv("CHARADES_PLATFORM_FEE_PERCENTAGE", "120")

			_, err := config.Load(ctx)

			Convey("Then validation rejects it", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})
	})
}
