package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/rosterfix/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.InputDir, convey.ShouldEqual, "input")
				convey.So(cfg.Seed, convey.ShouldEqual, 0)
				convey.So(cfg.Audit, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("ROSTERFIX_INPUT_DIR", "/data/in")
			_ = os.Setenv("ROSTERFIX_WORKER_COUNT", "16")
			_ = os.Setenv("ROSTERFIX_SEED", "1234")
			_ = os.Setenv("ROSTERFIX_AUDIT", "false")
			_ = os.Setenv("ROSTERFIX_SOCK_MAX", "3")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.InputDir, convey.ShouldEqual, "/data/in")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.Seed, convey.ShouldEqual, 1234)
				convey.So(cfg.Audit, convey.ShouldBeFalse)
				convey.So(cfg.SockMax, convey.ShouldEqual, 3)
				convey.So(cfg.OutputDir, convey.ShouldEqual, "output")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
log_level: debug
input_dir: ./rosters
logic_dir: ./rules
worker_count: 4
seed: 99
equipment: false
metrics_textfile: /tmp/rosterfix.prom
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("ROSTERFIX_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep defaults for missing keys", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.InputDir, convey.ShouldEqual, "./rosters")
				convey.So(cfg.LogicDir, convey.ShouldEqual, "./rules")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
				convey.So(cfg.Seed, convey.ShouldEqual, 99)
				convey.So(cfg.Equipment, convey.ShouldBeFalse)
				convey.So(cfg.MetricsTextfile, convey.ShouldEqual, "/tmp/rosterfix.prom")
				convey.So(cfg.OutputDir, convey.ShouldEqual, "output")
				convey.So(cfg.HelmetValue, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile("worker_count: 4\nseed: 99\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("ROSTERFIX_CONFIG", tmpFile)
			_ = os.Setenv("ROSTERFIX_SEED", "7")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
				convey.So(cfg.Seed, convey.ShouldEqual, 7)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("ROSTERFIX_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("ROSTERFIX_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("ROSTERFIX_WORKER_COUNT", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an empty output dir", func() {
			_ = os.Setenv("ROSTERFIX_OUTPUT_DIR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "output_dir must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a negative sock max", func() {
			_ = os.Setenv("ROSTERFIX_SOCK_MAX", "-1")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestLoadDotEnv(t *testing.T) {
	convey.Convey("Given a dotenv file", t, func() {
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		path := createTempConfigFile("ROSTERFIX_SEED=55\nROSTERFIX_OUTPUT_DIR=/tmp/out\n")
		defer func() { _ = os.Remove(path) }()

		convey.Convey("When it is loaded before the config", func() {
			_ = os.Setenv("ROSTERFIX_OUTPUT_DIR", "/already/set")
			err := config.LoadDotEnv(path)
			cfg, loadErr := config.Load(context.Background())

			convey.Convey("Then its variables reach the config without overriding the environment", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(loadErr, convey.ShouldBeNil)
				convey.So(cfg.Seed, convey.ShouldEqual, 55)
				convey.So(cfg.OutputDir, convey.ShouldEqual, "/already/set")
			})
		})

		convey.Convey("When the file does not exist", func() {
			err := config.LoadDotEnv("/non/existent/.env")

			convey.Convey("Then nothing happens", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"ROSTERFIX_CONFIG",
		"ROSTERFIX_INPUT_DIR",
		"ROSTERFIX_OUTPUT_DIR",
		"ROSTERFIX_WORKER_COUNT",
		"ROSTERFIX_SEED",
		"ROSTERFIX_AUDIT",
		"ROSTERFIX_SOCK_MAX",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "rosterfix-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
