// Package config defines the process-wide environment of the asset launcher.
//
// The environment is a flat set of switches read once from ASSET_TEST_* variables.
// Defaults come from struct tags (creasty/defaults) and values are resolved through
// viper with AutomaticEnv, so any key can also be provided by a viper config source.
//
// # Environment Variables
//
//	┌─────────────────────────────┬─────────────────┬───────────────────────────────────────────┐
//	│ Variable                    │ Default         │ Description                               │
//	├─────────────────────────────┼─────────────────┼───────────────────────────────────────────┤
//	│ ASSET_TEST_DOCKER           │ "manage"        │ "ignore" disables container management    │
//	│ ASSET_TEST_NO_PULL          │ false           │ Skip pulling images before launch         │
//	│ ASSET_TEST_LOGS_ENABLED     │ false           │ Dump compose logs on teardown             │
//	│ ASSET_TEST_LOGS_DIR         │ ""              │ Log directory (random /tmp dir if empty)  │
//	│ ASSET_TEST_COVERAGE         │ false           │ Collect coverage files on teardown        │
//	│ ASSET_TEST_COVERAGE_DIR     │ ""              │ Destination of coverage files (required)  │
//	│ ASSET_TEST_COVERAGE_SOURCE  │ "/tmp/coverage" │ Coverage path inside the container        │
//	│ ASSET_TEST_OVERRIDE_EXTRA   │ ""              │ Extra compose file appended to -f list    │
//	│ ASSET_TEST_KEEP_CONTAINERS  │ false           │ Do not remove containers after teardown   │
//	│ ASSET_TEST_ENGINE           │ "cli"           │ Engine backend: "cli" or "api"            │
//	│ ASSET_TEST_COMPOSE_COMMAND  │ "docker compose"│ Compose command prefix                    │
//	│ ASSET_TEST_DOCKER_BINARY    │ "docker"        │ Engine CLI binary                         │
//	└─────────────────────────────┴─────────────────┴───────────────────────────────────────────┘
//
// Boolean variables accept the usual strconv spellings ("1", "true").
//
// # Validation
//
// LoadEnvironment validates the result and returns a ConfigurationError when:
//   - ASSET_TEST_DOCKER is neither "manage" nor "ignore"
//   - ASSET_TEST_ENGINE is neither "cli" nor "api"
//   - coverage is enabled without ASSET_TEST_COVERAGE_DIR
//   - the compose command is empty
//
// # Usage Example
//
//	env, err := config.LoadEnvironment()
//	if err != nil {
//	    return err
//	}
//	zap.S().Debugw("environment loaded", "env", env.DebugMap())
package config
