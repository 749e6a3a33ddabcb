package config

import (
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"github.com/spf13/viper"

	srvErrors "github.com/kubev2v/asset-launcher/pkg/errors"
)

const EnvPrefix = "ASSET_TEST"

const (
	DockerModeManage = "manage"
	DockerModeIgnore = "ignore"

	EngineCLI = "cli"
	EngineAPI = "api"
)

// Environment holds the process-wide switches read from ASSET_TEST_* variables.
type Environment struct {
	Docker         string `mapstructure:"docker" default:"manage"`
	NoPull         bool   `mapstructure:"no_pull"`
	LogsEnabled    bool   `mapstructure:"logs_enabled"`
	LogsDir        string `mapstructure:"logs_dir"`
	Coverage       bool   `mapstructure:"coverage"`
	CoverageDir    string `mapstructure:"coverage_dir"`
	CoverageSource string `mapstructure:"coverage_source" default:"/tmp/coverage"`
	OverrideExtra  string `mapstructure:"override_extra"`
	KeepContainers bool   `mapstructure:"keep_containers"`
	Engine         string `mapstructure:"engine" default:"cli"`
	ComposeCommand string `mapstructure:"compose_command" default:"docker compose"`
	DockerBinary   string `mapstructure:"docker_binary" default:"docker"`
}

// NewEnvironment returns an Environment holding only default values.
func NewEnvironment() *Environment {
	env := &Environment{}
	// only fails on a non-pointer argument
	_ = defaults.Set(env)
	return env
}

// LoadEnvironment reads the environment variables on top of the defaults.
func LoadEnvironment() (*Environment, error) {
	return LoadEnvironmentFrom(viper.New())
}

func LoadEnvironmentFrom(v *viper.Viper) (*Environment, error) {
	env := NewEnvironment()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper knows about
	for key, value := range env.DebugMap() {
		v.SetDefault(key, value)
	}

	if err := v.Unmarshal(env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := env.Validate(); err != nil {
		return nil, err
	}
	return env, nil
}

func (e *Environment) Validate() error {
	switch e.Docker {
	case DockerModeManage, DockerModeIgnore:
	default:
		return srvErrors.NewConfigurationError("docker", fmt.Sprintf("must be %q or %q, got %q", DockerModeManage, DockerModeIgnore, e.Docker))
	}
	switch e.Engine {
	case EngineCLI, EngineAPI:
	default:
		return srvErrors.NewConfigurationError("engine", fmt.Sprintf("must be %q or %q, got %q", EngineCLI, EngineAPI, e.Engine))
	}
	if e.Coverage && e.CoverageDir == "" {
		return srvErrors.NewConfigurationError("coverage_dir", "required when coverage is enabled")
	}
	if len(e.ComposeArgv()) == 0 {
		return srvErrors.NewConfigurationError("compose_command", "empty")
	}
	return nil
}

func (e *Environment) ContainerManagementEnabled() bool {
	return e.Docker != DockerModeIgnore
}

func (e *Environment) ComposeArgv() []string {
	return strings.Fields(e.ComposeCommand)
}

// DebugMap returns the environment as a flat map suitable for structured logging.
func (e *Environment) DebugMap() map[string]any {
	return map[string]any{
		"docker":          e.Docker,
		"no_pull":         e.NoPull,
		"logs_enabled":    e.LogsEnabled,
		"logs_dir":        e.LogsDir,
		"coverage":        e.Coverage,
		"coverage_dir":    e.CoverageDir,
		"coverage_source": e.CoverageSource,
		"override_extra":  e.OverrideExtra,
		"keep_containers": e.KeepContainers,
		"engine":          e.Engine,
		"compose_command": e.ComposeCommand,
		"docker_binary":   e.DockerBinary,
	}
}
