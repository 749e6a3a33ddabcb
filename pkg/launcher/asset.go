package launcher

import (
	"fmt"
	"path/filepath"

	"github.com/kubev2v/asset-launcher/pkg/compose"
	srvErrors "github.com/kubev2v/asset-launcher/pkg/errors"
)

// Asset binds a service under test to a named set of compose files.
//
// Files are looked up under Root: docker-compose.yml and docker-compose.<Name>.override.yml.
type Asset struct {
	Service   string `mapstructure:"service"`
	Name      string `mapstructure:"asset"`
	Root      string `mapstructure:"assets_root"`
	Bootstrap string `mapstructure:"bootstrap" default:"sync"`
}

func (a Asset) Validate() error {
	switch {
	case a.Service == "":
		return srvErrors.NewConfigurationError("service", "required")
	case a.Name == "":
		return srvErrors.NewConfigurationError("asset", "required")
	case a.Root == "":
		return srvErrors.NewConfigurationError("assets_root", "required")
	case a.Bootstrap == "":
		return srvErrors.NewConfigurationError("bootstrap", "required")
	}
	return nil
}

func (a Asset) ProjectName() string {
	return compose.ProjectName(a.Service, a.Name)
}

// Files returns the compose files of the asset, followed by extra when set.
func (a Asset) Files(extra string) []string {
	files := []string{
		filepath.Join(a.Root, "docker-compose.yml"),
		filepath.Join(a.Root, fmt.Sprintf("docker-compose.%s.override.yml", a.Name)),
	}
	if extra != "" {
		files = append(files, extra)
	}
	return files
}
