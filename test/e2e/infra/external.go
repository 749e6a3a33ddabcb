package infra

import (
	"context"

	"github.com/kubev2v/asset-launcher/internal/config"
	"github.com/kubev2v/asset-launcher/pkg/launcher"
)

// ExternalInfraManager implements InfraManager for containers started out of band,
// e.g. with "asset-launcher up". Launch and Stop are no-ops, inspection still works.
type ExternalInfraManager struct {
	authRunner
	helper *launcher.Helper
}

func NewExternalInfraManager(asset launcher.Asset, env *config.Environment, opts ...launcher.Option) (*ExternalInfraManager, error) {
	unmanaged := *env
	unmanaged.Docker = config.DockerModeIgnore
	h, err := launcher.New(asset, append(opts, launcher.WithEnvironment(&unmanaged))...)
	if err != nil {
		return nil, err
	}
	return &ExternalInfraManager{helper: h}, nil
}

func (e *ExternalInfraManager) Launch(context.Context) error { return nil }
func (e *ExternalInfraManager) Stop(context.Context) error   { return nil }

func (e *ExternalInfraManager) Helper() *launcher.Helper {
	return e.helper
}
