package infra

import (
	"context"

	"github.com/kubev2v/asset-launcher/pkg/launcher"
)

// ComposeInfraManager launches the asset with docker compose.
type ComposeInfraManager struct {
	authRunner
	helper *launcher.Helper
}

func NewComposeInfraManager(asset launcher.Asset, opts ...launcher.Option) (*ComposeInfraManager, error) {
	h, err := launcher.New(asset, opts...)
	if err != nil {
		return nil, err
	}
	return &ComposeInfraManager{helper: h}, nil
}

func (c *ComposeInfraManager) Launch(ctx context.Context) error {
	return c.helper.Launch(ctx)
}

func (c *ComposeInfraManager) Stop(ctx context.Context) error {
	return c.helper.Stop(ctx)
}

func (c *ComposeInfraManager) Helper() *launcher.Helper {
	return c.helper
}
