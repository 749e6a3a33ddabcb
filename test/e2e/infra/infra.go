package infra

import (
	"context"

	"github.com/kubev2v/asset-launcher/pkg/launcher"
)

// InfraManager abstracts the lifecycle of the e2e asset.
// Compose-based: the launcher brings the asset up and down.
// External: no-op, the containers are managed out of band (ASSET_TEST_DOCKER=ignore).
type InfraManager interface {
	StartAuth(addr string) error
	StopAuth(ctx context.Context) error
	AuthURL() string
	Launch(ctx context.Context) error
	Stop(ctx context.Context) error
	Helper() *launcher.Helper
}

const (
	Service      = "web"
	InternalPort = 8080
)
