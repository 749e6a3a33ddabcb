package infra

import (
	"context"

	"github.com/kubev2v/asset-launcher/pkg/authmock"
)

// authRunner runs the auth mock in-process whatever the infra mode.
type authRunner struct {
	srv *authmock.Server
}

func (a *authRunner) StartAuth(addr string) error {
	srv, err := authmock.NewServer(addr)
	if err != nil {
		return err
	}
	srv.Start()
	a.srv = srv
	return nil
}

func (a *authRunner) StopAuth(ctx context.Context) error {
	if a.srv == nil {
		return nil
	}
	return a.srv.Stop(ctx)
}

func (a *authRunner) AuthURL() string {
	if a.srv == nil {
		return ""
	}
	return a.srv.URL()
}
