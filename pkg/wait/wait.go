// Package wait gates a test on the readiness of the services of a launched asset.
//
// The launcher only waits for the bootstrap service to exit. Services that take longer
// to accept connections are awaited with a Strategy:
//
//	strategy := wait.PortsReady{Ports: []int{9497}, Timeout: 30 * time.Second}
//	if err := strategy.Wait(ctx, helper); err != nil {
//		return err
//	}
package wait

import (
	"context"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kubev2v/asset-launcher/pkg/launcher"
	"github.com/kubev2v/asset-launcher/pkg/until"
)

// PortResolver is implemented by launcher.Helper.
type PortResolver interface {
	ServicePort(ctx context.Context, internal int, opts ...launcher.CallOption) (int, error)
}

type Strategy interface {
	Wait(ctx context.Context, target PortResolver) error
}

// NoWait considers the asset ready as soon as it is launched.
type NoWait struct{}

func (NoWait) Wait(context.Context, PortResolver) error { return nil }

// PortsReady waits until every internal port of Service is published and accepts tcp
// connections on 127.0.0.1. An empty Service targets the service under test.
type PortsReady struct {
	Service  string
	Ports    []int
	Timeout  time.Duration
	Interval time.Duration
}

func (p PortsReady) Wait(ctx context.Context, target PortResolver) error {
	var opts []launcher.CallOption
	if p.Service != "" {
		opts = append(opts, launcher.Service(p.Service))
	}
	timeout := p.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	interval := p.Interval
	if interval == 0 {
		interval = 500 * time.Millisecond
	}

	for _, internal := range p.Ports {
		err := until.Assert(ctx, func() error {
			return dial(ctx, target, internal, opts)
		}, until.Timeout(timeout), until.Interval(interval), until.Message(p.message(internal)))
		if err != nil {
			return err
		}
	}
	return nil
}

func (p PortsReady) message(internal int) string {
	service := p.Service
	if service == "" {
		service = "service under test"
	}
	return service + ": port " + strconv.Itoa(internal) + " is not ready"
}

func dial(ctx context.Context, target PortResolver, internal int, opts []launcher.CallOption) error {
	port, err := target.ServicePort(ctx, internal, opts...)
	if err != nil {
		return err
	}

	var d net.Dialer
	dctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	conn, err := d.DialContext(dctx, "tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		zap.S().Named("wait").Debugw("port not ready", "internal", internal, "port", port, "error", err)
		return err
	}
	return conn.Close()
}

var (
	_ Strategy     = NoWait{}
	_ Strategy     = PortsReady{}
	_ PortResolver = (*launcher.Helper)(nil)
)
