package test

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/kubev2v/asset-launcher/pkg/engine"
	"github.com/kubev2v/asset-launcher/pkg/runner"
)

// EngineCall is one operation received by FakeEngine.
type EngineCall struct {
	Op   string
	ID   string
	Args []string
}

// FakeEngine implements engine.Engine over an in-memory set of containers.
type FakeEngine struct {
	mu         sync.Mutex
	Containers map[string]*engine.ContainerInfo
	ExecResult runner.Result
	calls      []EngineCall
	failures   map[string]error
}

var _ engine.Engine = (*FakeEngine)(nil)

func NewFakeEngine() *FakeEngine {
	return &FakeEngine{Containers: map[string]*engine.ContainerInfo{}}
}

// AddContainer registers a running container publishing internal->host tcp ports.
func (f *FakeEngine) AddContainer(id string, ports map[int]int) *FakeEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	info := &engine.ContainerInfo{
		ID:    id,
		Name:  id,
		State: engine.ContainerState{Status: "running", Running: true},
		Ports: map[string][]engine.PortBinding{},
	}
	for internal, host := range ports {
		key := fmt.Sprintf("%d/tcp", internal)
		info.Ports[key] = append(info.Ports[key], engine.PortBinding{HostIP: "0.0.0.0", HostPort: fmt.Sprintf("%d", host)})
	}
	f.Containers[id] = info
	return f
}

// Fail makes every later call of a control operation (start, stop, restart, kill,
// pause, unpause) return err. The call is still recorded.
func (f *FakeEngine) Fail(op string, err error) *FakeEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures == nil {
		f.failures = map[string]error{}
	}
	f.failures[op] = err
	return f
}

func (f *FakeEngine) Calls() []EngineCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// Ops returns the operation names in call order.
func (f *FakeEngine) Ops() []string {
	var ops []string
	for _, c := range f.Calls() {
		ops = append(ops, c.Op)
	}
	return ops
}

func (f *FakeEngine) record(op, id string, args ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, EngineCall{Op: op, ID: id, Args: args})
}

func (f *FakeEngine) container(id string) (*engine.ContainerInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.Containers[id]
	if !ok {
		return nil, fmt.Errorf("no such container: %s", id)
	}
	return c, nil
}

func (f *FakeEngine) setState(op, id string, mutate func(s *engine.ContainerState)) error {
	f.mu.Lock()
	failure := f.failures[op]
	f.mu.Unlock()
	if failure != nil {
		return failure
	}
	c, err := f.container(id)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	mutate(&c.State)
	return nil
}

func (f *FakeEngine) Inspect(_ context.Context, id string) (*engine.ContainerInfo, error) {
	f.record("inspect", id)
	return f.container(id)
}

func (f *FakeEngine) Start(_ context.Context, id string) error {
	f.record("start", id)
	return f.setState("start", id, func(s *engine.ContainerState) { s.Running, s.Status = true, "running" })
}

func (f *FakeEngine) Stop(_ context.Context, id string, timeout time.Duration) error {
	f.record("stop", id, timeout.String())
	return f.setState("stop", id, func(s *engine.ContainerState) { s.Running, s.Status = false, "exited" })
}

func (f *FakeEngine) Restart(_ context.Context, id string) error {
	f.record("restart", id)
	return f.setState("restart", id, func(s *engine.ContainerState) { s.Running, s.Status = true, "running" })
}

func (f *FakeEngine) Kill(_ context.Context, id string, signal string) error {
	f.record("kill", id, signal)
	return f.setState("kill", id, func(s *engine.ContainerState) { s.Running, s.Status = false, "exited" })
}

func (f *FakeEngine) Pause(_ context.Context, id string) error {
	f.record("pause", id)
	return f.setState("pause", id, func(s *engine.ContainerState) { s.Paused, s.Status = true, "paused" })
}

func (f *FakeEngine) Unpause(_ context.Context, id string) error {
	f.record("unpause", id)
	return f.setState("unpause", id, func(s *engine.ContainerState) { s.Paused, s.Status = false, "running" })
}

func (f *FakeEngine) Exec(_ context.Context, id string, command []string, privileged bool) (runner.Result, error) {
	args := slices.Clone(command)
	if privileged {
		args = append([]string{"--privileged"}, args...)
	}
	f.record("exec", id, args...)
	return f.ExecResult, nil
}

func (f *FakeEngine) CopyTo(_ context.Context, id string, src, dst string) (runner.Result, error) {
	f.record("copy_to", id, src, dst)
	return runner.Result{}, nil
}

func (f *FakeEngine) CopyFrom(_ context.Context, id string, src, dst string) (runner.Result, error) {
	f.record("copy_from", id, src, dst)
	return runner.Result{}, nil
}

func (f *FakeEngine) Logs(_ context.Context, id string, since string) (runner.Result, error) {
	f.record("logs", id, since)
	return runner.Result{Stdout: []byte("line one\n\tcontinued\nline two")}, nil
}
