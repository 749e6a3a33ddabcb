package launcher

import (
	"context"
	"fmt"

	"github.com/kubev2v/asset-launcher/pkg/runner"
)

type commandExecutor interface {
	ExecOrFail(ctx context.Context, command []string, opts ...CallOption) (runner.Result, error)
}

// FileSystem manipulates files inside a service container through exec.
type FileSystem struct {
	exec    commandExecutor
	service string
	// User and Group own the files created by CreateFile unless root is requested.
	User  string
	Group string
}

func (h *Helper) FileSystem(service string) *FileSystem {
	return &FileSystem{exec: h, service: service}
}

// CreateFile writes content to path. An empty mode leaves the default permissions.
func (f *FileSystem) CreateFile(ctx context.Context, path, content, mode string, root bool) error {
	write := fmt.Sprintf("cat <<'EOF' > %s\n%s\nEOF", path, content)
	if err := f.run(ctx, "sh", "-c", write); err != nil {
		return err
	}
	if mode != "" {
		if err := f.run(ctx, "chmod", mode, path); err != nil {
			return err
		}
	}
	if !root && f.User != "" {
		owner := f.User
		if f.Group != "" {
			owner += ":" + f.Group
		}
		if err := f.run(ctx, "chown", owner, path); err != nil {
			return err
		}
	}
	return nil
}

func (f *FileSystem) RemoveFile(ctx context.Context, path string) error {
	return f.run(ctx, "rm", "-f", path)
}

func (f *FileSystem) run(ctx context.Context, command ...string) error {
	_, err := f.exec.ExecOrFail(ctx, command, Service(f.service))
	return err
}
