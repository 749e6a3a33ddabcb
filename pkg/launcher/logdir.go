package launcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// LogDir is a directory created at most once and shared by every helper using it.
// Each dump gets its own file, so concurrent writers never need a lock.
type LogDir struct {
	once     sync.Once
	override string
	path     string
	err      error
}

func NewLogDir(override string) *LogDir {
	return &LogDir{override: override}
}

var (
	sharedLogDir     *LogDir
	sharedLogDirOnce sync.Once
)

// SharedLogDir returns the process-wide log directory. The override of the first
// caller wins.
func SharedLogDir(override string) *LogDir {
	sharedLogDirOnce.Do(func() {
		sharedLogDir = NewLogDir(override)
	})
	return sharedLogDir
}

// Path creates the directory on first use and returns it.
func (d *LogDir) Path() (string, error) {
	d.once.Do(func() {
		d.path = d.override
		if d.path == "" {
			d.path = filepath.Join(os.TempDir(), "asset-integration-"+uuid.NewString()[:8])
		}
		if err := os.MkdirAll(d.path, 0o755); err != nil {
			d.err = fmt.Errorf("failed to create log directory %s: %w", d.path, err)
		}
	})
	return d.path, d.err
}

// Create opens a new uniquely named file in the directory.
func (d *LogDir) Create(prefix string) (*os.File, error) {
	dir, err := d.Path()
	if err != nil {
		return nil, err
	}
	return os.CreateTemp(dir, prefix+"*.log")
}
