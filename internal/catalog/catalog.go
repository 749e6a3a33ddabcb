// Package catalog reads the assets file used by the asset-launcher command.
//
//	service: auth
//	assets_root: ./assets
//	assets:
//	  base: {}
//	  db:
//	    bootstrap: sync-db
//	  confd:
//	    service: confd
//	    asset: base
//	    assets_root: ./confd-assets
//
// Every entry inherits the top-level service, assets root and bootstrap service. The
// key of an entry is its asset name unless the entry sets one.
package catalog

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/creasty/defaults"
	"github.com/spf13/viper"

	srvErrors "github.com/kubev2v/asset-launcher/pkg/errors"
	"github.com/kubev2v/asset-launcher/pkg/launcher"
)

type Catalog struct {
	Service    string                    `mapstructure:"service"`
	AssetsRoot string                    `mapstructure:"assets_root"`
	Bootstrap  string                    `mapstructure:"bootstrap"`
	Assets     map[string]launcher.Asset `mapstructure:"assets"`

	dir string
}

// Load reads a catalog file. Relative assets roots are resolved against the directory
// of the file.
func Load(path string) (*Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read assets file %s: %w", path, err)
	}
	return FromViper(v, filepath.Dir(path))
}

func FromViper(v *viper.Viper, dir string) (*Catalog, error) {
	c := &Catalog{dir: dir}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to decode assets file: %w", err)
	}
	return c, nil
}

// Names returns the asset names in lexical order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Assets))
	for name := range c.Assets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Asset returns the fully resolved asset registered under name.
func (c *Catalog) Asset(name string) (launcher.Asset, error) {
	a, ok := c.Assets[name]
	if !ok {
		return launcher.Asset{}, srvErrors.NewConfigurationError("assets", fmt.Sprintf("unknown asset %q", name))
	}
	if a.Name == "" {
		a.Name = name
	}
	if a.Service == "" {
		a.Service = c.Service
	}
	if a.Root == "" {
		a.Root = c.AssetsRoot
	}
	if a.Bootstrap == "" {
		a.Bootstrap = c.Bootstrap
	}
	if a.Root != "" && !filepath.IsAbs(a.Root) {
		a.Root = filepath.Join(c.dir, a.Root)
	}
	if err := defaults.Set(&a); err != nil {
		return launcher.Asset{}, err
	}
	return a, a.Validate()
}

// Resolve returns the assets registered under names, or every asset when names is empty.
func (c *Catalog) Resolve(names ...string) ([]launcher.Asset, error) {
	if len(names) == 0 {
		names = c.Names()
	}
	assets := make([]launcher.Asset, 0, len(names))
	for _, name := range names {
		a, err := c.Asset(name)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, nil
}
