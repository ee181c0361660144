package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

type configKey struct{}

func Get(ctx context.Context) *Options {
	return ctx.Value(configKey{}).(*Options)
}

func With(ctx context.Context, o *Options) context.Context {
	return context.WithValue(ctx, configKey{}, o)
}

// Load reads FILE and then ENV_FILE from root on top of Defaults. A project
// without them uses the defaults. Styles without plugins get defaultPlugins.
// All paths in the returned options are absolute.
func Load(root string) (*Options, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	o := Defaults()
	b, err := os.ReadFile(filepath.Join(root, FILE))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.UnmarshalStrict(b, o); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", FILE, err)
		}
	}
	o.Root = root
	if o.Styles.Plugins == nil {
		o.Styles.Plugins = defaultPlugins(root)
	}
	if err := loadEnv(o); err != nil {
		return nil, err
	}
	if err := validate(o); err != nil {
		return nil, err
	}
	o.resolve()
	return o, nil
}

// defaultPlugins prefixes vendor properties. Projects with a TAILWIND_CONFIG
// in root run tailwind first.
func defaultPlugins(root string) []Plugin {
	prefix := Plugin{Name: "prefix", Targets: []string{"chrome58", "firefox57", "safari11", "edge16"}}
	if _, err := os.Stat(filepath.Join(root, TAILWIND_CONFIG)); err == nil {
		return []Plugin{{Name: "tailwind", Config: TAILWIND_CONFIG}, prefix}
	}
	return []Plugin{prefix}
}

func validate(o *Options) error {
	seen := map[string]struct{}{}
	for _, c := range o.Classes() {
		if c.Name == "" {
			return errors.New("extension class without a name")
		}
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("duplicate extension class %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		if c.Source == "" || c.Output == "" {
			return fmt.Errorf("extension class %q needs both source and output", c.Name)
		}
		if c.SourceExt == "" || c.OutputExt == "" {
			return fmt.Errorf("extension class %q needs both source_ext and output_ext", c.Name)
		}
	}
	for _, g := range o.Watch {
		if len(g.Globs) == 0 {
			return fmt.Errorf("watch group %q has no globs", g.Name)
		}
	}
	return nil
}

func (o *Options) resolve() {
	o.Styles.Source = resolve(o.Root, o.Styles.Source)
	o.Styles.Output = resolve(o.Root, o.Styles.Output)
	for i := range o.Styles.IncludePaths {
		o.Styles.IncludePaths[i] = resolve(o.Root, o.Styles.IncludePaths[i])
	}
	for i := range o.Styles.Plugins {
		if o.Styles.Plugins[i].Config != "" {
			o.Styles.Plugins[i].Config = resolve(o.Root, o.Styles.Plugins[i].Config)
		}
	}
	o.Scripts.Source = resolve(o.Root, o.Scripts.Source)
	o.Scripts.Output = resolve(o.Root, o.Scripts.Output)
	o.Inject.Target = resolve(o.Root, o.Inject.Target)
	if o.Inject.IgnorePath != "" {
		o.Inject.IgnorePath = resolve(o.Root, o.Inject.IgnorePath)
	}
	o.Server.Public = resolve(o.Root, o.Server.Public)
	o.Server.Dist = resolve(o.Root, o.Server.Dist)
	o.Server.Views = resolve(o.Root, o.Server.Views)
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, filepath.Clean(path))
}
