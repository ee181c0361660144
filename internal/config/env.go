package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const ENV_FILE = ".env"

// loadEnv applies the .env file found in o.Root. Values set on the command
// line or in the process environment are applied later by Apply and win.
func loadEnv(o *Options) error {
	vars, err := godotenv.Read(filepath.Join(o.Root, ENV_FILE))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("invalid %s: %w", ENV_FILE, err)
	}
	return env(o, vars)
}

func env(o *Options, vars map[string]string) error {
	if v, ok := vars[ENV_LOG_LEVEL]; ok {
		o.LogLevel = v
	}
	if v, ok := vars[ENV_SOURCE_MAPS]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", ENV_SOURCE_MAPS, err)
		}
		o.SourceMaps = b
	}
	if v, ok := vars[ENV_DART_SASS]; ok {
		o.Styles.DartSass = v
	}
	if v, ok := vars[ENV_LISTEN]; ok {
		o.Server.Listen = v
	}
	if v, ok := vars[ENV_PORT]; ok {
		o.Server.Listen = ":" + v
	}
	if v, ok := vars[ENV_MINIFY_HTML]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", ENV_MINIFY_HTML, err)
		}
		o.Server.MinifyHTML = b
	}
	if v, ok := vars[ENV_DEBOUNCE]; ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", ENV_DEBOUNCE, err)
		}
		o.Debounce = d
	}
	return nil
}
