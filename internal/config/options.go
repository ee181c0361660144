package config

import (
	"os"
	"time"

	"log/slog"

	"github.com/urfave/cli/v3"
)

const (
	FILE            = "forge.yaml"
	TAILWIND_CONFIG = "tailwind.config.js"

	STYLES_CLASS  = "styles"
	SCRIPTS_CLASS = "scripts"
)

// Environment variables backing the command line flags. They are read from
// the process and from the .env file in the project root.
const (
	ENV_LOG_LEVEL   = "FORGE_LOG_LEVEL"
	ENV_SOURCE_MAPS = "FORGE_SOURCE_MAPS"
	ENV_DART_SASS   = "FORGE_DART_SASS"
	ENV_LISTEN      = "FORGE_LISTEN"
	ENV_PORT        = "PORT"
	ENV_MINIFY_HTML = "FORGE_MINIFY_HTML"
	ENV_DEBOUNCE    = "FORGE_DEBOUNCE"
)

// Class describes one family of generated assets: where its sources live,
// where its outputs go and how output names map back to source names.
type Class struct {
	Name      string `yaml:"name"`
	Source    string `yaml:"source"`
	Output    string `yaml:"output"`
	SourceExt string `yaml:"source_ext"`
	OutputExt string `yaml:"output_ext"`
	// MinSuffix is inserted before OutputExt by minifiers, e.g. ".min" in
	// header.min.js.
	MinSuffix string `yaml:"min_suffix"`
	// Companion is appended to an output path to name its source map.
	Companion string `yaml:"companion"`
}

type Plugin struct {
	Name    string   `yaml:"name"`
	Bin     string   `yaml:"bin,omitempty"`
	Config  string   `yaml:"config,omitempty"`
	Targets []string `yaml:"targets,omitempty"`
}

type Styles struct {
	Class        `yaml:",inline"`
	DartSass     string   `yaml:"dart_sass"`
	IncludePaths []string `yaml:"include_paths"`
	Plugins      []Plugin `yaml:"plugins"`
	CacheSize    int      `yaml:"cache_size"`
}

type Scripts struct {
	Class  `yaml:",inline"`
	Target string `yaml:"target"`
	Bundle bool   `yaml:"bundle"`
}

type Inject struct {
	Target     string   `yaml:"target"`
	Assets     []string `yaml:"assets"`
	Relative   bool     `yaml:"relative"`
	IgnorePath string   `yaml:"ignore_path"`
}

type Page struct {
	Path  string `yaml:"path"`
	View  string `yaml:"view"`
	Title string `yaml:"title"`
}

type Server struct {
	Listen     string `yaml:"listen"`
	Public     string `yaml:"public"`
	Dist       string `yaml:"dist"`
	Views      string `yaml:"views"`
	Layout     string `yaml:"layout"`
	Pages      []Page `yaml:"pages"`
	MinifyHTML bool   `yaml:"minify_html"`
	Reload     bool   `yaml:"reload"`
}

// Group binds a set of watched globs to the tasks that run, in order, when
// any of them changes.
type Group struct {
	Name   string   `yaml:"name"`
	Globs  []string `yaml:"globs"`
	Tasks  []string `yaml:"tasks"`
	Reload bool     `yaml:"reload"`
}

type Options struct {
	Root       string        `yaml:"-"`
	LogLevel   string        `yaml:"log_level"`
	SourceMaps bool          `yaml:"source_maps"`
	Debounce   time.Duration `yaml:"debounce"`
	Styles     Styles        `yaml:"styles"`
	Scripts    Scripts       `yaml:"scripts"`
	Inject     Inject        `yaml:"inject"`
	Server     Server        `yaml:"server"`
	Watch      []Group       `yaml:"watch"`
}

// Classes returns the extension classes reconciled on every clean pass.
func (o *Options) Classes() []Class {
	return []Class{o.Styles.Class, o.Scripts.Class}
}

// Class returns the extension class with the given name.
func (o *Options) Class(name string) (Class, bool) {
	for _, c := range o.Classes() {
		if c.Name == name {
			return c, true
		}
	}
	return Class{}, false
}

func Defaults() *Options {
	return &Options{
		LogLevel:   "info",
		SourceMaps: true,
		Debounce:   100 * time.Millisecond,
		Styles: Styles{
			Class: Class{
				Name:      STYLES_CLASS,
				Source:    "src/scss",
				Output:    "dist/css",
				SourceExt: ".scss",
				OutputExt: ".css",
				Companion: ".map",
			},
			DartSass:  "sass",
			CacheSize: 256,
		},
		Scripts: Scripts{
			Class: Class{
				Name:      SCRIPTS_CLASS,
				Source:    "src/js",
				Output:    "dist/js",
				SourceExt: ".js",
				OutputExt: ".js",
				MinSuffix: ".min",
				Companion: ".map",
			},
			Target: "es2016",
			Bundle: true,
		},
		Inject: Inject{
			Target:   "src/index.html",
			Assets:   []string{"dist/css/**/*.css", "dist/js/**/*.min.js"},
			Relative: true,
		},
		Server: Server{
			Listen: ":5001",
			Public: "public",
			Dist:   "dist",
			Views:  "src/views",
			Layout: "layouts/main.html",
			Pages: []Page{
				{Path: "/", View: "index", Title: "GULP EXAMPLE"},
				{Path: "/smile", View: "smile", Title: "GULP EXAMPLE"},
			},
			Reload: true,
		},
		Watch: []Group{
			{
				Name:   STYLES_CLASS,
				Globs:  []string{"src/scss/**/*.scss"},
				Tasks:  []string{"clean:styles", "styles", "html"},
				Reload: true,
			},
			{
				Name:   SCRIPTS_CLASS,
				Globs:  []string{"src/js/**/*.js"},
				Tasks:  []string{"clean:scripts", "scripts", "html"},
				Reload: true,
			},
			{
				Name:   "views",
				Globs:  []string{"src/**/*.html", "public/**/*"},
				Reload: true,
			},
		},
	}
}

func Logger(level string) *slog.Logger {
	var lvl slog.Level
	lvl.UnmarshalText([]byte(level))
	return slog.New(slog.NewTextHandler(
		os.Stdout, &slog.HandlerOptions{
			Level: lvl,
		},
	))
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Category: "core",
			Name:     "log-level",
			Usage:    "log level, values are (debug,info,warn,error)",
			Value:    "info",
			Sources:  cli.EnvVars(ENV_LOG_LEVEL),
		},
		&cli.BoolFlag{
			Category: "core",
			Name:     "source-maps",
			Usage:    "write source maps next to compiled assets",
			Value:    true,
			Sources:  cli.EnvVars(ENV_SOURCE_MAPS),
		},
		&cli.StringFlag{
			Category: "styles",
			Name:     "dart-sass",
			Usage:    "path to the dart sass executable",
			Sources:  cli.EnvVars(ENV_DART_SASS),
		},
		&cli.StringFlag{
			Category: "server",
			Name:     "listen",
			Usage:    "http address the dev server listens to",
			Value:    ":5001",
			Sources:  cli.EnvVars(ENV_LISTEN),
		},
		&cli.StringFlag{
			Category: "server",
			Name:     "port",
			Usage:    "port the dev server listens to, overrides --listen",
			Sources:  cli.EnvVars(ENV_PORT),
		},
		&cli.BoolFlag{
			Category: "server",
			Name:     "minify-html",
			Usage:    "minify rendered html pages",
			Sources:  cli.EnvVars(ENV_MINIFY_HTML),
		},
		&cli.DurationFlag{
			Category: "watch",
			Name:     "debounce",
			Usage:    "window for coalescing file system events",
			Value:    100 * time.Millisecond,
			Sources:  cli.EnvVars(ENV_DEBOUNCE),
		},
	}
}

// Apply copies explicitly set flags over o.
func Apply(c *cli.Command, o *Options) {
	if c.IsSet("log-level") {
		o.LogLevel = c.String("log-level")
	}
	if c.IsSet("source-maps") {
		o.SourceMaps = c.Bool("source-maps")
	}
	if c.IsSet("dart-sass") {
		o.Styles.DartSass = c.String("dart-sass")
	}
	if c.IsSet("listen") {
		o.Server.Listen = c.String("listen")
	}
	if c.IsSet("port") {
		o.Server.Listen = ":" + c.String("port")
	}
	if c.IsSet("minify-html") {
		o.Server.MinifyHTML = c.Bool("minify-html")
	}
	if c.IsSet("debounce") {
		o.Debounce = c.Duration("debounce")
	}
}
