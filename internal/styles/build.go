package styles

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/vinceanalytics/forge/internal/config"
	"github.com/vinceanalytics/forge/internal/source"
	"github.com/vinceanalytics/forge/internal/tools"
)

// Builder compiles every stylesheet entry of a class into its output tree.
type Builder struct {
	class      config.Class
	compiler   Compiler
	post       *PostProcessor
	sourceMaps bool
	log        *slog.Logger
}

func NewBuilder(class config.Class, c Compiler, post *PostProcessor, sourceMaps bool) *Builder {
	return &Builder{
		class:      class,
		compiler:   c,
		post:       post,
		sourceMaps: sourceMaps,
		log:        slog.Default().With("component", "styles"),
	}
}

// Build compiles all entries. A broken file does not stop the others; every
// failure is logged and returned joined.
func (b *Builder) Build(ctx context.Context) error {
	ls, err := source.Entries(b.class.Source, b.class.SourceExt)
	if err != nil {
		return err
	}
	var e []error
	for _, path := range ls {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.BuildFile(path); err != nil {
			b.log.ErrorContext(ctx, "failed building stylesheet", "path", path, "err", err)
			e = append(e, err)
		}
	}
	return errors.Join(e...)
}

// BuildFile compiles a single source file.
func (b *Builder) BuildFile(path string) error {
	out, err := source.Target(b.class.Source, b.class.Output, path, b.class.OutputExt)
	if err != nil {
		return err
	}
	r, err := b.compiler.Compile(path, b.sourceMaps)
	if err != nil {
		return err
	}
	data := r.CSS
	if b.post != nil {
		data, err = b.post.Process(data)
		if err != nil {
			return err
		}
	}
	if b.sourceMaps && len(r.SourceMap) > 0 && b.class.Companion != "" {
		name := out + b.class.Companion
		if _, err := tools.WriteFile(name, r.SourceMap); err != nil {
			return err
		}
		// the processed bytes may be shared with the post processor cache
		data = append(data[:len(data):len(data)], "\n/*# sourceMappingURL="+filepath.Base(name)+" */\n"...)
	}
	_, err = tools.WriteFile(out, data)
	return err
}
