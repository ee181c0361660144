package watch

import (
	"context"
	"fmt"

	"github.com/vinceanalytics/forge/internal/config"
	"github.com/vinceanalytics/forge/internal/tasks"
)

// Groups binds configured watch groups to tasks registered in r. reload is
// called after a group with reload enabled completes all its tasks.
func Groups(ls []config.Group, r *tasks.Registry, reload func()) ([]Group, error) {
	o := make([]Group, 0, len(ls))
	for _, c := range ls {
		if err := r.Check(c.Tasks...); err != nil {
			return nil, fmt.Errorf("watch group %q: %w", c.Name, err)
		}
		c := c
		o = append(o, Group{
			Name:  c.Name,
			Globs: c.Globs,
			Run: func(ctx context.Context) error {
				if err := r.Run(ctx, c.Tasks...); err != nil {
					return err
				}
				if c.Reload && reload != nil {
					reload()
				}
				return nil
			},
		})
	}
	return o, nil
}
