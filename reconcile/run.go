// Package reconcile applies the declarative quality configuration to
// Sonarr instances: fetch the remote state, diff it against the local
// document, and issue only the necessary create/update/delete calls.
package reconcile

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentInstances bounds how many instances reconcile at once.
const maxConcurrentInstances = 4

// Instance bundles the reconcilers for one Sonarr instance.
type Instance struct {
	Name        string
	Definitions *Definitions
	Profiles    *Profiles
}

// Sync reconciles the instance: curated defaults are rendered first, then
// quality definitions, then quality profiles. The whole pass is sequential
// for one instance; two concurrent passes against the same instance are
// not safe (the synthesized group IDs are unstable across passes).
func (i *Instance) Sync(ctx context.Context) (bool, error) {
	if err := i.Definitions.Render(); err != nil {
		return false, err
	}

	definitionsChanged, err := i.Definitions.Sync(ctx)
	if err != nil {
		return definitionsChanged, err
	}

	// Profile encoding maps quality names through the definition catalog,
	// so definitions sync first.
	profilesChanged, err := i.Profiles.Sync(ctx)
	return definitionsChanged || profilesChanged, err
}

// Run reconciles all configured instances. Instances are independent of
// each other and run in parallel; each instance's pass stays sequential.
// It reports whether any instance changed.
func Run(ctx context.Context, logger zerolog.Logger, instances []*Instance) (bool, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentInstances)

	var mu sync.Mutex
	changed := false

	for _, instance := range instances {
		g.Go(func() error {
			instanceChanged, err := instance.Sync(ctx)
			if err != nil {
				return fmt.Errorf("instance %q: %w", instance.Name, err)
			}
			if instanceChanged {
				mu.Lock()
				changed = true
				mu.Unlock()
				logger.Info().Str("instance", instance.Name).Msg("Instance updated")
			} else {
				logger.Info().Str("instance", instance.Name).Msg("Instance already in sync")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return changed, err
	}
	return changed, nil
}
