package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/qualarr/qualarr/quality"
	"github.com/qualarr/qualarr/trash"
)

// Definitions reconciles quality definitions against one Sonarr instance.
// Definitions are never created or deleted: the remote always carries the
// full, fixed set of qualities, so divergences are updated in place.
type Definitions struct {
	api         SonarrAPI
	logger      zerolog.Logger
	trashID     string
	loader      *trash.Loader
	definitions map[string]quality.Definition
	dryRun      bool
}

// NewDefinitions creates a definition reconciler. loader may be nil when
// no curated dataset directory is configured; it is only required when
// trashID is set.
func NewDefinitions(api SonarrAPI, logger zerolog.Logger, trashID string, loader *trash.Loader, definitions map[string]quality.Definition, dryRun bool) *Definitions {
	// Render mutates the definition map, so the reconciler owns a copy.
	owned := make(map[string]quality.Definition, len(definitions))
	for name, definition := range definitions {
		owned[name] = definition
	}
	return &Definitions{
		api:         api,
		logger:      logger,
		trashID:     trashID,
		loader:      loader,
		definitions: owned,
		dryRun:      dryRun,
	}
}

// UsesTrash reports whether a curated dataset reference is configured.
func (d *Definitions) UsesTrash() bool {
	return d.trashID != ""
}

// Render materializes curated defaults before a pass: every quality in the
// referenced dataset profile that has no explicit local definition gets
// one synthesized from the curated values. Explicit definitions always
// win. A no-op when no dataset reference is configured.
func (d *Definitions) Render() error {
	if d.trashID == "" {
		return nil
	}
	if d.loader == nil {
		return errors.New("trash.metadata_dir must be configured when trash_id is set")
	}

	qs, err := d.loader.QualitySize(d.trashID)
	if err != nil {
		return err
	}

	for _, entry := range qs.Qualities {
		if _, explicit := d.definitions[entry.Quality]; explicit {
			continue
		}
		definition := quality.Definition{
			Min:       entry.Min,
			Preferred: entry.Preferred,
			Max:       entry.Max,
		}
		if errs := definition.Validate(); len(errs) > 0 {
			return fmt.Errorf("curated definition for quality %q is invalid: %v", entry.Quality, errors.Join(errs...))
		}
		d.definitions[entry.Quality] = definition
	}

	d.logger.Debug().
		Str("trash_id", d.trashID).
		Int("definitions", len(d.definitions)).
		Msg("Rendered curated quality definitions")
	return nil
}

// Sync runs one reconciliation pass and reports whether anything changed.
// For each drifted definition the PUT body is the remote object as fetched
// with only the managed fields overridden, since the remote expects the
// whole object back.
func (d *Definitions) Sync(ctx context.Context) (bool, error) {
	remoteDefinitions, raw, err := d.api.QualityDefinitions(ctx)
	if err != nil {
		return false, err
	}
	remoteIndex := make(map[string]int, len(remoteDefinitions))
	for i, remote := range remoteDefinitions {
		remoteIndex[remote.Quality.Name] = i
	}

	names := make([]string, 0, len(d.definitions))
	for name := range d.definitions {
		names = append(names, name)
	}
	sort.Strings(names)

	changed := false
	for _, name := range names {
		local := d.definitions[name]
		index, known := remoteIndex[name]
		if !known {
			return changed, fmt.Errorf("quality definition %q: %w", name, &quality.UnknownQualityError{Name: name})
		}

		// A title repeating the quality's own name is the remote default;
		// treating it as unset keeps repeated runs idempotent.
		if local.Title == name {
			local.Title = ""
		}

		remote := quality.DecodeDefinition(remoteDefinitions[index])
		if local.Equal(remote) {
			d.logger.Debug().Str("quality", name).Msg("Quality definition is up to date")
			continue
		}

		var body map[string]interface{}
		if err := json.Unmarshal(raw[index], &body); err != nil {
			return changed, fmt.Errorf("quality definition %q: failed to parse remote object: %w", name, err)
		}
		body["title"] = local.EncodedTitle(name)
		body["minSize"] = local.Min
		body["preferredSize"] = local.Preferred
		body["maxSize"] = local.Max

		if d.dryRun {
			d.logger.Info().Str("quality", name).Msg("DRY RUN: would update quality definition")
			changed = true
			continue
		}
		if err := d.api.UpdateQualityDefinition(ctx, remoteDefinitions[index].ID, body); err != nil {
			return changed, err
		}
		d.logger.Info().Str("quality", name).Msg("Updated quality definition")
		changed = true
	}

	return changed, nil
}
