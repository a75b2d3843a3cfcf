package reconcile

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/qualarr/qualarr/filter"
	"github.com/qualarr/qualarr/quality"
	"github.com/qualarr/qualarr/sonarr"
)

// ProfilesOptions controls how a profile reconciliation pass behaves.
type ProfilesOptions struct {
	// DeleteUnmanaged removes remote profiles that are not defined
	// locally. Unmanaged profiles are otherwise only logged.
	DeleteUnmanaged bool
	// DryRun logs the decisions without mutating the remote.
	DryRun bool
	// Selector scopes the pass to matching profiles. Nil matches all.
	Selector filter.Selector
}

// Profiles reconciles the locally defined quality profiles against one
// Sonarr instance: create what is missing, update what drifted, and
// optionally delete what is unmanaged.
type Profiles struct {
	api         SonarrAPI
	logger      zerolog.Logger
	definitions map[string]quality.Profile
	opts        ProfilesOptions
}

// NewProfiles creates a profile reconciler.
func NewProfiles(api SonarrAPI, logger zerolog.Logger, definitions map[string]quality.Profile, opts ProfilesOptions) *Profiles {
	if opts.Selector == nil {
		opts.Selector = filter.All
	}
	return &Profiles{
		api:         api,
		logger:      logger,
		definitions: definitions,
		opts:        opts,
	}
}

// Sync runs one reconciliation pass and reports whether anything changed
// (or, under dry-run, would have changed). The pass fetches everything
// first, then decides, then mutates; quality lookups resolve against the
// remote catalogs fetched at the start.
func (p *Profiles) Sync(ctx context.Context) (bool, error) {
	remoteProfiles, err := p.api.QualityProfiles(ctx)
	if err != nil {
		return false, err
	}
	remoteByName := make(map[string]sonarr.QualityProfile, len(remoteProfiles))
	for _, remote := range remoteProfiles {
		remoteByName[remote.Name] = remote
	}

	remoteDefinitions, _, err := p.api.QualityDefinitions(ctx)
	if err != nil {
		return false, err
	}
	catalog := quality.NewCatalog(remoteDefinitions)

	customFormats, err := p.api.CustomFormats(ctx)
	if err != nil {
		return false, err
	}
	formats := quality.NewFormats(customFormats)

	changed := false

	names := make([]string, 0, len(p.definitions))
	for name := range p.definitions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		matched, err := p.opts.Selector(filter.ProfileInfo{Name: name, Managed: true})
		if err != nil {
			return changed, err
		}
		if !matched {
			p.logger.Debug().Str("profile", name).Msg("Profile excluded by selector")
			continue
		}

		local := p.definitions[name]
		remote, exists := remoteByName[name]
		if !exists {
			if err := p.create(ctx, name, local, catalog, formats); err != nil {
				return changed, err
			}
			changed = true
			continue
		}

		updated, err := p.update(ctx, name, local, remote, catalog, formats)
		if err != nil {
			return changed, err
		}
		if updated {
			changed = true
		}
	}

	for _, remote := range remoteProfiles {
		if _, managed := p.definitions[remote.Name]; managed {
			continue
		}
		matched, err := p.opts.Selector(filter.ProfileInfo{Name: remote.Name, Managed: false})
		if err != nil {
			return changed, err
		}
		if !matched {
			continue
		}
		if !p.opts.DeleteUnmanaged {
			p.logger.Debug().Str("profile", remote.Name).Msg("Leaving unmanaged quality profile untouched")
			continue
		}
		if p.opts.DryRun {
			p.logger.Info().Str("profile", remote.Name).Msg("DRY RUN: would delete unmanaged quality profile")
			changed = true
			continue
		}
		if err := p.api.DeleteQualityProfile(ctx, remote.ID); err != nil {
			return changed, err
		}
		p.logger.Info().Str("profile", remote.Name).Msg("Deleted unmanaged quality profile")
		changed = true
	}

	return changed, nil
}

func (p *Profiles) create(ctx context.Context, name string, local quality.Profile, catalog *quality.Catalog, formats *quality.Formats) error {
	encoded, err := quality.EncodeProfile(local, name, catalog, formats)
	if err != nil {
		return fmt.Errorf("profile %q: %w", name, err)
	}
	if p.opts.DryRun {
		p.logger.Info().Str("profile", name).Msg("DRY RUN: would create quality profile")
		return nil
	}
	if err := p.api.CreateQualityProfile(ctx, encoded); err != nil {
		return err
	}
	p.logger.Info().Str("profile", name).Msg("Created quality profile")
	return nil
}

// update diffs the decoded remote profile against the local one and, on
// any difference, resends the whole encoded profile. The diff only decides
// whether to PUT; the body always carries every field, since the remote
// requires whole-object replacement.
func (p *Profiles) update(ctx context.Context, name string, local quality.Profile, remote sonarr.QualityProfile, catalog *quality.Catalog, formats *quality.Formats) (bool, error) {
	decoded, err := quality.DecodeProfile(remote)
	if err != nil {
		return false, fmt.Errorf("profile %q: %w", name, err)
	}
	if local.Equal(decoded) {
		p.logger.Debug().Str("profile", name).Msg("Quality profile is up to date")
		return false, nil
	}

	encoded, err := quality.EncodeProfile(local, name, catalog, formats)
	if err != nil {
		return false, fmt.Errorf("profile %q: %w", name, err)
	}
	encoded.ID = remote.ID

	if p.opts.DryRun {
		p.logger.Info().Str("profile", name).Msg("DRY RUN: would update quality profile")
		return true, nil
	}
	if err := p.api.UpdateQualityProfile(ctx, encoded); err != nil {
		return false, err
	}
	p.logger.Info().Str("profile", name).Msg("Updated quality profile")
	return true, nil
}
