package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qualarr/qualarr/filter"
	"github.com/qualarr/qualarr/reconcile"
	"github.com/qualarr/qualarr/sonarr"
	"github.com/qualarr/qualarr/trash"
)

var matchExpr string

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile quality settings against the configured instances",
	Long: `Apply the declarative quality configuration to every configured Sonarr
instance. Missing quality profiles are created, drifted profiles and
quality definitions are updated, and (when delete_unmanaged is enabled)
profiles absent from the configuration are deleted.

The --match flag takes an expr expression evaluated per profile name to
scope the run, e.g.:

    qualarr sync --match 'Name startsWith "HD"'
    qualarr sync --match 'Managed'`,
	PreRunE: initializeApp,
	RunE:    runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVarP(&matchExpr, "match", "m", "", "selector expression limiting which profiles are reconciled")
}

func runSync(cmd *cobra.Command, args []string) error {
	selector, err := filter.Compile(matchExpr)
	if err != nil {
		return err
	}

	var loader *trash.Loader
	if cfg.Trash.MetadataDir != "" {
		loader = trash.NewLoader(cfg.Trash.MetadataDir)
	}

	if cfg.Safety.DryRun {
		logger.Info().Msg("DRY RUN MODE - no changes will be applied")
	}

	instances := make([]*reconcile.Instance, 0, len(cfg.Instances))
	for _, name := range instanceNames() {
		instance := cfg.Instances[name]

		client, err := sonarr.NewClient(instance.URL, instance.APIKey, logger)
		if err != nil {
			return fmt.Errorf("failed to create Sonarr client for instance %q: %w", name, err)
		}

		instanceLogger := logger.With().Str("instance", name).Logger()
		instances = append(instances, &reconcile.Instance{
			Name: name,
			Definitions: reconcile.NewDefinitions(
				client,
				instanceLogger,
				instance.Quality.TrashID,
				loader,
				instance.Quality.Definitions,
				cfg.Safety.DryRun,
			),
			Profiles: reconcile.NewProfiles(
				client,
				instanceLogger,
				instance.Profiles.Definitions,
				reconcile.ProfilesOptions{
					DeleteUnmanaged: instance.Profiles.DeleteUnmanaged,
					DryRun:          cfg.Safety.DryRun,
					Selector:        selector,
				},
			),
		})
	}

	changed, err := reconcile.Run(context.Background(), logger, instances)
	if err != nil {
		return err
	}

	switch {
	case !changed:
		fmt.Println("✓ All instances are in sync")
	case cfg.Safety.DryRun:
		fmt.Println("✓ Dry run complete; changes are pending")
	default:
		fmt.Println("✓ Changes applied")
	}

	return nil
}
