package reconcile

import (
	"context"
	"encoding/json"

	"github.com/qualarr/qualarr/sonarr"
)

// SonarrAPI is the surface of the Sonarr client the reconcilers depend
// on. Defined here so tests can substitute a fake instance.
type SonarrAPI interface {
	QualityProfiles(ctx context.Context) ([]sonarr.QualityProfile, error)
	CreateQualityProfile(ctx context.Context, profile sonarr.QualityProfile) error
	UpdateQualityProfile(ctx context.Context, profile sonarr.QualityProfile) error
	DeleteQualityProfile(ctx context.Context, id int64) error
	QualityDefinitions(ctx context.Context) ([]sonarr.QualityDefinition, []json.RawMessage, error)
	UpdateQualityDefinition(ctx context.Context, id int64, body map[string]interface{}) error
	CustomFormats(ctx context.Context) ([]sonarr.CustomFormat, error)
}
