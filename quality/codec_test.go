package quality

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qualarr/qualarr/sonarr"
)

// testCatalog covers six qualities; Bluray-1080p is the highest weighted
// so it leads the catalog order.
func testCatalog() *Catalog {
	return NewCatalog([]sonarr.QualityDefinition{
		{ID: 1, Quality: sonarr.Quality{ID: 1, Name: "SDTV"}, Title: "SDTV", Weight: 10},
		{ID: 2, Quality: sonarr.Quality{ID: 2, Name: "DVD"}, Title: "DVD", Weight: 20},
		{ID: 3, Quality: sonarr.Quality{ID: 8, Name: "WEBDL-480p"}, Title: "WEBDL-480p", Weight: 30},
		{ID: 4, Quality: sonarr.Quality{ID: 9, Name: "WEBRip-480p"}, Title: "WEBRip-480p", Weight: 31},
		{ID: 5, Quality: sonarr.Quality{ID: 20, Name: "Bluray-480p"}, Title: "Bluray-480p", Weight: 40},
		{ID: 6, Quality: sonarr.Quality{ID: 30, Name: "Bluray-1080p"}, Title: "Bluray-1080p", Weight: 80},
	})
}

func testFormats() *Formats {
	return NewFormats([]sonarr.CustomFormat{
		{ID: 1, Name: "x"},
		{ID: 2, Name: "y"},
		{ID: 3, Name: "z"},
	})
}

func TestEncodeProfileItems(t *testing.T) {
	profile := Profile{
		UpgradesAllowed: true,
		UpgradeUntil:    "Bluray-480p",
		Qualities: []Entry{
			{Name: "Bluray-480p"},
			{Name: "DVD"},
			{Name: "WEB 480p", Members: []string{"WEBDL-480p", "WEBRip-480p"}},
			{Name: "SDTV"},
		},
		MinFormatScoreIncrement: 1,
	}

	encoded, err := EncodeProfile(profile, "SD", testCatalog(), testFormats())
	require.NoError(t, err)

	assert.Equal(t, "SD", encoded.Name)
	assert.True(t, encoded.UpgradeAllowed)
	assert.Equal(t, int64(20), encoded.Cutoff)

	// Four enabled entries plus one disabled filler for Bluray-1080p,
	// lowest priority first.
	require.Len(t, encoded.Items, 5)

	highest := encoded.Items[len(encoded.Items)-1]
	require.NotNil(t, highest.Quality)
	assert.Equal(t, "Bluray-480p", highest.Quality.Name)
	assert.True(t, highest.Allowed)

	disabled := encoded.Items[0]
	require.NotNil(t, disabled.Quality)
	assert.Equal(t, "Bluray-1080p", disabled.Quality.Name)
	assert.False(t, disabled.Allowed)

	var group sonarr.ProfileItem
	for _, item := range encoded.Items {
		if item.Quality == nil {
			group = item
		}
	}
	assert.Equal(t, "WEB 480p", group.Name)
	assert.Equal(t, int64(1001), group.ID)
	require.Len(t, group.Items, 2)
	assert.Equal(t, "WEBDL-480p", group.Items[0].Quality.Name)
	assert.Equal(t, "WEBRip-480p", group.Items[1].Quality.Name)

	// Bare qualities carry an empty nested item list, not a null.
	require.NotNil(t, highest.Items)
	assert.Empty(t, highest.Items)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	profile := Profile{
		UpgradesAllowed: true,
		UpgradeUntil:    "Bluray-480p",
		Qualities: []Entry{
			{Name: "Bluray-480p"},
			{Name: "DVD"},
			{Name: "WEB 480p", Members: []string{"WEBDL-480p", "WEBRip-480p"}},
			{Name: "SDTV"},
		},
		MinFormatScore:          5,
		UpgradeUntilFormatScore: 100,
		MinFormatScoreIncrement: 1,
		CustomFormats: []FormatScore{
			{Name: "y", Score: intPtr(50)},
		},
	}

	encoded, err := EncodeProfile(profile, "SD", testCatalog(), testFormats())
	require.NoError(t, err)

	decoded, err := DecodeProfile(encoded)
	require.NoError(t, err)

	assert.True(t, profile.Equal(decoded))
	assert.Equal(t, profile.Qualities, decoded.Qualities)
	assert.Equal(t, profile.UpgradeUntil, decoded.UpgradeUntil)
}

func TestSynthesizedGroupIDs(t *testing.T) {
	profile := Profile{
		Qualities: []Entry{
			{Name: "First", Members: []string{"Bluray-1080p", "Bluray-480p"}},
			{Name: "DVD"},
			{Name: "Second", Members: []string{"WEBDL-480p", "WEBRip-480p"}},
			{Name: "SDTV"},
		},
		MinFormatScoreIncrement: 1,
	}

	encoded, err := EncodeProfile(profile, "grouped", testCatalog(), testFormats())
	require.NoError(t, err)

	ids := make(map[string]int64)
	for _, item := range encoded.Items {
		if item.Quality == nil {
			ids[item.Name] = item.ID
		}
	}
	assert.Equal(t, map[string]int64{"First": 1001, "Second": 1002}, ids)

	// With no explicit cutoff, the highest priority entry (a group here)
	// becomes the cutoff.
	assert.Equal(t, int64(1001), encoded.Cutoff)
}

func TestEncodeCutoffPrefersGroupName(t *testing.T) {
	// The group shadows a quality of the same name.
	catalog := NewCatalog([]sonarr.QualityDefinition{
		{ID: 1, Quality: sonarr.Quality{ID: 1, Name: "SDTV"}, Title: "SDTV", Weight: 10},
		{ID: 2, Quality: sonarr.Quality{ID: 2, Name: "DVD"}, Title: "DVD", Weight: 20},
	})
	profile := Profile{
		UpgradesAllowed: true,
		UpgradeUntil:    "DVD",
		Qualities: []Entry{
			{Name: "DVD", Members: []string{"DVD", "SDTV"}},
		},
		MinFormatScoreIncrement: 1,
	}

	encoded, err := EncodeProfile(profile, "shadow", catalog, NewFormats(nil))
	require.NoError(t, err)
	assert.Equal(t, int64(1001), encoded.Cutoff)
}

func TestEncodeProfileUnknownNames(t *testing.T) {
	t.Run("unknown quality", func(t *testing.T) {
		profile := Profile{
			Qualities:               []Entry{{Name: "Remux-2160p"}},
			MinFormatScoreIncrement: 1,
		}
		_, err := EncodeProfile(profile, "bad", testCatalog(), testFormats())
		var unknown *UnknownQualityError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "Remux-2160p", unknown.Name)
	})

	t.Run("unknown custom format", func(t *testing.T) {
		profile := Profile{
			Qualities:               []Entry{{Name: "SDTV"}},
			MinFormatScoreIncrement: 1,
			CustomFormats:           []FormatScore{{Name: "missing", Score: intPtr(5)}},
		}
		_, err := EncodeProfile(profile, "bad", testCatalog(), testFormats())
		var unknown *UnknownFormatError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "missing", unknown.Name)
	})
}

func TestDecodeProfileDropsDisabledItems(t *testing.T) {
	remote := sonarr.QualityProfile{
		Name:           "minimal",
		UpgradeAllowed: false,
		Cutoff:         2,
		Items: []sonarr.ProfileItem{
			{Quality: &sonarr.Quality{ID: 1, Name: "SDTV"}, Allowed: false},
			{Quality: &sonarr.Quality{ID: 2, Name: "DVD"}, Allowed: true},
			{Quality: &sonarr.Quality{ID: 20, Name: "Bluray-480p"}, Allowed: true},
		},
	}

	decoded, err := DecodeProfile(remote)
	require.NoError(t, err)

	assert.Equal(t, []Entry{{Name: "Bluray-480p"}, {Name: "DVD"}}, decoded.Qualities)
	// Upgrades are off, so the remote cutoff is dropped after decoding.
	assert.Empty(t, decoded.UpgradeUntil)
}

func TestDecodeCutoffInconsistentState(t *testing.T) {
	remote := sonarr.QualityProfile{
		Name:           "broken",
		UpgradeAllowed: false,
		Cutoff:         999,
		Items: []sonarr.ProfileItem{
			{Quality: &sonarr.Quality{ID: 1, Name: "SDTV"}, Allowed: true},
		},
	}

	// A dangling cutoff is fatal even when upgrades are disabled.
	_, err := DecodeProfile(remote)
	var inconsistent *InconsistentStateError
	require.ErrorAs(t, err, &inconsistent)
	assert.Equal(t, int64(999), inconsistent.Cutoff)
}

func TestDecodeCutoffGroupID(t *testing.T) {
	remote := sonarr.QualityProfile{
		UpgradeAllowed: true,
		Cutoff:         1001,
		Items: []sonarr.ProfileItem{
			{Quality: &sonarr.Quality{ID: 1, Name: "SDTV"}, Allowed: true},
			{
				ID:   1001,
				Name: "WEB 480p",
				Items: []sonarr.ProfileItem{
					{Quality: &sonarr.Quality{ID: 8, Name: "WEBDL-480p"}, Allowed: true},
					{Quality: &sonarr.Quality{ID: 9, Name: "WEBRip-480p"}, Allowed: true},
				},
				Allowed: true,
			},
		},
	}

	decoded, err := DecodeProfile(remote)
	require.NoError(t, err)
	assert.Equal(t, "WEB 480p", decoded.UpgradeUntil)
}

func TestDecodeFormatScores(t *testing.T) {
	items := []sonarr.FormatItem{
		{Format: 1, Name: "x", Score: intPtr(0)},
		{Format: 3, Name: "z", Score: intPtr(5)},
		{Format: 2, Name: "y", Score: intPtr(50)},
		{Format: 4, Name: "w", Score: intPtr(5)},
		{Format: 5, Name: "v"},
	}

	scores := decodeFormatScores(items)

	// Zero and unset scores are dropped; the rest sort by score
	// descending, then name ascending.
	require.Len(t, scores, 3)
	assert.Equal(t, "y", scores[0].Name)
	assert.Equal(t, "w", scores[1].Name)
	assert.Equal(t, "z", scores[2].Name)
}

func TestEncodeFormatScoresCoversEveryFormat(t *testing.T) {
	items, err := encodeFormatScores([]FormatScore{{Name: "y", Score: intPtr(50)}}, testFormats())
	require.NoError(t, err)

	// Exactly one entry per remote format: the scored one first, then
	// explicit zeroes for the rest in remote order.
	require.Len(t, items, 3)
	assert.Equal(t, sonarr.FormatItem{Format: 2, Name: "y", Score: intPtr(50)}, items[0])
	assert.Equal(t, sonarr.FormatItem{Format: 1, Name: "x", Score: intPtr(0)}, items[1])
	assert.Equal(t, sonarr.FormatItem{Format: 3, Name: "z", Score: intPtr(0)}, items[2])
}

func TestEncodeProfileEmptyQualities(t *testing.T) {
	_, err := EncodeProfile(Profile{}, "empty", testCatalog(), testFormats())
	var fieldErr *FieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "qualities", fieldErr.Field)
}
