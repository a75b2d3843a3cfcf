package quality

import (
	"sort"

	"github.com/qualarr/qualarr/sonarr"
)

// groupIDBase is the base for synthesized quality group IDs. Group IDs are
// recomputed on every encode as groupIDBase + the group's 1-based position
// among the profile's groups. They are write-only values for POST/PUT
// bodies and are never read back or compared against remote state.
const groupIDBase = 1000

// DecodeProfile converts a remote quality profile into its declarative
// form. The remote item list is ordered lowest priority first, so it is
// reversed; entries not marked allowed are dropped. When upgrades are
// disabled the remote cutoff is discarded, matching local validation.
func DecodeProfile(remote sonarr.QualityProfile) (Profile, error) {
	upgradeUntil, err := decodeCutoff(remote.Items, remote.Cutoff)
	if err != nil {
		return Profile{}, err
	}
	if !remote.UpgradeAllowed {
		upgradeUntil = ""
	}

	return Profile{
		UpgradesAllowed:         remote.UpgradeAllowed,
		UpgradeUntil:            upgradeUntil,
		Qualities:               decodeEntries(remote.Items),
		MinFormatScore:          remote.MinFormatScore,
		UpgradeUntilFormatScore: remote.CutoffFormatScore,
		MinFormatScoreIncrement: remote.MinUpgradeFormatScore,
		CustomFormats:           decodeFormatScores(remote.FormatItems),
	}, nil
}

// EncodeProfile converts a validated profile into the remote
// representation. Lookup failures surface the unresolvable name; they mean
// the local document references a quality or custom format the remote
// instance does not know.
func EncodeProfile(profile Profile, name string, catalog *Catalog, formats *Formats) (sonarr.QualityProfile, error) {
	if len(profile.Qualities) == 0 {
		return sonarr.QualityProfile{}, fieldErrorf("qualities", "at least one quality must be listed")
	}

	groupIDs := synthesizeGroupIDs(profile.Qualities)

	items, err := encodeEntries(profile.Qualities, groupIDs, catalog)
	if err != nil {
		return sonarr.QualityProfile{}, err
	}

	cutoff, err := encodeCutoff(profile, groupIDs, catalog)
	if err != nil {
		return sonarr.QualityProfile{}, err
	}

	formatItems, err := encodeFormatScores(profile.CustomFormats, formats)
	if err != nil {
		return sonarr.QualityProfile{}, err
	}

	return sonarr.QualityProfile{
		Name:                  name,
		UpgradeAllowed:        profile.UpgradesAllowed,
		Cutoff:                cutoff,
		MinFormatScore:        profile.MinFormatScore,
		CutoffFormatScore:     profile.UpgradeUntilFormatScore,
		MinUpgradeFormatScore: profile.MinFormatScoreIncrement,
		FormatItems:           formatItems,
		Items:                 items,
	}, nil
}

func synthesizeGroupIDs(entries []Entry) map[string]int64 {
	ids := make(map[string]int64)
	next := int64(groupIDBase + 1)
	for _, entry := range entries {
		if entry.IsGroup() {
			ids[entry.Name] = next
			next++
		}
	}
	return ids
}

func decodeEntries(items []sonarr.ProfileItem) []Entry {
	var entries []Entry
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		if !item.Allowed {
			continue
		}
		if len(item.Items) > 0 {
			members := make([]string, 0, len(item.Items))
			for _, member := range item.Items {
				if member.Quality != nil {
					members = append(members, member.Quality.Name)
				}
			}
			entries = append(entries, Entry{Name: item.Name, Members: members})
		} else if item.Quality != nil {
			entries = append(entries, Entry{Name: item.Quality.Name})
		}
	}
	return entries
}

func encodeEntries(entries []Entry, groupIDs map[string]int64, catalog *Catalog) ([]sonarr.ProfileItem, error) {
	items := make([]sonarr.ProfileItem, 0, len(catalog.Titles()))
	enabled := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsGroup() {
			group, err := encodeGroup(entry, groupIDs[entry.Name], catalog)
			if err != nil {
				return nil, err
			}
			items = append(items, group)
			for _, member := range entry.Members {
				enabled[member] = true
			}
			continue
		}
		item, err := encodeQuality(catalog, entry.Name, true)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		enabled[entry.Name] = true
	}

	// Qualities not listed locally are carried as disabled entries, in
	// catalog order.
	for _, title := range catalog.Titles() {
		if enabled[title] {
			continue
		}
		item, err := encodeQuality(catalog, title, false)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	// The remote orders items lowest priority first.
	reverseItems(items)
	return items, nil
}

func encodeGroup(group Entry, groupID int64, catalog *Catalog) (sonarr.ProfileItem, error) {
	members := make([]sonarr.ProfileItem, 0, len(group.Members))
	for _, member := range group.Members {
		item, err := encodeQuality(catalog, member, true)
		if err != nil {
			return sonarr.ProfileItem{}, err
		}
		members = append(members, item)
	}
	return sonarr.ProfileItem{
		ID:      groupID,
		Name:    group.Name,
		Items:   members,
		Allowed: true,
	}, nil
}

func encodeQuality(catalog *Catalog, name string, allowed bool) (sonarr.ProfileItem, error) {
	q, err := catalog.Quality(name)
	if err != nil {
		return sonarr.ProfileItem{}, err
	}
	return sonarr.ProfileItem{
		Quality: &q,
		Items:   []sonarr.ProfileItem{},
		Allowed: allowed,
	}, nil
}

// decodeCutoff resolves the remote cutoff ID to the name of the matching
// item, checking group IDs before the nested quality IDs.
func decodeCutoff(items []sonarr.ProfileItem, cutoff int64) (string, error) {
	for _, item := range items {
		if item.Quality == nil {
			if item.ID == cutoff {
				return item.Name, nil
			}
			continue
		}
		if item.Quality.ID == cutoff {
			return item.Quality.Name, nil
		}
	}
	return "", &InconsistentStateError{Cutoff: cutoff, Items: items}
}

// encodeCutoff resolves the local upgrade_until name to a remote ID. An
// empty upgrade_until falls back to the highest priority entry. Group
// names take precedence over quality names.
func encodeCutoff(profile Profile, groupIDs map[string]int64, catalog *Catalog) (int64, error) {
	target := profile.UpgradeUntil
	if target == "" {
		first := profile.Qualities[0]
		if first.IsGroup() {
			return groupIDs[first.Name], nil
		}
		target = first.Name
	}
	if id, ok := groupIDs[target]; ok {
		return id, nil
	}
	q, err := catalog.Quality(target)
	if err != nil {
		return 0, err
	}
	return q.ID, nil
}

// decodeFormatScores keeps the remote format scores that are set, ordered
// by score descending then name ascending.
func decodeFormatScores(items []sonarr.FormatItem) []FormatScore {
	var scores []FormatScore
	for _, item := range items {
		if item.Score == nil || *item.Score == 0 {
			continue
		}
		score := *item.Score
		scores = append(scores, FormatScore{Name: item.Name, Score: &score})
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if *scores[i].Score != *scores[j].Score {
			return *scores[i].Score > *scores[j].Score
		}
		return scores[i].Name < scores[j].Name
	})
	return scores
}

// encodeFormatScores emits one entry per remote custom format: the locally
// scored formats first, then an explicit zero score for every remaining
// format the remote knows.
func encodeFormatScores(scores []FormatScore, formats *Formats) ([]sonarr.FormatItem, error) {
	items := make([]sonarr.FormatItem, 0, len(formats.Names()))
	covered := make(map[string]bool, len(scores))

	for _, cf := range scores {
		id, err := formats.ID(cf.Name)
		if err != nil {
			return nil, err
		}
		items = append(items, sonarr.FormatItem{Format: id, Name: cf.Name, Score: cf.Score})
		covered[cf.Name] = true
	}

	for _, name := range formats.Names() {
		if covered[name] {
			continue
		}
		id, err := formats.ID(name)
		if err != nil {
			return nil, err
		}
		zero := 0
		items = append(items, sonarr.FormatItem{Format: id, Name: name, Score: &zero})
	}

	return items, nil
}

func reverseItems(items []sonarr.ProfileItem) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}
