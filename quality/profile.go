package quality

import (
	"reflect"
	"sort"
	"strconv"

	"github.com/go-viper/mapstructure/v2"
)

// Entry is one slot in a profile's quality list: either a single quality
// name, or a named group of qualities sharing the same priority slot.
// The first entry in a profile has the highest priority.
type Entry struct {
	Name    string   `mapstructure:"name"`
	Members []string `mapstructure:"members"`
}

// IsGroup reports whether the entry is a quality group.
func (e Entry) IsGroup() bool {
	return len(e.Members) > 0
}

// names returns the individual quality names the entry enables.
func (e Entry) names() []string {
	if e.IsGroup() {
		return e.Members
	}
	return []string{e.Name}
}

// EntryDecodeHook lets viper decode a quality list entry from either a
// plain string or a name/members mapping.
func EntryDecodeHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(Entry{}) {
			return data, nil
		}
		if name, ok := data.(string); ok {
			return Entry{Name: name}, nil
		}
		return data, nil
	}
}

// FormatScore assigns a score to a custom format within a profile.
// A nil score defers to the remote default of 0.
type FormatScore struct {
	Name  string `mapstructure:"name"`
	Score *int   `mapstructure:"score"`
}

func (s FormatScore) effectiveScore() int {
	if s.Score == nil {
		return 0
	}
	return *s.Score
}

// Profile is the declarative form of a Sonarr quality profile.
type Profile struct {
	UpgradesAllowed         bool          `mapstructure:"upgrades_allowed"`
	UpgradeUntil            string        `mapstructure:"upgrade_until"`
	Qualities               []Entry       `mapstructure:"qualities"`
	MinFormatScore          int           `mapstructure:"minimum_custom_format_score"`
	UpgradeUntilFormatScore int           `mapstructure:"upgrade_until_custom_format_score"`
	MinFormatScoreIncrement int           `mapstructure:"minimum_custom_format_score_increment"`
	CustomFormats           []FormatScore `mapstructure:"custom_formats"`
}

// Validate applies the profile's dependent defaults and checks its
// invariants. It mutates the receiver (deduplicating custom formats,
// defaulting the score increment, clearing upgrade_until when upgrades are
// disabled) and returns one error per failed field instead of stopping at
// the first failure. Checks that depend on a field that already failed are
// skipped.
func (p *Profile) Validate() []error {
	var errs []error

	qualitiesValid := true
	if len(p.Qualities) == 0 {
		errs = append(errs, fieldErrorf("qualities", "at least one quality must be listed"))
		qualitiesValid = false
	}

	// Every quality name, bare or group member, may appear only once.
	owner := make(map[string]Entry)
	for _, entry := range p.Qualities {
		if entry.Name == "" {
			errs = append(errs, fieldErrorf("qualities", "quality name must not be empty"))
			qualitiesValid = false
			continue
		}
		for _, name := range entry.names() {
			if name == "" {
				errs = append(errs, fieldErrorf("qualities", "group %q contains an empty quality name", entry.Name))
				qualitiesValid = false
				continue
			}
			previous, seen := owner[name]
			if !seen {
				owner[name] = entry
				continue
			}
			qualitiesValid = false
			switch {
			case entry.IsGroup() && previous.IsGroup():
				errs = append(errs, fieldErrorf("qualities",
					"duplicate entries of quality %q exist (one in group %q, another in group %q)",
					name, entry.Name, previous.Name))
			case entry.IsGroup() != previous.IsGroup():
				group := entry
				if previous.IsGroup() {
					group = previous
				}
				errs = append(errs, fieldErrorf("qualities",
					"duplicate entries of quality %q exist (one in group %q, another as a non-grouped quality)",
					name, group.Name))
			default:
				errs = append(errs, fieldErrorf("qualities",
					"duplicate entries of quality %q exist (both are non-grouped qualities)", name))
			}
		}
	}

	// Zero means unset; a default of 1 applies. Explicit values below 1
	// are rejected.
	switch {
	case p.MinFormatScoreIncrement == 0:
		p.MinFormatScoreIncrement = 1
	case p.MinFormatScoreIncrement < 0:
		errs = append(errs, fieldErrorf("minimum_custom_format_score_increment",
			"must be at least 1 (got %d)", p.MinFormatScoreIncrement))
	}

	if p.UpgradeUntilFormatScore < p.MinFormatScore {
		errs = append(errs, fieldErrorf("upgrade_until_custom_format_score",
			"value (%d) must be greater than or equal to 'minimum_custom_format_score' (%d)",
			p.UpgradeUntilFormatScore, p.MinFormatScore))
	}

	// Exact duplicate format scores collapse silently; conflicting scores
	// for the same format are an error.
	scores := make(map[string]*int)
	deduped := p.CustomFormats[:0]
	for _, cf := range p.CustomFormats {
		if cf.Name == "" {
			errs = append(errs, fieldErrorf("custom_formats", "custom format name must not be empty"))
			continue
		}
		previous, seen := scores[cf.Name]
		if seen {
			if scoreEqual(previous, cf.Score) {
				continue
			}
			errs = append(errs, fieldErrorf("custom_formats",
				"more than one score defined for custom format %q (scores: %s, %s)",
				cf.Name, scoreString(previous), scoreString(cf.Score)))
			continue
		}
		scores[cf.Name] = cf.Score
		deduped = append(deduped, cf)
	}
	p.CustomFormats = deduped

	if !p.UpgradesAllowed {
		// Whatever the remote currently has for the cutoff is ignored on
		// the next sync.
		p.UpgradeUntil = ""
		return errs
	}

	if p.UpgradeUntil == "" {
		errs = append(errs, fieldErrorf("upgrade_until", "required when 'upgrades_allowed' is true"))
	} else if qualitiesValid {
		found := false
		for _, entry := range p.Qualities {
			if entry.Name == p.UpgradeUntil {
				found = true
				break
			}
		}
		if !found {
			errs = append(errs, fieldErrorf("upgrade_until",
				"%q must be set to a quality or group listed in 'qualities'", p.UpgradeUntil))
		}
	}

	return errs
}

// Equal reports whether two validated profiles describe the same remote
// state. Quality order is significant; group membership and custom format
// scoring compare as sets, so reconciliation stays idempotent regardless
// of how the local document orders them.
func (p Profile) Equal(other Profile) bool {
	if p.UpgradesAllowed != other.UpgradesAllowed ||
		p.UpgradeUntil != other.UpgradeUntil ||
		p.MinFormatScore != other.MinFormatScore ||
		p.UpgradeUntilFormatScore != other.UpgradeUntilFormatScore ||
		p.MinFormatScoreIncrement != other.MinFormatScoreIncrement {
		return false
	}

	if len(p.Qualities) != len(other.Qualities) {
		return false
	}
	for i := range p.Qualities {
		a, b := p.Qualities[i], other.Qualities[i]
		if a.Name != b.Name || a.IsGroup() != b.IsGroup() {
			return false
		}
		if a.IsGroup() && !sameNameSet(a.Members, b.Members) {
			return false
		}
	}

	return mapsEqual(formatScoreMap(p.CustomFormats), formatScoreMap(other.CustomFormats))
}

// formatScoreMap canonicalizes a format score list: zero and unset scores
// are absent, mirroring how the remote state decodes.
func formatScoreMap(scores []FormatScore) map[string]int {
	m := make(map[string]int, len(scores))
	for _, cf := range scores {
		if score := cf.effectiveScore(); score != 0 {
			m[cf.Name] = score
		}
	}
	return m
}

func mapsEqual(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for name, score := range a {
		if b[name] != score {
			return false
		}
	}
	return true
}

func sameNameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func scoreEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func scoreString(score *int) string {
	if score == nil {
		return "unset"
	}
	return strconv.Itoa(*score)
}
