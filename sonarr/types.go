package sonarr

// Quality is the nested quality object Sonarr embeds in quality
// definitions and quality profile items.
type Quality struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Source     string `json:"source,omitempty"`
	Resolution int    `json:"resolution,omitempty"`
}

// ProfileItem is one entry in a quality profile's item tree.
//
// A singular quality carries a non-nil Quality and an empty Items list.
// A quality group carries ID, Name and a non-empty Items list of the
// member qualities, and no top-level Quality.
type ProfileItem struct {
	ID      int64         `json:"id,omitempty"`
	Name    string        `json:"name,omitempty"`
	Quality *Quality      `json:"quality,omitempty"`
	Items   []ProfileItem `json:"items"`
	Allowed bool          `json:"allowed"`
}

// FormatItem assigns a score to a custom format within a quality profile.
// Sonarr requires one entry per custom format known to the instance.
type FormatItem struct {
	Format int64  `json:"format"`
	Name   string `json:"name"`
	Score  *int   `json:"score"`
}

// QualityProfile is the remote representation of a quality profile.
// Items are ordered lowest priority first; Cutoff references either a
// group ID or a quality ID present in Items.
type QualityProfile struct {
	ID                    int64         `json:"id,omitempty"`
	Name                  string        `json:"name"`
	UpgradeAllowed        bool          `json:"upgradeAllowed"`
	Cutoff                int64         `json:"cutoff"`
	MinFormatScore        int           `json:"minFormatScore"`
	CutoffFormatScore     int           `json:"cutoffFormatScore"`
	MinUpgradeFormatScore int           `json:"minUpgradeFormatScore"`
	FormatItems           []FormatItem  `json:"formatItems"`
	Items                 []ProfileItem `json:"items"`
}

// QualityDefinition is the remote representation of one quality
// definition. MaxSize and PreferredSize are null when unbounded.
type QualityDefinition struct {
	ID            int64    `json:"id"`
	Quality       Quality  `json:"quality"`
	Title         string   `json:"title"`
	Weight        int      `json:"weight"`
	MinSize       float64  `json:"minSize"`
	MaxSize       *float64 `json:"maxSize,omitempty"`
	PreferredSize *float64 `json:"preferredSize,omitempty"`
}

// CustomFormat is the subset of the custom format resource needed for
// scoring lookups.
type CustomFormat struct {
	ID   int64
	Name string
}
