package quality

import (
	"sort"

	"github.com/qualarr/qualarr/sonarr"
)

// Catalog is a read-only lookup table over the remote quality definition
// catalog, keyed by definition title and ordered by weight descending.
// It is built once per reconciliation pass and never mutated.
type Catalog struct {
	titles  []string
	byTitle map[string]sonarr.Quality
}

// NewCatalog builds a catalog from the remote quality definitions.
func NewCatalog(definitions []sonarr.QualityDefinition) *Catalog {
	sorted := make([]sonarr.QualityDefinition, len(definitions))
	copy(sorted, definitions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Weight > sorted[j].Weight
	})

	c := &Catalog{
		titles:  make([]string, 0, len(sorted)),
		byTitle: make(map[string]sonarr.Quality, len(sorted)),
	}
	for _, definition := range sorted {
		if _, ok := c.byTitle[definition.Title]; ok {
			continue
		}
		c.titles = append(c.titles, definition.Title)
		c.byTitle[definition.Title] = definition.Quality
	}
	return c
}

// Quality resolves a quality name to its remote quality object.
func (c *Catalog) Quality(name string) (sonarr.Quality, error) {
	quality, ok := c.byTitle[name]
	if !ok {
		return sonarr.Quality{}, &UnknownQualityError{Name: name}
	}
	return quality, nil
}

// Titles returns the quality names in catalog order (weight descending).
func (c *Catalog) Titles() []string {
	return c.titles
}

// Formats is a read-only lookup table over the remote custom format
// catalog, preserving remote order.
type Formats struct {
	names  []string
	byName map[string]int64
}

// NewFormats builds a format lookup from the remote custom formats.
func NewFormats(formats []sonarr.CustomFormat) *Formats {
	f := &Formats{
		names:  make([]string, 0, len(formats)),
		byName: make(map[string]int64, len(formats)),
	}
	for _, format := range formats {
		if _, ok := f.byName[format.Name]; ok {
			continue
		}
		f.names = append(f.names, format.Name)
		f.byName[format.Name] = format.ID
	}
	return f
}

// ID resolves a custom format name to its remote ID.
func (f *Formats) ID(name string) (int64, error) {
	id, ok := f.byName[name]
	if !ok {
		return 0, &UnknownFormatError{Name: name}
	}
	return id, nil
}

// Names returns the custom format names in remote order.
func (f *Formats) Names() []string {
	return f.names
}
