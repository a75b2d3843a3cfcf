package quality

import (
	"github.com/qualarr/qualarr/sonarr"
)

// DefinitionMax is the upper bound for quality definition sizes in MB/min.
// A preferred or max size at or above this value means "unbounded" and is
// normalized to absent.
const DefinitionMax = 1000

// Definition is the declarative form of one quality definition: the
// per-quality bitrate bounds and an optional display title. Definitions
// are only ever updated in place; the remote's set of qualities is fixed.
type Definition struct {
	Title     string   `mapstructure:"title"`
	Min       float64  `mapstructure:"min"`
	Preferred *float64 `mapstructure:"preferred"`
	Max       *float64 `mapstructure:"max"`
}

// Validate normalizes the unbounded sentinels and checks the size bounds.
// It mutates the receiver and returns one error per failed field. A bound
// check whose prerequisite field already failed is skipped.
func (d *Definition) Validate() []error {
	var errs []error

	minValid := true
	if d.Min < 0 || d.Min > DefinitionMax-1 {
		errs = append(errs, fieldErrorf("min", "must be between 0 and %d (got %g)", DefinitionMax-1, d.Min))
		minValid = false
	}

	preferredValid := true
	if d.Preferred != nil {
		switch {
		case *d.Preferred < 0 || *d.Preferred > DefinitionMax:
			errs = append(errs, fieldErrorf("preferred", "must be between 0 and %d (got %g)", DefinitionMax, *d.Preferred))
			preferredValid = false
		case *d.Preferred >= DefinitionMax:
			d.Preferred = nil
		case minValid && *d.Preferred-d.Min < 1:
			errs = append(errs, fieldErrorf("preferred", "(%g) is not at least 1 greater than 'min' (%g)", *d.Preferred, d.Min))
		}
	}

	if d.Max != nil {
		switch {
		case *d.Max < 1 || *d.Max > DefinitionMax:
			errs = append(errs, fieldErrorf("max", "must be between 1 and %d (got %g)", DefinitionMax, *d.Max))
		case *d.Max >= DefinitionMax:
			d.Max = nil
		case preferredValid:
			// An unbounded preferred compares as the upper bound, so a
			// finite max requires a finite preferred below it.
			preferred := float64(DefinitionMax)
			if d.Preferred != nil {
				preferred = *d.Preferred
			}
			if *d.Max-preferred < 1 {
				errs = append(errs, fieldErrorf("max", "(%g) is not at least 1 greater than 'preferred' (%g)", *d.Max, preferred))
			}
		}
	}

	return errs
}

// EncodedTitle is the title as sent to the remote: an empty title falls
// back to the quality's own name.
func (d Definition) EncodedTitle(name string) string {
	if d.Title == "" {
		return name
	}
	return d.Title
}

// Equal reports whether two decoded definitions describe the same remote
// state.
func (d Definition) Equal(other Definition) bool {
	return d.Title == other.Title &&
		d.Min == other.Min &&
		floatPtrEqual(d.Preferred, other.Preferred) &&
		floatPtrEqual(d.Max, other.Max)
}

// DecodeDefinition converts a remote quality definition. The title is kept
// only when it differs from the quality's own name, and the unbounded
// sentinels normalize to absent, mirroring local validation.
func DecodeDefinition(remote sonarr.QualityDefinition) Definition {
	title := remote.Title
	if title == remote.Quality.Name {
		title = ""
	}
	d := Definition{
		Title:     title,
		Min:       remote.MinSize,
		Preferred: copyFloatPtr(remote.PreferredSize),
		Max:       copyFloatPtr(remote.MaxSize),
	}
	if d.Preferred != nil && *d.Preferred >= DefinitionMax {
		d.Preferred = nil
	}
	if d.Max != nil && *d.Max >= DefinitionMax {
		d.Max = nil
	}
	return d
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyFloatPtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
