package domain

import (
	"fmt"
	"math"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks a document before it is handed to the editor: struct rules,
// finite geometry, unique slide ids, and element ids unique across each slide's
// full element tree.
func Validate(d *Deck) error {
	if d == nil {
		return fmt.Errorf("%w: nil document", ErrInvalidDeck)
	}
	if err := validatorInstance().Struct(d); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDeck, err)
	}

	if !Finite(d.Settings.Width, d.Settings.Height, d.Settings.GridSize) {
		return fmt.Errorf("%w: non-finite deck settings", ErrInvalidDeck)
	}

	slideIDs := make(map[string]bool, len(d.Slides))
	for i := range d.Slides {
		s := &d.Slides[i]
		if slideIDs[s.ID] {
			return fmt.Errorf("%w: duplicate slide id %q", ErrInvalidDeck, s.ID)
		}
		slideIDs[s.ID] = true

		seen := make(map[string]bool)
		var dup, bad string
		check := func(e *Element) bool {
			if seen[e.ID] {
				dup = e.ID
				return false
			}
			if !Finite(e.Bounds.X, e.Bounds.Y, e.Bounds.Width, e.Bounds.Height, e.Rotation, e.Metadata.AspectRatio) {
				bad = e.ID
				return false
			}
			seen[e.ID] = true
			return true
		}
		if Walk(s.Elements, check) {
			for _, l := range s.Layers {
				if !Walk(l.Elements, check) {
					break
				}
			}
		}
		if bad != "" {
			return fmt.Errorf("%w: non-finite geometry on element %q", ErrInvalidDeck, bad)
		}
		if dup != "" {
			return fmt.Errorf("%w: duplicate element id %q on slide %s", ErrInvalidDeck, dup, s.ID)
		}
	}
	return nil
}

// Finite reports whether none of vs is NaN or infinite.
func Finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
