package composition

import "fmt"

// IconPatch carries optional icon style fields.
type IconPatch struct {
	Color     *string   `json:"color,omitempty"`
	Thickness *float64  `json:"thickness,omitempty"`
	Position  *Position `json:"position,omitempty"`
}

// SelectIcon activates an icon. Selecting the active icon again clears the selection.
func (c *Configuration) SelectIcon(category IconCategory, name string) error {
	if !HasIcon(category, name) {
		return fmt.Errorf("%w: unknown icon %s/%s", ErrValidation, category, name)
	}
	if c.Icon != nil && c.Icon.Category == category && c.Icon.Name == name {
		c.Icon = nil
		return nil
	}
	c.Icon = &Icon{
		Category:  category,
		Name:      name,
		Color:     DefaultInkColor,
		Thickness: DefaultIconThickness,
		Position:  PositionCenter,
	}
	return nil
}

// UpdateIconStyle merges patch into the active icon; without one it does nothing.
func (c *Configuration) UpdateIconStyle(patch IconPatch) error {
	if c.Icon == nil {
		return nil
	}
	if patch.Color != nil && !ValidColor(*patch.Color) {
		return fmt.Errorf("%w: invalid icon color %q", ErrValidation, *patch.Color)
	}
	if patch.Position != nil && !patch.Position.validFor(IconPositions) {
		return fmt.Errorf("%w: unknown icon position %q", ErrValidation, *patch.Position)
	}
	if patch.Color != nil {
		c.Icon.Color = *patch.Color
	}
	if patch.Thickness != nil {
		c.Icon.Thickness = clampFloat(*patch.Thickness, MinIconThickness, MaxIconThickness)
	}
	if patch.Position != nil {
		c.Icon.Position = *patch.Position
	}
	return nil
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
