package composition

import "fmt"

// TextLayerPatch carries the fields a text layer update may change.
type TextLayerPatch struct {
	Text     *string   `json:"text,omitempty"`
	Color    *string   `json:"color,omitempty"`
	Font     *Font     `json:"font,omitempty"`
	Size     *int      `json:"size,omitempty"`
	Position *Position `json:"position,omitempty"`
	Rotation *int      `json:"rotation,omitempty"`
}

// AddTextLayer appends an empty layer at the end of the stack.
func (c *Configuration) AddTextLayer() TextLayer {
	layer := newTextLayer(len(c.TextLayers))
	c.TextLayers = append(c.TextLayers, layer)
	return layer
}

// RemoveTextLayer deletes a layer and renumbers the rest. The sole layer cannot be removed.
func (c *Configuration) RemoveTextLayer(id string) error {
	idx := c.layerIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: text layer %q", ErrNotFound, id)
	}
	if len(c.TextLayers) <= 1 {
		return fmt.Errorf("%w: cannot remove the last text layer", ErrInvariantViolation)
	}
	out := make([]TextLayer, 0, len(c.TextLayers)-1)
	out = append(out, c.TextLayers[:idx]...)
	c.TextLayers = append(out, c.TextLayers[idx+1:]...)
	renumber(c.TextLayers)
	return nil
}

// MoveTextLayer swaps a layer with its neighbour. Moving past either end is a no-op.
func (c *Configuration) MoveTextLayer(id string, dir Direction) error {
	idx := c.layerIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: text layer %q", ErrNotFound, id)
	}
	target := idx
	switch dir {
	case DirectionUp:
		target = idx - 1
	case DirectionDown:
		target = idx + 1
	default:
		return fmt.Errorf("%w: unknown direction %q", ErrValidation, dir)
	}
	if target < 0 || target >= len(c.TextLayers) {
		return nil
	}
	c.TextLayers[idx], c.TextLayers[target] = c.TextLayers[target], c.TextLayers[idx]
	renumber(c.TextLayers)
	return nil
}

// UpdateTextLayer merges patch into the layer. Size and rotation are clamped, not rejected.
func (c *Configuration) UpdateTextLayer(id string, patch TextLayerPatch) error {
	idx := c.layerIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: text layer %q", ErrNotFound, id)
	}
	if patch.Font != nil && !patch.Font.Valid() {
		return fmt.Errorf("%w: unknown font %q", ErrValidation, *patch.Font)
	}
	if patch.Position != nil && !patch.Position.validFor(TextPositions) {
		return fmt.Errorf("%w: unknown text position %q", ErrValidation, *patch.Position)
	}
	if patch.Color != nil && !ValidColor(*patch.Color) {
		return fmt.Errorf("%w: invalid text color %q", ErrValidation, *patch.Color)
	}

	layer := &c.TextLayers[idx]
	if patch.Text != nil {
		layer.Text = *patch.Text
	}
	if patch.Color != nil {
		layer.Color = *patch.Color
	}
	if patch.Font != nil {
		layer.Font = *patch.Font
	}
	if patch.Size != nil {
		layer.Size = clampInt(*patch.Size, MinTextSize, MaxTextSize)
	}
	if patch.Position != nil {
		layer.Position = *patch.Position
	}
	if patch.Rotation != nil {
		layer.Rotation = clampInt(*patch.Rotation, 0, MaxRotation)
	}
	return nil
}

// TextLayer returns a copy of the layer with id.
func (c *Configuration) TextLayer(id string) (TextLayer, bool) {
	idx := c.layerIndex(id)
	if idx < 0 {
		return TextLayer{}, false
	}
	return c.TextLayers[idx], true
}

func (c *Configuration) layerIndex(id string) int {
	for i, l := range c.TextLayers {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func renumber(layers []TextLayer) {
	for i := range layers {
		layers[i].Order = i
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
