package composition

import "fmt"

// OpKind names a mutation in an Operation envelope.
type OpKind string

const (
	OpAddColor          OpKind = "add_color"
	OpRemoveColor       OpKind = "remove_color"
	OpUpdateColor       OpKind = "update_color"
	OpRenameColor       OpKind = "rename_color"
	OpAddTextLayer      OpKind = "add_text_layer"
	OpRemoveTextLayer   OpKind = "remove_text_layer"
	OpMoveTextLayer     OpKind = "move_text_layer"
	OpUpdateTextLayer   OpKind = "update_text_layer"
	OpSelectIcon        OpKind = "select_icon"
	OpUpdateIconStyle   OpKind = "update_icon_style"
	OpSetBackgroundType OpKind = "set_background_type"
	OpUpdateSettings    OpKind = "update_settings"
)

// SetKind selects which color set a color operation targets.
type SetKind string

const (
	SetBackground SetKind = "background"
	SetLogo       SetKind = "logo"
)

// Operation is the wire form of a single mutation, shared by the form, canvas and chat surfaces.
type Operation struct {
	Op        OpKind          `json:"op"`
	Set       SetKind         `json:"set,omitempty"`
	ID        string          `json:"id,omitempty"`
	Value     string          `json:"value,omitempty"`
	Name      string          `json:"name,omitempty"`
	Direction Direction       `json:"direction,omitempty"`
	Category  IconCategory    `json:"category,omitempty"`
	Layer     *TextLayerPatch `json:"layer,omitempty"`
	Icon      *IconPatch      `json:"icon,omitempty"`
	Settings  *Override       `json:"settings,omitempty"`
}

// ColorSet returns the set addressed by kind.
func (c *Configuration) ColorSet(kind SetKind) (*ColorSet, error) {
	switch kind {
	case SetBackground:
		if c.BackgroundType == BackgroundTransparent {
			return nil, fmt.Errorf("%w: transparent background has no colors", ErrInvariantViolation)
		}
		return &c.BackgroundColors, nil
	case SetLogo:
		return &c.LogoColors, nil
	}
	return nil, fmt.Errorf("%w: unknown color set %q", ErrValidation, kind)
}

// SetBackgroundType switches the background mode. Leaving transparent restores one default color.
func (c *Configuration) SetBackgroundType(t BackgroundType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: unknown background type %q", ErrValidation, t)
	}
	c.BackgroundType = t
	c.Normalize()
	if t != BackgroundTransparent && len(c.BackgroundColors) == 0 {
		c.BackgroundColors = ColorSet{{ID: newID(), Value: DefaultBackground, Name: "Background"}}
	}
	return nil
}

// Apply runs a single operation against c.
func Apply(c *Configuration, op Operation) error {
	switch op.Op {
	case OpAddColor:
		set, err := c.ColorSet(op.Set)
		if err != nil {
			return err
		}
		set.Add()
		return nil
	case OpRemoveColor:
		set, err := c.ColorSet(op.Set)
		if err != nil {
			return err
		}
		return set.Remove(op.ID)
	case OpUpdateColor:
		set, err := c.ColorSet(op.Set)
		if err != nil {
			return err
		}
		return set.Update(op.ID, op.Value)
	case OpRenameColor:
		set, err := c.ColorSet(op.Set)
		if err != nil {
			return err
		}
		return set.Rename(op.ID, op.Name)
	case OpAddTextLayer:
		c.AddTextLayer()
		return nil
	case OpRemoveTextLayer:
		return c.RemoveTextLayer(op.ID)
	case OpMoveTextLayer:
		return c.MoveTextLayer(op.ID, op.Direction)
	case OpUpdateTextLayer:
		if op.Layer == nil {
			return fmt.Errorf("%w: update_text_layer requires layer", ErrValidation)
		}
		return c.UpdateTextLayer(op.ID, *op.Layer)
	case OpSelectIcon:
		return c.SelectIcon(op.Category, op.Name)
	case OpUpdateIconStyle:
		if op.Icon == nil {
			return fmt.Errorf("%w: update_icon_style requires icon", ErrValidation)
		}
		return c.UpdateIconStyle(*op.Icon)
	case OpSetBackgroundType:
		return c.SetBackgroundType(BackgroundType(op.Value))
	case OpUpdateSettings:
		if op.Settings == nil {
			return fmt.Errorf("%w: update_settings requires settings", ErrValidation)
		}
		merged := Merge(*c, *op.Settings)
		if err := merged.Validate(); err != nil {
			return err
		}
		*c = merged
		return nil
	}
	return fmt.Errorf("%w: unknown operation %q", ErrValidation, op.Op)
}

// ApplyAll runs ops in order on a copy of base. On the first failure base is returned untouched.
func ApplyAll(base Configuration, ops []Operation) (Configuration, error) {
	next := base.Clone()
	for i, op := range ops {
		if err := Apply(&next, op); err != nil {
			return base, fmt.Errorf("operation %d (%s): %w", i, op.Op, err)
		}
	}
	return next, nil
}
