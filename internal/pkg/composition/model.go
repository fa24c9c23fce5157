package composition

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

const (
	MinDimension = 100
	MaxDimension = 2048

	MinTextSize     = 8
	MaxTextSize     = 72
	DefaultTextSize = 16
	MaxRotation     = 359

	MinIconThickness     = 1.0
	MaxIconThickness     = 8.0
	DefaultIconThickness = 2.0

	DefaultColorValue     = "#3b82f6"
	DefaultSecondaryValue = "#8b5cf6"
	DefaultBackground     = "#ffffff"
	DefaultInkColor       = "#000000"
	defaultDimension      = 512
)

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// ValidColor reports whether v is a #rgb, #rrggbb or #rrggbbaa hex color.
func ValidColor(v string) bool {
	return hexColorPattern.MatchString(v)
}

// newID is swapped in tests that need deterministic ids.
var newID = func() string { return uuid.NewString() }

// NewConfiguration returns the initial editor state.
func NewConfiguration() Configuration {
	return Configuration{
		Width:          defaultDimension,
		Height:         defaultDimension,
		BackgroundType: BackgroundSolid,
		ArtStyle:       StyleMinimal,
		BackgroundColors: ColorSet{
			{ID: "1", Value: DefaultBackground, Name: "Background"},
		},
		LogoColors: ColorSet{
			{ID: "1", Value: DefaultColorValue, Name: "Primary"},
			{ID: "2", Value: DefaultSecondaryValue, Name: "Secondary"},
		},
		TextLayers: []TextLayer{newTextLayer(0)},
	}
}

func newTextLayer(order int) TextLayer {
	return TextLayer{
		ID:       newID(),
		Color:    DefaultInkColor,
		Font:     FontInter,
		Size:     DefaultTextSize,
		Position: PositionCenter,
		Order:    order,
	}
}

// Normalize enforces derived invariants that are not caller errors.
func (c *Configuration) Normalize() {
	if c.BackgroundType == BackgroundTransparent {
		c.BackgroundColors = ColorSet{}
	}
}

// Clone returns a deep copy.
func (c Configuration) Clone() Configuration {
	out := c
	out.BackgroundColors = append(ColorSet(nil), c.BackgroundColors...)
	out.LogoColors = append(ColorSet(nil), c.LogoColors...)
	out.TextLayers = append([]TextLayer(nil), c.TextLayers...)
	if c.Icon != nil {
		icon := *c.Icon
		out.Icon = &icon
	}
	return out
}

// Validate checks a caller-supplied configuration. It never fills defaults.
func (c *Configuration) Validate() error {
	if c.Width < MinDimension || c.Width > MaxDimension {
		return fmt.Errorf("%w: width %d out of range [%d,%d]", ErrValidation, c.Width, MinDimension, MaxDimension)
	}
	if c.Height < MinDimension || c.Height > MaxDimension {
		return fmt.Errorf("%w: height %d out of range [%d,%d]", ErrValidation, c.Height, MinDimension, MaxDimension)
	}
	if !c.BackgroundType.Valid() {
		return fmt.Errorf("%w: unknown background type %q", ErrValidation, c.BackgroundType)
	}
	if !c.ArtStyle.Valid() {
		return fmt.Errorf("%w: unknown art style %q", ErrValidation, c.ArtStyle)
	}
	if c.BackgroundType != BackgroundTransparent {
		if len(c.BackgroundColors) == 0 {
			return fmt.Errorf("%w: background colors required for %s background", ErrValidation, c.BackgroundType)
		}
		if err := c.BackgroundColors.validate("backgroundColors"); err != nil {
			return err
		}
	}
	if len(c.LogoColors) == 0 {
		return fmt.Errorf("%w: at least one logo color is required", ErrValidation)
	}
	if err := c.LogoColors.validate("logoColors"); err != nil {
		return err
	}
	if err := validateLayers(c.TextLayers); err != nil {
		return err
	}
	if c.Icon != nil {
		if err := c.Icon.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (s ColorSet) validate(field string) error {
	seen := make(map[string]struct{}, len(s))
	for _, entry := range s {
		if entry.ID == "" {
			return fmt.Errorf("%w: %s entry without id", ErrValidation, field)
		}
		if _, dup := seen[entry.ID]; dup {
			return fmt.Errorf("%w: %s duplicate id %q", ErrValidation, field, entry.ID)
		}
		seen[entry.ID] = struct{}{}
		if !ValidColor(entry.Value) {
			return fmt.Errorf("%w: %s invalid color %q", ErrValidation, field, entry.Value)
		}
	}
	return nil
}

func validateLayers(layers []TextLayer) error {
	if len(layers) == 0 {
		return fmt.Errorf("%w: at least one text layer is required", ErrValidation)
	}
	seen := make(map[string]struct{}, len(layers))
	for i, l := range layers {
		if l.ID == "" {
			return fmt.Errorf("%w: text layer %d without id", ErrValidation, i)
		}
		if _, dup := seen[l.ID]; dup {
			return fmt.Errorf("%w: duplicate text layer id %q", ErrValidation, l.ID)
		}
		seen[l.ID] = struct{}{}
		if l.Order != i {
			return fmt.Errorf("%w: text layer %q has order %d at position %d", ErrValidation, l.ID, l.Order, i)
		}
		if !l.Font.Valid() {
			return fmt.Errorf("%w: unknown font %q", ErrValidation, l.Font)
		}
		if !l.Position.validFor(TextPositions) {
			return fmt.Errorf("%w: unknown text position %q", ErrValidation, l.Position)
		}
		if l.Size < MinTextSize || l.Size > MaxTextSize {
			return fmt.Errorf("%w: text size %d out of range [%d,%d]", ErrValidation, l.Size, MinTextSize, MaxTextSize)
		}
		if l.Rotation < 0 || l.Rotation > MaxRotation {
			return fmt.Errorf("%w: rotation %d out of range [0,360)", ErrValidation, l.Rotation)
		}
		if l.Color != "" && !ValidColor(l.Color) {
			return fmt.Errorf("%w: invalid text color %q", ErrValidation, l.Color)
		}
	}
	return nil
}

func (i *Icon) validate() error {
	if !HasIcon(i.Category, i.Name) {
		return fmt.Errorf("%w: unknown icon %s/%s", ErrValidation, i.Category, i.Name)
	}
	if !i.Position.validFor(IconPositions) {
		return fmt.Errorf("%w: unknown icon position %q", ErrValidation, i.Position)
	}
	if i.Thickness < MinIconThickness || i.Thickness > MaxIconThickness {
		return fmt.Errorf("%w: icon thickness %v out of range [1,8]", ErrValidation, i.Thickness)
	}
	if !ValidColor(i.Color) {
		return fmt.Errorf("%w: invalid icon color %q", ErrValidation, i.Color)
	}
	return nil
}
