package composition

// Override lists the settings an edit may replace. Nil fields keep the original value.
type Override struct {
	Width            *int            `json:"width,omitempty"`
	Height           *int            `json:"height,omitempty"`
	BackgroundType   *BackgroundType `json:"backgroundType,omitempty"`
	ArtStyle         *ArtStyle       `json:"artStyle,omitempty"`
	Industry         *string         `json:"industry,omitempty"`
	Is3D             *bool           `json:"is3D,omitempty"`
	Description      *string         `json:"description,omitempty"`
	BackgroundColors *ColorSet       `json:"backgroundColors,omitempty"`
	LogoColors       *ColorSet       `json:"logoColors,omitempty"`
	TextLayers       *[]TextLayer    `json:"textLayers,omitempty"`
	Icon             *Icon           `json:"icon,omitempty"`
}

// IsZero reports whether the override changes nothing.
func (o Override) IsZero() bool {
	return o.Width == nil && o.Height == nil && o.BackgroundType == nil && o.ArtStyle == nil &&
		o.Industry == nil && o.Is3D == nil && o.Description == nil && o.BackgroundColors == nil &&
		o.LogoColors == nil && o.TextLayers == nil && o.Icon == nil
}

// Merge returns base with every non-nil override field applied. Override wins on conflict.
func Merge(base Configuration, o Override) Configuration {
	out := base.Clone()
	if o.Width != nil {
		out.Width = *o.Width
	}
	if o.Height != nil {
		out.Height = *o.Height
	}
	if o.BackgroundType != nil {
		out.BackgroundType = *o.BackgroundType
	}
	if o.ArtStyle != nil {
		out.ArtStyle = *o.ArtStyle
	}
	if o.Industry != nil {
		out.Industry = *o.Industry
	}
	if o.Is3D != nil {
		out.Is3D = *o.Is3D
	}
	if o.Description != nil {
		out.Description = *o.Description
	}
	if o.BackgroundColors != nil {
		out.BackgroundColors = append(ColorSet(nil), (*o.BackgroundColors)...)
	}
	if o.LogoColors != nil {
		out.LogoColors = append(ColorSet(nil), (*o.LogoColors)...)
	}
	if o.TextLayers != nil {
		out.TextLayers = append([]TextLayer(nil), (*o.TextLayers)...)
	}
	if o.Icon != nil {
		icon := *o.Icon
		out.Icon = &icon
	}
	out.Normalize()
	return out
}
