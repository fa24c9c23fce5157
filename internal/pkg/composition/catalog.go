package composition

// Limits are the numeric bounds enforced on a configuration.
type Limits struct {
	MinDimension     int     `json:"minDimension"`
	MaxDimension     int     `json:"maxDimension"`
	MinTextSize      int     `json:"minTextSize"`
	MaxTextSize      int     `json:"maxTextSize"`
	MaxRotation      int     `json:"maxRotation"`
	MinIconThickness float64 `json:"minIconThickness"`
	MaxIconThickness float64 `json:"maxIconThickness"`
}

// Catalog lists every enumerated choice a client may offer.
type Catalog struct {
	Fonts           []Font                    `json:"fonts"`
	TextPositions   []Position                `json:"textPositions"`
	IconPositions   []Position                `json:"iconPositions"`
	BackgroundTypes []BackgroundType          `json:"backgroundTypes"`
	ArtStyles       []ArtStyle                `json:"artStyles"`
	Icons           map[IconCategory][]string `json:"icons"`
	Limits          Limits                    `json:"limits"`
	Defaults        Configuration             `json:"defaults"`
}

func NewCatalog() Catalog {
	icons := make(map[IconCategory][]string, len(IconCatalog))
	for category, names := range IconCatalog {
		icons[category] = append([]string(nil), names...)
	}
	return Catalog{
		Fonts:           append([]Font(nil), Fonts...),
		TextPositions:   append([]Position(nil), TextPositions...),
		IconPositions:   append([]Position(nil), IconPositions...),
		BackgroundTypes: []BackgroundType{BackgroundSolid, BackgroundGradient, BackgroundTransparent},
		ArtStyles:       append([]ArtStyle(nil), ArtStyles...),
		Icons:           icons,
		Limits: Limits{
			MinDimension:     MinDimension,
			MaxDimension:     MaxDimension,
			MinTextSize:      MinTextSize,
			MaxTextSize:      MaxTextSize,
			MaxRotation:      MaxRotation,
			MinIconThickness: MinIconThickness,
			MaxIconThickness: MaxIconThickness,
		},
		Defaults: NewConfiguration(),
	}
}
