package composition

// Font is a known text layer font family.
type Font string

const (
	FontInter      Font = "inter"
	FontRoboto     Font = "roboto"
	FontOpenSans   Font = "opensans"
	FontMontserrat Font = "montserrat"
	FontPlayfair   Font = "playfair"
)

// Fonts lists every supported font family in picker order.
var Fonts = []Font{FontInter, FontRoboto, FontOpenSans, FontMontserrat, FontPlayfair}

func (f Font) Valid() bool {
	for _, known := range Fonts {
		if f == known {
			return true
		}
	}
	return false
}

// Position places a text layer relative to the logo mark.
type Position string

const (
	PositionTop    Position = "top"
	PositionCenter Position = "center"
	PositionBottom Position = "bottom"
	PositionLeft   Position = "left"
	PositionRight  Position = "right"
)

var TextPositions = []Position{PositionTop, PositionCenter, PositionBottom, PositionLeft, PositionRight}

// IconPositions is the subset of positions an icon accepts.
var IconPositions = []Position{PositionLeft, PositionCenter, PositionRight}

func (p Position) validFor(allowed []Position) bool {
	for _, known := range allowed {
		if p == known {
			return true
		}
	}
	return false
}

// BackgroundType controls how background colors are rendered.
type BackgroundType string

const (
	BackgroundSolid       BackgroundType = "solid"
	BackgroundGradient    BackgroundType = "gradient"
	BackgroundTransparent BackgroundType = "transparent"
)

func (b BackgroundType) Valid() bool {
	switch b {
	case BackgroundSolid, BackgroundGradient, BackgroundTransparent:
		return true
	}
	return false
}

// ArtStyle is the visual style handed to the image generator.
type ArtStyle string

const (
	StyleMinimal      ArtStyle = "minimal"
	StyleFlat         ArtStyle = "flat"
	StyleGeometric    ArtStyle = "geometric"
	StyleAbstract     ArtStyle = "abstract"
	StyleIllustrative ArtStyle = "illustrative"
	StyleVintage      ArtStyle = "vintage"
	StyleModern       ArtStyle = "modern"
	StyleElegant      ArtStyle = "elegant"
	StyleDynamic      ArtStyle = "dynamic"
)

var ArtStyles = []ArtStyle{
	StyleMinimal, StyleFlat, StyleGeometric, StyleAbstract, StyleIllustrative,
	StyleVintage, StyleModern, StyleElegant, StyleDynamic,
}

func (s ArtStyle) Valid() bool {
	for _, known := range ArtStyles {
		if s == known {
			return true
		}
	}
	return false
}

// IconCategory groups decorative icons.
type IconCategory string

const (
	IconShapes  IconCategory = "shapes"
	IconSymbols IconCategory = "symbols"
	IconObjects IconCategory = "objects"
)

// IconCatalog maps each category to its glyph names.
var IconCatalog = map[IconCategory][]string{
	IconShapes:  {"Circle", "Square", "Triangle", "Hexagon", "Diamond", "Shield"},
	IconSymbols: {"Heart", "Star", "Lightning", "Flame", "Leaf", "Crown"},
	IconObjects: {"Home", "Building", "Car", "Plane", "Ship", "Rocket"},
}

// HasIcon reports whether name exists in category.
func HasIcon(category IconCategory, name string) bool {
	for _, n := range IconCatalog[category] {
		if n == name {
			return true
		}
	}
	return false
}

// Direction is a text layer reorder direction.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ColorEntry is one named color in an ordered set.
type ColorEntry struct {
	ID    string `json:"id"`
	Value string `json:"value"`
	Name  string `json:"name"`
}

// ColorSet is an ordered collection of colors; insertion order is display order.
type ColorSet []ColorEntry

// TextLayer is one piece of text drawn on the logo.
type TextLayer struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Color    string   `json:"color"`
	Font     Font     `json:"font"`
	Size     int      `json:"size"`
	Position Position `json:"position"`
	Rotation int      `json:"rotation"`
	Order    int      `json:"order"`
}

// Icon is the active decorative icon selection.
type Icon struct {
	Category  IconCategory `json:"category"`
	Name      string       `json:"name"`
	Color     string       `json:"color"`
	Thickness float64      `json:"thickness"`
	Position  Position     `json:"position"`
}

// Configuration is the full editable state of one logo.
type Configuration struct {
	Width            int            `json:"width"`
	Height           int            `json:"height"`
	BackgroundType   BackgroundType `json:"backgroundType"`
	ArtStyle         ArtStyle       `json:"artStyle"`
	Industry         string         `json:"industry"`
	Is3D             bool           `json:"is3D"`
	Description      string         `json:"description"`
	BackgroundColors ColorSet       `json:"backgroundColors"`
	LogoColors       ColorSet       `json:"logoColors"`
	TextLayers       []TextLayer    `json:"textLayers"`
	Icon             *Icon          `json:"icon,omitempty"`
}
