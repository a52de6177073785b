package chart

// Color tokens understood by the renderer.
const (
	ColorCallWallBar = "#00ffff"
	ColorPutWallBar  = "#ff00ff"
	ColorPositiveBar = "#00ff9d"
	ColorNegativeBar = "#ff3366"
	ColorSpotLine    = "#ff9900"
	ColorMaxOI       = "#bf00ff"
)

// Annotation keys. The map never holds anything else.
const (
	AnnotationCallWall = "callWall"
	AnnotationPutWall  = "putWall"
	AnnotationMaxOI    = "maxOI"
)

// Model is the library-independent render model for one snapshot.
type Model struct {
	Labels      []float64                `json:"labels"`
	Values      []float64                `json:"values"`
	Colors      []string                 `json:"colors"`
	Aux         Aux                      `json:"aux"`
	Spot        *SpotMarker              `json:"spot,omitempty"`
	Annotations map[string]ReferenceLine `json:"annotations"`
}

// Aux carries per-index tooltip data; it is not plotted.
type Aux struct {
	OpenInterest []int64 `json:"oi"`
	Volume       []int64 `json:"volume"`
}

// SpotMarker is the vertical line drawn at the strike closest to price.
type SpotMarker struct {
	Strike float64 `json:"strike"`
	Index  int     `json:"index"`
	YMin   float64 `json:"yMin"`
	YMax   float64 `json:"yMax"`
	Color  string  `json:"color"`
	Label  string  `json:"label"`
}

// ReferenceLine is a vertical line at a key level.
type ReferenceLine struct {
	Value         float64 `json:"value"`
	Label         string  `json:"label"`
	LineColor     string  `json:"lineColor"`
	LabelColor    string  `json:"labelColor"`
	LabelPosition string  `json:"labelPosition"`
	Dash          []int   `json:"dash,omitempty"`
}
