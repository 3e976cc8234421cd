// Package species provides the species dashboard domain: provider-neutral
// upstream shapes, the stable output schema, and the service the HTTP
// handlers call.
package species

import "errors"

// Domain errors.
var (
	// ErrInvalidQuery is returned for search queries shorter than MinQueryLength.
	ErrInvalidQuery = errors.New("query must be at least 2 characters")

	// ErrDatasetKeyRequired is returned when a dataset tile is requested without a dataset key.
	ErrDatasetKeyRequired = errors.New("dataset_key is required")
)

// Taxon is a name usage as returned by the upstream species endpoints.
type Taxon struct {
	Key             int64
	ScientificName  string
	VernacularNames []VernacularName
	Kingdom         string
	Phylum          string
	Class           string
	Order           string
	Family          string
	Genus           string
	Species         string
	Rank            string
	TaxonomicStatus string
	DatasetKey      string
}

// VernacularName is one entry of a taxon's ordered vernacular name list.
type VernacularName struct {
	Name     *string
	Language string
}

// Occurrence carries the fields of an occurrence record used for timelines.
type Occurrence struct {
	Year  *int
	Month *int
}

// OccurrencePage is a single page of occurrence search results.
// Count is the total size of the result set, not len(Results).
type OccurrencePage struct {
	Count   int64
	Results []Occurrence
}

// OccurrenceQuery filters an occurrence search.
type OccurrenceQuery struct {
	TaxonKey int64
	Country  string

	// CoordinatesOnly keeps records with coordinates and without geospatial issues.
	CoordinatesOnly bool
}

// Record is the species record served to clients.
type Record struct {
	Key              int64   `json:"key"`
	ScientificName   string  `json:"scientificName"`
	VernacularName   *string `json:"vernacularName"`
	Kingdom          string  `json:"kingdom"`
	Phylum           string  `json:"phylum"`
	Class            string  `json:"class"`
	Order            string  `json:"order"`
	Family           string  `json:"family"`
	Genus            string  `json:"genus"`
	Species          string  `json:"species"`
	Rank             string  `json:"rank"`
	TaxonomicStatus  string  `json:"taxonomicStatus"`
	DatasetKey       string  `json:"datasetKey"`
	ObservationCount *int64  `json:"observationCount,omitempty"`
}

// Timeline summarises occurrences of a species over time.
type Timeline struct {
	Yearly            []YearCount  `json:"yearly"`
	Monthly           []MonthCount `json:"monthly"`
	TotalObservations int64        `json:"total_observations"`
	DateRange         DateRange    `json:"date_range"`
}

// YearCount is the number of occurrences recorded in a year.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// MonthCount is the number of occurrences recorded in a month, across years.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// DateRange is the span of years seen. Both ends are nil when no record has a year.
type DateRange struct {
	Earliest *int `json:"earliest"`
	Latest   *int `json:"latest"`
}

// TileRequest addresses one map tile.
type TileRequest struct {
	Z          int
	X          int
	Y          int
	DatasetKey string
}

// DensityOptions are the fixed rendering parameters for density tiles.
type DensityOptions struct {
	SRS        string
	Bin        string
	HexPerTile int
	Country    string
	Style      string
}
