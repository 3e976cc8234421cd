package species

const (
	// AcceptedStatus is the taxonomic status of currently recognised names.
	AcceptedStatus = "ACCEPTED"

	// MinQueryLength is the shortest accepted search query, in characters.
	MinQueryLength = 2

	// DefaultCountry is the ISO 3166-1 alpha-2 country the dashboard focuses on.
	DefaultCountry = "PL"

	// BaseTileStyle is the style of the base map tiles.
	BaseTileStyle = "gbif-tuatara"

	// Density tile rendering. The country filter is fixed, not taken from the request.
	DensitySRS        = "EPSG:4326"
	DensityBin        = "hex"
	DensityHexPerTile = 179
	DensityStyle      = "classic.poly"
)

// PopularSpeciesKeys are the GBIF taxon keys shown on the dashboard by default.
var PopularSpeciesKeys = []int64{
	2492010, // Passer domesticus
	2492048, // Turdus merula
	2492584, // Corvus cornix
	2492321, // Sturnus vulgaris
	2492670, // Pica pica
	2492017, // Passer montanus
}

// DefaultDensityOptions returns the density tile parameters for country.
func DefaultDensityOptions(country string) DensityOptions {
	if country == "" {
		country = DefaultCountry
	}
	return DensityOptions{
		SRS:        DensitySRS,
		Bin:        DensityBin,
		HexPerTile: DensityHexPerTile,
		Country:    country,
		Style:      DensityStyle,
	}
}
