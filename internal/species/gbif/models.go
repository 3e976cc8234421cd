package gbif

import "github.com/speciesdash/speciesdash/internal/species"

// GBIF API response types.

type speciesSearchResponse struct {
	Offset       int         `json:"offset"`
	Limit        int         `json:"limit"`
	EndOfRecords bool        `json:"endOfRecords"`
	Count        int64       `json:"count"`
	Results      []nameUsage `json:"results"`
}

type nameUsage struct {
	Key             int64            `json:"key"`
	ScientificName  string           `json:"scientificName"`
	VernacularNames []vernacularName `json:"vernacularNames"`
	Kingdom         string           `json:"kingdom"`
	Phylum          string           `json:"phylum"`
	Class           string           `json:"class"`
	Order           string           `json:"order"`
	Family          string           `json:"family"`
	Genus           string           `json:"genus"`
	Species         string           `json:"species"`
	Rank            string           `json:"rank"`
	TaxonomicStatus string           `json:"taxonomicStatus"`
	DatasetKey      string           `json:"datasetKey"`
}

type vernacularName struct {
	VernacularName *string `json:"vernacularName"`
	Language       string  `json:"language"`
}

type occurrenceSearchResponse struct {
	Offset       int                `json:"offset"`
	Limit        int                `json:"limit"`
	EndOfRecords bool               `json:"endOfRecords"`
	Count        int64              `json:"count"`
	Results      []occurrenceRecord `json:"results"`
}

type occurrenceRecord struct {
	Key   int64 `json:"key"`
	Year  *int  `json:"year"`
	Month *int  `json:"month"`
}

func (u *nameUsage) toTaxon() species.Taxon {
	t := species.Taxon{
		Key:             u.Key,
		ScientificName:  u.ScientificName,
		Kingdom:         u.Kingdom,
		Phylum:          u.Phylum,
		Class:           u.Class,
		Order:           u.Order,
		Family:          u.Family,
		Genus:           u.Genus,
		Species:         u.Species,
		Rank:            u.Rank,
		TaxonomicStatus: u.TaxonomicStatus,
		DatasetKey:      u.DatasetKey,
	}

	if len(u.VernacularNames) > 0 {
		t.VernacularNames = make([]species.VernacularName, 0, len(u.VernacularNames))
		for _, v := range u.VernacularNames {
			t.VernacularNames = append(t.VernacularNames, species.VernacularName{
				Name:     v.VernacularName,
				Language: v.Language,
			})
		}
	}

	return t
}
