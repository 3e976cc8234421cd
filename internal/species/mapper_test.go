package species_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speciesdash/speciesdash/internal/species"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func occurrences(years, months []int) species.OccurrencePage {
	page := species.OccurrencePage{}
	n := len(years)
	if len(months) > n {
		n = len(months)
	}
	for i := 0; i < n; i++ {
		var occ species.Occurrence
		if i < len(years) {
			occ.Year = intPtr(years[i])
		}
		if i < len(months) {
			occ.Month = intPtr(months[i])
		}
		page.Results = append(page.Results, occ)
	}
	page.Count = int64(n)
	return page
}

func TestToRecord_CopiesFields(t *testing.T) {
	taxon := species.Taxon{
		Key:             2492010,
		ScientificName:  "Passer domesticus (Linnaeus, 1758)",
		VernacularNames: []species.VernacularName{{Name: strPtr("House Sparrow"), Language: "eng"}, {Name: strPtr("Wróbel")}},
		Kingdom:         "Animalia",
		Phylum:          "Chordata",
		Class:           "Aves",
		Order:           "Passeriformes",
		Family:          "Passeridae",
		Genus:           "Passer",
		Species:         "Passer domesticus",
		Rank:            "SPECIES",
		TaxonomicStatus: "ACCEPTED",
		DatasetKey:      "d7dddbf4-2cf0-4f39-9b2a-bb099caae36c",
	}

	record := species.ToRecord(taxon)

	assert.Equal(t, int64(2492010), record.Key)
	require.NotNil(t, record.VernacularName)
	assert.Equal(t, "House Sparrow", *record.VernacularName)
	assert.Equal(t, "Aves", record.Class)
	assert.Equal(t, "Passeriformes", record.Order)
	assert.Equal(t, "d7dddbf4-2cf0-4f39-9b2a-bb099caae36c", record.DatasetKey)
	assert.Nil(t, record.ObservationCount)
}

func TestToRecord_VernacularName(t *testing.T) {
	tests := []struct {
		name     string
		taxon    species.Taxon
		expected *string
	}{
		{"no list", species.Taxon{}, nil},
		{"empty list", species.Taxon{VernacularNames: []species.VernacularName{}}, nil},
		{"first entry without a name", species.Taxon{VernacularNames: []species.VernacularName{{Language: "eng"}}}, nil},
		{"first entry wins", species.Taxon{VernacularNames: []species.VernacularName{{Name: strPtr("House Sparrow")}, {Name: strPtr("Sparrow")}}}, strPtr("House Sparrow")},
		{"empty string is kept", species.Taxon{VernacularNames: []species.VernacularName{{Name: strPtr("")}}}, strPtr("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, species.ToRecord(tt.taxon).VernacularName)
		})
	}
}

func TestAcceptedRecords_FiltersAndKeepsOrder(t *testing.T) {
	taxa := []species.Taxon{
		{Key: 1, TaxonomicStatus: "ACCEPTED"},
		{Key: 2, TaxonomicStatus: "SYNONYM"},
		{Key: 3, TaxonomicStatus: "ACCEPTED"},
		{Key: 4, TaxonomicStatus: "accepted"},
		{Key: 5},
	}

	records := species.AcceptedRecords(taxa)

	require.Len(t, records, 2)
	assert.Equal(t, int64(1), records[0].Key)
	assert.Equal(t, int64(3), records[1].Key)
	for _, r := range records {
		assert.Equal(t, "ACCEPTED", r.TaxonomicStatus)
	}
}

func TestAcceptedRecords_EmptyIsNotNil(t *testing.T) {
	records := species.AcceptedRecords(nil)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestWithObservationCount(t *testing.T) {
	record := species.WithObservationCount(species.Record{Key: 7}, 0)
	require.NotNil(t, record.ObservationCount)
	assert.Equal(t, int64(0), *record.ObservationCount)
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "Jan", species.MonthLabel(1))
	assert.Equal(t, "Jun", species.MonthLabel(6))
	assert.Equal(t, "Dec", species.MonthLabel(12))
	assert.Equal(t, "13", species.MonthLabel(13))
	assert.Equal(t, "-1", species.MonthLabel(-1))
}

func TestBuildTimeline_YearsSortedAscending(t *testing.T) {
	timeline := species.BuildTimeline(occurrences([]int{2020, 2019, 2020}, nil))

	assert.Equal(t, []species.YearCount{{Year: 2019, Count: 1}, {Year: 2020, Count: 2}}, timeline.Yearly)
	require.NotNil(t, timeline.DateRange.Earliest)
	require.NotNil(t, timeline.DateRange.Latest)
	assert.Equal(t, 2019, *timeline.DateRange.Earliest)
	assert.Equal(t, 2020, *timeline.DateRange.Latest)
}

func TestBuildTimeline_OutOfRangeMonthKeptVerbatim(t *testing.T) {
	timeline := species.BuildTimeline(occurrences(nil, []int{13, 2}))

	assert.Equal(t, []species.MonthCount{{Month: "13", Count: 1}, {Month: "Feb", Count: 1}}, timeline.Monthly)
}

func TestBuildTimeline_MonthsInFirstSeenOrder(t *testing.T) {
	timeline := species.BuildTimeline(occurrences(nil, []int{3, 1, 3}))

	assert.Equal(t, []species.MonthCount{{Month: "Mar", Count: 2}, {Month: "Jan", Count: 1}}, timeline.Monthly)
}

func TestBuildTimeline_TotalComesFromUpstreamCount(t *testing.T) {
	page := occurrences([]int{2021}, []int{5})
	page.Count = 12345

	timeline := species.BuildTimeline(page)

	assert.Equal(t, int64(12345), timeline.TotalObservations)
	assert.Equal(t, []species.YearCount{{Year: 2021, Count: 1}}, timeline.Yearly)
}

func TestBuildTimeline_MissingOrZeroFieldsAreSkipped(t *testing.T) {
	page := species.OccurrencePage{
		Count: 3,
		Results: []species.Occurrence{
			{},
			{Year: intPtr(0), Month: intPtr(0)},
			{Month: intPtr(4)},
		},
	}

	timeline := species.BuildTimeline(page)

	assert.Empty(t, timeline.Yearly)
	assert.NotNil(t, timeline.Yearly)
	assert.Equal(t, []species.MonthCount{{Month: "Apr", Count: 1}}, timeline.Monthly)
	assert.Nil(t, timeline.DateRange.Earliest)
	assert.Nil(t, timeline.DateRange.Latest)
}

func TestBuildTimeline_EmptyPage(t *testing.T) {
	timeline := species.BuildTimeline(species.OccurrencePage{})

	assert.NotNil(t, timeline.Yearly)
	assert.NotNil(t, timeline.Monthly)
	assert.Equal(t, int64(0), timeline.TotalObservations)
}
