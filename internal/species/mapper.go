package species

import (
	"sort"
	"strconv"
)

var monthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// ToRecord maps an upstream taxon to the output schema.
func ToRecord(t Taxon) Record {
	return Record{
		Key:             t.Key,
		ScientificName:  t.ScientificName,
		VernacularName:  vernacularName(t),
		Kingdom:         t.Kingdom,
		Phylum:          t.Phylum,
		Class:           t.Class,
		Order:           t.Order,
		Family:          t.Family,
		Genus:           t.Genus,
		Species:         t.Species,
		Rank:            t.Rank,
		TaxonomicStatus: t.TaxonomicStatus,
		DatasetKey:      t.DatasetKey,
	}
}

// WithObservationCount returns r with its observation count set.
func WithObservationCount(r Record, count int64) Record {
	r.ObservationCount = &count
	return r
}

// AcceptedRecords maps the taxa whose status is exactly ACCEPTED, keeping their order.
func AcceptedRecords(taxa []Taxon) []Record {
	records := make([]Record, 0, len(taxa))
	for _, t := range taxa {
		if t.TaxonomicStatus != AcceptedStatus {
			continue
		}
		records = append(records, ToRecord(t))
	}
	return records
}

// vernacularName is the first entry of the ordered list, or nil without one.
func vernacularName(t Taxon) *string {
	if len(t.VernacularNames) == 0 {
		return nil
	}
	return t.VernacularNames[0].Name
}

// MonthLabel returns the English three-letter abbreviation for months 1-12
// and the decimal number for anything else.
func MonthLabel(month int) string {
	if month >= 1 && month <= 12 {
		return monthLabels[month-1]
	}
	return strconv.Itoa(month)
}

// BuildTimeline summarises a single page of occurrences in one pass.
// Years are emitted ascending; months in the order they were first seen.
func BuildTimeline(page OccurrencePage) Timeline {
	yearly := make(map[int]int)
	monthly := make([]MonthCount, 0, 12)
	monthIndex := make(map[string]int, 12)
	var dateRange DateRange

	for _, occ := range page.Results {
		if occ.Year != nil && *occ.Year != 0 {
			year := *occ.Year
			yearly[year]++
			if dateRange.Earliest == nil || year < *dateRange.Earliest {
				dateRange.Earliest = &year
			}
			if dateRange.Latest == nil || year > *dateRange.Latest {
				dateRange.Latest = &year
			}
		}

		if occ.Month != nil && *occ.Month != 0 {
			label := MonthLabel(*occ.Month)
			if i, ok := monthIndex[label]; ok {
				monthly[i].Count++
			} else {
				monthIndex[label] = len(monthly)
				monthly = append(monthly, MonthCount{Month: label, Count: 1})
			}
		}
	}

	years := make([]YearCount, 0, len(yearly))
	for year, count := range yearly {
		years = append(years, YearCount{Year: year, Count: count})
	}
	sort.Slice(years, func(i, j int) bool { return years[i].Year < years[j].Year })

	return Timeline{
		Yearly:            years,
		Monthly:           monthly,
		TotalObservations: page.Count,
		DateRange:         dateRange,
	}
}
