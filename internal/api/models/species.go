package models

import "github.com/speciesdash/speciesdash/internal/species"

// ServiceInfo is the body of the root endpoint.
type ServiceInfo struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

// SearchResponse is the body of the species search endpoint.
type SearchResponse struct {
	Results []species.Record `json:"results"`
}

// PopularSpeciesResponse is the body of the popular species endpoint.
type PopularSpeciesResponse struct {
	Species []species.Record `json:"species"`
}

// SearchParams are the query parameters of the species search endpoint.
type SearchParams struct {
	Query string `query:"q" validate:"required,min=2"`
}
