package models

type Filter struct {
	Id          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type GaussMask struct {
	Ordinal int    `json:"ordinal"`
	Size    string `json:"size"`
}

type Format struct {
	Name     string `json:"name"`
	CanRead  bool   `json:"canRead"`
	CanWrite bool   `json:"canWrite"`
}

type Defaults struct {
	Filter   string `json:"filter"`
	MaskSize int    `json:"maskSize"`
	Anchor   int    `json:"anchor"`
	Offset   int    `json:"offset"`
	Engine   string `json:"engine"`
}

type CatalogueResponse struct {
	Filters    []Filter    `json:"filters"`
	GaussMasks []GaussMask `json:"gaussMasks"`
	Engines    []string    `json:"engines"`
	Formats    []Format    `json:"formats"`
	Defaults   Defaults    `json:"defaults"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
