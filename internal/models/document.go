package models

// Document is the search-index projection of a committed row.
type Document map[string]any
