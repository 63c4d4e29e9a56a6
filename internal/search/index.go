// Package search mirrors listing projections into a search index and runs
// structured queries against it. Two backends share one contract: the
// OpenSearch client and an in-memory evaluator.
package search

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"

	"realestate-backend/internal/models"
	"realestate-backend/internal/query"
)

// Hit is one search result. Document is the stored projection.
type Hit struct {
	ID       string          `json:"id"`
	Score    float64         `json:"score"`
	Document models.Document `json:"document"`
}

// Result holds hits ordered by descending score. Total counts every match,
// not only the returned page.
type Result struct {
	Total int64 `json:"total"`
	Hits  []Hit `json:"hits"`
}

// Index is implemented by *Client and *MemoryIndex.
type Index interface {
	Upsert(ctx context.Context, index, id string, doc models.Document) error
	Delete(ctx context.Context, index, id string) error
	Search(ctx context.Context, index string, req query.Request) (*Result, error)
	Count(ctx context.Context, index string) (int64, error)
	Exists(ctx context.Context, index string) (bool, error)
	EnsureIndex(ctx context.Context, index string, kind models.Kind) error
	Ping(ctx context.Context) error
}

// Names maps record kinds to sub-index names.
type Names struct {
	Supply string
	Demand string
}

func DefaultNames() Names {
	return Names{Supply: "supply_properties", Demand: "demand_requests"}
}

func (n Names) For(kind models.Kind) string {
	if kind == models.KindDemand {
		return n.Demand
	}
	return n.Supply
}

//go:embed mappings/*.json
var mappings embed.FS

// CreateBody returns the settings and mapping used to create the index for kind.
func CreateBody(kind models.Kind) ([]byte, error) {
	settings, err := mappings.ReadFile("mappings/settings.json")
	if err != nil {
		return nil, err
	}
	mapping, err := mappings.ReadFile(fmt.Sprintf("mappings/%s.json", kind))
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]json.RawMessage{
		"settings": settings,
		"mappings": mapping,
	})
}
