package search

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"realestate-backend/internal/models"
	"realestate-backend/internal/query"
)

type Config struct {
	Addresses   []string
	Username    string
	Password    string
	InsecureTLS bool
	// Refresh is passed on every write; "wait_for" makes the write visible
	// to the next search.
	Refresh string
}

// Client is the OpenSearch backend. It carries no business logic.
type Client struct {
	os      *opensearch.Client
	refresh string
}

func NewClient(cfg Config) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	osc, err := opensearch.NewClient(opensearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("opensearch client: %w", err)
	}
	return &Client{os: osc, refresh: cfg.Refresh}, nil
}

// StatusError is a non-2xx answer from the index.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: opensearch returned %d: %s", e.Op, e.Status, e.Body)
}

func statusError(op string, res *opensearchapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	return &StatusError{Op: op, Status: res.StatusCode, Body: string(bytes.TrimSpace(body))}
}

// Upsert replaces the whole document stored under id.
func (c *Client) Upsert(ctx context.Context, index, id string, doc models.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", id, err)
	}
	res, err := opensearchapi.IndexRequest{
		Index:      index,
		DocumentID: docPath(id),
		Body:       bytes.NewReader(body),
		Refresh:    c.refresh,
	}.Do(ctx, c.os)
	if err != nil {
		return fmt.Errorf("index %s/%s: %w", index, id, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return statusError("index "+index+"/"+id, res)
	}
	return nil
}

// Delete removes id. A missing document is not an error.
func (c *Client) Delete(ctx context.Context, index, id string) error {
	res, err := opensearchapi.DeleteRequest{
		Index:      index,
		DocumentID: docPath(id),
		Refresh:    c.refresh,
	}.Do(ctx, c.os)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", index, id, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return statusError("delete "+index+"/"+id, res)
	}
	return nil
}

// docPath escapes id for the request path. The client pastes DocumentID into
// the URL verbatim and the cluster unescapes it, so "a%20b" would otherwise
// be stored as "a b".
func docPath(id string) string {
	return url.PathEscape(id)
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string          `json:"_id"`
			Score  *float64        `json:"_score"`
			Source models.Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (c *Client) Search(ctx context.Context, index string, req query.Request) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	res, err := opensearchapi.SearchRequest{
		Index: []string{index},
		Body:  bytes.NewReader(body),
	}.Do(ctx, c.os)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, statusError("search "+index, res)
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	out := &Result{Total: parsed.Hits.Total.Value, Hits: make([]Hit, 0, len(parsed.Hits.Hits))}
	for _, h := range parsed.Hits.Hits {
		hit := Hit{ID: h.ID, Document: h.Source}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		out.Hits = append(out.Hits, hit)
	}
	return out, nil
}

func (c *Client) Count(ctx context.Context, index string) (int64, error) {
	res, err := opensearchapi.CountRequest{Index: []string{index}}.Do(ctx, c.os)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, statusError("count "+index, res)
	}
	var parsed struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decode count response: %w", err)
	}
	return parsed.Count, nil
}

func (c *Client) Exists(ctx context.Context, index string) (bool, error) {
	res, err := opensearchapi.IndicesExistsRequest{Index: []string{index}}.Do(ctx, c.os)
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", index, err)
	}
	defer res.Body.Close()
	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}
	return false, statusError("exists "+index, res)
}

// EnsureIndex creates index with the analysis settings and mapping for kind
// unless it already exists.
func (c *Client) EnsureIndex(ctx context.Context, index string, kind models.Kind) error {
	ok, err := c.Exists(ctx, index)
	if err != nil || ok {
		return err
	}
	body, err := CreateBody(kind)
	if err != nil {
		return fmt.Errorf("load mapping for %s: %w", kind, err)
	}
	res, err := opensearchapi.IndicesCreateRequest{
		Index: index,
		Body:  bytes.NewReader(body),
	}.Do(ctx, c.os)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return statusError("create index "+index, res)
	}
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	res, err := opensearchapi.PingRequest{}.Do(ctx, c.os)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return statusError("ping", res)
	}
	return nil
}

// WaitReady pings idx up to tries times, sleeping delay between attempts.
func WaitReady(ctx context.Context, idx Index, tries int, delay time.Duration) error {
	var err error
	for i := 0; i < tries; i++ {
		if err = idx.Ping(ctx); err == nil {
			return nil
		}
		if i == tries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("search index unreachable after %d attempts: %w", tries, err)
}

// Bootstrap waits for the index service and creates both sub-indices.
func Bootstrap(ctx context.Context, idx Index, names Names, tries int, delay time.Duration) error {
	if err := WaitReady(ctx, idx, tries, delay); err != nil {
		return err
	}
	for _, kind := range []models.Kind{models.KindSupply, models.KindDemand} {
		if err := idx.EnsureIndex(ctx, names.For(kind), kind); err != nil {
			return err
		}
	}
	return nil
}
