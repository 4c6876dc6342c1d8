package firestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/madio-cloud/signalement-service/internal/errs"
)

// Document is a Firestore REST document. Name is the full resource path;
// the trailing segment is the document id.
type Document struct {
	Name   string           `json:"name"`
	Fields map[string]Value `json:"fields"`
}

// ID returns the trailing segment of the document name.
func (d Document) ID() string {
	if i := strings.LastIndexByte(d.Name, '/'); i >= 0 {
		return d.Name[i+1:]
	}
	return d.Name
}

// Client is a thin typed wrapper over the Firestore REST surface. No retries
// are performed here; failures propagate as errs.ErrUnavailable,
// errs.ErrNotFound or errs.ErrMalformed and the caller decides retry policy.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for a project. baseURL, when non-empty,
// overrides the computed documents URL (tests, emulators).
func NewClient(projectID, baseURL string) *Client {
	if baseURL == "" {
		baseURL = fmt.Sprintf(
			"https://firestore.googleapis.com/v1/projects/%s/databases/(default)/documents",
			projectID,
		)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type listResponse struct {
	Documents []Document `json:"documents"`
}

// List fetches every document of a collection. An empty collection yields an
// empty slice, not an error.
func (c *Client) List(ctx context.Context, collection string) ([]Document, error) {
	body, err := c.do(ctx, http.MethodGet, c.baseURL+"/"+collection, nil)
	if err != nil {
		return nil, err
	}
	var out listResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decode list %s: %v", errs.ErrMalformed, collection, err)
	}
	return out.Documents, nil
}

func (c *Client) Get(ctx context.Context, collection, id string) (*Document, error) {
	body, err := c.do(ctx, http.MethodGet, c.baseURL+"/"+collection+"/"+id, nil)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode document %s/%s: %v", errs.ErrMalformed, collection, id, err)
	}
	return &doc, nil
}

// Create adds a document; the store assigns the id, which is returned.
func (c *Client) Create(ctx context.Context, collection string, fields map[string]Value) (string, error) {
	payload, err := json.Marshal(map[string]any{"fields": fields})
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, c.baseURL+"/"+collection, payload)
	if err != nil {
		return "", err
	}
	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("%w: decode create response: %v", errs.ErrMalformed, err)
	}
	return doc.ID(), nil
}

// Patch updates the named fields of a document. Firestore PATCH has upsert
// semantics; with an update mask only the masked fields are touched.
func (c *Client) Patch(ctx context.Context, collection, id string, fields map[string]Value, mask []string) error {
	u := c.baseURL + "/" + collection + "/" + id
	if len(mask) > 0 {
		q := url.Values{}
		for _, f := range mask {
			q.Add("updateMask.fieldPaths", f)
		}
		u += "?" + q.Encode()
	}
	payload, err := json.Marshal(map[string]any{"fields": fields})
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	_, err = c.do(ctx, http.MethodPatch, u, payload)
	return err
}

func (c *Client) Delete(ctx context.Context, collection, id string) error {
	_, err := c.do(ctx, http.MethodDelete, c.baseURL+"/"+collection+"/"+id, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	var reader *bytes.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", errs.ErrUnavailable, method, url, err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("%w: read response: %v", errs.ErrUnavailable, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", errs.ErrNotFound, url)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d from %s", errs.ErrUnavailable, resp.StatusCode, url)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: status %d from %s: %s", errs.ErrMalformed, resp.StatusCode, url, buf.String())
	}
	return buf.Bytes(), nil
}
