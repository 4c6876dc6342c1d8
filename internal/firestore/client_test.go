package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/madio-cloud/signalement-service/internal/errs"
)

func TestListDecodesTypedValues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/signalements" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"documents": [{
				"name": "projects/p/databases/(default)/documents/signalements/doc-1",
				"fields": {
					"latitude": {"doubleValue": 48.85},
					"longitude": {"integerValue": "2"},
					"avancement": {"integerValue": "50"},
					"description": {"stringValue": "pothole"},
					"syncedToPostgres": {"booleanValue": true},
					"dateSignalement": {"timestampValue": "2026-01-15T08:30:00Z"}
				}
			}]
		}`))
	}))
	defer srv.Close()

	c := NewClient("", srv.URL)
	docs, err := c.List(context.Background(), "signalements")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("List() len = %d", len(docs))
	}
	doc := docs[0]
	if doc.ID() != "doc-1" {
		t.Errorf("ID() = %q", doc.ID())
	}
	if v, ok := doc.Fields["latitude"].AsFloat(); !ok || v != 48.85 {
		t.Errorf("latitude = %v, %v", v, ok)
	}
	// integer-encoded coordinate coerces to float
	if v, ok := doc.Fields["longitude"].AsFloat(); !ok || v != 2 {
		t.Errorf("longitude = %v, %v", v, ok)
	}
	if v, ok := doc.Fields["avancement"].AsInt64(); !ok || v != 50 {
		t.Errorf("avancement = %v, %v", v, ok)
	}
	if v, ok := doc.Fields["description"].AsString(); !ok || v != "pothole" {
		t.Errorf("description = %v, %v", v, ok)
	}
	if v, ok := doc.Fields["syncedToPostgres"].AsBool(); !ok || !v {
		t.Errorf("syncedToPostgres = %v, %v", v, ok)
	}
	if v, ok := doc.Fields["dateSignalement"].AsTimestamp(); !ok || v != "2026-01-15T08:30:00Z" {
		t.Errorf("dateSignalement = %v, %v", v, ok)
	}
}

func TestListEmptyCollection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient("", srv.URL)
	docs, err := c.List(context.Background(), "signalements")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("List() len = %d", len(docs))
	}
}

func TestGetNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient("", srv.URL)
	_, err := c.Get(context.Background(), "signalements", "missing")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestPatchSendsUpdateMask(t *testing.T) {
	var gotMethod string
	var gotMask []string
	var gotBody struct {
		Fields map[string]Value `json:"fields"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotMask = r.URL.Query()["updateMask.fieldPaths"]
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"name": "x/signalements/doc-1"}`))
	}))
	defer srv.Close()

	c := NewClient("", srv.URL)
	fields := map[string]Value{
		"syncedToPostgres": Boolean(true),
		"postgresId":       Integer(42),
	}
	err := c.Patch(context.Background(), "signalements", "doc-1", fields, []string{"syncedToPostgres", "postgresId"})
	if err != nil {
		t.Fatalf("Patch() error = %v", err)
	}
	if gotMethod != http.MethodPatch {
		t.Errorf("method = %s", gotMethod)
	}
	if len(gotMask) != 2 {
		t.Errorf("mask = %v", gotMask)
	}
	if v, ok := gotBody.Fields["postgresId"].AsInt64(); !ok || v != 42 {
		t.Errorf("postgresId = %v, %v", v, ok)
	}
	if v, ok := gotBody.Fields["syncedToPostgres"].AsBool(); !ok || !v {
		t.Errorf("syncedToPostgres = %v, %v", v, ok)
	}
}

func TestCreateReturnsAssignedID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		w.Write([]byte(`{"name": "projects/p/databases/(default)/documents/users/new-doc-7"}`))
	}))
	defer srv.Close()

	c := NewClient("", srv.URL)
	id, err := c.Create(context.Background(), "users", map[string]Value{"email": String("a@b.mg")})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id != "new-doc-7" {
		t.Fatalf("Create() id = %q", id)
	}
}

func TestDelete(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient("", srv.URL)
	if err := c.Delete(context.Background(), "signalements", "doc-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("method = %s", gotMethod)
	}
	if gotPath != "/signalements/doc-1" {
		t.Errorf("path = %s", gotPath)
	}
}

func TestDeleteNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient("", srv.URL)
	err := c.Delete(context.Background(), "signalements", "missing")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient("", srv.URL)
	_, err := c.List(context.Background(), "signalements")
	if !errors.Is(err, errs.ErrUnavailable) {
		t.Fatalf("List() error = %v, want ErrUnavailable", err)
	}
}

func TestUnreachableHostIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient("", srv.URL)
	_, err := c.List(context.Background(), "signalements")
	if !errors.Is(err, errs.ErrUnavailable) {
		t.Fatalf("List() error = %v, want ErrUnavailable", err)
	}
}

func TestBadPayloadIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"documents": "not-an-array"`))
	}))
	defer srv.Close()

	c := NewClient("", srv.URL)
	_, err := c.List(context.Background(), "signalements")
	if !errors.Is(err, errs.ErrMalformed) {
		t.Fatalf("List() error = %v, want ErrMalformed", err)
	}
}
