package testutils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// FakeTableau is an in-process stand-in for the Tableau REST and Metadata APIs.
// It verifies the connected-app JWT and the session header on every call.
type FakeTableau struct {
	Secret  string
	Token   string
	SiteID  string
	Site    string
	PerPage int

	// Workbooks lists workbook ids in the order the REST API returns them.
	Workbooks []string
	// Details maps a workbook id to the GraphQL "workbooks[0]" payload.
	Details map[string]map[string]any
	// GraphQLErrors maps a workbook id to an error message returned instead of data.
	GraphQLErrors map[string]string
	// FailStatus forces every call on a path to answer with the given status.
	FailStatus map[string]int

	mu         sync.Mutex
	hits       map[string]int
	lastClaims jwt.MapClaims
	lastHeader map[string]any
	revoked    bool
}

// NewFakeTableau returns a fake with one session token and no content.
func NewFakeTableau() *FakeTableau {
	return &FakeTableau{
		Secret:        "connected-app-secret-value",
		Token:         "session-token",
		SiteID:        "site-luid",
		Site:          "acme",
		PerPage:       0,
		Details:       make(map[string]map[string]any),
		GraphQLErrors: make(map[string]string),
		FailStatus:    make(map[string]int),
		hits:          make(map[string]int),
	}
}

// Start serves the fake until the test ends and returns its base URL.
func (f *FakeTableau) Start(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(f.Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

// Hits returns how many times a route was called ("signin", "signout", "workbooks", "graphql").
func (f *FakeTableau) Hits(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[route]
}

// LastJWT returns the claims and header of the last accepted sign-in token.
func (f *FakeTableau) LastJWT() (jwt.MapClaims, map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastClaims, f.lastHeader
}

// AddWorkbook registers a workbook payload and appends its id to the listing.
func (f *FakeTableau) AddWorkbook(id string, detail map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Workbooks = append(f.Workbooks, id)
	f.Details[id] = detail
}

// RemoveWorkbook drops a workbook from the listing and its detail.
func (f *FakeTableau) RemoveWorkbook(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Workbooks = slices.DeleteFunc(f.Workbooks, func(w string) bool { return w == id })
	delete(f.Details, id)
}

// Handler exposes the fake routes.
func (f *FakeTableau) Handler() http.Handler {
	r := chi.NewRouter()
	r.Post("/api/3.23/auth/signin", f.route("signin", f.signIn))
	r.Post("/api/3.23/auth/signout", f.route("signout", f.authed(f.signOut)))
	r.Get("/api/3.23/sites/{siteID}/workbooks", f.route("workbooks", f.authed(f.listWorkbooks)))
	r.Post("/api/metadata/graphql", f.route("graphql", f.authed(f.graphQL)))
	return r
}

// Deployment implements tableau.Deployment against a fake base URL.
type Deployment struct {
	BaseURL string
}

func (d Deployment) RESTBaseURL() string { return d.BaseURL + "/api/3.23" }
func (d Deployment) MetadataURL() string { return d.BaseURL + "/api/metadata/graphql" }

func (f *FakeTableau) route(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits[name]++
		status := f.FailStatus[name]
		f.mu.Unlock()

		if status != 0 {
			writeJSON(w, status, map[string]any{"error": map[string]any{"summary": "forced failure"}})
			return
		}
		next(w, r)
	}
}

func (f *FakeTableau) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		ok := !f.revoked && r.Header.Get("X-Tableau-Auth") == f.Token
		f.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]any{"code": "401002"}})
			return
		}
		next(w, r)
	}
}

func (f *FakeTableau) signIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Credentials struct {
			JWT  string `json:"jwt"`
			Site struct {
				ContentURL string `json:"contentUrl"`
			} `json:"site"`
		} `json:"credentials"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "bad body"})
		return
	}

	token, err := jwt.Parse(body.Credentials.JWT, func(t *jwt.Token) (any, error) {
		return []byte(f.Secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithAudience("tableau"))
	if err != nil || body.Credentials.Site.ContentURL != f.Site {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]any{"code": "401001"}})
		return
	}

	f.mu.Lock()
	f.lastClaims, _ = token.Claims.(jwt.MapClaims)
	f.lastHeader = token.Header
	f.revoked = false
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"credentials": map[string]any{
			"token": f.Token,
			"site":  map[string]any{"id": f.SiteID, "contentUrl": f.Site},
		},
	})
}

func (f *FakeTableau) signOut(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.revoked = true
	f.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeTableau) listWorkbooks(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "siteID") != f.SiteID {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "unknown site"})
		return
	}
	f.mu.Lock()
	ids := slices.Clone(f.Workbooks)
	f.mu.Unlock()

	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if f.PerPage > 0 {
		pageSize = f.PerPage
	}
	if pageSize <= 0 {
		pageSize = len(ids)
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("pageNumber"))
	if page < 1 {
		page = 1
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(ids) {
		start = len(ids)
	}
	if end > len(ids) {
		end = len(ids)
	}

	entries := make([]map[string]any, 0, end-start)
	for _, id := range ids[start:end] {
		entries = append(entries, map[string]any{"id": id, "name": "wb " + id})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pagination": map[string]any{
			"pageNumber":     strconv.Itoa(page),
			"pageSize":       strconv.Itoa(pageSize),
			"totalAvailable": strconv.Itoa(len(ids)),
		},
		"workbooks": map[string]any{"workbook": entries},
	})
}

func (f *FakeTableau) graphQL(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "bad body"})
		return
	}
	luid := fmt.Sprint(body.Variables["luid"])

	if msg, ok := f.GraphQLErrors[luid]; ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"data":   nil,
			"errors": []any{map[string]any{"message": msg}},
		})
		return
	}

	workbooks := []any{}
	f.mu.Lock()
	detail, ok := f.Details[luid]
	f.mu.Unlock()
	if ok {
		workbooks = append(workbooks, detail)
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"workbooks": workbooks}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Workbook builds a Metadata API workbook payload.
func Workbook(id, name string, sheets ...map[string]any) map[string]any {
	list := make([]any, len(sheets))
	for i, s := range sheets {
		list[i] = s
	}
	return map[string]any{
		"luid":      id,
		"name":      name,
		"createdAt": "2024-01-01T00:00:00Z",
		"updatedAt": "2024-02-01T00:00:00Z",
		"uri":       "sites/1/workbooks/" + id,
		"sheets":    list,
	}
}

// Sheet builds a sheet payload whose single embedded data source points at the given
// published data sources. A nil entry in sources yields a published data source with a
// null luid.
func Sheet(id any, name string, sources ...map[string]any) map[string]any {
	published := make([]any, len(sources))
	for i, s := range sources {
		published[i] = s
	}
	return map[string]any{
		"luid":      id,
		"name":      name,
		"path":      "views/" + name,
		"createdAt": "2024-01-01T00:00:00Z",
		"updatedAt": "2024-02-01T00:00:00Z",
		"parentEmbeddedDatasources": []any{
			map[string]any{"parentPublishedDatasources": published},
		},
	}
}

// DataSource builds a published data source reference. A nil id encodes as null.
func DataSource(id any, name string) map[string]any {
	return map[string]any{"luid": id, "name": name}
}

// RequireNoHits fails the test if the route was called.
func (f *FakeTableau) RequireNoHits(t *testing.T, route string) {
	t.Helper()
	require.Zero(t, f.Hits(route), "unexpected %s calls", route)
}
