package tableserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func do(t *testing.T, s *Server, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

var representation = map[string]string{"Prefer": "return=representation"}

func decode(t *testing.T, w *httptest.ResponseRecorder) []Row {
	t.Helper()
	var rows []Row
	if err := json.Unmarshal(w.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return rows
}

func sequence(ids ...string) func() string {
	i := 0
	return func() string {
		id := ids[i]
		i++
		return id
	}
}

func TestInsertEchoesRowsAndGeneratesIDs(t *testing.T) {
	s := New(WithIDGenerator(sequence("gen-1", "gen-2")))
	w := do(t, s, http.MethodPost, "/rest/v1/customers", `[{"name":"Acme"},{"id":"c-2","name":"Zeta"}]`, representation)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body)
	}
	got := decode(t, w)
	want := []Row{{"id": "gen-1", "name": "Acme"}, {"id": "c-2", "name": "Zeta"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("echo mismatch (-want +got):\n%s", diff)
	}

	w = do(t, s, http.MethodPost, "/rest/v1/customers", `{"name":"Quiet"}`, nil)
	if w.Code != http.StatusCreated || w.Body.Len() != 0 {
		t.Fatalf("expected empty 201 without Prefer, got %d %q", w.Code, w.Body)
	}
	if n := len(s.Rows("customers")); n != 3 {
		t.Fatalf("expected 3 rows, got %d", n)
	}
}

func TestListFiltersAndOrders(t *testing.T) {
	s := New()
	do(t, s, http.MethodPost, "/rest/v1/projects", `[
		{"id":"p1","customer_id":"a","number":"P10","site_id":null},
		{"id":"p2","customer_id":"b","number":"P2","site_id":"s1"},
		{"id":"p3","customer_id":"a","number":"P3","site_id":"s1"}
	]`, nil)

	cases := []struct {
		name  string
		query url.Values
		want  []string
	}{
		{"eq", url.Values{"customer_id": {"eq.a"}, "order": {"number.asc"}}, []string{"p1", "p3"}},
		{"in", url.Values{"id": {"in.(p1,p2)"}, "order": {"id.desc"}}, []string{"p2", "p1"}},
		{"empty in", url.Values{"id": {"in.()"}}, nil},
		{"is null", url.Values{"site_id": {"is.null"}}, []string{"p1"}},
		{"neq", url.Values{"customer_id": {"neq.a"}}, []string{"p2"}},
		{"combined", url.Values{"customer_id": {"eq.a"}, "site_id": {"eq.s1"}}, []string{"p3"}},
		{"nulls last", url.Values{"order": {"site_id.desc,id.asc"}}, []string{"p2", "p3", "p1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, s, http.MethodGet, "/rest/v1/projects?"+tc.query.Encode(), "", nil)
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
			}
			var ids []string
			for _, row := range decode(t, w) {
				ids = append(ids, row["id"].(string))
			}
			if diff := cmp.Diff(tc.want, ids); diff != "" {
				t.Fatalf("ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPatchAndDeleteRequireFilters(t *testing.T) {
	s := New()
	do(t, s, http.MethodPost, "/rest/v1/contacts", `[{"id":"k1","site_id":"s1"},{"id":"k2","site_id":"s2"}]`, nil)

	if w := do(t, s, http.MethodPatch, "/rest/v1/contacts", `{"site_id":null}`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected unfiltered PATCH to be refused, got %d", w.Code)
	}
	if w := do(t, s, http.MethodDelete, "/rest/v1/contacts", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected unfiltered DELETE to be refused, got %d", w.Code)
	}

	w := do(t, s, http.MethodPatch, "/rest/v1/contacts?site_id=eq.s1", `{"site_id":null,"id":"ignored"}`, representation)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	if diff := cmp.Diff([]Row{{"id": "k1", "site_id": nil}}, decode(t, w)); diff != "" {
		t.Fatalf("patch echo mismatch (-want +got):\n%s", diff)
	}

	if w := do(t, s, http.MethodDelete, "/rest/v1/contacts?id=eq.k2", "", nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	rows := s.Rows("contacts")
	if len(rows) != 1 || rows[0]["id"] != "k1" {
		t.Fatalf("unexpected rows after delete: %+v", rows)
	}
}

func TestErrors(t *testing.T) {
	s := New(WithTables("customers"))
	cases := []struct {
		name   string
		method string
		target string
		body   string
		code   int
	}{
		{"unknown table", http.MethodGet, "/rest/v1/invoices", "", http.StatusNotFound},
		{"bad operator", http.MethodGet, "/rest/v1/customers?name=like.A", "", http.StatusBadRequest},
		{"missing operator", http.MethodGet, "/rest/v1/customers?name=Acme", "", http.StatusBadRequest},
		{"bad order", http.MethodGet, "/rest/v1/customers?order=name.sideways", "", http.StatusBadRequest},
		{"bad body", http.MethodPost, "/rest/v1/customers", "{", http.StatusBadRequest},
		{"null row", http.MethodPost, "/rest/v1/customers", "[null]", http.StatusBadRequest},
		{"array patch", http.MethodPatch, "/rest/v1/customers?id=eq.1", "[]", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, s, tc.method, tc.target, tc.body, nil)
			if w.Code != tc.code {
				t.Fatalf("expected %d, got %d: %s", tc.code, w.Code, w.Body)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["message"] == "" {
				t.Fatalf("expected JSON error body, got %q", w.Body)
			}
		})
	}
}

func TestAPIKey(t *testing.T) {
	s := New(WithAPIKey("secret"))
	if w := do(t, s, http.MethodGet, "/rest/v1/customers", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", w.Code)
	}
	if w := do(t, s, http.MethodGet, "/rest/v1/customers", "", map[string]string{"apikey": "secret"}); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with apikey header, got %d", w.Code)
	}
	if w := do(t, s, http.MethodGet, "/rest/v1/customers", "", map[string]string{"Authorization": "Bearer secret"}); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with bearer token, got %d", w.Code)
	}
}

func TestTablesSorted(t *testing.T) {
	got := New(WithTables("sites", "customers")).Tables()
	if diff := cmp.Diff([]string{"customers", "sites"}, got); diff != "" {
		t.Fatalf("tables mismatch (-want +got):\n%s", diff)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(WithMetrics(reg), WithAPIKey("secret"))

	key := map[string]string{"apikey": "secret"}
	do(t, s, http.MethodPost, "/rest/v1/customers", `{"name":"Acme"}`, key)
	do(t, s, http.MethodGet, "/rest/v1/customers", "", key)
	do(t, s, http.MethodGet, "/rest/v1/customers", "", nil)

	if got := testutil.ToFloat64(s.requests.WithLabelValues("customers", http.MethodPost, "201")); got != 1 {
		t.Fatalf("expected one counted insert, got %v", got)
	}
	if got := testutil.ToFloat64(s.requests.WithLabelValues("customers", http.MethodGet, "401")); got != 1 {
		t.Fatalf("expected one counted rejection, got %v", got)
	}

	w := do(t, s, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected metrics without a key, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "fieldbook_tableserver_requests_total") {
		t.Fatalf("metrics output missing request counter:\n%s", w.Body.String())
	}

	again := New(WithMetrics(reg))
	if again.requests != s.requests {
		t.Fatal("expected a second server on the same registry to share the counter")
	}
}
