package normalize

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"fieldbook/internal/logging"
	"fieldbook/pkg/domain"
)

const messyDocument = `{
  "customers": [
    {
      "id": "c2", "name": "  Zeta Foods ", "address": "", "legacyFlag": true,
      "sites": [{"id": "s1", "name": "Plant 2"}, {"id": "s0", "name": "Plant 10"}, {"name": ""}],
      "contacts": [{"id": "ct1", "name": "Ann", "siteId": "missing"}, {"id": "ct2", "name": "Bo", "siteId": "s1"}],
      "machines": [{"id": "m1", "name": "Filler", "siteId": "s0"}],
      "projects": [
        {
          "id": "p1", "number": "1403", "status": "completed", "activeSubStatus": "Build",
          "notes": "old note field", "siteId": "s9",
          "workOrders": ["22", {"number": "wo7", "type": "on site"}, {"number": ""}],
          "purchaseOrder": " PO-77 ",
          "tasks": [
            {"id": "t1", "name": "Wire", "status": "in_progress", "startAt": "2024-05-02T10:00:00Z", "endAt": "2024-05-01T10:00:00Z", "assigneeId": "ghost"},
            {"id": "t2", "name": "Test", "status": "bogus", "startAt": "not a date"}
          ],
          "documents": {"photos": [{"id": "d1", "label": "Front"}], "video": [{"id": "d2", "label": "x"}], "quote": []},
          "onsiteReports": [
            {"id": "r1", "reportDate": "2024-04-01", "arrivalTime": "9am", "workSummary": "Serviced", "signedByName": "Ann",
             "serviceEntries": [{"id": "e1", "machineId": "m1", "serviceCount": 2}, {"id": "e2", "machineId": "m9", "serviceCount": -1}]},
            {"id": "r2", "reportDate": "2024-06-01", "workSummary": "Follow-up", "signedByName": "Bo",
             "signatureImage": "javascript:alert(1)", "signatureStrokes": [[{"x": 1, "y": 2}], [], [{"x": "a"}]]},
            {"id": "r3", "workSummary": "", "signedByName": "Nobody"}
          ]
        },
        {"id": "p2", "number": "p9", "status": "weird"}
      ]
    },
    {"id": "c1", "name": "Acme"},
    {"id": "c1", "name": "Acme duplicate"},
    {"name": ""},
    "not a customer"
  ],
  "users": [{"id": "u1", "name": "Eve", "role": "boss", "active": "false"}],
  "businessSettings": {"workdayStart": "18:00", "workdayEnd": "09:00", "workingDays": [5, 1, 1, 9]},
  "somethingElse": 1
}`

func decodeMessy(t *testing.T) domain.Graph {
	t.Helper()
	g, err := Decode([]byte(messyDocument))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return g
}

func TestDecodeFiltersAndRepairs(t *testing.T) {
	g := decodeMessy(t)

	if len(g.Customers) != 2 {
		t.Fatalf("expected 2 customers, got %d: %+v", len(g.Customers), g.Customers)
	}
	if g.Customers[0].Name != "Acme" || g.Customers[1].Name != "Zeta Foods" {
		t.Fatalf("customers not sorted or trimmed: %q, %q", g.Customers[0].Name, g.Customers[1].Name)
	}
	zeta := g.Customers[1]
	if zeta.Address != "" {
		t.Fatalf("empty address should be absent, got %q", zeta.Address)
	}
	if len(zeta.Sites) != 2 || zeta.Sites[0].Name != "Plant 2" || zeta.Sites[1].Name != "Plant 10" {
		t.Fatalf("sites should be numeric-aware sorted: %+v", zeta.Sites)
	}
	if zeta.Contacts[0].SiteID != "" || zeta.Contacts[1].SiteID != "s1" {
		t.Fatalf("dangling contact site should be dropped: %+v", zeta.Contacts)
	}

	if len(zeta.Projects) != 2 {
		t.Fatalf("expected 2 projects, got %+v", zeta.Projects)
	}
	p1403 := zeta.Projects[1]
	p9 := zeta.Projects[0]
	if p9.Number != "P9" || p1403.Number != "P1403" {
		t.Fatalf("project numbers not canonical or sorted: %q, %q", p9.Number, p1403.Number)
	}
	if p9.Status != domain.ProjectActive || p9.ActiveSubStatus != domain.SubStatusNotStarted {
		t.Fatalf("unknown status should fall back to Active/Not Started: %+v", p9)
	}
	if len(p9.StatusHistory) != 1 || p9.StatusHistory[0].Status != domain.ProjectActive {
		t.Fatalf("expected synthetic history, got %+v", p9.StatusHistory)
	}
	if p1403.Status != domain.ProjectComplete || p1403.ActiveSubStatus != "" {
		t.Fatalf("complete project must not carry a sub-status: %+v", p1403)
	}
	if p1403.Note != "old note field" || p1403.SiteID != "" {
		t.Fatalf("legacy note or dangling site not handled: note=%q site=%q", p1403.Note, p1403.SiteID)
	}

	gotWOs := []string{}
	for _, wo := range p1403.WorkOrders {
		gotWOs = append(gotWOs, wo.Number+"/"+string(wo.Type))
	}
	if diff := cmp.Diff([]string{"WO7/Onsite", "WO22/Build"}, gotWOs); diff != "" {
		t.Fatalf("work orders mismatch (-want +got):\n%s", diff)
	}
	if len(p1403.PurchaseOrders) != 1 || p1403.PurchaseOrders[0].Number != "PO-77" {
		t.Fatalf("single purchase order not migrated: %+v", p1403.PurchaseOrders)
	}

	tasks := map[string]domain.ProjectTask{}
	for _, task := range p1403.Tasks {
		tasks[task.ID] = task
	}
	if w := tasks["t1"]; w.Status != domain.TaskInProgress || !w.EndAt.Equal(w.StartAt) || w.AssigneeID != "" {
		t.Fatalf("task t1 not repaired: %+v", w)
	}
	if ts := tasks["t2"]; ts.Status != domain.TaskNotStarted || !ts.StartAt.IsZero() {
		t.Fatalf("task t2 not defaulted: %+v", ts)
	}

	if diff := cmp.Diff([]domain.DocumentCategory{domain.DocumentPhoto}, keys(p1403.Documents)); diff != "" {
		t.Fatalf("document categories mismatch (-want +got):\n%s", diff)
	}

	if len(p1403.OnsiteReports) != 2 {
		t.Fatalf("expected 2 reports, got %+v", p1403.OnsiteReports)
	}
	newest, older := p1403.OnsiteReports[0], p1403.OnsiteReports[1]
	if newest.ID != "r2" || older.ID != "r1" {
		t.Fatalf("reports should be newest first: %s, %s", newest.ID, older.ID)
	}
	if newest.SignatureImage != "" || len(newest.SignatureStrokes) != 1 {
		t.Fatalf("signature not filtered: %+v", newest)
	}
	if older.ArrivalTime != "" {
		t.Fatalf("malformed time should be absent, got %q", older.ArrivalTime)
	}
	if len(older.ServiceEntries) != 2 || older.ServiceEntries[1].MachineID != "" || older.ServiceEntries[1].ServiceCount != nil {
		t.Fatalf("service entries not repaired: %+v", older.ServiceEntries)
	}
	if older.ServiceEntries[0].ServiceCount == nil || *older.ServiceEntries[0].ServiceCount != 2 {
		t.Fatalf("service count lost: %+v", older.ServiceEntries[0])
	}

	if len(g.Users) != 1 || g.Users[0].Role != domain.RoleEngineer || g.Users[0].Active {
		t.Fatalf("user not normalized: %+v", g.Users)
	}
	want := domain.BusinessSettings{WorkdayStart: "08:00", WorkdayEnd: "17:00", WorkingDays: []int{1, 5}}
	if diff := cmp.Diff(want, g.BusinessSettings); diff != "" {
		t.Fatalf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	once := decodeMessy(t)
	twice, err := Graph(once)
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("normalize(normalize(G)) != normalize(G) (-once +twice):\n%s", diff)
	}
	a, err := Encode(once)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	b, err := Encode(twice)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("serialization not deterministic:\n%s\n%s", a, b)
	}
}

func TestDecodeLegacyCustomerArray(t *testing.T) {
	raw := `[{"name": "Acme", "projects": [{"number": "12", "status": "Active"}]}]`
	g, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(g.Customers) != 1 || g.Customers[0].ID == "" {
		t.Fatalf("legacy customer missing or without id: %+v", g.Customers)
	}
	again, _ := Decode([]byte(raw))
	if again.Customers[0].ID != g.Customers[0].ID || again.Customers[0].Projects[0].ID != g.Customers[0].Projects[0].ID {
		t.Fatalf("legacy ids must be deterministic")
	}
	if g.Users[0].ID != domain.DefaultAdminID {
		t.Fatalf("expected default admin, got %+v", g.Users)
	}
}

func TestDecodeCorruptAndEmpty(t *testing.T) {
	g, err := Decode([]byte("{not json"))
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if diff := cmp.Diff(domain.EmptyGraph(), g); diff != "" {
		t.Fatalf("corrupt input should give the empty graph (-want +got):\n%s", diff)
	}
	for _, raw := range []string{"null", "{}", `"text"`, "42"} {
		g, err := Decode([]byte(raw))
		if err != nil {
			t.Fatalf("%s: unexpected error %v", raw, err)
		}
		if diff := cmp.Diff(domain.EmptyGraph(), g); diff != "" {
			t.Fatalf("%s: expected empty graph (-want +got):\n%s", raw, diff)
		}
	}
}

func TestGraphPreservesValidEntities(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	count := 0
	in := domain.Graph{
		Customers: []domain.Customer{{
			ID: "c1", Name: "Acme", CreatedAt: created,
			Sites: []domain.Site{{ID: "s1", Name: "Main"}},
			Projects: []domain.Project{{
				ID: "p1", Number: "P1", Status: domain.ProjectActive, ActiveSubStatus: domain.SubStatusDesign,
				SiteID: "s1", CreatedAt: created,
				StatusHistory: []domain.StatusHistoryEntry{{ID: "h1", Status: domain.ProjectActive, ActiveSubStatus: domain.SubStatusDesign, ChangedAt: created}},
				CustomerSignoff: &domain.CustomerSignoff{
					SignedBy: "Ann", SignedAt: created,
					SignatureStrokes: []domain.Stroke{{{X: 0.5, Y: 1.25}, {X: 2, Y: 3}}},
				},
				OnsiteReports: []domain.OnsiteReport{{
					ID: "r1", ReportDate: "2024-01-02", WorkSummary: "ok", SignedByName: "Ann",
					ServiceEntries: []domain.ServiceEntry{{ID: "e1", ServiceCount: &count}},
				}},
			}},
		}},
		Users:            []domain.User{{ID: "u1", Name: "Eve", Role: domain.RoleOffice, Active: true}},
		BusinessSettings: domain.BusinessSettings{CompanyName: "Field Co", WorkdayStart: "07:30", WorkdayEnd: "16:00", WorkingDays: []int{1, 2, 3}},
	}
	out, err := Graph(in)
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("valid graph changed by normalization (-in +out):\n%s", diff)
	}
}

func TestDecodeDropsOnlyUnrepresentableTimestamps(t *testing.T) {
	raw := `{"customers":[
		{"id":"c1","name":"Acme","createdAt":"2024-03-01T08:00:00Z"},
		{"id":"c2","name":"Beta","createdAt":1e15},
		{"id":"c3","name":"Gamma","createdAt":"9999-12-31T23:00:00-05:00",
		 "projects":[{"id":"p1","number":"7","createdAt":1e300,
		   "tasks":[{"id":"t1","name":"Wire","startAt":"0000-01-01T00:30:00+01:00","endAt":"2024-05-01T10:00:00Z"}]}]}
	]}`
	g, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(g.Customers) != 3 {
		t.Fatalf("expected every customer to survive, got %+v", g.Customers)
	}
	for _, c := range g.Customers {
		if c.Name != "Acme" && !c.CreatedAt.IsZero() {
			t.Fatalf("%s kept createdAt %v", c.Name, c.CreatedAt)
		}
	}
	p := g.Customers[2].Projects[0]
	if !p.CreatedAt.IsZero() || len(p.Tasks) != 1 || !p.Tasks[0].StartAt.IsZero() {
		t.Fatalf("expected only the bad times dropped, got %+v", p)
	}
	if want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC); !p.Tasks[0].EndAt.Equal(want) {
		t.Fatalf("valid end lost: %v", p.Tasks[0].EndAt)
	}
}

func TestGraphRejectsUnencodableTimes(t *testing.T) {
	in := domain.EmptyGraph()
	in.Customers = []domain.Customer{{ID: "c1", Name: "Acme", CreatedAt: time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)}}
	if _, err := Graph(in); err == nil {
		t.Fatalf("expected an encode error")
	}
}

func TestSalvageKeepsDecodableElements(t *testing.T) {
	out := map[string]any{
		"customers": []any{
			map[string]any{"id": "c1", "name": "Acme"},
			map[string]any{"id": "c2", "name": "Beta", "createdAt": "10000-01-01T00:00:00Z"},
		},
		"users":            []any{map[string]any{"id": "u1", "name": "Eve", "role": "office", "active": true}},
		"businessSettings": map[string]any{"companyName": "Field Co", "workdayStart": "07:00", "workdayEnd": "15:00", "workingDays": []any{1.0}},
	}
	g := salvage(out, logging.Noop{})
	if len(g.Customers) != 1 || g.Customers[0].ID != "c1" {
		t.Fatalf("expected only Acme, got %+v", g.Customers)
	}
	if len(g.Users) != 1 || g.Users[0].ID != "u1" || g.BusinessSettings.CompanyName != "Field Co" {
		t.Fatalf("users or settings lost: %+v", g)
	}
}

func keys(m map[domain.DocumentCategory][]domain.Document) []domain.DocumentCategory {
	var out []domain.DocumentCategory
	for k := range m {
		out = append(out, k)
	}
	return out
}
