package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"

	"fieldbook/internal/tableserver"
	"fieldbook/pkg/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var fixedNow = time.Date(2024, 5, 2, 7, 45, 0, 0, time.UTC)

type fixture struct {
	tables *tableserver.Server
	http   *httptest.Server
	client *Client
}

func newFixture(t *testing.T, serverOpts ...tableserver.Option) fixture {
	t.Helper()
	tables := tableserver.New(serverOpts...)
	srv := httptest.NewServer(tables.Handler())
	t.Cleanup(srv.Close)
	n := 0
	client, err := New(Config{BaseURL: srv.URL + "/"},
		WithHTTPClient(srv.Client()),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("r-%03d", n)
		}),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return fixture{tables: tables, http: srv, client: client}
}

func (f fixture) seed(t *testing.T, table, body string) {
	t.Helper()
	resp, err := f.http.Client().Post(f.http.URL+"/rest/v1/"+table, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("seed %s: %v", table, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("seed %s: status %d", table, resp.StatusCode)
	}
}

func (f fixture) count(table string) int { return len(f.tables.Rows(table)) }

func TestEndToEndScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.client

	acme, err := c.CreateCustomer(ctx, domain.CustomerInput{Name: "Acme"})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	project, err := c.CreateProject(ctx, acme.ID, domain.ProjectInput{Number: "1403"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if project.Number != "P1403" || len(project.StatusHistory) != 1 {
		t.Fatalf("unexpected project: %+v", project)
	}
	wo, err := c.AddWorkOrder(ctx, project.ID, domain.WorkOrderInput{Number: "22", Type: domain.WorkOrderBuild})
	if err != nil {
		t.Fatalf("add work order: %v", err)
	}
	if wo.Number != "WO22" || wo.Type != domain.WorkOrderBuild {
		t.Fatalf("unexpected work order: %+v", wo)
	}

	customers, err := c.ListCustomers(ctx)
	if err != nil {
		t.Fatalf("list customers: %v", err)
	}
	if len(customers) != 1 || len(customers[0].Projects) != 1 || customers[0].Projects[0].WorkOrders[0].Number != "WO22" {
		t.Fatalf("unexpected listing: %+v", customers)
	}

	if err := c.DeleteCustomer(ctx, acme.ID); err != nil {
		t.Fatalf("delete customer: %v", err)
	}
	customers, err = c.ListCustomers(ctx)
	if err != nil {
		t.Fatalf("list customers: %v", err)
	}
	if len(customers) != 0 {
		t.Fatalf("expected no customers, got %+v", customers)
	}
	for _, table := range tableserver.DefaultTables {
		if n := f.count(table); n != 0 {
			t.Fatalf("expected %s to be empty, has %d rows", table, n)
		}
	}
}

func TestUniquenessIsCheckedBeforeInsert(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.client
	a, err := c.CreateCustomer(ctx, domain.CustomerInput{Name: "Acme"})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	z, err := c.CreateCustomer(ctx, domain.CustomerInput{Name: "Zeta"})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	p, err := c.CreateProject(ctx, a.ID, domain.ProjectInput{Number: "1403"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if _, err := c.CreateProject(ctx, z.ID, domain.ProjectInput{Number: "p1403"}); err == nil {
		t.Fatalf("expected duplicate project number to be rejected")
	} else if _, ok := domain.IsValidation(err); !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := c.AddWorkOrder(ctx, p.ID, domain.WorkOrderInput{Number: "804322"}); err != nil {
		t.Fatalf("add work order: %v", err)
	}
	if _, err := c.AddWorkOrder(ctx, p.ID, domain.WorkOrderInput{Number: "wo804322"}); err == nil {
		t.Fatalf("expected colliding work order to be rejected")
	}
	if _, err := c.CreateCustomer(ctx, domain.CustomerInput{Name: "ACME "}); err == nil {
		t.Fatalf("expected duplicate customer to be rejected")
	}
	if got := f.count("projects"); got != 1 {
		t.Fatalf("expected 1 project row, got %d", got)
	}
	if got := f.count("work_orders"); got != 1 {
		t.Fatalf("expected 1 work order row, got %d", got)
	}
	if got := f.count("customers"); got != 2 {
		t.Fatalf("expected 2 customer rows, got %d", got)
	}
}

func TestListingJoinsAndNormalizes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "customers", `[{"id":"c1","name":"zeta works"},{"id":"c2","name":"Acme"}]`)
	f.seed(t, "sites", `[{"id":"s2","customer_id":"c2","name":"Yard 10"},{"id":"s1","customer_id":"c2","name":"Yard 9"},{"id":"sx","customer_id":"gone","name":"Orphan"}]`)
	f.seed(t, "contacts", `[{"id":"k1","customer_id":"c2","name":"Lee","site_id":"missing"}]`)
	f.seed(t, "projects", `[{"id":"p1","customer_id":"c2","number":"P10","status":"Active","active_sub_status":null,"site_id":"s1"}]`)
	f.seed(t, "work_orders", `[{"id":"w1","project_id":"p1","number":"WO5","type":"Onsite"},{"id":"w2","project_id":"nope","number":"WO6","type":"Build"}]`)

	customers, err := f.client.ListCustomers(ctx)
	if err != nil {
		t.Fatalf("list customers: %v", err)
	}
	if len(customers) != 2 || customers[0].Name != "Acme" || customers[1].Name != "zeta works" {
		t.Fatalf("unexpected customer order: %+v", customers)
	}
	acme := customers[0]
	var siteNames []string
	for _, s := range acme.Sites {
		siteNames = append(siteNames, s.Name)
	}
	if diff := cmp.Diff([]string{"Yard 9", "Yard 10"}, siteNames); diff != "" {
		t.Fatalf("site order mismatch (-want +got):\n%s", diff)
	}
	if acme.Contacts[0].SiteID != "" {
		t.Fatalf("expected dangling contact site dropped, got %q", acme.Contacts[0].SiteID)
	}
	p := acme.Projects[0]
	if p.ActiveSubStatus != domain.DefaultActiveSubStatus {
		t.Fatalf("expected default sub-status, got %q", p.ActiveSubStatus)
	}
	if len(p.StatusHistory) == 0 {
		t.Fatalf("expected synthetic status history entry")
	}
	if len(p.WorkOrders) != 1 || p.WorkOrders[0].ID != "w1" {
		t.Fatalf("expected only the joined work order, got %+v", p.WorkOrders)
	}
}

func TestDeleteSiteClearsReferences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.client
	cust, err := c.CreateCustomer(ctx, domain.CustomerInput{Name: "Acme"})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	site, err := c.AddSite(ctx, cust.ID, domain.SiteInput{Name: "North"})
	if err != nil {
		t.Fatalf("add site: %v", err)
	}
	if _, err := c.AddContact(ctx, cust.ID, domain.ContactInput{Name: "Lee", SiteID: site.ID}); err != nil {
		t.Fatalf("add contact: %v", err)
	}
	p, err := c.CreateProject(ctx, cust.ID, domain.ProjectInput{Number: "5", SiteID: site.ID})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if p.SiteID != site.ID {
		t.Fatalf("expected project site %s, got %q", site.ID, p.SiteID)
	}

	if err := c.DeleteSite(ctx, cust.ID, site.ID); err != nil {
		t.Fatalf("delete site: %v", err)
	}
	for _, table := range []string{"projects", "contacts"} {
		for _, row := range f.tables.Rows(table) {
			if row["site_id"] != nil {
				t.Fatalf("%s row still references site: %+v", table, row)
			}
		}
	}
	if f.count("sites") != 0 {
		t.Fatalf("expected site row removed")
	}
}

func TestStatusChangesWriteHistoryRows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.client
	cust, err := c.CreateCustomer(ctx, domain.CustomerInput{Name: "Acme"})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	p, err := c.CreateProject(ctx, cust.ID, domain.ProjectInput{Number: "8"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	done, err := c.SetProjectStatus(ctx, p.ID, domain.StatusChange{Status: domain.ProjectComplete, ChangedBy: "Sam"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.ActiveSubStatus != "" {
		t.Fatalf("expected sub-status cleared, got %q", done.ActiveSubStatus)
	}
	if _, err := c.SetProjectStatus(ctx, p.ID, domain.StatusChange{Status: domain.ProjectComplete}); err != nil {
		t.Fatalf("repeat complete: %v", err)
	}
	if got := f.count("project_status_history"); got != 2 {
		t.Fatalf("expected 2 history rows, got %d", got)
	}
	rows := f.tables.Rows("projects")
	if rows[0]["status"] != "Complete" || rows[0]["active_sub_status"] != nil {
		t.Fatalf("unexpected project row: %+v", rows[0])
	}

	stored, err := c.ListCustomers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if h := stored[0].Projects[0].StatusHistory; len(h) != 2 || h[1].ChangedBy != "Sam" {
		t.Fatalf("unexpected history: %+v", h)
	}
}

func TestUpdatesAndChildDeletes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.client
	cust, err := c.CreateCustomer(ctx, domain.CustomerInput{Name: "Acme", Phone: "555"})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	if _, err := c.UpdateCustomer(ctx, cust.ID, domain.CustomerInput{Name: "Acme Ltd"}); err != nil {
		t.Fatalf("update customer: %v", err)
	}
	row := f.tables.Rows("customers")[0]
	if row["name"] != "Acme Ltd" || row["phone"] != nil {
		t.Fatalf("expected renamed customer with cleared phone, got %+v", row)
	}

	p, err := c.CreateProject(ctx, cust.ID, domain.ProjectInput{Number: "9", Note: "old"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	note := "new"
	updated, err := c.UpdateProject(ctx, p.ID, domain.ProjectUpdate{Note: &note})
	if err != nil {
		t.Fatalf("update project: %v", err)
	}
	if updated.Note != "new" || updated.Number != "P9" {
		t.Fatalf("unexpected project: %+v", updated)
	}

	po, err := c.AddPurchaseOrder(ctx, p.ID, domain.PurchaseOrderInput{Number: "PO-1"})
	if err != nil {
		t.Fatalf("add purchase order: %v", err)
	}
	task, err := c.AddTask(ctx, p.ID, domain.TaskInput{Name: "Survey", StartAt: fixedNow, EndAt: fixedNow.Add(-time.Hour)})
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	if !task.EndAt.Equal(task.StartAt) {
		t.Fatalf("expected end clamped to start, got %v", task.EndAt)
	}
	report, err := c.AddOnsiteReport(ctx, p.ID, domain.OnsiteReportInput{WorkSummary: "Checked", SignedByName: "Pat", ReportDate: "2024-05-02"})
	if err != nil {
		t.Fatalf("add report: %v", err)
	}

	if err := c.DeletePurchaseOrder(ctx, p.ID, po.ID); err != nil {
		t.Fatalf("delete purchase order: %v", err)
	}
	if err := c.DeleteTask(ctx, p.ID, task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if err := c.DeleteOnsiteReport(ctx, p.ID, report.ID); err != nil {
		t.Fatalf("delete report: %v", err)
	}
	for _, table := range []string{"purchase_orders", "project_tasks", "onsite_reports"} {
		if n := f.count(table); n != 0 {
			t.Fatalf("expected %s empty, got %d", table, n)
		}
	}

	if err := c.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("delete project: %v", err)
	}
	if f.count("projects") != 0 || f.count("project_status_history") != 0 {
		t.Fatalf("expected project and history removed")
	}
}

func TestTaskAssigneesSurviveListing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.client
	cu, err := c.CreateCustomer(ctx, domain.CustomerInput{Name: "Acme"})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	p, err := c.CreateProject(ctx, cu.ID, domain.ProjectInput{Number: "7"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	task, err := c.AddTask(ctx, p.ID, domain.TaskInput{Name: "Survey", AssigneeID: " user-kim "})
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	if task.AssigneeID != "user-kim" {
		t.Fatalf("expected trimmed assignee, got %q", task.AssigneeID)
	}
	f.seed(t, "project_tasks", fmt.Sprintf(`{"id":"t-seeded","project_id":%q,"name":"Cabling","status":%q,"assignee_id":"user-lee"}`,
		p.ID, domain.TaskInProgress))

	customers, err := c.ListCustomers(ctx)
	if err != nil {
		t.Fatalf("list customers: %v", err)
	}
	got := map[string]string{}
	for _, task := range customers[0].Projects[0].Tasks {
		got[task.Name] = task.AssigneeID
	}
	want := map[string]string{"Survey": "user-kim", "Cabling": "user-lee"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("assignees lost (-want +got):\n%s", diff)
	}

	g, err := c.Graph(ctx)
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	var ids []string
	for _, u := range g.Users {
		ids = append(ids, u.ID)
	}
	for _, id := range []string{domain.DefaultAdminID, "user-kim", "user-lee"} {
		if !slices.Contains(ids, id) {
			t.Fatalf("expected user %s in graph, got %v", id, ids)
		}
	}
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	c := newFixture(t).client
	if err := c.DeleteWorkOrder(ctx, "missing", "wo"); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := c.AddSite(ctx, "missing", domain.SiteInput{Name: "x"}); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNetworkErrorsAreWrapped(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()
	c, err := New(Config{BaseURL: base, Timeout: time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = c.ListCustomers(context.Background())
	if err == nil {
		t.Fatalf("expected network error")
	}
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		t.Fatalf("expected wrapped *url.Error, got %T: %v", err, err)
	}
	if !strings.HasPrefix(err.Error(), "remote: GET") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestAPIErrorsCarryStatus(t *testing.T) {
	f := newFixture(t, tableserver.WithAPIKey("secret"))
	_, err := f.client.ListCustomers(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Code != "invalid_api_key" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}

	keyed, err := New(Config{BaseURL: f.http.URL, APIKey: "secret"}, WithHTTPClient(f.http.Client()))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := keyed.ListCustomers(context.Background()); err != nil {
		t.Fatalf("list with key: %v", err)
	}
}

func TestNewValidatesBaseURL(t *testing.T) {
	for _, base := range []string{"", "   ", "not a url"} {
		if _, err := New(Config{BaseURL: base}); err == nil {
			t.Fatalf("expected error for %q", base)
		}
	}
}
