package normalize

import (
	"github.com/google/uuid"

	"fieldbook/internal/schema"
	"fieldbook/pkg/domain"
)

// legacyNamespace seeds ids for stored records that predate ids. The same
// record at the same position always receives the same id, so normalizing
// twice is stable.
var legacyNamespace = uuid.MustParse("6f1c9d0e-4b8a-4f57-9a61-2c3e5d7f8a90")

func legacyID(at schema.Path, label any) string {
	s, _ := label.(string)
	return uuid.NewSHA1(legacyNamespace, []byte(string(at)+"\x00"+s)).String()
}

// idField declares the id member; missing ids are derived from labelKey.
func idField(labelKey string) schema.Field {
	return schema.Field{
		Key:      "id",
		Aliases:  []string{"_id", "uuid"},
		Check:    schema.Text(),
		Required: true,
		Default: func(obj map[string]any, at schema.Path) any {
			return legacyID(at, obj[labelKey])
		},
	}
}

func text(key string, aliases ...string) schema.Field {
	return schema.Field{Key: key, Aliases: aliases, Check: schema.Text()}
}

func required(key string, aliases ...string) schema.Field {
	return schema.Field{Key: key, Aliases: aliases, Check: schema.Text(), Required: true}
}

func timestamp(key string, aliases ...string) schema.Field {
	return schema.Field{Key: key, Aliases: aliases, Check: schema.Timestamp()}
}

// items is the array policy: filter element-wise and treat an array with no
// surviving elements as absent.
func items(elem *schema.Schema) schema.Check {
	return schema.NonEmpty(schema.List(schema.Object(elem)))
}

var (
	projectStatus = schema.EnumOf(
		[]domain.ProjectStatus{domain.ProjectActive, domain.ProjectComplete},
		map[string]domain.ProjectStatus{
			"completed":   domain.ProjectComplete,
			"done":        domain.ProjectComplete,
			"closed":      domain.ProjectComplete,
			"open":        domain.ProjectActive,
			"in progress": domain.ProjectActive,
		},
	)
	activeSubStatus = schema.EnumOf(domain.ActiveSubStatuses, map[string]domain.ActiveSubStatus{
		"not started":  domain.SubStatusNotStarted,
		"notstarted":   domain.SubStatusNotStarted,
		"hold":         domain.SubStatusOnHold,
		"on hold":      domain.SubStatusOnHold,
		"paused":       domain.SubStatusOnHold,
		"installation": domain.SubStatusInstall,
	})
	workOrderType = schema.EnumOf(
		[]domain.WorkOrderType{domain.WorkOrderBuild, domain.WorkOrderOnsite},
		map[string]domain.WorkOrderType{
			"on site":  domain.WorkOrderOnsite,
			"site":     domain.WorkOrderOnsite,
			"workshop": domain.WorkOrderBuild,
		},
	)
	taskStatus = schema.EnumOf(
		[]domain.TaskStatus{domain.TaskNotStarted, domain.TaskInProgress, domain.TaskBlocked, domain.TaskDone},
		map[string]domain.TaskStatus{
			"todo":       domain.TaskNotStarted,
			"to do":      domain.TaskNotStarted,
			"inprogress": domain.TaskInProgress,
			"started":    domain.TaskInProgress,
			"complete":   domain.TaskDone,
			"completed":  domain.TaskDone,
		},
	)
	userRole = schema.EnumOf(
		[]domain.UserRole{domain.RoleAdmin, domain.RoleEngineer, domain.RoleOffice},
		map[string]domain.UserRole{
			"administrator": domain.RoleAdmin,
			"technician":    domain.RoleEngineer,
		},
	)
)

// documentCategory accepts category names and their plurals.
func documentCategory(k string) (string, bool) {
	f := schema.Fold(k)
	for _, c := range domain.DocumentCategories {
		if f == string(c) || f == string(c)+"s" {
			return string(c), true
		}
	}
	return "", false
}

// schemas holds one declarative schema per entity. They are rebuilt per run
// so the rejection hook can carry that run's logger.
type schemas struct {
	graph    *schema.Schema
	settings *schema.Schema
	user     *schema.Schema
	customer *schema.Schema

	site, contact, subCustomer, machine *schema.Schema

	project, workOrder, purchaseOrder, task, document, history *schema.Schema

	signoff, report, serviceEntry, point *schema.Schema
}

func newSchemas(rejected func(at schema.Path, reason string)) *schemas {
	s := &schemas{}

	s.point = &schema.Schema{Name: "point", Fields: []schema.Field{
		{Key: "x", Check: schema.Number(), Required: true},
		{Key: "y", Check: schema.Number(), Required: true},
	}}
	strokes := schema.NonEmpty(schema.List(items(s.point)))
	signatureImage := schema.Prefixed("data:image/")

	s.site = &schema.Schema{Name: "site", Fields: []schema.Field{
		idField("name"),
		required("name"),
		text("address"),
		text("notes", "note"),
	}}
	s.contact = &schema.Schema{Name: "contact", Fields: []schema.Field{
		idField("name"),
		required("name"),
		text("position", "role", "title"),
		text("email"),
		text("phone"),
		text("siteId", "site_id"),
		text("notes", "note"),
	}}
	s.subCustomer = &schema.Schema{Name: "subCustomer", Fields: []schema.Field{
		idField("name"),
		required("name"),
		text("address"),
		text("notes", "note"),
	}}
	s.machine = &schema.Schema{Name: "machine", Fields: []schema.Field{
		idField("name"),
		required("name", "machineName"),
		text("model"),
		text("serialNumber", "serial"),
		text("lineReference"),
		text("siteId", "site_id"),
	}}

	s.workOrder = &schema.Schema{
		Name: "workOrder",
		Fields: []schema.Field{
			idField("number"),
			{Key: "number", Check: schema.TextWith(domain.CanonicalWorkOrderNumber), Required: true},
			{Key: "type", Check: workOrderType, Default: schema.Const(string(domain.WorkOrderBuild))},
			text("note", "notes"),
			timestamp("createdAt"),
		},
		Coerce: numberOnly,
	}
	s.purchaseOrder = &schema.Schema{
		Name: "purchaseOrder",
		Fields: []schema.Field{
			idField("number"),
			{Key: "number", Check: schema.TextWith(domain.CanonicalPurchaseOrderNumber), Required: true},
			text("note", "notes"),
			timestamp("createdAt"),
		},
		Coerce: numberOnly,
	}
	s.task = &schema.Schema{Name: "task", Fields: []schema.Field{
		idField("name"),
		required("name", "title"),
		{Key: "status", Check: taskStatus, Default: schema.Const(string(domain.TaskNotStarted))},
		timestamp("startAt", "start"),
		timestamp("endAt", "end"),
		text("assigneeId", "assignee"),
		text("notes", "note"),
	}}
	s.document = &schema.Schema{Name: "document", Fields: []schema.Field{
		idField("label"),
		required("label", "name", "title"),
		text("fileName"),
		text("url"),
		timestamp("uploadedAt"),
	}}
	s.history = &schema.Schema{Name: "statusHistory", Fields: []schema.Field{
		idField("changedAt"),
		{Key: "status", Check: projectStatus, Required: true},
		{Key: "activeSubStatus", Check: activeSubStatus},
		timestamp("changedAt"),
		text("changedBy"),
		text("note"),
	}}
	s.signoff = &schema.Schema{Name: "customerSignoff", Fields: []schema.Field{
		required("signedBy", "name"),
		text("position"),
		timestamp("signedAt"),
		{Key: "signatureImage", Check: signatureImage},
		{Key: "signatureStrokes", Check: strokes},
	}}
	s.serviceEntry = &schema.Schema{Name: "serviceEntry", Fields: []schema.Field{
		idField("serialNumber"),
		text("machineId"),
		text("serialNumber"),
		text("lineReference"),
		text("firmwareVersion"),
		{Key: "serviceCount", Check: schema.Count()},
		text("serviceInfo"),
	}}
	s.report = &schema.Schema{Name: "onsiteReport", Fields: []schema.Field{
		idField("reportDate"),
		{Key: "reportDate", Check: schema.Date()},
		{Key: "arrivalTime", Check: schema.ClockTime()},
		{Key: "departureTime", Check: schema.ClockTime()},
		text("engineerName"),
		text("siteAddress"),
		required("workSummary"),
		text("materialsUsed"),
		text("additionalNotes"),
		required("signedByName"),
		text("signedByPosition"),
		{Key: "signatureImage", Check: signatureImage},
		{Key: "signatureStrokes", Check: strokes},
		{Key: "serviceEntries", Check: items(s.serviceEntry)},
		timestamp("createdAt"),
	}}

	s.project = &schema.Schema{Name: "project", Fields: []schema.Field{
		idField("number"),
		{Key: "number", Aliases: []string{"projectNumber"}, Check: schema.TextWith(domain.CanonicalProjectNumber), Required: true},
		{Key: "status", Check: projectStatus, Default: schema.Const(string(domain.ProjectActive))},
		{Key: "activeSubStatus", Check: activeSubStatus},
		text("note", "notes"),
		text("siteId", "site_id"),
		timestamp("createdAt"),
		{Key: "workOrders", Check: items(s.workOrder)},
		{Key: "purchaseOrders", Aliases: []string{"purchaseOrder"}, Check: schema.NonEmpty(schema.OneOrMany(
			schema.List(schema.Object(s.purchaseOrder)), schema.Object(s.purchaseOrder),
		))},
		{Key: "tasks", Check: items(s.task)},
		{Key: "documents", Check: schema.Keyed(documentCategory, items(s.document))},
		{Key: "statusHistory", Check: items(s.history)},
		{Key: "customerSignoff", Check: schema.Object(s.signoff)},
		{Key: "onsiteReports", Check: items(s.report)},
	}}

	s.customer = &schema.Schema{Name: "customer", Fields: []schema.Field{
		idField("name"),
		required("name", "customerName"),
		text("address"),
		text("email"),
		text("phone"),
		text("contactName", "contact"),
		text("notes", "note"),
		timestamp("createdAt"),
		{Key: "sites", Check: items(s.site)},
		{Key: "contacts", Check: items(s.contact)},
		{Key: "subCustomers", Aliases: []string{"sub_customers"}, Check: items(s.subCustomer)},
		{Key: "machines", Check: items(s.machine)},
		{Key: "projects", Check: items(s.project)},
	}}

	s.user = &schema.Schema{Name: "user", Fields: []schema.Field{
		idField("name"),
		required("name"),
		text("email"),
		{Key: "role", Check: userRole, Default: schema.Const(string(domain.RoleEngineer))},
		{Key: "active", Check: schema.Bool(), Default: schema.Const(true)},
	}}

	defaults := domain.DefaultBusinessSettings()
	s.settings = &schema.Schema{Name: "businessSettings", Fields: []schema.Field{
		text("companyName"),
		{Key: "workdayStart", Check: schema.ClockTime(), Default: schema.Const(defaults.WorkdayStart)},
		{Key: "workdayEnd", Check: schema.ClockTime(), Default: schema.Const(defaults.WorkdayEnd)},
		{Key: "workingDays", Check: schema.Weekdays(), Default: func(map[string]any, schema.Path) any {
			return domain.DefaultWorkingDays()
		}},
		text("timezone"),
	}}

	s.graph = &schema.Schema{Name: "graph", Fields: []schema.Field{
		{Key: "customers", Check: schema.List(schema.Object(s.customer))},
		{Key: "users", Check: items(s.user)},
		{Key: "businessSettings", Check: schema.Object(s.settings), Default: func(_ map[string]any, at schema.Path) any {
			out, _ := s.settings.Normalize(map[string]any{}, at)
			return out
		}},
	}}

	for _, sc := range []*schema.Schema{
		s.graph, s.settings, s.user, s.customer, s.site, s.contact, s.subCustomer, s.machine,
		s.project, s.workOrder, s.purchaseOrder, s.task, s.document, s.history,
		s.signoff, s.report, s.serviceEntry, s.point,
	} {
		sc.Rejected = rejected
	}
	return s
}

// numberOnly lifts the legacy bare-string form of an order into an object.
func numberOnly(raw any) (map[string]any, bool) {
	switch v := raw.(type) {
	case string:
		return map[string]any{"number": v}, true
	case float64:
		return map[string]any{"number": v}, true
	}
	return nil, false
}
