package remote

import (
	"time"

	"fieldbook/pkg/domain"
)

// Table names on the remote backend.
const (
	tableCustomers      = "customers"
	tableSites          = "sites"
	tableContacts       = "contacts"
	tableProjects       = "projects"
	tableWorkOrders     = "work_orders"
	tablePurchaseOrders = "purchase_orders"
	tableTasks          = "project_tasks"
	tableStatusHistory  = "project_status_history"
	tableOnsiteReports  = "onsite_reports"
)

// projectChildTables hold rows keyed by project_id.
var projectChildTables = []string{
	tableWorkOrders,
	tablePurchaseOrders,
	tableTasks,
	tableStatusHistory,
	tableOnsiteReports,
}

// Rows mirror the remote columns. Empty optional columns are omitted on insert
// and read back as null, which decodes to the zero value.

type customerRow struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	ContactName string    `json:"contact_name,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
}

type siteRow struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Address    string `json:"address,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

type contactRow struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Position   string `json:"position,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	SiteID     string `json:"site_id,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

type projectRow struct {
	ID              string                  `json:"id"`
	CustomerID      string                  `json:"customer_id"`
	Number          string                  `json:"number"`
	Status          domain.ProjectStatus    `json:"status"`
	ActiveSubStatus domain.ActiveSubStatus  `json:"active_sub_status,omitempty"`
	Note            string                  `json:"note,omitempty"`
	SiteID          string                  `json:"site_id,omitempty"`
	CustomerSignoff *domain.CustomerSignoff `json:"customer_signoff,omitempty"`
	CreatedAt       time.Time               `json:"created_at,omitzero"`
}

type workOrderRow struct {
	ID        string               `json:"id"`
	ProjectID string               `json:"project_id"`
	Number    string               `json:"number"`
	Type      domain.WorkOrderType `json:"type"`
	Note      string               `json:"note,omitempty"`
	CreatedAt time.Time            `json:"created_at,omitzero"`
}

type purchaseOrderRow struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Number    string    `json:"number"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

type taskRow struct {
	ID         string            `json:"id"`
	ProjectID  string            `json:"project_id"`
	Name       string            `json:"name"`
	Status     domain.TaskStatus `json:"status"`
	StartAt    time.Time         `json:"start_at,omitzero"`
	EndAt      time.Time         `json:"end_at,omitzero"`
	AssigneeID string            `json:"assignee_id,omitempty"`
	Notes      string            `json:"notes,omitempty"`
}

type statusHistoryRow struct {
	ID              string                 `json:"id"`
	ProjectID       string                 `json:"project_id"`
	Status          domain.ProjectStatus   `json:"status"`
	ActiveSubStatus domain.ActiveSubStatus `json:"active_sub_status,omitempty"`
	ChangedAt       time.Time              `json:"changed_at,omitzero"`
	ChangedBy       string                 `json:"changed_by,omitempty"`
	Note            string                 `json:"note,omitempty"`
}

type onsiteReportRow struct {
	ID               string                `json:"id"`
	ProjectID        string                `json:"project_id"`
	ReportDate       string                `json:"report_date,omitempty"`
	ArrivalTime      string                `json:"arrival_time,omitempty"`
	DepartureTime    string                `json:"departure_time,omitempty"`
	EngineerName     string                `json:"engineer_name,omitempty"`
	SiteAddress      string                `json:"site_address,omitempty"`
	WorkSummary      string                `json:"work_summary"`
	MaterialsUsed    string                `json:"materials_used,omitempty"`
	AdditionalNotes  string                `json:"additional_notes,omitempty"`
	SignedByName     string                `json:"signed_by_name"`
	SignedByPosition string                `json:"signed_by_position,omitempty"`
	SignatureImage   string                `json:"signature_image,omitempty"`
	SignatureStrokes []domain.Stroke       `json:"signature_strokes,omitempty"`
	ServiceEntries   []domain.ServiceEntry `json:"service_entries,omitempty"`
	CreatedAt        time.Time             `json:"created_at,omitzero"`
}

func customerToRow(c domain.Customer) customerRow {
	return customerRow{
		ID:          c.ID,
		Name:        c.Name,
		Address:     c.Address,
		Email:       c.Email,
		Phone:       c.Phone,
		ContactName: c.ContactName,
		Notes:       c.Notes,
		CreatedAt:   c.CreatedAt,
	}
}

func (r customerRow) toDomain() domain.Customer {
	return domain.Customer{
		ID:          r.ID,
		Name:        r.Name,
		Address:     r.Address,
		Email:       r.Email,
		Phone:       r.Phone,
		ContactName: r.ContactName,
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt,
	}
}

// customerPatch sends every editable column so cleared fields become null.
func customerPatch(c domain.Customer) map[string]any {
	return map[string]any{
		"name":         c.Name,
		"address":      nullable(c.Address),
		"email":        nullable(c.Email),
		"phone":        nullable(c.Phone),
		"contact_name": nullable(c.ContactName),
		"notes":        nullable(c.Notes),
	}
}

func siteToRow(customerID string, s domain.Site) siteRow {
	return siteRow{ID: s.ID, CustomerID: customerID, Name: s.Name, Address: s.Address, Notes: s.Notes}
}

func (r siteRow) toDomain() domain.Site {
	return domain.Site{ID: r.ID, Name: r.Name, Address: r.Address, Notes: r.Notes}
}

func contactToRow(customerID string, c domain.Contact) contactRow {
	return contactRow{
		ID:         c.ID,
		CustomerID: customerID,
		Name:       c.Name,
		Position:   c.Position,
		Email:      c.Email,
		Phone:      c.Phone,
		SiteID:     c.SiteID,
		Notes:      c.Notes,
	}
}

func (r contactRow) toDomain() domain.Contact {
	return domain.Contact{
		ID:       r.ID,
		Name:     r.Name,
		Position: r.Position,
		Email:    r.Email,
		Phone:    r.Phone,
		SiteID:   r.SiteID,
		Notes:    r.Notes,
	}
}

func projectToRow(customerID string, p domain.Project) projectRow {
	return projectRow{
		ID:              p.ID,
		CustomerID:      customerID,
		Number:          p.Number,
		Status:          p.Status,
		ActiveSubStatus: p.ActiveSubStatus,
		Note:            p.Note,
		SiteID:          p.SiteID,
		CustomerSignoff: p.CustomerSignoff,
		CreatedAt:       p.CreatedAt,
	}
}

func (r projectRow) toDomain() domain.Project {
	return domain.Project{
		ID:              r.ID,
		Number:          r.Number,
		Status:          r.Status,
		ActiveSubStatus: r.ActiveSubStatus,
		Note:            r.Note,
		SiteID:          r.SiteID,
		CustomerSignoff: r.CustomerSignoff,
		CreatedAt:       r.CreatedAt,
	}
}

func workOrderToRow(projectID string, w domain.WorkOrder) workOrderRow {
	return workOrderRow{ID: w.ID, ProjectID: projectID, Number: w.Number, Type: w.Type, Note: w.Note, CreatedAt: w.CreatedAt}
}

func (r workOrderRow) toDomain() domain.WorkOrder {
	return domain.WorkOrder{ID: r.ID, Number: r.Number, Type: r.Type, Note: r.Note, CreatedAt: r.CreatedAt}
}

func purchaseOrderToRow(projectID string, p domain.PurchaseOrder) purchaseOrderRow {
	return purchaseOrderRow{ID: p.ID, ProjectID: projectID, Number: p.Number, Note: p.Note, CreatedAt: p.CreatedAt}
}

func (r purchaseOrderRow) toDomain() domain.PurchaseOrder {
	return domain.PurchaseOrder{ID: r.ID, Number: r.Number, Note: r.Note, CreatedAt: r.CreatedAt}
}

func taskToRow(projectID string, t domain.ProjectTask) taskRow {
	return taskRow{
		ID:         t.ID,
		ProjectID:  projectID,
		Name:       t.Name,
		Status:     t.Status,
		StartAt:    t.StartAt,
		EndAt:      t.EndAt,
		AssigneeID: t.AssigneeID,
		Notes:      t.Notes,
	}
}

func (r taskRow) toDomain() domain.ProjectTask {
	return domain.ProjectTask{
		ID:         r.ID,
		Name:       r.Name,
		Status:     r.Status,
		StartAt:    r.StartAt,
		EndAt:      r.EndAt,
		AssigneeID: r.AssigneeID,
		Notes:      r.Notes,
	}
}

func statusHistoryToRow(projectID string, h domain.StatusHistoryEntry) statusHistoryRow {
	return statusHistoryRow{
		ID:              h.ID,
		ProjectID:       projectID,
		Status:          h.Status,
		ActiveSubStatus: h.ActiveSubStatus,
		ChangedAt:       h.ChangedAt,
		ChangedBy:       h.ChangedBy,
		Note:            h.Note,
	}
}

func (r statusHistoryRow) toDomain() domain.StatusHistoryEntry {
	return domain.StatusHistoryEntry{
		ID:              r.ID,
		Status:          r.Status,
		ActiveSubStatus: r.ActiveSubStatus,
		ChangedAt:       r.ChangedAt,
		ChangedBy:       r.ChangedBy,
		Note:            r.Note,
	}
}

func onsiteReportToRow(projectID string, o domain.OnsiteReport) onsiteReportRow {
	return onsiteReportRow{
		ID:               o.ID,
		ProjectID:        projectID,
		ReportDate:       o.ReportDate,
		ArrivalTime:      o.ArrivalTime,
		DepartureTime:    o.DepartureTime,
		EngineerName:     o.EngineerName,
		SiteAddress:      o.SiteAddress,
		WorkSummary:      o.WorkSummary,
		MaterialsUsed:    o.MaterialsUsed,
		AdditionalNotes:  o.AdditionalNotes,
		SignedByName:     o.SignedByName,
		SignedByPosition: o.SignedByPosition,
		SignatureImage:   o.SignatureImage,
		SignatureStrokes: o.SignatureStrokes,
		ServiceEntries:   o.ServiceEntries,
		CreatedAt:        o.CreatedAt,
	}
}

func (r onsiteReportRow) toDomain() domain.OnsiteReport {
	return domain.OnsiteReport{
		ID:               r.ID,
		ReportDate:       r.ReportDate,
		ArrivalTime:      r.ArrivalTime,
		DepartureTime:    r.DepartureTime,
		EngineerName:     r.EngineerName,
		SiteAddress:      r.SiteAddress,
		WorkSummary:      r.WorkSummary,
		MaterialsUsed:    r.MaterialsUsed,
		AdditionalNotes:  r.AdditionalNotes,
		SignedByName:     r.SignedByName,
		SignedByPosition: r.SignedByPosition,
		SignatureImage:   r.SignatureImage,
		SignatureStrokes: r.SignatureStrokes,
		ServiceEntries:   r.ServiceEntries,
		CreatedAt:        r.CreatedAt,
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
