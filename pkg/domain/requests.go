package domain

import (
	"context"
	"time"
)

// CustomerInput carries the editable fields of a customer.
type CustomerInput struct {
	Name        string `json:"name"`
	Address     string `json:"address,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	ContactName string `json:"contactName,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// SiteInput carries the editable fields of a site.
type SiteInput struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// ContactInput carries the editable fields of a contact.
type ContactInput struct {
	Name     string `json:"name"`
	Position string `json:"position,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	SiteID   string `json:"siteId,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// SubCustomerInput carries the editable fields of a sub-customer.
type SubCustomerInput struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// MachineInput carries the editable fields of a machine.
type MachineInput struct {
	Name          string `json:"name"`
	Model         string `json:"model,omitempty"`
	SerialNumber  string `json:"serialNumber,omitempty"`
	LineReference string `json:"lineReference,omitempty"`
	SiteID        string `json:"siteId,omitempty"`
}

// ProjectInput creates a project. New projects start Active.
type ProjectInput struct {
	Number          string          `json:"number"`
	Note            string          `json:"note,omitempty"`
	SiteID          string          `json:"siteId,omitempty"`
	ActiveSubStatus ActiveSubStatus `json:"activeSubStatus,omitempty"`
}

// ProjectUpdate patches a project; nil fields are left alone.
type ProjectUpdate struct {
	Number *string `json:"number,omitempty"`
	Note   *string `json:"note,omitempty"`
	SiteID *string `json:"siteId,omitempty"`
}

// StatusChange moves a project between statuses and records who did it.
type StatusChange struct {
	Status          ProjectStatus   `json:"status"`
	ActiveSubStatus ActiveSubStatus `json:"activeSubStatus,omitempty"`
	ChangedBy       string          `json:"changedBy,omitempty"`
	Note            string          `json:"note,omitempty"`
}

// WorkOrderInput carries the editable fields of a work order.
type WorkOrderInput struct {
	Number string        `json:"number"`
	Type   WorkOrderType `json:"type,omitempty"`
	Note   string        `json:"note,omitempty"`
}

// PurchaseOrderInput carries the editable fields of a purchase order.
type PurchaseOrderInput struct {
	Number string `json:"number"`
	Note   string `json:"note,omitempty"`
}

// TaskInput carries the editable fields of a task.
type TaskInput struct {
	Name       string     `json:"name"`
	Status     TaskStatus `json:"status,omitempty"`
	StartAt    time.Time  `json:"startAt,omitzero"`
	EndAt      time.Time  `json:"endAt,omitzero"`
	AssigneeID string     `json:"assigneeId,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

// DocumentInput attaches a document reference to a project.
type DocumentInput struct {
	Category DocumentCategory `json:"category"`
	Label    string           `json:"label"`
	FileName string           `json:"fileName,omitempty"`
	URL      string           `json:"url,omitempty"`
}

// SignoffInput records the customer's acceptance of a project.
type SignoffInput struct {
	SignedBy         string   `json:"signedBy"`
	Position         string   `json:"position,omitempty"`
	SignatureImage   string   `json:"signatureImage,omitempty"`
	SignatureStrokes []Stroke `json:"signatureStrokes,omitempty"`
}

// ServiceEntryInput is one machine section of an onsite report.
type ServiceEntryInput struct {
	MachineID       string `json:"machineId,omitempty"`
	SerialNumber    string `json:"serialNumber,omitempty"`
	LineReference   string `json:"lineReference,omitempty"`
	FirmwareVersion string `json:"firmwareVersion,omitempty"`
	ServiceCount    *int   `json:"serviceCount,omitempty"`
	ServiceInfo     string `json:"serviceInfo,omitempty"`
}

// OnsiteReportInput carries the fields of an onsite report.
type OnsiteReportInput struct {
	ReportDate       string              `json:"reportDate,omitempty"`
	ArrivalTime      string              `json:"arrivalTime,omitempty"`
	DepartureTime    string              `json:"departureTime,omitempty"`
	EngineerName     string              `json:"engineerName,omitempty"`
	SiteAddress      string              `json:"siteAddress,omitempty"`
	WorkSummary      string              `json:"workSummary"`
	MaterialsUsed    string              `json:"materialsUsed,omitempty"`
	AdditionalNotes  string              `json:"additionalNotes,omitempty"`
	SignedByName     string              `json:"signedByName"`
	SignedByPosition string              `json:"signedByPosition,omitempty"`
	SignatureImage   string              `json:"signatureImage,omitempty"`
	SignatureStrokes []Stroke            `json:"signatureStrokes,omitempty"`
	ServiceEntries   []ServiceEntryInput `json:"serviceEntries,omitempty"`
}

// UserInput carries the editable fields of a user.
type UserInput struct {
	Name  string   `json:"name"`
	Email string   `json:"email,omitempty"`
	Role  UserRole `json:"role,omitempty"`
}

// Records is the persistence contract shared by the local store and the
// remote table adapter. Validation failures come back as *ValidationError,
// missing targets as ErrNotFound.
type Records interface {
	ListCustomers(ctx context.Context) ([]Customer, error)
	CreateCustomer(ctx context.Context, in CustomerInput) (Customer, error)
	UpdateCustomer(ctx context.Context, id string, in CustomerInput) (Customer, error)
	DeleteCustomer(ctx context.Context, id string) error

	AddSite(ctx context.Context, customerID string, in SiteInput) (Site, error)
	DeleteSite(ctx context.Context, customerID, siteID string) error
	AddContact(ctx context.Context, customerID string, in ContactInput) (Contact, error)
	DeleteContact(ctx context.Context, customerID, contactID string) error

	CreateProject(ctx context.Context, customerID string, in ProjectInput) (Project, error)
	UpdateProject(ctx context.Context, projectID string, in ProjectUpdate) (Project, error)
	SetProjectStatus(ctx context.Context, projectID string, change StatusChange) (Project, error)
	DeleteProject(ctx context.Context, projectID string) error

	AddWorkOrder(ctx context.Context, projectID string, in WorkOrderInput) (WorkOrder, error)
	DeleteWorkOrder(ctx context.Context, projectID, workOrderID string) error
	AddPurchaseOrder(ctx context.Context, projectID string, in PurchaseOrderInput) (PurchaseOrder, error)
	DeletePurchaseOrder(ctx context.Context, projectID, purchaseOrderID string) error

	AddTask(ctx context.Context, projectID string, in TaskInput) (ProjectTask, error)
	DeleteTask(ctx context.Context, projectID, taskID string) error

	AddOnsiteReport(ctx context.Context, projectID string, in OnsiteReportInput) (OnsiteReport, error)
	DeleteOnsiteReport(ctx context.Context, projectID, reportID string) error
}
