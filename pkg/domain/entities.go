// Package domain defines the persistent record graph of fieldbook: customers,
// their sites and projects, and everything a project owns.
package domain

import "time"

// EntityType identifies the kind of record referenced by errors and logs.
type EntityType string

// Supported entity type identifiers.
const (
	EntityCustomer      EntityType = "customer"
	EntitySite          EntityType = "site"
	EntityContact       EntityType = "contact"
	EntitySubCustomer   EntityType = "sub_customer"
	EntityMachine       EntityType = "machine"
	EntityProject       EntityType = "project"
	EntityWorkOrder     EntityType = "work_order"
	EntityPurchaseOrder EntityType = "purchase_order"
	EntityTask          EntityType = "task"
	EntityDocument      EntityType = "document"
	EntityOnsiteReport  EntityType = "onsite_report"
	EntityUser          EntityType = "user"
)

// ProjectStatus is the top-level lifecycle state of a project.
type ProjectStatus string

// Canonical project statuses.
const (
	ProjectActive   ProjectStatus = "Active"
	ProjectComplete ProjectStatus = "Complete"
)

// ActiveSubStatus refines an Active project. It is meaningless once the
// project is Complete and is cleared at that point.
type ActiveSubStatus string

// Canonical active sub-statuses.
const (
	SubStatusNotStarted    ActiveSubStatus = "Not Started"
	SubStatusDesign        ActiveSubStatus = "Design"
	SubStatusBuild         ActiveSubStatus = "Build"
	SubStatusInstall       ActiveSubStatus = "Install"
	SubStatusCommissioning ActiveSubStatus = "Commissioning"
	SubStatusOnHold        ActiveSubStatus = "On Hold"
)

// DefaultActiveSubStatus is applied whenever a project becomes Active without
// an explicit sub-status.
const DefaultActiveSubStatus = SubStatusNotStarted

// ActiveSubStatuses lists the closed set in display order.
var ActiveSubStatuses = []ActiveSubStatus{
	SubStatusNotStarted,
	SubStatusDesign,
	SubStatusBuild,
	SubStatusInstall,
	SubStatusCommissioning,
	SubStatusOnHold,
}

// WorkOrderType distinguishes workshop builds from site visits.
type WorkOrderType string

// Canonical work order types.
const (
	WorkOrderBuild  WorkOrderType = "Build"
	WorkOrderOnsite WorkOrderType = "Onsite"
)

// TaskStatus is the closed set of task states.
type TaskStatus string

// Canonical task statuses.
const (
	TaskNotStarted TaskStatus = "Not Started"
	TaskInProgress TaskStatus = "In Progress"
	TaskBlocked    TaskStatus = "Blocked"
	TaskDone       TaskStatus = "Done"
)

// DocumentCategory groups project documents.
type DocumentCategory string

// Canonical document categories.
const (
	DocumentQuote       DocumentCategory = "quote"
	DocumentDrawing     DocumentCategory = "drawing"
	DocumentPhoto       DocumentCategory = "photo"
	DocumentCertificate DocumentCategory = "certificate"
	DocumentOther       DocumentCategory = "other"
)

// DocumentCategories lists every category in display order.
var DocumentCategories = []DocumentCategory{
	DocumentQuote,
	DocumentDrawing,
	DocumentPhoto,
	DocumentCertificate,
	DocumentOther,
}

// UserRole controls what a user is expected to do in the office tooling.
type UserRole string

// Canonical user roles.
const (
	RoleAdmin    UserRole = "admin"
	RoleEngineer UserRole = "engineer"
	RoleOffice   UserRole = "office"
)

// Graph is the whole persisted record set. It is always read and written as a
// unit.
type Graph struct {
	Customers        []Customer       `json:"customers"`
	Users            []User           `json:"users"`
	BusinessSettings BusinessSettings `json:"businessSettings"`
}

// Customer owns its sites, contacts, sub-customers, machines and projects.
type Customer struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Address      string        `json:"address,omitempty"`
	Email        string        `json:"email,omitempty"`
	Phone        string        `json:"phone,omitempty"`
	ContactName  string        `json:"contactName,omitempty"`
	Notes        string        `json:"notes,omitempty"`
	CreatedAt    time.Time     `json:"createdAt,omitzero"`
	Sites        []Site        `json:"sites,omitempty"`
	Contacts     []Contact     `json:"contacts,omitempty"`
	SubCustomers []SubCustomer `json:"subCustomers,omitempty"`
	Machines     []Machine     `json:"machines,omitempty"`
	Projects     []Project     `json:"projects,omitempty"`
}

// Site is a physical location of a customer.
type Site struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// Contact is a person at a customer, optionally tied to one of its sites.
type Contact struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	SiteID   string `json:"siteId,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// SubCustomer is a distinct business unit trading under a customer.
type SubCustomer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// Machine is installed equipment that onsite reports service.
type Machine struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Model         string `json:"model,omitempty"`
	SerialNumber  string `json:"serialNumber,omitempty"`
	LineReference string `json:"lineReference,omitempty"`
	SiteID        string `json:"siteId,omitempty"`
}

// Project is a numbered job for a customer.
type Project struct {
	ID              string                          `json:"id"`
	Number          string                          `json:"number"`
	Status          ProjectStatus                   `json:"status"`
	ActiveSubStatus ActiveSubStatus                 `json:"activeSubStatus,omitempty"`
	Note            string                          `json:"note,omitempty"`
	SiteID          string                          `json:"siteId,omitempty"`
	CreatedAt       time.Time                       `json:"createdAt,omitzero"`
	WorkOrders      []WorkOrder                     `json:"workOrders,omitempty"`
	PurchaseOrders  []PurchaseOrder                 `json:"purchaseOrders,omitempty"`
	Tasks           []ProjectTask                   `json:"tasks,omitempty"`
	Documents       map[DocumentCategory][]Document `json:"documents,omitempty"`
	StatusHistory   []StatusHistoryEntry            `json:"statusHistory"`
	CustomerSignoff *CustomerSignoff                `json:"customerSignoff,omitempty"`
	OnsiteReports   []OnsiteReport                  `json:"onsiteReports,omitempty"`
}

// WorkOrder is a unit of fabrication or onsite work on a project.
type WorkOrder struct {
	ID        string        `json:"id"`
	Number    string        `json:"number"`
	Type      WorkOrderType `json:"type"`
	Note      string        `json:"note,omitempty"`
	CreatedAt time.Time     `json:"createdAt,omitzero"`
}

// PurchaseOrder is a customer-issued order number tracked for invoicing.
type PurchaseOrder struct {
	ID        string    `json:"id"`
	Number    string    `json:"number"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// ProjectTask is a scheduled piece of work inside a project.
type ProjectTask struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Status     TaskStatus `json:"status"`
	StartAt    time.Time  `json:"startAt,omitzero"`
	EndAt      time.Time  `json:"endAt,omitzero"`
	AssigneeID string     `json:"assigneeId,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

// Document is a reference to a file attached to a project.
type Document struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	FileName   string    `json:"fileName,omitempty"`
	URL        string    `json:"url,omitempty"`
	UploadedAt time.Time `json:"uploadedAt,omitzero"`
}

// StatusHistoryEntry records one status transition. The log is append-only.
type StatusHistoryEntry struct {
	ID              string          `json:"id"`
	Status          ProjectStatus   `json:"status"`
	ActiveSubStatus ActiveSubStatus `json:"activeSubStatus,omitempty"`
	ChangedAt       time.Time       `json:"changedAt,omitzero"`
	ChangedBy       string          `json:"changedBy,omitempty"`
	Note            string          `json:"note,omitempty"`
}

// Point is one sample of a signature stroke.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one continuous pen movement.
type Stroke []Point

// CustomerSignoff is the customer's acceptance of a project.
type CustomerSignoff struct {
	SignedBy         string    `json:"signedBy"`
	Position         string    `json:"position,omitempty"`
	SignedAt         time.Time `json:"signedAt,omitzero"`
	SignatureImage   string    `json:"signatureImage,omitempty"`
	SignatureStrokes []Stroke  `json:"signatureStrokes,omitempty"`
}

// OnsiteReport records a field-service visit.
type OnsiteReport struct {
	ID               string         `json:"id"`
	ReportDate       string         `json:"reportDate,omitempty"`
	ArrivalTime      string         `json:"arrivalTime,omitempty"`
	DepartureTime    string         `json:"departureTime,omitempty"`
	EngineerName     string         `json:"engineerName,omitempty"`
	SiteAddress      string         `json:"siteAddress,omitempty"`
	WorkSummary      string         `json:"workSummary"`
	MaterialsUsed    string         `json:"materialsUsed,omitempty"`
	AdditionalNotes  string         `json:"additionalNotes,omitempty"`
	SignedByName     string         `json:"signedByName"`
	SignedByPosition string         `json:"signedByPosition,omitempty"`
	SignatureImage   string         `json:"signatureImage,omitempty"`
	SignatureStrokes []Stroke       `json:"signatureStrokes,omitempty"`
	ServiceEntries   []ServiceEntry `json:"serviceEntries,omitempty"`
	CreatedAt        time.Time      `json:"createdAt,omitzero"`
}

// ServiceEntry is the per-machine section of an onsite report.
type ServiceEntry struct {
	ID              string `json:"id"`
	MachineID       string `json:"machineId,omitempty"`
	SerialNumber    string `json:"serialNumber,omitempty"`
	LineReference   string `json:"lineReference,omitempty"`
	FirmwareVersion string `json:"firmwareVersion,omitempty"`
	ServiceCount    *int   `json:"serviceCount,omitempty"`
	ServiceInfo     string `json:"serviceInfo,omitempty"`
}

// User is someone who can be assigned tasks.
type User struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email,omitempty"`
	Role   UserRole `json:"role"`
	Active bool     `json:"active"`
}

// BusinessSettings holds company-wide defaults.
type BusinessSettings struct {
	CompanyName  string `json:"companyName,omitempty"`
	WorkdayStart string `json:"workdayStart"`
	WorkdayEnd   string `json:"workdayEnd"`
	WorkingDays  []int  `json:"workingDays"`
	Timezone     string `json:"timezone,omitempty"`
}

// Default values applied when the store is empty or settings are malformed.
const (
	DefaultAdminID      = "user-admin"
	DefaultAdminName    = "Administrator"
	DefaultWorkdayStart = "08:00"
	DefaultWorkdayEnd   = "17:00"
)

// DefaultWorkingDays is Monday through Friday using time.Weekday numbering.
func DefaultWorkingDays() []int { return []int{1, 2, 3, 4, 5} }

// DefaultBusinessSettings returns the settings of a fresh store.
func DefaultBusinessSettings() BusinessSettings {
	return BusinessSettings{
		WorkdayStart: DefaultWorkdayStart,
		WorkdayEnd:   DefaultWorkdayEnd,
		WorkingDays:  DefaultWorkingDays(),
	}
}

// DefaultAdmin returns the administrative user seeded into an empty store.
func DefaultAdmin() User {
	return User{ID: DefaultAdminID, Name: DefaultAdminName, Role: RoleAdmin, Active: true}
}

// EmptyGraph returns a well-formed graph with no customers, the default
// administrator and default business hours.
func EmptyGraph() Graph {
	return Graph{
		Customers:        []Customer{},
		Users:            []User{DefaultAdmin()},
		BusinessSettings: DefaultBusinessSettings(),
	}
}
