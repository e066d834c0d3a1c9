// Package records holds the domain mutators. Each mutator takes the current
// graph and a request and returns a new graph together with the entity it
// created or changed. The input graph is never modified, and a rejected
// request returns it as is.
package records

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"fieldbook/pkg/domain"
)

// Env supplies the impure inputs of a mutation.
type Env struct {
	NewID func() string
	Now   func() time.Time
}

// DefaultEnv generates random UUIDs and reads the wall clock.
func DefaultEnv() Env {
	return Env{NewID: NewID, Now: time.Now}
}

// NewID returns a random UUID, or random bits plus a timestamp when the
// system randomness source fails.
func NewID() string {
	id, err := uuid.NewRandom()
	if err == nil {
		return id.String()
	}
	return fmt.Sprintf("%016x-%016x", rand.Uint64(), time.Now().UnixNano())
}

func (e Env) id() string {
	if e.NewID == nil {
		return NewID()
	}
	return e.NewID()
}

func (e Env) now() time.Time {
	if e.Now == nil {
		return time.Now().UTC()
	}
	return e.Now().UTC()
}

func requireText(field, label, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", domain.Invalid(field, "%s is required.", label)
	}
	return v, nil
}

func customerAt(g *domain.Graph, id string) (*domain.Customer, error) {
	i := g.CustomerIndex(id)
	if i < 0 {
		return nil, domain.ErrNotFound{Entity: domain.EntityCustomer, ID: id}
	}
	return &g.Customers[i], nil
}

func projectAt(g *domain.Graph, id string) (*domain.Customer, *domain.Project, error) {
	ci, pi := g.ProjectIndex(id)
	if ci < 0 {
		return nil, nil, domain.ErrNotFound{Entity: domain.EntityProject, ID: id}
	}
	return &g.Customers[ci], &g.Customers[ci].Projects[pi], nil
}

// remove drops the element with id. An emptied collection becomes nil, which
// is how absent collections are stored.
func remove[T any](items []T, id string, idOf func(T) string) ([]T, bool) {
	i := domain.IndexByID(items, id, idOf)
	if i < 0 {
		return items, false
	}
	items = slices.Delete(items, i, i+1)
	if len(items) == 0 {
		return nil, true
	}
	return items, true
}

func siteID(s domain.Site) string                   { return s.ID }
func contactID(c domain.Contact) string             { return c.ID }
func subCustomerID(s domain.SubCustomer) string     { return s.ID }
func machineID(m domain.Machine) string             { return m.ID }
func workOrderID(w domain.WorkOrder) string         { return w.ID }
func purchaseOrderID(p domain.PurchaseOrder) string { return p.ID }
func taskID(t domain.ProjectTask) string            { return t.ID }
func documentID(d domain.Document) string           { return d.ID }
func reportID(r domain.OnsiteReport) string         { return r.ID }
func userID(u domain.User) string                   { return u.ID }
