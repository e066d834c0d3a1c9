package domain

import (
	"cmp"
	"slices"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collators keep internal buffers and are not safe for concurrent use.
var collators = sync.Pool{
	New: func() any {
		return collate.New(language.English, collate.IgnoreCase, collate.IgnoreDiacritics, collate.Numeric)
	},
}

// CompareText orders display text the way a person expects: locale-aware,
// case-insensitive and numeric-aware ("P9" before "P10").
func CompareText(a, b string) int {
	c := collators.Get().(*collate.Collator)
	defer collators.Put(c)
	return c.CompareString(a, b)
}

// byText compares on text first and falls back to the id so that equal labels
// still produce one stable order.
func byText(aText, aID, bText, bID string) int {
	if c := CompareText(aText, bText); c != 0 {
		return c
	}
	if c := cmp.Compare(aText, bText); c != 0 {
		return c
	}
	return cmp.Compare(aID, bID)
}

// SortCustomers orders customers by name.
func SortCustomers(cs []Customer) {
	slices.SortFunc(cs, func(a, b Customer) int { return byText(a.Name, a.ID, b.Name, b.ID) })
}

// SortSites orders sites by name.
func SortSites(ss []Site) {
	slices.SortFunc(ss, func(a, b Site) int { return byText(a.Name, a.ID, b.Name, b.ID) })
}

// SortContacts orders contacts by name.
func SortContacts(cs []Contact) {
	slices.SortFunc(cs, func(a, b Contact) int { return byText(a.Name, a.ID, b.Name, b.ID) })
}

// SortSubCustomers orders sub-customers by name.
func SortSubCustomers(ss []SubCustomer) {
	slices.SortFunc(ss, func(a, b SubCustomer) int { return byText(a.Name, a.ID, b.Name, b.ID) })
}

// SortMachines orders machines by name.
func SortMachines(ms []Machine) {
	slices.SortFunc(ms, func(a, b Machine) int { return byText(a.Name, a.ID, b.Name, b.ID) })
}

// SortProjects orders projects by number.
func SortProjects(ps []Project) {
	slices.SortFunc(ps, func(a, b Project) int { return byText(a.Number, a.ID, b.Number, b.ID) })
}

// SortWorkOrders orders work orders by number.
func SortWorkOrders(ws []WorkOrder) {
	slices.SortFunc(ws, func(a, b WorkOrder) int { return byText(a.Number, a.ID, b.Number, b.ID) })
}

// SortPurchaseOrders orders purchase orders by number.
func SortPurchaseOrders(ps []PurchaseOrder) {
	slices.SortFunc(ps, func(a, b PurchaseOrder) int { return byText(a.Number, a.ID, b.Number, b.ID) })
}

// SortTasks orders tasks by name.
func SortTasks(ts []ProjectTask) {
	slices.SortFunc(ts, func(a, b ProjectTask) int { return byText(a.Name, a.ID, b.Name, b.ID) })
}

// SortDocuments orders documents by label.
func SortDocuments(ds []Document) {
	slices.SortFunc(ds, func(a, b Document) int { return byText(a.Label, a.ID, b.Label, b.ID) })
}

// SortOnsiteReports puts the most recent visit first. Report dates are ISO
// strings, so string order is date order; undated reports go last.
func SortOnsiteReports(rs []OnsiteReport) {
	slices.SortFunc(rs, func(a, b OnsiteReport) int {
		switch {
		case a.ReportDate == b.ReportDate:
			return cmp.Compare(a.ID, b.ID)
		case a.ReportDate == "":
			return 1
		case b.ReportDate == "":
			return -1
		}
		return cmp.Compare(b.ReportDate, a.ReportDate)
	})
}

// SortUsers orders users by name.
func SortUsers(us []User) {
	slices.SortFunc(us, func(a, b User) int { return byText(a.Name, a.ID, b.Name, b.ID) })
}

// SortProject orders every sorted collection a project owns. Status history
// and service entries keep their recorded order.
func SortProject(p *Project) {
	SortWorkOrders(p.WorkOrders)
	SortPurchaseOrders(p.PurchaseOrders)
	SortTasks(p.Tasks)
	for _, docs := range p.Documents {
		SortDocuments(docs)
	}
	SortOnsiteReports(p.OnsiteReports)
}

// SortCustomer orders every sorted collection a customer owns, recursively.
func SortCustomer(c *Customer) {
	SortSites(c.Sites)
	SortContacts(c.Contacts)
	SortSubCustomers(c.SubCustomers)
	SortMachines(c.Machines)
	for i := range c.Projects {
		SortProject(&c.Projects[i])
	}
	SortProjects(c.Projects)
}

// SortGraph puts the whole graph into its persisted order.
func SortGraph(g *Graph) {
	for i := range g.Customers {
		SortCustomer(&g.Customers[i])
	}
	SortCustomers(g.Customers)
	SortUsers(g.Users)
}
