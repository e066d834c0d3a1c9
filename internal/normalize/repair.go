package normalize

import (
	"github.com/google/uuid"

	"fieldbook/pkg/domain"
)

// repair enforces the rules that span entities: unique ids, references that
// resolve, status consistency and the defaults of an empty store. It runs on
// the typed graph after every field has passed its schema.
func repair(g *domain.Graph) {
	g.Users = dedupe(g.Users, func(u domain.User) string { return u.ID }, map[string]struct{}{})
	if len(g.Users) == 0 {
		g.Users = []domain.User{domain.DefaultAdmin()}
	}
	users := idSet(g.Users, func(u domain.User) string { return u.ID })

	repairSettings(&g.BusinessSettings)

	g.Customers = dedupe(g.Customers, func(c domain.Customer) string { return c.ID }, map[string]struct{}{})
	if g.Customers == nil {
		g.Customers = []domain.Customer{}
	}
	projectIDs := map[string]struct{}{}
	for i := range g.Customers {
		repairCustomer(&g.Customers[i], users, projectIDs)
	}
	domain.SortGraph(g)
}

func repairSettings(s *domain.BusinessSettings) {
	if s.WorkdayEnd <= s.WorkdayStart {
		s.WorkdayStart = domain.DefaultWorkdayStart
		s.WorkdayEnd = domain.DefaultWorkdayEnd
	}
	if len(s.WorkingDays) == 0 {
		s.WorkingDays = domain.DefaultWorkingDays()
	}
}

func repairCustomer(c *domain.Customer, users, projectIDs map[string]struct{}) {
	c.Sites = dedupe(c.Sites, func(s domain.Site) string { return s.ID }, map[string]struct{}{})
	c.Contacts = dedupe(c.Contacts, func(ct domain.Contact) string { return ct.ID }, map[string]struct{}{})
	c.SubCustomers = dedupe(c.SubCustomers, func(s domain.SubCustomer) string { return s.ID }, map[string]struct{}{})
	c.Machines = dedupe(c.Machines, func(m domain.Machine) string { return m.ID }, map[string]struct{}{})
	c.Projects = dedupe(c.Projects, func(p domain.Project) string { return p.ID }, projectIDs)

	sites := idSet(c.Sites, func(s domain.Site) string { return s.ID })
	machines := idSet(c.Machines, func(m domain.Machine) string { return m.ID })

	for i := range c.Contacts {
		c.Contacts[i].SiteID = resolve(c.Contacts[i].SiteID, sites)
	}
	for i := range c.Machines {
		c.Machines[i].SiteID = resolve(c.Machines[i].SiteID, sites)
	}
	for i := range c.Projects {
		p := &c.Projects[i]
		p.SiteID = resolve(p.SiteID, sites)
		repairProject(p, users, machines)
	}
}

func repairProject(p *domain.Project, users, machines map[string]struct{}) {
	switch p.Status {
	case domain.ProjectComplete:
		p.ActiveSubStatus = ""
	default:
		p.Status = domain.ProjectActive
		if p.ActiveSubStatus == "" {
			p.ActiveSubStatus = domain.DefaultActiveSubStatus
		}
	}

	p.WorkOrders = dedupe(p.WorkOrders, func(w domain.WorkOrder) string { return w.ID }, map[string]struct{}{})
	p.PurchaseOrders = dedupe(p.PurchaseOrders, func(po domain.PurchaseOrder) string { return po.ID }, map[string]struct{}{})
	p.Tasks = dedupe(p.Tasks, func(t domain.ProjectTask) string { return t.ID }, map[string]struct{}{})
	p.OnsiteReports = dedupe(p.OnsiteReports, func(r domain.OnsiteReport) string { return r.ID }, map[string]struct{}{})
	p.StatusHistory = dedupe(p.StatusHistory, func(h domain.StatusHistoryEntry) string { return h.ID }, map[string]struct{}{})

	for i := range p.Tasks {
		t := &p.Tasks[i]
		t.AssigneeID = resolve(t.AssigneeID, users)
		if !t.StartAt.IsZero() && !t.EndAt.IsZero() && t.EndAt.Before(t.StartAt) {
			t.EndAt = t.StartAt
		}
	}

	docIDs := map[string]struct{}{}
	for cat, docs := range p.Documents {
		docs = dedupe(docs, func(d domain.Document) string { return d.ID }, docIDs)
		if len(docs) == 0 {
			delete(p.Documents, cat)
			continue
		}
		p.Documents[cat] = docs
	}
	if len(p.Documents) == 0 {
		p.Documents = nil
	}

	for i := range p.StatusHistory {
		if p.StatusHistory[i].Status == domain.ProjectComplete {
			p.StatusHistory[i].ActiveSubStatus = ""
		}
	}
	if len(p.StatusHistory) == 0 {
		p.StatusHistory = []domain.StatusHistoryEntry{InitialHistory(*p)}
	}

	for i := range p.OnsiteReports {
		r := &p.OnsiteReports[i]
		r.ServiceEntries = dedupe(r.ServiceEntries, func(e domain.ServiceEntry) string { return e.ID }, map[string]struct{}{})
		for j := range r.ServiceEntries {
			r.ServiceEntries[j].MachineID = resolve(r.ServiceEntries[j].MachineID, machines)
		}
	}
}

// InitialHistory is the synthetic first entry of a project that has none. Its
// id derives from the project id so repeated repairs agree.
func InitialHistory(p domain.Project) domain.StatusHistoryEntry {
	return domain.StatusHistoryEntry{
		ID:              uuid.NewSHA1(legacyNamespace, []byte("history\x00"+p.ID)).String(),
		Status:          p.Status,
		ActiveSubStatus: p.ActiveSubStatus,
		ChangedAt:       p.CreatedAt,
	}
}

// dedupe keeps the first element for each id. seen may be shared to make ids
// unique across several collections. An empty result is nil.
func dedupe[T any](items []T, idOf func(T) string, seen map[string]struct{}) []T {
	var out []T
	for _, item := range items {
		id := idOf(item)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, item)
	}
	return out
}

func idSet[T any](items []T, idOf func(T) string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[idOf(item)] = struct{}{}
	}
	return set
}

// resolve drops a reference whose target is not in set.
func resolve(ref string, set map[string]struct{}) string {
	if _, ok := set[ref]; ok {
		return ref
	}
	return ""
}
