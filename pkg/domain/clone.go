package domain

// Clone returns a deep copy of the graph. Mutators work on a clone so the
// caller's graph is never touched.
func (g Graph) Clone() Graph {
	cp := Graph{
		Customers:        make([]Customer, len(g.Customers)),
		Users:            append([]User(nil), g.Users...),
		BusinessSettings: cloneSettings(g.BusinessSettings),
	}
	for i, c := range g.Customers {
		cp.Customers[i] = CloneCustomer(c)
	}
	if g.Customers == nil {
		cp.Customers = nil
	}
	return cp
}

func cloneSettings(s BusinessSettings) BusinessSettings {
	cp := s
	cp.WorkingDays = append([]int(nil), s.WorkingDays...)
	return cp
}

// CloneCustomer deep-copies a customer and everything it owns.
func CloneCustomer(c Customer) Customer {
	cp := c
	cp.Sites = append([]Site(nil), c.Sites...)
	cp.Contacts = append([]Contact(nil), c.Contacts...)
	cp.SubCustomers = append([]SubCustomer(nil), c.SubCustomers...)
	cp.Machines = append([]Machine(nil), c.Machines...)
	if c.Projects != nil {
		cp.Projects = make([]Project, len(c.Projects))
		for i, p := range c.Projects {
			cp.Projects[i] = CloneProject(p)
		}
	}
	return cp
}

// CloneProject deep-copies a project and everything it owns.
func CloneProject(p Project) Project {
	cp := p
	cp.WorkOrders = append([]WorkOrder(nil), p.WorkOrders...)
	cp.PurchaseOrders = append([]PurchaseOrder(nil), p.PurchaseOrders...)
	cp.Tasks = append([]ProjectTask(nil), p.Tasks...)
	cp.StatusHistory = append([]StatusHistoryEntry(nil), p.StatusHistory...)
	if p.Documents != nil {
		cp.Documents = make(map[DocumentCategory][]Document, len(p.Documents))
		for cat, docs := range p.Documents {
			cp.Documents[cat] = append([]Document(nil), docs...)
		}
	}
	if p.CustomerSignoff != nil {
		s := *p.CustomerSignoff
		s.SignatureStrokes = cloneStrokes(p.CustomerSignoff.SignatureStrokes)
		cp.CustomerSignoff = &s
	}
	if p.OnsiteReports != nil {
		cp.OnsiteReports = make([]OnsiteReport, len(p.OnsiteReports))
		for i, r := range p.OnsiteReports {
			cp.OnsiteReports[i] = CloneOnsiteReport(r)
		}
	}
	return cp
}

// CloneOnsiteReport deep-copies a report including its signature strokes and
// service entries.
func CloneOnsiteReport(r OnsiteReport) OnsiteReport {
	cp := r
	cp.SignatureStrokes = cloneStrokes(r.SignatureStrokes)
	if r.ServiceEntries != nil {
		cp.ServiceEntries = make([]ServiceEntry, len(r.ServiceEntries))
		for i, e := range r.ServiceEntries {
			cp.ServiceEntries[i] = cloneServiceEntry(e)
		}
	}
	return cp
}

func cloneServiceEntry(e ServiceEntry) ServiceEntry {
	cp := e
	if e.ServiceCount != nil {
		n := *e.ServiceCount
		cp.ServiceCount = &n
	}
	return cp
}

func cloneStrokes(in []Stroke) []Stroke {
	if in == nil {
		return nil
	}
	out := make([]Stroke, len(in))
	for i, s := range in {
		out[i] = append(Stroke(nil), s...)
	}
	return out
}
