package domain

// Lookups are linear scans. Collections are bounded by what a field-service
// business tracks (low hundreds), so no index is kept.

// CustomerIndex returns the position of the customer with id, or -1.
func (g Graph) CustomerIndex(id string) int {
	for i := range g.Customers {
		if g.Customers[i].ID == id {
			return i
		}
	}
	return -1
}

// ProjectIndex locates a project anywhere in the graph and returns the
// positions of its customer and of the project, or (-1, -1).
func (g Graph) ProjectIndex(id string) (int, int) {
	for ci := range g.Customers {
		for pi := range g.Customers[ci].Projects {
			if g.Customers[ci].Projects[pi].ID == id {
				return ci, pi
			}
		}
	}
	return -1, -1
}

// FindCustomer returns a copy of the customer with id.
func (g Graph) FindCustomer(id string) (Customer, bool) {
	i := g.CustomerIndex(id)
	if i < 0 {
		return Customer{}, false
	}
	return CloneCustomer(g.Customers[i]), true
}

// FindProject returns a copy of the project with id and the id of its owner.
func (g Graph) FindProject(id string) (Project, string, bool) {
	ci, pi := g.ProjectIndex(id)
	if ci < 0 {
		return Project{}, "", false
	}
	return CloneProject(g.Customers[ci].Projects[pi]), g.Customers[ci].ID, true
}

// UserIndex returns the position of the user with id, or -1.
func (g Graph) UserIndex(id string) int {
	for i := range g.Users {
		if g.Users[i].ID == id {
			return i
		}
	}
	return -1
}

// HasSite reports whether the customer owns a site with id.
func (c Customer) HasSite(id string) bool {
	return IndexByID(c.Sites, id, func(s Site) string { return s.ID }) >= 0
}

// HasMachine reports whether the customer owns a machine with id.
func (c Customer) HasMachine(id string) bool {
	return IndexByID(c.Machines, id, func(m Machine) string { return m.ID }) >= 0
}

// IndexByID returns the position of the element whose id matches, or -1.
func IndexByID[T any](items []T, id string, idOf func(T) string) int {
	for i := range items {
		if idOf(items[i]) == id {
			return i
		}
	}
	return -1
}

// ProjectNumberTaken reports whether any project in the graph, other than
// exceptID, already uses number after folding.
func (g Graph) ProjectNumberTaken(number, exceptID string) bool {
	key := FoldKey(number)
	for _, c := range g.Customers {
		for _, p := range c.Projects {
			if p.ID != exceptID && FoldKey(p.Number) == key {
				return true
			}
		}
	}
	return false
}

// WorkOrderNumberTaken reports whether any work order in the graph, other
// than exceptID, already uses number after folding.
func (g Graph) WorkOrderNumberTaken(number, exceptID string) bool {
	key := FoldKey(number)
	for _, c := range g.Customers {
		for _, p := range c.Projects {
			for _, wo := range p.WorkOrders {
				if wo.ID != exceptID && FoldKey(wo.Number) == key {
					return true
				}
			}
		}
	}
	return false
}

// PurchaseOrderNumberTaken reports whether any purchase order in the graph,
// other than exceptID, already uses number after folding.
func (g Graph) PurchaseOrderNumberTaken(number, exceptID string) bool {
	key := FoldKey(number)
	for _, c := range g.Customers {
		for _, p := range c.Projects {
			for _, po := range p.PurchaseOrders {
				if po.ID != exceptID && FoldKey(po.Number) == key {
					return true
				}
			}
		}
	}
	return false
}

// CustomerNameTaken reports whether another customer already uses name after
// folding.
func (g Graph) CustomerNameTaken(name, exceptID string) bool {
	key := FoldKey(name)
	for _, c := range g.Customers {
		if c.ID != exceptID && FoldKey(c.Name) == key {
			return true
		}
	}
	return false
}
