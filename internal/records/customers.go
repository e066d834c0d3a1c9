package records

import (
	"strings"

	"fieldbook/pkg/domain"
)

func customerFields(in domain.CustomerInput) (domain.Customer, error) {
	name, err := requireText("name", "Customer name", in.Name)
	if err != nil {
		return domain.Customer{}, err
	}
	return domain.Customer{
		Name:        name,
		Address:     strings.TrimSpace(in.Address),
		Email:       strings.TrimSpace(in.Email),
		Phone:       strings.TrimSpace(in.Phone),
		ContactName: strings.TrimSpace(in.ContactName),
		Notes:       strings.TrimSpace(in.Notes),
	}, nil
}

// CreateCustomer adds a customer. Names are unique ignoring case and
// surrounding whitespace.
func CreateCustomer(g domain.Graph, in domain.CustomerInput, env Env) (domain.Graph, domain.Customer, error) {
	c, err := customerFields(in)
	if err != nil {
		return g, domain.Customer{}, err
	}
	if g.CustomerNameTaken(c.Name, "") {
		return g, domain.Customer{}, domain.Invalid("name", "A customer named %q already exists.", c.Name)
	}
	c.ID = env.id()
	c.CreatedAt = env.now()

	out := g.Clone()
	out.Customers = append(out.Customers, c)
	domain.SortCustomers(out.Customers)
	return out, c, nil
}

// UpdateCustomer replaces the editable fields of a customer.
func UpdateCustomer(g domain.Graph, id string, in domain.CustomerInput, _ Env) (domain.Graph, domain.Customer, error) {
	fields, err := customerFields(in)
	if err != nil {
		return g, domain.Customer{}, err
	}
	out := g.Clone()
	c, err := customerAt(&out, id)
	if err != nil {
		return g, domain.Customer{}, err
	}
	if g.CustomerNameTaken(fields.Name, id) {
		return g, domain.Customer{}, domain.Invalid("name", "A customer named %q already exists.", fields.Name)
	}
	c.Name = fields.Name
	c.Address = fields.Address
	c.Email = fields.Email
	c.Phone = fields.Phone
	c.ContactName = fields.ContactName
	c.Notes = fields.Notes
	updated := domain.CloneCustomer(*c)
	domain.SortCustomers(out.Customers)
	return out, updated, nil
}

// DeleteCustomer removes a customer with everything it owns.
func DeleteCustomer(g domain.Graph, id string, _ Env) (domain.Graph, error) {
	if g.CustomerIndex(id) < 0 {
		return g, domain.ErrNotFound{Entity: domain.EntityCustomer, ID: id}
	}
	out := g.Clone()
	out.Customers, _ = remove(out.Customers, id, func(c domain.Customer) string { return c.ID })
	if out.Customers == nil {
		out.Customers = []domain.Customer{}
	}
	return out, nil
}

func siteFields(in domain.SiteInput) (domain.Site, error) {
	name, err := requireText("name", "Site name", in.Name)
	if err != nil {
		return domain.Site{}, err
	}
	return domain.Site{
		Name:    name,
		Address: strings.TrimSpace(in.Address),
		Notes:   strings.TrimSpace(in.Notes),
	}, nil
}

// AddSite adds a site to a customer.
func AddSite(g domain.Graph, customerID string, in domain.SiteInput, env Env) (domain.Graph, domain.Site, error) {
	s, err := siteFields(in)
	if err != nil {
		return g, domain.Site{}, err
	}
	out := g.Clone()
	c, err := customerAt(&out, customerID)
	if err != nil {
		return g, domain.Site{}, err
	}
	s.ID = env.id()
	c.Sites = append(c.Sites, s)
	domain.SortSites(c.Sites)
	return out, s, nil
}

// UpdateSite replaces the editable fields of a site.
func UpdateSite(g domain.Graph, customerID, id string, in domain.SiteInput, _ Env) (domain.Graph, domain.Site, error) {
	fields, err := siteFields(in)
	if err != nil {
		return g, domain.Site{}, err
	}
	out := g.Clone()
	c, err := customerAt(&out, customerID)
	if err != nil {
		return g, domain.Site{}, err
	}
	i := domain.IndexByID(c.Sites, id, siteID)
	if i < 0 {
		return g, domain.Site{}, domain.ErrNotFound{Entity: domain.EntitySite, ID: id}
	}
	fields.ID = id
	c.Sites[i] = fields
	domain.SortSites(c.Sites)
	return out, fields, nil
}

// DeleteSite removes a site and clears every reference to it held by the
// customer's contacts, machines and projects.
func DeleteSite(g domain.Graph, customerID, id string, _ Env) (domain.Graph, error) {
	out := g.Clone()
	c, err := customerAt(&out, customerID)
	if err != nil {
		return g, err
	}
	var ok bool
	if c.Sites, ok = remove(c.Sites, id, siteID); !ok {
		return g, domain.ErrNotFound{Entity: domain.EntitySite, ID: id}
	}
	for i := range c.Contacts {
		if c.Contacts[i].SiteID == id {
			c.Contacts[i].SiteID = ""
		}
	}
	for i := range c.Machines {
		if c.Machines[i].SiteID == id {
			c.Machines[i].SiteID = ""
		}
	}
	for i := range c.Projects {
		if c.Projects[i].SiteID == id {
			c.Projects[i].SiteID = ""
		}
	}
	return out, nil
}

// checkSite validates an optional site reference against the customer.
func checkSite(c *domain.Customer, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || c.HasSite(id) {
		return id, nil
	}
	return "", domain.Invalid("siteId", "The selected site does not belong to %s.", c.Name)
}

func contactFields(c *domain.Customer, in domain.ContactInput) (domain.Contact, error) {
	name, err := requireText("name", "Contact name", in.Name)
	if err != nil {
		return domain.Contact{}, err
	}
	site, err := checkSite(c, in.SiteID)
	if err != nil {
		return domain.Contact{}, err
	}
	return domain.Contact{
		Name:     name,
		Position: strings.TrimSpace(in.Position),
		Email:    strings.TrimSpace(in.Email),
		Phone:    strings.TrimSpace(in.Phone),
		SiteID:   site,
		Notes:    strings.TrimSpace(in.Notes),
	}, nil
}

// AddContact adds a contact to a customer.
func AddContact(g domain.Graph, customerID string, in domain.ContactInput, env Env) (domain.Graph, domain.Contact, error) {
	out := g.Clone()
	c, err := customerAt(&out, customerID)
	if err != nil {
		return g, domain.Contact{}, err
	}
	ct, err := contactFields(c, in)
	if err != nil {
		return g, domain.Contact{}, err
	}
	ct.ID = env.id()
	c.Contacts = append(c.Contacts, ct)
	domain.SortContacts(c.Contacts)
	return out, ct, nil
}

// UpdateContact replaces the editable fields of a contact.
func UpdateContact(g domain.Graph, customerID, id string, in domain.ContactInput, _ Env) (domain.Graph, domain.Contact, error) {
	out := g.Clone()
	c, err := customerAt(&out, customerID)
	if err != nil {
		return g, domain.Contact{}, err
	}
	i := domain.IndexByID(c.Contacts, id, contactID)
	if i < 0 {
		return g, domain.Contact{}, domain.ErrNotFound{Entity: domain.EntityContact, ID: id}
	}
	ct, err := contactFields(c, in)
	if err != nil {
		return g, domain.Contact{}, err
	}
	ct.ID = id
	c.Contacts[i] = ct
	domain.SortContacts(c.Contacts)
	return out, ct, nil
}

// DeleteContact removes a contact.
func DeleteContact(g domain.Graph, customerID, id string, _ Env) (domain.Graph, error) {
	out := g.Clone()
	c, err := customerAt(&out, customerID)
	if err != nil {
		return g, err
	}
	var ok bool
	if c.Contacts, ok = remove(c.Contacts, id, contactID); !ok {
		return g, domain.ErrNotFound{Entity: domain.EntityContact, ID: id}
	}
	return out, nil
}

// AddSubCustomer adds a sub-customer.
func AddSubCustomer(g domain.Graph, customerID string, in domain.SubCustomerInput, env Env) (domain.Graph, domain.SubCustomer, error) {
	name, err := requireText("name", "Sub-customer name", in.Name)
	if err != nil {
		return g, domain.SubCustomer{}, err
	}
	out := g.Clone()
	c, err := customerAt(&out, customerID)
	if err != nil {
		return g, domain.SubCustomer{}, err
	}
	s := domain.SubCustomer{
		ID:      env.id(),
		Name:    name,
		Address: strings.TrimSpace(in.Address),
		Notes:   strings.TrimSpace(in.Notes),
	}
	c.SubCustomers = append(c.SubCustomers, s)
	domain.SortSubCustomers(c.SubCustomers)
	return out, s, nil
}

// DeleteSubCustomer removes a sub-customer.
func DeleteSubCustomer(g domain.Graph, customerID, id string, _ Env) (domain.Graph, error) {
	out := g.Clone()
	c, err := customerAt(&out, customerID)
	if err != nil {
		return g, err
	}
	var ok bool
	if c.SubCustomers, ok = remove(c.SubCustomers, id, subCustomerID); !ok {
		return g, domain.ErrNotFound{Entity: domain.EntitySubCustomer, ID: id}
	}
	return out, nil
}

// AddMachine registers a machine at a customer.
func AddMachine(g domain.Graph, customerID string, in domain.MachineInput, env Env) (domain.Graph, domain.Machine, error) {
	name, err := requireText("name", "Machine name", in.Name)
	if err != nil {
		return g, domain.Machine{}, err
	}
	out := g.Clone()
	c, err := customerAt(&out, customerID)
	if err != nil {
		return g, domain.Machine{}, err
	}
	site, err := checkSite(c, in.SiteID)
	if err != nil {
		return g, domain.Machine{}, err
	}
	m := domain.Machine{
		ID:            env.id(),
		Name:          name,
		Model:         strings.TrimSpace(in.Model),
		SerialNumber:  strings.TrimSpace(in.SerialNumber),
		LineReference: strings.TrimSpace(in.LineReference),
		SiteID:        site,
	}
	c.Machines = append(c.Machines, m)
	domain.SortMachines(c.Machines)
	return out, m, nil
}

// DeleteMachine removes a machine and clears service entries pointing at it.
func DeleteMachine(g domain.Graph, customerID, id string, _ Env) (domain.Graph, error) {
	out := g.Clone()
	c, err := customerAt(&out, customerID)
	if err != nil {
		return g, err
	}
	var ok bool
	if c.Machines, ok = remove(c.Machines, id, machineID); !ok {
		return g, domain.ErrNotFound{Entity: domain.EntityMachine, ID: id}
	}
	for pi := range c.Projects {
		reports := c.Projects[pi].OnsiteReports
		for ri := range reports {
			for ei := range reports[ri].ServiceEntries {
				if reports[ri].ServiceEntries[ei].MachineID == id {
					reports[ri].ServiceEntries[ei].MachineID = ""
				}
			}
		}
	}
	return out, nil
}
