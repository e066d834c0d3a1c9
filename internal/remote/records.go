package remote

import (
	"context"

	"fieldbook/internal/records"
	"fieldbook/pkg/domain"
)

var _ domain.Records = (*Client)(nil)

// CreateCustomer validates against the current tables and inserts the row.
func (c *Client) CreateCustomer(ctx context.Context, in domain.CustomerInput) (domain.Customer, error) {
	g, err := c.Graph(ctx)
	if err != nil {
		return domain.Customer{}, err
	}
	_, created, err := records.CreateCustomer(g, in, c.env)
	if err != nil {
		return domain.Customer{}, err
	}
	row, err := insertRow(ctx, c, tableCustomers, customerToRow(created))
	if err != nil {
		return domain.Customer{}, err
	}
	return row.toDomain(), nil
}

// UpdateCustomer replaces a customer's editable columns.
func (c *Client) UpdateCustomer(ctx context.Context, id string, in domain.CustomerInput) (domain.Customer, error) {
	g, err := c.Graph(ctx)
	if err != nil {
		return domain.Customer{}, err
	}
	_, updated, err := records.UpdateCustomer(g, id, in, c.env)
	if err != nil {
		return domain.Customer{}, err
	}
	if err := c.patchRows(ctx, tableCustomers, filters{eq("id", id)}, customerPatch(updated)); err != nil {
		return domain.Customer{}, err
	}
	return updated, nil
}

// DeleteCustomer removes the customer row and every row it owns, children
// first. The backend has no cascading deletes.
func (c *Client) DeleteCustomer(ctx context.Context, id string) error {
	g, err := c.Graph(ctx)
	if err != nil {
		return err
	}
	if _, err := records.DeleteCustomer(g, id, c.env); err != nil {
		return err
	}
	customer, _ := g.FindCustomer(id)
	projectIDs := make([]string, 0, len(customer.Projects))
	for _, p := range customer.Projects {
		projectIDs = append(projectIDs, p.ID)
	}
	if len(projectIDs) > 0 {
		byProject := filters{inList("project_id", projectIDs)}
		for _, table := range projectChildTables {
			if err := c.deleteRows(ctx, table, byProject); err != nil {
				return err
			}
		}
	}
	byCustomer := filters{eq("customer_id", id)}
	for _, table := range []string{tableProjects, tableContacts, tableSites} {
		if err := c.deleteRows(ctx, table, byCustomer); err != nil {
			return err
		}
	}
	return c.deleteRows(ctx, tableCustomers, filters{eq("id", id)})
}

// AddSite inserts a site row.
func (c *Client) AddSite(ctx context.Context, customerID string, in domain.SiteInput) (domain.Site, error) {
	g, err := c.Graph(ctx)
	if err != nil {
		return domain.Site{}, err
	}
	_, site, err := records.AddSite(g, customerID, in, c.env)
	if err != nil {
		return domain.Site{}, err
	}
	row, err := insertRow(ctx, c, tableSites, siteToRow(customerID, site))
	if err != nil {
		return domain.Site{}, err
	}
	return row.toDomain(), nil
}

// DeleteSite clears project and contact references to the site, then removes
// it.
func (c *Client) DeleteSite(ctx context.Context, customerID, siteID string) error {
	g, err := c.Graph(ctx)
	if err != nil {
		return err
	}
	if _, err := records.DeleteSite(g, customerID, siteID, c.env); err != nil {
		return err
	}
	referencing := filters{eq("customer_id", customerID), eq("site_id", siteID)}
	for _, table := range []string{tableProjects, tableContacts} {
		if err := c.patchRows(ctx, table, referencing, map[string]any{"site_id": nil}); err != nil {
			return err
		}
	}
	return c.deleteRows(ctx, tableSites, filters{eq("id", siteID), eq("customer_id", customerID)})
}

// AddContact inserts a contact row.
func (c *Client) AddContact(ctx context.Context, customerID string, in domain.ContactInput) (domain.Contact, error) {
	g, err := c.Graph(ctx)
	if err != nil {
		return domain.Contact{}, err
	}
	_, contact, err := records.AddContact(g, customerID, in, c.env)
	if err != nil {
		return domain.Contact{}, err
	}
	row, err := insertRow(ctx, c, tableContacts, contactToRow(customerID, contact))
	if err != nil {
		return domain.Contact{}, err
	}
	return row.toDomain(), nil
}

// DeleteContact removes a contact row.
func (c *Client) DeleteContact(ctx context.Context, customerID, contactID string) error {
	g, err := c.Graph(ctx)
	if err != nil {
		return err
	}
	if _, err := records.DeleteContact(g, customerID, contactID, c.env); err != nil {
		return err
	}
	return c.deleteRows(ctx, tableContacts, filters{eq("id", contactID), eq("customer_id", customerID)})
}

// CreateProject inserts the project row and its initial status history row.
func (c *Client) CreateProject(ctx context.Context, customerID string, in domain.ProjectInput) (domain.Project, error) {
	g, err := c.Graph(ctx)
	if err != nil {
		return domain.Project{}, err
	}
	_, project, err := records.CreateProject(g, customerID, in, c.env)
	if err != nil {
		return domain.Project{}, err
	}
	row, err := insertRow(ctx, c, tableProjects, projectToRow(customerID, project))
	if err != nil {
		return domain.Project{}, err
	}
	created := row.toDomain()
	for _, h := range project.StatusHistory {
		stored, err := insertRow(ctx, c, tableStatusHistory, statusHistoryToRow(created.ID, h))
		if err != nil {
			return domain.Project{}, err
		}
		created.StatusHistory = append(created.StatusHistory, stored.toDomain())
	}
	return created, nil
}

// UpdateProject patches the number, note and site columns.
func (c *Client) UpdateProject(ctx context.Context, projectID string, in domain.ProjectUpdate) (domain.Project, error) {
	g, err := c.Graph(ctx)
	if err != nil {
		return domain.Project{}, err
	}
	_, updated, err := records.UpdateProject(g, projectID, in, c.env)
	if err != nil {
		return domain.Project{}, err
	}
	fields := map[string]any{
		"number":  updated.Number,
		"note":    nullable(updated.Note),
		"site_id": nullable(updated.SiteID),
	}
	if err := c.patchRows(ctx, tableProjects, filters{eq("id", projectID)}, fields); err != nil {
		return domain.Project{}, err
	}
	return updated, nil
}

// SetProjectStatus patches the status columns and inserts the new history
// row. Setting the current status again writes nothing.
func (c *Client) SetProjectStatus(ctx context.Context, projectID string, change domain.StatusChange) (domain.Project, error) {
	g, err := c.Graph(ctx)
	if err != nil {
		return domain.Project{}, err
	}
	before, _, _ := g.FindProject(projectID)
	_, updated, err := records.SetProjectStatus(g, projectID, change, c.env)
	if err != nil {
		return domain.Project{}, err
	}
	known := make(map[string]bool, len(before.StatusHistory))
	for _, h := range before.StatusHistory {
		known[h.ID] = true
	}
	var added []domain.StatusHistoryEntry
	for _, h := range updated.StatusHistory {
		if !known[h.ID] {
			added = append(added, h)
		}
	}
	if len(added) == 0 {
		return updated, nil
	}
	fields := map[string]any{
		"status":            updated.Status,
		"active_sub_status": nullable(string(updated.ActiveSubStatus)),
	}
	if err := c.patchRows(ctx, tableProjects, filters{eq("id", projectID)}, fields); err != nil {
		return domain.Project{}, err
	}
	for _, h := range added {
		if _, err := insertRow(ctx, c, tableStatusHistory, statusHistoryToRow(projectID, h)); err != nil {
			return domain.Project{}, err
		}
	}
	return updated, nil
}

// DeleteProject removes the project's child rows and then the project.
func (c *Client) DeleteProject(ctx context.Context, projectID string) error {
	g, err := c.Graph(ctx)
	if err != nil {
		return err
	}
	if _, err := records.DeleteProject(g, projectID, c.env); err != nil {
		return err
	}
	byProject := filters{eq("project_id", projectID)}
	for _, table := range projectChildTables {
		if err := c.deleteRows(ctx, table, byProject); err != nil {
			return err
		}
	}
	return c.deleteRows(ctx, tableProjects, filters{eq("id", projectID)})
}

// AddWorkOrder inserts a work order row.
func (c *Client) AddWorkOrder(ctx context.Context, projectID string, in domain.WorkOrderInput) (domain.WorkOrder, error) {
	g, err := c.Graph(ctx)
	if err != nil {
		return domain.WorkOrder{}, err
	}
	_, wo, err := records.AddWorkOrder(g, projectID, in, c.env)
	if err != nil {
		return domain.WorkOrder{}, err
	}
	row, err := insertRow(ctx, c, tableWorkOrders, workOrderToRow(projectID, wo))
	if err != nil {
		return domain.WorkOrder{}, err
	}
	return row.toDomain(), nil
}

// DeleteWorkOrder removes a work order row.
func (c *Client) DeleteWorkOrder(ctx context.Context, projectID, workOrderID string) error {
	return c.deleteChild(ctx, projectID, workOrderID, tableWorkOrders, records.DeleteWorkOrder)
}

// AddPurchaseOrder inserts a purchase order row.
func (c *Client) AddPurchaseOrder(ctx context.Context, projectID string, in domain.PurchaseOrderInput) (domain.PurchaseOrder, error) {
	g, err := c.Graph(ctx)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	_, po, err := records.AddPurchaseOrder(g, projectID, in, c.env)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	row, err := insertRow(ctx, c, tablePurchaseOrders, purchaseOrderToRow(projectID, po))
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	return row.toDomain(), nil
}

// DeletePurchaseOrder removes a purchase order row.
func (c *Client) DeletePurchaseOrder(ctx context.Context, projectID, purchaseOrderID string) error {
	return c.deleteChild(ctx, projectID, purchaseOrderID, tablePurchaseOrders, records.DeletePurchaseOrder)
}

// AddTask inserts a task row. Any assignee id is accepted since the backend
// holds no users to check it against.
func (c *Client) AddTask(ctx context.Context, projectID string, in domain.TaskInput) (domain.ProjectTask, error) {
	g, err := c.Graph(ctx)
	if err != nil {
		return domain.ProjectTask{}, err
	}
	g.Users = withAssignee(g.Users, in.AssigneeID)
	_, task, err := records.AddTask(g, projectID, in, c.env)
	if err != nil {
		return domain.ProjectTask{}, err
	}
	row, err := insertRow(ctx, c, tableTasks, taskToRow(projectID, task))
	if err != nil {
		return domain.ProjectTask{}, err
	}
	return row.toDomain(), nil
}

// DeleteTask removes a task row.
func (c *Client) DeleteTask(ctx context.Context, projectID, taskID string) error {
	return c.deleteChild(ctx, projectID, taskID, tableTasks, records.DeleteTask)
}

// AddOnsiteReport inserts a report row. Service entries travel inline.
func (c *Client) AddOnsiteReport(ctx context.Context, projectID string, in domain.OnsiteReportInput) (domain.OnsiteReport, error) {
	g, err := c.Graph(ctx)
	if err != nil {
		return domain.OnsiteReport{}, err
	}
	_, report, err := records.AddOnsiteReport(g, projectID, in, c.env)
	if err != nil {
		return domain.OnsiteReport{}, err
	}
	row, err := insertRow(ctx, c, tableOnsiteReports, onsiteReportToRow(projectID, report))
	if err != nil {
		return domain.OnsiteReport{}, err
	}
	return row.toDomain(), nil
}

// DeleteOnsiteReport removes a report row.
func (c *Client) DeleteOnsiteReport(ctx context.Context, projectID, reportID string) error {
	return c.deleteChild(ctx, projectID, reportID, tableOnsiteReports, records.DeleteOnsiteReport)
}

type childDeleter func(domain.Graph, string, string, records.Env) (domain.Graph, error)

func (c *Client) deleteChild(ctx context.Context, projectID, id, table string, check childDeleter) error {
	g, err := c.Graph(ctx)
	if err != nil {
		return err
	}
	if _, err := check(g, projectID, id, c.env); err != nil {
		return err
	}
	return c.deleteRows(ctx, table, filters{eq("id", id), eq("project_id", projectID)})
}
