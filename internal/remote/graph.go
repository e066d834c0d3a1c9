package remote

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"fieldbook/internal/normalize"
	"fieldbook/pkg/domain"
)

type ownerRows struct {
	customers []customerRow
	sites     []siteRow
	contacts  []contactRow
	projects  []projectRow
}

type projectRows struct {
	workOrders     []workOrderRow
	purchaseOrders []purchaseOrderRow
	tasks          []taskRow
	history        []statusHistoryRow
	reports        []onsiteReportRow
}

// Graph fetches the tables and joins them into a normalized graph. Customer
// level tables are read in parallel first; project children are then read
// with an in-filter on the project ids found.
func (c *Client) Graph(ctx context.Context) (domain.Graph, error) {
	owners, err := c.fetchOwners(ctx)
	if err != nil {
		return domain.Graph{}, err
	}
	ids := make([]string, 0, len(owners.projects))
	for _, p := range owners.projects {
		ids = append(ids, p.ID)
	}
	children, err := c.fetchProjectChildren(ctx, ids)
	if err != nil {
		return domain.Graph{}, err
	}
	g := join(owners, children)
	g.Users = assignees(g)
	g, err = normalize.Graph(g, normalize.WithLogger(c.logger))
	if err != nil {
		return domain.Graph{}, fmt.Errorf("remote: %w", err)
	}
	return g, nil
}

// assignees lists the default administrator and every user a task row
// refers to. The table backend keeps no user directory, so an assignee id
// stands in as its own user and survives normalization.
func assignees(g domain.Graph) []domain.User {
	users := []domain.User{domain.DefaultAdmin()}
	for _, cu := range g.Customers {
		for _, p := range cu.Projects {
			for _, t := range p.Tasks {
				users = withAssignee(users, t.AssigneeID)
			}
		}
	}
	return users
}

func withAssignee(users []domain.User, id string) []domain.User {
	id = strings.TrimSpace(id)
	if id == "" {
		return users
	}
	for _, u := range users {
		if u.ID == id {
			return users
		}
	}
	return append(users, domain.User{ID: id, Name: id, Role: domain.RoleEngineer, Active: true})
}

// ListCustomers returns every customer with everything it owns, in display
// order.
func (c *Client) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	g, err := c.Graph(ctx)
	if err != nil {
		return nil, err
	}
	return g.Customers, nil
}

func (c *Client) fetchOwners(ctx context.Context) (ownerRows, error) {
	var out ownerRows
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		out.customers, err = selectRows[customerRow](ctx, c, tableCustomers, nil, "name.asc")
		return err
	})
	eg.Go(func() (err error) {
		out.sites, err = selectRows[siteRow](ctx, c, tableSites, nil, "name.asc")
		return err
	})
	eg.Go(func() (err error) {
		out.contacts, err = selectRows[contactRow](ctx, c, tableContacts, nil, "name.asc")
		return err
	})
	eg.Go(func() (err error) {
		out.projects, err = selectRows[projectRow](ctx, c, tableProjects, nil, "number.asc")
		return err
	})
	if err := eg.Wait(); err != nil {
		return ownerRows{}, err
	}
	return out, nil
}

func (c *Client) fetchProjectChildren(ctx context.Context, projectIDs []string) (projectRows, error) {
	var out projectRows
	if len(projectIDs) == 0 {
		return out, nil
	}
	byProject := filters{inList("project_id", projectIDs)}
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		out.workOrders, err = selectRows[workOrderRow](ctx, c, tableWorkOrders, byProject, "number.asc")
		return err
	})
	eg.Go(func() (err error) {
		out.purchaseOrders, err = selectRows[purchaseOrderRow](ctx, c, tablePurchaseOrders, byProject, "number.asc")
		return err
	})
	eg.Go(func() (err error) {
		out.tasks, err = selectRows[taskRow](ctx, c, tableTasks, byProject, "start_at.asc")
		return err
	})
	eg.Go(func() (err error) {
		out.history, err = selectRows[statusHistoryRow](ctx, c, tableStatusHistory, byProject, "changed_at.asc")
		return err
	})
	eg.Go(func() (err error) {
		out.reports, err = selectRows[onsiteReportRow](ctx, c, tableOnsiteReports, byProject, "report_date.desc")
		return err
	})
	if err := eg.Wait(); err != nil {
		return projectRows{}, err
	}
	return out, nil
}

// join attaches child rows to their parents by foreign key. Rows whose parent
// is missing are dropped.
func join(owners ownerRows, children projectRows) domain.Graph {
	workOrders := map[string][]domain.WorkOrder{}
	for _, r := range children.workOrders {
		workOrders[r.ProjectID] = append(workOrders[r.ProjectID], r.toDomain())
	}
	purchaseOrders := map[string][]domain.PurchaseOrder{}
	for _, r := range children.purchaseOrders {
		purchaseOrders[r.ProjectID] = append(purchaseOrders[r.ProjectID], r.toDomain())
	}
	tasks := map[string][]domain.ProjectTask{}
	for _, r := range children.tasks {
		tasks[r.ProjectID] = append(tasks[r.ProjectID], r.toDomain())
	}
	history := map[string][]domain.StatusHistoryEntry{}
	for _, r := range children.history {
		history[r.ProjectID] = append(history[r.ProjectID], r.toDomain())
	}
	reports := map[string][]domain.OnsiteReport{}
	for _, r := range children.reports {
		reports[r.ProjectID] = append(reports[r.ProjectID], r.toDomain())
	}

	customers := make([]domain.Customer, 0, len(owners.customers))
	index := make(map[string]int, len(owners.customers))
	for _, r := range owners.customers {
		index[r.ID] = len(customers)
		customers = append(customers, r.toDomain())
	}
	for _, r := range owners.sites {
		if i, ok := index[r.CustomerID]; ok {
			customers[i].Sites = append(customers[i].Sites, r.toDomain())
		}
	}
	for _, r := range owners.contacts {
		if i, ok := index[r.CustomerID]; ok {
			customers[i].Contacts = append(customers[i].Contacts, r.toDomain())
		}
	}
	for _, r := range owners.projects {
		i, ok := index[r.CustomerID]
		if !ok {
			continue
		}
		p := r.toDomain()
		p.WorkOrders = workOrders[r.ID]
		p.PurchaseOrders = purchaseOrders[r.ID]
		p.Tasks = tasks[r.ID]
		p.StatusHistory = history[r.ID]
		p.OnsiteReports = reports[r.ID]
		customers[i].Projects = append(customers[i].Projects, p)
	}
	return domain.Graph{Customers: customers}
}
