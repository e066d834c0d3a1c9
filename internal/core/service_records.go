package core

import (
	"context"

	"fieldbook/internal/records"
	"fieldbook/pkg/domain"
)

// CreateCustomer adds a customer.
func (s *Service) CreateCustomer(ctx context.Context, in domain.CustomerInput) (domain.Customer, error) {
	op := operation{name: "create_customer", entity: domain.EntityCustomer, action: ActionCreate}
	return mutate(ctx, s, op, func(g domain.Graph, env records.Env) (domain.Graph, domain.Customer, error) {
		return records.CreateCustomer(g, in, env)
	})
}

// UpdateCustomer replaces a customer's editable fields.
func (s *Service) UpdateCustomer(ctx context.Context, id string, in domain.CustomerInput) (domain.Customer, error) {
	op := operation{name: "update_customer", entity: domain.EntityCustomer, action: ActionUpdate, target: id}
	return mutate(ctx, s, op, func(g domain.Graph, env records.Env) (domain.Graph, domain.Customer, error) {
		return records.UpdateCustomer(g, id, in, env)
	})
}

// DeleteCustomer removes a customer and everything it owns.
func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	op := operation{name: "delete_customer", entity: domain.EntityCustomer, action: ActionDelete, target: id}
	_, err := mutate(ctx, s, op, remove(func(g domain.Graph, env records.Env) (domain.Graph, error) {
		return records.DeleteCustomer(g, id, env)
	}))
	return err
}

// AddSite adds a site to a customer.
func (s *Service) AddSite(ctx context.Context, customerID string, in domain.SiteInput) (domain.Site, error) {
	op := operation{name: "add_site", entity: domain.EntitySite, action: ActionCreate}
	return mutate(ctx, s, op, func(g domain.Graph, env records.Env) (domain.Graph, domain.Site, error) {
		return records.AddSite(g, customerID, in, env)
	})
}

// UpdateSite replaces a site's editable fields.
func (s *Service) UpdateSite(ctx context.Context, customerID, siteID string, in domain.SiteInput) (domain.Site, error) {
	op := operation{name: "update_site", entity: domain.EntitySite, action: ActionUpdate, target: siteID}
	return mutate(ctx, s, op, func(g domain.Graph, env records.Env) (domain.Graph, domain.Site, error) {
		return records.UpdateSite(g, customerID, siteID, in, env)
	})
}

// DeleteSite removes a site and clears references to it.
func (s *Service) DeleteSite(ctx context.Context, customerID, siteID string) error {
	op := operation{name: "delete_site", entity: domain.EntitySite, action: ActionDelete, target: siteID}
	_, err := mutate(ctx, s, op, remove(func(g domain.Graph, env records.Env) (domain.Graph, error) {
		return records.DeleteSite(g, customerID, siteID, env)
	}))
	return err
}

// AddContact adds a contact to a customer.
func (s *Service) AddContact(ctx context.Context, customerID string, in domain.ContactInput) (domain.Contact, error) {
	op := operation{name: "add_contact", entity: domain.EntityContact, action: ActionCreate}
	return mutate(ctx, s, op, func(g domain.Graph, env records.Env) (domain.Graph, domain.Contact, error) {
		return records.AddContact(g, customerID, in, env)
	})
}

// UpdateContact replaces a contact's editable fields.
func (s *Service) UpdateContact(ctx context.Context, customerID, contactID string, in domain.ContactInput) (domain.Contact, error) {
	op := operation{name: "update_contact", entity: domain.EntityContact, action: ActionUpdate, target: contactID}
	return mutate(ctx, s, op, func(g domain.Graph, env records.Env) (domain.Graph, domain.Contact, error) {
		return records.UpdateContact(g, customerID, contactID, in, env)
	})
}

// DeleteContact removes a contact.
func (s *Service) DeleteContact(ctx context.Context, customerID, contactID string) error {
	op := operation{name: "delete_contact", entity: domain.EntityContact, action: ActionDelete, target: contactID}
	_, err := mutate(ctx, s, op, remove(func(g domain.Graph, env records.Env) (domain.Graph, error) {
		return records.DeleteContact(g, customerID, contactID, env)
	}))
	return err
}

// AddSubCustomer adds a sub-customer.
func (s *Service) AddSubCustomer(ctx context.Context, customerID string, in domain.SubCustomerInput) (domain.SubCustomer, error) {
	op := operation{name: "add_sub_customer", entity: domain.EntitySubCustomer, action: ActionCreate}
	return mutate(ctx, s, op, func(g domain.Graph, env records.Env) (domain.Graph, domain.SubCustomer, error) {
		return records.AddSubCustomer(g, customerID, in, env)
	})
}

// DeleteSubCustomer removes a sub-customer.
func (s *Service) DeleteSubCustomer(ctx context.Context, customerID, subCustomerID string) error {
	op := operation{name: "delete_sub_customer", entity: domain.EntitySubCustomer, action: ActionDelete, target: subCustomerID}
	_, err := mutate(ctx, s, op, remove(func(g domain.Graph, env records.Env) (domain.Graph, error) {
		return records.DeleteSubCustomer(g, customerID, subCustomerID, env)
	}))
	return err
}

// AddMachine registers a machine at a customer.
func (s *Service) AddMachine(ctx context.Context, customerID string, in domain.MachineInput) (domain.Machine, error) {
	op := operation{name: "add_machine", entity: domain.EntityMachine, action: ActionCreate}
	return mutate(ctx, s, op, func(g domain.Graph, env records.Env) (domain.Graph, domain.Machine, error) {
		return records.AddMachine(g, customerID, in, env)
	})
}

// DeleteMachine removes a machine and clears service entries pointing at it.
func (s *Service) DeleteMachine(ctx context.Context, customerID, machineID string) error {
	op := operation{name: "delete_machine", entity: domain.EntityMachine, action: ActionDelete, target: machineID}
	_, err := mutate(ctx, s, op, remove(func(g domain.Graph, env records.Env) (domain.Graph, error) {
		return records.DeleteMachine(g, customerID, machineID, env)
	}))
	return err
}

// CreateProject adds an Active project to a customer.
func (s *Service) CreateProject(ctx context.Context, customerID string, in domain.ProjectInput) (domain.Project, error) {
	op := operation{name: "create_project", entity: domain.EntityProject, action: ActionCreate}
	return mutate(ctx, s, op, func(g domain.Graph, env records.Env) (domain.Graph, domain.Project, error) {
		return records.CreateProject(g, customerID, in, env)
	})
}

// UpdateProject patches a project.
func (s *Service) UpdateProject(ctx context.Context, projectID string, in domain.ProjectUpdate) (domain.Project, error) {
	op := operation{name: "update_project", entity: domain.EntityProject, action: ActionUpdate, target: projectID}
	return mutate(ctx, s, op, func(g domain.Graph, env records.Env) (domain.Graph, domain.Project, error) {
		return records.UpdateProject(g, projectID, in, env)
	})
}

// SetProjectStatus moves a project between statuses and appends to its
// history.
func (s *Service) SetProjectStatus(ctx context.Context, projectID string, change domain.StatusChange) (domain.Project, error) {
	op := operation{name: "set_project_status", entity: domain.EntityProject, action: ActionUpdate, target: projectID}
	return mutate(ctx, s, op, func(g domain.Graph, env records.Env) (domain.Graph, domain.Project, error) {
		return records.SetProjectStatus(g, projectID, change, env)
	})
}

// DeleteProject removes a project and everything it owns.
func (s *Service) DeleteProject(ctx context.Context, projectID string) error {
	op := operation{name: "delete_project", entity: domain.EntityProject, action: ActionDelete, target: projectID}
	_, err := mutate(ctx, s, op, remove(func(g domain.Graph, env records.Env) (domain.Graph, error) {
		return records.DeleteProject(g, projectID, env)
	}))
	return err
}

// AddWorkOrder adds a work order to a project.
func (s *Service) AddWorkOrder(ctx context.Context, projectID string, in domain.WorkOrderInput) (domain.WorkOrder, error) {
	op := operation{name: "add_work_order", entity: domain.EntityWorkOrder, action: ActionCreate}
	return mutate(ctx, s, op, func(g domain.Graph, env records.Env) (domain.Graph, domain.WorkOrder, error) {
		return records.AddWorkOrder(g, projectID, in, env)
	})
}

// UpdateWorkOrder replaces a work order's editable fields.
func (s *Service) UpdateWorkOrder(ctx context.Context, projectID, workOrderID string, in domain.WorkOrderInput) (domain.WorkOrder, error) {
	op := operation{name: "update_work_order", entity: domain.EntityWorkOrder, action: ActionUpdate, target: workOrderID}
	return mutate(ctx, s, op, func(g domain.Graph, env records.Env) (domain.Graph, domain.WorkOrder, error) {
		return records.UpdateWorkOrder(g, projectID, workOrderID, in, env)
	})
}

// DeleteWorkOrder removes a work order.
func (s *Service) DeleteWorkOrder(ctx context.Context, projectID, workOrderID string) error {
	op := operation{name: "delete_work_order", entity: domain.EntityWorkOrder, action: ActionDelete, target: workOrderID}
	_, err := mutate(ctx, s, op, remove(func(g domain.Graph, env records.Env) (domain.Graph, error) {
		return records.DeleteWorkOrder(g, projectID, workOrderID, env)
	}))
	return err
}

// AddPurchaseOrder adds a purchase order to a project.
func (s *Service) AddPurchaseOrder(ctx context.Context, projectID string, in domain.PurchaseOrderInput) (domain.PurchaseOrder, error) {
	op := operation{name: "add_purchase_order", entity: domain.EntityPurchaseOrder, action: ActionCreate}
	return mutate(ctx, s, op, func(g domain.Graph, env records.Env) (domain.Graph, domain.PurchaseOrder, error) {
		return records.AddPurchaseOrder(g, projectID, in, env)
	})
}

// DeletePurchaseOrder removes a purchase order.
func (s *Service) DeletePurchaseOrder(ctx context.Context, projectID, purchaseOrderID string) error {
	op := operation{name: "delete_purchase_order", entity: domain.EntityPurchaseOrder, action: ActionDelete, target: purchaseOrderID}
	_, err := mutate(ctx, s, op, remove(func(g domain.Graph, env records.Env) (domain.Graph, error) {
		return records.DeletePurchaseOrder(g, projectID, purchaseOrderID, env)
	}))
	return err
}

// AddTask schedules a task on a project.
func (s *Service) AddTask(ctx context.Context, projectID string, in domain.TaskInput) (domain.ProjectTask, error) {
	op := operation{name: "add_task", entity: domain.EntityTask, action: ActionCreate}
	return mutate(ctx, s, op, func(g domain.Graph, env records.Env) (domain.Graph, domain.ProjectTask, error) {
		return records.AddTask(g, projectID, in, env)
	})
}

// UpdateTask replaces a task's editable fields.
func (s *Service) UpdateTask(ctx context.Context, projectID, taskID string, in domain.TaskInput) (domain.ProjectTask, error) {
	op := operation{name: "update_task", entity: domain.EntityTask, action: ActionUpdate, target: taskID}
	return mutate(ctx, s, op, func(g domain.Graph, env records.Env) (domain.Graph, domain.ProjectTask, error) {
		return records.UpdateTask(g, projectID, taskID, in, env)
	})
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(ctx context.Context, projectID, taskID string) error {
	op := operation{name: "delete_task", entity: domain.EntityTask, action: ActionDelete, target: taskID}
	_, err := mutate(ctx, s, op, remove(func(g domain.Graph, env records.Env) (domain.Graph, error) {
		return records.DeleteTask(g, projectID, taskID, env)
	}))
	return err
}

// AddDocument files a document reference under a project category.
func (s *Service) AddDocument(ctx context.Context, projectID string, in domain.DocumentInput) (domain.Document, error) {
	op := operation{name: "add_document", entity: domain.EntityDocument, action: ActionCreate}
	return mutate(ctx, s, op, func(g domain.Graph, env records.Env) (domain.Graph, domain.Document, error) {
		return records.AddDocument(g, projectID, in, env)
	})
}

// DeleteDocument removes a document reference.
func (s *Service) DeleteDocument(ctx context.Context, projectID, documentID string) error {
	op := operation{name: "delete_document", entity: domain.EntityDocument, action: ActionDelete, target: documentID}
	_, err := mutate(ctx, s, op, remove(func(g domain.Graph, env records.Env) (domain.Graph, error) {
		return records.DeleteDocument(g, projectID, documentID, env)
	}))
	return err
}

// SetSignoff records the customer's sign-off on a project.
func (s *Service) SetSignoff(ctx context.Context, projectID string, in domain.SignoffInput) (domain.CustomerSignoff, error) {
	op := operation{name: "set_signoff", entity: domain.EntityProject, action: ActionUpdate, target: projectID}
	return mutate(ctx, s, op, func(g domain.Graph, env records.Env) (domain.Graph, domain.CustomerSignoff, error) {
		return records.SetSignoff(g, projectID, in, env)
	})
}

// ClearSignoff removes a project's sign-off.
func (s *Service) ClearSignoff(ctx context.Context, projectID string) error {
	op := operation{name: "clear_signoff", entity: domain.EntityProject, action: ActionUpdate, target: projectID}
	_, err := mutate(ctx, s, op, remove(func(g domain.Graph, env records.Env) (domain.Graph, error) {
		return records.ClearSignoff(g, projectID, env)
	}))
	return err
}

// AddOnsiteReport records a site visit.
func (s *Service) AddOnsiteReport(ctx context.Context, projectID string, in domain.OnsiteReportInput) (domain.OnsiteReport, error) {
	op := operation{name: "add_onsite_report", entity: domain.EntityOnsiteReport, action: ActionCreate}
	return mutate(ctx, s, op, func(g domain.Graph, env records.Env) (domain.Graph, domain.OnsiteReport, error) {
		return records.AddOnsiteReport(g, projectID, in, env)
	})
}

// DeleteOnsiteReport removes a report.
func (s *Service) DeleteOnsiteReport(ctx context.Context, projectID, reportID string) error {
	op := operation{name: "delete_onsite_report", entity: domain.EntityOnsiteReport, action: ActionDelete, target: reportID}
	_, err := mutate(ctx, s, op, remove(func(g domain.Graph, env records.Env) (domain.Graph, error) {
		return records.DeleteOnsiteReport(g, projectID, reportID, env)
	}))
	return err
}

// CreateUser adds a user.
func (s *Service) CreateUser(ctx context.Context, in domain.UserInput) (domain.User, error) {
	op := operation{name: "create_user", entity: domain.EntityUser, action: ActionCreate}
	return mutate(ctx, s, op, func(g domain.Graph, env records.Env) (domain.Graph, domain.User, error) {
		return records.CreateUser(g, in, env)
	})
}

// DeleteUser removes a user and unassigns their tasks.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	op := operation{name: "delete_user", entity: domain.EntityUser, action: ActionDelete, target: id}
	_, err := mutate(ctx, s, op, remove(func(g domain.Graph, env records.Env) (domain.Graph, error) {
		return records.DeleteUser(g, id, env)
	}))
	return err
}

// UpdateBusinessSettings replaces the company-wide settings.
func (s *Service) UpdateBusinessSettings(ctx context.Context, in domain.BusinessSettings) (domain.BusinessSettings, error) {
	op := operation{name: "update_business_settings", action: ActionUpdate}
	return mutate(ctx, s, op, func(g domain.Graph, env records.Env) (domain.Graph, domain.BusinessSettings, error) {
		return records.UpdateBusinessSettings(g, in, env)
	})
}
