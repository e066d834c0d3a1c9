package records

import (
	"strings"

	"fieldbook/pkg/domain"
)

func parseWorkOrderType(raw domain.WorkOrderType) (domain.WorkOrderType, error) {
	s := strings.TrimSpace(string(raw))
	switch {
	case s == "":
		return domain.WorkOrderBuild, nil
	case strings.EqualFold(s, string(domain.WorkOrderBuild)):
		return domain.WorkOrderBuild, nil
	case strings.EqualFold(s, string(domain.WorkOrderOnsite)):
		return domain.WorkOrderOnsite, nil
	}
	return "", domain.Invalid("type", "Work order type must be Build or Onsite.")
}

func workOrderNumber(raw string, g domain.Graph, exceptID string) (string, error) {
	if _, err := requireText("number", "Work order number", raw); err != nil {
		return "", err
	}
	number := domain.CanonicalWorkOrderNumber(raw)
	if g.WorkOrderNumberTaken(number, exceptID) {
		return "", domain.Invalid("number", "Work order number %s is already in use.", number)
	}
	return number, nil
}

// AddWorkOrder adds a work order to a project. Numbers gain the "WO" prefix
// and must be unique across the whole graph.
func AddWorkOrder(g domain.Graph, projectID string, in domain.WorkOrderInput, env Env) (domain.Graph, domain.WorkOrder, error) {
	number, err := workOrderNumber(in.Number, g, "")
	if err != nil {
		return g, domain.WorkOrder{}, err
	}
	typ, err := parseWorkOrderType(in.Type)
	if err != nil {
		return g, domain.WorkOrder{}, err
	}
	out := g.Clone()
	_, p, err := projectAt(&out, projectID)
	if err != nil {
		return g, domain.WorkOrder{}, err
	}
	wo := domain.WorkOrder{
		ID:        env.id(),
		Number:    number,
		Type:      typ,
		Note:      strings.TrimSpace(in.Note),
		CreatedAt: env.now(),
	}
	p.WorkOrders = append(p.WorkOrders, wo)
	domain.SortWorkOrders(p.WorkOrders)
	return out, wo, nil
}

// UpdateWorkOrder replaces the number, type and note of a work order.
func UpdateWorkOrder(g domain.Graph, projectID, id string, in domain.WorkOrderInput, _ Env) (domain.Graph, domain.WorkOrder, error) {
	out := g.Clone()
	_, p, err := projectAt(&out, projectID)
	if err != nil {
		return g, domain.WorkOrder{}, err
	}
	i := domain.IndexByID(p.WorkOrders, id, workOrderID)
	if i < 0 {
		return g, domain.WorkOrder{}, domain.ErrNotFound{Entity: domain.EntityWorkOrder, ID: id}
	}
	number, err := workOrderNumber(in.Number, g, id)
	if err != nil {
		return g, domain.WorkOrder{}, err
	}
	typ, err := parseWorkOrderType(in.Type)
	if err != nil {
		return g, domain.WorkOrder{}, err
	}
	wo := &p.WorkOrders[i]
	wo.Number = number
	wo.Type = typ
	wo.Note = strings.TrimSpace(in.Note)
	updated := *wo
	domain.SortWorkOrders(p.WorkOrders)
	return out, updated, nil
}

// DeleteWorkOrder removes a work order.
func DeleteWorkOrder(g domain.Graph, projectID, id string, _ Env) (domain.Graph, error) {
	out := g.Clone()
	_, p, err := projectAt(&out, projectID)
	if err != nil {
		return g, err
	}
	var ok bool
	if p.WorkOrders, ok = remove(p.WorkOrders, id, workOrderID); !ok {
		return g, domain.ErrNotFound{Entity: domain.EntityWorkOrder, ID: id}
	}
	return out, nil
}

// AddPurchaseOrder adds a customer purchase order to a project. Numbers are
// kept as issued apart from trimming and must be unique across the graph.
func AddPurchaseOrder(g domain.Graph, projectID string, in domain.PurchaseOrderInput, env Env) (domain.Graph, domain.PurchaseOrder, error) {
	number, err := requireText("number", "Purchase order number", in.Number)
	if err != nil {
		return g, domain.PurchaseOrder{}, err
	}
	number = domain.CanonicalPurchaseOrderNumber(number)
	if g.PurchaseOrderNumberTaken(number, "") {
		return g, domain.PurchaseOrder{}, domain.Invalid("number", "Purchase order number %s is already in use.", number)
	}
	out := g.Clone()
	_, p, err := projectAt(&out, projectID)
	if err != nil {
		return g, domain.PurchaseOrder{}, err
	}
	po := domain.PurchaseOrder{
		ID:        env.id(),
		Number:    number,
		Note:      strings.TrimSpace(in.Note),
		CreatedAt: env.now(),
	}
	p.PurchaseOrders = append(p.PurchaseOrders, po)
	domain.SortPurchaseOrders(p.PurchaseOrders)
	return out, po, nil
}

// DeletePurchaseOrder removes a purchase order.
func DeletePurchaseOrder(g domain.Graph, projectID, id string, _ Env) (domain.Graph, error) {
	out := g.Clone()
	_, p, err := projectAt(&out, projectID)
	if err != nil {
		return g, err
	}
	var ok bool
	if p.PurchaseOrders, ok = remove(p.PurchaseOrders, id, purchaseOrderID); !ok {
		return g, domain.ErrNotFound{Entity: domain.EntityPurchaseOrder, ID: id}
	}
	return out, nil
}
