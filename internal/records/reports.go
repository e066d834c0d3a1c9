package records

import (
	"strings"
	"time"

	"fieldbook/internal/schema"
	"fieldbook/pkg/domain"
)

func optionalDate(field, raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", nil
	}
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return "", domain.Invalid(field, "Dates must look like 2024-03-31.")
	}
	return s, nil
}

func optionalClock(field, raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	t, ok := schema.ParseClock(raw)
	if !ok {
		return "", domain.Invalid(field, "Times must look like 14:30.")
	}
	return t, nil
}

func serviceEntries(c *domain.Customer, in []domain.ServiceEntryInput, env Env) ([]domain.ServiceEntry, error) {
	var out []domain.ServiceEntry
	for _, e := range in {
		machine := strings.TrimSpace(e.MachineID)
		if machine != "" && !c.HasMachine(machine) {
			return nil, domain.Invalid("serviceEntries", "The selected machine does not belong to %s.", c.Name)
		}
		if e.ServiceCount != nil && *e.ServiceCount < 0 {
			return nil, domain.Invalid("serviceEntries", "Service count cannot be negative.")
		}
		entry := domain.ServiceEntry{
			ID:              env.id(),
			MachineID:       machine,
			SerialNumber:    strings.TrimSpace(e.SerialNumber),
			LineReference:   strings.TrimSpace(e.LineReference),
			FirmwareVersion: strings.TrimSpace(e.FirmwareVersion),
			ServiceInfo:     strings.TrimSpace(e.ServiceInfo),
		}
		if e.ServiceCount != nil {
			n := *e.ServiceCount
			entry.ServiceCount = &n
		}
		out = append(out, entry)
	}
	return out, nil
}

// AddOnsiteReport records a site visit against a project. The work summary and
// the name of whoever signed are required.
func AddOnsiteReport(g domain.Graph, projectID string, in domain.OnsiteReportInput, env Env) (domain.Graph, domain.OnsiteReport, error) {
	summary, err := requireText("workSummary", "Work summary", in.WorkSummary)
	if err != nil {
		return g, domain.OnsiteReport{}, err
	}
	signedBy, err := requireText("signedByName", "Signed-by name", in.SignedByName)
	if err != nil {
		return g, domain.OnsiteReport{}, err
	}
	date, err := optionalDate("reportDate", in.ReportDate)
	if err != nil {
		return g, domain.OnsiteReport{}, err
	}
	arrival, err := optionalClock("arrivalTime", in.ArrivalTime)
	if err != nil {
		return g, domain.OnsiteReport{}, err
	}
	departure, err := optionalClock("departureTime", in.DepartureTime)
	if err != nil {
		return g, domain.OnsiteReport{}, err
	}
	image, err := signatureImage(in.SignatureImage)
	if err != nil {
		return g, domain.OnsiteReport{}, err
	}

	out := g.Clone()
	c, p, err := projectAt(&out, projectID)
	if err != nil {
		return g, domain.OnsiteReport{}, err
	}
	entries, err := serviceEntries(c, in.ServiceEntries, env)
	if err != nil {
		return g, domain.OnsiteReport{}, err
	}
	r := domain.OnsiteReport{
		ID:               env.id(),
		ReportDate:       date,
		ArrivalTime:      arrival,
		DepartureTime:    departure,
		EngineerName:     strings.TrimSpace(in.EngineerName),
		SiteAddress:      strings.TrimSpace(in.SiteAddress),
		WorkSummary:      summary,
		MaterialsUsed:    strings.TrimSpace(in.MaterialsUsed),
		AdditionalNotes:  strings.TrimSpace(in.AdditionalNotes),
		SignedByName:     signedBy,
		SignedByPosition: strings.TrimSpace(in.SignedByPosition),
		SignatureImage:   image,
		SignatureStrokes: cleanStrokes(in.SignatureStrokes),
		ServiceEntries:   entries,
		CreatedAt:        env.now(),
	}
	p.OnsiteReports = append(p.OnsiteReports, r)
	domain.SortOnsiteReports(p.OnsiteReports)
	return out, domain.CloneOnsiteReport(r), nil
}

// DeleteOnsiteReport removes a report.
func DeleteOnsiteReport(g domain.Graph, projectID, id string, _ Env) (domain.Graph, error) {
	out := g.Clone()
	_, p, err := projectAt(&out, projectID)
	if err != nil {
		return g, err
	}
	var ok bool
	if p.OnsiteReports, ok = remove(p.OnsiteReports, id, reportID); !ok {
		return g, domain.ErrNotFound{Entity: domain.EntityOnsiteReport, ID: id}
	}
	return out, nil
}
