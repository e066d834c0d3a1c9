package records

import (
	"math"
	"strings"

	"fieldbook/pkg/domain"
)

func projectNumber(raw string, g domain.Graph, exceptID string) (string, error) {
	if _, err := requireText("number", "Project number", raw); err != nil {
		return "", err
	}
	number := domain.CanonicalProjectNumber(raw)
	if g.ProjectNumberTaken(number, exceptID) {
		return "", domain.Invalid("number", "Project number %s is already in use.", number)
	}
	return number, nil
}

func parseSubStatus(raw domain.ActiveSubStatus) (domain.ActiveSubStatus, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return domain.DefaultActiveSubStatus, nil
	}
	for _, known := range domain.ActiveSubStatuses {
		if strings.EqualFold(s, string(known)) {
			return known, nil
		}
	}
	return "", domain.Invalid("activeSubStatus", "%q is not a recognised project stage.", s)
}

func parseStatus(raw domain.ProjectStatus) (domain.ProjectStatus, error) {
	s := strings.TrimSpace(string(raw))
	for _, known := range []domain.ProjectStatus{domain.ProjectActive, domain.ProjectComplete} {
		if strings.EqualFold(s, string(known)) {
			return known, nil
		}
	}
	return "", domain.Invalid("status", "Status must be Active or Complete.")
}

// CreateProject opens a project under a customer. Numbers gain the "P" prefix
// and must be unique across every customer. The project starts Active with
// one status history entry.
func CreateProject(g domain.Graph, customerID string, in domain.ProjectInput, env Env) (domain.Graph, domain.Project, error) {
	number, err := projectNumber(in.Number, g, "")
	if err != nil {
		return g, domain.Project{}, err
	}
	sub, err := parseSubStatus(in.ActiveSubStatus)
	if err != nil {
		return g, domain.Project{}, err
	}
	out := g.Clone()
	c, err := customerAt(&out, customerID)
	if err != nil {
		return g, domain.Project{}, err
	}
	site, err := checkSite(c, in.SiteID)
	if err != nil {
		return g, domain.Project{}, err
	}
	now := env.now()
	p := domain.Project{
		ID:              env.id(),
		Number:          number,
		Status:          domain.ProjectActive,
		ActiveSubStatus: sub,
		Note:            strings.TrimSpace(in.Note),
		SiteID:          site,
		CreatedAt:       now,
	}
	p.StatusHistory = []domain.StatusHistoryEntry{{
		ID:              env.id(),
		Status:          p.Status,
		ActiveSubStatus: p.ActiveSubStatus,
		ChangedAt:       now,
	}}
	c.Projects = append(c.Projects, p)
	domain.SortProjects(c.Projects)
	return out, domain.CloneProject(p), nil
}

// UpdateProject patches the number, note or site of a project.
func UpdateProject(g domain.Graph, id string, in domain.ProjectUpdate, _ Env) (domain.Graph, domain.Project, error) {
	out := g.Clone()
	c, p, err := projectAt(&out, id)
	if err != nil {
		return g, domain.Project{}, err
	}
	if in.Number != nil {
		number, err := projectNumber(*in.Number, g, id)
		if err != nil {
			return g, domain.Project{}, err
		}
		p.Number = number
	}
	if in.Note != nil {
		p.Note = strings.TrimSpace(*in.Note)
	}
	if in.SiteID != nil {
		site, err := checkSite(c, *in.SiteID)
		if err != nil {
			return g, domain.Project{}, err
		}
		p.SiteID = site
	}
	updated := domain.CloneProject(*p)
	domain.SortProjects(c.Projects)
	return out, updated, nil
}

// SetProjectStatus moves a project between Active and Complete, or between
// stages of Active, and appends to the status history. Completing a project
// clears its stage; reactivating it without a stage restores the default.
func SetProjectStatus(g domain.Graph, id string, change domain.StatusChange, env Env) (domain.Graph, domain.Project, error) {
	status, err := parseStatus(change.Status)
	if err != nil {
		return g, domain.Project{}, err
	}
	var sub domain.ActiveSubStatus
	if status == domain.ProjectActive {
		if sub, err = parseSubStatus(change.ActiveSubStatus); err != nil {
			return g, domain.Project{}, err
		}
	}
	out := g.Clone()
	_, p, err := projectAt(&out, id)
	if err != nil {
		return g, domain.Project{}, err
	}
	if p.Status == status && p.ActiveSubStatus == sub {
		return g, domain.CloneProject(*p), nil
	}
	p.Status = status
	p.ActiveSubStatus = sub
	p.StatusHistory = append(p.StatusHistory, domain.StatusHistoryEntry{
		ID:              env.id(),
		Status:          status,
		ActiveSubStatus: sub,
		ChangedAt:       env.now(),
		ChangedBy:       strings.TrimSpace(change.ChangedBy),
		Note:            strings.TrimSpace(change.Note),
	})
	return out, domain.CloneProject(*p), nil
}

// DeleteProject removes a project with its orders, tasks, documents and
// reports.
func DeleteProject(g domain.Graph, id string, _ Env) (domain.Graph, error) {
	out := g.Clone()
	c, _, err := projectAt(&out, id)
	if err != nil {
		return g, err
	}
	c.Projects, _ = remove(c.Projects, id, func(p domain.Project) string { return p.ID })
	return out, nil
}

func parseCategory(raw domain.DocumentCategory) (domain.DocumentCategory, error) {
	s := strings.TrimSpace(string(raw))
	for _, known := range domain.DocumentCategories {
		if strings.EqualFold(s, string(known)) {
			return known, nil
		}
	}
	return "", domain.Invalid("category", "%q is not a document category.", s)
}

// AddDocument files a document reference under a category of a project.
func AddDocument(g domain.Graph, projectID string, in domain.DocumentInput, env Env) (domain.Graph, domain.Document, error) {
	cat, err := parseCategory(in.Category)
	if err != nil {
		return g, domain.Document{}, err
	}
	label, err := requireText("label", "Document label", in.Label)
	if err != nil {
		return g, domain.Document{}, err
	}
	out := g.Clone()
	_, p, err := projectAt(&out, projectID)
	if err != nil {
		return g, domain.Document{}, err
	}
	d := domain.Document{
		ID:         env.id(),
		Label:      label,
		FileName:   strings.TrimSpace(in.FileName),
		URL:        strings.TrimSpace(in.URL),
		UploadedAt: env.now(),
	}
	if p.Documents == nil {
		p.Documents = make(map[domain.DocumentCategory][]domain.Document)
	}
	p.Documents[cat] = append(p.Documents[cat], d)
	domain.SortDocuments(p.Documents[cat])
	return out, d, nil
}

// DeleteDocument removes a document from whichever category holds it.
func DeleteDocument(g domain.Graph, projectID, id string, _ Env) (domain.Graph, error) {
	out := g.Clone()
	_, p, err := projectAt(&out, projectID)
	if err != nil {
		return g, err
	}
	for cat, docs := range p.Documents {
		rest, ok := remove(docs, id, documentID)
		if !ok {
			continue
		}
		if rest == nil {
			delete(p.Documents, cat)
		} else {
			p.Documents[cat] = rest
		}
		if len(p.Documents) == 0 {
			p.Documents = nil
		}
		return out, nil
	}
	return g, domain.ErrNotFound{Entity: domain.EntityDocument, ID: id}
}

// cleanStrokes drops non-finite points and strokes left empty.
func cleanStrokes(in []domain.Stroke) []domain.Stroke {
	var out []domain.Stroke
	for _, s := range in {
		var pts domain.Stroke
		for _, pt := range s {
			if finite(pt.X) && finite(pt.Y) {
				pts = append(pts, pt)
			}
		}
		if len(pts) > 0 {
			out = append(out, pts)
		}
	}
	return out
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func signatureImage(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.HasPrefix(s, "data:image/") {
		return s, nil
	}
	return "", domain.Invalid("signatureImage", "Signature must be an inline image.")
}

// SetSignoff records the customer's acceptance of a project, replacing any
// earlier sign-off.
func SetSignoff(g domain.Graph, projectID string, in domain.SignoffInput, env Env) (domain.Graph, domain.CustomerSignoff, error) {
	signedBy, err := requireText("signedBy", "Signed-by name", in.SignedBy)
	if err != nil {
		return g, domain.CustomerSignoff{}, err
	}
	image, err := signatureImage(in.SignatureImage)
	if err != nil {
		return g, domain.CustomerSignoff{}, err
	}
	out := g.Clone()
	_, p, err := projectAt(&out, projectID)
	if err != nil {
		return g, domain.CustomerSignoff{}, err
	}
	s := domain.CustomerSignoff{
		SignedBy:         signedBy,
		Position:         strings.TrimSpace(in.Position),
		SignedAt:         env.now(),
		SignatureImage:   image,
		SignatureStrokes: cleanStrokes(in.SignatureStrokes),
	}
	p.CustomerSignoff = &s
	return out, *domain.CloneProject(*p).CustomerSignoff, nil
}

// ClearSignoff removes the sign-off of a project, if any.
func ClearSignoff(g domain.Graph, projectID string, _ Env) (domain.Graph, error) {
	out := g.Clone()
	_, p, err := projectAt(&out, projectID)
	if err != nil {
		return g, err
	}
	p.CustomerSignoff = nil
	return out, nil
}
