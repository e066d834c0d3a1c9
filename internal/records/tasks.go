package records

import (
	"strings"

	"fieldbook/internal/schema"
	"fieldbook/pkg/domain"
)

func parseTaskStatus(raw domain.TaskStatus) (domain.TaskStatus, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return domain.TaskNotStarted, nil
	}
	for _, known := range []domain.TaskStatus{domain.TaskNotStarted, domain.TaskInProgress, domain.TaskBlocked, domain.TaskDone} {
		if strings.EqualFold(s, string(known)) {
			return known, nil
		}
	}
	return "", domain.Invalid("status", "%q is not a task status.", s)
}

func taskFields(g domain.Graph, in domain.TaskInput) (domain.ProjectTask, error) {
	name, err := requireText("name", "Task name", in.Name)
	if err != nil {
		return domain.ProjectTask{}, err
	}
	status, err := parseTaskStatus(in.Status)
	if err != nil {
		return domain.ProjectTask{}, err
	}
	if !in.StartAt.IsZero() && !schema.InYearRange(in.StartAt) {
		return domain.ProjectTask{}, domain.Invalid("startAt", "The start must fall between years 0 and 9999.")
	}
	if !in.EndAt.IsZero() && !schema.InYearRange(in.EndAt) {
		return domain.ProjectTask{}, domain.Invalid("endAt", "The end must fall between years 0 and 9999.")
	}
	assignee := strings.TrimSpace(in.AssigneeID)
	if assignee != "" && g.UserIndex(assignee) < 0 {
		return domain.ProjectTask{}, domain.Invalid("assigneeId", "The selected assignee no longer exists.")
	}
	t := domain.ProjectTask{
		Name:       name,
		Status:     status,
		StartAt:    in.StartAt.UTC(),
		EndAt:      in.EndAt.UTC(),
		AssigneeID: assignee,
		Notes:      strings.TrimSpace(in.Notes),
	}
	if in.StartAt.IsZero() {
		t.StartAt = in.StartAt
	}
	if in.EndAt.IsZero() {
		t.EndAt = in.EndAt
	}
	if !t.StartAt.IsZero() && !t.EndAt.IsZero() && t.EndAt.Before(t.StartAt) {
		t.EndAt = t.StartAt
	}
	return t, nil
}

// AddTask schedules a task on a project. An end before the start is clamped
// to the start.
func AddTask(g domain.Graph, projectID string, in domain.TaskInput, env Env) (domain.Graph, domain.ProjectTask, error) {
	t, err := taskFields(g, in)
	if err != nil {
		return g, domain.ProjectTask{}, err
	}
	out := g.Clone()
	_, p, err := projectAt(&out, projectID)
	if err != nil {
		return g, domain.ProjectTask{}, err
	}
	t.ID = env.id()
	p.Tasks = append(p.Tasks, t)
	domain.SortTasks(p.Tasks)
	return out, t, nil
}

// UpdateTask replaces the editable fields of a task.
func UpdateTask(g domain.Graph, projectID, id string, in domain.TaskInput, _ Env) (domain.Graph, domain.ProjectTask, error) {
	out := g.Clone()
	_, p, err := projectAt(&out, projectID)
	if err != nil {
		return g, domain.ProjectTask{}, err
	}
	i := domain.IndexByID(p.Tasks, id, taskID)
	if i < 0 {
		return g, domain.ProjectTask{}, domain.ErrNotFound{Entity: domain.EntityTask, ID: id}
	}
	t, err := taskFields(g, in)
	if err != nil {
		return g, domain.ProjectTask{}, err
	}
	t.ID = id
	p.Tasks[i] = t
	domain.SortTasks(p.Tasks)
	return out, t, nil
}

// DeleteTask removes a task.
func DeleteTask(g domain.Graph, projectID, id string, _ Env) (domain.Graph, error) {
	out := g.Clone()
	_, p, err := projectAt(&out, projectID)
	if err != nil {
		return g, err
	}
	var ok bool
	if p.Tasks, ok = remove(p.Tasks, id, taskID); !ok {
		return g, domain.ErrNotFound{Entity: domain.EntityTask, ID: id}
	}
	return out, nil
}
