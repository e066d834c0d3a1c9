package records

import (
	"slices"
	"strings"

	"fieldbook/internal/schema"
	"fieldbook/pkg/domain"
)

func parseRole(raw domain.UserRole) (domain.UserRole, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return domain.RoleEngineer, nil
	}
	for _, known := range []domain.UserRole{domain.RoleAdmin, domain.RoleEngineer, domain.RoleOffice} {
		if strings.EqualFold(s, string(known)) {
			return known, nil
		}
	}
	return "", domain.Invalid("role", "%q is not a user role.", s)
}

// CreateUser adds an active user.
func CreateUser(g domain.Graph, in domain.UserInput, env Env) (domain.Graph, domain.User, error) {
	name, err := requireText("name", "User name", in.Name)
	if err != nil {
		return g, domain.User{}, err
	}
	role, err := parseRole(in.Role)
	if err != nil {
		return g, domain.User{}, err
	}
	u := domain.User{
		ID:     env.id(),
		Name:   name,
		Email:  strings.TrimSpace(in.Email),
		Role:   role,
		Active: true,
	}
	out := g.Clone()
	out.Users = append(out.Users, u)
	domain.SortUsers(out.Users)
	return out, u, nil
}

// DeleteUser removes a user and unassigns their tasks. The last user cannot be
// removed; an empty store is reseeded with the administrator instead.
func DeleteUser(g domain.Graph, id string, _ Env) (domain.Graph, error) {
	if g.UserIndex(id) < 0 {
		return g, domain.ErrNotFound{Entity: domain.EntityUser, ID: id}
	}
	if len(g.Users) == 1 {
		return g, domain.Invalid("users", "At least one user must remain.")
	}
	out := g.Clone()
	out.Users, _ = remove(out.Users, id, userID)
	for ci := range out.Customers {
		for pi := range out.Customers[ci].Projects {
			tasks := out.Customers[ci].Projects[pi].Tasks
			for ti := range tasks {
				if tasks[ti].AssigneeID == id {
					tasks[ti].AssigneeID = ""
				}
			}
		}
	}
	return out, nil
}

// UpdateBusinessSettings replaces the company-wide settings. The working day
// must end after it starts and at least one weekday must be selected.
func UpdateBusinessSettings(g domain.Graph, in domain.BusinessSettings, _ Env) (domain.Graph, domain.BusinessSettings, error) {
	start, ok := schema.ParseClock(in.WorkdayStart)
	if !ok {
		return g, domain.BusinessSettings{}, domain.Invalid("workdayStart", "Times must look like 08:00.")
	}
	end, ok := schema.ParseClock(in.WorkdayEnd)
	if !ok {
		return g, domain.BusinessSettings{}, domain.Invalid("workdayEnd", "Times must look like 17:00.")
	}
	if end <= start {
		return g, domain.BusinessSettings{}, domain.Invalid("workdayEnd", "The working day must end after it starts.")
	}
	days := slices.Clone(in.WorkingDays)
	slices.Sort(days)
	days = slices.Compact(days)
	if len(days) == 0 || days[0] < 0 || days[len(days)-1] > 6 {
		return g, domain.BusinessSettings{}, domain.Invalid("workingDays", "Choose at least one weekday.")
	}
	s := domain.BusinessSettings{
		CompanyName:  strings.TrimSpace(in.CompanyName),
		WorkdayStart: start,
		WorkdayEnd:   end,
		WorkingDays:  days,
		Timezone:     strings.TrimSpace(in.Timezone),
	}
	out := g.Clone()
	out.BusinessSettings = s
	return out, domain.BusinessSettings{
		CompanyName:  s.CompanyName,
		WorkdayStart: s.WorkdayStart,
		WorkdayEnd:   s.WorkdayEnd,
		WorkingDays:  slices.Clone(s.WorkingDays),
		Timezone:     s.Timezone,
	}, nil
}
