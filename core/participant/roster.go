package participant

import (
	"strings"

	"github.com/lusale/gpms/core/identity"
)

// CanAccess reports whether `role`/`principal` may see (and therefore edit)
// the given participant. It is the single data-access rule: the roster filter
// applies it per record and the write paths re-derive authorization from it.
func CanAccess(role string, principal identity.Principal, p Participant) bool {
	switch role {
	case identity.RoleAdmin:
		return true
	case identity.RoleAdvocate:
		return p.AdvocateName.Valid && p.AdvocateKey() == principal.Key()
	}
	return false
}

// AccessFilter returns the subsequence of `roster` visible to the caller,
// input order preserved. It is the sole read-authorization boundary; it runs
// exactly once per roster load, after role resolution.
func AccessFilter(role string, principal identity.Principal, roster []Participant) []Participant {
	switch role {
	case identity.RoleAdmin:
		return roster
	case identity.RoleAdvocate:
		visible := make([]Participant, 0, len(roster))
		for _, p := range roster {
			if CanAccess(role, principal, p) {
				visible = append(visible, p)
			}
		}
		return visible
	}
	return []Participant{}
}

// Roster is the view model of one roster load: the filtered participants plus
// the distinct filter options derived from the visible (unfiltered) set.
type Roster struct {
	Participants []Participant
	Cohorts      []string
	Advocates    []string // admin only; empty otherwise
	Statuses     []string
}

// BuildRoster filters the access-filtered `visible` set by `qf` and derives
// the filter-option sets. It is a pure function of its inputs and is
// recomputed from scratch on every call; the result preserves input order.
func BuildRoster(visible []Participant, role string, qf QueryFilter) Roster {
	qf.Clean()

	filtered := make([]Participant, 0, len(visible))
	for _, p := range visible {
		if matches(p, role, qf) {
			filtered = append(filtered, p)
		}
	}

	r := Roster{
		Participants: filtered,
		Cohorts:      distinctValues(visible, func(p Participant) (string, bool) { return p.Cohort.String, p.Cohort.Valid }),
		Statuses:     distinctValues(visible, func(p Participant) (string, bool) { return p.GpmsStatus.String, p.GpmsStatus.Valid }),
	}
	// the advocate filter is only offered to admins
	if role == identity.RoleAdmin {
		r.Advocates = distinctValues(visible, func(p Participant) (string, bool) { return p.AdvocateName.String, p.AdvocateName.Valid })
	}
	return r
}

// matches applies the conjunctive roster predicates.
func matches(p Participant, role string, qf QueryFilter) bool {
	if qf.Search != "" &&
		!strings.Contains(strings.ToLower(p.FullName()), strings.ToLower(qf.Search)) {
		return false
	}
	if qf.Cohort != "" && (!p.Cohort.Valid || p.Cohort.String != qf.Cohort) {
		return false
	}
	if !matchesPhase(p, qf.Phase) {
		return false
	}
	// only meaningful for admins; never applied for other roles since the
	// field was never offered to them
	if role == identity.RoleAdmin && qf.Advocate != "" &&
		(!p.AdvocateName.Valid || p.AdvocateName.String != qf.Advocate) {
		return false
	}
	if qf.Status != "" && (!p.GpmsStatus.Valid || p.GpmsStatus.String != qf.Status) {
		return false
	}
	return true
}

// matchesPhase is a presence test on the corresponding release date, not a
// date-value test.
func matchesPhase(p Participant, phase string) bool {
	switch phase {
	case "":
		return true
	case PhaseFilter1:
		return p.HasPhase(1)
	case PhaseFilter2:
		return p.HasPhase(2)
	case PhaseFilter3:
		return p.HasPhase(3)
	}
	return false
}

// distinctValues collects the distinct non-absent values of one field,
// deduplicated in order of first appearance.
func distinctValues(roster []Participant, field func(Participant) (string, bool)) []string {
	seen := make(map[string]bool, len(roster))
	values := make([]string, 0, len(roster))
	for _, p := range roster {
		v, ok := field(p)
		if !ok || v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return values
}
