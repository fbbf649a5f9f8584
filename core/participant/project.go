package participant

import (
	"strconv"

	"github.com/volatiletech/null/v8"

	"github.com/lusale/gpms/core/identity"
)

// displayNA is how absent values render in table rows. CSV cells render absent
// values as "" instead; the two projections intentionally differ.
const displayNA = "N/A"

// Row is the tabular display projection of one participant.
type Row struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Advocate *string `json:"advocate,omitempty"` // present iff the caller is admin
	Age      string  `json:"age"`
	Cohort   string  `json:"cohort"`
	Status   string  `json:"gpmsStatus"`
	Phases   string  `json:"phases"`
}

func ToRow(p Participant, role string) Row {
	row := Row{
		ID:     p.ID,
		Name:   p.FullName(),
		Age:    displayInt(p.Age),
		Cohort: displayString(p.Cohort),
		Status: displayString(p.GpmsStatus),
		Phases: p.PhaseSummary(),
	}
	if role == identity.RoleAdmin {
		advocate := displayString(p.AdvocateName)
		row.Advocate = &advocate
	}
	return row
}

// CSVHeader returns the fixed export header. The advocate column is appended
// iff the caller is admin; header length always equals the length of every
// row produced by CSVRow for the same role.
func CSVHeader(role string) []string {
	header := []string{"FirstName", "LastName", "Age", "Cohort", "GpmsStatus", "Phases"}
	if role == identity.RoleAdmin {
		header = append(header, "Advocate")
	}
	return header
}

// CSVRow returns the ordered raw values matching CSVHeader. Quoting and
// escaping are the writer's concern.
func CSVRow(p Participant, role string) []string {
	row := []string{
		p.FirstName,
		p.LastName,
		rawInt(p.Age),
		rawString(p.Cohort),
		rawString(p.GpmsStatus),
		p.PhaseSummary(),
	}
	if role == identity.RoleAdmin {
		row = append(row, rawString(p.AdvocateName))
	}
	return row
}

func displayString(ns null.String) string {
	if !ns.Valid || ns.String == "" {
		return displayNA
	}
	return ns.String
}

func displayInt(ni null.Int) string {
	if !ni.Valid {
		return displayNA
	}
	return strconv.Itoa(ni.Int)
}

func rawString(ns null.String) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

func rawInt(ni null.Int) string {
	if !ni.Valid {
		return ""
	}
	return strconv.Itoa(ni.Int)
}
