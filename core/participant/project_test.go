package participant

import (
	"reflect"
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/lusale/gpms/core/identity"
)

func TestToRow(t *testing.T) {
	full := Participant{
		ID:                "ann_lee",
		FirstName:         "Ann",
		LastName:          "Lee",
		Age:               null.IntFrom(32),
		Cohort:            null.StringFrom("C1"),
		GpmsStatus:        null.StringFrom("Active"),
		AdvocateName:      null.StringFrom("x@y.com"),
		Phase1ReleaseDate: null.StringFrom("2021-02-01"),
		Phase2ReleaseDate: null.StringFrom("2021-04-01"),
	}
	sparse := Participant{ID: "bo_kim", FirstName: "Bo", LastName: "Kim"}

	t.Run("admin row", func(t *testing.T) {
		row := ToRow(full, identity.RoleAdmin)
		if row.Name != "Ann Lee" || row.Age != "32" || row.Cohort != "C1" || row.Status != "Active" || row.Phases != "1 2" {
			t.Errorf("ToRow() = %+v", row)
		}
		if row.Advocate == nil || *row.Advocate != "x@y.com" {
			t.Errorf("Advocate = %v, want x@y.com", row.Advocate)
		}
	})

	t.Run("advocate row omits the advocate column", func(t *testing.T) {
		row := ToRow(full, identity.RoleAdvocate)
		if row.Advocate != nil {
			t.Errorf("Advocate = %v, want nil", row.Advocate)
		}
	})

	t.Run("absent values display as N/A", func(t *testing.T) {
		row := ToRow(sparse, identity.RoleAdmin)
		if row.Age != "N/A" || row.Cohort != "N/A" || row.Status != "N/A" {
			t.Errorf("ToRow() = %+v", row)
		}
		if row.Phases != "" {
			t.Errorf("Phases = %q, want empty", row.Phases)
		}
		if row.Advocate == nil || *row.Advocate != "N/A" {
			t.Errorf("Advocate = %v, want N/A", row.Advocate)
		}
	})
}

func TestCSVProjection(t *testing.T) {
	full := Participant{
		ID:                "ann_lee",
		FirstName:         "Ann",
		LastName:          "Lee",
		Age:               null.IntFrom(32),
		Cohort:            null.StringFrom("C1"),
		GpmsStatus:        null.StringFrom("Active"),
		AdvocateName:      null.StringFrom("x@y.com"),
		Phase1ReleaseDate: null.StringFrom("2021-02-01"),
	}
	sparse := Participant{ID: "bo_kim", FirstName: "Bo", LastName: "Kim"}

	t.Run("admin header carries the advocate column", func(t *testing.T) {
		want := []string{"FirstName", "LastName", "Age", "Cohort", "GpmsStatus", "Phases", "Advocate"}
		if got := CSVHeader(identity.RoleAdmin); !reflect.DeepEqual(got, want) {
			t.Errorf("CSVHeader() = %v, want %v", got, want)
		}
	})

	t.Run("advocate header does not", func(t *testing.T) {
		want := []string{"FirstName", "LastName", "Age", "Cohort", "GpmsStatus", "Phases"}
		if got := CSVHeader(identity.RoleAdvocate); !reflect.DeepEqual(got, want) {
			t.Errorf("CSVHeader() = %v, want %v", got, want)
		}
	})

	t.Run("rows line up with the header", func(t *testing.T) {
		for _, role := range []string{identity.RoleAdmin, identity.RoleAdvocate} {
			header := CSVHeader(role)
			for _, p := range []Participant{full, sparse} {
				if row := CSVRow(p, role); len(row) != len(header) {
					t.Errorf("CSVRow(%s, %s) has %d cells, header has %d", p.ID, role, len(row), len(header))
				}
			}
		}
	})

	t.Run("absent values export as empty cells, not N/A", func(t *testing.T) {
		want := []string{"Bo", "Kim", "", "", "", "", ""}
		if got := CSVRow(sparse, identity.RoleAdmin); !reflect.DeepEqual(got, want) {
			t.Errorf("CSVRow() = %v, want %v", got, want)
		}
	})

	t.Run("full row", func(t *testing.T) {
		want := []string{"Ann", "Lee", "32", "C1", "Active", "1", "x@y.com"}
		if got := CSVRow(full, identity.RoleAdmin); !reflect.DeepEqual(got, want) {
			t.Errorf("CSVRow() = %v, want %v", got, want)
		}
	})
}
