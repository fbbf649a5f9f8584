package participant

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/lusale/gpms/core"
)

// Phase filter values offered by the roster view.
const (
	PhaseFilter1 = "Phase 1"
	PhaseFilter2 = "Phase 2"
	PhaseFilter3 = "Phase 3"
)

var PhaseFilters = []string{PhaseFilter1, PhaseFilter2, PhaseFilter3}

type Participant struct {
	// ID is derived from the normalized first+last name at creation time
	// and never changes afterwards.
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`

	Age  null.Int    `json:"age"`
	Sex  null.String `json:"sex"`
	Race null.String `json:"race"`

	Cohort          null.String `json:"cohort"`
	GpmsID          null.String `json:"gpmsId"`
	GpmsStatus      null.String `json:"gpmsStatus"`
	BopRegister     null.String `json:"bopRegister"`
	ReferralSummary null.String `json:"referralSummary"`

	// AdvocateName holds the owning advocate's email. It is a foreign key
	// into the identity space, not an ownership pointer; a participant
	// without one is visible only to admins.
	AdvocateName null.String `json:"advocateName"`

	TransferredFrom   null.String `json:"transferredFrom"`
	TransferredTo     null.String `json:"transferredTo"`
	LastDateOfContact null.String `json:"lastDateOfContact"`
	Phase1Instructor  null.String `json:"phase1Instructor"`

	// Presence of a release date signals the participant has reached that phase.
	Phase1ReleaseDate null.String `json:"phase1ReleaseDate"`
	Phase2ReleaseDate null.String `json:"phase2ReleaseDate"`
	Phase3ReleaseDate null.String `json:"phase3ReleaseDate"`

	MathPreNumerator       null.Int `json:"mathPreNumerator"`
	MathPreDenominator     null.Int `json:"mathPreDenominator"`
	MathPostNumerator      null.Int `json:"mathPostNumerator"`
	MathPostDenominator    null.Int `json:"mathPostDenominator"`
	ReadingPreNumerator    null.Int `json:"readingPreNumerator"`
	ReadingPreDenominator  null.Int `json:"readingPreDenominator"`
	ReadingPostNumerator   null.Int `json:"readingPostNumerator"`
	ReadingPostDenominator null.Int `json:"readingPostDenominator"`

	CreatedAt time.Time `json:"createdAt"` // UTC
	UpdatedAt time.Time `json:"updatedAt"` // UTC
}

func (p Participant) FullName() string {
	return p.FirstName + " " + p.LastName
}

// AdvocateKey returns the normalized advocate identifier used for ownership
// comparisons, or "" when no advocate is assigned.
func (p Participant) AdvocateKey() string {
	if !p.AdvocateName.Valid {
		return ""
	}
	return core.CleanString(p.AdvocateName.String, true /* lower */)
}

func (p Participant) HasPhase(n int) bool {
	switch n {
	case 1:
		return p.Phase1ReleaseDate.Valid
	case 2:
		return p.Phase2ReleaseDate.Valid
	case 3:
		return p.Phase3ReleaseDate.Valid
	}
	return false
}

// PhaseSummary returns the space-joined ascending digits of the phases
// reached, e.g. "1 2"; empty string if none.
func (p Participant) PhaseSummary() string {
	digits := make([]string, 0, 3)
	for n := 1; n <= 3; n++ {
		if p.HasPhase(n) {
			digits = append(digits, strconv.Itoa(n))
		}
	}
	return strings.Join(digits, " ")
}

type CaseNote struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"` // UTC
}

type Expense struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	CreatedAt   time.Time `json:"createdAt"` // UTC
}

// NewParticipant contains information needed to create a new Participant.
type NewParticipant struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`

	Age  null.Int    `json:"age" validate:"omitempty,gte=0"`
	Sex  null.String `json:"sex"`
	Race null.String `json:"race"`

	Cohort          null.String `json:"cohort"`
	GpmsID          null.String `json:"gpmsId"`
	GpmsStatus      null.String `json:"gpmsStatus"`
	BopRegister     null.String `json:"bopRegister"`
	ReferralSummary null.String `json:"referralSummary"`

	AdvocateName null.String `json:"advocateName" validate:"omitempty,emailkey"`

	TransferredFrom   null.String `json:"transferredFrom"`
	TransferredTo     null.String `json:"transferredTo"`
	LastDateOfContact null.String `json:"lastDateOfContact" validate:"omitempty,dateonly"`
	Phase1Instructor  null.String `json:"phase1Instructor"`

	Phase1ReleaseDate null.String `json:"phase1ReleaseDate" validate:"omitempty,dateonly"`
	Phase2ReleaseDate null.String `json:"phase2ReleaseDate" validate:"omitempty,dateonly"`
	Phase3ReleaseDate null.String `json:"phase3ReleaseDate" validate:"omitempty,dateonly"`

	MathPreNumerator       null.Int `json:"mathPreNumerator" validate:"omitempty,gte=0"`
	MathPreDenominator     null.Int `json:"mathPreDenominator" validate:"omitempty,gte=0"`
	MathPostNumerator      null.Int `json:"mathPostNumerator" validate:"omitempty,gte=0"`
	MathPostDenominator    null.Int `json:"mathPostDenominator" validate:"omitempty,gte=0"`
	ReadingPreNumerator    null.Int `json:"readingPreNumerator" validate:"omitempty,gte=0"`
	ReadingPreDenominator  null.Int `json:"readingPreDenominator" validate:"omitempty,gte=0"`
	ReadingPostNumerator   null.Int `json:"readingPostNumerator" validate:"omitempty,gte=0"`
	ReadingPostDenominator null.Int `json:"readingPostDenominator" validate:"omitempty,gte=0"`
}

func (np *NewParticipant) Validate() error {
	np.FirstName = core.CleanString(np.FirstName)
	np.LastName = core.CleanString(np.LastName)
	np.Sex = cleanNullString(np.Sex)
	np.Race = cleanNullString(np.Race)
	np.Cohort = cleanNullString(np.Cohort)
	np.GpmsID = cleanNullString(np.GpmsID)
	np.GpmsStatus = cleanNullString(np.GpmsStatus)
	np.BopRegister = cleanNullString(np.BopRegister)
	np.ReferralSummary = cleanNullString(np.ReferralSummary)
	np.AdvocateName = cleanNullString(np.AdvocateName)
	np.TransferredFrom = cleanNullString(np.TransferredFrom)
	np.TransferredTo = cleanNullString(np.TransferredTo)
	np.LastDateOfContact = cleanNullString(np.LastDateOfContact)
	np.Phase1Instructor = cleanNullString(np.Phase1Instructor)
	np.Phase1ReleaseDate = cleanNullString(np.Phase1ReleaseDate)
	np.Phase2ReleaseDate = cleanNullString(np.Phase2ReleaseDate)
	np.Phase3ReleaseDate = cleanNullString(np.Phase3ReleaseDate)
	return core.Validate.Struct(np)
}

var whitespaceRegex = regexp.MustCompile(`\s+`)

// DocumentID computes the participant's document key:
// lowercase(trim(firstName)) + "_" + lowercase(trim(lastName)), with internal
// whitespace runs collapsed to single underscores.
func (np NewParticipant) DocumentID() string {
	first := core.CleanString(np.FirstName, true /* lower */)
	last := core.CleanString(np.LastName, true /* lower */)
	return whitespaceRegex.ReplaceAllString(first+"_"+last, "_")
}

// Participant builds the record to persist, stamped with `now`.
func (np NewParticipant) Participant(now time.Time) Participant {
	return Participant{
		ID:                     np.DocumentID(),
		FirstName:              np.FirstName,
		LastName:               np.LastName,
		Age:                    np.Age,
		Sex:                    np.Sex,
		Race:                   np.Race,
		Cohort:                 np.Cohort,
		GpmsID:                 np.GpmsID,
		GpmsStatus:             np.GpmsStatus,
		BopRegister:            np.BopRegister,
		ReferralSummary:        np.ReferralSummary,
		AdvocateName:           np.AdvocateName,
		TransferredFrom:        np.TransferredFrom,
		TransferredTo:          np.TransferredTo,
		LastDateOfContact:      np.LastDateOfContact,
		Phase1Instructor:       np.Phase1Instructor,
		Phase1ReleaseDate:      np.Phase1ReleaseDate,
		Phase2ReleaseDate:      np.Phase2ReleaseDate,
		Phase3ReleaseDate:      np.Phase3ReleaseDate,
		MathPreNumerator:       np.MathPreNumerator,
		MathPreDenominator:     np.MathPreDenominator,
		MathPostNumerator:      np.MathPostNumerator,
		MathPostDenominator:    np.MathPostDenominator,
		ReadingPreNumerator:    np.ReadingPreNumerator,
		ReadingPreDenominator:  np.ReadingPreDenominator,
		ReadingPostNumerator:   np.ReadingPostNumerator,
		ReadingPostDenominator: np.ReadingPostDenominator,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

// UpdateParticipant defines what information may be provided to modify an
// existing Participant. Absent fields are left untouched; the document ID
// never changes, even when the display names do.
type UpdateParticipant struct {
	FirstName null.String `json:"firstName"`
	LastName  null.String `json:"lastName"`

	Age  null.Int    `json:"age" validate:"omitempty,gte=0"`
	Sex  null.String `json:"sex"`
	Race null.String `json:"race"`

	Cohort          null.String `json:"cohort"`
	GpmsID          null.String `json:"gpmsId"`
	GpmsStatus      null.String `json:"gpmsStatus"`
	BopRegister     null.String `json:"bopRegister"`
	ReferralSummary null.String `json:"referralSummary"`

	AdvocateName null.String `json:"advocateName" validate:"omitempty,emailkey"`

	TransferredFrom   null.String `json:"transferredFrom"`
	TransferredTo     null.String `json:"transferredTo"`
	LastDateOfContact null.String `json:"lastDateOfContact" validate:"omitempty,dateonly"`
	Phase1Instructor  null.String `json:"phase1Instructor"`

	Phase1ReleaseDate null.String `json:"phase1ReleaseDate" validate:"omitempty,dateonly"`
	Phase2ReleaseDate null.String `json:"phase2ReleaseDate" validate:"omitempty,dateonly"`
	Phase3ReleaseDate null.String `json:"phase3ReleaseDate" validate:"omitempty,dateonly"`

	MathPreNumerator       null.Int `json:"mathPreNumerator" validate:"omitempty,gte=0"`
	MathPreDenominator     null.Int `json:"mathPreDenominator" validate:"omitempty,gte=0"`
	MathPostNumerator      null.Int `json:"mathPostNumerator" validate:"omitempty,gte=0"`
	MathPostDenominator    null.Int `json:"mathPostDenominator" validate:"omitempty,gte=0"`
	ReadingPreNumerator    null.Int `json:"readingPreNumerator" validate:"omitempty,gte=0"`
	ReadingPreDenominator  null.Int `json:"readingPreDenominator" validate:"omitempty,gte=0"`
	ReadingPostNumerator   null.Int `json:"readingPostNumerator" validate:"omitempty,gte=0"`
	ReadingPostDenominator null.Int `json:"readingPostDenominator" validate:"omitempty,gte=0"`
}

func (up *UpdateParticipant) Validate() error {
	up.FirstName = cleanNullString(up.FirstName)
	up.LastName = cleanNullString(up.LastName)
	up.Sex = cleanNullString(up.Sex)
	up.Race = cleanNullString(up.Race)
	up.Cohort = cleanNullString(up.Cohort)
	up.GpmsID = cleanNullString(up.GpmsID)
	up.GpmsStatus = cleanNullString(up.GpmsStatus)
	up.BopRegister = cleanNullString(up.BopRegister)
	up.ReferralSummary = cleanNullString(up.ReferralSummary)
	up.AdvocateName = cleanNullString(up.AdvocateName)
	up.TransferredFrom = cleanNullString(up.TransferredFrom)
	up.TransferredTo = cleanNullString(up.TransferredTo)
	up.LastDateOfContact = cleanNullString(up.LastDateOfContact)
	up.Phase1Instructor = cleanNullString(up.Phase1Instructor)
	up.Phase1ReleaseDate = cleanNullString(up.Phase1ReleaseDate)
	up.Phase2ReleaseDate = cleanNullString(up.Phase2ReleaseDate)
	up.Phase3ReleaseDate = cleanNullString(up.Phase3ReleaseDate)
	return core.Validate.Struct(up)
}

// apply merges the set fields onto `orig` and returns the result.
func (up UpdateParticipant) apply(orig Participant, now time.Time) Participant {
	p := orig
	if up.FirstName.Valid {
		p.FirstName = up.FirstName.String
	}
	if up.LastName.Valid {
		p.LastName = up.LastName.String
	}
	if up.Age.Valid {
		p.Age = up.Age
	}
	if up.Sex.Valid {
		p.Sex = up.Sex
	}
	if up.Race.Valid {
		p.Race = up.Race
	}
	if up.Cohort.Valid {
		p.Cohort = up.Cohort
	}
	if up.GpmsID.Valid {
		p.GpmsID = up.GpmsID
	}
	if up.GpmsStatus.Valid {
		p.GpmsStatus = up.GpmsStatus
	}
	if up.BopRegister.Valid {
		p.BopRegister = up.BopRegister
	}
	if up.ReferralSummary.Valid {
		p.ReferralSummary = up.ReferralSummary
	}
	if up.AdvocateName.Valid {
		p.AdvocateName = up.AdvocateName
	}
	if up.TransferredFrom.Valid {
		p.TransferredFrom = up.TransferredFrom
	}
	if up.TransferredTo.Valid {
		p.TransferredTo = up.TransferredTo
	}
	if up.LastDateOfContact.Valid {
		p.LastDateOfContact = up.LastDateOfContact
	}
	if up.Phase1Instructor.Valid {
		p.Phase1Instructor = up.Phase1Instructor
	}
	if up.Phase1ReleaseDate.Valid {
		p.Phase1ReleaseDate = up.Phase1ReleaseDate
	}
	if up.Phase2ReleaseDate.Valid {
		p.Phase2ReleaseDate = up.Phase2ReleaseDate
	}
	if up.Phase3ReleaseDate.Valid {
		p.Phase3ReleaseDate = up.Phase3ReleaseDate
	}
	if up.MathPreNumerator.Valid {
		p.MathPreNumerator = up.MathPreNumerator
	}
	if up.MathPreDenominator.Valid {
		p.MathPreDenominator = up.MathPreDenominator
	}
	if up.MathPostNumerator.Valid {
		p.MathPostNumerator = up.MathPostNumerator
	}
	if up.MathPostDenominator.Valid {
		p.MathPostDenominator = up.MathPostDenominator
	}
	if up.ReadingPreNumerator.Valid {
		p.ReadingPreNumerator = up.ReadingPreNumerator
	}
	if up.ReadingPreDenominator.Valid {
		p.ReadingPreDenominator = up.ReadingPreDenominator
	}
	if up.ReadingPostNumerator.Valid {
		p.ReadingPostNumerator = up.ReadingPostNumerator
	}
	if up.ReadingPostDenominator.Valid {
		p.ReadingPostDenominator = up.ReadingPostDenominator
	}
	p.UpdatedAt = now
	return p
}

// NewCaseNote contains information needed to append a CaseNote.
type NewCaseNote struct {
	Text string `json:"text" validate:"required"`
}

func (nn *NewCaseNote) Validate() error {
	nn.Text = core.CleanString(nn.Text)
	return core.Validate.Struct(nn)
}

// NewExpense contains information needed to append an Expense.
type NewExpense struct {
	Description string  `json:"description" validate:"required"`
	Amount      float64 `json:"amount" validate:"gte=0"`
}

func (ne *NewExpense) Validate() error {
	ne.Description = core.CleanString(ne.Description)
	return core.Validate.Struct(ne)
}

// QueryFilter carries the roster's free-text query and column filters.
// All predicates are conjunctive; an unset field matches everything.
type QueryFilter struct {
	Search   string `query:"search"`
	Cohort   string `query:"cohort"`
	Phase    string `query:"phase"` // "Phase 1" | "Phase 2" | "Phase 3"
	Advocate string `query:"advocate"`
	Status   string `query:"status"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

func (qf QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Cohort == "" && qf.Phase == "" && qf.Advocate == "" && qf.Status == ""
}

// cleanNullString trims a set value; a set-but-blank value becomes absent so
// that absence is never conflated with the empty string.
func cleanNullString(ns null.String) null.String {
	if !ns.Valid {
		return null.String{}
	}
	s := core.CleanString(ns.String)
	if s == "" {
		return null.String{}
	}
	return null.StringFrom(s)
}
