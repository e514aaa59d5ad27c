// Package models defines the record types stored by the docket server.
package models

import "time"

// Case is a scheduling entry on the active docket. All descriptive fields are
// free-form text supplied by the caller; none are validated for format.
type Case struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Judge       string    `json:"judge"`
	Prosecutor  string    `json:"prosecutor"`
	Defendant   string    `json:"defendant"`
	Lawyer      string    `json:"lawyer"`
	Witnesses   string    `json:"witnesses"`
	Room        string    `json:"room"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Parties     string    `json:"parties"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// ArchivedCase is a resolved case moved off the active docket. It carries the
// original case fields plus the outcome recorded at archive time. Archived
// records are never mutated or deleted afterward.
type ArchivedCase struct {
	Case
	Result   string `json:"result"`
	Verdict  string `json:"verdict"`
	Document string `json:"document"`
}

// CaseInput holds the caller-supplied fields for a new case. The identifier
// is assigned by the store, never by the caller.
type CaseInput struct {
	Name        string `json:"name"`
	Judge       string `json:"judge"`
	Prosecutor  string `json:"prosecutor"`
	Defendant   string `json:"defendant"`
	Lawyer      string `json:"lawyer"`
	Witnesses   string `json:"witnesses"`
	Room        string `json:"room"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Parties     string `json:"parties"`
	Description string `json:"description"`
}

// Outcome holds the optional resolution fields attached to a case when it is
// archived.
type Outcome struct {
	Result   string `json:"result"`
	Verdict  string `json:"verdict"`
	Document string `json:"document"`
}

// NewCase constructs a Case from an identifier and caller-supplied fields.
func NewCase(id string, in CaseInput) *Case {
	return &Case{
		ID:          id,
		Name:        in.Name,
		Judge:       in.Judge,
		Prosecutor:  in.Prosecutor,
		Defendant:   in.Defendant,
		Lawyer:      in.Lawyer,
		Witnesses:   in.Witnesses,
		Room:        in.Room,
		Date:        in.Date,
		Time:        in.Time,
		Parties:     in.Parties,
		Description: in.Description,
		CreatedAt:   time.Now().UTC(),
	}
}
