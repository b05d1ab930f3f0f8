package injury

// Payload is the single body posted to submit-injury-report
type Payload struct {
	OrgID                 string `json:"org_id"`
	ProjectID             string `json:"project_id"`
	SubmittedByEmployeeID string `json:"submitted_by_employee_id"`
	OccurredAt            string `json:"occurred_at"`
	Location              string `json:"location"`
	Description           string `json:"description"`
	Severity              string `json:"severity"`
	ReportedToName        string `json:"reported_to_name"`

	Photos                 []string          `json:"photos"`
	InjuredEmployees       []InjuredEmployee `json:"injured_employees"`
	InjuredExternalWorkers []ExternalWorker  `json:"injured_external_workers"`
	BodyParts              []BodyPart        `json:"body_parts"`
	FirstAidGiven          bool              `json:"first_aid_given"`
	FirstAidDetails        string            `json:"first_aid_details"`
	Tasks                  []string          `json:"tasks"`
	Witnesses              []Witness         `json:"witnesses"`
	Equipment              []string          `json:"equipment"`
	Materials              []string          `json:"materials"`
}

// InjuredEmployee references an existing employee. TempID is how body
// parts refer to this person; it defaults to the employee id.
type InjuredEmployee struct {
	TempID     string `json:"temp_id"`
	EmployeeID string `json:"employee_id"`
}

type ExternalWorker struct {
	TempID  string `json:"temp_id"`
	Name    string `json:"name"`
	Company string `json:"company"`
	Phone   string `json:"phone"`
}

type BodyPart struct {
	PersonID          string `json:"person_id"`
	InjuredPersonType string `json:"injured_person_type"`
	BodyPart          string `json:"body_part"`
	Side              string `json:"side"`
	InjuryType        string `json:"injury_type"`
}

type Witness struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Statement string `json:"statement"`
}
