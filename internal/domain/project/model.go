package project

import "strings"

// Status is the approval state of a project.
type Status int

const (
	StatusPending Status = iota
	StatusApproved
	StatusRejected
)

// Label returns the display text of s.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusApproved:
		return "Approved"
	case StatusRejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// ParseStatus reads a status label, case-insensitively.
func ParseStatus(s string) (Status, bool) {
	for st := StatusPending; st <= StatusRejected; st++ {
		if strings.EqualFold(strings.TrimSpace(s), st.Label()) {
			return st, true
		}
	}
	return 0, false
}

// Type is the kind of research project.
type Type int

const (
	TypeResearch Type = iota
	TypeDevelopment
	TypeOther
)

// Label returns the display text of t.
func (t Type) Label() string {
	switch t {
	case TypeResearch:
		return "Research"
	case TypeDevelopment:
		return "Development"
	case TypeOther:
		return "Other"
	default:
		return "Unknown"
	}
}

// ParseType reads a type label, case-insensitively.
func ParseType(s string) (Type, bool) {
	for t := TypeResearch; t <= TypeOther; t++ {
		if strings.EqualFold(strings.TrimSpace(s), t.Label()) {
			return t, true
		}
	}
	return 0, false
}

// Project is one entry of the signed-in user's project list.
type Project struct {
	ProjectID      int64      `json:"projectId"`
	ProjectName    string     `json:"projectName"`
	ProjectType    Type       `json:"projectType"`
	Description    string     `json:"description"`
	ApprovedBudget float64    `json:"approvedBudget"`
	Status         Status     `json:"status"`
	StartDate      string     `json:"startDate"`
	EndDate        string     `json:"endDate"`
	CreatedAt      string     `json:"createdAt,omitempty"`
	UpdatedAt      *string    `json:"updatedAt,omitempty"`
	GroupID        int64      `json:"groupId"`
	GroupName      string     `json:"groupName"`
	DepartmentID   int64      `json:"departmentId"`
	Documents      []Document `json:"documents,omitempty"`
}

// Person is a user reference embedded in project details.
type Person struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Group is the research group owning a project.
type Group struct {
	GroupID        int64   `json:"groupId"`
	GroupName      string  `json:"groupName"`
	GroupType      int     `json:"groupType"`
	CurrentMember  int     `json:"currentMember"`
	MaxMember      int     `json:"maxMember"`
	DepartmentName *string `json:"departmentName,omitempty"`
}

// Department is the department a project belongs to.
type Department struct {
	DepartmentID   int64  `json:"departmentId"`
	DepartmentName string `json:"departmentName"`
}

// Document is a file attached to a project.
type Document struct {
	DocumentID   int64  `json:"documentId"`
	FileName     string `json:"fileName"`
	DocumentURL  string `json:"documentUrl"`
	DocumentType int    `json:"documentType"`
	UploadAt     string `json:"uploadAt"`
}

// Detail is the full view of one project.
type Detail struct {
	Project
	Methodology    string      `json:"methodology,omitempty"`
	CreatedBy      int64       `json:"createdBy,omitempty"`
	ApprovedBy     *int64      `json:"approvedBy,omitempty"`
	CreatedByUser  *Person     `json:"createdByUser,omitempty"`
	ApprovedByUser *Person     `json:"approvedByUser,omitempty"`
	Group          *Group      `json:"group,omitempty"`
	Department     *Department `json:"department,omitempty"`
	// Documents shadows Project.Documents so a detail always encodes the list.
	Documents []Document `json:"documents"`
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	ProjectName    string  `json:"projectName"`
	ProjectType    Type    `json:"projectType"`
	Description    string  `json:"description"`
	ApprovedBudget float64 `json:"approvedBudget,omitempty"`
	StartDate      string  `json:"startDate,omitempty"`
	EndDate        string  `json:"endDate,omitempty"`
	GroupID        int64   `json:"groupId,omitempty"`
	DepartmentID   int64   `json:"departmentId,omitempty"`
	Methodology    string  `json:"methodology,omitempty"`
}

// UpdateRequest holds the editable project fields. Nil fields are unchanged.
type UpdateRequest struct {
	ProjectName    *string  `json:"projectName,omitempty"`
	ProjectType    *Type    `json:"projectType,omitempty"`
	Description    *string  `json:"description,omitempty"`
	ApprovedBudget *float64 `json:"approvedBudget,omitempty"`
	Status         *Status  `json:"status,omitempty"`
	StartDate      *string  `json:"startDate,omitempty"`
	EndDate        *string  `json:"endDate,omitempty"`
	Methodology    *string  `json:"methodology,omitempty"`
}

// Empty reports whether u changes nothing.
func (u UpdateRequest) Empty() bool {
	return u == UpdateRequest{}
}
