package user

var levelLabels = map[int]string{
	0: "Professor",
	1: "Associate Professor",
	2: "PhD",
	3: "Master",
	4: "Bachelor",
}

var roleLabels = map[int]string{
	0: "Leader",
	1: "Member",
	2: "Supervisor",
	3: "Council Chairman",
	4: "Secretary",
	5: "Council Member",
}

var statusLabels = map[int]string{
	0: "Pending",
	1: "Active",
	2: "Inactive",
	3: "Rejected",
}

// LevelLabel returns the academic level name.
func LevelLabel(level int) string {
	if s, ok := levelLabels[level]; ok {
		return s
	}
	return "Unknown"
}

// RoleLabel returns the group role name.
func RoleLabel(role int) string {
	if s, ok := roleLabels[role]; ok {
		return s
	}
	return "Unknown"
}

// StatusLabel returns the account or membership status name.
func StatusLabel(status int) string {
	if s, ok := statusLabels[status]; ok {
		return s
	}
	return "Unknown"
}

// Membership is a user's role in one research group.
type Membership struct {
	GroupID   int64  `json:"groupId"`
	GroupName string `json:"groupName"`
	Role      int    `json:"role"`
	RoleText  string `json:"roleText"`
}

// Profile is a user profile with display labels filled in.
type Profile struct {
	UserID       int64        `json:"userId"`
	Username     string       `json:"username"`
	FullName     string       `json:"fullName"`
	Email        string       `json:"email"`
	Phone        string       `json:"phone"`
	DepartmentID int64        `json:"departmentId"`
	Level        int          `json:"level"`
	LevelText    string       `json:"levelText"`
	Groups       []Membership `json:"groups"`
}

// ProfileUpdate holds the editable profile fields. Nil fields are unchanged.
type ProfileUpdate struct {
	FullName *string `json:"fullName,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

// Empty reports whether u changes nothing.
func (u ProfileUpdate) Empty() bool {
	return u.FullName == nil && u.Phone == nil
}

// Member is one user inside a research group.
type Member struct {
	UserID     int64  `json:"userId"`
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Role       int    `json:"role"`
	RoleText   string `json:"roleText"`
	Status     int    `json:"status"`
	StatusText string `json:"statusText"`
}

// Group is a research group the user belongs to.
type Group struct {
	GroupID       int64    `json:"groupId"`
	GroupName     string   `json:"groupName"`
	GroupType     int      `json:"groupType"`
	CurrentMember int      `json:"currentMember"`
	MaxMember     int      `json:"maxMember"`
	Members       []Member `json:"members"`
}

// DepartmentUser is one user listed under a department.
type DepartmentUser struct {
	UserID     int64  `json:"userId"`
	Username   string `json:"username"`
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Level      int    `json:"level"`
	LevelText  string `json:"levelText"`
	Status     int    `json:"status"`
	StatusText string `json:"statusText"`
}

// DepartmentUsers splits a department by academic level: Professor to PhD
// are lecturers, Master and Bachelor are students, anything else is staff.
type DepartmentUsers struct {
	Lecturers []DepartmentUser `json:"lecturers"`
	Students  []DepartmentUser `json:"students"`
	Staff     []DepartmentUser `json:"staff"`
}

// PasswordChange is the body of a password change.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
