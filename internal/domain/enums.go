package domain

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

// ValidRoles is the canonical set of accepted role strings.
var ValidRoles = map[Role]bool{
	RoleAdmin: true, RoleModerator: true, RoleUser: true,
}

type PeriodType string

const (
	PeriodWork PeriodType = "work"
	PeriodTest PeriodType = "test"
)

// ValidPeriodTypes is the canonical set of accepted period type strings.
var ValidPeriodTypes = map[PeriodType]bool{
	PeriodWork: true, PeriodTest: true,
}

// Default task types seeded by the initial migration. The dictionary is
// extended by inserting rows into task_types.
const (
	TaskTypeDevelopment = "development"
	TaskTypeBug         = "bug"
	TaskTypeResearch    = "research"
	TaskTypeManagement  = "management"
)

const (
	DefaultProjectColor = "#1f77b4"
	DefaultUserColor    = "#ff7f0e"
)
