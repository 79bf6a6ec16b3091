package rbac

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleStudent    Role = "student"
)

const (
	PermQuestionRead  = "question:read"
	PermQuestionWrite = "question:write"
	PermSessionOwn    = "session:own" // create, fetch, submit and score one's own session
	PermSessionList   = "session:list"
	PermPasswordOwn   = "user:change_password"
)

// RolePermissions is the backend's default policy.
var RolePermissions = map[Role][]string{
	RoleStudent: {
		PermQuestionRead,
		PermSessionOwn,
		PermPasswordOwn,
	},
	RoleSupervisor: {
		PermQuestionRead,
		PermSessionList,
		PermPasswordOwn,
	},
	RoleAdmin: {
		"*",
	},
}
