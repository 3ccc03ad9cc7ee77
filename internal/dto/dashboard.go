package dto

// DashboardStats summarises a teacher's workload.
type DashboardStats struct {
	TotalStudents    int `db:"total_students" json:"totalStudents"`
	PendingApprovals int `db:"pending_approvals" json:"pendingApprovals"`
	TestsCreated     int `db:"tests_created" json:"testsCreated"`
	TestsAssigned    int `db:"tests_assigned" json:"testsAssigned"`
}
