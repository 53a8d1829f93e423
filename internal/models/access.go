package models

// Permission names a grantable operation, mirroring the permission tree the
// route gates are built from.
type Permission string

const (
	PermCoursesView     Permission = "courses.view"
	PermCoursesCreate   Permission = "courses.create"
	PermCoursesEdit     Permission = "courses.edit"
	PermCoursesDelete   Permission = "courses.delete"
	PermFeedbacksView   Permission = "feedbacks.view"
	PermFeedbacksCreate Permission = "feedbacks.create"
	PermFeedbacksEdit   Permission = "feedbacks.edit"
	PermFeedbacksDelete Permission = "feedbacks.delete"
	PermDashboardView   Permission = "dashboard.view"
	PermSettingsManage  Permission = "settings.manage"
)

// rolePermissions is the static grant table. Teachers hold course
// edit/delete so the scoping rules in the services, not the grant table,
// decide which rows they may touch.
var rolePermissions = map[UserRole]map[Permission]struct{}{
	RoleAdmin: permissionSet(
		PermCoursesView, PermCoursesCreate, PermCoursesEdit, PermCoursesDelete,
		PermFeedbacksView, PermFeedbacksEdit, PermFeedbacksDelete,
		PermDashboardView, PermSettingsManage,
	),
	RoleTeacher: permissionSet(
		PermCoursesView, PermCoursesCreate, PermCoursesEdit, PermCoursesDelete,
		PermFeedbacksView, PermFeedbacksDelete,
		PermDashboardView,
	),
	RoleStudent: permissionSet(
		PermCoursesView,
		PermFeedbacksView, PermFeedbacksCreate, PermFeedbacksEdit, PermFeedbacksDelete,
		PermDashboardView,
	),
}

func permissionSet(perms ...Permission) map[Permission]struct{} {
	set := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// Actor is the authenticated caller, resolved once per request from JWT
// claims and threaded into every service call.
type Actor struct {
	UserID   string
	TenantID string
	FullName string
	Role     UserRole
}

// IsAdmin reports whether the actor holds the Admin role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// IsTeacher reports whether the actor holds the Teacher role.
func (a Actor) IsTeacher() bool { return a.Role == RoleTeacher }

// IsStudent reports whether the actor holds the Student role.
func (a Actor) IsStudent() bool { return a.Role == RoleStudent }

// IsGranted reports whether the actor's role includes the permission.
func (a Actor) IsGranted(perm Permission) bool {
	grants, ok := rolePermissions[a.Role]
	if !ok {
		return false
	}
	_, ok = grants[perm]
	return ok
}

// OwnsCourse reports whether the actor is the course instructor. Ownership is
// compared by display name for compatibility with the legacy data model;
// switching to a stable user identifier only needs to change this predicate.
func (a Actor) OwnsCourse(course *Course) bool {
	return course != nil && course.InstructorName == a.FullName
}

// OwnsFeedback reports whether the actor is the submitting student. Same
// display-name caveat as OwnsCourse.
func (a Actor) OwnsFeedback(feedback *Feedback) bool {
	return feedback != nil && feedback.StudentName == a.FullName
}

// ActorFromClaims builds the per-request actor from validated JWT claims.
func ActorFromClaims(claims *JWTClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{
		UserID:   claims.UserID,
		TenantID: claims.TenantID,
		FullName: claims.FullName,
		Role:     claims.Role,
	}
}
