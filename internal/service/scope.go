package service

import "github.com/arkanlabs/course-feedback-api/internal/models"

// feedbackScopeFor maps the caller onto the query scope every feedback read
// goes through: admins see the whole tenant, teachers see their courses,
// students see their own submissions.
func feedbackScopeFor(actor models.Actor) models.FeedbackScope {
	switch {
	case actor.IsAdmin():
		return models.FeedbackScope{}
	case actor.IsTeacher():
		return models.FeedbackScope{InstructorName: actor.FullName}
	default:
		return models.FeedbackScope{StudentName: actor.FullName}
	}
}
