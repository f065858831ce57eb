package ledger

import "fmt"

// Outcome is the terminal state of one ingestion run. Every run ends in
// exactly one outcome, and every outcome maps to exactly one notification
// and at most one credit delta.
type Outcome string

const (
	Accepted                 Outcome = "accepted"
	RejectedInvalidDocument  Outcome = "rejected_invalid_document"
	RejectedCourseUnresolved Outcome = "rejected_course_unresolved"
	RejectedDuplicate        Outcome = "rejected_duplicate"
	RejectedError            Outcome = "rejected_error"
)

// CreditDelta selects the credit change for an outcome. A duplicate is not
// the submitter's fault and costs nothing; the other rejections carry the
// penalty.
func CreditDelta(o Outcome, acceptCredit, rejectPenalty int) int {
	switch o {
	case Accepted:
		return acceptCredit
	case RejectedDuplicate:
		return 0
	case RejectedInvalidDocument, RejectedCourseUnresolved, RejectedError:
		return -rejectPenalty
	}
	return 0
}

func InvalidDocumentMessage(title string) string {
	return fmt.Sprintf("Your paper [%s] has been rejected as it could not be identified as a valid exam paper. Please try again.", title)
}

func CourseUnresolvedMessage(title string) string {
	return fmt.Sprintf("Your paper [%s] has been rejected as it could not be matched with a valid course. Please try again.", title)
}

func DuplicateMessage(title string) string {
	return fmt.Sprintf("Your paper [%s] is already present in the database.", title)
}

func ErrorMessage(title, reason string) string {
	return fmt.Sprintf("Your paper [%s] has been rejected due to error: %s. Please try again.", title, reason)
}

func AcceptedMessage(courseCode, courseName, examType string) string {
	return fmt.Sprintf("Your paper [%s] %s (%s) has been approved!", courseCode, courseName, examType)
}
