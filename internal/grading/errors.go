package grading

import "fmt"

// BankValidationError reports a question set that cannot be frozen into a
// scoreable bank.
type BankValidationError struct {
	QuestionID uint   `json:"question_id,omitempty"`
	Field      string `json:"field"`
	Message    string `json:"message"`
}

func (e *BankValidationError) Error() string {
	if e.QuestionID != 0 {
		return fmt.Sprintf("invalid question %d: %s %s", e.QuestionID, e.Field, e.Message)
	}
	return fmt.Sprintf("invalid question set: %s %s", e.Field, e.Message)
}

func newBankError(questionID uint, field, message string) *BankValidationError {
	return &BankValidationError{
		QuestionID: questionID,
		Field:      field,
		Message:    message,
	}
}

// IntegrityError reports an attempt that references questions or options the
// bank does not contain. It is never silently treated as a zero score.
type IntegrityError struct {
	AttemptID  uint   `json:"attempt_id"`
	QuestionID uint   `json:"question_id"`
	OptionID   uint   `json:"option_id,omitempty"`
	Message    string `json:"message"`
}

func (e *IntegrityError) Error() string {
	if e.OptionID != 0 {
		return fmt.Sprintf("attempt %d: question %d option %d: %s",
			e.AttemptID, e.QuestionID, e.OptionID, e.Message)
	}
	return fmt.Sprintf("attempt %d: question %d: %s", e.AttemptID, e.QuestionID, e.Message)
}
