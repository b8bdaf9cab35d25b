package errcodes

import (
	"fmt"
)

type Error struct {
	Message string
	Code    string
}

func (err *Error) Error() string {
	return err.Message
}

func (err *Error) As(target interface{}) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	te.Message = err.Message
	te.Code = err.Code
	return true
}

func (err *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.Message == err.Message &&
		te.Code == err.Code
}

// NotFound returns an error with a message indicating the given resource.
func NotFound(resource string) error {
	return &Error{
		resource + " not found.",
		"not_found",
	}
}

// AlreadyExists is returned when a unique catalog key is already taken.
func AlreadyExists(resource string) error {
	return &Error{
		resource + " already exists.",
		"already_exists",
	}
}

func ValidationError(msg string) error {
	return &Error{
		msg,
		"validation_error",
	}
}

func UnknownJobType(jobType string) error {
	return &Error{
		fmt.Sprintf("Unknown job type %q", jobType),
		"unknown_job_type",
	}
}
