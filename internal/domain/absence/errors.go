package absence

import "errors"

// Error kinds. Every workflow error matches exactly one of these with errors.Is.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
)

var (
	ErrNoActor           = kindError(ErrUnauthorized, "no authenticated actor")
	ErrRoleNotPermitted  = kindError(ErrForbidden, "role is not permitted to decide at this stage")
	ErrNotDirectReport   = kindError(ErrForbidden, "request does not belong to a direct report")
	ErrNotOwner          = kindError(ErrForbidden, "only the owning employee may archive a request")
	ErrViewNotPermitted  = kindError(ErrForbidden, "role may not view this listing")
	ErrRequestNotFound   = kindError(ErrNotFound, "absence request not found")
	ErrStageMismatch     = kindError(ErrConflict, "absence request is no longer pending at this stage")
	ErrAlreadyArchived   = kindError(ErrConflict, "absence request is already archived")
	ErrInvalidAction     = kindError(ErrValidation, "invalid action")
	ErrStageNotDecidable = kindError(ErrValidation, "stage is not an approval stage")
	ErrNoSupervisor      = kindError(ErrValidation, "employee has no assigned supervisor")
)

type workflowError struct {
	kind error
	msg  string
}

func kindError(kind error, msg string) error {
	return &workflowError{kind: kind, msg: msg}
}

func (e *workflowError) Error() string {
	return e.msg
}

func (e *workflowError) Unwrap() error {
	return e.kind
}
