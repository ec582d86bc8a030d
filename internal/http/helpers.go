package http

import (
	"errors"

	"personalbudget/internal/core"
)

// parseErrorResponse maps a request parsing failure to its client response.
func parseErrorResponse(err error) *JSONResponseBuilder {
	switch {
	case errors.Is(err, errFieldsRequired):
		return BadRequestError(MsgFieldsRequired)
	case errors.Is(err, errInvalidColor):
		return BadRequestError(MsgInvalidColor)
	default:
		return BadRequestError(MsgInvalidBody)
	}
}

// createErrorResponse maps an entry service failure to its client response.
func createErrorResponse(err error) *JSONResponseBuilder {
	switch {
	case errors.Is(err, core.ErrDuplicateKey):
		return ConflictError(MsgDuplicate)
	case errors.Is(err, core.ErrMissingField):
		return BadRequestError(MsgFieldsRequired)
	case errors.Is(err, core.ErrInvalidColorCode):
		return BadRequestError(MsgInvalidColor)
	case errors.Is(err, core.ErrValidation):
		return BadRequestError(MsgInvalidEntry)
	default:
		return InternalServerError()
	}
}
