package output

import "errors"

// Template contract violations. These indicate programming or template
// authoring bugs, never user error, and must not be degraded into a
// partial render.
var (
	// ErrTemplateNotFound means the requested template name does not
	// resolve in the template store.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrIllegalPlaceholder means the template text contains a token
	// outside its declared placeholder allow-list.
	ErrIllegalPlaceholder = errors.New("placeholder not allowed by template")

	// ErrMissingPlaceholder means the caller supplied no value for a
	// token present in the template text or its buttons.
	ErrMissingPlaceholder = errors.New("placeholder value missing")

	// ErrEditWithoutMessage means edit mode was requested without a
	// message id to edit.
	ErrEditWithoutMessage = errors.New("edit mode requires a message id")
)
