// Package validator validates inbound request payloads.
package validator

// Validator checks a struct against its validation tags.
type Validator interface {
	Validate(data any) error
}
