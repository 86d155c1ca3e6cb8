package models

import (
	"errors"
	"sort"
	"strings"
)

// Error taxonomy shared by DAOs, services and handlers. Callers wrap these with
// fmt.Errorf("%w: ...") and handlers classify them with errors.Is.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrOfficerNotFound    = errors.New("officer not found")
	ErrEquipmentNotFound  = errors.New("equipment not found")
	ErrInspectionNotFound = errors.New("inspection not found")
	ErrLocationNotFound   = errors.New("location not found")
	ErrConflict           = errors.New("conflict")
	ErrPersistence        = errors.New("persistence failure")
)

// ValidationError carries field-level failures and matches ErrInvalidInput
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
