package models

import (
	"context"
	"errors"
	"fmt"
)

// ConfigurationError is returned when the mirror cannot be started as configured
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Message
}

// ResourceExhaustionError is returned when the destination volume lacks free space
type ResourceExhaustionError struct {
	Path     string
	Free     int64
	Required int64
}

func (e *ResourceExhaustionError) Error() string {
	return fmt.Sprintf("not enough free space on %s: %d bytes free, %d bytes required", e.Path, e.Free, e.Required)
}

// IOError is returned when a file cannot be read or written
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// MutationError is returned when a destination rename, remove or copy fails
type MutationError struct {
	Mutation Mutation
	Path     string
	Err      error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Mutation, e.Path, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// ExitCode maps an error returned by the mirror command to a process exit code
func ExitCode(err error) int {
	if err == nil {
		return StatusSuccess.ExitCode()
	}

	var resErr *ResourceExhaustionError
	switch {
	case errors.As(err, &resErr):
		return StatusRefused.ExitCode()
	case errors.Is(err, context.Canceled):
		return StatusCancelled.ExitCode()
	default:
		return 1
	}
}
