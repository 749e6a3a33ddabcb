package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ServiceNotFoundError is returned when no container matches a service of the project.
type ServiceNotFoundError struct {
	Service string
}

func NewServiceNotFoundError(service string) *ServiceNotFoundError {
	return &ServiceNotFoundError{Service: service}
}

func (e *ServiceNotFoundError) Error() string {
	return fmt.Sprintf("no such service: %s", e.Service)
}

func IsServiceNotFoundError(err error) bool {
	var e *ServiceNotFoundError
	return errors.As(err, &e)
}

// AmbiguousServiceError is returned when more than one container matches a service.
// It means the one-container-per-service invariant of the project is broken.
type AmbiguousServiceError struct {
	Service    string
	Containers []string
}

func NewAmbiguousServiceError(service string, containers []string) *AmbiguousServiceError {
	return &AmbiguousServiceError{Service: service, Containers: containers}
}

func (e *AmbiguousServiceError) Error() string {
	return fmt.Sprintf("there is more than one container running with name %s: %s", e.Service, strings.Join(e.Containers, ", "))
}

func IsAmbiguousServiceError(err error) bool {
	var e *AmbiguousServiceError
	return errors.As(err, &e)
}

type PortNotPublishedError struct {
	Service string
	Port    int
}

func NewPortNotPublishedError(service string, port int) *PortNotPublishedError {
	return &PortNotPublishedError{Service: service, Port: port}
}

func (e *PortNotPublishedError) Error() string {
	return fmt.Sprintf("for service %s: no such port: %d", e.Service, e.Port)
}

func IsPortNotPublishedError(err error) bool {
	var e *PortNotPublishedError
	return errors.As(err, &e)
}

// LaunchFailedError is returned when the bootstrap service exits with a non-zero code.
type LaunchFailedError struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

func NewLaunchFailedError(stdout, stderr []byte, exitCode int) *LaunchFailedError {
	return &LaunchFailedError{Stdout: stdout, Stderr: stderr, ExitCode: exitCode}
}

func (e *LaunchFailedError) Error() string {
	return fmt.Sprintf("container start failed (code %d): output follows.\nstdout:\n%s\nstderr:\n%s", e.ExitCode, e.Stdout, e.Stderr)
}

func IsLaunchFailedError(err error) bool {
	var e *LaunchFailedError
	return errors.As(err, &e)
}

// CommandFailedError is returned by callers that want a hard failure on a non-zero exit.
type CommandFailedError struct {
	Command  []string
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

func NewCommandFailedError(command []string, stdout, stderr []byte, exitCode int) *CommandFailedError {
	return &CommandFailedError{Command: command, Stdout: stdout, Stderr: stderr, ExitCode: exitCode}
}

func (e *CommandFailedError) Error() string {
	return fmt.Sprintf("command %q failed (code %d): %s", strings.Join(e.Command, " "), e.ExitCode, strings.TrimSpace(string(e.Stderr)))
}

func IsCommandFailedError(err error) bool {
	var e *CommandFailedError
	return errors.As(err, &e)
}

type ConfigurationError struct {
	Field  string
	Reason string
}

func NewConfigurationError(field, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: reason}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

func IsConfigurationError(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}

// NoMoreTriesError is returned by the polling helpers once every attempt failed.
type NoMoreTriesError struct {
	Message string
}

func NewNoMoreTriesError(message string) *NoMoreTriesError {
	return &NoMoreTriesError{Message: message}
}

func (e *NoMoreTriesError) Error() string {
	if e.Message == "" {
		return "no more tries"
	}
	return e.Message
}

func IsNoMoreTriesError(err error) bool {
	var e *NoMoreTriesError
	return errors.As(err, &e)
}
