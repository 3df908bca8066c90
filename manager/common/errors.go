// Copyright (c) 2014 Couchbase, Inc.
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file
// except in compliance with the License. You may obtain a copy of the License at
//   http://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software distributed under the
// License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND,
// either express or implied. See the License for the specific language governing permissions
// and limitations under the License.

// Package common holds the error taxonomy shared by the RefreshExecutor
// and PutMappingExecutor, mirroring the teacher's manager/common package
// (imported as "mc" by manager/client/defn.go) and its NewError(code,
// severity, component, cause, msg) constructor convention.
package common

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCode enumerates the error kinds from spec.md §7.
type ErrorCode int

const (
	// ERROR_REQUEST_RESOLUTION covers empty index expansion and unknown
	// index expressions. Per-request failure.
	ERROR_REQUEST_RESOLUTION ErrorCode = iota + 1
	// ERROR_MAPPING_PARSE covers malformed schema source. Per-request failure.
	ERROR_MAPPING_PARSE
	// ERROR_MAPPING_VALIDATION covers dry-run merge rejection (type
	// conflicts, forbidden field changes). Per-request failure.
	ERROR_MAPPING_VALIDATION
	// ERROR_STATE_INCONSISTENCY covers an IndexMetadata expected but
	// absent mid-batch. Per-request failure; the core never fabricates
	// metadata.
	ERROR_STATE_INCONSISTENCY
	// ERROR_EXECUTOR_FATAL covers cluster-state builder errors and
	// unexpected I/O while releasing resources. Batch-level failure.
	ERROR_EXECUTOR_FATAL
)

func (c ErrorCode) String() string {
	switch c {
	case ERROR_REQUEST_RESOLUTION:
		return "RequestResolutionError"
	case ERROR_MAPPING_PARSE:
		return "MappingParseError"
	case ERROR_MAPPING_VALIDATION:
		return "MappingValidationError"
	case ERROR_STATE_INCONSISTENCY:
		return "StateInconsistency"
	case ERROR_EXECUTOR_FATAL:
		return "ExecutorFatal"
	default:
		return "UnknownError"
	}
}

// Severity mirrors the teacher's NORMAL/FATAL severity constants used
// alongside NewError in manager.go.
type Severity int

const (
	NORMAL Severity = iota
	FATAL
)

// Component names the subsystem that raised the error, mirroring the
// teacher's INDEX_MANAGER component constant.
type Component int

const (
	REFRESH_EXECUTOR Component = iota + 1
	PUTMAPPING_EXECUTOR
	COLUMN_POSITION_POPULATOR
	COORDINATOR
)

func (c Component) String() string {
	switch c {
	case REFRESH_EXECUTOR:
		return "RefreshExecutor"
	case PUTMAPPING_EXECUTOR:
		return "PutMappingExecutor"
	case COLUMN_POSITION_POPULATOR:
		return "ColumnPositionPopulator"
	case COORDINATOR:
		return "Coordinator"
	default:
		return "Unknown"
	}
}

// Error is the coordinator's single error type. It carries enough
// structure for callers to branch on Code (per-request vs batch-level,
// §7) while preserving the underlying cause for logs.
type Error struct {
	Code      ErrorCode
	Severity  Severity
	Component Component
	Cause     error
	Message   string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s [%s/%s]: %s: %v", e.Code, e.Component, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s [%s/%s]: %s", e.Code, e.Component, e.Severity, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func (s Severity) String() string {
	if s == FATAL {
		return "FATAL"
	}
	return "NORMAL"
}

// NewError constructs a *Error, wrapping cause with github.com/pkg/errors
// so stack context survives logging without the core having to roll its
// own wrapping helper.
func NewError(code ErrorCode, severity Severity, component Component, cause error, message string) *Error {
	if cause != nil {
		cause = errors.WithStack(cause)
	}
	return &Error{Code: code, Severity: severity, Component: component, Cause: cause, Message: message}
}

// IsBatchFatal reports whether err should fail the whole batch rather than
// just the request that produced it (§7 propagation policy).
func IsBatchFatal(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ERROR_EXECUTOR_FATAL
	}
	return false
}
