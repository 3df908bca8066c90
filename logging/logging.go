// Copyright (c) 2014 Couchbase, Inc.
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file
// except in compliance with the License. You may obtain a copy of the License at
//   http://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software distributed under the
// License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND,
// either express or implied. See the License for the specific language governing permissions
// and limitations under the License.

// Package logging is the coordinator's lone entry point for writing log
// lines. Every other package calls Infof/Debugf/Warnf/Errorf/Fatalf instead
// of reaching for the standard logger directly, so the logging backend can
// be swapped without touching call sites.
package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mutex  sync.RWMutex
	logger zerolog.Logger
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger().Level(zerolog.InfoLevel)
}

// SetOutput redirects subsequent log lines to w, JSON-encoded. Tests use
// this to capture output instead of writing to stderr.
func SetOutput(w io.Writer) {
	mutex.Lock()
	defer mutex.Unlock()
	logger = zerolog.New(w).With().Timestamp().Logger().Level(logger.GetLevel())
}

// SetLevel changes the minimum level that reaches the backend. Valid values
// are "debug", "info", "warn", "error", "fatal".
func SetLevel(level string) {
	mutex.Lock()
	defer mutex.Unlock()
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	logger = logger.Level(lvl)
}

func current() zerolog.Logger {
	mutex.RLock()
	defer mutex.RUnlock()
	return logger
}

func Debugf(format string, args ...interface{}) {
	current().Debug().Msgf(format, args...)
}

func Infof(format string, args ...interface{}) {
	current().Info().Msgf(format, args...)
}

func Warnf(format string, args ...interface{}) {
	current().Warn().Msgf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	current().Error().Msgf(format, args...)
}

// Fatalf logs at fatal level and terminates the process, matching the
// teacher's logging.Fatalf convention (e.g. unrecoverable startup errors in
// secondary/cmd/indexer). Only the cmd entrypoint should call this.
func Fatalf(format string, args ...interface{}) {
	current().Fatal().Msgf(format, args...)
}
