// Copyright (c) 2014 Couchbase, Inc.
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file
// except in compliance with the License. You may obtain a copy of the License at
//   http://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software distributed under the
// License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND,
// either express or implied. See the License for the specific language governing permissions
// and limitations under the License.

// Package config holds construction-time settings for the coordinator,
// mirroring the teacher's common.Config shape (a key/value bag threaded
// into NewIndexManager) but loaded through viper/yaml the way
// go-go-golems-escuse-me loads its Elasticsearch client settings.
package config

import (
	"bytes"
	"time"

	"github.com/spf13/viper"
)

// Config is the subset of cluster-wide settings the coordinator needs at
// construction time. It never changes the semantics of spec.md; it only
// supplies the defaults and tunables spec.md leaves to "the surrounding
// system" (ack timeout, batch sizing, legacy-position compatibility).
type Config struct {
	// DefaultAckTimeout is reported by mapcoordd at startup. It is not
	// passed to the Coordinator, which waits a fixed 30 seconds for a
	// PutMappingRequest that carries no acknowledgement timeout of its own.
	DefaultAckTimeout time.Duration

	// MaxConcurrentMapperServices bounds the ephemeral MapperService
	// cache kept by a single PutMappingExecutor invocation (§4.3 step 2).
	MaxConcurrentMapperServices int

	// AllowLegacyMissingPosition governs the Open Question in spec.md §9:
	// whether a template property missing `position` is a hard error
	// (false, the default) or silently skipped (true). The setting applies
	// to every partitioned index this process updates; there is no
	// per-index origin flag.
	AllowLegacyMissingPosition bool
}

// Defaults returns the configuration used when no override is supplied.
func Defaults() Config {
	return Config{
		DefaultAckTimeout:           30 * time.Second,
		MaxConcurrentMapperServices: 256,
		AllowLegacyMissingPosition:  false,
	}
}

// Load reads YAML configuration from raw (if non-empty) and layers it over
// Defaults(), the way escuse-me's pkg/es.go layers viper.Get* calls over
// library defaults.
func Load(raw []byte) (Config, error) {
	cfg := Defaults()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("ack_timeout", cfg.DefaultAckTimeout.String())
	v.SetDefault("max_concurrent_mapper_services", cfg.MaxConcurrentMapperServices)
	v.SetDefault("allow_legacy_missing_position", cfg.AllowLegacyMissingPosition)

	if len(raw) > 0 {
		if err := v.ReadConfig(bytes.NewReader(raw)); err != nil {
			return Config{}, err
		}
	}

	ackTimeout, err := time.ParseDuration(v.GetString("ack_timeout"))
	if err != nil {
		return Config{}, err
	}

	cfg.DefaultAckTimeout = ackTimeout
	cfg.MaxConcurrentMapperServices = v.GetInt("max_concurrent_mapper_services")
	cfg.AllowLegacyMissingPosition = v.GetBool("allow_legacy_missing_position")

	return cfg, nil
}
