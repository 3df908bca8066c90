// Copyright (c) 2014 Couchbase, Inc.
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file
// except in compliance with the License. You may obtain a copy of the License at
//   http://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software distributed under the
// License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND,
// either express or implied. See the License for the specific language governing permissions
// and limitations under the License.

// Package mapper declares the MapperService contract spec.md §6 lists as
// an external collaborator ("the mapper engine that parses and merges
// schema documents") and provides a minimal reference implementation
// (Simple) good enough to drive the executors end-to-end in tests -
// spec.md treats the real engine as out of scope, but without a concrete
// stand-in the S1-S7 scenarios in spec.md §8 have nothing to execute
// against.
package mapper

import (
	mc "github.com/couchbase/mapcoord/manager/common"
	"github.com/couchbase/mapcoord/schema"
)

// DocumentMapper is the parsed, mergeable form of one schema document
// (spec.md §6: "DocumentMapper.merge(other) for simulate;
// DocumentMapper.mappingSource() returning a compressed, canonical byte
// image").
type DocumentMapper interface {
	// Merge simulates folding other into this mapper without mutating
	// either side, returning a validation error if the two are not
	// mergeable (type conflicts, forbidden field changes).
	Merge(other DocumentMapper) error

	// MappingSource returns this mapper's canonical byte image.
	MappingSource() schema.Bytes
}

// Service is the per-index mapper contract (spec.md §6). Merges are
// associative only up to successful validation (spec.md §3).
type Service interface {
	// Parse decodes source into a candidate DocumentMapper without
	// installing it.
	Parse(source schema.Bytes) (DocumentMapper, error)

	// Merge folds source into the service's installed mapper under the
	// given reason, replacing it with the merged result on success.
	Merge(source schema.Bytes, reason mc.MergeReason) (DocumentMapper, error)

	// DocumentMapper returns the currently installed mapper, or nil if
	// none has been installed yet.
	DocumentMapper() DocumentMapper

	// Close releases the service. Safe to call more than once.
	Close() error
}

// Factory obtains an ephemeral Service for an index that is not locally
// resident (spec.md §2's "mapper-service factory").
type Factory interface {
	NewMapperService(index string) (Service, error)
}
