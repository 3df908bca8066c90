// Copyright (c) 2014 Couchbase, Inc.
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file
// except in compliance with the License. You may obtain a copy of the License at
//   http://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software distributed under the
// License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND,
// either express or implied. See the License for the specific language governing permissions
// and limitations under the License.

package schema

import (
	"bytes"
	"encoding/json"

	mc "github.com/couchbase/mapcoord/manager/common"
)

// Bytes is the opaque, canonical-JSON schema document referred to in
// spec.md §3 as "compressed schema document (canonical JSON-like tree);
// its source bytes". Byte-equal Bytes values are semantically equal
// (spec.md's MappingMetadata invariant); no normalization happens here
// beyond what Decode/Encode already apply.
type Bytes []byte

// Equal reports byte-identity, the equality notion MappingMetadata relies
// on throughout spec.md (version monotonicity, idempotent no-op PUTs).
func (b Bytes) Equal(other Bytes) bool {
	return bytes.Equal(b, other)
}

func (b Bytes) String() string {
	return string(b)
}

// Decode parses source into a mutable Tree, the Go analogue of
// XContentHelper.convertToMap(bytes, ordered, JSON) named in spec.md §6.
// A malformed source surfaces as a MappingParseError.
func Decode(source Bytes) (*Tree, error) {
	if len(source) == 0 {
		return NewTree(), nil
	}
	t := &Tree{}
	if err := json.Unmarshal(source, t); err != nil {
		return nil, mc.NewError(mc.ERROR_MAPPING_PARSE, mc.NORMAL, mc.PUTMAPPING_EXECUTOR, err,
			"schema source is not well-formed JSON")
	}
	return t, nil
}

// Encode re-serializes a Tree to its canonical Bytes form, preserving the
// key order Decode captured.
func Encode(t *Tree) (Bytes, error) {
	if t == nil {
		return Bytes("{}"), nil
	}
	data, err := json.Marshal(t)
	if err != nil {
		return nil, mc.NewError(mc.ERROR_EXECUTOR_FATAL, mc.NORMAL, mc.PUTMAPPING_EXECUTOR, err,
			"failed to re-encode mapping tree")
	}
	return Bytes(data), nil
}
