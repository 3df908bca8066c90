// Copyright (c) 2014 Couchbase, Inc.
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file
// except in compliance with the License. You may obtain a copy of the License at
//   http://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software distributed under the
// License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND,
// either express or implied. See the License for the specific language governing permissions
// and limitations under the License.

package common

/////////////////////////////////////////////////////////////////////////
// Merge Reason
////////////////////////////////////////////////////////////////////////

// MergeReason is the enum the core passes through to MapperService.Merge
// (spec.md §6), mirroring the OPCODE_* const block convention in the
// teacher's manager/client/defn.go.
type MergeReason int

const (
	// MAPPING_RECOVERY seeds an ephemeral mapper with the mapping
	// already recorded in cluster metadata, so cross-property validation
	// sees the full prior schema. Used when priming a transient
	// IndexService (RefreshExecutor) or an ephemeral MapperService
	// (PutMappingExecutor) for the first time.
	MAPPING_RECOVERY MergeReason = iota + 1
	// MAPPING_UPDATE commits a user-initiated schema change.
	MAPPING_UPDATE
)

func (r MergeReason) String() string {
	switch r {
	case MAPPING_RECOVERY:
		return "MAPPING_RECOVERY"
	case MAPPING_UPDATE:
		return "MAPPING_UPDATE"
	default:
		return "UNKNOWN_MERGE_REASON"
	}
}
