// Copyright (c) 2014 Couchbase, Inc.
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file
// except in compliance with the License. You may obtain a copy of the License at
//   http://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software distributed under the
// License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND,
// either express or implied. See the License for the specific language governing permissions
// and limitations under the License.

package manager

// DefaultBuilder produces the next cluster revision as a copy-on-write
// wrap of the supplied Metadata, bumping Version exactly once per call
// regardless of how many indices changed within it (spec.md §4: "each
// executor invocation, if it changes anything, produces exactly one new
// cluster state").
type DefaultBuilder struct{}

func (DefaultBuilder) Build(current *ClusterState, metadata *Metadata) (*ClusterState, error) {
	if current == nil {
		current = NewClusterState()
	}
	return current.WithMetadata(metadata), nil
}
