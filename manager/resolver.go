// Copyright (c) 2014 Couchbase, Inc.
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file
// except in compliance with the License. You may obtain a copy of the License at
//   http://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software distributed under the
// License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND,
// either express or implied. See the License for the specific language governing permissions
// and limitations under the License.

package manager

import (
	"path"

	mc "github.com/couchbase/mapcoord/manager/common"
)

// DefaultResolver expands a PutMappingRequest's expression into concrete
// index names against the live Metadata, supporting an exact name or a
// filepath.Match-style glob (spec.md §4.3's "resolve index expression to
// concrete indices").
type DefaultResolver struct{}

func (DefaultResolver) Resolve(state *ClusterState, expression string) ([]string, error) {
	if state == nil || state.Metadata == nil {
		return nil, mc.NewError(mc.ERROR_REQUEST_RESOLUTION, mc.NORMAL, mc.COORDINATOR, nil,
			"cannot resolve index expression against a nil cluster state")
	}

	if _, ok := state.Metadata.Index(expression); ok {
		return []string{expression}, nil
	}

	var matches []string
	for _, name := range state.Metadata.IndexNames() {
		ok, err := path.Match(expression, name)
		if err != nil {
			return nil, mc.NewError(mc.ERROR_REQUEST_RESOLUTION, mc.NORMAL, mc.COORDINATOR, err,
				"malformed index expression '"+expression+"'")
		}
		if ok {
			matches = append(matches, name)
		}
	}

	if len(matches) == 0 {
		return nil, mc.NewError(mc.ERROR_REQUEST_RESOLUTION, mc.NORMAL, mc.COORDINATOR, nil,
			"index expression '"+expression+"' matched no index")
	}
	return matches, nil
}
