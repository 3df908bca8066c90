// Copyright (c) 2014 Couchbase, Inc.
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file
// except in compliance with the License. You may obtain a copy of the License at
//   http://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software distributed under the
// License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND,
// either express or implied. See the License for the specific language governing permissions
// and limitations under the License.

package schema

import "regexp"

// partitionSuffix matches the "_p<N>" suffix a partitioned index's name
// carries over its parent template's name (spec.md §6: "partitioned
// indices follow a naming scheme from which a parent template name can be
// derived deterministically"; spec.md §8 scenario S5 uses "parted_p1"
// against template "parted_template").
var partitionSuffix = regexp.MustCompile(`^(.+)_p[0-9]+$`)

// IsPartitioned is the total predicate over index names spec.md §9 asks
// for. An index name is partitioned iff it ends in "_p" followed by one or
// more digits, with a non-empty prefix.
func IsPartitioned(indexName string) bool {
	return partitionSuffix.MatchString(indexName)
}

// ParentTemplateName derives the owning template's name from a partitioned
// index name. It returns ok=false for any name IsPartitioned rejects,
// making the pair a total function over all index names.
func ParentTemplateName(indexName string) (name string, ok bool) {
	m := partitionSuffix.FindStringSubmatch(indexName)
	if m == nil {
		return "", false
	}
	return m[1] + "_template", true
}
