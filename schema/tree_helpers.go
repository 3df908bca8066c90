// Copyright (c) 2014 Couchbase, Inc.
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file
// except in compliance with the License. You may obtain a copy of the License at
//   http://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software distributed under the
// License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND,
// either express or implied. See the License for the specific language governing permissions
// and limitations under the License.

package schema

// AsTree exposes asTree to other packages in the module (notably
// mapper's merge engine), which need to tell a nested object apart from a
// leaf scalar while walking a Tree generically.
func AsTree(v any) (*Tree, bool) {
	return asTree(v)
}
