// Copyright (c) 2014 Couchbase, Inc.
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file
// except in compliance with the License. You may obtain a copy of the License at
//   http://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software distributed under the
// License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND,
// either express or implied. See the License for the specific language governing permissions
// and limitations under the License.

package mapper

// SimpleFactory builds a fresh Simple MapperService per call, satisfying
// Factory. It never reuses state across indices, matching the contract
// spec.md §2 describes: a service to "obtain an ephemeral mapper for
// indices not locally open".
type SimpleFactory struct{}

func (SimpleFactory) NewMapperService(index string) (Service, error) {
	return NewSimple(), nil
}
