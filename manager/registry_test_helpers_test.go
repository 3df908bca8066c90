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
	"sync"

	"github.com/couchbase/mapcoord/mapper"
)

// fakeIndexService wraps a mapper.Service so tests can satisfy
// IndexService without pulling in indexsvc (which imports manager, and
// would cycle).
type fakeIndexService struct {
	svc mapper.Service
}

func (f *fakeIndexService) MapperService() mapper.Service { return f.svc }

// fakeRegistry is an in-memory IndexServiceRegistry for executor tests. It
// records every Remove call so tests can assert on release discipline.
type fakeRegistry struct {
	mu      sync.Mutex
	local   map[string]*fakeIndexService
	created map[string]*fakeIndexService
	removed []string
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		local:   map[string]*fakeIndexService{},
		created: map[string]*fakeIndexService{},
	}
}

// seedLocal registers index as already locally open, as if some other
// part of the system had it assigned before the executor ran.
func (r *fakeRegistry) seedLocal(index string, svc mapper.Service) *fakeIndexService {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &fakeIndexService{svc: svc}
	r.local[index] = s
	return s
}

func (r *fakeRegistry) Lookup(index string) (IndexService, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.local[index]
	if !ok {
		return nil, false
	}
	return s, true
}

func (r *fakeRegistry) Create(indexMetadata *IndexMetadata) (IndexService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.created[indexMetadata.Name]; ok {
		return existing, nil
	}
	s := &fakeIndexService{svc: mapper.NewSimple()}
	r.created[indexMetadata.Name] = s
	return s, nil
}

func (r *fakeRegistry) Remove(index string, reason IndexServiceReleaseReason, detail string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.created, index)
	r.removed = append(r.removed, index)
	return nil
}

func (r *fakeRegistry) removedCount(index string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, idx := range r.removed {
		if idx == index {
			n++
		}
	}
	return n
}
