// Copyright (c) 2014 Couchbase, Inc.
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file
// except in compliance with the License. You may obtain a copy of the License at
//   http://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software distributed under the
// License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND,
// either express or implied. See the License for the specific language governing permissions
// and limitations under the License.

// Package indexsvc provides a reference, in-memory IndexServiceRegistry.
// Real deployments back this with the node's local index storage; this
// implementation exists so the executors in manager have something real
// to drive in tests and in the standalone command.
package indexsvc

import (
	"sync"

	"github.com/couchbase/mapcoord/logging"
	"github.com/couchbase/mapcoord/manager"
	"github.com/couchbase/mapcoord/mapper"
)

// Service is the reference IndexService: a thin holder around a
// mapper.Service, tagged with whether it was created transiently for one
// executor pass or represents a genuinely locally-open index.
type Service struct {
	index     string
	svc       mapper.Service
	ephemeral bool
}

func (s *Service) MapperService() mapper.Service {
	return s.svc
}

// Registry is a reference IndexServiceRegistry backed by a map guarded by
// a mutex, mirroring the locking style of the teacher's MetadataRepo.
type Registry struct {
	mu       sync.Mutex
	services map[string]*Service
	factory  manager.MapperServiceFactory
}

// NewRegistry builds a Registry whose Create mints mapper services through
// factory; Lookup only returns services Create has already registered.
func NewRegistry(factory manager.MapperServiceFactory) *Registry {
	return &Registry{
		services: make(map[string]*Service),
		factory:  factory,
	}
}

func (r *Registry) Lookup(index string) (manager.IndexService, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	svc, ok := r.services[index]
	if !ok {
		return nil, false
	}
	return svc, true
}

func (r *Registry) Create(indexMetadata *manager.IndexMetadata) (manager.IndexService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.services[indexMetadata.Name]; ok {
		return existing, nil
	}

	mapperSvc, err := r.factory.NewMapperService(indexMetadata.Name)
	if err != nil {
		return nil, err
	}

	svc := &Service{index: indexMetadata.Name, svc: mapperSvc, ephemeral: true}
	r.services[indexMetadata.Name] = svc
	return svc, nil
}

func (r *Registry) Remove(index string, reason manager.IndexServiceReleaseReason, detail string) error {
	r.mu.Lock()
	svc, ok := r.services[index]
	if ok {
		delete(r.services, index)
	}
	r.mu.Unlock()

	if !ok {
		return nil
	}

	logging.Debugf("indexsvc: releasing index service for %v, reason %v (%v)", index, reason, detail)
	return svc.svc.Close()
}
