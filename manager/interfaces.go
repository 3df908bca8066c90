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
	"time"

	"github.com/couchbase/mapcoord/mapper"
)

// MetadataResolver expands an index expression against a ClusterState
// into concrete index names (spec.md §6: "resolve(state, request) ->
// concrete indices").
type MetadataResolver interface {
	Resolve(state *ClusterState, expression string) ([]string, error)
}

// ClusterStateBuilder produces the next cluster revision from the current
// one and an updated Metadata (spec.md §2's "cluster-state builder").
type ClusterStateBuilder interface {
	Build(current *ClusterState, metadata *Metadata) (*ClusterState, error)
}

// IndexService is the per-index handle RefreshExecutor and
// PutMappingExecutor use to reach a mapper (spec.md §6's IndexService
// registry contract, narrowed to the one method the core needs).
type IndexService interface {
	MapperService() mapper.Service
}

// IndexServiceReleaseReason names why a transient IndexService is being
// torn down (spec.md §5: "scoped acquisition with mandatory release
// tagged with a reason").
type IndexServiceReleaseReason string

const (
	ReasonNoLongerAssigned      IndexServiceReleaseReason = "NO_LONGER_ASSIGNED"
	ReasonCreatedForMappingWork IndexServiceReleaseReason = "created for mapping processing"
)

// IndexServiceRegistry is the external index-service lifecycle collaborator
// (spec.md §6: lookup/create/remove).
type IndexServiceRegistry interface {
	// Lookup returns the locally open IndexService for index, if any.
	Lookup(index string) (IndexService, bool)

	// Create constructs a transient IndexService for indexMetadata. The
	// caller is responsible for removing it via Remove once done.
	Create(indexMetadata *IndexMetadata) (IndexService, error)

	// Remove tears down a transient IndexService, tagged with reason and
	// a free-form detail string for logs.
	Remove(index string, reason IndexServiceReleaseReason, detail string) error
}

// MapperServiceFactory obtains an ephemeral mapper.Service for an index
// that may not be locally resident (spec.md §2).
type MapperServiceFactory interface {
	NewMapperService(index string) (mapper.Service, error)
}

// Priority mirrors the high-priority-only scheduling the facade uses for
// both task kinds (spec.md §4.1).
type Priority int

const (
	PriorityHigh Priority = iota
)

// Executor is the small interface both RefreshExecutor and
// PutMappingExecutor implement. It carries only Name: each executor's
// Execute method runs one atomic (state, tasks) -> state transformation
// with its own task and result types, and SingleWriterQueue calls those
// methods directly on the concrete executors.
type Executor interface {
	// Name identifies the executor.
	Name() string
}

// RefreshListener is notified once a RefreshTask batch completes
// (spec.md §4.1: "fire-and-forget completion callback that logs
// failures").
type RefreshListener interface {
	OnSuccess()
	OnFailure(err error)
}

// AckListener is notified of a PutMapping batch's outcome (spec.md §4.1).
type AckListener interface {
	OnAcked()
	OnAckTimeout()
	OnFailure(err error)
}

// StateQueue is the cluster-state submission queue spec.md §1 names as an
// external collaborator: out of scope to implement for real, but the
// facade depends on its contract (spec.md §6: "submit(source, task,
// priority+timeout, executor, listener)"). SubmitRefresh and
// SubmitPutMapping are typed convenience entry points over that one
// contract, since Go's executor signatures differ per task kind.
type StateQueue interface {
	SubmitRefresh(source string, tasks []RefreshTask, priority Priority, listener RefreshListener)
	SubmitPutMapping(source string, requests []PutMappingRequest, priority Priority, timeout time.Duration, listener AckListener)
}
