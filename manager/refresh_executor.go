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
	"github.com/couchbase/mapcoord/logging"
	mc "github.com/couchbase/mapcoord/manager/common"
)

// RefreshExecutor reconciles cluster metadata against what each index's
// local mapper actually holds (spec.md §4.2). It never rejects a task for
// mapping content reasons; it only discovers drift and folds it in, or
// discards a task whose UUID no longer matches the index it named.
type RefreshExecutor struct {
	registry IndexServiceRegistry
	builder  ClusterStateBuilder
}

// NewRefreshExecutor wires a RefreshExecutor against registry (for
// acquiring per-index mapper handles) and builder (for producing the next
// cluster revision).
func NewRefreshExecutor(registry IndexServiceRegistry, builder ClusterStateBuilder) *RefreshExecutor {
	return &RefreshExecutor{registry: registry, builder: builder}
}

func (e *RefreshExecutor) Name() string { return "refresh" }

// Execute runs one refresh batch. The returned map carries a nil entry for
// every task that succeeded (including stale-UUID no-ops) and a non-nil
// error for every task that could not be reconciled; one task's failure
// never prevents another task in the same batch from being applied
// (spec.md §8 property 5, per-task isolation).
func (e *RefreshExecutor) Execute(current *ClusterState, tasks []RefreshTask) (*ClusterState, map[string]error) {
	if current == nil {
		current = NewClusterState()
	}

	metadata := current.Metadata
	results := make(map[string]error, len(tasks))
	changed := false

	for _, task := range tasks {
		if task.IndexName == "" {
			logging.Warnf("refresh: dropping task with empty index name")
			continue
		}
		updated, err := e.refreshOne(metadata, task)
		results[task.IndexName] = err
		if err != nil {
			logging.Warnf("refresh: index %v failed: %v", task.IndexName, err)
			continue
		}
		if updated != nil {
			metadata = updated
			changed = true
		}
	}

	if !changed {
		return current, results
	}

	next, err := e.builder.Build(current, metadata)
	if err != nil {
		logging.Errorf("refresh: failed to build next cluster state: %v", err)
		fatal := mc.NewError(mc.ERROR_EXECUTOR_FATAL, mc.FATAL, mc.REFRESH_EXECUTOR, err,
			"could not build next cluster state")
		for index := range results {
			results[index] = fatal
		}
		return current, results
	}
	return next, results
}

// refreshOne reconciles a single index. It returns (nil, nil) for a
// no-op (stale UUID, or the live mapper already matches cluster
// metadata), and a non-nil *Metadata only when the index's recorded
// mapping actually needs to move forward.
func (e *RefreshExecutor) refreshOne(metadata *Metadata, task RefreshTask) (*Metadata, error) {
	idx, ok := metadata.Index(task.IndexName)
	if !ok {
		return nil, mc.NewError(mc.ERROR_STATE_INCONSISTENCY, mc.NORMAL, mc.REFRESH_EXECUTOR, nil,
			"no cluster metadata for index '"+task.IndexName+"'")
	}

	if idx.UUID != task.UUID {
		logging.Debugf("refresh: discarding stale task for %v: have UUID %v, task UUID %v",
			task.IndexName, idx.UUID, task.UUID)
		return nil, nil
	}

	svc, existed := e.registry.Lookup(task.IndexName)
	if !existed {
		created, err := e.registry.Create(idx)
		if err != nil {
			return nil, mc.NewError(mc.ERROR_EXECUTOR_FATAL, mc.NORMAL, mc.REFRESH_EXECUTOR, err,
				"could not acquire a transient index service for '"+task.IndexName+"'")
		}
		svc = created
		defer e.registry.Remove(task.IndexName, ReasonNoLongerAssigned, "refresh pass complete")

		if len(idx.Mapping.Source) > 0 {
			if _, err := svc.MapperService().Merge(idx.Mapping.Source, mc.MAPPING_RECOVERY); err != nil {
				return nil, mc.NewError(mc.ERROR_MAPPING_PARSE, mc.NORMAL, mc.REFRESH_EXECUTOR, err,
					"failed to seed recovered mapping for '"+task.IndexName+"'")
			}
		}
	}

	dm := svc.MapperService().DocumentMapper()
	if dm == nil {
		return nil, nil
	}

	live := dm.MappingSource()
	if idx.Mapping.Source.Equal(live) {
		return nil, nil
	}

	// No mapping-version bump here: refresh reports ground truth, it
	// does not define an update (spec.md §4.2, §9's second open
	// question).
	updated := &IndexMetadata{
		Name:           idx.Name,
		UUID:           idx.UUID,
		Mapping:        MappingMetadata{Source: live},
		MappingVersion: idx.MappingVersion,
	}
	return metadata.WithIndex(task.IndexName, updated), nil
}
