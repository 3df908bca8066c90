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
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/couchbase/mapcoord/logging"
	mc "github.com/couchbase/mapcoord/manager/common"
	"github.com/couchbase/mapcoord/schema"
)

// PutMappingExecutor applies a batch of mapping updates (spec.md §4.3).
// Each request is processed in isolation against the metadata produced by
// the requests before it in the same batch, so a later request in the
// batch sees the effects of an earlier one even though neither is
// committed to cluster state until the whole batch completes.
type PutMappingExecutor struct {
	registry         IndexServiceRegistry
	resolver         MetadataResolver
	builder          ClusterStateBuilder
	cacheSize        int
	allowLegacyNoPos bool
}

// NewPutMappingExecutor wires a PutMappingExecutor. cacheSize bounds how
// many transient IndexServices a single batch keeps warm at once before
// evicting the least recently used one (spec.md §4.3's "per-batch
// ephemeral mapper cache"). allowLegacyMissingPosition controls whether
// ColumnPositionPopulator tolerates a template silent on a field's
// position (spec.md §9 open question).
func NewPutMappingExecutor(registry IndexServiceRegistry, resolver MetadataResolver, builder ClusterStateBuilder, cacheSize int, allowLegacyMissingPosition bool) *PutMappingExecutor {
	return &PutMappingExecutor{
		registry:         registry,
		resolver:         resolver,
		builder:          builder,
		cacheSize:        cacheSize,
		allowLegacyNoPos: allowLegacyMissingPosition,
	}
}

func (e *PutMappingExecutor) Name() string { return "put_mapping" }

// Execute runs one PutMapping batch in submission order. The returned
// slice has one entry per request, nil on success.
func (e *PutMappingExecutor) Execute(current *ClusterState, requests []PutMappingRequest) (*ClusterState, []error) {
	if current == nil {
		current = NewClusterState()
	}

	size := e.cacheSize
	if size <= 0 {
		size = 1
	}
	cache, err := lru.NewWithEvict[string, IndexService](size, func(index string, svc IndexService) {
		if rerr := e.registry.Remove(index, ReasonCreatedForMappingWork, "evicted under batch cache pressure"); rerr != nil {
			logging.Warnf("put_mapping: failed to release evicted index service for %v: %v", index, rerr)
		}
	})
	if err != nil {
		logging.Errorf("put_mapping: failed to allocate batch mapper cache: %v", err)
		results := make([]error, len(requests))
		for i := range results {
			results[i] = mc.NewError(mc.ERROR_EXECUTOR_FATAL, mc.FATAL, mc.PUTMAPPING_EXECUTOR, err,
				"could not allocate batch mapper cache")
		}
		return current, results
	}

	metadata := current.Metadata
	results := make([]error, len(requests))

	for i, req := range requests {
		updated, rerr := e.applyOne(current, metadata, cache, req)
		results[i] = rerr
		if rerr != nil {
			logging.Warnf("put_mapping: request %d (%v) failed: %v", i, req.expression(), rerr)
			continue
		}
		if updated != nil {
			metadata = updated
		}
	}

	for _, index := range cache.Keys() {
		cache.Remove(index)
	}

	if metadata == current.Metadata {
		return current, results
	}

	next, berr := e.builder.Build(current, metadata)
	if berr != nil {
		logging.Errorf("put_mapping: failed to build next cluster state: %v", berr)
		for i := range results {
			results[i] = mc.NewError(mc.ERROR_EXECUTOR_FATAL, mc.FATAL, mc.PUTMAPPING_EXECUTOR, berr,
				"could not build next cluster state")
		}
		return current, results
	}
	return next, results
}

// applyOne resolves req against metadata, applies it to every concrete
// index it names, and returns the resulting Metadata (or nil if nothing
// changed).
func (e *PutMappingExecutor) applyOne(current *ClusterState, metadata *Metadata, cache *lru.Cache[string, IndexService], req PutMappingRequest) (*Metadata, error) {
	scratch := &ClusterState{Version: current.Version, Metadata: metadata}
	targets, err := e.resolver.Resolve(scratch, req.expression())
	if err != nil {
		return nil, err
	}

	working := metadata
	for _, name := range targets {
		updated, err := e.applyToIndex(working, cache, name, req)
		if err != nil {
			return nil, err
		}
		if updated != nil {
			working = updated
		}
	}

	if working == metadata {
		return nil, nil
	}
	return working, nil
}

func (e *PutMappingExecutor) applyToIndex(metadata *Metadata, cache *lru.Cache[string, IndexService], name string, req PutMappingRequest) (*Metadata, error) {
	idx, ok := metadata.Index(name)
	if !ok {
		return nil, mc.NewError(mc.ERROR_STATE_INCONSISTENCY, mc.NORMAL, mc.PUTMAPPING_EXECUTOR, nil,
			"no cluster metadata for index '"+name+"'")
	}

	svc, justCreated, err := e.acquire(cache, idx)
	if err != nil {
		return nil, err
	}

	if justCreated && len(idx.Mapping.Source) > 0 {
		if _, err := svc.MapperService().Merge(idx.Mapping.Source, mc.MAPPING_RECOVERY); err != nil {
			return nil, mc.NewError(mc.ERROR_MAPPING_PARSE, mc.NORMAL, mc.PUTMAPPING_EXECUTOR, err,
				"failed to seed existing mapping for '"+name+"'")
		}
	}

	candidate, err := e.populateForIndex(metadata, name, req.Source)
	if err != nil {
		return nil, err
	}

	// Dry-run merge (spec.md §4.3 step 3): parse the candidate without
	// installing it, then simulate its merge against whatever is already
	// installed so a validation failure surfaces before anything commits.
	parsed, err := svc.MapperService().Parse(candidate)
	if err != nil {
		return nil, err
	}
	if installed := svc.MapperService().DocumentMapper(); installed != nil {
		if err := installed.Merge(parsed); err != nil {
			return nil, err
		}
	}

	// Commit merge (spec.md §4.3 step 4).
	dm, err := svc.MapperService().Merge(candidate, mc.MAPPING_UPDATE)
	if err != nil {
		return nil, err
	}

	newSource := dm.MappingSource()
	if idx.Mapping.Source.Equal(newSource) {
		return nil, nil
	}

	updated := &IndexMetadata{
		Name:           idx.Name,
		UUID:           idx.UUID,
		Mapping:        MappingMetadata{Source: newSource},
		MappingVersion: idx.MappingVersion + 1,
	}
	return metadata.WithIndex(name, updated), nil
}

// populateForIndex runs ColumnPositionPopulator against the owning
// template when name is a partitioned index (spec.md §4.4); for any other
// index it returns source unchanged.
func (e *PutMappingExecutor) populateForIndex(metadata *Metadata, name string, source schema.Bytes) (schema.Bytes, error) {
	if !schema.IsPartitioned(name) {
		return source, nil
	}

	templateName, ok := schema.ParentTemplateName(name)
	if !ok {
		return source, nil
	}
	template, ok := metadata.Template(templateName)
	if !ok {
		return source, nil
	}

	candidateTree, err := schema.Decode(source)
	if err != nil {
		return nil, err
	}
	templateTree, err := schema.Decode(template.Mapping)
	if err != nil {
		return nil, mc.NewError(mc.ERROR_MAPPING_PARSE, mc.NORMAL, mc.COLUMN_POSITION_POPULATOR, err,
			"malformed template mapping for '"+templateName+"'")
	}

	if err := schema.Populate(candidateTree, templateTree, e.allowLegacyNoPos); err != nil {
		return nil, err
	}
	return schema.Encode(candidateTree)
}

// acquire returns the IndexService to use for idx, along with whether it
// was just created by this call (as opposed to a locally open service, or
// one already warm in this batch's cache) — the caller uses that to
// decide whether the service still needs seeding from cluster metadata.
func (e *PutMappingExecutor) acquire(cache *lru.Cache[string, IndexService], idx *IndexMetadata) (svc IndexService, justCreated bool, err error) {
	if svc, ok := e.registry.Lookup(idx.Name); ok {
		return svc, false, nil
	}
	if svc, ok := cache.Get(idx.Name); ok {
		return svc, false, nil
	}

	created, err := e.registry.Create(idx)
	if err != nil {
		return nil, false, mc.NewError(mc.ERROR_EXECUTOR_FATAL, mc.NORMAL, mc.PUTMAPPING_EXECUTOR, err,
			"could not acquire a transient index service for '"+idx.Name+"'")
	}
	cache.Add(idx.Name, created)
	return created, true, nil
}
