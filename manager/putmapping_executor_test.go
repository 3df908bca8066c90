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
	"testing"

	mc "github.com/couchbase/mapcoord/manager/common"
	"github.com/couchbase/mapcoord/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExecutor(registry *fakeRegistry) *PutMappingExecutor {
	return NewPutMappingExecutor(registry, DefaultResolver{}, DefaultBuilder{}, 16, false)
}

func TestPutMappingFirstEverMapping(t *testing.T) {
	registry := newFakeRegistry()
	exec := newExecutor(registry)

	state := seedState(t, map[string]*IndexMetadata{
		"idx": {Name: "idx", UUID: "uuid-1"},
	})

	next, results := exec.Execute(state, []PutMappingRequest{
		{ConcreteIndex: "idx", Source: schema.Bytes(`{"name":{"type":"string"}}`)},
	})

	require.NoError(t, results[0])
	idx, ok := next.Metadata.Index("idx")
	require.True(t, ok)
	assert.Equal(t, uint64(1), idx.MappingVersion)
}

func TestPutMappingIdempotentPutDoesNotBumpVersion(t *testing.T) {
	registry := newFakeRegistry()
	exec := newExecutor(registry)

	state := seedState(t, map[string]*IndexMetadata{
		"idx": {Name: "idx", UUID: "uuid-1"},
	})

	source := schema.Bytes(`{"name":{"type":"string"}}`)
	next, results := exec.Execute(state, []PutMappingRequest{{ConcreteIndex: "idx", Source: source}})
	require.NoError(t, results[0])

	next2, results2 := exec.Execute(next, []PutMappingRequest{{ConcreteIndex: "idx", Source: source}})
	require.NoError(t, results2[0])

	idx, _ := next2.Metadata.Index("idx")
	assert.Equal(t, uint64(1), idx.MappingVersion)
	assert.Same(t, next, next2)
}

func TestPutMappingAdditiveChangeBumpsVersion(t *testing.T) {
	registry := newFakeRegistry()
	exec := newExecutor(registry)

	state := seedState(t, map[string]*IndexMetadata{
		"idx": {Name: "idx", UUID: "uuid-1"},
	})

	next, _ := exec.Execute(state, []PutMappingRequest{
		{ConcreteIndex: "idx", Source: schema.Bytes(`{"name":{"type":"string"}}`)},
	})
	next, results := exec.Execute(next, []PutMappingRequest{
		{ConcreteIndex: "idx", Source: schema.Bytes(`{"age":{"type":"long"}}`)},
	})

	require.NoError(t, results[0])
	idx, _ := next.Metadata.Index("idx")
	assert.Equal(t, uint64(2), idx.MappingVersion)

	tree, err := idx.Mapping.Tree()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"name", "age"}, tree.Keys())
}

func TestPutMappingConflictIsRejected(t *testing.T) {
	registry := newFakeRegistry()
	exec := newExecutor(registry)

	state := seedState(t, map[string]*IndexMetadata{
		"idx": {Name: "idx", UUID: "uuid-1"},
	})

	next, _ := exec.Execute(state, []PutMappingRequest{
		{ConcreteIndex: "idx", Source: schema.Bytes(`{"name":{"type":"string"}}`)},
	})
	next2, results := exec.Execute(next, []PutMappingRequest{
		{ConcreteIndex: "idx", Source: schema.Bytes(`{"name":{"type":"long"}}`)},
	})

	require.Error(t, results[0])
	var cerr *mc.Error
	require.ErrorAs(t, results[0], &cerr)
	assert.Equal(t, mc.ERROR_MAPPING_VALIDATION, cerr.Code)
	assert.Same(t, next, next2)
}

func TestPutMappingPartitionedIndexStampsPositionFromTemplate(t *testing.T) {
	registry := newFakeRegistry()
	exec := newExecutor(registry)

	metadata := NewMetadata().
		WithIndex("parted_p1", &IndexMetadata{Name: "parted_p1", UUID: "uuid-1"}).
		WithTemplate("parted_template", &IndexTemplateMetadata{
			Name: "parted_template",
			Mapping: schema.Bytes(`{"default":{"properties":{
				"name":{"type":"string","position":1}
			}}}`),
		})
	state := NewClusterState().WithMetadata(metadata)

	next, results := exec.Execute(state, []PutMappingRequest{
		{ConcreteIndex: "parted_p1", Source: schema.Bytes(`{"default":{"properties":{"name":{"type":"string"}}}}`)},
	})

	require.NoError(t, results[0])
	idx, ok := next.Metadata.Index("parted_p1")
	require.True(t, ok)

	tree, err := idx.Mapping.Tree()
	require.NoError(t, err)
	root, ok := tree.GetTree("default")
	require.True(t, ok)
	props, ok := root.GetTree("properties")
	require.True(t, ok)
	name, ok := props.GetTree("name")
	require.True(t, ok)
	pos, ok := name.GetInt("position")
	require.True(t, ok)
	assert.Equal(t, 1, pos)
}

func TestPutMappingRequestIsolationAcrossBatch(t *testing.T) {
	registry := newFakeRegistry()
	exec := newExecutor(registry)

	state := seedState(t, map[string]*IndexMetadata{
		"a": {Name: "a", UUID: "uuid-a"},
		"b": {Name: "b", UUID: "uuid-b"},
	})

	next, results := exec.Execute(state, []PutMappingRequest{
		{ConcreteIndex: "a", Source: schema.Bytes(`{"name":{"type":"string"}}`)},
		{ConcreteIndex: "missing", Source: schema.Bytes(`{"name":{"type":"string"}}`)},
		{ConcreteIndex: "b", Source: schema.Bytes(`{"name":{"type":"string"}}`)},
	})

	require.NoError(t, results[0])
	require.Error(t, results[1])
	require.NoError(t, results[2])

	idxA, _ := next.Metadata.Index("a")
	idxB, _ := next.Metadata.Index("b")
	assert.Equal(t, uint64(1), idxA.MappingVersion)
	assert.Equal(t, uint64(1), idxB.MappingVersion)
}

func TestPutMappingReleasesTransientServicesAfterBatch(t *testing.T) {
	registry := newFakeRegistry()
	exec := newExecutor(registry)

	state := seedState(t, map[string]*IndexMetadata{
		"idx": {Name: "idx", UUID: "uuid-1"},
	})

	_, results := exec.Execute(state, []PutMappingRequest{
		{ConcreteIndex: "idx", Source: schema.Bytes(`{"name":{"type":"string"}}`)},
	})
	require.NoError(t, results[0])
	assert.Equal(t, 1, registry.removedCount("idx"))
}
