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
	"time"

	"github.com/couchbase/mapcoord/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoordinator(t *testing.T, initial *ClusterState) (*Coordinator, *SingleWriterQueue) {
	t.Helper()
	registry := newFakeRegistry()
	refresh := NewRefreshExecutor(registry, DefaultBuilder{})
	put := NewPutMappingExecutor(registry, DefaultResolver{}, DefaultBuilder{}, 16, false)
	queue := NewSingleWriterQueue(initial, refresh, put)
	t.Cleanup(queue.Close)
	return NewCoordinator(queue), queue
}

func TestCoordinatorPutMappingAcksOnCommit(t *testing.T) {
	state := seedState(t, map[string]*IndexMetadata{
		"idx": {Name: "idx", UUID: "uuid-1"},
	})
	coord, queue := newTestCoordinator(t, state)

	result, err := coord.PutMapping(PutMappingRequest{
		ConcreteIndex: "idx",
		Source:        schema.Bytes(`{"name":{"type":"string"}}`),
		AckTimeout:    time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, PutMappingAcked, result)

	idx, ok := queue.State().Metadata.Index("idx")
	require.True(t, ok)
	assert.Equal(t, uint64(1), idx.MappingVersion)
}

func TestCoordinatorPutMappingReportsFailure(t *testing.T) {
	state := seedState(t, nil)
	coord, _ := newTestCoordinator(t, state)

	result, err := coord.PutMapping(PutMappingRequest{
		ConcreteIndex: "missing",
		Source:        schema.Bytes(`{"name":{"type":"string"}}`),
		AckTimeout:    time.Second,
	})
	require.Error(t, err)
	assert.Equal(t, PutMappingFailed, result)
}

func TestCoordinatorRefreshMappingDoesNotBlock(t *testing.T) {
	state := seedState(t, map[string]*IndexMetadata{
		"idx": {Name: "idx", UUID: "uuid-1"},
	})
	coord, queue := newTestCoordinator(t, state)

	coord.RefreshMapping("idx", "uuid-1")

	require.Eventually(t, func() bool {
		return queue.State() != nil
	}, time.Second, 10*time.Millisecond)
}
