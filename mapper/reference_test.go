// Copyright (c) 2014 Couchbase, Inc.
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file
// except in compliance with the License. You may obtain a copy of the License at
//   http://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software distributed under the
// License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND,
// either express or implied. See the License for the specific language governing permissions
// and limitations under the License.

package mapper

import (
	"testing"

	mc "github.com/couchbase/mapcoord/manager/common"
	"github.com/couchbase/mapcoord/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleMergeFirstMappingInstalls(t *testing.T) {
	svc := NewSimple()
	source := schema.Bytes(`{"name":{"type":"string"}}`)

	dm, err := svc.Merge(source, mc.MAPPING_UPDATE)
	require.NoError(t, err)
	assert.True(t, source.Equal(dm.MappingSource()))
	assert.Same(t, dm, svc.DocumentMapper())
}

func TestSimpleMergeAdditiveChangeUpdatesSource(t *testing.T) {
	svc := NewSimple()
	_, err := svc.Merge(schema.Bytes(`{"name":{"type":"string"}}`), mc.MAPPING_RECOVERY)
	require.NoError(t, err)

	dm, err := svc.Merge(schema.Bytes(`{"age":{"type":"long"}}`), mc.MAPPING_UPDATE)
	require.NoError(t, err)

	tree, err := schema.Decode(dm.MappingSource())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"name", "age"}, tree.Keys())
}

func TestSimpleMergeConflictIsRejectedAndStateUnchanged(t *testing.T) {
	svc := NewSimple()
	first := schema.Bytes(`{"name":{"type":"string"}}`)
	_, err := svc.Merge(first, mc.MAPPING_RECOVERY)
	require.NoError(t, err)

	_, err = svc.Merge(schema.Bytes(`{"name":{"type":"long"}}`), mc.MAPPING_UPDATE)
	require.Error(t, err)

	assert.True(t, first.Equal(svc.DocumentMapper().MappingSource()))
}

func TestSimpleCloseRejectsFurtherMerges(t *testing.T) {
	svc := NewSimple()
	require.NoError(t, svc.Close())

	_, err := svc.Merge(schema.Bytes(`{"name":{"type":"string"}}`), mc.MAPPING_UPDATE)
	require.Error(t, err)
}

func TestSimpleFactoryBuildsFreshServices(t *testing.T) {
	var factory SimpleFactory
	a, err := factory.NewMapperService("idx-a")
	require.NoError(t, err)
	b, err := factory.NewMapperService("idx-b")
	require.NoError(t, err)

	_, err = a.Merge(schema.Bytes(`{"name":{"type":"string"}}`), mc.MAPPING_UPDATE)
	require.NoError(t, err)

	assert.Nil(t, b.DocumentMapper())
}
