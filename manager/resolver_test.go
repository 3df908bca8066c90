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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultResolverExactName(t *testing.T) {
	state := seedState(t, map[string]*IndexMetadata{
		"orders": {Name: "orders", UUID: "u1"},
	})

	matches, err := DefaultResolver{}.Resolve(state, "orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"orders"}, matches)
}

func TestDefaultResolverWildcard(t *testing.T) {
	state := seedState(t, map[string]*IndexMetadata{
		"orders_p1": {Name: "orders_p1", UUID: "u1"},
		"orders_p2": {Name: "orders_p2", UUID: "u2"},
		"other":     {Name: "other", UUID: "u3"},
	})

	matches, err := DefaultResolver{}.Resolve(state, "orders_p*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"orders_p1", "orders_p2"}, matches)
}

func TestDefaultResolverNoMatchIsError(t *testing.T) {
	state := seedState(t, nil)
	_, err := DefaultResolver{}.Resolve(state, "nothing*")
	require.Error(t, err)
}
