// Copyright (c) 2014 Couchbase, Inc.
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file
// except in compliance with the License. You may obtain a copy of the License at
//   http://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software distributed under the
// License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND,
// either express or implied. See the License for the specific language governing permissions
// and limitations under the License.

// Package schema models the two views spec.md §9 calls for: an opaque,
// byte-comparable Bytes (the "compressed schema document") and a mutable,
// order-preserving Tree obtained by decoding it (what spec.md's
// XContentHelper.convertToMap(bytes, ordered, JSON) produces on the
// teacher side). ColumnPositionPopulator operates only on Tree; commit
// paths re-encode to Bytes.
package schema

import (
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Tree is a mutable, key-order-preserving JSON object. It wraps
// go-go-golems-escuse-me's ordered-map dependency instead of
// map[string]interface{}, so re-encoding a parsed mapping never reshuffles
// property order the way a stdlib map would.
type Tree struct {
	om *orderedmap.OrderedMap[string, any]
}

// NewTree returns an empty Tree.
func NewTree() *Tree {
	return &Tree{om: orderedmap.New[string, any]()}
}

// Keys returns the object's keys in insertion order.
func (t *Tree) Keys() []string {
	if t == nil || t.om == nil {
		return nil
	}
	keys := make([]string, 0, t.om.Len())
	for pair := t.om.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Get returns the raw value stored under key.
func (t *Tree) Get(key string) (any, bool) {
	if t == nil || t.om == nil {
		return nil, false
	}
	return t.om.Get(key)
}

// Set stores value under key, preserving key's existing position if it was
// already present, or appending it otherwise.
func (t *Tree) Set(key string, value any) {
	if t.om == nil {
		t.om = orderedmap.New[string, any]()
	}
	t.om.Set(key, value)
}

// GetTree returns the nested object stored under key as a *Tree, or false
// if the key is absent or not an object.
func (t *Tree) GetTree(key string) (*Tree, bool) {
	v, ok := t.Get(key)
	if !ok {
		return nil, false
	}
	return asTree(v)
}

// GetInt returns the integer stored under key. JSON numbers decode as
// float64, so this also accepts float64 and normalizes it.
func (t *Tree) GetInt(key string) (int, bool) {
	v, ok := t.Get(key)
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// SetInt stores an integer value under key.
func (t *Tree) SetInt(key string, value int) {
	t.Set(key, value)
}

// Len returns the number of top-level keys.
func (t *Tree) Len() int {
	if t == nil || t.om == nil {
		return 0
	}
	return t.om.Len()
}

func asTree(v any) (*Tree, bool) {
	switch m := v.(type) {
	case *orderedmap.OrderedMap[string, any]:
		return &Tree{om: m}, true
	case *Tree:
		return m, true
	default:
		return nil, false
	}
}

// MarshalJSON lets Tree re-encode through encoding/json while keeping key
// order, since the underlying ordered-map implements json.Marshaler.
func (t *Tree) MarshalJSON() ([]byte, error) {
	if t == nil || t.om == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(t.om)
}

// UnmarshalJSON decodes into the ordered map, which recursively decodes
// nested objects as further ordered maps rather than map[string]interface{},
// preserving order at every depth.
func (t *Tree) UnmarshalJSON(data []byte) error {
	om := orderedmap.New[string, any]()
	if err := json.Unmarshal(data, om); err != nil {
		return err
	}
	t.om = om
	return nil
}
