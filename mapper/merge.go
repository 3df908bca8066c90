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
	"reflect"

	"dario.cat/mergo"
	mc "github.com/couchbase/mapcoord/manager/common"
	"github.com/couchbase/mapcoord/schema"
)

// mergeNode is Simple's merge engine. It walks dst and src in lockstep:
// keys present as nested objects on both sides recurse; keys present as a
// nested object on one side and a scalar on the other, or present as
// conflicting scalars on both sides, fail with a validation error (spec.md
// §7's "type conflicts, forbidden field changes"); everything else is
// assembled through dario.cat/mergo, which owns the actual attribute-map
// merge once conflict detection has cleared a node.
func mergeNode(dst, src *schema.Tree) (*schema.Tree, error) {
	if dst == nil {
		dst = schema.NewTree()
	}
	if src == nil {
		return dst, nil
	}

	result := schema.NewTree()
	dstScalars := map[string]any{}
	srcScalars := map[string]any{}
	structural := map[string]bool{}
	seen := map[string]bool{}

	for _, key := range dst.Keys() {
		seen[key] = true
		dv, _ := dst.Get(key)
		dstSub, dstIsTree := schema.AsTree(dv)
		if !dstIsTree {
			if sv, hasSrc := src.Get(key); hasSrc {
				if _, srcIsTree := schema.AsTree(sv); srcIsTree {
					return nil, conflictErr(key)
				}
			}
			dstScalars[key] = dv
			continue
		}
		sv, hasSrc := src.Get(key)
		if !hasSrc {
			result.Set(key, dstSub)
			structural[key] = true
			continue
		}
		srcSub, srcIsTree := schema.AsTree(sv)
		if !srcIsTree {
			return nil, conflictErr(key)
		}
		merged, err := mergeNode(dstSub, srcSub)
		if err != nil {
			return nil, err
		}
		result.Set(key, merged)
		structural[key] = true
	}

	for _, key := range src.Keys() {
		if seen[key] {
			continue
		}
		sv, _ := src.Get(key)
		if srcSub, ok := schema.AsTree(sv); ok {
			result.Set(key, srcSub)
			structural[key] = true
		} else {
			srcScalars[key] = sv
		}
	}

	for key, sv := range srcScalars {
		if dv, ok := dstScalars[key]; ok && !scalarEqual(dv, sv) {
			return nil, conflictErr(key)
		}
	}

	merged := make(map[string]any, len(dstScalars))
	for k, v := range dstScalars {
		merged[k] = v
	}
	if err := mergo.Merge(&merged, srcScalars, mergo.WithOverride()); err != nil {
		return nil, mc.NewError(mc.ERROR_EXECUTOR_FATAL, mc.NORMAL, mc.PUTMAPPING_EXECUTOR, err,
			"failed to merge mapping attributes")
	}

	for _, key := range dst.Keys() {
		if structural[key] {
			continue
		}
		if v, ok := merged[key]; ok {
			result.Set(key, v)
			delete(merged, key)
		}
	}
	for _, key := range src.Keys() {
		if _, already := result.Get(key); already {
			continue
		}
		if v, ok := merged[key]; ok {
			result.Set(key, v)
			delete(merged, key)
		}
	}

	return result, nil
}

func conflictErr(field string) error {
	return mc.NewError(mc.ERROR_MAPPING_VALIDATION, mc.NORMAL, mc.PUTMAPPING_EXECUTOR, nil,
		"conflicting definition for field '"+field+"'")
}

func scalarEqual(a, b any) bool {
	return reflect.DeepEqual(normalizeNumber(a), normalizeNumber(b))
}

// normalizeNumber treats JSON's float64-only numbers and Go int literals
// as the same value, so a position written as int and later decoded as
// float64 never looks like a conflict.
func normalizeNumber(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	default:
		return v
	}
}
