// Copyright (c) 2014 Couchbase, Inc.
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file
// except in compliance with the License. You may obtain a copy of the License at
//   http://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software distributed under the
// License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND,
// either express or implied. See the License for the specific language governing permissions
// and limitations under the License.

package schema

import (
	mc "github.com/couchbase/mapcoord/manager/common"
)

// rootWrapperKey is the conventional single top-level key a mapping
// document is wrapped in (spec.md §4.4 step 1, and the "default" wrapper
// used throughout spec.md's worked examples, e.g. S1: `{"default":
// {"properties": {...}}}`).
const rootWrapperKey = "default"

const propertiesKey = "properties"
const innerKey = "inner"
const positionKey = "position"

// unwrapRoot descends into the conventional single top-level wrapper if
// present, otherwise operates on the root itself (spec.md §4.4 step 1).
func unwrapRoot(t *Tree) *Tree {
	if t == nil {
		return NewTree()
	}
	if t.Len() == 1 {
		if keys := t.Keys(); len(keys) == 1 && keys[0] == rootWrapperKey {
			if inner, ok := t.GetTree(rootWrapperKey); ok {
				return inner
			}
		}
	}
	return t
}

// descendInner follows the "inner" wrapper a collection-of-object property
// carries around its element definition (spec.md §4.4 step 3: "if the
// property has an inner wrapper ... descend into it").
func descendInner(p *Tree) *Tree {
	if p == nil {
		return nil
	}
	if inner, ok := p.GetTree(innerKey); ok {
		return inner
	}
	return p
}

// Populate mutates indexMapping in place so that every property reachable
// under its "properties" carries the position integer assigned to the
// homonymous property in templateMapping (spec.md §4.4). allowLegacy
// implements the policy spec.md §9's first Open Question asks a
// reimplementation to make explicit: when true, a template property
// missing `position` is silently skipped (pre-boundary compatibility);
// when false it is a hard ERROR_MAPPING_VALIDATION.
func Populate(indexMapping, templateMapping *Tree, allowLegacy bool) error {
	indexRoot := unwrapRoot(indexMapping)
	templateRoot := unwrapRoot(templateMapping)

	indexProps, ok := indexRoot.GetTree(propertiesKey)
	if !ok {
		return nil
	}

	templateProps, ok := templateRoot.GetTree(propertiesKey)
	if !ok {
		templateProps = NewTree()
	}

	return populateProperties(indexProps, templateProps, allowLegacy)
}

func populateProperties(indexProps, templateProps *Tree, allowLegacy bool) error {
	for _, name := range indexProps.Keys() {
		indexProp, _ := indexProps.GetTree(name)
		if indexProp == nil {
			continue
		}

		templateProp, hasTemplateProp := templateProps.GetTree(name)

		workingIndex := descendInner(indexProp)
		var workingTemplate *Tree
		if hasTemplateProp {
			workingTemplate = descendInner(templateProp)
		} else {
			workingTemplate = NewTree()
		}

		if hasTemplateProp {
			position, hasPosition := workingTemplate.GetInt(positionKey)
			if !hasPosition {
				if !allowLegacy {
					return mc.NewError(mc.ERROR_MAPPING_VALIDATION, mc.NORMAL, mc.COLUMN_POSITION_POPULATOR, nil,
						"template property '"+name+"' is missing a required position")
				}
				// Legacy-compatibility case: skip the assignment, still
				// recurse so nested properties get their own chance.
			} else {
				workingIndex.SetInt(positionKey, position)
			}
		}

		childIndexProps, hasChildIndexProps := workingIndex.GetTree(propertiesKey)
		if !hasChildIndexProps {
			continue
		}
		childTemplateProps, ok := workingTemplate.GetTree(propertiesKey)
		if !ok {
			childTemplateProps = NewTree()
		}

		if err := populateProperties(childIndexProps, childTemplateProps, allowLegacy); err != nil {
			return err
		}
	}

	return nil
}
