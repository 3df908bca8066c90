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
	"sync"

	mc "github.com/couchbase/mapcoord/manager/common"
	"github.com/couchbase/mapcoord/schema"
)

// Simple is a minimal, in-process MapperService good enough to drive the
// executors end-to-end in tests. It is not the mapper engine spec.md §1
// scopes out; it is the concrete stand-in this repo supplies so that
// interface (spec.md §6) has something to talk to.
type Simple struct {
	mu        sync.Mutex
	installed *simpleDocumentMapper
	closed    bool
}

// NewSimple returns an empty Simple with no installed mapper.
func NewSimple() *Simple {
	return &Simple{}
}

type simpleDocumentMapper struct {
	tree   *schema.Tree
	source schema.Bytes
}

func (d *simpleDocumentMapper) Merge(other DocumentMapper) error {
	o, ok := other.(*simpleDocumentMapper)
	if !ok {
		return mc.NewError(mc.ERROR_EXECUTOR_FATAL, mc.NORMAL, mc.PUTMAPPING_EXECUTOR, nil,
			"DocumentMapper.Merge called across incompatible implementations")
	}
	_, err := mergeNode(d.tree, o.tree)
	return err
}

func (d *simpleDocumentMapper) MappingSource() schema.Bytes {
	return d.source
}

func (s *Simple) Parse(source schema.Bytes) (DocumentMapper, error) {
	tree, err := schema.Decode(source)
	if err != nil {
		return nil, err
	}
	return &simpleDocumentMapper{tree: tree, source: source}, nil
}

func (s *Simple) Merge(source schema.Bytes, reason mc.MergeReason) (DocumentMapper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, mc.NewError(mc.ERROR_EXECUTOR_FATAL, mc.NORMAL, mc.PUTMAPPING_EXECUTOR, nil,
			"Merge called on a closed MapperService")
	}

	candidate, err := schema.Decode(source)
	if err != nil {
		return nil, err
	}

	if s.installed == nil {
		s.installed = &simpleDocumentMapper{tree: candidate, source: source}
		return s.installed, nil
	}

	merged, err := mergeNode(s.installed.tree, candidate)
	if err != nil {
		return nil, err
	}
	encoded, err := schema.Encode(merged)
	if err != nil {
		return nil, err
	}

	s.installed = &simpleDocumentMapper{tree: merged, source: encoded}
	return s.installed, nil
}

func (s *Simple) DocumentMapper() DocumentMapper {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.installed == nil {
		return nil
	}
	return s.installed
}

func (s *Simple) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
