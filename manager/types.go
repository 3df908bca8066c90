// Copyright (c) 2014 Couchbase, Inc.
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file
// except in compliance with the License. You may obtain a copy of the License at
//   http://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software distributed under the
// License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND,
// either express or implied. See the License for the specific language governing permissions
// and limitations under the License.

// Package manager is the cluster-state task executor: RefreshExecutor and
// PutMappingExecutor, the Coordinator facade in front of them, and the data
// model both operate on. It plays the role the teacher's
// secondary/manager package plays for index definitions and topology
// (manager.go's IndexManager, meta_repo.go's MetadataRepo, topology.go's
// IndexTopology), adapted from "who owns which index instance on which
// node" to "what mapping revision does cluster metadata currently record".
package manager

import (
	"time"

	"github.com/google/uuid"

	"github.com/couchbase/mapcoord/schema"
)

// ClusterState is an immutable cluster-metadata revision (spec.md §3).
// Every mutation yields a new value; readers share a ClusterState freely.
type ClusterState struct {
	Version  uint64
	Metadata *Metadata
}

// NewClusterState returns the initial, empty revision.
func NewClusterState() *ClusterState {
	return &ClusterState{Version: 0, Metadata: NewMetadata()}
}

// WithMetadata returns a new ClusterState wrapping metadata at the next
// version. It never mutates the receiver.
func (s *ClusterState) WithMetadata(metadata *Metadata) *ClusterState {
	return &ClusterState{Version: s.Version + 1, Metadata: metadata}
}

// Metadata maps index name -> IndexMetadata and template name ->
// IndexTemplateMetadata (spec.md §3). It is copy-on-write: every mutator
// returns a new *Metadata, leaving the receiver untouched, so a
// ClusterState already handed to a reader never changes under it.
type Metadata struct {
	indices   map[string]*IndexMetadata
	templates map[string]*IndexTemplateMetadata
}

// NewMetadata returns empty Metadata.
func NewMetadata() *Metadata {
	return &Metadata{
		indices:   map[string]*IndexMetadata{},
		templates: map[string]*IndexTemplateMetadata{},
	}
}

// Index looks up an index by name.
func (m *Metadata) Index(name string) (*IndexMetadata, bool) {
	if m == nil {
		return nil, false
	}
	im, ok := m.indices[name]
	return im, ok
}

// Template looks up a template by name.
func (m *Metadata) Template(name string) (*IndexTemplateMetadata, bool) {
	if m == nil {
		return nil, false
	}
	t, ok := m.templates[name]
	return t, ok
}

// IndexNames returns every index name currently recorded, for resolvers
// that need to enumerate concrete indices (e.g. wildcard expansion).
func (m *Metadata) IndexNames() []string {
	if m == nil {
		return nil
	}
	names := make([]string, 0, len(m.indices))
	for name := range m.indices {
		names = append(names, name)
	}
	return names
}

// WithIndex returns a new Metadata with name bound to im, leaving every
// other entry (and the receiver) unchanged.
func (m *Metadata) WithIndex(name string, im *IndexMetadata) *Metadata {
	next := &Metadata{
		indices:   make(map[string]*IndexMetadata, len(m.indices)+1),
		templates: m.templates,
	}
	for k, v := range m.indices {
		next.indices[k] = v
	}
	next.indices[name] = im
	return next
}

// WithTemplate returns a new Metadata with name bound to t.
func (m *Metadata) WithTemplate(name string, t *IndexTemplateMetadata) *Metadata {
	next := &Metadata{
		indices:   m.indices,
		templates: make(map[string]*IndexTemplateMetadata, len(m.templates)+1),
	}
	for k, v := range m.templates {
		next.templates[k] = v
	}
	next.templates[name] = t
	return next
}

// IndexMetadata is the per-index record spec.md §3 describes. UUID is the
// authoritative identity; Name may alias multiple UUIDs over its lifetime
// (an index can be dropped and recreated under the same name), which is
// why RefreshTask carries the UUID it expects to find, not just the name.
type IndexMetadata struct {
	Name           string
	UUID           string
	Mapping        MappingMetadata
	MappingVersion uint64
}

// MappingMetadata is an index's current schema document (spec.md §3).
// Source is the canonical byte image; Tree lazily decodes it on demand
// rather than caching a parsed copy nobody may ever need.
type MappingMetadata struct {
	Source schema.Bytes
}

// Tree decodes Source into a mutable Tree. Callers that only need to
// compare or store Source should not call this.
func (m MappingMetadata) Tree() (*schema.Tree, error) {
	return schema.Decode(m.Source)
}

// IndexTemplateMetadata is the authoritative column-position source for a
// partitioned index's partitions (spec.md §3).
type IndexTemplateMetadata struct {
	Name    string
	Mapping schema.Bytes
}

// NewIndexMetadata returns an IndexMetadata for a brand-new index with a
// freshly minted identity, mirroring the teacher's convention of stamping
// a random UUID as an index's authoritative identity at creation time
// rather than deriving one from its name.
func NewIndexMetadata(name string) *IndexMetadata {
	return &IndexMetadata{Name: name, UUID: uuid.NewString()}
}

// RefreshTask asks the RefreshExecutor to reconcile cluster metadata for
// one index against what its local mapper actually holds (spec.md §3). A
// task whose UUID doesn't match the index's current UUID is discarded
// (spec.md §8 property 2, the "identity gate").
type RefreshTask struct {
	IndexName string
	UUID      string
}

// PutMappingRequest is one user-submitted mapping update (spec.md §3).
// Either ConcreteIndex is set, or Expression is resolved against the
// current state at execution time.
type PutMappingRequest struct {
	ConcreteIndex string
	Expression    string
	Source        schema.Bytes
	AckTimeout    time.Duration
}

// expression returns what the resolver should expand for this request, the
// way spec.md §4.3 step 1 describes: the pre-resolved ConcreteIndex if set,
// otherwise Expression.
func (r PutMappingRequest) expression() string {
	if r.ConcreteIndex != "" {
		return r.ConcreteIndex
	}
	return r.Expression
}
