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
	"sync"
	"time"

	"github.com/couchbase/mapcoord/logging"
	mc "github.com/couchbase/mapcoord/manager/common"
)

// SingleWriterQueue is a reference StateQueue: every submitted batch runs
// on the same background goroutine, one at a time, against whatever
// ClusterState the previous batch produced (spec.md §5's "single master
// state update thread" requirement). It is good enough to drive the
// executors end-to-end; a clustered deployment replaces this with a
// real distributed consensus queue without changing Executor or
// Coordinator.
type SingleWriterQueue struct {
	refresh *RefreshExecutor
	put     *PutMappingExecutor

	mu      sync.Mutex
	current *ClusterState

	work chan func()
	stop chan struct{}
}

// NewSingleWriterQueue starts the writer goroutine against initial.
func NewSingleWriterQueue(initial *ClusterState, refresh *RefreshExecutor, put *PutMappingExecutor) *SingleWriterQueue {
	if initial == nil {
		initial = NewClusterState()
	}
	q := &SingleWriterQueue{
		refresh: refresh,
		put:     put,
		current: initial,
		work:    make(chan func(), 256),
		stop:    make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *SingleWriterQueue) run() {
	for {
		select {
		case fn := <-q.work:
			fn()
		case <-q.stop:
			for {
				select {
				case fn := <-q.work:
					fn()
				default:
					return
				}
			}
		}
	}
}

// Close stops the writer goroutine once everything already queued has
// run. Batches submitted after Close are never run.
func (q *SingleWriterQueue) Close() {
	close(q.stop)
}

// State returns the cluster state most recently committed by the writer
// thread.
func (q *SingleWriterQueue) State() *ClusterState {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current
}

func (q *SingleWriterQueue) SubmitRefresh(source string, tasks []RefreshTask, priority Priority, listener RefreshListener) {
	q.work <- func() {
		q.mu.Lock()
		current := q.current
		q.mu.Unlock()

		next, results := q.refresh.Execute(current, tasks)

		q.mu.Lock()
		q.current = next
		q.mu.Unlock()

		for index, err := range results {
			if err != nil {
				logging.Warnf("refresh batch from %v: index %v failed: %v", source, index, err)
			}
		}
		if listener == nil {
			return
		}
		if batchErr := firstFatal(results); batchErr != nil {
			listener.OnFailure(batchErr)
			return
		}
		listener.OnSuccess()
	}
}

func (q *SingleWriterQueue) SubmitPutMapping(source string, requests []PutMappingRequest, priority Priority, timeout time.Duration, listener AckListener) {
	q.work <- func() {
		q.mu.Lock()
		current := q.current
		q.mu.Unlock()

		next, results := q.put.Execute(current, requests)

		q.mu.Lock()
		q.current = next
		q.mu.Unlock()

		if listener == nil {
			return
		}
		for _, err := range results {
			if err != nil {
				listener.OnFailure(err)
				return
			}
		}
		listener.OnAcked()
	}
}

func firstFatal(results map[string]error) error {
	for _, err := range results {
		if err != nil && mc.IsBatchFatal(err) {
			return err
		}
	}
	return nil
}
