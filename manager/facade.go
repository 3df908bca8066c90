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
	"time"

	"github.com/couchbase/mapcoord/logging"
)

// Coordinator is the single external entry point spec.md §4.1 describes:
// RefreshMapping is fire-and-forget with failures only logged, PutMapping
// blocks its caller until the batch either commits or the request's
// AckTimeout elapses.
type Coordinator struct {
	queue *SingleWriterQueue
}

// NewCoordinator wires a Coordinator in front of queue.
func NewCoordinator(queue *SingleWriterQueue) *Coordinator {
	return &Coordinator{queue: queue}
}

// RefreshMapping asks the coordinator to reconcile cluster metadata for
// one index against its local mapper. It never blocks the caller past
// submission; a failure is logged, not returned.
func (c *Coordinator) RefreshMapping(indexName, uuid string) {
	c.queue.SubmitRefresh("RefreshMapping", []RefreshTask{{IndexName: indexName, UUID: uuid}}, PriorityHigh, loggingRefreshListener{indexName: indexName})
}

type loggingRefreshListener struct {
	indexName string
}

func (l loggingRefreshListener) OnSuccess() {
	logging.Debugf("refresh mapping for %v completed", l.indexName)
}

func (l loggingRefreshListener) OnFailure(err error) {
	logging.Warnf("refresh mapping for %v failed: %v", l.indexName, err)
}

// PutMappingResult is the outcome PutMapping returns to its caller.
type PutMappingResult int

const (
	PutMappingAcked PutMappingResult = iota
	PutMappingTimedOut
	PutMappingFailed
)

// PutMapping submits request and blocks until the batch either commits,
// the request's AckTimeout elapses, or the batch fails outright (spec.md
// §4.1). The AckTimeout fires relative to submission, not to when the
// single writer thread actually picks the batch up, matching the
// teacher's client-facing ack-timeout semantics in manager.go.
func (c *Coordinator) PutMapping(request PutMappingRequest) (PutMappingResult, error) {
	done := make(chan ackOutcome, 1)
	c.queue.SubmitPutMapping("PutMapping", []PutMappingRequest{request}, PriorityHigh, request.AckTimeout, channelAckListener{done: done})

	timeout := request.AckTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	select {
	case outcome := <-done:
		if outcome.err != nil {
			return PutMappingFailed, outcome.err
		}
		return PutMappingAcked, nil
	case <-time.After(timeout):
		return PutMappingTimedOut, nil
	}
}

type ackOutcome struct {
	err error
}

type channelAckListener struct {
	done chan ackOutcome
}

func (l channelAckListener) OnAcked() {
	l.done <- ackOutcome{}
}

func (l channelAckListener) OnAckTimeout() {
	l.done <- ackOutcome{}
}

func (l channelAckListener) OnFailure(err error) {
	l.done <- ackOutcome{err: err}
}
