// Copyright (c) 2014 Couchbase, Inc.
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file
// except in compliance with the License. You may obtain a copy of the License at
//   http://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software distributed under the
// License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND,
// either express or implied. See the License for the specific language governing permissions
// and limitations under the License.

// Command mapcoordd wires a Coordinator from configuration and keeps it
// running. Its only command-line surface is the -config and -log-level
// flags, and it exposes no network protocol (an explicit Non-goal). It exists so the coordinator can be run as
// a long-lived process embedded by whatever owns RefreshMapping/PutMapping
// calls on this node.
package main

import (
	"flag"
	"os"

	"github.com/couchbase/mapcoord/config"
	"github.com/couchbase/mapcoord/indexsvc"
	"github.com/couchbase/mapcoord/logging"
	"github.com/couchbase/mapcoord/manager"
	"github.com/couchbase/mapcoord/mapper"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file (optional)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	logging.SetLevel(*logLevel)

	var raw []byte
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			logging.Fatalf("failed to read config file %v: %v", *configPath, err)
		}
		raw = data
	}

	cfg, err := config.Load(raw)
	if err != nil {
		logging.Fatalf("failed to load configuration: %v", err)
	}

	registry := indexsvc.NewRegistry(mapper.SimpleFactory{})
	resolver := manager.DefaultResolver{}
	builder := manager.DefaultBuilder{}

	refreshExecutor := manager.NewRefreshExecutor(registry, builder)
	putMappingExecutor := manager.NewPutMappingExecutor(
		registry, resolver, builder,
		cfg.MaxConcurrentMapperServices,
		cfg.AllowLegacyMissingPosition,
	)

	queue := manager.NewSingleWriterQueue(manager.NewClusterState(), refreshExecutor, putMappingExecutor)
	defer queue.Close()

	_ = manager.NewCoordinator(queue)

	logging.Infof("mapcoordd ready (ack timeout %v, max concurrent mapper services %v)",
		cfg.DefaultAckTimeout, cfg.MaxConcurrentMapperServices)

	select {}
}
