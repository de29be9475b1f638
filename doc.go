// Package spawnpool provides an asynchronous keyed object pool for game
// object instances backed by a pluggable asset store.
//
// The library is organized around three pieces:
//
//  1. Asset resolution (pkg/asset): a Resolver loads asset payloads from a
//     Backend (in-memory or Redis) with a reference-counted cache, and
//     instantiates live Instances from them.
//
//  2. Pooling (pkg/pool): a Pool keeps despawned instances in per-key FIFO
//     queues governed by a Policy (initial count, max count, max lifetime).
//     Spawn reuses the oldest pooled instance when one exists and falls
//     back to the resolver otherwise; a background sweep evicts instances
//     over capacity or past their lifetime.
//
//  3. Supporting infrastructure: structured errors (pkg/poolerrors), zap
//     logging (pkg/logger), YAML configuration (pkg/config), Prometheus
//     metrics (pkg/metrics), OpenTelemetry tracing (pkg/observability) and
//     a game clock for tick-driven workloads (pkg/gameclock).
//
// See examples/basic for a minimal end-to-end program and cmd/spawnpool
// for the demo CLI.
package spawnpool
