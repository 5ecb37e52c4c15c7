// Package internal holds the i3X Explorer client implementation.
//
// # Architecture
//
// The client is structured into several key packages:
//   - api: request/response wrapper for the catalog and subscription endpoints
//   - models: wire types and the payload normalizer
//   - feed: live update transports (push stream and poll loop)
//   - session: subscription lifecycle management
//   - store: in-memory live values and bounded trend buffers
//   - archive: optional Postgres/TimescaleDB trend persistence
//   - config: YAML configuration with environment expansion
//   - metrics: prometheus collectors and debug handler
//
// # Data flow
//
// A session creates a server-side subscription and registers element
// identities against it. The selected transport delivers batches of raw
// updates; each entry is normalized into a value-quality-timestamp triple
// and absorbed by the live value store, which also maintains a ring of the
// most recent numeric samples per element. The rendering layer reads store
// snapshots and never mutates them.
//
// The push stream reconnects with exponential backoff and gives up after a
// bounded number of attempts; the poll loop treats individual failures as
// non-fatal. The two transports are observationally equivalent to the
// consumer.
package explorer
