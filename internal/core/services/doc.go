// Package services holds the capture pipeline: window tracking, the
// scheduler and its timing policy, change detection, extractor routing,
// privacy filtering and ingestion with its retry queue.
//
// Services depend only on the ports; the OS bindings, the store and the
// transports are injected by the daemon.
package services
