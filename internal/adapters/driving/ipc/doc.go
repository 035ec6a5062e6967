// Package ipc serves and consumes the daemon's local sockets.
//
// The bulk socket carries framed ContentPayload bodies in and framed Ack
// replies out, any number per connection. The admin socket takes one JSON
// AdminRequest per connection and answers with one AdminResponse. The
// native host bridges a size-constrained control channel on stdin/stdout
// to the bulk socket.
package ipc
