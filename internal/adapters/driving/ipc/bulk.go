package ipc

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/custodia-labs/glance/internal/adapters/driving/ipc/frame"
	"github.com/custodia-labs/glance/internal/core/domain"
	"github.com/custodia-labs/glance/internal/logger"
)

// Pusher accepts payloads supplied from outside the capture loop.
type Pusher interface {
	Push(ctx context.Context, payload *domain.ContentPayload) (domain.IngestResult, error)
}

// BulkServer serves the bulk transfer socket. Each connection carries any
// number of framed payloads, each answered by a framed Ack in order.
type BulkServer struct {
	server
	pusher Pusher
}

// NewBulkServer creates a bulk server on path delivering to pusher.
func NewBulkServer(path string, pusher Pusher) *BulkServer {
	s := &BulkServer{pusher: pusher}
	s.server = server{name: "bulk", path: path, handle: s.handle}
	return s
}

// Serve accepts connections until ctx is cancelled or Close is called.
func (s *BulkServer) Serve(ctx context.Context) error {
	return s.serve(ctx)
}

func (s *BulkServer) handle(ctx context.Context, conn net.Conn) {
	for {
		var payload domain.ContentPayload
		err := frame.Read(conn, &payload, 0)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrInvalidInput):
			// The frame was consumed, so the stream is still aligned.
			if !s.reply(conn, AckFor(domain.IngestResult{}, err)) {
				return
			}
			continue
		case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
			return
		default:
			logger.Debug("bulk connection dropped", "error", err)
			return
		}

		result, err := s.pusher.Push(ctx, &payload)
		if err != nil {
			logger.Debug("bulk payload rejected", "url", payload.URL, "error", err)
		}
		if !s.reply(conn, AckFor(result, err)) {
			return
		}
	}
}

func (s *BulkServer) reply(conn net.Conn, ack Ack) bool {
	if err := frame.Write(conn, ack, 0); err != nil {
		logger.Debug("writing bulk ack", "error", err)
		return false
	}
	return true
}
