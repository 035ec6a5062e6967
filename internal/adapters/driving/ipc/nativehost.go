package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/custodia-labs/glance/internal/adapters/driving/ipc/frame"
	"github.com/custodia-labs/glance/internal/core/domain"
	"github.com/custodia-labs/glance/internal/core/ports/driven"
	"github.com/custodia-labs/glance/internal/logger"
)

// maxAckMessage bounds the message carried by an ack on the control
// channel.
const maxAckMessage = 1024

// NativeHost bridges the control channel to a payload sink. It reads
// framed push requests from in and writes one framed ack per request to
// out, enforcing the channel's size limits in both directions.
type NativeHost struct {
	in          io.Reader
	out         io.Writer
	sink        driven.PayloadSink
	maxMessage  int64
	maxResponse int64
}

// NewNativeHost creates a native host. Zero limits fall back to the
// control channel defaults.
func NewNativeHost(in io.Reader, out io.Writer, sink driven.PayloadSink, settings domain.TransportSettings) *NativeHost {
	h := &NativeHost{
		in:          in,
		out:         out,
		sink:        sink,
		maxMessage:  settings.MaxControlMessageBytes,
		maxResponse: settings.MaxControlResponseBytes,
	}
	if h.maxMessage <= 0 {
		h.maxMessage = frame.MaxControlMessage
	}
	if h.maxResponse <= 0 {
		h.maxResponse = frame.MaxControlResponse
	}
	return h
}

// Run serves requests until in is closed or ctx is cancelled. An oversized
// request cannot be skipped, so it is answered with an error ack and ends
// the session.
func (h *NativeHost) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		var payload domain.ContentPayload
		err := frame.Read(h.in, &payload, h.maxMessage)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, domain.ErrMessageTooLarge):
			_ = h.reply(Ack{Status: StatusError, Message: err.Error()})
			return err
		case errors.Is(err, domain.ErrInvalidInput):
			if err := h.reply(AckFor(domain.IngestResult{}, err)); err != nil {
				return err
			}
			continue
		default:
			return fmt.Errorf("reading control channel: %w", err)
		}

		result, err := h.sink.Deliver(ctx, &payload)
		if err != nil {
			logger.Debug("push not delivered", "url", payload.URL, "error", err)
		}
		if err := h.reply(AckFor(result, err)); err != nil {
			return err
		}
	}
}

func (h *NativeHost) reply(ack Ack) error {
	if len(ack.Message) > maxAckMessage {
		ack.Message = ack.Message[:maxAckMessage]
	}
	return frame.Write(h.out, ack, h.maxResponse)
}
