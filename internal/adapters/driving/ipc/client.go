package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/glance/internal/adapters/driving/ipc/frame"
	"github.com/custodia-labs/glance/internal/core/domain"
	"github.com/custodia-labs/glance/internal/core/ports/driven"
	"github.com/custodia-labs/glance/internal/core/ports/driving"
)

// DefaultClientTimeout bounds one client exchange when ctx has no deadline.
const DefaultClientTimeout = 30 * time.Second

// Ensure the clients implement the interfaces.
var (
	_ driven.PayloadSink = (*BulkClient)(nil)
	_ driving.Controller = (*AdminClient)(nil)
)

// remoteSentinels are daemon errors a client can recognise from an ack
// message, so callers can tell permanent rejections from transient ones.
var remoteSentinels = []error{
	domain.ErrMissingIdentifier,
	domain.ErrExtractionEmpty,
	domain.ErrInvalidInput,
	domain.ErrPaused,
	domain.ErrStore,
}

func remoteError(msg string) error {
	for _, sentinel := range remoteSentinels {
		if strings.Contains(msg, sentinel.Error()) {
			return fmt.Errorf("%w: %w: %s", ErrRemote, sentinel, msg)
		}
	}
	return fmt.Errorf("%w: %s", ErrRemote, msg)
}

func dial(ctx context.Context, path string) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransportUnavailable, err)
	}
	return conn, nil
}

func deadline(ctx context.Context, timeout time.Duration) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	return time.Now().Add(timeout)
}

// BulkClient delivers payloads to the daemon's bulk socket over a single
// reused connection.
type BulkClient struct {
	path    string
	timeout time.Duration

	mu   sync.Mutex
	conn net.Conn
}

// NewBulkClient creates a client for the socket at path.
func NewBulkClient(path string) *BulkClient {
	return &BulkClient{path: path, timeout: DefaultClientTimeout}
}

// Deliver sends one payload and waits for its ack. A broken connection is
// redialled once; if the daemon cannot be reached the error wraps
// domain.ErrTransportUnavailable.
func (c *BulkClient) Deliver(ctx context.Context, payload *domain.ContentPayload) (domain.IngestResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if c.conn == nil {
			conn, err := dial(ctx, c.path)
			if err != nil {
				return domain.IngestResult{}, err
			}
			c.conn = conn
		}
		ack, err := c.exchange(ctx, payload)
		if err != nil {
			lastErr = err
			c.reset()
			if errors.Is(err, domain.ErrMessageTooLarge) || ctx.Err() != nil {
				break
			}
			continue
		}
		if !ack.OK() {
			return domain.IngestResult{}, remoteError(ack.Message)
		}
		return ack.Result(), nil
	}
	return domain.IngestResult{}, fmt.Errorf("%w: %w", domain.ErrTransportUnavailable, lastErr)
}

func (c *BulkClient) exchange(ctx context.Context, payload *domain.ContentPayload) (Ack, error) {
	_ = c.conn.SetDeadline(deadline(ctx, c.timeout))
	if err := frame.Write(c.conn, payload, 0); err != nil {
		return Ack{}, err
	}
	var ack Ack
	if err := frame.Read(c.conn, &ack, 0); err != nil {
		return Ack{}, err
	}
	return ack, nil
}

func (c *BulkClient) reset() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// Close closes the connection.
func (c *BulkClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
	return nil
}

// AdminClient sends commands to the daemon's admin socket.
type AdminClient struct {
	path    string
	timeout time.Duration
}

// NewAdminClient creates a client for the socket at path.
func NewAdminClient(path string) *AdminClient {
	return &AdminClient{path: path, timeout: DefaultClientTimeout}
}

// Do sends one request and returns the daemon's response. A response with
// an error status is returned along with an error wrapping ErrRemote.
func (c *AdminClient) Do(ctx context.Context, req AdminRequest) (*AdminResponse, error) {
	conn, err := dial(ctx, c.path)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	_ = conn.SetDeadline(deadline(ctx, c.timeout))

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return nil, fmt.Errorf("sending %s: %w", req.Action, err)
	}
	var resp AdminResponse
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, fmt.Errorf("reading %s response: %w", req.Action, err)
	}
	if resp.Status != StatusOK {
		return &resp, remoteError(resp.Message)
	}
	return &resp, nil
}

// Status returns the daemon's scheduler status.
func (c *AdminClient) Status(ctx context.Context) (*domain.SchedulerStatus, error) {
	resp, err := c.Do(ctx, AdminRequest{Action: ActionStatus})
	if err != nil {
		return nil, err
	}
	if resp.State == nil {
		return &domain.SchedulerStatus{Paused: resp.Paused}, nil
	}
	return resp.State, nil
}

// Pause pauses capture.
func (c *AdminClient) Pause(ctx context.Context) error {
	_, err := c.Do(ctx, AdminRequest{Action: ActionPause})
	return err
}

// Resume resumes capture.
func (c *AdminClient) Resume(ctx context.Context) error {
	_, err := c.Do(ctx, AdminRequest{Action: ActionResume})
	return err
}

// Block adds an application to the daemon's session blocklist.
func (c *AdminClient) Block(ctx context.Context, appID string) error {
	_, err := c.Do(ctx, AdminRequest{Action: ActionBlock, BundleID: appID})
	return err
}
