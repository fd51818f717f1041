package service

import (
	"context"
	"errors"
	"time"

	"github.com/haierkeys/bento-note-sync/pkg/code"
	"github.com/haierkeys/bento-note-sync/pkg/metrics"
	"github.com/haierkeys/bento-note-sync/pkg/webdav"

	"go.uber.org/zap"
)

// RemoteStore is the part of *webdav.Client the orchestrator uses.
// The typed methods keep "not found" apart from "unreachable"; the bool/nil
// methods are the simplified signal used on the scheduled path.
type RemoteStore interface {
	Probe(ctx context.Context) error
	Put(ctx context.Context, name string, content []byte) error
	Get(ctx context.Context, name string) ([]byte, error)

	CheckConnection(ctx context.Context) bool
	UploadFile(ctx context.Context, name string, content []byte) bool
	GetFileLastModified(ctx context.Context, name string) *time.Time
}

// RemoteFactory builds a client for the settings read at call time.
type RemoteFactory func(cfg webdav.Config) RemoteStore

// NewRemoteFactory returns a factory sharing one transport.
func NewRemoteFactory(transport webdav.HTTPTransport, timeout time.Duration, logger *zap.Logger, m *metrics.Sync) RemoteFactory {
	return func(cfg webdav.Config) RemoteStore {
		return webdav.NewClient(cfg, transport,
			webdav.WithTimeout(timeout),
			webdav.WithLogger(logger),
			webdav.WithMetrics(m),
		)
	}
}

// remoteError maps a typed client error onto a user-facing code.
func remoteError(err error, fallback *code.Code) error {
	if err == nil {
		return nil
	}
	var (
		te *webdav.TransportError
		se *webdav.StatusError
	)
	switch {
	case errors.Is(err, webdav.ErrNotFound):
		return code.ErrorRemoteFileNotFound
	case errors.As(err, &se):
		return code.ErrorRemoteRejected.WithDetails(se.Error())
	case errors.As(err, &te):
		return code.ErrorRemoteUnavailable.WithDetails(te.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return code.ErrorRemoteUnavailable.WithDetails(err.Error())
	}
	return fallback.WithDetails(err.Error())
}
