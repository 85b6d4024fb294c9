package gitcli

import (
	"context"

	"github.com/cenkalti/backoff/v4"

	"github.com/kenneth/git-cas/internal/cas/persistport"
)

// RetryingPort decorates a persistport.Port with exponential-backoff retry
// around every call, keeping retry/timeout policy as
// a decoration applied externally rather than a concern the port itself
// owns. Useful primarily over the gitcli adapter, where transient failures
// (a momentarily locked .git, a slow filesystem) are worth retrying; the
// in-memory adapter has no such failure mode.
type RetryingPort struct {
	inner       persistport.Port
	newBackOff  func() backoff.BackOff
}

// NewRetryingPort wraps inner with backoff.NewExponentialBackOff(), capped
// at that policy's default MaxElapsedTime of total retry time per call.
func NewRetryingPort(inner persistport.Port) *RetryingPort {
	return &RetryingPort{
		inner: inner,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
}

func (p *RetryingPort) WriteBlob(ctx context.Context, data []byte) (string, error) {
	var oid string
	err := backoff.Retry(func() error {
		var err error
		oid, err = p.inner.WriteBlob(ctx, data)
		return err
	}, backoff.WithContext(p.newBackOff(), ctx))
	return oid, err
}

func (p *RetryingPort) WriteTree(ctx context.Context, entries []persistport.TreeEntry) (string, error) {
	var oid string
	err := backoff.Retry(func() error {
		var err error
		oid, err = p.inner.WriteTree(ctx, entries)
		return err
	}, backoff.WithContext(p.newBackOff(), ctx))
	return oid, err
}

func (p *RetryingPort) ReadBlob(ctx context.Context, oid string) ([]byte, error) {
	var data []byte
	err := backoff.Retry(func() error {
		var err error
		data, err = p.inner.ReadBlob(ctx, oid)
		return err
	}, backoff.WithContext(p.newBackOff(), ctx))
	return data, err
}

func (p *RetryingPort) ReadTree(ctx context.Context, oid string) ([]persistport.TreeEntry, error) {
	var entries []persistport.TreeEntry
	err := backoff.Retry(func() error {
		var err error
		entries, err = p.inner.ReadTree(ctx, oid)
		return err
	}, backoff.WithContext(p.newBackOff(), ctx))
	return entries, err
}

var _ persistport.Port = (*RetryingPort)(nil)
