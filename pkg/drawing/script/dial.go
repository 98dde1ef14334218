package script

import (
	"context"
	"net"
	"time"

	"github.com/matzehuels/sawtooth/pkg/errors"
)

// Dial connects to a host listening for command scripts on network/addr.
// A connection failure is reported as errors.ErrCodeSinkFailure.
func Dial(ctx context.Context, network, addr string, opts ...Option) (*Session, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSinkFailure, err, "connect to CAD host at %s", addr)
	}
	s := New(conn, opts...)
	s.closer = conn
	return s, nil
}

// DialRetry calls Dial up to attempts times, doubling delay after each
// failure. A host that is still starting up usually accepts within a few
// seconds. Cancelling ctx stops the retries and returns ctx.Err().
func DialRetry(ctx context.Context, network, addr string, attempts int, delay time.Duration, opts ...Option) (*Session, error) {
	attempts = max(attempts, 1)
	var lastErr error
	for i := range attempts {
		s, err := Dial(ctx, network, addr, opts...)
		if err == nil {
			return s, nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return nil, lastErr
}
