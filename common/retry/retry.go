package retry

import (
	"context"

	"github.com/grafana/dskit/backoff"
	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/minio/spark-select/go/common/log"
	"github.com/minio/spark-select/go/config"
	"github.com/pkg/errors"
)

// Do runs fn until it succeeds, the policy gives up or the error is one that
// cannot be fixed by trying again. A disabled policy runs fn exactly once.
func Do(ctx context.Context, policy config.RetryConfig, op string, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err == nil || !policy.Enabled() || !Retryable(err) {
		return err
	}

	b := backoff.New(ctx, policy.Backoff())
	for {
		if !b.Ongoing() {
			return err
		}
		log.Warn("object store request failed, will retry", log.String("op", op), log.Int("attempt", b.NumRetries()+1), log.Err(err))
		b.Wait()
		if ctx.Err() != nil {
			return errors.Wrapf(ctx.Err(), "%s retry aborted, last error: %v", op, err)
		}
		if err = fn(ctx); err == nil || !Retryable(err) {
			return err
		}
	}
}

// Retryable reports whether err may be transient.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, serrors.ErrNotFound), errors.Is(err, serrors.ErrSchemaNotMatch),
		errors.Is(err, serrors.ErrInvalidURI), errors.Is(err, serrors.ErrInvalidFilter):
		return false
	}
	return true
}
