package retry

import (
	"context"
	"testing"
	"time"

	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/minio/spark-select/go/config"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

var errFlaky = errors.New("connection reset")

func policy(retries int) config.RetryConfig {
	return config.RetryConfig{MaxRetries: retries, MinBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestDisabledPolicyRunsOnce(t *testing.T) {
	calls := 0
	err := Do(context.Background(), policy(0), "get", func(context.Context) error {
		calls++
		return errFlaky
	})
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
}

func TestRetryUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), policy(5), "get", func(context.Context) error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryGivesUp(t *testing.T) {
	calls := 0
	err := Do(context.Background(), policy(2), "get", func(context.Context) error {
		calls++
		return errFlaky
	})
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 3, calls)
}

func TestNotFoundIsNotRetried(t *testing.T) {
	calls := 0
	err := Do(context.Background(), policy(5), "stat", func(context.Context) error {
		calls++
		return errors.Wrap(serrors.ErrNotFound, "people.parquet")
	})
	assert.ErrorIs(t, err, serrors.ErrNotFound)
	assert.Equal(t, 1, calls)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, policy(5), "get", func(context.Context) error {
		calls++
		cancel()
		return errFlaky
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
