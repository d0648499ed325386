package status

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type counter int64

func (c counter) Count(context.Context) (int64, error) { return int64(c), nil }
func (c counter) ClientCount() int                     { return int(c) }

func TestReport(t *testing.T) {
	svc := NewService(pinger{}, pinger{err: errors.New("down")}, counter(4), counter(2))
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	r := svc.Report(context.Background())
	assert.True(t, r.StoreHealthy)
	assert.False(t, r.CacheHealthy)
	assert.EqualValues(t, 4, r.Jobs)
	assert.Equal(t, 2, r.RealtimeClients)
	assert.Equal(t, fixed, r.ServerTime)
}

func TestReportSkipsCountsWhenStoreDown(t *testing.T) {
	r := NewService(pinger{err: errors.New("down")}, nil, counter(4), nil).Report(context.Background())
	assert.False(t, r.StoreHealthy)
	assert.False(t, r.CacheHealthy)
	assert.Zero(t, r.Jobs)
}
