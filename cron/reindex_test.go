package cron

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

type countingRefresher struct{ n atomic.Int32 }

func (c *countingRefresher) RefreshIndex(context.Context) error {
	c.n.Add(1)
	return nil
}

func TestStartIndexRefresher(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &countingRefresher{}

	StartIndexRefresher(ctx, r, 10*time.Millisecond, zaptest.NewLogger(t))
	assert.Eventually(t, func() bool { return r.n.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestStartIndexRefresher_Disabled(t *testing.T) {
	r := &countingRefresher{}
	StartIndexRefresher(context.Background(), r, 0, zaptest.NewLogger(t))
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, r.n.Load())
}
