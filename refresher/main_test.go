package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Adarsh108-tech/glacier-server/internal/logger"
	"github.com/Adarsh108-tech/glacier-server/internal/refresh"
)

type stubTask struct {
	err      error
	deadline bool
}

func (s *stubTask) Run(ctx context.Context) (refresh.Result, error) {
	_, s.deadline = ctx.Deadline()
	return refresh.Result{Fetched: 5, Stored: 2}, s.err
}

func TestRunOnceExitCodes(t *testing.T) {
	ok := &stubTask{}
	require.Equal(t, 0, runOnce(context.Background(), logger.Discard(), ok, time.Second))
	require.True(t, ok.deadline)

	failing := &stubTask{err: errors.New("upstream 500")}
	require.Equal(t, 1, runOnce(context.Background(), logger.Discard(), failing, time.Second))
}
