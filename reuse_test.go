package dbsmoke_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amidman/dbsmoke"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func Test_ReusableDaemon(t *testing.T) {
	t.Parallel()

	waitDuration := time.Second

	called := false
	cnt := "container"
	errDoubleCcfCall := errors.New("unexpected, second call to ccf")

	ccf := dbsmoke.CreateContainerFunc(func(ctx context.Context) (any, error) {
		if called {
			return nil, errDoubleCcfCall
		}

		called = true

		return cnt, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	daemon := dbsmoke.RunReusableDaemon(ctx, waitDuration, ccf)

	notifyCtx, notify := context.WithCancel(ctx)

	errgr := errgroup.Group{}
	errgr.SetLimit(2)

	errgr.Go(func() error {
		return simpleEnterAndExit(daemon, notify, cnt, waitDuration)
	})

	errgr.Go(func() error {
		return awaitNotifyEnterAndExit(daemon, notifyCtx, cnt)
	})

	err := errgr.Wait()
	require.NoError(t, err)
}

func simpleEnterAndExit(
	daemon *dbsmoke.ReusableDaemon,
	notify func(),
	expectedCnt any,
	waitDuration time.Duration,
) error {
	cnt, err := daemon.Enter(context.Background())
	if err != nil {
		return fmt.Errorf("enter to daemon, expected no error, actual %w", err)
	}

	if !reflect.DeepEqual(expectedCnt, cnt) {
		return fmt.Errorf("enter to daemon, expected %+v, actual %+v", expectedCnt, cnt)
	}

	go daemon.Exit()

	<-time.After(waitDuration / 2)

	notify()

	return nil
}

func awaitNotifyEnterAndExit(
	daemon *dbsmoke.ReusableDaemon,
	notifyCtx context.Context,
	expectedCnt any,
) error {
	<-notifyCtx.Done()

	cnt, err := daemon.Enter(context.Background())
	if err != nil {
		return fmt.Errorf("enter to daemon, expected no error, actual %w", err)
	}

	if !reflect.DeepEqual(expectedCnt, cnt) {
		return fmt.Errorf("enter to daemon, expected %+v, actual %+v", expectedCnt, cnt)
	}

	daemon.Exit()

	return nil
}

type mockTerminater struct {
	terminated atomic.Bool
	double     atomic.Bool
}

func (m *mockTerminater) Terminate(context.Context) error {
	swapped := m.terminated.CompareAndSwap(false, true)
	if !swapped {
		m.double.Store(true)
	}

	return nil
}

func Test_ReusableDaemon_EnterFailureReleasesUserCount(t *testing.T) {
	t.Parallel()

	waitDuration := 50 * time.Millisecond

	term := &mockTerminater{}
	calls := 0
	errFirstCall := errors.New("image pull failed")

	ccf := dbsmoke.CreateContainerFunc(func(ctx context.Context) (any, error) {
		calls++

		if calls == 1 {
			return nil, errFirstCall
		}

		return term, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	daemon := dbsmoke.RunReusableDaemon(ctx, waitDuration, ccf)

	_, err := daemon.Enter(context.Background())
	require.ErrorIs(t, err, errFirstCall)

	cnt, err := daemon.Enter(context.Background())
	require.NoError(t, err)
	require.Equal(t, term, cnt)

	daemon.Exit()

	// the exit above was the last user, the wait window must still fire
	require.Eventually(t, term.terminated.Load, time.Second, 10*time.Millisecond)
	require.False(t, term.double.Load())
}

func Test_ReusableDaemon_TerminateOnRootCtxCancel(t *testing.T) {
	t.Parallel()

	term := &mockTerminater{}

	ctx, cancel := context.WithCancel(context.Background())

	daemon := dbsmoke.RunReusableDaemon(ctx, time.Second,
		func(ctx context.Context) (any, error) {
			return term, nil
		},
	)

	_, err := daemon.Enter(context.Background())
	require.NoError(t, err)

	cancel()

	<-daemon.Done()

	require.True(t, term.terminated.Load())
	require.False(t, term.double.Load())
}
