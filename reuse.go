package dbsmoke

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"
)

type daemonCommand uint8

const (
	daemonCommandEnter daemonCommand = iota
	daemonCommandExit
)

type daemonRequest struct {
	cmd daemonCommand
	ctx context.Context
}

type daemonResponse struct {
	cnt any
	err error
}

// CreateContainerFunc starts a container and returns its handle.
// If the handle implements Terminate(ctx context.Context) error the daemon
// terminates it once the container is no longer needed.
type CreateContainerFunc func(ctx context.Context) (any, error)

// ReusableDaemon shares a single container between concurrent users.
// The container is created on the first Enter and terminated after the last
// Exit, once waitDuration passes with no new Enter.
type ReusableDaemon struct {
	users        int
	cnt          any
	waitDuration time.Duration
	rootCtx      context.Context
	termCtx      context.Context

	reqCh  chan daemonRequest
	respCh chan daemonResponse

	ccf CreateContainerFunc
}

func RunReusableDaemon(
	ctx context.Context,
	waitDuration time.Duration,
	ccf CreateContainerFunc,
) *ReusableDaemon {
	termCtx, cancel := context.WithCancel(context.Background())

	daemon := &ReusableDaemon{
		waitDuration: waitDuration,
		reqCh:        make(chan daemonRequest),
		respCh:       make(chan daemonResponse),
		ccf:          ccf,
		rootCtx:      ctx,
		termCtx:      termCtx,
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				daemon.clearContainer(termCtx)
				cancel()

				return
			case req := <-daemon.reqCh:
				daemon.handleCommand(req.ctx, req.cmd)
			}
		}
	}()

	return daemon
}

// Done is closed after the daemon has terminated its container in response
// to root ctx cancellation.
func (d *ReusableDaemon) Done() <-chan struct{} {
	return d.termCtx.Done()
}

func (d *ReusableDaemon) Enter(ctx context.Context) (any, error) {
	select {
	case <-d.rootCtx.Done():
		return nil, fmt.Errorf("root ctx is done, %w", context.Cause(d.rootCtx))
	case d.reqCh <- daemonRequest{
		ctx: ctx,
		cmd: daemonCommandEnter,
	}:
		resp := <-d.respCh

		return resp.cnt, resp.err
	}
}

func (d *ReusableDaemon) Exit() {
	select {
	case <-d.rootCtx.Done():
		<-d.termCtx.Done()
	case d.reqCh <- daemonRequest{
		ctx: context.Background(),
		cmd: daemonCommandExit,
	}:
		<-d.respCh
	}
}

func (d *ReusableDaemon) handleCommand(ctx context.Context, cmd daemonCommand) {
	switch cmd {
	case daemonCommandEnter:
		d.users++
	case daemonCommandExit:
		d.users--
	default:
		panic("invalid daemon command received: " + strconv.FormatUint(uint64(cmd), 10))
	}

	switch {
	case d.users > 0:
		d.handlePositiveUsers(ctx)
	case d.users == 0:
		d.handleZeroUsers(ctx)
	case d.users <= 0:
		panic("daemon exit called twice, negative amount of users")
	}
}

func (d *ReusableDaemon) handlePositiveUsers(ctx context.Context) {
	if d.cnt == nil {
		cnt, err := d.ccf(ctx)
		if err != nil {
			// the failed Enter must not count as a user, the wait window
			// could never fire again otherwise
			d.users--
			d.respCh <- daemonResponse{
				err: fmt.Errorf("create new container, %w", err),
			}

			return
		}

		d.cnt = cnt
	}

	d.respCh <- daemonResponse{
		cnt: d.cnt,
	}
}

func (d *ReusableDaemon) handleZeroUsers(ctx context.Context) {
	select {
	case <-time.After(d.waitDuration):
		d.clearContainer(ctx)
		d.respCh <- daemonResponse{}
	case req := <-d.reqCh:
		switch req.cmd {
		case daemonCommandEnter:
			// respond to the pending Exit first, then to the new Enter
			d.users++
			d.respCh <- daemonResponse{
				cnt: d.cnt,
			}
			d.respCh <- daemonResponse{
				cnt: d.cnt,
			}
		case daemonCommandExit:
			panic("unexpected exit command in handleZeroUsers")
		default:
			panic("invalid daemon command received: " + strconv.FormatUint(uint64(req.cmd), 10))
		}
	}
}

func (d *ReusableDaemon) clearContainer(ctx context.Context) {
	if d.cnt == nil {
		return
	}

	type terminater interface {
		Terminate(ctx context.Context) error
	}

	trm, ok := d.cnt.(terminater)
	if ok {
		err := trm.Terminate(ctx)
		if err != nil {
			log.Printf("failed terminate container, %s", err)
		}
	}

	d.cnt = nil
}
