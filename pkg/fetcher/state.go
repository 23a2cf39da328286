package fetcher

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"nseopt/pkg/options"
)

type state string

const (
	stateDiscovering state = "DISCOVERING"
	stateFetching    state = "FETCHING"
	stateStoring     state = "STORING"
	stateLogging     state = "LOGGING"
	stateDone        state = "DONE"
	stateError       state = "ERROR"
)

// transitions lists the legal next states. ERROR is absorbing.
var transitions = map[state][]state{
	stateDiscovering: {stateFetching, stateLogging, stateError},
	stateFetching:    {stateStoring, stateLogging, stateError},
	stateStoring:     {stateFetching, stateError},
	stateLogging:     {stateDone, stateError},
}

// symbolJob tracks one symbol's progress through a fetch.
type symbolJob struct {
	symbol  string
	runType options.RunType
	state   state
}

func (j *symbolJob) canMove(to state) bool {
	for _, s := range transitions[j.state] {
		if s == to {
			return true
		}
	}
	return false
}

func (j *symbolJob) advance(ctx context.Context, to state) {
	if j.state == to {
		return
	}
	if !j.canMove(to) {
		logx.WithContext(ctx).Errorf("fetcher: %s illegal transition %s -> %s", j.symbol, j.state, to)
		return
	}
	j.state = to
	j.logState(ctx)
}

func (j *symbolJob) fail(ctx context.Context, err error) {
	if j.state == stateError {
		return
	}
	j.state = stateError
	logx.WithContext(ctx).Debugw("fetch state",
		logx.Field("symbol", j.symbol),
		logx.Field("run_type", string(j.runType)),
		logx.Field("state", string(j.state)),
		logx.Field("error", err.Error()))
}

func (j *symbolJob) logState(ctx context.Context) {
	logx.WithContext(ctx).Debugw("fetch state",
		logx.Field("symbol", j.symbol),
		logx.Field("run_type", string(j.runType)),
		logx.Field("state", string(j.state)))
}
