package guestinfo

import (
	"context"
	"fmt"
	"time"

	vimtypes "github.com/vmware/govmomi/vim25/types"

	"github.com/vmforge/guestctl/internal/errdefs"
)

// WaitTask polls the task's state at a fixed interval until it reaches
// a terminal state or timeout elapses.
//
// A task that reaches the error state fails with the platform's fault
// message verbatim. On timeout the task is left running: cancelling a
// partially applied reconfiguration would leave the VM's state more
// ambiguous than letting it finish.
func WaitTask(
	ctx context.Context,
	tasks taskPoller,
	ref vimtypes.ManagedObjectReference,
	interval, timeout time.Duration,
) (vimtypes.TaskInfo, error) {

	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	deadline := time.Now().Add(timeout)
	timer := time.NewTimer(0) // first poll is immediate
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			// Interrupted, not timed out: the task stays running on the
			// platform and the caller's deferred logout still runs.
			return vimtypes.TaskInfo{}, fmt.Errorf("wait for task %s interrupted: %w", ref.Value, ctx.Err())
		case <-timer.C:
		}

		info, err := tasks.TaskInfo(ctx, ref)
		if err != nil {
			return vimtypes.TaskInfo{}, err
		}

		switch info.State {
		case vimtypes.TaskInfoStateSuccess:
			return info, nil
		case vimtypes.TaskInfoStateError:
			return info, errdefs.Errorf(taskFailureKind(info),
				"task %s failed: %s", ref.Value, taskFaultMessage(info))
		}

		// queued or running
		if time.Now().After(deadline) {
			return info, errdefs.Errorf(errdefs.KindTaskTimeout,
				"task %s still %s after %s; leaving it running", ref.Value, info.State, timeout)
		}
		timer.Reset(interval)
	}
}

// taskFailureKind classifies a failed task. A power-state fault is a
// precondition the platform refused up front, not a mid-flight failure,
// so it carries the rejection kind.
func taskFailureKind(info vimtypes.TaskInfo) errdefs.Kind {
	if info.Error != nil {
		if _, ok := info.Error.Fault.(*vimtypes.InvalidPowerState); ok {
			return errdefs.KindReconfigureRejected
		}
	}
	return errdefs.KindTaskFailed
}

// taskFaultMessage extracts the platform-reported error text, which must
// reach the operator verbatim.
func taskFaultMessage(info vimtypes.TaskInfo) string {
	if info.Error == nil {
		return "no fault message reported"
	}
	if info.Error.LocalizedMessage != "" {
		return info.Error.LocalizedMessage
	}
	return "unlocalized fault with no message"
}
