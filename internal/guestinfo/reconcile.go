package guestinfo

import (
	"context"
	"log"
	"sort"
	"time"

	vimtypes "github.com/vmware/govmomi/vim25/types"
)

// vmTarget defines the VM operations the reconciler needs.
//
// In production this is satisfied by *vsphere.VMHandle.
// In tests this is satisfied by fake implementations.
type vmTarget interface {
	// Name returns the VM's inventory name.
	Name() string

	// ExtraConfig returns the extra-configuration snapshot taken at
	// lookup time.
	ExtraConfig() map[string]string

	// Reconfigure submits a reconfiguration carrying only the given
	// key/value pairs and returns the task reference.
	Reconfigure(ctx context.Context, changes map[string]string) (vimtypes.ManagedObjectReference, error)
}

// taskPoller defines the task state retrieval the waiter needs.
//
// In production this is satisfied by *vsphere.Client.
// In tests this is satisfied by fake implementations.
type taskPoller interface {
	TaskInfo(ctx context.Context, ref vimtypes.ManagedObjectReference) (vimtypes.TaskInfo, error)
}

// Outcome reports what a reconcile run did.
type Outcome struct {
	// Unchanged is true when the VM already held every desired value
	// and no write was submitted.
	Unchanged bool
	// AppliedKeys lists the keys written, sorted. Empty when Unchanged.
	AppliedKeys []string
}

// Defaults for the task wait loop.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultTimeout      = 10 * time.Minute
)

// Reconciler drives one VM's guestinfo keys to a desired state.
type Reconciler struct {
	vm    vmTarget
	tasks taskPoller

	// PollInterval is the fixed delay between task state polls.
	PollInterval time.Duration
	// Timeout bounds the whole wait for the reconfigure task.
	Timeout time.Duration
}

// NewReconciler returns a Reconciler with default poll settings.
func NewReconciler(vm vmTarget, tasks taskPoller) *Reconciler {
	return &Reconciler{
		vm:           vm,
		tasks:        tasks,
		PollInterval: DefaultPollInterval,
		Timeout:      DefaultTimeout,
	}
}

// Reconcile compares the desired key/value pairs against the VM's
// extra-configuration and, only on divergence, submits a reconfigure
// carrying the changed pairs and waits for the task to settle.
//
// Running Reconcile again with the same desired state yields an
// Unchanged outcome and no API write: provisioning pipelines re-run it
// freely.
func (r *Reconciler) Reconcile(ctx context.Context, desired Desired) (Outcome, error) {
	changes := desired.Diff(r.vm.ExtraConfig())
	if len(changes) == 0 {
		log.Printf("VM %q already has the desired guestinfo values, nothing to do", r.vm.Name())
		return Outcome{Unchanged: true}, nil
	}

	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	log.Printf("Reconfiguring VM %q: %d guestinfo key(s) differ %v", r.vm.Name(), len(keys), keys)
	taskRef, err := r.vm.Reconfigure(ctx, changes)
	if err != nil {
		return Outcome{}, err
	}

	if _, err := WaitTask(ctx, r.tasks, taskRef, r.PollInterval, r.Timeout); err != nil {
		return Outcome{}, err
	}

	log.Printf("VM %q reconfigured", r.vm.Name())
	return Outcome{AppliedKeys: keys}, nil
}
