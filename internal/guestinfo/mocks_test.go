package guestinfo

import (
	"context"
	"fmt"

	vimtypes "github.com/vmware/govmomi/vim25/types"
)

// fakeVM is a fake implementation of the vmTarget interface for testing.
// Its Reconfigure applies the changes to its own extraConfig map like
// the platform would, so idempotence tests can re-read it.
type fakeVM struct {
	name        string
	extraConfig map[string]string

	// Configurable behavior
	reconfigureFunc func(ctx context.Context, changes map[string]string) (vimtypes.ManagedObjectReference, error)

	// Call tracking
	reconfigureCalls []map[string]string
}

func newFakeVM(name string, extraConfig map[string]string) *fakeVM {
	vm := &fakeVM{
		name:        name,
		extraConfig: map[string]string{},
	}
	for k, v := range extraConfig {
		vm.extraConfig[k] = v
	}

	// Default: accept the reconfigure, apply it, hand back a task ref.
	vm.reconfigureFunc = func(ctx context.Context, changes map[string]string) (vimtypes.ManagedObjectReference, error) {
		for k, v := range changes {
			vm.extraConfig[k] = v
		}
		return vimtypes.ManagedObjectReference{Type: "Task", Value: fmt.Sprintf("task-%d", len(vm.reconfigureCalls))}, nil
	}

	return vm
}

func (vm *fakeVM) Name() string {
	return vm.name
}

func (vm *fakeVM) ExtraConfig() map[string]string {
	out := make(map[string]string, len(vm.extraConfig))
	for k, v := range vm.extraConfig {
		out[k] = v
	}
	return out
}

func (vm *fakeVM) Reconfigure(ctx context.Context, changes map[string]string) (vimtypes.ManagedObjectReference, error) {
	copied := make(map[string]string, len(changes))
	for k, v := range changes {
		copied[k] = v
	}
	vm.reconfigureCalls = append(vm.reconfigureCalls, copied)
	return vm.reconfigureFunc(ctx, changes)
}

// fakeTaskPoller is a fake implementation of the taskPoller interface.
// It serves a scripted sequence of TaskInfo states, repeating the last
// entry once the script runs out.
type fakeTaskPoller struct {
	infos []vimtypes.TaskInfo
	err   error

	// Call tracking
	calls int
}

func newFakeTaskPoller(states ...vimtypes.TaskInfoState) *fakeTaskPoller {
	p := &fakeTaskPoller{}
	for _, s := range states {
		p.infos = append(p.infos, vimtypes.TaskInfo{State: s})
	}
	return p
}

func (p *fakeTaskPoller) TaskInfo(ctx context.Context, ref vimtypes.ManagedObjectReference) (vimtypes.TaskInfo, error) {
	p.calls++
	if p.err != nil {
		return vimtypes.TaskInfo{}, p.err
	}
	if len(p.infos) == 0 {
		return vimtypes.TaskInfo{State: vimtypes.TaskInfoStateSuccess}, nil
	}
	idx := p.calls - 1
	if idx >= len(p.infos) {
		idx = len(p.infos) - 1
	}
	return p.infos[idx], nil
}
