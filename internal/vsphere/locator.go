package vsphere

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/view"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/soap"
	vimtypes "github.com/vmware/govmomi/vim25/types"

	"github.com/vmforge/guestctl/internal/errdefs"
)

// VMHandle is a typed view of exactly one VM, captured at lookup time:
// its inventory name, managed object reference, and a snapshot of its
// extra-configuration. The rest of guestctl works against this handle
// instead of the live object graph.
type VMHandle struct {
	name        string
	ref         vimtypes.ManagedObjectReference
	extraConfig map[string]string
	client      *Client
}

// Name returns the VM's inventory name.
func (h *VMHandle) Name() string {
	return h.name
}

// Reference returns the VM's managed object reference.
func (h *VMHandle) Reference() vimtypes.ManagedObjectReference {
	return h.ref
}

// ExtraConfig returns a copy of the extra-configuration snapshot taken
// at lookup time.
func (h *VMHandle) ExtraConfig() map[string]string {
	out := make(map[string]string, len(h.extraConfig))
	for k, v := range h.extraConfig {
		out[k] = v
	}
	return out
}

// Reconfigure submits a reconfiguration carrying only the given
// key/value pairs and returns the task reference. Keys are submitted in
// sorted order so the request is deterministic.
func (h *VMHandle) Reconfigure(ctx context.Context, changes map[string]string) (vimtypes.ManagedObjectReference, error) {
	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	spec := vimtypes.VirtualMachineConfigSpec{}
	for _, k := range keys {
		spec.ExtraConfig = append(spec.ExtraConfig, &vimtypes.OptionValue{Key: k, Value: changes[k]})
	}

	vm := object.NewVirtualMachine(h.client.vimClient, h.ref)
	task, err := vm.Reconfigure(ctx, spec)
	if err != nil {
		return vimtypes.ManagedObjectReference{}, submitError(h.name, err)
	}

	return task.Reference(), nil
}

// submitError classifies a reconfigure submit failure. A fault means the
// server saw the request and refused it; anything else never reached the
// server and is a connectivity problem.
func submitError(name string, err error) error {
	if soap.IsSoapFault(err) || soap.IsVimFault(err) {
		return errdefs.Errorf(errdefs.KindReconfigureRejected,
			"vm %q rejected the reconfigure request: %w", name, err)
	}
	return errdefs.Errorf(errdefs.KindConnectivity,
		"submitting reconfigure request for vm %q: %w", name, err)
}

// FindVM resolves a VM name to exactly one handle. When org is
// non-empty the search is restricted to the resource pool whose name
// starts with that fragment (vCloud Director names pools
// "<org> (<uuid>)"). Zero matches and multiple matches are both errors;
// a wrong write target is destructive, so a duplicate name never
// silently picks a winner.
func (c *Client) FindVM(ctx context.Context, name, org string) (*VMHandle, error) {
	root := c.vimClient.ServiceContent.RootFolder
	scope := "inventory"

	if org != "" {
		poolRef, poolName, err := c.resolveOrgPool(ctx, org)
		if err != nil {
			return nil, err
		}
		root = poolRef
		scope = fmt.Sprintf("resource pool %q", poolName)
	}

	vms, err := c.listVMs(ctx, root)
	if err != nil {
		return nil, err
	}

	matches := selectByName(vms, name)
	switch len(matches) {
	case 0:
		return nil, errdefs.Errorf(errdefs.KindNotFound, "no VM named %q in %s on %s", name, scope, c.host)
	case 1:
		// fall through
	default:
		return nil, errdefs.Errorf(errdefs.KindAmbiguous, "%d VMs named %q in %s on %s; refusing to pick one", len(matches), name, scope, c.host)
	}

	vm := matches[0]
	return &VMHandle{
		name:        vm.Name,
		ref:         vm.Self,
		extraConfig: extraConfigToMap(vm),
		client:      c,
	}, nil
}

// resolveOrgPool finds the single resource pool whose name starts with
// the org fragment. The per-cluster root pools are all named
// "Resources" and never match a real org name.
func (c *Client) resolveOrgPool(ctx context.Context, org string) (vimtypes.ManagedObjectReference, string, error) {
	m := view.NewManager(c.vimClient)
	v, err := m.CreateContainerView(ctx, c.vimClient.ServiceContent.RootFolder, []string{"ResourcePool"}, true)
	if err != nil {
		return vimtypes.ManagedObjectReference{}, "", errdefs.Errorf(errdefs.KindConnectivity, "creating resource pool view: %w", err)
	}
	defer func() {
		_ = v.Destroy(ctx)
	}()

	var pools []mo.ResourcePool
	if err := v.Retrieve(ctx, []string{"ResourcePool"}, []string{"name"}, &pools); err != nil {
		return vimtypes.ManagedObjectReference{}, "", errdefs.Errorf(errdefs.KindConnectivity, "listing resource pools: %w", err)
	}

	var matches []mo.ResourcePool
	for _, pool := range pools {
		if strings.HasPrefix(pool.Name, org) {
			matches = append(matches, pool)
		}
	}

	switch len(matches) {
	case 0:
		return vimtypes.ManagedObjectReference{}, "", errdefs.Errorf(errdefs.KindNotFound, "no resource pool matching organization %q on %s", org, c.host)
	case 1:
		return matches[0].Self, matches[0].Name, nil
	default:
		return vimtypes.ManagedObjectReference{}, "", errdefs.Errorf(errdefs.KindAmbiguous, "%d resource pools match organization %q on %s", len(matches), org, c.host)
	}
}

// listVMs walks all VMs under root, fetching name and extra-configuration
// in a single property collector call.
func (c *Client) listVMs(ctx context.Context, root vimtypes.ManagedObjectReference) ([]mo.VirtualMachine, error) {
	m := view.NewManager(c.vimClient)
	v, err := m.CreateContainerView(ctx, root, []string{"VirtualMachine"}, true)
	if err != nil {
		return nil, errdefs.Errorf(errdefs.KindConnectivity, "creating VM view: %w", err)
	}
	defer func() {
		_ = v.Destroy(ctx)
	}()

	var vms []mo.VirtualMachine
	if err := v.Retrieve(ctx, []string{"VirtualMachine"}, []string{"name", "config.extraConfig"}, &vms); err != nil {
		return nil, errdefs.Errorf(errdefs.KindConnectivity, "listing VMs: %w", err)
	}

	return vms, nil
}

// selectByName filters to VMs whose inventory name matches exactly.
func selectByName(vms []mo.VirtualMachine, name string) []mo.VirtualMachine {
	var matches []mo.VirtualMachine
	for _, vm := range vms {
		if vm.Name == name {
			matches = append(matches, vm)
		}
	}
	return matches
}

// extraConfigToMap flattens a VM's extraConfig option list into a
// string map. Non-string option values are rare but legal; they are
// rendered with %v so the diff still compares something sensible.
func extraConfigToMap(vm mo.VirtualMachine) map[string]string {
	out := map[string]string{}
	if vm.Config == nil {
		return out
	}
	for _, ov := range vm.Config.ExtraConfig {
		opt := ov.GetOptionValue()
		if opt == nil {
			continue
		}
		if s, ok := opt.Value.(string); ok {
			out[opt.Key] = s
		} else {
			out[opt.Key] = fmt.Sprintf("%v", opt.Value)
		}
	}
	return out
}

// NewVMHandle builds a handle directly from its parts. Used by tests
// and by callers that already resolved the VM elsewhere.
func NewVMHandle(c *Client, name string, ref vimtypes.ManagedObjectReference, extraConfig map[string]string) *VMHandle {
	ec := make(map[string]string, len(extraConfig))
	for k, v := range extraConfig {
		ec[k] = v
	}
	return &VMHandle{name: name, ref: ref, extraConfig: ec, client: c}
}
