package vsphere

import (
	"errors"
	"reflect"
	"testing"

	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/soap"
	vimtypes "github.com/vmware/govmomi/vim25/types"

	"github.com/vmforge/guestctl/internal/errdefs"
)

func moVM(name string, extraConfig map[string]string) mo.VirtualMachine {
	vm := mo.VirtualMachine{
		ManagedEntity: mo.ManagedEntity{
			ExtensibleManagedObject: mo.ExtensibleManagedObject{
				Self: vimtypes.ManagedObjectReference{Type: "VirtualMachine", Value: "vm-" + name},
			},
			Name: name,
		},
	}
	if extraConfig != nil {
		cfg := &vimtypes.VirtualMachineConfigInfo{}
		for k, v := range extraConfig {
			cfg.ExtraConfig = append(cfg.ExtraConfig, &vimtypes.OptionValue{Key: k, Value: v})
		}
		vm.Config = cfg
	}
	return vm
}

func TestSelectByName(t *testing.T) {
	inventory := []mo.VirtualMachine{
		moVM("web01", nil),
		moVM("web02", nil),
		moVM("web01", nil), // duplicate name in another folder
		moVM("web01-staging", nil),
	}

	tests := []struct {
		name      string
		lookup    string
		wantCount int
	}{
		{name: "single match", lookup: "web02", wantCount: 1},
		{name: "duplicate names both match", lookup: "web01", wantCount: 2},
		{name: "no match", lookup: "db01", wantCount: 0},
		{name: "exact match only, no prefix matching", lookup: "web", wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectByName(inventory, tt.lookup)
			if len(got) != tt.wantCount {
				t.Errorf("selectByName(%q) returned %d VMs, want %d", tt.lookup, len(got), tt.wantCount)
			}
		})
	}
}

func TestExtraConfigToMap(t *testing.T) {
	vm := moVM("web01", map[string]string{
		"guestinfo.metadata": "meta",
		"svga.present":       "TRUE",
	})

	got := extraConfigToMap(vm)
	want := map[string]string{
		"guestinfo.metadata": "meta",
		"svga.present":       "TRUE",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("extraConfigToMap() = %v, want %v", got, want)
	}
}

func TestExtraConfigToMapNilConfig(t *testing.T) {
	// VMs still being created can have no config at all.
	got := extraConfigToMap(moVM("web01", nil))
	if len(got) != 0 {
		t.Errorf("extraConfigToMap() = %v, want empty map", got)
	}
}

func TestExtraConfigToMapNonStringValue(t *testing.T) {
	vm := moVM("web01", nil)
	vm.Config = &vimtypes.VirtualMachineConfigInfo{
		ExtraConfig: []vimtypes.BaseOptionValue{
			&vimtypes.OptionValue{Key: "some.flag", Value: true},
		},
	}

	got := extraConfigToMap(vm)
	if got["some.flag"] != "true" {
		t.Errorf(`extraConfigToMap()["some.flag"] = %q, want "true"`, got["some.flag"])
	}
}

func TestVMHandleExtraConfigIsACopy(t *testing.T) {
	h := NewVMHandle(nil, "web01", vimtypes.ManagedObjectReference{}, map[string]string{"k": "v"})

	ec := h.ExtraConfig()
	ec["k"] = "mutated"

	if h.ExtraConfig()["k"] != "v" {
		t.Error("mutating the returned map leaked into the handle's snapshot")
	}
}

func TestSubmitError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind errdefs.Kind
	}{
		{
			name:     "vim fault is a rejection",
			err:      soap.WrapVimFault(&vimtypes.InvalidPowerState{}),
			wantKind: errdefs.KindReconfigureRejected,
		},
		{
			name:     "plain transport error never reached the server",
			err:      errors.New("Post \"https://vc/sdk\": connection reset by peer"),
			wantKind: errdefs.KindConnectivity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := submitError("web01", tt.err)
			if kind := errdefs.KindOf(err); kind != tt.wantKind {
				t.Errorf("error kind = %q, want %q", kind, tt.wantKind)
			}
			if !errors.Is(err, tt.err) {
				t.Error("submitError() lost the underlying error")
			}
		})
	}
}
