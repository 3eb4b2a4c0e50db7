package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmforge/guestctl/internal/config"
	"github.com/vmforge/guestctl/internal/errdefs"
	"github.com/vmforge/guestctl/internal/guestinfo"
	"github.com/vmforge/guestctl/internal/payload"
	"github.com/vmforge/guestctl/internal/vsphere"
)

var (
	flagVMName              string
	flagOrg                 string
	flagEncodedMetadata     string
	flagEncodedUserdata     string
	flagEncodedUserdataFile string
	flagPassthrough         bool
	flagTaskTimeout         time.Duration
	flagPollInterval        time.Duration
)

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Reconcile a VM's guestinfo metadata and userdata",
	Long: `Reconcile the guestinfo.metadata and guestinfo.userdata keys of one VM.

Payloads are supplied gzip compressed and base64 encoded, the way
provisioning templates render them. By default guestctl decodes them and
writes the plain values; with --passthrough it writes the encoded
strings verbatim together with the guestinfo.*.encoding companion keys,
which is the form cloud-init's VMware datasource expects.

Only keys whose current value differs are written; if nothing differs,
no reconfiguration is submitted at all.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSet(cmd.Context())
	},
}

func init() {
	f := setCmd.Flags()
	f.StringVarP(&flagVMName, "vm", "v", "", "name of the target VM (exact match)")
	f.StringVar(&flagOrg, "org", "", "organization scope: resource pool name fragment to search in")
	f.StringVar(&flagEncodedMetadata, "encoded-metadata", "", "gzip+base64 encoded metadata")
	f.StringVar(&flagEncodedUserdata, "encoded-userdata", "", "gzip+base64 encoded userdata")
	f.StringVar(&flagEncodedUserdataFile, "encoded-userdata-file", "", "path to a file holding gzip+base64 encoded userdata")
	f.BoolVar(&flagPassthrough, "passthrough", false, "write the encoded payloads verbatim with guestinfo.*.encoding keys")
	f.DurationVar(&flagTaskTimeout, "timeout", guestinfo.DefaultTimeout, "how long to wait for the reconfigure task")
	f.DurationVar(&flagPollInterval, "poll-interval", guestinfo.DefaultPollInterval, "delay between task state polls")

	setCmd.MarkFlagsMutuallyExclusive("encoded-userdata", "encoded-userdata-file")
}

func runSet(ctx context.Context) error {
	target := config.Target{VMName: flagVMName, Org: flagOrg}
	if err := target.Validate(); err != nil {
		return err
	}
	if flagEncodedMetadata == "" && flagEncodedUserdata == "" && flagEncodedUserdataFile == "" {
		return errdefs.Errorf(errdefs.KindUsage,
			"nothing to do: supply --encoded-metadata, --encoded-userdata, or --encoded-userdata-file")
	}

	desired, err := buildDesired()
	if err != nil {
		return err
	}

	conn, err := resolveConnection()
	if err != nil {
		return err
	}

	log.Printf("Connecting to %s...", conn)
	client, err := vsphere.Connect(ctx, conn)
	if err != nil {
		return err
	}
	defer func() {
		// Fresh context: logout must still run when ctx was cancelled.
		if err := client.Logout(context.Background()); err != nil {
			log.Printf("Warning: %v", err)
		}
	}()

	handle, err := client.FindVM(ctx, target.VMName, target.Org)
	if err != nil {
		return err
	}
	log.Printf("Found VM %q on %s", handle.Name(), client.Host())

	r := guestinfo.NewReconciler(handle, client)
	r.PollInterval = flagPollInterval
	r.Timeout = flagTaskTimeout

	outcome, err := r.Reconcile(ctx, desired)
	if err != nil {
		return err
	}

	if outcome.Unchanged {
		fmt.Println("unchanged")
	} else {
		fmt.Printf("applied: %s\n", strings.Join(outcome.AppliedKeys, ", "))
	}
	return nil
}

// buildDesired decodes (or, in passthrough mode, validates) the supplied
// payloads and assembles the desired guestinfo state.
func buildDesired() (guestinfo.Desired, error) {
	if flagPassthrough {
		encodedUserdata := flagEncodedUserdata
		if flagEncodedUserdataFile != "" {
			var err error
			encodedUserdata, err = payload.ReadEncodedFile(flagEncodedUserdataFile)
			if err != nil {
				return nil, err
			}
		}

		// Even verbatim payloads must decode cleanly, otherwise the
		// in-guest agent fails at boot with no one watching.
		for name, encoded := range map[string]string{
			"metadata": flagEncodedMetadata,
			"userdata": encodedUserdata,
		} {
			if err := payload.ValidateEncoded(encoded); err != nil {
				return nil, fmt.Errorf("invalid %s payload: %w", name, err)
			}
		}
		return guestinfo.NewPassthrough(flagEncodedMetadata, encodedUserdata), nil
	}

	metadata, err := payload.Decode(flagEncodedMetadata)
	if err != nil {
		return nil, fmt.Errorf("invalid metadata payload: %w", err)
	}

	var userdata []byte
	if flagEncodedUserdataFile != "" {
		userdata, err = payload.DecodeFile(flagEncodedUserdataFile)
	} else {
		userdata, err = payload.Decode(flagEncodedUserdata)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid userdata payload: %w", err)
	}

	return guestinfo.NewDesired(metadata, userdata), nil
}
