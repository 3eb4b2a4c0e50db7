package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmforge/guestctl/internal/config"
	"github.com/vmforge/guestctl/internal/output"
	"github.com/vmforge/guestctl/internal/vsphere"
)

var (
	flagShowVMName string
	flagShowOrg    string
	flagShowFormat string
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a VM's current guestinfo properties",
	Long: `Read and display the guestinfo subset of a VM's extra-configuration.

Useful for checking what a previous set run left behind, without
modifying anything.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShow(cmd.Context())
	},
}

func init() {
	f := showCmd.Flags()
	f.StringVarP(&flagShowVMName, "vm", "v", "", "name of the target VM (exact match)")
	f.StringVar(&flagShowOrg, "org", "", "organization scope: resource pool name fragment to search in")
	f.StringVarP(&flagShowFormat, "output", "o", "table", "output format (table, yaml, json)")
}

func runShow(ctx context.Context) error {
	target := config.Target{VMName: flagShowVMName, Org: flagShowOrg}
	if err := target.Validate(); err != nil {
		return err
	}

	formatter, err := output.NewFormatter(output.Format(flagShowFormat))
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
		if err := client.Logout(context.Background()); err != nil {
			log.Printf("Warning: %v", err)
		}
	}()

	handle, err := client.FindVM(ctx, target.VMName, target.Org)
	if err != nil {
		return err
	}

	info := &output.VMInfo{
		Name:      handle.Name(),
		Guestinfo: guestinfoSubset(handle.ExtraConfig()),
	}

	rendered, err := formatter.FormatVMInfo(info)
	if err != nil {
		return err
	}

	fmt.Print(rendered)
	return nil
}

// guestinfoSubset filters extraConfig down to the in-guest visible keys.
func guestinfoSubset(extraConfig map[string]string) map[string]string {
	out := map[string]string{}
	for k, v := range extraConfig {
		if strings.HasPrefix(k, "guestinfo.") {
			out[k] = v
		}
	}
	return out
}
