package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/vmforge/guestctl/internal/config"
	"github.com/vmforge/guestctl/internal/errdefs"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// SIGINT cancels the context; in-flight work unwinds through the
	// deferred logout. An in-flight reconfigure task is never cancelled.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(errdefs.ExitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "guestctl",
	Short: "guestctl - vSphere guestinfo provisioning tool",
	Long: `guestctl writes cloud-init style metadata and userdata into a VM's
guestinfo extra-configuration so an in-guest provisioning agent can read
them at boot.

The write is idempotent: guestctl compares the desired values against
the VM's current extra-configuration and only submits a reconfiguration
when they differ, so it can run repeatedly from a provisioner step
without duplicate work.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Connection flags, shared by all subcommands. Resolution order for
// each value: explicit flag, environment variable, config file.
var (
	flagServer     string
	flagPort       string
	flagUsername   string
	flagPassword   string
	flagInsecure   bool
	flagConfigFile string
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagServer, "server", "s", "", "vCenter host name, host:port, or URL (env "+config.EnvHost+")")
	pf.StringVar(&flagPort, "port", "", "vCenter port (env "+config.EnvPort+", default "+config.DefaultPort+")")
	pf.StringVarP(&flagUsername, "username", "u", "", "vCenter username (env "+config.EnvUsername+")")
	pf.StringVarP(&flagPassword, "password", "p", "", "vCenter password (env "+config.EnvPassword+")")
	pf.BoolVar(&flagInsecure, "nossl", false, "skip TLS certificate verification (transport stays encrypted)")
	pf.StringVar(&flagConfigFile, "config", "", "optional YAML file with connection settings")

	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "guestctl %s (commit: %s)\n", version, commit)
	},
}

// resolveConnection merges flags, environment, and the optional config
// file into a validated connection.
func resolveConnection() (config.Connection, error) {
	var file *config.File
	if flagConfigFile != "" {
		f, err := config.LoadFile(flagConfigFile)
		if err != nil {
			return config.Connection{}, err
		}
		file = f
	}

	conn := config.ResolveConnection(config.Connection{
		Host:     flagServer,
		Port:     flagPort,
		Username: flagUsername,
		Password: flagPassword,
		Insecure: flagInsecure,
	}, file)

	if err := conn.Validate(); err != nil {
		return config.Connection{}, err
	}
	return conn, nil
}
