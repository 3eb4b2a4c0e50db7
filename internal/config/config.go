// Package config holds the connection and target settings for a single
// guestctl invocation and the flag/environment/file resolution rules.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vmforge/guestctl/internal/errdefs"
)

// Environment variables consulted when the matching flag is not set.
// Sourcing the password from the environment keeps it out of process
// listings.
const (
	EnvHost     = "GUESTCTL_HOST"
	EnvPort     = "GUESTCTL_PORT"
	EnvUsername = "GUESTCTL_USERNAME"
	EnvPassword = "GUESTCTL_PASSWORD"
)

// DefaultPort is the standard vCenter HTTPS port.
const DefaultPort = "443"

// Connection describes how to reach and authenticate to the vCenter
// endpoint. Immutable once resolved; one Connection per invocation.
type Connection struct {
	// Host is the vCenter hostname, host:port, or a full URL
	// (https://vc.example.com/sdk).
	Host     string
	Port     string
	Username string
	Password string
	// Insecure disables TLS certificate chain verification. Transport
	// encryption stays on.
	Insecure bool
}

// Target identifies the VM whose guestinfo is reconciled.
type Target struct {
	// VMName is matched exactly against VM inventory names.
	VMName string
	// Org optionally narrows the lookup to the resource pool whose name
	// starts with this fragment. vCloud Director names pools
	// "<org> (<uuid>)", so the org name alone is enough.
	Org string
}

// File is the optional declarative config file (--config). It carries
// connection settings only; the password deliberately has no file field
// and must come from a flag or the environment.
type File struct {
	Host     string `yaml:"host,omitempty"`
	Port     string `yaml:"port,omitempty"`
	Username string `yaml:"username,omitempty"`
	Insecure bool   `yaml:"insecure,omitempty"`
}

// LoadFile reads and parses a config file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errdefs.Errorf(errdefs.KindUsage, "reading config file %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errdefs.Errorf(errdefs.KindUsage, "parsing config file %s: %w", path, err)
	}

	return &f, nil
}

// Resolve picks a value by precedence: explicit flag, then environment
// variable, then config file, then the built-in default.
func Resolve(flagValue, envKey, fileValue, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envKey != "" {
		if v := os.Getenv(envKey); v != "" {
			return v
		}
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

// ResolveConnection merges flag values, environment variables, and an
// optional config file into a complete Connection. flags holds the
// values exactly as given on the command line; file may be nil.
func ResolveConnection(flags Connection, file *File) Connection {
	var f File
	if file != nil {
		f = *file
	}

	return Connection{
		Host:     Resolve(flags.Host, EnvHost, f.Host, ""),
		Port:     Resolve(flags.Port, EnvPort, f.Port, DefaultPort),
		Username: Resolve(flags.Username, EnvUsername, f.Username, ""),
		Password: Resolve(flags.Password, EnvPassword, "", ""),
		Insecure: flags.Insecure || f.Insecure,
	}
}

// Validate checks that the connection is complete enough to attempt.
func (c Connection) Validate() error {
	if c.Host == "" {
		return errdefs.Errorf(errdefs.KindUsage, "vCenter host is required (-s flag or %s)", EnvHost)
	}
	if c.Username == "" {
		return errdefs.Errorf(errdefs.KindUsage, "username is required (-u flag or %s)", EnvUsername)
	}
	if c.Password == "" {
		return errdefs.Errorf(errdefs.KindUsage, "password is required (-p flag or %s)", EnvPassword)
	}
	return nil
}

// String renders the connection for logs. The password is never
// included.
func (c Connection) String() string {
	return fmt.Sprintf("%s@%s:%s (insecure=%t)", c.Username, c.Host, c.Port, c.Insecure)
}

// Validate checks the target selection.
func (t Target) Validate() error {
	if t.VMName == "" {
		return errdefs.Errorf(errdefs.KindUsage, "VM name is required (-v flag)")
	}
	return nil
}
