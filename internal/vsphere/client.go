// Package vsphere wraps the govmomi client for guestctl's needs:
// one authenticated session per invocation, a name-based VM lookup,
// and task state retrieval for the reconcile loop.
package vsphere

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/vmware/govmomi/fault"
	"github.com/vmware/govmomi/property"
	"github.com/vmware/govmomi/session"
	"github.com/vmware/govmomi/vim25"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/soap"
	vimtypes "github.com/vmware/govmomi/vim25/types"

	"github.com/vmforge/guestctl/internal/config"
	"github.com/vmforge/guestctl/internal/errdefs"
)

// Client holds the authenticated vSphere session for one invocation.
// It must be released via Logout on every exit path.
type Client struct {
	vimClient      *vim25.Client
	sessionManager *session.Manager
	host           string
}

// Connect establishes an authenticated session with the endpoint in
// conn. The Insecure flag only disables certificate chain verification;
// the transport stays TLS.
//
// Invalid credentials surface as an authentication error, everything
// else (DNS, TCP, TLS, protocol) as a connectivity error.
func Connect(ctx context.Context, conn config.Connection) (*Client, error) {
	soapURL, err := soap.ParseURL(endpointAddress(conn))
	if err != nil {
		return nil, errdefs.Errorf(errdefs.KindConnectivity, "parsing endpoint address %q: %w", conn.Host, err)
	}
	// Credentials travel through the session manager login, not the URL.
	soapURL.User = nil

	soapClient := soap.NewClient(soapURL, conn.Insecure)
	vimClient, err := vim25.NewClient(ctx, soapClient)
	if err != nil {
		return nil, errdefs.Errorf(errdefs.KindConnectivity, "connecting to %s: %w", soapURL.Host, err)
	}
	if err := vimClient.UseServiceVersion(); err != nil {
		return nil, errdefs.Errorf(errdefs.KindConnectivity, "negotiating API version with %s: %w", soapURL.Host, err)
	}

	sm := session.NewManager(vimClient)
	if err := sm.Login(ctx, url.UserPassword(conn.Username, conn.Password)); err != nil {
		if fault.Is(err, &vimtypes.InvalidLogin{}) {
			return nil, errdefs.Errorf(errdefs.KindAuth, "login to %s as %s failed: invalid credentials", soapURL.Host, conn.Username)
		}
		return nil, errdefs.Errorf(errdefs.KindConnectivity, "login to %s failed: %w", soapURL.Host, err)
	}

	return &Client{
		vimClient:      vimClient,
		sessionManager: sm,
		host:           soapURL.Host,
	}, nil
}

// endpointAddress assembles the address handed to soap.ParseURL. A host
// given as a full URL or as host:port is used verbatim; the Port setting
// applies to bare hostnames only.
func endpointAddress(conn config.Connection) string {
	if strings.Contains(conn.Host, "://") {
		return conn.Host
	}
	if _, _, err := net.SplitHostPort(conn.Host); err == nil {
		return conn.Host
	}
	if conn.Port == "" || conn.Port == config.DefaultPort {
		return conn.Host
	}
	return net.JoinHostPort(conn.Host, conn.Port)
}

// Logout terminates the session. Safe to call from a defer with a fresh
// context so teardown still runs after cancellation.
func (c *Client) Logout(ctx context.Context) error {
	if c == nil || c.sessionManager == nil {
		return nil
	}
	if err := c.sessionManager.Logout(ctx); err != nil {
		return fmt.Errorf("logging out from %s: %w", c.host, err)
	}
	return nil
}

// Host returns the endpoint host this client is connected to.
func (c *Client) Host() string {
	return c.host
}

// TaskInfo fetches the current state of a task via the property
// collector. The reconcile loop polls this until the task settles.
func (c *Client) TaskInfo(ctx context.Context, ref vimtypes.ManagedObjectReference) (vimtypes.TaskInfo, error) {
	var task mo.Task
	pc := property.DefaultCollector(c.vimClient)
	if err := pc.RetrieveOne(ctx, ref, []string{"info"}, &task); err != nil {
		return vimtypes.TaskInfo{}, errdefs.Errorf(errdefs.KindConnectivity, "retrieving state of task %s: %w", ref.Value, err)
	}
	return task.Info, nil
}
