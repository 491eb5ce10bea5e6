package vpn

import (
	"regexp"
	"strings"

	apperrors "nordvpn-uninstall/internal/errors"
	"nordvpn-uninstall/internal/pkgmgr"
)

// ConnectionStatus mirrors the connection states reported by the NordVPN client.
type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "Connected"
	StatusDisconnected ConnectionStatus = "Disconnected"
	StatusConnecting   ConnectionStatus = "Connecting"
	StatusUnknown      ConnectionStatus = "Unknown"
)

var statusPattern = regexp.MustCompile(`Status:\s*([A-Za-z]+)`)

// Client wraps the NordVPN command line interface.
type Client struct {
	command string
	exec    pkgmgr.Executor
}

// NewClient constructs a Client for the given VPN binary (defaults to SystemExecutor).
func NewClient(command string, exec pkgmgr.Executor) *Client {
	if exec == nil {
		exec = pkgmgr.SystemExecutor{}
	}
	return &Client{command: command, exec: exec}
}

// Disconnect asks the client to drop the current VPN connection. The client
// exits cleanly when no connection is active, so this is safe to issue
// regardless of connection state.
func (c *Client) Disconnect() error {
	if err := c.exec.Run(c.command, "disconnect"); err != nil {
		return vpnError("vpn.disconnect", "vpn disconnect command failed", err, apperrors.Metadata{
			"command": c.command + " disconnect",
		})
	}
	return nil
}

// Status probes the client's connection state.
func (c *Client) Status() (ConnectionStatus, error) {
	output, err := c.exec.Output(c.command, "status")
	if err != nil {
		return StatusUnknown, vpnError("vpn.status", "vpn status command failed", err, apperrors.Metadata{
			"command": c.command + " status",
		})
	}
	return ParseStatus(string(output)), nil
}

// ParseStatus extracts the connection state from raw "status" output.
// The client prefixes its report with a "Status: <state>" line.
func ParseStatus(raw string) ConnectionStatus {
	matches := statusPattern.FindStringSubmatch(raw)
	if len(matches) != 2 {
		return StatusUnknown
	}

	switch ConnectionStatus(strings.TrimSpace(matches[1])) {
	case StatusConnected:
		return StatusConnected
	case StatusDisconnected:
		return StatusDisconnected
	case StatusConnecting:
		return StatusConnecting
	default:
		return StatusUnknown
	}
}

func vpnError(operation, message string, err error, metadata apperrors.Metadata) *apperrors.AppError {
	return apperrors.VPNError(apperrors.CodeVPNGeneric, message, err).
		WithModule("vpn").
		WithOperation(operation).
		WithFields(metadata)
}
