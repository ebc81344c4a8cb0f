// Package config supplies per-network deployment constants for the lovelock
// client: the fullnode RPC endpoint, the deployed package ID, and the shared
// bridge registry object ID.
//
// Networks are immutable once constructed. Built-in defaults exist for
// devnet, testnet and mainnet; any field can be overridden through viper
// (config file or environment).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Network holds everything the client needs to talk to one deployment.
type Network struct {
	// Name is the network identifier, e.g. "testnet".
	Name string

	// Endpoint is the fullnode JSON-RPC URL.
	Endpoint string

	// PackageID is the deployed lovelock contract package.
	PackageID string

	// BridgeID is the shared bridge registry object.
	BridgeID string

	// FinalityTimeout bounds how long the client waits for a submitted
	// transaction to finalize. Zero means the built-in default (30s).
	FinalityTimeout time.Duration
}

const placeholderID = "0xTODO"

// Built-in deployments. Devnet and mainnet package IDs are placeholders
// until those deployments happen; Validate rejects them.
var builtin = map[string]Network{
	"devnet": {
		Name:      "devnet",
		Endpoint:  "https://fullnode.devnet.sui.io:443",
		PackageID: placeholderID,
		BridgeID:  placeholderID,
	},
	"testnet": {
		Name:      "testnet",
		Endpoint:  "https://fullnode.testnet.sui.io:443",
		PackageID: "0x73107b51f0a2c9b4c2e32739aabd845d744a378feb288ceabdceec4270ec618e",
		BridgeID:  "0x418c940e3be13371c8d64e64e205989fe61f0ad0ccbbbd862a677210835a92a1",
	},
	"mainnet": {
		Name:      "mainnet",
		Endpoint:  "https://fullnode.mainnet.sui.io:443",
		PackageID: placeholderID,
		BridgeID:  placeholderID,
	},
}

// Default returns the built-in configuration for a named network.
func Default(name string) (Network, error) {
	n, ok := builtin[name]
	if !ok {
		return Network{}, fmt.Errorf("unknown network %q", name)
	}
	return n, nil
}

// FromViper resolves a network from viper state layered over the built-in
// defaults. Recognized keys, all optional:
//
//	networks.<name>.endpoint
//	networks.<name>.package_id
//	networks.<name>.bridge_id
//	networks.<name>.finality_timeout
//
// An unknown name with a full set of overrides is accepted, so private
// deployments need no code change.
func FromViper(v *viper.Viper, name string) (Network, error) {
	n := builtin[name]
	n.Name = name

	prefix := "networks." + name + "."
	if s := v.GetString(prefix + "endpoint"); s != "" {
		n.Endpoint = s
	}
	if s := v.GetString(prefix + "package_id"); s != "" {
		n.PackageID = s
	}
	if s := v.GetString(prefix + "bridge_id"); s != "" {
		n.BridgeID = s
	}
	if d := v.GetDuration(prefix + "finality_timeout"); d > 0 {
		n.FinalityTimeout = d
	}

	if err := n.Validate(); err != nil {
		return Network{}, err
	}
	return n, nil
}

// Validate reports whether the network is usable.
func (n Network) Validate() error {
	if n.Name == "" {
		return fmt.Errorf("network name is required")
	}
	if n.Endpoint == "" {
		return fmt.Errorf("network %s: endpoint is required", n.Name)
	}
	if n.PackageID == "" || n.PackageID == placeholderID {
		return fmt.Errorf("network %s: package ID is not configured", n.Name)
	}
	if !strings.HasPrefix(n.PackageID, "0x") {
		return fmt.Errorf("network %s: package ID must be a 0x-prefixed object address", n.Name)
	}
	if n.BridgeID == "" || n.BridgeID == placeholderID {
		return fmt.Errorf("network %s: bridge registry ID is not configured", n.Name)
	}
	if !strings.HasPrefix(n.BridgeID, "0x") {
		return fmt.Errorf("network %s: bridge registry ID must be a 0x-prefixed object address", n.Name)
	}
	return nil
}

// LockType returns the full on-chain type tag of a lock object.
func (n Network) LockType() string {
	return n.PackageID + "::lovelock::Lock"
}
