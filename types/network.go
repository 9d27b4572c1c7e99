package types

import (
	"fmt"
	"strings"

	"github.com/banky/go-hyperliquid-agent/constants"
)

// Network selects the exchange deployment an action is bound to.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
)

// ParseNetwork accepts "mainnet" or "testnet" in any case.
func ParseNetwork(s string) (Network, error) {
	switch Network(strings.ToLower(strings.TrimSpace(s))) {
	case Mainnet:
		return Mainnet, nil
	case Testnet:
		return Testnet, nil
	}
	return "", fmt.Errorf("unknown network %q", s)
}

func (n Network) IsMainnet() bool {
	return n == Mainnet
}

// ChainName is the hyperliquidChain value carried by user-signed actions.
func (n Network) ChainName() string {
	if n.IsMainnet() {
		return "Mainnet"
	}
	return "Testnet"
}

// Source is the phantom agent source tag for L1 actions.
func (n Network) Source() string {
	if n.IsMainnet() {
		return "a"
	}
	return "b"
}

// APIURL returns the default API base url for the network.
func (n Network) APIURL() string {
	if n.IsMainnet() {
		return constants.MAINNET_API_URL
	}
	return constants.TESTNET_API_URL
}
