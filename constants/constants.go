package constants

import "github.com/ethereum/go-ethereum/common"

const MAINNET_API_URL = "https://api.hyperliquid.xyz"
const TESTNET_API_URL = "https://api.hyperliquid-testnet.xyz"

// SIGNATURE_CHAIN_ID is the domain chain id used for user-signed actions
// when the wallet does not report its own chain (0x66eee, Arbitrum Sepolia).
const SIGNATURE_CHAIN_ID = 421614

// L1_CHAIN_ID is the domain chain id of the phantom agent payload.
const L1_CHAIN_ID = 1337

// MIN_LEVERAGE and MAX_LEVERAGE bound updateLeverage actions.
const MIN_LEVERAGE = 1
const MAX_LEVERAGE = 50

// STORAGE_NAMESPACE prefixes every persisted key.
const STORAGE_NAMESPACE = "hyperliquid-agent"

var ZERO_ADDRESS = common.Address{}
