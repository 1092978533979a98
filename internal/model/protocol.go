package model

import "fmt"

// Protocol identifies one of the supported on-chain programs. The set is
// closed: decoders, the metrics engine, and the scanner switch over it
// exhaustively, so adding a protocol is a visible compile-time change.
type Protocol string

const (
	// ProtocolDLMM is the bin-based liquidity market maker.
	ProtocolDLMM Protocol = "dlmm"
	// ProtocolWhirlpool is the first tick-based concentrated-liquidity AMM.
	ProtocolWhirlpool Protocol = "whirlpool"
	// ProtocolCLMM is the second tick-based concentrated-liquidity AMM.
	ProtocolCLMM Protocol = "clmm"
	// ProtocolPerp is the perpetual-futures program.
	ProtocolPerp Protocol = "perp"
)

// AllProtocols lists every supported protocol in stable order.
func AllProtocols() []Protocol {
	return []Protocol{ProtocolDLMM, ProtocolWhirlpool, ProtocolCLMM, ProtocolPerp}
}

// ParseProtocol validates a protocol name.
func ParseProtocol(name string) (Protocol, error) {
	switch Protocol(name) {
	case ProtocolDLMM, ProtocolWhirlpool, ProtocolCLMM, ProtocolPerp:
		return Protocol(name), nil
	default:
		return "", fmt.Errorf("unknown protocol: %s", name)
	}
}

// AccountKind distinguishes the account layouts within a protocol.
type AccountKind string

const (
	KindPool     AccountKind = "pool"
	KindPosition AccountKind = "position"
	// KindCustody is the perpetual protocol's per-token market config.
	KindCustody AccountKind = "custody"
)
