package model

// RawAccount is an immutable snapshot of an on-chain account as returned by
// the ledger adapter. Data is interpreted exactly once per decode.
type RawAccount struct {
	Address    string `json:"address"`
	Owner      string `json:"owner"`
	Lamports   uint64 `json:"lamports"`
	Data       []byte `json:"-"`
	Executable bool   `json:"executable"`
}

// MemcmpFilter is a byte-offset equality constraint on account data.
type MemcmpFilter struct {
	Offset uint64
	Bytes  []byte
}

// AccountQuery describes a program-account query: an exact data size plus
// optional memcmp constraints. Decoders produce these so the ledger client
// owns the translation to wire filters.
type AccountQuery struct {
	DataSize uint64
	Memcmp   []MemcmpFilter
}
