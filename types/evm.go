package types

// EVM constants
const (
	// EvmTransferTopic is the keccak256 hash of Transfer(address,address,uint256) event signature
	EvmTransferTopic = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
)

// QueryEvmTxsResponse is the eth_getBlockReceipts response
type QueryEvmTxsResponse struct {
	Result []EvmTx        `json:"result"`
	Error  *JSONRPCError `json:"error,omitempty"`
}

// EvmBlockHeader is the subset of eth_getBlockByNumber used to stamp blocks
type EvmBlockHeader struct {
	Hash      string `json:"hash"`
	Number    string `json:"number"`
	Timestamp string `json:"timestamp"`
}

type QueryEvmBlockResponse struct {
	Result *EvmBlockHeader `json:"result"`
	Error  *JSONRPCError   `json:"error,omitempty"`
}
