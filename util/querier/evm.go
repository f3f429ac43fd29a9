package querier

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/initia-labs/minievm/x/evm/contracts/erc20"

	"github.com/initia-labs/transfervolume/sentry_integration"
	"github.com/initia-labs/transfervolume/types"
)

const (
	evmCallPath = "/minievm/evm/v1/call"
)

// ErrEvmCallFailed is returned when the chain executed a call and rejected it,
// e.g. a revert or a contract without the requested method
var ErrEvmCallFailed = errors.New("evm call failed")

// GetTokenMeta reads name() and symbol() of an ERC-20 contract at the given height.
// Each accessor is read on its own: one that reverts or returns data that does
// not decode as a string yields "" for that field only.
func (q *Querier) GetTokenMeta(ctx context.Context, tokenAddr string, height int64) (name, symbol string, err error) {
	erc20Abi, err := erc20.Erc20MetaData.GetAbi()
	if err != nil {
		return name, symbol, err
	}

	if name, err = q.callStringAccessor(ctx, erc20Abi, "name", tokenAddr, height); err != nil {
		return "", "", err
	}
	if symbol, err = q.callStringAccessor(ctx, erc20Abi, "symbol", tokenAddr, height); err != nil {
		return "", "", err
	}

	return name, symbol, nil
}

func (q *Querier) callStringAccessor(ctx context.Context, contractAbi *abi.ABI, method, tokenAddr string, height int64) (string, error) {
	input, err := contractAbi.Pack(method)
	if err != nil {
		return "", err
	}

	callRes, err := q.evmCall(ctx, tokenAddr, input, height)
	if errors.Is(err, ErrEvmCallFailed) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	var out string
	if err := contractAbi.UnpackIntoInterface(&out, method, callRes); err != nil {
		return "", nil
	}
	return out, nil
}

func (q *Querier) fetchEvmCall(contractAddr string, input []byte, height int64) requestFunc[QueryCallResponse] {
	return func(ctx context.Context, endpointURL string) (*QueryCallResponse, error) {
		payload := map[string]any{
			"sender":        q.sender,
			"contract_addr": contractAddr,
			"input":         fmt.Sprintf("0x%s", hex.EncodeToString(input)),
			"value":         "0",
		}
		headers := map[string]string{"x-cosmos-block-height": strconv.FormatInt(height, 10)}
		body, err := q.Post(ctx, endpointURL, evmCallPath, payload, headers)
		if err != nil {
			return nil, err
		}
		callRes, err := extractResponse[QueryCallResponse](body)
		if err != nil {
			return nil, err
		}

		if callRes.Error != "" {
			return nil, &finalError{err: fmt.Errorf("%w: %s", ErrEvmCallFailed, callRes.Error)}
		}

		return &callRes, nil
	}
}

func (q *Querier) evmCall(ctx context.Context, contractAddr string, input []byte, height int64) (response []byte, err error) {
	callRes, err := executeWithEndpointRotation(ctx, q.RestUrls, q.fetchEvmCall(contractAddr, input, height))
	if err != nil {
		return response, err
	}
	return hex.DecodeString(strings.TrimPrefix(callRes.Response, "0x"))
}

func (q *Querier) postJSONRPC(ctx context.Context, endpointURL, method string, params []any) ([]byte, error) {
	payload := types.JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}
	headers := map[string]string{"Content-Type": "application/json"}
	body, err := q.Post(ctx, endpointURL, "", payload, headers)
	if err != nil {
		return nil, err
	}

	errResp, err := extractResponse[types.JSONRPCErrorResponse](body)
	if err == nil && errResp.Error != nil {
		return nil, fmt.Errorf("RPC error (code: %d): %s", errResp.Error.Code, errResp.Error.Message)
	}
	return body, nil
}

func (q *Querier) fetchEvmTxs(height int64) requestFunc[types.QueryEvmTxsResponse] {
	return func(ctx context.Context, endpointURL string) (*types.QueryEvmTxsResponse, error) {
		span, ctx := sentry_integration.StartSentrySpan(ctx, "GetEvmTxs", "Fetching receipts for height "+strconv.FormatInt(height, 10))
		defer span.Finish()

		body, err := q.postJSONRPC(ctx, endpointURL, "eth_getBlockReceipts", []any{hexutil.EncodeUint64(uint64(height))})
		if err != nil {
			return nil, err
		}
		txs, err := extractResponse[types.QueryEvmTxsResponse](body)
		if err != nil {
			return nil, err
		}
		return &txs, nil
	}
}

// GetEvmTxs returns the receipts of every transaction in the block, in transaction order
func (q *Querier) GetEvmTxs(ctx context.Context, height int64) ([]types.EvmTx, error) {
	res, err := executeWithEndpointRotation(ctx, q.JsonRpcUrls, q.fetchEvmTxs(height))
	if err != nil {
		return nil, err
	}
	return res.Result, nil
}

func (q *Querier) fetchEvmBlockHeader(height int64) requestFunc[types.QueryEvmBlockResponse] {
	return func(ctx context.Context, endpointURL string) (*types.QueryEvmBlockResponse, error) {
		body, err := q.postJSONRPC(ctx, endpointURL, "eth_getBlockByNumber", []any{hexutil.EncodeUint64(uint64(height)), false})
		if err != nil {
			return nil, err
		}
		res, err := extractResponse[types.QueryEvmBlockResponse](body)
		if err != nil {
			return nil, err
		}
		if res.Result == nil {
			return nil, fmt.Errorf("block %d not found", height)
		}
		return &res, nil
	}
}

// GetEvmBlockHeader returns hash and timestamp of the block at height
func (q *Querier) GetEvmBlockHeader(ctx context.Context, height int64) (*types.EvmBlockHeader, error) {
	res, err := executeWithEndpointRotation(ctx, q.JsonRpcUrls, q.fetchEvmBlockHeader(height))
	if err != nil {
		return nil, err
	}
	return res.Result, nil
}

func (q *Querier) fetchLatestHeight() requestFunc[int64] {
	return func(ctx context.Context, endpointURL string) (*int64, error) {
		body, err := q.postJSONRPC(ctx, endpointURL, "eth_blockNumber", []any{})
		if err != nil {
			return nil, err
		}
		res, err := extractResponse[types.JSONRPCResponse](body)
		if err != nil {
			return nil, err
		}
		height, err := hexutil.DecodeUint64(res.Result)
		if err != nil {
			return nil, fmt.Errorf("failed to parse eth_blockNumber result: %w", err)
		}
		latest := int64(height)
		return &latest, nil
	}
}

// GetLatestHeight returns the chain head reported by eth_blockNumber
func (q *Querier) GetLatestHeight(ctx context.Context) (int64, error) {
	res, err := executeWithEndpointRotation(ctx, q.JsonRpcUrls, q.fetchLatestHeight())
	if err != nil {
		return 0, err
	}
	return *res, nil
}
