package extractor

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/initia-labs/minievm/x/evm/contracts/erc20"

	indexertypes "github.com/initia-labs/transfervolume/indexer/types"
	"github.com/initia-labs/transfervolume/indexer/metadata"
	"github.com/initia-labs/transfervolume/metrics"
	"github.com/initia-labs/transfervolume/types"
	"github.com/initia-labs/transfervolume/util"
)

const transferEventName = "Transfer"

// NameFilter decides whether a token name is of interest
type NameFilter interface {
	Matches(name string) bool
}

// ContainsFilter keeps names containing substr, case-sensitive
type ContainsFilter string

func (f ContainsFilter) Matches(name string) bool {
	return strings.Contains(name, string(f))
}

// Transfer is a decoded ERC-20 Transfer event
type Transfer struct {
	From  common.Address
	To    common.Address
	Value *big.Int
}

type Extractor struct {
	logger   *slog.Logger
	resolver metadata.Resolver
	filter   NameFilter
	abi      *abi.ABI
}

func New(logger *slog.Logger, resolver metadata.Resolver, filter NameFilter) (*Extractor, error) {
	parsed, err := erc20.Erc20MetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	if filter == nil {
		filter = ContainsFilter(types.DefaultNameFilter)
	}

	return &Extractor{
		logger:   logger.With("component", "extractor"),
		resolver: resolver,
		filter:   filter,
		abi:      parsed,
	}, nil
}

// IsTransferLog reports whether the log has the ERC-20 Transfer shape:
// the Transfer signature and both parties indexed
func IsTransferLog(log types.EvmLog) bool {
	return len(log.Topics) == 3 && strings.EqualFold(log.Topics[0], types.EvmTransferTopic)
}

// Extract returns the Transfer logs of the block whose token name passes the
// filter, in log order
func (e *Extractor) Extract(ctx context.Context, block indexertypes.Block) (indexertypes.MatchBatch, error) {
	batch := indexertypes.MatchBatch{}
	faults := metrics.GetMetrics().IndexerMetrics().MetadataFaultsTotal

	for _, log := range block.Logs {
		if !IsTransferLog(log) {
			continue
		}

		if _, err := e.decode(log); err != nil {
			return nil, types.NewDecodeFault(block.Height, log.LogIndex, err)
		}

		address, err := util.NormalizeEvmAddress(log.Address)
		if err != nil {
			return nil, types.NewDecodeFault(block.Height, log.LogIndex, err)
		}

		meta, err := e.resolver.Resolve(ctx, address, block.Height)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}

			faults.Inc()
			e.logger.Warn("token metadata unavailable, using empty name and symbol",
				slog.Int64("height", block.Height),
				slog.String("address", address),
				slog.Any("error", err))
			meta = metadata.TokenMeta{}
		}

		if !e.filter.Matches(meta.Name) {
			continue
		}

		batch = append(batch, indexertypes.MatchRecord{
			Address: address,
			Name:    meta.Name,
			Symbol:  meta.Symbol,
		})
	}

	return batch, nil
}

func (e *Extractor) decode(log types.EvmLog) (*Transfer, error) {
	event, ok := e.abi.Events[transferEventName]
	if !ok {
		return nil, errors.New("transfer event missing from abi")
	}

	data, err := util.HexToBytes(log.Data)
	if err != nil {
		return nil, err
	}

	var transfer Transfer
	if err := e.abi.UnpackIntoInterface(&transfer, transferEventName, data); err != nil {
		return nil, err
	}

	topics := make([]common.Hash, 0, len(log.Topics)-1)
	for _, topic := range log.Topics[1:] {
		b, err := util.HexToBytes(topic)
		if err != nil {
			return nil, err
		}
		if len(b) != common.HashLength {
			return nil, errors.New("invalid topic length")
		}
		topics = append(topics, common.BytesToHash(b))
	}

	var indexed abi.Arguments
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if err := abi.ParseTopics(&transfer, indexed, topics); err != nil {
		return nil, err
	}

	return &transfer, nil
}
