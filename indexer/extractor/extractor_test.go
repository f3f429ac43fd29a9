package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/initia-labs/transfervolume/indexer/metadata"
	indexertypes "github.com/initia-labs/transfervolume/indexer/types"
	"github.com/initia-labs/transfervolume/types"
)

const (
	apeToken   = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	grapeToken = "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"
	brokenMeta = "0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0"

	apeAddress   = "5fbdb2315678afecb367f032d93f642f64180aa3"
	grapeAddress = "e7f1725e7734ce288f8367e1bb143e90bb3f0512"

	fromTopic = "0x000000000000000000000000f39fd6e51aad88f6f4ce6ab8827279cfffb92266"
	toTopic   = "0x00000000000000000000000070997970c51812dc3a010c7d01b50e0d17dc79c8"
	oneValue  = "0x0000000000000000000000000000000000000000000000000000000000000001"
)

type fakeResolver struct {
	tokens map[string]metadata.TokenMeta
	calls  map[string]int
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		tokens: map[string]metadata.TokenMeta{
			apeAddress:   {Name: "ApeCoin", Symbol: "APE"},
			grapeAddress: {Name: "Grape", Symbol: "GRP"},
		},
		calls: map[string]int{},
	}
}

func (r *fakeResolver) Resolve(_ context.Context, address string, _ int64) (metadata.TokenMeta, error) {
	r.calls[address]++
	meta, ok := r.tokens[address]
	if !ok {
		return metadata.TokenMeta{}, types.NewMetadataFault(address, errors.New("execution reverted"))
	}
	return meta, nil
}

func transferLog(token string, index int) types.EvmLog {
	return types.EvmLog{
		Address:  token,
		Topics:   []string{types.EvmTransferTopic, fromTopic, toTopic},
		Data:     oneValue,
		LogIndex: fmt.Sprintf("0x%x", index),
	}
}

func newTestExtractor(t *testing.T, resolver metadata.Resolver, filter NameFilter) *Extractor {
	t.Helper()
	e, err := New(slog.New(slog.NewTextHandler(io.Discard, nil)), resolver, filter)
	require.NoError(t, err)
	return e
}

func TestIsTransferLog(t *testing.T) {
	log := transferLog(apeToken, 0)
	assert.True(t, IsTransferLog(log))

	// ERC-721 Transfer indexes the token id as well
	erc721 := log
	erc721.Topics = append([]string{}, log.Topics...)
	erc721.Topics = append(erc721.Topics, oneValue)
	assert.False(t, IsTransferLog(erc721))

	other := log
	other.Topics = []string{"0x8c5be1e5ebec7d5bd14f71427d1e84f3dd0314c0f7b2291e5b200ac8c7c3b925", fromTopic, toTopic}
	assert.False(t, IsTransferLog(other))

	assert.False(t, IsTransferLog(types.EvmLog{}))
}

func TestContainsFilter(t *testing.T) {
	f := ContainsFilter("Ape")
	assert.True(t, f.Matches("ApeCoin"))
	assert.True(t, f.Matches("Bored Ape Yacht Club"))
	assert.False(t, f.Matches("apecoin"))
	assert.False(t, f.Matches("APE"))
	assert.False(t, f.Matches(""))
}

func TestExtractFiltersByName(t *testing.T) {
	resolver := newFakeResolver()
	e := newTestExtractor(t, resolver, nil)

	block := indexertypes.Block{
		Height: 10,
		Logs: []types.EvmLog{
			transferLog(apeToken, 0),
			transferLog(grapeToken, 1),
			{Address: apeToken, Topics: []string{"0xdeadbeef"}, LogIndex: "0x2"},
			transferLog(apeToken, 3),
		},
	}

	batch, err := e.Extract(context.Background(), block)
	require.NoError(t, err)
	assert.Equal(t, indexertypes.MatchBatch{
		{Address: apeAddress, Name: "ApeCoin", Symbol: "APE"},
		{Address: apeAddress, Name: "ApeCoin", Symbol: "APE"},
	}, batch)

	// once per matching log
	assert.Equal(t, 2, resolver.calls[apeAddress])
	assert.Equal(t, 1, resolver.calls[grapeAddress])
}

func TestExtractEmptyBlock(t *testing.T) {
	e := newTestExtractor(t, newFakeResolver(), nil)

	batch, err := e.Extract(context.Background(), indexertypes.Block{Height: 1})
	require.NoError(t, err)
	assert.NotNil(t, batch)
	assert.Empty(t, batch)
}

func TestExtractMetadataFaultDropsRecord(t *testing.T) {
	e := newTestExtractor(t, newFakeResolver(), nil)

	block := indexertypes.Block{
		Height: 5,
		Logs:   []types.EvmLog{transferLog(brokenMeta, 0), transferLog(apeToken, 1)},
	}

	batch, err := e.Extract(context.Background(), block)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, apeAddress, batch[0].Address)
}

func TestExtractMetadataFaultWithPermissiveFilter(t *testing.T) {
	e := newTestExtractor(t, newFakeResolver(), ContainsFilter(""))

	batch, err := e.Extract(context.Background(), indexertypes.Block{
		Height: 5,
		Logs:   []types.EvmLog{transferLog(brokenMeta, 0)},
	})
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, indexertypes.MatchRecord{Address: "9fe46736679d2d9a65f0992f2272de9f3c7fa6e0"}, batch[0])
}

func TestExtractDecodeFaultAbortsBlock(t *testing.T) {
	e := newTestExtractor(t, newFakeResolver(), nil)

	bad := transferLog(apeToken, 1)
	bad.Data = "0x01"

	_, err := e.Extract(context.Background(), indexertypes.Block{
		Height: 9,
		Logs:   []types.EvmLog{transferLog(apeToken, 0), bad},
	})
	require.Error(t, err)
	assert.True(t, types.IsDecodeFault(err))
	assert.Contains(t, err.Error(), "0x1")
}

func TestExtractDecodeFaultOnMalformedTopic(t *testing.T) {
	e := newTestExtractor(t, newFakeResolver(), nil)

	bad := transferLog(apeToken, 0)
	bad.Topics = []string{types.EvmTransferTopic, "0x01", toTopic}

	_, err := e.Extract(context.Background(), indexertypes.Block{Height: 9, Logs: []types.EvmLog{bad}})
	require.Error(t, err)
	assert.True(t, types.IsDecodeFault(err))
}

type cancellingResolver struct {
	cancel context.CancelFunc
}

func (r cancellingResolver) Resolve(ctx context.Context, _ string, _ int64) (metadata.TokenMeta, error) {
	r.cancel()
	return metadata.TokenMeta{}, ctx.Err()
}

func TestExtractPropagatesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	e := newTestExtractor(t, cancellingResolver{cancel: cancel}, nil)

	_, err := e.Extract(ctx, indexertypes.Block{Height: 1, Logs: []types.EvmLog{transferLog(apeToken, 0)}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeTransfer(t *testing.T) {
	e := newTestExtractor(t, newFakeResolver(), nil)

	transfer, err := e.decode(transferLog(apeToken, 0))
	require.NoError(t, err)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", transfer.From.Hex())
	assert.Equal(t, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", transfer.To.Hex())
	assert.Equal(t, int64(1), transfer.Value.Int64())
}

func TestExtractDeterministic(t *testing.T) {
	e := newTestExtractor(t, newFakeResolver(), nil)

	block := indexertypes.Block{
		Height: 12,
		Logs: []types.EvmLog{
			transferLog(grapeToken, 0),
			transferLog(apeToken, 1),
			transferLog(brokenMeta, 2),
			transferLog(apeToken, 3),
		},
	}

	first, err := e.Extract(context.Background(), block)
	require.NoError(t, err)
	second, err := e.Extract(context.Background(), block)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
}

func TestExtractPartialMetadataStillMatches(t *testing.T) {
	resolver := newFakeResolver()
	// symbol() reverted upstream, name() resolved
	resolver.tokens[apeAddress] = metadata.TokenMeta{Name: "Bored Ape"}
	e := newTestExtractor(t, resolver, nil)

	batch, err := e.Extract(context.Background(), indexertypes.Block{
		Height: 3,
		Logs:   []types.EvmLog{transferLog(apeToken, 0)},
	})
	require.NoError(t, err)
	assert.Equal(t, indexertypes.MatchBatch{{Address: apeAddress, Name: "Bored Ape"}}, batch)
}
