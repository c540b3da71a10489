// Package fwtest provides an in-memory chain and artifact fixtures for tests
// that deploy through the framework package.
package fwtest

import (
	"context"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind/backends"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/types"
)

const (
	GasLimit = 30_000_000

	// ReturnsCode is init code that deploys the single byte runtime 0x00.
	ReturnsCode = "0x600060005360016000f3"
	// Reverts is init code that reverts with empty data.
	Reverts = "0x60006000fd"

	// ConstructorABI declares constructor(address,address,uint256).
	ConstructorABI = `[{"inputs":[{"internalType":"address","name":"initialOwner","type":"address"},{"internalType":"address","name":"initialFeeRecipient","type":"address"},{"internalType":"uint256","name":"initialFeeAmount","type":"uint256"}],"stateMutability":"nonpayable","type":"constructor"}]`
)

// Backend is a simulated chain that mines every transaction as soon as it is
// accepted.
type Backend struct {
	*backends.SimulatedBackend
	sent []*types.Transaction
}

func NewBackend(t testing.TB, funded ...common.Address) *Backend {
	t.Helper()

	alloc := core.GenesisAlloc{}
	balance, _ := new(big.Int).SetString("1000000000000000000000", 10)
	for _, addr := range funded {
		alloc[addr] = core.GenesisAccount{Balance: balance}
	}

	sim := backends.NewSimulatedBackend(alloc, GasLimit)
	t.Cleanup(func() { sim.Close() })

	return &Backend{SimulatedBackend: sim}
}

func (b *Backend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := b.SimulatedBackend.SendTransaction(ctx, tx); err != nil {
		return err
	}
	b.sent = append(b.sent, tx)
	b.Commit()
	return nil
}

func (b *Backend) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.Blockchain().Config().ChainID), nil
}

// Sent returns every transaction accepted so far.
func (b *Backend) Sent() []*types.Transaction {
	return b.sent
}

// WriteArtifact writes a Hardhat style artifact for contract under dir and
// returns its path.
func WriteArtifact(t testing.TB, dir, source, contract, bytecode string) string {
	t.Helper()

	doc := map[string]interface{}{
		"_format":          "hh-sol-artifact-1",
		"contractName":     contract,
		"sourceName":       source,
		"abi":              json.RawMessage(ConstructorABI),
		"bytecode":         bytecode,
		"deployedBytecode": "0x00",
		"linkReferences":   map[string]interface{}{},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, source, contract+".json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
