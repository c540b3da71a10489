// Package framework loads compiled artifacts, holds signer keys and deploys
// contracts over JSON-RPC.
package framework

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/memogc/memogc-deploy/config"
)

var (
	ErrNoSigners       = errors.New("no signer configured for network")
	ErrChainIDMismatch = errors.New("rpc endpoint reports a different chain id")
)

// Backend is the RPC surface needed to deploy a contract and wait for it.
// *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
}

type Framework struct {
	log     *logrus.Entry
	network config.Network
	backend Backend
	signers []*PrivKey
	chainID *big.Int
	close   func()
}

// New connects to the network's RPC endpoint. The remote chain id is checked
// against the configured one by the first DeployContract, before anything is
// signed.
func New(ctx context.Context, log *logrus.Entry, network config.Network) (*Framework, error) {
	signers, err := parseSigners(network.Accounts)
	if err != nil {
		return nil, err
	}

	client, err := ethclient.DialContext(ctx, network.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to network %s: %w", network.Name, err)
	}

	fr := newFramework(log, network, client, signers)
	fr.close = client.Close
	return fr, nil
}

// NewWithBackend is New for an already constructed backend.
func NewWithBackend(log *logrus.Entry, network config.Network, backend Backend) (*Framework, error) {
	signers, err := parseSigners(network.Accounts)
	if err != nil {
		return nil, err
	}
	return newFramework(log, network, backend, signers), nil
}

func newFramework(log *logrus.Entry, network config.Network, backend Backend, signers []*PrivKey) *Framework {
	return &Framework{
		log:     log.WithField("network", network.Name),
		network: network,
		backend: backend,
		signers: signers,
	}
}

func parseSigners(accounts []string) ([]*PrivKey, error) {
	signers := make([]*PrivKey, 0, len(accounts))
	for i, account := range accounts {
		key, err := NewPrivKeyFromHex(account)
		if err != nil {
			return nil, fmt.Errorf("account %d: %w", i, err)
		}
		signers = append(signers, key)
	}
	return signers, nil
}

func (f *Framework) Close() {
	if f.close != nil {
		f.close()
	}
}

func (f *Framework) Network() config.Network {
	return f.network
}

func (f *Framework) Signers() []*PrivKey {
	return f.signers
}

// DefaultSigner is the first configured account.
func (f *Framework) DefaultSigner() (*PrivKey, error) {
	if len(f.signers) == 0 {
		return nil, fmt.Errorf("%w %s", ErrNoSigners, f.network.Name)
	}
	return f.signers[0], nil
}

// FirstSigner returns the address of the default signer.
func (f *Framework) FirstSigner() (common.Address, error) {
	signer, err := f.DefaultSigner()
	if err != nil {
		return common.Address{}, err
	}
	return signer.Address(), nil
}

func (f *Framework) checkChainID(ctx context.Context) error {
	if f.chainID != nil {
		return nil
	}

	remote, err := f.backend.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("fetch chain id: %w", err)
	}
	expected := new(big.Int).SetUint64(f.network.ChainID)
	if remote.Cmp(expected) != 0 {
		return fmt.Errorf("%w: configured %s, got %s", ErrChainIDMismatch, expected, remote)
	}
	f.chainID = remote
	return nil
}

// DeployContract sends one creation transaction for artifact with the given
// constructor args and blocks until code exists at the new address.
//
// gasLimit is always passed through, so no eth_estimateGas call is made, and
// the nonce comes from the latest block instead of the pending one. Some RPC
// endpoints do not serve the pending block.
func (f *Framework) DeployContract(ctx context.Context, artifact *Artifact, signer *PrivKey, gasLimit uint64, args ...interface{}) (*Contract, error) {
	if err := f.checkChainID(ctx); err != nil {
		return nil, err
	}

	opts, err := bind.NewKeyedTransactorWithChainID(signer.Priv, f.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	opts.GasLimit = gasLimit

	nonce, err := f.backend.NonceAt(ctx, signer.Address(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch nonce of %s: %w", signer.Address().Hex(), err)
	}
	opts.Nonce = new(big.Int).SetUint64(nonce)

	addr, tx, _, err := bind.DeployContract(opts, *artifact.Abi, artifact.Code, f.backend, args...)
	if err != nil {
		return nil, fmt.Errorf("send %s creation transaction: %w", artifact.ContractName, err)
	}

	log := f.log.WithFields(logrus.Fields{
		"contract": artifact.ContractName,
		"source":   artifact.SourceName,
		"tx":       tx.Hash().Hex(),
		"address":  addr.Hex(),
		"gas":      tx.Gas(),
	})
	log.Info("creation transaction sent, waiting for confirmation")

	if _, err := bind.WaitDeployed(ctx, f.backend, tx); err != nil {
		return nil, fmt.Errorf("wait for %s deployment (tx %s): %w", artifact.ContractName, tx.Hash().Hex(), err)
	}
	log.Debug("contract code present")

	return &Contract{addr: addr, tx: tx}, nil
}

type Contract struct {
	addr common.Address
	tx   *types.Transaction
}

func (c *Contract) Address() common.Address {
	return c.addr
}

// Tx is the creation transaction.
func (c *Contract) Tx() *types.Transaction {
	return c.tx
}
