package deploy_test

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memogc/memogc-deploy/config"
	"github.com/memogc/memogc-deploy/deploy"
	"github.com/memogc/memogc-deploy/framework"
	"github.com/memogc/memogc-deploy/framework/fwtest"
)

type fixture struct {
	log      *logrus.Entry
	key      *framework.PrivKey
	backend  *fwtest.Backend
	fr       *framework.Framework
	artifact string
}

func newFixture(t *testing.T, bytecode string) *fixture {
	t.Helper()

	logger, _ := test.NewNullLogger()
	log := logrus.NewEntry(logger)

	key, err := framework.GeneratePrivKey()
	require.NoError(t, err)

	backend := fwtest.NewBackend(t, key.Address())
	chainID, err := backend.ChainID(context.Background())
	require.NoError(t, err)

	fr, err := framework.NewWithBackend(log, config.Network{
		Name:     "simulated",
		ChainID:  chainID.Uint64(),
		Accounts: []string{common.Bytes2Hex(crypto.FromECDSA(key.Priv))},
	}, backend)
	require.NoError(t, err)

	dir := t.TempDir()
	fwtest.WriteArtifact(t, dir, deploy.ContractSource, deploy.ContractName, bytecode)

	return &fixture{
		log:      log,
		key:      key,
		backend:  backend,
		fr:       fr,
		artifact: filepath.Join(dir, deploy.ContractSource, deploy.ContractName+".json"),
	}
}

func (f *fixture) deployer(t *testing.T, vars map[string]string) *deploy.Deployer {
	t.Helper()
	e, err := deploy.LoadEnvFrom(vars)
	require.NoError(t, err)
	return deploy.NewDeployer(f.log, f.fr, e, f.artifact)
}

func TestRun_Defaults(t *testing.T) {
	f := newFixture(t, fwtest.ReturnsCode)

	var out bytes.Buffer
	res, err := f.deployer(t, map[string]string{}).RunAndReport(context.Background(), &out)
	require.NoError(t, err)

	assert.Equal(t, f.key.Address(), res.Params.Owner)
	assert.Equal(t, f.key.Address(), res.Params.FeeRecipient)
	assert.True(t, res.Params.FeeAmount.IsZero())
	assert.Equal(t, crypto.CreateAddress(f.key.Address(), 0), res.Address)

	want := fmt.Sprintf("MemoGC deployed to: %s\n  owner: %s\n  feeRecipient: %s\n  feeAmount: 0\n",
		res.Address.Hex(), f.key.Address().Hex(), f.key.Address().Hex())
	assert.Equal(t, want, out.String())
}

func TestRun_SingleTransactionWithFixedGas(t *testing.T) {
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	recipient := common.HexToAddress("0x4444444444444444444444444444444444444444")

	for _, amount := range []string{"0", "1000", "0xffffffffffffffffffff"} {
		t.Run(amount, func(t *testing.T) {
			f := newFixture(t, fwtest.ReturnsCode)

			res, err := f.deployer(t, map[string]string{
				"MEMO_GC_OWNER":         owner.Hex(),
				"MEMO_GC_FEE_RECIPIENT": recipient.Hex(),
				"MEMO_GC_FEE_AMOUNT":    amount,
			}).Run(context.Background())
			require.NoError(t, err)

			require.Len(t, f.backend.Sent(), 1)
			tx := f.backend.Sent()[0]
			assert.Equal(t, uint64(deploy.GasLimit), tx.Gas())
			assert.Equal(t, res.TxHash, tx.Hash())

			// creation data is init code followed by the three abi encoded words
			code := common.FromHex(fwtest.ReturnsCode)
			data := tx.Data()
			require.Len(t, data, len(code)+3*32)
			assert.Equal(t, code, data[:len(code)])
			assert.Equal(t, common.LeftPadBytes(owner.Bytes(), 32), data[len(code):len(code)+32])
			assert.Equal(t, common.LeftPadBytes(recipient.Bytes(), 32), data[len(code)+32:len(code)+64])
			assert.Equal(t, 0, new(big.Int).SetBytes(data[len(code)+64:]).Cmp(res.Params.FeeAmount.ToBig()))

			nonce, err := f.backend.NonceAt(context.Background(), f.key.Address(), nil)
			require.NoError(t, err)
			assert.Equal(t, uint64(1), nonce)
		})
	}
}

func TestRun_ConfirmationFailure(t *testing.T) {
	f := newFixture(t, fwtest.Reverts)

	var out bytes.Buffer
	res, err := f.deployer(t, map[string]string{}).RunAndReport(context.Background(), &out)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Empty(t, out.String())
	assert.Len(t, f.backend.Sent(), 1)
}

// offline panics on any RPC call.
type offline struct {
	framework.Backend
}

func TestRun_InvalidFeeAmountBeforeNetwork(t *testing.T) {
	logger, _ := test.NewNullLogger()
	log := logrus.NewEntry(logger)

	fr, err := framework.NewWithBackend(log, config.Network{
		Name:     "offline",
		ChainID:  config.ChainID,
		Accounts: []string{config.DevAccountPrivKeyHex},
	}, offline{})
	require.NoError(t, err)

	e, err := deploy.LoadEnvFrom(map[string]string{"MEMO_GC_FEE_AMOUNT": "ten"})
	require.NoError(t, err)

	var out bytes.Buffer
	_, err = deploy.NewDeployer(log, fr, e, "does-not-matter.json").RunAndReport(context.Background(), &out)
	require.ErrorIs(t, err, deploy.ErrInvalidFeeAmount)
	assert.Empty(t, out.String())
}

func TestRun_NoSigner(t *testing.T) {
	logger, _ := test.NewNullLogger()
	log := logrus.NewEntry(logger)

	fr, err := framework.NewWithBackend(log, config.Network{Name: "keyless", ChainID: config.ChainID}, offline{})
	require.NoError(t, err)

	e, err := deploy.LoadEnvFrom(map[string]string{"MEMO_GC_OWNER": "0x1111111111111111111111111111111111111111"})
	require.NoError(t, err)

	_, err = deploy.NewDeployer(log, fr, e, "does-not-matter.json").Run(context.Background())
	require.ErrorIs(t, err, framework.ErrNoSigners)
}

func TestRun_MissingArtifact(t *testing.T) {
	f := newFixture(t, fwtest.ReturnsCode)

	e, err := deploy.LoadEnvFrom(map[string]string{})
	require.NoError(t, err)

	_, err = deploy.NewDeployer(f.log, f.fr, e, filepath.Join(t.TempDir(), "missing.json")).Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, f.backend.Sent())
}
