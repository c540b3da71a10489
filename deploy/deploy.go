// Package deploy resolves the MemoGC constructor parameters and deploys the contract.
package deploy

import (
	"context"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/memogc/memogc-deploy/framework"
)

const (
	ContractName   = "MemoGC"
	ContractSource = "contracts/MemoGC.sol"

	// GasLimit is passed explicitly so the creation transaction never needs
	// eth_estimateGas, which the COTI RPC rejects against the pending block.
	GasLimit = 8_000_000
)

type Result struct {
	Address common.Address
	TxHash  common.Hash
	Params  Params
}

type Deployer struct {
	log          *logrus.Entry
	fr           *framework.Framework
	env          Env
	artifactPath string
}

func NewDeployer(log *logrus.Entry, fr *framework.Framework, env Env, artifactPath string) *Deployer {
	return &Deployer{
		log:          log,
		fr:           fr,
		env:          env,
		artifactPath: artifactPath,
	}
}

// Run resolves the constructor parameters, sends the single MemoGC creation
// transaction and waits for it to be mined. Nothing is retried.
func (d *Deployer) Run(ctx context.Context) (*Result, error) {
	params, err := ResolveParams(d.env, d.fr.FirstSigner)
	if err != nil {
		return nil, err
	}
	d.log.WithFields(logrus.Fields{
		"owner":        params.Owner.Hex(),
		"feeRecipient": params.FeeRecipient.Hex(),
		"feeAmount":    params.FeeAmount.ToBig().String(),
	}).Info("deployment parameters resolved")

	signer, err := d.fr.DefaultSigner()
	if err != nil {
		return nil, err
	}

	artifact, err := framework.ReadArtifact(d.artifactPath)
	if err != nil {
		return nil, err
	}

	contract, err := d.fr.DeployContract(ctx, artifact, signer, GasLimit,
		params.Owner, params.FeeRecipient, params.FeeAmount.ToBig())
	if err != nil {
		return nil, err
	}

	return &Result{
		Address: contract.Address(),
		TxHash:  contract.Tx().Hash(),
		Params:  *params,
	}, nil
}

// RunAndReport is Run followed by Report. Nothing is written on failure.
func (d *Deployer) RunAndReport(ctx context.Context, w io.Writer) (*Result, error) {
	res, err := d.Run(ctx)
	if err != nil {
		return nil, err
	}
	return res, Report(w, res)
}

func Report(w io.Writer, res *Result) error {
	_, err := fmt.Fprintf(w, "%s deployed to: %s\n  owner: %s\n  feeRecipient: %s\n  feeAmount: %s\n",
		ContractName,
		res.Address.Hex(),
		res.Params.Owner.Hex(),
		res.Params.FeeRecipient.Hex(),
		res.Params.FeeAmount.ToBig().String(),
	)
	return err
}
