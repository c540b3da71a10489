package deploy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const DefaultFeeAmount = "0"

var (
	ErrInvalidFeeAmount = errors.New("invalid fee amount")
	ErrInvalidAddress   = errors.New("invalid address")
	ErrUnresolvedOwner  = errors.New("initial owner could not be resolved")
)

// Env holds the deployment inputs. Empty values count as unset.
type Env struct {
	Owner           string `env:"MEMO_GC_OWNER"`
	DeployerAddress string `env:"DEPLOYER_ADDRESS"`
	FeeRecipient    string `env:"MEMO_GC_FEE_RECIPIENT"`
	FeeAmount       string `env:"MEMO_GC_FEE_AMOUNT" envDefault:"0"`
}

// LoadEnv reads Env from the process environment.
func LoadEnv() (Env, error) {
	e := Env{}
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("failed to parse deploy env: %w", err)
	}
	return e, nil
}

// LoadEnvFrom reads Env from vars instead of the process environment.
func LoadEnvFrom(vars map[string]string) (Env, error) {
	e := Env{}
	if err := env.ParseWithOptions(&e, env.Options{Environment: vars}); err != nil {
		return Env{}, fmt.Errorf("failed to parse deploy env: %w", err)
	}
	return e, nil
}

// Params are the MemoGC constructor arguments.
type Params struct {
	Owner        common.Address
	FeeRecipient common.Address
	FeeAmount    *uint256.Int
}

// ResolveParams applies the cascade
//
//	owner        = MEMO_GC_OWNER ?? DEPLOYER_ADDRESS ?? firstSigner()
//	feeRecipient = MEMO_GC_FEE_RECIPIENT ?? owner
//	feeAmount    = MEMO_GC_FEE_AMOUNT ?? 0
//
// The fee amount is checked first. firstSigner is only called when neither
// owner variable is set.
func ResolveParams(e Env, firstSigner func() (common.Address, error)) (*Params, error) {
	amount, err := parseFeeAmount(e.FeeAmount)
	if err != nil {
		return nil, err
	}

	var owner common.Address
	switch {
	case strings.TrimSpace(e.Owner) != "":
		owner, err = parseAddress("MEMO_GC_OWNER", e.Owner)
	case strings.TrimSpace(e.DeployerAddress) != "":
		owner, err = parseAddress("DEPLOYER_ADDRESS", e.DeployerAddress)
	default:
		owner, err = firstSigner()
	}
	if err != nil {
		return nil, err
	}
	if owner == (common.Address{}) {
		return nil, ErrUnresolvedOwner
	}

	recipient := owner
	if strings.TrimSpace(e.FeeRecipient) != "" {
		recipient, err = parseAddress("MEMO_GC_FEE_RECIPIENT", e.FeeRecipient)
		if err != nil {
			return nil, err
		}
	}

	return &Params{
		Owner:        owner,
		FeeRecipient: recipient,
		FeeAmount:    amount,
	}, nil
}

func parseAddress(name, s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w in %s: %q", ErrInvalidAddress, name, s)
	}
	return common.HexToAddress(s), nil
}

// parseFeeAmount accepts a decimal or 0x-prefixed hexadecimal integer in
// [0, 2^256). Leading zeros are allowed in both forms.
func parseFeeAmount(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = DefaultFeeAmount
	}

	var (
		v   *uint256.Int
		err error
	)
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		digits := s[2:]
		if digits != "" {
			if digits = strings.TrimLeft(digits, "0"); digits == "" {
				digits = "0"
			}
		}
		v, err = uint256.FromHex("0x" + digits)
	} else {
		v, err = uint256.FromDecimal(s)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidFeeAmount, s, err)
	}
	return v, nil
}
