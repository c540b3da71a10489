package framework

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

type PrivKey struct {
	Priv *ecdsa.PrivateKey
}

func (p *PrivKey) Address() common.Address {
	return crypto.PubkeyToAddress(p.Priv.PublicKey)
}

// NewPrivKeyFromHex parses a hex encoded secp256k1 key, with or without 0x.
// The error never echoes the key material.
func NewPrivKeyFromHex(hex string) (*PrivKey, error) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "0x")
	key, err := crypto.HexToECDSA(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &PrivKey{Priv: key}, nil
}

func GeneratePrivKey() (*PrivKey, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &PrivKey{Priv: key}, nil
}
