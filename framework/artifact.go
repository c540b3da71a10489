package framework

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var errMissingBytecode = errors.New("artifact has no bytecode")

// Artifact is a compiled contract as emitted by Hardhat under artifacts/.
type Artifact struct {
	ContractName string
	SourceName   string
	Abi          *abi.ABI
	Code         []byte
}

type hardhatArtifact struct {
	ContractName string          `json:"contractName"`
	SourceName   string          `json:"sourceName"`
	Abi          json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`
}

func ReadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}

	var raw hardhatArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", path, err)
	}

	abiDef, err := abi.JSON(bytes.NewReader(raw.Abi))
	if err != nil {
		return nil, fmt.Errorf("decode abi of %s: %w", path, err)
	}

	code, err := decodeCode(raw.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("decode bytecode of %s: %w", path, err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("%s: %w", path, errMissingBytecode)
	}

	return &Artifact{
		ContractName: raw.ContractName,
		SourceName:   raw.SourceName,
		Abi:          &abiDef,
		Code:         code,
	}, nil
}

func decodeCode(s string) ([]byte, error) {
	if s == "" || s == "0x" {
		return nil, nil
	}
	return hexutil.Decode(s)
}
