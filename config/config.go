package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	// ChainID is the COTI chain id shared by every declared network.
	ChainID = 2632500

	NetworkHardhat     = "hardhat"
	NetworkCotiMainnet = "coti-mainnet"
	NetworkCotiTestnet = "coti-testnet"

	DefaultHardhatRPCURL     = "http://127.0.0.1:8545"
	DefaultCotiRPCURL        = "https://mainnet.coti.io/rpc"
	DefaultCotiTestnetRPCURL = "https://testnet.coti.io/rpc"

	// DevAccountPrivKeyHex is development account #0 of a local Hardhat/Anvil node,
	// address 0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266.
	DevAccountPrivKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
)

var ErrUnknownNetwork = errors.New("unknown network")

// Env is the raw environment surface read by the loader.
type Env struct {
	CotiRPCURL         string `env:"COTI_RPC_URL" envDefault:"https://mainnet.coti.io/rpc"`
	CotiTestnetRPCURL  string `env:"COTI_TESTNET_RPC_URL" envDefault:"https://testnet.coti.io/rpc"`
	DeployerPrivateKey string `env:"DEPLOYER_PRIVATE_KEY"`
	LogLevel           string `env:"LOG_LEVEL" envDefault:"info"`
}

// Config is the static tool configuration, evaluated once at startup.
type Config struct {
	Solidity       SolidityConfig
	Paths          PathsConfig
	Networks       map[string]Network
	DefaultNetwork string
	LogLevel       string
}

// SolidityConfig holds the compiler settings the contract is built with.
type SolidityConfig struct {
	Version       string
	OptimizerOn   bool
	OptimizerRuns int
	ViaIR         bool
}

type PathsConfig struct {
	Sources   string
	Cache     string
	Artifacts string
}

// Network describes one RPC endpoint and the credentials used to sign for it.
// An empty Accounts list disables transaction signing on that network.
type Network struct {
	Name     string
	URL      string
	ChainID  uint64
	Accounts []string
}

// Load reads an optional .env file from the working directory and then parses
// the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	e := Env{}
	if err := env.Parse(&e); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return build(e), nil
}

// LoadEnvironment parses the given variables instead of the process environment.
func LoadEnvironment(vars map[string]string) (*Config, error) {
	e := Env{}
	if err := env.ParseWithOptions(&e, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return build(e), nil
}

func build(e Env) *Config {
	accounts := []string{}
	if e.DeployerPrivateKey != "" {
		accounts = []string{e.DeployerPrivateKey}
	}

	devAccounts := []string{DevAccountPrivKeyHex}
	if len(accounts) > 0 {
		devAccounts = accounts
	}

	return &Config{
		Solidity: SolidityConfig{
			Version:       "0.8.19",
			OptimizerOn:   true,
			OptimizerRuns: 200,
			ViaIR:         false,
		},
		Paths: PathsConfig{
			Sources:   "./contracts",
			Cache:     "./cache",
			Artifacts: "./artifacts",
		},
		Networks: map[string]Network{
			NetworkHardhat: {
				Name:     NetworkHardhat,
				URL:      DefaultHardhatRPCURL,
				ChainID:  ChainID,
				Accounts: devAccounts,
			},
			NetworkCotiMainnet: {
				Name:     NetworkCotiMainnet,
				URL:      e.CotiRPCURL,
				ChainID:  ChainID,
				Accounts: accounts,
			},
			NetworkCotiTestnet: {
				Name:     NetworkCotiTestnet,
				URL:      e.CotiTestnetRPCURL,
				ChainID:  ChainID,
				Accounts: accounts,
			},
		},
		DefaultNetwork: NetworkHardhat,
		LogLevel:       e.LogLevel,
	}
}

// Network returns the named network, or the default one when name is empty.
func (c *Config) Network(name string) (Network, error) {
	if name == "" {
		name = c.DefaultNetwork
	}
	n, ok := c.Networks[name]
	if !ok {
		return Network{}, fmt.Errorf("%w %q (available: %v)", ErrUnknownNetwork, name, c.NetworkNames())
	}
	return n, nil
}

func (c *Config) NetworkNames() []string {
	names := make([]string, 0, len(c.Networks))
	for name := range c.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ArtifactPath returns where the compiled artifact of contract, declared in
// the source file source (relative to the repository root), is written.
func (c *Config) ArtifactPath(source, contract string) string {
	return filepath.Join(c.Paths.Artifacts, source, contract+".json")
}

// SourcePath returns the repository-relative path of a file in the sources dir.
func (c *Config) SourcePath(file string) string {
	return filepath.ToSlash(filepath.Join(c.Paths.Sources, file))
}

// FindRoot walks up from dir to the first directory that holds go.mod or
// hardhat.config.ts. It returns dir itself when neither is found.
func FindRoot(dir string) (string, error) {
	start, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for cur := start; ; {
		for _, marker := range []string{"go.mod", "hardhat.config.ts"} {
			if _, err := os.Stat(filepath.Join(cur, marker)); err == nil {
				return cur, nil
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return start, nil
		}
		cur = parent
	}
}
