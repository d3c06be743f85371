package config

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trigg3rX/autobuy-backend/pkg/client/uniswap"
	"github.com/trigg3rX/autobuy-backend/pkg/env"
	"github.com/trigg3rX/autobuy-backend/pkg/yaml"
)

// NetworkConfig is the per-chain contract book read from the network YAML file.
type NetworkConfig struct {
	Name    string        `yaml:"name"`
	ChainID int64         `yaml:"chain_id"`
	Uniswap UniswapConfig `yaml:"uniswap"`
}

type UniswapConfig struct {
	Factory    string   `yaml:"factory"`
	QuoterV2   string   `yaml:"quoter_v2"`
	SwapRouter string   `yaml:"swap_router"`
	WETH       string   `yaml:"weth"`
	FeeTiers   []uint32 `yaml:"fee_tiers"`
}

func defaultNetwork() NetworkConfig {
	sepolia := uniswap.SepoliaConfig()
	return NetworkConfig{
		Name:    "sepolia",
		ChainID: 11155111,
		Uniswap: UniswapConfig{
			Factory:    sepolia.Factory.Hex(),
			QuoterV2:   sepolia.QuoterV2.Hex(),
			SwapRouter: sepolia.SwapRouter.Hex(),
			WETH:       sepolia.WETH.Hex(),
			FeeTiers:   append([]uint32(nil), sepolia.FeeTiers...),
		},
	}
}

// LoadNetwork reads path and its NETWORK overlay on top of the Sepolia defaults.
// A missing file keeps the defaults.
func LoadNetwork(path string) error {
	network := defaultNetwork()
	err := yaml.LoadEnvironmentSpecificYAML(path, &network, cfg.networkName)
	switch {
	case err == nil:
	case errors.Is(err, yaml.ErrFileNotFound):
		fmt.Printf("Network config %s not found, using %s defaults\n", path, network.Name)
	default:
		return fmt.Errorf("failed to load network config: %w", err)
	}

	if err := network.Validate(); err != nil {
		return fmt.Errorf("invalid network config %s: %w", path, err)
	}
	cfg.networkConfigFile = path
	cfg.network = network
	return nil
}

func (n NetworkConfig) Validate() error {
	for name, addr := range map[string]string{
		"factory":     n.Uniswap.Factory,
		"quoter_v2":   n.Uniswap.QuoterV2,
		"swap_router": n.Uniswap.SwapRouter,
		"weth":        n.Uniswap.WETH,
	} {
		if !env.IsValidEthAddress(addr) {
			return fmt.Errorf("invalid uniswap.%s address %q", name, addr)
		}
	}
	if len(n.Uniswap.FeeTiers) == 0 {
		return fmt.Errorf("at least one fee tier is required")
	}
	return nil
}

func (n NetworkConfig) UniswapConfig() uniswap.Config {
	return uniswap.Config{
		Factory:    common.HexToAddress(n.Uniswap.Factory),
		QuoterV2:   common.HexToAddress(n.Uniswap.QuoterV2),
		SwapRouter: common.HexToAddress(n.Uniswap.SwapRouter),
		WETH:       common.HexToAddress(n.Uniswap.WETH),
		FeeTiers:   n.Uniswap.FeeTiers,
	}
}

func GetNetwork() NetworkConfig {
	return cfg.network
}

func GetNetworkConfigFile() string {
	return cfg.networkConfigFile
}
