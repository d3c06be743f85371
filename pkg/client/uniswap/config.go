package uniswap

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultFeeTiers is the order pools are probed in, most liquid tiers first.
var DefaultFeeTiers = []uint32{3000, 500, 10000, 100}

type Config struct {
	Factory    common.Address
	QuoterV2   common.Address
	SwapRouter common.Address
	WETH       common.Address
	FeeTiers   []uint32
}

// SepoliaConfig holds the Uniswap V3 deployment on Sepolia.
func SepoliaConfig() Config {
	return Config{
		Factory:    common.HexToAddress("0x0227628f3F023bb0B980b67D528571c95c6DaC1c"),
		QuoterV2:   common.HexToAddress("0xEd1f6473345F45b75F8179591dd5bA1888cf2FB3"),
		SwapRouter: common.HexToAddress("0x3bFA4769FB09eefC5a80d6E87c3B9C650f7Ae48E"),
		WETH:       common.HexToAddress("0xfFf9976782d46CC05630D1f6eBAb18b2324d6B14"),
		FeeTiers:   DefaultFeeTiers,
	}
}

func (c Config) Validate() error {
	zero := common.Address{}
	switch {
	case c.Factory == zero:
		return fmt.Errorf("uniswap factory address is required")
	case c.QuoterV2 == zero:
		return fmt.Errorf("uniswap quoter address is required")
	case c.SwapRouter == zero:
		return fmt.Errorf("uniswap router address is required")
	case c.WETH == zero:
		return fmt.Errorf("WETH address is required")
	}
	return nil
}
