package types

import "strings"

const (
	// ZeroAddress denotes the chain's native currency in stored records.
	ZeroAddress = "0x0000000000000000000000000000000000000000"
	// NativeTokenAddress is the placeholder the swap quoter expects for the native currency.
	NativeTokenAddress = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"
)

type Token struct {
	Address  string `bson:"address" json:"address"`
	Decimals int    `bson:"decimals" json:"decimals"`
	Symbol   string `bson:"symbol,omitempty" json:"symbol,omitempty"`
}

// IsNative is true for both the zero address and the 0xEeee placeholder.
func (t Token) IsNative() bool {
	return IsNativeAddress(t.Address)
}

func IsNativeAddress(address string) bool {
	return strings.EqualFold(address, ZeroAddress) || strings.EqualFold(address, NativeTokenAddress)
}

// QuoteAddress maps the native zero address to the quoter placeholder and leaves other tokens untouched.
func (t Token) QuoteAddress() string {
	if strings.EqualFold(t.Address, ZeroAddress) {
		return NativeTokenAddress
	}
	return t.Address
}
