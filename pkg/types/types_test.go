package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testPermission = Permission{
	Context:    "0x1234",
	SignerMeta: SignerMeta{DelegationManager: "0xdb9B1e94B5b69Df7e401DDbedE43491141047dB3"},
}

func TestToken_NativeHandling(t *testing.T) {
	native := Token{Address: ZeroAddress, Decimals: 18}
	placeholder := Token{Address: "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee", Decimals: 18}
	usdc := Token{Address: "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238", Decimals: 6}

	assert.True(t, native.IsNative())
	assert.True(t, placeholder.IsNative())
	assert.False(t, usdc.IsNative())

	assert.Equal(t, NativeTokenAddress, native.QuoteAddress())
	assert.Equal(t, usdc.Address, usdc.QuoteAddress())
}

func TestTask_Validate(t *testing.T) {
	valid := Task{
		ID:              primitive.NewObjectID(),
		Type:            TaskTypePrice,
		FromToken:       Token{Address: ZeroAddress, Decimals: 18},
		ToToken:         Token{Address: "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238", Decimals: 6},
		FromAmount:      "0.01",
		SwapLimitAmount: "25",
		Permission:      []Permission{testPermission},
	}
	require.NoError(t, valid.Validate())

	noPermission := valid
	noPermission.Permission = nil
	assert.ErrorContains(t, noPermission.Validate(), "no permission")

	zeroAmount := valid
	zeroAmount.FromAmount = "0"
	assert.ErrorContains(t, zeroAmount.Validate(), "from_amount")

	badLimit := valid
	badLimit.SwapLimitAmount = ""
	assert.ErrorContains(t, badLimit.Validate(), "swap_limit_amount")

	scheduled := badLimit
	scheduled.Type = TaskTypeScheduled
	assert.NoError(t, scheduled.Validate())
}

func TestSubscription_SwapAmountPrefersFormatted(t *testing.T) {
	s := Subscription{Amount: "1000000", AmountFormatted: "1"}
	assert.Equal(t, Amount("1"), s.SwapAmount())

	s.AmountFormatted = ""
	assert.Equal(t, Amount("1000000"), s.SwapAmount())
}

func TestSubscription_Validate(t *testing.T) {
	valid := Subscription{
		ID:                primitive.NewObjectID(),
		PaymentToken:      Token{Address: "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238", Decimals: 6},
		AmountFormatted:   "5",
		FrequencyInSecond: 3600,
		Permission:        []Permission{testPermission},
	}
	require.NoError(t, valid.Validate())

	noFrequency := valid
	noFrequency.FrequencyInSecond = 0
	assert.ErrorContains(t, noFrequency.Validate(), "frequency")

	noPermission := valid
	noPermission.Permission = []Permission{}
	assert.ErrorContains(t, noPermission.Validate(), "no permission")
}

func TestSubscription_DecodesAppDocument(t *testing.T) {
	id := primitive.NewObjectID()
	raw, err := bson.Marshal(bson.M{
		"_id":                    id,
		"wallet_address":         "0xabc",
		"paymentToken":           bson.M{"address": "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238", "decimals": int32(6), "symbol": "USDC"},
		"targetToken":            bson.M{"address": ZeroAddress, "decimals": int32(18), "symbol": "ETH"},
		"amount":                 int32(5000000),
		"amount_formatted":       "5",
		"frequency_in_second":    int32(86400),
		"duration_in_second":     float64(1767225600),
		"totalExecutions":        int32(7),
		"executed":               int32(2),
		"nextExecutionTimestamp": float64(1760000000),
		"status":                 "active",
		"settings":               bson.M{"slippage": 0.5, "deadline": int32(600)},
		"permission":             bson.A{bson.M{"context": "0x01", "signerMeta": bson.M{"delegationManager": "0xdb9B1e94B5b69Df7e401DDbedE43491141047dB3"}}},
	})
	require.NoError(t, err)

	var s Subscription
	require.NoError(t, bson.Unmarshal(raw, &s))

	assert.Equal(t, id, s.ID)
	assert.Equal(t, 6, s.PaymentToken.Decimals)
	assert.Equal(t, Amount("5000000"), s.Amount)
	assert.Equal(t, Amount("5"), s.SwapAmount())
	assert.Equal(t, int64(1767225600), s.DurationInSecond)
	assert.Equal(t, int64(1760000000), s.NextExecutionTimestamp)
	assert.Equal(t, int64(2), s.Executed)
	assert.Equal(t, SubscriptionStatusActive, s.Status)
	require.NotNil(t, s.Settings)
	assert.Equal(t, 0.5, s.Settings.Slippage)
	assert.Equal(t, "0x01", s.Permission[0].Context)
}
