package types

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/lumenchain/gethcore/common"
	"github.com/lumenchain/gethcore/rlp"
	"github.com/stretchr/testify/require"
)

func TestTransaction_RLPRoundTrip_Legacy(t *testing.T) {
	to := common.HexToAddress("0x1111111111111111111111111111111111111111")
	inner := &LegacyTx{
		Nonce:    7,
		GasPrice: big.NewInt(1_000_000_000),
		Gas:      21000,
		To:       &to,
		Value:    big.NewInt(42),
		Data:     nil,
		V:        big.NewInt(27),
		R:        big.NewInt(1),
		S:        big.NewInt(2),
	}
	tx := NewTx(inner)

	enc, err := rlp.EncodeToBytes(tx)
	require.NoError(t, err)

	var out Transaction
	require.NoError(t, rlp.DecodeBytes(enc, &out))
	require.Equal(t, LegacyTxType, int(out.Type()))
	require.Equal(t, tx.Nonce(), out.Nonce())
	require.Equal(t, tx.Hash(), out.Hash())
}

func TestTransaction_RLPRoundTrip_DynamicFee(t *testing.T) {
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	inner := &DynamicFeeTx{
		ChainID:   big.NewInt(1),
		Nonce:     3,
		GasTipCap: big.NewInt(2),
		GasFeeCap: big.NewInt(10),
		Gas:       21000,
		To:        &to,
		Value:     big.NewInt(0),
		V:         big.NewInt(0),
		R:         big.NewInt(1),
		S:         big.NewInt(2),
	}
	tx := NewTx(inner)

	enc, err := rlp.EncodeToBytes(tx)
	require.NoError(t, err)
	_, content, _, err := rlp.Split(enc)
	require.NoError(t, err)
	require.Equal(t, byte(DynamicFeeTxType), content[0])

	var out Transaction
	require.NoError(t, rlp.DecodeBytes(enc, &out))
	require.Equal(t, DynamicFeeTxType, int(out.Type()))
	require.Equal(t, tx.GasFeeCap(), out.GasFeeCap())
}

func TestTransaction_EffectiveGasTip(t *testing.T) {
	to := common.HexToAddress("0x3333333333333333333333333333333333333333")
	inner := &DynamicFeeTx{
		Nonce: 0, Gas: 21000, To: &to, Value: big.NewInt(0),
		GasTipCap: big.NewInt(2), GasFeeCap: big.NewInt(10),
		V: big.NewInt(0), R: big.NewInt(1), S: big.NewInt(1),
	}
	tx := NewTx(inner)

	tip, err := tx.EffectiveGasTip(uint256.NewInt(5))
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(2), tip) // min(10-5, 2) = 2

	_, err = tx.EffectiveGasTip(uint256.NewInt(11))
	require.ErrorIs(t, err, ErrFeeCapBelowBaseFee)
}
