package sigverify_test

import (
	"math/big"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
)

func negateModN(s []byte) []byte {
	n := btcec.S256().N
	v := new(big.Int).SetBytes(s)
	v.Sub(n, v)
	out := make([]byte, 32)
	v.FillBytes(out)
	return out
}

func decompress(t *testing.T, compressed []byte) []byte {
	t.Helper()
	pub, err := btcec.ParsePubKey(compressed)
	require.NoError(t, err)
	return pub.SerializeUncompressed()
}
