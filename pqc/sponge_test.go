package pqc

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

// Known-answer vectors from FIPS 202 / NIST's SHA-3 test suite, used here to
// pin the hand-rolled Keccak-f[1600] permutation against the standard
// rather than only against itself.
func TestSHA3_256KnownAnswers(t *testing.T) {
	cases := []struct {
		msg  []byte
		want string
	}{
		{[]byte{}, "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"},
		{[]byte("abc"), "3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532"},
	}
	for _, c := range cases {
		got := SHA3_256(c.msg)
		require.Equal(t, c.want, hex.EncodeToString(got[:]))
	}
}

func TestSHA3_512KnownAnswer(t *testing.T) {
	want := "a69f73cca23a9ac5c8b567dc185a756e97c982164fe25859e0d1dcc1475c80a615b2123af1f5f94c11e3e9402c3ac558f500199d95b6d3e301758586281dcd26"
	got := SHA3_512([]byte{})
	require.Equal(t, want, hex.EncodeToString(got[:]))
}

func TestShake128KnownAnswer(t *testing.T) {
	want := "5881092dd818bf5cf8a3ddb793fbcba74097d5c526a6d35f97b83351940f2cc8"
	got := Shake128([]byte("abc"), 32)
	require.Equal(t, want, hex.EncodeToString(got))
}

func TestShake256KnownAnswer(t *testing.T) {
	want := "483366601360a8771c6863080cc4114d8db44530f8f1e1ee4f94ea37e78b5739"
	got := Shake256([]byte("abc"), 32)
	require.Equal(t, want, hex.EncodeToString(got))
}

func TestShakeXOFMatchesOneShot(t *testing.T) {
	oneShot := Shake256([]byte("streaming-consistency"), 64)

	xof := NewShake256XOF([]byte("streaming-consistency"))
	streamed := make([]byte, 64)
	half := len(streamed) / 2
	_, _ = xof.Read(streamed[:half])
	_, _ = xof.Read(streamed[half:])

	require.Equal(t, oneShot, streamed)
}

func TestCShakeDegeneratesToShakeWhenUnNamed(t *testing.T) {
	direct := Shake256([]byte("msg"), 32)
	viaCShake := CShake(RateCSHAKE256, []byte("msg"), nil, nil, 32)
	require.Equal(t, direct, viaCShake)
}

func TestCShakeDiffersByCustomization(t *testing.T) {
	a := CShake(RateCSHAKE256, []byte("msg"), []byte("N"), []byte("salt-a"), 32)
	b := CShake(RateCSHAKE256, []byte("msg"), []byte("N"), []byte("salt-b"), 32)
	require.NotEqual(t, a, b)
}
