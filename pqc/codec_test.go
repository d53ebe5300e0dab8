package pqc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodecNameRoundTrip(t *testing.T) {
	var codec CodecEnum
	for _, ps := range codec.All() {
		name, err := codec.Name(ps)
		require.NoError(t, err)
		got, err := codec.FromName(name)
		require.NoError(t, err)
		require.Equal(t, ps, got)
	}
}

func TestCodecFromNameUnknown(t *testing.T) {
	var codec CodecEnum
	_, err := codec.FromName("NOT-A-REAL-PARAMETER-SET")
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestCodecNoneIsInvalid(t *testing.T) {
	_, err := ParamNone.info()
	require.ErrorIs(t, err, ErrInvalidParameter)
}
