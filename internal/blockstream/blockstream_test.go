package blockstream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLatestBlockNumberBeforeConnect(t *testing.T) {
	s := New("wss://example.invalid")
	_, ok := s.LatestBlockNumber()
	require.False(t, ok)
}
