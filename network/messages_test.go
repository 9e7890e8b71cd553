package network

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCmdToBytesRoundTrips(t *testing.T) {
	encoded := cmdToBytes("version")
	require.Len(t, encoded, commandLength)
	require.Equal(t, "version", bytesToCmd(encoded))
}

func TestCmdToBytesPadsWithZeros(t *testing.T) {
	encoded := cmdToBytes("tx")
	for i := 2; i < commandLength; i++ {
		require.Equal(t, byte(0), encoded[i])
	}
}

func TestFrameCarriesCommandAndPayload(t *testing.T) {
	payload, err := gobEncode(versionMsg{Version: 1, BestHeight: 3, AddrFrom: "localhost:3001"})
	require.NoError(t, err)

	msg := frame(cmdVersion, payload)
	require.Equal(t, cmdVersion, bytesToCmd(msg[:commandLength]))

	var decoded versionMsg
	require.NoError(t, gobDecode(msg, &decoded))
	require.Equal(t, int32(1), decoded.Version)
	require.Equal(t, int32(3), decoded.BestHeight)
	require.Equal(t, "localhost:3001", decoded.AddrFrom)
}
