package dimse_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cortexmed/dicom/pkg/dimse"
	"github.com/cortexmed/dicom/pkg/tag"
)

func roundTrip(t *testing.T, m dimse.Message) dimse.Message {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, dimse.WriteMessage(&buf, m))
	got, err := dimse.ReadMessage(&buf, tag.StandardDictionary{})
	require.NoError(t, err)
	return got
}

func TestCEchoRoundTrip(t *testing.T) {
	rq := &dimse.CEchoRQ{MessageID: 7, AffectedSOPClassUID: "1.2.840.10008.1.1"}
	got := roundTrip(t, rq)
	decoded, ok := got.(*dimse.CEchoRQ)
	require.True(t, ok, "decoded type = %T", got)
	require.Equal(t, rq, decoded)
	require.False(t, decoded.HasDataSet())
}

func TestCStoreRQRoundTripCarriesDataSet(t *testing.T) {
	rq := &dimse.CStoreRQ{
		MessageID:              3,
		AffectedSOPClassUID:    "1.2.840.10008.5.1.4.1.1.7",
		Priority:               dimse.PriorityMedium,
		AffectedSOPInstanceUID: "1.2.3.4.5",
	}
	got := roundTrip(t, rq)
	decoded, ok := got.(*dimse.CStoreRQ)
	require.True(t, ok, "decoded type = %T", got)
	require.Equal(t, rq, decoded)
	require.True(t, decoded.HasDataSet())
}

func TestCGetRSPCountsRoundTrip(t *testing.T) {
	rsp := &dimse.CGetRSP{
		MessageIDBeingRespondedTo: 9,
		AffectedSOPClassUID:       "1.2.840.10008.5.1.4.1.2.1.3",
		Status:                    dimse.StatusPending,
		Remaining:                 4,
		Completed:                 2,
		Failed:                    0,
		Warning:                   1,
	}
	got := roundTrip(t, rsp)
	decoded, ok := got.(*dimse.CGetRSP)
	require.True(t, ok, "decoded type = %T", got)
	require.Equal(t, rsp, decoded)
	require.False(t, decoded.HasDataSet())
}

func TestCFindRSPHasDataSetTracksCommandDataSetType(t *testing.T) {
	withIdentifier := &dimse.CFindRSP{
		MessageIDBeingRespondedTo: 1,
		AffectedSOPClassUID:       "1.2.840.10008.5.1.4.1.2.1.1",
		Status:                    dimse.StatusPending,
		HasIdentifier:             true,
	}
	got := roundTrip(t, withIdentifier)
	require.True(t, got.HasDataSet())

	final := &dimse.CFindRSP{
		MessageIDBeingRespondedTo: 1,
		AffectedSOPClassUID:       "1.2.840.10008.5.1.4.1.2.1.1",
		Status:                    dimse.StatusSuccess,
	}
	got = roundTrip(t, final)
	require.False(t, got.HasDataSet())
}
