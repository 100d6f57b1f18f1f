package dimse_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cortexmed/dicom/pkg/dimse"
	"github.com/cortexmed/dicom/pkg/pdu"
	"github.com/cortexmed/dicom/pkg/tag"
)

func commandBytes(t *testing.T, m dimse.Message) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, dimse.WriteMessage(&buf, m))
	return buf.Bytes()
}

// TestCommandAssemblerReassemblesFragmentedCommand feeds a command split
// across two P-DATA-TF PDUs, mirroring a peer that fragments a command
// set larger than one PDV payload allows.
func TestCommandAssemblerReassemblesFragmentedCommand(t *testing.T) {
	raw := commandBytes(t, &dimse.CEchoRQ{MessageID: 1, AffectedSOPClassUID: "1.2.840.10008.1.1"})
	require.True(t, len(raw) > 4, "need at least a couple bytes to split")
	split := len(raw) / 2

	a := dimse.NewCommandAssembler(tag.StandardDictionary{})

	ctx, msg, data, err := a.AddDataPDU(&pdu.PDataTF{Items: []pdu.PresentationDataValue{
		{ContextID: 1, Command: true, Last: false, Value: raw[:split]},
	}})
	require.NoError(t, err)
	require.Nil(t, msg)
	require.Nil(t, data)

	ctx, msg, data, err = a.AddDataPDU(&pdu.PDataTF{Items: []pdu.PresentationDataValue{
		{ContextID: 1, Command: true, Last: true, Value: raw[split:]},
	}})
	require.NoError(t, err)
	require.Equal(t, byte(1), ctx)
	require.NotNil(t, msg)
	require.Nil(t, data)

	echo, ok := msg.(*dimse.CEchoRQ)
	require.True(t, ok, "message type = %T", msg)
	require.Equal(t, uint16(1), echo.MessageID)
}

// TestCommandAssemblerWaitsForDataSet verifies a command declaring a data
// set (C-STORE-RQ) isn't returned until the data fragments, sent as
// separate PDVs, also complete.
func TestCommandAssemblerWaitsForDataSet(t *testing.T) {
	raw := commandBytes(t, &dimse.CStoreRQ{
		MessageID:              2,
		AffectedSOPClassUID:    "1.2.840.10008.5.1.4.1.1.7",
		AffectedSOPInstanceUID: "1.2.3",
	})

	a := dimse.NewCommandAssembler(tag.StandardDictionary{})

	_, msg, data, err := a.AddDataPDU(&pdu.PDataTF{Items: []pdu.PresentationDataValue{
		{ContextID: 3, Command: true, Last: true, Value: raw},
	}})
	require.NoError(t, err)
	require.Nil(t, msg, "should wait for the data set before returning the message")
	require.Nil(t, data)

	ctx, msg, data, err := a.AddDataPDU(&pdu.PDataTF{Items: []pdu.PresentationDataValue{
		{ContextID: 3, Command: false, Last: true, Value: []byte{0xde, 0xad, 0xbe, 0xef}},
	}})
	require.NoError(t, err)
	require.Equal(t, byte(3), ctx)
	require.NotNil(t, msg)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, data)
}

func TestCommandAssemblerRejectsMixedContexts(t *testing.T) {
	a := dimse.NewCommandAssembler(tag.StandardDictionary{})
	_, _, _, err := a.AddDataPDU(&pdu.PDataTF{Items: []pdu.PresentationDataValue{
		{ContextID: 1, Command: true, Last: false, Value: []byte{1}},
		{ContextID: 3, Command: true, Last: false, Value: []byte{2}},
	}})
	require.Error(t, err)
}
