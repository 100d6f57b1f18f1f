package netdicom

import (
	"bytes"
	"context"
	"io/ioutil"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cortexmed/dicom/pkg/dimse"
	"github.com/cortexmed/dicom/pkg/pdu"
)

// pipeAssociation returns an Established Association backed by one end of
// an in-memory net.Pipe, with a single accepted presentation context (ID
// 1), and the other end of the pipe for a test to write raw PDUs into.
func pipeAssociation(t *testing.T) (*Association, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() { server.Close(); client.Close() })
	a := &Association{
		conn:            server,
		state:           StateEstablished,
		localMaxPDUSize: defaultMaxPDUSize,
		peerMaxPDUSize:  defaultMaxPDUSize,
		contexts: map[byte]*PresentationContext{
			1: {ID: 1, AbstractSyntax: "1.2.840.10008.1.1", Result: pdu.PresentationResultAcceptance},
		},
	}
	return a, client
}

func writePDU(t *testing.T, conn net.Conn, p pdu.PDU) {
	t.Helper()
	b, err := pdu.Write(p)
	require.NoError(t, err)
	go func() {
		_, _ = conn.Write(b)
	}()
}

func encodeCommand(t *testing.T, m dimse.Message) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, dimse.WriteMessage(&buf, m))
	return buf.Bytes()
}

func TestIteratorReadsCommandWithNoDataSet(t *testing.T) {
	a, client := pipeAssociation(t)
	rq := &dimse.CEchoRQ{MessageID: 7, AffectedSOPClassUID: "1.2.840.10008.1.1"}
	cmd := encodeCommand(t, rq)

	writePDU(t, client, &pdu.PDataTF{Items: []pdu.PresentationDataValue{
		{ContextID: 1, Command: true, Last: true, Value: cmd},
	}})

	contextID, msg, data, err := a.Iterator().Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, byte(1), contextID)
	require.Nil(t, data)
	got, ok := msg.(*dimse.CEchoRQ)
	require.True(t, ok)
	require.Equal(t, uint16(7), got.MessageID)
}

func TestIteratorFragmentsCommandSetAcrossPDVs(t *testing.T) {
	a, client := pipeAssociation(t)
	rq := &dimse.CEchoRQ{MessageID: 9, AffectedSOPClassUID: "1.2.840.10008.1.1"}
	cmd := encodeCommand(t, rq)
	mid := len(cmd) / 2

	writePDU(t, client, &pdu.PDataTF{Items: []pdu.PresentationDataValue{
		{ContextID: 1, Command: true, Last: false, Value: cmd[:mid]},
		{ContextID: 1, Command: true, Last: true, Value: cmd[mid:]},
	}})

	_, msg, _, err := a.Iterator().Next(context.Background())
	require.NoError(t, err)
	got, ok := msg.(*dimse.CEchoRQ)
	require.True(t, ok)
	require.Equal(t, uint16(9), got.MessageID)
}

func TestIteratorStreamsDataSetWithoutBufferingWhole(t *testing.T) {
	a, client := pipeAssociation(t)
	rq := &dimse.CStoreRQ{MessageID: 1, AffectedSOPClassUID: "1.2.840.10008.1.1", AffectedSOPInstanceUID: "1.2.3"}
	cmd := encodeCommand(t, rq)
	body := []byte("fragment-one-fragment-two")

	writePDU(t, client, &pdu.PDataTF{Items: []pdu.PresentationDataValue{
		{ContextID: 1, Command: true, Last: true, Value: cmd},
	}})

	_, msg, data, err := a.Iterator().Next(context.Background())
	require.NoError(t, err)
	require.True(t, msg.HasDataSet())
	require.NotNil(t, data)

	writePDU(t, client, &pdu.PDataTF{Items: []pdu.PresentationDataValue{
		{ContextID: 1, Command: false, Last: false, Value: body[:12]},
		{ContextID: 1, Command: false, Last: true, Value: body[12:]},
	}})

	got, err := ioutil.ReadAll(data)
	require.NoError(t, err)
	require.Equal(t, body, got)
}

func TestIteratorRejectsNextBeforeDataSetDrained(t *testing.T) {
	a, client := pipeAssociation(t)
	rq := &dimse.CStoreRQ{MessageID: 1, AffectedSOPClassUID: "1.2.840.10008.1.1", AffectedSOPInstanceUID: "1.2.3"}
	cmd := encodeCommand(t, rq)

	writePDU(t, client, &pdu.PDataTF{Items: []pdu.PresentationDataValue{
		{ContextID: 1, Command: true, Last: true, Value: cmd},
	}})

	_, msg, data, err := a.Iterator().Next(context.Background())
	require.NoError(t, err)
	require.True(t, msg.HasDataSet())
	require.NotNil(t, data)

	_, _, _, err = a.Iterator().Next(context.Background())
	require.Error(t, err)
}

func TestIteratorRejectsInterleavedContexts(t *testing.T) {
	a, client := pipeAssociation(t)
	rq := &dimse.CEchoRQ{MessageID: 1, AffectedSOPClassUID: "1.2.840.10008.1.1"}
	cmd := encodeCommand(t, rq)
	mid := len(cmd) / 2

	writePDU(t, client, &pdu.PDataTF{Items: []pdu.PresentationDataValue{
		{ContextID: 1, Command: true, Last: false, Value: cmd[:mid]},
		{ContextID: 3, Command: true, Last: true, Value: cmd[mid:]},
	}})

	_, _, _, err := a.Iterator().Next(context.Background())
	require.Error(t, err)
}

func TestIteratorSurfacesReleaseAsSentinel(t *testing.T) {
	a, client := pipeAssociation(t)
	writePDU(t, client, &pdu.ReleaseRQ{})

	_, _, _, err := a.Iterator().Next(context.Background())
	require.Equal(t, ErrAssociationReleased, err)
}

func TestIteratorSurfacesAbortAsSentinel(t *testing.T) {
	a, client := pipeAssociation(t)
	writePDU(t, client, &pdu.Abort{Source: pdu.AbortSourceServiceUser, Reason: 0})

	_, _, _, err := a.Iterator().Next(context.Background())
	require.Equal(t, ErrAssociationAborted, err)
}
