package pdu_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cortexmed/dicom/pkg/pdu"
)

func roundTrip(t *testing.T, p pdu.PDU) pdu.PDU {
	t.Helper()
	b, err := pdu.Write(p)
	require.NoError(t, err)
	got, err := pdu.Read(bytes.NewReader(b), 1<<20)
	require.NoError(t, err)
	return got
}

// TestAssociateAETitleCodecTrimsPadding exercises the fixed-width,
// space-padded AE title field (PS3.8 9.3.2): titles shorter than 16
// bytes must round-trip without the padding leaking into the decoded
// value.
func TestAssociateAETitleCodecTrimsPadding(t *testing.T) {
	rq := &pdu.Associate{
		Type:            pdu.TypeAssociateRQ,
		ProtocolVersion: pdu.CurrentProtocolVersion,
		CalledAETitle:   "SCP",
		CallingAETitle:  "SCU_LONGER_AE",
	}
	got, ok := roundTrip(t, rq).(*pdu.Associate)
	require.True(t, ok)
	require.Equal(t, "SCP", got.CalledAETitle)
	require.Equal(t, "SCU_LONGER_AE", got.CallingAETitle)
}

func TestAssociateRejectsEmptyAETitle(t *testing.T) {
	_, err := pdu.Write(&pdu.Associate{Type: pdu.TypeAssociateRQ, CalledAETitle: "", CallingAETitle: "SCU"})
	require.Error(t, err)
}

func TestAssociateRejectsOverlongAETitle(t *testing.T) {
	_, err := pdu.Write(&pdu.Associate{Type: pdu.TypeAssociateRQ, CalledAETitle: "THIS_AE_TITLE_IS_WAY_TOO_LONG", CallingAETitle: "SCU"})
	require.Error(t, err)
}

func TestAssociateWithPresentationContextsRoundTrips(t *testing.T) {
	rq := &pdu.Associate{
		Type:            pdu.TypeAssociateRQ,
		ProtocolVersion: pdu.CurrentProtocolVersion,
		CalledAETitle:   "SCP",
		CallingAETitle:  "SCU",
		Items: []pdu.SubItem{
			&pdu.ApplicationContextItem{Name: pdu.DefaultApplicationContextName},
			&pdu.PresentationContextItem{
				Type:      pdu.ItemTypePresentationContextRequest,
				ContextID: 1,
				Items: []pdu.SubItem{
					&pdu.AbstractSyntaxSubItem{UID: "1.2.840.10008.1.1"},
					&pdu.TransferSyntaxSubItem{UID: "1.2.840.10008.1.2"},
				},
			},
			&pdu.UserInformationItem{Items: []pdu.SubItem{
				&pdu.MaximumLengthItem{MaximumLengthReceived: 16384},
				&pdu.ImplementationClassUIDSubItem{UID: "1.2.3.4"},
			}},
		},
	}
	got, ok := roundTrip(t, rq).(*pdu.Associate)
	require.True(t, ok)
	require.Equal(t, "SCP", got.CalledAETitle)
	require.Len(t, got.Items, 3)

	pc, ok := got.Items[1].(*pdu.PresentationContextItem)
	require.True(t, ok)
	require.Equal(t, byte(1), pc.ContextID)
	require.Len(t, pc.Items, 2)

	ui, ok := got.Items[2].(*pdu.UserInformationItem)
	require.True(t, ok)
	ml, ok := ui.Items[0].(*pdu.MaximumLengthItem)
	require.True(t, ok)
	require.Equal(t, uint32(16384), ml.MaximumLengthReceived)
}

func TestAssociateRJRoundTrips(t *testing.T) {
	rj := &pdu.AssociateRJ{Result: pdu.ResultRejectedPermanent, Source: pdu.SourceServiceUser, Reason: pdu.ReasonCalledAETitleNotRecognized}
	got, ok := roundTrip(t, rj).(*pdu.AssociateRJ)
	require.True(t, ok)
	require.Equal(t, rj, got)
}

func TestReleaseRoundTrips(t *testing.T) {
	_, ok := roundTrip(t, &pdu.ReleaseRQ{}).(*pdu.ReleaseRQ)
	require.True(t, ok)
	_, ok = roundTrip(t, &pdu.ReleaseRP{}).(*pdu.ReleaseRP)
	require.True(t, ok)
}

func TestAbortRoundTrips(t *testing.T) {
	a := &pdu.Abort{Source: pdu.AbortSourceServiceProvider, Reason: 1}
	got, ok := roundTrip(t, a).(*pdu.Abort)
	require.True(t, ok)
	require.Equal(t, a, got)
}

func TestPDataTFRoundTripsMultiplePDVs(t *testing.T) {
	p := &pdu.PDataTF{Items: []pdu.PresentationDataValue{
		{ContextID: 1, Command: true, Last: true, Value: []byte{0x01, 0x02}},
		{ContextID: 3, Command: false, Last: false, Value: []byte{0xaa, 0xbb, 0xcc}},
	}}
	got, ok := roundTrip(t, p).(*pdu.PDataTF)
	require.True(t, ok)
	require.Len(t, got.Items, 2)
	require.True(t, got.Items[0].Command)
	require.True(t, got.Items[0].Last)
	require.False(t, got.Items[1].Command)
	require.False(t, got.Items[1].Last)
	require.Equal(t, []byte{0xaa, 0xbb, 0xcc}, got.Items[1].Value)
}

func TestReadRejectsOversizedLength(t *testing.T) {
	b, err := pdu.Write(&pdu.ReleaseRQ{})
	require.NoError(t, err)
	_, err = pdu.Read(bytes.NewReader(b), 1)
	require.Error(t, err)
}
