package netdicom

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"

	"github.com/pkg/errors"

	"github.com/cortexmed/dicom/pkg/dimse"
)

// SendMessage writes msg's command set, and its data set if it has one,
// to assoc on contextID. Both are fragmented into PresentationDataValue
// items according to the peer's negotiated maximum PDU size.
func SendMessage(ctx context.Context, assoc *Association, contextID byte, msg dimse.Message, dataSet []byte) error {
	var cmdBuf bytes.Buffer
	if err := dimse.WriteMessage(&cmdBuf, msg); err != nil {
		return errors.Wrap(err, "netdicom: encoding command set")
	}
	if err := assoc.sendPDataTF(ctx, contextID, true, cmdBuf.Bytes()); err != nil {
		return errors.Wrap(err, "netdicom: sending command set")
	}
	if msg.HasDataSet() {
		if err := assoc.sendPDataTF(ctx, contextID, false, dataSet); err != nil {
			return errors.Wrap(err, "netdicom: sending data set")
		}
	}
	return nil
}

// Echo performs C-ECHO as an SCU (PS3.7 9.1.5): verify the peer is alive
// and supports the Verification SOP class on an already established
// Association.
func Echo(ctx context.Context, assoc *Association, abstractSyntax string, messageID uint16) (*dimse.CEchoRSP, error) {
	pc, ok := assoc.ContextForAbstractSyntax(abstractSyntax)
	if !ok {
		return nil, errors.Errorf("netdicom: no accepted presentation context for %s", abstractSyntax)
	}
	rq := &dimse.CEchoRQ{MessageID: messageID, AffectedSOPClassUID: abstractSyntax}
	if err := SendMessage(ctx, assoc, pc.ID, rq, nil); err != nil {
		return nil, err
	}
	_, msg, _, err := assoc.Iterator().Next(ctx)
	if err != nil {
		return nil, err
	}
	rsp, ok := msg.(*dimse.CEchoRSP)
	if !ok {
		return nil, errors.Errorf("netdicom: expected C-ECHO-RSP, got %s", msg.String())
	}
	return rsp, nil
}

// Store performs C-STORE as an SCU (PS3.7 9.1.1): send an instance's
// data set on the context negotiated for sopClassUID and wait for the
// matching C-STORE-RSP. moveOriginatorAETitle/MessageID are zero-valued
// unless this store is a sub-operation driven by a C-MOVE, in which case
// the SCP echoes them back to the C-MOVE originator (PS3.7 9.3.1.1).
func Store(ctx context.Context, assoc *Association, contextID byte, messageID uint16, sopClassUID, sopInstanceUID string,
	dataSet io.Reader, moveOriginatorAETitle string, moveOriginatorMessageID uint16) (*dimse.CStoreRSP, error) {
	body, err := ioutil.ReadAll(dataSet)
	if err != nil {
		return nil, errors.Wrap(err, "netdicom: reading data set to store")
	}
	rq := &dimse.CStoreRQ{
		MessageID:               messageID,
		AffectedSOPClassUID:     sopClassUID,
		Priority:                dimse.PriorityMedium,
		AffectedSOPInstanceUID:  sopInstanceUID,
		MoveOriginatorAETitle:   moveOriginatorAETitle,
		MoveOriginatorMessageID: moveOriginatorMessageID,
	}
	if err := SendMessage(ctx, assoc, contextID, rq, body); err != nil {
		return nil, err
	}
	_, msg, _, err := assoc.Iterator().Next(ctx)
	if err != nil {
		return nil, err
	}
	rsp, ok := msg.(*dimse.CStoreRSP)
	if !ok {
		return nil, errors.Errorf("netdicom: expected C-STORE-RSP, got %s", msg.String())
	}
	return rsp, nil
}
