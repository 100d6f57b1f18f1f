package netdicom

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"

	"github.com/pkg/errors"

	"github.com/cortexmed/dicom"
	"github.com/cortexmed/dicom/pkg/dimse"
	"github.com/cortexmed/dicom/pkg/tag"
	"github.com/cortexmed/dicom/pkg/uid"
	"github.com/cortexmed/dicom/pkg/vr"
)

// EchoHandler answers C-ECHO-RQ (PS3.7 9.1.5), a connectivity check with
// no identifier or instance attached. Returning a non-nil error produces
// a Failure C-ECHO-RSP.
type EchoHandler interface {
	Echo(ctx context.Context, rq *dimse.CEchoRQ) error
}

// StoreHandler answers C-STORE-RQ (PS3.7 9.1.1). dataSet streams the
// instance being stored, still encoded under the presentation context's
// negotiated transfer syntax; the handler is responsible for persisting
// it before returning.
type StoreHandler interface {
	Store(ctx context.Context, rq *dimse.CStoreRQ, dataSet io.Reader) error
}

// Instance is a SOP instance a FindHandler, GetHandler or MoveHandler
// reports as matching a query.
type Instance struct {
	SOPClassUID    string
	SOPInstanceUID string

	// Attributes carries the identifier keys to return on a C-FIND
	// match; unused for C-GET/C-MOVE, which return the instance itself
	// rather than a description of it.
	Attributes map[tag.Tag]string

	// Open yields the instance's data set bytes for a C-GET/C-MOVE
	// sub-operation store, encoded under the transfer syntax negotiated
	// for SOPClassUID; unused for C-FIND matches.
	Open func() (io.ReadCloser, error)
}

// FindHandler answers C-FIND-RQ (PS3.7 9.1.2): query is the identifier's
// attributes, flattened by QueryFromDataset; the handler applies its own
// matching (MatchQuery implements the PS3.4 C.2.2.2 wildcard semantics
// against a candidate's attributes) and returns every match.
type FindHandler interface {
	Find(ctx context.Context, rq *dimse.CFindRQ, query map[tag.Tag]string) ([]Instance, error)
}

// GetHandler answers C-GET-RQ (PS3.7 9.1.4): resolve the instances
// matching query; Serve pushes each one back down the same association
// as a nested C-STORE sub-operation.
type GetHandler interface {
	Get(ctx context.Context, rq *dimse.CGetRQ, query map[tag.Tag]string) ([]Instance, error)
}

// MoveHandler answers C-MOVE-RQ (PS3.7 9.1.3): the same resolution as
// GetHandler, except the matched instances are pushed over a fresh
// association to rq.MoveDestination rather than back down the
// requesting one.
type MoveHandler interface {
	Move(ctx context.Context, rq *dimse.CMoveRQ, query map[tag.Tag]string) ([]Instance, error)
}

// Handlers collects the service class provider callbacks Serve
// dispatches incoming commands to. A nil field makes its command fail
// with StatusUnableToProcess rather than panicking.
type Handlers struct {
	Echo  EchoHandler
	Store StoreHandler
	Find  FindHandler
	Get   GetHandler
	Move  MoveHandler

	// Resolve finds the network address behind a C-MOVE destination AE
	// title. Required for Move.
	Resolve func(aeTitle string) (addr string, ok bool)
	// Dial opens the association Move pushes sub-operation stores over,
	// already through Open's handshake. Required alongside Resolve for
	// Move.
	Dial func(ctx context.Context, addr string) (*Association, error)
}

// Serve runs the SCP dispatch loop over assoc until the peer releases or
// aborts the association, or a read fails (including when ctx's deadline
// passes; cancelling a ctx that has no deadline does not interrupt a
// blocked read). Each command is handled before
// the next is read: this package runs one goroutine per connection
// (Server), not one per outstanding command.
func Serve(ctx context.Context, assoc *Association, handlers Handlers) error {
	it := assoc.Iterator()
	for {
		contextID, msg, data, err := it.Next(ctx)
		if err != nil {
			switch err {
			case ErrAssociationReleased:
				return assoc.replyRelease(ctx)
			case ErrAssociationAborted:
				return nil
			default:
				return err
			}
		}
		pc, ok := assoc.Context(contextID)
		if !ok || !pc.Accepted() {
			return errors.Errorf("netdicom: command arrived on unaccepted context %d", contextID)
		}
		if err := dispatch(ctx, assoc, pc, msg, data, handlers); err != nil {
			log.Errorf("netdicom: handling %s: %v", msg.String(), err)
		}
	}
}

func dispatch(ctx context.Context, assoc *Association, pc *PresentationContext, msg dimse.Message, data io.Reader, h Handlers) error {
	switch rq := msg.(type) {
	case *dimse.CEchoRQ:
		return handleEcho(ctx, assoc, pc, rq, h.Echo)
	case *dimse.CStoreRQ:
		return handleStore(ctx, assoc, pc, rq, data, h.Store)
	case *dimse.CFindRQ:
		return handleFind(ctx, assoc, pc, rq, data, h.Find)
	case *dimse.CGetRQ:
		return handleGet(ctx, assoc, pc, rq, data, h.Get)
	case *dimse.CMoveRQ:
		return handleMove(ctx, assoc, pc, rq, data, h)
	case *dimse.CCancelRQ:
		// Sub-operation cancellation isn't tracked across dispatch calls:
		// nothing is outstanding to cancel once a handler has already
		// returned its full result set synchronously.
		return nil
	default:
		return errors.Errorf("netdicom: no SCP handling for %s", msg.String())
	}
}

func handleEcho(ctx context.Context, assoc *Association, pc *PresentationContext, rq *dimse.CEchoRQ, h EchoHandler) error {
	status := dimse.StatusSuccess
	if h == nil {
		status = dimse.StatusUnableToProcess
	} else if err := h.Echo(ctx, rq); err != nil {
		status = dimse.StatusUnableToProcess
	}
	rsp := &dimse.CEchoRSP{MessageIDBeingRespondedTo: rq.MessageID, AffectedSOPClassUID: rq.AffectedSOPClassUID, Status: status}
	return SendMessage(ctx, assoc, pc.ID, rsp, nil)
}

func handleStore(ctx context.Context, assoc *Association, pc *PresentationContext, rq *dimse.CStoreRQ, data io.Reader, h StoreHandler) error {
	status := dimse.StatusSuccess
	if h == nil {
		status = dimse.StatusUnableToProcess
		_, _ = io.Copy(ioutil.Discard, data)
	} else if err := h.Store(ctx, rq, data); err != nil {
		status = dimse.StatusUnableToProcess
	}
	rsp := &dimse.CStoreRSP{
		MessageIDBeingRespondedTo: rq.MessageID,
		AffectedSOPClassUID:       rq.AffectedSOPClassUID,
		AffectedSOPInstanceUID:    rq.AffectedSOPInstanceUID,
		Status:                    status,
	}
	return SendMessage(ctx, assoc, pc.ID, rsp, nil)
}

func handleFind(ctx context.Context, assoc *Association, pc *PresentationContext, rq *dimse.CFindRQ, identifier io.Reader, h FindHandler) error {
	if h == nil {
		rsp := &dimse.CFindRSP{MessageIDBeingRespondedTo: rq.MessageID, AffectedSOPClassUID: rq.AffectedSOPClassUID, Status: dimse.StatusUnableToProcess}
		return SendMessage(ctx, assoc, pc.ID, rsp, nil)
	}

	ds, err := dicom.ReadDataSet(identifier, pc.TransferSyntax, assoc.dict())
	if err != nil {
		return errors.Wrap(err, "netdicom: decoding C-FIND identifier")
	}
	matches, findErr := h.Find(ctx, rq, QueryFromDataset(ds))
	finalStatus := dimse.StatusSuccess
	if findErr != nil {
		finalStatus = dimse.StatusUnableToProcess
		matches = nil
	}

	for _, m := range matches {
		buf, err := encodeDataSet(pc.TransferSyntax, datasetFromAttributes(assoc.dict(), m.Attributes))
		if err != nil {
			return errors.Wrap(err, "netdicom: encoding C-FIND match")
		}
		pending := &dimse.CFindRSP{
			MessageIDBeingRespondedTo: rq.MessageID, AffectedSOPClassUID: rq.AffectedSOPClassUID,
			Status: dimse.StatusPending, HasIdentifier: true,
		}
		if err := SendMessage(ctx, assoc, pc.ID, pending, buf); err != nil {
			return err
		}
	}

	final := &dimse.CFindRSP{MessageIDBeingRespondedTo: rq.MessageID, AffectedSOPClassUID: rq.AffectedSOPClassUID, Status: finalStatus}
	return SendMessage(ctx, assoc, pc.ID, final, nil)
}

func handleGet(ctx context.Context, assoc *Association, pc *PresentationContext, rq *dimse.CGetRQ, identifier io.Reader, h GetHandler) error {
	if h == nil {
		rsp := &dimse.CGetRSP{MessageIDBeingRespondedTo: rq.MessageID, AffectedSOPClassUID: rq.AffectedSOPClassUID, Status: dimse.StatusUnableToProcess}
		return SendMessage(ctx, assoc, pc.ID, rsp, nil)
	}

	ds, err := dicom.ReadDataSet(identifier, pc.TransferSyntax, assoc.dict())
	if err != nil {
		return errors.Wrap(err, "netdicom: decoding C-GET identifier")
	}
	matches, err := h.Get(ctx, rq, QueryFromDataset(ds))
	if err != nil {
		rsp := &dimse.CGetRSP{MessageIDBeingRespondedTo: rq.MessageID, AffectedSOPClassUID: rq.AffectedSOPClassUID, Status: dimse.StatusUnableToProcess}
		return SendMessage(ctx, assoc, pc.ID, rsp, nil)
	}

	return runSubOperations(ctx, assoc, pc.ID, rq.MessageID, matches,
		func(ctx context.Context, messageID uint16, inst Instance) (*dimse.CStoreRSP, error) {
			storeCtx, ok := assoc.ContextForAbstractSyntax(inst.SOPClassUID)
			if !ok {
				return nil, errors.Errorf("netdicom: no accepted context for %s", inst.SOPClassUID)
			}
			if inst.Open == nil {
				return nil, errors.New("netdicom: instance has no data to open")
			}
			r, err := inst.Open()
			if err != nil {
				return nil, err
			}
			defer r.Close()
			return Store(ctx, assoc, storeCtx.ID, messageID, inst.SOPClassUID, inst.SOPInstanceUID, r, "", 0)
		},
		func(status dimse.Status, remaining, completed, failed, warning uint16) dimse.Message {
			return &dimse.CGetRSP{
				MessageIDBeingRespondedTo: rq.MessageID, AffectedSOPClassUID: rq.AffectedSOPClassUID,
				Status: status, Remaining: remaining, Completed: completed, Failed: failed, Warning: warning,
			}
		})
}

func handleMove(ctx context.Context, assoc *Association, pc *PresentationContext, rq *dimse.CMoveRQ, identifier io.Reader, h Handlers) error {
	sendStatus := func(status dimse.Status, remaining, completed, failed, warning uint16) error {
		rsp := &dimse.CMoveRSP{
			MessageIDBeingRespondedTo: rq.MessageID, AffectedSOPClassUID: rq.AffectedSOPClassUID,
			Status: status, Remaining: remaining, Completed: completed, Failed: failed, Warning: warning,
		}
		return SendMessage(ctx, assoc, pc.ID, rsp, nil)
	}

	if h.Move == nil {
		return sendStatus(dimse.StatusUnableToProcess, 0, 0, 0, 0)
	}
	ds, err := dicom.ReadDataSet(identifier, pc.TransferSyntax, assoc.dict())
	if err != nil {
		return errors.Wrap(err, "netdicom: decoding C-MOVE identifier")
	}
	matches, err := h.Move.Move(ctx, rq, QueryFromDataset(ds))
	if err != nil {
		return sendStatus(dimse.StatusUnableToProcess, 0, 0, 0, 0)
	}
	if len(matches) == 0 {
		return sendStatus(dimse.StatusSuccess, 0, 0, 0, 0)
	}
	if h.Resolve == nil || h.Dial == nil {
		return sendStatus(dimse.StatusUnableToProcess, 0, 0, 0, 0)
	}
	addr, ok := h.Resolve(rq.MoveDestination)
	if !ok {
		return sendStatus(dimse.StatusUnableToProcess, 0, 0, 0, 0)
	}
	dest, err := h.Dial(ctx, addr)
	if err != nil {
		return sendStatus(dimse.StatusUnableToProcess, 0, 0, 0, 0)
	}
	defer dest.Release(ctx)

	return runSubOperations(ctx, assoc, pc.ID, rq.MessageID, matches,
		func(ctx context.Context, messageID uint16, inst Instance) (*dimse.CStoreRSP, error) {
			storeCtx, ok := dest.ContextForAbstractSyntax(inst.SOPClassUID)
			if !ok {
				return nil, errors.Errorf("netdicom: move destination has no accepted context for %s", inst.SOPClassUID)
			}
			if inst.Open == nil {
				return nil, errors.New("netdicom: instance has no data to open")
			}
			r, err := inst.Open()
			if err != nil {
				return nil, err
			}
			defer r.Close()
			return Store(ctx, dest, storeCtx.ID, messageID, inst.SOPClassUID, inst.SOPInstanceUID, r, assoc.callingAETitle, rq.MessageID)
		},
		func(status dimse.Status, remaining, completed, failed, warning uint16) dimse.Message {
			return &dimse.CMoveRSP{
				MessageIDBeingRespondedTo: rq.MessageID, AffectedSOPClassUID: rq.AffectedSOPClassUID,
				Status: status, Remaining: remaining, Completed: completed, Failed: failed, Warning: warning,
			}
		})
}

// runSubOperations drives a C-GET or C-MOVE's nested C-STORE
// sub-operations, sending an intermediate response (via makeStatus)
// after each store and a final one once all have completed, all on
// responseContextID. store performs one sub-operation's C-STORE,
// wherever it needs to go (the requesting association for C-GET, a
// freshly dialed one for C-MOVE).
func runSubOperations(ctx context.Context, assoc *Association, responseContextID byte, messageID uint16, matches []Instance,
	store func(ctx context.Context, messageID uint16, inst Instance) (*dimse.CStoreRSP, error),
	makeStatus func(status dimse.Status, remaining, completed, failed, warning uint16) dimse.Message) error {

	if len(matches) == 0 {
		return SendMessage(ctx, assoc, responseContextID, makeStatus(dimse.StatusSuccess, 0, 0, 0, 0), nil)
	}

	remaining := uint16(len(matches))
	var completed, failed, warning uint16
	for _, inst := range matches {
		rsp, err := store(ctx, messageID, inst)
		remaining--
		switch {
		case err != nil:
			failed++
		case rsp.Status.Class() == dimse.ClassWarning:
			warning++
		case rsp.Status.Class() != dimse.ClassSuccess:
			failed++
		default:
			completed++
		}

		status := dimse.StatusPending
		if remaining == 0 {
			status = finalSubOperationStatus(failed, warning)
		}
		msg := makeStatus(status, remaining, completed, failed, warning)
		if err := SendMessage(ctx, assoc, responseContextID, msg, nil); err != nil {
			return err
		}
	}
	return nil
}

func finalSubOperationStatus(failed, warning uint16) dimse.Status {
	switch {
	case failed > 0:
		return dimse.StatusUnableToProcess
	case warning > 0:
		// 0xB000: sub-operations complete with warnings (a Warning-class
		// code, so the requester sees this response as the final one).
		return dimse.StatusCoercionOfDataElements
	default:
		return dimse.StatusSuccess
	}
}

func datasetFromAttributes(dict tag.Dictionary, attrs map[tag.Tag]string) *dicom.Dataset {
	ds := dicom.NewDataset()
	for t, v := range attrs {
		elemVR := vr.UN
		if info, ok := dict.TagByNumber(t); ok {
			elemVR = info.VR
		}
		ds.Append(&dicom.Element{Tag: t, VR: elemVR, Value: dicom.StringsValue{v}})
	}
	return ds
}

func encodeDataSet(ts uid.TransferSyntax, ds *dicom.Dataset) ([]byte, error) {
	var buf bytes.Buffer
	if err := dicom.WriteDataSet(&buf, ts, ds); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
