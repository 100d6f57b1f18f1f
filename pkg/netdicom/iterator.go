package netdicom

import (
	"bytes"
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/cortexmed/dicom/pkg/dimse"
	"github.com/cortexmed/dicom/pkg/pdu"
)

// ErrAssociationReleased is returned by Iterator.Next when the peer sent
// A-RELEASE-RQ instead of another command.
var ErrAssociationReleased = errors.New("netdicom: association released")

// ErrAssociationAborted is returned by Iterator.Next when the peer sent
// A-ABORT instead of another command.
var ErrAssociationAborted = errors.New("netdicom: association aborted by peer")

// Iterator pulls DIMSE messages off an Established Association one at a
// time, implementing the three-state read cycle of PS3.7/PS3.8:
// ReadPdu (read the next P-DATA-TF PDU), ReadPdv (walk its presentation
// data values), ReadCmdMessage (decode the command set once all of its
// fragments have arrived). A data set, unlike the command set, is never
// buffered in full: its PDVs are handed to the caller as an io.Reader
// that pulls the next PDU lazily, fragment by fragment.
type Iterator struct {
	assoc *Association
	ctx   context.Context

	queue []pdu.PresentationDataValue

	open *dataStream
}

// NewIterator returns an Iterator reading from assoc.
func NewIterator(assoc *Association) *Iterator {
	return &Iterator{assoc: assoc}
}

// Next blocks until a complete command message has arrived on assoc,
// returning the presentation context ID it arrived on and the decoded
// message. If msg.HasDataSet() is true, data is a non-nil io.Reader
// yielding the data set's bytes, still encoded under the context's
// negotiated transfer syntax; the caller must fully read data (or call
// Close on it) before calling Next again.
func (it *Iterator) Next(ctx context.Context) (contextID byte, msg dimse.Message, data io.Reader, err error) {
	if it.open != nil && !it.open.drained {
		return 0, nil, nil, errors.New("netdicom: previous data set was not fully read before Next")
	}
	it.open = nil
	it.ctx = ctx

	var cmdBuf bytes.Buffer
	var activeContext byte
	haveContext := false

	for {
		item, err := it.nextItem(ctx)
		if err != nil {
			return 0, nil, nil, err
		}
		if !haveContext {
			activeContext = item.ContextID
			haveContext = true
		} else if item.ContextID != activeContext {
			return 0, nil, nil, errors.Errorf(
				"netdicom: command set interleaved across contexts %d and %d", activeContext, item.ContextID)
		}
		if !item.Command {
			return 0, nil, nil, errors.New("netdicom: data PDV arrived before command set completed")
		}

		cmdBuf.Write(item.Value)
		if !item.Last {
			continue
		}

		m, err := dimse.ReadMessage(bytes.NewReader(cmdBuf.Bytes()), it.assoc.dict())
		if err != nil {
			return 0, nil, nil, errors.Wrap(err, "netdicom: decoding command set")
		}
		if !m.HasDataSet() {
			return activeContext, m, nil, nil
		}
		ds := &dataStream{it: it, contextID: activeContext}
		it.open = ds
		return activeContext, m, ds, nil
	}
}

// nextItem pops the next PDV off the queue, refilling it by reading
// P-DATA-TF PDUs as needed. A-RELEASE-RQ and A-ABORT end the DIMSE stream
// and are surfaced as sentinel errors rather than PDVs.
func (it *Iterator) nextItem(ctx context.Context) (pdu.PresentationDataValue, error) {
	for len(it.queue) == 0 {
		p, err := it.assoc.readPDU(ctx)
		if err != nil {
			return pdu.PresentationDataValue{}, err
		}
		switch v := p.(type) {
		case *pdu.PDataTF:
			it.queue = v.Items
		case *pdu.ReleaseRQ:
			return pdu.PresentationDataValue{}, ErrAssociationReleased
		case *pdu.Abort:
			return pdu.PresentationDataValue{}, ErrAssociationAborted
		default:
			return pdu.PresentationDataValue{}, errors.Errorf(
				"netdicom: unexpected PDU %s while reading DIMSE stream", p.String())
		}
	}
	item := it.queue[0]
	it.queue = it.queue[1:]
	return item, nil
}

// dataStream is the io.Reader Next hands back for a message's data set:
// it holds at most one PDV's payload at a time.
type dataStream struct {
	it        *Iterator
	contextID byte

	buf     []byte
	drained bool
}

func (d *dataStream) Read(p []byte) (int, error) {
	for len(d.buf) == 0 {
		if d.drained {
			return 0, io.EOF
		}
		item, err := d.it.nextItem(d.it.ctx)
		if err != nil {
			d.drained = true
			return 0, err
		}
		if item.Command || item.ContextID != d.contextID {
			d.drained = true
			return 0, errors.New("netdicom: unexpected PDV while reading data set")
		}
		d.buf = item.Value
		if item.Last {
			d.drained = true
		}
	}
	n := copy(p, d.buf)
	d.buf = d.buf[n:]
	return n, nil
}
