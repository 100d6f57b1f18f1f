// Package netdicom implements the DICOM Upper Layer association state
// machine and the DIMSE exchange that runs over it (PS3.7, PS3.8): the
// handshake that negotiates presentation contexts and transfer syntaxes,
// and the service class provider/user roles (C-ECHO, C-STORE, C-FIND,
// C-GET, C-MOVE) built on top of an established association.
package netdicom

import (
	"context"
	"net"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/cortexmed/dicom/pkg/dicomlog"
	"github.com/cortexmed/dicom/pkg/pdu"
	"github.com/cortexmed/dicom/pkg/tag"
	"github.com/cortexmed/dicom/pkg/uid"
)

var log = dicomlog.Logger("netdicom")

// State is a node of the association state machine (PS3.8 9.2).
type State int

const (
	StateIdle State = iota
	StateAwaitingAssocRQ
	StateNegotiating
	StateEstablished
	StateReleasing
	StateClosed
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateAwaitingAssocRQ:
		return "AwaitingAssocRQ"
	case StateNegotiating:
		return "Negotiating"
	case StateEstablished:
		return "Established"
	case StateReleasing:
		return "Releasing"
	case StateClosed:
		return "Closed"
	case StateAborted:
		return "Aborted"
	default:
		return "unknown state"
	}
}

// PresentationContext records the outcome of negotiating one proposed
// abstract syntax: the transfer syntax chosen from the proposer's
// priority-ordered list, or rejection with one of PS3.8 Table 9-18's
// result codes.
type PresentationContext struct {
	ID             byte
	AbstractSyntax string
	TransferSyntax uid.TransferSyntax
	Result         byte // pdu.PresentationResult*
}

// Accepted reports whether this context was negotiated successfully and
// may carry DIMSE traffic.
func (c PresentationContext) Accepted() bool { return c.Result == pdu.PresentationResultAcceptance }

// Config holds the local endpoint's identity and the acceptable
// presentation contexts it will propose (as an SCU) or accept (as an
// SCP).
type Config struct {
	AETitle                 string
	ImplementationClassUID  string
	ImplementationVersion   string
	MaxPDUSize              uint32

	// AbstractSyntaxes lists the SOP classes this endpoint supports,
	// each with transfer syntaxes in priority order (most preferred
	// first); negotiation intersects a peer's proposed list against
	// this one, keeping this list's ordering.
	AbstractSyntaxes map[string][]uid.TransferSyntax

	TagDictionary tag.Dictionary
	UIDDictionary uid.Dictionary
}

const defaultMaxPDUSize = 1 << 20 // 1 MiB, generous and within PS3.8's no-hard-maximum allowance

// Association is one negotiated DICOM Upper Layer connection: either
// side of a C-ECHO/C-STORE/C-FIND/C-GET/C-MOVE exchange between an SCU
// and SCP. An Association owns conn exclusively; it is not safe for
// concurrent use by multiple goroutines.
type Association struct {
	conn   net.Conn
	config Config
	state  State

	calledAETitle  string
	callingAETitle string

	localMaxPDUSize uint32
	peerMaxPDUSize  uint32

	contexts   map[byte]*PresentationContext
	nextCtxID  byte

	iter *Iterator
}

// Iterator returns the Association's single DIMSE message reader, lazily
// created on first use. Callers share one Iterator per Association: its
// internal PDV queue only makes sense read by one consumer over the
// connection's lifetime.
func (a *Association) Iterator() *Iterator {
	if a.iter == nil {
		a.iter = NewIterator(a)
	}
	return a.iter
}

func (a *Association) dict() tag.Dictionary {
	if a.config.TagDictionary != nil {
		return a.config.TagDictionary
	}
	return tag.StandardDictionary{}
}

func (a *Association) uidDict() uid.Dictionary {
	if a.config.UIDDictionary != nil {
		return a.config.UIDDictionary
	}
	return uid.StandardDictionary{}
}

// State returns the association's current state.
func (a *Association) State() State { return a.state }

// Contexts returns the negotiated presentation contexts, accepted and
// rejected alike.
func (a *Association) Contexts() []*PresentationContext {
	out := make([]*PresentationContext, 0, len(a.contexts))
	for _, c := range a.contexts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Context looks up a negotiated presentation context by its ID, the same
// ID carried in every PresentationDataValue exchanged on it.
func (a *Association) Context(id byte) (*PresentationContext, bool) {
	c, ok := a.contexts[id]
	return c, ok
}

// ContextForAbstractSyntax finds the accepted context negotiated for
// abstractSyntax, the lookup an SCU does before sending a command under a
// given SOP/Meta-SOP class.
func (a *Association) ContextForAbstractSyntax(abstractSyntax string) (*PresentationContext, bool) {
	for _, c := range a.contexts {
		if c.AbstractSyntax == abstractSyntax && c.Accepted() {
			return c, true
		}
	}
	return nil, false
}

// Accept performs the SCP side of the handshake (PS3.8 9.3.2, 9.3.3):
// read the peer's A-ASSOCIATE-RQ, negotiate presentation contexts against
// config.AbstractSyntaxes, and reply with A-ASSOCIATE-AC or
// A-ASSOCIATE-RJ. The returned Association is Established even when
// negotiation accepted no context (a warning is logged); a caller that gets
// an error should assume conn has already been closed or should be
// closed without further protocol traffic.
func Accept(ctx context.Context, conn net.Conn, config Config) (*Association, error) {
	a := &Association{conn: conn, config: config, state: StateAwaitingAssocRQ, contexts: map[byte]*PresentationContext{}}
	if config.MaxPDUSize == 0 {
		a.config.MaxPDUSize = defaultMaxPDUSize
	}
	a.localMaxPDUSize = a.config.MaxPDUSize

	p, err := a.readPDU(ctx)
	if err != nil {
		a.state = StateAborted
		return nil, errors.Wrap(err, "netdicom: reading A-ASSOCIATE-RQ")
	}
	rq, ok := p.(*pdu.Associate)
	if !ok || rq.Type != pdu.TypeAssociateRQ {
		a.abort(pdu.AbortSourceServiceProvider, 0)
		return nil, errors.Errorf("netdicom: expected A-ASSOCIATE-RQ, got %s", p.String())
	}
	a.state = StateNegotiating
	a.calledAETitle = rq.CalledAETitle
	a.callingAETitle = rq.CallingAETitle

	ac := a.negotiate(rq)
	if err := a.writePDU(ctx, ac); err != nil {
		a.state = StateAborted
		return nil, errors.Wrap(err, "netdicom: writing A-ASSOCIATE-AC")
	}

	accepted := false
	for _, c := range a.contexts {
		if c.Accepted() {
			accepted = true
			break
		}
	}
	if !accepted {
		log.Warnf("netdicom: association with %s negotiated zero accepted contexts", a.callingAETitle)
	}
	a.state = StateEstablished
	return a, nil
}

// negotiate builds the A-ASSOCIATE-AC in reply to rq, intersecting each
// proposed presentation context's transfer-syntax list against the
// locally configured acceptable set for its abstract syntax, and
// resolving the bidirectional max-PDU-length: the value this endpoint
// will enforce when sending P-DATA-TF PDUs is the peer's advertised
// maximum, while it advertises its own in return.
func (a *Association) negotiate(rq *pdu.Associate) *pdu.Associate {
	ac := &pdu.Associate{
		Type:           pdu.TypeAssociateAC,
		ProtocolVersion: pdu.CurrentProtocolVersion,
		CalledAETitle:  rq.CalledAETitle,
		CallingAETitle: rq.CallingAETitle,
	}
	ac.Items = append(ac.Items, &pdu.ApplicationContextItem{Name: pdu.DefaultApplicationContextName})

	peerMax := uint32(16384)
	var proposedContexts []*pdu.PresentationContextItem
	for _, item := range rq.Items {
		if pc, ok := item.(*pdu.PresentationContextItem); ok {
			proposedContexts = append(proposedContexts, pc)
		}
		if ui, ok := item.(*pdu.UserInformationItem); ok {
			for _, sub := range ui.Items {
				if ml, ok := sub.(*pdu.MaximumLengthItem); ok {
					peerMax = ml.MaximumLengthReceived
				}
			}
		}
	}
	a.peerMaxPDUSize = peerMax

	for _, proposed := range proposedContexts {
		var abstractSyntax string
		var proposedTS []string
		for _, sub := range proposed.Items {
			switch s := sub.(type) {
			case *pdu.AbstractSyntaxSubItem:
				abstractSyntax = s.UID
			case *pdu.TransferSyntaxSubItem:
				proposedTS = append(proposedTS, s.UID)
			}
		}

		result := pdu.PresentationResultAbstractSyntaxNotSupported
		var chosen uid.TransferSyntax
		if acceptable, ok := a.config.AbstractSyntaxes[abstractSyntax]; ok {
			chosen, ok = chooseTransferSyntax(acceptable, proposedTS)
			if ok {
				result = pdu.PresentationResultAcceptance
			} else {
				result = pdu.PresentationResultTransferSyntaxesNotSupported
			}
		}

		resp := &pdu.PresentationContextItem{
			Type:      pdu.ItemTypePresentationContextResponse,
			ContextID: proposed.ContextID,
			Result:    result,
		}
		if result == pdu.PresentationResultAcceptance {
			resp.Items = []pdu.SubItem{&pdu.TransferSyntaxSubItem{UID: chosen.UID}}
		} else {
			resp.Items = []pdu.SubItem{&pdu.TransferSyntaxSubItem{UID: uid.ImplicitVRLittleEndian.UID}}
		}
		ac.Items = append(ac.Items, resp)

		a.contexts[proposed.ContextID] = &PresentationContext{
			ID: proposed.ContextID, AbstractSyntax: abstractSyntax,
			TransferSyntax: chosen, Result: result,
		}
	}

	ac.Items = append(ac.Items, &pdu.UserInformationItem{Items: []pdu.SubItem{
		&pdu.MaximumLengthItem{MaximumLengthReceived: a.localMaxPDUSize},
		&pdu.ImplementationClassUIDSubItem{UID: a.config.ImplementationClassUID},
		&pdu.ImplementationVersionNameSubItem{Name: a.config.ImplementationVersion},
	}})
	return ac
}

// chooseTransferSyntax picks the first entry of acceptable (this
// endpoint's priority-ordered list) that also appears in proposed (the
// peer's list), so the locally preferred ordering wins ties.
func chooseTransferSyntax(acceptable []uid.TransferSyntax, proposed []string) (uid.TransferSyntax, bool) {
	proposedSet := make(map[string]bool, len(proposed))
	for _, p := range proposed {
		proposedSet[p] = true
	}
	for _, ts := range acceptable {
		if proposedSet[ts.UID] {
			return ts, true
		}
	}
	return uid.TransferSyntax{}, false
}

// Open performs the SCU side of the handshake (PS3.8 9.3.2): propose one
// presentation context per entry of config.AbstractSyntaxes, each
// carrying that entry's transfer syntaxes in priority order, and block
// for the peer's A-ASSOCIATE-AC/RJ.
func Open(ctx context.Context, conn net.Conn, callingAE, calledAE string, config Config) (*Association, error) {
	a := &Association{conn: conn, config: config, state: StateIdle, contexts: map[byte]*PresentationContext{}}
	if config.MaxPDUSize == 0 {
		a.config.MaxPDUSize = defaultMaxPDUSize
	}
	a.localMaxPDUSize = a.config.MaxPDUSize
	a.calledAETitle = calledAE
	a.callingAETitle = callingAE

	rq := &pdu.Associate{
		Type: pdu.TypeAssociateRQ, ProtocolVersion: pdu.CurrentProtocolVersion,
		CalledAETitle: calledAE, CallingAETitle: callingAE,
	}
	rq.Items = append(rq.Items, &pdu.ApplicationContextItem{Name: pdu.DefaultApplicationContextName})

	names := make([]string, 0, len(config.AbstractSyntaxes))
	for name := range config.AbstractSyntaxes {
		names = append(names, name)
	}
	sort.Strings(names)

	var ctxID byte = 1
	ctxByAbstractSyntax := map[byte]string{}
	for _, abstractSyntax := range names {
		pc := &pdu.PresentationContextItem{Type: pdu.ItemTypePresentationContextRequest, ContextID: ctxID}
		pc.Items = append(pc.Items, &pdu.AbstractSyntaxSubItem{UID: abstractSyntax})
		for _, ts := range config.AbstractSyntaxes[abstractSyntax] {
			pc.Items = append(pc.Items, &pdu.TransferSyntaxSubItem{UID: ts.UID})
		}
		rq.Items = append(rq.Items, pc)
		ctxByAbstractSyntax[ctxID] = abstractSyntax
		ctxID += 2 // context IDs are odd (PS3.8 9.3.2.2.1)
	}
	a.nextCtxID = ctxID

	rq.Items = append(rq.Items, &pdu.UserInformationItem{Items: []pdu.SubItem{
		&pdu.MaximumLengthItem{MaximumLengthReceived: a.localMaxPDUSize},
		&pdu.ImplementationClassUIDSubItem{UID: config.ImplementationClassUID},
		&pdu.ImplementationVersionNameSubItem{Name: config.ImplementationVersion},
	}})

	a.state = StateNegotiating
	if err := a.writePDU(ctx, rq); err != nil {
		a.state = StateAborted
		return nil, errors.Wrap(err, "netdicom: writing A-ASSOCIATE-RQ")
	}

	p, err := a.readPDU(ctx)
	if err != nil {
		a.state = StateAborted
		return nil, errors.Wrap(err, "netdicom: reading association response")
	}
	switch resp := p.(type) {
	case *pdu.AssociateRJ:
		a.state = StateClosed
		return nil, errors.Errorf("netdicom: association rejected (result=%d source=%d reason=%d)",
			resp.Result, resp.Source, resp.Reason)
	case *pdu.Associate:
		if resp.Type != pdu.TypeAssociateAC {
			a.abort(pdu.AbortSourceServiceUser, 0)
			return nil, errors.Errorf("netdicom: expected A-ASSOCIATE-AC, got %s", resp.String())
		}
		for _, item := range resp.Items {
			switch it := item.(type) {
			case *pdu.PresentationContextItem:
				result := it.Result
				var ts uid.TransferSyntax
				for _, sub := range it.Items {
					if t, ok := sub.(*pdu.TransferSyntaxSubItem); ok {
						ts, _ = a.uidDict().TransferSyntaxByUID(t.UID)
						if ts.UID == "" {
							ts = uid.UnknownTransferSyntax(t.UID)
						}
					}
				}
				a.contexts[it.ContextID] = &PresentationContext{
					ID: it.ContextID, AbstractSyntax: ctxByAbstractSyntax[it.ContextID],
					TransferSyntax: ts, Result: result,
				}
			case *pdu.UserInformationItem:
				for _, sub := range it.Items {
					if ml, ok := sub.(*pdu.MaximumLengthItem); ok {
						a.peerMaxPDUSize = ml.MaximumLengthReceived
					}
				}
			}
		}
		a.state = StateEstablished
		return a, nil
	default:
		a.abort(pdu.AbortSourceServiceUser, 0)
		return nil, errors.Errorf("netdicom: unexpected PDU %s during negotiation", p.String())
	}
}

// Release performs a graceful A-RELEASE-RQ/RP exchange (PS3.8 9.3.6,
// 9.3.7) and closes the underlying connection.
func (a *Association) Release(ctx context.Context) error {
	a.state = StateReleasing
	if err := a.writePDU(ctx, &pdu.ReleaseRQ{}); err != nil {
		a.state = StateAborted
		return errors.Wrap(err, "netdicom: writing A-RELEASE-RQ")
	}
	p, err := a.readPDU(ctx)
	if err != nil {
		a.state = StateAborted
		return errors.Wrap(err, "netdicom: reading A-RELEASE-RP")
	}
	if _, ok := p.(*pdu.ReleaseRP); !ok {
		a.state = StateAborted
		return errors.Errorf("netdicom: expected A-RELEASE-RP, got %s", p.String())
	}
	a.state = StateClosed
	return a.conn.Close()
}

// AcceptRelease waits for the peer's A-RELEASE-RQ, replies with
// A-RELEASE-RP, and closes the connection: the SCP side of Release.
func (a *Association) AcceptRelease(ctx context.Context) error {
	a.state = StateReleasing
	p, err := a.readPDU(ctx)
	if err != nil {
		a.state = StateAborted
		return errors.Wrap(err, "netdicom: reading A-RELEASE-RQ")
	}
	if _, ok := p.(*pdu.ReleaseRQ); !ok {
		a.state = StateAborted
		return errors.Errorf("netdicom: expected A-RELEASE-RQ, got %s", p.String())
	}
	if err := a.writePDU(ctx, &pdu.ReleaseRP{}); err != nil {
		a.state = StateAborted
		return errors.Wrap(err, "netdicom: writing A-RELEASE-RP")
	}
	a.state = StateClosed
	return a.conn.Close()
}

// replyRelease answers an A-RELEASE-RQ that a caller already consumed
// off the wire (Iterator.Next surfaces it as ErrAssociationReleased
// rather than handing back the PDU), so it writes A-RELEASE-RP directly
// instead of reading the request itself the way AcceptRelease does.
func (a *Association) replyRelease(ctx context.Context) error {
	a.state = StateReleasing
	if err := a.writePDU(ctx, &pdu.ReleaseRP{}); err != nil {
		a.state = StateAborted
		return errors.Wrap(err, "netdicom: writing A-RELEASE-RP")
	}
	a.state = StateClosed
	return a.conn.Close()
}

// Abort sends A-ABORT (PS3.8 9.3.8), reachable from any state, and closes
// the connection. It does not wait for or expect a reply.
func (a *Association) Abort(source byte) error {
	return a.abort(source, 0)
}

func (a *Association) abort(source, reason byte) error {
	_ = a.writePDU(context.Background(), &pdu.Abort{Source: source, Reason: reason})
	a.state = StateAborted
	return a.conn.Close()
}

func (a *Association) readPDU(ctx context.Context) (pdu.PDU, error) {
	if err := a.applyDeadline(ctx); err != nil {
		return nil, err
	}
	return pdu.Read(a.conn, int(a.localMaxPDUSize))
}

func (a *Association) writePDU(ctx context.Context, p pdu.PDU) error {
	if err := a.applyDeadline(ctx); err != nil {
		return err
	}
	b, err := pdu.Write(p)
	if err != nil {
		return err
	}
	_, err = a.conn.Write(b)
	return err
}

func (a *Association) applyDeadline(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	if dl, ok := ctx.Deadline(); ok {
		return a.conn.SetDeadline(dl)
	}
	return a.conn.SetDeadline(time.Time{})
}

// sendPDataTF fragments payload (a fully encoded command set or data set)
// into PresentationDataValue items no larger than the peer's advertised
// maximum PDU size allows, and writes them as one or more P-DATA-TF PDUs.
func (a *Association) sendPDataTF(ctx context.Context, contextID byte, command bool, payload []byte) error {
	maxFragment := int(a.peerMaxPDUSize)
	if maxFragment <= 0 {
		maxFragment = 16384
	}
	// Leave room for the PDU header and this PDV's own length+context+header
	// fields so the whole PDU stays within maxFragment.
	maxFragment -= 12
	if maxFragment < 1 {
		maxFragment = 1
	}

	if len(payload) == 0 {
		payload = []byte{}
	}
	for offset := 0; offset == 0 || offset < len(payload); {
		end := offset + maxFragment
		last := end >= len(payload)
		if last {
			end = len(payload)
		}
		item := pdu.PresentationDataValue{
			ContextID: contextID, Command: command, Last: last,
			Value: payload[offset:end],
		}
		if err := a.writePDU(ctx, &pdu.PDataTF{Items: []pdu.PresentationDataValue{item}}); err != nil {
			return err
		}
		offset = end
		if last {
			break
		}
	}
	return nil
}
