package dimse

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/cortexmed/dicom/pkg/pdu"
	"github.com/cortexmed/dicom/pkg/tag"
)

// CommandAssembler reassembles one DIMSE message (a command set, plus an
// optional data set) out of the Presentation Data Value fragments carried
// across one or more P-DATA-TF PDUs (PS3.8 9.3.5, PS3.7 6.3.1). A command
// set and its data set are fragmented independently of each other, each
// with its own last-fragment bit, so fragments are buffered separately
// and the command set is decoded only once all of its fragments have
// arrived.
type CommandAssembler struct {
	dict tag.Dictionary

	contextID byte
	haveCtx   bool

	commandBytes   bytes.Buffer
	readAllCommand bool
	command        Message

	dataBytes   bytes.Buffer
	readAllData bool
}

// NewCommandAssembler returns an empty assembler. dict resolves Implicit
// VR tags a command set doesn't already give a fixed VR for; this never
// happens for command sets this package produces, but a lenient peer may
// include one.
func NewCommandAssembler(dict tag.Dictionary) *CommandAssembler {
	return &CommandAssembler{dict: dict}
}

// AddDataPDU feeds one P-DATA-TF PDU's presentation data values into the
// assembler. It returns a non-nil msg once the command set, and its data
// set if HasDataSet reports true, have both been fully received. Once a
// complete message has been returned the assembler resets itself, ready
// to reassemble the next message on the same presentation context.
func (a *CommandAssembler) AddDataPDU(p *pdu.PDataTF) (contextID byte, msg Message, dataBytes []byte, err error) {
	for _, item := range p.Items {
		if !a.haveCtx {
			a.contextID = item.ContextID
			a.haveCtx = true
		} else if a.contextID != item.ContextID {
			return 0, nil, nil, errors.Errorf(
				"dimse: P-DATA-TF mixes presentation contexts %d and %d", a.contextID, item.ContextID)
		}

		if item.Command {
			a.commandBytes.Write(item.Value)
			if item.Last {
				a.readAllCommand = true
			}
		} else {
			a.dataBytes.Write(item.Value)
			if item.Last {
				a.readAllData = true
			}
		}
	}

	if !a.readAllCommand {
		return 0, nil, nil, nil
	}
	if a.command == nil {
		m, err := ReadMessage(bytes.NewReader(a.commandBytes.Bytes()), a.dict)
		if err != nil {
			return 0, nil, nil, errors.Wrap(err, "dimse: assembling command set")
		}
		a.command = m
	}
	if a.command.HasDataSet() && !a.readAllData {
		return 0, nil, nil, nil
	}

	contextID, msg = a.contextID, a.command
	if a.command.HasDataSet() {
		dataBytes = append([]byte(nil), a.dataBytes.Bytes()...)
	}
	*a = CommandAssembler{dict: a.dict}
	return contextID, msg, dataBytes, nil
}
