package pdu

import "github.com/pkg/errors"

// ErrUnknownPDUType is wrapped when Read encounters a type byte outside
// the seven defined PDU kinds.
var ErrUnknownPDUType = errors.New("pdu: unknown PDU type")

// ErrPDUTooLarge is wrapped when a PDU's declared length is implausibly
// larger than the caller's configured maximum, before any allocation is
// attempted.
var ErrPDUTooLarge = errors.New("pdu: declared length exceeds maximum")

// ErrMalformedPDU is wrapped for structural violations within an
// otherwise well-framed PDU: a too-short PDV, an illegal PDV header byte,
// an even presentation-context ID, and similar.
var ErrMalformedPDU = errors.New("pdu: malformed PDU body")

// ErrUnknownSubItemType is wrapped when a sub-item's type byte is not one
// this package models; the item is preserved as UnknownSubItem rather
// than failing the whole PDU.
var ErrUnknownSubItemType = errors.New("pdu: unknown sub-item type")

// ErrInvalidAETitle is wrapped when an AE title is empty or longer than
// the 16-byte field PS3.8 9.3.2 allots it (Table 9-10, Note 3).
var ErrInvalidAETitle = errors.New("pdu: invalid AE title")
