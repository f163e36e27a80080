package embproto

import "github.com/sass-contrib/embedded-host-go/internal/errs"

// InboundKind discriminates the oneof alternatives of an InboundMessage
// (host -> compiler).
type InboundKind int

const (
	InboundCompileRequest InboundKind = iota + 1
	InboundCanonicalizeResponse
	InboundImportResponse
	InboundFileImportResponse
	InboundFunctionCallResponse
	InboundVersionRequest
)

// OutboundKind discriminates the oneof alternatives of an OutboundMessage
// (compiler -> host).
type OutboundKind int

const (
	OutboundCompileResponse OutboundKind = iota + 1
	OutboundLogEvent
	OutboundCanonicalizeRequest
	OutboundImportRequest
	OutboundFileImportRequest
	OutboundFunctionCallRequest
	OutboundVersionResponse
	OutboundError
)

// field numbers for the envelope-level oneof; each alternative occupies a
// distinct field so the receiver can tell which branch is present without a
// separate discriminator byte, the way a real protobuf oneof would.
const (
	fInCompileRequest       = 1
	fInCanonicalizeResponse = 2
	fInImportResponse       = 3
	fInFileImportResponse   = 4
	fInFunctionCallResponse = 5
	fInVersionRequest       = 6

	fOutCompileResponse     = 1
	fOutLogEvent            = 2
	fOutCanonicalizeRequest = 3
	fOutImportRequest       = 4
	fOutFileImportRequest   = 5
	fOutFunctionCallRequest = 6
	fOutVersionResponse     = 7
	fOutError               = 8
)

// InboundMessage is the envelope a session sends to the compiler subprocess.
// Exactly one of the pointer fields is non-nil, selected by Kind.
type InboundMessage struct {
	Kind InboundKind

	CompileRequest       *CompileRequest
	CanonicalizeResponse *CanonicalizeResponse
	ImportResponse       *ImportResponse
	FileImportResponse   *FileImportResponse
	FunctionCallResponse *FunctionCallResponse
	VersionRequest       *VersionRequest
}

func (m *InboundMessage) Marshal() []byte {
	var w builder
	switch m.Kind {
	case InboundCompileRequest:
		w.msg(fInCompileRequest, m.CompileRequest.Marshal())
	case InboundCanonicalizeResponse:
		w.msg(fInCanonicalizeResponse, m.CanonicalizeResponse.Marshal())
	case InboundImportResponse:
		w.msg(fInImportResponse, m.ImportResponse.Marshal())
	case InboundFileImportResponse:
		w.msg(fInFileImportResponse, m.FileImportResponse.Marshal())
	case InboundFunctionCallResponse:
		w.msg(fInFunctionCallResponse, m.FunctionCallResponse.Marshal())
	case InboundVersionRequest:
		w.msg(fInVersionRequest, m.VersionRequest.Marshal())
	}
	return w.bytesOut()
}

// OutboundMessage is the envelope a session receives from the compiler
// subprocess. Exactly one of the pointer fields is non-nil, selected by Kind.
type OutboundMessage struct {
	Kind OutboundKind

	CompileResponse     *CompileResponse
	LogEvent            *LogEvent
	CanonicalizeRequest *CanonicalizeRequest
	ImportRequest       *ImportRequest
	FileImportRequest   *FileImportRequest
	FunctionCallRequest *FunctionCallRequest
	VersionResponse     *VersionResponse
	Error               *ProtocolError
}

// DecodeOutbound parses a single framed payload received from the compiler
// subprocess into its envelope, dispatching on whichever oneof field number
// is present.
func DecodeOutbound(b []byte) (*OutboundMessage, error) {
	f, err := parseFields(b)
	if err != nil {
		return nil, err
	}
	switch {
	case hasField(f, fOutCompileResponse):
		m, err := UnmarshalCompileResponse(getBytes(f, fOutCompileResponse))
		if err != nil {
			return nil, err
		}
		return &OutboundMessage{Kind: OutboundCompileResponse, CompileResponse: m}, nil
	case hasField(f, fOutLogEvent):
		m, err := UnmarshalLogEvent(getBytes(f, fOutLogEvent))
		if err != nil {
			return nil, err
		}
		return &OutboundMessage{Kind: OutboundLogEvent, LogEvent: m}, nil
	case hasField(f, fOutCanonicalizeRequest):
		m, err := UnmarshalCanonicalizeRequest(getBytes(f, fOutCanonicalizeRequest))
		if err != nil {
			return nil, err
		}
		return &OutboundMessage{Kind: OutboundCanonicalizeRequest, CanonicalizeRequest: m}, nil
	case hasField(f, fOutImportRequest):
		m, err := UnmarshalImportRequest(getBytes(f, fOutImportRequest))
		if err != nil {
			return nil, err
		}
		return &OutboundMessage{Kind: OutboundImportRequest, ImportRequest: m}, nil
	case hasField(f, fOutFileImportRequest):
		m, err := UnmarshalFileImportRequest(getBytes(f, fOutFileImportRequest))
		if err != nil {
			return nil, err
		}
		return &OutboundMessage{Kind: OutboundFileImportRequest, FileImportRequest: m}, nil
	case hasField(f, fOutFunctionCallRequest):
		m, err := UnmarshalFunctionCallRequest(getBytes(f, fOutFunctionCallRequest))
		if err != nil {
			return nil, err
		}
		return &OutboundMessage{Kind: OutboundFunctionCallRequest, FunctionCallRequest: m}, nil
	case hasField(f, fOutVersionResponse):
		m, err := UnmarshalVersionResponse(getBytes(f, fOutVersionResponse))
		if err != nil {
			return nil, err
		}
		return &OutboundMessage{Kind: OutboundVersionResponse, VersionResponse: m}, nil
	case hasField(f, fOutError):
		m, err := UnmarshalProtocolError(getBytes(f, fOutError))
		if err != nil {
			return nil, err
		}
		return &OutboundMessage{Kind: OutboundError, Error: m}, nil
	default:
		return nil, errs.NewProtocolError("embproto: envelope carries no known oneof field")
	}
}

// EncodeInbound is the mirror of DecodeOutbound, kept as a free function
// alongside it so Codec can stay a two-method seam (see codec.go) without
// every call site needing to know InboundMessage has its own Marshal.
func EncodeInbound(m *InboundMessage) []byte { return m.Marshal() }
