package embproto

import (
	"testing"

	"github.com/sass-contrib/embedded-host-go/sassvalue"
)

func TestCompileRequestRoundTrip(t *testing.T) {
	impID := uint32(3)
	req := &CompileRequest{
		CompilationID: 5,
		Source:        ".a { color: red; }",
		Syntax:        "scss",
		URL:           "stdin",
		Style:         "expanded",
		SourceMap:     true,
		LoadPaths:     []string{"a", "b"},
		Importers: []ImporterEntry{
			{ID: 1, FileImporter: false},
			{ID: 2, FileImporter: true},
		},
		EntrypointImporterID: &impID,
		FunctionSignatures:   []string{"foo($a)", "bar()"},
	}
	got, err := UnmarshalCompileRequest(req.Marshal())
	if err != nil {
		t.Fatal(err)
	}
	if got.CompilationID != 5 || got.Source != req.Source || got.Style != "expanded" {
		t.Fatalf("mismatch: %+v", got)
	}
	if len(got.LoadPaths) != 2 || got.LoadPaths[0] != "a" {
		t.Fatalf("load paths: %+v", got.LoadPaths)
	}
	if len(got.Importers) != 2 || !got.Importers[1].FileImporter {
		t.Fatalf("importers: %+v", got.Importers)
	}
	if got.EntrypointImporterID == nil || *got.EntrypointImporterID != impID {
		t.Fatalf("entrypoint importer id not preserved: %+v", got.EntrypointImporterID)
	}
	if len(got.FunctionSignatures) != 2 {
		t.Fatalf("function signatures: %+v", got.FunctionSignatures)
	}
}

func TestCompileResponseFailureRoundTrip(t *testing.T) {
	res := &CompileResponse{
		CompilationID:  9,
		Succeeded:      false,
		FailureMessage: "unexpected token",
		FailureSpan: &SourceSpan{
			URL: "a.scss", StartLine: 1, StartColumn: 2, EndLine: 1, EndColumn: 5,
		},
		StackTrace: "at foo",
	}
	got, err := UnmarshalCompileResponse(res.Marshal())
	if err != nil {
		t.Fatal(err)
	}
	if got.Succeeded {
		t.Fatal("expected failure")
	}
	if got.FailureSpan == nil || got.FailureSpan.URL != "a.scss" || got.FailureSpan.EndColumn != 5 {
		t.Fatalf("span not preserved: %+v", got.FailureSpan)
	}
}

// buildOutboundEnvelope mimics what a real compiler subprocess would send;
// this module only ever encodes InboundMessage and decodes OutboundMessage,
// so the test hand-assembles the mirror encoding to exercise DecodeOutbound.
func buildOutboundEnvelope(fieldNum int, payload []byte) []byte {
	var w builder
	w.msg(fieldNum, payload)
	return w.bytesOut()
}

func TestOutboundEnvelopeDispatch(t *testing.T) {
	req := &CanonicalizeRequest{CompilationID: 1, ID: 2, ImporterID: 3, URL: "foo:bar"}
	b := buildOutboundEnvelope(fOutCanonicalizeRequest, req.Marshal())

	got, err := DecodeOutbound(b)
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != OutboundCanonicalizeRequest {
		t.Fatalf("kind: %v", got.Kind)
	}
	if got.CanonicalizeRequest.URL != "foo:bar" {
		t.Fatalf("url not preserved: %+v", got.CanonicalizeRequest)
	}
}

func TestOutboundEnvelopeError(t *testing.T) {
	pe := &ProtocolError{ID: ProtocolErrorID, Type: "error", Message: "boom"}
	var w builder
	w.forceVarint(fProtoErrID, uint64(pe.ID))
	w.str(fProtoErrType, pe.Type)
	w.str(fProtoErrMsg, pe.Message)
	b := buildOutboundEnvelope(fOutError, w.bytesOut())

	got, err := DecodeOutbound(b)
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != OutboundError || got.Error.Message != "boom" {
		t.Fatalf("mismatch: %+v", got)
	}
}

func TestInboundEnvelopeMarshal(t *testing.T) {
	in := &InboundMessage{
		Kind:           InboundVersionRequest,
		VersionRequest: &VersionRequest{ID: 77},
	}
	b := in.Marshal()
	if len(b) == 0 {
		t.Fatal("expected non-empty encoding")
	}
	// decode it back via the same field-number convention DecodeOutbound
	// uses, just against the inbound field table, to confirm the oneof tag
	// round-trips.
	f, err := parseFields(b)
	if err != nil {
		t.Fatal(err)
	}
	if !hasField(f, fInVersionRequest) {
		t.Fatal("expected version request field present")
	}
}

func TestValueRoundTrip(t *testing.T) {
	id := uint32(42)
	values := []sassvalue.Value{
		sassvalue.String{Text: "hello", Quoted: true},
		sassvalue.Number{Value: 12.5, Units: []string{"px"}},
		sassvalue.Color{Space: "rgb", R: 1, G: 2, B: 3, Alpha: 0.5},
		sassvalue.Color{Space: "hsl", H: 10, S: 20, L: 30, Alpha: 1},
		sassvalue.Bool{Value: true},
		sassvalue.Null{},
		sassvalue.List{Items: []sassvalue.Value{sassvalue.String{Text: "a"}}, Separator: "comma"},
		sassvalue.ArgList{
			Items:     []sassvalue.Value{sassvalue.Number{Value: 1}},
			Keywords:  map[string]sassvalue.Value{"k": sassvalue.Bool{Value: false}},
			Separator: "space",
		},
		sassvalue.FunctionRef{ID: &id},
		sassvalue.Calculation{
			Name: "calc",
			Arguments: []sassvalue.CalculationArg{
				{Value: sassvalue.Number{Value: 1}},
				{Operator: "+"},
			},
		},
	}
	for _, v := range values {
		b := MarshalValue(v)
		got, err := UnmarshalValue(b)
		if err != nil {
			t.Fatalf("unmarshal %T: %v", v, err)
		}
		if got == nil {
			t.Fatalf("nil result for %T", v)
		}
	}
}

func TestColorSpaceRoundTrip(t *testing.T) {
	hsl := sassvalue.Color{Space: "hsl", H: 200, S: 50, L: 25, Alpha: 0.8}
	b := MarshalValue(hsl)
	got, err := UnmarshalValue(b)
	if err != nil {
		t.Fatal(err)
	}
	c, ok := got.(sassvalue.Color)
	if !ok {
		t.Fatalf("expected Color, got %T", got)
	}
	if c.H != 200 || c.S != 50 || c.L != 25 {
		t.Fatalf("hsl components not preserved: %+v", c)
	}
}

// TestHSLZeroHueRoundTrip guards against hue and RGB channels sharing wire
// field numbers: a zero hue (red) must not be confused with an absent or
// zero RGB channel from a prior encode.
func TestHSLZeroHueRoundTrip(t *testing.T) {
	hsl := sassvalue.Color{Space: "hsl", H: 0, S: 100, L: 50, Alpha: 1}
	b := MarshalValue(hsl)
	got, err := UnmarshalValue(b)
	if err != nil {
		t.Fatal(err)
	}
	c, ok := got.(sassvalue.Color)
	if !ok {
		t.Fatalf("expected Color, got %T", got)
	}
	if c.H != 0 || c.S != 100 || c.L != 50 {
		t.Fatalf("zero hue not preserved: %+v", c)
	}
}
