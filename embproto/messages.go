package embproto

import "github.com/sass-contrib/embedded-host-go/sassvalue"

// ProtocolErrorID is the reserved sentinel compilation/request id (2^32-1)
// marking a ProtocolError not associated with any compilation (spec §3).
const ProtocolErrorID uint32 = 1<<32 - 1

type SourceSpan struct {
	URL                    string
	StartLine, StartColumn int
	EndLine, EndColumn     int
	Context                string
	Text                   string
}

const (
	fSpanURL     = 1
	fSpanSLine   = 2
	fSpanSCol    = 3
	fSpanELine   = 4
	fSpanECol    = 5
	fSpanContext = 6
	fSpanText    = 7
)

func marshalSpan(s *SourceSpan) []byte {
	if s == nil {
		return nil
	}
	var w builder
	w.str(fSpanURL, s.URL)
	w.forceVarint(fSpanSLine, uint64(s.StartLine))
	w.forceVarint(fSpanSCol, uint64(s.StartColumn))
	w.forceVarint(fSpanELine, uint64(s.EndLine))
	w.forceVarint(fSpanECol, uint64(s.EndColumn))
	w.str(fSpanContext, s.Context)
	w.str(fSpanText, s.Text)
	return w.bytesOut()
}

func unmarshalSpan(b []byte) (*SourceSpan, error) {
	if len(b) == 0 {
		return nil, nil
	}
	f, err := parseFields(b)
	if err != nil {
		return nil, err
	}
	return &SourceSpan{
		URL:         getString(f, fSpanURL),
		StartLine:   int(getUint64(f, fSpanSLine)),
		StartColumn: int(getUint64(f, fSpanSCol)),
		EndLine:     int(getUint64(f, fSpanELine)),
		EndColumn:   int(getUint64(f, fSpanECol)),
		Context:     getString(f, fSpanContext),
		Text:        getString(f, fSpanText),
	}, nil
}

//
// CompileRequest (host -> compiler)
//

type ImporterEntry struct {
	ID           uint32
	FileImporter bool // true: find_file_url only; false: canonicalize+load
}

type CompileRequest struct {
	CompilationID uint32

	// entry: exactly one of (Source set) or (Path != "")
	Source string
	Syntax string // "scss" | "indented" | "css"
	URL    string
	Path   string

	Style                   string
	SourceMap               bool
	SourceMapIncludeSources bool
	Charset                 bool
	QuietDeps               bool
	Verbose                 bool
	AlertAscii              bool
	AlertColor              bool

	LoadPaths  []string
	Importers  []ImporterEntry
	EntrypointImporterID *uint32

	FunctionSignatures []string
}

const (
	fCompReqID       = 1
	fCompReqSource   = 2
	fCompReqSyntax   = 3
	fCompReqURL      = 4
	fCompReqPath     = 5
	fCompReqStyle    = 6
	fCompReqSrcMap   = 7
	fCompReqSrcMapIS = 8
	fCompReqCharset  = 9
	fCompReqQuietDep = 10
	fCompReqVerbose  = 11
	fCompReqAAscii   = 12
	fCompReqAColor   = 13
	fCompReqLoadPath = 14
	fCompReqImporter = 15 // repeated nested ImporterEntry
	fCompReqEntryImp = 16 // varint, importer id
	fCompReqFunc     = 17 // repeated string
)

const (
	fImpEntryID   = 1
	fImpEntryFile = 2
)

func marshalImporterEntry(e ImporterEntry) []byte {
	var w builder
	w.forceVarint(fImpEntryID, uint64(e.ID))
	w.boolean(fImpEntryFile, e.FileImporter)
	return w.bytesOut()
}

func unmarshalImporterEntry(b []byte) (ImporterEntry, error) {
	f, err := parseFields(b)
	if err != nil {
		return ImporterEntry{}, err
	}
	return ImporterEntry{ID: getUint32(f, fImpEntryID), FileImporter: getBool(f, fImpEntryFile)}, nil
}

func (m *CompileRequest) Marshal() []byte {
	var w builder
	w.forceVarint(fCompReqID, uint64(m.CompilationID))
	w.str(fCompReqSource, m.Source)
	w.str(fCompReqSyntax, m.Syntax)
	w.str(fCompReqURL, m.URL)
	w.str(fCompReqPath, m.Path)
	w.str(fCompReqStyle, m.Style)
	w.boolean(fCompReqSrcMap, m.SourceMap)
	w.boolean(fCompReqSrcMapIS, m.SourceMapIncludeSources)
	w.boolean(fCompReqCharset, m.Charset)
	w.boolean(fCompReqQuietDep, m.QuietDeps)
	w.boolean(fCompReqVerbose, m.Verbose)
	w.boolean(fCompReqAAscii, m.AlertAscii)
	w.boolean(fCompReqAColor, m.AlertColor)
	for _, p := range m.LoadPaths {
		w.str(fCompReqLoadPath, p)
	}
	for _, imp := range m.Importers {
		w.msg(fCompReqImporter, marshalImporterEntry(imp))
	}
	if m.EntrypointImporterID != nil {
		w.forceVarint(fCompReqEntryImp, uint64(*m.EntrypointImporterID))
	}
	for _, s := range m.FunctionSignatures {
		w.str(fCompReqFunc, s)
	}
	return w.bytesOut()
}

func UnmarshalCompileRequest(b []byte) (*CompileRequest, error) {
	f, err := parseFields(b)
	if err != nil {
		return nil, err
	}
	m := &CompileRequest{
		CompilationID:           getUint32(f, fCompReqID),
		Source:                  getString(f, fCompReqSource),
		Syntax:                  getString(f, fCompReqSyntax),
		URL:                     getString(f, fCompReqURL),
		Path:                    getString(f, fCompReqPath),
		Style:                   getString(f, fCompReqStyle),
		SourceMap:               getBool(f, fCompReqSrcMap),
		SourceMapIncludeSources: getBool(f, fCompReqSrcMapIS),
		Charset:                 getBool(f, fCompReqCharset),
		QuietDeps:               getBool(f, fCompReqQuietDep),
		Verbose:                 getBool(f, fCompReqVerbose),
		AlertAscii:              getBool(f, fCompReqAAscii),
		AlertColor:              getBool(f, fCompReqAColor),
	}
	for _, p := range getRepeatedBytes(f, fCompReqLoadPath) {
		m.LoadPaths = append(m.LoadPaths, string(p))
	}
	for _, raw := range getRepeatedBytes(f, fCompReqImporter) {
		imp, err := unmarshalImporterEntry(raw)
		if err != nil {
			return nil, err
		}
		m.Importers = append(m.Importers, imp)
	}
	if hasField(f, fCompReqEntryImp) {
		id := getUint32(f, fCompReqEntryImp)
		m.EntrypointImporterID = &id
	}
	for _, s := range getRepeatedBytes(f, fCompReqFunc) {
		m.FunctionSignatures = append(m.FunctionSignatures, string(s))
	}
	return m, nil
}

//
// CompileResponse (compiler -> host)
//

type CompileResponse struct {
	CompilationID uint32
	Succeeded     bool

	CSS        string
	SourceMap  string
	LoadedURLs []string

	FailureMessage string
	FailureSpan    *SourceSpan
	StackTrace     string
}

const (
	fCompResID      = 1
	fCompResOK      = 2
	fCompResCSS     = 3
	fCompResSrcMap  = 4
	fCompResLoaded  = 5
	fCompResFailMsg = 6
	fCompResFailSpn = 7
	fCompResStack   = 8
)

func UnmarshalCompileResponse(b []byte) (*CompileResponse, error) {
	f, err := parseFields(b)
	if err != nil {
		return nil, err
	}
	span, err := unmarshalSpan(getBytes(f, fCompResFailSpn))
	if err != nil {
		return nil, err
	}
	m := &CompileResponse{
		CompilationID:  getUint32(f, fCompResID),
		Succeeded:      getBool(f, fCompResOK),
		CSS:            getString(f, fCompResCSS),
		SourceMap:      getString(f, fCompResSrcMap),
		FailureMessage: getString(f, fCompResFailMsg),
		FailureSpan:    span,
		StackTrace:     getString(f, fCompResStack),
	}
	for _, u := range getRepeatedBytes(f, fCompResLoaded) {
		m.LoadedURLs = append(m.LoadedURLs, string(u))
	}
	return m, nil
}

func (m *CompileResponse) Marshal() []byte {
	var w builder
	w.forceVarint(fCompResID, uint64(m.CompilationID))
	w.boolean(fCompResOK, m.Succeeded)
	w.str(fCompResCSS, m.CSS)
	w.str(fCompResSrcMap, m.SourceMap)
	for _, u := range m.LoadedURLs {
		w.str(fCompResLoaded, u)
	}
	w.str(fCompResFailMsg, m.FailureMessage)
	w.msg(fCompResFailSpn, marshalSpan(m.FailureSpan))
	w.str(fCompResStack, m.StackTrace)
	return w.bytesOut()
}

//
// Canonicalize
//

type CanonicalizeRequest struct {
	CompilationID uint32
	ID            uint32
	ImporterID    uint32
	URL           string
	FromImport    bool
	ContainingURL string
}

const (
	fCanReqCompID = 1
	fCanReqID     = 2
	fCanReqImpID  = 3
	fCanReqURL    = 4
	fCanReqFromIm = 5
	fCanReqCtnURL = 6
)

func UnmarshalCanonicalizeRequest(b []byte) (*CanonicalizeRequest, error) {
	f, err := parseFields(b)
	if err != nil {
		return nil, err
	}
	return &CanonicalizeRequest{
		CompilationID: getUint32(f, fCanReqCompID),
		ID:            getUint32(f, fCanReqID),
		ImporterID:    getUint32(f, fCanReqImpID),
		URL:           getString(f, fCanReqURL),
		FromImport:    getBool(f, fCanReqFromIm),
		ContainingURL: getString(f, fCanReqCtnURL),
	}, nil
}

type CanonicalizeResponse struct {
	CompilationID uint32
	ID            uint32
	URL           string // empty + !Error: "null" (not found)
	Error         string
}

const (
	fCanResCompID = 1
	fCanResID     = 2
	fCanResURL    = 3
	fCanResErr    = 4
)

func (m *CanonicalizeResponse) Marshal() []byte {
	var w builder
	w.forceVarint(fCanResCompID, uint64(m.CompilationID))
	w.forceVarint(fCanResID, uint64(m.ID))
	w.str(fCanResURL, m.URL)
	w.str(fCanResErr, m.Error)
	return w.bytesOut()
}

//
// Import
//

type ImportRequest struct {
	CompilationID uint32
	ID            uint32
	ImporterID    uint32
	URL           string
}

const (
	fImpReqCompID = 1
	fImpReqID     = 2
	fImpReqImpID  = 3
	fImpReqURL    = 4
)

func UnmarshalImportRequest(b []byte) (*ImportRequest, error) {
	f, err := parseFields(b)
	if err != nil {
		return nil, err
	}
	return &ImportRequest{
		CompilationID: getUint32(f, fImpReqCompID),
		ID:            getUint32(f, fImpReqID),
		ImporterID:    getUint32(f, fImpReqImpID),
		URL:           getString(f, fImpReqURL),
	}, nil
}

type ImportResponse struct {
	CompilationID uint32
	ID            uint32
	Found         bool
	Contents      string
	Syntax        string
	SourceMapURL  string
	Error         string
}

const (
	fImpResCompID = 1
	fImpResID     = 2
	fImpResFound  = 3
	fImpResCont   = 4
	fImpResSyntax = 5
	fImpResSMUrl  = 6
	fImpResErr    = 7
)

func (m *ImportResponse) Marshal() []byte {
	var w builder
	w.forceVarint(fImpResCompID, uint64(m.CompilationID))
	w.forceVarint(fImpResID, uint64(m.ID))
	w.boolean(fImpResFound, m.Found)
	w.str(fImpResCont, m.Contents)
	w.str(fImpResSyntax, m.Syntax)
	w.str(fImpResSMUrl, m.SourceMapURL)
	w.str(fImpResErr, m.Error)
	return w.bytesOut()
}

//
// FileImport
//

type FileImportRequest struct {
	CompilationID uint32
	ID            uint32
	ImporterID    uint32
	URL           string
	FromImport    bool
}

const (
	fFImpReqCompID = 1
	fFImpReqID     = 2
	fFImpReqImpID  = 3
	fFImpReqURL    = 4
	fFImpReqFromIm = 5
)

func UnmarshalFileImportRequest(b []byte) (*FileImportRequest, error) {
	f, err := parseFields(b)
	if err != nil {
		return nil, err
	}
	return &FileImportRequest{
		CompilationID: getUint32(f, fFImpReqCompID),
		ID:            getUint32(f, fFImpReqID),
		ImporterID:    getUint32(f, fFImpReqImpID),
		URL:           getString(f, fFImpReqURL),
		FromImport:    getBool(f, fFImpReqFromIm),
	}, nil
}

type FileImportResponse struct {
	CompilationID uint32
	ID            uint32
	FileURL       string
	Error         string
}

const (
	fFImpResCompID = 1
	fFImpResID     = 2
	fFImpResURL    = 3
	fFImpResErr    = 4
)

func (m *FileImportResponse) Marshal() []byte {
	var w builder
	w.forceVarint(fFImpResCompID, uint64(m.CompilationID))
	w.forceVarint(fFImpResID, uint64(m.ID))
	w.str(fFImpResURL, m.FileURL)
	w.str(fFImpResErr, m.Error)
	return w.bytesOut()
}

//
// FunctionCall
//

type FunctionCallRequest struct {
	CompilationID uint32
	ID            uint32
	Name          string
	FunctionID    *uint32
	Arguments     []sassvalue.Value
}

const (
	fFnReqCompID = 1
	fFnReqID     = 2
	fFnReqName   = 3
	fFnReqFuncID = 4
	fFnReqArgs   = 5
)

func UnmarshalFunctionCallRequest(b []byte) (*FunctionCallRequest, error) {
	f, err := parseFields(b)
	if err != nil {
		return nil, err
	}
	m := &FunctionCallRequest{
		CompilationID: getUint32(f, fFnReqCompID),
		ID:            getUint32(f, fFnReqID),
		Name:          getString(f, fFnReqName),
	}
	if hasField(f, fFnReqFuncID) {
		id := getUint32(f, fFnReqFuncID)
		m.FunctionID = &id
	}
	for _, raw := range getRepeatedBytes(f, fFnReqArgs) {
		v, err := UnmarshalValue(raw)
		if err != nil {
			return nil, err
		}
		m.Arguments = append(m.Arguments, v)
	}
	return m, nil
}

type FunctionCallResponse struct {
	CompilationID uint32
	ID            uint32
	Success       sassvalue.Value // nil if Error set
	Error         string
}

const (
	fFnResCompID = 1
	fFnResID     = 2
	fFnResOK     = 3 // nested Value
	fFnResErr    = 4
)

func (m *FunctionCallResponse) Marshal() []byte {
	var w builder
	w.forceVarint(fFnResCompID, uint64(m.CompilationID))
	w.forceVarint(fFnResID, uint64(m.ID))
	if m.Success != nil {
		w.msg(fFnResOK, MarshalValue(m.Success))
	}
	w.str(fFnResErr, m.Error)
	return w.bytesOut()
}

//
// LogEvent
//

type LogEvent struct {
	CompilationID uint32
	Type          string // "warning" | "debug" | "deprecation-warning"
	Message       string
	Span          *SourceSpan
	StackTrace    string
	Formatted     string
}

const (
	fLogCompID = 1
	fLogType   = 2
	fLogMsg    = 3
	fLogSpan   = 4
	fLogStack  = 5
	fLogFmt    = 6
)

func UnmarshalLogEvent(b []byte) (*LogEvent, error) {
	f, err := parseFields(b)
	if err != nil {
		return nil, err
	}
	span, err := unmarshalSpan(getBytes(f, fLogSpan))
	if err != nil {
		return nil, err
	}
	return &LogEvent{
		CompilationID: getUint32(f, fLogCompID),
		Type:          getString(f, fLogType),
		Message:       getString(f, fLogMsg),
		Span:          span,
		StackTrace:    getString(f, fLogStack),
		Formatted:     getString(f, fLogFmt),
	}, nil
}

//
// ProtocolError
//

type ProtocolError struct {
	ID      uint32
	Type    string
	Message string
}

const (
	fProtoErrID   = 1
	fProtoErrType = 2
	fProtoErrMsg  = 3
)

func UnmarshalProtocolError(b []byte) (*ProtocolError, error) {
	f, err := parseFields(b)
	if err != nil {
		return nil, err
	}
	return &ProtocolError{
		ID:      getUint32(f, fProtoErrID),
		Type:    getString(f, fProtoErrType),
		Message: getString(f, fProtoErrMsg),
	}, nil
}

//
// Version
//

type VersionRequest struct{ ID uint32 }

const fVerReqID = 1

func (m *VersionRequest) Marshal() []byte {
	var w builder
	w.forceVarint(fVerReqID, uint64(m.ID))
	return w.bytesOut()
}

type VersionResponse struct {
	ID                    uint32
	ProtocolVersion       string
	CompilerVersion       string
	ImplementationVersion string
	ImplementationName    string
}

const (
	fVerResID      = 1
	fVerResProto   = 2
	fVerResCompVer = 3
	fVerResImplVer = 4
	fVerResImplNm  = 5
)

func UnmarshalVersionResponse(b []byte) (*VersionResponse, error) {
	f, err := parseFields(b)
	if err != nil {
		return nil, err
	}
	return &VersionResponse{
		ID:                    getUint32(f, fVerResID),
		ProtocolVersion:       getString(f, fVerResProto),
		CompilerVersion:       getString(f, fVerResCompVer),
		ImplementationVersion: getString(f, fVerResImplVer),
		ImplementationName:    getString(f, fVerResImplNm),
	}, nil
}
