package server

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/laml/compiler"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "laml-lsp"

// LspServer provides diagnostics, completion, hover and go-to-definition
// for LaML documents.
type LspServer struct {
	worker *Worker
	log    commonlog.Logger

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new LSP server. globals names the root frame; empty
// means the compiler defaults.
func NewLSP(version string, globals []string) *LspServer {
	s := &LspServer{
		worker:  NewWorker(NewWorkspace(globals)),
		log:     commonlog.GetLogger("laml.server"),
		version: version,
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
		TextDocumentDefinition: s.textDocumentDefinition,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.log.Infof("%s %s initializing", lspName, s.version)

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"("},
	}

	capabilities.HoverProvider = true
	capabilities.DefinitionProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	s.log.Info("shutting down")
	s.worker.Stop()
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.update(ctx, params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.update(ctx, params.TextDocument.URI, whole.Text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.worker.Do(func(ws *Workspace) any {
		ws.Close(string(uri))
		return nil
	})

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *LspServer) update(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	res, err := s.worker.Do(func(ws *Workspace) any {
		return ws.Update(string(uri), text)
	})
	if err != nil {
		s.log.Errorf("analyze %s: %s", uri, err)
		return
	}
	a := res.(*Analysis)
	if a.Err != nil {
		s.log.Debugf("%s: %s", uri, a.Err)
	}

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics(a),
	})
}

// --- Language features ---

// withAnalysis runs fn on the worker with the latest analysis of uri.
func (s *LspServer) withAnalysis(uri protocol.DocumentUri, fn func(*Workspace, *Analysis) any) any {
	res, err := s.worker.Do(func(ws *Workspace) any {
		a, ok := ws.Get(string(uri))
		if !ok {
			return nil
		}
		return fn(ws, a)
	})
	if err != nil {
		s.log.Errorf("%s: %s", uri, err)
		return nil
	}
	return res
}

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	res := s.withAnalysis(params.TextDocument.URI, func(ws *Workspace, a *Analysis) any {
		prefix := extractPrefix(a.Text, params.Position)
		return complete(a, ws.Globals(), prefix)
	})
	if res == nil {
		return nil, nil
	}
	return res, nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	res := s.withAnalysis(params.TextDocument.URI, func(ws *Workspace, a *Analysis) any {
		word := extractWord(a.Text, params.Position)
		if word == "" {
			return nil
		}
		return hover(a, ws.Globals(), word)
	})
	h, _ := res.(*protocol.Hover)
	return h, nil
}

func (s *LspServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	uri := params.TextDocument.URI
	res := s.withAnalysis(uri, func(ws *Workspace, a *Analysis) any {
		word := extractWord(a.Text, params.Position)
		def, ok := a.Defs[word]
		if !ok {
			return nil
		}
		return []protocol.Location{{URI: uri, Range: lineRange(a.Text, def.Line)}}
	})
	if res == nil {
		return nil, nil
	}
	return res, nil
}

// --- Analysis-backed logic (called on worker goroutine) ---

func complete(a *Analysis, globals []string, prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	add := func(label, detail string, kind protocol.CompletionItemKind) {
		if !strings.HasPrefix(label, prefix) {
			return
		}
		labelCopy, detailCopy, kindCopy := label, detail, kind
		items = append(items, protocol.CompletionItem{
			Label:      label,
			Kind:       &kindCopy,
			Detail:     &detailCopy,
			InsertText: &labelCopy,
		})
	}

	for _, name := range compiler.SpecialFormNames() {
		usage, _, _ := compiler.SpecialFormDoc(name)
		add(name, usage, protocol.CompletionItemKindKeyword)
	}
	for _, name := range compiler.BuiltinNames() {
		b, _ := compiler.LookupBuiltin(name)
		add(name, fmt.Sprintf("built-in, %d args", b.Arity), protocol.CompletionItemKindFunction)
	}
	for _, name := range globals {
		add(name, "root global", protocol.CompletionItemKindConstant)
	}

	names := make([]string, 0, len(a.Defs))
	for name := range a.Defs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		def := a.Defs[name]
		add(name, fmt.Sprintf("%s, line %d", def.Kind, def.Line), protocol.CompletionItemKindVariable)
	}

	// Limit results
	const maxItems = 100
	if len(items) > maxItems {
		items = items[:maxItems]
	}

	return items
}

func hover(a *Analysis, globals []string, word string) *protocol.Hover {
	var b strings.Builder

	if usage, doc, ok := compiler.SpecialFormDoc(word); ok {
		fmt.Fprintf(&b, "**%s** (special form)\n\n`%s`\n\n%s", word, usage, doc)
	} else if bi, ok := compiler.LookupBuiltin(word); ok {
		fmt.Fprintf(&b, "**%s** (built-in)\n\n%d arguments, compiles to `%s`, result %s\n\n%s",
			word, bi.Arity, bi.Op, bi.Result, bi.Doc)
	} else if i := indexOf(globals, word); i >= 0 {
		fmt.Fprintf(&b, "**%s** (root global)\n\nSlot %d of the frame passed to main.", word, i)
	} else if def, ok := a.Defs[word]; ok {
		fmt.Fprintf(&b, "**%s** (%s)\n\nBound at line %d.", word, def.Kind, def.Line)
	} else {
		return nil
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
	}
}

// --- Diagnostics ---

func diagnostics(a *Analysis) []protocol.Diagnostic {
	if a.Err == nil {
		return []protocol.Diagnostic{}
	}
	severity := protocol.DiagnosticSeverityError
	source := lspName
	return []protocol.Diagnostic{{
		Range:    lineRange(a.Text, a.ErrorLine()),
		Severity: &severity,
		Source:   &source,
		Message:  a.Err.Error(),
	}}
}

// lineRange covers the whole of a 1-based source line. Line 0 maps to the
// start of the document.
func lineRange(text string, line int) protocol.Range {
	if line <= 0 {
		return protocol.Range{}
	}
	lines := strings.Split(text, "\n")
	width := 0
	if line <= len(lines) {
		width = len(lines[line-1])
	}
	l := protocol.UInteger(line - 1)
	return protocol.Range{
		Start: protocol.Position{Line: l, Character: 0},
		End:   protocol.Position{Line: l, Character: protocol.UInteger(width)},
	}
}

// --- Text extraction helpers ---

func isTokenChar(ch byte) bool {
	if ch == '(' || ch == ')' || ch == ';' {
		return false
	}
	return ch >= utf8.RuneSelf || !unicode.IsSpace(rune(ch))
}

// extractPrefix returns the token fragment before the cursor for completion.
func extractPrefix(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	// Walk backwards from cursor to find the start of the token
	start := col
	for start > 0 && isTokenChar(line[start-1]) {
		start--
	}

	return line[start:col]
}

// extractWord returns the full token under the cursor.
func extractWord(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	// Find start
	start := col
	for start > 0 && isTokenChar(line[start-1]) {
		start--
	}

	// Find end
	end := col
	for end < len(line) && isTokenChar(line[end]) {
		end++
	}

	return line[start:end]
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func boolPtr(b bool) *bool {
	return &b
}
