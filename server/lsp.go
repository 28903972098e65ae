package server

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/kata/compiler"
	"github.com/chazu/kata/manifest"
	"github.com/chazu/kata/store"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "kata-lsp"

var log = commonlog.GetLogger("kata.server")

// LspServer compiles open documents on every change and answers editor
// queries from the resulting units.
type LspServer struct {
	worker   *Worker
	manifest *manifest.Manifest
	store    *store.Store

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new LSP server. Units are compiled with the options of
// m; when st is non-nil every saved document is also written to the store.
func NewLSP(m *manifest.Manifest, st *store.Store) *LspServer {
	s := &LspServer{
		worker:   NewWorker(),
		manifest: m,
		store:    st,
		version:  "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,
		TextDocumentDidSave:   s.textDocumentDidSave,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
		TextDocumentDefinition: s.textDocumentDefinition,
		TextDocumentReferences: s.textDocumentReferences,
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
	log.Info("kata LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
		Save:      boolPtr(true),
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"."},
	}

	capabilities.HoverProvider = true
	capabilities.DefinitionProvider = true
	capabilities.ReferencesProvider = true

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
	s.worker.Stop()
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.publish(ctx, uri, s.open(uri, params.TextDocument.Text))
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.publish(ctx, uri, s.open(uri, whole.Text))
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.close(params.TextDocument.URI)

	// Clear diagnostics for the closed document
	s.publish(ctx, params.TextDocument.URI, []protocol.Diagnostic{})
	return nil
}

func (s *LspServer) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if s.store == nil {
		return nil
	}
	uri := string(params.TextDocument.URI)
	result, err := s.worker.Unit(uri, func(unit *compiler.Unit) any {
		id, err := s.store.SaveUnit(context.Background(), unit)
		if err != nil {
			return err
		}
		return id
	})
	if err != nil {
		return err
	}
	if err, ok := result.(error); ok {
		log.Errorf("saving %s: %s", uri, err)
		return err
	}
	return nil
}

// open compiles text as the current contents of uri and returns its
// diagnostics.
func (s *LspServer) open(uri protocol.DocumentUri, text string) []protocol.Diagnostic {
	result, err := s.worker.Do(func(units map[string]*compiler.Unit) any {
		unit := compiler.Compile(text, s.manifest.CompileOptions(string(uri))...)
		units[string(uri)] = unit
		return diagnostics(unit)
	})
	if err != nil {
		log.Errorf("compiling %s: %s", uri, err)
		return []protocol.Diagnostic{}
	}
	return result.([]protocol.Diagnostic)
}

func (s *LspServer) close(uri protocol.DocumentUri) {
	s.worker.Do(func(units map[string]*compiler.Unit) any {
		delete(units, string(uri))
		return nil
	})
}

func (s *LspServer) publish(ctx *glsp.Context, uri protocol.DocumentUri, diags []protocol.Diagnostic) {
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	uri := string(params.TextDocument.URI)
	pos := params.Position

	result, err := s.worker.Unit(uri, func(unit *compiler.Unit) any {
		prefix := extractPrefix(unit.Source, pos)
		if prefix == "" {
			return nil
		}
		return complete(unit, prefix)
	})
	if err != nil || result == nil {
		return nil, err
	}
	return result, nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	result, err := s.worker.Unit(string(params.TextDocument.URI), func(unit *compiler.Unit) any {
		return hover(unit, params.Position)
	})
	if err != nil || result == nil {
		return nil, nil
	}
	return result.(*protocol.Hover), nil
}

func (s *LspServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	uri := params.TextDocument.URI
	result, err := s.worker.Unit(string(uri), func(unit *compiler.Unit) any {
		return definition(uri, unit, params.Position)
	})
	if err != nil || result == nil {
		return nil, nil
	}
	return result, nil
}

func (s *LspServer) textDocumentReferences(ctx *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	uri := params.TextDocument.URI
	result, err := s.worker.Unit(string(uri), func(unit *compiler.Unit) any {
		return references(uri, unit, params.Position)
	})
	if err != nil || result == nil {
		return nil, nil
	}
	return result.([]protocol.Location), nil
}

// --- Unit-backed logic (called on worker goroutine) ---

func diagnostics(unit *compiler.Unit) []protocol.Diagnostic {
	diags := make([]protocol.Diagnostic, 0, len(unit.Reporter.Diagnostics()))
	source := lspName
	for _, d := range unit.Reporter.Diagnostics() {
		severity := protocol.DiagnosticSeverityError
		if d.Severity == compiler.SeverityWarning {
			severity = protocol.DiagnosticSeverityWarning
		}
		diags = append(diags, protocol.Diagnostic{
			Range:    toRange(d.Span),
			Severity: &severity,
			Source:   &source,
			Message:  d.Message,
		})
	}
	return diags
}

func complete(unit *compiler.Unit, prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	lowerPrefix := strings.ToLower(prefix)
	seen := make(map[string]bool)

	// Names visible at the top level of the unit
	for _, name := range unit.Scope.Names() {
		if !strings.HasPrefix(strings.ToLower(name), lowerPrefix) {
			continue
		}
		seen[name] = true
		def, _ := unit.Scope.Lookup(name)
		kind := protocol.CompletionItemKindVariable
		detail := describe(unit, def)
		if detail == "function" {
			kind = protocol.CompletionItemKindFunction
		}
		nameCopy := name
		items = append(items, protocol.CompletionItem{
			Label:      name,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &nameCopy,
		})
	}

	// Keywords
	for _, word := range compiler.Keywords() {
		if strings.HasPrefix(word, lowerPrefix) && !seen[word] {
			kind := protocol.CompletionItemKindKeyword
			detail := "keyword"
			wordCopy := word
			items = append(items, protocol.CompletionItem{
				Label:      word,
				Kind:       &kind,
				Detail:     &detail,
				InsertText: &wordCopy,
			})
		}
	}

	// Limit results
	const maxItems = 100
	if len(items) > maxItems {
		items = items[:maxItems]
	}

	return items
}

func hover(unit *compiler.Unit, pos protocol.Position) *protocol.Hover {
	h := nodeAt(unit.Program, toPosition(pos))

	var b strings.Builder
	switch n := h.node.(type) {
	case *compiler.ConstantExpr:
		if !n.Keyed {
			return nil
		}
		c, ok := unit.Scope.Constant(n.Key)
		if !ok {
			return nil
		}
		fmt.Fprintf(&b, "**%s** constant `#%d`\n\n", c.Type, c.Key)
		fmt.Fprintf(&b, "Value: `%s`", c.Value)

	case *compiler.IdentifierExpr:
		if h.member {
			fmt.Fprintf(&b, "property `%s`", n.Name)
			break
		}
		def, ok := unit.Scope.Lookup(n.Name)
		if !ok {
			return nil
		}
		fmt.Fprintf(&b, "**%s** %s", n.Name, describe(unit, def))
		if defined(def) {
			fmt.Fprintf(&b, "\n\nDefined at %s", def.Span().Start)
		}

	default:
		return nil
	}

	r := toRange(h.node.Span())
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
		Range: &r,
	}
}

func definition(uri protocol.DocumentUri, unit *compiler.Unit, pos protocol.Position) []protocol.Location {
	h := nodeAt(unit.Program, toPosition(pos))
	id, ok := h.node.(*compiler.IdentifierExpr)
	if !ok || h.member {
		return nil
	}
	def, ok := unit.Scope.Lookup(id.Name)
	if !ok || !defined(def) {
		return nil
	}
	return []protocol.Location{{URI: uri, Range: toRange(def.Span())}}
}

func references(uri protocol.DocumentUri, unit *compiler.Unit, pos protocol.Position) []protocol.Location {
	h := nodeAt(unit.Program, toPosition(pos))
	id, ok := h.node.(*compiler.IdentifierExpr)
	if !ok || h.member {
		return nil
	}

	var locations []protocol.Location
	members := make(map[*compiler.IdentifierExpr]bool)
	for _, stmt := range unit.Program {
		compiler.Walk(stmt, func(e compiler.Expr) bool {
			switch n := e.(type) {
			case *compiler.IdentifierPartExpr:
				members[n.Member] = true
			case *compiler.IdentifierExpr:
				if n.Name == id.Name && !members[n] {
					locations = append(locations, protocol.Location{URI: uri, Range: toRange(n.Span())})
				}
			}
			return true
		})
	}
	return locations
}

// describe names the kind of a scope definition.
func describe(unit *compiler.Unit, def compiler.Expr) string {
	if !defined(def) {
		return "global"
	}
	isFunction := false
	for _, stmt := range unit.Program {
		compiler.Walk(stmt, func(e compiler.Expr) bool {
			if m, ok := e.(*compiler.MethodExpr); ok && m.Name != nil && m.Name.Span() == def.Span() {
				isFunction = true
			}
			return !isFunction
		})
	}
	if isFunction {
		return "function"
	}
	return "variable"
}

// defined reports whether def comes from the source rather than from the
// predefined globals.
func defined(def compiler.Expr) bool {
	return def != nil && def.Span().Start.Line > 0
}

// hit is the innermost node under a position.
type hit struct {
	node   compiler.Expr
	member bool // node is the property name of a dotted path
}

func nodeAt(program []compiler.Expr, p compiler.Position) hit {
	var best hit
	bestSize := -1
	members := make(map[*compiler.IdentifierExpr]bool)
	for _, stmt := range program {
		compiler.Walk(stmt, func(e compiler.Expr) bool {
			if part, ok := e.(*compiler.IdentifierPartExpr); ok {
				members[part.Member] = true
			}
			span := e.Span()
			if !contains(span, p) {
				return true
			}
			size := span.End.Offset - span.Start.Offset
			if bestSize < 0 || size <= bestSize {
				id, isIdent := e.(*compiler.IdentifierExpr)
				best = hit{node: e, member: isIdent && members[id]}
				bestSize = size
			}
			return true
		})
	}
	return best
}

func contains(span compiler.Span, p compiler.Position) bool {
	return !before(p, span.Start) && before(p, span.End)
}

func before(a, b compiler.Position) bool {
	return a.Line < b.Line || (a.Line == b.Line && a.Column < b.Column)
}

// --- Position conversion ---

// toPosition converts a zero-based LSP position to a one-based source
// position.
func toPosition(p protocol.Position) compiler.Position {
	return compiler.Position{Line: int(p.Line) + 1, Column: int(p.Character) + 1}
}

func toRange(span compiler.Span) protocol.Range {
	start := fromPosition(span.Start)
	end := start
	if span.End.Line > 0 {
		end = fromPosition(span.End)
	}
	return protocol.Range{Start: start, End: end}
}

func fromPosition(p compiler.Position) protocol.Position {
	line, col := p.Line-1, p.Column-1
	if line < 0 {
		line = 0
	}
	if col < 0 {
		col = 0
	}
	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(col)}
}

// --- Text extraction helpers ---

// extractPrefix returns the identifier fragment before the cursor for
// completion.
func extractPrefix(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := []rune(lines[pos.Line])
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	// Walk backwards from cursor to find the start of the identifier
	start := col
	for start > 0 {
		ch := line[start-1]
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' || ch == '$' {
			start--
		} else {
			break
		}
	}

	if start == col {
		return ""
	}

	return string(line[start:col])
}

func boolPtr(b bool) *bool {
	return &b
}
