// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package parser

import (
	"context"
	"path"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/skylos-dev/skylos/internal/heuristics"
	"github.com/skylos-dev/skylos/internal/symbols"
)

// EcmaCollector handles JavaScript and TypeScript. The two grammars share
// their statement and expression node vocabulary, so one walker covers
// both; TypeScript-only declaration forms (interfaces, type aliases,
// enums) are additional cases in the same switch.
type EcmaCollector struct {
	lang symbols.Language
}

// NewEcmaCollector returns a collector for lang (javascript or typescript).
func NewEcmaCollector(lang symbols.Language) *EcmaCollector {
	return &EcmaCollector{lang: lang}
}

// Language implements Collector.
func (c *EcmaCollector) Language() symbols.Language { return c.lang }

// grammar picks the tree-sitter language for the file, using the TSX
// grammar for .tsx/.jsx sources since it is a superset that tolerates
// embedded JSX.
func (c *EcmaCollector) grammar(filePath string) *sitter.Language {
	ext := strings.ToLower(path.Ext(filePath))
	switch {
	case ext == ".tsx":
		return tsx.GetLanguage()
	case c.lang == symbols.LanguageTypeScript:
		return typescript.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// Collect implements Collector for JS/TS source files.
func (c *EcmaCollector) Collect(ctx context.Context, file *symbols.File, content []byte) (*Collection, error) {
	tree, err := parseTree(ctx, c.grammar(file.Path), content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	col := &Collection{Imports: symbols.ImportMap{}}
	root := tree.RootNode()
	if root == nil {
		col.Errors = append(col.Errors, "tree-sitter returned nil root node")
		return col, nil
	}
	if root.HasError() {
		col.Errors = append(col.Errors, "source contains syntax errors")
	}

	w := &ecmaWalker{file: file, content: content, col: col, lang: c.lang}
	w.walkBlock(root, ecmaScope{})
	return col, nil
}

type ecmaScope struct {
	classes     []string
	caller      string
	exported    bool // inside an export_statement
	inMainGuard bool
	metrics     *symbols.FunctionMetrics
	loopVars    []string
	depth       int
}

type ecmaWalker struct {
	file    *symbols.File
	content []byte
	col     *Collection
	lang    symbols.Language
}

func (w *ecmaWalker) qualify(sc ecmaScope, name string) string {
	if len(sc.classes) > 0 {
		return w.file.ModuleName + "." + strings.Join(sc.classes, ".") + "." + name
	}
	return w.file.ModuleName + "." + name
}

func (w *ecmaWalker) walkBlock(node *sitter.Node, sc ecmaScope) {
	for i := 0; i < int(node.ChildCount()); i++ {
		w.walkStatement(node.Child(i), sc)
	}
}

func (w *ecmaWalker) walkStatement(node *sitter.Node, sc ecmaScope) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "export_statement":
		w.processExport(node, sc)
	case "import_statement":
		w.processImport(node, sc)
	case "function_declaration", "generator_function_declaration":
		w.processFunction(node, sc, nil)
	case "class_declaration", "abstract_class_declaration":
		w.processClass(node, sc)
	case "interface_declaration", "enum_declaration":
		w.processTypeDecl(node, sc, symbols.KindClass)
	case "type_alias_declaration":
		w.processTypeDecl(node, sc, symbols.KindVariable)
	case "lexical_declaration", "variable_declaration":
		w.processVarDecl(node, sc)
	case "method_definition":
		w.processMethod(node, sc)
	case "if_statement":
		w.processIf(node, sc)
	case "for_statement", "for_in_statement":
		w.processFor(node, sc)
	case "while_statement", "do_statement":
		w.countDecision(sc)
		w.walkNested(node, sc, true)
	case "switch_case", "switch_default":
		if node.Type() == "switch_case" {
			w.countDecision(sc)
		}
		w.walkNested(node, sc, false)
	case "catch_clause":
		w.countDecision(sc)
		w.walkNested(node, sc, true)
	case "try_statement", "switch_statement", "statement_block", "class_body", "labeled_statement":
		w.walkNested(node, sc, false)
	case "expression_statement", "return_statement", "throw_statement":
		w.walkExprChildren(node, sc)
	case "comment", "break_statement", "continue_statement", "empty_statement":
		// nothing to collect
	default:
		w.walkExpr(node, sc)
	}
}

func (w *ecmaWalker) walkNested(node *sitter.Node, sc ecmaScope, nests bool) {
	inner := sc
	if nests && sc.metrics != nil {
		inner.depth = sc.depth + 1
		if inner.depth > sc.metrics.MaxNestingDepth {
			sc.metrics.MaxNestingDepth = inner.depth
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "statement_block", "switch_body", "class_body", "switch_case", "switch_default", "else_clause", "catch_clause", "finally_clause":
			w.walkStatement(child, inner)
		default:
			if isEcmaStatement(child.Type()) {
				w.walkStatement(child, inner)
			} else {
				w.walkExpr(child, inner)
			}
		}
	}
}

// isEcmaStatement lists statement node types that must go through
// walkStatement when encountered as children of a compound statement.
func isEcmaStatement(t string) bool {
	switch t {
	case "if_statement", "for_statement", "for_in_statement", "while_statement",
		"do_statement", "try_statement", "switch_statement", "return_statement",
		"expression_statement", "lexical_declaration", "variable_declaration",
		"function_declaration", "class_declaration", "throw_statement",
		"export_statement", "import_statement", "method_definition":
		return true
	}
	return false
}

func (w *ecmaWalker) countDecision(sc ecmaScope) {
	if sc.metrics != nil {
		sc.metrics.DecisionPoints++
	}
}

// processIf recognizes the Node entry-point guard
// `if (require.main === module)` the way the Python walker recognizes the
// __main__ guard, and otherwise counts the branch and descends.
func (w *ecmaWalker) processIf(node *sitter.Node, sc ecmaScope) {
	w.countDecision(sc)
	cond := node.ChildByFieldName("condition")
	atModuleScope := sc.caller == "" && len(sc.classes) == 0
	if atModuleScope && cond != nil {
		text := nodeText(cond, w.content)
		if strings.Contains(text, "require.main") && strings.Contains(text, "module") {
			guarded := sc
			guarded.inMainGuard = true
			w.walkNested(node, guarded, false)
			return
		}
	}
	w.walkNested(node, sc, true)
}

func (w *ecmaWalker) processFor(node *sitter.Node, sc ecmaScope) {
	w.countDecision(sc)

	loopVar := ""
	if init := node.ChildByFieldName("initializer"); init != nil {
		loopVar = w.firstDeclaratorName(init)
	} else if left := node.ChildByFieldName("left"); left != nil {
		loopVar = w.firstDeclaratorName(left)
	}

	if sc.metrics != nil && len(sc.loopVars) > 0 && loopVar != "" {
		outer := sc.loopVars[len(sc.loopVars)-1]
		if body := node.ChildByFieldName("body"); body != nil {
			text := nodeText(body, w.content)
			if containsWord(text, outer) && containsWord(text, loopVar) {
				sc.metrics.NestedLoopLines = append(sc.metrics.NestedLoopLines, nodeLine(node))
			}
		}
	}

	inner := sc
	if loopVar != "" {
		inner.loopVars = append(append([]string{}, sc.loopVars...), loopVar)
	}
	w.walkNested(node, inner, true)
}

func (w *ecmaWalker) firstDeclaratorName(node *sitter.Node) string {
	if node.Type() == "identifier" {
		return nodeText(node, w.content)
	}
	var found string
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if found != "" || n == nil {
			return
		}
		if n.Type() == "variable_declarator" {
			if name := n.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
				found = nodeText(name, w.content)
			}
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	visit(node)
	return found
}

// processExport marks the wrapped declaration exported or records a bare
// export clause's names as export hints.
func (w *ecmaWalker) processExport(node *sitter.Node, sc ecmaScope) {
	exported := sc
	exported.exported = true
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "export_clause":
			for j := 0; j < int(child.ChildCount()); j++ {
				spec := child.Child(j)
				if spec.Type() == "export_specifier" {
					if name := spec.ChildByFieldName("name"); name != nil {
						n := nodeText(name, w.content)
						w.col.Exports = append(w.col.Exports, n)
						w.addRef(n, nodeLine(spec))
					}
				}
			}
		case "export", "default", "*", "from", "string", ";":
			// punctuation / re-export source
		default:
			w.walkStatement(child, exported)
		}
	}
}

func (w *ecmaWalker) processImport(node *sitter.Node, sc ecmaScope) {
	source := ""
	if src := node.ChildByFieldName("source"); src != nil {
		source = w.resolveModule(trimQuotes(nodeText(src, w.content)))
	}
	if source == "" {
		return
	}
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		switch n.Type() {
		case "import_specifier":
			name, local := "", ""
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name = nodeText(nameNode, w.content)
				local = name
			}
			if aliasNode := n.ChildByFieldName("alias"); aliasNode != nil {
				local = nodeText(aliasNode, w.content)
			}
			if local != "" {
				w.addImportDef(local, source+"."+name, n, sc)
			}
			return
		case "namespace_import":
			for i := 0; i < int(n.ChildCount()); i++ {
				if c := n.Child(i); c.Type() == "identifier" {
					w.addImportDef(nodeText(c, w.content), source, n, sc)
				}
			}
			return
		case "identifier":
			// default import binding
			w.addImportDef(nodeText(n, w.content), source+".default", n, sc)
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	if clause := firstChildOfType(node, "import_clause"); clause != nil {
		visit(clause)
	}
}

func firstChildOfType(node *sitter.Node, t string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		if c := node.Child(i); c.Type() == t {
			return c
		}
	}
	return nil
}

// resolveModule turns a "./utils" or "../lib/db" import source into a
// dotted module path relative to the importing file; bare package
// specifiers are kept as-is.
func (w *ecmaWalker) resolveModule(source string) string {
	if !strings.HasPrefix(source, ".") {
		return strings.ReplaceAll(source, "/", ".")
	}
	dir := path.Dir(w.file.Path)
	resolved := path.Clean(path.Join(dir, source))
	return strings.ReplaceAll(resolved, "/", ".")
}

func (w *ecmaWalker) addImportDef(local, target string, node *sitter.Node, sc ecmaScope) {
	w.col.Imports[local] = target
	w.col.Definitions = append(w.col.Definitions, &symbols.Definition{
		QualifiedName: w.qualify(sc, local),
		Name:          local,
		Kind:          symbols.KindImport,
		File:          w.file.Path,
		StartLine:     nodeLine(node),
		EndLine:       nodeEndLine(node),
		Language:      w.lang,
		Package:       w.file.ModuleName,
	})
}

func (w *ecmaWalker) processFunction(node *sitter.Node, sc ecmaScope, decorators []string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	w.addFunctionDef(node, nodeText(nameNode, w.content), sc, decorators,
		node.ChildByFieldName("parameters"), node.ChildByFieldName("body"))
}

func (w *ecmaWalker) processMethod(node *sitter.Node, sc ecmaScope) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	w.addFunctionDef(node, nodeText(nameNode, w.content), sc, w.methodDecorators(node),
		node.ChildByFieldName("parameters"), node.ChildByFieldName("body"))
}

// methodDecorators collects @decorator annotations preceding a class member.
func (w *ecmaWalker) methodDecorators(node *sitter.Node) []string {
	var decorators []string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "decorator" {
			name := strings.TrimPrefix(nodeText(child, w.content), "@")
			if paren := strings.IndexByte(name, '('); paren > 0 {
				name = name[:paren]
			}
			decorators = append(decorators, name)
			w.addRef(name, nodeLine(child))
		}
	}
	return decorators
}

func (w *ecmaWalker) addFunctionDef(node *sitter.Node, name string, sc ecmaScope, decorators []string, params, body *sitter.Node) {
	qualified := w.qualify(sc, name)
	kind := symbols.KindFunction
	receiver := ""
	if len(sc.classes) > 0 {
		kind = symbols.KindMethod
		receiver = sc.classes[len(sc.classes)-1]
	}
	w.col.Definitions = append(w.col.Definitions, &symbols.Definition{
		QualifiedName: qualified,
		Name:          name,
		Kind:          kind,
		File:          w.file.Path,
		StartLine:     nodeLine(node),
		EndLine:       nodeEndLine(node),
		Receiver:      receiver,
		Exported:      sc.exported,
		Decorators:    decorators,
		Language:      w.lang,
		Package:       w.file.ModuleName,
	})

	metrics := symbols.FunctionMetrics{
		QualifiedName: qualified,
		File:          w.file.Path,
		StartLine:     nodeLine(node),
		EndLine:       nodeEndLine(node),
	}
	if params != nil {
		for i := 0; i < int(params.ChildCount()); i++ {
			switch params.Child(i).Type() {
			case "identifier", "required_parameter":
				metrics.RequiredParamCount++
				metrics.TotalParamCount++
			case "assignment_pattern", "optional_parameter", "rest_pattern":
				metrics.TotalParamCount++
			}
		}
	}

	inner := sc
	inner.caller = qualified
	inner.metrics = &metrics
	inner.exported = false
	inner.inMainGuard = false
	inner.depth = 0
	inner.loopVars = nil
	if body != nil {
		w.walkNested(body, inner, false)
	}
	w.col.Metrics = append(w.col.Metrics, metrics)
}

func (w *ecmaWalker) processClass(node *sitter.Node, sc ecmaScope) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(nameNode, w.content)
	w.col.Definitions = append(w.col.Definitions, &symbols.Definition{
		QualifiedName: w.qualify(sc, name),
		Name:          name,
		Kind:          symbols.KindClass,
		File:          w.file.Path,
		StartLine:     nodeLine(node),
		EndLine:       nodeEndLine(node),
		Exported:      sc.exported,
		Language:      w.lang,
		Package:       w.file.ModuleName,
	})

	inner := sc
	inner.classes = append(append([]string{}, sc.classes...), name)
	inner.exported = false
	if body := node.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.ChildCount()); i++ {
			child := body.Child(i)
			switch child.Type() {
			case "method_definition":
				w.processMethod(child, inner)
			case "public_field_definition", "field_definition":
				if nm := child.ChildByFieldName("property"); nm != nil {
					w.col.Definitions = append(w.col.Definitions, &symbols.Definition{
						QualifiedName: w.qualify(inner, nodeText(nm, w.content)),
						Name:          nodeText(nm, w.content),
						Kind:          symbols.KindVariable,
						File:          w.file.Path,
						StartLine:     nodeLine(child),
						EndLine:       nodeEndLine(child),
						Receiver:      name,
						Language:      w.lang,
						Package:       w.file.ModuleName,
					})
				}
				if value := child.ChildByFieldName("value"); value != nil {
					w.walkExpr(value, inner)
				}
			}
		}
	}
}

// processTypeDecl records TS interface/enum/type-alias declarations so they
// participate in dead-code detection like any other named entity.
func (w *ecmaWalker) processTypeDecl(node *sitter.Node, sc ecmaScope, kind symbols.Kind) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(nameNode, w.content)
	w.col.Definitions = append(w.col.Definitions, &symbols.Definition{
		QualifiedName: w.qualify(sc, name),
		Name:          name,
		Kind:          kind,
		File:          w.file.Path,
		StartLine:     nodeLine(node),
		EndLine:       nodeEndLine(node),
		Exported:      sc.exported,
		Language:      w.lang,
		Package:       w.file.ModuleName,
	})
}

// processVarDecl records top-level const/let/var bindings as definitions;
// arrow-function and function-expression values become function
// definitions instead, mirroring how JS codebases declare most functions.
func (w *ecmaWalker) processVarDecl(node *sitter.Node, sc ecmaScope) {
	for i := 0; i < int(node.ChildCount()); i++ {
		decl := node.Child(i)
		if decl.Type() != "variable_declarator" {
			continue
		}
		nameNode := decl.ChildByFieldName("name")
		value := decl.ChildByFieldName("value")
		if nameNode == nil || nameNode.Type() != "identifier" {
			if value != nil {
				w.walkExpr(value, sc)
			}
			continue
		}
		name := nodeText(nameNode, w.content)

		if value != nil {
			switch value.Type() {
			case "arrow_function", "function_expression", "function", "generator_function":
				w.addFunctionDef(decl, name, sc, nil,
					value.ChildByFieldName("parameters"), value.ChildByFieldName("body"))
				continue
			case "call_expression":
				// const db = require("./db") is an import binding.
				if fn := value.ChildByFieldName("function"); fn != nil && nodeText(fn, w.content) == "require" {
					if args := value.ChildByFieldName("arguments"); args != nil {
						if src := firstChildOfType(args, "string"); src != nil {
							w.addImportDef(name, w.resolveModule(trimQuotes(nodeText(src, w.content))), decl, sc)
							continue
						}
					}
				}
			}
		}

		// Only module-scope bindings become definitions; function locals
		// are liveness noise.
		if sc.caller == "" {
			kind := symbols.KindVariable
			if isUpperSnake(name) {
				kind = symbols.KindConstant
			}
			w.col.Definitions = append(w.col.Definitions, &symbols.Definition{
				QualifiedName: w.qualify(sc, name),
				Name:          name,
				Kind:          kind,
				File:          w.file.Path,
				StartLine:     nodeLine(decl),
				EndLine:       nodeEndLine(decl),
				Exported:      sc.exported,
				Language:      w.lang,
				Package:       w.file.ModuleName,
			})
		}
		if value != nil {
			if value.Type() == "string" {
				w.addStringLiteral(value, name)
			} else {
				w.walkExpr(value, sc)
			}
		}
	}
}

func (w *ecmaWalker) walkExpr(node *sitter.Node, sc ecmaScope) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "call_expression", "new_expression":
		w.processCall(node, sc)
	case "member_expression":
		w.processMember(node, sc)
	case "identifier":
		w.processIdentifier(node, sc)
	case "string":
		w.addStringLiteral(node, w.enclosingIdent(node))
	case "template_string":
		w.walkExprChildren(node, sc)
	case "ternary_expression":
		w.countDecision(sc)
		w.walkExprChildren(node, sc)
	case "binary_expression":
		if op := node.ChildByFieldName("operator"); op != nil {
			switch nodeText(op, w.content) {
			case "&&", "||", "??":
				w.countDecision(sc)
			}
		}
		w.walkExprChildren(node, sc)
	case "arrow_function", "function_expression", "function":
		// Anonymous function in expression position: walk the body in the
		// current caller's scope so its calls attribute to the enclosing
		// function (callbacks run when their owner runs).
		if body := node.ChildByFieldName("body"); body != nil {
			w.walkNested(body, sc, false)
		}
	case "statement_block":
		w.walkNested(node, sc, false)
	case "comment":
		// skip
	default:
		w.walkExprChildren(node, sc)
	}
}

func (w *ecmaWalker) walkExprChildren(node *sitter.Node, sc ecmaScope) {
	for i := 0; i < int(node.ChildCount()); i++ {
		w.walkExpr(node.Child(i), sc)
	}
}

func (w *ecmaWalker) processIdentifier(node *sitter.Node, sc ecmaScope) {
	parent := node.Parent()
	if parent != nil {
		switch parent.Type() {
		case "variable_declarator":
			if name := parent.ChildByFieldName("name"); name != nil && name.StartByte() == node.StartByte() {
				return
			}
		case "formal_parameters", "required_parameter", "optional_parameter", "rest_pattern", "assignment_pattern":
			return
		case "member_expression":
			if prop := parent.ChildByFieldName("property"); prop != nil && prop.StartByte() == node.StartByte() {
				return
			}
		case "pair":
			if key := parent.ChildByFieldName("key"); key != nil && key.StartByte() == node.StartByte() {
				return
			}
		}
	}
	name := nodeText(node, w.content)
	if name == "this" || name == "undefined" {
		return
	}
	w.addRef(name, nodeLine(node))
}

func (w *ecmaWalker) processMember(node *sitter.Node, sc ecmaScope) {
	propNode := node.ChildByFieldName("property")
	objNode := node.ChildByFieldName("object")
	if propNode == nil {
		w.walkExprChildren(node, sc)
		return
	}
	prop := nodeText(propNode, w.content)
	line := nodeLine(node)
	w.addRef(prop, line)

	if objNode != nil && objNode.Type() == "identifier" {
		obj := nodeText(objNode, w.content)
		if target, ok := w.col.Imports[obj]; ok {
			w.addRef(target+"."+prop, line)
		}
		w.addRef(obj, line)
		return
	}
	if objNode != nil && objNode.Type() == "this_expression" {
		if len(sc.classes) > 0 {
			w.addRef(w.file.ModuleName+"."+strings.Join(sc.classes, ".")+"."+prop, line)
		}
		return
	}
	w.walkExpr(objNode, sc)
}

func (w *ecmaWalker) processCall(node *sitter.Node, sc ecmaScope) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		fn = node.ChildByFieldName("constructor")
	}
	if fn == nil {
		return
	}
	callee := nodeText(fn, w.content)
	line := nodeLine(node)

	w.walkExpr(fn, sc)

	caller := sc.caller
	if caller == "" {
		caller = w.file.ModuleName
	}
	calleeQualified := callee
	if target, ok := w.col.Imports[callee]; ok {
		calleeQualified = target
	} else if dot := strings.IndexByte(callee, '.'); dot > 0 {
		if target, ok := w.col.Imports[callee[:dot]]; ok {
			calleeQualified = target + "." + callee[dot+1:]
		}
	}
	if calleeQualified != callee {
		w.addRef(calleeQualified, line)
	}
	w.col.CallPairs = append(w.col.CallPairs, &symbols.CallPair{
		CallerQualified: caller,
		CalleeQualified: calleeQualified,
		File:            w.file.Path,
		Line:            line,
	})

	if sc.inMainGuard {
		simple := callee
		if dot := strings.LastIndexByte(simple, '.'); dot >= 0 {
			simple = simple[dot+1:]
		}
		w.col.MainEntryCalls = append(w.col.MainEntryCalls, simple)
		w.col.CallPairs = append(w.col.CallPairs, &symbols.CallPair{
			CallerQualified: heuristics.MainEntryCaller(w.file.ModuleName),
			CalleeQualified: calleeQualified,
			File:            w.file.Path,
			Line:            line,
		})
	}

	site := symbols.CallSite{
		Callee: callee,
		File:   w.file.Path,
		Line:   line,
		Col:    nodeCol(node),
	}
	if args := node.ChildByFieldName("arguments"); args != nil {
		for i := 0; i < int(args.ChildCount()); i++ {
			arg := args.Child(i)
			switch arg.Type() {
			case "(", ")", ",", "comment":
				continue
			}
			site.Args = append(site.Args, w.classifyArg(arg))
			w.walkExpr(arg, sc)
		}
	}
	w.col.CallSites = append(w.col.CallSites, site)
}

func (w *ecmaWalker) classifyArg(arg *sitter.Node) symbols.Arg {
	text := nodeText(arg, w.content)
	switch arg.Type() {
	case "string":
		return symbols.Arg{Kind: symbols.ArgLiteral, Value: trimQuotes(text)}
	case "number", "true", "false", "null", "undefined":
		return symbols.Arg{Kind: symbols.ArgLiteral, Value: text}
	case "template_string", "binary_expression", "call_expression":
		return symbols.Arg{Kind: symbols.ArgTainted, Value: text}
	case "identifier", "member_expression", "subscript_expression":
		return symbols.Arg{Kind: symbols.ArgTainted, Value: text}
	case "object":
		// Object-literal options keep their text so detectors can match
		// fields like rejectUnauthorized: false.
		return symbols.Arg{Kind: symbols.ArgLiteral, Value: strings.ReplaceAll(text, " ", "")}
	default:
		return symbols.Arg{Kind: symbols.ArgUnknown, Value: text}
	}
}

func (w *ecmaWalker) enclosingIdent(node *sitter.Node) string {
	for cur, hops := node.Parent(), 0; cur != nil && hops < 4; cur, hops = cur.Parent(), hops+1 {
		switch cur.Type() {
		case "variable_declarator":
			if name := cur.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
				return nodeText(name, w.content)
			}
		case "pair":
			if key := cur.ChildByFieldName("key"); key != nil {
				return nodeText(key, w.content)
			}
		case "assignment_expression":
			if left := cur.ChildByFieldName("left"); left != nil {
				return nodeText(left, w.content)
			}
		}
	}
	return ""
}

func (w *ecmaWalker) addStringLiteral(node *sitter.Node, enclosing string) {
	w.col.StringLiterals = append(w.col.StringLiterals, symbols.StringLiteral{
		Value:          trimQuotes(nodeText(node, w.content)),
		File:           w.file.Path,
		Line:           nodeLine(node),
		Col:            nodeCol(node),
		EnclosingIdent: enclosing,
	})
}

func (w *ecmaWalker) addRef(name string, line int) {
	if name == "" {
		return
	}
	w.col.References = append(w.col.References, &symbols.Reference{
		Name: name,
		File: w.file.Path,
		Line: line,
	})
}

var _ Collector = (*EcmaCollector)(nil)
