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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/skylos-dev/skylos/internal/heuristics"
	"github.com/skylos-dev/skylos/internal/symbols"
)

// PythonCollector walks Python sources with the tree-sitter Python grammar.
// Each Collect call builds its own tree-sitter parser, so a single
// PythonCollector is safe for concurrent use across worker goroutines.
type PythonCollector struct{}

// NewPythonCollector returns a Python collector.
func NewPythonCollector() *PythonCollector { return &PythonCollector{} }

// Language implements Collector.
func (c *PythonCollector) Language() symbols.Language { return symbols.LanguagePython }

// Collect implements Collector for Python source files.
func (c *PythonCollector) Collect(ctx context.Context, file *symbols.File, content []byte) (*Collection, error) {
	tree, err := parseTree(ctx, python.GetLanguage(), content)
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

	w := &pyWalker{file: file, content: content, col: col}
	w.walkBlock(root, pyScope{})
	return col, nil
}

// pyScope carries the lexical context of the walk: the enclosing class
// chain, the qualified name of the enclosing function (the CallPair caller),
// and whether we are inside the module's main guard.
type pyScope struct {
	classes     []string
	caller      string
	inMainGuard bool
	metrics     *symbols.FunctionMetrics
	loopVars    []string
	depth       int
}

// classQualified returns module.Class[.Inner] for the current class stack,
// or "" at module scope.
func (s pyScope) classQualified(module string) string {
	if len(s.classes) == 0 {
		return ""
	}
	return module + "." + strings.Join(s.classes, ".")
}

type pyWalker struct {
	file    *symbols.File
	content []byte
	col     *Collection
}

// qualify builds module.[Class.]name for a new definition in scope sc.
func (w *pyWalker) qualify(sc pyScope, name string) string {
	if q := sc.classQualified(w.file.ModuleName); q != "" {
		return q + "." + name
	}
	return w.file.ModuleName + "." + name
}

// walkBlock visits the direct children of a block-like node, dispatching
// statements. Expression-level traversal happens in walkExpr.
func (w *pyWalker) walkBlock(node *sitter.Node, sc pyScope) {
	for i := 0; i < int(node.ChildCount()); i++ {
		w.walkStatement(node.Child(i), sc)
	}
}

func (w *pyWalker) walkStatement(node *sitter.Node, sc pyScope) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "decorated_definition":
		w.processDecorated(node, sc)
	case "class_definition":
		w.processClass(node, sc, nil)
	case "function_definition":
		w.processFunction(node, sc, nil)
	case "import_statement":
		w.processImport(node, sc)
	case "import_from_statement":
		w.processImportFrom(node, sc)
	case "if_statement":
		w.processIf(node, sc)
	case "for_statement":
		w.processFor(node, sc)
	case "while_statement":
		w.countDecision(sc)
		w.walkNested(node, sc, true)
	case "try_statement", "with_statement", "match_statement":
		w.walkNested(node, sc, true)
	case "except_clause":
		w.countDecision(sc)
		w.recordBareExcept(node, sc)
		w.walkNested(node, sc, false)
	case "expression_statement":
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child.Type() == "assignment" || child.Type() == "augmented_assignment" {
				w.processAssignment(child, sc)
			} else {
				w.walkExpr(child, sc)
			}
		}
	case "return_statement", "raise_statement", "delete_statement",
		"assert_statement", "print_statement", "global_statement", "yield":
		w.walkExprChildren(node, sc)
	case "block", "elif_clause", "else_clause", "finally_clause", "case_clause":
		if node.Type() == "elif_clause" || node.Type() == "case_clause" {
			w.countDecision(sc)
		}
		w.walkBlock(node, sc)
	case "comment", "pass_statement", "break_statement", "continue_statement":
		// nothing to collect
	default:
		// Statements not modeled above still contribute expression-level
		// references (calls, attributes, names).
		w.walkExpr(node, sc)
	}
}

// walkNested descends into a compound statement, bumping the nesting depth
// when the construct introduces a level.
func (w *pyWalker) walkNested(node *sitter.Node, sc pyScope, nests bool) {
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
		case "block", "elif_clause", "else_clause", "except_clause", "finally_clause", "case_clause":
			w.walkStatement(child, inner)
		default:
			w.walkExpr(child, inner)
		}
	}
}

func (w *pyWalker) countDecision(sc pyScope) {
	if sc.metrics != nil {
		sc.metrics.DecisionPoints++
	}
}

// processIf handles both the main-guard entry point and
// ordinary conditional nesting.
func (w *pyWalker) processIf(node *sitter.Node, sc pyScope) {
	w.countDecision(sc)

	cond := node.ChildByFieldName("condition")
	atModuleScope := sc.caller == "" && len(sc.classes) == 0
	if atModuleScope && cond != nil && isMainGuardCondition(nodeText(cond, w.content)) {
		guarded := sc
		guarded.inMainGuard = true
		w.walkNested(node, guarded, false)
		return
	}
	w.walkNested(node, sc, true)
}

// isMainGuardCondition matches `__name__ == "__main__"` in either argument
// order and either quote style.
func isMainGuardCondition(cond string) bool {
	return strings.Contains(cond, "__name__") && strings.Contains(cond, "__main__")
}

func (w *pyWalker) processFor(node *sitter.Node, sc pyScope) {
	w.countDecision(sc)

	loopVar := ""
	if left := node.ChildByFieldName("left"); left != nil && left.Type() == "identifier" {
		loopVar = nodeText(left, w.content)
	}

	// O(N^2) heuristic: an inner loop whose body mentions both its own and
	// the enclosing loop's variable.
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

// containsWord reports whether word occurs in text with non-identifier
// characters (or boundaries) on both sides.
func containsWord(text, word string) bool {
	for start := 0; ; {
		i := strings.Index(text[start:], word)
		if i < 0 {
			return false
		}
		i += start
		before := i == 0 || !isIdentByte(text[i-1])
		afterIdx := i + len(word)
		after := afterIdx >= len(text) || !isIdentByte(text[afterIdx])
		if before && after {
			return true
		}
		start = i + len(word)
	}
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (w *pyWalker) recordBareExcept(node *sitter.Node, sc pyScope) {
	if sc.metrics == nil {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		switch node.Child(i).Type() {
		case "identifier", "attribute", "tuple", "as_pattern":
			return // typed except
		}
	}
	sc.metrics.BareExceptLines = append(sc.metrics.BareExceptLines, nodeLine(node))
}

// processDecorated extracts the decorator list, records each decorator as a
// reference to the decorator symbol, and dispatches to the wrapped
// definition with the decorators attached.
func (w *pyWalker) processDecorated(node *sitter.Node, sc pyScope) {
	var decorators []string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "decorator":
			if name := w.decoratorName(child); name != "" {
				decorators = append(decorators, name)
				w.addRef(name, nodeLine(child))
			}
		case "class_definition":
			w.processClass(child, sc, decorators)
		case "function_definition":
			w.processFunction(child, sc, decorators)
		}
	}
}

// decoratorName returns the dotted name of a decorator, unwrapping a
// call-style decorator (`@app.route("/x")` -> "app.route").
func (w *pyWalker) decoratorName(node *sitter.Node) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier", "attribute":
			return nodeText(child, w.content)
		case "call":
			if fn := child.ChildByFieldName("function"); fn != nil {
				return nodeText(fn, w.content)
			}
		}
	}
	return ""
}

func (w *pyWalker) processClass(node *sitter.Node, sc pyScope, decorators []string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(nameNode, w.content)
	qualified := w.qualify(sc, name)

	w.col.Definitions = append(w.col.Definitions, &symbols.Definition{
		QualifiedName: qualified,
		Name:          name,
		Kind:          symbols.KindClass,
		File:          w.file.Path,
		StartLine:     nodeLine(node),
		EndLine:       nodeEndLine(node),
		Decorators:    decorators,
		Language:      symbols.LanguagePython,
		Package:       w.file.ModuleName,
	})

	// Base classes are references.
	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		w.walkExpr(supers, sc)
	}

	inner := sc
	inner.classes = append(append([]string{}, sc.classes...), name)
	if body := node.ChildByFieldName("body"); body != nil {
		w.walkBlock(body, inner)
	}
}

func (w *pyWalker) processFunction(node *sitter.Node, sc pyScope, decorators []string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(nameNode, w.content)
	qualified := w.qualify(sc, name)

	kind := symbols.KindFunction
	receiver := ""
	if len(sc.classes) > 0 {
		kind = symbols.KindMethod
		receiver = sc.classes[len(sc.classes)-1]
	}

	def := &symbols.Definition{
		QualifiedName: qualified,
		Name:          name,
		Kind:          kind,
		File:          w.file.Path,
		StartLine:     nodeLine(node),
		EndLine:       nodeEndLine(node),
		Receiver:      receiver,
		Decorators:    decorators,
		Language:      symbols.LanguagePython,
		Package:       w.file.ModuleName,
	}
	w.col.Definitions = append(w.col.Definitions, def)

	metrics := symbols.FunctionMetrics{
		QualifiedName: qualified,
		File:          w.file.Path,
		StartLine:     nodeLine(node),
		EndLine:       nodeEndLine(node),
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		w.countParams(params, &metrics, sc)
	}

	inner := sc
	inner.caller = qualified
	inner.metrics = &metrics
	inner.inMainGuard = false
	inner.depth = 0
	inner.loopVars = nil
	if body := node.ChildByFieldName("body"); body != nil {
		w.walkBlock(body, inner)
	}
	w.col.Metrics = append(w.col.Metrics, metrics)
}

// countParams fills the parameter-count and mutable-default fields of
// metrics. self/cls receivers are not counted against the argument budget.
func (w *pyWalker) countParams(params *sitter.Node, metrics *symbols.FunctionMetrics, sc pyScope) {
	for i := 0; i < int(params.ChildCount()); i++ {
		child := params.Child(i)
		switch child.Type() {
		case "identifier":
			name := nodeText(child, w.content)
			if name == "self" || name == "cls" {
				continue
			}
			metrics.RequiredParamCount++
			metrics.TotalParamCount++
		case "typed_parameter":
			metrics.RequiredParamCount++
			metrics.TotalParamCount++
		case "default_parameter", "typed_default_parameter":
			metrics.TotalParamCount++
			if value := child.ChildByFieldName("value"); value != nil {
				switch value.Type() {
				case "list", "dictionary", "set":
					metrics.MutableDefaultLines = append(metrics.MutableDefaultLines, nodeLine(child))
				}
				w.walkExpr(value, sc)
			}
		case "list_splat_pattern", "dictionary_splat_pattern":
			metrics.TotalParamCount++
		}
	}
}

// processImport handles `import X [as Y]` statements.
func (w *pyWalker) processImport(node *sitter.Node, sc pyScope) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "dotted_name":
			path := nodeText(child, w.content)
			local := strings.SplitN(path, ".", 2)[0]
			w.addImportDef(local, local, node, sc, false)
		case "aliased_import":
			path, alias := w.aliasedImportParts(child)
			if path != "" && alias != "" {
				w.addImportDef(alias, path, node, sc, false)
			}
		}
	}
}

// processImportFrom handles `from M import Y [as Z]` including relative
// modules and same-name aliased re-exports.
func (w *pyWalker) processImportFrom(node *sitter.Node, sc pyScope) {
	module := ""
	sawImport := false
	type namePair struct {
		name, alias string
		explicit    bool // an `as` clause was present
	}
	var names []namePair

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "import":
			sawImport = true
		case "relative_import":
			module = w.resolveRelativeModule(nodeText(child, w.content))
		case "dotted_name":
			if !sawImport {
				module = nodeText(child, w.content)
			} else {
				names = append(names, namePair{name: nodeText(child, w.content)})
			}
		case "identifier":
			if sawImport {
				names = append(names, namePair{name: nodeText(child, w.content)})
			}
		case "aliased_import":
			name, alias := w.aliasedImportParts(child)
			if name != "" {
				names = append(names, namePair{name: name, alias: alias, explicit: true})
			}
		case "wildcard_import":
			// `from M import *` binds nothing resolvable; the resolver's
			// conservative simple-name fallback covers its targets.
		}
	}
	if module == "" {
		return
	}
	for _, n := range names {
		local := n.alias
		if local == "" {
			local = n.name
		}
		// `from .sub import X as X` is the conventional explicit re-export.
		reExport := n.explicit && n.alias == n.name
		w.addImportDef(local, module+"."+n.name, node, sc, reExport)
	}
}

func (w *pyWalker) aliasedImportParts(node *sitter.Node) (path, alias string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "dotted_name":
			if path == "" {
				path = nodeText(child, w.content)
			}
		case "identifier":
			if path == "" {
				path = nodeText(child, w.content)
			} else {
				alias = nodeText(child, w.content)
			}
		}
	}
	return path, alias
}

// resolveRelativeModule turns ".sub" / "..pkg.mod" into an absolute dotted
// module path relative to the current file's module.
func (w *pyWalker) resolveRelativeModule(rel string) string {
	dots := 0
	for dots < len(rel) && rel[dots] == '.' {
		dots++
	}
	rest := rel[dots:]

	// For a package __init__ the module name IS the package, so one dot
	// refers to the module itself; for a plain module one dot refers to the
	// containing package.
	parts := strings.Split(w.file.ModuleName, ".")
	drop := dots
	if strings.HasSuffix(w.file.Path, "__init__.py") || strings.HasSuffix(w.file.Path, "__init__.pyi") {
		drop = dots - 1
	}
	if drop > len(parts) {
		drop = len(parts)
	}
	base := parts[:len(parts)-drop]
	if rest == "" {
		return strings.Join(base, ".")
	}
	if len(base) == 0 {
		return rest
	}
	return strings.Join(base, ".") + "." + rest
}

// addImportDef records an import binding: a Definition of kind import plus
// the file's ImportMap entry.
func (w *pyWalker) addImportDef(local, target string, node *sitter.Node, sc pyScope, reExport bool) {
	w.col.Imports[local] = target
	w.col.Definitions = append(w.col.Definitions, &symbols.Definition{
		QualifiedName: w.qualify(sc, local),
		Name:          local,
		Kind:          symbols.KindImport,
		File:          w.file.Path,
		StartLine:     nodeLine(node),
		EndLine:       nodeEndLine(node),
		Exported:      reExport,
		Language:      symbols.LanguagePython,
		Package:       w.file.ModuleName,
	})
	if reExport {
		w.col.Exports = append(w.col.Exports, local)
		// The re-exported target stays live in its defining module.
		w.addRef(target, nodeLine(node))
	}
}

// processAssignment records module/class-scope assignment targets as
// variable/constant definitions, handles __all__, and walks the right side
// for references.
func (w *pyWalker) processAssignment(node *sitter.Node, sc pyScope) {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")

	if left != nil && left.Type() == "identifier" {
		name := nodeText(left, w.content)
		if name == "__all__" {
			w.collectAllExports(right)
		} else if sc.caller == "" {
			kind := symbols.KindVariable
			if isUpperSnake(name) {
				kind = symbols.KindConstant
			}
			w.col.Definitions = append(w.col.Definitions, &symbols.Definition{
				QualifiedName: w.qualify(sc, name),
				Name:          name,
				Kind:          kind,
				File:          w.file.Path,
				StartLine:     nodeLine(node),
				EndLine:       nodeEndLine(node),
				Language:      symbols.LanguagePython,
				Package:       w.file.ModuleName,
			})
		}
	} else if left != nil {
		w.walkExpr(left, sc)
	}
	if right != nil {
		// Record the string literal with its assignment target so the
		// secrets detector can apply its identifier-scope check.
		if right.Type() == "string" && left != nil && left.Type() == "identifier" {
			w.addStringLiteral(right, nodeText(left, w.content))
			return
		}
		w.walkExpr(right, sc)
	}
}

// collectAllExports records every string inside an __all__ list/tuple as an
// exported-name hint and a dynamic-access name.
func (w *pyWalker) collectAllExports(node *sitter.Node) {
	if node == nil {
		return
	}
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n.Type() == "string" {
			name := trimQuotes(nodeText(n, w.content))
			w.col.Exports = append(w.col.Exports, name)
			w.col.DynamicNames = append(w.col.DynamicNames, name)
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	visit(node)
}

// isUpperSnake reports whether name looks like a module constant.
func isUpperSnake(name string) bool {
	hasLetter := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'A' && c <= 'Z':
			hasLetter = true
		case c >= 'a' && c <= 'z':
			return false
		}
	}
	return hasLetter
}

// walkExpr traverses an expression subtree, recording references, calls,
// attributes, string literals, and logic-rule facts.
func (w *pyWalker) walkExpr(node *sitter.Node, sc pyScope) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "call":
		w.processCall(node, sc)
	case "attribute":
		w.processAttribute(node, sc)
	case "identifier":
		w.processIdentifier(node, sc)
	case "string":
		w.addStringLiteral(node, w.enclosingIdent(node))
	case "comparison_operator":
		w.recordSingletonCompare(node, sc)
		w.walkExprChildren(node, sc)
	case "boolean_operator", "conditional_expression":
		w.countDecision(sc)
		w.walkExprChildren(node, sc)
	case "lambda":
		if body := node.ChildByFieldName("body"); body != nil {
			w.walkExpr(body, sc)
		}
	case "comment":
		// skip
	default:
		w.walkExprChildren(node, sc)
	}
}

func (w *pyWalker) walkExprChildren(node *sitter.Node, sc pyScope) {
	for i := 0; i < int(node.ChildCount()); i++ {
		w.walkExpr(node.Child(i), sc)
	}
}

// processIdentifier records a bare-name reference unless the identifier is
// a binding position handled elsewhere (parameter, keyword name, the
// attribute field of obj.attr).
func (w *pyWalker) processIdentifier(node *sitter.Node, sc pyScope) {
	parent := node.Parent()
	if parent != nil {
		switch parent.Type() {
		case "keyword_argument":
			if eq := parent.ChildByFieldName("name"); eq != nil && eq.StartByte() == node.StartByte() {
				return
			}
		case "attribute":
			if attr := parent.ChildByFieldName("attribute"); attr != nil && attr.StartByte() == node.StartByte() {
				return
			}
		case "parameters", "default_parameter", "typed_parameter", "typed_default_parameter":
			return
		}
	}
	name := nodeText(node, w.content)
	if name == "self" || name == "cls" {
		return
	}
	w.addRef(name, nodeLine(node))
}

// processAttribute records attribute-load references: the bare attribute
// name always; module.attr when the object is an imported alias;
// EnclosingClass.attr when the object is self/cls.
func (w *pyWalker) processAttribute(node *sitter.Node, sc pyScope) {
	attrNode := node.ChildByFieldName("attribute")
	objNode := node.ChildByFieldName("object")
	if attrNode == nil {
		w.walkExprChildren(node, sc)
		return
	}
	attr := nodeText(attrNode, w.content)
	line := nodeLine(node)
	w.addRef(attr, line)

	if objNode != nil && objNode.Type() == "identifier" {
		obj := nodeText(objNode, w.content)
		switch {
		case obj == "self" || obj == "cls":
			if q := sc.classQualified(w.file.ModuleName); q != "" {
				w.addRef(q+"."+attr, line)
			}
		default:
			if target, ok := w.col.Imports[obj]; ok {
				w.addRef(target+"."+attr, line)
			}
			w.addRef(obj, line)
		}
		return
	}
	w.walkExpr(objNode, sc)
}

// processCall records the Reference/CallPair for the callee, the CallSite
// for the rule detectors, dynamic-access names, and main-guard synthetic
// entry calls.
func (w *pyWalker) processCall(node *sitter.Node, sc pyScope) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return
	}
	callee := nodeText(fn, w.content)
	line := nodeLine(node)

	// Walk the callee expression itself so attribute/identifier references
	// are recorded with their alias rewrites.
	w.walkExpr(fn, sc)

	caller := sc.caller
	if caller == "" {
		caller = w.file.ModuleName
	}
	calleeQualified := callee
	if target, ok := w.rewriteCalleeViaImports(callee); ok {
		calleeQualified = target
		w.addRef(target, line)
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

	args := node.ChildByFieldName("arguments")
	site := symbols.CallSite{
		Callee: callee,
		File:   w.file.Path,
		Line:   line,
		Col:    nodeCol(node),
	}
	if args != nil {
		for i := 0; i < int(args.ChildCount()); i++ {
			arg := args.Child(i)
			switch arg.Type() {
			case "(", ")", ",", "comment":
				continue
			}
			site.Args = append(site.Args, w.classifyArg(arg))
			w.collectDynamicName(callee, arg)
			w.walkExpr(arg, sc)
		}
	}
	w.col.CallSites = append(w.col.CallSites, site)
}

// rewriteCalleeViaImports maps "alias.rest" or a bare alias through the
// file's import map so cross-module CallPairs carry resolvable names.
func (w *pyWalker) rewriteCalleeViaImports(callee string) (string, bool) {
	if target, ok := w.col.Imports[callee]; ok {
		return target, true
	}
	if dot := strings.IndexByte(callee, '.'); dot > 0 {
		if target, ok := w.col.Imports[callee[:dot]]; ok {
			return target + "." + callee[dot+1:], true
		}
	}
	return "", false
}

// classifyArg implements taint-lite: a plain string
// literal is safe; concatenation, formatting, f-strings, and variables are
// tainted.
func (w *pyWalker) classifyArg(arg *sitter.Node) symbols.Arg {
	text := nodeText(arg, w.content)
	switch arg.Type() {
	case "string":
		if strings.HasPrefix(text, "f\"") || strings.HasPrefix(text, "f'") {
			return symbols.Arg{Kind: symbols.ArgTainted, Value: text}
		}
		return symbols.Arg{Kind: symbols.ArgLiteral, Value: trimQuotes(text)}
	case "integer", "float", "true", "false", "none":
		return symbols.Arg{Kind: symbols.ArgLiteral, Value: text}
	case "keyword_argument":
		// Keyword arguments keep their textual form so detectors can match
		// flags like verify=False or chunksize=....
		return symbols.Arg{Kind: symbols.ArgLiteral, Value: strings.ReplaceAll(text, " ", "")}
	case "binary_operator", "concatenated_string", "call":
		return symbols.Arg{Kind: symbols.ArgTainted, Value: text}
	case "identifier", "attribute", "subscript":
		return symbols.Arg{Kind: symbols.ArgTainted, Value: text}
	default:
		return symbols.Arg{Kind: symbols.ArgUnknown, Value: text}
	}
}

// collectDynamicName captures getattr/globals string arguments as
// dynamic-access names.
func (w *pyWalker) collectDynamicName(callee string, arg *sitter.Node) {
	if arg.Type() != "string" {
		return
	}
	simple := callee
	if dot := strings.LastIndexByte(simple, '.'); dot >= 0 {
		simple = simple[dot+1:]
	}
	switch simple {
	case "getattr", "hasattr", "globals", "vars", "__getattr__":
		w.col.DynamicNames = append(w.col.DynamicNames, trimQuotes(nodeText(arg, w.content)))
	}
}

// recordSingletonCompare flags == / != against None, True, False (SKY-L003).
func (w *pyWalker) recordSingletonCompare(node *sitter.Node, sc pyScope) {
	if sc.metrics == nil {
		return
	}
	hasEq, hasSingleton := false, false
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "==", "!=":
			hasEq = true
		case "none", "true", "false":
			hasSingleton = true
		}
	}
	if hasEq && hasSingleton {
		sc.metrics.SingletonEqualsLines = append(sc.metrics.SingletonEqualsLines, nodeLine(node))
	}
}

// enclosingIdent walks up a few parents to find the identifier a string
// literal is bound to: an assignment target or a keyword-argument name.
func (w *pyWalker) enclosingIdent(node *sitter.Node) string {
	for cur, hops := node.Parent(), 0; cur != nil && hops < 4; cur, hops = cur.Parent(), hops+1 {
		switch cur.Type() {
		case "assignment":
			if left := cur.ChildByFieldName("left"); left != nil && left.Type() == "identifier" {
				return nodeText(left, w.content)
			}
		case "keyword_argument":
			if name := cur.ChildByFieldName("name"); name != nil {
				return nodeText(name, w.content)
			}
		}
	}
	return ""
}

func (w *pyWalker) addStringLiteral(node *sitter.Node, enclosing string) {
	w.col.StringLiterals = append(w.col.StringLiterals, symbols.StringLiteral{
		Value:          trimQuotes(nodeText(node, w.content)),
		File:           w.file.Path,
		Line:           nodeLine(node),
		Col:            nodeCol(node),
		EnclosingIdent: enclosing,
	})
}

func (w *pyWalker) addRef(name string, line int) {
	if name == "" {
		return
	}
	w.col.References = append(w.col.References, &symbols.Reference{
		Name: name,
		File: w.file.Path,
		Line: line,
	})
}

// trimQuotes strips matching single, double, or triple quote pairs plus
// string prefixes (r, b, f, u) from a raw string token.
func trimQuotes(raw string) string {
	for len(raw) > 0 {
		switch raw[0] {
		case 'r', 'b', 'f', 'u', 'R', 'B', 'F', 'U':
			raw = raw[1:]
			continue
		}
		break
	}
	return strings.Trim(raw, `"'`)
}

var _ Collector = (*PythonCollector)(nil)
