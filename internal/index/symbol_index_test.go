// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylos-dev/skylos/internal/symbols"
)

func def(name, file string, line int, kind symbols.Kind) *symbols.Definition {
	return &symbols.Definition{
		QualifiedName: file + "." + name,
		Name:          name,
		Kind:          kind,
		File:          file,
		StartLine:     line,
		EndLine:       line + 3,
	}
}

func TestAddAndGet(t *testing.T) {
	idx := NewSymbolIndex()
	d := def("Foo", "pkg/a.py", 1, symbols.KindFunction)
	require.NoError(t, idx.Add(d))

	got, ok := idx.GetByQualifiedName(d.QualifiedName)
	require.True(t, ok)
	assert.Same(t, d, got)

	_, ok = idx.GetByQualifiedName("pkg/a.py.Missing")
	assert.False(t, ok)

	assert.Len(t, idx.GetByName("Foo"), 1)
	assert.Len(t, idx.GetByFile("pkg/a.py"), 1)
	assert.Len(t, idx.GetByKind(symbols.KindFunction), 1)
}

func TestGetByQualifiedNameFirstAddedWins(t *testing.T) {
	idx := NewSymbolIndex()
	first := &symbols.Definition{QualifiedName: "pkg.X", Name: "X", Kind: symbols.KindImport, File: "pkg/__init__.py", StartLine: 1}
	second := &symbols.Definition{QualifiedName: "pkg.X", Name: "X", Kind: symbols.KindClass, File: "pkg/x.py", StartLine: 3}
	require.NoError(t, idx.Add(first))
	require.NoError(t, idx.Add(second))

	got, ok := idx.GetByQualifiedName("pkg.X")
	require.True(t, ok)
	assert.Same(t, first, got)
}

func TestAddRejectsDuplicate(t *testing.T) {
	idx := NewSymbolIndex()
	d := def("Foo", "pkg/a.py", 1, symbols.KindFunction)
	require.NoError(t, idx.Add(d))
	err := idx.Add(d)
	require.Error(t, err)
	assert.ErrorIs(t, err, symbols.ErrDuplicateSymbol)
}

func TestAddRejectsInvalid(t *testing.T) {
	idx := NewSymbolIndex()
	err := idx.Add(&symbols.Definition{})
	require.Error(t, err)
	assert.ErrorIs(t, err, symbols.ErrInvalidDefinition)
}

func TestAddRejectsOverCapacity(t *testing.T) {
	idx := NewSymbolIndex(WithMaxSymbols(1))
	require.NoError(t, idx.Add(def("Foo", "a.py", 1, symbols.KindFunction)))
	err := idx.Add(def("Bar", "a.py", 2, symbols.KindFunction))
	assert.ErrorIs(t, err, symbols.ErrMaxSymbolsExceeded)
}

func TestAddBatchAllOrNothing(t *testing.T) {
	idx := NewSymbolIndex()
	defs := []*symbols.Definition{
		def("Foo", "a.py", 1, symbols.KindFunction),
		{}, // invalid
	}
	err := idx.AddBatch(defs)
	require.Error(t, err)
	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 0, idx.Stats().TotalSymbols)
}

func TestAddBatchSucceeds(t *testing.T) {
	idx := NewSymbolIndex()
	defs := []*symbols.Definition{
		def("Foo", "a.py", 1, symbols.KindFunction),
		def("Bar", "a.py", 5, symbols.KindFunction),
	}
	require.NoError(t, idx.AddBatch(defs))
	assert.Equal(t, 2, idx.Stats().TotalSymbols)
}

func TestSearchRanksByMatchQuality(t *testing.T) {
	idx := NewSymbolIndex()
	require.NoError(t, idx.AddBatch([]*symbols.Definition{
		def("Process", "a.py", 1, symbols.KindFunction),
		def("ProcessData", "a.py", 10, symbols.KindFunction),
		def("UnrelatedThing", "a.py", 20, symbols.KindFunction),
	}))

	results, err := idx.Search(context.Background(), "Process", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Process", results[0].Name)
	assert.Equal(t, "ProcessData", results[1].Name)
}

func TestSearchEmptyQuery(t *testing.T) {
	idx := NewSymbolIndex()
	require.NoError(t, idx.Add(def("Foo", "a.py", 1, symbols.KindFunction)))
	results, err := idx.Search(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestSearchRespectsCancelledContext(t *testing.T) {
	idx := NewSymbolIndex()
	require.NoError(t, idx.Add(def("Foo", "a.py", 1, symbols.KindFunction)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := idx.Search(ctx, "Foo", 0)
	require.Error(t, err)
}

func TestStats(t *testing.T) {
	idx := NewSymbolIndex()
	require.NoError(t, idx.AddBatch([]*symbols.Definition{
		def("Foo", "a.py", 1, symbols.KindFunction),
		def("Bar", "a.py", 5, symbols.KindClass),
	}))
	stats := idx.Stats()
	assert.Equal(t, 2, stats.TotalSymbols)
	assert.Equal(t, 1, stats.ByKind[symbols.KindFunction])
	assert.Equal(t, 1, stats.ByKind[symbols.KindClass])
	assert.Equal(t, 1, stats.FileCount)
}
