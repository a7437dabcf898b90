package imports

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const existingPage = `'use client'
import React, { useState } from 'react';
import Header from './Header';

export default function Home() {
  return <Header />;
}`

func TestReconcile_KeepsDirectiveAndMergesImports(t *testing.T) {
	snippet := `import { useEffect, useState } from 'react';
import axios from 'axios';

export default function Home() {
  // ...
}`

	h, err := New(Options{}).Reconcile(context.Background(), existingPage, snippet, "app/page.jsx")
	require.NoError(t, err)

	assert.Equal(t, "'use client'\n\n"+
		"import { useEffect, useState } from 'react';\n"+
		"import axios from 'axios';\n"+
		"import Header from './Header';", h.Prefix)
	assert.Equal(t, "export default function Home() {\n  return <Header />;\n}", h.ExistingBody)
	assert.Equal(t, "export default function Home() {\n  // ...\n}", h.SnippetBody)
}

func TestReconcile_SnippetDirectiveWins(t *testing.T) {
	snippet := "'use server';\nexport async function save() {}"

	h, err := New(Options{}).Reconcile(context.Background(), existingPage, snippet, "app/page.jsx")
	require.NoError(t, err)
	assert.Equal(t, "'use server';\n\nimport React, { useState } from 'react';\nimport Header from './Header';", h.Prefix)
	assert.Equal(t, "export async function save() {}", h.SnippetBody)
}

func TestReconcile_NoHeader(t *testing.T) {
	h, err := New(Options{}).Reconcile(context.Background(), "const a = 1;", "const a = 2;", "a.js")
	require.NoError(t, err)
	assert.Empty(t, h.Prefix)
	assert.Equal(t, "const a = 1;", h.ExistingBody)
	assert.Equal(t, "const a = 2;", h.SnippetBody)
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("export default {}\n"), 0o644))
}

func TestReconcile_CorrectsPaths(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "app", "page.jsx"))
	writeFile(t, filepath.Join(root, "components", "Button.jsx"))
	writeFile(t, filepath.Join(root, "node_modules", "Card", "Card.js"))
	writeFile(t, filepath.Join(root, "components", "Card.jsx"))

	existing := "import Header from './Header';\nconst x = 1;"
	snippet := "import Button from './Button';\nimport Card from '../components/Card';\nconst x = 2;"

	r := New(Options{CorrectPaths: true, ProjectRoot: root})
	h, err := r.Reconcile(context.Background(), existing, snippet, "app/page.jsx")
	require.NoError(t, err)

	assert.Contains(t, h.Prefix, "import Button from '../components/Button';")
	assert.Contains(t, h.Prefix, "import Card from '../components/Card';")
	// Unresolvable with no candidate: left alone.
	assert.Contains(t, h.Prefix, "import Header from './Header';")
}

func TestFindModule_Ambiguous(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "Util.js"))
	writeFile(t, filepath.Join(root, "b", "Util.ts"))

	_, err := New(Options{ProjectRoot: root}).findModule("Util")
	assert.ErrorIs(t, err, errAmbiguous)
}
