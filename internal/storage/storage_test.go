package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s := New(dir)

	name, err := s.Save("Quarterly Deck.PPTX", strings.NewReader("payload"))
	require.NoError(t, err)

	assert.Equal(t, ".pptx", filepath.Ext(name))
	_, err = uuid.Parse(strings.TrimSuffix(name, ".pptx"))
	assert.NoError(t, err, "name should start with a UUID")

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestStore_SaveUniqueNames(t *testing.T) {
	s := New(t.TempDir())

	a, err := s.Save("a.pdf", strings.NewReader("1"))
	require.NoError(t, err)
	b, err := s.Save("a.pdf", strings.NewReader("2"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestStore_SaveRejectsExtension(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	for _, name := range []string{"virus.exe", "notes.txt", "noext", "deck.pptx.sh"} {
		_, err := s.Save(name, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrUnsupportedType, name)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_SaveCleansUpOnReadError(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	_, err := s.Save("deck.pptx", failingReader{})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestStore_PathAndReadFile(t *testing.T) {
	s := New(t.TempDir())
	name, err := s.Save("book.xlsx", strings.NewReader("cells"))
	require.NoError(t, err)

	path, err := s.Path(name)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), name), path)

	data, err := s.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "cells", string(data))
}

func TestStore_PathNotFound(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.Path(uuid.NewString() + ".pptx")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidateName(t *testing.T) {
	id := uuid.NewString()

	valid := []string{id + ".pptx", id + ".pdf", id + ".ppt", id + ".xlsx"}
	for _, name := range valid {
		assert.NoError(t, ValidateName(name), name)
	}

	invalid := []string{
		"",
		"../../etc/passwd",
		"../" + id + ".pptx",
		"sub/" + id + ".pptx",
		id + ".PPTX",
		id + ".exe",
		id,
		"deck.pptx",
		strings.ToUpper(id) + ".pptx",
	}
	for _, name := range invalid {
		assert.ErrorIs(t, ValidateName(name), ErrInvalidName, name)
	}
}
