// Package model defines the core domain models used throughout the application.
package model

import (
	"os"
	"path/filepath"
)

// Document is a source file handed to the importer.
// Two documents are the same document when their cleaned paths match.
type Document struct {
	Path string
}

// NewDocument creates a document for the given path.
func NewDocument(path string) Document {
	return Document{Path: filepath.Clean(path)}
}

// Name returns the base name of the document, for display.
func (d Document) Name() string {
	return filepath.Base(d.Path)
}

// Ext returns the file extension including the dot.
func (d Document) Ext() string {
	return filepath.Ext(d.Path)
}

// Open opens the underlying file for reading.
func (d Document) Open() (*os.File, error) {
	return os.Open(d.Path)
}
