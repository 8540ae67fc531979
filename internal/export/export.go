// Package export writes processed and merged document records to disk.
//
// Records are grouped by the year of the document:
//
//	<dir>/<year>/<stem>.json            processed record {metadata, chunks}
//	<dir>/<year>/processed_<stem>.json  merged record {metadata, merged_chunks, processing_info}
//
// where stem is the source file name without its extension. Records can
// be validated against embedded JSON schemas before they are written.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kanak8278/IBC-RAG/internal/logger"
	"github.com/kanak8278/IBC-RAG/pkg/types"
)

const mergedPrefix = "processed_"

// Writer writes records under a root directory
type Writer struct {
	dir       string
	validator *Validator
}

// NewWriter creates a Writer. A nil validator disables validation.
func NewWriter(dir string, validator *Validator) *Writer {
	return &Writer{dir: dir, validator: validator}
}

// Dir returns the root output directory
func (w *Writer) Dir() string {
	return w.dir
}

// ProcessedPath returns where the processed record of md is written
func (w *Writer) ProcessedPath(md types.DocumentMetadata) string {
	return filepath.Join(w.dir, md.Year(), Stem(md)+".json")
}

// MergedPath returns where the merged record of md is written
func (w *Writer) MergedPath(md types.DocumentMetadata) string {
	return filepath.Join(w.dir, md.Year(), mergedPrefix+Stem(md)+".json")
}

// WriteProcessed writes a processed record and returns its path
func (w *Writer) WriteProcessed(doc *types.ProcessedDocument) (string, error) {
	path := w.ProcessedPath(doc.Metadata)
	return path, w.write(KindProcessed, path, doc)
}

// WriteMerged writes a merged record and returns its path
func (w *Writer) WriteMerged(doc *types.MergedDocument) (string, error) {
	path := w.MergedPath(doc.Metadata)
	return path, w.write(KindMerged, path, doc)
}

func (w *Writer) write(kind, path string, record any) error {
	data, err := Encode(record)
	if err != nil {
		return err
	}

	if w.validator != nil {
		if err := w.validator.Validate(kind, data); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	logger.Debug("wrote %s record %s", kind, path)
	return nil
}

// Encode renders a record as indented JSON without HTML escaping
func Encode(record any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadProcessed loads a processed record
func ReadProcessed(path string) (*types.ProcessedDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	var doc types.ProcessedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return &doc, nil
}

// Stem names the record files of a document. Documents without a file
// name use a prefix of their content hash.
func Stem(md types.DocumentMetadata) string {
	name := md.FileName
	if name == "" {
		if len(md.DocumentHash) >= 12 {
			return md.DocumentHash[:12]
		}
		return "document"
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// IsMergedRecord reports whether path names a merged record
func IsMergedRecord(path string) bool {
	return strings.HasPrefix(filepath.Base(path), mergedPrefix)
}
