package sitegen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// generatedHeader opens every generated data module.
const generatedHeader = "// This file is auto-generated by sitegen\n" +
	"// Do not edit manually - run: sitegen generate\n\n"

// RenderModule renders v as a JavaScript module assigning a JSON literal to
// binding. Output is byte-identical for equal input: key order comes from
// struct field order and HTML characters are not escaped.
func RenderModule(binding string, v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(generatedHeader)
	fmt.Fprintf(&buf, "const %s = ", binding)

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", binding, err)
	}

	// Encode terminates the value with a newline
	buf.Truncate(buf.Len() - 1)
	buf.WriteString(";\n")
	return buf.Bytes(), nil
}

// WriteModule writes a rendered module to path, creating parent directories.
// It reports whether the file content changed.
func WriteModule(path string, content []byte, logger *slog.Logger) (bool, error) {
	changed, err := writeFileIfChanged(path, content, logger)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrSerializationWriteFailure, path, err)
	}
	return changed, nil
}

// writeFileIfChanged writes content to a file only if it differs from existing content.
// Returns true if the file was written, false if it was unchanged.
func writeFileIfChanged(path string, content []byte, logger *slog.Logger) (bool, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, fmt.Errorf("failed to create directory: %w", err)
	}

	// Check if file exists and has same content
	if existingContent, err := os.ReadFile(path); err == nil {
		if bytes.Equal(existingContent, content) {
			logger.Debug("file unchanged, skipping", "path", path)
			return false, nil
		}
	}

	// Write file
	if err := os.WriteFile(path, content, 0644); err != nil {
		return false, fmt.Errorf("failed to write file: %w", err)
	}

	logger.Debug("file written", "path", path)
	return true, nil
}
