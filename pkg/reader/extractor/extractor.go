// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package extractor turns fetched documents into plain text.
package extractor

import (
	"mime"
	"path"
	"strings"
)

// Document is the text extracted from a fetched resource.
type Document struct {
	Title string
	Text  string
}

// Extract picks a decoder from the media type, falling back to the
// extension of name when the type is missing or generic.
func Extract(content []byte, contentType, name string) (Document, error) {
	switch kind(contentType, name) {
	case "pdf":
		text, err := extractPDF(content)
		return Document{Text: text}, err
	case "html":
		return extractHTML(content), nil
	case "csv":
		return Document{Text: extractCSV(content)}, nil
	case "json":
		return Document{Text: extractJSON(content)}, nil
	case "jsonl":
		return Document{Text: extractJSONL(content)}, nil
	default:
		return Document{Text: strings.TrimSpace(string(content))}, nil
	}
}

func kind(contentType, name string) string {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "application/pdf":
		return "pdf"
	case "text/html", "application/xhtml+xml":
		return "html"
	case "text/csv":
		return "csv"
	case "application/json", "application/ld+json":
		return "json"
	case "application/jsonl", "application/x-ndjson", "application/jsonlines":
		return "jsonl"
	}

	switch strings.ToLower(path.Ext(name)) {
	case ".pdf":
		return "pdf"
	case ".html", ".htm":
		return "html"
	case ".csv":
		return "csv"
	case ".json":
		return "json"
	case ".jsonl", ".ndjson":
		return "jsonl"
	}
	return "text"
}
