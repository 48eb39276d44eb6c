// Package pdftext extracts plain text from PDF payloads for summarization.
package pdftext

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extract returns the full plain text of a PDF. It prefers the system
// pdftotext tool (better support for complex layouts) and falls back to the
// Go library when the tool is unavailable or yields nothing.
func Extract(data []byte) (string, error) {
	if text, err := extractWithPdftotext(data); err == nil && text != "" {
		return text, nil
	}
	return extractWithGoLib(data)
}

func extractWithPdftotext(data []byte) (string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return "", fmt.Errorf("pdftotext not found: %w", err)
	}
	tmp, err := os.CreateTemp("", "capsarc-*.pdf")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	cmd := exec.Command("pdftotext", "-layout", "-enc", "UTF-8", tmp.Name(), "-")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext failed: %w", err)
	}
	text := Normalize(string(output))
	if text == "" {
		return "", fmt.Errorf("no text extracted from PDF")
	}
	return text, nil
}

func extractWithGoLib(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	totalPages := reader.NumPage()
	var b strings.Builder
	for i := 1; i <= totalPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip problematic pages instead of failing entirely.
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	text := Normalize(b.String())
	if text == "" {
		return "", fmt.Errorf("no text extracted from PDF")
	}
	return text, nil
}

// Normalize strips NUL bytes, invalid UTF-8, and collapses whitespace.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\x00", " ")
	text = strings.ToValidUTF8(text, "")
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return strings.Join(strings.Fields(text), " ")
}
