// Package pdf extracts plain text from resume payloads that arrive as
// base64-encoded PDFs. Plain text payloads pass through untouched.
package pdf

import (
	"encoding/base64"
	"fmt"
	"strings"

	"code.sajari.com/docconv"
)

// base64PDFPrefix is "%PDF-" after base64 encoding, the magic byte sequence
// that opens every PDF file.
const base64PDFPrefix = "JVBERi0"

// IsBase64PDF reports whether the payload is a base64-encoded PDF.
func IsBase64PDF(content string) bool {
	return strings.HasPrefix(strings.TrimSpace(content), base64PDFPrefix)
}

// ResumeText returns the plain text of a resume payload. Base64 PDF payloads
// are decoded and converted; anything else is already plain text.
func ResumeText(content string) (string, error) {
	if !IsBase64PDF(content) {
		return content, nil
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(content))
	if err != nil {
		return "", fmt.Errorf("decode pdf payload: %w", err)
	}

	res, err := docconv.Convert(strings.NewReader(string(raw)), "application/pdf", true)
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	return res.Body, nil
}
