package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ToFile writes text to path, choosing the format by extension: .docx gets a styled document
// titled title, anything else is written verbatim.
func ToFile(title, text, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".docx") {
		return Docx(title, text, path)
	}
	return Text(text, path)
}

// Text writes text to path unchanged
func Text(text, path string) error {
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("write text: %w", err)
	}
	return nil
}
