package ingest

import (
	"bytes"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Regulation dumps come from municipal archives in whatever encoding the
// scanning vendor produced: UTF-8, UTF-16 with BOM, or a Windows codepage.
// ReadFileAsUTF8 normalizes them before segmentation.
func ReadFileAsUTF8(path string) (string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read file: %w", err)
	}

	if name, enc, ok := detectBOM(data); ok {
		decoded, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			return "", "", fmt.Errorf("decode %s: %w", name, err)
		}
		return string(decoded), name, nil
	}

	if utf8.Valid(data) {
		return string(data), "utf-8", nil
	}

	// Not valid UTF-8 and no BOM: assume a single-byte Windows codepage.
	// Windows-1252 decodes any byte sequence, so this cannot fail.
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", fmt.Errorf("decode windows-1252: %w", err)
	}
	return string(decoded), "windows-1252", nil
}

func detectBOM(data []byte) (string, encoding.Encoding, bool) {
	if len(data) >= 3 && bytes.Equal(data[:3], []byte{0xEF, 0xBB, 0xBF}) {
		return "utf-8", unicode.UTF8BOM, true
	}
	if len(data) >= 2 && bytes.Equal(data[:2], []byte{0xFF, 0xFE}) {
		return "utf-16le", unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), true
	}
	if len(data) >= 2 && bytes.Equal(data[:2], []byte{0xFE, 0xFF}) {
		return "utf-16be", unicode.UTF16(unicode.BigEndian, unicode.UseBOM), true
	}
	return "", nil, false
}
