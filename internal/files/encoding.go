package files

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Encoding names the character set of a source file
type Encoding string

const (
	UTF8        Encoding = "utf-8"
	Latin1      Encoding = "latin-1"
	Windows1252 Encoding = "cp1252"
	CP437       Encoding = "cp437"

	// AutoDetect keeps valid UTF-8 and decodes anything else as Latin-1
	AutoDetect Encoding = "auto"
)

const bom = "\ufeff"

func decoder(enc Encoding) (*encoding.Decoder, error) {
	switch enc {
	case Latin1:
		return charmap.ISO8859_1.NewDecoder(), nil
	case Windows1252:
		return charmap.Windows1252.NewDecoder(), nil
	case CP437:
		return charmap.CodePage437.NewDecoder(), nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", enc)
}

// Decode converts raw bytes to a UTF-8 string. A leading UTF-8 BOM is removed.
func Decode(raw []byte, enc Encoding) (string, Encoding, error) {
	switch enc {
	case UTF8, "":
		if !utf8.Valid(raw) {
			return "", enc, fmt.Errorf("content is not valid UTF-8")
		}
		return strings.TrimPrefix(string(raw), bom), UTF8, nil
	case AutoDetect:
		if utf8.Valid(raw) {
			return strings.TrimPrefix(string(raw), bom), UTF8, nil
		}
		enc = Latin1
	}

	dec, err := decoder(enc)
	if err != nil {
		return "", enc, err
	}
	out, err := dec.Bytes(raw)
	if err != nil {
		return "", enc, fmt.Errorf("failed to decode %s: %w", enc, err)
	}
	return string(out), enc, nil
}

// ReadText reads path and decodes it to UTF-8
func ReadText(path string, enc Encoding) (string, error) {
	text, _, err := ReadTextDetect(path, enc)
	return text, err
}

// ReadTextDetect reads path and also reports the encoding actually used
func ReadTextDetect(path string, enc Encoding) (string, Encoding, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", enc, fmt.Errorf("failed to read %s: %w", path, err)
	}
	text, used, err := Decode(raw, enc)
	if err != nil {
		return "", used, fmt.Errorf("%s: %w", path, err)
	}
	return text, used, nil
}
