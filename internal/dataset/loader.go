package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrMissingArrondissement is returned when the header lacks the key column.
var ErrMissingArrondissement = errors.New("gold file has no Arrondissement column")

// Load reads the gold CSV at path.
func Load(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open gold file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat gold file: %w", err)
	}

	ds, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	ds.Source = path
	ds.ModTime = info.ModTime()
	return ds, nil
}

// Read parses a gold table. The delimiter (';' or ',') is detected from the
// header line and a UTF-8 BOM is ignored. Rows whose key is not an integer
// between 1 and 20 are skipped.
func Read(r io.Reader) (*Dataset, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	delim, err := sniffDelimiter(br)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(br)
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	keyIdx := -1
	for i, col := range header {
		if strings.EqualFold(col, ColArrondissement) {
			keyIdx = i
			header[i] = ColArrondissement
			break
		}
	}
	if keyIdx < 0 {
		return nil, ErrMissingArrondissement
	}

	var rows []*Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		if keyIdx >= len(record) {
			continue
		}
		n, ok := parseArrondissement(record[keyIdx])
		if !ok {
			continue
		}
		rows = append(rows, NewRow(n, header, record))
	}

	return New(header, rows), nil
}

func parseArrondissement(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, false
		}
		n = int(f)
	}
	return n, ValidArrondissement(n)
}

func sniffDelimiter(br *bufio.Reader) (rune, error) {
	line, err := br.Peek(br.Size())
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return 0, err
	}
	if len(line) == 0 {
		return 0, fmt.Errorf("empty gold file")
	}
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if bytes.Count(line, []byte{';'}) >= bytes.Count(line, []byte{','}) {
		return ';', nil
	}
	return ',', nil
}
