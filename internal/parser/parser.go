package parser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/conorfennell/vocabdeck/internal/domain"
)

// Format is the layout of a vocabulary file.
type Format int

const (
	// CSV rows are word,pos,ipa,meaning,image,definition with an optional header.
	CSV Format = iota
	// Tabbed rows are index, word, pos, phonetic, unused, meaning.
	Tabbed
)

const (
	commentPrefix = "#"
	csvHeader     = "word"
	csvFields     = 6
	tabbedFields  = 6
)

// ErrUnsupported is returned for files whose extension has no known format.
var ErrUnsupported = errors.New("parser: unsupported file type")

// LineError describes a row that was skipped.
type LineError struct {
	Line   int
	Reason string
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Result holds the items read from a file and the rows that were skipped.
type Result struct {
	Items   []domain.VocabItem
	Skipped []LineError
}

// FormatFor picks the format from a file name.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSV, nil
	case ".txt", ".tsv":
		return Tabbed, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupported, path)
}

// Supported reports whether path has an extension ParseFile understands.
func Supported(path string) bool {
	_, err := FormatFor(path)
	return err == nil
}

// ParseFile reads a vocabulary file from the given path.
func ParseFile(path string) (Result, error) {
	format, err := FormatFor(path)
	if err != nil {
		return Result{}, err
	}

	file, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer file.Close()

	return Parse(file, format)
}

// Parse reads vocabulary rows from r. Blank lines and lines starting with
// '#' are ignored; malformed rows are reported in Result.Skipped.
func Parse(r io.Reader, format Format) (Result, error) {
	if format == CSV {
		return parseCSV(r)
	}
	return parseTabbed(r)
}

func parseCSV(r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var res Result
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				res.Skipped = append(res.Skipped, LineError{Line: parseErr.Line, Reason: parseErr.Err.Error()})
				continue
			}
			return Result{}, err
		}
		line, _ := reader.FieldPos(0)

		if first {
			first = false
			if strings.EqualFold(strings.TrimSpace(record[0]), csvHeader) {
				continue
			}
		}
		if len(record) < csvFields {
			res.Skipped = append(res.Skipped, LineError{Line: line, Reason: fmt.Sprintf("expected %d fields, got %d", csvFields, len(record))})
			continue
		}

		item := domain.VocabItem{
			Word:         clean(record[0]),
			PartOfSpeech: clean(record[1]),
			Phonetic:     clean(record[2]),
			Meaning:      clean(record[3]),
			Image:        clean(record[4]),
			Definition:   clean(record[5]),
		}
		if item.Word == "" {
			res.Skipped = append(res.Skipped, LineError{Line: line, Reason: "empty word"})
			continue
		}
		res.Items = append(res.Items, item)
	}
	return res, nil
}

func parseTabbed(r io.Reader) (Result, error) {
	scanner := bufio.NewScanner(r)
	var res Result
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		parts := strings.Split(line, "\t")
		if len(parts) < tabbedFields {
			res.Skipped = append(res.Skipped, LineError{Line: lineNo, Reason: fmt.Sprintf("expected %d tab-separated fields, got %d", tabbedFields, len(parts))})
			continue
		}

		item := domain.VocabItem{
			Word:         clean(parts[1]),
			PartOfSpeech: clean(parts[2]),
			Phonetic:     clean(parts[3]),
			Meaning:      clean(parts[5]),
		}
		if item.Word == "" {
			res.Skipped = append(res.Skipped, LineError{Line: lineNo, Reason: "empty word"})
			continue
		}
		res.Items = append(res.Items, item)
	}

	if err := scanner.Err(); err != nil {
		return Result{}, err
	}
	return res, nil
}

func clean(s string) string {
	return strings.TrimSpace(s)
}
