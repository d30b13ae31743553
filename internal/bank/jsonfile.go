package bank

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/abhisek/latihan/internal/question"
)

// WriteJSON encodes records as an indented JSON array.
func WriteJSON(w io.Writer, records []question.Record) error {
	if records == nil {
		records = []question.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// ReadJSON decodes a JSON bank file. A malformed answer inside a record
// degrades to the type default; an unknown type fails the whole file.
func ReadJSON(r io.Reader) ([]question.Record, error) {
	var records []question.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode bank file: %w", err)
	}
	return records, nil
}

// LoadFile reads a JSON bank file into a new session.
func LoadFile(path string, opts ...Option) (*Session, error) {
	s := NewSession(opts...)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if _, err := s.Append(records...); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// SaveFile writes every record of the current snapshot, deleted ones
// included, to path. The file is replaced only after a complete write.
func (s *Session) SaveFile(path string) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := WriteJSON(f, s.Snapshot().All()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
