package comments

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// fileRoot is the document element of a local comment file.
type fileRoot struct {
	XMLName xml.Name `xml:"ColTimeList"`
	Xmlns   string   `xml:"xmlns,attr,omitempty"`
	Records []Record `xml:"ColTime"`
}

// Decode reads a comment collection from r. When keep is not nil only the
// envelopes it accepts are returned.
func Decode(r io.Reader, keep func(*Envelope) bool) ([]*Envelope, error) {
	var root fileRoot
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode comment file: %w", err)
	}

	out := make([]*Envelope, 0, len(root.Records))
	for _, rec := range root.Records {
		e, err := rec.Envelope()
		if err != nil {
			return nil, err
		}
		if keep != nil && !keep(e) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Encode writes list to w as an indented comment collection.
func Encode(w io.Writer, list []*Envelope) error {
	root := fileRoot{Xmlns: Namespace, Records: make([]Record, 0, len(list))}
	for _, e := range list {
		r := ToRecord(e)
		r.Xmlns = ""
		root.Records = append(root.Records, r)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("encode comment file: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// ReadFile loads a comment file. A missing file is an empty collection.
func ReadFile(path string, keep func(*Envelope) bool) ([]*Envelope, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	return Decode(f, keep)
}

// WriteFile replaces the file at path with list and clears ToBeSavedToFile
// on every written envelope. The file is written to a temporary sibling
// first and renamed into place.
func WriteFile(path string, list []*Envelope) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, list); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}

	for _, e := range list {
		e.ToBeSavedToFile = false
	}
	return nil
}
