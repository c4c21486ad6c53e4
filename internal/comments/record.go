package comments

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// Namespace is the XML namespace of ColTime records.
const Namespace = "http://www.mpi.nl/tools/elan/coltime"

// Record is the XML shape of one comment, shared by the local file and the
// body of a server annotation.
type Record struct {
	XMLName        xml.Name       `xml:"ColTime"`
	Xmlns          string         `xml:"xmlns,attr,omitempty"`
	MessageID      string         `xml:"ColTimeMessageID,attr"`
	URL            string         `xml:"URL,attr"`
	Metadata       Metadata       `xml:"Metadata"`
	AnnotationFile AnnotationFile `xml:"AnnotationFile"`
	Message        string         `xml:"Message"`
}

type Metadata struct {
	Initials         string   `xml:"Initials"`
	ThreadID         string   `xml:"ThreadID"`
	Sender           string   `xml:"Sender"`
	Recipients       []string `xml:"Recipient"`
	CreationDate     string   `xml:"CreationDate"`
	ModificationDate string   `xml:"ModificationDate"`
	Category         string   `xml:"Category"`
	Status           string   `xml:"Status"`
}

type AnnotationFile struct {
	URL  string `xml:"URL,attr"`
	Type string `xml:"type,attr"`
	URI  string `xml:",chardata"`
}

// FormatDate renders t in DateLayout; the zero time renders as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

// ParseDate accepts DateLayout and any RFC 3339 time. "" yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t.UTC(), nil
}

// ToRecord converts e to its XML record.
func ToRecord(e *Envelope) Record {
	return Record{
		Xmlns:     Namespace,
		MessageID: e.MessageID,
		URL:       e.MessageURL,
		Metadata: Metadata{
			Initials:         e.Initials,
			ThreadID:         e.ThreadID,
			Sender:           e.Sender,
			Recipients:       e.Recipients(),
			CreationDate:     FormatDate(e.CreationDate),
			ModificationDate: FormatDate(e.ModificationDate),
			Category:         e.Category,
			Status:           e.Status,
		},
		AnnotationFile: AnnotationFile{
			URL:  e.AnnotationFileURL,
			Type: e.AnnotationFileType,
			URI:  e.AnnotationFile(),
		},
		Message: e.Message,
	}
}

// Envelope converts r back into an envelope. Dirty flags are left clear.
func (r Record) Envelope() (*Envelope, error) {
	e := Empty()
	e.MessageID = r.MessageID
	e.MessageURL = r.URL
	e.Initials = r.Metadata.Initials
	e.ThreadID = r.Metadata.ThreadID
	e.Sender = r.Metadata.Sender
	for _, rc := range r.Metadata.Recipients {
		if rc = strings.TrimSpace(rc); rc != "" {
			e.AddRecipient(rc)
		}
	}
	if r.Metadata.Category != "" {
		e.Category = r.Metadata.Category
	}
	if r.Metadata.Status != "" {
		e.Status = r.Metadata.Status
	}
	e.Message = r.Message

	var err error
	if e.CreationDate, err = ParseDate(r.Metadata.CreationDate); err != nil {
		return nil, fmt.Errorf("record %s: %w", r.MessageID, err)
	}
	if e.ModificationDate, err = ParseDate(r.Metadata.ModificationDate); err != nil {
		return nil, fmt.Errorf("record %s: %w", r.MessageID, err)
	}

	e.AnnotationFileURL = r.AnnotationFile.URL
	if r.AnnotationFile.Type != "" {
		e.AnnotationFileType = r.AnnotationFile.Type
	}
	if uri := strings.TrimSpace(r.AnnotationFile.URI); uri != "" {
		if err := e.SetAnnotationFile(uri); err != nil {
			return nil, fmt.Errorf("record %s: %w", r.MessageID, err)
		}
	}

	return e, nil
}

// MarshalEnvelope renders e as a standalone ColTime element.
func MarshalEnvelope(e *Envelope) ([]byte, error) {
	return xml.Marshal(ToRecord(e))
}

// UnmarshalEnvelope parses the first ColTime element in data.
func UnmarshalEnvelope(data []byte) (*Envelope, error) {
	var r Record
	if err := xml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode ColTime: %w", err)
	}
	return r.Envelope()
}
