package comments

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/colsync/internal/fragment"
	"github.com/google/uuid"
)

const (
	DefaultCategory           = "unknown"
	DefaultStatus             = "unknown"
	DefaultAnnotationFileType = "EAF"
	DefaultURIBase            = "urn:unknown"

	// DateLayout is the wire and file format of creation and modification dates.
	DateLayout = "2006-01-02T15:04:05.000Z"
)

var recipientSplit = regexp.MustCompile(`\s*,\s*`)

// Envelope is one comment attached to a time range of a transcription.
//
// The target of the comment is kept decomposed (URIBase, StartTime, EndTime,
// TierName) and only composed into a URI when it is written out.
type Envelope struct {
	MessageID  string
	MessageURL string // server URL of the annotation, "" when unknown

	Initials  string
	Sender    string
	Recipient string // comma separated
	ThreadID  string
	Category  string
	Status    string

	CreationDate     time.Time
	ModificationDate time.Time

	AnnotationFileType string
	AnnotationFileURL  string // server URL of the target, "" when unknown
	Message            string

	URIBase   string
	StartTime int64 // milliseconds, -1 when unset
	EndTime   int64 // milliseconds, -1 when unset
	TierName  string

	LastModifiedOnServer time.Time
	ReadOnly             bool

	ToBeSavedToFile   bool
	ToBeSavedToServer bool
}

// Empty returns an envelope with default values and no message id.
func Empty() *Envelope {
	return &Envelope{
		Category:           DefaultCategory,
		Status:             DefaultStatus,
		AnnotationFileType: DefaultAnnotationFileType,
		URIBase:            DefaultURIBase,
		StartTime:          -1,
		EndTime:            -1,
	}
}

// New returns an envelope with a fresh message id, created now.
func New() *Envelope {
	e := Empty()
	e.MessageID = uuid.NewString()
	e.CreationDate = Now()
	e.ModificationDate = e.CreationDate
	return e
}

// Now returns the current time truncated to what DateLayout can carry.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// Clone returns an independent copy of e.
func (e *Envelope) Clone() *Envelope {
	c := &Envelope{
		MessageID:            e.MessageID,
		MessageURL:           e.MessageURL,
		Initials:             e.Initials,
		Sender:               e.Sender,
		Recipient:            e.Recipient,
		ThreadID:             e.ThreadID,
		Category:             e.Category,
		Status:               e.Status,
		CreationDate:         e.CreationDate,
		ModificationDate:     e.ModificationDate,
		AnnotationFileType:   e.AnnotationFileType,
		AnnotationFileURL:    e.AnnotationFileURL,
		Message:              e.Message,
		URIBase:              e.URIBase,
		StartTime:            e.StartTime,
		EndTime:              e.EndTime,
		TierName:             e.TierName,
		LastModifiedOnServer: e.LastModifiedOnServer,
		ReadOnly:             e.ReadOnly,
		ToBeSavedToFile:      e.ToBeSavedToFile,
		ToBeSavedToServer:    e.ToBeSavedToServer,
	}
	return c
}

// AddRecipient appends r to the comma separated recipient list.
func (e *Envelope) AddRecipient(r string) {
	if e.Recipient == "" {
		e.Recipient = r
		return
	}
	e.Recipient += "," + r
}

// Recipients splits the recipient list. An empty list yields nil.
func (e *Envelope) Recipients() []string {
	if strings.TrimSpace(e.Recipient) == "" {
		return nil
	}
	return recipientSplit.Split(strings.TrimSpace(e.Recipient), -1)
}

// Touch records a local edit: the modification date becomes now and the
// envelope needs saving everywhere.
func (e *Envelope) Touch() {
	e.ModificationDate = Now()
	e.ToBeSavedToFile = true
	e.ToBeSavedToServer = true
}

// IsNewerThan reports whether e was modified after o.
func (e *Envelope) IsNewerThan(o *Envelope) bool {
	return e.ModificationDate.After(o.ModificationDate)
}

// SetServerModifiableFields copies the fields only the server decides on.
func (e *Envelope) SetServerModifiableFields(o *Envelope) {
	e.MessageURL = o.MessageURL
	e.AnnotationFileURL = o.AnnotationFileURL
	e.LastModifiedOnServer = o.LastModifiedOnServer
	e.ReadOnly = o.ReadOnly
}

// SetUninterestingFields copies the fields ValueEqual looks at but
// InterestingValueEqual does not.
func (e *Envelope) SetUninterestingFields(o *Envelope) {
	e.ModificationDate = o.ModificationDate
}

// Fragment composes the target fragment, e.g. "t=0.960/1.960;tier=S1".
func (e *Envelope) Fragment() string {
	return fragment.Encode(e.StartTime, e.EndTime, e.TierName)
}

// AnnotationFile composes the full target URI.
func (e *Envelope) AnnotationFile() string {
	frag := e.Fragment()
	if frag == "" {
		return e.URIBase
	}
	return e.URIBase + "#" + frag
}

// SetAnnotationFile decomposes uri into base, times and tier. On error e is
// left unchanged.
func (e *Envelope) SetAnnotationFile(uri string) error {
	base, frag, err := fragment.SplitURI(uri)
	if err != nil {
		return err
	}
	d, err := fragment.Decode(frag)
	if err != nil {
		return err
	}

	e.URIBase = base
	e.StartTime, e.EndTime, e.TierName = d.Start, d.End, d.Tier
	return nil
}

// Compare orders envelopes by start time, then end time.
func Compare(a, b *Envelope) int {
	if c := cmp.Compare(a.StartTime, b.StartTime); c != 0 {
		return c
	}
	return cmp.Compare(a.EndTime, b.EndTime)
}

// Sort sorts list in place by Compare.
func Sort(list []*Envelope) {
	slices.SortStableFunc(list, Compare)
}
