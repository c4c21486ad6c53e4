package comments

// InterestingValueEqual compares the fields a user edits. Server assigned
// URLs, the server timestamp, the read-only flag, the modification date and
// the dirty flags are ignored.
func (e *Envelope) InterestingValueEqual(o *Envelope) bool {
	if e == o {
		return true
	}
	if e == nil || o == nil {
		return false
	}
	return e.MessageID == o.MessageID &&
		e.Initials == o.Initials &&
		e.ThreadID == o.ThreadID &&
		e.Sender == o.Sender &&
		e.Recipient == o.Recipient &&
		e.CreationDate.Equal(o.CreationDate) &&
		e.AnnotationFileType == o.AnnotationFileType &&
		e.Category == o.Category &&
		e.Status == o.Status &&
		e.Message == o.Message &&
		e.URIBase == o.URIBase &&
		e.StartTime == o.StartTime &&
		e.EndTime == o.EndTime &&
		e.TierName == o.TierName
}

// ValueEqual is InterestingValueEqual plus the modification date.
func (e *Envelope) ValueEqual(o *Envelope) bool {
	return e.InterestingValueEqual(o) && e.ModificationDate.Equal(o.ModificationDate)
}

// Equal compares every field.
func (e *Envelope) Equal(o *Envelope) bool {
	if e == o {
		return true
	}
	if !e.ValueEqual(o) {
		return false
	}
	return e.MessageURL == o.MessageURL &&
		e.AnnotationFileURL == o.AnnotationFileURL &&
		e.LastModifiedOnServer.Equal(o.LastModifiedOnServer) &&
		e.ReadOnly == o.ReadOnly &&
		e.ToBeSavedToFile == o.ToBeSavedToFile &&
		e.ToBeSavedToServer == o.ToBeSavedToServer
}
