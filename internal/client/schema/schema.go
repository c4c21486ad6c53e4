// Package schema holds the XML records exchanged with a DASISH annotation
// service: annotations and their summaries, principals, server responses
// with action lists, and cached representation descriptors.
//
// Element names carry no namespace in their tags so decoding accepts both
// qualified and unqualified documents; the namespace is written through the
// Xmlns attribute of the root record.
package schema

import (
	"encoding/xml"
	"time"
)

const Namespace = "http://www.dasish.eu/ns/addit"

// Access levels used in permission lists.
const (
	AccessNone  = "none"
	AccessRead  = "read"
	AccessWrite = "write"
)

// ActionCreateCachedRepresentation asks the client to upload a snapshot of
// the annotated document.
const ActionCreateCachedRepresentation = "CREATE_CACHED_REPRESENTATION"

type Annotation struct {
	XMLName      xml.Name       `xml:"annotation"`
	Xmlns        string         `xml:"xmlns,attr,omitempty"`
	ID           string         `xml:"id,attr,omitempty"`
	Href         string         `xml:"href,attr,omitempty"`
	OwnerHref    string         `xml:"ownerHref"`
	Headline     string         `xml:"headline"`
	LastModified time.Time      `xml:"lastModified"`
	Body         Body           `xml:"body"`
	Targets      TargetInfoList `xml:"targets"`
	Permissions  PermissionList `xml:"permissions"`
}

// Body is also sent on its own when only the body of an annotation changes.
type Body struct {
	XMLName  xml.Name  `xml:"body"`
	XMLBody  *XMLBody  `xml:"xmlBody,omitempty"`
	TextBody *TextBody `xml:"textBody,omitempty"`
}

// XMLBody carries an embedded XML document verbatim.
type XMLBody struct {
	MimeType string `xml:"mimeType,attr"`
	Content  []byte `xml:",innerxml"`
}

type TextBody struct {
	MimeType string `xml:"mimeType,attr"`
	Text     string `xml:",chardata"`
}

type TargetInfoList struct {
	TargetInfo []TargetInfo `xml:"targetInfo"`
}

type TargetInfo struct {
	Href    string `xml:"href,attr"`
	Link    string `xml:"link"`
	Version string `xml:"version"`
}

type PermissionList struct {
	Public      string       `xml:"public,attr,omitempty"`
	Permissions []Permission `xml:"permission"`
}

type Permission struct {
	PrincipalHref string `xml:"principalHref,attr"`
	Level         string `xml:"level,attr"`
}

// Writable reports whether principal may modify the annotation: the public
// level is write, or principal is listed with write access.
func (p PermissionList) Writable(principal string) bool {
	if p.Public == AccessWrite {
		return true
	}
	for _, perm := range p.Permissions {
		if perm.PrincipalHref == principal {
			return perm.Level == AccessWrite
		}
	}
	return false
}

type AnnotationInfoList struct {
	XMLName        xml.Name         `xml:"annotationInfoList"`
	Xmlns          string           `xml:"xmlns,attr,omitempty"`
	AnnotationInfo []AnnotationInfo `xml:"annotationInfo"`
}

// AnnotationInfo summarizes one annotation without its body.
type AnnotationInfo struct {
	Href         string        `xml:"href,attr"`
	OwnerHref    string        `xml:"ownerHref"`
	Headline     string        `xml:"headline"`
	LastModified time.Time     `xml:"lastModified"`
	Targets      ReferenceList `xml:"targets"`
}

// FirstTarget returns the first target href, or "".
func (a AnnotationInfo) FirstTarget() string {
	if len(a.Targets.Ref) == 0 {
		return ""
	}
	return a.Targets.Ref[0]
}

type ReferenceList struct {
	Ref []string `xml:"ref"`
}

type Principal struct {
	XMLName     xml.Name `xml:"principal"`
	Xmlns       string   `xml:"xmlns,attr,omitempty"`
	Href        string   `xml:"href,attr"`
	DisplayName string   `xml:"displayName"`
	EMail       string   `xml:"eMail"`
}

// ResponseBody is returned by every write on the annotation resources.
type ResponseBody struct {
	XMLName    xml.Name    `xml:"responseBody"`
	Xmlns      string      `xml:"xmlns,attr,omitempty"`
	Annotation *Annotation `xml:"annotation,omitempty"`
	ActionList *ActionList `xml:"actionList,omitempty"`
}

type ActionList struct {
	Action []Action `xml:"action"`
}

type Action struct {
	Message string `xml:"message"`
	Object  string `xml:"object"`
}

// Actions returns the actions of r, nil safe.
func (r *ResponseBody) Actions() []Action {
	if r == nil || r.ActionList == nil {
		return nil
	}
	return r.ActionList.Action
}

type CachedRepresentationInfo struct {
	XMLName  xml.Name `xml:"cachedRepresentationInfo"`
	Xmlns    string   `xml:"xmlns,attr,omitempty"`
	ID       string   `xml:"id,attr,omitempty"`
	Href     string   `xml:"href,attr,omitempty"`
	MimeType string   `xml:"mimeType"`
	Tool     string   `xml:"tool"`
	Type     string   `xml:"type"`
}
