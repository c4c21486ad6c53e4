package client

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// Payload is a request body together with its content type.
type Payload interface {
	encode() (body io.Reader, contentType string, err error)
}

type xmlPayload struct{ v any }

// XML marshals v as the request body.
func XML(v any) Payload { return xmlPayload{v: v} }

func (p xmlPayload) encode() (io.Reader, string, error) {
	data, err := xml.Marshal(p.v)
	if err != nil {
		return nil, "", fmt.Errorf("%w: marshal %T: %v", ErrWireFormat, p.v, err)
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.Write(data)
	return &buf, "application/xml; charset=utf-8", nil
}

type textPayload string

// Text sends s as text/plain.
func Text(s string) Payload { return textPayload(s) }

func (p textPayload) encode() (io.Reader, string, error) {
	return strings.NewReader(string(p)), "text/plain; charset=utf-8", nil
}

type rawPayload struct {
	contentType string
	r           io.Reader
}

// Raw sends the bytes read from r with the given content type.
func Raw(contentType string, r io.Reader) Payload {
	return rawPayload{contentType: contentType, r: r}
}

func (p rawPayload) encode() (io.Reader, string, error) {
	return p.r, p.contentType, nil
}

type multipartPayload []Payload

// Multipart combines parts into one multipart/mixed body.
func Multipart(parts ...Payload) Payload { return multipartPayload(parts) }

func (p multipartPayload) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, part := range p {
		body, ct, err := part.encode()
		if err != nil {
			return nil, "", err
		}
		pw, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {ct}})
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(pw, body); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, "multipart/mixed; boundary=" + w.Boundary(), nil
}
