// Package mailmsg parses inbound MIME messages, extracts their renderable
// content and reassembles outbound forwarded copies.
package mailmsg

import (
	"bytes"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/k3a/html2text"
)

// Content holds the renderable bodies extracted from a message. Either field
// may be empty.
type Content struct {
	Text string
	HTML string
}

// PlainText returns the text body, deriving one from the HTML body when the
// message carried no text part.
func (c Content) PlainText() string {
	if c.Text != "" {
		return c.Text
	}
	if c.HTML != "" {
		return html2text.HTML2Text(c.HTML)
	}
	return ""
}

// Envelope is the header view of a parsed message used by the forwarder.
type Envelope struct {
	From     string // raw From header, passed through verbatim
	FromName string // display name parsed out of From
	Date     string // raw Date header
	Subject  string
}

// Parse reads a raw message. Unknown charsets are tolerated so that a single
// exotic part cannot fail the whole forward.
func Parse(raw []byte) (*message.Entity, error) {
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, err
	}
	return entity, nil
}

// ReadEnvelope pulls the headers the forwarder needs. The subject is decoded
// so it can be re-encoded on the outbound copy; From and Date stay verbatim.
func ReadEnvelope(entity *message.Entity) Envelope {
	header := mail.Header{Header: entity.Header}

	env := Envelope{
		From: entity.Header.Get("From"),
		Date: entity.Header.Get("Date"),
	}

	if subject, err := header.Subject(); err == nil && subject != "" {
		env.Subject = subject
	} else {
		env.Subject = entity.Header.Get("Subject")
	}

	if addrs, err := header.AddressList("From"); err == nil && len(addrs) > 0 {
		env.FromName = addrs[0].Name
	}

	return env
}

// ExtractContent walks the message tree and returns its plain-text and HTML
// bodies. Parts whose disposition marks them as attachments are skipped, and
// when several parts share a content type the last one wins. Never fails:
// malformed bytes are replaced and unreadable parts ignored.
func ExtractContent(entity *message.Entity) Content {
	var content Content
	collect(entity, &content)
	return content
}

func collect(entity *message.Entity, content *Content) {
	if mr := entity.MultipartReader(); mr != nil {
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil && !message.IsUnknownCharset(err) {
				break
			}
			if part == nil {
				break
			}
			collect(part, content)
		}
		return
	}
	classify(entity, content)
}

func classify(entity *message.Entity, content *Content) {
	if strings.Contains(strings.ToLower(entity.Header.Get("Content-Disposition")), "attachment") {
		return
	}

	mediaType, _, _ := entity.Header.ContentType()
	switch mediaType {
	case "text/plain":
		content.Text = decodePermissive(entity.Body)
	case "text/html":
		content.HTML = decodePermissive(entity.Body)
	}
}

// decodePermissive reads a part body, replacing malformed byte sequences
// instead of failing.
func decodePermissive(r io.Reader) string {
	b, _ := io.ReadAll(r)
	return strings.ToValidUTF8(string(b), "�")
}
