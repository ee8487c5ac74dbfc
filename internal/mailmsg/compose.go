package mailmsg

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/emersion/go-message/mail"
)

// noTextPlaceholder stands in for the text body when the original message
// had no extractable text.
const noTextPlaceholder = "(Original message had no text content)"

// originalAttachmentName is the filename of the verbatim original message
// attached to every forwarded copy.
const originalAttachmentName = "original.eml"

// ComposeInput carries everything needed to build one outbound copy.
type ComposeInput struct {
	FromAddress string // forwarding identity address
	FromName    string // original sender's display name
	To          string
	ReplyTo     string // original sender, verbatim; empty omits the header
	Subject     string
	Banner      Banner
	Content     Content
	Raw         []byte // original message, attached unmodified
}

// Compose builds the outbound MIME message: a multipart/alternative body
// carrying the context banner plus the extracted content, with the original
// message attached verbatim as original.eml. When the original has no HTML
// part, one is synthesized from the text body so every forwarded message
// stays renderable in HTML clients.
func Compose(in ComposeInput) ([]byte, error) {
	var header mail.Header
	header.SetAddressList("From", []*mail.Address{{Name: in.FromName, Address: in.FromAddress}})
	header.SetAddressList("To", []*mail.Address{{Address: in.To}})
	header.SetSubject(in.Subject)
	if in.ReplyTo != "" {
		header.Set("Reply-To", in.ReplyTo)
	}

	var buf bytes.Buffer
	w, err := mail.CreateWriter(&buf, header)
	if err != nil {
		return nil, fmt.Errorf("failed to create message writer: %w", err)
	}

	inline, err := w.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("failed to create body part: %w", err)
	}

	textBody := in.Banner.Text + noTextPlaceholder
	if in.Content.Text != "" {
		textBody = in.Banner.Text + in.Content.Text
	}
	if err := writeInlinePart(inline, "text/plain", textBody); err != nil {
		return nil, err
	}

	if htmlBody := renderHTMLBody(in); htmlBody != "" {
		if err := writeInlinePart(inline, "text/html", htmlBody); err != nil {
			return nil, err
		}
	}
	if err := inline.Close(); err != nil {
		return nil, fmt.Errorf("failed to close body part: %w", err)
	}

	var attach mail.AttachmentHeader
	attach.SetContentType("message/rfc822", map[string]string{"name": originalAttachmentName})
	attach.SetFilename(originalAttachmentName)
	aw, err := w.CreateAttachment(attach)
	if err != nil {
		return nil, fmt.Errorf("failed to create original attachment: %w", err)
	}
	if _, err := aw.Write(in.Raw); err != nil {
		aw.Close()
		return nil, fmt.Errorf("failed to write original attachment: %w", err)
	}
	if err := aw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close original attachment: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize message: %w", err)
	}
	return buf.Bytes(), nil
}

func writeInlinePart(inline *mail.InlineWriter, mediaType, body string) error {
	var partHeader mail.InlineHeader
	partHeader.SetContentType(mediaType, map[string]string{"charset": "utf-8"})

	part, err := inline.CreatePart(partHeader)
	if err != nil {
		return fmt.Errorf("failed to create %s part: %w", mediaType, err)
	}
	if _, err := io.WriteString(part, body); err != nil {
		part.Close()
		return fmt.Errorf("failed to write %s part: %w", mediaType, err)
	}
	return part.Close()
}

// renderHTMLBody returns the HTML alternative, synthesizing one from the text
// body when the original had none. Empty when the message has neither.
func renderHTMLBody(in ComposeInput) string {
	if in.Content.HTML != "" {
		return in.Banner.HTML + in.Content.HTML
	}
	if in.Content.Text != "" {
		escaped := strings.ReplaceAll(html.EscapeString(in.Content.Text), "\n", "<br>\n")
		return in.Banner.HTML + `<div style="white-space: pre-wrap; font-family: monospace;">` + escaped + `</div>`
	}
	return ""
}
