package mailmsg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// crlf normalizes test fixtures to wire line endings.
func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

const simpleMessage = `From: Alice Example <alice@example.com>
To: inbox@router.example.com
Subject: Hello there
Date: Mon, 02 Jan 2006 15:04:05 -0700
Content-Type: text/plain; charset=utf-8

Just a plain message.
`

const alternativeMessage = `From: bob@example.com
Subject: Mixed content
Date: Tue, 03 Jan 2006 10:00:00 +0000
MIME-Version: 1.0
Content-Type: multipart/alternative; boundary="alt"

--alt
Content-Type: text/plain; charset=utf-8

plain version
--alt
Content-Type: text/html; charset=utf-8

<p>html version</p>
--alt--
`

const duplicatePartsMessage = `From: carol@example.com
Subject: Twice
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="mix"

--mix
Content-Type: text/plain

first text part
--mix
Content-Type: text/plain

second text part
--mix--
`

const attachmentOnlyMessage = `From: dave@example.com
Subject: Files
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="mix"

--mix
Content-Type: text/plain
Content-Disposition: attachment; filename="notes.txt"

attached notes
--mix
Content-Type: application/pdf
Content-Disposition: attachment; filename="report.pdf"

%PDF-fake
--mix--
`

const htmlOnlyMessage = `From: erin@example.com
Subject: Pretty
Content-Type: text/html; charset=utf-8

<p>Hello <b>world</b></p>
`

func TestReadEnvelope(t *testing.T) {
	entity, err := Parse(crlf(simpleMessage))
	require.NoError(t, err)

	env := ReadEnvelope(entity)
	assert.Equal(t, "Alice Example <alice@example.com>", env.From)
	assert.Equal(t, "Alice Example", env.FromName)
	assert.Equal(t, "Hello there", env.Subject)
	assert.Equal(t, "Mon, 02 Jan 2006 15:04:05 -0700", env.Date)
}

func TestReadEnvelopeBareAddress(t *testing.T) {
	entity, err := Parse(crlf(alternativeMessage))
	require.NoError(t, err)

	env := ReadEnvelope(entity)
	assert.Equal(t, "bob@example.com", env.From)
	assert.Empty(t, env.FromName)
}

func TestExtractContent(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantText string
		wantHTML string
	}{
		{
			name:     "single part text",
			raw:      simpleMessage,
			wantText: "Just a plain message.\r\n",
		},
		{
			name:     "multipart alternative",
			raw:      alternativeMessage,
			wantText: "plain version",
			wantHTML: "<p>html version</p>",
		},
		{
			name:     "last part of duplicate type wins",
			raw:      duplicatePartsMessage,
			wantText: "second text part",
		},
		{
			name: "attachments are skipped",
			raw:  attachmentOnlyMessage,
		},
		{
			name:     "html only",
			raw:      htmlOnlyMessage,
			wantHTML: "<p>Hello <b>world</b></p>\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entity, err := Parse(crlf(tt.raw))
			require.NoError(t, err)

			content := ExtractContent(entity)
			assert.Equal(t, tt.wantText, content.Text)
			assert.Equal(t, tt.wantHTML, content.HTML)
		})
	}
}

func TestPlainTextFallsBackToHTML(t *testing.T) {
	content := Content{HTML: "<p>Hello <b>world</b></p>"}
	text := content.PlainText()
	assert.Contains(t, text, "Hello")
	assert.Contains(t, text, "world")
	assert.NotContains(t, text, "<p>")
}

func TestPlainTextPrefersTextPart(t *testing.T) {
	content := Content{Text: "the text", HTML: "<p>the html</p>"}
	assert.Equal(t, "the text", content.PlainText())
}

func TestPlainTextEmpty(t *testing.T) {
	assert.Empty(t, Content{}.PlainText())
}
