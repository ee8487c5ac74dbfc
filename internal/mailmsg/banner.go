package mailmsg

import (
	"fmt"
	"html"
)

// Banner is the forwarding context block identifying the original message's
// sender, recipient and date, prepended to forwarded content.
type Banner struct {
	Text string
	HTML string
}

// BuildBanner renders the forwarded-message context in text and HTML form.
// Field values are inserted verbatim in the text form and escaped in the HTML
// form; no address or date validation is performed.
func BuildBanner(from, to, date string) Banner {
	text := fmt.Sprintf(`---------- Forwarded message ----------
From: %s
To: %s
Date: %s

`, from, to, date)

	htmlBanner := fmt.Sprintf(`<div style="border: 1px solid #ccc; padding: 10px; margin: 10px 0; background-color: #f9f9f9;">
<strong>---------- Forwarded message ----------</strong><br>
<strong>From:</strong> %s<br>
<strong>To:</strong> %s<br>
<strong>Date:</strong> %s<br>
</div>
`, html.EscapeString(from), html.EscapeString(to), html.EscapeString(date))

	return Banner{Text: text, HTML: htmlBanner}
}
