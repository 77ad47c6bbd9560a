// Package mbox normalizes raw mail archives into plain structured
// records: decoded headers, a plain-text body with boilerplate footers
// dropped, and the outbound links found in the body.
package mbox

import (
	"html"
	"io"
	netmail "net/mail"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-mbox"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"
)

// Newsletter senders append a footer after a 49-dash separator line;
// everything below it is boilerplate.
const footerDelimiter = "-------------------------------------------------"

const minLinkLength = 10

var (
	urlPattern        = regexp.MustCompile(`https?://[^\s<>"')\]>]+`)
	htmlTagPattern    = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// RawEmail is one normalized archive record.
type RawEmail struct {
	Subject    string
	Date       string
	From       string
	Body       string
	Links      []string
	DateParsed *time.Time
}

// ParseFile reads an mbox archive and returns the normalized records.
// Malformed individual messages are logged and skipped; only an
// unreadable archive is an error.
func ParseFile(path string, logger *zap.Logger) ([]RawEmail, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f, logger)
}

// Parse reads mbox data from r. See ParseFile.
func Parse(r io.Reader, logger *zap.Logger) ([]RawEmail, error) {
	reader := mbox.NewReader(r)

	var emails []RawEmail
	for {
		msgReader, err := reader.NextMessage()
		if err == io.EOF {
			break
		}
		if err != nil {
			return emails, err
		}

		email, err := ParseMessage(msgReader)
		if err != nil {
			logger.Warn("skipping malformed message", zap.Error(err))
			continue
		}

		// Drop records that carry no usable content at all.
		if email.Subject == "" && strings.TrimSpace(email.Body) == "" {
			continue
		}

		emails = append(emails, email)
	}
	return emails, nil
}

// ParseMessage normalizes a single raw RFC 5322 message. It is shared
// by the mbox reader and the IMAP source.
func ParseMessage(r io.Reader) (RawEmail, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return RawEmail{}, err
	}

	subject, err := mr.Header.Subject()
	if err != nil {
		subject = mr.Header.Get("Subject")
	}
	from, err := mr.Header.Text("From")
	if err != nil {
		from = mr.Header.Get("From")
	}
	rawDate := mr.Header.Get("Date")

	var parsed *time.Time
	if t, err := mr.Header.Date(); err == nil && !t.IsZero() {
		parsed = &t
	} else if t := ParseDate(rawDate); t != nil {
		parsed = t
	}

	body := extractTextContent(mr)
	// Cut newsletter footer boilerplate.
	if idx := strings.Index(body, footerDelimiter); idx >= 0 {
		body = body[:idx]
	}
	body = strings.TrimSpace(body)

	return RawEmail{
		Subject:    strings.TrimSpace(subject),
		Date:       rawDate,
		From:       strings.TrimSpace(from),
		Body:       body,
		Links:      ExtractLinks(body),
		DateParsed: parsed,
	}, nil
}

// extractTextContent walks the MIME parts, preferring text/plain and
// falling back to tag-stripped HTML when no plain part exists.
func extractTextContent(mr *mail.Reader) string {
	var textContent, htmlContent strings.Builder

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// One undecodable part should not discard the rest.
			continue
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, err := header.ContentType()
		if err != nil {
			contentType = "text/plain"
		}

		switch contentType {
		case "text/plain":
			if b, err := io.ReadAll(part.Body); err == nil {
				textContent.Write(b)
			}
		case "text/html":
			if textContent.Len() == 0 {
				if b, err := io.ReadAll(part.Body); err == nil {
					htmlContent.Write(b)
				}
			}
		}
	}

	if textContent.Len() > 0 {
		return textContent.String()
	}
	return StripHTMLTags(htmlContent.String())
}

// StripHTMLTags removes markup and decodes entities, collapsing runs
// of whitespace left behind by block elements.
func StripHTMLTags(content string) string {
	clean := htmlTagPattern.ReplaceAllString(content, " ")
	clean = html.UnescapeString(clean)
	clean = whitespacePattern.ReplaceAllString(clean, " ")
	return strings.TrimSpace(clean)
}

// ExtractLinks pulls http(s) URLs out of text, trims trailing
// punctuation, and de-duplicates while preserving first-seen order.
func ExtractLinks(text string) []string {
	matches := urlPattern.FindAllString(text, -1)

	seen := make(map[string]struct{}, len(matches))
	var links []string
	for _, raw := range matches {
		u := strings.TrimRight(raw, ".,;:!?")
		if len(u) <= minLinkLength {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		links = append(links, u)
	}
	return links
}

// ParseDate parses an email date header, trying RFC 5322 first and a
// few loose formats seen in older archives after that.
func ParseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if t, err := netmail.ParseDate(raw); err == nil {
		return &t
	}

	layouts := []string{
		"Mon, 2 Jan 2006 15:04:05 -0700",
		"2 Jan 2006 15:04:05 -0700",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z07:00",
		"2 Jan 2006 15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
