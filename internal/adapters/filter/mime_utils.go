package filter

import (
	"bytes"
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxMIMEDepth bounds recursion into nested multipart bodies
const maxMIMEDepth = 5

var headerDecoder = &mime.WordDecoder{}

// decodeEncodedHeader decodes RFC 2047 encoded words such as =?UTF-8?B?...?=
func decodeEncodedHeader(value string) (string, error) {
	return headerDecoder.DecodeHeader(value)
}

// extracted accumulates the link targets of every HTML part separately from the text
type extracted struct {
	links bytes.Buffer
	text  bytes.Buffer
}

func (e *extracted) empty() bool {
	return e.links.Len() == 0 && e.text.Len() == 0
}

// extractTextFromMessage collects the text content of an email message. The link targets
// of all HTML parts come first, ahead of any plain text, so a URL displayed in a
// text/plain alternative cannot mask where the HTML links actually go.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	var out extracted
	header := textproto.MIMEHeader(msg.Header)
	if err := collectText(&out, header, msg.Body, 0); err != nil {
		return "", err
	}
	return out.links.String() + out.text.String(), nil
}

func collectText(out *extracted, header textproto.MIMEHeader, body io.Reader, depth int) error {
	mediaType, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		// Untyped or unparseable bodies are treated as plain text
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" || depth >= maxMIMEDepth {
			return nil
		}
		return collectParts(out, multipart.NewReader(body, boundary), depth)
	}

	if !strings.HasPrefix(mediaType, "text/") {
		// Attachments are not analyzed
		return nil
	}

	content, err := io.ReadAll(decodeTransfer(header.Get("Content-Transfer-Encoding"), body))
	if err != nil {
		return err
	}
	if mediaType == "text/html" {
		return writeHTML(out, content)
	}
	out.text.Write(content)
	out.text.WriteString("\n")
	return nil
}

// writeHTML records the href of every link and the document text. The link target, not
// the anchor text, is where a click actually goes.
func writeHTML(out *extracted, content []byte) error {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return err
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && strings.TrimSpace(href) != "" {
			out.links.WriteString(strings.TrimSpace(href))
			out.links.WriteString("\n")
		}
	})

	var words []string
	collectHTMLWords(doc.Selection, &words)
	out.text.WriteString(strings.Join(words, " "))
	out.text.WriteString("\n")
	return nil
}

// collectHTMLWords gathers text nodes in document order, skipping script and style bodies
func collectHTMLWords(s *goquery.Selection, words *[]string) {
	s.Contents().Each(func(_ int, child *goquery.Selection) {
		switch goquery.NodeName(child) {
		case "#text":
			*words = append(*words, strings.Fields(child.Text())...)
		case "script", "style":
		default:
			collectHTMLWords(child, words)
		}
	})
}

func collectParts(out *extracted, mr *multipart.Reader, depth int) error {
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			// A truncated multipart body keeps whatever was read so far
			if !out.empty() {
				return nil
			}
			return err
		}

		// multipart.Reader already strips quoted-printable encoding
		if err := collectText(out, part.Header, part, depth+1); err != nil {
			continue
		}
	}
}

func decodeTransfer(encoding string, body io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, &newlineStripper{r: body})
	case "quoted-printable":
		return quotedprintable.NewReader(body)
	default:
		return body
	}
}

// newlineStripper removes line breaks so base64 bodies wrapped at 76 columns decode
type newlineStripper struct {
	r io.Reader
}

func (n *newlineStripper) Read(p []byte) (int, error) {
	for {
		count, err := n.r.Read(p)
		kept := 0
		for _, b := range p[:count] {
			if b != '\r' && b != '\n' {
				p[kept] = b
				kept++
			}
		}
		if kept > 0 || err != nil {
			return kept, err
		}
	}
}
