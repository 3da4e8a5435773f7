package filter

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/phish-filter/internal/core"
)

func readMessage(t *testing.T, raw string) *mail.Message {
	t.Helper()
	msg, err := mail.ReadMessage(strings.NewReader(raw))
	require.NoError(t, err)
	return msg
}

func TestExtractTextFromPlainMessage(t *testing.T) {
	msg := readMessage(t, "Subject: hi\r\n\r\nVisit https://example.com\r\n")

	text, err := extractTextFromMessage(msg)
	require.NoError(t, err)
	assert.Contains(t, text, "Visit https://example.com")
}

func TestExtractTextFromMultipartMessage(t *testing.T) {
	raw := "Content-Type: multipart/mixed; boundary=outer\r\n\r\n" +
		"--outer\r\n" +
		"Content-Type: multipart/alternative; boundary=inner\r\n\r\n" +
		"--inner\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n\r\n" +
		"Verify your account=20now\r\n" +
		"--inner\r\n" +
		"Content-Type: text/html\r\n\r\n" +
		"<html><body><p>Your account</p><a href=\"http://evil.tk/login\">https://paypal.com</a></body></html>\r\n" +
		"--inner--\r\n" +
		"--outer\r\n" +
		"Content-Type: application/pdf\r\n\r\n" +
		"%PDF-1.4\r\n" +
		"--outer\r\n" +
		"Content-Type: text/plain\r\n" +
		"Content-Transfer-Encoding: base64\r\n\r\n" +
		"aHR0cHM6Ly9leGFt\r\ncGxlLmNvbQ==\r\n" +
		"--outer--\r\n"

	text, err := extractTextFromMessage(readMessage(t, raw))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(text, "http://evil.tk/login\n"))
	assert.Contains(t, text, "Verify your account now")
	assert.Contains(t, text, "Your account https://paypal.com")
	assert.Contains(t, text, "https://example.com")
	assert.NotContains(t, text, "%PDF")
}

func TestDecodeEncodedHeader(t *testing.T) {
	decoded, err := decodeEncodedHeader("=?UTF-8?B?VXJnZW50OiB2ZXJpZnk=?= now")
	require.NoError(t, err)
	assert.Equal(t, "Urgent: verify now", decoded)

	plain, err := decodeEncodedHeader("plain subject")
	require.NoError(t, err)
	assert.Equal(t, "plain subject", plain)
}

func TestExtractTextPutsLinkTargetsFirst(t *testing.T) {
	raw := "Content-Type: text/html\r\n\r\n" +
		"<p>Sign in at <a href=\"http://login.paypa1.com\">https://www.paypal.com</a></p><style>p{}</style>\r\n"

	text, err := extractTextFromMessage(readMessage(t, raw))
	require.NoError(t, err)

	url, ok := core.ExtractURL(text)
	require.True(t, ok)
	assert.Equal(t, "http://login.paypa1.com", url)
	assert.NotContains(t, text, "p{}")
}

func TestExtractTextPrefersHTMLLinksOverPlainAlternative(t *testing.T) {
	raw := "Content-Type: multipart/alternative; boundary=alt\r\n\r\n" +
		"--alt\r\n" +
		"Content-Type: text/plain\r\n\r\n" +
		"Sign in at https://www.paypal.com to keep your account\r\n" +
		"--alt\r\n" +
		"Content-Type: text/html\r\n\r\n" +
		"<p>Sign in at <a href=\"http://paypal-login.example.tk/verify\">https://www.paypal.com</a></p>\r\n" +
		"--alt--\r\n"

	text, err := extractTextFromMessage(readMessage(t, raw))
	require.NoError(t, err)

	url, ok := core.ExtractURL(text)
	require.True(t, ok)
	assert.Equal(t, "http://paypal-login.example.tk/verify", url)
	assert.Contains(t, text, "Sign in at https://www.paypal.com to keep your account")
}
