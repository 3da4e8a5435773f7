package filter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mikey/phish-filter/internal/config"
	"github.com/mikey/phish-filter/internal/core"
	"github.com/mikey/phish-filter/internal/utils"
	"github.com/mikey/phish-filter/internal/whitelist"
)

const (
	statusPhishing    = "phishing"
	statusClean       = "clean"
	statusWhitelisted = "whitelisted"
	statusError       = "error"

	analysisTimeout = 30 * time.Second
)

// errRejected is wrapped into the SMTP reply when a phishing message is refused
var errRejected = errors.New("message rejected as phishing")

// PostfixFilter implements a Postfix content filter. Mail arrives over SMTP, its text is
// analyzed as a message, verdict headers are prepended and the result is re-injected into
// Postfix on the return port.
type PostfixFilter struct {
	analyzer      Analyzer
	textProcessor *utils.TextProcessor
	whitelist     *whitelist.Checker
	logger        *zap.Logger
	cfg           config.SMTPConfig
	server        *smtp.Server
	deliver       func(sender string, recipients []string, data []byte) error
}

// NewPostfixFilter creates a new Postfix content filter
func NewPostfixFilter(
	analyzer Analyzer,
	textProcessor *utils.TextProcessor,
	checker *whitelist.Checker,
	logger *zap.Logger,
	cfg config.SMTPConfig,
) *PostfixFilter {
	if cfg.SubjectPrefix == "" && cfg.ModifySubject {
		cfg.SubjectPrefix = "[PHISHING] "
	}

	f := &PostfixFilter{
		analyzer:      analyzer,
		textProcessor: textProcessor,
		whitelist:     checker,
		logger:        logger,
		cfg:           cfg,
	}
	f.deliver = f.sendToPostfix
	return f
}

// Start starts the SMTP listener in the background
func (f *PostfixFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})

	f.server.Addr = f.cfg.ListenAddress
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024
	f.server.MaxRecipients = 50

	f.logger.Info("Postfix filter starting", zap.String("address", f.cfg.ListenAddress))

	go func() {
		if err := f.server.ListenAndServe(); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the SMTP listener
func (f *PostfixFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// Process analyzes a raw message and returns it with verdict headers. A phishing message
// yields errRejected when blocking is enabled.
func (f *PostfixFilter) Process(ctx context.Context, sender string, raw []byte) ([]byte, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse email message: %w", err)
	}

	subject := msg.Header.Get("Subject")
	if decoded, err := decodeEncodedHeader(subject); err == nil {
		subject = decoded
	}

	// Only the envelope sender counts; the From header is free text any sender controls
	if f.whitelist != nil && f.whitelist.IsWhitelisted(sender) {
		f.logger.Debug("Skipping analysis for whitelisted sender", zap.String("sender", sender))
		return f.rewrite(raw, verdictHeaders{status: statusWhitelisted}, ""), nil
	}

	text, err := extractTextFromMessage(msg)
	if err != nil {
		f.logger.Warn("Failed to extract text content", zap.Error(err))
	}
	text = f.textProcessor.ProcessText(subject+"\n"+text, f.cfg.MaxBodySize)

	ctx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()

	report, err := f.analyzer.Analyze(ctx, core.AnalysisInput{Message: text})
	if err != nil {
		f.logger.Error("Failed to analyze email", zap.Error(err), zap.String("sender", sender))
		return f.rewrite(raw, verdictHeaders{status: statusError, reasons: err.Error()}, ""), nil
	}

	result := report.Result
	f.logger.Info("Processed email",
		zap.String("request_id", report.RequestID),
		zap.String("sender", sender),
		zap.Bool("is_phishing", result.IsPhishing),
		zap.Float64("risk_score", result.RiskScore))

	if result.IsPhishing && f.cfg.BlockPhishing {
		return nil, fmt.Errorf("%w (score: %.2f)", errRejected, result.RiskScore)
	}

	headers := verdictHeaders{
		status:  statusClean,
		score:   fmt.Sprintf("%.2f", result.RiskScore),
		reasons: strings.Join(result.Reasons, "; "),
	}
	newSubject := ""
	if result.IsPhishing {
		headers.status = statusPhishing
		if f.cfg.ModifySubject && !strings.HasPrefix(subject, f.cfg.SubjectPrefix) {
			newSubject = f.cfg.SubjectPrefix + subject
		}
	}

	return f.rewrite(raw, headers, newSubject), nil
}

type verdictHeaders struct {
	status  string
	score   string
	reasons string
}

// rewrite prepends the verdict headers and, when newSubject is set, replaces the Subject
// header. The original header order and body bytes are preserved.
func (f *PostfixFilter) rewrite(raw []byte, headers verdictHeaders, newSubject string) []byte {
	var out bytes.Buffer

	fmt.Fprintf(&out, "%s: %s\r\n", f.cfg.StatusHeader, headers.status)
	if headers.score != "" {
		fmt.Fprintf(&out, "%s: %s\r\n", f.cfg.ScoreHeader, headers.score)
	}
	if headers.reasons != "" {
		fmt.Fprintf(&out, "%s: %s\r\n", f.cfg.ReasonsHeader, headerSafe(headers.reasons))
	}

	head, body := splitMessage(raw)
	if newSubject == "" {
		out.Write(head)
	} else {
		out.Write(replaceSubject(head, mime.QEncoding.Encode("utf-8", newSubject)))
	}
	out.Write(body)

	return out.Bytes()
}

// splitMessage returns the header block including its terminating blank line, and the body
func splitMessage(raw []byte) ([]byte, []byte) {
	if i := bytes.Index(raw, []byte("\r\n\r\n")); i >= 0 {
		return raw[:i+4], raw[i+4:]
	}
	if i := bytes.Index(raw, []byte("\n\n")); i >= 0 {
		return raw[:i+2], raw[i+2:]
	}
	return raw, nil
}

func replaceSubject(head []byte, subject string) []byte {
	lines := bytes.SplitAfter(head, []byte("\n"))
	var out bytes.Buffer
	replaced := false
	skipping := false

	for _, line := range lines {
		if skipping && len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
			continue
		}
		skipping = false

		if !replaced && len(line) >= 8 && strings.EqualFold(string(line[:8]), "subject:") {
			fmt.Fprintf(&out, "Subject: %s\r\n", subject)
			replaced = true
			skipping = true
			continue
		}
		if !replaced && (bytes.Equal(line, []byte("\r\n")) || bytes.Equal(line, []byte("\n"))) {
			fmt.Fprintf(&out, "Subject: %s\r\n", subject)
			replaced = true
		}
		out.Write(line)
	}

	return out.Bytes()
}

func headerSafe(value string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(value)
}

// sendToPostfix sends the processed email back to Postfix on the configured port
func (f *PostfixFilter) sendToPostfix(sender string, recipients []string, emailData []byte) error {
	postfixAddr := net.JoinHostPort(f.cfg.PostfixAddress, fmt.Sprint(f.cfg.PostfixPort))

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", postfixAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to Postfix: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			continue
		}
		recipientOK = true
	}

	if !recipientOK {
		return errors.New("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}

	if _, err := wc.Write(emailData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}

	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	// The message is already queued at this point
	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *PostfixFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{filter: b.filter}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *PostfixFilter
	sender     string
	recipients []string
}

func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data analyzes the message and forwards it, or rejects it with a permanent failure
func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	processed, err := s.filter.Process(context.Background(), s.sender, raw)
	if errors.Is(err, errRejected) {
		s.filter.logger.Info("Rejecting phishing email", zap.String("sender", s.sender), zap.Error(err))
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      err.Error(),
		}
	}
	if err != nil {
		s.filter.logger.Error("Failed to process email", zap.Error(err))
		return err
	}

	if !s.filter.cfg.PostfixEnabled {
		s.filter.logger.Warn("Postfix forwarding disabled, message dropped after analysis")
		return nil
	}

	if err := s.filter.deliver(s.sender, s.recipients, processed); err != nil {
		s.filter.logger.Error("Failed to send email back to Postfix",
			zap.Error(err),
			zap.String("sender", s.sender))
		return err
	}

	return nil
}

func (s *smtpSession) Logout() error {
	return nil
}
