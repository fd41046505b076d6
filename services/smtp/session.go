package smtp

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"
	"strings"

	"github.com/emersion/go-smtp"
	"github.com/opentracing/opentracing-go"
	olog "github.com/opentracing/opentracing-go/log"

	"github.com/receiptops/receiptstack/dto"
	"github.com/receiptops/receiptstack/internal/tracing"
	"github.com/receiptops/receiptstack/internal/utils"
	"github.com/receiptops/receiptstack/services/processor"
)

// session handles one SMTP transaction. The sender allow-list is enforced at
// MAIL FROM, so unauthorized senders are refused before any data transfer.
type session struct {
	backend *Backend
	from    string
	accepts bool
}

func newSession(backend *Backend) *session {
	return &session{backend: backend}
}

func (s *session) Mail(from string, opts *smtp.MailOptions) error {
	sender := utils.NormalizeEmailAddress(from)

	allowed, err := s.backend.senderRepo.IsAllowed(context.Background(), sender)
	if err != nil {
		s.backend.log.Errorf("allow-list check failed for %s: %v", sender, err)
		return &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 3, 0},
			Message:      "Temporary error",
		}
	}
	if !allowed {
		s.backend.log.Infof("rejected smtp sender %s", sender)
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      "Sender not authorized",
		}
	}

	s.from = sender
	return nil
}

func (s *session) Rcpt(to string, opts *smtp.RcptOptions) error {
	recipient := utils.NormalizeEmailAddress(to)
	if !strings.HasPrefix(recipient, s.backend.cfg.RecipientPrefix) {
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 1, 1},
			Message:      "Recipient not accepted",
		}
	}
	s.accepts = true
	return nil
}

func (s *session) Data(r io.Reader) error {
	if !s.accepts {
		return &smtp.SMTPError{
			Code:         503,
			EnhancedCode: smtp.EnhancedCode{5, 5, 1},
			Message:      "No valid recipients",
		}
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 3, 0},
			Message:      "Failed to read message",
		}
	}

	msg, err := processor.ParseInboundMessage(raw)
	if err != nil {
		s.backend.log.Warnf("failed to parse inbound message from %s: %v", s.from, err)
		return &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 6, 0},
			Message:      "Failed to parse message",
		}
	}
	if msg.FromAddress == "" {
		msg.FromAddress = s.from
	}

	// Accept the message now and process detached: analysis can take
	// longer than any reasonable SMTP timeout.
	go s.processDetached(msg)

	return nil
}

func (s *session) processDetached(msg *dto.InboundMessage) {
	defer s.recoverPanic("smtp_data_processing")

	span := opentracing.GlobalTracer().StartSpan("smtpSession.processDetached")
	defer span.Finish()
	tracing.TagComponentSMTPServer(span)
	ctx := opentracing.ContextWithSpan(context.Background(), span)

	if err := s.backend.processor.ProcessEmail(ctx, msg); err != nil {
		tracing.TraceErr(span, err)
		s.backend.log.Errorf("failed to process message from %s: %v", msg.FromAddress, err)
	}
}

func (s *session) Reset() {
	s.from = ""
	s.accepts = false
}

func (s *session) Logout() error {
	return nil
}

func (s *session) recoverPanic(name string) {
	if r := recover(); r != nil {
		span := opentracing.GlobalTracer().StartSpan("panic." + name)
		defer span.Finish()
		tracing.TagComponentSMTPServer(span)
		span.LogFields(
			olog.String("event", "panic"),
			olog.String("error", fmt.Sprintf("%v", r)),
			olog.String("stack", string(debug.Stack())),
		)
		s.backend.log.Errorf("panic in %s: %v", name, r)
	}
}
