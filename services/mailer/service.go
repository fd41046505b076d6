package mailer

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"

	"github.com/receiptops/receiptstack/config"
	"github.com/receiptops/receiptstack/interfaces"
	"github.com/receiptops/receiptstack/internal/tracing"
)

var ErrNotConfigured = errors.New("outbound SMTP not configured")

type mailerService struct {
	cfg *config.SMTPOutConfig
}

func NewMailerService(cfg *config.SMTPOutConfig) interfaces.MailerService {
	return &mailerService{cfg: cfg}
}

func (s *mailerService) configured() bool {
	return s.cfg.Host != "" && s.cfg.Username != "" && s.cfg.Password != "" && s.cfg.From != ""
}

func (s *mailerService) SendReply(ctx context.Context, to, subject, inReplyTo, html string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailerService.SendReply")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if subject == "" {
		subject = "Your Receipt"
	}

	var headers map[string][]string
	if inReplyTo != "" {
		headers = map[string][]string{
			"In-Reply-To": {inReplyTo},
			"References":  {inReplyTo},
		}
	}
	return s.send(ctx, span, to, "Re: "+subject, html, headers)
}

func (s *mailerService) Send(ctx context.Context, to, subject, html string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailerService.Send")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	return s.send(ctx, span, to, subject, html, nil)
}

func (s *mailerService) send(_ context.Context, span opentracing.Span, to, subject, html string, headers map[string][]string) error {
	span.LogFields(log.String("to", to), log.String("subject", subject))

	if !s.configured() {
		span.LogFields(log.String("result", "skipped, smtp not configured"))
		return ErrNotConfigured
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	for name, values := range headers {
		m.SetHeader(name, values...)
	}
	m.SetBody("text/html", html)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to send email")
	}
	return nil
}

