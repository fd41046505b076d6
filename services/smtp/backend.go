package smtp

import (
	"time"

	"github.com/emersion/go-smtp"

	"github.com/receiptops/receiptstack/config"
	"github.com/receiptops/receiptstack/interfaces"
	"github.com/receiptops/receiptstack/internal/logger"
)

const (
	defaultMaxMessageBytes = 25 * 1024 * 1024
	defaultReadTimeout     = 60 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	maxLineLength          = 2000
)

// Backend accepts inbound receipt mail. There is no mailbox store behind it:
// accepted messages go straight into the processing pipeline.
type Backend struct {
	log        logger.Logger
	cfg        *config.SMTPServerConfig
	senderRepo interfaces.AllowedSenderRepository
	processor  interfaces.EmailProcessor
}

func NewBackend(
	log logger.Logger,
	cfg *config.SMTPServerConfig,
	senderRepo interfaces.AllowedSenderRepository,
	emailProcessor interfaces.EmailProcessor,
) *Backend {
	return &Backend{
		log:        log,
		cfg:        cfg,
		senderRepo: senderRepo,
		processor:  emailProcessor,
	}
}

func (b *Backend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	b.log.Debugf("new smtp connection from %s", c.Conn().RemoteAddr())
	return newSession(b), nil
}

// NewServer wraps the backend in a configured go-smtp server.
func NewServer(backend *Backend, cfg *config.SMTPServerConfig) *smtp.Server {
	s := smtp.NewServer(backend)

	s.Addr = cfg.ListenAddr
	s.Domain = cfg.Domain
	s.ReadTimeout = defaultReadTimeout
	s.WriteTimeout = defaultWriteTimeout
	s.MaxLineLength = maxLineLength

	s.MaxMessageBytes = cfg.MaxMessageBytes
	if s.MaxMessageBytes <= 0 {
		s.MaxMessageBytes = defaultMaxMessageBytes
	}

	return s
}
