package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	goimap "github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/opentracing/opentracing-go"
	olog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/receiptops/receiptstack/dto"
	"github.com/receiptops/receiptstack/interfaces"
	"github.com/receiptops/receiptstack/internal/logger"
	"github.com/receiptops/receiptstack/internal/tracing"
	"github.com/receiptops/receiptstack/services/processor"
)

const (
	dialTimeout  = 30 * time.Second
	loginTimeout = 30 * time.Second

	// fetchBatchSize caps how many unseen messages one cycle drains.
	fetchBatchSize = 50
)

// imapPoller drains unseen messages from a single configured mailbox.
// Credentials live in the settings store and are re-read at the start of
// every cycle, so credential changes apply without a restart.
type imapPoller struct {
	log          logger.Logger
	settingsRepo interfaces.SettingsRepository
	senderRepo   interfaces.AllowedSenderRepository
	processor    interfaces.EmailProcessor

	polling  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewIMAPPoller(
	log logger.Logger,
	settingsRepo interfaces.SettingsRepository,
	senderRepo interfaces.AllowedSenderRepository,
	emailProcessor interfaces.EmailProcessor,
) interfaces.IMAPPoller {
	return &imapPoller{
		log:          log,
		settingsRepo: settingsRepo,
		senderRepo:   senderRepo,
		processor:    emailProcessor,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

func (s *imapPoller) Start(ctx context.Context) error {
	go s.loop(ctx)
	return nil
}

func (s *imapPoller) Stop() error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	select {
	case <-s.doneCh:
	case <-time.After(10 * time.Second):
		return errors.New("imap poller did not stop in time")
	}
	return nil
}

func (s *imapPoller) loop(ctx context.Context) {
	defer close(s.doneCh)

	for {
		interval := s.runCycle(ctx)

		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-time.After(interval):
		}
	}
}

// runCycle executes one poll and returns how long to sleep before the next.
// The interval comes from settings, so an admin change takes effect on the
// following cycle.
func (s *imapPoller) runCycle(ctx context.Context) time.Duration {
	settings, err := s.settingsRepo.IMAPSettings(ctx)
	if err != nil {
		s.log.Errorf("failed to load imap settings: %v", err)
		return time.Minute
	}

	if settings.Configured() {
		s.PollNow(ctx)
	}
	return settings.PollInterval
}

func (s *imapPoller) PollNow(ctx context.Context) {
	// Single-flight: a slow cycle must never stack a second one on top.
	if !s.polling.CompareAndSwap(false, true) {
		s.log.Debug("imap poll already in flight, skipping")
		return
	}
	defer s.polling.Store(false)

	span, ctx := opentracing.StartSpanFromContext(ctx, "imapPoller.PollNow")
	defer span.Finish()
	tracing.TagComponentIMAPPoller(span)

	settings, err := s.settingsRepo.IMAPSettings(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		s.log.Errorf("failed to load imap settings: %v", err)
		return
	}
	if !settings.Configured() {
		span.LogFields(olog.String("result", "not configured"))
		return
	}

	count, err := s.pollMailbox(ctx, settings)
	if err != nil {
		tracing.TraceErr(span, err)
		s.log.Errorf("imap poll failed: %v", err)
		return
	}
	if count > 0 {
		s.log.Infof("imap poll fetched %d new messages", count)
	}
	span.LogFields(olog.Int("fetched", count))
}

func (s *imapPoller) pollMailbox(ctx context.Context, settings *dto.IMAPSettings) (int, error) {
	c, err := s.connect(ctx, settings)
	if err != nil {
		return 0, err
	}
	defer c.Logout()

	if _, err := c.Select(settings.Mailbox, false); err != nil {
		return 0, errors.Wrapf(err, "failed to select mailbox %s", settings.Mailbox)
	}

	criteria := goimap.NewSearchCriteria()
	criteria.WithoutFlags = []string{goimap.SeenFlag}
	uids, err := c.Search(criteria)
	if err != nil {
		return 0, errors.Wrap(err, "unseen search failed")
	}
	if len(uids) == 0 {
		return 0, nil
	}
	if len(uids) > fetchBatchSize {
		uids = uids[:fetchBatchSize]
	}

	seqSet := new(goimap.SeqSet)
	seqSet.AddNum(uids...)

	// Fetching the body without Peek marks the messages seen, which is the
	// dedup backstop if processing dies before the database insert.
	section := &goimap.BodySectionName{}
	items := []goimap.FetchItem{section.FetchItem()}

	messages := make(chan *goimap.Message, len(uids))
	fetchErr := make(chan error, 1)
	go func() {
		fetchErr <- c.Fetch(seqSet, items, messages)
	}()

	count := 0
	for msg := range messages {
		raw := readMessageBody(msg, section)
		if len(raw) == 0 {
			s.log.Warnf("imap message %d had no readable body", msg.SeqNum)
			continue
		}
		if s.handleMessage(ctx, raw) {
			count++
		}
	}

	if err := <-fetchErr; err != nil {
		return count, errors.Wrap(err, "fetch failed")
	}
	return count, nil
}

// handleMessage parses one raw message, enforces the sender allow-list and
// feeds the pipeline. Returns true when the message was accepted.
func (s *imapPoller) handleMessage(ctx context.Context, raw []byte) bool {
	span, ctx := opentracing.StartSpanFromContext(ctx, "imapPoller.handleMessage")
	defer span.Finish()
	tracing.TagComponentIMAPPoller(span)

	msg, err := processor.ParseInboundMessage(raw)
	if err != nil {
		tracing.TraceErr(span, err)
		s.log.Warnf("failed to parse polled message: %v", err)
		return false
	}

	allowed, err := s.senderRepo.IsAllowed(ctx, msg.FromAddress)
	if err != nil {
		tracing.TraceErr(span, err)
		s.log.Errorf("allow-list check failed for %s: %v", msg.FromAddress, err)
		return false
	}
	if !allowed {
		s.log.Infof("ignoring polled message from unauthorized sender %s", msg.FromAddress)
		span.LogFields(olog.String("result", "sender not allowed"))
		return false
	}

	if err := s.processor.ProcessEmail(ctx, msg); err != nil {
		tracing.TraceErr(span, err)
		s.log.Errorf("failed to process polled message from %s: %v", msg.FromAddress, err)
		return false
	}
	return true
}

func (s *imapPoller) connect(ctx context.Context, settings *dto.IMAPSettings) (*client.Client, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "imapPoller.connect")
	defer span.Finish()
	tracing.TagComponentIMAPPoller(span)
	span.SetTag("server", settings.Host)
	span.SetTag("port", settings.Port)

	serverAddr := fmt.Sprintf("%s:%d", settings.Host, settings.Port)
	dialer := &net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: 30 * time.Second,
	}

	c, err := client.DialWithDialerTLS(dialer, serverAddr, &tls.Config{ServerName: settings.Host})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(err, "failed to connect to %s", serverAddr)
	}

	c.Timeout = loginTimeout
	if err := c.Login(settings.Username, settings.Password); err != nil {
		c.Logout()
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(err, "failed to login as %s", settings.Username)
	}
	c.Timeout = 0

	return c, nil
}

func readMessageBody(msg *goimap.Message, section *goimap.BodySectionName) []byte {
	literal := msg.GetBody(section)
	if literal == nil {
		return nil
	}
	data, err := io.ReadAll(literal)
	if err != nil {
		return nil
	}
	return data
}
