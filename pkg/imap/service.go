// Package imap fetches a mailbox in one batch pass so an archive that
// lives on an IMAP server can be ingested without exporting an mbox
// file first.
package imap

import (
	"fmt"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"go.uber.org/zap"

	"aikb-backend/pkg/mbox"
)

type Service struct {
	logger *zap.Logger
}

func NewService(logger *zap.Logger) *Service {
	return &Service{logger: logger}
}

// FetchMailbox downloads every message in the mailbox and normalizes
// it with the same parser the mbox reader uses. Individual messages
// that fail to parse are logged and skipped.
func (s *Service) FetchMailbox(server string, port int, username, password, mailboxName string) ([]mbox.RawEmail, error) {
	c, err := client.DialTLS(fmt.Sprintf("%s:%d", server, port), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}
	defer c.Logout()

	if err := c.Login(username, password); err != nil {
		return nil, fmt.Errorf("IMAP login failed: %w", err)
	}

	mb, err := c.Select(mailboxName, true)
	if err != nil {
		return nil, fmt.Errorf("failed to select mailbox %s: %w", mailboxName, err)
	}
	if mb.Messages == 0 {
		return nil, nil
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddRange(1, mb.Messages)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem()}

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqSet, items, messages)
	}()

	var emails []mbox.RawEmail
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}

		email, err := mbox.ParseMessage(body)
		if err != nil {
			s.logger.Warn("skipping malformed IMAP message",
				zap.Uint32("seq", msg.SeqNum),
				zap.Error(err))
			continue
		}
		if email.Subject == "" && email.Body == "" {
			continue
		}
		emails = append(emails, email)
	}

	if err := <-done; err != nil {
		return emails, fmt.Errorf("IMAP fetch failed: %w", err)
	}

	s.logger.Info("fetched mailbox",
		zap.String("mailbox", mailboxName),
		zap.Int("messages", len(emails)))
	return emails, nil
}
