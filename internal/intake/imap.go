package intake

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"
	log "github.com/sirupsen/logrus"
)

// IMAPMailbox reads report submissions from an IMAP folder.
type IMAPMailbox struct {
	host     string
	port     string
	username string
	password string
	folder   string
	tls      bool
}

// NewIMAPMailbox creates a mailbox client. An empty folder means INBOX.
func NewIMAPMailbox(host, port, username, password, folder string, tls bool) *IMAPMailbox {
	if folder == "" {
		folder = "INBOX"
	}
	return &IMAPMailbox{
		host:     host,
		port:     port,
		username: username,
		password: password,
		folder:   folder,
		tls:      tls,
	}
}

// connect dials, authenticates and selects the folder. The caller must
// log out of the returned client.
func (m *IMAPMailbox) connect() (*imapclient.Client, error) {
	addr := m.host + ":" + m.port

	var client *imapclient.Client
	var err error
	if m.tls {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(m.username, m.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("authenticating %s: %w", m.username, err)
	}

	if _, err := client.Select(m.folder, nil).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("selecting %s: %w", m.folder, err)
	}
	return client, nil
}

// FetchUnseen returns every unseen message with its attachments. The
// messages stay unseen until MarkSeen.
func (m *IMAPMailbox) FetchUnseen(ctx context.Context) ([]Message, error) {
	client, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	searchData, err := client.UIDSearch(&imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
	}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching unseen messages: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchCmd := client.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		Envelope:    true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	})
	defer fetchCmd.Close()

	var messages []Message
	for {
		if ctx.Err() != nil {
			return messages, ctx.Err()
		}

		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			log.WithError(err).WithField("seq", msg.SeqNum).Warn("reading submission from mailbox")
			continue
		}

		parsed, ok := messageFromBuffer(buf, bodySection)
		if !ok {
			continue
		}
		messages = append(messages, parsed)
	}

	if err := fetchCmd.Close(); err != nil {
		return messages, fmt.Errorf("fetching messages: %w", err)
	}
	return messages, nil
}

// messageFromBuffer converts a fetched message. Messages whose body cannot
// be parsed are logged and skipped; they stay unseen.
func messageFromBuffer(buf *imapclient.FetchMessageBuffer, section *imap.FetchItemBodySection) (Message, bool) {
	parsed := Message{UID: uint32(buf.UID)}
	if buf.Envelope != nil {
		parsed.Subject = buf.Envelope.Subject
		parsed.Date = buf.Envelope.Date
		if len(buf.Envelope.From) > 0 {
			parsed.From = buf.Envelope.From[0].Addr()
		}
	}

	raw := buf.FindBodySection(section)
	if raw == nil {
		return parsed, true
	}
	attachments, err := parseAttachments(raw)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"uid":  parsed.UID,
			"from": parsed.From,
		}).Warn("parsing submission attachments")
		return Message{}, false
	}
	parsed.Attachments = attachments
	return parsed, true
}

// MarkSeen flags a message as seen so it is not imported again.
func (m *IMAPMailbox) MarkSeen(_ context.Context, uid uint32) error {
	client, err := m.connect()
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	storeCmd := client.Store(imap.UIDSetNum(imap.UID(uid)), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)
	if err := storeCmd.Close(); err != nil {
		return fmt.Errorf("marking message %d seen: %w", uid, err)
	}
	return nil
}

// parseAttachments reads a raw RFC 5322 message and returns its
// attachments with their content.
func parseAttachments(raw []byte) ([]Attachment, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing message: %w", err)
	}
	defer mr.Close()

	var attachments []Attachment
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return attachments, fmt.Errorf("reading message part: %w", err)
		}

		h, ok := part.Header.(*mail.AttachmentHeader)
		if !ok {
			continue
		}

		filename, _ := h.Filename()
		contentType, _, _ := h.ContentType()
		data, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}

		attachments = append(attachments, Attachment{
			Filename: strings.TrimSpace(filename),
			MIMEType: contentType,
			Data:     data,
		})
	}
	return attachments, nil
}
