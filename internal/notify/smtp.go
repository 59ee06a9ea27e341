package notify

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

const implicitTLSPort = 465

// SMTPNotifier sends with PLAIN auth. Port 465 uses implicit TLS, any other
// port must offer STARTTLS.
type SMTPNotifier struct {
	Server   string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

func (n SMTPNotifier) Send(ctx context.Context, msg Message) error {
	m, err := newMessage(n.Username, msg)
	if err != nil {
		return err
	}
	c, err := n.client()
	if err != nil {
		return err
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send to %v: %w", msg.To, err)
	}
	return nil
}

func (n SMTPNotifier) client() (*mail.Client, error) {
	timeout := n.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	port := n.Port
	if port == 0 {
		port = implicitTLSPort
	}
	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.Username),
		mail.WithPassword(n.Password),
		mail.WithTimeout(timeout),
	}
	if port == implicitTLSPort {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	c, err := mail.NewClient(n.Server, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client %s: %w", n.Server, err)
	}
	return c, nil
}

// Compose renders the message as it goes on the wire.
func Compose(from string, msg Message) ([]byte, error) {
	m, err := newMessage(from, msg)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("render message: %w", err)
	}
	return buf.Bytes(), nil
}

func newMessage(from string, msg Message) (*mail.Msg, error) {
	if len(msg.To) == 0 {
		return nil, ErrNoRecipients
	}
	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("sender %q: %w", from, err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("recipients: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	for _, a := range msg.Attachments {
		ct := a.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		if err := m.AttachReader(a.Filename, bytes.NewReader(a.Data), mail.WithFileContentType(mail.ContentType(ct))); err != nil {
			return nil, fmt.Errorf("attach %s: %w", a.Filename, err)
		}
	}
	return m, nil
}
