// Package notify delivers the run workbooks by e-mail.
package notify

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/report"
)

var ErrNoRecipients = errors.New("message has no recipients")

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Message struct {
	To          []string
	Subject     string
	Body        string
	Attachments []Attachment
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier only logs what would be sent. It backs the "teste" mode and
// deployments without SMTP credentials.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n LogNotifier) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	names := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		names = append(names, a.Filename)
	}
	n.Logger.Info().
		Strs("to", msg.To).
		Str("subject", msg.Subject).
		Strs("attachments", names).
		Msg("e-mail not sent (test mode)")
	return nil
}

type Delivery string

const (
	DeliveryManagers Delivery = "gestores"
	DeliveryAll      Delivery = "todos"
)

const (
	managersSubject = "Planilhas Gerais e Individuais de Processos"
	managersBody    = "Prezado(a) Gestor(a),\n\n" +
		"Seguem anexas as planilhas:\n" +
		"- Geral de Processos Pré-Atribuídos\n" +
		"- Geral de Processos Principais\n" +
		"- ZIP com todas as planilhas individuais\n\n" +
		"Atenciosamente,\nGestão da 3ª CAP"
	reviewerBody = "Prezado(a) Informante,\n\n" +
		"Seguem anexas as planilhas referentes à distribuição de processos:\n\n" +
		"• Pré-Atribuídos: vinculados a você no sistema (andamento/conclusão).\n" +
		"• Principais: novos processos distribuídos.\n\n" +
		"Atenciosamente,\nGestão da 3ª CAP"
)

// Plan builds the messages for a bundle. Managers get both general tables and
// the zip of individual files; with DeliveryAll every reviewer that has an
// e-mail also gets their own pre-assigned and principal files.
func Plan(b report.Bundle, managers []string, emails map[string]string, delivery Delivery) ([]Message, error) {
	var out []Message
	if len(managers) > 0 {
		msg := Message{To: managers, Subject: managersSubject, Body: managersBody}
		for _, kind := range []report.Kind{report.KindPreGeneral, report.KindPrincipalGeneral} {
			if f, ok := b.Find(kind, ""); ok {
				msg.Attachments = append(msg.Attachments, xlsx(f))
			}
		}
		z, err := b.IndividualsZip()
		if err != nil {
			return nil, err
		}
		msg.Attachments = append(msg.Attachments, Attachment{Filename: z.Name, ContentType: report.ContentTypeZip, Data: z.Data})
		out = append(out, msg)
	}

	if delivery != DeliveryAll {
		return out, nil
	}
	for _, reviewer := range b.Reviewers() {
		email := emails[reviewer]
		if email == "" {
			continue
		}
		msg := Message{To: []string{email}, Subject: "Distribuição de Processos - " + reviewer, Body: reviewerBody}
		for _, kind := range []report.Kind{report.KindPreReviewer, report.KindPrincipalReviewer} {
			if f, ok := b.Find(kind, reviewer); ok {
				msg.Attachments = append(msg.Attachments, xlsx(f))
			}
		}
		out = append(out, msg)
	}
	return out, nil
}

func xlsx(f report.File) Attachment {
	return Attachment{Filename: f.Name, ContentType: report.ContentTypeXLSX, Data: f.Data}
}
