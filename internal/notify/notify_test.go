package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/report"
)

func sampleBundle() report.Bundle {
	date := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	return report.Bundle{
		Numero: "3",
		Date:   date,
		Files: []report.File{
			{Name: report.PreGeneralName("3", date), Kind: report.KindPreGeneral, Data: []byte("pre")},
			{Name: report.PrincipalGeneralName("3", date), Kind: report.KindPrincipalGeneral, Data: []byte("res")},
			{Name: "ANA_3_pre_atribuida_20260105.xlsx", Kind: report.KindPreReviewer, Reviewer: "ANA", Data: []byte("a1")},
			{Name: "ANA_3_principal_20260105.xlsx", Kind: report.KindPrincipalReviewer, Reviewer: "ANA", Data: []byte("a2")},
			{Name: "BETO_3_principal_20260105.xlsx", Kind: report.KindPrincipalReviewer, Reviewer: "BETO", Data: []byte("b2")},
		},
	}
}

func TestPlanManagersOnly(t *testing.T) {
	msgs, err := Plan(sampleBundle(), []string{"chefe@tce.rj.gov.br"}, map[string]string{"ANA": "ana@x"}, DeliveryManagers)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	m := msgs[0]
	require.Equal(t, []string{"chefe@tce.rj.gov.br"}, m.To)
	require.Equal(t, managersSubject, m.Subject)
	require.Len(t, m.Attachments, 3)
	require.Equal(t, "3_planilha_geral_pre_atribuida_20260105.xlsx", m.Attachments[0].Filename)
	require.Equal(t, "3_planilha_geral_principal_20260105.xlsx", m.Attachments[1].Filename)
	require.Equal(t, "3_planilhas_individuais_20260105.zip", m.Attachments[2].Filename)
	require.Equal(t, report.ContentTypeZip, m.Attachments[2].ContentType)
}

func TestPlanAllSkipsReviewersWithoutEmail(t *testing.T) {
	msgs, err := Plan(sampleBundle(), nil, map[string]string{"ANA": "ana@x"}, DeliveryAll)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	m := msgs[0]
	require.Equal(t, []string{"ana@x"}, m.To)
	require.Equal(t, "Distribuição de Processos - ANA", m.Subject)
	require.Len(t, m.Attachments, 2)
	require.Equal(t, "ANA_3_pre_atribuida_20260105.xlsx", m.Attachments[0].Filename)
	require.Equal(t, "ANA_3_principal_20260105.xlsx", m.Attachments[1].Filename)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := LogNotifier{Logger: zerolog.New(&buf)}
	require.ErrorIs(t, n.Send(context.Background(), Message{}), ErrNoRecipients)
	require.NoError(t, n.Send(context.Background(), Message{To: []string{"a@b"}, Subject: "s", Attachments: []Attachment{{Filename: "f.xlsx"}}}))
	require.Contains(t, buf.String(), "f.xlsx")
}

func TestComposeMultipart(t *testing.T) {
	raw, err := Compose("robo@x.gov.br", Message{
		To:          []string{"a@x.gov.br", "b@x.gov.br"},
		Subject:     "Distribuição",
		Body:        "olá",
		Attachments: []Attachment{{Filename: "p.xlsx", ContentType: report.ContentTypeXLSX, Data: []byte("conteudo")}},
	})
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	from, err := msg.Header.AddressList("From")
	require.NoError(t, err)
	require.Equal(t, "robo@x.gov.br", from[0].Address)
	to, err := msg.Header.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 2)
	subject, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	require.Equal(t, "Distribuição", subject)

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/mixed", mediaType)

	mr := multipart.NewReader(msg.Body, params["boundary"])
	var parts []string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		parts = append(parts, p.Header.Get("Content-Type"))
		if p.FileName() == "" {
			continue
		}
		require.Equal(t, "p.xlsx", p.FileName())
		require.True(t, strings.HasPrefix(p.Header.Get("Content-Type"), report.ContentTypeXLSX))
		require.Equal(t, "base64", strings.ToLower(p.Header.Get("Content-Transfer-Encoding")))
		data, err := io.ReadAll(base64.NewDecoder(base64.StdEncoding, p))
		require.NoError(t, err)
		require.Equal(t, "conteudo", string(data))
	}
	require.Len(t, parts, 2)
	require.True(t, strings.HasPrefix(parts[0], "text/plain"))
}

func TestComposeRejectsBadAddresses(t *testing.T) {
	_, err := Compose("robo@x.gov.br", Message{Subject: "s"})
	require.ErrorIs(t, err, ErrNoRecipients)

	_, err = Compose("robo@x.gov.br", Message{To: []string{"não é endereço"}})
	require.Error(t, err)
}

func TestSMTPNotifierNeedsRecipients(t *testing.T) {
	n := SMTPNotifier{Server: "smtp.invalid", Port: 465, Username: "robo@x.gov.br"}
	require.ErrorIs(t, n.Send(context.Background(), Message{}), ErrNoRecipients)
}
