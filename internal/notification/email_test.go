package notification

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ticket-backend/internal/config"
	"ticket-backend/internal/logger"
	"ticket-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeSender struct {
	messages []*gomail.Message
	err      error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, m...)
	return nil
}

func render(t *testing.T, m *gomail.Message) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func newNotifier(sender Sender) *EmailNotifier {
	return &EmailNotifier{From: "events@example.com", Sender: sender, Logger: logger.NewNopLogger()}
}

func TestNotify_InMemoryAttachments(t *testing.T) {
	sender := &fakeSender{}
	tickets := []models.Ticket{
		{ID: "TKT-AAAAAAAA", Image: []byte("png-a")},
		{ID: "TKT-BBBBBBBB", Image: []byte("png-b")},
	}

	require.NoError(t, newNotifier(sender).Notify("ada@example.com", "Ada", tickets))
	require.Len(t, sender.messages, 1)

	m := sender.messages[0]
	assert.Equal(t, []string{"ada@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"events@example.com"}, m.GetHeader("From"))

	raw := render(t, m)
	assert.Contains(t, raw, `filename="TKT-AAAAAAAA.png"`)
	assert.Contains(t, raw, `filename="TKT-BBBBBBBB.png"`)
	assert.Contains(t, raw, "image/png")
}

func TestNotify_FileAttachments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "TKT-CCCCCCCC.png")
	require.NoError(t, os.WriteFile(path, []byte("png-c"), 0o644))

	sender := &fakeSender{}
	tickets := []models.Ticket{{ID: "TKT-CCCCCCCC", ImagePath: path}}

	require.NoError(t, newNotifier(sender).Notify("ada@example.com", "Ada", tickets))
	assert.Contains(t, render(t, sender.messages[0]), `filename="TKT-CCCCCCCC.png"`)
}

func TestNotify_TransportFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("535 authentication failed")}

	err := newNotifier(sender).Notify("ada@example.com", "Ada", []models.Ticket{{ID: "TKT-AAAAAAAA", Image: []byte("x")}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDelivery))
	assert.Contains(t, err.Error(), "authentication")
}

func TestNotify_RejectsTicketsWithoutImages(t *testing.T) {
	sender := &fakeSender{}

	err := newNotifier(sender).Notify("ada@example.com", "Ada", []models.Ticket{{ID: "TKT-AAAAAAAA"}})
	assert.True(t, errors.Is(err, ErrDelivery))

	err = newNotifier(sender).Notify("ada@example.com", "Ada", nil)
	assert.True(t, errors.Is(err, ErrDelivery))
	assert.Empty(t, sender.messages)
}

func TestBody_ListsEveryTicket(t *testing.T) {
	body := Body("Ada", []models.Ticket{{ID: "TKT-AAAAAAAA"}, {ID: "TKT-BBBBBBBB"}})

	assert.Contains(t, body, "Hi Ada,")
	assert.Contains(t, body, "- Ticket ID: TKT-AAAAAAAA\n- Ticket ID: TKT-BBBBBBBB\n")
	assert.Contains(t, body, "present it at the event gate")
}

func TestNewEmailNotifier_UsesDialer(t *testing.T) {
	n := NewEmailNotifier(config.EmailConfig{SMTPHost: "smtp.example.com", SMTPPort: 2525, SMTPUsername: "events@example.com", SMTPPassword: "pw"}, logger.NewNopLogger())

	d, ok := n.Sender.(*gomail.Dialer)
	require.True(t, ok)
	assert.Equal(t, "smtp.example.com", d.Host)
	assert.Equal(t, 2525, d.Port)
	assert.Equal(t, "events@example.com", n.From)
}
