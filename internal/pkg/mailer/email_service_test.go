package mailer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type recordingDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *recordingDialer) DialAndSend(m ...*gomail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, m...)
	return nil
}

func body(t *testing.T, m *gomail.Message) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestDeliver_OTP(t *testing.T) {
	d := &recordingDialer{}
	svc := NewEmailServiceWithDialer(d, "noreply@recipes.test", "AI Recipes", "https://app.test")

	err := Deliver(svc, Job{Kind: JobOTP, To: "cook@example.com", Data: map[string]string{"otp": "123456"}})

	require.NoError(t, err)
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"cook@example.com"}, d.sent[0].GetHeader("To"))
	assert.Contains(t, body(t, d.sent[0]), "123456")
}

func TestDeliver_Receipt(t *testing.T) {
	d := &recordingDialer{}
	svc := NewEmailServiceWithDialer(d, "noreply@recipes.test", "AI Recipes", "https://app.test")

	err := Deliver(svc, Job{Kind: JobReceipt, To: "cook@example.com", Data: map[string]string{
		"full_name":    "Jamie",
		"package_name": "Premium Monthly",
		"amount":       "999",
		"currency":     "usd",
		"period_end":   "2025-04-01",
	}})

	require.NoError(t, err)
	require.Len(t, d.sent, 1)
	assert.Contains(t, body(t, d.sent[0]), "9.99 USD")
}

func TestDeliver_UnknownKindAndDialFailure(t *testing.T) {
	svc := NewEmailServiceWithDialer(&recordingDialer{err: errors.New("smtp down")}, "a@b.c", "x", "")

	assert.Error(t, Deliver(svc, Job{Kind: "bogus", To: "cook@example.com"}))
	assert.EqualError(t, Deliver(svc, Job{Kind: JobCancellation, To: "cook@example.com"}), "smtp down")
}

func TestUnmarshalJob(t *testing.T) {
	raw, err := Job{Kind: JobResetToken, To: "cook@example.com", Data: map[string]string{"token": "abc"}}.Marshal()
	require.NoError(t, err)

	j, err := UnmarshalJob(raw)
	require.NoError(t, err)
	assert.Equal(t, JobResetToken, j.Kind)
	assert.Equal(t, "abc", j.Data["token"])

	_, err = UnmarshalJob([]byte(`{"kind":"otp"}`))
	assert.Error(t, err)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "9.99 USD", FormatAmount(999, "usd"))
	assert.Equal(t, "120.05 EUR", FormatAmount(12005, "EUR"))
}
