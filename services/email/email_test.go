package emailsvc

import (
	"net/http"
	"net/mail"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hogandenver05/Norse-Interview/core"
	"github.com/hogandenver05/Norse-Interview/testutil"
)

func TestConsoleServiceMock(t *testing.T) {
	conf := core.NewTestConfig()
	logger := testutil.NewLogger(conf)
	require.NoError(t, core.ParseEmailTemplates(conf))
	svc := NewConsoleServiceMock(conf, logger)

	svc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: "Ragnar", Address: "ragnar@nku.edu"}},
			Subject:      "You completed Runes",
			TemplateName: "course_completed",
			TemplateData: map[string]string{"Name": "Ragnar", "CourseTitle": "Runes"},
		},
		// no recipients: not sent
		&core.EmailMessage{Subject: "Hello", BodyStr: "hi"},
		// unknown template: not sent
		&core.EmailMessage{
			To:           []mail.Address{{Address: "bjorn@nku.edu"}},
			TemplateName: "unknown",
		},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "ragnar@nku.edu", sent[0].To[0].Address)
	assert.Contains(t, sent[0].TextContent, "Ragnar")
	assert.Contains(t, sent[0].TextContent, `"Runes"`)
	assert.Contains(t, sent[0].HTMLContent, "Runes")

	svc.Reset()
	assert.Empty(t, svc.SentMessages())
}

func TestSendgridService_prepare(t *testing.T) {
	conf := core.NewTestConfig()
	svc := NewSendgridService(conf, testutil.NewLogger(conf)).(*sendgridService)

	m := svc.prepare(core.EmailMessage{
		To:          []mail.Address{{Name: "Ragnar", Address: "ragnar@nku.edu"}},
		Bcc:         []mail.Address{{Address: "audit@nku.edu"}},
		Subject:     "Welcome!",
		TextContent: "Welcome aboard!",
	})

	assert.Equal(t, "noreply@localhost", m.From.Address)
	assert.Equal(t, "Norse", m.From.Name)
	require.Len(t, m.Personalizations, 1)
	p := m.Personalizations[0]
	assert.Equal(t, "[Norse] Welcome!", p.Subject)
	require.Len(t, p.To, 1)
	assert.Equal(t, "ragnar@nku.edu", p.To[0].Address)
	require.Len(t, p.BCC, 1)

	// no html part without html content
	require.Len(t, m.Content, 1)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, "Welcome aboard!", m.Content[0].Value)

	// sandboxed outside production
	require.NotNil(t, m.MailSettings)
	require.NotNil(t, m.MailSettings.SandboxMode)
	assert.True(t, *m.MailSettings.SandboxMode.Enable)
	assert.Empty(t, m.Categories)

	m = svc.prepare(core.EmailMessage{
		To:           []mail.Address{{Address: "ragnar@nku.edu"}},
		TemplateName: "course_completed",
		TextContent:  "Congratulations!",
		HTMLContent:  "<p>Congratulations!</p>",
	})
	assert.Equal(t, []string{"course_completed"}, m.Categories)
	assert.Equal(t, "course_completed", m.CustomArgs["template"])
	require.Len(t, m.Content, 2)
	assert.Equal(t, "text/html", m.Content[1].Type)

	conf.TestMode = false
	conf.Env = "PROD"
	prodSvc := NewSendgridService(conf, testutil.NewLogger(conf)).(*sendgridService)
	assert.Nil(t, prodSvc.prepare(core.EmailMessage{TextContent: "hi"}).MailSettings)
}

type fakeSender struct {
	responses []*rest.Response
	errs      []error
	calls     int
}

func (f *fakeSender) Send(*sgmail.SGMailV3) (*rest.Response, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	return f.responses[i], nil
}

func TestSendgridService_send(t *testing.T) {
	var waits []time.Duration
	sleepFunc = func(d time.Duration) { waits = append(waits, d) }
	defer func() { sleepFunc = time.Sleep }()

	status := func(code int) *rest.Response { return &rest.Response{StatusCode: code} }
	tests := []struct {
		name      string
		sender    *fakeSender
		wantErr   bool
		wantCalls int
		wantWaits []time.Duration
	}{
		{name: "accepted", sender: &fakeSender{responses: []*rest.Response{status(http.StatusAccepted)}}, wantCalls: 1},
		{
			name:      "rate limited then accepted",
			sender:    &fakeSender{responses: []*rest.Response{status(http.StatusTooManyRequests), status(http.StatusAccepted)}},
			wantCalls: 2, wantWaits: []time.Duration{time.Second},
		},
		{
			name:      "network error then accepted",
			sender:    &fakeSender{errs: []error{errors.New("connection reset")}, responses: []*rest.Response{nil, status(http.StatusAccepted)}},
			wantCalls: 2, wantWaits: []time.Duration{time.Second},
		},
		{
			name: "rejected", sender: &fakeSender{responses: []*rest.Response{status(http.StatusBadRequest)}},
			wantErr: true, wantCalls: 1,
		},
		{
			name: "server errors",
			sender: &fakeSender{responses: []*rest.Response{
				status(http.StatusBadGateway), status(http.StatusServiceUnavailable), status(http.StatusInternalServerError),
			}},
			wantErr: true, wantCalls: 3, wantWaits: []time.Duration{time.Second, 2 * time.Second},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			waits = nil
			conf := core.NewTestConfig()
			svc := NewSendgridService(conf, testutil.NewLogger(conf)).(*sendgridService)
			svc.newClient = func(string) mailSender { return tt.sender }

			err := svc.send(svc.prepare(core.EmailMessage{TextContent: "hi"}))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, tt.sender.calls)
			assert.Equal(t, tt.wantWaits, waits)
		})
	}
}
