package emailsvc

import (
	"fmt"
	"net/http"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/hogandenver05/Norse-Interview/core"
)

const sendAttempts = 3

var sleepFunc = time.Sleep

// mailSender is the part of sendgrid.Client we use. A Client is not safe for concurrent
// sends, so each message gets its own.
type mailSender interface {
	Send(email *sgmail.SGMailV3) (*rest.Response, error)
}

type sendgridService struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	sandbox    bool // accepted and validated by SendGrid, never delivered
	newClient  func(key string) mailSender
	logger     core.Logger
}

var _ core.EmailService = (*sendgridService)(nil)

// NewSendgridService sends the course mails through the SendGrid v3 API.
// Outside production, mails go through SendGrid's sandbox.
func NewSendgridService(conf *core.Config, logger core.Logger) core.EmailService {
	from := conf.DefaultFromEmail()
	return &sendgridService{
		key:        conf.SendgridApiKey,
		from:       sgmail.NewEmail(from.Name, from.Address),
		subjPrefix: "[" + conf.AppName + "] ",
		sandbox:    conf.TestMode || conf.Env != "PROD",
		newClient:  func(key string) mailSender { return sendgrid.NewSendClient(key) },
		logger:     logger,
	}
}

func (svc sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		go func() {
			if err := msg.Render(); err != nil {
				svc.logger.Error(fmt.Sprintf("rendering email %q: %v", msg.TemplateName, err), err)
				return
			}
			if !msg.HasRecipients() || !msg.HasContent() {
				return
			}
			if err := svc.send(svc.prepare(*msg)); err != nil {
				svc.logger.Error(fmt.Sprintf("sending email %q: %v", msg.TemplateName, err), err)
			}
		}()
	}
}

// prepare builds a single-personalization mail, tagged with its template name so that
// welcome and course-completed mails can be told apart in the SendGrid stats.
func (svc sendgridService) prepare(msg core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject
	p.AddTos(addresses(msg.To)...)
	p.AddCCs(addresses(msg.Cc)...)
	p.AddBCCs(addresses(msg.Bcc)...)

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}

	if msg.TemplateName != "" {
		m.AddCategories(msg.TemplateName)
		m.SetCustomArg("template", msg.TemplateName)
	}
	if svc.sandbox {
		m.SetMailSettings(sgmail.NewMailSettings().SetSandboxMode(sgmail.NewSetting(true)))
	}
	return m
}

func addresses(addrs []mail.Address) []*sgmail.Email {
	emails := make([]*sgmail.Email, 0, len(addrs))
	for _, addr := range addrs {
		emails = append(emails, sgmail.NewEmail(addr.Name, addr.Address))
	}
	return emails
}

// send retries rate-limited and server-side failures, waiting 1s then 2s.
func (svc sendgridService) send(m *sgmail.SGMailV3) error {
	client := svc.newClient(svc.key)
	wait := time.Second
	for attempt := 1; ; attempt++ {
		res, err := client.Send(m)
		switch {
		case err != nil:
			err = errors.Wrap(err, "calling sendgrid")
		case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= http.StatusInternalServerError:
			err = errors.Errorf("sendgrid status %d: %s", res.StatusCode, res.Body)
		case res.StatusCode >= http.StatusBadRequest:
			return errors.Errorf("sendgrid rejected the mail - status %d: %s", res.StatusCode, res.Body)
		default:
			return nil
		}
		if attempt == sendAttempts {
			return errors.Wrapf(err, "giving up after %d attempts", attempt)
		}
		sleepFunc(wait)
		wait *= 2
	}
}
