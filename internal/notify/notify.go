// Package notify emails employees and approvers about leave requests.
package notify

import (
	"bytes"
	"context"
	"fmt"
	htmltmpl "html/template"
	"net/mail"
	"sync"
	texttmpl "text/template"

	"go.uber.org/zap"

	"opsdesk/internal/leave"
	"opsdesk/internal/logger"
	"opsdesk/internal/model"
)

// Notifier announces leave workflow events. Implementations must not block the caller on delivery.
type Notifier interface {
	// LeaveRequested tells approvers that requester applied for leave.
	LeaveRequested(ctx context.Context, requester model.User, approvers []model.User, req model.LeaveRequest)
	// LeaveDecided tells the requester their request was approved, rejected or cancelled.
	LeaveDecided(ctx context.Context, user model.User, req model.LeaveRequest)
	// Close waits for in-flight deliveries.
	Close()
}

// Message is a rendered email.
type Message struct {
	To      []mail.Address
	Subject string
	Text    string
	HTML    string
}

// Sender delivers one rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer renders leave emails and hands them to a Sender in the background.
type Mailer struct {
	sender Sender
	log    *zap.Logger
	wg     sync.WaitGroup
}

var _ Notifier = (*Mailer)(nil)

func NewMailer(sender Sender, log *zap.Logger) *Mailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mailer{sender: sender, log: log.With(zap.String("component", "notify"))}
}

type leaveData struct {
	Name      string
	Requester string
	Type      model.LeaveType
	Start     string
	End       string
	Days      int
	Reason    string
	Status    model.LeaveStatus
	Note      string
}

var (
	requestedText = texttmpl.Must(texttmpl.New("requested").Parse(
		`{{.Requester}} requested {{.Days}} day(s) of {{.Type}} leave from {{.Start}} to {{.End}}.
{{if .Reason}}Reason: {{.Reason}}
{{end}}Review it in opsdesk.
`))
	requestedHTML = htmltmpl.Must(htmltmpl.New("requested").Parse(
		`<p><strong>{{.Requester}}</strong> requested {{.Days}} day(s) of {{.Type}} leave from {{.Start}} to {{.End}}.</p>
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}<p>Review it in opsdesk.</p>`))

	decidedText = texttmpl.Must(texttmpl.New("decided").Parse(
		`Hi {{.Name}},

Your {{.Type}} leave from {{.Start}} to {{.End}} is now {{.Status}}.
{{if .Note}}Note: {{.Note}}
{{end}}`))
	decidedHTML = htmltmpl.Must(htmltmpl.New("decided").Parse(
		`<p>Hi {{.Name}},</p><p>Your {{.Type}} leave from {{.Start}} to {{.End}} is now <strong>{{.Status}}</strong>.</p>
{{if .Note}}<p>Note: {{.Note}}</p>{{end}}`))
)

func render(text *texttmpl.Template, html *htmltmpl.Template, data leaveData) (string, string, error) {
	var tb, hb bytes.Buffer
	if err := text.Execute(&tb, data); err != nil {
		return "", "", fmt.Errorf("render text: %w", err)
	}
	if err := html.Execute(&hb, data); err != nil {
		return "", "", fmt.Errorf("render html: %w", err)
	}
	return tb.String(), hb.String(), nil
}

func newLeaveData(user model.User, req model.LeaveRequest, days int) leaveData {
	return leaveData{
		Name:   user.Name,
		Type:   req.Type,
		Start:  req.StartDate.Format(model.DateLayout),
		End:    req.EndDate.Format(model.DateLayout),
		Days:   days,
		Reason: req.Reason,
		Status: req.Status,
		Note:   req.ReviewNote,
	}
}

func (m *Mailer) LeaveRequested(ctx context.Context, requester model.User, approvers []model.User, req model.LeaveRequest) {
	to := make([]mail.Address, 0, len(approvers))
	for _, a := range approvers {
		if a.ID == requester.ID || a.Email == "" {
			continue
		}
		to = append(to, mail.Address{Name: a.Name, Address: a.Email})
	}
	if len(to) == 0 {
		return
	}

	data := newLeaveData(requester, req, leave.Days(req.StartDate, req.EndDate))
	data.Requester = requester.Name
	text, html, err := render(requestedText, requestedHTML, data)
	if err != nil {
		logger.For(ctx, m.log).Error("notify_render_failed", zap.String("leave_id", req.ID), zap.Error(err))
		return
	}
	m.dispatch(ctx, Message{
		To:      to,
		Subject: fmt.Sprintf("Leave request from %s", requester.Name),
		Text:    text,
		HTML:    html,
	}, req.ID)
}

func (m *Mailer) LeaveDecided(ctx context.Context, user model.User, req model.LeaveRequest) {
	if user.Email == "" {
		return
	}
	text, html, err := render(decidedText, decidedHTML, newLeaveData(user, req, leave.Days(req.StartDate, req.EndDate)))
	if err != nil {
		logger.For(ctx, m.log).Error("notify_render_failed", zap.String("leave_id", req.ID), zap.Error(err))
		return
	}
	m.dispatch(ctx, Message{
		To:      []mail.Address{{Name: user.Name, Address: user.Email}},
		Subject: fmt.Sprintf("Your leave request was %s", req.Status),
		Text:    text,
		HTML:    html,
	}, req.ID)
}

// dispatch sends in a goroutine detached from the request context's cancellation.
func (m *Mailer) dispatch(ctx context.Context, msg Message, leaveID string) {
	ctx = context.WithoutCancel(ctx)
	log := logger.For(ctx, m.log)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.sender.Send(ctx, msg); err != nil {
			log.Error("notify_send_failed",
				zap.String("leave_id", leaveID),
				zap.String("subject", msg.Subject),
				zap.Error(err),
			)
			return
		}
		log.Debug("notify_sent", zap.String("leave_id", leaveID), zap.Int("recipients", len(msg.To)))
	}()
}

func (m *Mailer) Close() {
	m.wg.Wait()
}
