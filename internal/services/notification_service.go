// internal/services/notification_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/bookswap-backend/internal/config"
	"github.com/javajoker/bookswap-backend/internal/mailer"
	"github.com/javajoker/bookswap-backend/internal/models"
	"github.com/javajoker/bookswap-backend/internal/repository"
)

const sendTimeout = 30 * time.Second

// Notifier is the side-effecting half of the listing lifecycle. Every method
// returns immediately; deliveries run in the background and never report
// back to the caller.
type Notifier interface {
	ActivationRequested(book *models.Book, code string)
	OwnerActivated(book *models.Book, owner *models.User)
	PetitionersActivated(book *models.Book, requesters []repository.Requester)
}

type NotificationService struct {
	mailer     mailer.Mailer
	log        logrus.FieldLogger
	adminEmail string
	backendURL string
	loginURL   string
	templates  map[string]*template.Template
	wg         sync.WaitGroup
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(m mailer.Mailer, cfg *config.Config, log logrus.FieldLogger) *NotificationService {
	s := &NotificationService{
		mailer:     m,
		log:        log.WithField("component", "notifier"),
		adminEmail: cfg.Email.AdminEmail,
		backendURL: cfg.Domains.BackendURL(),
		loginURL:   cfg.Domains.FrontendURL() + "/login",
		templates:  make(map[string]*template.Template),
	}
	for name, tpl := range emailTemplates {
		s.templates[name] = template.Must(template.New(name).Parse(tpl.Body))
	}
	return s
}

// ActivationRequested asks the administrator to review a new listing.
// Skipped when no admin address is configured.
func (s *NotificationService) ActivationRequested(book *models.Book, code string) {
	if s.adminEmail == "" {
		return
	}
	s.dispatch("activation_request", s.adminEmail, map[string]interface{}{
		"Book":          book,
		"ActivationURL": fmt.Sprintf("%s/upload/activate/%s", s.backendURL, code),
	})
}

func (s *NotificationService) OwnerActivated(book *models.Book, owner *models.User) {
	if owner == nil || owner.Email == "" {
		return
	}
	s.dispatch("book_activated", owner.Email, map[string]interface{}{
		"Name":     owner.Name,
		"Book":     book,
		"LoginURL": s.loginURL,
	})
}

// PetitionersActivated tells every active requester of the ISBN that a copy
// is now listed. Each mail is sent independently.
func (s *NotificationService) PetitionersActivated(book *models.Book, requesters []repository.Requester) {
	for _, r := range requesters {
		if !r.Active() || r.Email == "" {
			continue
		}
		s.dispatch("petition_available", r.Email, map[string]interface{}{
			"Name":     r.Name,
			"Book":     book,
			"LoginURL": s.loginURL,
		})
	}
}

// Wait blocks until every dispatched mail has been attempted.
func (s *NotificationService) Wait() {
	s.wg.Wait()
}

func (s *NotificationService) dispatch(templateName, to string, data map[string]interface{}) {
	body, err := s.renderTemplate(templateName, data)
	if err != nil {
		s.log.WithError(err).WithField("template", templateName).Error("Failed to render email template")
		return
	}
	msg := mailer.Message{To: to, Subject: emailTemplates[templateName].Subject, HTML: body}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.WithField("panic", r).Error("Email delivery panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		if err := s.mailer.Send(ctx, msg); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"template": templateName,
				"to":       to,
			}).Warn("Failed to send email")
			return
		}
		s.log.WithFields(logrus.Fields{"template": templateName, "to": to}).Debug("Email sent")
	}()
}

func (s *NotificationService) renderTemplate(name string, data interface{}) (string, error) {
	tmpl, ok := s.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown email template %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

var emailTemplates = map[string]EmailTemplate{
	"activation_request": {
		Subject: "New book pending activation",
		Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>New book uploaded</h2>
	<ul>
		<li>ISBN: {{.Book.ISBN}}</li>
		<li>Title: {{.Book.Title}}</li>
		<li>Course: {{.Book.Course}}</li>
		<li>Editorial: {{.Book.Editorial}}</li>
		<li>Edition: {{.Book.EditionYear}}</li>
		<li>Price: {{printf "%.2f" .Book.Price}}</li>
		<li>Detail: {{.Book.Detail}}</li>
	</ul>
	<a href="{{.ActivationURL}}">Activate</a>
</body>
</html>`,
	},
	"book_activated": {
		Subject: "Your book has been published",
		Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.Name}},</h2>
	<p>Your book "{{.Book.Title}}" (ISBN {{.Book.ISBN}}) has been validated and is now visible.</p>
	<a href="{{.LoginURL}}">Go to BookSwap</a>
</body>
</html>`,
	},
	"petition_available": {
		Subject: "A book you asked for is available",
		Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.Name}},</h2>
	<p>"{{.Book.Title}}" (ISBN {{.Book.ISBN}}) is now available.</p>
	<a href="{{.LoginURL}}">Go to BookSwap</a>
</body>
</html>`,
	},
}
