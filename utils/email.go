package utils

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/meinhoongagan/groomly/models"
	"gopkg.in/gomail.v2"
)

type Mailer struct {
	dialer *gomail.Dialer
	from   string
	log    *slog.Logger
}

// NewMailer returns a mailer that only logs when no SMTP host is set.
func NewMailer(host string, port int, user, pass string, log *slog.Logger) *Mailer {
	m := &Mailer{from: user, log: log}
	if host != "" {
		m.dialer = gomail.NewDialer(host, port, user, pass)
	}
	return m
}

func (m *Mailer) Enabled() bool {
	return m != nil && m.dialer != nil
}

func (m *Mailer) SendEmail(to, subject, body string) error {
	if !m.Enabled() {
		m.log.Debug("email skipped (smtp not configured)", "to", to, "subject", subject)
		return nil
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)
	return m.dialer.DialAndSend(msg)
}

func serviceNames(services []models.ProviderService) string {
	names := make([]string, 0, len(services))
	for _, s := range services {
		names = append(names, s.Name)
	}
	return strings.Join(names, ", ")
}

func personName(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.Name
}

// BookingConfirmation renders the email sent after a booking is stored.
func BookingConfirmation(appt *models.Appointment, customer, provider *models.User, loc *time.Location) (string, string) {
	subject := "Booking received: " + appt.Date
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your appointment request has been received and is pending confirmation.</p>
		<ul>
			<li><strong>Services:</strong> %s</li>
			<li><strong>Provider:</strong> %s</li>
			<li><strong>Start:</strong> %s</li>
			<li><strong>End:</strong> %s</li>
			<li><strong>Payment:</strong> %s</li>
		</ul>
		<p>Best regards,</p>
	`, personName(customer), serviceNames(appt.Services), personName(provider),
		InZone(appt.StartTime, loc), InZone(appt.EndAt(), loc), appt.PaymentMethod)
	return subject, body
}

// Reminder renders the email sent about an hour before an appointment.
func Reminder(appt *models.Appointment, loc *time.Location) (string, string) {
	subject := "Reminder: upcoming appointment with " + personName(appt.Provider)
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>This is a reminder for your upcoming appointment scheduled in one hour.</p>
		<ul>
			<li><strong>Services:</strong> %s</li>
			<li><strong>Provider:</strong> %s</li>
			<li><strong>Start:</strong> %s</li>
			<li><strong>End:</strong> %s</li>
			<li><strong>Status:</strong> %s</li>
		</ul>
		<p>Please arrive on time. If you need to cancel, do it from the app as soon as possible.</p>
	`, personName(appt.Customer), serviceNames(appt.Services), personName(appt.Provider),
		InZone(appt.StartTime, loc), InZone(appt.EndAt(), loc), appt.Status)
	return subject, body
}
