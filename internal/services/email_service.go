package services

import (
	"fmt"
	"os"

	"warrantly/internal/models"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type EmailService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewEmailService() *EmailService {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	fromEmail := os.Getenv("SENDGRID_NOTIFICATIONS_FROM_EMAIL")
	fromName := os.Getenv("SENDGRID_FROM_NAME")

	client := sendgrid.NewSendClient(apiKey)

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// SendWarrantyReminder emails a single warranty notice for one product.
// The subject depends on whether the warranty is still running; the body
// carries the reminder message frozen at scheduling time.
func (s *EmailService) SendWarrantyReminder(toEmail, toName string, product models.Product, daysLeft int, message string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(toName, toEmail)

	subject := ""
	switch {
	case daysLeft > 0:
		subject = fmt.Sprintf("Warranty reminder: %s expires in %d days", product.Name, daysLeft)
	case daysLeft == 0:
		subject = fmt.Sprintf("Warranty reminder: %s expires today", product.Name)
	default:
		subject = fmt.Sprintf("Warranty expired: %s", product.Name)
	}

	plainContent := fmt.Sprintf("Hello %s, %s Warranty end date: %s.",
		toName, message, product.WarrantyEndDate.Format("2006-01-02"))

	htmlContent := fmt.Sprintf("<p>Hello %s,</p><p>%s</p><p>Warranty end date: <strong>%s</strong></p>",
		toName, message, product.WarrantyEndDate.Format("2006-01-02"))

	m := mail.NewSingleEmail(from, subject, to, plainContent, htmlContent)

	response, err := s.client.Send(m)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send email to %s: %d", toEmail, response.StatusCode)
	}

	return nil
}
