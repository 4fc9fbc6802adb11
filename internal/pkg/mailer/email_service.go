package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// RefundEmail is what the guest-facing templates need to know.
type RefundEmail struct {
	GuestName          string
	ConfirmationNumber string
	Amount             string
	Currency           string
	Reason             string
	Reference          string
}

type IEmailService interface {
	SendRefundConfirmation(toEmail string, data RefundEmail) error
	SendRefundUnderReview(toEmail string, data RefundEmail) error
	SendRefundRejected(toEmail string, data RefundEmail) error
	SendAdminAlert(toEmail, subject, body string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

func NewEmailService(host string, port int, username, password, senderEmail, senderName string) IEmailService {
	return &emailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: senderEmail,
		senderName:  senderName,
	}
}

func (s *emailService) newMessage(toEmail, subject, body string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return m
}

func (s *emailService) send(kind, toEmail string, m *gomail.Message) error {
	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send %s to %s: %v\n", kind, toEmail, err)
		return err
	}
	fmt.Printf("[MAILER] %s sent to %s\n", kind, toEmail)
	return nil
}

func refundConfirmationMessage(s *emailService, toEmail string, data RefundEmail) *gomail.Message {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Your booking has been cancelled</h2>
			<p>Hi %s,</p>
			<p>Booking <strong>%s</strong> is cancelled and a refund of</p>
			<h1 style="color: #4CAF50;">%s %s</h1>
			<p>has been sent to your original payment method. Reference: %s</p>
			<p>Depending on your bank it can take 5 to 10 business days to appear.</p>
		</div>
	`, data.GuestName, data.ConfirmationNumber, data.Amount, data.Currency, data.Reference)
	return s.newMessage(toEmail, "Your refund is on its way", body)
}

func refundUnderReviewMessage(s *emailService, toEmail string, data RefundEmail) *gomail.Message {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>We received your cancellation request</h2>
			<p>Hi %s,</p>
			<p>Your request to cancel booking <strong>%s</strong> needs a quick review by our team.</p>
			<p>Estimated refund: %s %s (%s)</p>
			<p>We will email you again once it has been processed. Request: %s</p>
		</div>
	`, data.GuestName, data.ConfirmationNumber, data.Amount, data.Currency, data.Reason, data.Reference)
	return s.newMessage(toEmail, "Your cancellation is under review", body)
}

func refundRejectedMessage(s *emailService, toEmail string, data RefundEmail) *gomail.Message {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Your refund request was not approved</h2>
			<p>Hi %s,</p>
			<p>We could not approve the refund for booking <strong>%s</strong>.</p>
			<p>Reason: %s</p>
			<p>Your booking remains active.</p>
		</div>
	`, data.GuestName, data.ConfirmationNumber, data.Reason)
	return s.newMessage(toEmail, "Update on your refund request", body)
}

func (s *emailService) SendRefundConfirmation(toEmail string, data RefundEmail) error {
	return s.send("refund confirmation", toEmail, refundConfirmationMessage(s, toEmail, data))
}

func (s *emailService) SendRefundUnderReview(toEmail string, data RefundEmail) error {
	return s.send("review notice", toEmail, refundUnderReviewMessage(s, toEmail, data))
}

func (s *emailService) SendRefundRejected(toEmail string, data RefundEmail) error {
	return s.send("rejection notice", toEmail, refundRejectedMessage(s, toEmail, data))
}

func (s *emailService) SendAdminAlert(toEmail, subject, body string) error {
	return s.send("admin alert", toEmail, s.newMessage(toEmail, subject, "<pre>"+body+"</pre>"))
}
