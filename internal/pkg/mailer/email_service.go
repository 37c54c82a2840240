package mailer

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendOTP(toEmail, otp string) error
	SendResetToken(toEmail, token string) error
	SendPaymentReceipt(toEmail string, receipt Receipt) error
	SendCancellationConfirmation(toEmail, fullName string) error
}

type Receipt struct {
	FullName    string
	PackageName string
	Amount      int64 // minor units
	Currency    string
	PeriodEnd   string
}

// Dialer is the part of gomail.Dialer the service needs.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailService struct {
	dialer      Dialer
	senderEmail string
	senderName  string
	frontendURL string
}

func NewEmailService(host string, port int, username, password, senderName, frontendURL string) IEmailService {
	return NewEmailServiceWithDialer(gomail.NewDialer(host, port, username, password), username, senderName, frontendURL)
}

func NewEmailServiceWithDialer(d Dialer, senderEmail, senderName, frontendURL string) IEmailService {
	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		senderName:  senderName,
		frontendURL: frontendURL,
	}
}

func (s *emailService) send(toEmail, subject, body string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return s.dialer.DialAndSend(m)
}

func (s *emailService) SendOTP(toEmail, otp string) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Welcome to %s!</h2>
			<p>Your verification code is:</p>
			<h1 style="color: #4CAF50; letter-spacing: 5px;">%s</h1>
			<p>This code will expire in 15 minutes.</p>
			<p>If you didn't request this, please ignore this email.</p>
		</div>
	`, s.senderName, otp)

	return s.send(toEmail, "Your Verification Code", body)
}

func (s *emailService) SendResetToken(toEmail, token string) error {
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, token)

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Password Reset Request</h2>
			<p>You requested to reset your password. Click the button below to proceed:</p>
			<a href="%s" style="background-color: #007BFF; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Reset Password</a>
			<p>Or copy this link:</p>
			<p>%s</p>
			<p>This link will expire in 1 hour.</p>
		</div>
	`, resetLink, resetLink)

	return s.send(toEmail, "Reset Your Password", body)
}

func (s *emailService) SendPaymentReceipt(toEmail string, r Receipt) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Thanks for subscribing, %s!</h2>
			<p>We received your payment for <strong>%s</strong>.</p>
			<p>Amount: <strong>%s</strong></p>
			<p>Your premium access runs until %s.</p>
			<p><a href="%s/recipes">Start cooking</a></p>
		</div>
	`, r.FullName, r.PackageName, FormatAmount(r.Amount, r.Currency), r.PeriodEnd, s.frontendURL)

	return s.send(toEmail, "Your payment receipt", body)
}

func (s *emailService) SendCancellationConfirmation(toEmail, fullName string) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Your subscription has been cancelled</h2>
			<p>Hi %s, your premium access has ended. You can come back any time from your account page.</p>
			<p><a href="%s/account">Manage subscription</a></p>
		</div>
	`, fullName, s.frontendURL)

	return s.send(toEmail, "Subscription cancelled", body)
}

// FormatAmount renders minor units as "9.99 USD".
func FormatAmount(amount int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", amount/100, amount%100, strings.ToUpper(currency))
}
