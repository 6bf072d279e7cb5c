// README: Delivery-OTP email transport. SMTP when configured, log otherwise.
package notify

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
)

type SMTPMailer struct {
	addr string
	from string
}

func NewSMTPMailer(addr, from string) *SMTPMailer {
	return &SMTPMailer{addr: addr, from: from}
}

func (m *SMTPMailer) SendDeliveryOTP(ctx context.Context, address, otp, parcelCode string) error {
	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Delivery confirmation code for %s\r\n\r\n"+
		"Your parcel %s has arrived.\r\n\r\nConfirmation code: %s\r\n\r\n"+
		"The code expires in 10 minutes. Enter it to confirm delivery.\r\n",
		m.from, address, parcelCode, parcelCode, otp)
	return smtp.SendMail(m.addr, nil, m.from, []string{address}, []byte(body))
}

// LogMailer stands in for SMTP in dev and memory mode.
type LogMailer struct{}

func (LogMailer) SendDeliveryOTP(ctx context.Context, address, otp, parcelCode string) error {
	log.Printf("mail to %s: delivery code %s for parcel %s", address, otp, parcelCode)
	return nil
}
