// services/notification_service.go
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"glasspro-backend/repositories"
	"glasspro-backend/utils"
	"glasspro-backend/workorder"
)

// ErrSMSDisabled is returned when no SMS provider is configured.
var ErrSMSDisabled = errors.New("sms delivery is not configured")

// MessageSender delivers a text message and returns the provider's id.
type MessageSender interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
}

type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from: from,
	}
}

func (t *TwilioSender) SendSMS(_ context.Context, to, body string) (string, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return "", err
	}
	if resp.Sid != nil {
		return *resp.Sid, nil
	}
	return "", nil
}

type NotificationService struct {
	sender MessageSender
}

// NewNotificationService accepts a nil sender; sends then fail with
// ErrSMSDisabled.
func NewNotificationService(sender MessageSender) *NotificationService {
	return &NotificationService{sender: sender}
}

func (n *NotificationService) Enabled() bool {
	return n != nil && n.sender != nil
}

// SendWorkOrderSMS texts the work order summary to phone, or to the
// customer's phone when phone is empty.
func (n *NotificationService) SendWorkOrderSMS(ctx context.Context, wo workorder.WorkOrder, phone string) (string, error) {
	if !n.Enabled() {
		return "", ErrSMSDisabled
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		phone = wo.Customer.Phone
	}
	if phone == "" {
		return "", &repositories.ValidationError{Field: "phone", Message: "is required"}
	}
	if !utils.ValidatePhone(phone) {
		return "", &repositories.ValidationError{Field: "phone", Message: "is not a valid phone number"}
	}

	body, err := workorder.SMSText(wo)
	if err != nil {
		return "", err
	}
	sid, err := n.sender.SendSMS(ctx, utils.ToE164(phone), body)
	if err != nil {
		utils.Logger.WithError(err).Warnf("Failed to send work order SMS for job %s", wo.JobID)
		return "", err
	}
	utils.Logger.Infof("Sent work order SMS for job %s (%s)", wo.JobID, sid)
	return sid, nil
}
