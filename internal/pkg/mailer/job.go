package mailer

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Emails are not sent inline. Services enqueue a Job and the consumer delivers it.

type JobKind string

const (
	JobOTP          JobKind = "otp"
	JobResetToken   JobKind = "reset_token"
	JobReceipt      JobKind = "receipt"
	JobCancellation JobKind = "cancellation"
)

const Topic = "email.outbox"

type Job struct {
	Kind JobKind           `json:"kind"`
	To   string            `json:"to"`
	Data map[string]string `json:"data"`
}

func (j Job) Marshal() ([]byte, error) {
	return json.Marshal(j)
}

func UnmarshalJob(payload []byte) (Job, error) {
	var j Job
	if err := json.Unmarshal(payload, &j); err != nil {
		return Job{}, err
	}
	if j.To == "" {
		return Job{}, fmt.Errorf("email job has no recipient")
	}
	return j, nil
}

// Deliver sends the job through svc.
func Deliver(svc IEmailService, j Job) error {
	switch j.Kind {
	case JobOTP:
		return svc.SendOTP(j.To, j.Data["otp"])
	case JobResetToken:
		return svc.SendResetToken(j.To, j.Data["token"])
	case JobReceipt:
		amount, _ := strconv.ParseInt(j.Data["amount"], 10, 64)
		return svc.SendPaymentReceipt(j.To, Receipt{
			FullName:    j.Data["full_name"],
			PackageName: j.Data["package_name"],
			Amount:      amount,
			Currency:    j.Data["currency"],
			PeriodEnd:   j.Data["period_end"],
		})
	case JobCancellation:
		return svc.SendCancellationConfirmation(j.To, j.Data["full_name"])
	default:
		return fmt.Errorf("unknown email job kind %q", j.Kind)
	}
}
