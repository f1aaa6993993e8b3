package email

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/afikmenashe/fleet-platform/services/notification/internal/database"
	"github.com/afikmenashe/fleet-platform/services/notification/internal/sender/email/provider"
)

type fakeMailer struct {
	got *provider.EmailRequest
	err error
}

func (f *fakeMailer) Send(_ context.Context, req *provider.EmailRequest) error {
	f.got = req
	return f.err
}

func TestParseRecipients(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a@x.co", []string{"a@x.co"}},
		{" a@x.co , b@x.co ,", []string{"a@x.co", "b@x.co"}},
		{" , ", []string{}},
	}
	for _, tt := range tests {
		if got := parseRecipients(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseRecipients(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSender_Send(t *testing.T) {
	n := &database.Notification{NotificationID: "n-1", Subject: "EMERGENCY - Vehicle XYZ789", Message: "body"}

	tests := []struct {
		name      string
		recipient string
		mailErr   error
		errMsg    string
	}{
		{name: "single recipient", recipient: "authorities@ccs.gov.co"},
		{name: "empty recipient", recipient: "", errMsg: "email recipient is required"},
		{name: "only separators", recipient: ", ,", errMsg: "email recipient is required"},
		{name: "missing at sign", recipient: "authorities", errMsg: "missing @ symbol"},
		{name: "provider failure", recipient: "a@x.co", mailErr: errors.New("throttled"), errMsg: "failed to send email: throttled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeMailer{err: tt.mailErr}
			s := NewSender(m, "fleet@ccs.gov.co")

			err := s.Send(context.Background(), tt.recipient, n)
			if tt.errMsg != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("Send() error = %v, want containing %q", err, tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("Send() error = %v", err)
			}
			if m.got.From != "fleet@ccs.gov.co" || m.got.Subject != n.Subject || m.got.Body != "body" {
				t.Errorf("request = %+v", m.got)
			}
		})
	}
}

func TestSender_Type(t *testing.T) {
	if got := NewSender(&fakeMailer{}, "").Type(); got != "email" {
		t.Errorf("Type() = %q, want email", got)
	}
}
