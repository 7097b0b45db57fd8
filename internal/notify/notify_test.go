package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/wheelsdeals/tireshop/internal/config"
	"github.com/wheelsdeals/tireshop/internal/mail"
	"github.com/wheelsdeals/tireshop/internal/validate"
)

func testShop() config.ShopConfig {
	return config.ShopConfig{
		Name:         "Wheels & Deals Auto & Services",
		Phone:        "(614) 879-9212",
		Email:        "info@wheelsdealsauto.com",
		Address:      "123 Main Street, Columbus, OH 43026",
		StaffEmail:   "staff@example.com",
		DashboardURL: "https://shop.example.com/admin/quotes",
	}
}

func newTestService(t *testing.T) (*Service, *mail.Recorder) {
	t.Helper()
	rec := &mail.Recorder{}
	svc, err := NewService(rec, testShop())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, rec
}

func boolPtr(b bool) *bool { return &b }
func floatPtr(f float64) *float64 { return &f }

func validCustomerQuote() CustomerQuote {
	return CustomerQuote{
		CustomerName:    "Ann Lee",
		CustomerEmail:   "ann@example.com",
		ReferenceNumber: "TS-20250304-1234",
		VehicleYear:     2020,
		VehicleMake:     "Honda",
		VehicleModel:    "Civic",
		VehicleTrim:     "EX",
		TireSize:        "215/55R16",
		Quantity:        4,
		Installation:    boolPtr(true),
		WheelAlignment:  boolPtr(false),
		OilChange:       boolPtr(true),
		QuoteAmount:     floatPtr(649.5),
		QuoteNotes:      "Includes disposal fee.",
	}
}

func TestNewService_RequiresSender(t *testing.T) {
	if _, err := NewService(nil, testShop()); err == nil {
		t.Fatal("expected error for nil sender")
	}
}

func TestNames(t *testing.T) {
	svc, _ := newTestService(t)
	want := []string{FuncAppointmentNotification, FuncAppointmentStatus, FuncCustomerQuote, FuncQuoteEmail}
	got := svc.Names()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestCall_UnknownFunction(t *testing.T) {
	svc, rec := newTestService(t)
	err := svc.Call(context.Background(), "send-sms", []byte(`{}`))
	if !errors.Is(err, ErrUnknownFunction) {
		t.Errorf("err = %v, want ErrUnknownFunction", err)
	}
	if len(rec.Sent()) != 0 {
		t.Error("email sent for unknown function")
	}
}

func TestCall_MalformedBody(t *testing.T) {
	svc, rec := newTestService(t)
	err := svc.Call(context.Background(), FuncCustomerQuote, []byte(`{not json`))
	ve, ok := validate.As(err)
	if !ok {
		t.Fatalf("err = %v, want *validate.Error", err)
	}
	if ve.Issues[0].Field != "body" {
		t.Errorf("issue field = %q, want body", ve.Issues[0].Field)
	}
	if len(rec.Sent()) != 0 {
		t.Error("email sent for malformed body")
	}
}

func TestCustomerQuote_Sends(t *testing.T) {
	svc, rec := newTestService(t)
	if err := svc.Invoke(context.Background(), FuncCustomerQuote, validCustomerQuote()); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	msg, ok := rec.Last()
	if !ok {
		t.Fatal("no email sent")
	}
	if msg.To[0] != "ann@example.com" {
		t.Errorf("to = %v", msg.To)
	}
	if msg.Subject != "Your Quote is Ready - TS-20250304-1234" {
		t.Errorf("subject = %q", msg.Subject)
	}
	for _, want := range []string{"$649.50", "valid for 7 days", "Tire Installation, Oil Change", "Includes disposal fee.", "tel:6148799212"} {
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if strings.Contains(msg.HTML, "Wheel Alignment") {
		t.Error("unselected service rendered")
	}
}

func TestCustomerQuote_ZeroAmountAccepted(t *testing.T) {
	svc, rec := newTestService(t)
	q := validCustomerQuote()
	q.QuoteAmount = floatPtr(0)
	if err := svc.Invoke(context.Background(), FuncCustomerQuote, q); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	msg, _ := rec.Last()
	if !strings.Contains(msg.HTML, "$0.00") {
		t.Error("zero amount not rendered as $0.00")
	}
}

func TestCustomerQuote_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m map[string]interface{})
		field  string
	}{
		{"missing amount", func(m map[string]interface{}) { delete(m, "quoteAmount") }, "quoteAmount"},
		{"negative amount", func(m map[string]interface{}) { m["quoteAmount"] = -1 }, "quoteAmount"},
		{"amount too large", func(m map[string]interface{}) { m["quoteAmount"] = 1000001 }, "quoteAmount"},
		{"missing installation flag", func(m map[string]interface{}) { delete(m, "installation") }, "installation"},
		{"quantity over 10", func(m map[string]interface{}) { m["quantity"] = 11 }, "quantity"},
		{"year too early", func(m map[string]interface{}) { m["vehicleYear"] = 1899 }, "vehicleYear"},
		{"missing email", func(m map[string]interface{}) { delete(m, "customerEmail") }, "customerEmail"},
		{"bad email", func(m map[string]interface{}) { m["customerEmail"] = "nope" }, "customerEmail"},
		{"blank name after trim", func(m map[string]interface{}) { m["customerName"] = "   " }, "customerName"},
		{"long name", func(m map[string]interface{}) { m["customerName"] = strings.Repeat("a", 101) }, "customerName"},
		{"long notes", func(m map[string]interface{}) { m["quoteNotes"] = strings.Repeat("a", 1001) }, "quoteNotes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, rec := newTestService(t)
			raw, _ := json.Marshal(validCustomerQuote())
			var m map[string]interface{}
			json.Unmarshal(raw, &m)
			tt.mutate(m)
			body, _ := json.Marshal(m)

			err := svc.Call(context.Background(), FuncCustomerQuote, body)
			ve, ok := validate.As(err)
			if !ok {
				t.Fatalf("err = %v, want *validate.Error", err)
			}
			found := false
			for _, is := range ve.Issues {
				if is.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("issues = %+v, want one for %s", ve.Issues, tt.field)
			}
			if len(rec.Sent()) != 0 {
				t.Error("email sent despite validation failure")
			}
		})
	}
}

func TestCustomerQuote_EscapesInput(t *testing.T) {
	svc, rec := newTestService(t)
	q := validCustomerQuote()
	q.CustomerName = `<script>alert("x")</script>`
	q.QuoteNotes = `<b>bold</b> & more`
	if err := svc.Invoke(context.Background(), FuncCustomerQuote, q); err != nil {
		t.Fatal(err)
	}
	msg, _ := rec.Last()
	if strings.Contains(msg.HTML, "<script>") || strings.Contains(msg.HTML, "<b>bold</b>") {
		t.Error("customer input rendered unescaped")
	}
	if !strings.Contains(msg.HTML, "&lt;script&gt;") {
		t.Error("escaped name missing")
	}
}

func TestCustomerQuote_SenderFailure(t *testing.T) {
	svc, rec := newTestService(t)
	rec.FailWith(errors.New("provider down"))
	err := svc.Invoke(context.Background(), FuncCustomerQuote, validCustomerQuote())
	if err == nil {
		t.Fatal("expected delivery error")
	}
	if _, ok := validate.As(err); ok {
		t.Error("delivery error reported as validation error")
	}
}

func validQuoteEmail() QuoteEmail {
	return QuoteEmail{
		CustomerName:    "Ann Lee",
		CustomerEmail:   "ann@example.com",
		ReferenceNumber: "TS-20250304-1234",
		VehicleYear:     2020,
		VehicleMake:     "Honda",
		VehicleModel:    "Civic",
		VehicleTrim:     "EX",
		TireSize:        "215/55R16",
		Quantity:        4,
		Installation:    true,
		WheelAlignment:  true,
	}
}

func TestQuoteEmail_CustomerAndStaffCopies(t *testing.T) {
	svc, rec := newTestService(t)
	if err := svc.Invoke(context.Background(), FuncQuoteEmail, validQuoteEmail()); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	sent := rec.Sent()
	if len(sent) != 2 {
		t.Fatalf("sent %d emails, want 2", len(sent))
	}
	if sent[0].To[0] != "ann@example.com" || sent[0].Subject != "Quote Request Received - TS-20250304-1234" {
		t.Errorf("customer email = %v / %q", sent[0].To, sent[0].Subject)
	}
	if sent[1].To[0] != "staff@example.com" || sent[1].Subject != "New Quote Request - TS-20250304-1234" {
		t.Errorf("staff email = %v / %q", sent[1].To, sent[1].Subject)
	}
	for _, want := range []string{"Thank you, Ann Lee!", "TS-20250304-1234", "4 tires", "Tire Installation, Wheel Alignment", "What Happens Next?"} {
		if !strings.Contains(sent[0].HTML, want) {
			t.Errorf("customer body missing %q", want)
		}
	}
	if !strings.Contains(sent[1].HTML, "https://shop.example.com/admin/quotes") {
		t.Error("staff body missing dashboard link")
	}
}

func TestQuoteEmail_NoServicesRow(t *testing.T) {
	svc, rec := newTestService(t)
	q := validQuoteEmail()
	q.Installation, q.WheelAlignment = false, false
	if err := svc.Invoke(context.Background(), FuncQuoteEmail, q); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(rec.Sent()[0].HTML, "Requested Services") {
		t.Error("services row rendered without services")
	}
}

func TestQuoteEmail_NameEscaped(t *testing.T) {
	svc, rec := newTestService(t)
	q := validQuoteEmail()
	q.CustomerName = "<img src=x onerror=alert(1)>"
	if err := svc.Invoke(context.Background(), FuncQuoteEmail, q); err != nil {
		t.Fatal(err)
	}
	for _, m := range rec.Sent() {
		if strings.Contains(m.HTML, "<img") {
			t.Errorf("%q: unescaped markup in body", m.Subject)
		}
	}
}

func validNotification() AppointmentNotification {
	return AppointmentNotification{
		CustomerName:    "Bo Diaz",
		CustomerEmail:   "bo@example.com",
		CustomerPhone:   "614-555-0100",
		AppointmentDate: "2025-03-04",
		AppointmentTime: "10:00 AM",
		Services:        []string{"Tire Installation", "Oil Change"},
		VehicleInfo:     "2019 Toyota Camry",
	}
}

func TestAppointmentNotification_GoesToStaff(t *testing.T) {
	svc, rec := newTestService(t)
	if err := svc.Invoke(context.Background(), FuncAppointmentNotification, validNotification()); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	msg, _ := rec.Last()
	if msg.To[0] != "staff@example.com" || msg.Subject != "New Appointment Request" {
		t.Errorf("email = %v / %q", msg.To, msg.Subject)
	}
	for _, want := range []string{"Tuesday, March 4, 2025", "<li>Tire Installation</li>", "<li>Oil Change</li>", "2019 Toyota Camry", "10:00 AM"} {
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if strings.Contains(msg.HTML, "Notes:") {
		t.Error("empty notes rendered")
	}
}

func TestAppointmentNotification_Validation(t *testing.T) {
	svc, rec := newTestService(t)
	n := validNotification()
	n.Services = nil
	n.AppointmentDate = "March 4"
	err := svc.Invoke(context.Background(), FuncAppointmentNotification, n)
	ve, ok := validate.As(err)
	if !ok || len(ve.Issues) != 2 {
		t.Fatalf("err = %v, want two issues", err)
	}
	if len(rec.Sent()) != 0 {
		t.Error("email sent despite validation failure")
	}
}

func TestCall_CustomerEmailRequired(t *testing.T) {
	payloads := map[string]interface{}{
		FuncAppointmentNotification: validNotification(),
		FuncAppointmentStatus:       validStatus("approved"),
		FuncQuoteEmail:              validQuoteEmail(),
		FuncCustomerQuote:           validCustomerQuote(),
	}
	for name, payload := range payloads {
		for _, tt := range []struct {
			name   string
			mutate func(m map[string]interface{})
		}{
			{"missing", func(m map[string]interface{}) { delete(m, "customerEmail") }},
			{"malformed", func(m map[string]interface{}) { m["customerEmail"] = "nope" }},
		} {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				svc, rec := newTestService(t)
				raw, _ := json.Marshal(payload)
				var m map[string]interface{}
				json.Unmarshal(raw, &m)
				tt.mutate(m)
				body, _ := json.Marshal(m)

				err := svc.Call(context.Background(), name, body)
				ve, ok := validate.As(err)
				if !ok {
					t.Fatalf("err = %v, want *validate.Error", err)
				}
				found := false
				for _, is := range ve.Issues {
					if is.Field == "customerEmail" {
						found = true
					}
				}
				if !found {
					t.Errorf("issues = %+v, want one for customerEmail", ve.Issues)
				}
				if n := len(rec.Sent()); n != 0 {
					t.Errorf("sent %d emails despite validation failure", n)
				}
			})
		}
	}
}

func TestAppointmentNotification_NoStaffEmail(t *testing.T) {
	rec := &mail.Recorder{}
	shop := testShop()
	shop.StaffEmail = ""
	svc, _ := NewService(rec, shop)
	if err := svc.Invoke(context.Background(), FuncAppointmentNotification, validNotification()); err == nil {
		t.Fatal("expected error without a staff address")
	}
}

func validStatus(status string) AppointmentStatus {
	return AppointmentStatus{
		CustomerName:    "Bo Diaz",
		CustomerEmail:   "bo@example.com",
		AppointmentDate: "2025-03-04",
		AppointmentTime: "10:00 AM",
		Services:        []string{"Wheel Alignment"},
		Status:          status,
	}
}

func TestAppointmentStatus_Approved(t *testing.T) {
	svc, rec := newTestService(t)
	s := validStatus(StatusApproved)
	s.AdminNotes = "Please arrive 10 minutes early."
	s.SuggestedDate = "2025-03-05"
	if err := svc.Invoke(context.Background(), FuncAppointmentStatus, s); err != nil {
		t.Fatal(err)
	}
	msg, _ := rec.Last()
	if msg.To[0] != "bo@example.com" || msg.Subject != "Your Appointment is Confirmed!" {
		t.Errorf("email = %v / %q", msg.To, msg.Subject)
	}
	if !strings.Contains(msg.HTML, "Please arrive 10 minutes early.") {
		t.Error("admin notes missing")
	}
	if strings.Contains(msg.HTML, "Alternative Time Slot") {
		t.Error("suggestion rendered on approval")
	}
}

func TestAppointmentStatus_DeclinedWithSuggestion(t *testing.T) {
	svc, rec := newTestService(t)
	s := validStatus(StatusDeclined)
	s.SuggestedDate = "2025-03-06"
	s.SuggestedTime = "2:00 PM"
	if err := svc.Invoke(context.Background(), FuncAppointmentStatus, s); err != nil {
		t.Fatal(err)
	}
	msg, _ := rec.Last()
	if msg.Subject != "Update on Your Appointment Request" {
		t.Errorf("subject = %q", msg.Subject)
	}
	for _, want := range []string{"Alternative Time Slot Available", "Thursday, March 6, 2025", "2:00 PM", "hope the suggested alternative works"} {
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestAppointmentStatus_DeclinedWithoutSuggestion(t *testing.T) {
	svc, rec := newTestService(t)
	if err := svc.Invoke(context.Background(), FuncAppointmentStatus, validStatus(StatusDeclined)); err != nil {
		t.Fatal(err)
	}
	msg, _ := rec.Last()
	if strings.Contains(msg.HTML, "Alternative Time Slot") {
		t.Error("suggestion block rendered without a suggestion")
	}
	if !strings.Contains(msg.HTML, "submit another request") {
		t.Error("missing resubmit wording")
	}
}

func TestAppointmentStatus_RejectsUnknownStatus(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.Invoke(context.Background(), FuncAppointmentStatus, validStatus("pending"))
	ve, ok := validate.As(err)
	if !ok || ve.Issues[0].Field != "status" {
		t.Fatalf("err = %v, want status issue", err)
	}
}

func TestAppointmentStatus_BadSuggestedDate(t *testing.T) {
	svc, _ := newTestService(t)
	s := validStatus(StatusDeclined)
	s.SuggestedDate = "next week"
	if _, ok := validate.As(svc.Invoke(context.Background(), FuncAppointmentStatus, s)); !ok {
		t.Fatal("suggested date not validated")
	}
}

func TestLongDate(t *testing.T) {
	if got := LongDate("2025-12-25"); got != "Thursday, December 25, 2025" {
		t.Errorf("LongDate = %q", got)
	}
	if got := LongDate("soon"); got != "soon" {
		t.Errorf("LongDate(invalid) = %q, want input unchanged", got)
	}
}

func TestMoney(t *testing.T) {
	for in, want := range map[float64]string{0: "$0.00", 649.5: "$649.50", 1234.567: "$1234.57"} {
		if got := Money(in); got != want {
			t.Errorf("Money(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestServiceLabels(t *testing.T) {
	if got := ServiceLabels(true, true, true); strings.Join(got, "|") != "Tire Installation|Wheel Alignment|Oil Change" {
		t.Errorf("all = %v", got)
	}
	if got := ServiceLabels(false, false, false); len(got) != 0 {
		t.Errorf("none = %v", got)
	}
}
