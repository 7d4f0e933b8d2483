package conversation

import (
	"encoding/json"
	"strings"

	"github.com/wolfman30/clinic-scheduler/internal/scheduling"
)

const (
	IntentBooking  = "booking"
	IntentQuestion = "question"
	IntentOther    = "other"
)

// Intent is the structured reading of a single user message. Fields the model
// did not find are nil and encode as null.
type Intent struct {
	Intent          string  `json:"intent"`
	AppointmentType *string `json:"appointment_type"`
	PreferredDate   *string `json:"preferred_date"`
	PreferredTime   *string `json:"preferred_time"`
	Reason          *string `json:"reason"`
	PatientName     *string `json:"patient_name"`
	PatientEmail    *string `json:"patient_email"`
	PatientPhone    *string `json:"patient_phone"`
}

// BookingData is returned alongside booking intents. AvailableSlots is filled
// when the preferred date could be looked up.
type BookingData struct {
	Intent
	AvailableSlots []scheduling.TimeSlot `json:"available_slots,omitempty"`
}

func otherIntent() Intent {
	return Intent{Intent: IntentOther}
}

// parseIntent decodes the model's JSON answer. Anything unreadable is "other".
func parseIntent(raw string) Intent {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		text = text[start : end+1]
	}

	var intent Intent
	if err := json.Unmarshal([]byte(text), &intent); err != nil {
		return otherIntent()
	}
	switch strings.ToLower(strings.TrimSpace(intent.Intent)) {
	case IntentBooking:
		intent.Intent = IntentBooking
	case IntentQuestion:
		intent.Intent = IntentQuestion
	default:
		return otherIntent()
	}

	for _, field := range []**string{
		&intent.AppointmentType, &intent.PreferredDate, &intent.PreferredTime, &intent.Reason,
		&intent.PatientName, &intent.PatientEmail, &intent.PatientPhone,
	} {
		*field = cleanField(*field)
	}
	return intent
}

func cleanField(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	return &s
}
