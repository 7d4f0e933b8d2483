package bookings

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, _, _ := newTestService(t)
	h := NewHandler(svc, nil)
	r := chi.NewRouter()
	r.Get("/availability", h.Availability)
	r.Post("/book", h.Book)
	r.Get("/bookings/{bookingID}", h.GetBooking)
	r.Get("/schedule/{date}", h.GetSchedule)
	r.Put("/schedule/{date}", h.PutSchedule)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["detail"]
}

func TestHandlerAvailability(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/availability?date=2030-06-15&appointment_type=followup", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp Availability
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.AvailableSlots, 16)

	rec = doJSON(t, r, http.MethodGet, "/availability?date=2030-06-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, detail(t, rec), "past")

	rec = doJSON(t, r, http.MethodGet, "/availability?date=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/availability?date=2030-06-15&appointment_type=xray", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerBookFlow(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/book", validRequest("2030-06-15", "09:30"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var conf Confirmation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conf))
	assert.Equal(t, "confirmed", conf.Status)
	assert.Equal(t, "APPT-2030-06-15-001", conf.BookingID)
	assert.Equal(t, "09:30", conf.Details.Time)

	rec = doJSON(t, r, http.MethodPost, "/book", validRequest("2030-06-15", "09:30"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "time slot already booked", detail(t, rec))

	rec = doJSON(t, r, http.MethodPost, "/book", validRequest("2030-06-15", "09:45"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/bookings/"+conf.BookingID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, conf.ConfirmationCode, got.ConfirmationCode)

	rec = doJSON(t, r, http.MethodGet, "/bookings/APPT-unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/book", validRequest(" 2030-06-15", "09:30"))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/availability?date=%202030-06-15+", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var avail Availability
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &avail))
	assert.Equal(t, "2030-06-15", avail.Date)
	for _, slot := range avail.AvailableSlots {
		assert.Equal(t, slot.StartTime != "09:30", slot.Available, slot.StartTime)
	}
}

func TestHandlerBookRequiresTypeAndReason(t *testing.T) {
	r := newTestRouter(t)

	for name, mutate := range map[string]func(*BookingRequest){
		"no type":   func(req *BookingRequest) { req.AppointmentType = "" },
		"no reason": func(req *BookingRequest) { req.Reason = "" },
	} {
		req := validRequest("2030-06-15", "10:00")
		mutate(&req)
		rec := doJSON(t, r, http.MethodPost, "/book", req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		assert.Contains(t, detail(t, rec), "required", name)
	}
}

func TestHandlerBookBadBody(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/book", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", detail(t, rec))
}

func TestHandlerSchedule(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/schedule/2030-06-15", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp scheduleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Override)
	assert.Len(t, resp.Slots, 16)

	rec = doJSON(t, r, http.MethodPut, "/schedule/2030-06-15", map[string]any{
		"slots": []map[string]string{{"start_time": "10:00", "end_time": "10:30"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Override)
	require.Len(t, resp.Slots, 1)
	assert.True(t, resp.Slots[0].Available)

	rec = doJSON(t, r, http.MethodPut, "/schedule/%202030-06-16", map[string]any{
		"slots": []map[string]string{{"start_time": "14:00", "end_time": "14:30"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2030-06-16", resp.Date)

	rec = doJSON(t, r, http.MethodGet, "/schedule/2030-06-16", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Override)
	require.Len(t, resp.Slots, 1)
	assert.Equal(t, "14:00", resp.Slots[0].StartTime)

	rec = doJSON(t, r, http.MethodPut, "/schedule/2030-06-15", map[string]any{
		"slots": []map[string]string{{"start_time": "10:00", "end_time": "09:00"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(ErrInvalidDate))
	assert.Equal(t, http.StatusBadRequest, StatusFor(ErrInvalidPatient))
	assert.Equal(t, http.StatusBadRequest, StatusFor(ErrInvalidBookingRequest))
	assert.Equal(t, http.StatusNotFound, StatusFor(ErrSlotNotFound))
	assert.Equal(t, http.StatusConflict, StatusFor(ErrSlotConflict))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(storageError("x", assert.AnError)))
}

func TestHandlerStorageFailureHidesDetail(t *testing.T) {
	store := failingStore{Store: NewFileStore(filepath.Join(t.TempDir(), "b.json"))}
	h := NewHandler(NewService(store, nil, WithCalendar(testCalendar())), nil)

	req := httptest.NewRequest(http.MethodGet, "/availability?date=2030-06-15", nil)
	rec := httptest.NewRecorder()
	h.Availability(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "booking storage unavailable", detail(t, rec))
}
