package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/meinhoongagan/groomly/events"
	"github.com/meinhoongagan/groomly/models"
	"gorm.io/gorm"
)

type mockTx struct {
	calls int
}

func (m *mockTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type mockServices struct {
	services []models.ProviderService
	err      error
}

func (m *mockServices) FindOwned(_ context.Context, providerID uint, ids []uint) ([]models.ProviderService, error) {
	if m.err != nil {
		return nil, m.err
	}
	want := map[uint]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []models.ProviderService
	for _, s := range m.services {
		if s.ProviderID == providerID && want[s.ID] {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockSchedule struct {
	hours map[uint][]models.WorkingHours
	err   error
}

func (m *mockSchedule) WorkingHours(_ context.Context, providerID uint) ([]models.WorkingHours, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.hours[providerID], nil
}

// weekSchedule opens Monday to Saturday 08:00-20:00 with a lunch break;
// Sunday is listed but closed.
func weekSchedule(providerID uint) []models.WorkingHours {
	breakStart, breakEnd := "12:00", "13:00"
	hours := []models.WorkingHours{{ProviderID: providerID, DayOfWeek: models.Sunday, StartTime: "08:00", EndTime: "20:00", IsWorkDay: false}}
	for d := models.Monday; d <= models.Saturday; d++ {
		hours = append(hours, models.WorkingHours{
			ProviderID: providerID,
			DayOfWeek:  d,
			StartTime:  "08:00",
			EndTime:    "20:00",
			IsWorkDay:  true,
			BreakStart: &breakStart,
			BreakEnd:   &breakEnd,
		})
	}
	return hours
}

type mockAppointments struct {
	rows      []models.Appointment
	locked    []string
	createErr error
}

func (m *mockAppointments) LockProviderDay(_ context.Context, providerID uint, date string) error {
	m.locked = append(m.locked, date)
	return nil
}

func (m *mockAppointments) CountOverlapping(_ context.Context, providerID uint, date string, start, end time.Time) (int64, error) {
	var n int64
	for _, a := range m.rows {
		if a.ProviderID == providerID && a.Date == date && a.Status != models.StatusCancelled && a.Overlaps(start, end) {
			n++
		}
	}
	return n, nil
}

func (m *mockAppointments) Create(_ context.Context, appt *models.Appointment) error {
	if m.createErr != nil {
		return m.createErr
	}
	if err := appt.BeforeCreate(nil); err != nil {
		return err
	}
	appt.ID = uint(len(m.rows) + 1)
	m.rows = append(m.rows, *appt)
	return nil
}

type mockAudit struct {
	entries []*models.AuditLog
	err     error
}

func (m *mockAudit) Record(_ context.Context, entry *models.AuditLog) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

type mockPublisher struct {
	published []events.Event
}

func (m *mockPublisher) Publish(_ context.Context, e events.Event) error {
	m.published = append(m.published, e)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestValidator(appts *mockAppointments, audit *mockAudit, pub *mockPublisher) *Validator {
	services := &mockServices{services: []models.ProviderService{
		{Model: gorm.Model{ID: 1}, Name: "Haircut", ProviderID: 7, Duration: 30},
		{Model: gorm.Model{ID: 2}, Name: "Beard trim", ProviderID: 7, Duration: 15},
		{Model: gorm.Model{ID: 3}, Name: "Colour", ProviderID: 8, Duration: 60},
	}}
	schedule := &mockSchedule{hours: map[uint][]models.WorkingHours{7: weekSchedule(7)}}
	return NewValidator(&mockTx{}, services, schedule, appts, audit, pub, time.UTC, testLogger())
}

func TestValidator_Book(t *testing.T) {
	existing := models.Appointment{
		ProviderID: 7,
		Date:       "2024-06-01",
		StartTime:  time.Date(2024, 6, 1, 10, 15, 0, 0, time.UTC),
		Duration:   30,
		Status:     models.StatusPending,
	}
	cancelled := models.Appointment{
		ProviderID: 7,
		Date:       "2024-06-01",
		StartTime:  time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC),
		Duration:   60,
		Status:     models.StatusCancelled,
	}

	tests := []struct {
		name    string
		req     Request
		wantErr error
		wantDur int
	}{
		{
			name:    "overlaps existing booking",
			req:     Request{ProviderID: 7, ServiceIDs: []uint{1}, Date: "2024-06-01", StartTime: "10:00", Duration: 30},
			wantErr: ErrProviderUnavailable,
		},
		{
			name:    "touches end of existing booking",
			req:     Request{ProviderID: 7, ServiceIDs: []uint{1}, Date: "2024-06-01", StartTime: "10:45", Duration: 30},
			wantDur: 30,
		},
		{
			name:    "ends where existing booking starts",
			req:     Request{ProviderID: 7, ServiceIDs: []uint{2}, Date: "2024-06-01", StartTime: "2024-06-01T10:00:00Z", Duration: 15},
			wantDur: 15,
		},
		{
			name:    "cancelled bookings do not block",
			req:     Request{ProviderID: 7, ServiceIDs: []uint{1, 2}, Date: "2024-06-01", StartTime: "14:00"},
			wantDur: 45,
		},
		{
			name:    "service of another provider",
			req:     Request{ProviderID: 7, ServiceIDs: []uint{1, 3}, Date: "2024-06-01", StartTime: "16:00"},
			wantErr: ErrServicesInvalid,
		},
		{
			name:    "unknown service",
			req:     Request{ProviderID: 7, ServiceIDs: []uint{99}, Date: "2024-06-01", StartTime: "16:00"},
			wantErr: ErrServicesInvalid,
		},
		{
			name:    "duplicate ids count once",
			req:     Request{ProviderID: 7, ServiceIDs: []uint{1, 1}, Date: "2024-06-01", StartTime: "17:00"},
			wantDur: 30,
		},
		{
			name:    "no services",
			req:     Request{ProviderID: 7, Date: "2024-06-01", StartTime: "16:00"},
			wantErr: ErrInvalidRequest,
		},
		{
			name:    "bad payment method",
			req:     Request{ProviderID: 7, ServiceIDs: []uint{1}, Date: "2024-06-01", StartTime: "16:00", PaymentMethod: "crypto"},
			wantErr: ErrInvalidRequest,
		},
		{
			name:    "negative duration",
			req:     Request{ProviderID: 7, ServiceIDs: []uint{1}, Date: "2024-06-01", StartTime: "16:00", Duration: -5},
			wantErr: ErrInvalidRequest,
		},
		{
			name:    "duration large enough to overflow the end time",
			req:     Request{ProviderID: 7, ServiceIDs: []uint{1}, Date: "2024-06-01", StartTime: "10:00", Duration: 200_000_000},
			wantErr: ErrInvalidRequest,
		},
		{
			name:    "duration spanning several days",
			req:     Request{ProviderID: 7, ServiceIDs: []uint{1}, Date: "2024-06-01", StartTime: "10:00", Duration: 3000},
			wantErr: ErrInvalidRequest,
		},
		{
			name:    "before opening",
			req:     Request{ProviderID: 7, ServiceIDs: []uint{1}, Date: "2024-06-01", StartTime: "03:00"},
			wantErr: ErrOutsideWorkingHours,
		},
		{
			name:    "runs past closing",
			req:     Request{ProviderID: 7, ServiceIDs: []uint{1}, Date: "2024-06-01", StartTime: "19:45"},
			wantErr: ErrOutsideWorkingHours,
		},
		{
			name:    "ends exactly at closing",
			req:     Request{ProviderID: 7, ServiceIDs: []uint{1}, Date: "2024-06-01", StartTime: "19:30"},
			wantDur: 30,
		},
		{
			name:    "runs into the break",
			req:     Request{ProviderID: 7, ServiceIDs: []uint{1}, Date: "2024-06-01", StartTime: "11:45"},
			wantErr: ErrOutsideWorkingHours,
		},
		{
			name:    "starts when the break ends",
			req:     Request{ProviderID: 7, ServiceIDs: []uint{1}, Date: "2024-06-01", StartTime: "13:00"},
			wantDur: 30,
		},
		{
			name:    "closed day",
			req:     Request{ProviderID: 7, ServiceIDs: []uint{1}, Date: "2024-06-02", StartTime: "10:00"},
			wantErr: ErrOutsideWorkingHours,
		},
		{
			name:    "provider without a schedule",
			req:     Request{ProviderID: 8, ServiceIDs: []uint{3}, Date: "2024-06-01", StartTime: "10:00"},
			wantErr: ErrOutsideWorkingHours,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appts := &mockAppointments{rows: []models.Appointment{existing, cancelled}}
			audit := &mockAudit{}
			pub := &mockPublisher{}
			v := newTestValidator(appts, audit, pub)

			got, err := v.Book(context.Background(), 3, tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Book() error = %v, want %v", err, tt.wantErr)
				}
				if len(appts.rows) != 2 {
					t.Errorf("rejected booking mutated storage: %d rows", len(appts.rows))
				}
				if len(audit.entries) != 0 {
					t.Errorf("rejected booking wrote audit entries")
				}
				return
			}
			if err != nil {
				t.Fatalf("Book() unexpected error = %v", err)
			}
			if got.Duration != tt.wantDur {
				t.Errorf("Duration = %d, want %d", got.Duration, tt.wantDur)
			}
			if got.Status != models.StatusPending || got.PaymentStatus != models.PaymentPending || got.NotificationStatus != models.NotificationUnread {
				t.Errorf("unexpected initial state: %s %s %s", got.Status, got.PaymentStatus, got.NotificationStatus)
			}
			if got.CustomerID != 3 {
				t.Errorf("CustomerID = %d, want 3", got.CustomerID)
			}
			if len(audit.entries) != 1 || audit.entries[0].EntityID != got.ID || audit.entries[0].ActorID != 3 {
				t.Errorf("expected one audit entry for appointment %d, got %+v", got.ID, audit.entries)
			}
			if len(pub.published) != 1 || pub.published[0].Type != events.AppointmentCreated {
				t.Errorf("expected appointment.created event, got %+v", pub.published)
			}
		})
	}
}

func TestValidator_Book_AuditFailureIsNotSurfaced(t *testing.T) {
	appts := &mockAppointments{}
	audit := &mockAudit{err: errors.New("audit down")}
	v := newTestValidator(appts, audit, &mockPublisher{})

	got, err := v.Book(context.Background(), 3, Request{ProviderID: 7, ServiceIDs: []uint{1}, Date: "2024-06-01", StartTime: "09:00"})
	if err != nil {
		t.Fatalf("Book() error = %v, want nil", err)
	}
	if got.ID == 0 || len(appts.rows) != 1 {
		t.Fatalf("appointment not stored")
	}
}

func TestValidator_Book_StorageError(t *testing.T) {
	storageErr := errors.New("connection reset")
	appts := &mockAppointments{createErr: storageErr}
	v := newTestValidator(appts, &mockAudit{}, &mockPublisher{})

	_, err := v.Book(context.Background(), 3, Request{ProviderID: 7, ServiceIDs: []uint{1}, Date: "2024-06-01", StartTime: "09:00"})
	if !errors.Is(err, storageErr) {
		t.Fatalf("Book() error = %v, want wrapped storage error", err)
	}
	if errors.Is(err, ErrInvalidRequest) || errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("storage error classified as validation error: %v", err)
	}
}

func TestValidator_Book_OutsideHoursIsInvalidRequest(t *testing.T) {
	v := newTestValidator(&mockAppointments{}, &mockAudit{}, &mockPublisher{})
	_, err := v.Book(context.Background(), 3, Request{ProviderID: 7, ServiceIDs: []uint{1}, Date: "2024-06-02", StartTime: "03:00"})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("Book() error = %v, want ErrInvalidRequest", err)
	}
}

func TestValidator_Book_ScheduleError(t *testing.T) {
	loadErr := errors.New("connection reset")
	appts := &mockAppointments{}
	v := newTestValidator(appts, &mockAudit{}, &mockPublisher{})
	v.schedule = &mockSchedule{err: loadErr}

	_, err := v.Book(context.Background(), 3, Request{ProviderID: 7, ServiceIDs: []uint{1}, Date: "2024-06-01", StartTime: "09:00"})
	if !errors.Is(err, loadErr) || errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("Book() error = %v, want wrapped storage error", err)
	}
	if len(appts.rows) != 0 {
		t.Errorf("stored %d appointments after a failed schedule load", len(appts.rows))
	}
}

func TestValidator_Book_SequentialBookingsNeverOverlap(t *testing.T) {
	appts := &mockAppointments{}
	v := newTestValidator(appts, &mockAudit{}, &mockPublisher{})

	starts := []string{"09:00", "09:10", "09:30", "09:45", "10:00", "09:59"}
	for _, s := range starts {
		_, _ = v.Book(context.Background(), 3, Request{ProviderID: 7, ServiceIDs: []uint{1}, Date: "2024-06-01", StartTime: s})
	}

	for i := range appts.rows {
		for j := i + 1; j < len(appts.rows); j++ {
			a, b := appts.rows[i], appts.rows[j]
			if a.Overlaps(b.StartTime, b.EndAt()) {
				t.Fatalf("appointments %d and %d overlap", a.ID, b.ID)
			}
		}
	}
	if len(appts.rows) != 3 {
		t.Errorf("stored %d appointments, want 3 (09:00, 09:30, 10:00)", len(appts.rows))
	}
}

func TestParseStart(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata not available")
	}

	tests := []struct {
		name     string
		date     string
		clock    string
		loc      *time.Location
		want     time.Time
		wantDate string
		wantErr  bool
	}{
		{"clock with date", "2024-06-01", "10:00", time.UTC, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), "2024-06-01", false},
		{"rfc3339 derives date", "", "2024-06-01T10:00:00Z", time.UTC, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), "2024-06-01", false},
		{"rfc3339 in local zone", "", "2024-06-01T23:30:00Z", berlin, time.Date(2024, 6, 2, 1, 30, 0, 0, berlin), "2024-06-02", false},
		{"rfc3339 date mismatch", "2024-06-02", "2024-06-01T10:00:00Z", time.UTC, time.Time{}, "", true},
		{"clock without date", "", "10:00", time.UTC, time.Time{}, "", true},
		{"empty start", "2024-06-01", "", time.UTC, time.Time{}, "", true},
		{"bad date", "2024-13-01", "10:00", time.UTC, time.Time{}, "", true},
		{"bad clock", "2024-06-01", "10am", time.UTC, time.Time{}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, date, err := ParseStart(tt.date, tt.clock, tt.loc)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRequest) {
					t.Fatalf("ParseStart() error = %v, want ErrInvalidRequest", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStart() error = %v", err)
			}
			if !got.Equal(tt.want) || date != tt.wantDate {
				t.Errorf("ParseStart() = %v %s, want %v %s", got, date, tt.want, tt.wantDate)
			}
		})
	}
}
