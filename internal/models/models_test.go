package models

import (
	"reflect"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

// assertFieldType checks that a struct field has the expected Go type.
func assertFieldType(t *testing.T, typ reflect.Type, fieldName, expectedType string) {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	got := f.Type.String()
	if got != expectedType {
		t.Errorf("%s.%s type = %q, want %q", typ.Name(), fieldName, got, expectedType)
	}
}

func TestQuote_Fields(t *testing.T) {
	typ := reflect.TypeOf(Quote{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "ReferenceNumber", "uniqueIndex")
	assertGormTag(t, typ, "ReferenceNumber", "not null")
	assertGormTag(t, typ, "CustomerEmail", "size:255")
	assertGormTag(t, typ, "ZipCode", "size:5")
	assertGormTag(t, typ, "Status", "default:new")
	assertGormTag(t, typ, "Status", "index")
	assertGormTag(t, typ, "AdditionalNotes", "type:text")
	assertGormTag(t, typ, "QuoteNotes", "type:text")
	assertGormTag(t, typ, "CreatedAt", "index")

	assertFieldType(t, typ, "ID", "string")
	assertFieldType(t, typ, "VehicleYear", "int")
	assertFieldType(t, typ, "Quantity", "int")
	assertFieldType(t, typ, "InstallationRequired", "bool")
	assertFieldType(t, typ, "QuoteAmount", "*float64")
	assertFieldType(t, typ, "QuoteSentAt", "*time.Time")
	assertFieldType(t, typ, "CreatedAt", "time.Time")
	assertFieldType(t, typ, "UpdatedAt", "time.Time")
}

func TestAppointment_Fields(t *testing.T) {
	typ := reflect.TypeOf(Appointment{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "AppointmentDate", "size:10")
	assertGormTag(t, typ, "Services", "serializer:json")
	assertGormTag(t, typ, "Status", "default:pending")
	assertGormTag(t, typ, "Status", "index")
	assertGormTag(t, typ, "AdminNotes", "type:text")

	assertFieldType(t, typ, "Services", "[]string")
	assertFieldType(t, typ, "DecidedAt", "*time.Time")
}

func TestStaff_Fields(t *testing.T) {
	typ := reflect.TypeOf(Staff{})

	assertGormTag(t, typ, "Email", "uniqueIndex")
	assertGormTag(t, typ, "PasswordHash", "not null")
	assertGormTag(t, typ, "Role", "default:staff")

	assertFieldType(t, typ, "LastLoginAt", "*time.Time")
	assertFieldType(t, typ, "Active", "bool")
}

func TestQuoteStatuses_LifecycleOrder(t *testing.T) {
	want := []string{"new", "contacted", "quoted", "completed", "declined"}
	if !reflect.DeepEqual(QuoteStatuses, want) {
		t.Errorf("QuoteStatuses = %v, want %v", QuoteStatuses, want)
	}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&Quote{}, &Appointment{}, &Staff{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func TestBeforeCreate_AssignsUUID(t *testing.T) {
	db := openTestDB(t)

	q := Quote{ReferenceNumber: "TS-20250101-1000", CustomerName: "Ann", Status: QuoteStatusNew}
	if err := db.Create(&q).Error; err != nil {
		t.Fatalf("create quote: %v", err)
	}
	if len(q.ID) != 36 {
		t.Errorf("quote ID = %q, want a UUID", q.ID)
	}

	a := Appointment{CustomerName: "Ann", Services: []string{"oil-change"}}
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	if len(a.ID) != 36 {
		t.Errorf("appointment ID = %q, want a UUID", a.ID)
	}

	s := Staff{ID: "fixed-id", Email: "a@b.c", PasswordHash: "x"}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("create staff: %v", err)
	}
	if s.ID != "fixed-id" {
		t.Errorf("staff ID = %q, want preset ID kept", s.ID)
	}
}

func TestAppointment_ServicesRoundTrip(t *testing.T) {
	db := openTestDB(t)

	a := Appointment{CustomerName: "Ann", Services: []string{"tire-rotation", "brake-service"}}
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	var got Appointment
	if err := db.First(&got, "id = ?", a.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got.Services, a.Services) {
		t.Errorf("Services = %v, want %v", got.Services, a.Services)
	}
	if got.Status != AppointmentStatusPending {
		t.Errorf("Status = %q, want pending default", got.Status)
	}
}

func TestQuote_FalseServiceFlagsPersist(t *testing.T) {
	db := openTestDB(t)

	q := Quote{ReferenceNumber: "TS-20250101-2000", InstallationRequired: false, Status: QuoteStatusNew}
	if err := db.Create(&q).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	var got Quote
	if err := db.First(&got, "id = ?", q.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.InstallationRequired {
		t.Error("InstallationRequired = true, want false as written")
	}
}
