package timefmt

import (
	"testing"
	"time"

	"golang.org/x/text/language"
)

func newID() *Formatter {
	return New(time.FixedZone("WIB", 7*60*60), language.Indonesian)
}

func TestToDateZoneless(t *testing.T) {
	f := newID()
	got, ok := f.ToDate("2025-06-01T09:05:00")
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	want := time.Date(2025, 6, 1, 2, 5, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ToDate = %v, want %v", got, want)
	}

	got, ok = f.ToDate("2025-06-01 09:05:00")
	if !ok || !got.Equal(want) {
		t.Errorf("space separated = %v (%v), want %v", got, ok, want)
	}
}

func TestToDateRoundTrip(t *testing.T) {
	f := newID()
	instants := []time.Time{
		time.Date(2025, 6, 1, 9, 5, 0, 0, time.UTC),
		time.Date(1999, 12, 31, 23, 59, 59, 123000000, time.UTC),
		time.Date(2030, 1, 1, 0, 0, 0, 0, time.FixedZone("X", -5*60*60)),
	}
	for _, in := range instants {
		s := in.Format(time.RFC3339Nano)
		got, ok := f.ToDate(s)
		if !ok {
			t.Errorf("ToDate(%q) failed", s)
			continue
		}
		if got.UnixMilli() != in.UnixMilli() {
			t.Errorf("ToDate(%q) = %d ms, want %d ms", s, got.UnixMilli(), in.UnixMilli())
		}
	}
}

func TestToDateInvalid(t *testing.T) {
	f := newID()
	for _, s := range []string{"", "   ", "besok", "2025-13-45", "09:00"} {
		if _, ok := f.ToDate(s); ok {
			t.Errorf("ToDate(%q) succeeded, want failure", s)
		}
	}
}

func TestFmtDate(t *testing.T) {
	f := newID()
	tests := []struct {
		in   string
		want string
	}{
		{"2025-06-01T09:00:00", "Minggu, 1 Juni 2025"},
		{"2025-08-17 10:00:00", "Minggu, 17 Agustus 2025"},
		{"2024-02-29", "Kamis, 29 Februari 2024"},
		{"2025-99-99T10:00:00", "2025-99-99"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := f.FmtDate(tt.in); got != tt.want {
			t.Errorf("FmtDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFmtDateEnglish(t *testing.T) {
	f := New(time.FixedZone("WIB", 7*60*60), language.English)
	if got := f.FmtDate("2025-06-01T09:00:00"); got != "Sunday, June 1, 2025" {
		t.Errorf("FmtDate = %q", got)
	}
}

func TestFmtTimeRange(t *testing.T) {
	f := newID()
	tests := []struct {
		start, end string
		want       string
	}{
		{"2025-06-01T09:05:00", "", "09.05 WIB"},
		{"2025-06-01T09:00:00", "2025-06-01T11:30:00", "09.00 – 11.30 WIB"},
		{"2025-06-01T09:00:00", "2025-06-01T09:00:59", "09.00 WIB"},
		{"2025-06-01T02:00:00Z", "", "09.00 WIB"},
		{"jam 8:30 pagi", "selesai 12:00", "08.30 – 12.00 WIB"},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := f.FmtTimeRange(tt.start, tt.end); got != tt.want {
			t.Errorf("FmtTimeRange(%q, %q) = %q, want %q", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestCombine(t *testing.T) {
	tests := []struct {
		date, clock string
		want        string
	}{
		{"2025-06-01", "09:00", "2025-06-01T09:00:00"},
		{"2025-06-01", "8.30", "2025-06-01T08:30:00"},
		{"", "09:00", ""},
		{"2025-06-01", "", ""},
	}
	for _, tt := range tests {
		if got := Combine(tt.date, tt.clock); got != tt.want {
			t.Errorf("Combine(%q, %q) = %q, want %q", tt.date, tt.clock, got, tt.want)
		}
	}
}

func TestTimeAgo(t *testing.T) {
	f := newID()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		elapsed time.Duration
		want    string
	}{
		{0, "baru saja"},
		{-time.Hour, "baru saja"},
		{time.Second, "1 detik yang lalu"},
		{59 * time.Second, "59 detik yang lalu"},
		{60 * time.Second, "1 menit yang lalu"},
		{59 * time.Minute, "59 menit yang lalu"},
		{2 * time.Hour, "2 jam yang lalu"},
		{3 * 24 * time.Hour, "3 hari yang lalu"},
		{65 * 24 * time.Hour, "2 bulan yang lalu"},
		{2 * 365 * 24 * time.Hour, "2 tahun yang lalu"},
	}
	for _, tt := range tests {
		if got := f.TimeAgo(now.Add(-tt.elapsed), now); got != tt.want {
			t.Errorf("TimeAgo(-%v) = %q, want %q", tt.elapsed, got, tt.want)
		}
	}
}

func TestTimeAgoEnglish(t *testing.T) {
	f := New(nil, language.English)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if got := f.TimeAgo(now.Add(-time.Minute), now); got != "1 minute ago" {
		t.Errorf("TimeAgo = %q, want %q", got, "1 minute ago")
	}
	if got := f.TimeAgo(now.Add(-5*time.Minute), now); got != "5 minutes ago" {
		t.Errorf("TimeAgo = %q, want %q", got, "5 minutes ago")
	}
}

func TestAgoUnparseable(t *testing.T) {
	f := newID()
	if got := f.Ago("kemarin", time.Now()); got != "" {
		t.Errorf("Ago = %q, want empty", got)
	}
}
