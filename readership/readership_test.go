package readership

import (
	"context"
	"database/sql"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	_ "modernc.org/sqlite"
)

const (
	chromeUA    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	iphoneUA    = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	googlebotUA = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTracker(t *testing.T, reg prometheus.Registerer) *Tracker {
	t.Helper()
	store, err := NewStore(openDB(t))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	tr, err := NewTracker(context.Background(), store, "diary.example", reg)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	return tr
}

func TestParseAgent(t *testing.T) {
	tests := []struct {
		ua   string
		want Agent
	}{
		{chromeUA, Agent{Browser: "Chrome", OS: "Windows", Device: "Desktop"}},
		{iphoneUA, Agent{Browser: "Safari", OS: "iOS", Device: "Mobile"}},
		{"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) Mobile Safari", Agent{Browser: "Safari", OS: "iOS", Device: "Tablet"}},
		{"Mozilla/5.0 (Linux; Android 14) Chrome/120.0 Mobile Safari/537.36", Agent{Browser: "Chrome", OS: "Android", Device: "Mobile"}},
		{"Mozilla/5.0 (Windows NT 10.0) Chrome/120.0 Safari/537.36 Edg/120.0", Agent{Browser: "Edge", OS: "Windows", Device: "Desktop"}},
		{"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0", Agent{Browser: "Firefox", OS: "Linux", Device: "Desktop"}},
		{googlebotUA, Agent{Browser: "Other", OS: "Other", Device: "Desktop", Bot: "Googlebot"}},
		{"facebookexternalhit/1.1", Agent{Browser: "Other", OS: "Other", Device: "Desktop", Bot: "Facebook"}},
		{"SomeRandomBot/1.0", Agent{Browser: "Other", OS: "Other", Device: "Desktop", Bot: "Other Bot"}},
		{"", Agent{Browser: "Other", OS: "Other", Device: "Desktop"}},
	}
	for _, tt := range tests {
		if got := ParseAgent(tt.ua); got != tt.want {
			t.Errorf("ParseAgent(%q) = %+v, want %+v", tt.ua, got, tt.want)
		}
	}
}

func TestReferrerSource(t *testing.T) {
	tests := []struct{ ref, want string }{
		{"", "Direct"},
		{"https://www.google.com/search?q=bali", "Google"},
		{"https://t.co/abc", "Twitter"},
		{"https://diary.example/?page=2", "Internal"},
		{"https://www.travelblog.id/post/1", "travelblog.id"},
		{"not a url", "Other"},
	}
	for _, tt := range tests {
		if got := ReferrerSource(tt.ref, "diary.example"); got != tt.want {
			t.Errorf("ReferrerSource(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
	if got := ReferrerSource("http://localhost:3000/", "localhost:3000"); got != "Internal" {
		t.Errorf("host with port = %q, want Internal", got)
	}
}

func TestVisitorIDIsStableAndSalted(t *testing.T) {
	a := newTracker(t, nil)
	b := newTracker(t, nil)

	id := a.VisitorID("1.2.3.4", chromeUA)
	if len(id) != 16 {
		t.Fatalf("len(id) = %d, want 16", len(id))
	}
	if again := a.VisitorID("1.2.3.4", chromeUA); again != id {
		t.Fatalf("VisitorID not stable: %q != %q", again, id)
	}
	if other := a.VisitorID("1.2.3.5", chromeUA); other == id {
		t.Fatal("different IPs produced the same id")
	}
	if b.VisitorID("1.2.3.4", chromeUA) == id {
		t.Fatal("separate installations share a salt")
	}
}

func TestSaltPersists(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(openDB(t))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	first, err := NewTracker(ctx, store, "", nil)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	second, err := NewTracker(ctx, store, "", nil)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	if first.VisitorID("ip", "ua") != second.VisitorID("ip", "ua") {
		t.Fatal("salt was regenerated")
	}
}

func TestRecordAndSummarize(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	tr := newTracker(t, reg)
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return start }

	read := func(ip, ua, ref string, id int64) {
		t.Helper()
		r := httptest.NewRequest("GET", "/diary/1/", nil)
		r.Header.Set("User-Agent", ua)
		if ref != "" {
			r.Header.Set("Referer", ref)
		}
		ok, err := tr.Record(ctx, r, ip, id)
		if err != nil || !ok {
			t.Fatalf("Record: ok=%v err=%v", ok, err)
		}
	}
	read("1.1.1.1", chromeUA, "https://www.google.com/", 7)
	read("1.1.1.1", chromeUA, "", 7)
	read("2.2.2.2", iphoneUA, "", 7)
	read("2.2.2.2", iphoneUA, "https://diary.example/", 9)
	read("3.3.3.3", googlebotUA, "", 7)

	dnt := httptest.NewRequest("GET", "/diary/1/", nil)
	dnt.Header.Set("DNT", "1")
	if ok, err := tr.Record(ctx, dnt, "4.4.4.4", 7); ok || err != nil {
		t.Fatalf("DNT request recorded: ok=%v err=%v", ok, err)
	}

	if got := testutil.ToFloat64(tr.reads.WithLabelValues("human")); got != 4 {
		t.Errorf("human reads metric = %v, want 4", got)
	}
	if got := testutil.ToFloat64(tr.reads.WithLabelValues("bot")); got != 1 {
		t.Errorf("bot reads metric = %v, want 1", got)
	}

	sum, err := tr.Store().Summarize(ctx, start.Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.Reads != 4 || sum.Readers != 2 || sum.BotReads != 1 {
		t.Fatalf("summary = %d reads, %d readers, %d bot reads", sum.Reads, sum.Readers, sum.BotReads)
	}
	if len(sum.Top) != 2 || sum.Top[0] != (DiaryStat{DiaryID: 7, Reads: 3, Readers: 2}) || sum.Top[1] != (DiaryStat{DiaryID: 9, Reads: 1, Readers: 1}) {
		t.Fatalf("top = %+v", sum.Top)
	}
	if len(sum.Bots) != 1 || sum.Bots[0] != (DimensionStat{Name: "Googlebot", Count: 1}) {
		t.Fatalf("bots = %+v", sum.Bots)
	}
	if len(sum.Referrers) != 3 || sum.Referrers[0] != (DimensionStat{Name: "Direct", Count: 2}) {
		t.Fatalf("referrers = %+v", sum.Referrers)
	}
	if len(sum.Devices) != 2 || sum.Devices[0] != (DimensionStat{Name: "Desktop", Count: 2}) {
		t.Fatalf("devices = %+v", sum.Devices)
	}

	later, err := tr.Store().Summarize(ctx, start.Add(time.Hour), 10)
	if err != nil {
		t.Fatalf("Summarize later: %v", err)
	}
	if later.Reads != 0 || len(later.Top) != 0 {
		t.Fatalf("reads before since were counted: %+v", later)
	}
}

func TestPruneBefore(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(t, nil)
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, at := range []time.Time{old, old.Add(48 * time.Hour)} {
		if err := tr.Store().SaveRead(ctx, Read{DiaryID: int64(i + 1), VisitorID: "v", Browser: "Chrome", OS: "Linux", Device: "Desktop", At: at}); err != nil {
			t.Fatalf("SaveRead: %v", err)
		}
	}

	n, err := tr.Store().PruneBefore(ctx, old.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("PruneBefore: %v", err)
	}
	if n != 1 {
		t.Fatalf("pruned %d, want 1", n)
	}
	top, err := tr.Store().TopDiaries(ctx, old, 10)
	if err != nil {
		t.Fatalf("TopDiaries: %v", err)
	}
	if len(top) != 1 || top[0].DiaryID != 2 {
		t.Fatalf("top = %+v", top)
	}
}
