// Package readership counts diary reads without storing addresses or
// cookies. Visitors are identified by a salted hash of their IP address and
// User-Agent, and crawler traffic is recorded apart from human reads.
package readership

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const saltKey = "hash_salt"

// Read is one diary page view.
type Read struct {
	DiaryID   int64
	VisitorID string
	Browser   string
	OS        string
	Device    string
	Bot       string
	Referrer  string
	At        time.Time
}

// Tracker records reads into a Store.
type Tracker struct {
	store    *Store
	salt     string
	siteHost string
	reads    *prometheus.CounterVec
	now      func() time.Time
}

// NewTracker loads the installation salt from store, generating and saving
// one on first use. reg may be nil.
func NewTracker(ctx context.Context, store *Store, siteHost string, reg prometheus.Registerer) (*Tracker, error) {
	salt, err := store.Setting(ctx, saltKey)
	if err != nil {
		return nil, fmt.Errorf("read hash salt: %w", err)
	}
	if salt == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("generate salt: %w", err)
		}
		salt = hex.EncodeToString(b)
		if err := store.SetSetting(ctx, saltKey, salt); err != nil {
			return nil, fmt.Errorf("store hash salt: %w", err)
		}
	}

	t := &Tracker{
		store:    store,
		salt:     salt,
		siteHost: siteHost,
		reads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diaryengine",
			Subsystem: "readership",
			Name:      "reads_total",
			Help:      "Diary page views by client kind (human or bot).",
		}, []string{"kind"}),
		now: time.Now,
	}
	if reg != nil {
		reg.MustRegister(t.reads)
	}
	return t, nil
}

// VisitorID derives an anonymous visitor id from ip and userAgent.
func (t *Tracker) VisitorID(ip, userAgent string) string {
	h := sha256.New()
	h.Write([]byte(t.salt + ip + "|" + userAgent))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Record stores a read of diaryID by the client behind r. Requests carrying
// DNT: 1 are not recorded. It reports whether a read was stored.
func (t *Tracker) Record(ctx context.Context, r *http.Request, ip string, diaryID int64) (bool, error) {
	if r.Header.Get("DNT") == "1" {
		return false, nil
	}
	ua := r.UserAgent()
	agent := ParseAgent(ua)
	read := Read{
		DiaryID:   diaryID,
		VisitorID: t.VisitorID(ip, ua),
		Browser:   agent.Browser,
		OS:        agent.OS,
		Device:    agent.Device,
		Bot:       agent.Bot,
		Referrer:  ReferrerSource(r.Referer(), t.siteHost),
		At:        t.now(),
	}
	if err := t.store.SaveRead(ctx, read); err != nil {
		return false, fmt.Errorf("save read of diary %d: %w", diaryID, err)
	}
	kind := "human"
	if agent.IsBot() {
		kind = "bot"
	}
	t.reads.WithLabelValues(kind).Inc()
	return true, nil
}

// Store returns the underlying store.
func (t *Tracker) Store() *Store {
	return t.store
}
