package searchconsole

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const submissionBucket = "submissions"

// Ledger keeps the history of sitemap submissions in a BoltDB file.
type Ledger struct {
	db *bolt.DB
}

// OpenLedger opens (or creates) the ledger at path.
func OpenLedger(path string) (*Ledger, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(submissionBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the BoltDB file.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Record appends a submission report. Keys sort by time.
func (l *Ledger) Record(report SubmitReport) error {
	if l == nil || l.db == nil {
		return nil
	}
	value, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}
	key := []byte(report.Timestamp.UTC().Format("2006-01-02T15:04:05.000000000Z"))
	return l.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(submissionBucket))
		if bucket == nil {
			return fmt.Errorf("submission bucket missing")
		}
		return bucket.Put(key, value)
	})
}

// Last returns the most recent submission, or nil when none was recorded.
func (l *Ledger) Last() (*SubmitReport, error) {
	if l == nil || l.db == nil {
		return nil, nil
	}
	var out *SubmitReport
	err := l.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(submissionBucket))
		if bucket == nil {
			return fmt.Errorf("submission bucket missing")
		}
		_, value := bucket.Cursor().Last()
		if value == nil {
			return nil
		}
		var report SubmitReport
		if err := json.Unmarshal(value, &report); err != nil {
			return fmt.Errorf("decode submission: %w", err)
		}
		out = &report
		return nil
	})
	return out, err
}

// Count returns the number of recorded submissions.
func (l *Ledger) Count() (int, error) {
	if l == nil || l.db == nil {
		return 0, nil
	}
	var n int
	err := l.db.View(func(tx *bolt.Tx) error {
		if bucket := tx.Bucket([]byte(submissionBucket)); bucket != nil {
			n = bucket.Stats().KeyN
		}
		return nil
	})
	return n, err
}
