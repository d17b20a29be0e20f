package repo

import (
	"github.com/courtlab/go-publish-backend/internal/domain"
)

// LogCollection is the document name of the rolling dispatch log.
const LogCollection = "post-log"

// logKeep caps how many dispatch records the log document retains.
const logKeep = 100

// AppendLog appends records to the dispatch log, trimming the document to
// the most recent logKeep entries. The log is diagnostic only, so a failure
// here must not fail the dispatch that produced it; callers log and move on.
func AppendLog(s *Store, records ...domain.DispatchRecord) error {
	return s.WithLock(LogCollection, func() error {
		var log []domain.DispatchRecord
		if err := s.Load(LogCollection, &log); err != nil {
			return err
		}
		log = append(log, records...)
		if len(log) > logKeep {
			log = log[len(log)-logKeep:]
		}
		return s.Save(LogCollection, log)
	})
}

// LoadLog returns the dispatch log, oldest first.
func LoadLog(s *Store) ([]domain.DispatchRecord, error) {
	var log []domain.DispatchRecord
	if err := s.Load(LogCollection, &log); err != nil {
		return nil, err
	}
	return log, nil
}
