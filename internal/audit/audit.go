package audit

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	db *sql.DB
}

func New(db *sql.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Log(userID string, action string, metadata string) {
	ref := uuid.New().String()

	s.db.Exec(`
	INSERT INTO audit_logs(ref, user_id, action, metadata, created_at)
	VALUES (?, ?, ?, ?, ?)
	`, ref, userID, action, metadata, time.Now().Unix())
}
