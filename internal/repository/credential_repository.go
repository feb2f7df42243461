package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/billetterie/pretix-admin/internal/utils"
)

// Credential mirrors the 'pretix_configurations' table: one upstream
// credential record per operator.  APIKey always holds the plain token in
// memory; the repository seals it on every write and opens it on every
// read, so callers never see ciphertext.
type Credential struct {
	ID        uint64
	UserID    uint64
	BaseURL   string
	APIKey    string
	Organizer string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CredentialRepo stores credential records with the API key sealed at rest.
type CredentialRepo struct {
	DB  *sql.DB
	key []byte // 32-byte sealing key
}

func NewCredentialRepo(db *sql.DB, key []byte) *CredentialRepo {
	return &CredentialRepo{DB: db, key: key}
}

// ByUser fetches the operator's credential record regardless of its active
// flag.  Returns ErrCredentialNotFound when no record exists.
func (r *CredentialRepo) ByUser(ctx context.Context, userID uint64) (Credential, error) {
	var (
		c      Credential
		sealed string
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,user_id,api_url,api_key,organizer,active,created_at,updated_at FROM pretix_configurations WHERE user_id=? LIMIT 1",
		userID).Scan(&c.ID, &c.UserID, &c.BaseURL, &sealed, &c.Organizer, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return Credential{}, ErrCredentialNotFound
	}
	if err != nil {
		return Credential{}, err
	}
	plain, err := utils.Open(r.key, sealed)
	if err != nil {
		return Credential{}, err
	}
	c.APIKey = plain
	return c, nil
}

// ActiveByUser fetches the operator's credential record only when it is
// marked active.  Absent or inactive records yield ErrCredentialNotFound so
// the resolver can fall back to the process defaults.
func (r *CredentialRepo) ActiveByUser(ctx context.Context, userID uint64) (Credential, error) {
	c, err := r.ByUser(ctx, userID)
	if err != nil {
		return Credential{}, err
	}
	if !c.Active {
		return Credential{}, ErrCredentialNotFound
	}
	return c, nil
}

// Upsert creates or replaces the operator's credential record.  The API key
// is sealed before it touches the database.
func (r *CredentialRepo) Upsert(ctx context.Context, c Credential) error {
	sealed, err := utils.Seal(r.key, c.APIKey)
	if err != nil {
		return err
	}
	base := strings.TrimSpace(c.BaseURL)
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO pretix_configurations (user_id, api_url, api_key, organizer, active)
		 VALUES (?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE api_url=VALUES(api_url), api_key=VALUES(api_key),
		 organizer=VALUES(organizer), active=VALUES(active)`,
		c.UserID, base, sealed, strings.TrimSpace(c.Organizer), c.Active)
	return err
}
