// Package archive stores DEGIRO account history in a local SQLite database.
// Rows are immutable: archiving an overlapping range again only adds rows
// that were not stored before.
package archive

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aristath/degiro/internal/database"
	"github.com/aristath/degiro/internal/domain"
)

const dayLayout = "2006-01-02"

// Batch describes one archive run
type Batch struct {
	ID            string    `json:"id"`
	IntAccount    int64     `json:"intAccount"`
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	CashMovements int       `json:"cashMovements"` // Rows newly stored
	Transactions  int       `json:"transactions"`  // Rows newly stored
	CreatedAt     time.Time `json:"createdAt"`
}

// Repository provides archive storage operations.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new archive repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SaveBatch stores the batch and its rows in one transaction.
// Rows already archived are ignored; the batch records how many rows were new.
func (r *Repository) SaveBatch(ctx context.Context, batch *Batch, movements []domain.CashMovement, transactions []domain.Transaction) error {
	return database.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO archive_batches (id, int_account, from_date, to_date, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, batch.ID, batch.IntAccount, batch.From.Format(dayLayout), batch.To.Format(dayLayout), batch.CreatedAt.Unix())
		if err != nil {
			return fmt.Errorf("failed to insert batch: %w", err)
		}

		movementStmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO cash_movements
				(fingerprint, movement_id, batch_id, date, change, currency, description, type, order_id, product_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare cash movement insert: %w", err)
		}
		defer movementStmt.Close()

		batch.CashMovements = 0
		keys := movementKeys(movements)
		for i, m := range movements {
			res, err := movementStmt.ExecContext(ctx,
				keys[i], nullString(m.ID), batch.ID, m.Date.UTC().Unix(), m.Change.String(),
				m.Currency, m.Description, m.Type, nullString(m.OrderID), nullString(m.ProductID),
			)
			if err != nil {
				return fmt.Errorf("failed to insert cash movement: %w", err)
			}
			batch.CashMovements += rowsAffected(res)
		}

		txStmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO transactions (id, batch_id, product_id, date, payload)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare transaction insert: %w", err)
		}
		defer txStmt.Close()

		batch.Transactions = 0
		seen := make(map[string]int)
		for _, t := range transactions {
			payload, err := json.Marshal(t)
			if err != nil {
				return fmt.Errorf("failed to marshal transaction: %w", err)
			}
			id := fieldString(t, "id")
			if id == "" {
				sum := digest(string(payload))
				id = "sha256:" + digest(sum+"|"+strconv.Itoa(seen[sum]))
				seen[sum]++
			}

			res, err := txStmt.ExecContext(ctx, id, batch.ID, nullIfEmpty(fieldString(t, "productId")), nullIfEmpty(fieldString(t, "date")), string(payload))
			if err != nil {
				return fmt.Errorf("failed to insert transaction: %w", err)
			}
			batch.Transactions += rowsAffected(res)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE archive_batches SET cash_movements = ?, transactions = ? WHERE id = ?
		`, batch.CashMovements, batch.Transactions, batch.ID)
		if err != nil {
			return fmt.Errorf("failed to update batch counts: %w", err)
		}
		return nil
	})
}

// ListCashMovements returns archived movements dated within [from, to+1 day), oldest first
func (r *Repository) ListCashMovements(ctx context.Context, from, to time.Time) ([]domain.CashMovement, error) {
	end := to.AddDate(0, 0, 1)
	rows, err := r.db.QueryContext(ctx, `
		SELECT movement_id, date, change, currency, description, type, order_id, product_id
		FROM cash_movements
		WHERE date >= ? AND date < ?
		ORDER BY date ASC, fingerprint ASC
	`, from.UTC().Unix(), end.UTC().Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query cash movements: %w", err)
	}
	defer rows.Close()

	movements := make([]domain.CashMovement, 0)
	for rows.Next() {
		var (
			unix       int64
			change     string
			m          domain.CashMovement
			movementID sql.NullString
			orderID    sql.NullString
			productID  sql.NullString
		)
		if err := rows.Scan(&movementID, &unix, &change, &m.Currency, &m.Description, &m.Type, &orderID, &productID); err != nil {
			return nil, fmt.Errorf("failed to scan cash movement: %w", err)
		}

		m.Date = time.Unix(unix, 0).UTC()
		m.Change, err = decimal.NewFromString(change)
		if err != nil {
			return nil, fmt.Errorf("invalid stored change %q: %w", change, err)
		}
		if movementID.Valid {
			m.ID = &movementID.String
		}
		if orderID.Valid {
			m.OrderID = &orderID.String
		}
		if productID.Valid {
			m.ProductID = &productID.String
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cash movements: %w", err)
	}
	return movements, nil
}

// ListBatches returns archive runs, newest first
func (r *Repository) ListBatches(ctx context.Context) ([]Batch, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, int_account, from_date, to_date, cash_movements, transactions, created_at
		FROM archive_batches
		ORDER BY created_at DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	batches := make([]Batch, 0)
	for rows.Next() {
		var (
			b         Batch
			from, to  string
			createdAt int64
		)
		if err := rows.Scan(&b.ID, &b.IntAccount, &from, &to, &b.CashMovements, &b.Transactions, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		if b.From, err = time.Parse(dayLayout, from); err != nil {
			return nil, fmt.Errorf("invalid stored from_date %q for batch %s: %w", from, b.ID, err)
		}
		if b.To, err = time.Parse(dayLayout, to); err != nil {
			return nil, fmt.Errorf("invalid stored to_date %q for batch %s: %w", to, b.ID, err)
		}
		b.CreatedAt = time.Unix(createdAt, 0).UTC()
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// CountTransactions returns the number of archived transactions
func (r *Repository) CountTransactions(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// movementKeys returns the primary key of each movement. Movements with an id
// are keyed by it. Otherwise the key is the field fingerprint plus the
// ordinal of the line among identical lines of the same response, so
// repeated lines (fees of partial fills) are all kept.
func movementKeys(movements []domain.CashMovement) []string {
	keys := make([]string, len(movements))
	seen := make(map[string]int)
	for i, m := range movements {
		if m.ID != nil {
			keys[i] = "id:" + *m.ID
			continue
		}
		fp := movementFingerprint(m)
		keys[i] = digest(fp + "|" + strconv.Itoa(seen[fp]))
		seen[fp]++
	}
	return keys
}

// movementFingerprint joins the fields that describe a ledger line
func movementFingerprint(m domain.CashMovement) string {
	parts := []string{
		m.Date.UTC().Format(time.RFC3339),
		m.Change.String(),
		m.Currency,
		m.Type,
		m.Description,
		deref(m.OrderID),
		deref(m.ProductID),
	}
	return strings.Join(parts, "|")
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func fieldString(m map[string]interface{}, key string) string {
	val, ok := m[key]
	if !ok || val == nil {
		return ""
	}
	if s, ok := val.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", val)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func rowsAffected(res sql.Result) int {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return int(n)
}
