// Package meme manages meme metadata records and their persistence.
package meme

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Meme is a persisted metadata record for one stored image.
type Meme struct {
	ID        string    `json:"id"`
	ImageURL  string    `json:"imageUrl"`
	Keywords  []string  `json:"keywords"`
	CreatedAt time.Time `json:"createdAt"`
}

// ErrNotFound is returned when a meme does not exist.
var ErrNotFound = errors.New("meme not found")

// Repository handles all meme database operations. Keywords are stored as a
// single comma-joined column; see keywords.go for the encoding contract.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// List returns all memes ordered by creation time, newest first.
func (r *Repository) List(ctx context.Context) ([]Meme, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, image_url, keywords, created_at
		 FROM memes ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list memes: %w", err)
	}
	defer rows.Close()

	memes := []Meme{}
	for rows.Next() {
		m, err := scanMeme(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meme: %w", err)
		}
		memes = append(memes, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list memes: %w", err)
	}
	return memes, nil
}

// GetByID fetches a meme by its UUID.
func (r *Repository) GetByID(ctx context.Context, id string) (*Meme, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	m, err := scanMeme(r.db.QueryRow(ctx,
		`SELECT id, image_url, keywords, created_at
		 FROM memes WHERE id = $1`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get meme by id: %w", err)
	}
	return m, nil
}

// Create inserts a new meme. The database assigns the id and creation
// timestamp; the stored record is returned.
func (r *Repository) Create(ctx context.Context, m *Meme) (*Meme, error) {
	stored, err := scanMeme(r.db.QueryRow(ctx,
		`INSERT INTO memes (image_url, keywords)
		 VALUES ($1, $2)
		 RETURNING id, image_url, keywords, created_at`,
		m.ImageURL, joinKeywords(m.Keywords),
	))
	if err != nil {
		return nil, fmt.Errorf("create meme: %w", err)
	}
	return stored, nil
}

// Replace overwrites the image URL and keywords of an existing meme.
// The creation timestamp is immutable.
func (r *Repository) Replace(ctx context.Context, id string, m *Meme) (*Meme, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	stored, err := scanMeme(r.db.QueryRow(ctx,
		`UPDATE memes SET image_url = $2, keywords = $3
		 WHERE id = $1
		 RETURNING id, image_url, keywords, created_at`,
		id, m.ImageURL, joinKeywords(m.Keywords),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("replace meme: %w", err)
	}
	return stored, nil
}

// Delete removes a meme row.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM memes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete meme: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanMeme reads one row (id, image_url, keywords, created_at) into a Meme,
// decoding the keywords column.
func scanMeme(row pgx.Row) (*Meme, error) {
	m := &Meme{}
	var encoded string
	if err := row.Scan(&m.ID, &m.ImageURL, &encoded, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Keywords = splitKeywords(encoded)
	return m, nil
}
