package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/tsawler/slidetag"
)

type Extraction struct {
	ID         int64           `json:"id"`
	FileName   string          `json:"file_name"`
	Checksum   string          `json:"checksum"`
	SlideCount int             `json:"slide_count"`
	Tags       []string        `json:"tags"`
	Slides     json.RawMessage `json:"slides"`
	Warnings   json.RawMessage `json:"warnings"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewExtraction prepares a row for an extraction result. Tags lists every
// distinct tag in the result in first-seen order.
func NewExtraction(fileName, checksum string, slides []slidetag.SlideRecord, warnings []slidetag.Warning) (*Extraction, error) {
	if slides == nil {
		slides = []slidetag.SlideRecord{}
	}
	if warnings == nil {
		warnings = []slidetag.Warning{}
	}

	slidesJSON, err := json.Marshal(slides)
	if err != nil {
		return nil, fmt.Errorf("encoding slides: %w", err)
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return nil, fmt.Errorf("encoding warnings: %w", err)
	}

	seen := make(map[string]bool)
	tags := []string{}
	for _, s := range slides {
		for _, t := range s.Tags() {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}

	return &Extraction{
		FileName:   fileName,
		Checksum:   checksum,
		SlideCount: len(slides),
		Tags:       tags,
		Slides:     slidesJSON,
		Warnings:   warningsJSON,
	}, nil
}

// Repository stores extraction runs.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) SaveExtraction(ctx context.Context, e *Extraction) (int64, error) {
	query := `
		INSERT INTO extractions (file_name, checksum, slide_count, tags, slides, warnings)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		e.FileName, e.Checksum, e.SlideCount, pq.Array(e.Tags), []byte(e.Slides), []byte(e.Warnings),
	).Scan(&e.ID, &e.CreatedAt)
	return e.ID, err
}

// GetLatestByChecksum returns the most recent run for a document.
func (r *Repository) GetLatestByChecksum(ctx context.Context, checksum string) (*Extraction, error) {
	var e Extraction
	query := `
		SELECT id, file_name, checksum, slide_count, tags, slides, warnings, created_at
		FROM extractions WHERE checksum = $1
		ORDER BY created_at DESC, id DESC LIMIT 1
	`
	err := r.db.QueryRowContext(ctx, query, checksum).Scan(
		&e.ID, &e.FileName, &e.Checksum, &e.SlideCount, pq.Array(&e.Tags), &e.Slides, &e.Warnings, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Record implements the service's recorder by saving one extraction row.
func (r *Repository) Record(ctx context.Context, fileName, checksum string, slides []slidetag.SlideRecord, warnings []slidetag.Warning) error {
	e, err := NewExtraction(fileName, checksum, slides, warnings)
	if err != nil {
		return err
	}
	_, err = r.SaveExtraction(ctx, e)
	return err
}
