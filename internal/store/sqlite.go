package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nguyentantai21042004/upload-ai/internal/models"
)

var defaultPrompts = []models.PromptTemplate{
	{
		ID:    "title",
		Title: "YouTube title",
		Template: `Generate three compelling titles for a YouTube video.

Below is the transcription of the video:
'''
{transcription}
'''

Rules:
- Each title must be at most 60 characters.
- Titles must be catchy and attractive.
- Write the titles in the same language as the transcription.

Return ONLY the three titles as a list, one per line, with no other text.`,
	},
	{
		ID:    "description",
		Title: "YouTube description",
		Template: `Write a short summary of the video transcription below.

'''
{transcription}
'''

Rules:
- Keep the summary under 80 words, in the first person as the author of the video.
- Write in the same language as the transcription.
- After the summary add a list of hashtags in lowercase containing the keywords of the video.

The output format should be:
'''
Description.

#hashtag1 #hashtag2 #hashtag3 ...
'''`,
	},
}

func (s *implSQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS videos (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		path TEXT NOT NULL,
		transcription TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS prompts (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		template TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	for _, p := range defaultPrompts {
		if _, err := s.db.Exec(
			"INSERT OR IGNORE INTO prompts (id, title, template) VALUES (?, ?, ?)",
			p.ID, p.Title, p.Template,
		); err != nil {
			return fmt.Errorf("seed prompt %s: %w", p.ID, err)
		}
	}
	return nil
}

// CreateVideo records an uploaded audio file under a fresh id
func (s *implSQLite) CreateVideo(ctx context.Context, name, path string) (models.Video, error) {
	v := models.Video{
		ID:        uuid.NewString(),
		Name:      name,
		Path:      path,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO videos (id, name, path, created_at) VALUES (?, ?, ?, ?)",
		v.ID, v.Name, v.Path, v.CreatedAt,
	)
	if err != nil {
		return models.Video{}, fmt.Errorf("insert video: %w", err)
	}
	return v, nil
}

func (s *implSQLite) GetVideo(ctx context.Context, id string) (models.Video, error) {
	var (
		v             models.Video
		transcription sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, path, transcription, created_at FROM videos WHERE id = ?",
		id,
	).Scan(&v.ID, &v.Name, &v.Path, &transcription, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Video{}, ErrNotFound
	}
	if err != nil {
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}

	v.Transcription = transcription.String
	return v, nil
}

func (s *implSQLite) SetTranscription(ctx context.Context, id, transcription string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE videos SET transcription = ? WHERE id = ?",
		transcription, id,
	)
	if err != nil {
		return fmt.Errorf("update transcription: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPrompts returns the templates ordered by title
func (s *implSQLite) ListPrompts(ctx context.Context) ([]models.PromptTemplate, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, title, template FROM prompts ORDER BY title")
	if err != nil {
		return nil, fmt.Errorf("select prompts: %w", err)
	}
	defer rows.Close()

	prompts := []models.PromptTemplate{}
	for rows.Next() {
		var p models.PromptTemplate
		if err := rows.Scan(&p.ID, &p.Title, &p.Template); err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	return prompts, rows.Err()
}

func (s *implSQLite) Close() error {
	return s.db.Close()
}
