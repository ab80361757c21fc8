package db

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type CreateUserParams struct {
	Username     string
	PasswordHash string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES (?, ?)`,
		arg.Username, arg.PasswordHash,
	)
	if err != nil {
		return User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, err
	}
	return q.GetUserByID(ctx, id)
}

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at, is_active FROM users WHERE id = ?`, id)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.IsActive)
	return u, err
}

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at, is_active FROM users WHERE username = ?`, username)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.IsActive)
	return u, err
}

type CreateImageParams struct {
	Filename    string
	Caption     string
	Embedding   []byte
	FilePath    string
	FileSize    int64
	ContentType string
}

func (q *Queries) CreateImage(ctx context.Context, arg CreateImageParams) (Image, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO images (filename, caption, embedding, file_path, file_size, content_type)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		arg.Filename, arg.Caption, arg.Embedding, arg.FilePath, arg.FileSize, arg.ContentType,
	)
	if err != nil {
		return Image{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Image{}, err
	}
	return q.GetImage(ctx, id)
}

func (q *Queries) GetImage(ctx context.Context, id int64) (Image, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, filename, caption, embedding, upload_time, file_path, file_size, content_type
		 FROM images WHERE id = ?`, id)
	var img Image
	err := row.Scan(&img.ID, &img.Filename, &img.Caption, &img.Embedding,
		&img.UploadTime, &img.FilePath, &img.FileSize, &img.ContentType)
	return img, err
}

type ListImagesParams struct {
	Limit  int64
	Offset int64
}

func (q *Queries) ListImages(ctx context.Context, arg ListImagesParams) ([]Image, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, filename, caption, embedding, upload_time, file_path, file_size, content_type
		 FROM images ORDER BY upload_time DESC, id DESC LIMIT ? OFFSET ?`,
		arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.Filename, &img.Caption, &img.Embedding,
			&img.UploadTime, &img.FilePath, &img.FileSize, &img.ContentType); err != nil {
			return nil, err
		}
		items = append(items, img)
	}
	return items, rows.Err()
}

func (q *Queries) CountImages(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images`).Scan(&count)
	return count, err
}

// ListEmbeddings returns every stored embedding in insertion order. The
// similarity ranker relies on that ordering for deterministic tie-breaking.
func (q *Queries) ListEmbeddings(ctx context.Context) ([]EmbeddingRow, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, embedding FROM images ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []EmbeddingRow
	for rows.Next() {
		var r EmbeddingRow
		if err := rows.Scan(&r.ID, &r.Embedding); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

func (q *Queries) DeleteImage(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id)
	return err
}
