package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"NewsCourier/internal/domain"
	"NewsCourier/internal/ports"
)

// ArticleRepository persists canonical articles in the news_articles table.
type ArticleRepository struct {
	db *sql.DB
}

var _ ports.ArticleRepository = (*ArticleRepository)(nil)

// NewArticleRepository wires a sql.DB implementation.
func NewArticleRepository(db *sql.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// BeginBatch opens one transaction covering a batch of inserts.
func (r *ArticleRepository) BeginBatch(ctx context.Context) (ports.ArticleBatch, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}
	return &articleBatch{tx: tx}, nil
}

// ListRecent returns the newest articles of a category by publish time.
func (r *ArticleRepository) ListRecent(ctx context.Context, categoryKey string, limit int) ([]domain.Article, error) {
	query, args, err := builder.
		Select("id", "title", "url", "publish_time", "source", "category_key", "content", "created_at", "updated_at").
		From("news_articles").
		Where("category_key = ?", categoryKey).
		OrderBy("publish_time DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recent query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		var (
			article domain.Article
			content sql.NullString
		)
		if err := rows.Scan(
			&article.ID,
			&article.Title,
			&article.URL,
			&article.PublishTime,
			&article.Source,
			&article.CategoryKey,
			&content,
			&article.CreatedAt,
			&article.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		article.Content = content.String
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}

	return articles, nil
}

// articleBatch flushes each insert inside the batch transaction. Duplicates
// never poison the transaction because the insert is conflict-tolerant.
type articleBatch struct {
	tx *sql.Tx
}

// Insert writes one article, reporting OutcomeDuplicate when the (title, url)
// pair already exists.
func (b *articleBatch) Insert(ctx context.Context, article domain.Article) (ports.InsertOutcome, error) {
	query, args, err := builder.
		Insert("news_articles").
		Columns("title", "url", "publish_time", "source", "category_key", "content", "keywords").
		Values(
			article.Title,
			article.URL,
			article.PublishTime,
			article.Source,
			article.CategoryKey,
			nullableText(article.Content),
			pq.Array(article.Keywords),
		).
		Suffix("ON CONFLICT (title, url) DO NOTHING").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	res, err := b.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert article %q: %w", article.Title, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ports.OutcomeDuplicate, nil
	}
	return ports.OutcomeInserted, nil
}

// Commit finishes the batch transaction.
func (b *articleBatch) Commit() error {
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Rollback discards the batch.
func (b *articleBatch) Rollback() error {
	if err := b.tx.Rollback(); err != nil {
		return fmt.Errorf("rollback batch: %w", err)
	}
	return nil
}

func nullableText(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
