package ports

import (
	"context"
	"iter"
	"time"

	"NewsCourier/internal/domain"
)

// InsertOutcome tags the result of an idempotent article insert.
type InsertOutcome int

const (
	// OutcomeInserted means a new row was written.
	OutcomeInserted InsertOutcome = iota
	// OutcomeDuplicate means the (title, url) pair already existed; the row
	// was skipped. This is expected, not an error.
	OutcomeDuplicate
)

// ArticleBatch is one transactional scope over article inserts. A genuine
// insert error leaves the batch unusable; callers roll it back.
type ArticleBatch interface {
	Insert(ctx context.Context, article domain.Article) (InsertOutcome, error)
	Commit() error
	Rollback() error
}

// ArticleRepository persists canonical articles.
type ArticleRepository interface {
	BeginBatch(ctx context.Context) (ArticleBatch, error)
	ListRecent(ctx context.Context, categoryKey string, limit int) ([]domain.Article, error)
}

// CategoryRepository stores the category snapshot across process restarts.
type CategoryRepository interface {
	Replace(ctx context.Context, categories []domain.Category) error
	List(ctx context.Context) ([]domain.Category, error)
}

// SubscriptionRepository reads and writes per-user subscriptions. Listing is
// restricted to registered owners. AddNewsSub returns domain.ErrDuplicate on a
// repeated (user, category) pair.
type SubscriptionRepository interface {
	ListActiveWeatherSubs(ctx context.Context) ([]domain.WeatherSubscription, error)
	ListActiveNewsSubs(ctx context.Context) ([]domain.NewsSubscription, error)
	AddWeatherSub(ctx context.Context, sub domain.SubWeather) error
	AddNewsSub(ctx context.Context, sub domain.SubNews) error
}

// UserRepository manages messaging-platform accounts.
type UserRepository interface {
	// UpsertUser returns the existing user for the external id or creates a
	// registered one with a default display name.
	UpsertUser(ctx context.Context, lineUserID string) (domain.User, error)
}

// ArticleCrawler walks a category's listing and yields sanitized records.
// A yielded error is terminal for the invocation.
type ArticleCrawler interface {
	Crawl(ctx context.Context, categoryKey string) iter.Seq2[domain.RawArticle, error]
}

// MenuScraper extracts (key, name) category pairs from the source site's
// navigation, in document order.
type MenuScraper interface {
	ScrapeCategories(ctx context.Context) ([]domain.Category, error)
}

// WeatherProvider fetches one current-conditions snapshot.
type WeatherProvider interface {
	Snapshot(ctx context.Context, longitude, latitude float64) (domain.WeatherSnapshot, error)
}

// PushResult reports the worst outcome observed across the messages of one
// push call.
type PushResult struct {
	StatusCode int
}

// PushClient delivers ordered text messages to one recipient.
type PushClient interface {
	Push(ctx context.Context, to string, messages []string) (PushResult, error)
}

// Scheduler runs named recurring jobs, at most one concurrent execution each.
type Scheduler interface {
	AddJob(name, spec string, job func(context.Context)) error
	Start()
	Stop(ctx context.Context) error
}

// Clock abstracts time for cutoff computation in tests.
type Clock func() time.Time
