package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"NewsCourier/internal/domain"
	"NewsCourier/internal/ports"
)

const defaultNewsLimit = 5

// BrokerDeps wires all collaborators of the notification broker.
type BrokerDeps struct {
	Subscriptions ports.SubscriptionRepository
	Articles      ports.ArticleRepository
	Users         ports.UserRepository
	Weather       ports.WeatherProvider
	Push          ports.PushClient
	Registry      *CategoryRegistry
	NewsLimit     int
	Logger        *slog.Logger
}

// Broker fans notifications out to subscribers, strictly sequentially, with
// per-subscriber failure isolation.
type Broker struct {
	subs      ports.SubscriptionRepository
	articles  ports.ArticleRepository
	users     ports.UserRepository
	weather   ports.WeatherProvider
	push      ports.PushClient
	registry  *CategoryRegistry
	newsLimit int
	logger    *slog.Logger
}

// NewBroker constructs the broker; NewsLimit <= 0 selects the default of 5.
func NewBroker(deps BrokerDeps) *Broker {
	limit := deps.NewsLimit
	if limit <= 0 {
		limit = defaultNewsLimit
	}
	return &Broker{
		subs:      deps.Subscriptions,
		articles:  deps.Articles,
		users:     deps.Users,
		weather:   deps.Weather,
		push:      deps.Push,
		registry:  deps.Registry,
		newsLimit: limit,
		logger:    deps.Logger,
	}
}

// SendWeatherNotifications pushes one current-conditions message per active
// weather subscription. A failing subscriber never blocks the next one.
func (b *Broker) SendWeatherNotifications(ctx context.Context) error {
	b.logger.Info("sending weather notifications")

	subs, err := b.subs.ListActiveWeatherSubs(ctx)
	if err != nil {
		return fmt.Errorf("list weather subs: %w", err)
	}
	if len(subs) == 0 {
		b.logger.Info("no weather subscriptions")
		return nil
	}

	sent := 0
	for _, sub := range subs {
		if b.notifyWeatherSub(ctx, sub) {
			sent++
		}
	}

	b.logger.Info("weather notifications done", "subscribers", len(subs), "sent", sent)
	return nil
}

func (b *Broker) notifyWeatherSub(ctx context.Context, sub domain.WeatherSubscription) bool {
	snapshot, err := b.weather.Snapshot(ctx, sub.Longitude, sub.Latitude)
	if err != nil {
		b.logger.Error("weather lookup failed",
			"user", sub.User.DisplayName, "location", sub.LocationName, "error", err)
		return false
	}

	message := domain.WeatherNotification{
		LocationName: sub.LocationName,
		Snapshot:     snapshot,
	}.Format()

	result, err := b.push.Push(ctx, sub.User.LineUserID, []string{message})
	if err != nil {
		b.logger.Error("weather notification failed",
			"user", sub.User.DisplayName, "location", sub.LocationName, "error", err)
		return false
	}

	b.logger.Info("weather notification sent",
		"user", sub.User.DisplayName, "location", sub.LocationName, "status", result.StatusCode)
	return true
}

// SendNewsNotifications pushes one digest of the latest articles per active
// news subscription. Empty categories still produce a "no news" message.
func (b *Broker) SendNewsNotifications(ctx context.Context) error {
	b.logger.Info("sending news notifications")

	subs, err := b.subs.ListActiveNewsSubs(ctx)
	if err != nil {
		return fmt.Errorf("list news subs: %w", err)
	}
	if len(subs) == 0 {
		b.logger.Info("no news subscriptions")
		return nil
	}

	mapping := b.registry.GetMapping(ctx, false)

	sent := 0
	for _, sub := range subs {
		if b.notifyNewsSub(ctx, sub, mapping) {
			sent++
		}
	}

	b.logger.Info("news notifications done", "subscribers", len(subs), "sent", sent)
	return nil
}

func (b *Broker) notifyNewsSub(ctx context.Context, sub domain.NewsSubscription, mapping map[string]string) bool {
	articles, err := b.articles.ListRecent(ctx, sub.CategoryKey, b.newsLimit)
	if err != nil {
		b.logger.Error("article lookup failed",
			"user", sub.User.DisplayName, "category", sub.CategoryKey, "error", err)
		return false
	}

	categoryName := mapping[sub.CategoryKey]
	if categoryName == "" {
		// Display names are a formatting concern only; the key still works.
		categoryName = sub.CategoryKey
	}

	message := domain.NewsDigest{
		CategoryName: categoryName,
		Articles:     articles,
	}.Format()

	result, err := b.push.Push(ctx, sub.User.LineUserID, []string{message})
	if err != nil {
		b.logger.Error("news notification failed",
			"user", sub.User.DisplayName, "category", sub.CategoryKey, "error", err)
		return false
	}

	b.logger.Info("news notification sent",
		"user", sub.User.DisplayName, "category", categoryName, "status", result.StatusCode)
	return true
}

// HandleRegistration registers the external id, idempotently. Consumed by the
// webhook collaborator on follow events.
func (b *Broker) HandleRegistration(ctx context.Context, lineUserID string) (domain.User, error) {
	user, err := b.users.UpsertUser(ctx, lineUserID)
	if err != nil {
		return domain.User{}, fmt.Errorf("handle registration: %w", err)
	}
	return user, nil
}
