package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsCourier/internal/domain"
	"NewsCourier/internal/ports"
)

type fakeSubs struct {
	weather    []domain.WeatherSubscription
	news       []domain.NewsSubscription
	weatherErr error
	newsErr    error
}

func (s *fakeSubs) ListActiveWeatherSubs(context.Context) ([]domain.WeatherSubscription, error) {
	return s.weather, s.weatherErr
}

func (s *fakeSubs) ListActiveNewsSubs(context.Context) ([]domain.NewsSubscription, error) {
	return s.news, s.newsErr
}

func (s *fakeSubs) AddWeatherSub(context.Context, domain.SubWeather) error { return nil }
func (s *fakeSubs) AddNewsSub(context.Context, domain.SubNews) error       { return nil }

type fakeWeather struct {
	snapshots map[float64]domain.WeatherSnapshot
	failAt    float64
}

func (w *fakeWeather) Snapshot(_ context.Context, longitude, _ float64) (domain.WeatherSnapshot, error) {
	if longitude == w.failAt && w.failAt != 0 {
		return domain.WeatherSnapshot{}, errors.New("provider unavailable")
	}
	return w.snapshots[longitude], nil
}

type pushRecord struct {
	to       string
	messages []string
}

type fakePush struct {
	pushed  []pushRecord
	failFor string
}

func (p *fakePush) Push(_ context.Context, to string, messages []string) (ports.PushResult, error) {
	if to == p.failFor {
		return ports.PushResult{StatusCode: 500}, errors.New("push rejected")
	}
	p.pushed = append(p.pushed, pushRecord{to: to, messages: messages})
	return ports.PushResult{StatusCode: 200}, nil
}

type fakeUsers struct {
	upserted []string
	err      error
}

func (u *fakeUsers) UpsertUser(_ context.Context, lineUserID string) (domain.User, error) {
	if u.err != nil {
		return domain.User{}, u.err
	}
	u.upserted = append(u.upserted, lineUserID)
	return domain.User{ID: 1, LineUserID: lineUserID, DisplayName: "新朋友", IsRegistered: true}, nil
}

func weatherSub(lineUserID, location string, longitude float64) domain.WeatherSubscription {
	return domain.WeatherSubscription{
		SubWeather: domain.SubWeather{Longitude: longitude, Latitude: 25.0, LocationName: location},
		User:       domain.User{LineUserID: lineUserID, DisplayName: location + "的人", IsRegistered: true},
	}
}

func newsSub(lineUserID, categoryKey string) domain.NewsSubscription {
	return domain.NewsSubscription{
		SubNews: domain.SubNews{CategoryKey: categoryKey},
		User:    domain.User{LineUserID: lineUserID, DisplayName: "訂閱者", IsRegistered: true},
	}
}

func testRegistry(mapping map[string]string) *CategoryRegistry {
	var categories []domain.Category
	for key, name := range mapping {
		categories = append(categories, domain.Category{Key: key, Name: name})
	}
	return NewCategoryRegistry(
		&fakeMenu{categories: categories},
		&fakeCategoryRepo{},
		testLogger(),
	)
}

func TestSendWeatherNotifications(t *testing.T) {
	subs := &fakeSubs{weather: []domain.WeatherSubscription{
		weatherSub("U1", "台北", 121.5),
		weatherSub("U2", "台中", 120.6),
	}}
	weather := &fakeWeather{snapshots: map[float64]domain.WeatherSnapshot{
		121.5: {TempKelvin: 303.15, Humidity: 70, Status: "Clear", DetailedStatus: "clear sky", WindSpeed: 2},
		120.6: {TempKelvin: 301.15, Humidity: 60, Status: "Clouds", DetailedStatus: "few clouds", WindSpeed: 3},
	}}
	push := &fakePush{}

	broker := NewBroker(BrokerDeps{
		Subscriptions: subs,
		Weather:       weather,
		Push:          push,
		Logger:        testLogger(),
	})

	require.NoError(t, broker.SendWeatherNotifications(context.Background()))
	require.Len(t, push.pushed, 2)
	assert.Equal(t, "U1", push.pushed[0].to)
	assert.Contains(t, push.pushed[0].messages[0], "【台北 天氣】")
	assert.Contains(t, push.pushed[0].messages[0], "溫度: 30.0°C")
}

func TestSendWeatherNotificationsIsolatesFailures(t *testing.T) {
	subs := &fakeSubs{weather: []domain.WeatherSubscription{
		weatherSub("U1", "台北", 121.5),
		weatherSub("U2", "台中", 120.6),
		weatherSub("U3", "高雄", 120.3),
	}}
	// The middle subscriber's weather lookup fails.
	weather := &fakeWeather{
		snapshots: map[float64]domain.WeatherSnapshot{
			121.5: {Status: "Clear"},
			120.3: {Status: "Rain"},
		},
		failAt: 120.6,
	}
	push := &fakePush{}

	broker := NewBroker(BrokerDeps{
		Subscriptions: subs,
		Weather:       weather,
		Push:          push,
		Logger:        testLogger(),
	})

	require.NoError(t, broker.SendWeatherNotifications(context.Background()))
	require.Len(t, push.pushed, 2)
	assert.Equal(t, "U1", push.pushed[0].to)
	assert.Equal(t, "U3", push.pushed[1].to)
}

func TestSendWeatherNotificationsListFailure(t *testing.T) {
	subs := &fakeSubs{weatherErr: errors.New("db down")}
	broker := NewBroker(BrokerDeps{
		Subscriptions: subs,
		Push:          &fakePush{},
		Logger:        testLogger(),
	})

	require.Error(t, broker.SendWeatherNotifications(context.Background()))
}

func TestSendNewsNotifications(t *testing.T) {
	repo := newFakeArticleRepo()
	repo.recent["ait"] = []domain.Article{
		{Title: "一", URL: "https://example.com/1", PublishTime: time.Now()},
		{Title: "二", URL: "https://example.com/2", PublishTime: time.Now()},
	}

	subs := &fakeSubs{news: []domain.NewsSubscription{newsSub("U1", "ait")}}
	push := &fakePush{}

	broker := NewBroker(BrokerDeps{
		Subscriptions: subs,
		Articles:      repo,
		Push:          push,
		Registry:      testRegistry(map[string]string{"ait": "科技"}),
		Logger:        testLogger(),
	})

	require.NoError(t, broker.SendNewsNotifications(context.Background()))
	require.Len(t, push.pushed, 1)
	assert.Contains(t, push.pushed[0].messages[0], "【科技 新聞】")
	assert.Contains(t, push.pushed[0].messages[0], "1. 一")
}

func TestSendNewsNotificationsEmptyCategory(t *testing.T) {
	repo := newFakeArticleRepo()
	subs := &fakeSubs{news: []domain.NewsSubscription{newsSub("U1", "acul")}}
	push := &fakePush{}

	broker := NewBroker(BrokerDeps{
		Subscriptions: subs,
		Articles:      repo,
		Push:          push,
		Registry:      testRegistry(map[string]string{"acul": "文化"}),
		Logger:        testLogger(),
	})

	require.NoError(t, broker.SendNewsNotifications(context.Background()))
	require.Len(t, push.pushed, 1)
	assert.Equal(t, "【文化】目前沒有新聞", push.pushed[0].messages[0])
}

func TestSendNewsNotificationsFallsBackToKey(t *testing.T) {
	repo := newFakeArticleRepo()
	subs := &fakeSubs{news: []domain.NewsSubscription{newsSub("U1", "aopl")}}
	push := &fakePush{}

	broker := NewBroker(BrokerDeps{
		Subscriptions: subs,
		Articles:      repo,
		Push:          push,
		Registry:      testRegistry(map[string]string{"ait": "科技"}),
		Logger:        testLogger(),
	})

	require.NoError(t, broker.SendNewsNotifications(context.Background()))
	require.Len(t, push.pushed, 1)
	assert.Contains(t, push.pushed[0].messages[0], "【aopl】")
}

func TestSendNewsNotificationsIsolatesFailures(t *testing.T) {
	repo := newFakeArticleRepo()
	repo.recentErr["bad"] = errors.New("query failed")
	repo.recent["ait"] = []domain.Article{{Title: "一", URL: "u", PublishTime: time.Now()}}

	subs := &fakeSubs{news: []domain.NewsSubscription{
		newsSub("U1", "bad"),
		newsSub("U2", "ait"),
	}}
	push := &fakePush{}

	broker := NewBroker(BrokerDeps{
		Subscriptions: subs,
		Articles:      repo,
		Push:          push,
		Registry:      testRegistry(map[string]string{"ait": "科技"}),
		Logger:        testLogger(),
	})

	require.NoError(t, broker.SendNewsNotifications(context.Background()))
	require.Len(t, push.pushed, 1)
	assert.Equal(t, "U2", push.pushed[0].to)
}

func TestHandleRegistration(t *testing.T) {
	users := &fakeUsers{}
	broker := NewBroker(BrokerDeps{Users: users, Logger: testLogger()})

	user, err := broker.HandleRegistration(context.Background(), "U123")
	require.NoError(t, err)
	assert.Equal(t, "U123", user.LineUserID)
	assert.True(t, user.IsRegistered)
	assert.Equal(t, []string{"U123"}, users.upserted)
}
