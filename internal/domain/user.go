package domain

import "time"

// User holds one messaging-platform account. A user owns its subscription
// rows; deleting the user cascades to them in the store.
type User struct {
	ID           int64
	LineUserID   string
	DisplayName  string
	IsRegistered bool
	RegisteredAt time.Time
	LastActiveAt time.Time
}

// SubWeather is a weather subscription bound to fixed coordinates. A user may
// hold any number of these.
type SubWeather struct {
	ID           int64
	UserID       int64
	Longitude    float64
	Latitude     float64
	LocationName string
}

// SubNews is a news-category subscription. (UserID, CategoryKey) is unique.
type SubNews struct {
	ID          int64
	UserID      int64
	CategoryKey string
}

// WeatherSubscription is a SubWeather joined with its owning user, as the
// broker consumes it.
type WeatherSubscription struct {
	SubWeather
	User User
}

// NewsSubscription is a SubNews joined with its owning user.
type NewsSubscription struct {
	SubNews
	User User
}
