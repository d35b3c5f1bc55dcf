package domain

import (
	"fmt"
	"strings"
)

// Notification is a message variant the broker can format and push. Each
// variant owns its formatting; nothing dispatches on a runtime type key.
type Notification interface {
	Format() string
}

// WeatherNotification carries one snapshot for a subscribed location.
type WeatherNotification struct {
	LocationName string
	Snapshot     WeatherSnapshot
}

// Format renders the fixed field set of a weather message.
func (n WeatherNotification) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "【%s 天氣】\n", n.LocationName)
	fmt.Fprintf(&b, "溫度: %.1f°C\n", KelvinToCelsius(n.Snapshot.TempKelvin))
	fmt.Fprintf(&b, "濕度: %d%%\n", n.Snapshot.Humidity)
	fmt.Fprintf(&b, "天氣狀態: %s\n", n.Snapshot.Status)
	fmt.Fprintf(&b, "詳細天氣狀態: %s\n", n.Snapshot.DetailedStatus)
	fmt.Fprintf(&b, "風速: %.1f m/s", n.Snapshot.WindSpeed)
	return b.String()
}

// NewsDigest carries the latest articles of one category.
type NewsDigest struct {
	CategoryName string
	Articles     []Article
}

// Format renders the digest header plus one indexed block per article, or a
// no-news line when the category is empty.
func (d NewsDigest) Format() string {
	if len(d.Articles) == 0 {
		return fmt.Sprintf("【%s】目前沒有新聞", d.CategoryName)
	}

	lines := []string{fmt.Sprintf("【%s 新聞】", d.CategoryName)}
	for i, article := range d.Articles {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, article.Title))
		lines = append(lines, fmt.Sprintf("   發布時間: %s", article.PublishTime.Format("2006-01-02 15:04")))
		lines = append(lines, fmt.Sprintf("   連結: %s", article.URL))
	}
	return strings.Join(lines, "\n")
}
