// Package content holds the static topic catalog and quote pool and picks
// the featured entries for a given day.
package content

import (
	"time"

	"lumiere/internal/models"
)

const millisPerDay = 86_400_000

// Topics is the lesson catalog in display order
var Topics = []models.Topic{
	{ID: "greetings", Title: "问候语", Description: "你好，再见和基础表达", Emoji: "👋", Color: "bg-blue-100 text-blue-600"},
	{ID: "cafe", Title: "在咖啡馆", Description: "点餐和饮料", Emoji: "🥐", Color: "bg-orange-100 text-orange-600"},
	{ID: "travel", Title: "旅行", Description: "问路和车票", Emoji: "🚆", Color: "bg-green-100 text-green-600"},
	{ID: "shopping", Title: "购物", Description: "服装和价格", Emoji: "🛍️", Color: "bg-purple-100 text-purple-600"},
	{ID: "family", Title: "家庭", Description: "谈论家人和亲戚", Emoji: "👨‍👩‍👧", Color: "bg-pink-100 text-pink-600"},
	{ID: "work", Title: "工作", Description: "职业和办公室", Emoji: "💼", Color: "bg-slate-100 text-slate-600"},
}

// DailyQuotes rotates one saying per day
var DailyQuotes = []models.Quote{
	{French: "Petit à petit, l'oiseau fait son nid.", Chinese: "积少成多 (小鸟一点点筑巢)。"},
	{French: "C'est la vie.", Chinese: "这就是生活。"},
	{French: "Vouloir, c'est pouvoir.", Chinese: "有志者事竟成。"},
	{French: "La vie est belle.", Chinese: "生活是美好的。"},
	{French: "Après la pluie, le beau temps.", Chinese: "雨过天晴。"},
	{French: "Mieux vaut tard que jamais.", Chinese: "迟做总比不做好。"},
	{French: "L'habit ne fait pas le moine.", Chinese: "人不可貌相。"},
	{French: "Qui vivra verra.", Chinese: "日久见人心 (走着瞧)。"},
}

// Daily is the content featured for one epoch day
type Daily struct {
	DayIndex int64        `json:"dayIndex"`
	Quote    models.Quote `json:"quote"`
	Topic    models.Topic `json:"topic"`
}

// TopicByID looks up a catalog entry
func TopicByID(id string) (models.Topic, bool) {
	for _, t := range Topics {
		if t.ID == id {
			return t, true
		}
	}
	return models.Topic{}, false
}

// DayIndex counts whole UTC days since the Unix epoch. Instants before the
// epoch round toward negative infinity.
func DayIndex(t time.Time) int64 {
	ms := t.UnixMilli()
	day := ms / millisPerDay
	if ms%millisPerDay < 0 {
		day--
	}
	return day
}

// Select returns the quote and featured topic for the day containing t.
// Every caller sees the same selection for the same UTC day.
func Select(t time.Time) Daily {
	day := DayIndex(t)
	return Daily{
		DayIndex: day,
		Quote:    DailyQuotes[mod(day, len(DailyQuotes))],
		Topic:    Topics[mod(day, len(Topics))],
	}
}

func mod(day int64, n int) int {
	m := day % int64(n)
	if m < 0 {
		m += int64(n)
	}
	return int(m)
}
