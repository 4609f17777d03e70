package service

// Storage keys for the two persisted documents
const (
	StatsKey       = "lumiere_user_stats"
	ChatHistoryKey = "lumiere_chat_history"
)

// KeyValueStore is durable string storage. repository.KVRepository
// satisfies it.
type KeyValueStore interface {
	GetValue(key string) (string, bool, error)
	SetValue(key, value string) error
}
