package amqp

import (
	"encoding/json"
	"time"
)

// ExportCompletedMessage notifies downstream consumers that a report export
// finished. It carries only metadata, never the rendered payload.
type ExportCompletedMessage struct {
	Format      string    `json:"format"`
	Period      string    `json:"period"`
	UserID      int64     `json:"user_id"`
	Bytes       int       `json:"bytes"`
	GeneratedAt time.Time `json:"generated_at"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewExportCompletedMessage(format, period string, userID int64, size int, generatedAt time.Time) *ExportCompletedMessage {
	return &ExportCompletedMessage{
		Format:      format,
		Period:      period,
		UserID:      userID,
		Bytes:       size,
		GeneratedAt: generatedAt,
		Timestamp:   time.Now(),
	}
}

func (m *ExportCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExportCompletedMessageFromJSON(data []byte) (*ExportCompletedMessage, error) {
	var msg ExportCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
