package worker

// SnapshotNotifyMessage is forwarded to the browser verbatim over the
// user notification channel. Field names match the frontend parser.
type SnapshotNotifyMessage struct {
	Status        string `json:"status"`
	CardID        uint   `json:"card_id"`
	SnapshotKey   string `json:"snapshot_key,omitempty"`
	CorrelationID string `json:"correlation_id"`
	ErrorCode     int    `json:"error_code"`
	ErrorMessage  string `json:"error_message"`
}
