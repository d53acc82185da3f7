package repo

import (
	"time"

	"ChatSync/internal/model"
)

// Stored dates are RFC3339Nano. parseDate also accepts the locale-formatted
// strings the legacy mobile client wrote, so old conversations stay readable.
const legacyDateLayout = "Jan 2, 2006 at 3:04:05 PM MST"

func formatDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, legacyDateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func encodeRecord(r model.MessageRecord) map[string]any {
	return map[string]any{
		"id":           r.ID,
		"type":         string(r.Type),
		"content":      r.Content,
		"date":         formatDate(r.Date),
		"sender_email": r.SenderEmail,
		"is_read":      r.IsRead,
		"name":         r.Name,
	}
}

// decodeRecord rebuilds a record from its stored map. Any missing or
// mistyped required field drops the entry instead of failing the whole list.
func decodeRecord(m map[string]any) (model.MessageRecord, bool) {
	id, okID := asString(m["id"])
	typ, okType := asString(m["type"])
	content, okContent := asString(m["content"])
	rawDate, okDate := asString(m["date"])
	sender, okSender := asString(m["sender_email"])
	isRead, okRead := asBool(m["is_read"])
	name, okName := asString(m["name"])
	if !okID || !okType || !okContent || !okDate || !okSender || !okRead || !okName {
		return model.MessageRecord{}, false
	}
	date, ok := parseDate(rawDate)
	if !ok {
		return model.MessageRecord{}, false
	}

	return model.MessageRecord{
		ID:          id,
		Type:        model.Kind(typ),
		Content:     content,
		Date:        date,
		SenderEmail: sender,
		IsRead:      isRead,
		Name:        name,
	}, true
}

func encodeSummary(s model.ConversationSummary) map[string]any {
	return map[string]any{
		"id":               s.ID,
		"name":             s.Name,
		"other_user_email": s.OtherUserEmail,
		"latest_message":   encodeLatest(s.LatestMessage),
	}
}

func encodeLatest(l model.LatestMessage) map[string]any {
	return map[string]any{
		"date":    formatDate(l.Date),
		"message": l.Message,
		"is_read": l.IsRead,
	}
}

func decodeSummary(m map[string]any) (model.ConversationSummary, bool) {
	id, okID := asString(m["id"])
	name, okName := asString(m["name"])
	other, okOther := asString(m["other_user_email"])
	latest, okLatest := asMap(m["latest_message"])
	if !okID || !okName || !okOther || !okLatest {
		return model.ConversationSummary{}, false
	}

	rawDate, okDate := asString(latest["date"])
	text, okText := asString(latest["message"])
	isRead, okRead := asBool(latest["is_read"])
	if !okDate || !okText || !okRead {
		return model.ConversationSummary{}, false
	}
	date, ok := parseDate(rawDate)
	if !ok {
		return model.ConversationSummary{}, false
	}

	return model.ConversationSummary{
		ID:             id,
		Name:           name,
		OtherUserEmail: other,
		LatestMessage: model.LatestMessage{
			Date:    date,
			Message: text,
			IsRead:  isRead,
		},
	}, true
}

func decodeSummaries(v any) []model.ConversationSummary {
	entries, _ := asMapList(v)
	out := make([]model.ConversationSummary, 0, len(entries))
	for _, entry := range entries {
		if summary, ok := decodeSummary(entry); ok {
			out = append(out, summary)
		}
	}
	return out
}

func decodeRecords(v any) []model.MessageRecord {
	entries, _ := asMapList(v)
	out := make([]model.MessageRecord, 0, len(entries))
	for _, entry := range entries {
		if record, ok := decodeRecord(entry); ok {
			out = append(out, record)
		}
	}
	return out
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// asMapList coerces a stored list value into its map entries, skipping
// elements of any other shape.
func asMapList(v any) ([]map[string]any, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]map[string]any, 0, len(list))
	for _, e := range list {
		if m, ok := e.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out, true
}
