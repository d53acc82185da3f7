package repo

import (
	"testing"
	"time"

	"ChatSync/internal/model"
)

func TestRecordRoundTrip(t *testing.T) {
	in := model.MessageRecord{
		ID:          "m1",
		Type:        model.KindText,
		Content:     "hello there",
		Date:        time.Date(2024, 6, 25, 13, 4, 5, 123456789, time.UTC),
		SenderEmail: "a-b-example-com",
		IsRead:      false,
		Name:        "X Y",
	}

	out, ok := decodeRecord(encodeRecord(in))
	if !ok {
		t.Fatal("decodeRecord rejected an encoded record")
	}
	if out.Content != in.Content || out.Type != in.Type || out.ID != in.ID {
		t.Fatalf("round trip changed record: %+v", out)
	}
	if !out.Date.Equal(in.Date) {
		t.Fatalf("date round trip: got %v, want %v", out.Date, in.Date)
	}
}

func TestParseDateAcceptsLegacyFormat(t *testing.T) {
	got, ok := parseDate("Jun 25, 2024 at 1:04:05 PM GMT")
	if !ok {
		t.Fatal("legacy date rejected")
	}
	want := time.Date(2024, 6, 25, 13, 4, 5, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("legacy date = %v, want %v", got, want)
	}

	if _, ok := parseDate("not a date"); ok {
		t.Fatal("garbage date accepted")
	}
}

func TestDecodeRecordsSkipsMalformedEntries(t *testing.T) {
	good := encodeRecord(model.MessageRecord{
		ID:          "m1",
		Type:        model.KindText,
		Content:     "kept",
		Date:        time.Now(),
		SenderEmail: "a-b-example-com",
		Name:        "X Y",
	})
	missingField := map[string]any{"id": "m2", "type": "text"}
	wrongType := map[string]any{
		"id": "m3", "type": "text", "content": "x",
		"date": "2024-06-25T12:00:00Z", "sender_email": "a",
		"is_read": "yes", "name": "n",
	}

	records := decodeRecords([]any{good, missingField, "not even a map", wrongType})
	if len(records) != 1 {
		t.Fatalf("expected 1 decoded record, got %d", len(records))
	}
	if records[0].Content != "kept" {
		t.Fatalf("wrong survivor: %+v", records[0])
	}
}

func TestDecodeSummariesSkipsMalformedEntries(t *testing.T) {
	good := encodeSummary(model.ConversationSummary{
		ID:             "conversation_m1",
		Name:           "X Y",
		OtherUserEmail: "x-y-example-com",
		LatestMessage:  model.LatestMessage{Date: time.Now(), Message: "hi"},
	})
	noLatest := map[string]any{
		"id": "conversation_m2", "name": "n", "other_user_email": "e",
	}

	summaries := decodeSummaries([]any{good, noLatest})
	if len(summaries) != 1 || summaries[0].ID != "conversation_m1" {
		t.Fatalf("summaries = %+v", summaries)
	}
}

func TestMessageContentProjection(t *testing.T) {
	cases := []struct {
		msg  model.Message
		want string
	}{
		{model.Message{Kind: model.KindText, Text: "hi"}, "hi"},
		{model.Message{Kind: model.KindPhoto, MediaURL: "https://x/y.png"}, "https://x/y.png"},
		{model.Message{Kind: model.KindVideo, MediaURL: "https://x/v.mov"}, ""},
		{model.Message{Kind: model.KindAudio, Text: "x"}, ""},
		{model.Message{Kind: model.KindLocation}, ""},
	}
	for _, tc := range cases {
		if got := tc.msg.Content(); got != tc.want {
			t.Errorf("Content() for kind %s = %q, want %q", tc.msg.Kind, got, tc.want)
		}
	}
}
