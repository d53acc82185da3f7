package identity

import (
	"strings"
	"testing"
	"time"
)

func TestSafeKey(t *testing.T) {
	cases := []struct {
		email string
		want  string
	}{
		{"a.b@example.com", "a-b-example-com"},
		{"user@host", "user-host"},
		{"no-special-chars", "no-special-chars"},
		{"", ""},
		{"a..b@@c", "a--b--c"},
	}

	for _, tc := range cases {
		got := SafeKey(tc.email)
		if got != tc.want {
			t.Errorf("SafeKey(%q) = %q, want %q", tc.email, got, tc.want)
		}
		if strings.ContainsAny(got, ".@") {
			t.Errorf("SafeKey(%q) = %q still contains reserved characters", tc.email, got)
		}
	}
}

func TestSafeKeyNoOpOnSafeInput(t *testing.T) {
	safe := SafeKey("first.last@example.com")
	if again := SafeKey(safe); again != safe {
		t.Fatalf("SafeKey changed an already-safe key: %q -> %q", safe, again)
	}
}

func TestFileNames(t *testing.T) {
	if got := ProfilePictureFileName("a.b@example.com"); got != "a-b-example-com_profile_picture.png" {
		t.Errorf("ProfilePictureFileName = %q", got)
	}
	if got := PhotoMessageFileName("m1"); got != "photo_message_m1.png" {
		t.Errorf("PhotoMessageFileName = %q", got)
	}
}

func TestMessageID(t *testing.T) {
	at := time.Date(2024, 6, 25, 12, 0, 0, 0, time.UTC)
	got := MessageID("x.y@example.com", "a.b@example.com", at)
	want := "x-y-example-com_a-b-example-com_2024-06-25T12:00:00Z"
	if got != want {
		t.Errorf("MessageID = %q, want %q", got, want)
	}
}
