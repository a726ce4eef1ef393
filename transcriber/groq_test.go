package transcriber

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestGroqTranscribe(t *testing.T) {
	var gotAuth, gotModel, gotLang string
	var gotFile []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("parsing multipart: %v", err)
		}
		gotModel = r.FormValue("model")
		gotLang = r.FormValue("language")
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
		} else {
			buf := make([]byte, 4)
			f.Read(buf)
			gotFile = buf
			f.Close()
		}
		w.Write([]byte(`{"text":"hello from groq"}`))
	}))
	defer srv.Close()

	g := NewGroq("test-key")
	g.apiURL = srv.URL
	g.client = NewTracedClient(srv.URL)

	path := filepath.Join(t.TempDir(), "take.flac")
	if err := os.WriteFile(path, []byte("fLaC"), 0644); err != nil {
		t.Fatal(err)
	}

	text, err := g.Transcribe(context.Background(), path, "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "hello from groq" {
		t.Errorf("text = %q", text)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotModel != groqModel {
		t.Errorf("model = %q, want %q", gotModel, groqModel)
	}
	if gotLang != "en" {
		t.Errorf("language = %q, want en", gotLang)
	}
	if string(gotFile) != "fLaC" {
		t.Errorf("uploaded file = %q", gotFile)
	}
}

func TestGroqAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	g := NewGroq("bad-key")
	g.apiURL = srv.URL
	g.client = NewTracedClient(srv.URL)

	path := filepath.Join(t.TempDir(), "take.flac")
	os.WriteFile(path, []byte("fLaC"), 0644)

	if _, err := g.Transcribe(context.Background(), path, ""); err == nil {
		t.Fatal("expected error for 401 response")
	}
}

func TestGroqAvailable(t *testing.T) {
	if err := NewGroq("key").Available(); err != nil {
		t.Errorf("Available with key: %v", err)
	}
	if err := NewGroq("").Available(); err == nil {
		t.Error("Available without key should fail")
	}
}

func TestCredentialFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials")
	content := "# api credentials\nkey_other = \"nope\"\nkey_groq_api = \"gsk_test123\"\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	if got := credentialFromFile(path, "key_groq_api"); got != "gsk_test123" {
		t.Errorf("got %q, want gsk_test123", got)
	}
	if got := credentialFromFile(path, "key_missing"); got != "" {
		t.Errorf("got %q for missing key, want empty", got)
	}
	if got := credentialFromFile(filepath.Join(dir, "absent"), "key_groq_api"); got != "" {
		t.Errorf("got %q for missing file, want empty", got)
	}
}

func TestSaveGroqAPIKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials")
	content := "# api credentials\nkey_other = \"keepme\"\nkey_groq_api = \"gsk_old\"\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	if err := SaveGroqAPIKey(dir, "gsk_new"); err != nil {
		t.Fatal(err)
	}
	if got := credentialFromFile(path, "key_groq_api"); got != "gsk_new" {
		t.Errorf("got %q, want gsk_new", got)
	}
	if got := credentialFromFile(path, "key_other"); got != "keepme" {
		t.Errorf("unrelated key lost: got %q, want keepme", got)
	}

	// Empty key removes the entry.
	if err := SaveGroqAPIKey(dir, ""); err != nil {
		t.Fatal(err)
	}
	if got := credentialFromFile(path, "key_groq_api"); got != "" {
		t.Errorf("got %q after clearing, want empty", got)
	}

	// Writing into a dir with no existing file creates it.
	fresh := t.TempDir()
	if err := SaveGroqAPIKey(fresh, "gsk_first"); err != nil {
		t.Fatal(err)
	}
	if got := GroqAPIKey(fresh); got != "gsk_first" && os.Getenv("GROQ_API_KEY") == "" {
		t.Errorf("got %q, want gsk_first", got)
	}
}
