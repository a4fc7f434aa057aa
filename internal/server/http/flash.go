package internalhttp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
)

const flashCookie = "cronospark_flash"

type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// flashStore keeps one-shot messages in a cookie signed with the secret key.
type flashStore struct {
	key []byte
}

func newFlashStore(secret string) *flashStore {
	return &flashStore{key: []byte(secret)}
}

func (f *flashStore) sign(payload string) string {
	mac := hmac.New(sha256.New, f.key)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Add appends a message to the ones already pending for the request.
func (f *flashStore) Add(w http.ResponseWriter, r *http.Request, category, message string) {
	flashes := append(f.read(r), Flash{Category: category, Message: message})
	data, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	payload := base64.RawURLEncoding.EncodeToString(data)
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    payload + "." + f.sign(payload),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop returns pending messages and clears the cookie.
func (f *flashStore) Pop(w http.ResponseWriter, r *http.Request) []Flash {
	flashes := f.read(r)
	if _, err := r.Cookie(flashCookie); err == nil {
		http.SetCookie(w, &http.Cookie{
			Name:     flashCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return flashes
}

func (f *flashStore) read(r *http.Request) []Flash {
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	payload, signature, ok := strings.Cut(cookie.Value, ".")
	if !ok || !hmac.Equal([]byte(signature), []byte(f.sign(payload))) {
		return nil
	}
	data, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal(data, &flashes); err != nil {
		return nil
	}
	return flashes
}
