package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// ValidateTwilioSignature validates that a request came from Twilio.
func ValidateTwilioSignature(r *http.Request, authToken, webhookURL string) bool {
	signature := r.Header.Get("X-Twilio-Signature")
	if signature == "" {
		return false
	}

	if err := r.ParseForm(); err != nil {
		return false
	}

	payload := buildSignaturePayload(webhookURL, r.PostForm)
	expected := computeSignature(payload, authToken)

	return hmac.Equal([]byte(signature), []byte(expected))
}

// buildSignaturePayload creates the payload string for signature
// verification: the full URL followed by the POST params in sorted key
// order, each key immediately followed by its value.
func buildSignaturePayload(url string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var payload strings.Builder
	payload.WriteString(url)
	for _, key := range keys {
		for _, value := range params[key] {
			payload.WriteString(key)
			payload.WriteString(value)
		}
	}
	return payload.String()
}

// computeSignature computes the HMAC-SHA1 signature Twilio sends.
func computeSignature(data, key string) string {
	h := hmac.New(sha1.New, []byte(key))
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// CallTurn is an incoming voice webhook turn.
type CallTurn struct {
	CallSid      string
	From         string
	SpeechResult string
}

// ParseCallTurn parses the Twilio voice webhook form.
func ParseCallTurn(r *http.Request) (*CallTurn, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("telephony: parse form: %w", err)
	}
	return &CallTurn{
		CallSid:      r.PostForm.Get("CallSid"),
		From:         r.PostForm.Get("From"),
		SpeechResult: strings.TrimSpace(r.PostForm.Get("SpeechResult")),
	}, nil
}

// buildAbsoluteURL reconstructs the public URL Twilio signed, honoring proxy
// forwarding headers.
func buildAbsoluteURL(r *http.Request) string {
	if r.URL == nil {
		return ""
	}
	if r.URL.Scheme != "" {
		return r.URL.String()
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "https"
		if r.TLS == nil {
			scheme = "http"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return scheme + "://" + host + r.URL.RequestURI()
}
