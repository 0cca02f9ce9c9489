package twilio

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"net/url"
	"sort"
)

var (
	ErrMissingSignature = errors.New("missing twilio signature")
	ErrInvalidSignature = errors.New("invalid twilio signature")
)

// VerifySignature validates the X-Twilio-Signature header: HMAC-SHA1 over
// the full webhook URL concatenated with the POST parameters sorted by name,
// base64 encoded, keyed with the account auth token.
func VerifySignature(authToken, requestURL string, form url.Values, signature string) error {
	if signature == "" {
		return ErrMissingSignature
	}

	names := make([]string, 0, len(form))
	for name := range form {
		names = append(names, name)
	}
	sort.Strings(names)

	base := requestURL
	for _, name := range names {
		base += name + form.Get(name)
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	_, _ = mac.Write([]byte(base))
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}
