package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/mwesox/menuvo-payments/core"
)

func hmacHex(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func hmacBase64(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestHeaderHMACVerifier_Hex(t *testing.T) {
	body := []byte(`{"id":"tr_1"}`)
	verifier := HeaderHMACVerifier{
		Header:   "X-Signature",
		Prefix:   "sha256=",
		Secret:   "whsec_test",
		Encoding: "hex",
	}

	req := core.InboundRequest{
		Headers: map[string]string{"X-Signature": "sha256=" + hmacHex("whsec_test", body)},
		Body:    body,
	}
	if err := verifier.Verify(context.Background(), req); err != nil {
		t.Fatalf("verify: %v", err)
	}

	// Header lookup is case-insensitive the way net/http canonicalizes keys.
	req.Headers = map[string]string{"x-signature": "sha256=" + hmacHex("whsec_test", body)}
	if err := verifier.Verify(context.Background(), req); err != nil {
		t.Fatalf("case-insensitive lookup: %v", err)
	}
}

func TestHeaderHMACVerifier_RejectsTamperedBody(t *testing.T) {
	body := []byte(`{"id":"tr_1"}`)
	verifier := HeaderHMACVerifier{Header: "X-Signature", Secret: "whsec_test"}

	req := core.InboundRequest{
		Headers: map[string]string{"X-Signature": hmacHex("whsec_test", body)},
		Body:    []byte(`{"id":"tr_2"}`),
	}
	if err := verifier.Verify(context.Background(), req); err == nil {
		t.Fatal("expected tampered body to fail")
	}
}

func TestHeaderHMACVerifier_RejectsMissingParts(t *testing.T) {
	body := []byte(`{}`)
	cases := []struct {
		name     string
		verifier HeaderHMACVerifier
		headers  map[string]string
	}{
		{
			name:     "missing header",
			verifier: HeaderHMACVerifier{Header: "X-Signature", Secret: "whsec_test"},
			headers:  map[string]string{},
		},
		{
			name:     "missing secret",
			verifier: HeaderHMACVerifier{Header: "X-Signature"},
			headers:  map[string]string{"X-Signature": hmacHex("whsec_test", body)},
		},
		{
			name:     "garbage signature",
			verifier: HeaderHMACVerifier{Header: "X-Signature", Secret: "whsec_test"},
			headers:  map[string]string{"X-Signature": "not-hex"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.verifier.Verify(context.Background(), core.InboundRequest{Headers: tc.headers, Body: body})
			if err == nil {
				t.Fatal("expected verification to fail")
			}
		})
	}
}

func TestHeaderHMACVerifier_Base64(t *testing.T) {
	body := []byte(`{"id":"tr_1"}`)
	verifier := HeaderHMACVerifier{Header: "X-Signature", Secret: "whsec_test", Encoding: "base64"}

	req := core.InboundRequest{
		Headers: map[string]string{"X-Signature": hmacBase64("whsec_test", body)},
		Body:    body,
	}
	if err := verifier.Verify(context.Background(), req); err != nil {
		t.Fatalf("verify: %v", err)
	}

	req.Headers["X-Signature"] = hmacBase64("other_secret", body)
	if err := verifier.Verify(context.Background(), req); err == nil {
		t.Fatal("expected wrong secret to fail")
	}
}

func TestHeaderTokenVerifier(t *testing.T) {
	verifier := HeaderTokenVerifier{Header: "X-Verify-Token", Token: "tok_1"}

	req := core.InboundRequest{Headers: map[string]string{"X-Verify-Token": "tok_1"}}
	if err := verifier.Verify(context.Background(), req); err != nil {
		t.Fatalf("verify: %v", err)
	}

	req.Headers["X-Verify-Token"] = "tok_2"
	if err := verifier.Verify(context.Background(), req); err == nil {
		t.Fatal("expected wrong token to fail")
	}

	if err := verifier.Verify(context.Background(), core.InboundRequest{}); err == nil {
		t.Fatal("expected missing header to fail")
	}
}
