package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
	"testing"
)

func TestVerifySignature(t *testing.T) {
	c := New(Config{APIKey: "k", IPNSecret: "topsecret"}, nil, nil)
	body := []byte(`{"payment_id":"p1","payment_status":"finished"}`)

	mac := hmac.New(sha512.New, []byte("topsecret"))
	mac.Write(body)
	sig := hex.EncodeToString(mac.Sum(nil))

	if !c.VerifySignature(body, sig) {
		t.Fatal("valid signature rejected")
	}
	// Header case must not matter.
	if !c.VerifySignature(body, strings.ToUpper(sig)) {
		t.Fatal("uppercase signature rejected")
	}

	if c.VerifySignature(body, "0"+sig[1:]) {
		t.Fatal("tampered signature accepted")
	}
	if c.VerifySignature(append(body, ' '), sig) {
		t.Fatal("signature accepted for a different body")
	}
	if c.VerifySignature(body, "") {
		t.Fatal("empty signature accepted")
	}
}

func TestVerifySignatureWithoutSecret(t *testing.T) {
	c := New(Config{APIKey: "k"}, nil, nil)
	if c.VerifySignature([]byte("{}"), "anything") {
		t.Fatal("webhook accepted with no IPN secret configured")
	}
}

func TestFlexIDForms(t *testing.T) {
	cases := []struct {
		in   string
		want FlexID
	}{
		{`"p1"`, "p1"},
		{`5077125051`, "5077125051"},
		{`4.0`, "4.0"},
	}
	for _, tc := range cases {
		var got FlexID
		if err := got.UnmarshalJSON([]byte(tc.in)); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("unmarshal %s = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFloatStringForms(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want FloatString
	}{
		{`"25.5"`, 25.5},
		{`25.5`, 25.5},
		{`0`, 0},
	} {
		var got FloatString
		if err := got.UnmarshalJSON([]byte(tc.in)); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("unmarshal %s = %v, want %v", tc.in, got, tc.want)
		}
	}
}
