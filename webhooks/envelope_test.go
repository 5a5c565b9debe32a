package webhooks

import (
	"strings"
	"testing"
	"time"
)

func TestParseEnvelope(t *testing.T) {
	body := []byte(`{
		"id": "evt_1",
		"type": "payment.updated",
		"api_version": "2024-01-01",
		"created": 1714000000,
		"data": {"id": "tr_1", "amount": 1250},
		"related_object": {"id": "tr_1", "type": "payment"}
	}`)

	envelope, err := ParseEnvelope(body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if envelope.ID != "evt_1" || envelope.Type != "payment.updated" {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
	if envelope.RelatedObject == nil || envelope.RelatedObject.ID != "tr_1" {
		t.Fatalf("expected related object, got %+v", envelope.RelatedObject)
	}

	payload, err := envelope.PayloadMap()
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload["id"] != "tr_1" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestParseEnvelope_RequiresType(t *testing.T) {
	if _, err := ParseEnvelope([]byte(`{"id":"evt_1"}`)); err == nil {
		t.Fatal("expected missing type to fail")
	}
	if _, err := ParseEnvelope([]byte(`not json`)); err == nil {
		t.Fatal("expected malformed body to fail")
	}
}

func TestPayloadMap_EmptyData(t *testing.T) {
	payload, err := (Envelope{}).PayloadMap()
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload != nil {
		t.Fatalf("expected nil payload, got %v", payload)
	}
}

func TestSynthesizeEventID_DeterministicWithTimestamp(t *testing.T) {
	created := time.UnixMilli(1714000000000).UTC()

	first := SynthesizeEventID("tr_WDqYK6vllg", created)
	second := SynthesizeEventID("tr_WDqYK6vllg", created)
	if first != second {
		t.Fatalf("retry ids must collide: %q vs %q", first, second)
	}
	if first != "tr_WDqYK6vllg-1714000000000" {
		t.Fatalf("unexpected id %q", first)
	}
}

func TestSynthesizeEventID_RandomWithoutTimestamp(t *testing.T) {
	first := SynthesizeEventID("tr_1", time.Time{})
	second := SynthesizeEventID("tr_1", time.Time{})
	if first == second {
		t.Fatalf("distinct notifications must not merge: %q", first)
	}
	if !strings.HasPrefix(first, "tr_1-") {
		t.Fatalf("expected object id prefix, got %q", first)
	}
}
