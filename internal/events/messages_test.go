package events

import "testing"

func TestEntityEventRoundTrip(t *testing.T) {
	ev := NewEntityEvent("transaction", "t1", OpCreated, "alice")
	body, err := ev.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := EntityEventFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Entity != "transaction" || got.ID != "t1" || got.Op != OpCreated || got.OwnerID != "alice" {
		t.Fatalf("unexpected event: %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected a timestamp")
	}
}

func TestEntityEventFromJSONRejectsIncomplete(t *testing.T) {
	cases := []string{
		`not json`,
		`{}`,
		`{"entity":"transaction"}`,
		`{"entity":"transaction","id":"t1"}`,
	}
	for _, body := range cases {
		if _, err := EntityEventFromJSON([]byte(body)); err == nil {
			t.Fatalf("%s: expected error", body)
		}
	}
}
