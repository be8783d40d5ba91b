package chat

import "testing"

func TestParsePlanResponse(t *testing.T) {
	raw := `[{"id":"abc","prompt":"a sunlit living room"},{"id":"def","prompt":"a city skyline at dusk"}]`

	planned, err := parsePlanResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(planned) != 2 {
		t.Fatalf("expected 2 prompts, got %d", len(planned))
	}
	if planned["abc"] != "a sunlit living room" {
		t.Errorf("unexpected prompt for abc: %q", planned["abc"])
	}
}

func TestParsePlanResponseFenced(t *testing.T) {
	raw := "Here you go:\n```json\n[{\"id\":\"k1\",\"prompt\":\"p1\"}]\n```"

	planned, err := parsePlanResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if planned["k1"] != "p1" {
		t.Errorf("unexpected result: %v", planned)
	}
}

func TestParsePlanResponseDropsEmptyPairs(t *testing.T) {
	raw := `[{"id":"","prompt":"orphan"},{"id":"k2","prompt":""},{"id":"k3","prompt":"kept"}]`

	planned, err := parsePlanResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(planned) != 1 || planned["k3"] != "kept" {
		t.Errorf("unexpected result: %v", planned)
	}
}

func TestParsePlanResponseMalformed(t *testing.T) {
	if _, err := parsePlanResponse("not json at all"); err == nil {
		t.Error("expected error for non-JSON response")
	}
	if _, err := parsePlanResponse(`[]`); err == nil {
		t.Error("expected error for empty plan")
	}
}
