package store

import "testing"

func TestUpsertChannelInsertsThenUpdates(t *testing.T) {
	st := setupTestStore(t)
	ctx := t.Context()

	headers := map[string]string{"Referer": "https://example.com"}
	ch, err := st.UpsertChannel(ctx, "ch1", "Channel One", "https://stream.example/ch1", headers, true, "first")
	if err != nil {
		t.Fatalf("UpsertChannel insert: %v", err)
	}
	if ch.Name != "Channel One" || !ch.Active {
		t.Errorf("unexpected channel after insert: %+v", ch)
	}
	if ch.Headers["Referer"] != "https://example.com" {
		t.Errorf("headers not round-tripped: %+v", ch.Headers)
	}

	ch2, err := st.UpsertChannel(ctx, "ch1", "Channel One Renamed", "https://stream.example/ch1", headers, false, "second")
	if err != nil {
		t.Fatalf("UpsertChannel update: %v", err)
	}
	if ch2.Name != "Channel One Renamed" || ch2.Active {
		t.Errorf("update did not apply: %+v", ch2)
	}

	all, err := st.ListChannels(ctx, false)
	if err != nil {
		t.Fatalf("ListChannels: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 channel, got %d", len(all))
	}
}

func TestListChannelsActiveOnly(t *testing.T) {
	st := setupTestStore(t)
	ctx := t.Context()

	if _, err := st.UpsertChannel(ctx, "active1", "Active", "url", nil, true, ""); err != nil {
		t.Fatalf("UpsertChannel active: %v", err)
	}
	if _, err := st.UpsertChannel(ctx, "inactive1", "Inactive", "url", nil, false, ""); err != nil {
		t.Fatalf("UpsertChannel inactive: %v", err)
	}

	active, err := st.ListChannels(ctx, true)
	if err != nil {
		t.Fatalf("ListChannels: %v", err)
	}
	if len(active) != 1 || active[0].ID != "active1" {
		t.Errorf("expected only active1, got %+v", active)
	}
}

func TestGetChannelNotFound(t *testing.T) {
	st := setupTestStore(t)
	if _, err := st.GetChannel(t.Context(), "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
