package entities

import "testing"

func TestAppendAndTail(t *testing.T) {
	log := &ConversationLog{}

	turn := log.Append(RoleUser, "hello", false)
	if turn.ID == "" {
		t.Error("expected a generated turn ID")
	}
	if turn.Timestamp.IsZero() {
		t.Error("expected a timestamp")
	}

	tail, ok := log.Tail()
	if !ok {
		t.Fatal("expected a tail turn")
	}
	if tail.Role != RoleUser || tail.Text != "hello" || tail.Final {
		t.Errorf("unexpected tail: %+v", tail)
	}
}

func TestAmendTailOnlyTouchesTail(t *testing.T) {
	log := &ConversationLog{}
	log.Append(RoleUser, "first", true)
	log.Append(RoleAgent, "Once", false)

	amended, ok := log.AmendTail("Once upon a time", false)
	if !ok {
		t.Fatal("expected amend to succeed")
	}
	if amended.Text != "Once upon a time" {
		t.Errorf("expected amended text, got %q", amended.Text)
	}

	turns := log.Snapshot()
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Text != "first" || !turns[0].Final {
		t.Errorf("history turn was mutated: %+v", turns[0])
	}
}

func TestAmendTailOnEmptyLog(t *testing.T) {
	log := &ConversationLog{}
	if _, ok := log.AmendTail("x", false); ok {
		t.Error("amending an empty log must be a no-op")
	}
}

func TestFinalizeTailIsIdempotent(t *testing.T) {
	log := &ConversationLog{}
	log.Append(RoleAgent, "the end", false)

	if _, changed := log.FinalizeTail(); !changed {
		t.Error("first finalize must report a state change")
	}
	if _, changed := log.FinalizeTail(); changed {
		t.Error("second finalize must be a no-op")
	}

	tail, _ := log.Tail()
	if !tail.Final {
		t.Error("tail should be final")
	}
}

func TestFinalizeTailOnEmptyLog(t *testing.T) {
	log := &ConversationLog{}
	if _, changed := log.FinalizeTail(); changed {
		t.Error("finalizing an empty log must be a no-op")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	log := &ConversationLog{}
	log.Append(RoleUser, "original", false)

	snap := log.Snapshot()
	snap[0].Text = "tampered"

	tail, _ := log.Tail()
	if tail.Text != "original" {
		t.Error("snapshot mutation leaked into the log")
	}
}

func TestClear(t *testing.T) {
	log := &ConversationLog{}
	log.Append(RoleUser, "a", true)
	log.Append(RoleAgent, "b", true)
	log.Clear()

	if log.Len() != 0 {
		t.Errorf("expected empty log, got %d turns", log.Len())
	}
	if _, ok := log.Tail(); ok {
		t.Error("cleared log should have no tail")
	}
}
