package session

import (
	"testing"
)

func TestSession_AppendSequencing(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := m.Create("task_x", "demo task")

	s.Append(Event{Type: EventTaskStart})
	s.Append(Event{Type: EventStepStart, Step: "ls /tmp"})
	s.Append(Event{Type: EventStepEnd, Step: "ls /tmp", Status: "success"})

	if len(s.Events) != 3 {
		t.Fatalf("len(Events) = %d, want 3", len(s.Events))
	}
	for i, ev := range s.Events {
		if ev.Seq != uint64(i+1) {
			t.Errorf("event[%d].Seq = %d, want %d", i, ev.Seq, i+1)
		}
		if ev.Timestamp.IsZero() {
			t.Errorf("event[%d] has zero timestamp", i)
		}
	}
}

func TestManager_UpdateAndLoad(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := m.Create("task_y", "roundtrip")
	s.Append(Event{Type: EventTaskStart, Content: "roundtrip"})
	s.Status = StatusComplete

	if err := m.Update(s); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	loaded, err := Load(m.Path(s.ID))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.TaskID != "task_y" || loaded.Status != StatusComplete {
		t.Errorf("loaded session = %+v", loaded)
	}
	if len(loaded.Events) != 1 || loaded.Events[0].Type != EventTaskStart {
		t.Errorf("loaded events = %+v", loaded.Events)
	}

	paths, err := m.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 {
		t.Errorf("List() = %v, want one session file", paths)
	}
}
