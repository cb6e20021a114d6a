package bus

import "testing"

func TestEmit_DeliversInOrderToNamedAndWildcard(t *testing.T) {
	b := New()
	var got []string
	b.Subscribe(TaskCreated, func(e Event) { got = append(got, "a:"+e.Name) })
	b.Subscribe(TaskCreated, func(e Event) { got = append(got, "b:"+e.Name) })
	b.Subscribe("*", func(e Event) { got = append(got, "*:"+e.Name) })

	b.Emit(TaskCreated, TaskDetail{TaskID: "t1"})
	b.Emit(SwitchView, ViewDetail{View: "gantt"})

	want := []string{"a:task-created", "b:task-created", "*:task-created", "*:switch-view"}
	if len(got) != len(want) {
		t.Fatalf("expected %v; got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v; got %v", want, got)
		}
	}
}

func TestSubscribe_CancelStopsDelivery(t *testing.T) {
	b := New()
	n := 0
	cancel := b.Subscribe(TaskUpdated, func(Event) { n++ })
	b.Emit(TaskUpdated, nil)
	cancel()
	b.Emit(TaskUpdated, nil)
	if n != 1 {
		t.Fatalf("expected 1 delivery; got %d", n)
	}
}

func TestNilBusIsInert(t *testing.T) {
	var b *Bus
	b.Emit(TaskDeleted, nil)
	b.Subscribe(TaskDeleted, func(Event) {})()
}
