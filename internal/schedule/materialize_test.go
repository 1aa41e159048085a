package schedule

import (
	"testing"
	"time"
)

func TestMaterializeCount(t *testing.T) {
	// A whole-week horizon yields exactly (weeks × template entries)
	// slots, regardless of the start weekday.
	tests := []struct {
		name      string
		tpl       Template
		start     string
		horizon   int
		wantSlots int
	}{
		{
			"two days a week over enrollment horizon",
			Template{time.Monday: "16:00", time.Wednesday: "16:00"},
			"2024-03-04", // a Monday
			HorizonEnroll,
			2 * 52 * 7,
		},
		{
			"one day a week over reschedule horizon",
			Template{time.Friday: "17:00"},
			"2024-03-06", // a Wednesday
			HorizonReschedule,
			26,
		},
		{
			"empty template",
			Template{},
			"2024-03-04",
			HorizonEnroll,
			0,
		},
		{
			"daily lessons one week",
			Template{
				time.Sunday: "09:00", time.Monday: "09:00", time.Tuesday: "09:00",
				time.Wednesday: "09:00", time.Thursday: "09:00", time.Friday: "09:00",
				time.Saturday: "09:00",
			},
			"2024-03-04",
			7,
			7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots, err := Materialize(tt.tpl, tt.start, tt.horizon)
			if err != nil {
				t.Fatalf("Materialize failed: %v", err)
			}
			if len(slots) != tt.wantSlots {
				t.Errorf("got %d slots, want %d", len(slots), tt.wantSlots)
			}
		})
	}
}

func TestMaterializeOrderAndContent(t *testing.T) {
	tpl := Template{time.Monday: "16:00", time.Wednesday: "17:00"}

	slots, err := Materialize(tpl, "2024-03-04", 14)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}

	want := []Slot{
		{"2024-03-04", "16:00"},
		{"2024-03-06", "17:00"},
		{"2024-03-11", "16:00"},
		{"2024-03-13", "17:00"},
	}
	if len(slots) != len(want) {
		t.Fatalf("got %d slots, want %d: %v", len(slots), len(want), slots)
	}
	for i, w := range want {
		if slots[i] != w {
			t.Errorf("slot[%d] = %v, want %v", i, slots[i], w)
		}
	}
}

func TestMaterializeAscending(t *testing.T) {
	tpl := Template{time.Tuesday: "18:00", time.Saturday: "10:00"}

	slots, err := Materialize(tpl, "2024-01-01", HorizonEnroll)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}

	for i := 1; i < len(slots); i++ {
		if slots[i].Date <= slots[i-1].Date {
			t.Fatalf("slots not strictly ascending at %d: %s then %s", i, slots[i-1].Date, slots[i].Date)
		}
	}
}

func TestMaterializeStartDateIncluded(t *testing.T) {
	// A start date whose weekday is in the template yields a lesson on
	// the start date itself.
	tpl := Template{time.Monday: "16:00"}

	slots, err := Materialize(tpl, "2024-03-04", 7)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	if len(slots) != 1 || slots[0].Date != "2024-03-04" {
		t.Errorf("start date lesson missing: %v", slots)
	}
}

func TestMaterializeInvalidStart(t *testing.T) {
	if _, err := Materialize(Template{time.Monday: "16:00"}, "04-03-2024", 7); err == nil {
		t.Error("expected error for malformed start date")
	}
}
