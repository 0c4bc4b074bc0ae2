package core

import "testing"

func TestMonthlyAdvancer_Next(t *testing.T) {
	a := MonthlyAdvancer{}

	tests := []struct {
		name string
		due  Date
		want Date
	}{
		{
			name: "mid month",
			due:  NewDate(2025, 3, 10),
			want: NewDate(2025, 4, 10),
		},
		{
			name: "31st into 30-day month - clamped",
			due:  NewDate(2025, 3, 31),
			want: NewDate(2025, 4, 30),
		},
		{
			name: "31st into february - clamped",
			due:  NewDate(2025, 1, 31),
			want: NewDate(2025, 2, 28),
		},
		{
			name: "31st into leap february - clamped",
			due:  NewDate(2024, 1, 31),
			want: NewDate(2024, 2, 29),
		},
		{
			name: "december rolls year",
			due:  NewDate(2024, 12, 5),
			want: NewDate(2025, 1, 5),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Next(tt.due); !got.Equal(tt.want.Time) {
				t.Errorf("MonthlyAdvancer.Next() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestYearlyAdvancer_Next(t *testing.T) {
	a := YearlyAdvancer{}

	tests := []struct {
		name string
		due  Date
		want Date
	}{
		{
			name: "regular date",
			due:  NewDate(2024, 6, 15),
			want: NewDate(2025, 6, 15),
		},
		{
			name: "leap day falls back",
			due:  NewDate(2024, 2, 29),
			want: NewDate(2025, 2, 28),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Next(tt.due); !got.Equal(tt.want.Time) {
				t.Errorf("YearlyAdvancer.Next() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWeeklyAdvancer_Next(t *testing.T) {
	got := WeeklyAdvancer{}.Next(NewDate(2024, 12, 28))
	if want := NewDate(2025, 1, 4); !got.Equal(want.Time) {
		t.Errorf("WeeklyAdvancer.Next() = %s, want %s", got, want)
	}
}

func TestGetAdvancer(t *testing.T) {
	tests := []struct {
		freq    Frequency
		wantErr bool
	}{
		{Monthly, false},
		{Yearly, false},
		{Weekly, false},
		{"daily", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.freq), func(t *testing.T) {
			a, err := GetAdvancer(tt.freq)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetAdvancer(%q) error = %v, wantErr %v", tt.freq, err, tt.wantErr)
			}
			if !tt.wantErr && a == nil {
				t.Errorf("GetAdvancer(%q) returned nil advancer", tt.freq)
			}
		})
	}
}

func TestSubscription_NextOccurrence(t *testing.T) {
	from := NewDate(2025, 6, 15)

	tests := []struct {
		name string
		sub  Subscription
		want Date
	}{
		{
			name: "not yet due - unchanged",
			sub:  Subscription{DueDate: NewDate(2025, 6, 20), Every: Monthly, Recurring: true},
			want: NewDate(2025, 6, 20),
		},
		{
			name: "due on from - unchanged",
			sub:  Subscription{DueDate: NewDate(2025, 6, 15), Every: Monthly, Recurring: true},
			want: NewDate(2025, 6, 15),
		},
		{
			name: "monthly keeps anchor day across short months",
			sub:  Subscription{DueDate: NewDate(2025, 1, 31), NextDueDate: NewDate(2025, 2, 28), Every: Monthly, Recurring: true},
			want: NewDate(2025, 6, 30),
		},
		{
			name: "empty frequency means monthly",
			sub:  Subscription{DueDate: NewDate(2025, 5, 10), Recurring: true},
			want: NewDate(2025, 7, 10),
		},
		{
			name: "yearly",
			sub:  Subscription{DueDate: NewDate(2023, 3, 1), Every: Yearly, Recurring: true},
			want: NewDate(2026, 3, 1),
		},
		{
			name: "weekly",
			sub:  Subscription{DueDate: NewDate(2025, 6, 1), Every: Weekly, Recurring: true},
			want: NewDate(2025, 6, 15),
		},
		{
			name: "one-off keeps its date",
			sub:  Subscription{DueDate: NewDate(2025, 1, 10), Every: Monthly},
			want: NewDate(2025, 1, 10),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.sub.NextOccurrence(from)
			if err != nil {
				t.Fatalf("NextOccurrence() error = %v", err)
			}
			if !got.Equal(tt.want.Time) {
				t.Errorf("NextOccurrence() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSubscription_NextOccurrenceUnknownFrequency(t *testing.T) {
	sub := Subscription{DueDate: NewDate(2025, 1, 10), Every: "daily", Recurring: true}
	if _, err := sub.NextOccurrence(NewDate(2025, 6, 15)); err == nil {
		t.Error("expected error for unknown frequency")
	}
}

func TestSubscription_BilledIn(t *testing.T) {
	juneStart, juneEnd := NewDate(2025, 6, 1), NewDate(2025, 6, 30)

	tests := []struct {
		name string
		sub  Subscription
		want bool
	}{
		{"due this month", Subscription{DueDate: NewDate(2025, 6, 8), Every: Monthly, Recurring: true}, true},
		{"overdue and never rolled", Subscription{DueDate: NewDate(2025, 3, 8), Every: Monthly, Recurring: true}, true},
		{"starts next month", Subscription{DueDate: NewDate(2025, 7, 8), Every: Monthly, Recurring: true}, false},
		{
			name: "rolled past the month keeps its bill",
			sub:  Subscription{DueDate: NewDate(2025, 6, 8), NextDueDate: NewDate(2025, 7, 8), Every: Monthly, Recurring: true},
			want: true,
		},
		{
			name: "monthly anchor clamps to short months",
			sub:  Subscription{DueDate: NewDate(2025, 1, 31), NextDueDate: NewDate(2025, 8, 31), Every: Monthly, Recurring: true},
			want: true,
		},
		{
			name: "yearly outside its anniversary month",
			sub:  Subscription{DueDate: NewDate(2024, 3, 1), NextDueDate: NewDate(2026, 3, 1), Every: Yearly, Recurring: true},
			want: false,
		},
		{
			name: "yearly in its anniversary month",
			sub:  Subscription{DueDate: NewDate(2024, 6, 20), NextDueDate: NewDate(2026, 6, 20), Every: Yearly, Recurring: true},
			want: true,
		},
		{
			name: "one-off dated later",
			sub:  Subscription{DueDate: NewDate(2025, 5, 1), NextDueDate: NewDate(2025, 9, 1), Every: Monthly},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sub.BilledIn(juneStart, juneEnd); got != tt.want {
				t.Errorf("BilledIn() = %v, want %v", got, tt.want)
			}
		})
	}
}
