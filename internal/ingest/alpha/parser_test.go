package alpha

import (
	"strings"
	"testing"
	"time"
)

const sampleCSV = `
"Legs · Day 2 · Week 4 · Push-Pull-Legs";"2026-02-19 4:54 h";"1:02 hr"
"1. Hack Squats · Machine · 8 reps";"WU1 · 37,5 kg · 9 reps<br>WU2 · 72,5 kg · 7 reps"
#;KG;REPS;RIR
1;115;8;1
2;115;10;1
3;115;10;1
"2. Sumo Squats · Smith machine · 10 reps";"WU1 · 35 kg · 8 reps"
#;KG;REPS;RIR
1;70;8;1
2;70;12;1
"3. Hyperextensions on Roman Chair · Bodyweight · 10 reps";"WU1 · +0 kg · 8 reps"
#;KG;REPS;RIR
1;+35;10;0
2;+35;9;1
3;+35;10;0
"4. Reverse Lunges · Dumbbells · 10 reps"
#;KG;REPS;RIR
1;10;10;1
2;10;10;1
3;10;10;0
"5. Standing Calf Raises · Machine · 12 reps";"WU1 · 47,5 kg · 8 reps"
#;KG;REPS;RIR
1;157,5;11;1
2;157,5;11;0
3;157,5;10;0
"6. Hanging Leg Raises · Bodyweight · 12 reps · 2 dropsets"
#;KG;REPS;RIR
1;+0;12;1
2;+0;12;1
3;+0;12;0,5

"Push · Day 1 · Week 4 · Push-Pull-Legs";"2026-02-17 17:04 h";"45 min"
"1. Bench Press · Barbell · 6 reps";"WU1 · 22,5 kg · 10 reps<br>WU2 · 47,5 kg · 8 reps<br>WU3 · 77,5 kg · 6 reps"
#;KG;REPS;RIR
1;102,5;6;0
2;102,5;6;0
3;100;6;0
`

// TestParseWorkouts verifies a multi-workout export end to end: headers,
// equipment variants, warmups kept apart from working sets, and durations.
func TestParseWorkouts(t *testing.T) {
	workouts, err := Parse(strings.NewReader(sampleCSV), time.UTC)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(workouts) != 2 {
		t.Fatalf("workouts = %d, want 2", len(workouts))
	}

	legs := workouts[0]
	if legs.Name != "Legs · Day 2 · Week 4 · Push-Pull-Legs" {
		t.Errorf("name = %q", legs.Name)
	}
	if want := time.Date(2026, 2, 19, 4, 54, 0, 0, time.UTC); !legs.Start.Equal(want) {
		t.Errorf("start = %v, want %v", legs.Start, want)
	}
	if legs.Duration != 62*time.Minute {
		t.Errorf("duration = %v, want 1h2m", legs.Duration)
	}
	if len(legs.Exercises) != 6 {
		t.Fatalf("exercises = %d, want 6", len(legs.Exercises))
	}

	tests := []struct {
		name, equipment string
		target          int
		warmups, sets   int
	}{
		{"Hack Squats", "Machine", 8, 2, 3},
		{"Sumo Squats", "Smith machine", 10, 1, 2},
		{"Hyperextensions on Roman Chair", "Bodyweight", 10, 1, 3},
		{"Reverse Lunges", "Dumbbells", 10, 0, 3},
		{"Standing Calf Raises", "Machine", 12, 1, 3},
		{"Hanging Leg Raises", "Bodyweight", 12, 0, 3},
	}
	for i, tt := range tests {
		ex := legs.Exercises[i]
		if ex.Number != i+1 || ex.Name != tt.name || ex.Equipment != tt.equipment || ex.TargetReps != tt.target {
			t.Errorf("exercise %d = %d %q %q %d", i, ex.Number, ex.Name, ex.Equipment, ex.TargetReps)
		}
		if len(ex.Warmups) != tt.warmups || len(ex.Sets) != tt.sets {
			t.Errorf("%s: warmups=%d sets=%d, want %d/%d", tt.name, len(ex.Warmups), len(ex.Sets), tt.warmups, tt.sets)
		}
	}

	calf := legs.Exercises[4].Sets[0]
	if calf.WeightKg != 157.5 || calf.Reps != 11 || calf.RIR != 1 {
		t.Errorf("calf set = %+v", calf)
	}
	if rir := legs.Exercises[5].Sets[2].RIR; rir != 0.5 {
		t.Errorf("fractional RIR = %v, want 0.5", rir)
	}

	push := workouts[1]
	if push.Start.Hour() != 17 || push.Duration != 45*time.Minute {
		t.Errorf("push start=%v duration=%v", push.Start, push.Duration)
	}
}

// TestParseInLocation verifies start times are read in the given zone.
func TestParseInLocation(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	workouts, err := Parse(strings.NewReader(sampleCSV), berlin)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := workouts[0].Start.UTC(); got.Hour() != 3 || got.Minute() != 54 {
		t.Errorf("UTC start = %v, want 03:54", got)
	}
}

// TestParseWeight covers comma decimals and the bodyweight-plus notation.
func TestParseWeight(t *testing.T) {
	tests := []struct {
		in   string
		kg   float64
		plus bool
	}{
		{"102,5", 102.5, false},
		{"100", 100, false},
		{"+35", 35, true},
		{"+0", 0, true},
		{" +12,5 ", 12.5, true},
	}
	for _, tt := range tests {
		kg, plus := parseWeight(tt.in)
		if kg != tt.kg || plus != tt.plus {
			t.Errorf("parseWeight(%q) = %v,%v want %v,%v", tt.in, kg, plus, tt.kg, tt.plus)
		}
	}
}

// TestParseDuration covers both export formats and garbage.
func TestParseDuration(t *testing.T) {
	tests := map[string]time.Duration{
		"1:02 hr": 62 * time.Minute,
		"0:45 hr": 45 * time.Minute,
		"2:00 h":  2 * time.Hour,
		"45 min":  45 * time.Minute,
		"soon":    0,
		"":        0,
	}
	for in, want := range tests {
		if got := ParseDuration(in); got != want {
			t.Errorf("ParseDuration(%q) = %v, want %v", in, got, want)
		}
	}
}

// TestParseWarmups verifies warmup extraction from the header's second field.
func TestParseWarmups(t *testing.T) {
	sets := parseWarmups("WU1 · 37,5 kg · 9 reps<br>WU2 · +0 kg · 7 reps<br>junk")
	if len(sets) != 2 {
		t.Fatalf("warmups = %d, want 2", len(sets))
	}
	if sets[0].Number != 1 || sets[0].WeightKg != 37.5 || sets[0].Reps != 9 {
		t.Errorf("wu1 = %+v", sets[0])
	}
	if !sets[1].Bodyweight || sets[1].WeightKg != 0 {
		t.Errorf("wu2 = %+v", sets[1])
	}
}

// TestParseErrors verifies structural errors carry the line number.
func TestParseErrors(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"exercise without workout", `"1. Bench Press · Barbell · 6 reps"`, "line 1: exercise outside a workout"},
		{"set without exercise", "\"Push\";\"2026-02-17 5:04 h\";\"1:00 hr\"\n1;100;5;1", "line 2: set outside an exercise"},
		{"bad date", `"Push";"2026-13-45 5:04 h";"1:00 hr"`, "line 1: parsing start"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.in), time.UTC)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

// TestEmptyInput verifies that empty input returns no workouts without error.
func TestEmptyInput(t *testing.T) {
	workouts, err := Parse(strings.NewReader(""), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(workouts) != 0 {
		t.Errorf("workouts = %d, want 0", len(workouts))
	}
}
