// Package alpha imports Alpha Progression CSV exports as completed workout
// sessions.
package alpha

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Workout is one exported session before conversion.
type Workout struct {
	Name      string
	Start     time.Time
	Duration  time.Duration
	Exercises []Exercise
}

// Exercise is one numbered exercise block of a workout.
type Exercise struct {
	Number     int
	Name       string
	Equipment  string
	TargetReps int
	Warmups    []Set
	Sets       []Set
}

// Set is one row of an exercise block. Bodyweight exercises export their
// added load as "+N"; Bodyweight is set for those.
type Set struct {
	Number     int
	WeightKg   float64
	Bodyweight bool
	Reps       int
	RIR        float64
}

var (
	// "Push · Day 1";"2026-02-17 5:04 h";"1:12 hr"
	workoutLine = regexp.MustCompile(`^"(.+)";"(\d{4}-\d{2}-\d{2}\s+\d{1,2}:\d{2})\s+h";"(.+)"$`)

	// "1. Bench Press · Barbell · 6 reps · 2 dropsets";"WU1 · 22,5 kg · 10 reps<br>..."
	exerciseLine = regexp.MustCompile(`^"(\d+)\.\s+(.+?)(?:\s+·\s+(\S.*?))?\s+·\s+(\d+)\s+reps(.*?)"(?:;"(.+)")?$`)

	// 1;102,5;6;0
	setLine = regexp.MustCompile(`^(\d+);([^;]+);(\d+);([^;]+)$`)

	warmupItem = regexp.MustCompile(`WU(\d+)\s+·\s+(.+?)\s+kg\s+·\s+(\d+)\s+reps`)

	durationHours   = regexp.MustCompile(`^(\d+):(\d{2})\s*hr?$`)
	durationMinutes = regexp.MustCompile(`^(\d+)\s*min$`)
)

const columnHeader = "#;KG;REPS;RIR"

type parser struct {
	loc      *time.Location
	line     int
	workouts []Workout
	workout  *Workout
	exercise *Exercise
}

// Parse reads an export. Start times are interpreted in loc. Unrecognised
// lines such as notes are skipped.
func Parse(r io.Reader, loc *time.Location) ([]Workout, error) {
	if loc == nil {
		loc = time.UTC
	}
	p := &parser{loc: loc}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		p.line++
		if err := p.feed(strings.TrimSpace(sc.Text())); err != nil {
			return nil, fmt.Errorf("line %d: %w", p.line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	p.closeWorkout()
	return p.workouts, nil
}

func (p *parser) feed(line string) error {
	switch {
	case line == "":
		p.closeWorkout()
	case line == columnHeader:
	case workoutLine.MatchString(line):
		p.closeWorkout()
		m := workoutLine.FindStringSubmatch(line)
		start, err := parseStart(m[2], p.loc)
		if err != nil {
			return err
		}
		p.workout = &Workout{Name: m[1], Start: start, Duration: ParseDuration(m[3])}
	case exerciseLine.MatchString(line):
		if p.workout == nil {
			return fmt.Errorf("exercise outside a workout: %q", line)
		}
		p.closeExercise()
		m := exerciseLine.FindStringSubmatch(line)
		num, _ := strconv.Atoi(m[1])
		target, _ := strconv.Atoi(m[4])
		p.exercise = &Exercise{
			Number:     num,
			Name:       strings.TrimSpace(m[2]),
			Equipment:  strings.TrimSpace(m[3]),
			TargetReps: target,
			Warmups:    parseWarmups(m[6]),
		}
	case setLine.MatchString(line):
		if p.exercise == nil {
			return fmt.Errorf("set outside an exercise: %q", line)
		}
		m := setLine.FindStringSubmatch(line)
		num, _ := strconv.Atoi(m[1])
		reps, _ := strconv.Atoi(m[3])
		w, bw := parseWeight(m[2])
		p.exercise.Sets = append(p.exercise.Sets, Set{
			Number: num, WeightKg: w, Bodyweight: bw, Reps: reps, RIR: decimal(m[4]),
		})
	}
	return nil
}

func (p *parser) closeExercise() {
	if p.workout != nil && p.exercise != nil {
		p.workout.Exercises = append(p.workout.Exercises, *p.exercise)
	}
	p.exercise = nil
}

func (p *parser) closeWorkout() {
	p.closeExercise()
	if p.workout != nil {
		p.workouts = append(p.workouts, *p.workout)
	}
	p.workout = nil
}

func parseStart(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", strings.Join(strings.Fields(s), " "), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing start %q: %w", s, err)
	}
	return t, nil
}

// ParseDuration reads the export's duration column: "1:02 hr" or "45 min".
// Anything else yields zero.
func ParseDuration(s string) time.Duration {
	s = strings.TrimSpace(s)
	if m := durationHours.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		return time.Duration(h)*time.Hour + time.Duration(mins)*time.Minute
	}
	if m := durationMinutes.FindStringSubmatch(s); m != nil {
		mins, _ := strconv.Atoi(m[1])
		return time.Duration(mins) * time.Minute
	}
	return 0
}

// parseWarmups reads "WU1 · 37,5 kg · 9 reps<br>WU2 · ...".
func parseWarmups(s string) []Set {
	if s == "" {
		return nil
	}
	var sets []Set
	for _, part := range strings.Split(s, "<br>") {
		m := warmupItem.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		reps, _ := strconv.Atoi(m[3])
		w, bw := parseWeight(m[2])
		sets = append(sets, Set{Number: num, WeightKg: w, Bodyweight: bw, Reps: reps})
	}
	return sets
}

// parseWeight reads "102,5" or the bodyweight form "+35".
func parseWeight(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "+"); ok {
		return decimal(rest), true
	}
	return decimal(s), false
}

// decimal parses a comma decimal. Malformed input yields zero.
func decimal(s string) float64 {
	f, _ := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	return f
}
