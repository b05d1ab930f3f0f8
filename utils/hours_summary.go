package utils

import (
	"math"
	"sort"
	"time"
)

// HoursEntry is one worker's hours on one day
type HoursEntry struct {
	EmployeeID string
	Name       string
	Date       time.Time
	Hours      float64
}

// StatisticalSummary describes a set of hour values
type StatisticalSummary struct {
	Count  int     `json:"count"`
	Sum    float64 `json:"sum"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
	Q1     float64 `json:"q1"`
	Q3     float64 `json:"q3"`
}

// CalculateStatistics summarizes values; an empty input gives a zero summary
func CalculateStatistics(values []float64) StatisticalSummary {
	if len(values) == 0 {
		return StatisticalSummary{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	s := StatisticalSummary{Count: len(values)}
	for _, v := range values {
		s.Sum += v
	}
	s.Mean = s.Sum / float64(s.Count)
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Median = percentile(sorted, 50)
	s.Q1 = percentile(sorted, 25)
	s.Q3 = percentile(sorted, 75)

	var sq float64
	for _, v := range values {
		d := v - s.Mean
		sq += d * d
	}
	s.StdDev = math.Sqrt(sq / float64(s.Count))
	return s
}

// percentile interpolates linearly between the closest ranks
func percentile(sorted []float64, p float64) float64 {
	idx := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper {
		return sorted[lower]
	}
	w := idx - float64(lower)
	return sorted[lower]*(1-w) + sorted[upper]*w
}

// EmployeeTotal is one row of the per-employee summary
type EmployeeTotal struct {
	EmployeeID string  `json:"employee_id"`
	Name       string  `json:"name"`
	Days       int     `json:"days"`
	Hours      float64 `json:"hours"`
	Overtime   float64 `json:"overtime"`
}

// TotalsByEmployee sums hours per employee, sorted by name. Hours past
// dailyLimit on a single day count as overtime; a limit <= 0 disables it.
func TotalsByEmployee(entries []HoursEntry, dailyLimit float64) []EmployeeTotal {
	type key struct {
		emp string
		day string
	}
	perDay := map[key]float64{}
	names := map[string]string{}
	for _, e := range entries {
		perDay[key{e.EmployeeID, e.Date.Format("2006-01-02")}] += e.Hours
		if e.Name != "" {
			names[e.EmployeeID] = e.Name
		}
	}

	totals := map[string]*EmployeeTotal{}
	for k, h := range perDay {
		t, ok := totals[k.emp]
		if !ok {
			t = &EmployeeTotal{EmployeeID: k.emp, Name: names[k.emp]}
			totals[k.emp] = t
		}
		t.Days++
		t.Hours += h
		if dailyLimit > 0 && h > dailyLimit {
			t.Overtime += h - dailyLimit
		}
	}

	out := make([]EmployeeTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out
}

// DailyTotal is the crew's combined hours on one date
type DailyTotal struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
	Crew  int     `json:"crew"`
}

// GroupHoursByDay totals hours per calendar day in date order
func GroupHoursByDay(entries []HoursEntry) []DailyTotal {
	days := map[string]*DailyTotal{}
	crew := map[string]map[string]bool{}
	for _, e := range entries {
		d := e.Date.Format("2006-01-02")
		t, ok := days[d]
		if !ok {
			t = &DailyTotal{Date: d}
			days[d] = t
			crew[d] = map[string]bool{}
		}
		t.Hours += e.Hours
		crew[d][e.EmployeeID] = true
	}
	out := make([]DailyTotal, 0, len(days))
	for d, t := range days {
		t.Crew = len(crew[d])
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
