package review

import "testing"

func TestSeverityRank(t *testing.T) {
	tests := []struct {
		severity Severity
		want     int
	}{
		{SeverityLow, 1},
		{SeverityMedium, 2},
		{SeverityHigh, 3},
		{Severity("unknown"), 0},
	}
	for _, tt := range tests {
		got := SeverityRank(tt.severity)
		if got != tt.want {
			t.Errorf("SeverityRank(%q) = %d, want %d", tt.severity, got, tt.want)
		}
	}
}

func TestMeetsThreshold(t *testing.T) {
	tests := []struct {
		severity  Severity
		threshold string
		want      bool
	}{
		{SeverityHigh, "none", false},
		{SeverityHigh, "", false},
		{SeverityHigh, "high", true},
		{SeverityHigh, "medium", true},
		{SeverityHigh, "low", true},
		{SeverityMedium, "high", false},
		{SeverityMedium, "medium", true},
		{SeverityLow, "medium", false},
		{SeverityLow, "low", true},
	}
	for _, tt := range tests {
		got := MeetsThreshold(tt.severity, tt.threshold)
		if got != tt.want {
			t.Errorf("MeetsThreshold(%q, %q) = %v, want %v", tt.severity, tt.threshold, got, tt.want)
		}
	}
}

func TestParseSeverity(t *testing.T) {
	for in, want := range map[string]Severity{"High": SeverityHigh, " low ": SeverityLow, "medium": SeverityMedium} {
		got, err := ParseSeverity(in)
		if err != nil || got != want {
			t.Errorf("ParseSeverity(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseSeverity("critical"); err == nil {
		t.Error("expected error for unknown severity")
	}
}

func TestParseConcern(t *testing.T) {
	tests := []struct {
		in   string
		want Concern
	}{
		{"memory", ConcernResourceLifetime},
		{"resource-lifetime", ConcernResourceLifetime},
		{"arch", ConcernArchitecture},
		{"PERF", ConcernPerformance},
		{"deps", ConcernDependency},
	}
	for _, tt := range tests {
		got, err := ParseConcern(tt.in)
		if err != nil {
			t.Fatalf("ParseConcern(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseConcern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if _, err := ParseConcern("style"); err == nil {
		t.Error("expected error for unknown concern")
	}
}

func TestParseGroupBy(t *testing.T) {
	if g, err := ParseGroupBy(""); err != nil || g != GroupByFile {
		t.Errorf("ParseGroupBy(\"\") = %q, %v", g, err)
	}
	if g, err := ParseGroupBy("Type"); err != nil || g != GroupByType {
		t.Errorf("ParseGroupBy(Type) = %q, %v", g, err)
	}
	if _, err := ParseGroupBy("severity"); err == nil {
		t.Error("expected error for unknown grouping")
	}
}

func TestComputeSummary(t *testing.T) {
	issues := []Issue{
		{Severity: SeverityHigh},
		{Severity: SeverityMedium},
		{Severity: SeverityMedium},
		{Severity: SeverityLow},
		{Severity: SeverityLow},
		{Severity: SeverityLow},
	}

	s := ComputeSummary(issues)

	if s.Counts.High != 1 {
		t.Errorf("High count = %d, want 1", s.Counts.High)
	}
	if s.Counts.Medium != 2 {
		t.Errorf("Medium count = %d, want 2", s.Counts.Medium)
	}
	if s.Counts.Low != 3 {
		t.Errorf("Low count = %d, want 3", s.Counts.Low)
	}
	if s.Total() != 6 {
		t.Errorf("Total = %d, want 6", s.Total())
	}
	if s.HighestSeverity != SeverityHigh {
		t.Errorf("HighestSeverity = %q, want %q", s.HighestSeverity, SeverityHigh)
	}
}

func TestComputeSummary_Empty(t *testing.T) {
	s := ComputeSummary(nil)
	if s.Total() != 0 {
		t.Errorf("Expected all zero counts for empty issues")
	}
	if s.HighestSeverity != "" {
		t.Errorf("HighestSeverity = %q, want empty", s.HighestSeverity)
	}
}
