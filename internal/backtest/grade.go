package backtest

import "strings"

// RaceGrade classifies a race by its title
type RaceGrade string

// Race grades, highest first
const (
	GradeSG      RaceGrade = "SG"
	GradePSG1    RaceGrade = "PSG1"
	GradeG1      RaceGrade = "G1"
	GradeG2      RaceGrade = "G2"
	GradeG3      RaceGrade = "G3"
	GradeGeneral RaceGrade = "GENERAL"
	GradeUnknown RaceGrade = "UNKNOWN"
)

// ClassifyRaceGrade derives the grade from a race name. Unnamed races are
// unknown; anything without a grade marker is treated as a general race.
func ClassifyRaceGrade(raceName string) RaceGrade {
	if raceName == "" {
		return GradeUnknown
	}
	name := strings.ToUpper(raceName)

	switch {
	case strings.Contains(name, "PSG1"), strings.Contains(name, "プレミアムSG"):
		return GradePSG1
	case strings.Contains(name, "SG"), strings.Contains(name, "スペシャルグレード"):
		return GradeSG
	case containsGradeMarker(name, '1'), strings.Contains(name, "グレード1"):
		return GradeG1
	case containsGradeMarker(name, '2'), strings.Contains(name, "グレード2"):
		return GradeG2
	case containsGradeMarker(name, '3'), strings.Contains(name, "グレード3"):
		return GradeG3
	}
	return GradeGeneral
}

// IsTargetGrade reports whether models are trained for this grade.
// Only general races and G3 are evaluated; higher grades draw fields the
// models never see in training.
func IsTargetGrade(grade RaceGrade) bool {
	return grade == GradeGeneral || grade == GradeG3
}

// containsGradeMarker matches "G1"/"G２"-style markers, half- or full-width
func containsGradeMarker(name string, digit byte) bool {
	fullWidth := string([]rune{'０' + rune(digit-'0')})
	return strings.Contains(name, "G"+string(digit)) || strings.Contains(name, "G"+fullWidth)
}
