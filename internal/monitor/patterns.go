package monitor

import "time"

// Pattern shapes the simulated base load over time
type Pattern interface {
	Apply(base float64) float64
	Name() string
}

var (
	PatternSteady Pattern = &SteadyPattern{}
	PatternDaily  Pattern = &DailyPattern{}
	PatternWeekly Pattern = &WeeklyPattern{}
)

func ParsePattern(name string) Pattern {
	switch name {
	case "daily":
		return PatternDaily
	case "weekly":
		return PatternWeekly
	case "gradual_rise":
		return &GradualRisePattern{startTime: time.Now()}
	default:
		return PatternSteady
	}
}

// SteadyPattern - constant load
type SteadyPattern struct{}

func (p *SteadyPattern) Apply(base float64) float64 {
	return base
}

func (p *SteadyPattern) Name() string {
	return "steady"
}

// DailyPattern - simulates daily traffic cycle (high during business hours)
type DailyPattern struct{}

func (p *DailyPattern) Apply(base float64) float64 {
	hour := time.Now().Hour()

	var modifier float64
	switch {
	case hour >= 9 && hour <= 11:
		modifier = 1.4
	case hour >= 14 && hour <= 16:
		modifier = 1.3
	case hour >= 17 && hour <= 20:
		modifier = 1.1
	case hour >= 0 && hour <= 6:
		modifier = 0.6
	default:
		modifier = 1.0
	}

	result := base * modifier
	if result > 100 {
		result = 100
	}
	return result
}

func (p *DailyPattern) Name() string {
	return "daily"
}

// WeeklyPattern - includes weekend reduction
type WeeklyPattern struct{}

func (p *WeeklyPattern) Apply(base float64) float64 {
	now := time.Now()
	weekday := now.Weekday()
	hour := now.Hour()

	var modifier float64 = 1.0

	if weekday == time.Saturday || weekday == time.Sunday {
		modifier = 0.5
	} else {
		switch {
		case hour >= 9 && hour <= 11:
			modifier = 1.4
		case hour >= 14 && hour <= 16:
			modifier = 1.3
		case hour >= 0 && hour <= 6:
			modifier = 0.6
		}
	}

	result := base * modifier
	if result > 100 {
		result = 100
	}
	return result
}

func (p *WeeklyPattern) Name() string {
	return "weekly"
}

// GradualRisePattern - slowly increasing load, 5% per hour since start
type GradualRisePattern struct {
	startTime time.Time
}

func (p *GradualRisePattern) Apply(base float64) float64 {
	hours := time.Since(p.startTime).Hours()
	result := base * (1 + 0.05*hours)
	if result > 100 {
		result = 100
	}
	return result
}

func (p *GradualRisePattern) Name() string {
	return "gradual_rise"
}
