package models

import "time"

// Stage is the growth stage of a plant
type Stage string

const (
	StageSeed    Stage = "seed"
	StageSprout  Stage = "sprout"
	StageSapling Stage = "sapling"
	StageTree    Stage = "tree"
	StageBlossom Stage = "blossom"
)

var stageThresholds = []struct {
	minExperience int
	stage         Stage
}{
	{100, StageBlossom},
	{60, StageTree},
	{30, StageSapling},
	{10, StageSprout},
	{0, StageSeed},
}

// Plant is the family's shared growth object
type Plant struct {
	ID         int64
	Name       string
	Experience int
	CreatedAt  time.Time
}

// Stage derives the growth stage from accumulated experience
func (p *Plant) Stage() Stage {
	return StageFor(p.Experience)
}

// StageFor maps an experience value to its stage
func StageFor(experience int) Stage {
	for _, t := range stageThresholds {
		if experience >= t.minExperience {
			return t.stage
		}
	}
	return StageSeed
}
