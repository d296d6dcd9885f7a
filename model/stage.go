package model

// Stage is the coarse gating state for platform features. It is never
// stored; it is recomputed from profile completeness and shortlist state on
// every read.
type Stage int

const (
	StageBuildingProfile Stage = iota + 1
	StageDiscoveringUniversities
	StageFinalizingUniversities
	StagePreparingApplications
)

var stageNames = map[Stage]string{
	StageBuildingProfile:         "Building Profile",
	StageDiscoveringUniversities: "Discovering Universities",
	StageFinalizingUniversities:  "Finalizing Universities",
	StagePreparingApplications:   "Preparing Applications",
}

// Name returns the display name for the stage.
func (s Stage) Name() string {
	return stageNames[s]
}

// StageInfo is one entry of the ordered stage catalogue.
type StageInfo struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// StageCatalogue returns the ordered list of all stages for display.
func StageCatalogue() []StageInfo {
	return []StageInfo{
		{Number: int(StageBuildingProfile), Name: StageBuildingProfile.Name()},
		{Number: int(StageDiscoveringUniversities), Name: StageDiscoveringUniversities.Name()},
		{Number: int(StageFinalizingUniversities), Name: StageFinalizingUniversities.Name()},
		{Number: int(StagePreparingApplications), Name: StagePreparingApplications.Name()},
	}
}
