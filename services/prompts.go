package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sentinelai/counsel-api/model"
)

const counsellorSystemPrompt = `You are the SentinelAI Counsellor, an empathetic, highly knowledgeable, and deterministic study-abroad guide.

CORE EXPERTISE:
- Global university admissions (US, UK, Canada, Australia, Europe).
- Standardized tests (IELTS, TOEFL, GRE, GMAT).
- Visa processes and financial planning.

# TONE & STYLE
- Empathetic but Realist: Encourage the student, but be honest about their chances.
- Professional yet Warm: Use a "counsellor" tone, not a robotic "AI" tone.
- Structured: Use bullet points, bold text, and clear sections.

# EXPLAINABILITY (CRITICAL):
- When you recommend a university, you MUST explain WHY.
- Use the format: "I recommend X because [Reason] based on your [Profile Aspect]."
- If you cite data (e.g., acceptance rates), ensure it is accurate or explicitly state it is an estimate.

# DETERMINISTIC BEHAVIOR:
- Do NOT hallucinate application deadlines. If unsure, say "Please check the official website for the latest deadlines."
- Recommend specific universities based on the user's "Dream/Target/Safe" classification logic.

# USER CONTEXT:
User Profile:
%s
Current Stage: %s
`

const classifierPrompt = `You are an expert university admissions analyst. Given a student's profile and a university, classify the university as dream, target, or safe.

# CLASSIFICATION CRITERIA:

**dream (20-35%% acceptance chance)**:
- University ranking significantly higher than student's profile suggests
- GPA requirement typically above the student's GPA
- Highly competitive programs with low acceptance rates

**target (40-60%% acceptance chance)**:
- University ranking matches student's academic profile
- GPA requirement close to the student's GPA
- Moderate competition

**safe (70-90%% acceptance chance)**:
- University where student exceeds typical admit profile
- GPA and test requirements met comfortably
- Higher acceptance rates

# STUDENT PROFILE:
%s

# UNIVERSITY DATA:
%s

# RESPONSE FORMAT (JSON):
{
    "category": "dream|target|safe",
    "fit_reasons": ["reason1", "reason2", "reason3"],
    "risks": ["risk1", "risk2"],
    "cost_level": "low|medium|high",
    "acceptance_chance": "low|medium|high"
}
`

// CounsellorSystemPrompt renders the counsellor persona with the user's
// profile and current stage injected as context.
func CounsellorSystemPrompt(data *model.ProfileData, stage model.Stage) string {
	return fmt.Sprintf(counsellorSystemPrompt, formatProfile(data), stage.Name())
}

// ClassifierPrompt renders the per-candidate classification prompt.
func ClassifierPrompt(data *model.ProfileData, university model.University) string {
	profileJSON, _ := json.MarshalIndent(data, "", "  ")
	universityJSON, _ := json.MarshalIndent(university, "", "  ")
	return fmt.Sprintf(classifierPrompt, string(profileJSON), string(universityJSON))
}

func formatProfile(data *model.ProfileData) string {
	if data == nil {
		return "- Profile not available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "- Education: %s in %s (graduating %d)\n",
		data.AcademicBackground.CurrentEducationLevel,
		data.AcademicBackground.DegreeMajor,
		data.AcademicBackground.GraduationYear)
	if data.AcademicBackground.GPA != nil {
		fmt.Fprintf(&b, "- GPA: %.2f\n", *data.AcademicBackground.GPA)
	}
	fmt.Fprintf(&b, "- Goal: %s in %s, intake %d\n",
		data.StudyGoal.IntendedDegree,
		data.StudyGoal.FieldOfStudy,
		data.StudyGoal.TargetIntakeYear)
	fmt.Fprintf(&b, "- Preferred countries: %s\n", strings.Join(data.StudyGoal.PreferredCountries, ", "))
	fmt.Fprintf(&b, "- Budget: %s per year, %s\n",
		data.Budget.BudgetRangePerYear, data.Budget.FundingPlan)
	fmt.Fprintf(&b, "- IELTS/TOEFL: %s", data.ExamsReadiness.IELTSTOEFLStatus)
	if data.ExamsReadiness.IELTSTOEFLScore != nil {
		fmt.Fprintf(&b, " (%.1f)", *data.ExamsReadiness.IELTSTOEFLScore)
	}
	fmt.Fprintf(&b, "\n- GRE/GMAT: %s", data.ExamsReadiness.GREGMATStatus)
	if data.ExamsReadiness.GREGMATScore != nil {
		fmt.Fprintf(&b, " (%d)", *data.ExamsReadiness.GREGMATScore)
	}
	fmt.Fprintf(&b, "\n- SOP: %s", data.ExamsReadiness.SOPStatus)
	return b.String()
}
