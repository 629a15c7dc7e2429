package domain

// SuggestedMatch is a ranked candidate pairing computed on demand.
// It is never persisted.
type SuggestedMatch struct {
	Candidate PublicProfile `json:"candidate"`
	// MatchingTeachSkills are the skills the requester could teach the candidate.
	MatchingTeachSkills SkillSet `json:"matching_teach_skills"`
	// MatchingLearnSkills are the skills the candidate could teach the requester.
	MatchingLearnSkills SkillSet `json:"matching_learn_skills"`
	MatchScore          float64  `json:"match_score"`
}
