package model

// Assessment 是单次再入院风险评估的结果。
type Assessment struct {
	PatientName     string   `json:"patientName"`
	HadmID          int64    `json:"hadmId"`
	Probability     float64  `json:"probability"`
	RiskPercent     float64  `json:"riskPercent"`
	AtRisk          bool     `json:"atRisk"`
	Threshold       float64  `json:"threshold"`
	Recommendation  string   `json:"recommendation"`
	ContractVersion string   `json:"contractVersion"`
	ModelVersion    string   `json:"modelVersion"`
	MatchedTokens   int      `json:"matchedTokens"`
	TotalTokens     int      `json:"totalTokens"`
	Warnings        []string `json:"warnings,omitempty"`
}

// NoteVector 是一条病历文本向量化的调试视图。
type NoteVector struct {
	Tokens        []string  `json:"tokens"`
	MatchedTokens []string  `json:"matchedTokens"`
	Vector        []float64 `json:"vector"`
	Dimensions    int       `json:"dimensions"`
}
