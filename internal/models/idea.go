package models

// IdeaParagraph pairs a content idea with the paragraph expanded from it.
type IdeaParagraph struct {
	Idea      string `json:"idea" yaml:"idea"`
	Paragraph string `json:"paragraph" yaml:"paragraph"`
}

// Stage names the pipeline step a search result was in when it failed.
type Stage string

const (
	StageFetch   Stage = "fetch"
	StageExtract Stage = "extract"
	StageExpand  Stage = "expand"
)

// SkippedResult records a search result that contributed no ideas because
// one of its stages failed.
type SkippedResult struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
	Stage Stage  `json:"stage"`
	Error string `json:"error"`
}
