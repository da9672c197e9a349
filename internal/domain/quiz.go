package domain

type QuizPhase string

const (
	QuizPhaseLoading    QuizPhase = "loading"
	QuizPhaseInProgress QuizPhase = "in_progress"
	QuizPhaseAnswered   QuizPhase = "answered"
	QuizPhaseCompleted  QuizPhase = "completed"
	QuizPhaseAborted    QuizPhase = "aborted"
)

// Terminal reports whether no further transition is possible.
func (p QuizPhase) Terminal() bool {
	return p == QuizPhaseCompleted || p == QuizPhaseAborted
}

// Highlight is the display state of an option once the question is answered.
type Highlight string

const (
	HighlightNeutral Highlight = "neutral"
	HighlightCorrect Highlight = "correct"
	HighlightWrong   Highlight = "wrong"
)

// QuizSnapshot is what a player sees of a session at one point in time. Version increases with
// every change so late deliveries can be discarded.
type QuizSnapshot struct {
	SessionID      string      `json:"sessionId"`
	Version        uint64      `json:"version"`
	Mode           Mode        `json:"mode"`
	Phase          QuizPhase   `json:"phase"`
	CurrentIndex   int         `json:"currentIndex"`
	QuestionCount  int         `json:"questionCount"`
	TimeRemaining  int         `json:"timeRemaining"`
	Question       *QuizPrompt `json:"question,omitempty"`
	Selected       *int        `json:"selected,omitempty"`
	TimedOut       bool        `json:"timedOut,omitempty"`
	Highlights     []Highlight `json:"highlights,omitempty"`
	AbortRequested bool        `json:"abortRequested,omitempty"`
	Result         *QuizResult `json:"result,omitempty"`
}

// QuizPrompt is a question without its answer.
type QuizPrompt struct {
	Text     string   `json:"question"`
	Options  []string `json:"options"`
	Category string   `json:"category,omitempty"`
}

// QuizResult is the outcome of a completed session.
type QuizResult struct {
	QuestionCount int     `json:"questionCount"`
	CorrectCount  int     `json:"correctCount"`
	Grade         float64 `json:"grade"`
	PointsAwarded int     `json:"pointsAwarded"`
	Percentage    int     `json:"percentage"`
	Mention       string  `json:"mention"`
}
