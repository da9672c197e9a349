package domain

import (
	"time"
)

// Account is a registered player's persisted identity and cumulative stats.
type Account struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	PasswordDigest string    `json:"passwordDigest"`
	Avatar         string    `json:"avatar"`
	RegisteredAt   time.Time `json:"registeredAt"`
	GamesPlayed    int       `json:"gamesPlayed"`
	BestScore      float64   `json:"bestScore"`
	TotalPoints    int       `json:"totalPoints"`
	IsAdmin        bool      `json:"isAdmin,omitempty"`
}

// SessionRecord is the history entry written once per completed quiz.
type SessionRecord struct {
	Mode          string    `json:"mode"`
	QuestionCount int       `json:"questionCount"`
	CorrectCount  int       `json:"correctCount"`
	Grade         float64   `json:"grade"`
	PointsAwarded int       `json:"pointsAwarded"`
	CompletedAt   time.Time `json:"completedAt"`
}

// Leaderboard is the global ranking, sorted by best grade in descending order.
type Leaderboard struct {
	Entries []LeaderboardEntry
}

type LeaderboardEntry struct {
	AccountID   string  `json:"accountId"`
	Name        string  `json:"name"`
	Avatar      string  `json:"avatar"`
	BestGrade   float64 `json:"bestGrade"`
	TotalPoints int     `json:"totalPoints"`
	GamesPlayed int     `json:"gamesPlayed"`
}

type Question struct {
	Text         string   `json:"question" yaml:"question"`
	Options      []string `json:"options" yaml:"options"`
	CorrectIndex int      `json:"answer" yaml:"answer"`
	Category     string   `json:"category,omitempty" yaml:"category,omitempty"`
}

// Mode describes how a quiz is played.
type Mode struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	QuestionCount      int    `json:"questionCount"`
	SecondsPerQuestion int    `json:"secondsPerQuestion"`
	IsExamMode         bool   `json:"isExamMode"`
	Category           string `json:"category,omitempty"`
}

// Timed reports whether questions are answered against a countdown.
func (m Mode) Timed() bool { return m.SecondsPerQuestion > 0 }

// ActionKind names an entry of the remote action log.
type ActionKind string

const (
	ActionRegistered         ActionKind = "INSCRIPTION"
	ActionLoggedIn           ActionKind = "CONNEXION"
	ActionLoggedOut          ActionKind = "DECONNEXION"
	ActionSessionCompleted   ActionKind = "PARTIE_TERMINEE"
	ActionLeaderboardUpdated ActionKind = "CLASSEMENT_MIS_A_JOUR"
)

// Premium is an account's subscription status. Every account is premium for now.
type Premium struct {
	Active    bool      `json:"active"`
	Plan      string    `json:"plan"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// LifetimePremium is the status granted to every account.
var LifetimePremium = Premium{
	Active:    true,
	Plan:      "premium",
	ExpiresAt: time.Date(2099, time.December, 31, 0, 0, 0, 0, time.UTC),
}
