package domain

const (
	EventNameAccountPushed      = "account.pushed"
	EventNameLoginRecorded      = "account.login"
	EventNameLogoutRecorded     = "account.logout"
	EventNameProfileUpdated     = "account.profile"
	EventNameActionLogged       = "action.logged"
	EventNameLeaderboardUpdated = "leaderboard.updated"
	EventNameQuizUpdated        = "quiz.updated"
)

type EventAccountPushed struct {
	Account Account
}

func (EventAccountPushed) Name() string { return EventNameAccountPushed }

type EventLoginRecorded struct {
	AccountID string
	Patch     map[string]any
}

func (EventLoginRecorded) Name() string { return EventNameLoginRecorded }

type EventLogoutRecorded struct {
	AccountID string
}

func (EventLogoutRecorded) Name() string { return EventNameLogoutRecorded }

type EventProfileUpdated struct {
	AccountID string
	Patch     map[string]any
}

func (EventProfileUpdated) Name() string { return EventNameProfileUpdated }

type EventActionLogged struct {
	AccountID string
	Kind      ActionKind
	Details   map[string]any
}

func (EventActionLogged) Name() string { return EventNameActionLogged }

type EventLeaderboardUpdated struct {
	Leaderboard Leaderboard
}

func (EventLeaderboardUpdated) Name() string { return EventNameLeaderboardUpdated }

type EventQuizUpdated struct {
	Snapshot QuizSnapshot
}

func (EventQuizUpdated) Name() string { return EventNameQuizUpdated }
