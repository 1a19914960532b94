package game

import (
	"fmt"
	"time"
)

// RuleVariant selects how a game ends and how it is scored.
type RuleVariant string

const (
	RuleStandard RuleVariant = "standard"
	RuleCapture  RuleVariant = "capture"
)

func (r RuleVariant) Valid() bool {
	return r == RuleStandard || r == RuleCapture
}

// Status is the lifecycle state of a session.
type Status string

const (
	StatusSetup    Status = "setup"
	StatusPlaying  Status = "playing"
	StatusPaused   Status = "paused"
	StatusFinished Status = "finished"
)

// EndReason explains why a session finished.
type EndReason string

const (
	EndNone         EndReason = ""
	EndResign       EndReason = "resign"
	EndTwoPasses    EndReason = "two_passes"
	EndCaptureLimit EndReason = "capture_limit"
	EndMoveLimit    EndReason = "move_limit"
	EndManual       EndReason = "manual"
)

// Limits are the optional thresholds of the capture variant. Zero disables a limit.
type Limits struct {
	CaptureLimit int `json:"capture_limit,omitempty" bson:"capture_limit,omitempty"`
	MoveLimit    int `json:"move_limit,omitempty" bson:"move_limit,omitempty"`
}

// Score is the result of a scoring pass. Captures count opponent stones taken.
type Score struct {
	BlackTerritory int   `json:"black_territory" bson:"black_territory"`
	WhiteTerritory int   `json:"white_territory" bson:"white_territory"`
	BlackCaptures  int   `json:"black_captures" bson:"black_captures"`
	WhiteCaptures  int   `json:"white_captures" bson:"white_captures"`
	BlackTotal     int   `json:"black_total" bson:"black_total"`
	WhiteTotal     int   `json:"white_total" bson:"white_total"`
	Leader         Color `json:"leader" bson:"leader"`
}

// Record is what a finished game hands to the archive.
type Record struct {
	ID        string        `json:"id" bson:"_id"`
	BoardSize int           `json:"board_size" bson:"board_size"`
	Rule      RuleVariant   `json:"rule" bson:"rule"`
	Limits    Limits        `json:"limits" bson:"limits"`
	Moves     []RecordEntry `json:"moves" bson:"moves"`
	Score     Score         `json:"score" bson:"score"`
	Winner    Color         `json:"winner" bson:"winner"`
	Reason    EndReason     `json:"reason" bson:"reason"`
	Result    string        `json:"result" bson:"result"`
	SGF       string        `json:"sgf" bson:"sgf"`
	StartedAt time.Time     `json:"started_at" bson:"started_at"`
	EndedAt   time.Time     `json:"ended_at" bson:"ended_at"`
}

// Margin is BlackTotal minus WhiteTotal.
func (s Score) Margin() int {
	return s.BlackTotal - s.WhiteTotal
}

// Result formats the score as "B+7", "W+2" or "Draw".
func (s Score) Result() string {
	m := s.Margin()
	switch {
	case m > 0:
		return fmt.Sprintf("B+%d", m)
	case m < 0:
		return fmt.Sprintf("W+%d", -m)
	}
	return "Draw"
}

// FormatResult is Score.Result with resignation rendered as "B+R"/"W+R".
func FormatResult(winner Color, reason EndReason, s Score) string {
	if reason == EndResign {
		switch winner {
		case Black:
			return "B+R"
		case White:
			return "W+R"
		}
	}
	return s.Result()
}
