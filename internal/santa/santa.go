// Package santa holds the Secret Santa session model: one session per
// group chat, owned by its creator, with a participant list that feeds
// the pairing draw.
package santa

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Participant is one joined user. JoinMessageID points at the private
// confirmation message (its keyboard is removed when they leave);
// MatchMessageID points at the private message carrying their match.
type Participant struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	JoinMessageID  int       `json:"join_message_id,omitempty"`
	MatchMessageID int       `json:"match_message_id,omitempty"`
	JoinedAt       time.Time `json:"joined_at"`
}

// Session is the active Secret Santa of a chat. A chat has at most one.
type Session struct {
	ChatID    int64  `json:"chat_id"`
	ChatTitle string `json:"chat_title"`

	CreatorID   int64  `json:"creator_id"`
	CreatorName string `json:"creator_name"`

	// OriginMessageID is the /newsanta command message; BoardMessageID is
	// the bot's board message that carries the participant list and the
	// inline keyboard.
	OriginMessageID int `json:"origin_message_id"`
	BoardMessageID  int `json:"board_message_id,omitempty"`

	Started bool `json:"started"`

	Participants map[int64]*Participant `json:"participants"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func New(chatID int64, chatTitle string, creatorID int64, creatorName string, originMessageID int) *Session {
	now := time.Now().UTC()
	return &Session{
		ChatID:          chatID,
		ChatTitle:       chatTitle,
		CreatorID:       creatorID,
		CreatorName:     creatorName,
		OriginMessageID: originMessageID,
		Participants:    map[int64]*Participant{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (s *Session) touch() { s.UpdatedAt = time.Now().UTC() }

// Join adds or refreshes a participant. It reports whether the user was
// already participating.
func (s *Session) Join(userID int64, name string) bool {
	_, already := s.Participants[userID]
	if !already {
		s.Participants[userID] = &Participant{ID: userID, Name: name, JoinedAt: time.Now().UTC()}
	} else {
		s.Participants[userID].Name = name
	}
	s.touch()
	return already
}

// Leave removes a participant, reporting whether they were in the list.
func (s *Session) Leave(userID int64) bool {
	_, ok := s.Participants[userID]
	delete(s.Participants, userID)
	if ok {
		s.touch()
	}
	return ok
}

func (s *Session) IsParticipant(userID int64) bool {
	_, ok := s.Participants[userID]
	return ok
}

func (s *Session) IsCreator(userID int64) bool { return s.CreatorID == userID }

func (s *Session) Count() int { return len(s.Participants) }

// MissingCount reports how many more joins are needed before the draw can
// start (0 when the minimum is met).
func (s *Session) MissingCount(min int) int {
	if n := min - s.Count(); n > 0 {
		return n
	}
	return 0
}

func (s *Session) SetName(userID int64, name string) {
	if p, ok := s.Participants[userID]; ok {
		p.Name = name
		s.touch()
	}
}

func (s *Session) SetJoinMessageID(userID int64, messageID int) {
	if p, ok := s.Participants[userID]; ok {
		p.JoinMessageID = messageID
	}
}

func (s *Session) SetMatchMessageID(userID int64, messageID int) {
	if p, ok := s.Participants[userID]; ok {
		p.MatchMessageID = messageID
	}
}

func (s *Session) Name(userID int64) string {
	if p, ok := s.Participants[userID]; ok {
		return p.Name
	}
	return ""
}

// Ordered returns participants in join order, for stable board rendering.
func (s *Session) Ordered() []*Participant {
	out := make([]*Participant, 0, len(s.Participants))
	for _, p := range s.Participants {
		out = append(out, p)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].JoinedAt.Before(out[j-1].JoinedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// IDs returns the participant ids in join order.
func (s *Session) IDs() []int64 {
	ps := s.Ordered()
	out := make([]int64, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

// ExpiredAfter reports whether the session is older than the given
// lifetime.
func (s *Session) ExpiredAfter(lifetime time.Duration, now time.Time) bool {
	return now.Sub(s.CreatedAt) > lifetime
}

// Link is a deep link to the board message, in Telegram's /c/ form for
// supergroups (chat id -100XXXX... becomes t.me/c/XXXX.../msg).
func (s *Session) Link() string {
	internal := strings.TrimPrefix(strconv.FormatInt(s.ChatID, 10), "-100")
	return fmt.Sprintf("https://t.me/c/%s/%d", internal, s.BoardMessageID)
}
