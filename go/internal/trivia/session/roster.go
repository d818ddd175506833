package session

// Roster is the ordered set of players in a session, keyed by user id.
// It is not safe for concurrent use; the owning Session serializes access.
type Roster struct {
	players []*Player
}

func NewRoster() *Roster {
	return &Roster{}
}

// Add appends p unless a player with the same user id is already present.
func (r *Roster) Add(p *Player) bool {
	if r.Find(p.User.ID) != nil {
		return false
	}
	r.players = append(r.players, p)
	return true
}

// Remove drops the player with userID. Unknown ids leave the roster untouched.
func (r *Roster) Remove(userID string) (*Player, bool) {
	for i, p := range r.players {
		if p.User.ID == userID {
			r.players = append(r.players[:i:i], r.players[i+1:]...)
			return p, true
		}
	}
	return nil, false
}

func (r *Roster) Find(userID string) *Player {
	for _, p := range r.players {
		if p.User.ID == userID {
			return p
		}
	}
	return nil
}

func (r *Roster) Len() int {
	return len(r.players)
}

// Players returns the players in join order. The slice is a copy; the players are not.
func (r *Roster) Players() []*Player {
	out := make([]*Player, len(r.players))
	copy(out, r.players)
	return out
}

func (r *Roster) ResetAnswers() {
	for _, p := range r.players {
		p.Answer = Unanswered
	}
}

// ResetForGame zeroes points and marks everyone present as playing.
func (r *Roster) ResetForGame() {
	for _, p := range r.players {
		p.Points = 0
		p.IsPlaying = true
		p.Answer = Unanswered
	}
}

// Award adds points to every player whose answer equals correct and returns their ids.
func (r *Roster) Award(correct, points int) []string {
	var awarded []string
	for _, p := range r.players {
		if p.Answer == correct {
			p.Points += points
			awarded = append(awarded, p.User.ID)
		}
	}
	return awarded
}
