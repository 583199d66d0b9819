package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/spboyer/evaldash/internal/metrics"
	"github.com/spboyer/evaldash/internal/poller"
)

// Live keeps a Board in sync with a poller of the latest run.
type Live struct {
	board  *Board
	poller *poller.Poller[*metrics.Evaluation]
}

// NewLive binds board to p.
func NewLive(board *Board, p *poller.Poller[*metrics.Evaluation]) *Live {
	return &Live{board: board, poller: p}
}

// Board returns the bound board.
func (l *Live) Board() *Board { return l.board }

// View returns the current view.
func (l *Live) View() View { return l.board.View() }

// Interval returns the polling interval of the bound poller.
func (l *Live) Interval() time.Duration { return l.poller.Interval() }

// SetInterval replaces the polling timer of the bound poller.
func (l *Live) SetInterval(d time.Duration) { l.poller.SetInterval(d) }

// Refresh fetches now and applies the result. Losing to a newer fetch is
// not an error: the newer result is what the view will show.
func (l *Live) Refresh(ctx context.Context) error {
	err := l.poller.Fetch(ctx)
	l.board.Bind(l.poller.Snapshot())
	if errors.Is(err, poller.ErrSuperseded) {
		return nil
	}
	return err
}

// Follow binds every poller state change to the board and then calls
// onChange, if set, with the new view. It returns when ctx is cancelled or
// the poller stops.
func (l *Live) Follow(ctx context.Context, onChange func(View)) {
	states, unsubscribe := l.poller.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-states:
			if !ok {
				return
			}
			l.board.Bind(s)
			if onChange != nil {
				onChange(l.board.View())
			}
		}
	}
}
