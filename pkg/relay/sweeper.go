package relay

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/sakya/pkg/log"
	"github.com/cuemby/sakya/pkg/room"
)

// sweepInterval is how often emptied rooms are garbage collected.
const sweepInterval = 10 * time.Second

// roomSweeper periodically evicts rooms that have sat empty past their
// GC grace period, so a server with high project churn does not grow
// its room table without bound.
type roomSweeper struct {
	rooms  *room.Manager
	logger zerolog.Logger
	stopCh chan struct{}
}

func newRoomSweeper(rooms *room.Manager) *roomSweeper {
	return &roomSweeper{
		rooms:  rooms,
		logger: log.WithComponent("room-sweeper"),
		stopCh: make(chan struct{}),
	}
}

// Start begins the sweep loop in the background.
func (s *roomSweeper) Start() {
	go s.run()
}

// Stop ends the sweep loop.
func (s *roomSweeper) Stop() {
	close(s.stopCh)
}

func (s *roomSweeper) run() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.rooms.Sweep(time.Now()); n > 0 {
				s.logger.Debug().Int("removed", n).Msg("swept empty rooms")
			}
		case <-s.stopCh:
			return
		}
	}
}
