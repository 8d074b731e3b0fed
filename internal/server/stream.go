package server

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

const (
	defaultStreamEvery = 5 * time.Second
	minStreamEvery     = time.Second
	maxStreamEvery     = time.Duration(math.MaxInt64)
	streamWriteTimeout = 10 * time.Second
)

// handleStream upgrades to a WebSocket and pushes a snapshot every `every`
// until the client goes away or the server shuts down.
//
//	@Summary		Snapshot stream
//	@Description	Upgrades to a WebSocket and pushes a snapshot every interval.
//	@Tags			metrics
//	@Param			every query string false "Push interval, at least 1s"
//	@Success		101
//	@Failure		400 {object} Problem
//	@Router			/stream [get]
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	every, err := parseInterval(r.URL.Query().Get("every"), defaultStreamEvery, minStreamEvery, maxStreamEvery)
	if err != nil {
		BadRequest(w, err.Error(), r.URL.Path)
		return
	}

	// The server-wide timeouts would otherwise cut the upgraded connection.
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // dashboards are served from other origins
	})
	if err != nil {
		s.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	// Clients never send anything; CloseRead cancels ctx once they disconnect.
	ctx := conn.CloseRead(r.Context())

	s.logger.Debug("stream opened",
		zap.String("remote", r.RemoteAddr),
		zap.Duration("every", every),
	)

	if err := s.pump(ctx, conn, every); err != nil && ctx.Err() == nil {
		s.logger.Debug("stream ended", zap.String("remote", r.RemoteAddr), zap.Error(err))
	}
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

// pump writes one snapshot immediately and then one per tick.
func (s *Server) pump(ctx context.Context, conn *websocket.Conn, every time.Duration) error {
	interval := min(s.cfg.DefaultInterval, every)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		snap := s.collector.Collect(ctx, interval)
		if err := ctx.Err(); err != nil {
			return err
		}

		writeCtx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
		err := wsjson.Write(writeCtx, conn, snap)
		cancel()
		if err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
