// Package ws serves generated environment data over a WebSocket: a one-time
// handshake, a PARAMS stream carrying interpolated day-cycle parameters at
// the configured tick rate, and on-demand ASSETS summaries. Generation has
// already completed by the time a server is constructed, so every
// connection sees the same immutable asset set.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"meadowgen/internal/gen/compose"
	"meadowgen/internal/gen/daycycle"
	"meadowgen/internal/protocol"
)

type Server struct {
	log    *log.Logger
	interp *daycycle.Interpolator
	clock  *daycycle.Clock

	tick      time.Duration
	welcome   protocol.WelcomeMsg
	assetsMsg protocol.AssetsMsg

	sessions atomic.Uint64
	upgrader websocket.Upgrader
}

// Config carries the world parameters echoed to clients in WELCOME.
type Config struct {
	Seed       int64
	Terrain    compose.TerrainConfig
	DayLength  time.Duration
	TickRateHz int
}

func NewServer(assets *compose.Assets, cfg Config, interp *daycycle.Interpolator, clock *daycycle.Clock, logger *log.Logger) *Server {
	if cfg.TickRateHz <= 0 {
		cfg.TickRateHz = 5
	}
	s := &Server{
		log:    logger,
		interp: interp,
		clock:  clock,
		tick:   time.Second / time.Duration(cfg.TickRateHz),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	s.welcome = protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		WorldParams: protocol.WorldParams{
			Seed:             cfg.Seed,
			TerrainSize:      cfg.Terrain.Size,
			TerrainSegments:  cfg.Terrain.Segments,
			DayLengthSeconds: cfg.DayLength.Seconds(),
			TickRateHz:       cfg.TickRateHz,
		},
		Counts: instanceCounts(assets),
	}
	s.assetsMsg = buildAssetsMsg(assets, cfg.Terrain)
	return s
}

func instanceCounts(assets *compose.Assets) map[string]int {
	return map[string]int{
		compose.CategoryTrees:   len(assets.Trees),
		compose.CategoryGrass:   len(assets.Grass),
		compose.CategoryFlowers: len(assets.Flowers),
		compose.CategoryRocks:   len(assets.Rocks),
	}
}

func buildAssetsMsg(assets *compose.Assets, terrain compose.TerrainConfig) protocol.AssetsMsg {
	msg := protocol.AssetsMsg{
		Type:            protocol.TypeAssets,
		ProtocolVersion: protocol.Version,
		Terrain: protocol.TerrainSummary{
			Size:      terrain.Size,
			Segments:  terrain.Segments,
			Vertices:  assets.Terrain.VertexCount(),
			Triangles: assets.Terrain.TriangleCount(),
		},
	}
	add := func(category string, inst compose.PlacedInstance) {
		msg.Instances = append(msg.Instances, protocol.InstanceRecord{
			Category:  category,
			Variant:   inst.Variant,
			Position:  [3]float64{inst.Position.X(), inst.Position.Y(), inst.Position.Z()},
			Scale:     inst.Scale,
			RotationY: inst.RotationY,
		})
	}
	for _, tr := range assets.Trees {
		add(compose.CategoryTrees, tr.PlacedInstance)
	}
	for _, g := range assets.Grass {
		add(compose.CategoryGrass, g)
	}
	for _, fl := range assets.Flowers {
		add(compose.CategoryFlowers, fl)
	}
	for _, r := range assets.Rocks {
		add(compose.CategoryRocks, r.PlacedInstance)
	}
	return msg
}

// ParamsAt returns the streamed message for a given wall time and tick.
// Also used by the HTTP stats surface to report current parameters
// without a socket.
func (s *Server) ParamsAt(now time.Time, tick uint64) protocol.ParamsMsg {
	return protocol.ParamsMsg{
		Type:            protocol.TypeParams,
		ProtocolVersion: protocol.Version,
		Tick:            tick,
		Params:          s.interp.ParametersAt(s.clock.HourAt(now)),
	}
}

// Welcome returns the handshake reply template (session_id unset).
func (s *Server) Welcome() protocol.WelcomeMsg {
	return s.welcome
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, out := s.handshake(conn)
		if sessionID == "" {
			return
		}
		s.log.Printf("ws: session %s connected", sessionID)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine: the ticker drives the PARAMS stream, out
		// carries reader-triggered replies.
		go func() {
			ticker := time.NewTicker(s.tick)
			defer ticker.Stop()
			var tick uint64
			for {
				select {
				case <-ctx.Done():
					return
				case now := <-ticker.C:
					tick++
					b, err := json.Marshal(s.ParamsAt(now, tick))
					if err != nil {
						continue
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				s.reply(ctx, out, errorMsg(protocol.ErrProtoBadRequest, "malformed message"))
				continue
			}
			switch base.Type {
			case protocol.TypeAssetsRequest:
				s.reply(ctx, out, s.assetsMsg)
			default:
				s.reply(ctx, out, errorMsg(protocol.ErrUnsupportedType, fmt.Sprintf("unsupported type %q", base.Type)))
			}
		}

		s.log.Printf("ws: session %s closed", sessionID)
	}
}

func (s *Server) reply(ctx context.Context, out chan []byte, msg any) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case out <- b:
	case <-ctx.Done():
	}
}

func errorMsg(code, message string) protocol.ErrorMsg {
	return protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		Code:            code,
		Message:         message,
	}
}

// handshake expects a HELLO and answers with WELCOME. Any protocol
// violation closes the connection; a version mismatch gets an ERROR
// first so the client can report it.
func (s *Server) handshake(conn *websocket.Conn) (sessionID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = writeJSON(conn, errorMsg(protocol.ErrProtoVersion, fmt.Sprintf("unsupported protocol version %q", hello.ProtocolVersion)))
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil
	}

	sessionID = fmt.Sprintf("S%d", s.sessions.Add(1))
	welcome := s.welcome
	welcome.SessionID = sessionID
	if err := writeJSON(conn, welcome); err != nil {
		return "", nil
	}

	return sessionID, make(chan []byte, 16)
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
