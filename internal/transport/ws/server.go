package ws

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"beltline.ai/internal/protocol"
	"beltline.ai/internal/sim/logistics/model"
	"beltline.ai/internal/sim/logistics/rotation"
	"beltline.ai/internal/sim/world"
)

// resultTimeout bounds how long a command waits for the world loop.
const resultTimeout = 5 * time.Second

// Server accepts build commands (PLACE / REMOVE) over a websocket and
// answers each with a RESULT once the world has applied it.
type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	return &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sid, ok := s.handshake(conn)
		if !ok {
			return
		}
		if s.log != nil {
			s.log.Printf("build session %s connected from %s", sid, r.RemoteAddr)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		out := make(chan []byte, 64)

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-out:
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
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			switch base.Type {
			case protocol.TypePlace:
				s.handlePlace(ctx, msg, out)
			case protocol.TypeRemove:
				s.handleRemove(ctx, msg, out)
			}
		}
		cancel()
		if s.log != nil {
			s.log.Printf("build session %s closed", sid)
		}
	}
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID string, ok bool) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", false
	}
	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", false
	}
	if base.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", false
	}

	sid := uuid.NewString()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sid,
		WorldID:         s.world.Config().ID,
		Tick:            s.world.CurrentTick(),
		Catalogs:        s.world.CatalogDigests(),
	}
	if err := writeJSON(conn, welcome); err != nil {
		return "", false
	}
	return sid, true
}

func (s *Server) handlePlace(ctx context.Context, msg []byte, out chan<- []byte) {
	var m protocol.PlaceMsg
	_ = json.Unmarshal(msg, &m)
	if err := protocol.Validate("place.schema.json", msg); err != nil {
		reply(out, failResult(m.Ref, protocol.ErrProtoBadRequest, err.Error()))
		return
	}
	req, err := toPlaceRequest(m)
	if err != nil {
		reply(out, failResult(m.Ref, protocol.ErrProtoBadRequest, err.Error()))
		return
	}
	resp := make(chan world.PlaceResult, 1)
	req.Resp = resp
	select {
	case s.world.Place() <- req:
	default:
		reply(out, failResult(m.Ref, protocol.ErrWorldBusy, "place queue full"))
		return
	}
	go func() {
		select {
		case r := <-resp:
			res := protocol.ResultMsg{Type: protocol.TypeResult, ProtocolVersion: protocol.Version, Ref: m.Ref, OK: r.Err == nil, Entity: uint64(r.Entity)}
			if r.Err != nil {
				res.Code, res.Message = r.Code, r.Err.Error()
			}
			reply(out, res)
		case <-time.After(resultTimeout):
			reply(out, failResult(m.Ref, protocol.ErrTimeout, "world did not answer"))
		case <-ctx.Done():
		}
	}()
}

func (s *Server) handleRemove(ctx context.Context, msg []byte, out chan<- []byte) {
	var m protocol.RemoveMsg
	_ = json.Unmarshal(msg, &m)
	if err := protocol.Validate("remove.schema.json", msg); err != nil {
		reply(out, failResult(m.Ref, protocol.ErrProtoBadRequest, err.Error()))
		return
	}
	resp := make(chan world.RemoveResult, 1)
	select {
	case s.world.Remove() <- world.RemoveRequest{Entity: model.EntityID(m.Entity), Resp: resp}:
	default:
		reply(out, failResult(m.Ref, protocol.ErrWorldBusy, "remove queue full"))
		return
	}
	go func() {
		select {
		case r := <-resp:
			res := protocol.ResultMsg{Type: protocol.TypeResult, ProtocolVersion: protocol.Version, Ref: m.Ref, OK: r.Err == nil, Entity: m.Entity}
			for _, ic := range r.Items {
				res.Items = append(res.Items, protocol.ItemCount{Item: string(ic.Item), Amount: ic.Amount})
			}
			if r.Err != nil {
				res.Code, res.Message = r.Code, r.Err.Error()
			}
			reply(out, res)
		case <-time.After(resultTimeout):
			reply(out, failResult(m.Ref, protocol.ErrTimeout, "world did not answer"))
		case <-ctx.Done():
		}
	}()
}

func toPlaceRequest(m protocol.PlaceMsg) (world.PlaceRequest, error) {
	facing := rotation.North
	if m.Facing != "" {
		d, ok := rotation.ParseCompass(m.Facing)
		if !ok {
			return world.PlaceRequest{}, rotation.ErrInvalidDirection
		}
		facing = d
	}
	req := world.PlaceRequest{
		Structure: strings.ToUpper(m.Structure),
		Pos:       model.TilePos{X: m.Pos[0], Y: m.Pos[1]},
		Facing:    facing,
		Resource:  model.Item(m.Resource),
		Recipe:    strings.ToUpper(m.Recipe),
	}
	for _, ic := range m.Items {
		req.Items = append(req.Items, model.Count(model.Item(ic.Item), ic.Amount))
	}
	return req, nil
}

func failResult(ref, code, message string) protocol.ResultMsg {
	return protocol.ResultMsg{
		Type:            protocol.TypeResult,
		ProtocolVersion: protocol.Version,
		Ref:             ref,
		Code:            code,
		Message:         message,
	}
}

// reply queues a result for the writer; results are dropped if the client
// stops reading.
func reply(out chan<- []byte, res protocol.ResultMsg) {
	b, err := json.Marshal(res)
	if err != nil {
		return
	}
	select {
	case out <- b:
	default:
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
