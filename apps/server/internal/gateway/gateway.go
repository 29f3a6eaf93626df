package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"mahjong-lite/apps/server/internal/auth"
	"mahjong-lite/apps/server/internal/codec"
	"mahjong-lite/apps/server/internal/lobby"
	"mahjong-lite/apps/server/internal/room"
	"mahjong-lite/apps/server/internal/wire"
	"mahjong-lite/internal/logx"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: Restrict in production
	},
}

// Connection 一条 WebSocket 连接。第一帧必须是 hello，
// 之后才接受房间操作。
type Connection struct {
	ID       string
	UserID   uint64
	Username string
	Conn     *websocket.Conn
	Send     chan *wire.ServerEnvelope
	Gateway  *Gateway

	authed bool

	RoomID string
	Room   *room.Room
}

// Gateway manages WebSocket connections and routes frames to rooms.
type Gateway struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	userConns   map[uint64]*Connection
	nextConnID  uint64
	nextGuestID uint64

	lobby *lobby.Lobby
	auth  auth.Service
}

// New creates a gateway. 大厅晚一步挂上来（它要先拿到下行回调）。
func New(authService auth.Service) *Gateway {
	return &Gateway{
		connections: make(map[string]*Connection),
		userConns:   make(map[uint64]*Connection),
		nextGuestID: 1_000_000,
		auth:        authService,
	}
}

func (g *Gateway) SetLobby(lby *lobby.Lobby) {
	g.lobby = lby
	lby.SetOnChange(g.pushRoomList)
}

// pushRoomList 房间集合变化时把新列表推给还在大厅里的连接。
func (g *Gateway) pushRoomList() {
	if g.lobby == nil {
		return
	}
	list := g.lobby.List()

	g.mu.RLock()
	idle := make([]*Connection, 0, len(g.connections))
	for _, c := range g.connections {
		if c.authed && c.Room == nil {
			idle = append(idle, c)
		}
	}
	g.mu.RUnlock()

	for _, c := range idle {
		c.push(wire.NewEnvelope(wire.ServerRoomList, "", 0, list))
	}
}

// SendToUser 房间广播的下行出口。缓冲满直接丢帧，
// 客户端靠 serverSeq 发现漏帧后重拉状态。
func (g *Gateway) SendToUser(userID uint64, env *wire.ServerEnvelope) {
	g.mu.RLock()
	c := g.userConns[userID]
	g.mu.RUnlock()
	if c == nil {
		return
	}
	select {
	case c.Send <- env:
	default:
		logx.Warn("[Gateway] send buffer full, dropping frame for user %d", userID)
	}
}

// OnlineCount 监控用。
func (g *Gateway) OnlineCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.connections)
}

// HandleWebSocket handles the upgrade and starts the pumps.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logx.Warn("[Gateway] upgrade error: %v", err)
		return
	}

	g.mu.Lock()
	g.nextConnID++
	c := &Connection{
		ID:      fmt.Sprintf("conn_%d", g.nextConnID),
		Conn:    conn,
		Send:    make(chan *wire.ServerEnvelope, 256),
		Gateway: g,
	}
	g.connections[c.ID] = c
	total := len(g.connections)
	g.mu.Unlock()

	logx.Info("[Gateway] client connected: %s, total: %d", c.ID, total)
	go c.readPump()
	go c.writePump()
}

func (c *Connection) readPump() {
	defer func() {
		c.Gateway.removeConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(65536)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logx.Warn("[Gateway] read error: %v", err)
			}
			break
		}
		c.handleMessage(data)
	}
}

func (c *Connection) handleMessage(data []byte) {
	var msg wire.ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("bad_frame", "invalid message format")
		return
	}

	if msg.Type == wire.ClientPing {
		c.push(wire.NewEnvelope(wire.ServerPong, c.RoomID, 0, nil))
		return
	}
	if msg.Type == wire.ClientHello {
		c.handleHello(&msg)
		return
	}
	if !c.authed {
		c.sendError("unauthenticated", "hello required before any other frame")
		return
	}

	switch msg.Type {
	case wire.ClientCreateRoom:
		c.handleCreateRoom(&msg)
	case wire.ClientJoinRoom:
		c.handleJoinRoom(&msg)
	case wire.ClientLeaveRoom:
		c.handleLeaveRoom(&msg)
	case wire.ClientListRooms:
		c.push(wire.NewEnvelope(wire.ServerRoomList, "", 0, c.Gateway.lobby.List()))
	default:
		c.handleRoomAction(&msg)
	}
}

// handleHello token 换身份；没 token 按游客放行。
func (c *Connection) handleHello(msg *wire.ClientMessage) {
	g := c.Gateway

	var (
		userID   uint64
		username string
	)
	if msg.Token != "" {
		account, ok := g.auth.Resolve(msg.Token)
		if !ok {
			c.sendError("bad_token", "invalid or expired token")
			return
		}
		userID, username = account.ID, account.Username
	} else {
		g.mu.Lock()
		g.nextGuestID++
		userID = g.nextGuestID
		g.mu.Unlock()
		username = msg.Name
		if username == "" {
			username = fmt.Sprintf("guest_%d", userID)
		}
	}

	g.mu.Lock()
	// 同一账号的旧连接被顶下线。
	if old := g.userConns[userID]; old != nil && old != c {
		close(old.Send)
	}
	c.UserID = userID
	c.Username = username
	c.authed = true
	g.userConns[userID] = c
	g.mu.Unlock()

	logx.Info("[Gateway] %s authenticated as %s (%d)", c.ID, username, userID)
	c.push(wire.NewEnvelope(wire.ServerHello, "", 0, wire.HelloBody{ConnID: c.ID, Username: username}))
}

func (c *Connection) handleCreateRoom(msg *wire.ClientMessage) {
	r, err := c.Gateway.lobby.CreateRoom(lobby.CreateOptions{
		Name:     msg.RoomName,
		Password: msg.Password,
		Rounds:   msg.Rounds,
	})
	if err != nil {
		c.sendError("create_failed", err.Error())
		return
	}
	c.joinRoom(r, msg)
}

func (c *Connection) handleJoinRoom(msg *wire.ClientMessage) {
	r, err := c.Gateway.lobby.Room(msg.RoomID)
	if err != nil {
		c.sendError("room_not_found", err.Error())
		return
	}
	if !r.CheckPassword(msg.Password) {
		c.sendError("bad_password", "wrong room password")
		return
	}
	c.joinRoom(r, msg)
}

func (c *Connection) joinRoom(r *room.Room, msg *wire.ClientMessage) {
	name := c.Username
	if msg.Name != "" {
		name = msg.Name
	}
	err := r.SubmitEvent(room.Event{
		Type:   room.EventJoin,
		UserID: c.UserID,
		Name:   name,
		Seq:    msg.Seq,
	})
	if err != nil {
		c.sendError("join_failed", err.Error())
		return
	}
	c.RoomID = r.ID
	c.Room = r
}

func (c *Connection) handleLeaveRoom(msg *wire.ClientMessage) {
	if c.Room == nil {
		return
	}
	_ = c.Room.SubmitEvent(room.Event{Type: room.EventLeave, UserID: c.UserID, Seq: msg.Seq})
	c.RoomID = ""
	c.Room = nil
}

// handleRoomAction 牌桌内动作统一转成房间事件。
func (c *Connection) handleRoomAction(msg *wire.ClientMessage) {
	if c.Room == nil {
		c.sendError("not_in_room", "join a room first")
		return
	}

	e := room.Event{UserID: c.UserID, Seq: msg.Seq}
	switch msg.Type {
	case wire.ClientReady:
		e.Type = room.EventReady
	case wire.ClientDiscard:
		e.Type = room.EventDiscard
		e.TileID = msg.TileID
	case wire.ClientSelfHu:
		e.Type = room.EventSelfHu
	case wire.ClientAnGang:
		e.Type = room.EventAnGang
		e.Kind = msg.Kind
	case wire.ClientAddGang:
		e.Type = room.EventAddGang
		e.Kind = msg.Kind
	case wire.ClientClaim:
		claim, ok := codec.ParseClaim(msg.Claim)
		if !ok {
			c.sendError("bad_claim", fmt.Sprintf("unknown claim %q", msg.Claim))
			return
		}
		e.Type = room.EventClaim
		e.Claim = claim
		e.Kind = msg.Kind
		if len(msg.ChiTiles) == 2 {
			e.ChiTiles = [2]int{msg.ChiTiles[0], msg.ChiTiles[1]}
		}
	case wire.ClientRematchVote:
		e.Type = room.EventRematchVote
		e.Accept = msg.Accept != nil && *msg.Accept
	case wire.ClientChat:
		e.Type = room.EventChat
		e.Text = msg.Text
	case wire.ClientVoice:
		e.Type = room.EventVoice
		e.Voice = msg.Voice
	default:
		c.sendError("bad_frame", fmt.Sprintf("unknown frame type %q", msg.Type))
		return
	}

	if err := c.Room.SubmitEvent(e); err != nil {
		c.sendError("action_rejected", err.Error())
	}
}

func (c *Connection) sendError(code, message string) {
	c.push(wire.NewErrorEnvelope(c.RoomID, 0, code, message))
}

func (c *Connection) push(env *wire.ServerEnvelope) {
	select {
	case c.Send <- env:
	default:
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// removeConnection 掉线即通知所在房间标记离线，座位保留等重连。
func (g *Gateway) removeConnection(c *Connection) {
	g.mu.Lock()
	delete(g.connections, c.ID)
	if g.userConns[c.UserID] == c {
		delete(g.userConns, c.UserID)
	}
	total := len(g.connections)
	g.mu.Unlock()

	if c.Room != nil {
		_ = c.Room.SubmitEvent(room.Event{Type: room.EventConnLost, UserID: c.UserID})
	}
	logx.Info("[Gateway] client disconnected: %s, total: %d", c.ID, total)
}
