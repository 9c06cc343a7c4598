package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/ikkim/budongsan-crm/pkg/logger"
)

// ClientMessage 클라이언트로부터 받은 메시지
type ClientMessage struct {
	Type string `json:"type"` // ping
}

// Client WebSocket 클라이언트
type Client struct {
	Hub            *Hub
	Conn           *Conn
	UserID         uint
	BusinessNumber string
	Send           chan []byte
	MessageCount   int       // 최근 1초간 받은 메시지 수
	LastResetTime  time.Time // 마지막 카운터 리셋 시간
	RateMu         sync.Mutex
}

// NewClient 연결된 사용자용 클라이언트 생성
func NewClient(hub *Hub, conn *Conn, userID uint, businessNumber string) *Client {
	return &Client{
		Hub:            hub,
		Conn:           conn,
		UserID:         userID,
		BusinessNumber: businessNumber,
		Send:           make(chan []byte, 256),
	}
}

// Hub 사용자별 알림 푸시 연결 관리자
type Hub struct {
	// 등록된 클라이언트들 (UserID -> []*Client - 멀티 디바이스 지원)
	clients map[uint][]*Client

	// 회사별 접속 사용자 (BusinessNumber -> map[UserID]bool)
	companies map[string]map[uint]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage

	mu sync.RWMutex
}

// BroadcastMessage 사용자 또는 회사 단위 전송 메시지
type BroadcastMessage struct {
	UserID         uint   // 0 이면 회사 전체
	BusinessNumber string // UserID 가 0 일 때 사용
	Message        []byte
}

// NewHub Hub 생성
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint][]*Client),
		companies:  make(map[string]map[uint]bool),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *BroadcastMessage, 1024),
	}
}

// Run Hub 실행
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.UserID] = append(h.clients[client.UserID], client)
	if client.BusinessNumber != "" {
		if _, ok := h.companies[client.BusinessNumber]; !ok {
			h.companies[client.BusinessNumber] = make(map[uint]bool)
		}
		h.companies[client.BusinessNumber][client.UserID] = true
	}
	sessions := len(h.clients[client.UserID])
	h.mu.Unlock()

	logger.Info("WebSocket client registered", map[string]interface{}{
		"user_id":        client.UserID,
		"total_sessions": sessions,
	})
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	clientList, ok := h.clients[client.UserID]
	if !ok {
		h.mu.Unlock()
		return
	}

	newList := make([]*Client, 0, len(clientList))
	removed := false
	for _, c := range clientList {
		if c == client {
			removed = true
			continue
		}
		newList = append(newList, c)
	}

	if len(newList) == 0 {
		// 마지막 세션이면 회사 목록에서도 제거
		delete(h.clients, client.UserID)
		if users, ok := h.companies[client.BusinessNumber]; ok {
			delete(users, client.UserID)
			if len(users) == 0 {
				delete(h.companies, client.BusinessNumber)
			}
		}
	} else {
		h.clients[client.UserID] = newList
	}
	if removed {
		close(client.Send)
	}
	remaining := len(newList)
	h.mu.Unlock()

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"user_id":            client.UserID,
		"remaining_sessions": remaining,
	})
}

func (h *Hub) deliver(message *BroadcastMessage) {
	h.mu.RLock()
	var targets []uint
	if message.UserID != 0 {
		targets = []uint{message.UserID}
	} else {
		for userID := range h.companies[message.BusinessNumber] {
			targets = append(targets, userID)
		}
	}

	for _, userID := range targets {
		// 멀티 디바이스: 모든 세션에 전송
		for _, client := range h.clients[userID] {
			select {
			case client.Send <- message.Message:
			default:
				// Send 채널이 막혀있음 - 비동기로 정리
				go h.Unregister(client)
				logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
					"user_id": userID,
				})
			}
		}
	}
	h.mu.RUnlock()
}

func (h *Hub) enqueue(msg *BroadcastMessage) {
	select {
	case h.broadcast <- msg:
	default:
		// 메시지 손실 허용 (알림은 DB 에 남아 있음)
		logger.Warn("Broadcast channel full, message dropped", map[string]interface{}{
			"user_id":         msg.UserID,
			"business_number": msg.BusinessNumber,
		})
	}
}

// SendToUser 특정 사용자의 모든 세션에 메시지 전송
func (h *Hub) SendToUser(userID uint, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal message", err, nil)
		return err
	}
	h.enqueue(&BroadcastMessage{UserID: userID, Message: data})
	return nil
}

// SendToCompany 같은 사업자번호로 접속한 모든 사용자에게 전송
func (h *Hub) SendToCompany(businessNumber string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal message", err, nil)
		return err
	}
	h.enqueue(&BroadcastMessage{BusinessNumber: businessNumber, Message: data})
	return nil
}

// Register 클라이언트 등록
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister 클라이언트 등록 해제
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// IsUserOnline 사용자 온라인 여부 확인
func (h *Hub) IsUserOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// OnlineUsers 회사의 접속 중인 사용자 목록
func (h *Hub) OnlineUsers(businessNumber string) []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var users []uint
	for userID := range h.companies[businessNumber] {
		users = append(users, userID)
	}
	return users
}

// HandleClientMessage 클라이언트 메시지 처리
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	// Rate limiting 체크
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"user_id": client.UserID,
			"count":   count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"user_id": client.UserID,
			"error":   err.Error(),
		})
		return
	}

	if msg.Type == "ping" {
		if err := h.SendToUser(client.UserID, map[string]interface{}{"type": "pong"}); err != nil {
			logger.Error("Failed to answer ping", err, map[string]interface{}{
				"user_id": client.UserID,
			})
		}
	}
}
