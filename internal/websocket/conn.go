package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/ikkim/budongsan-crm/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10 // pongWait 보다 짧아야 한다

	// 알림 채널은 서버 → 클라이언트 단방향. 클라이언트는 ping/ack 정도만 보낸다.
	maxMessageSize       = 4 * 1024
	maxMessagesPerSecond = 10
)

// Conn gorilla 연결에 쓰기 마감시간 처리를 더한 래퍼
type Conn struct {
	*websocket.Conn
}

func (c *Conn) writeText(message []byte) error {
	if err := c.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.WriteMessage(websocket.TextMessage, message)
}

func (c *Conn) writePing() error {
	if err := c.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.WriteMessage(websocket.PingMessage, nil)
}

func (c *Conn) writeClose() {
	_ = c.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.WriteMessage(websocket.CloseMessage, []byte{})
}

// ReadPump 연결이 끊길 때까지 클라이언트 메시지를 읽고, 끝나면 Hub 에서 해제한다
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("Notification socket closed unexpectedly", map[string]interface{}{
					"user_id": c.UserID,
					"error":   err.Error(),
				})
			}
			return
		}
		c.Hub.HandleClientMessage(c, message)
	}
}

// WritePump Send 채널의 알림을 전송하고 주기적으로 ping 을 보낸다
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			if !ok {
				c.Conn.writeClose()
				return
			}
			if err := c.flush(message); err != nil {
				logger.Error("Failed to push notification", err, map[string]interface{}{
					"user_id": c.UserID,
				})
				return
			}
		case <-ticker.C:
			if err := c.Conn.writePing(); err != nil {
				return
			}
		}
	}
}

// flush first 와 이미 쌓여 있는 알림을 각각 한 프레임씩 보낸다
func (c *Client) flush(first []byte) error {
	if err := c.Conn.writeText(first); err != nil {
		return err
	}
	for pending := len(c.Send); pending > 0; pending-- {
		message, ok := <-c.Send
		if !ok {
			return nil
		}
		if err := c.Conn.writeText(message); err != nil {
			return err
		}
	}
	return nil
}
