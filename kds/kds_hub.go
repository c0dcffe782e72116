package kds

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/shagomeals/models"
	"github.com/yeremiapane/shagomeals/services"
	"github.com/yeremiapane/shagomeals/utils"
)

// Event types
const (
	EventOrderPlaced   = "order_placed"
	EventOrderUpdate   = "order_update"
	EventOrderCanceled = "order_canceled"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 32
)

var _ services.Notifier = (*Hub)(nil)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// OrderEvent is what a kitchen screen needs to render a ticket.
type OrderEvent struct {
	Code           string             `json:"order_id"`
	BranchID       uint               `json:"branch_id"`
	Status         models.OrderStatus `json:"status"`
	PreviousStatus models.OrderStatus `json:"previous_status,omitempty"`
	Paid           bool               `json:"payment_status"`
	DeliveryOption string             `json:"delivery_option"`
	PickupTime     *time.Time         `json:"pickup_time,omitempty"`
	Total          string             `json:"total"`
	Items          []TicketLine       `json:"items"`
}

type TicketLine struct {
	Name     string   `json:"name"`
	Quantity int      `json:"quantity"`
	Choices  []string `json:"choices,omitempty"`
}

type client struct {
	conn     *websocket.Conn
	branchID uint
	role     string
	send     chan []byte
}

// Hub fans order events out to the staff screens of a branch.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Serve registers conn for branch events and blocks until it disconnects.
func (h *Hub) Serve(conn *websocket.Conn, branchID uint, role string) {
	c := &client{conn: conn, branchID: branchID, role: role, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	utils.InfoLogger.WithFields(logrus.Fields{"branch": branchID, "role": role}).Info("kds client connected")

	go c.writePump()
	c.readPump()

	h.remove(c)
	utils.InfoLogger.WithFields(logrus.Fields{"branch": branchID, "role": role}).Info("kds client disconnected")
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Clients counts the connections listening on a branch.
func (h *Hub) Clients(branchID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		if c.branchID == branchID {
			n++
		}
	}
	return n
}

func (h *Hub) OrderPlaced(order *models.Order) {
	h.Broadcast(order.BranchID, Message{Event: EventOrderPlaced, Data: newOrderEvent(order, "")})
}

func (h *Hub) OrderChanged(order *models.Order, from models.OrderStatus) {
	h.Broadcast(order.BranchID, Message{Event: EventOrderUpdate, Data: newOrderEvent(order, from)})
}

func (h *Hub) OrderCanceled(order *models.Order) {
	h.Broadcast(order.BranchID, Message{Event: EventOrderCanceled, Data: newOrderEvent(order, "")})
}

// Broadcast queues msg for every client of the branch. A client whose
// buffer is full is dropped rather than slowing the request that emitted
// the event.
func (h *Hub) Broadcast(branchID uint, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Errorf("kds: marshal %s: %v", msg.Event, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.branchID != branchID {
			continue
		}
		select {
		case c.send <- data:
		default:
			delete(h.clients, c)
			close(c.send)
			utils.ErrorLogger.WithField("branch", branchID).Error("kds: dropped slow client")
		}
	}
}

func newOrderEvent(order *models.Order, from models.OrderStatus) OrderEvent {
	ev := OrderEvent{
		Code:           order.Code,
		BranchID:       order.BranchID,
		Status:         order.Status,
		PreviousStatus: from,
		Paid:           order.PaymentStatus,
		DeliveryOption: string(order.DeliveryOption),
		PickupTime:     order.PickupTime,
		Total:          utils.FormatMoney(order.Total),
		Items:          make([]TicketLine, 0, len(order.Items)),
	}
	for i := range order.Items {
		it := &order.Items[i]
		line := TicketLine{Name: it.Name(), Quantity: it.Quantity}
		for _, sel := range it.Selections {
			line.Choices = append(line.Choices, sel.GroupName+": "+sel.ChoiceName)
		}
		ev.Items = append(ev.Items, line)
	}
	return ev
}

func (c *client) readPump() {
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
