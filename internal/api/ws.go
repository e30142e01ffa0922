package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/sprite-ai/qcreview/internal/autosave"
	"github.com/sprite-ai/qcreview/internal/events"
	"github.com/sprite-ai/qcreview/internal/model"
	"github.com/sprite-ai/qcreview/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 16,
	WriteBufferSize: 1024 * 16,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local dev; restrict in production
	},
}

// WebSocket message types from client.
const (
	wsMsgOpen        = "open"
	wsMsgToggle      = "toggle"
	wsMsgNotes       = "notes"
	wsMsgBlur        = "blur"
	wsMsgEnter       = "enter"
	wsMsgValidate    = "validate"
	wsMsgNext        = "next"
	wsMsgPrev        = "prev"
	wsMsgContentType = "content_type"
	wsMsgModal       = "modal"
	wsMsgClose       = "close"
)

// WebSocket message types to client.
const (
	wsMsgState        = "state"
	wsMsgSaved        = "saved"
	wsMsgNotification = "notification"
	wsMsgError        = "error"
)

// wsMessage is the envelope for WebSocket messages in both directions.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type wsOpen struct {
	VehicleID string `json:"vehicleId"`
	UserID    string `json:"userId"`
}

type wsToggle struct {
	Code model.IssueCode `json:"code"`
}

type wsNotes struct {
	Text string `json:"text"`
}

type wsContentType struct {
	Type model.Position `json:"type"`
}

type wsModal struct {
	Open bool `json:"open"`
}

type wsOption struct {
	Code     model.IssueCode `json:"code"`
	LabelKey string          `json:"labelKey"`
	Label    string          `json:"label"`
	Protocol bool            `json:"protocol,omitempty"`
	Checked  bool            `json:"checked"`
	Disabled bool            `json:"disabled"`
}

// wsState is the full review view, sent after every handled message.
type wsState struct {
	SessionID   string              `json:"sessionId"`
	Vehicle     model.Vehicle       `json:"vehicle"`
	Index       int                 `json:"index"`
	Count       int                 `json:"count"`
	Item        *model.ContentItem  `json:"item,omitempty"`
	ContentType model.Position      `json:"contentType,omitempty"`
	Owner       bool                `json:"owner"`
	Kind        string              `json:"kind"`
	Status      model.VerdictStatus `json:"status"`
	Notes       string              `json:"notes"`
	Options     []wsOption          `json:"options"`
}

type wsSaved struct {
	VehicleImageID string              `json:"vehicleImageId"`
	Status         model.VerdictStatus `json:"status"`
	OK             bool                `json:"ok"`
}

type wsNotification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// wsReview is one WebSocket connection. It owns at most one review session
// and handles messages sequentially.
type wsReview struct {
	srv    *Server
	conn   *websocket.Conn
	logger *slog.Logger
	sess   *session.Session
	modal  bool
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	s.metrics.wsSessions.Inc()
	defer s.metrics.wsSessions.Dec()

	rv := &wsReview{srv: s, conn: conn, logger: s.logger}
	ctx := r.Context()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read", "err", err)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			rv.sendError("invalid message format")
			continue
		}
		rv.dispatch(ctx, msg)
	}
}

func (rv *wsReview) dispatch(ctx context.Context, msg wsMessage) {
	if msg.Type == wsMsgOpen {
		rv.open(ctx, msg.Data)
		return
	}
	if msg.Type == wsMsgModal {
		var req wsModal
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			rv.sendError("invalid modal data")
			return
		}
		rv.modal = req.Open
		return
	}
	if rv.sess == nil {
		rv.sendError("no vehicle open")
		return
	}

	switch msg.Type {
	case wsMsgToggle:
		var req wsToggle
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			rv.sendError("invalid toggle data")
			return
		}
		rv.apply(ctx, rv.sess.Toggle(req.Code))
	case wsMsgNotes:
		var req wsNotes
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			rv.sendError("invalid notes data")
			return
		}
		rv.sess.SetNotes(req.Text)
		rv.sendState()
	case wsMsgBlur:
		rv.apply(ctx, rv.sess.BlurNotes())
	case wsMsgEnter:
		rv.apply(ctx, rv.sess.Enter(rv.modal))
	case wsMsgValidate:
		rv.apply(ctx, rv.sess.ValidateAndAdvance())
	case wsMsgNext:
		rv.apply(ctx, rv.sess.Next())
	case wsMsgPrev:
		rv.apply(ctx, rv.sess.Prev())
	case wsMsgContentType:
		var req wsContentType
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			rv.sendError("invalid content_type data")
			return
		}
		rv.changeContentType(ctx, req.Type)
	case wsMsgClose:
		rv.sess = nil
		rv.modal = false
		rv.sendNotification(false, "Review closed")
	default:
		rv.sendError("unknown message type: " + msg.Type)
	}
}

func (rv *wsReview) open(ctx context.Context, data json.RawMessage) {
	var req wsOpen
	if err := json.Unmarshal(data, &req); err != nil || req.VehicleID == "" {
		rv.sendError("invalid open data")
		return
	}
	b := rv.srv.backend
	d, err := b.GetVehicleDetail(ctx, req.VehicleID)
	if err != nil {
		rv.sendError("loading vehicle: " + err.Error())
		return
	}

	rv.sess = session.New(req.UserID)
	rv.modal = false
	rv.logger.Info("review session opened", "session", rv.sess.ID(), "vehicle", req.VehicleID, "user", req.UserID)

	if in, ok := rv.sess.Load(d); ok {
		if err := b.AssignQualityCheckUser(ctx, in); err != nil {
			rv.sendNotification(true, "Could not claim vehicle: "+err.Error())
		} else {
			rv.srv.publish(ctx, events.VehicleChanged{VehicleID: in.VehicleID, Kind: events.KindAssignment, UserID: in.UserID})
			rv.refetch(ctx)
		}
	}
	rv.sendState()
}

// apply performs the write an operation asked for and sends the new view.
func (rv *wsReview) apply(ctx context.Context, eff session.Effect) {
	if eff.Save != nil {
		rv.save(ctx, *eff.Save)
	}
	rv.sendState()
}

func (rv *wsReview) save(ctx context.Context, in model.QualityCheckInput) {
	res := rv.srv.persister.Save(ctx, in)
	rv.sendMessage(wsMsgSaved, wsSaved{VehicleImageID: in.VehicleImageID, Status: in.Status, OK: res.Err == nil})
	rv.sendNotice(res.Notice)
	if res.Err != nil {
		return
	}
	rv.srv.metrics.saves.WithLabelValues(string(in.Status)).Inc()
	rv.srv.publish(ctx, events.VehicleChanged{
		VehicleID: in.VehicleID, ItemID: in.VehicleImageID,
		Kind: events.KindQualityCheck, UserID: rv.sess.UserID(),
	})
	if res.Detail != nil {
		rv.sess.Load(res.Detail)
	}
}

func (rv *wsReview) changeContentType(ctx context.Context, p model.Position) {
	in, ok := rv.sess.RequestContentType(p)
	if !ok {
		rv.sendState()
		return
	}
	if err := rv.srv.backend.UpdateVehicleImageType(ctx, in); err != nil {
		rv.sendNotification(true, "Could not change content type: "+err.Error())
		rv.sendState()
		return
	}
	rv.srv.publish(ctx, events.VehicleChanged{
		VehicleID: in.VehicleID, ItemID: in.VehicleImageID,
		Kind: events.KindImageType, UserID: rv.sess.UserID(),
	})
	rv.sess.ApplyContentType(p)
	rv.refetch(ctx)
	rv.sendState()
}

func (rv *wsReview) refetch(ctx context.Context) {
	d, err := rv.srv.backend.GetVehicleDetail(ctx, rv.sess.Detail().Vehicle.ID)
	if err != nil {
		rv.sendNotification(true, "Refresh failed: "+err.Error())
		return
	}
	rv.sess.Load(d)
}

func (rv *wsReview) state() wsState {
	s := rv.sess
	st := s.State()
	out := wsState{
		SessionID:   s.ID(),
		Vehicle:     s.Detail().Vehicle,
		Index:       s.Index(),
		Count:       s.Len(),
		ContentType: s.ContentType(),
		Owner:       s.IsOwner(),
		Kind:        st.Kind().String(),
		Status:      st.Status(),
		Notes:       st.Notes(),
		Options:     []wsOption{},
	}
	if item, ok := s.Current(); ok {
		out.Item = &item
	}
	for _, o := range s.Options() {
		out.Options = append(out.Options, wsOption{
			Code:     o.Code,
			LabelKey: o.LabelKey,
			Label:    o.Label(),
			Protocol: o.IsProtocolIssue,
			Checked:  o.Checked,
			Disabled: o.Disabled,
		})
	}
	return out
}

func (rv *wsReview) sendState() {
	if rv.sess == nil || !rv.sess.Loaded() {
		return
	}
	rv.sendMessage(wsMsgState, rv.state())
}

func (rv *wsReview) sendNotice(n autosave.Notice) {
	rv.sendNotification(n.Error, n.Message)
}

func (rv *wsReview) sendNotification(isError bool, msg string) {
	level := "success"
	if isError {
		level = "error"
	}
	rv.sendMessage(wsMsgNotification, wsNotification{Level: level, Message: msg})
}

func (rv *wsReview) sendMessage(msgType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		rv.logger.Error("ws marshal", "err", err)
		return
	}
	msg := wsMessage{Type: msgType, Data: raw}
	if err := rv.conn.WriteJSON(msg); err != nil {
		rv.logger.Warn("ws write", "err", err)
	}
}

func (rv *wsReview) sendError(errMsg string) {
	rv.sendMessage(wsMsgError, map[string]string{"message": errMsg})
}
