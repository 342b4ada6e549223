package fabric

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dhag/Py.HagLib.Socket/internal/protocol"
	"github.com/dhag/Py.HagLib.Socket/internal/transport"
)

// RouterMetrics are the prometheus counters the router publishes,
// following the teacher's promauto.NewCounterVec wiring style.
type RouterMetrics struct {
	Routed       prometheus.Counter
	Failed       prometheus.Counter
	Local        prometheus.Counter
	SessionsLive prometheus.Gauge
}

// NewRouterMetrics registers the router's counters on reg.
func NewRouterMetrics(reg prometheus.Registerer) *RouterMetrics {
	factory := promauto.With(reg)
	return &RouterMetrics{
		Routed: factory.NewCounter(prometheus.CounterOpts{
			Name: "hag_router_frames_routed_total",
			Help: "Frames successfully delivered to a remote session.",
		}),
		Failed: factory.NewCounter(prometheus.CounterOpts{
			Name: "hag_router_frames_failed_total",
			Help: "Per-recipient send failures during fan-out.",
		}),
		Local: factory.NewCounter(prometheus.CounterOpts{
			Name: "hag_router_frames_local_total",
			Help: "Frames delivered only to local server callbacks.",
		}),
		SessionsLive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hag_sessions_live",
			Help: "Number of currently connected sessions.",
		}),
	}
}

// Router implements the destination truth table: given a frame
// received on session S, it rewrites the frame's source identifiers from
// S's identity, computes the recipient set, and delivers via the
// transport framer to each one.
type Router struct {
	sessions *protocol.SessionManager
	framer   *transport.Framer
	metrics  *RouterMetrics
	logger   *slog.Logger
}

// NewRouter builds a Router over the given session table and framer.
func NewRouter(sessions *protocol.SessionManager, framer *transport.Framer, metrics *RouterMetrics, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{sessions: sessions, framer: framer, metrics: metrics, logger: logger}
}

// RewriteSource applies the mandatory source-identity rewrite:
// a frame whose src_user_id is 0 or the wildcard is stamped with S's
// user_id; a frame whose src_group_id is 0 is stamped with S's group_id.
// This guarantees forwarded frames carry authentic origin.
func RewriteSource(h *protocol.FrameHeader, s *protocol.Session) {
	if h.SrcUserID == 0 || h.SrcUserID == protocol.WildcardID {
		h.SrcUserID = s.UserID
	}
	if h.SrcGroupID == 0 {
		h.SrcGroupID = s.GroupID
	}
}

// Recipients computes the destination truth table: rows are evaluated in order,
// the first match wins. local reports whether the frame is for this
// endpoint's own callback hub instead of any session; sessions is then nil.
func (r *Router) Recipients(h *protocol.FrameHeader, sender *protocol.Session) (sessions []*protocol.Session, local bool) {
	switch {
	case h.DestUserID == 0:
		return nil, true

	case h.DestUserID == protocol.WildcardID && h.DestGroupID == protocol.WildcardID:
		all := r.sessions.SnapshotAll()
		out := make([]*protocol.Session, 0, len(all))
		for _, s := range all {
			if sender == nil || s.ID != sender.ID {
				out = append(out, s)
			}
		}
		return out, false

	case h.DestUserID == protocol.WildcardID:
		return r.sessions.SnapshotGroup(h.DestGroupID), false

	case h.DestGroupID == protocol.WildcardID:
		return r.sessions.SnapshotUser(h.DestUserID), false

	default:
		var out []*protocol.Session
		for _, s := range r.sessions.SnapshotUser(h.DestUserID) {
			if s.GroupID == h.DestGroupID {
				out = append(out, s)
			}
		}
		return out, false
	}
}

// Route delivers frame received on sender to its computed recipients.
// Returns true, having sent nothing, when the frame is for the local
// callback hub (the caller dispatches that itself, since the hub lives at
// a higher layer than the router). Per-recipient send failures are logged and do
// not abort the remaining fan-out.
func (r *Router) Route(frame *protocol.Frame, sender *protocol.Session) (deliverLocal bool) {
	RewriteSource(&frame.Header, sender)

	recipients, local := r.Recipients(&frame.Header, sender)
	if local {
		if r.metrics != nil {
			r.metrics.Local.Inc()
		}
		return true
	}

	for _, s := range recipients {
		if err := r.framer.Send(sessionWriter{s}, frame); err != nil {
			if r.metrics != nil {
				r.metrics.Failed.Inc()
			}
			r.logger.Warn("send to recipient failed", "session_id", s.ID, "error", err)
			continue
		}
		if r.metrics != nil {
			r.metrics.Routed.Inc()
		}
	}
	return false
}

// sessionWriter adapts Session.Send to io.Writer so transport.Framer can
// serialize through the session's per-write mutex.
type sessionWriter struct{ s *protocol.Session }

func (w sessionWriter) Write(p []byte) (int, error) {
	if err := w.s.Send(p); err != nil {
		return 0, err
	}
	return len(p), nil
}
