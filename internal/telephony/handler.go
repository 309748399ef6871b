package telephony

import (
	"errors"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rochsolutions/ai-receptionist/internal/dialogue"
	"github.com/rochsolutions/ai-receptionist/internal/session"
	"github.com/rochsolutions/ai-receptionist/pkg/logging"
)

const errorReply = "Sorry, something went wrong on our side. Please call back in a few minutes."

// Handler handles Twilio voice webhook requests.
type Handler struct {
	webhookSecret string
	turnPath      string
	sessions      *session.Store
	machine       *dialogue.Machine
	logger        *logging.Logger
	tracer        trace.Tracer
}

// NewHandler creates a voice webhook handler. turnPath is the webhook path
// Twilio posts each speech turn to, used as the Gather action.
func NewHandler(webhookSecret, turnPath string, sessions *session.Store, machine *dialogue.Machine, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if sessions == nil {
		panic("telephony: session store cannot be nil")
	}
	if machine == nil {
		panic("telephony: dialogue machine cannot be nil")
	}
	return &Handler{
		webhookSecret: webhookSecret,
		turnPath:      turnPath,
		sessions:      sessions,
		machine:       machine,
		logger:        logger,
		tracer:        otel.Tracer("receptionist.internal.telephony.voice"),
	}
}

// Voice handles POST /webhooks/twilio/voice, the start of a call. It resets
// any session left over from a previous call on the same SID, speaks the
// greeting and opens the first gather.
func (h *Handler) Voice(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "telephony.twilio.voice")
	defer span.End()

	if !h.authorized(r) {
		h.logger.Warn("invalid twilio voice signature")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		span.RecordError(errors.New("invalid twilio voice signature"))
		return
	}

	turn, err := ParseCallTurn(r)
	if err != nil {
		h.logger.Error("failed to parse voice webhook", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		span.RecordError(err)
		return
	}
	if turn.CallSid == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		span.RecordError(errors.New("missing CallSid"))
		return
	}
	span.SetAttributes(attribute.String("twilio.call_sid", turn.CallSid))

	sess := dialogue.NewSession()
	if err := h.sessions.Put(ctx, turn.CallSid, sess); err != nil {
		h.logger.Error("failed to store call session", "error", err, "call_sid", turn.CallSid)
		h.writeTwiML(w, SayHangup(errorReply))
		span.RecordError(err)
		return
	}

	h.logger.Info("call started", "call_sid", turn.CallSid)
	h.writeTwiML(w, GatherPrompt(h.machine.Greeting(sess), h.turnPath))
}

// Turn handles POST /webhooks/twilio/turn, one caller utterance. The
// dialogue engine produces the reply and the updated session is written
// back before responding.
func (h *Handler) Turn(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "telephony.twilio.turn")
	defer span.End()

	if !h.authorized(r) {
		h.logger.Warn("invalid twilio turn signature")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		span.RecordError(errors.New("invalid twilio turn signature"))
		return
	}

	turn, err := ParseCallTurn(r)
	if err != nil {
		h.logger.Error("failed to parse turn webhook", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		span.RecordError(err)
		return
	}
	if turn.CallSid == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		span.RecordError(errors.New("missing CallSid"))
		return
	}
	span.SetAttributes(
		attribute.String("twilio.call_sid", turn.CallSid),
		attribute.Int("twilio.speech_len", len(turn.SpeechResult)),
	)

	sess, err := h.sessions.Get(ctx, turn.CallSid)
	if err != nil {
		h.logger.Error("failed to load call session", "error", err, "call_sid", turn.CallSid)
		h.writeTwiML(w, SayHangup(errorReply))
		span.RecordError(err)
		return
	}

	reply := h.machine.HandleTurn(ctx, turn.SpeechResult, sess)

	if err := h.sessions.Put(ctx, turn.CallSid, sess); err != nil {
		h.logger.Error("failed to store call session", "error", err, "call_sid", turn.CallSid)
		h.writeTwiML(w, SayHangup(errorReply))
		span.RecordError(err)
		return
	}

	h.writeTwiML(w, GatherPrompt(reply, h.turnPath))
}

func (h *Handler) authorized(r *http.Request) bool {
	if h.webhookSecret == "" {
		return true
	}
	return ValidateTwilioSignature(r, h.webhookSecret, buildAbsoluteURL(r))
}

func (h *Handler) writeTwiML(w http.ResponseWriter, resp Response) {
	body, err := Render(resp)
	if err != nil {
		h.logger.Error("failed to render twiml", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
