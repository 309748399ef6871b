package gcal

import (
	"context"
	"fmt"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/rochsolutions/ai-receptionist/internal/dialogue"
	"github.com/rochsolutions/ai-receptionist/internal/observability/metrics"
	"github.com/rochsolutions/ai-receptionist/internal/slots"
	"github.com/rochsolutions/ai-receptionist/pkg/logging"
	"golang.org/x/oauth2"
)

const defaultTimeout = 10 * time.Second

// Client implements the dialogue layer's Calendar interface on top of the
// Google Calendar API. Every call runs under a bounded timeout so a stalled
// upstream fails closed instead of hanging the turn.
type Client struct {
	tokens   *TokenStore
	oauthCfg *oauth2.Config
	timeout  time.Duration
	metrics  *metrics.CalendarMetrics
	logger   *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMetrics attaches calendar call metrics.
func WithMetrics(m *metrics.CalendarMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a Google Calendar client reading its credential from the
// token store on every call.
func NewClient(tokens *TokenStore, oauthCfg *oauth2.Config, logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		tokens:   tokens,
		oauthCfg: oauthCfg,
		timeout:  defaultTimeout,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// service builds a calendar service for the stored credential. The oauth2
// token source refreshes expired access tokens transparently.
func (c *Client) service(ctx context.Context) (*calendar.Service, error) {
	tok, err := c.tokens.Get(ctx)
	if err != nil {
		return nil, err
	}
	src := c.oauthCfg.TokenSource(ctx, tok)
	svc, err := calendar.NewService(ctx, option.WithTokenSource(src))
	if err != nil {
		return nil, fmt.Errorf("gcal: service: %w", err)
	}
	return svc, nil
}

func (c *Client) observe(op string, started time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.metrics.ObserveCall(op, status, time.Since(started).Seconds())
}

// QueryBusy returns the busy blocks on the calendar between start and end.
func (c *Client) QueryBusy(ctx context.Context, calendarID string, start, end time.Time) (busy []slots.Busy, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	started := time.Now()
	defer func() { c.observe("freebusy", started, err) }()

	svc, err := c.service(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := svc.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin: start.Format(time.RFC3339),
		TimeMax: end.Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gcal: freebusy: %w", err)
	}

	cal, ok := resp.Calendars[calendarID]
	if !ok {
		return nil, nil
	}
	for _, p := range cal.Busy {
		b, perr := parsePeriod(p.Start, p.End)
		if perr != nil {
			c.logger.Warn("skipping unparseable busy block", "error", perr)
			continue
		}
		busy = append(busy, b)
	}
	return busy, nil
}

// CreateEvent inserts a new event and returns its ID.
func (c *Client) CreateEvent(ctx context.Context, calendarID string, start, end time.Time, summary, description string) (id string, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	started := time.Now()
	defer func() { c.observe("insert", started, err) }()

	svc, err := c.service(ctx)
	if err != nil {
		return "", err
	}
	ev, err := svc.Events.Insert(calendarID, &calendar.Event{
		Summary:     summary,
		Description: description,
		Start:       eventTime(start),
		End:         eventTime(end),
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gcal: insert: %w", err)
	}
	return ev.Id, nil
}

// PatchEventTime moves an existing event to a new interval, leaving the rest
// of the event untouched.
func (c *Client) PatchEventTime(ctx context.Context, calendarID, eventID string, start, end time.Time) (err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	started := time.Now()
	defer func() { c.observe("patch", started, err) }()

	svc, err := c.service(ctx)
	if err != nil {
		return err
	}
	_, err = svc.Events.Patch(calendarID, eventID, &calendar.Event{
		Start: eventTime(start),
		End:   eventTime(end),
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gcal: patch: %w", err)
	}
	return nil
}

// DeleteEvent removes an event from the calendar.
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) (err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	started := time.Now()
	defer func() { c.observe("delete", started, err) }()

	svc, err := c.service(ctx)
	if err != nil {
		return err
	}
	if err := svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gcal: delete: %w", err)
	}
	return nil
}

// ListUpcoming returns upcoming events with their descriptions, bounded by a
// day horizon and a result cap, ordered by start time.
func (c *Client) ListUpcoming(ctx context.Context, calendarID string, horizonDays, max int) (events []dialogue.Event, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	started := time.Now()
	defer func() { c.observe("list", started, err) }()

	svc, err := c.service(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	resp, err := svc.Events.List(calendarID).
		TimeMin(now.Format(time.RFC3339)).
		TimeMax(now.AddDate(0, 0, horizonDays).Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(int64(max)).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gcal: list: %w", err)
	}

	for _, item := range resp.Items {
		if item.Start == nil || item.Start.DateTime == "" {
			// All-day events carry no clock time and can't be rescheduled
			// into a slot.
			continue
		}
		start, perr := time.Parse(time.RFC3339, item.Start.DateTime)
		if perr != nil {
			continue
		}
		var end time.Time
		if item.End != nil && item.End.DateTime != "" {
			end, _ = time.Parse(time.RFC3339, item.End.DateTime)
		}
		events = append(events, dialogue.Event{
			ID:          item.Id,
			Summary:     item.Summary,
			Description: item.Description,
			Start:       start,
			End:         end,
		})
	}
	return events, nil
}

// parsePeriod converts a Google busy period (RFC3339 strings) into an
// interval.
func parsePeriod(startStr, endStr string) (slots.Busy, error) {
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return slots.Busy{}, fmt.Errorf("gcal: busy start %q: %w", startStr, err)
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return slots.Busy{}, fmt.Errorf("gcal: busy end %q: %w", endStr, err)
	}
	return slots.Busy{Start: start, End: end}, nil
}

func eventTime(t time.Time) *calendar.EventDateTime {
	return &calendar.EventDateTime{
		DateTime: t.Format(time.RFC3339),
		TimeZone: t.Location().String(),
	}
}
