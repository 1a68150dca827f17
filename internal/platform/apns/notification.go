package apns

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
)

// MinDeviceTokenLength is the shortest hex device token APNs issues.
const MinDeviceTokenLength = 64

var hexToken = regexp.MustCompile(`^[0-9A-Fa-f]+$`)

// IsValidDeviceToken reports whether s looks like an APNs device token.
func IsValidDeviceToken(s string) bool {
	return len(s) >= MinDeviceTokenLength && hexToken.MatchString(s)
}

type expirationKind int

const (
	expirationUnset expirationKind = iota
	expirationAt
	expirationDoNotStore
)

// Expiration tells APNs how long it may store and forward a notification.
// The zero value leaves the decision to APNs.
type Expiration struct {
	kind expirationKind
	at   time.Time
}

// DoNotStore asks APNs to attempt delivery once and discard the notification.
var DoNotStore = Expiration{kind: expirationDoNotStore}

// ExpireAt asks APNs to stop retrying delivery after t.
func ExpireAt(t time.Time) Expiration {
	return Expiration{kind: expirationAt, at: t}
}

func (e Expiration) IsSet() bool        { return e.kind != expirationUnset }
func (e Expiration) IsDoNotStore() bool { return e.kind == expirationDoNotStore }

// Time is the value sent as apns-expiration. DoNotStore maps to the Unix epoch; the
// channel turns that into the header value 0.
func (e Expiration) Time() time.Time {
	switch e.kind {
	case expirationAt:
		return e.at
	case expirationDoNotStore:
		return doNotStoreTime
	default:
		return time.Time{}
	}
}

// Notification is a single alert addressed to one device. Fields may be changed freely
// until it is handed to Send; Serialize reads them once per call.
type Notification struct {
	// Tag is carried through to the Outcome untouched.
	Tag any
	// ID becomes the apns-id header. Empty lets APNs assign one.
	ID string

	DeviceToken string
	Topic       string

	Title    string
	Subtitle string
	// Body must be nil when the notification is sent, see Serialize.
	Body *string

	Badge       *int
	Sound       string
	Expiration  Expiration
	LowPriority bool

	// Data is merged into the payload next to the aps dictionary.
	Data map[string]any
}

// NewNotification assigns a fresh apns-id and rejects a token that is set but too short.
func NewNotification(deviceToken, title, subtitle string) (*Notification, error) {
	n := &Notification{
		ID:          uuid.NewString(),
		DeviceToken: deviceToken,
		Title:       title,
		Subtitle:    subtitle,
	}
	if deviceToken != "" && len(deviceToken) < MinDeviceTokenLength {
		return nil, &ValidationError{Notification: n, Err: ErrInvalidToken}
	}
	return n, nil
}

// IsDeviceTokenValid reports whether the token is long enough and hex encoded.
func (n *Notification) IsDeviceTokenValid() bool {
	return IsValidDeviceToken(n.DeviceToken)
}

// Serialize validates the notification and builds the wire payload.
//
// A set Body is rejected. That matches the behaviour this client has always had;
// see DESIGN.md before changing it.
func (n *Notification) Serialize() (*apns2.Notification, error) {
	if n.Body != nil {
		return nil, n.invalid(ErrBodyMustBeAbsent)
	}
	if strings.TrimSpace(n.Sound) == "" {
		return nil, n.invalid(ErrSoundRequired)
	}
	if strings.TrimSpace(n.DeviceToken) == "" || len(n.DeviceToken) < MinDeviceTokenLength {
		return nil, n.invalid(ErrInvalidToken)
	}
	if n.Badge != nil && *n.Badge < 0 {
		return nil, n.invalid(ErrInvalidBadge)
	}

	p := payload.NewPayload()
	n.addAlert(p)
	p.Sound(n.Sound)
	if n.Badge != nil {
		p.Badge(*n.Badge)
	}
	for k, v := range n.Data {
		p.Custom(k, v)
	}

	priority := apns2.PriorityHigh
	if n.LowPriority {
		priority = apns2.PriorityLow
	}

	wire := &apns2.Notification{
		ApnsID:      n.ID,
		DeviceToken: n.DeviceToken,
		Topic:       n.Topic,
		Priority:    priority,
		PushType:    apns2.PushTypeAlert,
		Payload:     p,
	}
	if n.Expiration.IsSet() {
		wire.Expiration = n.Expiration.Time()
	}
	return wire, nil
}

func (n *Notification) addAlert(p *payload.Payload) {
	if n.Title != "" {
		p.AlertTitle(n.Title)
	}
	if n.Subtitle != "" {
		p.AlertSubtitle(n.Subtitle)
	}
	if n.Body != nil {
		p.AlertBody(*n.Body)
	}
}

func (n *Notification) invalid(err error) error {
	return &ValidationError{Notification: n, Err: err}
}
