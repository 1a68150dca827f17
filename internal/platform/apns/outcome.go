package apns

import (
	"fmt"

	"github.com/sideshow/apns2"
)

// Outcome is the result of one Send. Failures are reported here rather than as errors so
// a caller sending many notifications can tally them without stopping.
type Outcome struct {
	Notification *Notification
	Sent         bool

	// Reason is the gateway's rejection reason, or the local cause when the gateway was
	// never reached.
	Reason     string
	StatusCode int
	ApnsID     string

	// Err is set when the gateway was not reached: a *ValidationError or a transport error.
	Err error
}

func (o Outcome) Failed() bool { return !o.Sent }

func (o Outcome) String() string {
	if o.Sent {
		return fmt.Sprintf("sent apns-id=%s", o.ApnsID)
	}
	return fmt.Sprintf("failed status=%d reason=%s", o.StatusCode, o.Reason)
}

func succeeded(n *Notification, res *apns2.Response) Outcome {
	return Outcome{
		Notification: n,
		Sent:         true,
		StatusCode:   res.StatusCode,
		ApnsID:       res.ApnsID,
	}
}

func rejected(n *Notification, res *apns2.Response) Outcome {
	return Outcome{
		Notification: n,
		Reason:       res.Reason,
		StatusCode:   res.StatusCode,
		ApnsID:       res.ApnsID,
	}
}

func failed(n *Notification, reason string, err error) Outcome {
	return Outcome{
		Notification: n,
		Reason:       reason,
		Err:          err,
	}
}

// IsInvalidTokenReason reports whether APNs rejected the device token itself, meaning the
// token should be forgotten rather than retried.
func IsInvalidTokenReason(reason string) bool {
	switch reason {
	case apns2.ReasonBadDeviceToken, apns2.ReasonUnregistered, apns2.ReasonDeviceTokenNotForTopic:
		return true
	default:
		return false
	}
}
