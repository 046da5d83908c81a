package email

import "context"

// Mailer delivers out-of-band messages to users. Implementations talk to an
// external provider; callers treat any returned error as "the message was not
// delivered" and must roll back whatever the message was carrying.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, firstName, resetURL string) error
}
