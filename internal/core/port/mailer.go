package port

import "context"

// Mailer delivers one-time verification codes out of band. Delivery is
// best-effort: callers log failures and never roll back account state.
type Mailer interface {
	SendVerificationCode(ctx context.Context, to, code string) error
}
