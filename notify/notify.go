package notify

import "v2t/log"

// Notifier surfaces short status messages to the user. Implementations
// must not block the caller on user interaction.
type Notifier interface {
	Notify(title, message string)
}

// System returns the platform notifier. Delivery failures are logged,
// never returned: a missed notification should not affect a take.
func System() Notifier {
	return systemNotifier{}
}

type systemNotifier struct{}

func (systemNotifier) Notify(title, message string) {
	if err := send(title, message); err != nil {
		log.Warnf("notification failed: %v", err)
	}
}
