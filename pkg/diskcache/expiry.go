package diskcache

import "time"

// neverExpires is the far-future instant that "never" resolves to. Entries stamped with it
// outlive any realistic deployment but still carry a concrete, comparable timestamp, so the
// sweep can order every entry with one plain time comparison and no optional handling.
var neverExpires = time.Date(2286, time.November, 20, 17, 46, 40, 0, time.UTC)

// Expiry is the moment after which an entry becomes eligible for removal. The zero value
// means "never". Expiry is only enforced by the explicit sweep operations (RemoveIfExpired,
// ClearExpired); reads return whatever is on disk regardless of how old it is.
type Expiry struct {
	at time.Time
}

// Never returns an Expiry that resolves to the far-future sentinel.
func Never() Expiry {
	return Expiry{}
}

// At returns an Expiry for the given absolute instant.
func At(instant time.Time) Expiry {
	return Expiry{at: instant}
}

// In returns an Expiry for `ttl` from now.
func In(ttl time.Duration) Expiry {
	return Expiry{at: time.Now().Add(ttl)}
}

// IsNever reports whether this expiry is the "never" case.
func (e Expiry) IsNever() bool {
	return e.at.IsZero()
}

// Resolved returns the concrete instant this expiry stands for. It is always comparable;
// "never" resolves to the sentinel rather than a zero time.
func (e Expiry) Resolved() time.Time {
	if e.at.IsZero() {
		return neverExpires
	}
	return e.at
}
