package orders

type Status string

const (
	StatusPlaced     Status = "PLACED"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Processing -> Placed is the admin revert path.
var validNext = map[Status]map[Status]bool{
	StatusPlaced:     {StatusProcessing: true, StatusCancelled: true},
	StatusProcessing: {StatusCompleted: true, StatusCancelled: true, StatusPlaced: true},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// statusOrder keeps AllowedNext output stable.
var statusOrder = []Status{StatusPlaced, StatusProcessing, StatusCompleted, StatusCancelled}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// AllowedNext lists the statuses reachable from the given one, for the
// admin status form.
func AllowedNext(from Status) []Status {
	var out []Status
	for _, s := range statusOrder {
		if validNext[from][s] {
			out = append(out, s)
		}
	}
	return out
}

func (s Status) Terminal() bool {
	next, ok := validNext[s]
	return ok && len(next) == 0
}

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPlaced, StatusProcessing, StatusCompleted, StatusCancelled:
		return Status(s), true
	}
	return "", false
}
