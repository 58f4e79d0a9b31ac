package audit

import (
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/objmap/internal/core"
)

// WarningPolicy returns a core.WarningSink that answers every warning with
// accept and logs the decision.
func WarningPolicy(accept bool) core.WarningSink {
	return func(obj core.Entity, message string) bool {
		slog.Warn("object warning",
			"object", fmt.Sprintf("%T", obj),
			"message", message,
			"accepted", accept,
		)
		return accept
	}
}
